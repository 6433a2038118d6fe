package htmlutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func parse(t testing.TB, markup string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestStrippedLines(t *testing.T) {
	doc := parse(t, `<p>
		Pasta Bolognese
		<br>
		<b>  mit Parmesan </b>

		<span>   </span>
		Beilagensalat
	</p>`)

	lines := StrippedLines(doc.Find("p"))
	require.Equal(t, []string{"Pasta Bolognese", "mit Parmesan", "Beilagensalat"}, lines)
	require.Equal(t, "Pasta Bolognese|mit Parmesan|Beilagensalat", JoinedText(doc.Find("p"), "|"))
	require.Empty(t, StrippedLines(doc.Find("table")))
}

func TestNextElement(t *testing.T) {
	doc := parse(t, `<body>
		<section>
			<h2 id="first">Mensa Rempartstrasse</h2>
		</section>
		<p>filler</p>
		<div id="a"><div id="nested"></div></div>
		<h2 id="second">Mensa Littenweiler</h2>
		<div id="b"></div>
		<h2 id="last">Mensa Flugplatz</h2>
	</body>`)

	next := NextElement(doc.Find("#first"), "div")
	require.Equal(t, 1, next.Length())
	require.Equal(t, "a", next.AttrOr("id", ""))

	next = NextElement(doc.Find("#second"), "div")
	require.Equal(t, "b", next.AttrOr("id", ""))

	next = NextElement(doc.Find("#last"), "div")
	require.Equal(t, 0, next.Length())

	next = NextElement(doc.Find("#missing"), "div")
	require.Equal(t, 0, next.Length())
}
