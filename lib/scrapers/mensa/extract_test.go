package mensa

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

var testBase, _ = url.Parse("https://mensa.example/")

var compareUrls = cmp.Comparer(func(a, b *url.URL) bool {
	return a.String() == b.String()
})

func mustUrl(t testing.TB, raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func cardSelection(t testing.TB, markup string) *goquery.Selection {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		t.Fatal(err)
	}
	return doc.Find("a").First()
}

const academicaPage = `<html><body>
<h2>Mensa Academica</h2>
<div class="grid">
	<a href="/dish/1">
		<span>Hauptgericht</span>
		<div class="inline-flex">Vegan</div>
		<img src="/img/pasta.jpg">
		<div class="text-sm"><p>Pasta Bolognese<br>Beilagensalat optional</p></div>
	</a>
</div>
</body></html>`

func TestParsePageExample(t *testing.T) {
	cards, skips, err := ParsePage(context.Background(), academicaPage, testBase)
	require.NoError(t, err)
	require.Empty(t, skips)

	expected := []Card{{
		Mensa:       "Mensa Academica",
		Description: "Pasta Bolognese",
		Diet:        "Vegan",
		DishType:    "Hauptgericht",
		ImageUrl:    mustUrl(t, "https://mensa.example/img/pasta.jpg"),
	}}
	if diff := cmp.Diff(expected, cards, compareUrls); diff != "" {
		t.Fatal(diff)
	}
}

const mixedPage = `<html><body>
<header><h2>Speiseplan</h2><div id="nav"></div></header>

<h2>Mensa Rempartstraße, Freiburg</h2>
<div>
	<a href="#a">
		<div class="inline-flex">  </div>
		<div class="inline-flex"><span>vege</span>tarisch;</div>
		<div class="text-sm"><p>Gemüse-Curry, Reis<br>-------------<br>Joghurt; Obst</p></div>
		<div style="background-image: url('/img/curry.webp')"></div>
	</a>
	<a href="#b">
		<div class="text-sm"><p>Beilagensalat<br>Regio-Apfel<br>  regioapfel des Tages</p></div>
		<img src="/img/salad.jpg">
	</a>
	<a href="#c">
		<div class="text-sm"><p>Schnitzel mit Pommes</p></div>
	</a>
	<a href="#d">
		<span>Dessert</span>
		<img src="/img/pudding.jpg">
	</a>
	<a>
		<div class="text-sm"><p>not a card without href</p></div>
		<img src="/img/none.jpg">
	</a>
</div>

<h2>MENSA Littenweiler</h2>
</body></html>`

func TestParsePageFallbacks(t *testing.T) {
	cards, skips, err := ParsePage(context.Background(), mixedPage, testBase)
	require.NoError(t, err)

	expectedCards := []Card{{
		Mensa:       "Mensa Rempartstrae Freiburg",
		Description: "Gemuse-Curry Reis Joghurt Obst",
		Diet:        "vege tarisch",
		// the first span of the card sits inside the diet badge
		DishType:    "vege",
		ImageUrl:    mustUrl(t, "https://mensa.example/img/curry.webp"),
	}}
	if diff := cmp.Diff(expectedCards, cards, compareUrls); diff != "" {
		t.Fatal(diff)
	}

	expectedSkips := []Skip{
		{Reason: ReasonBoilerplateOnly, Mensa: "Mensa Rempartstrae Freiburg"},
		{Reason: ReasonNoImage, Mensa: "Mensa Rempartstrae Freiburg", Detail: "Schnitzel mit Pommes"},
		{Reason: ReasonNoDescription, Mensa: "Mensa Rempartstrae Freiburg"},
		{Reason: ReasonNoContainer, Mensa: "MENSA Littenweiler"},
	}
	if diff := cmp.Diff(expectedSkips, skips); diff != "" {
		t.Fatal(diff)
	}
}

func TestParsePageWithoutMensa(t *testing.T) {
	cards, skips, err := ParsePage(context.Background(), `<h2>Mensaplan</h2><div><a href="/">x</a></div>`, testBase)
	require.NoError(t, err)
	require.Empty(t, cards)
	require.Empty(t, skips)

	cards, skips, err = ParsePage(context.Background(), "", testBase)
	require.NoError(t, err)
	require.Empty(t, cards)
	require.Empty(t, skips)
}

func TestDietStrategies(t *testing.T) {
	cases := []struct {
		markup   string
		expected string
	}{
		{markup: `<a href="/"></a>`, expected: DefaultDiet},
		{markup: `<a href="/"><div class="inline-flex"></div></a>`, expected: DefaultDiet},
		{markup: `<a href="/"><div class="inline-flex">Vegan</div><div class="inline-flex">Vegetarisch</div></a>`, expected: "Vegan"},
		{markup: `<a href="/"><div class="inline-flex"> </div><div class="inline-flex">Vegetarisch</div></a>`, expected: "Vegetarisch"},
		{markup: `<a href="/"><div class="inline-flex">Fisch,Vegan</div></a>`, expected: "Fisch Vegan"},
		{markup: `<a href="/"><div class="badge">Vegan</div></a>`, expected: DefaultDiet},
	}
	for _, test := range cases {
		card := cardSelection(t, test.markup)
		require.Equal(t, test.expected, firstOf(card, dietStrategies), test.markup)
	}
}

func TestDishTypeStrategies(t *testing.T) {
	cases := []struct {
		markup   string
		expected string
	}{
		{markup: `<a href="/"></a>`, expected: DefaultDishType},
		{markup: `<a href="/"><span>Hauptgericht</span><span>Beilage</span></a>`, expected: "Hauptgericht"},
		{markup: `<a href="/"><span><b>Essen</b> 1</span></a>`, expected: "Essen 1"},
		{markup: `<a href="/"><span>;</span></a>`, expected: DefaultDishType},
	}
	for _, test := range cases {
		card := cardSelection(t, test.markup)
		require.Equal(t, test.expected, firstOf(card, dishTypeStrategies), test.markup)
	}
}

func TestDescription(t *testing.T) {
	cases := []struct {
		markup         string
		expected       string
		expectedReason Reason
	}{
		{
			markup:         `<a href="/"><p>outside of block</p></a>`,
			expectedReason: ReasonNoDescription,
		},
		{
			markup:         `<a href="/"><div class="text-sm"><p>BEILAGENSALAT<br>Regio Apfel</p></div></a>`,
			expectedReason: ReasonBoilerplateOnly,
		},
		{
			markup:         `<a href="/"><div class="text-sm"><p>-------------</p></div></a>`,
			expectedReason: ReasonBoilerplateOnly,
		},
		{
			markup:   `<a href="/"><div class="text-sm"><p>Linsen  Dal<br>mit Salat<br>Beilagensalat</p></div></a>`,
			expected: "Linsen Dal mit Salat",
		},
		{
			markup:   `<a href="/"><div class="text-sm"><div><p>nested is not a direct child</p></div><p>Suppe</p></div></a>`,
			expected: "Suppe",
		},
	}
	for _, test := range cases {
		text, reason := description(cardSelection(t, test.markup))
		require.Equal(t, test.expected, text, test.markup)
		require.Equal(t, test.expectedReason, reason, test.markup)
	}
}

func TestDayUrl(t *testing.T) {
	base := mustUrl(t, DefaultBaseUrl)
	require.Equal(t, "https://mensa.fachschaft.tf/?date=2024-05-06", DayUrl(base, "2024-05-06"))
	require.Equal(t, DefaultBaseUrl, base.String())
}

func TestMensaHeading(t *testing.T) {
	cases := []struct {
		title    string
		expected bool
	}{
		{title: "Mensa Academica", expected: true},
		{title: "MENSA Littenweiler", expected: true},
		{title: "Die Mensa", expected: true},
		{title: "Speiseplan (Mensa)", expected: true},
		{title: "Mensaé", expected: false},
		{title: "éMensa Nord", expected: false},
		{title: "Mensa2", expected: false},
		{title: "Mensa_Nord", expected: false},
		{title: "Mensaria", expected: false},
		{title: "Speiseplan", expected: false},
	}
	for _, test := range cases {
		require.Equal(t, test.expected, mensaHeadingRegex.MatchString(test.title), test.title)
	}
}

func TestParsePageNonAsciiWordBoundary(t *testing.T) {
	markup := `<html><body>
<h2>Mensaé</h2>
<div><a href="/1"><div class="text-sm"><p>Pasta</p></div><img src="/a.jpg"></a></div>
</body></html>`
	cards, skips, err := ParsePage(context.Background(), markup, testBase)
	require.NoError(t, err)
	require.Empty(t, cards)
	require.Empty(t, skips)
}

func TestSkipString(t *testing.T) {
	require.Equal(t, "no_container (MENSA Littenweiler)", Skip{Reason: ReasonNoContainer, Mensa: "MENSA Littenweiler"}.String())
	require.Equal(
		t,
		"no_image (Mensa Flugplatz): Tomatensuppe",
		Skip{Reason: ReasonNoImage, Mensa: "Mensa Flugplatz", Detail: "Tomatensuppe"}.String(),
	)
}
