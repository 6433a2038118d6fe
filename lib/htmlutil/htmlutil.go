package htmlutil

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func collectText(node *html.Node, out *[]string) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		text := strings.TrimSpace(node.Data)
		if text != "" {
			*out = append(*out, text)
		}
		return
	}
	child := node.FirstChild
	for child != nil {
		collectText(child, out)
		child = child.NextSibling
	}
}

// StrippedLines returns every descendant text node of the selection with
// surrounding whitespace trimmed, skipping the ones that end up empty.
func StrippedLines(sel *goquery.Selection) []string {
	var lines []string
	for _, n := range sel.Nodes {
		collectText(n, &lines)
	}
	return lines
}

// JoinedText is StrippedLines joined with sep.
func JoinedText(sel *goquery.Selection, sep string) string {
	return strings.Join(StrippedLines(sel), sep)
}

func nextInDocument(node *html.Node) *html.Node {
	if node.FirstChild != nil {
		return node.FirstChild
	}
	for node != nil {
		if node.NextSibling != nil {
			return node.NextSibling
		}
		node = node.Parent
	}
	return nil
}

// NextElement returns the first element with the given tag name that comes
// after the first node of sel in document order. The returned selection is
// empty when there is none.
func NextElement(sel *goquery.Selection, tag string) *goquery.Selection {
	if sel.Length() == 0 {
		return sel
	}
	empty := sel.Slice(0, 0)
	for n := nextInDocument(sel.Nodes[0]); n != nil; n = nextInDocument(n) {
		if n.Type == html.ElementNode && n.Data == tag {
			return empty.AddNodes(n)
		}
	}
	return empty
}
