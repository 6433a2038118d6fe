package mensa

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// urlStrategy extracts a possibly relative image url from a card, "" means
// it found nothing.
type urlStrategy func(card *goquery.Selection) string

func imageAttr(name string) urlStrategy {
	return func(card *goquery.Selection) string {
		return strings.TrimSpace(card.Find("img").First().AttrOr(name, ""))
	}
}

// the first candidate of "a.jpg 1x, b.jpg 2x" is "a.jpg"
func imageSrcset(card *goquery.Selection) string {
	srcset := card.Find("img").First().AttrOr("srcset", "")
	first, _, _ := strings.Cut(srcset, ",")
	fields := strings.Fields(first)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

var backgroundUrlRegex = regexp.MustCompile(`url\(\s*["']?(.*?)["']?\s*\)`)

func backgroundImage(card *goquery.Selection) string {
	style := card.Find("div[style*=background-image]").First().AttrOr("style", "")
	if !strings.Contains(style, "background-image") {
		return ""
	}
	groups := backgroundUrlRegex.FindStringSubmatch(style)
	if len(groups) < 2 {
		return ""
	}
	return strings.TrimSpace(groups[1])
}

var imageStrategies = []urlStrategy{
	imageAttr("src"),
	imageAttr("data-src"),
	imageSrcset,
	backgroundImage,
}

// ResolveImageUrl finds the image of a card and resolves it against base.
func ResolveImageUrl(base *url.URL, card *goquery.Selection) (*url.URL, bool) {
	for _, strategy := range imageStrategies {
		ref := strategy(card)
		if ref == "" {
			continue
		}
		resolved, err := base.Parse(ref)
		if err != nil {
			continue
		}
		return resolved, true
	}
	return nil, false
}
