package mensa

import (
	"context"
	"mensa-scraper/lib/htmlutil"
	"mensa-scraper/lib/textutil"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
)

// "Mensa" as a whole word, where word characters include non-ASCII letters
var mensaHeadingRegex = regexp.MustCompile(`(?i)(^|[^\p{L}\p{N}_])Mensa($|[^\p{L}\p{N}_])`)

// side salad and regional apple notices are printed under most dishes
var boilerplateRegex = regexp.MustCompile(`(?i)^(beilagensalat|regio[- ]?apfel)`)

const separatorRun = "-------------"

// textStrategy extracts one field from a card, "" means it found nothing.
type textStrategy func(card *goquery.Selection) string

func constant(value string) textStrategy {
	return func(*goquery.Selection) string {
		return value
	}
}

func firstOf(card *goquery.Selection, strategies []textStrategy) string {
	for _, strategy := range strategies {
		value := strategy(card)
		if value != "" {
			return value
		}
	}
	return ""
}

func firstBadgeText(card *goquery.Selection) string {
	var text string
	card.Find("div.inline-flex").EachWithBreak(func(_ int, badge *goquery.Selection) bool {
		text = cleanLabel(htmlutil.JoinedText(badge, " "))
		return text == ""
	})
	return text
}

func firstLabelText(card *goquery.Selection) string {
	return cleanLabel(htmlutil.JoinedText(card.Find("span").First(), " "))
}

var dietStrategies = []textStrategy{firstBadgeText, constant(DefaultDiet)}
var dishTypeStrategies = []textStrategy{firstLabelText, constant(DefaultDishType)}

func cleanLabel(text string) string {
	return strings.TrimSpace(textutil.StripDelimiters(text))
}

// description returns the normalized dish description of a card, reason
// is set when the card has none.
func description(card *goquery.Selection) (string, Reason) {
	block := card.Find("div.text-sm > p").First()
	if block.Length() == 0 {
		return "", ReasonNoDescription
	}

	var lines []string
	for _, line := range htmlutil.StrippedLines(block) {
		if boilerplateRegex.MatchString(line) {
			continue
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return "", ReasonBoilerplateOnly
	}

	text := strings.Join(lines, " ")
	text = strings.ReplaceAll(text, separatorRun, " ")
	text = textutil.Clean(text)
	if text == "" {
		return "", ReasonBoilerplateOnly
	}
	return text, ""
}

// ParsePage parses the rendered markup of a day's menu page.
func ParsePage(ctx context.Context, markup string, base *url.URL) ([]Card, []Skip, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, nil, err
	}
	cards, skips := ExtractCards(ctx, doc, base)
	return cards, skips, nil
}

// ExtractCards returns every dish card of every mensa section in doc.
// Headings and cards that are missing required parts are reported as skips
// instead of aborting the page.
func ExtractCards(ctx context.Context, doc *goquery.Document, base *url.URL) ([]Card, []Skip) {
	ctx, span := tracer.Start(ctx, "ExtractCards")
	defer span.End()

	var cards []Card
	var skips []Skip

	doc.Find("h2").Each(func(_ int, heading *goquery.Selection) {
		title := heading.Text()
		if !mensaHeadingRegex.MatchString(title) {
			return
		}
		mensa := textutil.Clean(title)

		container := htmlutil.NextElement(heading, "div")
		if container.Length() == 0 {
			skips = append(skips, Skip{Reason: ReasonNoContainer, Mensa: mensa})
			return
		}

		container.Find("a[href]").Each(func(_ int, card *goquery.Selection) {
			desc, reason := description(card)
			if reason != "" {
				skips = append(skips, Skip{Reason: reason, Mensa: mensa})
				return
			}

			imageUrl, ok := ResolveImageUrl(base, card)
			if !ok {
				skips = append(skips, Skip{Reason: ReasonNoImage, Mensa: mensa, Detail: desc})
				return
			}

			cards = append(cards, Card{
				Mensa:       mensa,
				Description: desc,
				Diet:        firstOf(card, dietStrategies),
				DishType:    firstOf(card, dishTypeStrategies),
				ImageUrl:    imageUrl,
			})
		})
	})

	span.SetAttributes(
		attribute.Int("cards", len(cards)),
		attribute.Int("skips", len(skips)),
	)
	return cards, skips
}
