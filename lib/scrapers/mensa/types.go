package mensa

import (
	"fmt"
	"net/url"
)

const DefaultBaseUrl = "https://mensa.fachschaft.tf/"

const (
	DefaultDiet     = "Nicht-vegetarisch"
	DefaultDishType = "meal"
)

// Card is one dish offered by a mensa, as found on a day's menu page.
type Card struct {
	Mensa       string
	Description string
	Diet        string
	DishType    string
	ImageUrl    *url.URL
}

// Reason says why a heading, card or day did not produce a meal.
type Reason string

const (
	ReasonNoContainer      Reason = "no_container"
	ReasonNoDescription    Reason = "no_description"
	ReasonBoilerplateOnly  Reason = "boilerplate_only"
	ReasonNoImage          Reason = "no_image"
	ReasonDownloadFailed   Reason = "download_failed"
	ReasonNavigationFailed Reason = "navigation_failed"
	ReasonBadMarkup        Reason = "bad_markup"
)

type Skip struct {
	Reason Reason
	Mensa  string
	Detail string
}

func (s Skip) String() string {
	if s.Detail == "" {
		return fmt.Sprintf("%s (%s)", s.Reason, s.Mensa)
	}
	return fmt.Sprintf("%s (%s): %s", s.Reason, s.Mensa, s.Detail)
}

// DayUrl returns the menu page of the day formatted as YYYY-MM-DD.
func DayUrl(base *url.URL, isoDate string) string {
	link := *base
	query := link.Query()
	query.Set("date", isoDate)
	link.RawQuery = query.Encode()
	return link.String()
}
