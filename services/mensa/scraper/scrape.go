package scraper

import (
	"context"
	"log/slog"
	"mensa-scraper/lib/browser"
	"mensa-scraper/lib/scrapers/mensa"
	"mensa-scraper/lib/telemetry"
	"mensa-scraper/lib/timezone"
	"mensa-scraper/services/mensa/export"
	"net/url"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

var tracer = telemetry.Tracer("mensa.services.mensa.scraper")

const (
	DefaultNavigationTimeout = time.Second * 40
	DefaultSettleDelay       = time.Millisecond * 800
)

// ImageFetcher stores the image of a card inside dir and returns its path.
type ImageFetcher interface {
	Fetch(ctx context.Context, imageUrl *url.URL, dir, mensa, dishType string) (string, error)
}

// Progress is notified as days are processed.
type Progress interface {
	Start(days int)
	Increment(day time.Time)
	Done()
}

type noopProgress struct{}

func (noopProgress) Start(int)           {}
func (noopProgress) Increment(time.Time) {}
func (noopProgress) Done()               {}

type Options struct {
	BaseUrl *url.URL
	// root directory for images, each day gets its own subdirectory
	OutDir            string
	NavigationTimeout time.Duration
	SettleDelay       time.Duration
	// can be nil
	Progress Progress
}

func (o Options) withDefaults() Options {
	if o.BaseUrl == nil {
		o.BaseUrl, _ = url.Parse(mensa.DefaultBaseUrl)
	}
	if o.NavigationTimeout <= 0 {
		o.NavigationTimeout = DefaultNavigationTimeout
	}
	if o.SettleDelay < 0 {
		o.SettleDelay = 0
	}
	if o.Progress == nil {
		o.Progress = noopProgress{}
	}
	return o
}

type Scraper struct {
	page    browser.Page
	fetcher ImageFetcher
	opts    Options
}

// NewScraper returns a scraper driving page, which it uses exclusively
// until Run returns.
func NewScraper(page browser.Page, fetcher ImageFetcher, opts Options) Scraper {
	return Scraper{
		page:    page,
		fetcher: fetcher,
		opts:    opts.withDefaults(),
	}
}

// Run scrapes every day in order. Failures of a single day or card are
// recorded in the report and never stop the run, only a cancelled ctx does.
func (s Scraper) Run(ctx context.Context, days []time.Time) Result {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()

	result := Result{Report: Report{Days: len(days)}}

	s.opts.Progress.Start(len(days))
	defer s.opts.Progress.Done()

	for _, day := range days {
		if ctx.Err() != nil {
			result.Report.Cancelled = true
			break
		}

		meals, skips, err := s.ScrapeDay(ctx, day)
		result.Meals = append(result.Meals, meals...)
		result.Report.add(day, skips)
		if ctx.Err() != nil {
			result.Report.Cancelled = true
			break
		}
		if err == nil {
			result.Report.DaysScraped++
		}
		s.opts.Progress.Increment(day)
	}

	span.SetAttributes(
		attribute.Int("days", result.Report.Days),
		attribute.Int("meals", len(result.Meals)),
		attribute.Int("skips", len(result.Report.Skips)),
	)
	return result
}

// ScrapeDay loads the menu page of day and turns every usable card into a
// meal. err is only set when the page itself could not be read, the day
// is then reported as a single skip.
func (s Scraper) ScrapeDay(ctx context.Context, day time.Time) ([]export.Meal, []mensa.Skip, error) {
	ctx, span := tracer.Start(ctx, "ScrapeDay")
	defer span.End()

	isoDate := timezone.FormatDate(day)
	span.SetAttributes(attribute.String("date", isoDate))

	link := mensa.DayUrl(s.opts.BaseUrl, isoDate)
	err := s.page.Goto(ctx, link, s.opts.NavigationTimeout)
	if err != nil {
		slog.DebugContext(ctx, "skipping day", "date", isoDate, "err", err)
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		return nil, []mensa.Skip{{Reason: mensa.ReasonNavigationFailed, Detail: err.Error()}}, err
	}
	err = s.page.WaitForTimeout(ctx, s.opts.SettleDelay)
	if err != nil {
		return nil, nil, err
	}

	markup, err := s.page.Content(ctx)
	if err != nil {
		slog.DebugContext(ctx, "failed to read page content", "date", isoDate, "err", err)
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		return nil, []mensa.Skip{{Reason: mensa.ReasonNavigationFailed, Detail: err.Error()}}, err
	}

	cards, skips, err := mensa.ParsePage(ctx, markup, s.opts.BaseUrl)
	if err != nil {
		return nil, []mensa.Skip{{Reason: mensa.ReasonBadMarkup, Detail: err.Error()}}, err
	}

	dayDir := filepath.Join(s.opts.OutDir, isoDate)
	var meals []export.Meal
	for _, card := range cards {
		imagePath, err := s.fetcher.Fetch(ctx, card.ImageUrl, dayDir, card.Mensa, card.DishType)
		if err != nil {
			slog.DebugContext(ctx, "failed to fetch image", "date", isoDate, "url", card.ImageUrl.String(), "err", err)
			skips = append(skips, mensa.Skip{
				Reason: mensa.ReasonDownloadFailed,
				Mensa:  card.Mensa,
				Detail: err.Error(),
			})
			continue
		}

		meals = append(meals, export.Meal{
			Date:        day,
			Description: card.Description,
			SideSalad:   export.PlaceholderFlag,
			RegioApple:  export.PlaceholderFlag,
			DishType:    card.DishType,
			Diet:        card.Diet,
			Mensa:       card.Mensa,
			ImagePath:   imagePath,
		})
	}

	slog.DebugContext(ctx, "scraped day", "date", isoDate, "meals", len(meals), "skips", len(skips))
	return meals, skips, nil
}
