package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mensa-scraper/cmd/mensa-cli/utils"
	"mensa-scraper/lib/browser"
	"mensa-scraper/lib/configutil"
	"mensa-scraper/lib/diskutil"
	"mensa-scraper/lib/restyutil"
	"mensa-scraper/lib/scrapers/mensa"
	"mensa-scraper/lib/serviceutil"
	"mensa-scraper/lib/timezone"
	"mensa-scraper/services/mensa/export"
	"mensa-scraper/services/mensa/scraper"
	"mensa-scraper/services/mensa/store"
	"net/url"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

type Config struct {
	BaseUrl             string `json:"base_url"`
	NavigationTimeoutMs int    `json:"navigation_timeout_ms"`
	// a pointer so that an explicit 0 turns the delay off
	SettleDelayMs     *int `json:"settle_delay_ms"`
	DownloadTimeoutMs int  `json:"download_timeout_ms"`
	// shows the browser window, mostly useful while debugging selectors
	Headful   bool   `json:"headful"`
	UserAgent string `json:"user_agent"`
}

var defaultConfig = Config{
	BaseUrl:             mensa.DefaultBaseUrl,
	NavigationTimeoutMs: int(scraper.DefaultNavigationTimeout / time.Millisecond),
	SettleDelayMs:       ptr(int(scraper.DefaultSettleDelay / time.Millisecond)),
	DownloadTimeoutMs:   int(mensa.DefaultDownloadTimeout / time.Millisecond),
	UserAgent:           browser.DefaultUserAgent,
}

func ptr[T any](value T) *T {
	return &value
}

func loadConfig(name string) (Config, error) {
	defaults := defaultConfig
	// mergo copies the pointer, keep the package default untouched
	defaults.SettleDelayMs = ptr(*defaultConfig.SettleDelayMs)
	return configutil.ReadWithDefaults(name, defaults)
}

var (
	scrapeOutDir   *string
	scrapeCsvName  *string
	scrapeDaysBack *int
	scrapeStart    *string
	scrapeStop     *string
	scrapeDb       *string
	scrapeConfig   *string
)

func init() {
	flags := scrapeCmd.Flags()
	scrapeOutDir = flags.StringP("out_dir", "o", "images", "Root folder for downloaded images.")
	scrapeCsvName = flags.StringP("csv_name", "c", "meals_raw", "Prefix of the output CSV file.")
	scrapeDaysBack = flags.IntP("days_back", "d", 10, "Number of days ending today to scrape when --start and --stop are absent.")
	scrapeStart = flags.String("start", "", "First day to scrape (YYYY-MM-DD), requires --stop.")
	scrapeStop = flags.String("stop", "", "Last day to scrape (YYYY-MM-DD), requires --start.")
	scrapeDb = flags.String("db", "", "Also write the scraped meals to this sqlite database.")
	scrapeConfig = flags.String("config", "mensa.json5", "Optional json5 config with the site url and timeouts.")
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [-o <dir>] [-c <prefix>] [-d <days> | --start <date> --stop <date>] [--db <path>]",
	Short: "Scrapes the menus of a range of days into a CSV file and a folder of dish images.",
	RunE: func(cmd *cobra.Command, args []string) error {
		start, stop, err := resolveRange(*scrapeStart, *scrapeStop, *scrapeDaysBack, timezone.Now())
		if err != nil {
			return err
		}
		cmd.SilenceUsage = true

		cfg, err := loadConfig(*scrapeConfig)
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		baseUrl, err := url.Parse(cfg.BaseUrl)
		if err != nil {
			serviceutil.Fatal("invalid base_url in config", err)
		}

		if verbose {
			output, err := restyutil.NewFilesystemOutput(".dev/resty/mensa")
			if err != nil {
				serviceutil.Fatal("failed to create resty output directory", err)
			}
			mensa.SetRestyInstrumentOutput(output)
		}

		err = os.MkdirAll(*scrapeOutDir, 0755)
		if err != nil {
			serviceutil.Fatal("failed to create output directory", err)
		}

		ctx := serviceutil.SignalContext(cmd.Context())
		t1 := time.Now()

		result := scrape(ctx, cfg, baseUrl, timezone.DateRange(start, stop))
		if result.Report.Cancelled {
			slog.Warn("scrape interrupted, writing the meals gathered so far", "days_scraped", result.Report.DaysScraped)
		}

		// the rows gathered so far are written even when interrupted
		writeCtx := context.WithoutCancel(ctx)

		csvPath := export.FileName(*scrapeCsvName, start, stop)
		err = export.WriteFile(csvPath, result.Meals)
		if err != nil {
			serviceutil.Fatal("failed to write csv", err)
		}
		fmt.Printf("%d meal rows written → %s\n", len(result.Meals), csvPath)

		if *scrapeDb != "" {
			err = pushToDb(writeCtx, *scrapeDb, result.Meals)
			if err != nil {
				serviceutil.Fatal("failed to write meals to db", err)
			}
			fmt.Printf("%d meal rows stored in %s\n", len(result.Meals), *scrapeDb)
		}

		printDiskUsage(writeCtx, *scrapeOutDir)
		printSkips(result.Report)

		fmt.Printf("finished in %.1fs\n", time.Since(t1).Seconds())
		return nil
	},
}

func scrape(ctx context.Context, cfg Config, baseUrl *url.URL, days []time.Time) scraper.Result {
	session, err := browser.Launch(ctx, browser.Options{
		Headless:  !cfg.Headful,
		UserAgent: cfg.UserAgent,
	})
	if err != nil {
		serviceutil.Fatal("failed to launch browser", err)
	}
	defer session.Close()

	page, err := session.NewPage()
	if err != nil {
		session.Close()
		serviceutil.Fatal("failed to open browser page", err)
	}

	fetcher := mensa.NewFetcher(mensa.FetcherOptions{
		Timeout:   time.Duration(cfg.DownloadTimeoutMs) * time.Millisecond,
		UserAgent: cfg.UserAgent,
	})

	s := scraper.NewScraper(page, fetcher, scraper.Options{
		BaseUrl:           baseUrl,
		OutDir:            *scrapeOutDir,
		NavigationTimeout: time.Duration(cfg.NavigationTimeoutMs) * time.Millisecond,
		SettleDelay:       time.Duration(*cfg.SettleDelayMs) * time.Millisecond,
		Progress:          scraper.NewTrackerProgress(os.Stderr),
	})
	result := s.Run(ctx, days)

	slog.Debug(
		"image downloads",
		"downloaded", fetcher.Downloads(),
		"already_on_disk", fetcher.CacheHits(),
	)
	return result
}

func pushToDb(ctx context.Context, path string, meals []export.Meal) error {
	database, err := store.OpenDB(path)
	if err != nil {
		return err
	}
	defer database.Close()
	return store.NewStore(database).Push(ctx, meals)
}

func printDiskUsage(ctx context.Context, outDir string) {
	size, err := diskutil.FolderSize(outDir)
	if err != nil {
		slog.Warn("failed to measure image folder", "dir", outDir, "err", err)
		return
	}
	fmt.Printf("images saved under %s/ take %s\n", outDir, diskutil.HumanBytes(size))

	volume, err := diskutil.VolumeOf(ctx, outDir)
	if errors.Is(err, os.ErrNotExist) {
		return
	}
	if err != nil {
		slog.Debug("failed to read free space", "dir", outDir, "err", err)
		return
	}
	fmt.Printf(
		"%s free of %s on that volume\n",
		diskutil.HumanBytes(int64(volume.Free)),
		diskutil.HumanBytes(int64(volume.Total)),
	)
}

func printSkips(report scraper.Report) {
	counts := report.SortedCounts()
	if len(counts) == 0 {
		return
	}

	t := utils.NewTable()
	t.SetTitle("Skipped")
	t.AppendHeader(table.Row{"Reason", "Count"})
	for _, c := range counts {
		t.AppendRow(table.Row{string(c.Reason), c.Count})
	}
	t.AppendFooter(table.Row{"Total", len(report.Skips)})
	t.Render()

	for _, s := range report.Skips {
		slog.Debug("skipped", "date", timezone.FormatDate(s.Date), "skip", s.Skip.String())
	}
}
