package main

import (
	"context"
	"log/slog"
	"mensa-scraper/cmd/mensa-cli/commands"
	"mensa-scraper/lib/serviceutil"
	"mensa-scraper/lib/telemetry"
	"time"
)

func main() {
	ctx := context.Background()

	tel, err := telemetry.SetupFromEnv(ctx, "mensa-cli")
	if err != nil {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	defer func() {
		err := tel.Shutdown(context.Background())
		if err != nil {
			slog.Warn("failed to shutdown telemetry", "err", err)
		}
	}()
	if tel.Enabled() {
		telemetry.InstrumentPerfStats(ctx, time.Second*15)
	}

	commands.ExecuteContext(ctx)
}
