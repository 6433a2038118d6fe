package commands

import (
	"context"
	"mensa-scraper/cmd/mensa-cli/utils"
	"mensa-scraper/lib/serviceutil"
	"mensa-scraper/lib/timezone"
	"mensa-scraper/services/mensa/store"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	mealsDb   *string
	mealsDate *string
)

func init() {
	mealsDb = mealsCmd.Flags().String("db", "meals.db", "The database written by scrape --db.")
	mealsDate = mealsCmd.Flags().String("date", "", "The day to list (YYYY-MM-DD), defaults to today.")
	rootCmd.AddCommand(mealsCmd)
}

var mealsCmd = &cobra.Command{
	Use:   "meals [--db <path>] [--date <YYYY-MM-DD>]",
	Short: "Lists the meals stored for a day.",
	Run: func(cmd *cobra.Command, args []string) {
		date := *mealsDate
		if date == "" {
			date = timezone.FormatDate(timezone.Today())
		}
		_, err := timezone.ParseDate(date)
		if err != nil {
			serviceutil.Fatal("invalid --date", err)
		}

		database, err := store.OpenDB(*mealsDb)
		if err != nil {
			serviceutil.Fatal("failed to open db", err)
		}
		defer database.Close()

		meals, err := store.NewStore(database).MealsOn(context.Background(), date)
		if err != nil {
			serviceutil.Fatal("failed to read meals", err)
		}

		t := utils.NewTable()
		t.SetTitle(date)
		t.AppendHeader(table.Row{"Mensa", "Type", "Diet", "Description", "Image"})
		for _, m := range meals {
			t.AppendRow(table.Row{m.Mensa, m.DishType, m.Diet, m.Description, m.ImagePath})
		}
		t.Render()
	},
}
