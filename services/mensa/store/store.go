package store

import (
	"context"
	"database/sql"
	"fmt"
	"mensa-scraper/lib/timezone"
	"mensa-scraper/services/mensa/db"
	"mensa-scraper/services/mensa/export"

	_ "modernc.org/sqlite"
)

// OpenDB opens (creating if needed) the sqlite database at path and
// applies the schema.
func OpenDB(path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("a path was not specified")
	}
	database, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// sqlite only supports one writer at a time
	database.SetMaxOpenConns(1)
	if path != ":memory:" {
		_, err = database.Exec("PRAGMA journal_mode=WAL")
		if err != nil {
			database.Close()
			return nil, err
		}
	}
	_, err = database.Exec(db.Schema)
	if err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) Store {
	return Store{db: database}
}

const upsertMeal = `insert into meal (
    date, mensa, dish_type, diet, description, side_salad, regio_apple, image_path
) values (?, ?, ?, ?, ?, ?, ?, ?)
on conflict (date, mensa, dish_type, description) do update set
    diet = excluded.diet,
    side_salad = excluded.side_salad,
    regio_apple = excluded.regio_apple,
    image_path = excluded.image_path`

// Push writes meals in a single transaction, a meal scraped again for the
// same day replaces the previous row.
func (s Store) Push(ctx context.Context, meals []export.Meal) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertMeal)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, m := range meals {
		_, err = stmt.ExecContext(
			ctx,
			timezone.FormatDate(m.Date),
			m.Mensa,
			m.DishType,
			m.Diet,
			m.Description,
			m.SideSalad,
			m.RegioApple,
			m.ImagePath,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

const selectMealsOn = `select date, mensa, dish_type, diet, description, side_salad, regio_apple, image_path
from meal where date = ? order by id`

// MealsOn returns the meals stored for the calendar day of date.
func (s Store) MealsOn(ctx context.Context, date string) ([]export.Meal, error) {
	rows, err := s.db.QueryContext(ctx, selectMealsOn, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var meals []export.Meal
	for rows.Next() {
		var m export.Meal
		var day string
		err := rows.Scan(
			&day,
			&m.Mensa,
			&m.DishType,
			&m.Diet,
			&m.Description,
			&m.SideSalad,
			&m.RegioApple,
			&m.ImagePath,
		)
		if err != nil {
			return nil, err
		}
		m.Date, err = timezone.ParseDate(day)
		if err != nil {
			return nil, err
		}
		meals = append(meals, m)
	}
	return meals, rows.Err()
}
