package export

import (
	"bufio"
	"fmt"
	"io"
	"mensa-scraper/lib/timezone"
	"os"
	"strings"
	"time"
)

// PlaceholderFlag fills the Beilagensalat and Regio Apfel columns, which
// are not detected yet.
const PlaceholderFlag = "no"

var Header = []string{
	"description", "Beilagensalat", "Regio Apfel",
	"type", "diet", "mensa", "image_path",
}

// Meal is one exported dish of one mensa on one day.
type Meal struct {
	Date        time.Time
	Description string
	SideSalad   string
	RegioApple  string
	DishType    string
	Diet        string
	Mensa       string
	ImagePath   string
}

// Row lays out a meal in Header order.
func Row(m Meal) []string {
	return []string{
		m.Description,
		m.SideSalad,
		m.RegioApple,
		m.DishType,
		m.Diet,
		m.Mensa,
		m.ImagePath,
	}
}

// FileName returns "<prefix>_<start>_<stop>.csv".
func FileName(prefix string, start, stop time.Time) string {
	return fmt.Sprintf(
		"%s_%s_%s.csv",
		prefix,
		timezone.FormatDate(start),
		timezone.FormatDate(stop),
	)
}

const (
	delimiter = ','
	quoteChar = '"'
	escape    = '\\'
)

// fields are never quoted, anything that would break the row is escaped
// with a backslash instead.
var escaper = strings.NewReplacer(
	string(escape), string(escape)+string(escape),
	string(delimiter), string(escape)+string(delimiter),
	string(quoteChar), string(escape)+string(quoteChar),
	"\r", string(escape)+"\r",
	"\n", string(escape)+"\n",
)

// Writer writes rows as unquoted, backslash escaped, comma separated lines.
type Writer struct {
	w *bufio.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

func (w *Writer) Write(record []string) error {
	for i, field := range record {
		if i > 0 {
			err := w.w.WriteByte(delimiter)
			if err != nil {
				return err
			}
		}
		_, err := w.w.WriteString(escaper.Replace(field))
		if err != nil {
			return err
		}
	}
	_, err := w.w.WriteString("\r\n")
	return err
}

func (w *Writer) Flush() error {
	return w.w.Flush()
}

// WriteMeals writes the header followed by one row per meal.
func WriteMeals(out io.Writer, meals []Meal) error {
	w := NewWriter(out)
	err := w.Write(Header)
	if err != nil {
		return err
	}
	for _, m := range meals {
		err = w.Write(Row(m))
		if err != nil {
			return err
		}
	}
	return w.Flush()
}

// WriteFile creates (or truncates) path and writes meals into it.
func WriteFile(path string, meals []Meal) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	err = WriteMeals(f, meals)
	closeErr := f.Close()
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return closeErr
}
