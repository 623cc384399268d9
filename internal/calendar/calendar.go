// Package calendar builds the month grid users pick a day from, and maps what they pressed
// back to a date. It keeps no state: the month being shown travels in the callback data.
package calendar

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sheikh-saqib/balance-forecast-bot/internal/date"
	"github.com/sheikh-saqib/balance-forecast-bot/internal/models"
)

var ErrUnknownCallback = errors.New("unknown calendar callback")

// Direction of a month navigation.
type Direction int

const (
	Previous Direction = -1
	Next     Direction = 1
)

func (d Direction) String() string {
	if d == Previous {
		return "prev"
	}
	return "next"
}

// CellKind tells what pressing a cell does.
type CellKind int

const (
	Filler CellKind = iota // padding and labels, not selectable
	Day
	Nav
)

// Cell is one position of the grid.
type Cell struct {
	Kind      CellKind
	Text      string
	Date      date.Date // Day cells
	Direction Direction // Nav cells
	Year      int       // Nav cells: the month shown when the cell was rendered
	Month     time.Month
}

// Grid is a rendered month. Rows are: title, weekday labels, the weeks, navigation.
type Grid struct {
	Year  int
	Month time.Month
	Rows  [][]Cell
}

const (
	fillerData = "noop"
	dayPrefix  = "day:"
	navPrefix  = "nav:"
)

var weekdayLabels = [7]string{"Mo", "Tu", "We", "Th", "Fr", "Sa", "Su"}

func filler(text string) Cell { return Cell{Kind: Filler, Text: text} }

// Render lays out the month with weeks starting on Monday. The first week is padded before
// day 1 so every day sits under its weekday, and the last week is padded to 7 cells.
func Render(year int, month time.Month) Grid {
	first := date.New(year, month, 1)
	year, month = first.Year(), first.Month()

	g := Grid{Year: year, Month: month}
	g.Rows = append(g.Rows, []Cell{filler(fmt.Sprintf("%s %d", month, year))})

	labels := make([]Cell, 0, 7)
	for _, l := range weekdayLabels {
		labels = append(labels, filler(l))
	}
	g.Rows = append(g.Rows, labels)

	offset := (int(first.Weekday()) + 6) % 7 // Monday = 0
	week := make([]Cell, 0, 7)
	for range offset {
		week = append(week, filler(" "))
	}
	for day := 1; day <= date.DaysIn(year, month); day++ {
		week = append(week, Cell{Kind: Day, Text: strconv.Itoa(day), Date: date.New(year, month, day)})
		if len(week) == 7 {
			g.Rows = append(g.Rows, week)
			week = make([]Cell, 0, 7)
		}
	}
	if len(week) > 0 {
		for len(week) < 7 {
			week = append(week, filler(" "))
		}
		g.Rows = append(g.Rows, week)
	}

	g.Rows = append(g.Rows, []Cell{
		{Kind: Nav, Text: "<", Direction: Previous, Year: year, Month: month},
		filler(" "),
		{Kind: Nav, Text: ">", Direction: Next, Year: year, Month: month},
	})
	return g
}

// Advance moves one month in dir, wrapping across years.
func Advance(year int, month time.Month, dir Direction) (int, time.Month) {
	m := int(month) - 1 + int(dir)
	year += m / 12
	m %= 12
	if m < 0 {
		m += 12
		year--
	}
	return year, time.Month(m + 1)
}

// Resolve maps a day cell to its date. Other cells don't resolve.
func Resolve(c Cell) (date.Date, bool) {
	if c.Kind != Day || !c.Date.Valid() {
		return date.Date{}, false
	}
	return c.Date, true
}

// Data is the callback payload the transport sends back when c is pressed.
func (c Cell) Data() string {
	switch c.Kind {
	case Day:
		return dayPrefix + c.Date.String()
	case Nav:
		return fmt.Sprintf("%s%s:%04d-%02d", navPrefix, c.Direction, c.Year, int(c.Month))
	default:
		return fillerData
	}
}

// IsCallback reports whether data looks like something a calendar grid produced.
func IsCallback(data string) bool {
	return data == fillerData || strings.HasPrefix(data, dayPrefix) || strings.HasPrefix(data, navPrefix)
}

// ParseCallback is the inverse of Cell.Data. The returned cell has no Text.
func ParseCallback(data string) (Cell, error) {
	switch {
	case data == fillerData:
		return Cell{Kind: Filler}, nil

	case strings.HasPrefix(data, dayPrefix):
		d, err := date.Parse(strings.TrimPrefix(data, dayPrefix))
		if err != nil {
			return Cell{}, fmt.Errorf("%w %q: %w", ErrUnknownCallback, data, err)
		}
		return Cell{Kind: Day, Date: d}, nil

	case strings.HasPrefix(data, navPrefix):
		dir, ym, ok := strings.Cut(strings.TrimPrefix(data, navPrefix), ":")
		if !ok {
			return Cell{}, fmt.Errorf("%w %q", ErrUnknownCallback, data)
		}
		c := Cell{Kind: Nav}
		switch dir {
		case "prev":
			c.Direction = Previous
		case "next":
			c.Direction = Next
		default:
			return Cell{}, fmt.Errorf("%w %q", ErrUnknownCallback, data)
		}
		shown, err := time.Parse("2006-01", ym)
		if err != nil {
			return Cell{}, fmt.Errorf("%w %q: %w", ErrUnknownCallback, data, err)
		}
		c.Year, c.Month = shown.Year(), shown.Month()
		return c, nil
	}
	return Cell{}, fmt.Errorf("%w %q", ErrUnknownCallback, data)
}

// Keyboard converts g into transport buttons.
func (g Grid) Keyboard() models.Keyboard {
	kb := make(models.Keyboard, 0, len(g.Rows))
	for _, row := range g.Rows {
		buttons := make([]models.Button, 0, len(row))
		for _, c := range row {
			buttons = append(buttons, models.Button{Text: c.Text, Data: c.Data()})
		}
		kb = append(kb, buttons)
	}
	return kb
}
