package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sheikh-saqib/balance-forecast-bot/internal/date"
)

func TestAdvance(t *testing.T) {
	for _, tc := range []struct {
		year  int
		month time.Month
		dir   Direction
		wantY int
		wantM time.Month
	}{
		{2025, time.December, Next, 2026, time.January},
		{2025, time.January, Previous, 2024, time.December},
		{2025, time.June, Next, 2025, time.July},
		{2025, time.June, Previous, 2025, time.May},
		{2025, time.November, Next, 2025, time.December},
		{2025, time.February, Previous, 2025, time.January},
	} {
		y, m := Advance(tc.year, tc.month, tc.dir)
		require.Equal(t, tc.wantY, y)
		require.Equal(t, tc.wantM, m)
	}
}

func dayCells(g Grid) []Cell {
	var out []Cell
	for _, row := range g.Rows {
		for _, c := range row {
			if c.Kind == Day {
				out = append(out, c)
			}
		}
	}
	return out
}

func TestRenderJanuary2025(t *testing.T) {
	g := Render(2025, time.January)
	require.Equal(t, 2025, g.Year)
	require.Equal(t, time.January, g.Month)
	require.Equal(t, "January 2025", g.Rows[0][0].Text)
	require.Len(t, g.Rows[1], 7)
	require.Equal(t, "Mo", g.Rows[1][0].Text)

	// 2025-01-01 is a Wednesday: two filler cells first
	firstWeek := g.Rows[2]
	require.Len(t, firstWeek, 7)
	require.Equal(t, Filler, firstWeek[0].Kind)
	require.Equal(t, Filler, firstWeek[1].Kind)
	require.Equal(t, Day, firstWeek[2].Kind)
	require.Equal(t, date.MustParse("2025-01-01"), firstWeek[2].Date)

	days := dayCells(g)
	require.Len(t, days, 31)
	for i, c := range days {
		require.Equal(t, i+1, c.Date.Day())
	}

	// weeks are complete rows
	for _, week := range g.Rows[2 : len(g.Rows)-1] {
		require.Len(t, week, 7)
	}

	nav := g.Rows[len(g.Rows)-1]
	require.Equal(t, Nav, nav[0].Kind)
	require.Equal(t, Previous, nav[0].Direction)
	require.Equal(t, Nav, nav[2].Kind)
	require.Equal(t, Next, nav[2].Direction)
}

func TestRenderAlignsWeekdays(t *testing.T) {
	for m := time.January; m <= time.December; m++ {
		g := Render(2026, m)
		for _, row := range g.Rows[2 : len(g.Rows)-1] {
			for col, c := range row {
				if c.Kind != Day {
					continue
				}
				require.Equal(t, (int(c.Date.Weekday())+6)%7, col, c.Date.String())
			}
		}
	}
}

func TestRenderNormalizesMonth(t *testing.T) {
	g := Render(2025, 13)
	require.Equal(t, 2026, g.Year)
	require.Equal(t, time.January, g.Month)
}

func TestResolve(t *testing.T) {
	g := Render(2025, time.February)
	days := dayCells(g)
	d, ok := Resolve(days[9])
	require.True(t, ok)
	require.Equal(t, date.MustParse("2025-02-10"), d)

	_, ok = Resolve(g.Rows[0][0])
	require.False(t, ok)
	_, ok = Resolve(g.Rows[len(g.Rows)-1][0])
	require.False(t, ok)
}

func TestCallbackRoundTrip(t *testing.T) {
	g := Render(2025, time.March)
	for _, row := range g.Rows {
		for _, c := range row {
			parsed, err := ParseCallback(c.Data())
			require.NoError(t, err, c.Data())
			require.Equal(t, c.Kind, parsed.Kind)
			switch c.Kind {
			case Day:
				require.Equal(t, c.Date, parsed.Date)
			case Nav:
				require.Equal(t, c.Direction, parsed.Direction)
				require.Equal(t, c.Year, parsed.Year)
				require.Equal(t, c.Month, parsed.Month)
			}
		}
	}
	require.Equal(t, "day:2025-03-05", dayCells(g)[4].Data())
	require.Equal(t, "nav:next:2025-03", g.Rows[len(g.Rows)-1][2].Data())
}

func TestParseCallbackRejectsGarbage(t *testing.T) {
	for _, data := range []string{"", "day:", "day:2025-02-30", "nav:up:2025-01", "nav:next", "nav:prev:2025-13", "kind:income"} {
		_, err := ParseCallback(data)
		require.ErrorIs(t, err, ErrUnknownCallback, data)
	}
	require.True(t, IsCallback("noop"))
	require.False(t, IsCallback("kind:income"))
}

func TestKeyboard(t *testing.T) {
	kb := Render(2025, time.January).Keyboard()
	require.Equal(t, "noop", kb[0][0].Data)
	require.Equal(t, "day:2025-01-01", kb[2][2].Data)
	require.Equal(t, "1", kb[2][2].Text)
}
