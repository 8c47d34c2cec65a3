package calendar

import "time"

// Day is one cell of the month grid.
type Day struct {
	Date    time.Time
	InMonth bool
	Today   bool
	Events  []Event
}

// Week is one Monday-first row of the month grid.
type Week [7]Day

// Grid lays a month and its events out as full weeks, padding with days
// from the adjacent months so every row has seven cells.
func Grid(m Month, events []Event, now time.Time) []Week {
	byDay := make(map[string][]Event)
	for _, e := range events {
		key := e.Start.Format("2006-01-02")
		byDay[key] = append(byDay[key], e)
	}

	first := m.First()
	// Walk back to the Monday on or before the 1st.
	cursor := first.AddDate(0, 0, -mondayOffset(first.Weekday()))
	today := now.Format("2006-01-02")

	var weeks []Week
	for {
		var week Week
		for i := 0; i < 7; i++ {
			key := cursor.Format("2006-01-02")
			week[i] = Day{
				Date:    cursor,
				InMonth: m.Contains(cursor),
				Today:   key == today,
				Events:  byDay[key],
			}
			cursor = cursor.AddDate(0, 0, 1)
		}
		weeks = append(weeks, week)
		if !m.Contains(cursor) && cursor.Weekday() == time.Monday {
			break
		}
	}
	return weeks
}

func mondayOffset(d time.Weekday) int {
	if d == time.Sunday {
		return 6
	}
	return int(d) - 1
}
