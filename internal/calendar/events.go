// Package calendar derives displayable calendar events from the raw
// records the backend returns. Everything here is a pure function of its
// inputs: the pages recompute on every render, since a month's records
// stay small.
package calendar

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/cartdash/internal/api"
)

// Event is one displayable calendar entry. IsMine drives the "owned"
// highlight color in the templates.
type Event struct {
	ID     uuid.UUID
	Title  string
	Start  time.Time
	End    time.Time
	IsMine bool

	// Exactly one of the two source records is set.
	MeetingPoint *api.MeetingPoint
	Booking      *api.Booking
}

const meetingPointDuration = time.Hour

// MeetingPointEvents maps meeting-point records onto calendar events.
// The domain has no explicit end time for an assignment, so every event
// spans one hour from its start. Records whose date or time cannot be
// parsed are skipped rather than failing the whole page.
func MeetingPointEvents(items []api.MeetingPoint, currentUserID uuid.UUID) []Event {
	events := make([]Event, 0, len(items))
	for i := range items {
		mp := &items[i]
		start, ok := combineDateTime(mp.Date, mp.Time)
		if !ok {
			continue
		}
		events = append(events, Event{
			ID:           mp.ID,
			Title:        meetingPointTitle(mp),
			Start:        start,
			End:          start.Add(meetingPointDuration),
			IsMine:       mp.ConductorID != nil && currentUserID != uuid.Nil && *mp.ConductorID == currentUserID,
			MeetingPoint: mp,
		})
	}
	sortEvents(events)
	return events
}

// BookingEvents maps cart bookings onto calendar events. A booking is
// "mine" when the current user is among its participants; this is the
// same ownership rule meeting points use for their conductor.
func BookingEvents(items []api.Booking, cartNames map[uuid.UUID]string, userNames map[uuid.UUID]string, currentUserID uuid.UUID) []Event {
	events := make([]Event, 0, len(items))
	for i := range items {
		b := &items[i]
		events = append(events, Event{
			ID:      b.ID,
			Title:   bookingTitle(b, cartNames, userNames),
			Start:   b.StartDatetime,
			End:     b.EndDatetime,
			IsMine:  containsID(b.ParticipantIDs, currentUserID),
			Booking: b,
		})
	}
	sortEvents(events)
	return events
}

// meetingPointTitle composes "<HH:MM> <location>[ — <conductor>]".
func meetingPointTitle(mp *api.MeetingPoint) string {
	title := clockPrefix(mp.Time) + mp.Location
	if mp.ConductorName != nil && *mp.ConductorName != "" {
		title += " — " + *mp.ConductorName
	}
	return title
}

func bookingTitle(b *api.Booking, cartNames map[uuid.UUID]string, userNames map[uuid.UUID]string) string {
	title := clockPrefix(b.StartDatetime.Format("15:04"))
	if name, ok := cartNames[b.CartID]; ok {
		title += name
	} else {
		title += "Cart"
	}

	var participants []string
	for _, id := range b.ParticipantIDs {
		if name, ok := userNames[id]; ok {
			participants = append(participants, name)
		}
	}
	if len(participants) > 0 {
		title += " — " + strings.Join(participants, ", ")
	}
	return title
}

func clockPrefix(t string) string {
	if len(t) >= 5 {
		return t[:5] + " "
	}
	if t != "" {
		return t + " "
	}
	return ""
}

// combineDateTime joins the backend's wire date ("2006-01-02") and
// time-of-day ("15:04:05" or "15:04") strings into a local instant.
func combineDateTime(date, clock string) (time.Time, bool) {
	day, err := time.ParseInLocation("2006-01-02", date, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	if clock == "" {
		return day, true
	}
	tod, err := time.Parse("15:04:05", clock)
	if err != nil {
		tod, err = time.Parse("15:04", clock)
		if err != nil {
			return time.Time{}, false
		}
	}
	return time.Date(day.Year(), day.Month(), day.Day(), tod.Hour(), tod.Minute(), 0, 0, time.Local), true
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	if id == uuid.Nil {
		return false
	}
	for _, have := range ids {
		if have == id {
			return true
		}
	}
	return false
}

func sortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Start.Equal(events[j].Start) {
			return events[i].Title < events[j].Title
		}
		return events[i].Start.Before(events[j].Start)
	})
}

// TimeLabel renders an event's span for list views.
func (e Event) TimeLabel() string {
	return fmt.Sprintf("%s – %s", e.Start.Format("15:04"), e.End.Format("15:04"))
}
