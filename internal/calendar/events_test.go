package calendar

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/cartdash/internal/api"
)

func strptr(s string) *string { return &s }

func TestMeetingPointEvents(t *testing.T) {
	me := uuid.New()
	other := uuid.New()

	points := []api.MeetingPoint{
		{
			ID:            uuid.New(),
			Date:          "2026-08-15",
			Time:          "10:30:00",
			Location:      "Plaza Mayor",
			ConductorID:   &me,
			ConductorName: strptr("María López"),
		},
		{
			ID:          uuid.New(),
			Date:        "2026-08-15",
			Time:        "09:00",
			Location:    "Estación",
			ConductorID: &other,
		},
		{
			ID:       uuid.New(),
			Date:     "2026-08-16",
			Time:     "11:00:00",
			Location: "Mercado",
		},
	}

	events := MeetingPointEvents(points, me)
	require.Len(t, events, 3)

	// Sorted by start, so the 09:00 entry comes first.
	assert.Equal(t, "09:00 Estación", events[0].Title)
	assert.False(t, events[0].IsMine)

	assert.Equal(t, "10:30 Plaza Mayor — María López", events[1].Title)
	assert.True(t, events[1].IsMine)
	assert.Equal(t, time.Date(2026, 8, 15, 10, 30, 0, 0, time.Local), events[1].Start)
	assert.Equal(t, time.Hour, events[1].End.Sub(events[1].Start))

	// No conductor: unowned, title without the name suffix.
	assert.Equal(t, "11:00 Mercado", events[2].Title)
	assert.False(t, events[2].IsMine)
}

func TestMeetingPointEventsSkipsUnparseable(t *testing.T) {
	points := []api.MeetingPoint{
		{ID: uuid.New(), Date: "not-a-date", Time: "10:00:00", Location: "A"},
		{ID: uuid.New(), Date: "2026-08-15", Time: "garbage", Location: "B"},
		{ID: uuid.New(), Date: "2026-08-15", Time: "10:00:00", Location: "C"},
	}

	events := MeetingPointEvents(points, uuid.Nil)
	require.Len(t, events, 1)
	assert.Equal(t, "10:00 C", events[0].Title)
}

func TestMeetingPointEventsNilUserOwnsNothing(t *testing.T) {
	conductor := uuid.New()
	points := []api.MeetingPoint{
		{ID: uuid.New(), Date: "2026-08-15", Time: "10:00:00", Location: "A", ConductorID: &conductor},
	}
	events := MeetingPointEvents(points, uuid.Nil)
	require.Len(t, events, 1)
	assert.False(t, events[0].IsMine)
}

func TestBookingEvents(t *testing.T) {
	me := uuid.New()
	partner := uuid.New()
	stranger := uuid.New()
	cart := uuid.New()

	start := time.Date(2026, 8, 20, 16, 0, 0, 0, time.Local)
	bookings := []api.Booking{
		{
			ID:             uuid.New(),
			CartID:         cart,
			ParticipantIDs: []uuid.UUID{me, partner},
			StartDatetime:  start,
			EndDatetime:    start.Add(2 * time.Hour),
		},
		{
			ID:             uuid.New(),
			CartID:         uuid.New(),
			ParticipantIDs: []uuid.UUID{stranger},
			StartDatetime:  start.Add(-3 * time.Hour),
			EndDatetime:    start.Add(-time.Hour),
		},
	}
	cartNames := map[uuid.UUID]string{cart: "Carrito Centro"}
	userNames := map[uuid.UUID]string{me: "María López", partner: "Juan Pérez"}

	events := BookingEvents(bookings, cartNames, userNames, me)
	require.Len(t, events, 2)

	// Sorted by start; the stranger's earlier booking is first and uses
	// the fallback cart name.
	assert.False(t, events[0].IsMine)
	assert.Equal(t, "13:00 Cart", events[0].Title)

	assert.True(t, events[1].IsMine)
	assert.Equal(t, "16:00 Carrito Centro — María López, Juan Pérez", events[1].Title)
	assert.Equal(t, "16:00 – 18:00", events[1].TimeLabel())
}

func TestEventsSortStable(t *testing.T) {
	start := time.Date(2026, 8, 20, 10, 0, 0, 0, time.Local)
	points := []api.MeetingPoint{
		{ID: uuid.New(), Date: "2026-08-20", Time: "10:00:00", Location: "Zeta"},
		{ID: uuid.New(), Date: "2026-08-20", Time: "10:00:00", Location: "Alfa"},
	}
	events := MeetingPointEvents(points, uuid.Nil)
	require.Len(t, events, 2)
	assert.Equal(t, "10:00 Alfa", events[0].Title)
	assert.Equal(t, "10:00 Zeta", events[1].Title)
	assert.True(t, events[0].Start.Equal(start))
}
