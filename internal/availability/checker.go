// Package availability answers "how many free slots does each cart have
// over this interval" for the booking form, and enforces the local
// participant limit before anything reaches the backend.
package availability

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/cartdash/internal/api"
)

var (
	// ErrInvalidRange rejects proposals whose end does not lie strictly
	// after their start.
	ErrInvalidRange = errors.New("end must be after start")

	// ErrSuperseded reports that a newer check was started while this
	// one was in flight; its result must not be displayed.
	ErrSuperseded = errors.New("availability check superseded")

	// ErrTooManyParticipants enforces the two-participant booking limit.
	ErrTooManyParticipants = errors.New("a booking holds at most 2 participants")

	// ErrNoParticipants rejects bookings without any participant.
	ErrNoParticipants = errors.New("select at least one participant")
)

// Slots maps each cart to its remaining free-slot count for a queried
// interval. Carts the backend did not report are absent; callers must
// render them as unknown, never as zero.
type Slots map[uuid.UUID]int

// Label renders the count for a cart, with "?" for unknown.
func (s Slots) Label(cartID uuid.UUID) string {
	n, ok := s[cartID]
	if !ok {
		return "?"
	}
	return strconv.Itoa(n)
}

type flight struct {
	seq    uint64
	cancel context.CancelCauseFunc
}

// Checker queries per-cart free capacity. Checks sharing a key follow a
// latest-initiated-wins discipline: starting a new check cancels the
// superseded in-flight one, so a slow early response can never overwrite
// a later one.
type Checker struct {
	bookings api.BookingService

	mu       sync.Mutex
	seq      uint64
	inFlight map[string]flight
}

func NewChecker(bookings api.BookingService) *Checker {
	return &Checker{
		bookings: bookings,
		inFlight: make(map[string]flight),
	}
}

// Check queries free-slot counts for the proposed interval. key scopes
// the supersede discipline, typically the session ID of the form being
// edited.
func (c *Checker) Check(ctx context.Context, key string, start, end time.Time) (Slots, error) {
	if !end.After(start) {
		return nil, ErrInvalidRange
	}

	ctx, cancel := context.WithCancelCause(ctx)

	c.mu.Lock()
	c.seq++
	mySeq := c.seq
	if prev, ok := c.inFlight[key]; ok {
		prev.cancel(ErrSuperseded)
	}
	c.inFlight[key] = flight{seq: mySeq, cancel: cancel}
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		if f, ok := c.inFlight[key]; ok && f.seq == mySeq {
			delete(c.inFlight, key)
		}
		c.mu.Unlock()
		cancel(nil)
	}()

	counts, err := c.bookings.AvailableSlots(ctx, start, end)
	if err != nil {
		if errors.Is(context.Cause(ctx), ErrSuperseded) {
			return nil, ErrSuperseded
		}
		return nil, err
	}

	slots := make(Slots, len(counts))
	for _, s := range counts {
		slots[s.CartID] = s.AvailableSlots
	}
	return slots, nil
}

// ValidateParticipants applies the local selection rules: one or two
// distinct participants per booking. It never touches the network.
func ValidateParticipants(ids []uuid.UUID) error {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	switch {
	case len(seen) == 0:
		return ErrNoParticipants
	case len(seen) > 2:
		return ErrTooManyParticipants
	default:
		return nil
	}
}
