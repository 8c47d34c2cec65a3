package usernames

import (
	"context"
	"errors"
	"sync"

	"github.com/example/cartdash/internal/api"
)

// Status is the availability state of a username candidate.
type Status string

const (
	// StatusIdle means the candidate is too short to be worth checking.
	StatusIdle      Status = "idle"
	StatusAvailable Status = "available"
	StatusTaken     Status = "taken"
)

const minCheckLength = 2

// ErrSuperseded reports that a newer lookup replaced this one in flight.
var ErrSuperseded = errors.New("username lookup superseded")

// Result is the outcome of one availability lookup. Suggestion is only
// set for taken usernames when the backend offers an alternative.
type Result struct {
	Status     Status `json:"status"`
	Suggestion string `json:"suggestion,omitempty"`
}

type flight struct {
	seq    uint64
	cancel context.CancelCauseFunc
}

// Checker resolves username availability with the same
// latest-initiated-wins discipline as the booking availability checker:
// a lookup started while an earlier one is in flight cancels it.
type Checker struct {
	users api.UserService

	mu       sync.Mutex
	seq      uint64
	inFlight map[string]flight
}

func NewChecker(users api.UserService) *Checker {
	return &Checker{
		users:    users,
		inFlight: make(map[string]flight),
	}
}

// Lookup checks one candidate. key scopes the supersede discipline,
// typically the session ID of the form being edited.
func (c *Checker) Lookup(ctx context.Context, key, candidate string) (Result, error) {
	if len(candidate) < minCheckLength {
		return Result{Status: StatusIdle}, nil
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

	check, err := c.users.CheckUsername(ctx, candidate)
	if err != nil {
		if errors.Is(context.Cause(ctx), ErrSuperseded) {
			return Result{}, ErrSuperseded
		}
		return Result{}, err
	}

	if check.Available {
		return Result{Status: StatusAvailable}, nil
	}
	res := Result{Status: StatusTaken}
	if check.Suggestion != nil {
		res.Suggestion = *check.Suggestion
	}
	return res, nil
}
