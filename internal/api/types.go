package api

import (
	"time"

	"github.com/google/uuid"
)

// Cart is a reservable literature trolley.
type Cart struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Location *string   `json:"location"`
	Active   bool      `json:"active"`
}

// CartCreate is the request body for creating or updating a cart.
type CartCreate struct {
	Name     string  `json:"name"`
	Location *string `json:"location,omitempty"`
}

// Event is a one-off congregation event.
type Event struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Description   *string   `json:"description"`
	StartDatetime time.Time `json:"start_datetime"`
	EndDatetime   time.Time `json:"end_datetime"`
}

// EventCreate is the request body for creating or updating an event.
type EventCreate struct {
	Name          string    `json:"name"`
	Description   *string   `json:"description,omitempty"`
	StartDatetime time.Time `json:"start_datetime"`
	EndDatetime   time.Time `json:"end_datetime"`
}

// User is a backend identity record.
type User struct {
	ID          uuid.UUID `json:"id"`
	Firstname   string    `json:"firstname"`
	Lastname    string    `json:"lastname"`
	Email       *string   `json:"email"`
	Username    string    `json:"username"`
	Roles       []string  `json:"roles"`
	Active      bool      `json:"active"`
	HasPassword bool      `json:"has_password"`
}

// FullName joins first and last name for display.
func (u User) FullName() string {
	return u.Firstname + " " + u.Lastname
}

// UserCreate is the request body for creating a user.
type UserCreate struct {
	Firstname string   `json:"firstname"`
	Lastname  string   `json:"lastname"`
	Email     *string  `json:"email,omitempty"`
	Username  string   `json:"username,omitempty"`
	Roles     []string `json:"roles"`
}

// CreatedUser is returned by user creation and invite endpoints; the
// invite URL is a relative path the admin shares with the new user.
type CreatedUser struct {
	User      User   `json:"user"`
	InviteURL string `json:"invite_url"`
}

// UsernameCheck is the backend's answer to a username availability query.
type UsernameCheck struct {
	Available  bool    `json:"available"`
	Suggestion *string `json:"suggestion"`
}

// Booking reserves a cart for up to two participants over an interval.
type Booking struct {
	ID             uuid.UUID   `json:"id"`
	CartID         uuid.UUID   `json:"cart_id"`
	ParticipantIDs []uuid.UUID `json:"participant_ids"`
	StartDatetime  time.Time   `json:"start_datetime"`
	EndDatetime    time.Time   `json:"end_datetime"`
}

// BookingCreate is the request body for creating a booking.
type BookingCreate struct {
	CartID         uuid.UUID   `json:"cart_id"`
	ParticipantIDs []uuid.UUID `json:"participant_ids"`
	StartDatetime  time.Time   `json:"start_datetime"`
	EndDatetime    time.Time   `json:"end_datetime"`
}

// AvailableSlot carries the remaining free capacity of one cart over a
// queried interval.
type AvailableSlot struct {
	CartID         uuid.UUID `json:"cart_id"`
	AvailableSlots int       `json:"available_slots"`
}

// MeetingPoint is one public-witnessing assignment. Date and Time are
// kept as the backend's wire strings ("2006-01-02", "15:04:05"); the
// calendar view-model combines them into instants.
type MeetingPoint struct {
	ID            uuid.UUID  `json:"id"`
	Date          string     `json:"date"`
	Time          string     `json:"time"`
	Location      string     `json:"location"`
	ConductorID   *uuid.UUID `json:"conductor_id"`
	ConductorName *string    `json:"conductor_name"`
	Outline       *string    `json:"outline"`
	Link          *string    `json:"link"`
	Month         string     `json:"month"`
	SeriesID      *uuid.UUID `json:"series_id"`
}

// MeetingPointCreate is the request body for a single occurrence.
type MeetingPointCreate struct {
	Date        string     `json:"date"`
	Time        string     `json:"time"`
	Location    string     `json:"location"`
	ConductorID *uuid.UUID `json:"conductor_id,omitempty"`
	Outline     *string    `json:"outline,omitempty"`
	Link        *string    `json:"link,omitempty"`
}

// Recurrence selects how a meeting-point series repeats.
type Recurrence string

const (
	RecurrenceWeekly   Recurrence = "weekly"
	RecurrenceBiweekly Recurrence = "biweekly"
	RecurrenceMonthly  Recurrence = "monthly"
)

// MeetingPointSeriesCreate is the request body for a recurring series.
type MeetingPointSeriesCreate struct {
	StartDate   string     `json:"start_date"`
	EndDate     string     `json:"end_date"`
	Recurrence  Recurrence `json:"recurrence"`
	Time        string     `json:"time"`
	Location    string     `json:"location"`
	ConductorID *uuid.UUID `json:"conductor_id,omitempty"`
	Outline     *string    `json:"outline,omitempty"`
	Link        *string    `json:"link,omitempty"`
}

// MeetingPointUpdate carries the changed fields of an occurrence.
type MeetingPointUpdate struct {
	Date        *string    `json:"date,omitempty"`
	Time        *string    `json:"time,omitempty"`
	Location    *string    `json:"location,omitempty"`
	ConductorID *uuid.UUID `json:"conductor_id,omitempty"`
	Outline     *string    `json:"outline,omitempty"`
	Link        *string    `json:"link,omitempty"`
}

// ConductorStats counts a conductor's assignments within a year.
type ConductorStats struct {
	UserID    uuid.UUID `json:"user_id"`
	Firstname string    `json:"firstname"`
	Lastname  string    `json:"lastname"`
	Count     int       `json:"count"`
	LastDate  *string   `json:"last_date"`
}

// MonthlyStats counts a conductor's assignments within one month.
type MonthlyStats struct {
	Month     string    `json:"month"`
	UserID    uuid.UUID `json:"user_id"`
	Firstname string    `json:"firstname"`
	Lastname  string    `json:"lastname"`
	Count     int       `json:"count"`
}

// Credentials is the backend's login/refresh response.
type Credentials struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	TokenType    string   `json:"token_type"`
	Roles        []string `json:"roles"`
}

// InviteValidation is the backend's answer to an invite-token lookup.
type InviteValidation struct {
	Valid         bool       `json:"valid"`
	UserFirstname *string    `json:"user_firstname"`
	ExpiresAt     *time.Time `json:"expires_at"`
	Error         *string    `json:"error"`
}
