package api

import (
	"fmt"
	"strings"
	"time"
)

// LocalDateTimeLayout is the backend's zone-less timestamp format.
const LocalDateTimeLayout = "2006-01-02T15:04:05"

// LocalDateTime is a wall clock timestamp without zone, as the backend
// serialises show times. Minutes-only values ("2025-11-03T14:30") are accepted
// and always written back with seconds.
type LocalDateTime struct {
	Time time.Time
}

// ParseLocalDateTime parses s with or without seconds.
func ParseLocalDateTime(s string) (LocalDateTime, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{LocalDateTimeLayout, "2006-01-02T15:04", "2006-01-02T15:04:05.999999999"} {
		if t, err := time.Parse(layout, s); err == nil {
			return LocalDateTime{Time: t}, nil
		}
	}
	return LocalDateTime{}, fmt.Errorf("invalid local date time %q", s)
}

func (t LocalDateTime) String() string {
	return t.Time.Format(LocalDateTimeLayout)
}

func (t LocalDateTime) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *LocalDateTime) UnmarshalText(data []byte) error {
	parsed, err := ParseLocalDateTime(string(data))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

type Movie struct {
	MovieID     int    `json:"movieId,omitempty" yaml:"movieId,omitempty"`
	MovieName   string `json:"movieName" yaml:"movieName"`
	MovieGenre  string `json:"movieGenre,omitempty" yaml:"movieGenre,omitempty"`
	MovieHours  string `json:"movieHours,omitempty" yaml:"movieHours,omitempty"`
	Language    string `json:"language,omitempty" yaml:"language,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty" yaml:"imageUrl,omitempty"`
}

type Theatre struct {
	TheatreID      int    `json:"theatreId,omitempty" yaml:"theatreId,omitempty"`
	TheatreName    string `json:"theatreName" yaml:"theatreName"`
	TheatreCity    string `json:"theatreCity,omitempty" yaml:"theatreCity,omitempty"`
	ManagerName    string `json:"managerName,omitempty" yaml:"managerName,omitempty"`
	ManagerContact string `json:"managerContact,omitempty" yaml:"managerContact,omitempty"`
}

type Screen struct {
	ScreenID   int    `json:"screenId,omitempty" yaml:"screenId,omitempty"`
	TheatreID  int    `json:"theatreId" yaml:"theatreId"`
	ScreenName string `json:"screenName" yaml:"screenName"`
	Rows       int    `json:"rows,omitempty" yaml:"rows,omitempty"`
	Columns    int    `json:"columns,omitempty" yaml:"columns,omitempty"`
}

type Show struct {
	ShowID        int           `json:"showId,omitempty" yaml:"showId,omitempty"`
	ShowName      string        `json:"showName" yaml:"showName"`
	ShowStartTime LocalDateTime `json:"showStartTime" yaml:"showStartTime"`
	ShowEndTime   LocalDateTime `json:"showEndTime" yaml:"showEndTime"`
	ScreenID      int           `json:"screenId" yaml:"screenId"`
	TheatreID     int           `json:"theatreId" yaml:"theatreId"`
	MovieID       *int          `json:"movieId,omitempty" yaml:"movieId,omitempty"`
	Movie         *Movie        `json:"movie,omitempty" yaml:"movie,omitempty"`
}

// Validate checks the show window ends after it starts.
func (s *Show) Validate() error {
	if !s.ShowEndTime.Time.After(s.ShowStartTime.Time) {
		return fmt.Errorf("%w: end %s is not after start %s", ErrInvalidShowTimes, s.ShowEndTime, s.ShowStartTime)
	}
	return nil
}

type Ticket struct {
	TicketID    int      `json:"ticketId,omitempty" yaml:"ticketId,omitempty"`
	NoOfSeats   int      `json:"noOfSeats" yaml:"noOfSeats"`
	SeatNumbers []string `json:"seatNumber,omitempty" yaml:"seatNumber,omitempty"`
	BookingRef  int      `json:"bookingRef,omitempty" yaml:"bookingRef,omitempty"`
	Status      bool     `json:"ticketStatus" yaml:"ticketStatus"`
}

type Booking struct {
	BookingID         int     `json:"bookingId" yaml:"bookingId"`
	ShowID            int     `json:"showId" yaml:"showId"`
	BookingDate       string  `json:"bookingDate" yaml:"bookingDate"`
	TransactionID     int     `json:"transactionId,omitempty" yaml:"transactionId,omitempty"`
	PaymentReference  string  `json:"paymentReference,omitempty" yaml:"paymentReference,omitempty"`
	TransactionMode   string  `json:"transactionMode,omitempty" yaml:"transactionMode,omitempty"`
	TransactionStatus string  `json:"transactionStatus,omitempty" yaml:"transactionStatus,omitempty"`
	TotalCost         float64 `json:"totalCost" yaml:"totalCost"`
	Ticket            *Ticket `json:"ticket,omitempty" yaml:"ticket,omitempty"`
	Show              *Show   `json:"show,omitempty" yaml:"show,omitempty"`
}

// BookingRequest creates a booking for the signed in customer.
type BookingRequest struct {
	ShowID           int      `json:"showId"`
	CustomerID       int64    `json:"customerId"`
	SeatNumbers      []string `json:"seatNumbers"`
	TotalCost        float64  `json:"totalCost"`
	BookingDate      string   `json:"bookingDate"`
	PaymentReference string   `json:"paymentReference,omitempty"`
}

type Customer struct {
	CustomerID   int    `json:"customerId,omitempty" yaml:"customerId,omitempty"`
	CustomerName string `json:"customerName" yaml:"customerName"`
	Email        string `json:"email" yaml:"email"`
	Password     string `json:"password,omitempty" yaml:"-"`
	MobileNumber string `json:"mobileNumber,omitempty" yaml:"mobileNumber,omitempty"`
	Address      string `json:"address,omitempty" yaml:"address,omitempty"`
}

type PaymentIntentRequest struct {
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	ReceiptEmail string `json:"receiptEmail,omitempty"`
	Description  string `json:"description,omitempty"`
}

type PaymentIntent struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
}

// SignInResponse is the payload of a successful sign in.
type SignInResponse struct {
	Success               bool   `json:"success"`
	Token                 string `json:"token"`
	RefreshToken          string `json:"refreshToken"`
	TokenType             string `json:"tokenType"`
	ExpiresIn             *int64 `json:"expiresIn,omitempty"`
	ExpiresAt             *int64 `json:"expiresAt,omitempty"`
	RefreshTokenExpiresIn *int64 `json:"refreshTokenExpiresIn,omitempty"`
	RefreshTokenExpiresAt *int64 `json:"refreshTokenExpiresAt,omitempty"`
	Role                  string `json:"role"`
	Email                 string `json:"email"`
	UserID                int64  `json:"userId"`
	Name                  string `json:"name,omitempty"`
}
