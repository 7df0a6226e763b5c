package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/wolfeidau/boxoffice/internal/api"
)

// BookingsCmd groups the booking commands. Listing is the default.
type BookingsCmd struct {
	List   BookingsListCmd  `cmd:"" default:"withargs" help:"List bookings"`
	Cancel BookingCancelCmd `cmd:"" help:"Cancel a booking"`
}

type BookingsListCmd struct {
	Customer int64 `help:"Only bookings of this customer" xor:"customer"`
	Mine     bool  `help:"Only bookings of the signed in user" xor:"customer"`
}

func (c *BookingsListCmd) Run(ctx context.Context, globals *Globals) error {
	cl, err := globals.client()
	if err != nil {
		return err
	}

	customer := c.Customer
	if c.Mine {
		sess := cl.Store().Get()
		if sess == nil {
			return api.ErrNotSignedIn
		}
		customer = sess.UserID
	}

	var bookings []api.Booking
	if customer != 0 {
		bookings, err = cl.CustomerBookings(ctx, customer)
	} else {
		bookings, err = cl.ListBookings(ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to list bookings: %w", err)
	}

	return globals.render(bookings, func(w io.Writer) {
		fmt.Fprintln(w, "ID\tSHOW\tDATE\tTOTAL\tSTATUS")
		for _, b := range bookings {
			fmt.Fprintf(w, "%d\t%d\t%s\t%.2f\t%s\n", b.BookingID, b.ShowID, b.BookingDate, b.TotalCost, b.TransactionStatus)
		}
	})
}

type BookingCancelCmd struct {
	ID int `arg:"" help:"Booking ID"`
}

func (c *BookingCancelCmd) Run(ctx context.Context, globals *Globals) error {
	cl, err := globals.client()
	if err != nil {
		return err
	}

	if err := cl.CancelBooking(ctx, c.ID); err != nil {
		return fmt.Errorf("failed to cancel booking %d: %w", c.ID, err)
	}

	fmt.Fprintf(globals.stdout(), "Cancelled booking %d.\n", c.ID)
	return nil
}

// BookCmd books seats on a show for the signed in customer.
type BookCmd struct {
	Show    int      `arg:"" help:"Show ID"`
	Seats   []string `arg:"" help:"Seat numbers, e.g. A1 A2"`
	Total   float64  `help:"Total cost" required:""`
	Payment string   `help:"Payment reference from the payment processor"`
}

func (c *BookCmd) Run(ctx context.Context, globals *Globals) error {
	cl, err := globals.client()
	if err != nil {
		return err
	}

	booking, err := cl.CreateBooking(ctx, api.BookingRequest{
		ShowID:           c.Show,
		SeatNumbers:      c.Seats,
		TotalCost:        c.Total,
		BookingDate:      time.Now().Format(time.DateOnly),
		PaymentReference: c.Payment,
	})
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	return globals.render(booking, func(w io.Writer) {
		fmt.Fprintf(w, "Booking %d confirmed for show %d (%.2f)\n", booking.BookingID, booking.ShowID, booking.TotalCost)
	})
}

// PayCmd creates a payment intent. The returned client secret completes the
// payment with the payment processor, and the intent ID is the --payment
// reference for book.
type PayCmd struct {
	Amount      int64  `arg:"" help:"Amount in the smallest currency unit, e.g. paise"`
	Currency    string `help:"ISO currency code" default:"inr"`
	Email       string `help:"Receipt email (default the signed in user)"`
	Description string `help:"Statement description"`
}

func (c *PayCmd) Run(ctx context.Context, globals *Globals) error {
	if c.Amount <= 0 {
		return errors.New("amount must be positive")
	}

	cl, err := globals.client()
	if err != nil {
		return err
	}

	email := c.Email
	if email == "" {
		if sess := cl.Store().Get(); sess != nil {
			email = sess.Email
		}
	}

	intent, err := cl.CreatePaymentIntent(ctx, api.PaymentIntentRequest{
		Amount:       c.Amount,
		Currency:     c.Currency,
		ReceiptEmail: email,
		Description:  c.Description,
	})
	if err != nil {
		return fmt.Errorf("failed to create payment intent: %w", err)
	}

	return globals.render(intent, func(w io.Writer) {
		fmt.Fprintf(w, "Payment intent:\t%s\n", intent.PaymentIntentID)
		fmt.Fprintf(w, "Client secret:\t%s\n", intent.ClientSecret)
	})
}
