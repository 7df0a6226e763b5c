package api

import (
	"context"
	"fmt"
	"net/http"
)

func (c *Client) ListBookings(ctx context.Context) ([]Booking, error) {
	return getJSON[[]Booking](ctx, c, "/api/bookings")
}

// CustomerBookings lists the bookings of one customer.
func (c *Client) CustomerBookings(ctx context.Context, customerID int64) ([]Booking, error) {
	return getJSON[[]Booking](ctx, c, fmt.Sprintf("/api/bookings/customer/%d", customerID))
}

// CreateBooking books seats for the signed in customer. CustomerID defaults to
// the session's user id.
func (c *Client) CreateBooking(ctx context.Context, req BookingRequest) (*Booking, error) {
	if req.CustomerID == 0 {
		sess := c.store.Get()
		if sess == nil || sess.UserID == 0 {
			return nil, ErrNotSignedIn
		}
		req.CustomerID = sess.UserID
	}
	return sendJSON[*Booking](ctx, c, http.MethodPost, "/api/bookings", req)
}

func (c *Client) CancelBooking(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/bookings/%d", id), nil, nil)
}

// CreatePaymentIntent asks the backend for a payment intent. The payment itself
// is handled by the payment processor.
func (c *Client) CreatePaymentIntent(ctx context.Context, req PaymentIntentRequest) (*PaymentIntent, error) {
	return sendJSON[*PaymentIntent](ctx, c, http.MethodPost, "/api/payments/create-intent", req)
}
