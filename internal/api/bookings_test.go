package api

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfeidau/boxoffice/internal/backendtest"
	"github.com/wolfeidau/boxoffice/internal/gateway"
)

func TestClient_CreateBooking(t *testing.T) {
	c, _ := newTestClient(t)
	signIn(t, c)

	booking, err := c.CreateBooking(t.Context(), BookingRequest{
		ShowID:      10,
		SeatNumbers: []string{"A1", "A2"},
		TotalCost:   450,
		BookingDate: "2025-11-03",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, booking.BookingID)
	assert.Equal(t, 10, booking.ShowID)
	assert.InDelta(t, 450.0, booking.TotalCost, 0.001)
}

func TestClient_CreateBookingRequiresSession(t *testing.T) {
	c, srv := newTestClient(t)

	_, err := c.CreateBooking(t.Context(), BookingRequest{ShowID: 10})
	assert.ErrorIs(t, err, ErrNotSignedIn)
	assert.Empty(t, srv.Requests())
}

func TestClient_CreateShowValidates(t *testing.T) {
	c, srv := newTestClient(t)

	start := time.Date(2025, 11, 3, 18, 0, 0, 0, time.UTC)
	_, err := c.CreateShow(t.Context(), Show{
		ShowName:      "Evening",
		ShowStartTime: LocalDateTime{Time: start},
		ShowEndTime:   LocalDateTime{Time: start.Add(-time.Hour)},
	})
	assert.ErrorIs(t, err, ErrInvalidShowTimes)
	assert.Empty(t, srv.Requests())
}

func TestClient_CancelBooking(t *testing.T) {
	c, srv := newTestClient(t)
	signIn(t, c)

	booking, err := c.CreateBooking(t.Context(), BookingRequest{ShowID: 1, SeatNumbers: []string{"C4"}, TotalCost: 250})
	require.NoError(t, err)

	mine, err := c.CustomerBookings(t.Context(), backendtest.AdminUserID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	require.NoError(t, c.CancelBooking(t.Context(), booking.BookingID))
	_, ok := srv.Item(backendtest.Bookings, booking.BookingID)
	assert.False(t, ok)

	mine, err = c.CustomerBookings(t.Context(), backendtest.AdminUserID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestClient_CreatePaymentIntent(t *testing.T) {
	tests := []struct {
		name    string
		req     PaymentIntentRequest
		wantErr int
	}{
		{name: "valid", req: PaymentIntentRequest{Amount: 45000, Currency: "inr", ReceiptEmail: backendtest.AdminEmail}},
		{name: "zero amount", req: PaymentIntentRequest{Currency: "inr"}, wantErr: http.StatusBadRequest},
		{name: "missing currency", req: PaymentIntentRequest{Amount: 100}, wantErr: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t)
			signIn(t, c)

			intent, err := c.CreatePaymentIntent(t.Context(), tt.req)
			if tt.wantErr != 0 {
				requireStatus(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(intent.PaymentIntentID, "pi_"))
			assert.Equal(t, intent.PaymentIntentID+"_secret", intent.ClientSecret)
		})
	}
}

func TestClient_CreatePaymentIntentRequiresSession(t *testing.T) {
	c, _ := newTestClient(t)

	_, err := c.CreatePaymentIntent(t.Context(), PaymentIntentRequest{Amount: 100, Currency: "inr"})
	assert.ErrorIs(t, err, gateway.ErrUnauthenticated)
}
