package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfeidau/boxoffice/internal/api"
	"github.com/wolfeidau/boxoffice/internal/backendtest"
)

func newGlobals(t *testing.T, srv *backendtest.Server, output string) (*Globals, *bytes.Buffer) {
	t.Helper()

	var buf bytes.Buffer
	return &Globals{
		Server:      srv.URL,
		SessionFile: filepath.Join(t.TempDir(), "session.json"),
		Timeout:     5 * time.Second,
		Output:      output,
		Stdout:      &buf,
	}, &buf
}

func signIn(t *testing.T, g *Globals) {
	t.Helper()
	cmd := &SignInCmd{Email: backendtest.AdminEmail, Password: backendtest.AdminPassword}
	require.NoError(t, cmd.Run(t.Context(), g))
}

func TestSignInCmd(t *testing.T) {
	srv := backendtest.New(t)
	g, buf := newGlobals(t, srv, "table")

	signIn(t, g)
	assert.Contains(t, buf.String(), "Signed in as admin@mymovie.com (ADMIN)")

	info, err := os.Stat(g.SessionFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestSignInCmd_RequiresPassword(t *testing.T) {
	srv := backendtest.New(t)
	g, _ := newGlobals(t, srv, "table")

	err := (&SignInCmd{Email: backendtest.AdminEmail}).Run(t.Context(), g)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password is required")
	assert.Empty(t, srv.Requests())
}

func TestSignOutCmd(t *testing.T) {
	srv := backendtest.New(t)
	g, buf := newGlobals(t, srv, "table")
	signIn(t, g)

	require.NoError(t, (&SignOutCmd{}).Run(t.Context(), g))
	assert.Contains(t, buf.String(), "Signed out.")

	_, err := os.Stat(g.SessionFile)
	assert.True(t, os.IsNotExist(err))
}

func TestWhoamiCmd(t *testing.T) {
	srv := backendtest.New(t)
	g, buf := newGlobals(t, srv, "json")

	require.NoError(t, (&WhoamiCmd{}).Run(t.Context(), g))
	assert.Equal(t, "Not signed in.\n", buf.String())

	signIn(t, g)
	buf.Reset()

	require.NoError(t, (&WhoamiCmd{}).Run(t.Context(), g))

	var got whoami
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, backendtest.AdminEmail, got.Email)
	assert.Equal(t, "ADMIN", got.Role)
	assert.Equal(t, int64(backendtest.AdminUserID), got.UserID)
	assert.Equal(t, "Bearer", got.TokenType)
	assert.NotEmpty(t, got.Fingerprint)
	assert.Equal(t, backendtest.AdminEmail, got.Subject)
	assert.False(t, got.IssuedAt.IsZero())
}

func TestMoviesCmd_Output(t *testing.T) {
	tests := []struct {
		output string
		want   []string
	}{
		{output: "table", want: []string{"ID", "NAME", "Inception", "Dangal"}},
		{output: "json", want: []string{`"movieName": "Inception"`}},
		{output: "yaml", want: []string{"movieName: Inception", "language: Hindi"}},
	}

	for _, tt := range tests {
		t.Run(tt.output, func(t *testing.T) {
			srv := backendtest.New(t)
			g, buf := newGlobals(t, srv, tt.output)
			signIn(t, g)
			buf.Reset()

			require.NoError(t, (&MoviesListCmd{}).Run(t.Context(), g))
			for _, want := range tt.want {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}

func TestBookingsCmd_RefreshesExpiredSession(t *testing.T) {
	srv := backendtest.New(t)
	g, buf := newGlobals(t, srv, "json")
	signIn(t, g)
	srv.RevokeAccessToken()
	buf.Reset()

	require.NoError(t, (&BookingsListCmd{}).Run(t.Context(), g))

	var bookings []api.Booking
	require.NoError(t, json.Unmarshal(buf.Bytes(), &bookings))
	require.Len(t, bookings, 1)
	assert.Equal(t, 1, srv.RefreshCalls())

	// the rotated session was persisted for the next invocation
	data, err := os.ReadFile(g.SessionFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), srv.RefreshToken())
}

func TestBookingsCmd_MineRequiresSession(t *testing.T) {
	srv := backendtest.New(t)
	g, _ := newGlobals(t, srv, "table")

	err := (&BookingsListCmd{Mine: true}).Run(t.Context(), g)
	assert.ErrorIs(t, err, api.ErrNotSignedIn)
}

func TestBookCmd(t *testing.T) {
	srv := backendtest.New(t)
	g, buf := newGlobals(t, srv, "table")
	signIn(t, g)
	buf.Reset()

	require.NoError(t, (&BookCmd{Show: 10, Seats: []string{"A1", "A2"}, Total: 450}).Run(t.Context(), g))
	assert.Contains(t, buf.String(), "Booking 2 confirmed for show 10")
}

func TestGetCmd(t *testing.T) {
	srv := backendtest.New(t)
	g, buf := newGlobals(t, srv, "table")
	signIn(t, g)
	buf.Reset()

	require.NoError(t, (&GetCmd{Path: "api/theatres"}).Run(t.Context(), g))
	assert.Contains(t, buf.String(), "PVR Phoenix")

	err := (&GetCmd{Path: "/api/nothing"}).Run(t.Context(), g)
	var statusErr *api.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, 404, statusErr.StatusCode)
}

func TestGetCmd_SessionExpired(t *testing.T) {
	srv := backendtest.New(t)
	g, _ := newGlobals(t, srv, "table")
	signIn(t, g)
	srv.RevokeAccessToken()
	srv.FailRefresh(400, "Invalid refresh token")

	err := (&GetCmd{Path: "/api/bookings"}).Run(t.Context(), g)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unauthorized")

	_, statErr := os.Stat(g.SessionFile)
	assert.True(t, os.IsNotExist(statErr))
}

type runner interface {
	Run(ctx context.Context, globals *Globals) error
}

func TestCatalogCmds(t *testing.T) {
	type step struct {
		cmd  runner
		want string
	}

	tests := []struct {
		name  string
		steps []step
		check func(t *testing.T, srv *backendtest.Server)
	}{
		{
			name: "movies",
			steps: []step{
				{cmd: &MovieCreateCmd{MovieFields{Name: "Interstellar", Genre: "Sci-Fi", Language: "English"}}, want: "Interstellar"},
				{cmd: &MovieUpdateCmd{ID: 3, MovieFields: MovieFields{Length: "2h 49m"}}, want: "2h 49m"},
				{cmd: &MovieGetCmd{ID: 3}, want: "Interstellar"},
				{cmd: &MoviesListCmd{Theatre: 1}, want: "Inception"},
				{cmd: &MovieDeleteCmd{ID: 2}, want: "Deleted movie 2."},
			},
			check: func(t *testing.T, srv *backendtest.Server) {
				movie, ok := srv.Item(backendtest.Movies, 3)
				require.True(t, ok)
				assert.Equal(t, "2h 49m", movie["movieHours"])
				assert.Equal(t, "Sci-Fi", movie["movieGenre"])
				_, ok = srv.Item(backendtest.Movies, 2)
				assert.False(t, ok)
			},
		},
		{
			name: "theatres",
			steps: []step{
				{cmd: &TheatreCreateCmd{TheatreFields{Name: "Cinepolis", City: "Pune"}}, want: "Cinepolis"},
				{cmd: &TheatreUpdateCmd{ID: 3, TheatreFields: TheatreFields{Manager: "Meera"}}, want: "Meera"},
				{cmd: &TheatreGetCmd{ID: 3}, want: "Pune"},
				{cmd: &TheatresListCmd{City: "pune"}, want: "Cinepolis"},
				{cmd: &TheatreDeleteCmd{ID: 3}, want: "Deleted theatre 3."},
			},
			check: func(t *testing.T, srv *backendtest.Server) {
				_, ok := srv.Item(backendtest.Theatres, 3)
				assert.False(t, ok)
			},
		},
		{
			name: "screens",
			steps: []step{
				{cmd: &ScreenCreateCmd{ScreenFields{Theatre: 2, Name: "Gold", Rows: 6, Columns: 8}}, want: "48"},
				{cmd: &ScreenUpdateCmd{ID: 2, ScreenFields: ScreenFields{Rows: 10}}, want: "80"},
				{cmd: &ScreensListCmd{Theatre: 2}, want: "Gold"},
				{cmd: &ScreenDeleteCmd{ID: 1}, want: "Deleted screen 1."},
			},
			check: func(t *testing.T, srv *backendtest.Server) {
				screen, ok := srv.Item(backendtest.Screens, 2)
				require.True(t, ok)
				assert.InDelta(t, 8.0, screen["columns"], 0.001)
				_, ok = srv.Item(backendtest.Screens, 1)
				assert.False(t, ok)
			},
		},
		{
			name: "shows",
			steps: []step{
				{cmd: &ShowCreateCmd{ShowFields{Name: "Late", Start: "2025-11-04T21:00", End: "2025-11-04T23:30", Screen: 1, Theatre: 1, Movie: 2}}, want: "2025-11-04T21:00:00"},
				{cmd: &ShowUpdateCmd{ID: 2, ShowFields: ShowFields{Name: "Midnight"}}, want: "Midnight"},
				{cmd: &ShowGetCmd{ID: 2}, want: "#2"},
				{cmd: &ShowsListCmd{Theatre: 1}, want: "Evening"},
				{cmd: &ShowDeleteCmd{ID: 2}, want: "Deleted show 2."},
			},
			check: func(t *testing.T, srv *backendtest.Server) {
				_, ok := srv.Item(backendtest.Shows, 2)
				assert.False(t, ok)
			},
		},
		{
			name: "bookings",
			steps: []step{
				{cmd: &BookCmd{Show: 1, Seats: []string{"C4"}, Total: 250}, want: "Booking 2 confirmed"},
				{cmd: &BookingsListCmd{Mine: true}, want: "250.00"},
				{cmd: &BookingCancelCmd{ID: 2}, want: "Cancelled booking 2."},
			},
			check: func(t *testing.T, srv *backendtest.Server) {
				_, ok := srv.Item(backendtest.Bookings, 2)
				assert.False(t, ok)
				assert.Len(t, srv.RequestsTo(http.MethodDelete, "/api/bookings/2"), 1)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := backendtest.New(t)
			g, buf := newGlobals(t, srv, "table")
			signIn(t, g)

			for _, s := range tt.steps {
				buf.Reset()
				require.NoError(t, s.cmd.Run(t.Context(), g), "%T", s.cmd)
				assert.Contains(t, buf.String(), s.want, "%T", s.cmd)
			}

			tt.check(t, srv)
		})
	}
}

func TestCatalogCmds_Errors(t *testing.T) {
	tests := []struct {
		name   string
		cmd    runner
		want   string
		status int
	}{
		{name: "movie without name", cmd: &MovieCreateCmd{}, want: "--name is required"},
		{name: "theatre without city", cmd: &TheatreCreateCmd{TheatreFields{Name: "Cinepolis"}}, want: "--name and --city are required"},
		{name: "screen without theatre", cmd: &ScreenCreateCmd{ScreenFields{Name: "Gold"}}, want: "--theatre and --name are required"},
		{name: "unknown screen", cmd: &ScreenUpdateCmd{ID: 9}, want: "screen 9 not found"},
		{name: "bad show time", cmd: &ShowCreateCmd{ShowFields{Name: "Late", Start: "tonight", End: "2025-11-04T23:30", Screen: 1, Theatre: 1}}, want: `invalid local date time "tonight"`},
		{name: "show ends before it starts", cmd: &ShowUpdateCmd{ID: 1, ShowFields: ShowFields{End: "2025-11-03T17:00"}}, want: api.ErrInvalidShowTimes.Error()},
		{name: "unknown movie", cmd: &MovieDeleteCmd{ID: 42}, want: "movie 42 not found", status: http.StatusNotFound},
		{name: "unknown theatre", cmd: &TheatreGetCmd{ID: 42}, want: "theatre 42 not found", status: http.StatusNotFound},
		{name: "unknown show", cmd: &ShowGetCmd{ID: 42}, want: "show 42 not found", status: http.StatusNotFound},
		{name: "unknown booking", cmd: &BookingCancelCmd{ID: 42}, want: "booking 42 not found", status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := backendtest.New(t)
			g, _ := newGlobals(t, srv, "table")
			signIn(t, g)

			err := tt.cmd.Run(t.Context(), g)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)

			if tt.status != 0 {
				var statusErr *api.StatusError
				require.ErrorAs(t, err, &statusErr)
				assert.Equal(t, tt.status, statusErr.StatusCode)
			}
		})
	}
}

func TestPayCmd(t *testing.T) {
	srv := backendtest.New(t)
	g, buf := newGlobals(t, srv, "json")

	err := (&PayCmd{Amount: 0, Currency: "inr"}).Run(t.Context(), g)
	assert.EqualError(t, err, "amount must be positive")

	signIn(t, g)
	buf.Reset()

	require.NoError(t, (&PayCmd{Amount: 45000, Currency: "inr", Description: "2 seats"}).Run(t.Context(), g))

	var intent api.PaymentIntent
	require.NoError(t, json.Unmarshal(buf.Bytes(), &intent))
	assert.True(t, strings.HasPrefix(intent.PaymentIntentID, "pi_"))
	assert.Equal(t, intent.PaymentIntentID+"_secret", intent.ClientSecret)
	assert.Len(t, srv.RequestsTo(http.MethodPost, "/api/payments/create-intent"), 1)
}

func TestProfileCmd(t *testing.T) {
	srv := backendtest.New(t)
	g, buf := newGlobals(t, srv, "table")

	err := (&ProfileCmd{}).Run(t.Context(), g)
	assert.ErrorIs(t, err, api.ErrNotSignedIn)

	require.NoError(t, (&RegisterCmd{Name: "Priya", Email: "priya@mymovie.com", Password: "s3cret", Mobile: "9820000000"}).Run(t.Context(), g))

	signIn(t, g)
	buf.Reset()

	require.NoError(t, (&ProfileCmd{}).Run(t.Context(), g))
	assert.Contains(t, buf.String(), backendtest.AdminEmail)

	buf.Reset()
	require.NoError(t, (&ProfileCmd{ID: 2}).Run(t.Context(), g))
	assert.Contains(t, buf.String(), "priya@mymovie.com")
	assert.Contains(t, buf.String(), "9820000000")
}

func TestGetCmd_ErrorMessage(t *testing.T) {
	srv := backendtest.New(t)
	g, _ := newGlobals(t, srv, "table")
	signIn(t, g)

	err := (&GetCmd{Path: "/api/movies/99"}).Run(t.Context(), g)
	var statusErr *api.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Equal(t, "movie 99 not found", statusErr.Message)
}

func TestGetCmd_TruncatedErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// declare a longer body than is sent, then drop the connection
		conn, rw, err := w.(http.Hijacker).Hijack()
		if !assert.NoError(t, err) {
			return
		}
		defer conn.Close()

		_, _ = rw.WriteString("HTTP/1.1 500 Internal Server Error\r\nContent-Type: text/plain\r\nContent-Length: 100\r\n\r\nshort")
		_ = rw.Flush()
	}))
	t.Cleanup(srv.Close)

	var buf bytes.Buffer
	g := &Globals{
		Server:      srv.URL,
		SessionFile: filepath.Join(t.TempDir(), "session.json"),
		Timeout:     5 * time.Second,
		Output:      "table",
		Stdout:      &buf,
	}

	err := (&GetCmd{Path: "/api/movies"}).Run(t.Context(), g)
	require.Error(t, err)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Contains(t, err.Error(), "failed to read 500 response from /api/movies")

	var statusErr *api.StatusError
	assert.False(t, errors.As(err, &statusErr))
}
