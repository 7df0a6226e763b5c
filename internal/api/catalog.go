package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

func (c *Client) ListMovies(ctx context.Context) ([]Movie, error) {
	return getJSON[[]Movie](ctx, c, "/api/movies")
}

func (c *Client) GetMovie(ctx context.Context, id int) (*Movie, error) {
	return getJSON[*Movie](ctx, c, fmt.Sprintf("/api/movies/%d", id))
}

// MoviesByTheatre lists the movies showing at a theatre.
func (c *Client) MoviesByTheatre(ctx context.Context, theatreID int) ([]Movie, error) {
	return getJSON[[]Movie](ctx, c, fmt.Sprintf("/api/movies/theatre/%d", theatreID))
}

func (c *Client) CreateMovie(ctx context.Context, m Movie) (*Movie, error) {
	return sendJSON[*Movie](ctx, c, http.MethodPost, "/api/movies", m)
}

func (c *Client) UpdateMovie(ctx context.Context, m Movie) (*Movie, error) {
	return sendJSON[*Movie](ctx, c, http.MethodPut, fmt.Sprintf("/api/movies/%d", m.MovieID), m)
}

func (c *Client) DeleteMovie(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/movies/%d", id), nil, nil)
}

func (c *Client) ListTheatres(ctx context.Context) ([]Theatre, error) {
	return getJSON[[]Theatre](ctx, c, "/api/theatres")
}

func (c *Client) GetTheatre(ctx context.Context, id int) (*Theatre, error) {
	return getJSON[*Theatre](ctx, c, fmt.Sprintf("/api/theatres/%d", id))
}

func (c *Client) TheatresByCity(ctx context.Context, city string) ([]Theatre, error) {
	return getJSON[[]Theatre](ctx, c, "/api/theatres/city/"+url.PathEscape(city))
}

func (c *Client) CreateTheatre(ctx context.Context, t Theatre) (*Theatre, error) {
	return sendJSON[*Theatre](ctx, c, http.MethodPost, "/api/theatres", t)
}

func (c *Client) UpdateTheatre(ctx context.Context, t Theatre) (*Theatre, error) {
	return sendJSON[*Theatre](ctx, c, http.MethodPut, fmt.Sprintf("/api/theatres/%d", t.TheatreID), t)
}

func (c *Client) DeleteTheatre(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/theatres/%d", id), nil, nil)
}

func (c *Client) ListScreens(ctx context.Context) ([]Screen, error) {
	return getJSON[[]Screen](ctx, c, "/api/screens")
}

func (c *Client) ScreensByTheatre(ctx context.Context, theatreID int) ([]Screen, error) {
	return getJSON[[]Screen](ctx, c, fmt.Sprintf("/api/screens/theatre/%d", theatreID))
}

func (c *Client) CreateScreen(ctx context.Context, s Screen) (*Screen, error) {
	return sendJSON[*Screen](ctx, c, http.MethodPost, "/api/screens", s)
}

func (c *Client) UpdateScreen(ctx context.Context, s Screen) (*Screen, error) {
	return sendJSON[*Screen](ctx, c, http.MethodPut, fmt.Sprintf("/api/screens/%d", s.ScreenID), s)
}

func (c *Client) DeleteScreen(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/screens/%d", id), nil, nil)
}

func (c *Client) ListShows(ctx context.Context) ([]Show, error) {
	return getJSON[[]Show](ctx, c, "/api/shows")
}

func (c *Client) GetShow(ctx context.Context, id int) (*Show, error) {
	return getJSON[*Show](ctx, c, fmt.Sprintf("/api/shows/%d", id))
}

func (c *Client) ShowsByTheatre(ctx context.Context, theatreID int) ([]Show, error) {
	return getJSON[[]Show](ctx, c, fmt.Sprintf("/api/shows/theatre/%d", theatreID))
}

// CreateShow validates the show window before sending it.
func (c *Client) CreateShow(ctx context.Context, s Show) (*Show, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return sendJSON[*Show](ctx, c, http.MethodPost, "/api/shows", s)
}

func (c *Client) UpdateShow(ctx context.Context, s Show) (*Show, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return sendJSON[*Show](ctx, c, http.MethodPut, fmt.Sprintf("/api/shows/%d", s.ShowID), s)
}

func (c *Client) DeleteShow(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/shows/%d", id), nil, nil)
}
