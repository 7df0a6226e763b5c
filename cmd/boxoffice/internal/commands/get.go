package commands

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/wolfeidau/boxoffice/internal/api"
	"github.com/wolfeidau/boxoffice/internal/gateway"
)

// GetCmd sends an authenticated GET to any backend path and prints the body.
type GetCmd struct {
	Path string `arg:"" help:"Path on the backend, e.g. /api/bookings"`
}

func (c *GetCmd) Run(ctx context.Context, globals *Globals) error {
	cl, err := globals.client()
	if err != nil {
		return err
	}

	path := c.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	req, err := cl.NewRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := cl.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if err != nil {
			return fmt.Errorf("failed to read %d response from %s: %w", resp.StatusCode, path, err)
		}

		message := gateway.ErrorMessage(body)
		if message == "" {
			message = strings.TrimSpace(string(body))
		}
		return &api.StatusError{StatusCode: resp.StatusCode, Message: message}
	}

	_, err = io.Copy(globals.stdout(), resp.Body)
	return err
}
