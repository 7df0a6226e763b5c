package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/wolfeidau/boxoffice/internal/api"
	"github.com/wolfeidau/boxoffice/internal/client"
	"github.com/wolfeidau/boxoffice/internal/session"
)

// Globals are the flags shared by every command.
type Globals struct {
	Server      string        `help:"Backend base URL" default:"http://localhost:8080" env:"BOXOFFICE_SERVER"`
	SessionFile string        `help:"Session file (default ~/.boxoffice/session.json)" env:"BOXOFFICE_SESSION_FILE"`
	Timeout     time.Duration `help:"Request timeout" default:"30s" env:"BOXOFFICE_TIMEOUT"`
	Cache       bool          `help:"Cache GET responses for the current session" env:"BOXOFFICE_CACHE"`
	Debug       bool          `help:"Enable debug logging" env:"BOXOFFICE_DEBUG"`
	Otel        bool          `help:"Export traces and metrics over OTLP" env:"BOXOFFICE_OTEL"`
	Output      string        `help:"Output format" short:"o" enum:"table,json,yaml" default:"table" env:"BOXOFFICE_OUTPUT"`

	Version string    `kong:"-"`
	Stdout  io.Writer `kong:"-"`
}

func (g *Globals) stdout() io.Writer {
	if g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}

func (g *Globals) store() (*session.Store, error) {
	backend, err := session.NewFileBackend(g.SessionFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session store: %w", err)
	}

	store := session.NewStore(backend)
	store.OnExpired(func(reason string) {
		log.Warn().Str("path", backend.Path()).Msg(reason)
	})

	return store, nil
}

// client opens the session store and builds the API client on top of it.
func (g *Globals) client() (*api.Client, error) {
	store, err := g.store()
	if err != nil {
		return nil, err
	}

	timeout := g.Timeout
	if timeout == 0 {
		timeout = client.DefaultConfig().Timeout
	}

	c, err := api.New(client.Config{
		ServerURL: g.Server,
		Timeout:   timeout,
		Debug:     g.Debug,
		Cache:     g.Cache,
	}, store, log.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return c, nil
}

// render writes v in the selected output format. table is used for the
// default tabular output.
func (g *Globals) render(v any, table func(w io.Writer)) error {
	out := g.stdout()

	switch g.Output {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		table(w)
		return w.Flush()
	}
}

func formatMillis(ms *int64) string {
	if ms == nil {
		return "-"
	}
	return time.UnixMilli(*ms).Format(time.RFC3339)
}
