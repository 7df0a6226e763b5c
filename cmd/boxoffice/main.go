package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/boxoffice/cmd/boxoffice/internal/commands"
	"github.com/wolfeidau/boxoffice/internal/logger"
	"github.com/wolfeidau/boxoffice/internal/telemetry"
)

var (
	version = "dev"
	cli     struct {
		Globals commands.Globals `embed:""`

		Signin   commands.SignInCmd   `cmd:"" help:"Sign in and store the session"`
		Signout  commands.SignOutCmd  `cmd:"" help:"Sign out and remove the stored session"`
		Register commands.RegisterCmd `cmd:"" help:"Create a customer account"`
		Whoami   commands.WhoamiCmd   `cmd:"" help:"Show the stored session"`
		Profile  commands.ProfileCmd  `cmd:"" help:"Show a customer profile"`
		Movies   commands.MoviesCmd   `cmd:"" help:"List and manage movies"`
		Theatres commands.TheatresCmd `cmd:"" help:"List and manage theatres"`
		Screens  commands.ScreensCmd  `cmd:"" help:"List and manage screens"`
		Shows    commands.ShowsCmd    `cmd:"" help:"List and manage shows"`
		Bookings commands.BookingsCmd `cmd:"" help:"List and cancel bookings"`
		Book     commands.BookCmd     `cmd:"" help:"Book seats on a show"`
		Pay      commands.PayCmd      `cmd:"" help:"Create a payment intent"`
		Get      commands.GetCmd      `cmd:"" help:"Send an authenticated GET request"`
		Version  kong.VersionFlag     `help:"Print version and exit"`
	}
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := kong.Parse(&cli,
		kong.Name("boxoffice"),
		kong.Description("Movie booking command line client"),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))

	log.Logger = logger.Setup(cli.Globals.Debug)
	cli.Globals.Version = version

	if cli.Globals.Otel {
		shutdown, err := telemetry.InitTelemetry(ctx, "boxoffice", version)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without it")
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(shutdownCtx); err != nil {
					log.Error().Err(err).Msg("Failed to shutdown telemetry")
				}
			}()
		}
	}

	err := cmd.Run(&cli.Globals)
	cmd.FatalIfErrorf(err)
}
