package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/wolfeidau/boxoffice/internal/api"
)

// ScreensCmd groups the screen commands. Listing is the default.
type ScreensCmd struct {
	List   ScreensListCmd  `cmd:"" default:"withargs" help:"List screens"`
	Create ScreenCreateCmd `cmd:"" help:"Add a screen to a theatre"`
	Update ScreenUpdateCmd `cmd:"" help:"Change a screen"`
	Delete ScreenDeleteCmd `cmd:"" help:"Remove a screen"`
}

type ScreensListCmd struct {
	Theatre int `help:"Only screens in this theatre"`
}

func (c *ScreensListCmd) Run(ctx context.Context, globals *Globals) error {
	cl, err := globals.client()
	if err != nil {
		return err
	}

	var screens []api.Screen
	if c.Theatre != 0 {
		screens, err = cl.ScreensByTheatre(ctx, c.Theatre)
	} else {
		screens, err = cl.ListScreens(ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to list screens: %w", err)
	}

	return globals.render(screens, screenTable(screens...))
}

// ScreenFields are the screen attributes shared by create and update.
type ScreenFields struct {
	Theatre int    `help:"Theatre ID"`
	Name    string `help:"Screen name"`
	Rows    int    `help:"Seat rows"`
	Columns int    `help:"Seats per row"`
}

func (f ScreenFields) apply(s *api.Screen) {
	setInt(&s.TheatreID, f.Theatre)
	setString(&s.ScreenName, f.Name)
	setInt(&s.Rows, f.Rows)
	setInt(&s.Columns, f.Columns)
}

type ScreenCreateCmd struct {
	ScreenFields `embed:""`
}

func (c *ScreenCreateCmd) Run(ctx context.Context, globals *Globals) error {
	if c.Theatre == 0 || c.Name == "" {
		return errors.New("--theatre and --name are required")
	}

	cl, err := globals.client()
	if err != nil {
		return err
	}

	var screen api.Screen
	c.apply(&screen)

	created, err := cl.CreateScreen(ctx, screen)
	if err != nil {
		return fmt.Errorf("failed to create screen: %w", err)
	}

	return globals.render(created, screenTable(*created))
}

type ScreenUpdateCmd struct {
	ID           int `arg:"" help:"Screen ID"`
	ScreenFields `embed:""`
}

func (c *ScreenUpdateCmd) Run(ctx context.Context, globals *Globals) error {
	cl, err := globals.client()
	if err != nil {
		return err
	}

	// screens have no single item endpoint
	screens, err := cl.ListScreens(ctx)
	if err != nil {
		return fmt.Errorf("failed to list screens: %w", err)
	}

	var screen *api.Screen
	for i := range screens {
		if screens[i].ScreenID == c.ID {
			screen = &screens[i]
			break
		}
	}
	if screen == nil {
		return fmt.Errorf("screen %d not found", c.ID)
	}
	c.apply(screen)

	updated, err := cl.UpdateScreen(ctx, *screen)
	if err != nil {
		return fmt.Errorf("failed to update screen %d: %w", c.ID, err)
	}

	return globals.render(updated, screenTable(*updated))
}

type ScreenDeleteCmd struct {
	ID int `arg:"" help:"Screen ID"`
}

func (c *ScreenDeleteCmd) Run(ctx context.Context, globals *Globals) error {
	cl, err := globals.client()
	if err != nil {
		return err
	}

	if err := cl.DeleteScreen(ctx, c.ID); err != nil {
		return fmt.Errorf("failed to delete screen %d: %w", c.ID, err)
	}

	fmt.Fprintf(globals.stdout(), "Deleted screen %d.\n", c.ID)
	return nil
}

func screenTable(screens ...api.Screen) func(io.Writer) {
	return func(w io.Writer) {
		fmt.Fprintln(w, "ID\tTHEATRE\tNAME\tSEATS")
		for _, s := range screens {
			fmt.Fprintf(w, "%d\t%d\t%s\t%d\n", s.ScreenID, s.TheatreID, s.ScreenName, s.Rows*s.Columns)
		}
	}
}

// ShowsCmd groups the show commands. Listing is the default.
type ShowsCmd struct {
	List   ShowsListCmd  `cmd:"" default:"withargs" help:"List shows"`
	Get    ShowGetCmd    `cmd:"" help:"Show a show"`
	Create ShowCreateCmd `cmd:"" help:"Schedule a show"`
	Update ShowUpdateCmd `cmd:"" help:"Change a show"`
	Delete ShowDeleteCmd `cmd:"" help:"Remove a show"`
}

type ShowsListCmd struct {
	Theatre int `help:"Only shows at this theatre"`
}

func (c *ShowsListCmd) Run(ctx context.Context, globals *Globals) error {
	cl, err := globals.client()
	if err != nil {
		return err
	}

	var shows []api.Show
	if c.Theatre != 0 {
		shows, err = cl.ShowsByTheatre(ctx, c.Theatre)
	} else {
		shows, err = cl.ListShows(ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to list shows: %w", err)
	}

	return globals.render(shows, showTable(shows...))
}

type ShowGetCmd struct {
	ID int `arg:"" help:"Show ID"`
}

func (c *ShowGetCmd) Run(ctx context.Context, globals *Globals) error {
	cl, err := globals.client()
	if err != nil {
		return err
	}

	show, err := cl.GetShow(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("failed to get show %d: %w", c.ID, err)
	}

	return globals.render(show, showTable(*show))
}

// ShowFields are the show attributes shared by create and update. Times are
// local to the theatre, e.g. 2025-11-03T18:00.
type ShowFields struct {
	Name    string `help:"Show name"`
	Start   string `help:"Start time"`
	End     string `help:"End time"`
	Screen  int    `help:"Screen ID"`
	Theatre int    `help:"Theatre ID"`
	Movie   int    `help:"Movie ID"`
}

func (f ShowFields) apply(s *api.Show) error {
	setString(&s.ShowName, f.Name)
	setInt(&s.ScreenID, f.Screen)
	setInt(&s.TheatreID, f.Theatre)
	if f.Movie != 0 {
		movie := f.Movie
		s.MovieID = &movie
	}

	for _, tm := range []struct {
		dst *api.LocalDateTime
		raw string
	}{
		{&s.ShowStartTime, f.Start},
		{&s.ShowEndTime, f.End},
	} {
		if tm.raw == "" {
			continue
		}
		parsed, err := api.ParseLocalDateTime(tm.raw)
		if err != nil {
			return err
		}
		*tm.dst = parsed
	}

	return nil
}

type ShowCreateCmd struct {
	ShowFields `embed:""`
}

func (c *ShowCreateCmd) Run(ctx context.Context, globals *Globals) error {
	if c.Name == "" || c.Start == "" || c.End == "" || c.Screen == 0 || c.Theatre == 0 {
		return errors.New("--name, --start, --end, --screen and --theatre are required")
	}

	var show api.Show
	if err := c.apply(&show); err != nil {
		return err
	}

	cl, err := globals.client()
	if err != nil {
		return err
	}

	created, err := cl.CreateShow(ctx, show)
	if err != nil {
		return fmt.Errorf("failed to create show: %w", err)
	}

	return globals.render(created, showTable(*created))
}

type ShowUpdateCmd struct {
	ID         int `arg:"" help:"Show ID"`
	ShowFields `embed:""`
}

func (c *ShowUpdateCmd) Run(ctx context.Context, globals *Globals) error {
	cl, err := globals.client()
	if err != nil {
		return err
	}

	show, err := cl.GetShow(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("failed to get show %d: %w", c.ID, err)
	}
	if err := c.apply(show); err != nil {
		return err
	}
	show.ShowID = c.ID

	updated, err := cl.UpdateShow(ctx, *show)
	if err != nil {
		return fmt.Errorf("failed to update show %d: %w", c.ID, err)
	}

	return globals.render(updated, showTable(*updated))
}

type ShowDeleteCmd struct {
	ID int `arg:"" help:"Show ID"`
}

func (c *ShowDeleteCmd) Run(ctx context.Context, globals *Globals) error {
	cl, err := globals.client()
	if err != nil {
		return err
	}

	if err := cl.DeleteShow(ctx, c.ID); err != nil {
		return fmt.Errorf("failed to delete show %d: %w", c.ID, err)
	}

	fmt.Fprintf(globals.stdout(), "Deleted show %d.\n", c.ID)
	return nil
}

func showTable(shows ...api.Show) func(io.Writer) {
	return func(w io.Writer) {
		fmt.Fprintln(w, "ID\tNAME\tSTART\tEND\tSCREEN\tMOVIE")
		for _, s := range shows {
			movie := "-"
			switch {
			case s.Movie != nil:
				movie = s.Movie.MovieName
			case s.MovieID != nil:
				movie = fmt.Sprintf("#%d", *s.MovieID)
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\n", s.ShowID, s.ShowName, s.ShowStartTime, s.ShowEndTime, s.ScreenID, movie)
		}
	}
}
