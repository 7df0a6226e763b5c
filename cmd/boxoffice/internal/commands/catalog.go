package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/wolfeidau/boxoffice/internal/api"
)

// MoviesCmd groups the movie commands. Listing is the default.
type MoviesCmd struct {
	List   MoviesListCmd  `cmd:"" default:"withargs" help:"List movies"`
	Get    MovieGetCmd    `cmd:"" help:"Show a movie"`
	Create MovieCreateCmd `cmd:"" help:"Add a movie"`
	Update MovieUpdateCmd `cmd:"" help:"Change a movie"`
	Delete MovieDeleteCmd `cmd:"" help:"Remove a movie"`
}

type MoviesListCmd struct {
	Theatre int `help:"Only movies showing at this theatre"`
}

func (c *MoviesListCmd) Run(ctx context.Context, globals *Globals) error {
	cl, err := globals.client()
	if err != nil {
		return err
	}

	var movies []api.Movie
	if c.Theatre != 0 {
		movies, err = cl.MoviesByTheatre(ctx, c.Theatre)
	} else {
		movies, err = cl.ListMovies(ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to list movies: %w", err)
	}

	return globals.render(movies, movieTable(movies...))
}

type MovieGetCmd struct {
	ID int `arg:"" help:"Movie ID"`
}

func (c *MovieGetCmd) Run(ctx context.Context, globals *Globals) error {
	cl, err := globals.client()
	if err != nil {
		return err
	}

	movie, err := cl.GetMovie(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("failed to get movie %d: %w", c.ID, err)
	}

	return globals.render(movie, movieTable(*movie))
}

// MovieFields are the movie attributes shared by create and update.
type MovieFields struct {
	Name        string `help:"Movie name"`
	Genre       string `help:"Genre"`
	Length      string `help:"Running time, e.g. 2h 28m"`
	Language    string `help:"Language"`
	Description string `help:"Synopsis"`
	Image       string `help:"Poster image URL"`
}

// apply copies the flags that were set onto m.
func (f MovieFields) apply(m *api.Movie) {
	setString(&m.MovieName, f.Name)
	setString(&m.MovieGenre, f.Genre)
	setString(&m.MovieHours, f.Length)
	setString(&m.Language, f.Language)
	setString(&m.Description, f.Description)
	setString(&m.ImageURL, f.Image)
}

type MovieCreateCmd struct {
	MovieFields `embed:""`
}

func (c *MovieCreateCmd) Run(ctx context.Context, globals *Globals) error {
	if c.Name == "" {
		return errors.New("--name is required")
	}

	cl, err := globals.client()
	if err != nil {
		return err
	}

	var movie api.Movie
	c.apply(&movie)

	created, err := cl.CreateMovie(ctx, movie)
	if err != nil {
		return fmt.Errorf("failed to create movie: %w", err)
	}

	return globals.render(created, movieTable(*created))
}

type MovieUpdateCmd struct {
	ID          int `arg:"" help:"Movie ID"`
	MovieFields `embed:""`
}

func (c *MovieUpdateCmd) Run(ctx context.Context, globals *Globals) error {
	cl, err := globals.client()
	if err != nil {
		return err
	}

	movie, err := cl.GetMovie(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("failed to get movie %d: %w", c.ID, err)
	}
	c.apply(movie)
	movie.MovieID = c.ID

	updated, err := cl.UpdateMovie(ctx, *movie)
	if err != nil {
		return fmt.Errorf("failed to update movie %d: %w", c.ID, err)
	}

	return globals.render(updated, movieTable(*updated))
}

type MovieDeleteCmd struct {
	ID int `arg:"" help:"Movie ID"`
}

func (c *MovieDeleteCmd) Run(ctx context.Context, globals *Globals) error {
	cl, err := globals.client()
	if err != nil {
		return err
	}

	if err := cl.DeleteMovie(ctx, c.ID); err != nil {
		return fmt.Errorf("failed to delete movie %d: %w", c.ID, err)
	}

	fmt.Fprintf(globals.stdout(), "Deleted movie %d.\n", c.ID)
	return nil
}

func movieTable(movies ...api.Movie) func(io.Writer) {
	return func(w io.Writer) {
		fmt.Fprintln(w, "ID\tNAME\tGENRE\tLANGUAGE\tLENGTH")
		for _, m := range movies {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", m.MovieID, m.MovieName, m.MovieGenre, m.Language, m.MovieHours)
		}
	}
}

// TheatresCmd groups the theatre commands. Listing is the default.
type TheatresCmd struct {
	List   TheatresListCmd  `cmd:"" default:"withargs" help:"List theatres"`
	Get    TheatreGetCmd    `cmd:"" help:"Show a theatre"`
	Create TheatreCreateCmd `cmd:"" help:"Add a theatre"`
	Update TheatreUpdateCmd `cmd:"" help:"Change a theatre"`
	Delete TheatreDeleteCmd `cmd:"" help:"Remove a theatre"`
}

type TheatresListCmd struct {
	City string `help:"Only theatres in this city"`
}

func (c *TheatresListCmd) Run(ctx context.Context, globals *Globals) error {
	cl, err := globals.client()
	if err != nil {
		return err
	}

	var theatres []api.Theatre
	if c.City != "" {
		theatres, err = cl.TheatresByCity(ctx, c.City)
	} else {
		theatres, err = cl.ListTheatres(ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to list theatres: %w", err)
	}

	return globals.render(theatres, theatreTable(theatres...))
}

type TheatreGetCmd struct {
	ID int `arg:"" help:"Theatre ID"`
}

func (c *TheatreGetCmd) Run(ctx context.Context, globals *Globals) error {
	cl, err := globals.client()
	if err != nil {
		return err
	}

	theatre, err := cl.GetTheatre(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("failed to get theatre %d: %w", c.ID, err)
	}

	return globals.render(theatre, theatreTable(*theatre))
}

// TheatreFields are the theatre attributes shared by create and update.
type TheatreFields struct {
	Name    string `help:"Theatre name"`
	City    string `help:"City"`
	Manager string `help:"Manager name"`
	Contact string `help:"Manager contact"`
}

func (f TheatreFields) apply(t *api.Theatre) {
	setString(&t.TheatreName, f.Name)
	setString(&t.TheatreCity, f.City)
	setString(&t.ManagerName, f.Manager)
	setString(&t.ManagerContact, f.Contact)
}

type TheatreCreateCmd struct {
	TheatreFields `embed:""`
}

func (c *TheatreCreateCmd) Run(ctx context.Context, globals *Globals) error {
	if c.Name == "" || c.City == "" {
		return errors.New("--name and --city are required")
	}

	cl, err := globals.client()
	if err != nil {
		return err
	}

	var theatre api.Theatre
	c.apply(&theatre)

	created, err := cl.CreateTheatre(ctx, theatre)
	if err != nil {
		return fmt.Errorf("failed to create theatre: %w", err)
	}

	return globals.render(created, theatreTable(*created))
}

type TheatreUpdateCmd struct {
	ID            int `arg:"" help:"Theatre ID"`
	TheatreFields `embed:""`
}

func (c *TheatreUpdateCmd) Run(ctx context.Context, globals *Globals) error {
	cl, err := globals.client()
	if err != nil {
		return err
	}

	theatre, err := cl.GetTheatre(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("failed to get theatre %d: %w", c.ID, err)
	}
	c.apply(theatre)
	theatre.TheatreID = c.ID

	updated, err := cl.UpdateTheatre(ctx, *theatre)
	if err != nil {
		return fmt.Errorf("failed to update theatre %d: %w", c.ID, err)
	}

	return globals.render(updated, theatreTable(*updated))
}

type TheatreDeleteCmd struct {
	ID int `arg:"" help:"Theatre ID"`
}

func (c *TheatreDeleteCmd) Run(ctx context.Context, globals *Globals) error {
	cl, err := globals.client()
	if err != nil {
		return err
	}

	if err := cl.DeleteTheatre(ctx, c.ID); err != nil {
		return fmt.Errorf("failed to delete theatre %d: %w", c.ID, err)
	}

	fmt.Fprintf(globals.stdout(), "Deleted theatre %d.\n", c.ID)
	return nil
}

func theatreTable(theatres ...api.Theatre) func(io.Writer) {
	return func(w io.Writer) {
		fmt.Fprintln(w, "ID\tNAME\tCITY\tMANAGER")
		for _, t := range theatres {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", t.TheatreID, t.TheatreName, t.TheatreCity, t.ManagerName)
		}
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}
