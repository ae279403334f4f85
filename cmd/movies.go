package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/lepinkainen/marquee/internal/config"
	"github.com/lepinkainen/marquee/internal/coordinator"
	"github.com/lepinkainen/marquee/internal/movie"
)

// FieldFlags are the optional movie fields shared by add and edit.
type FieldFlags struct {
	Director string `help:"Director"`
	Producer string `help:"Producer"`
	Actor    string `help:"Leading actor"`
	Actress  string `help:"Leading actress"`
	Release  string `help:"Release date"`
	Budget   string `help:"Budget"`
}

// apply copies every non-empty flag onto f.
func (ff FieldFlags) apply(f movie.Fields) movie.Fields {
	for column, value := range map[string]string{
		movie.ColumnDirector: ff.Director,
		movie.ColumnProducer: ff.Producer,
		movie.ColumnActor:    ff.Actor,
		movie.ColumnActress:  ff.Actress,
		movie.ColumnRelease:  ff.Release,
		movie.ColumnBudget:   ff.Budget,
	} {
		if value != "" {
			f.Set(column, value)
		}
	}
	return f
}

// ListCmd prints the id and name of every movie.
type ListCmd struct {
	JSON bool `help:"Print movies as JSON"`
}

func (l *ListCmd) Run(settings *config.Settings) error {
	s := newSession(settings)
	movies, err := await(context.Background(), s, s.coord.ListAll)
	if err != nil {
		return fmt.Errorf("failed to list movies: %w", err)
	}

	if l.JSON {
		return printJSON(movies)
	}
	if len(movies) == 0 {
		fmt.Fprintln(stdout, "No movies")
		return nil
	}

	w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME")
	for _, m := range movies {
		fmt.Fprintf(w, "%d\t%s\n", m.ID, m.Name)
	}
	return w.Flush()
}

// ShowCmd prints every field of one movie.
type ShowCmd struct {
	ID   int64 `arg:"" help:"Movie id"`
	JSON bool  `help:"Print the movie as JSON"`
}

func (c *ShowCmd) Run(settings *config.Settings) error {
	s := newSession(settings)
	rec, err := await(context.Background(), s, func(deliver func(movie.Record, error)) *coordinator.Operation {
		return s.coord.GetDetails(c.ID, deliver)
	})
	if err != nil {
		return fmt.Errorf("failed to load movie %d: %w", c.ID, err)
	}

	if c.JSON {
		return printJSON(rec)
	}

	w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Id:\t%d\n", rec.ID)
	for _, column := range movie.FieldColumns {
		value, _ := rec.Get(column)
		fmt.Fprintf(w, "%s:\t%s\n", strings.ToUpper(column[:1])+column[1:], value)
	}
	return w.Flush()
}

// AddCmd stores a new movie.
type AddCmd struct {
	Name   string     `arg:"" help:"Movie name"`
	Fields FieldFlags `embed:""`
}

func (a *AddCmd) Run(settings *config.Settings) error {
	fields := a.Fields.apply(movie.Fields{Name: a.Name}).Normalized()

	s := newSession(settings)
	id, err := await(context.Background(), s, func(deliver func(int64, error)) *coordinator.Operation {
		return s.coord.Add(fields, deliver)
	})
	if err != nil {
		return fmt.Errorf("failed to add movie: %w", err)
	}

	fmt.Fprintf(stdout, "Added %q as movie %d\n", fields.Name, id)
	return nil
}

// EditCmd overwrites selected fields of an existing movie.
type EditCmd struct {
	ID     int64      `arg:"" help:"Movie id"`
	Name   string     `help:"New name"`
	Fields FieldFlags `embed:""`
	Clear  []string   `help:"Fields to empty (director, producer, actor, actress, release, budget)"`
}

func (e *EditCmd) Run(settings *config.Settings) error {
	ctx := context.Background()
	s := newSession(settings)

	rec, err := await(ctx, s, func(deliver func(movie.Record, error)) *coordinator.Operation {
		return s.coord.GetDetails(e.ID, deliver)
	})
	if err != nil {
		return fmt.Errorf("failed to load movie %d: %w", e.ID, err)
	}

	fields, err := e.merge(rec.Fields)
	if err != nil {
		return err
	}

	found, err := await(ctx, s, func(deliver func(bool, error)) *coordinator.Operation {
		return s.coord.Edit(e.ID, fields, deliver)
	})
	if err != nil {
		return fmt.Errorf("failed to update movie %d: %w", e.ID, err)
	}
	if !found {
		fmt.Fprintf(stdout, "Movie %d no longer exists\n", e.ID)
		return nil
	}

	fmt.Fprintf(stdout, "Updated movie %d\n", e.ID)
	return nil
}

func (e *EditCmd) merge(current movie.Fields) (movie.Fields, error) {
	fields := e.Fields.apply(current)
	if e.Name != "" {
		fields.Name = e.Name
	}
	for _, column := range e.Clear {
		if column == movie.ColumnName || !fields.Set(column, "") {
			return movie.Fields{}, fmt.Errorf("cannot clear %q", column)
		}
	}
	return fields.Normalized(), nil
}

// RemoveCmd deletes a movie.
type RemoveCmd struct {
	ID int64 `arg:"" help:"Movie id"`
}

func (r *RemoveCmd) Run(settings *config.Settings) error {
	s := newSession(settings)
	found, err := await(context.Background(), s, func(deliver func(bool, error)) *coordinator.Operation {
		return s.coord.Remove(r.ID, deliver)
	})
	if err != nil {
		return fmt.Errorf("failed to remove movie %d: %w", r.ID, err)
	}

	if !found {
		fmt.Fprintf(stdout, "No movie with id %d\n", r.ID)
		return nil
	}
	fmt.Fprintf(stdout, "Removed movie %d\n", r.ID)
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
