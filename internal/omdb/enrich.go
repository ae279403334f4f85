package omdb

import (
	"context"
	"regexp"
	"strings"

	"github.com/lepinkainen/marquee/internal/movie"
)

var yearPattern = regexp.MustCompile(`\b(18|19|20)\d{2}\b`)

// Year extracts a four digit year from a free-form release value.
func Year(release string) string {
	return yearPattern.FindString(release)
}

// Apply fills the empty descriptive fields of f from resp and returns the
// result along with the columns it changed. Name and actress are never
// touched, and OMDb's "N/A" placeholders are ignored.
func Apply(f movie.Fields, resp *Response) (movie.Fields, []string) {
	if resp == nil {
		return f, nil
	}

	var changed []string
	fill := func(column, value string) {
		value = strings.TrimSpace(value)
		if value == "" || value == notAvailable {
			return
		}
		if current, _ := f.Get(column); strings.TrimSpace(current) != "" {
			return
		}
		f.Set(column, value)
		changed = append(changed, column)
	}

	fill(movie.ColumnDirector, resp.Director)
	fill(movie.ColumnProducer, resp.Production)
	fill(movie.ColumnActor, firstListed(resp.Actors))
	release := resp.Released
	if release == "" || release == notAvailable {
		release = resp.Year
	}
	fill(movie.ColumnRelease, release)
	fill(movie.ColumnBudget, resp.BoxOffice)

	return f, changed
}

// Enrich looks rec up by name and release year and returns the filled fields.
// changed is empty when OMDb had no match or nothing new to offer.
func (c *Client) Enrich(ctx context.Context, rec movie.Record) (movie.Fields, []string, error) {
	resp, err := c.FetchByTitle(ctx, strings.TrimSpace(rec.Name), Year(rec.Release))
	if err != nil {
		return rec.Fields, nil, err
	}
	fields, changed := Apply(rec.Fields, resp)
	return fields, changed, nil
}

func firstListed(list string) string {
	first, _, _ := strings.Cut(list, ",")
	return strings.TrimSpace(first)
}
