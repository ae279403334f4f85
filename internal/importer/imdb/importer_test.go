package imdb

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/marquee/internal/movie"
	"github.com/lepinkainen/marquee/internal/testutil"
)

const ratingsCSV = `Const,Your Rating,Date Rated,Title,Original Title,URL,Title Type,IMDb Rating,Runtime (mins),Year,Genres,Num Votes,Release Date,Directors
tt1375666,9,2023-01-01,Inception,Inception,https://www.imdb.com/title/tt1375666/,Movie,8.8,148,2010,"Action, Sci-Fi",2400000,2010-07-08,Christopher Nolan
tt0000000,5,2023-01-02,,,https://www.imdb.com/title/tt0000000/,Movie,5.0,90,2001,Drama,10,,
tt0133093,10,2023-01-03,The Matrix,The Matrix,https://www.imdb.com/title/tt0133093/,Movie,8.7,136,1999,"Action, Sci-Fi",2000000,,"Lana Wachowski, Lilly Wachowski"
`

func TestParse(t *testing.T) {
	movies, skipped, err := Parse(strings.NewReader(ratingsCSV), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, skipped, "row without a title")
	assert.Equal(t, []movie.Fields{
		{Name: "Inception", Director: "Christopher Nolan", Release: "2010-07-08"},
		{Name: "The Matrix", Director: "Lana Wachowski, Lilly Wachowski", Release: "1999"},
	}, movies)
}

func TestParse_ListExportUsesOriginalTitle(t *testing.T) {
	input := "Position,Const,Original Title,Year\n1,tt0113277, Heat ,1995\n"

	movies, skipped, err := Parse(strings.NewReader(input), nil)
	require.NoError(t, err)
	assert.Zero(t, skipped)
	assert.Equal(t, []movie.Fields{{Name: "Heat", Release: "1995"}}, movies)
}

func TestImport(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.WriteFileString("ratings.csv", ratingsCSV)
	store := testutil.OpenTestStore(t)

	res, err := Import(context.Background(), store, env.Path("ratings.csv"), nil)
	require.NoError(t, err)
	assert.Equal(t, Result{Imported: 2, Skipped: 1}, res)

	cursor, err := store.GetAll(context.Background())
	require.NoError(t, err)
	defer func() { _ = cursor.Close() }()

	var names []string
	for {
		ok, err := cursor.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		name, err := cursor.String(movie.ColumnName)
		require.NoError(t, err)
		names = append(names, name)
	}
	assert.Equal(t, []string{"Inception", "The Matrix"}, names)
}

func TestImport_NothingToInsert(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.WriteFileString("ratings.csv", "Title,Year\n,2001\n")

	res, err := Import(context.Background(), failingInserter{t}, env.Path("ratings.csv"), nil)
	require.NoError(t, err)
	assert.Equal(t, Result{Skipped: 1}, res)
}

func TestImport_MissingFile(t *testing.T) {
	env := testutil.NewTestEnv(t)

	_, err := Import(context.Background(), failingInserter{t}, env.Path("nope.csv"), nil)
	require.Error(t, err)
}

type failingInserter struct{ t *testing.T }

func (f failingInserter) BatchInsert(context.Context, []movie.Fields) (int, error) {
	f.t.Fatal("BatchInsert must not be called")
	return 0, nil
}
