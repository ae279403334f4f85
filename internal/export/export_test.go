package export

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/lepinkainen/marquee/internal/movie"
	"github.com/lepinkainen/marquee/internal/testutil"
)

var alien = movie.Record{ID: 7, Fields: movie.Fields{
	Name:     "Alien",
	Director: "Ridley Scott",
	Actress:  "Sigourney Weaver",
	Release:  "May 1979",
}}

func TestBuildNote_Golden(t *testing.T) {
	content, err := BuildNote(alien)
	require.NoError(t, err)

	gh := testutil.NewGoldenHelper(t, filepath.Join("testdata", "golden"))
	gh.AssertGolden("Alien.md", content)
}

func TestBuildNote_FrontmatterRoundTrip(t *testing.T) {
	rec := movie.Record{ID: 12, Fields: movie.Fields{
		Name:    "Inception",
		Release: "2010",
		Budget:  "160000000",
	}}

	content, err := BuildNote(rec)
	require.NoError(t, err)

	parts := splitFrontmatter(t, string(content))
	var fm map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(parts), &fm))

	assert.Equal(t, "Inception", fm["name"])
	assert.Equal(t, "2010", fm["release"], "numeric-looking strings stay strings")
	assert.Equal(t, "160000000", fm["budget"])
	assert.Equal(t, 12, fm["marquee_id"])
	assert.Equal(t, []any{"movie"}, fm["tags"])
	assert.NotContains(t, fm, "director", "empty fields are omitted")
}

func TestMarkdown(t *testing.T) {
	env := testutil.NewTestEnv(t)
	records := []movie.Record{
		alien,
		{ID: 8, Fields: movie.Fields{Name: "Star Wars: A New Hope"}},
		{ID: 9, Fields: movie.Fields{Name: "alien"}},
	}

	res, err := Markdown(records, Options{Dir: env.Path("notes")})
	require.NoError(t, err)
	assert.Equal(t, Result{Written: 3}, res)
	assert.Equal(t, []string{"Alien.md", "Star Wars - A New Hope.md", "alien (9).md"}, env.ListFiles("notes"))

	res, err = Markdown(records, Options{Dir: env.Path("notes")})
	require.NoError(t, err)
	assert.Equal(t, Result{Skipped: 3}, res)

	res, err = Markdown(records[:1], Options{Dir: env.Path("notes"), Overwrite: true})
	require.NoError(t, err)
	assert.Equal(t, Result{Written: 1}, res)
}

func TestJSON(t *testing.T) {
	env := testutil.NewTestEnv(t)

	res, err := JSON([]movie.Record{alien}, Options{Dir: env.RootDir()})
	require.NoError(t, err)
	assert.Equal(t, Result{Written: 1}, res)

	var decoded []movie.Record
	require.NoError(t, json.Unmarshal(env.ReadFile(JSONFilename), &decoded))
	assert.Equal(t, []movie.Record{alien}, decoded)

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(env.ReadFile(JSONFilename), &raw))
	assert.Contains(t, raw[0], "id")
	assert.Contains(t, raw[0], "name")

	res, err = JSON(nil, Options{Dir: env.RootDir()})
	require.NoError(t, err)
	assert.Equal(t, Result{Skipped: 1}, res)
}

func TestJSON_EmptyCollection(t *testing.T) {
	env := testutil.NewTestEnv(t)

	_, err := JSON(nil, Options{Dir: env.RootDir()})
	require.NoError(t, err)
	assert.JSONEq(t, "[]", env.ReadFileString(JSONFilename))
}

func TestWrite(t *testing.T) {
	env := testutil.NewTestEnv(t)

	_, err := Write("MD", []movie.Record{alien}, Options{Dir: env.Path("md")})
	require.NoError(t, err)
	assert.True(t, env.FileExists("md/Alien.md"))

	_, err = Write("json", []movie.Record{alien}, Options{Dir: env.Path("js")})
	require.NoError(t, err)
	assert.True(t, env.FileExists("js/movies.json"))

	_, err = Write("csv", nil, Options{Dir: env.RootDir()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown export format")
}

func TestFrontmatter(t *testing.T) {
	fm := NewFrontmatter()
	fm.Set("zeta", "z")
	fm.Set("alpha", "a")
	fm.Set("empty", "")
	fm.Set("alpha", "again")

	assert.Equal(t, []string{"alpha", "zeta"}, fm.Keys())
	v, ok := fm.Get("alpha")
	assert.True(t, ok)
	assert.Equal(t, "again", v)
	_, ok = fm.Get("empty")
	assert.False(t, ok)
}

func TestNoteBuild_NoFrontmatter(t *testing.T) {
	note := &Note{Frontmatter: NewFrontmatter(), Body: "just text\n"}
	out, err := note.Build()
	require.NoError(t, err)
	assert.Equal(t, "just text\n", string(out))
}

func splitFrontmatter(t *testing.T, content string) string {
	t.Helper()

	require.True(t, len(content) > 4 && content[:4] == "---\n", "missing opening delimiter")
	rest := content[4:]
	for i := 0; i+4 <= len(rest); i++ {
		if rest[i:i+4] == "---\n" && (i == 0 || rest[i-1] == '\n') {
			return rest[:i]
		}
	}
	t.Fatalf("missing closing delimiter in %q", content)
	return ""
}
