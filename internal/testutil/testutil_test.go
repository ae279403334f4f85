package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/marquee/internal/config"
	"github.com/lepinkainen/marquee/internal/movie"
)

func TestTestEnv_Path(t *testing.T) {
	env := NewTestEnv(t)

	assert.Equal(t, filepath.Join(env.RootDir(), "a", "b.txt"), env.Path("a", "b.txt"))
	assert.Equal(t, env.RootDir(), env.Path())
	assert.Equal(t, filepath.Join(env.RootDir(), "b"), env.Path("a", "..", "b"))
}

func TestTestEnv_WriteReadFile(t *testing.T) {
	env := NewTestEnv(t)

	env.WriteFileString("nested/dir/file.txt", "hello")
	assert.True(t, env.FileExists("nested/dir/file.txt"))
	assert.False(t, env.FileExists("nested/missing.txt"))
	assert.Equal(t, "hello", env.ReadFileString("nested/dir/file.txt"))
	assert.Equal(t, []byte("hello"), env.ReadFile("nested/dir/file.txt"))
}

func TestTestEnv_ListFiles(t *testing.T) {
	env := NewTestEnv(t)

	env.WriteFileString("out/b.md", "b")
	env.WriteFileString("out/a.md", "a")
	env.MkdirAll("out/sub")

	assert.Equal(t, []string{"a.md", "b.md", "sub"}, env.ListFiles("out"))
}

func TestTestEnv_String(t *testing.T) {
	env := NewTestEnv(t)
	assert.Contains(t, env.String(), env.RootDir())
}

func TestGoldenHelper_AssertGolden(t *testing.T) {
	t.Setenv("UPDATE_GOLDEN", "")
	env := NewTestEnv(t)
	env.WriteFileString("golden/out.txt", "expected\n")

	gh := NewGoldenHelper(t, env.Path("golden"))
	assert.Equal(t, env.Path("golden", "out.txt"), gh.GoldenPath("out.txt"))
	gh.AssertGoldenString("out.txt", "expected\n")
}

func TestGoldenHelper_UpdateMode(t *testing.T) {
	t.Setenv("UPDATE_GOLDEN", "true")
	env := NewTestEnv(t)

	gh := NewGoldenHelper(t, env.Path("golden"))
	gh.AssertGoldenString("new.txt", "fresh")

	assert.Equal(t, "fresh", env.ReadFileString("golden/new.txt"))
}

func TestResetConfig(t *testing.T) {
	viper.Set(config.KeyDatabasePath, "/somewhere/else.db")

	ResetConfig(t)

	assert.Equal(t, "./marquee.db", viper.GetString(config.KeyDatabasePath))
	assert.Equal(t, 4, viper.GetInt(config.KeyWorkers))
}

func TestSetViperValue(t *testing.T) {
	ResetConfig(t)
	viper.Set(config.KeyWorkers, 4)

	t.Run("override", func(t *testing.T) {
		SetViperValue(t, config.KeyWorkers, 9)
		assert.Equal(t, 9, viper.GetInt(config.KeyWorkers))
	})

	assert.Equal(t, 4, viper.GetInt(config.KeyWorkers))
}

func TestOpenTestStore(t *testing.T) {
	store := OpenTestStore(t)

	ids := SeedMovies(t, store,
		movie.Fields{Name: "Alien"},
		movie.Fields{Name: "Heat"},
	)
	require.Len(t, ids, 2)
	assert.Less(t, ids[0], ids[1])

	rec, err := store.Get(context.Background(), ids[1])
	require.NoError(t, err)
	assert.Equal(t, "Heat", rec.Name)
}
