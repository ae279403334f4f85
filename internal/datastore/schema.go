package datastore

import (
	"fmt"
	"strings"

	"github.com/lepinkainen/marquee/internal/movie"
)

// moviesTable is the name of the single table owned by the store.
const moviesTable = "movies"

// moviesSchema creates the movies table. AUTOINCREMENT keeps ids from being
// reissued after a delete. Column names are quoted because "release" is an SQL keyword.
const moviesSchema = `CREATE TABLE IF NOT EXISTS movies (
	"id" INTEGER PRIMARY KEY AUTOINCREMENT,
	"name" TEXT NOT NULL CHECK (trim("name") <> ''),
	"director" TEXT NOT NULL DEFAULT '',
	"producer" TEXT NOT NULL DEFAULT '',
	"actor" TEXT NOT NULL DEFAULT '',
	"actress" TEXT NOT NULL DEFAULT '',
	"release" TEXT NOT NULL DEFAULT '',
	"budget" TEXT NOT NULL DEFAULT ''
)`

var (
	selectAllSQL = fmt.Sprintf(`SELECT %s FROM %s ORDER BY "id" ASC`, columnList(movie.Columns), moviesTable)
	selectOneSQL = fmt.Sprintf(`SELECT %s FROM %s WHERE "id" = ?`, columnList(movie.Columns), moviesTable)
	insertSQL    = fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		moviesTable, columnList(movie.FieldColumns), placeholders(len(movie.FieldColumns)))
	updateSQL = fmt.Sprintf(`UPDATE %s SET %s WHERE "id" = ?`, moviesTable, assignments(movie.FieldColumns))
	deleteSQL = fmt.Sprintf(`DELETE FROM %s WHERE "id" = ?`, moviesTable)
)

func columnList(columns []string) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = `"` + c + `"`
	}
	return strings.Join(quoted, ", ")
}

func placeholders(n int) string {
	p := make([]string, n)
	for i := range p {
		p[i] = "?"
	}
	return strings.Join(p, ", ")
}

func assignments(columns []string) string {
	parts := make([]string, len(columns))
	for i, c := range columns {
		parts[i] = `"` + c + `" = ?`
	}
	return strings.Join(parts, ", ")
}
