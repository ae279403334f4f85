// Package movie defines the movie record stored by marquee and its validation rules.
package movie

import (
	"strings"

	"github.com/lepinkainen/marquee/internal/errors"
)

// Column names of the movies table, in storage order.
const (
	ColumnID       = "id"
	ColumnName     = "name"
	ColumnDirector = "director"
	ColumnProducer = "producer"
	ColumnActor    = "actor"
	ColumnActress  = "actress"
	ColumnRelease  = "release"
	ColumnBudget   = "budget"
)

// Columns lists every column of the movies table, id first.
var Columns = []string{
	ColumnID,
	ColumnName,
	ColumnDirector,
	ColumnProducer,
	ColumnActor,
	ColumnActress,
	ColumnRelease,
	ColumnBudget,
}

// FieldColumns lists the writable columns (everything but id).
var FieldColumns = Columns[1:]

// Fields holds the descriptive, user-editable part of a movie.
// Only Name is required; the rest are free-form and may be empty.
type Fields struct {
	Name     string `json:"name" yaml:"name"`
	Director string `json:"director" yaml:"director"`
	Producer string `json:"producer" yaml:"producer"`
	Actor    string `json:"actor" yaml:"actor"`
	Actress  string `json:"actress" yaml:"actress"`
	Release  string `json:"release" yaml:"release"`
	Budget   string `json:"budget" yaml:"budget"`
}

// Record is a persisted movie. ID is assigned by the store on insert and never changes.
type Record struct {
	ID int64 `json:"id" yaml:"id"`
	Fields
}

// Summary is the (id, name) pair shown in list views.
type Summary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Summary returns the list-view projection of the record.
func (r Record) Summary() Summary {
	return Summary{ID: r.ID, Name: r.Name}
}

// Validate checks the fields before they are handed to storage.
// A name that is empty after trimming whitespace is rejected.
func (f Fields) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return errors.NewValidationError(ColumnName, "please enter the movie's name")
	}
	return nil
}

// Normalized returns a copy with surrounding whitespace trimmed from every field.
func (f Fields) Normalized() Fields {
	return Fields{
		Name:     strings.TrimSpace(f.Name),
		Director: strings.TrimSpace(f.Director),
		Producer: strings.TrimSpace(f.Producer),
		Actor:    strings.TrimSpace(f.Actor),
		Actress:  strings.TrimSpace(f.Actress),
		Release:  strings.TrimSpace(f.Release),
		Budget:   strings.TrimSpace(f.Budget),
	}
}

// Values returns the field values in FieldColumns order, ready for use as SQL arguments.
func (f Fields) Values() []any {
	return []any{f.Name, f.Director, f.Producer, f.Actor, f.Actress, f.Release, f.Budget}
}

// Get returns the value stored under column, or false for an unknown column.
// The id column is not part of Fields and is reported as unknown.
func (f Fields) Get(column string) (string, bool) {
	switch column {
	case ColumnName:
		return f.Name, true
	case ColumnDirector:
		return f.Director, true
	case ColumnProducer:
		return f.Producer, true
	case ColumnActor:
		return f.Actor, true
	case ColumnActress:
		return f.Actress, true
	case ColumnRelease:
		return f.Release, true
	case ColumnBudget:
		return f.Budget, true
	default:
		return "", false
	}
}

// Set assigns value to column. It reports false for an unknown or read-only column.
func (f *Fields) Set(column, value string) bool {
	switch column {
	case ColumnName:
		f.Name = value
	case ColumnDirector:
		f.Director = value
	case ColumnProducer:
		f.Producer = value
	case ColumnActor:
		f.Actor = value
	case ColumnActress:
		f.Actress = value
	case ColumnRelease:
		f.Release = value
	case ColumnBudget:
		f.Budget = value
	default:
		return false
	}
	return true
}
