package movie

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/marquee/internal/errors"
)

func TestFieldsValidate(t *testing.T) {
	tests := []struct {
		name    string
		fields  Fields
		wantErr bool
	}{
		{name: "name only", fields: Fields{Name: "Inception"}},
		{name: "all fields", fields: Fields{Name: "Heat", Director: "Michael Mann", Budget: "$60M"}},
		{name: "empty name", fields: Fields{Director: "Nolan"}, wantErr: true},
		{name: "whitespace name", fields: Fields{Name: "   "}, wantErr: true},
		{name: "tabs and newlines", fields: Fields{Name: "\t\n"}, wantErr: true},
		{name: "padded name is valid", fields: Fields{Name: "  Alien  "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fields.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.IsValidationError(err))
		})
	}
}

func TestFieldsNormalized(t *testing.T) {
	f := Fields{Name: "  Alien ", Director: " Ridley Scott", Budget: "\t$11M\n"}

	got := f.Normalized()

	assert.Equal(t, "Alien", got.Name)
	assert.Equal(t, "Ridley Scott", got.Director)
	assert.Equal(t, "$11M", got.Budget)
	assert.Equal(t, "  Alien ", f.Name, "original must not change")
}

func TestFieldsValuesMatchColumns(t *testing.T) {
	f := Fields{
		Name:     "n",
		Director: "d",
		Producer: "p",
		Actor:    "a",
		Actress:  "s",
		Release:  "r",
		Budget:   "b",
	}

	values := f.Values()
	require.Len(t, values, len(FieldColumns))

	for i, column := range FieldColumns {
		want, ok := f.Get(column)
		require.True(t, ok, column)
		assert.Equal(t, want, values[i], column)
	}
}

func TestFieldsGetSet(t *testing.T) {
	var f Fields

	for _, column := range FieldColumns {
		assert.True(t, f.Set(column, column+"-value"), column)
	}
	for _, column := range FieldColumns {
		got, ok := f.Get(column)
		assert.True(t, ok)
		assert.Equal(t, column+"-value", got)
	}

	assert.False(t, f.Set(ColumnID, "7"))
	_, ok := f.Get("rating")
	assert.False(t, ok)
}

func TestRecordSummary(t *testing.T) {
	r := Record{ID: 3, Fields: Fields{Name: "Heat", Director: "Michael Mann"}}
	assert.Equal(t, Summary{ID: 3, Name: "Heat"}, r.Summary())
}
