package coerce

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstOf(t *testing.T) {
	row := map[string]any{"b": "second", "a": "first", "c": nil}

	assert.Equal(t, "first", FirstOf(row, "a", "b"))
	assert.Equal(t, "second", FirstOf(row, "missing", "b"))
	assert.Nil(t, FirstOf(row, "c", "b"), "a present nil alias wins over later aliases")
	assert.Nil(t, FirstOf(row, "x", "y"))
}

func TestString(t *testing.T) {
	s, ok := String("  text  ")
	assert.True(t, ok)
	assert.Equal(t, "text", s)

	s, ok = String(float64(42))
	assert.True(t, ok)
	assert.Equal(t, "42", s)

	_, ok = String("   ")
	assert.False(t, ok)

	_, ok = String(nil)
	assert.False(t, ok)
}

func TestInt(t *testing.T) {
	assert.Equal(t, 7, Int(float64(7), 0))
	assert.Equal(t, 7, Int("7", 0))
	assert.Equal(t, 7, Int(" 7.9 ", 0))
	assert.Equal(t, 1, Int(true, 0))
	assert.Equal(t, 3, Int(nil, 3))
	assert.Equal(t, 3, Int("", 3))
	assert.Equal(t, 3, Int("many", 3))
}

func TestBool(t *testing.T) {
	for _, v := range []any{true, 1, float64(2), "1", "true", "T", " yes ", "Y"} {
		assert.True(t, Bool(v, false), "%v", v)
	}
	for _, v := range []any{false, 0, float64(0), "0", "false", "F", "no", "n"} {
		assert.False(t, Bool(v, true), "%v", v)
	}
	assert.True(t, Bool(nil, true))
	assert.True(t, Bool("maybe", true))
}

func TestTimestamp(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"zulu", "2025-03-01T12:30:00Z", time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC)},
		{"offset", "2025-03-01T12:30:00+02:00", time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)},
		{"naive iso", "2025-03-01T12:30:00", time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC)},
		{"sqlite style", "2025-03-01 12:30:00", time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC)},
		{"date only", "2025-03-01", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Timestamp(tt.input, true)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.True(t, tt.want.Equal(*got), "got %v", got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestTimestamp_Missing(t *testing.T) {
	_, err := Timestamp(nil, true)
	assert.ErrorIs(t, err, ErrMissingTimestamp)

	_, err = Timestamp("", true)
	assert.ErrorIs(t, err, ErrMissingTimestamp)

	got, err := Timestamp(nil, false)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestTimestamp_Unparseable(t *testing.T) {
	_, err := Timestamp("yesterday", true)
	assert.Error(t, err)
}

func TestVector(t *testing.T) {
	got, err := Vector(nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = Vector("[0.1, 0.2]")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2}, got)

	got, err = Vector([]any{float64(1), float64(2)})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, got)

	got, err = Vector("  ")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = Vector("not json")
	assert.Error(t, err)

	_, err = Vector(42)
	assert.Error(t, err)
}
