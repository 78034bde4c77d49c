package domain_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-homework-bot/internal/domain"
)

func TestDate(t *testing.T) {
	t.Run("Should marshal to YYYY-MM-DD", func(t *testing.T) {
		d := domain.NewDate(2024, time.February, 1)
		raw, err := json.Marshal(d)
		require.NoError(t, err)
		assert.Equal(t, `"2024-02-01"`, string(raw))
	})

	t.Run("Should unmarshal plain dates and full timestamps", func(t *testing.T) {
		var d domain.Date
		require.NoError(t, json.Unmarshal([]byte(`"2024-01-01"`), &d))
		assert.Equal(t, "2024-01-01", d.String())

		require.NoError(t, json.Unmarshal([]byte(`"2024-01-01T09:30:00Z"`), &d))
		assert.Equal(t, "2024-01-01", d.String())
	})

	t.Run("Should leave the date zero on null", func(t *testing.T) {
		var d domain.Date
		require.NoError(t, json.Unmarshal([]byte(`null`), &d))
		assert.True(t, d.IsZero())
	})

	t.Run("Should add days across month boundaries", func(t *testing.T) {
		d := domain.NewDate(2024, time.January, 28).AddDays(8)
		assert.Equal(t, "2024-02-05", d.String())
	})
}

func TestFieldAccessors(t *testing.T) {
	t.Run("Should decode single-line values", func(t *testing.T) {
		field := &domain.CandidateField{
			Name:   "GitLab Account",
			Kind:   domain.FieldKindSingleLine,
			Values: json.RawMessage(`[{"text":"max.mustermann"}]`),
		}
		values, ok := field.SingleLineValues()
		require.True(t, ok)
		assert.Equal(t, []string{"max.mustermann"}, values)
	})

	t.Run("Should refuse kind mismatches", func(t *testing.T) {
		field := &domain.CandidateField{
			Name:   "Hausaufgabe",
			Kind:   domain.FieldKindDropdown,
			Values: json.RawMessage(`[{"value":"TodoApi"}]`),
		}
		_, ok := field.SingleLineValues()
		assert.False(t, ok)

		values, ok := field.DropdownValues()
		require.True(t, ok)
		assert.Equal(t, []string{"TodoApi"}, values)
	})

	t.Run("Should decode boolean flags", func(t *testing.T) {
		field := &domain.CandidateField{
			Name:   "Bot-Mails",
			Kind:   domain.FieldKindBoolean,
			Values: json.RawMessage(`[{"flag":false}]`),
		}
		flags, ok := field.BooleanValues()
		require.True(t, ok)
		assert.Equal(t, []bool{false}, flags)
	})

	t.Run("Should handle a nil field safely", func(t *testing.T) {
		var field *domain.CandidateField
		_, ok := field.SingleLineValues()
		assert.False(t, ok)
		_, ok = field.FirstSingleLineValue()
		assert.False(t, ok)
	})
}
