package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormatRoundTrip(t *testing.T) {
	got, err := Parse("01/06/2024")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Day())
	assert.Equal(t, time.June, got.Month())
	assert.Equal(t, 2024, got.Year())
	assert.Equal(t, "01/06/2024", Format(got))
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse("2024-06-01")
	assert.Error(t, err)

	_, err = Parse("")
	assert.Error(t, err)
}

func TestAddMonths(t *testing.T) {
	got, err := AddMonths("01/06/2024", 6)
	require.NoError(t, err)
	assert.Equal(t, "01/12/2024", got)

	got, err = AddMonths("15/11/2024", 3)
	require.NoError(t, err)
	assert.Equal(t, "15/02/2025", got)
}

func TestToday(t *testing.T) {
	now := time.Date(2024, time.January, 5, 23, 30, 0, 0, time.Local)
	assert.Equal(t, "05/01/2024", Today(now))
}
