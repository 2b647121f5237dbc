package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDate(t *testing.T) {
	d := Date(2025, time.February, 17)
	require.Equal(t, 2025, d.Year())
	require.Equal(t, time.February, d.Month())
	require.Equal(t, 17, d.Day())
	require.Equal(t, time.Monday, d.Weekday())
	require.Equal(t, Location, d.Location())
}
