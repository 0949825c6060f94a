package idx_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/gatehouse/pkg/idx"
)

func TestNewRoundTrip(t *testing.T) {
	id := idx.New()
	require.False(t, id.IsZero())

	parsed, err := idx.Parse(id.String())
	require.NoError(t, err)
	require.Equal(t, id, parsed)
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "   ", "not-a-ulid", "01HQ7T3Z1M"} {
		_, err := idx.Parse(s)
		require.ErrorIs(t, err, idx.ErrInvalid, "input %q", s)
	}
}

func TestTimeOrdering(t *testing.T) {
	early := idx.NewAt(time.Unix(1700000000, 0).UTC())
	late := idx.NewAt(time.Unix(1700000100, 0).UTC())

	require.Less(t, early.String(), late.String())
	require.WithinDuration(t, time.Unix(1700000000, 0).UTC(), early.Time(), time.Millisecond)
}

func TestConcurrentUniqueness(t *testing.T) {
	const n = 64

	ids := make(chan idx.ID, n)
	for i := 0; i < n; i++ {
		go func() { ids <- idx.New() }()
	}

	seen := make(map[idx.ID]bool, n)
	for i := 0; i < n; i++ {
		id := <-ids
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}
