package notify

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleReplacesSameKey(t *testing.T) {
	r := NewRegistry()
	key := Key{Kind: "console", ID: "c1"}

	r.Schedule(Reminder{Key: key, Name: "PS5", DueDate: "01/12/2024", DaysRemaining: 10})
	r.Schedule(Reminder{Key: key, Name: "PS5", DueDate: "01/06/2025", DaysRemaining: 190})

	rems := r.Reminders()
	require.Len(t, rems, 1)
	assert.Equal(t, "01/06/2025", rems[0].DueDate)
}

func TestDistinctKindsAreDistinctKeys(t *testing.T) {
	r := NewRegistry()
	r.Schedule(Reminder{Key: Key{Kind: "console", ID: "x"}})
	r.Schedule(Reminder{Key: Key{Kind: "accessory", ID: "x"}})
	assert.Len(t, r.Reminders(), 2)
}

func TestCancel(t *testing.T) {
	r := NewRegistry()
	key := Key{Kind: "accessory", ID: "a1"}
	r.Schedule(Reminder{Key: key})
	r.Cancel(key)
	assert.Empty(t, r.Reminders())
}

func TestPruneKeepsOnlyListedKeys(t *testing.T) {
	r := NewRegistry()
	k1 := Key{Kind: "console", ID: "c1"}
	k2 := Key{Kind: "console", ID: "c2"}
	r.Schedule(Reminder{Key: k1})
	r.Schedule(Reminder{Key: k2})

	r.Prune(map[Key]bool{k1: true})

	rems := r.Reminders()
	require.Len(t, rems, 1)
	assert.Equal(t, k1, rems[0].Key)
}

func TestDueFiltersByDaysRemaining(t *testing.T) {
	r := NewRegistry()
	r.Schedule(Reminder{Key: Key{Kind: "console", ID: "late"}, DaysRemaining: -3})
	r.Schedule(Reminder{Key: Key{Kind: "console", ID: "today"}, DaysRemaining: 0})
	r.Schedule(Reminder{Key: Key{Kind: "console", ID: "soon"}, DaysRemaining: 5})

	due := r.Due()
	assert.Len(t, due, 2)
	for _, rem := range due {
		assert.LessOrEqual(t, rem.DaysRemaining, 0)
	}
}

func TestRegisterIgnoresEmptyClient(t *testing.T) {
	r := NewRegistry()
	addr := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 9999}

	r.Register("", addr)
	r.Register("c", nil)
	assert.Empty(t, r.Snapshot())

	r.Register("c", addr)
	assert.Len(t, r.Snapshot(), 1)
}
