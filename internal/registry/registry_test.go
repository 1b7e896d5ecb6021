package registry

import (
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syncwave/server/internal/domain"
)

type stubGenerator struct {
	codes []string
	i     int
}

func (g *stubGenerator) GenerateRandomString(length int) string {
	code := g.codes[g.i%len(g.codes)]
	g.i++
	return code
}

func TestCreateRoom(t *testing.T) {
	r := New(slog.Default(), 0)

	room, err := r.CreateRoom("host-1")
	require.NoError(t, err)
	assert.NotEmpty(t, room.Id)
	assert.Equal(t, "host-1", room.HostId)
	assert.Len(t, room.Code, CodeLength)

	for _, ch := range room.Code {
		assert.True(t, strings.ContainsRune(codeAlphabet, ch), "code contains %q outside the alphabet", ch)
	}

	assert.NotContains(t, codeAlphabet, "0")
	assert.NotContains(t, codeAlphabet, "O")
	assert.NotContains(t, codeAlphabet, "1")
	assert.NotContains(t, codeAlphabet, "I")
}

func TestLookupsConsistent(t *testing.T) {
	r := New(slog.Default(), 0)

	room, err := r.CreateRoom("host-1")
	require.NoError(t, err)

	byId, ok := r.ById(room.Id)
	require.True(t, ok)
	byCode, ok := r.ByCode(room.Code)
	require.True(t, ok)
	assert.Same(t, byId, byCode)

	_, ok = r.ById("no-such-room")
	assert.False(t, ok)
	_, ok = r.ByCode("ZZZZZZ")
	assert.False(t, ok)
}

func TestCreateRoomRetriesOnCodeCollision(t *testing.T) {
	r := New(slog.Default(), 0)
	r.generator = &stubGenerator{codes: []string{"AAAAAA", "AAAAAA", "BBBBBB"}}

	first, err := r.CreateRoom("host-1")
	require.NoError(t, err)
	assert.Equal(t, "AAAAAA", first.Code)

	second, err := r.CreateRoom("host-2")
	require.NoError(t, err)
	assert.Equal(t, "BBBBBB", second.Code)
}

func TestCreateRoomFailsWhenRetriesExhausted(t *testing.T) {
	r := New(slog.Default(), 3)
	r.generator = &stubGenerator{codes: []string{"AAAAAA"}}

	_, err := r.CreateRoom("host-1")
	require.NoError(t, err)

	_, err = r.CreateRoom("host-2")
	assert.ErrorIs(t, err, ErrCodeGenerationFailed)
}

func TestRemoveIsIdempotentAndFreesCode(t *testing.T) {
	r := New(slog.Default(), 0)
	r.generator = &stubGenerator{codes: []string{"AAAAAA", "AAAAAA"}}

	room, err := r.CreateRoom("host-1")
	require.NoError(t, err)

	r.Remove(room.Id)
	_, ok := r.ById(room.Id)
	assert.False(t, ok)
	_, ok = r.ByCode(room.Code)
	assert.False(t, ok)

	// second remove is a no-op
	r.Remove(room.Id)

	// the code is free for reuse
	reused, err := r.CreateRoom("host-2")
	require.NoError(t, err)
	assert.Equal(t, "AAAAAA", reused.Code)
}

func TestRemoveNotifiesSubscribers(t *testing.T) {
	r := New(slog.Default(), 0)

	var removed []string
	r.OnRoomRemoved(func(roomId string) {
		removed = append(removed, roomId)
	})

	room, err := r.CreateRoom("host-1")
	require.NoError(t, err)

	r.Remove(room.Id)
	r.Remove(room.Id)

	assert.Equal(t, []string{room.Id}, removed, "subscriber must fire once per actual removal")
}

func TestListByHost(t *testing.T) {
	r := New(slog.Default(), 0)

	first, err := r.CreateRoom("host-1")
	require.NoError(t, err)
	second, err := r.CreateRoom("host-1")
	require.NoError(t, err)
	_, err = r.CreateRoom("host-2")
	require.NoError(t, err)

	rooms := r.ListByHost("host-1")
	require.Len(t, rooms, 2)
	ids := []string{rooms[0].Id, rooms[1].Id}
	assert.ElementsMatch(t, []string{first.Id, second.Id}, ids)

	assert.Empty(t, r.ListByHost("nobody"))
}

func TestCleanupEmptyRooms(t *testing.T) {
	start := time.Now()
	r := New(slog.Default(), 0)
	r.now = func() time.Time { return start }

	empty, err := r.CreateRoom("host-1")
	require.NoError(t, err)

	occupied, err := r.CreateRoom("host-2")
	require.NoError(t, err)
	occupied.AddDevice(domain.NewDevice("d1", "speaker", start))

	stale, err := r.CreateRoom("host-3")
	require.NoError(t, err)
	stale.AddDevice(domain.NewDevice("d2", "speaker", start.Add(-domain.HeartbeatTimeout)))

	r.CleanupEmptyRooms()

	_, ok := r.ById(empty.Id)
	assert.False(t, ok, "room with no devices must be reclaimed")
	_, ok = r.ById(stale.Id)
	assert.False(t, ok, "room with only inactive devices must be reclaimed")
	_, ok = r.ById(occupied.Id)
	assert.True(t, ok, "room with an active device must be kept")
}
