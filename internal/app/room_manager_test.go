package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/nestrischamps-rooms/internal/domain"
)

func TestRoomManager(t *testing.T) {
	m := NewRoomManager(NewRegistry(), nil, 0)
	zed := domain.Owner{ID: "7", Login: "zed"}
	ann := domain.Owner{ID: "8", Login: "ann"}

	r1 := m.GetOrCreate(zed)
	assert.Same(t, r1, m.GetOrCreate(zed))
	m.GetOrCreate(ann)

	got, ok := m.Get("7")
	require.True(t, ok)
	assert.Same(t, r1, got)

	list := m.List()
	require.Len(t, list, 2)
	assert.Equal(t, "ann", list[0].Owner.Login)
	assert.Equal(t, "zed", list[1].Owner.Login)
	assert.Len(t, list[0].Players, domain.MinPlayers)

	assert.True(t, m.StopRoom("7", "bye"))
	assert.False(t, m.StopRoom("7", "bye"))
	_, ok = m.Get("7")
	assert.False(t, ok)
	assert.NotSame(t, r1, m.GetOrCreate(zed))

	m.StopAll("shutdown")
	assert.Empty(t, m.List())
}

func TestSimplePolicy(t *testing.T) {
	p := SimplePolicy{}
	assert.Equal(t, DropFrame, p.OnBackPressure(true))
	assert.Equal(t, KickMember, p.OnBackPressure(false))
}
