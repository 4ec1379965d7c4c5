package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/nestrischamps-rooms/internal/domain"
	"github.com/dkeye/nestrischamps-rooms/internal/protocol"
)

type roomFixture struct {
	t     *testing.T
	room  *Room
	dir   *fakeDirectory
	admin *fakeConn
}

func newFixture(t *testing.T, users UserDirectory) *roomFixture {
	t.Helper()
	dir := newDirectory()
	r := NewRoom(hostUser.AsOwner(), dir, users, time.Second)
	admin := newConn("admin", hostUser)
	require.NoError(t, r.SetAdmin(admin))
	return &roomFixture{t: t, room: r, dir: dir, admin: admin}
}

func (f *roomFixture) producer(u *domain.User) *fakeConn {
	c := newConn("prod-"+string(u.ID), u)
	f.dir.bind(c)
	f.room.AddProducer(u.ID)
	return c
}

func (f *roomFixture) view(id string, secret bool, meta map[string]string) *fakeConn {
	c := newConn(id, nil)
	c.meta = meta
	f.room.AddView(c, secret)
	return c
}

func (f *roomFixture) cmd(name string, args ...any) error {
	return f.room.HandleAdminMessage(context.Background(), protocol.New(name, args...))
}

func (f *roomFixture) players() []domain.PlayerSlot {
	return f.room.Snapshot().Players
}

func TestSetAdmin(t *testing.T) {
	t.Run("owner receives owner then state", func(t *testing.T) {
		f := newFixture(t, nil)
		msgs := f.admin.messages()
		require.Len(t, msgs, 2)
		assert.Equal(t, `["setOwner",{"id":"1","login":"host"}]`, msgs[0])
		assert.Contains(t, msgs[1], `["state",{"producers":[]`)
		assert.True(t, f.room.Info().HasAdmin)
	})

	t.Run("non owner is kicked", func(t *testing.T) {
		f := newFixture(t, nil)
		intruder := newConn("intruder", aliceUser)

		err := f.room.SetAdmin(intruder)

		require.ErrorIs(t, err, domain.ErrForbidden)
		assert.Equal(t, []string{domain.KickForbidden}, intruder.kicked())
		assert.Empty(t, intruder.messages())
		assert.Empty(t, f.admin.kicked())
	})

	t.Run("anonymous is kicked", func(t *testing.T) {
		f := newFixture(t, nil)
		anon := newConn("anon", nil)

		require.ErrorIs(t, f.room.SetAdmin(anon), domain.ErrForbidden)
		assert.Equal(t, []string{domain.KickForbidden}, anon.kicked())
	})

	t.Run("second admin evicts the first", func(t *testing.T) {
		f := newFixture(t, nil)
		next := newConn("admin2", hostUser)

		require.NoError(t, f.room.SetAdmin(next))
		assert.Equal(t, []string{domain.KickConcurrencyLimit}, f.admin.kicked())

		// the evicted admin closing late must not detach the new one
		f.admin.close()
		assert.True(t, f.room.Info().HasAdmin)

		next.close()
		assert.False(t, f.room.Info().HasAdmin)
	})

	t.Run("admin frames are dispatched", func(t *testing.T) {
		f := newFixture(t, nil)
		f.admin.admin(`["setBestOf",7]`)
		assert.Equal(t, 7, f.room.Snapshot().BestOf)

		// binary frames from the admin are ignored
		f.admin.onMessage([]byte{1, 2, 3}, true)
		assert.Equal(t, 7, f.room.Snapshot().BestOf)
	})
}

func TestRoomClose(t *testing.T) {
	f := newFixture(t, nil)
	f.producer(aliceUser)
	require.NoError(t, f.cmd(protocol.CmdSetPlayer, 0, "2"))
	v1 := f.view("v1", true, nil)
	v2 := f.view("v2", false, nil)

	f.room.Close("room_closed")

	assert.Equal(t, []string{"room_closed"}, f.admin.kicked())
	assert.Equal(t, []string{"room_closed"}, v1.kicked())
	assert.Equal(t, []string{"room_closed"}, v2.kicked())
	assert.False(t, f.players()[0].Occupied())

	info := f.room.Info()
	assert.False(t, info.HasAdmin)
	assert.Zero(t, info.Views)
	assert.Zero(t, info.Producers)

	t.Run("is idempotent", func(t *testing.T) {
		f.room.Close("again")
		assert.Equal(t, []string{"room_closed"}, f.admin.kicked())
	})

	t.Run("rejects late attachments", func(t *testing.T) {
		late := newConn("late", nil)
		f.room.AddView(late, true)
		assert.Equal(t, []string{domain.ErrRoomClosed.Error()}, late.kicked())

		admin := newConn("admin3", hostUser)
		require.ErrorIs(t, f.room.SetAdmin(admin), domain.ErrRoomClosed)

		require.ErrorIs(t, f.cmd(protocol.CmdGetState), domain.ErrRoomClosed)
		require.ErrorIs(t, f.room.SetPlayer(0, "2"), domain.ErrRoomClosed)
	})
}

func TestRoomCloseSkipsAutoJoin(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.cmd(protocol.CmdAllowAutoJoin, true))
	f.producer(aliceUser)
	f.producer(bobUser)
	carol := f.producer(carolUser)
	require.Equal(t, domain.UserID("2"), f.players()[0].ID)
	require.Equal(t, domain.UserID("3"), f.players()[1].ID)
	carol.reset()

	f.room.Close("room_closed")

	for _, m := range carol.messages() {
		assert.NotContains(t, m, `["makePlayer"`)
	}
	for _, p := range f.players() {
		assert.False(t, p.Occupied())
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	f := newFixture(t, nil)
	f.producer(aliceUser)
	require.NoError(t, f.cmd(protocol.CmdSetPlayer, 0, "2"))

	snap := f.room.Snapshot()
	snap.Players[0].DisplayName = "mutated"
	snap.Players = append(snap.Players, domain.NewPlayerSlot())

	again := f.room.Snapshot()
	assert.Equal(t, "Alice", again.Players[0].DisplayName)
	assert.Len(t, again.Players, 2)
	require.Len(t, again.Producers, 1)
	assert.Equal(t, domain.UserID("2"), again.Producers[0].ID)
}

func TestMatchModeFromMeta(t *testing.T) {
	tests := []struct {
		name string
		meta map[string]string
		want domain.MatchMode
	}{
		{"absent", map[string]string{}, domain.MatchModeUnset},
		{"true", map[string]string{MetaConcurrent2Matches: "true"}, domain.MatchModeConcurrent},
		{"false", map[string]string{MetaConcurrent2Matches: "false"}, domain.MatchModeSingle},
		{"other value", map[string]string{MetaConcurrent2Matches: "1"}, domain.MatchModeSingle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matchModeFromMeta(tt.meta))
		})
	}
}
