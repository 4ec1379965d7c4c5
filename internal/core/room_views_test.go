package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/nestrischamps-rooms/internal/domain"
	"github.com/dkeye/nestrischamps-rooms/internal/protocol"
)

func TestAddView(t *testing.T) {
	t.Run("replays room state", func(t *testing.T) {
		f := newFixture(t, nil)
		f.producer(aliceUser)
		require.NoError(t, f.cmd(protocol.CmdSetPlayer, 0, "2"))
		require.NoError(t, f.cmd(protocol.CmdSetBestOf, 3))

		v := f.view("view", false, nil)

		msgs := v.messages()
		assert.Equal(t, `["setBestOf",3]`, msgs[0])
		assert.Equal(t, `["setCurtainLogo",null]`, msgs[1])
		assert.Contains(t, msgs, `["setId",0,"2"]`)
		assert.Contains(t, msgs, `["setPeerId",0,"peer-prod-2"]`)
		assert.Contains(t, msgs, `["setId",1,""]`)
		assert.NotContains(t, msgs, `["setMatch",null]`)
		assert.Equal(t, 1, f.room.Info().Views)
	})

	t.Run("secret view becomes primary", func(t *testing.T) {
		f := newFixture(t, nil)
		alice := f.producer(aliceUser)
		require.NoError(t, f.cmd(protocol.CmdSetPlayer, 0, "2"))
		alice.reset()
		f.admin.reset()

		v := f.view("view", true, map[string]string{MetaConcurrent2Matches: "true"})

		assert.Equal(t, domain.MatchModeConcurrent, f.room.Snapshot().MatchMode)
		assert.True(t, lastIsState(f.admin.messages()))
		assert.Equal(t, `["setMatch",null]`, v.messages()[0])
		assert.Equal(t, []string{
			`["setViewPeerId","view"]`,
			`["makePlayer",0,{"_concurrent_2_matches":"true"}]`,
		}, alice.messages())
	})

	t.Run("new primary demotes the previous one", func(t *testing.T) {
		f := newFixture(t, nil)
		first := f.view("first", true, nil)
		first.reset()

		f.view("second", true, nil)

		assert.Equal(t, []string{`["setSecondaryView"]`}, first.messages())
	})

	t.Run("match mode change clears the selected match", func(t *testing.T) {
		f := newFixture(t, nil)
		f.view("v1", true, map[string]string{MetaConcurrent2Matches: "true"})
		require.NoError(t, f.cmd(protocol.CmdSetMatch, 1))

		f.view("v2", true, map[string]string{MetaConcurrent2Matches: "false"})

		snap := f.room.Snapshot()
		assert.Equal(t, domain.MatchModeSingle, snap.MatchMode)
		assert.Nil(t, snap.SelectedMatch)
	})
}

func TestRemoveView(t *testing.T) {
	t.Run("primary loss unwires producers", func(t *testing.T) {
		f := newFixture(t, nil)
		alice := f.producer(aliceUser)
		v := f.view("view", true, nil)
		alice.reset()

		f.room.RemoveView(v)

		assert.Equal(t, []string{`["setViewPeerId",null]`}, alice.messages())
		assert.Zero(t, f.room.Info().Views)
	})

	t.Run("secondary loss is silent", func(t *testing.T) {
		f := newFixture(t, nil)
		alice := f.producer(aliceUser)
		f.view("primary", true, nil)
		other := f.view("other", false, nil)
		alice.reset()

		f.room.RemoveView(other)

		assert.Empty(t, alice.messages())
		assert.Equal(t, 1, f.room.Info().Views)
	})
}
