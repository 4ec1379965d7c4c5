package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/nestrischamps-rooms/internal/domain"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "no args", in: `["getState"]`, want: `["getState"]`},
		{name: "mixed args", in: `["setPlayer", 1, "42"]`, want: `["setPlayer",1,"42"]`},
		{name: "nested", in: `["x",{"a":[1,2]},null]`, want: `["x",{"a":[1,2]},null]`},
		{name: "not an array", in: `{"name":"x"}`, wantErr: true},
		{name: "empty array", in: `[]`, wantErr: true},
		{name: "name not string", in: `[1,2]`, wantErr: true},
		{name: "garbage", in: `[`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Decode([]byte(tt.in))
			if tt.wantErr {
				require.ErrorIs(t, err, domain.ErrBadPayload)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.String())
		})
	}
}

func TestWithSlot(t *testing.T) {
	m, err := Decode([]byte(`["score",100,"x"]`))
	require.NoError(t, err)

	stamped := m.WithSlot(3)

	assert.Equal(t, `["score",3,100,"x"]`, stamped.String())
	assert.Equal(t, `["score",100,"x"]`, m.String(), "source message untouched")
}

func TestOutboundShapes(t *testing.T) {
	match := 1
	logo := "https://img/logo.png"
	tests := []struct {
		msg  Message
		want string
	}{
		{SetOwner(domain.Owner{ID: "1", Login: "host"}), `["setOwner",{"id":"1","login":"host"}]`},
		{SetMatchMsg(nil), `["setMatch",null]`},
		{SetMatchMsg(&match), `["setMatch",1]`},
		{SetCurtainLogoMsg(nil), `["setCurtainLogo",null]`},
		{SetCurtainLogoMsg(&logo), `["setCurtainLogo","https://img/logo.png"]`},
		{SetPeerID(2, "p"), `["setPeerId",2,"p"]`},
		{SetViewPeerID(""), `["setViewPeerId",null]`},
		{SetViewPeerID("v"), `["setViewPeerId","v"]`},
		{MakePlayer(0, nil), `["makePlayer",0,{}]`},
		{MakePlayer(1, map[string]string{"_players": "2"}), `["makePlayer",1,{"_players":"2"}]`},
		{DropPlayer(), `["dropPlayer"]`},
		{SetSecondaryView(), `["setSecondaryView"]`},
		{SetCameraState(0, domain.Camera{Mirror: 1}), `["setCameraState",0,{"mirror":1}]`},
		{RequestRemoteCalibrationMsg("a"), `["requestRemoteCalibration","a"]`},
		{Frame(1, json.RawMessage(`{"x":1}`)), `["frame",1,{"x":1}]`},
	}
	for _, tt := range tests {
		t.Run(tt.msg.Name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.msg.String())
		})
	}
}

func TestState(t *testing.T) {
	snap := domain.Snapshot{Producers: []domain.ProducerFields{}, RoomState: domain.NewRoomState()}

	b, err := json.Marshal(State(snap))
	require.NoError(t, err)

	var decoded []json.RawMessage
	require.NoError(t, json.Unmarshal(b, &decoded))
	require.Len(t, decoded, 2)
	assert.JSONEq(t, `"state"`, string(decoded[0]))

	var body map[string]any
	require.NoError(t, json.Unmarshal(decoded[1], &body))
	assert.Equal(t, float64(domain.DefaultBestOf), body["bestof"])
	assert.Nil(t, body["concurrent_2_matches"])
	assert.Nil(t, body["selected_match"])
	assert.Nil(t, body["curtain_logo"])
	assert.Equal(t, false, body["autojoin"])
	assert.Len(t, body["players"], 2)
	assert.Empty(t, body["producers"])
}

func TestPlayerInfoOrder(t *testing.T) {
	msgs := PlayerInfo(1, domain.PlayerSlot{ID: "2", Login: "alice", Victories: 3})
	names := make([]string, 0, len(msgs))
	for _, m := range msgs {
		names = append(names, m.Name)
		assert.Equal(t, 1, m.Args[0])
	}
	assert.Equal(t, []string{
		MsgSetID, MsgSetLogin, MsgSetDisplayName, MsgSetCountryCode,
		MsgSetProfileImageURL, MsgSetVictories, MsgSetVdoNinjaURL,
	}, names)
}
