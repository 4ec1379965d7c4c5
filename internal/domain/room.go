package domain

import "encoding/json"

const DefaultBestOf = 5

// MatchMode tells whether the primary view renders two concurrent matches.
// Unset means the view did not say.
type MatchMode int

const (
	MatchModeUnset MatchMode = iota
	MatchModeConcurrent
	MatchModeSingle
)

func (m MatchMode) MarshalJSON() ([]byte, error) {
	switch m {
	case MatchModeConcurrent:
		return []byte("true"), nil
	case MatchModeSingle:
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

func (m *MatchMode) UnmarshalJSON(b []byte) error {
	var v *bool
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch {
	case v == nil:
		*m = MatchModeUnset
	case *v:
		*m = MatchModeConcurrent
	default:
		*m = MatchModeSingle
	}
	return nil
}

type RoomState struct {
	BestOf        int          `json:"bestof"`
	MatchMode     MatchMode    `json:"concurrent_2_matches"`
	SelectedMatch *int         `json:"selected_match"`
	CurtainLogo   *string      `json:"curtain_logo"`
	AutoJoin      bool         `json:"autojoin"`
	Players       []PlayerSlot `json:"players"`
}

func NewRoomState() RoomState {
	return RoomState{
		BestOf:  DefaultBestOf,
		Players: []PlayerSlot{NewPlayerSlot(), NewPlayerSlot()},
	}
}

// Snapshot is what the admin receives in a "state" message.
type Snapshot struct {
	Producers []ProducerFields `json:"producers"`
	RoomState
}

// Clone deep-copies the state so a snapshot never aliases live slots.
func (s RoomState) Clone() RoomState {
	out := s
	out.Players = make([]PlayerSlot, len(s.Players))
	for i, p := range s.Players {
		out.Players[i] = p.Clone()
	}
	if s.SelectedMatch != nil {
		v := *s.SelectedMatch
		out.SelectedMatch = &v
	}
	if s.CurtainLogo != nil {
		v := *s.CurtainLogo
		out.CurtainLogo = &v
	}
	return out
}
