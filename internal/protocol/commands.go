package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/dkeye/nestrischamps-rooms/internal/domain"
)

// Admin command names.
const (
	CmdGetState                     = "getState"
	CmdSetPlayer                    = "setPlayer"
	CmdSetPlayerOnBehalfOfUser      = "setPlayerOnBehalfOfUser"
	CmdRestartCamera                = "restartCamera"
	CmdRequestRemoteCalibration     = "requestRemoteCalibration"
	CmdMirrorCamera                 = "mirrorCamera"
	CmdSetDisplayName               = "setDisplayName"
	CmdSetProfileImageURL           = "setProfileImageURL"
	CmdSetCountryCode               = "setCountryCode"
	CmdSetVictories                 = "setVictories"
	CmdResetVictories               = "resetVictories"
	CmdSetBestOf                    = "setBestOf"
	CmdSetCurtainLogo               = "setCurtainLogo"
	CmdAddPlayer                    = "addPlayer"
	CmdRemovePlayer                 = "removePlayer"
	CmdSetMatch                     = "setMatch"
	CmdAllowAutoJoin                = "allowAutoJoin"
	CmdShowRunways                  = "showRunways"
	CmdHideRunways                  = "hideRunways"
	CmdShowProfileCard              = "showProfileCard"
	CmdSetWinner                    = "setWinner"
	CmdSetGameOver                  = "setGameOver"
	CmdCancelGameOver               = "cancelGameOver"
	CmdFocusPlayer                  = "focusPlayer"
	CmdSetHideProfileCardOnNextGame = "setHideProfileCardOnNextGame"
	CmdStartCountDown               = "startCountDown"
	CmdClearFieldOverlays           = "clearFieldOverlays"
)

// Effects says what happens around a command's own mutation.
type Effects struct {
	ForwardToViews bool
	UpdateAdmin    bool
}

var defaultEffects = Effects{ForwardToViews: true, UpdateAdmin: true}

var effects = map[string]Effects{
	CmdGetState:                 {ForwardToViews: false, UpdateAdmin: true},
	CmdSetPlayer:                {ForwardToViews: false, UpdateAdmin: true},
	CmdSetPlayerOnBehalfOfUser:  {ForwardToViews: false, UpdateAdmin: true},
	CmdRestartCamera:            {},
	CmdRequestRemoteCalibration: {},
	CmdMirrorCamera:             {},
	CmdAddPlayer:                {ForwardToViews: false, UpdateAdmin: true},
	CmdRemovePlayer:             {ForwardToViews: false, UpdateAdmin: true},
	CmdSetMatch:                 {ForwardToViews: true, UpdateAdmin: false},
	CmdAllowAutoJoin:            {ForwardToViews: false, UpdateAdmin: true},
}

var passthrough = map[string]bool{
	CmdShowRunways:                  true,
	CmdHideRunways:                  true,
	CmdShowProfileCard:              true,
	CmdSetWinner:                    true,
	CmdSetGameOver:                  true,
	CmdCancelGameOver:               true,
	CmdFocusPlayer:                  true,
	CmdSetHideProfileCardOnNextGame: true,
	CmdStartCountDown:               true,
	CmdClearFieldOverlays:           true,
}

// EffectsOf returns the forward/update behaviour for a known command name.
func EffectsOf(name string) Effects {
	if passthrough[name] {
		return Effects{ForwardToViews: true, UpdateAdmin: false}
	}
	if e, ok := effects[name]; ok {
		return e
	}
	return defaultEffects
}

// Command is one decoded admin command. Raw is the message as received,
// forwarded verbatim to views when the command's effects say so.
type Command interface {
	Raw() Message
}

type base struct{ raw Message }

func (b base) Raw() Message { return b.raw }

type GetState struct{ base }

type SetPlayer struct {
	base
	Slot     int
	PlayerID domain.UserID
}

type SetPlayerOnBehalfOfUser struct {
	base
	Slot   int
	UserID domain.UserID
}

type RestartCamera struct {
	base
	Slot int
}

type RequestRemoteCalibration struct {
	base
	Slot        int
	AdminPeerID string
}

type MirrorCamera struct {
	base
	Slot int
}

type SetDisplayName struct {
	base
	Slot int
	Name string
}

type SetProfileImageURL struct {
	base
	Slot int
	URL  string
}

type SetCountryCode struct {
	base
	Slot int
	Code string
}

type SetVictories struct {
	base
	Slot      int
	Victories int
}

type ResetVictories struct{ base }

type SetBestOf struct {
	base
	BestOf int
}

type SetCurtainLogo struct {
	base
	URL *string
}

// Passthrough is a pure view UI command with no room state.
type Passthrough struct{ base }

type AddPlayer struct{ base }

type RemovePlayer struct {
	base
	Slot int
}

type SetMatch struct {
	base
	Match *int
}

type AllowAutoJoin struct {
	base
	Enabled bool
}

// ParseCommand validates the shape of an admin message and returns its typed
// form. Unknown names fail with domain.ErrUnknownCommand before any argument
// is looked at.
func ParseCommand(m Message) (Command, error) {
	b := base{raw: m}
	if passthrough[m.Name] {
		return Passthrough{b}, nil
	}

	switch m.Name {
	case CmdGetState:
		return GetState{b}, nil
	case CmdResetVictories:
		return ResetVictories{b}, nil
	case CmdAddPlayer:
		return AddPlayer{b}, nil
	case CmdSetPlayer:
		slot, err := slotArg(m, 0)
		if err != nil {
			return nil, err
		}
		return SetPlayer{base: b, Slot: slot, PlayerID: idArg(m, 1)}, nil
	case CmdSetPlayerOnBehalfOfUser:
		slot, err := slotArg(m, 0)
		if err != nil {
			return nil, err
		}
		return SetPlayerOnBehalfOfUser{base: b, Slot: slot, UserID: idArg(m, 1)}, nil
	case CmdRestartCamera:
		slot, err := slotArg(m, 0)
		if err != nil {
			return nil, err
		}
		return RestartCamera{base: b, Slot: slot}, nil
	case CmdRequestRemoteCalibration:
		slot, err := slotArg(m, 0)
		if err != nil {
			return nil, err
		}
		peer, err := stringArg(m, 1)
		if err != nil {
			return nil, err
		}
		return RequestRemoteCalibration{base: b, Slot: slot, AdminPeerID: peer}, nil
	case CmdMirrorCamera:
		slot, err := slotArg(m, 0)
		if err != nil {
			return nil, err
		}
		return MirrorCamera{base: b, Slot: slot}, nil
	case CmdSetDisplayName, CmdSetProfileImageURL, CmdSetCountryCode:
		slot, err := slotArg(m, 0)
		if err != nil {
			return nil, err
		}
		s, err := stringArg(m, 1)
		if err != nil {
			return nil, err
		}
		switch m.Name {
		case CmdSetDisplayName:
			return SetDisplayName{base: b, Slot: slot, Name: s}, nil
		case CmdSetProfileImageURL:
			return SetProfileImageURL{base: b, Slot: slot, URL: s}, nil
		default:
			return SetCountryCode{base: b, Slot: slot, Code: s}, nil
		}
	case CmdSetVictories:
		slot, err := slotArg(m, 0)
		if err != nil {
			return nil, err
		}
		n, err := intArg(m, 1)
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, fmt.Errorf("%w: negative victories %d", domain.ErrBadPayload, n)
		}
		return SetVictories{base: b, Slot: slot, Victories: n}, nil
	case CmdSetBestOf:
		n, err := intArg(m, 0)
		if err != nil {
			return nil, err
		}
		if n < 1 {
			return nil, fmt.Errorf("%w: best of %d", domain.ErrBadPayload, n)
		}
		return SetBestOf{base: b, BestOf: n}, nil
	case CmdSetCurtainLogo:
		url, err := optionalStringArg(m, 0)
		if err != nil {
			return nil, err
		}
		return SetCurtainLogo{base: b, URL: url}, nil
	case CmdRemovePlayer:
		slot, err := slotArg(m, 0)
		if err != nil {
			return nil, err
		}
		return RemovePlayer{base: b, Slot: slot}, nil
	case CmdSetMatch:
		match, err := optionalIntArg(m, 0)
		if err != nil {
			return nil, err
		}
		return SetMatch{base: b, Match: match}, nil
	case CmdAllowAutoJoin:
		return AllowAutoJoin{base: b, Enabled: truthyArg(m, 0)}, nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnknownCommand, m.Name)
}

// rawArg returns argument i as JSON, or nil when absent.
func rawArg(m Message, i int) json.RawMessage {
	if i >= len(m.Args) {
		return nil
	}
	switch v := m.Args[i].(type) {
	case json.RawMessage:
		return v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil
		}
		return b
	}
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func numberArg(m Message, i int) (float64, bool) {
	raw := rawArg(m, i)
	if isNull(raw) {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, false
	}
	return f, true
}

// slotArg decodes a player number. Anything that is not an integral number
// is rejected as an invalid player; the range is checked by the room.
func slotArg(m Message, i int) (int, error) {
	f, ok := numberArg(m, i)
	if !ok || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w (%s)", domain.ErrInvalidPlayer, string(rawArg(m, i)))
	}
	return int(f), nil
}

func intArg(m Message, i int) (int, error) {
	f, ok := numberArg(m, i)
	if !ok || f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: argument %d of %s is not an integer", domain.ErrBadPayload, i, m.Name)
	}
	return int(f), nil
}

func optionalIntArg(m Message, i int) (*int, error) {
	if isNull(rawArg(m, i)) {
		return nil, nil
	}
	n, err := intArg(m, i)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func stringArg(m Message, i int) (string, error) {
	raw := rawArg(m, i)
	if isNull(raw) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%w: argument %d of %s is not a string", domain.ErrBadPayload, i, m.Name)
	}
	return s, nil
}

func optionalStringArg(m Message, i int) (*string, error) {
	if isNull(rawArg(m, i)) {
		return nil, nil
	}
	s, err := stringArg(m, i)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// idArg accepts a user id given as string or number. Missing, null, empty
// and zero all mean "no player".
func idArg(m Message, i int) domain.UserID {
	raw := rawArg(m, i)
	if isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return domain.UserID(s)
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		if f == 0 {
			return ""
		}
		return domain.UserID(strconv.FormatFloat(f, 'f', -1, 64))
	}
	return ""
}

func truthyArg(m Message, i int) bool {
	raw := rawArg(m, i)
	if isNull(raw) {
		return false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0 && !math.IsNaN(t)
	case string:
		return t != ""
	default:
		return true
	}
}
