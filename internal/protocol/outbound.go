package protocol

import "github.com/dkeye/nestrischamps-rooms/internal/domain"

// Messages pushed to views, admins and producers.
const (
	MsgSetOwner           = "setOwner"
	MsgState              = "state"
	MsgSetMatch           = "setMatch"
	MsgSetBestOf          = "setBestOf"
	MsgSetCurtainLogo     = "setCurtainLogo"
	MsgSetID              = "setId"
	MsgSetLogin           = "setLogin"
	MsgSetDisplayName     = "setDisplayName"
	MsgSetCountryCode     = "setCountryCode"
	MsgSetProfileImageURL = "setProfileImageURL"
	MsgSetVictories       = "setVictories"
	MsgSetVdoNinjaURL     = "setVdoNinjaURL"
	MsgSetPeerID          = "setPeerId"
	MsgSetSecondaryView   = "setSecondaryView"
	MsgSetCameraState     = "setCameraState"
	MsgDropPlayer         = "dropPlayer"
	MsgMakePlayer         = "makePlayer"
	MsgSetViewPeerID      = "setViewPeerId"
	MsgRequestCalibration = "requestRemoteCalibration"
	MsgFrame              = "frame"
)

func SetOwner(o domain.Owner) Message { return New(MsgSetOwner, o) }

func State(s domain.Snapshot) Message { return New(MsgState, s) }

func SetMatchMsg(match *int) Message { return New(MsgSetMatch, match) }

func SetBestOfMsg(n int) Message { return New(MsgSetBestOf, n) }

func SetCurtainLogoMsg(url *string) Message { return New(MsgSetCurtainLogo, url) }

func SetPeerID(slot int, peerID string) Message { return New(MsgSetPeerID, slot, peerID) }

func SetSecondaryView() Message { return New(MsgSetSecondaryView) }

func SetCameraState(slot int, c domain.Camera) Message { return New(MsgSetCameraState, slot, c) }

func DropPlayer() Message { return New(MsgDropPlayer) }

// MakePlayer tells a producer to (re)start as the given slot for the
// current primary view.
func MakePlayer(slot int, viewMeta map[string]string) Message {
	if viewMeta == nil {
		viewMeta = map[string]string{}
	}
	return New(MsgMakePlayer, slot, viewMeta)
}

// SetViewPeerID carries the primary view peer id, or null when there is none.
func SetViewPeerID(peerID string) Message {
	if peerID == "" {
		return New(MsgSetViewPeerID, nil)
	}
	return New(MsgSetViewPeerID, peerID)
}

func RequestRemoteCalibrationMsg(adminPeerID string) Message {
	return New(MsgRequestCalibration, adminPeerID)
}

func SetVdoNinjaURL(slot int, url string) Message { return New(MsgSetVdoNinjaURL, slot, url) }

// Frame wraps a producer payload that is neither binary nor a list.
func Frame(slot int, payload any) Message { return New(MsgFrame, slot, payload) }

// PlayerInfo returns the per-slot identity/profile messages in the order a
// view expects them: setId first, since it resets the player in the view.
func PlayerInfo(slot int, p domain.PlayerSlot) []Message {
	return []Message{
		New(MsgSetID, slot, p.ID),
		New(MsgSetLogin, slot, p.Login),
		New(MsgSetDisplayName, slot, p.DisplayName),
		New(MsgSetCountryCode, slot, p.CountryCode),
		New(MsgSetProfileImageURL, slot, p.ProfileImageURL),
		New(MsgSetVictories, slot, p.Victories),
		New(MsgSetVdoNinjaURL, slot, p.VdoNinjaURL),
	}
}
