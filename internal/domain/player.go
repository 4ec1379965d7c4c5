package domain

// MaxPlayers is the hard upper bound on player slots in a room.
const (
	MaxPlayers = 8
	MinPlayers = 2
)

type Camera struct {
	Mirror int `json:"mirror"` // 0 or 1
}

type OnBehalfOf struct {
	ID          UserID `json:"id"`
	DisplayName string `json:"display_name"`
}

// PlayerSlot is one roster position. Its index in RoomState.Players is the
// on-wire player number.
type PlayerSlot struct {
	ID                UserID      `json:"id"`
	Login             string      `json:"login"`
	DisplayName       string      `json:"display_name"`
	CountryCode       string      `json:"country_code"`
	ProfileImageURL   string      `json:"profile_image_url"`
	VdoNinjaURL       string      `json:"vdo_ninja_url"`
	Victories         int         `json:"victories"`
	Camera            Camera      `json:"camera"`
	RemoteCalibration bool        `json:"remote_calibration"`
	OnBehalfOf        *OnBehalfOf `json:"on_behalf_of_user,omitempty"`
}

func NewPlayerSlot() PlayerSlot {
	return PlayerSlot{}
}

func (p PlayerSlot) Occupied() bool { return !p.ID.Empty() }

// Clone returns a deep copy, so slots never share the OnBehalfOf pointer.
func (p PlayerSlot) Clone() PlayerSlot {
	if p.OnBehalfOf != nil {
		obo := *p.OnBehalfOf
		p.OnBehalfOf = &obo
	}
	return p
}

// ProducerFields is the subset of a producer that seeds a player slot.
type ProducerFields struct {
	ID                UserID `json:"id"`
	Login             string `json:"login"`
	DisplayName       string `json:"display_name"`
	ProfileImageURL   string `json:"profile_image_url"`
	CountryCode       string `json:"country_code"`
	VdoNinjaURL       string `json:"vdo_ninja_url"`
	RemoteCalibration bool   `json:"remote_calibration"`
}

// Apply overlays the producer fields onto a slot.
func (f ProducerFields) Apply(p PlayerSlot) PlayerSlot {
	p.ID = f.ID
	p.Login = f.Login
	p.DisplayName = f.DisplayName
	p.ProfileImageURL = f.ProfileImageURL
	p.CountryCode = f.CountryCode
	p.VdoNinjaURL = f.VdoNinjaURL
	p.RemoteCalibration = f.RemoteCalibration
	return p
}
