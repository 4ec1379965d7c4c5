package app

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	KickMember
	DropFrame
)

// Policy decides what a connection does when its outbound queue is full.
type Policy interface {
	OnBackPressure(binary bool) BackpressureAction
}

// SimplePolicy drops telemetry frames, which the next frame supersedes, and
// kicks connections that fall behind on control messages.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(binary bool) BackpressureAction {
	if binary {
		return DropFrame
	}
	return KickMember
}
