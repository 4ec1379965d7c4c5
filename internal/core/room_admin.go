package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/dkeye/nestrischamps-rooms/internal/domain"
	"github.com/dkeye/nestrischamps-rooms/internal/protocol"
)

// HandleAdminData decodes one admin text frame and dispatches it. The admin
// gets no error reply and resyncs on the next snapshot.
func (r *Room) HandleAdminData(data []byte) {
	msg, err := protocol.Decode(data)
	if err != nil {
		r.logger.Warn().Err(err).Msg("bad admin message")
		return
	}
	_ = r.HandleAdminMessage(context.Background(), msg)
}

// HandleAdminMessage runs one admin command. Failures are logged and
// returned; state is left as the failing stage found it.
func (r *Room) HandleAdminMessage(ctx context.Context, msg protocol.Message) (err error) {
	logger := r.logger.With().Str("command", msg.Name).Logger()

	cmd, err := protocol.ParseCommand(msg)
	if err != nil {
		logger.Warn().Err(err).Msg("rejected admin command")
		return err
	}

	r.cmdMu.Lock()
	defer r.cmdMu.Unlock()

	defer func() {
		if p := recover(); p != nil {
			logger.Error().Interface("panic", p).Msg("admin command panicked")
			err = fmt.Errorf("%s: panic: %v", msg.Name, p)
		}
	}()

	var profile *domain.User
	if c, ok := cmd.(protocol.SetPlayerOnBehalfOfUser); ok {
		profile, err = r.lookupOnBehalfOf(ctx, c)
		if err != nil {
			logger.Error().Err(err).Msg("admin command failed")
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return domain.ErrRoomClosed
	}

	if err := r.apply(cmd, profile); err != nil {
		logger.Error().Err(err).Msg("admin command failed")
		return err
	}

	eff := protocol.EffectsOf(msg.Name)
	if eff.ForwardToViews {
		r.sendToViews(cmd.Raw())
	}
	if eff.UpdateAdmin {
		r.sendStateToAdmin()
	}
	return nil
}

// lookupOnBehalfOf resolves the account a slot plays for. A nil user with a
// nil error means the id is not an account id and the command is a no-op.
func (r *Room) lookupOnBehalfOf(ctx context.Context, c protocol.SetPlayerOnBehalfOfUser) (*domain.User, error) {
	if err := AssertValidPlayer(c.Slot); err != nil {
		return nil, err
	}
	if !c.UserID.IsAccountID() {
		return nil, nil
	}
	if r.users == nil {
		return nil, fmt.Errorf("lookup %s: %w", c.UserID, domain.ErrUserNotFound)
	}

	ctx, cancel := context.WithTimeout(ctx, r.lookupTimeout)
	defer cancel()
	u, err := r.users.UserByID(ctx, c.UserID)
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", c.UserID, err)
	}
	return u, nil
}

// apply performs the state mutation of one command. r.mu is held.
func (r *Room) apply(cmd protocol.Command, profile *domain.User) error {
	switch c := cmd.(type) {
	case protocol.GetState, protocol.Passthrough:
		return nil

	case protocol.SetPlayer:
		return r.setPlayer(c.Slot, c.PlayerID)

	case protocol.SetPlayerOnBehalfOfUser:
		if profile == nil {
			return nil
		}
		return r.applyOnBehalfOf(c.Slot, c.UserID, profile)

	case protocol.RestartCamera:
		p, err := r.slotAt(c.Slot)
		if err != nil {
			return err
		}
		h, ok := r.producer(p.ID)
		if !ok || r.primary == nil {
			r.logger.Debug().Int("slot", c.Slot).Msg("restartCamera: no producer or view")
			return nil
		}
		r.sendProducer(h, protocol.DropPlayer())
		r.sendProducer(h, protocol.SetViewPeerID(r.viewPeerID()))
		r.sendProducer(h, protocol.MakePlayer(c.Slot, r.viewMeta()))
		return nil

	case protocol.RequestRemoteCalibration:
		p, err := r.slotAt(c.Slot)
		if err != nil {
			return err
		}
		h, ok := r.producer(p.ID)
		if !ok {
			r.logger.Debug().Int("slot", c.Slot).Msg("requestRemoteCalibration: no producer")
			return nil
		}
		r.sendProducer(h, protocol.RequestRemoteCalibrationMsg(c.AdminPeerID))
		return nil

	case protocol.MirrorCamera:
		p, err := r.slotAt(c.Slot)
		if err != nil {
			return err
		}
		p.Camera.Mirror = (p.Camera.Mirror + 1) % 2
		r.sendToViews(protocol.SetCameraState(c.Slot, p.Camera))
		return nil

	case protocol.SetDisplayName:
		p, err := r.slotAt(c.Slot)
		if err != nil {
			return err
		}
		p.DisplayName = c.Name
		return nil

	case protocol.SetProfileImageURL:
		p, err := r.slotAt(c.Slot)
		if err != nil {
			return err
		}
		p.ProfileImageURL = c.URL
		return nil

	case protocol.SetCountryCode:
		p, err := r.slotAt(c.Slot)
		if err != nil {
			return err
		}
		p.CountryCode = c.Code
		return nil

	case protocol.SetVictories:
		p, err := r.slotAt(c.Slot)
		if err != nil {
			return err
		}
		p.Victories = c.Victories
		return nil

	case protocol.ResetVictories:
		for idx := range r.state.Players {
			r.state.Players[idx].Victories = 0
		}
		return nil

	case protocol.SetBestOf:
		r.state.BestOf = c.BestOf
		return nil

	case protocol.SetCurtainLogo:
		r.state.CurtainLogo = c.URL
		return nil

	case protocol.AddPlayer:
		r.addPlayer()
		return nil

	case protocol.RemovePlayer:
		return r.removePlayer(c.Slot)

	case protocol.SetMatch:
		r.state.SelectedMatch = c.Match
		return nil

	case protocol.AllowAutoJoin:
		if c.Enabled && !r.state.AutoJoin {
			r.doAutoJoin()
		}
		r.state.AutoJoin = c.Enabled
		return nil
	}
	return fmt.Errorf("%w: %T", domain.ErrUnknownCommand, cmd)
}

func (r *Room) applyOnBehalfOf(slot int, id domain.UserID, u *domain.User) error {
	p, err := r.slotAt(slot)
	if err != nil {
		return err
	}
	p.Login = u.Login
	p.DisplayName = u.DisplayName
	p.CountryCode = u.CountryCode
	p.OnBehalfOf = &domain.OnBehalfOf{ID: id, DisplayName: u.DisplayName}

	r.sendToViews(protocol.New(protocol.MsgSetLogin, slot, u.Login))
	r.sendToViews(protocol.New(protocol.MsgSetDisplayName, slot, u.DisplayName))
	r.sendToViews(protocol.New(protocol.MsgSetCountryCode, slot, u.CountryCode))

	// keep the current avatar unless the account has one
	if strings.TrimSpace(u.ProfileImageURL) != "" {
		p.ProfileImageURL = u.ProfileImageURL
		r.sendToViews(protocol.New(protocol.MsgSetProfileImageURL, slot, u.ProfileImageURL))
	}
	return nil
}
