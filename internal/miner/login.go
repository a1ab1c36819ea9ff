package miner

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mselser95/drops-miner/internal/settings"
	"go.uber.org/zap"
)

// Login validates the configured token by fetching the current user, stores
// the identity in settings and releases WaitLogin callers.
func (m *Miner) Login(ctx context.Context) error {
	if m.cfg.Settings.Token() == "" {
		m.emitStatus("Login required")
		return ErrLoginRequired
	}

	m.setState(StateLoggingIn)
	m.emitPrint("Logging in...")
	m.emitStatus("Logging in...")

	id, err := m.fetchIdentity(ctx)
	if err != nil {
		m.emitPrint(fmt.Sprintf("Login failed: %v", err))
		m.emitStatus("Login failed")
		return err
	}

	m.cfg.Settings.Update(func(s *settings.Settings) {
		s.UserID = id.UserID
		s.Username = id.Login
	})

	err = m.cfg.Settings.Save(false)
	if err != nil {
		m.logger.Warn("settings-save-failed", zap.Error(err))
	}

	m.latch.Set(id)

	m.logger.Info("logged-in",
		zap.Int("user-id", id.UserID),
		zap.String("login", id.Login))
	m.emitPrint("Logged in as: " + id.Login)
	m.emitStatus("Logged in: " + id.Login)

	return nil
}

func (m *Miner) fetchIdentity(ctx context.Context) (Identity, error) {
	data, err := m.cfg.Gateway.CurrentUser(ctx)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}

	if data.CurrentUser == nil {
		return Identity{}, fmt.Errorf("%w: invalid token", ErrLoginFailed)
	}

	userID, err := strconv.Atoi(data.CurrentUser.ID)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: parse user id %q: %w", ErrLoginFailed, data.CurrentUser.ID, err)
	}

	return Identity{UserID: userID, Login: data.CurrentUser.Login}, nil
}

// LoggedIn reports whether a login has succeeded.
func (m *Miner) LoggedIn() bool {
	return m.latch.IsSet()
}

// WaitLogin blocks until a login succeeds or ctx is done.
func (m *Miner) WaitLogin(ctx context.Context) (Identity, error) {
	return m.latch.Wait(ctx)
}
