package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dtroode/authkeeper-server/internal/logger"
	"github.com/dtroode/authkeeper-server/internal/model"
)

// Maintenance removes token rows that can never become valid again.
// It is triggered externally (flag, scheduler), never on the request path.
type Maintenance struct {
	refreshStore model.RefreshTokenStore
	resetStore   model.PasswordResetStore
	logger       *logger.Logger
}

func NewMaintenance(
	refreshStore model.RefreshTokenStore,
	resetStore model.PasswordResetStore,
	logger *logger.Logger,
) *Maintenance {
	return &Maintenance{
		refreshStore: refreshStore,
		resetStore:   resetStore,
		logger:       logger,
	}
}

// PurgeExpired deletes expired refresh and reset rows. Revoked rows are
// kept until expiry so successor chains stay auditable.
func (m *Maintenance) PurgeExpired(ctx context.Context) error {
	now := time.Now()

	refreshPurged, err := m.refreshStore.PurgeExpired(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to purge refresh tokens: %w", err)
	}

	resetsPurged, err := m.resetStore.PurgeExpired(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to purge password resets: %w", err)
	}

	m.logger.Info("Maintenance service: purge completed",
		"refresh_tokens", refreshPurged,
		"password_resets", resetsPurged)

	return nil
}
