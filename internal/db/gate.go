package db

import (
	"context"
	"time"

	"gitlab.com/arkline/modguard/internal/models"
)

// CheckNotBanned is the enforcement gate every content-creation path must
// pass before persisting. It returns a *models.Blocked error carrying
// what the user may see about their ban.
func (sdb *SharedDB) CheckNotBanned(ctx context.Context, userID int) error {
	ban, err := sdb.ActiveBan(ctx, userID)
	if err != nil {
		return err
	}
	if ban == nil || !ban.EffectiveAt(time.Now()) {
		return nil
	}
	return &models.Blocked{
		Reason:    ban.Reason,
		BanType:   ban.BanType,
		ExpiresAt: ban.ExpiresAt,
	}
}
