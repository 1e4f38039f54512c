package db

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/pgxscan"
	"github.com/samber/lo"
	"gitlab.com/arkline/modguard/internal/models"
)

// Partial unique index on user_bans (user_id) WHERE is_active. It is what
// guarantees at-most-one-active-ban across concurrent replicas.
const banConflictConstraint = "user_bans_one_active"

// ActiveBan returns the user's is_active = true row, or nil if none is
// stored. Note: the row may be naturally expired; callers deciding
// enforcement must check EffectiveAt.
func (sdb *SharedDB) ActiveBan(ctx context.Context, userID int) (*models.UserBan, error) {
	sql, args, _ := psql.
		Select("*").
		From("user_bans").
		Where(sq.Eq{"user_id": userID, "is_active": true}).
		ToSql()

	ban := &models.UserBan{}
	err := pgxscan.Get(ctx, sdb.db, ban, sql, args...)
	if pgxscan.NotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ban, nil
}

// EffectiveIsBanned is the single source of truth for enforcement.
func (sdb *SharedDB) EffectiveIsBanned(ctx context.Context, userID int) (bool, error) {
	ban, err := sdb.ActiveBan(ctx, userID)
	if err != nil {
		return false, err
	}
	return ban != nil && ban.EffectiveAt(time.Now()), nil
}

// CreateBan inserts a new active ban. A stored-but-expired temporary ban
// never blocks a new one: it is flipped to inactive inside the same
// transaction before the insert, so the partial unique index only rejects
// genuinely concurrent duplicates.
func (sdb *SharedDB) CreateBan(ctx context.Context, userID, bannedBy int, reason string, banType models.BanType, durationDays int) (*models.UserBan, error) {
	if bannedBy == userID {
		return nil, models.ErrSelfBan
	}
	if !banType.Valid() {
		return nil, models.ErrInvalidFormat
	}
	now := time.Now()
	var expiresAt *time.Time
	if banType == models.BanTypeTemporary {
		if durationDays <= 0 {
			return nil, models.ErrInvalidDuration
		}
		t := now.AddDate(0, 0, durationDays)
		expiresAt = &t
	}

	effective, err := sdb.EffectiveIsBanned(ctx, userID)
	if err != nil {
		return nil, err
	}
	if effective {
		return nil, models.ErrAlreadyBanned
	}

	ban := &models.UserBan{
		UserID:    userID,
		BannedBy:  bannedBy,
		Reason:    reason,
		BanType:   banType,
		ExpiresAt: expiresAt,
		IsActive:  true,
	}
	err = execTx(ctx, sdb.db, func(ctx context.Context, tx DBTX) error {
		// Retire naturally expired rows so the unique index lets the
		// new ban in. Enforcement reads never needed this mutation.
		sql, args, _ := psql.
			Update("user_bans").
			Set("is_active", false).
			Set("updated_at", now).
			Where(sq.Eq{"user_id": userID, "is_active": true, "ban_type": models.BanTypeTemporary}).
			Where(sq.LtOrEq{"expires_at": now}).
			ToSql()
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return err
		}

		sql, args, _ = psql.
			Insert("user_bans").
			Columns("user_id", "banned_by", "reason", "ban_type", "expires_at", "is_active").
			Values(ban.UserID, ban.BannedBy, ban.Reason, ban.BanType, ban.ExpiresAt, ban.IsActive).
			Suffix("RETURNING id, created_at, updated_at").
			ToSql()
		row := tx.QueryRow(ctx, sql, args...)
		return row.Scan(&ban.ID, &ban.CreatedAt, &ban.UpdatedAt)
	})
	if uniqueViolation(err, banConflictConstraint) {
		return nil, models.ErrAlreadyBanned
	}
	if err != nil {
		return nil, err
	}
	return ban, nil
}

// LiftBan deactivates the user's active ban. Lifting a naturally expired
// but still-stored ban is allowed: a no-op for enforcement, recorded for
// audit completeness.
func (sdb *SharedDB) LiftBan(ctx context.Context, userID, liftedBy int, liftReason string) (*models.UserBan, error) {
	now := time.Now()
	sql, args, _ := psql.
		Update("user_bans").
		Set("is_active", false).
		Set("lifted_by", liftedBy).
		Set("lifted_at", now).
		Set("lift_reason", liftReason).
		Set("updated_at", now).
		Where(sq.Eq{"user_id": userID, "is_active": true}).
		Suffix("RETURNING *").
		ToSql()

	ban := &models.UserBan{}
	err := pgxscan.Get(ctx, sdb.db, ban, sql, args...)
	if pgxscan.NotFound(err) {
		return nil, models.ErrNoActiveBan
	}
	if err != nil {
		return nil, err
	}
	return ban, nil
}

// BanHistory lists every ban ever recorded for the user, newest first.
func (sdb *SharedDB) BanHistory(ctx context.Context, userID int) ([]models.UserBan, error) {
	sql, args, _ := psql.
		Select("*").
		From("user_bans").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("id DESC").
		ToSql()

	bans := []models.UserBan{}
	err := pgxscan.Select(ctx, sdb.db, &bans, sql, args...)
	if err != nil {
		return nil, err
	}
	return bans, nil
}

// ListBans is the admin reporting view. Bucketing applies the same time
// comparison as enforcement (UserBan.StateAt), so a naturally expired ban
// is listed as expired, never as active.
func (sdb *SharedDB) ListBans(ctx context.Context, state models.BanState) ([]models.UserBan, error) {
	sql, args, _ := psql.
		Select("*").
		From("user_bans").
		OrderBy("id DESC").
		ToSql()

	bans := []models.UserBan{}
	err := pgxscan.Select(ctx, sdb.db, &bans, sql, args...)
	if err != nil {
		return nil, err
	}
	if state == "" {
		return bans, nil
	}
	now := time.Now()
	return lo.Filter(bans, func(b models.UserBan, _ int) bool {
		return b.StateAt(now) == state
	}), nil
}
