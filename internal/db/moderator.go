package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/pgxscan"
	"github.com/rs/zerolog"
	"gitlab.com/arkline/modguard/internal/models"
)

// ModeratorH is a capability handle over moderation: resolving reports and
// applying action cascades. Obtaining one requires an admin identity, so
// code holding a ModeratorH never re-checks permissions.
type ModeratorH struct {
	sdb     *SharedDB
	id      int
	content models.ContentStore
	logger  zerolog.Logger
}

func (sdb *SharedDB) GetModeratorH(identity models.Identity, content models.ContentStore) (*ModeratorH, error) {
	if !identity.IsAdmin {
		return nil, models.ErrPermDenied
	}
	return &ModeratorH{
		sdb:     sdb,
		id:      identity.UserID,
		content: content,
		logger:  sdb.logger.With().Int("moderator_id", identity.UserID).Logger(),
	}, nil
}

func (h *ModeratorH) ID() int {
	return h.id
}

// ResolveReport transitions a report exactly once into a terminal state
// (reviewing may be set repeatedly) and, when resolving with a cascade,
// delegates enforcement to ApplyAction. The report transition commits
// before any side effect runs: a cascade failure leaves the report
// resolved and is returned alongside the already-written audit action.
func (h *ModeratorH) ResolveReport(ctx context.Context, reportID int, newStatus models.ReportStatus, note string, cascade *models.CascadeRequest) (*models.Report, *models.ModerationAction, error) {
	if newStatus != models.ReportReviewing && !newStatus.Terminal() {
		return nil, nil, models.ErrInvalidFormat
	}
	if cascade != nil {
		if err := cascade.Validate(); err != nil {
			return nil, nil, err
		}
	}

	report := &models.Report{}
	err := execTx(ctx, h.sdb.db, func(ctx context.Context, tx DBTX) error {
		sql, args, _ := psql.
			Select("*").
			From("reports").
			Where(sq.Eq{"id": reportID}).
			Suffix("FOR UPDATE").
			ToSql()
		err := pgxscan.Get(ctx, tx, report, sql, args...)
		if pgxscan.NotFound(err) {
			return models.ErrNotFound
		}
		if err != nil {
			return err
		}
		if report.Status.Terminal() {
			return models.ErrAlreadyResolved
		}

		builder := psql.
			Update("reports").
			Set("status", newStatus).
			Where(sq.Eq{"id": reportID})
		if newStatus.Terminal() {
			builder = builder.
				Set("reviewed_by", h.id).
				Set("reviewed_at", time.Now()).
				Set("resolution_note", note)
		}
		sql, args, _ = builder.Suffix("RETURNING *").ToSql()
		return pgxscan.Get(ctx, tx, report, sql, args...)
	})
	if err != nil {
		return nil, nil, err
	}

	if newStatus != models.ReportResolved || cascade == nil {
		return report, nil, nil
	}

	req := models.ActionRequest{
		TargetUserID:    0,
		ActionType:      cascade.ActionType,
		Reason:          cascade.Reason,
		RelatedReportID: &report.ID,
		BanDurationDays: cascade.BanDurationDays,
	}
	switch report.TargetType {
	case models.TargetUser:
		req.TargetUserID = report.TargetID
	case models.TargetPost:
		req.TargetPostID = &report.TargetID
	case models.TargetComment:
		req.TargetCommentID = &report.TargetID
	}
	if req.TargetUserID == 0 {
		author, err := h.content.GetAuthor(ctx, report.Target())
		if err != nil {
			return report, nil, fmt.Errorf("%w: %v", models.ErrUnresolvableTarget, err)
		}
		req.TargetUserID = author
	}

	action, err := h.ApplyAction(ctx, req)
	return report, action, err
}

// ApplyAction is the action cascade: it always writes the audit record
// first, then fans out the side effects, each with its own error channel.
// A partial failure never reverts the audit record or another effect.
func (h *ModeratorH) ApplyAction(ctx context.Context, req models.ActionRequest) (*models.ModerationAction, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	action := &models.ModerationAction{
		ModeratorID:     h.id,
		TargetUserID:    req.TargetUserID,
		TargetPostID:    req.TargetPostID,
		TargetCommentID: req.TargetCommentID,
		ActionType:      req.ActionType,
		Reason:          req.Reason,
		RelatedReportID: req.RelatedReportID,
	}
	if req.ActionType == models.ActionTemporaryBan {
		days := req.BanDurationDays
		expires := time.Now().AddDate(0, 0, days)
		action.BanDurationDays = &days
		action.BanExpiresAt = &expires
	}
	if err := h.insertAction(ctx, action); err != nil {
		return nil, err
	}

	switch req.ActionType {
	case models.ActionWarning:
		// Audit record only.
		return action, nil
	case models.ActionTemporaryBan:
		return action, h.applyBan(ctx, req, models.BanTypeTemporary)
	case models.ActionPermanentBan:
		return action, h.applyBan(ctx, req, models.BanTypePermanent)
	case models.ActionBanLift:
		_, err := h.sdb.LiftBan(ctx, req.TargetUserID, h.id, req.Reason)
		if errors.Is(err, models.ErrNoActiveBan) {
			return action, models.ErrNothingToLift
		}
		return action, err
	case models.ActionContentRemoval:
		return action, h.removeContent(ctx, req)
	}
	return action, nil
}

func (h *ModeratorH) applyBan(ctx context.Context, req models.ActionRequest, banType models.BanType) error {
	_, err := h.sdb.CreateBan(ctx, req.TargetUserID, h.id, req.Reason, banType, req.BanDurationDays)
	if errors.Is(err, models.ErrAlreadyBanned) {
		return models.ErrBanConflict
	}
	return err
}

// removeContent attempts every referenced deletion even if an earlier one
// fails; the moderator retries failed ones by issuing a new action.
func (h *ModeratorH) removeContent(ctx context.Context, req models.ActionRequest) error {
	var deleteErr error
	if req.TargetPostID != nil {
		if err := h.content.DeletePost(ctx, *req.TargetPostID); err != nil {
			h.logger.Error().Int("post_id", *req.TargetPostID).Err(err).Msg("Post deletion failed")
			deleteErr = err
		}
	}
	if req.TargetCommentID != nil {
		if err := h.content.DeleteComment(ctx, *req.TargetCommentID); err != nil {
			h.logger.Error().Int("comment_id", *req.TargetCommentID).Err(err).Msg("Comment deletion failed")
			deleteErr = err
		}
	}
	if deleteErr != nil {
		return fmt.Errorf("%w: %v", models.ErrContentDeleteFailed, deleteErr)
	}
	return nil
}

func (h *ModeratorH) insertAction(ctx context.Context, action *models.ModerationAction) error {
	sql, args, _ := psql.
		Insert("moderation_actions").
		Columns("moderator_id", "target_user_id", "target_post_id", "target_comment_id",
			"action_type", "reason", "related_report_id", "ban_duration_days", "ban_expires_at").
		Values(action.ModeratorID, action.TargetUserID, action.TargetPostID, action.TargetCommentID,
			action.ActionType, action.Reason, action.RelatedReportID, action.BanDurationDays, action.BanExpiresAt).
		Suffix("RETURNING id, created_at").
		ToSql()

	row := h.sdb.db.QueryRow(ctx, sql, args...)
	return row.Scan(&action.ID, &action.CreatedAt)
}

// ActionHistory lists the audit log for a user, newest first.
func (h *ModeratorH) ActionHistory(ctx context.Context, userID int) ([]models.ModerationAction, error) {
	sql, args, _ := psql.
		Select("*").
		From("moderation_actions").
		Where(sq.Eq{"target_user_id": userID}).
		OrderBy("id DESC").
		ToSql()

	actions := []models.ModerationAction{}
	err := pgxscan.Select(ctx, h.sdb.db, &actions, sql, args...)
	if err != nil {
		return nil, err
	}
	return actions, nil
}
