package models

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type ActionType string

const (
	ActionWarning        ActionType = "warning"
	ActionTemporaryBan   ActionType = "temporary_ban"
	ActionPermanentBan   ActionType = "permanent_ban"
	ActionBanLift        ActionType = "ban_lift"
	ActionContentRemoval ActionType = "content_removal"
)

func (t ActionType) Valid() bool {
	switch t {
	case ActionWarning, ActionTemporaryBan, ActionPermanentBan,
		ActionBanLift, ActionContentRemoval:
		return true
	}
	return false
}

// ModerationAction is the append-only audit log of moderator decisions.
// Rows are never updated or deleted.
type ModerationAction struct {
	ID              int        `json:"id"`
	ModeratorID     int        `json:"moderator_id" db:"moderator_id"`
	TargetUserID    int        `json:"target_user_id" db:"target_user_id"`
	TargetPostID    *int       `json:"target_post_id" db:"target_post_id"`
	TargetCommentID *int       `json:"target_comment_id" db:"target_comment_id"`
	ActionType      ActionType `json:"action_type" db:"action_type"`
	Reason          string     `json:"reason"`
	RelatedReportID *int       `json:"related_report_id" db:"related_report_id"`
	BanDurationDays *int       `json:"ban_duration_days" db:"ban_duration_days"`
	BanExpiresAt    *time.Time `json:"ban_expires_at" db:"ban_expires_at"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
}

// ActionRequest is a moderator decision handed to the action cascade.
type ActionRequest struct {
	TargetUserID    int        `json:"target_user_id"`
	TargetPostID    *int       `json:"target_post_id"`
	TargetCommentID *int       `json:"target_comment_id"`
	ActionType      ActionType `json:"action_type"`
	Reason          string     `json:"reason"`
	RelatedReportID *int       `json:"-"`
	BanDurationDays int        `json:"ban_duration_days"`
}

func (r ActionRequest) Validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.TargetUserID, validation.Required, validation.Min(1)),
		validation.Field(&r.Reason, validation.Required, validation.Length(1, 1000)),
	)
	if err != nil {
		return err
	}
	if !r.ActionType.Valid() {
		return ErrInvalidFormat
	}
	if r.ActionType == ActionTemporaryBan && r.BanDurationDays <= 0 {
		return ErrInvalidDuration
	}
	return nil
}

// CascadeRequest is the optional enforcement attached to a report
// resolution. The target user and content ids come from the report itself.
type CascadeRequest struct {
	ActionType      ActionType `json:"action_type"`
	Reason          string     `json:"reason"`
	BanDurationDays int        `json:"ban_duration_days"`
}

func (c CascadeRequest) Validate() error {
	if !c.ActionType.Valid() {
		return ErrInvalidFormat
	}
	if err := validation.Validate(c.Reason, validation.Required, validation.Length(1, 1000)); err != nil {
		return err
	}
	if c.ActionType == ActionTemporaryBan && c.BanDurationDays <= 0 {
		return ErrInvalidDuration
	}
	return nil
}
