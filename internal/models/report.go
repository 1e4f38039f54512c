package models

import "time"

type TargetType string

const (
	TargetPost    TargetType = "post"
	TargetComment TargetType = "comment"
	TargetUser    TargetType = "user"
	TargetMessage TargetType = "message"
)

func (t TargetType) Valid() bool {
	switch t {
	case TargetPost, TargetComment, TargetUser, TargetMessage:
		return true
	}
	return false
}

// TargetRef points at exactly one reportable thing. It replaces the
// "four nullable foreign keys, caller sets exactly one" pattern.
type TargetRef struct {
	Type TargetType `json:"type"`
	ID   int        `json:"id"`
}

func (t TargetRef) Validate() error {
	if !t.Type.Valid() || t.ID <= 0 {
		return ErrMissingTarget
	}
	return nil
}

type ReasonCode string

const (
	ReasonSpam           ReasonCode = "spam"
	ReasonHarassment     ReasonCode = "harassment"
	ReasonHateSpeech     ReasonCode = "hate_speech"
	ReasonScam           ReasonCode = "scam"
	ReasonNsfw           ReasonCode = "nsfw"
	ReasonMisinformation ReasonCode = "misinformation"
	ReasonOther          ReasonCode = "other"
)

func (r ReasonCode) Valid() bool {
	switch r {
	case ReasonSpam, ReasonHarassment, ReasonHateSpeech, ReasonScam,
		ReasonNsfw, ReasonMisinformation, ReasonOther:
		return true
	}
	return false
}

type ReportStatus string

const (
	ReportPending   ReportStatus = "pending"
	ReportReviewing ReportStatus = "reviewing"
	ReportResolved  ReportStatus = "resolved"
	ReportDismissed ReportStatus = "dismissed"
)

func (s ReportStatus) Valid() bool {
	switch s {
	case ReportPending, ReportReviewing, ReportResolved, ReportDismissed:
		return true
	}
	return false
}

// Terminal statuses can be set exactly once.
func (s ReportStatus) Terminal() bool {
	return s == ReportResolved || s == ReportDismissed
}

type Report struct {
	ID             int          `json:"id"`
	ReporterID     int          `json:"reporter_id" db:"reporter_id"`
	TargetType     TargetType   `json:"target_type" db:"target_type"`
	TargetID       int          `json:"target_id" db:"target_id"`
	Reason         ReasonCode   `json:"reason"`
	Description    *string      `json:"description" db:"description"`
	Status         ReportStatus `json:"status"`
	ReviewedBy     *int         `json:"reviewed_by" db:"reviewed_by"`
	ReviewedAt     *time.Time   `json:"reviewed_at" db:"reviewed_at"`
	ResolutionNote *string      `json:"resolution_note" db:"resolution_note"`
	CreatedAt      time.Time    `json:"created_at" db:"created_at"`
}

func (r *Report) Target() TargetRef {
	return TargetRef{Type: r.TargetType, ID: r.TargetID}
}
