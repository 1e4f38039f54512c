package models

import (
	"fmt"
	"time"
)

type BanType string

const (
	BanTypeTemporary BanType = "temporary"
	BanTypePermanent BanType = "permanent"
)

func (t BanType) Valid() bool {
	return t == BanTypeTemporary || t == BanTypePermanent
}

// BanState is the reporting view of a ban row. It is derived, never stored.
type BanState string

const (
	BanStateActive  BanState = "active"
	BanStateExpired BanState = "expired"
	BanStateLifted  BanState = "lifted"
)

type UserBan struct {
	ID         int        `json:"id"`
	UserID     int        `json:"user_id" db:"user_id"`
	BannedBy   int        `json:"banned_by" db:"banned_by"`
	Reason     string     `json:"reason"`
	BanType    BanType    `json:"ban_type" db:"ban_type"`
	ExpiresAt  *time.Time `json:"expires_at" db:"expires_at"`
	IsActive   bool       `json:"is_active" db:"is_active"`
	LiftedBy   *int       `json:"lifted_by" db:"lifted_by"`
	LiftedAt   *time.Time `json:"lifted_at" db:"lifted_at"`
	LiftReason *string    `json:"lift_reason" db:"lift_reason"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}

// EffectiveAt reports whether the ban blocks the user at the given instant.
// Expiry is lazy: a naturally expired temporary ban keeps is_active = true
// in storage but stops being effective here. Every caller that needs
// "currently banned" must go through this predicate.
func (b *UserBan) EffectiveAt(now time.Time) bool {
	if !b.IsActive {
		return false
	}
	if b.BanType == BanTypePermanent {
		return true
	}
	return b.ExpiresAt != nil && b.ExpiresAt.After(now)
}

// StateAt buckets the ban for admin listings using the same time
// comparison as EffectiveAt.
func (b *UserBan) StateAt(now time.Time) BanState {
	switch {
	case !b.IsActive:
		return BanStateLifted
	case b.EffectiveAt(now):
		return BanStateActive
	default:
		return BanStateExpired
	}
}

// Blocked is returned by the enforcement gate when a user may not create
// content. It carries what the user is allowed to see about their ban.
type Blocked struct {
	Reason    string     `json:"reason"`
	BanType   BanType    `json:"ban_type"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func (b *Blocked) Error() string {
	if b.BanType == BanTypeTemporary && b.ExpiresAt != nil {
		return fmt.Sprintf("banned until %s: %s", b.ExpiresAt.Format(time.RFC3339), b.Reason)
	}
	return fmt.Sprintf("banned permanently: %s", b.Reason)
}
