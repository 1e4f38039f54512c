package models

import "time"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Rank orders severities for matching: higher severities match first.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1
	default:
		return 0
	}
}

// Blocks reports whether a match of this severity rejects the whole text
// instead of just redacting it.
func (s Severity) Blocks() bool {
	return s == SeverityHigh || s == SeverityCritical
}

type BannedWord struct {
	ID          int       `json:"id"`
	Pattern     string    `json:"pattern"`
	IsRegex     bool      `json:"is_regex" db:"is_regex"`
	Severity    Severity  `json:"severity"`
	Category    string    `json:"category"`
	Replacement *string   `json:"replacement" db:"replacement"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedBy   int       `json:"created_by" db:"created_by"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// BannedWordUpdate is a partial update; nil fields are left untouched.
type BannedWordUpdate struct {
	Pattern     *string   `json:"pattern"`
	IsRegex     *bool     `json:"is_regex"`
	Severity    *Severity `json:"severity"`
	Category    *string   `json:"category"`
	Replacement *string   `json:"replacement"`
	IsActive    *bool     `json:"is_active"`
}

type MatchedWord struct {
	Pattern  string   `json:"pattern"`
	Severity Severity `json:"severity"`
	Category string   `json:"category"`
}

type FilterResult struct {
	Blocked      bool          `json:"blocked"`
	FilteredText string        `json:"filtered_text"`
	Matches      []MatchedWord `json:"matches"`
}
