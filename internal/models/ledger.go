package models

import (
	"time"
)

// Source tags the domain event an adjustment originated from.
type Source string

const (
	SourceAttendance            Source = "attendance"
	SourceAttendanceRevoke      Source = "attendance_revoke"
	SourceRemarkPenalty         Source = "remark_penalty"
	SourceHomeworkGrade         Source = "homework_grade"
	SourceHomeworkRegradeRevoke Source = "homework_regrade_revoke"
	SourceManualAdmin           Source = "manual_admin"
	SourceRedemptionDebit       Source = "redemption_debit"
)

// Valid reports whether s is one of the known sources.
func (s Source) Valid() bool {
	switch s {
	case SourceAttendance, SourceAttendanceRevoke, SourceRemarkPenalty,
		SourceHomeworkGrade, SourceHomeworkRegradeRevoke, SourceManualAdmin,
		SourceRedemptionDebit:
		return true
	}
	return false
}

type Account struct {
	StudentID string    `json:"student_id" db:"student_id"`
	Balance   int64     `json:"balance" db:"balance"`
	Version   int64     `json:"version" db:"version"` // for optimistic locking
	Archived  bool      `json:"archived" db:"archived"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// AdjustmentRecord is an immutable entry of a student's point log. Delta is the
// requested change; BalanceAfter is what was stored after the clamp rule.
type AdjustmentRecord struct {
	Seq          int64     `json:"seq" db:"seq"`
	ID           string    `json:"id" db:"id"`
	StudentID    string    `json:"student_id" db:"student_id"`
	Delta        int64     `json:"delta" db:"delta"`
	Source       Source    `json:"source" db:"source"`
	SourceRef    string    `json:"source_ref" db:"source_ref"`
	Note         string    `json:"note,omitempty" db:"note"`
	BalanceAfter int64     `json:"balance_after" db:"balance_after"`
	Clamped      bool      `json:"clamped" db:"clamped"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

type RedemptionRecord struct {
	ID               string    `json:"id" db:"id"`
	StudentID        string    `json:"student_id" db:"student_id"`
	PrizeID          string    `json:"prize_id" db:"prize_id"`
	CostAtRedemption int64     `json:"cost_at_redemption" db:"cost_at_redemption"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

type Prize struct {
	ID     string `json:"id" db:"id"`
	Name   string `json:"name" db:"name"`
	Cost   int64  `json:"cost" db:"cost"`
	Active bool   `json:"active" db:"active"`
}
