package spacedrep

import (
	"math"
	"time"
)

// ReviewState holds the SM-2 state of one question for one user.
type ReviewState struct {
	UserID       string    `json:"user_id"`
	QuestionID   string    `json:"question_id"`
	EF           float64   `json:"easiness_factor"`
	Repetitions  int       `json:"repetition_count"`
	IntervalDays int       `json:"interval_days"`
	NextReview   time.Time `json:"next_review_date"`
	LastReview   time.Time `json:"last_review_date,omitzero"`
	LastQuality  int       `json:"last_quality"`
}

// IsNew reports whether the card has never been reviewed.
func (rs *ReviewState) IsNew() bool {
	return rs.LastReview.IsZero()
}

// IsDue returns true if the question is due for review (at or past the review date).
func (rs *ReviewState) IsDue(now time.Time) bool {
	return !now.Before(rs.NextReview)
}

// OverdueDays returns how many days past due the question is. Returns 0 if not yet due.
func (rs *ReviewState) OverdueDays(now time.Time) float64 {
	if now.Before(rs.NextReview) {
		return 0
	}
	return now.Sub(rs.NextReview).Hours() / 24.0
}

// DaysUntilReview returns the number of days until the next review,
// rounding partial days up. Returns 0 if already due.
func (rs *ReviewState) DaysUntilReview(now time.Time) int {
	if rs.IsDue(now) {
		return 0
	}
	return int(math.Ceil(rs.NextReview.Sub(now).Hours() / 24.0))
}

// ReviewStatus describes a question's review status for display.
type ReviewStatus string

const (
	ReviewNew     ReviewStatus = "new"
	ReviewNotDue  ReviewStatus = "not_due"
	ReviewDue     ReviewStatus = "due"
	ReviewOverdue ReviewStatus = "overdue"
)

// Status returns the review status for UI display. A question is overdue
// once it has gone unreviewed for half its interval past the due date.
func (rs *ReviewState) Status(now time.Time) ReviewStatus {
	switch {
	case rs.IsNew():
		return ReviewNew
	case !rs.IsDue(now):
		return ReviewNotDue
	case rs.OverdueDays(now) > float64(max(rs.IntervalDays, 1))*0.5:
		return ReviewOverdue
	default:
		return ReviewDue
	}
}
