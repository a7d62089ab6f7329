package spacedrep

import (
	"math"
	"time"
)

// SM-2 constants.
const (
	InitialEF = 2.5
	MinEF     = 1.3

	// PassingQuality is the lowest grade that advances the repetition count.
	PassingQuality = 3
	MaxQuality     = 5
)

// NewState returns the state of a card that has never been reviewed: EF
// 2.5, no repetitions, no interval, due today.
func NewState(userID, questionID string, today time.Time) ReviewState {
	return ReviewState{
		UserID:     userID,
		QuestionID: questionID,
		EF:         InitialEF,
		NextReview: Day(today),
	}
}

// Update applies one SM-2 step for grade q (clamped to 0..5) reviewed on
// today. It is a pure function of the state and the grade.
//
// A grade below 3 resets the card to one repetition and a one day
// interval. Otherwise the repetition count advances and the interval grows
// to 1, 6, then round(previous interval × EF) days, using EF from before
// this review. EF is then adjusted by the grade and floored at 1.3.
func Update(s ReviewState, q int, today time.Time) ReviewState {
	q = min(max(q, 0), MaxQuality)
	ef := s.EF
	if ef < MinEF {
		ef = MinEF
	}

	next := s
	if q < PassingQuality {
		next.Repetitions = 1
		next.IntervalDays = 1
	} else {
		next.Repetitions = s.Repetitions + 1
		switch next.Repetitions {
		case 1:
			next.IntervalDays = 1
		case 2:
			next.IntervalDays = 6
		default:
			next.IntervalDays = int(math.Round(float64(s.IntervalDays) * ef))
		}
	}

	d := float64(MaxQuality - q)
	next.EF = math.Max(MinEF, ef+0.1-d*(0.08+d*0.02))
	next.LastQuality = q
	next.LastReview = Day(today)
	next.NextReview = Day(today).AddDate(0, 0, next.IntervalDays)
	return next
}

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
