package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/repaso/internal/spacedrep"
)

var reviewColumns = []string{"user_id", "question_id", "easiness_factor", "repetitions", "interval_days", "next_review", "last_review", "last_quality"}

// GetReview returns the review state of a question for a user, or
// ErrNotFound if it was never reviewed.
func (s *Store) GetReview(ctx context.Context, userID, questionID string) (*spacedrep.ReviewState, error) {
	sel := s.sqlb().Select(reviewColumns...).From(s.sqlb().Table("reviews")).
		Where(entsql.And(entsql.EQ("user_id", userID), entsql.EQ("question_id", questionID)))
	rs, err := scanReview(queryRow(ctx, s.db, sel))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("review %s/%s: %w", userID, questionID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}
	return rs, nil
}

// UpsertReview writes a review state. The last writer wins.
func (s *Store) UpsertReview(ctx context.Context, rs spacedrep.ReviewState) error {
	var last any
	if !rs.LastReview.IsZero() {
		last = rs.LastReview.UTC()
	}
	ins := s.sqlb().Insert("reviews").Columns(reviewColumns...).
		Values(rs.UserID, rs.QuestionID, rs.EF, rs.Repetitions, rs.IntervalDays, rs.NextReview.UTC(), last, rs.LastQuality).
		OnConflict(
			entsql.ConflictColumns("user_id", "question_id"),
			entsql.ResolveWithNewValues(),
		)
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := exec(ctx, tx, ins); err != nil {
			return fmt.Errorf("upsert review: %w", err)
		}
		return nil
	})
}

// DueReviews returns the user's reviews due at now, most overdue first.
// limit <= 0 means no limit.
func (s *Store) DueReviews(ctx context.Context, userID string, now time.Time, limit int) ([]DueReview, error) {
	b := s.sqlb()
	r := b.Table("reviews").As("r")
	q := b.Table("questions").As("q")

	cols := make([]string, 0, len(reviewColumns)+2)
	for _, c := range reviewColumns {
		cols = append(cols, r.C(c))
	}
	cols = append(cols, q.C("text"), q.C("material_id"))

	sel := b.Select(cols...).From(r).
		Join(q).On(r.C("question_id"), q.C("id")).
		Where(entsql.And(
			entsql.EQ(r.C("user_id"), userID),
			entsql.LTE(r.C("next_review"), now.UTC()),
		)).
		OrderBy(r.C("next_review"), r.C("question_id"))
	if limit > 0 {
		sel.Limit(limit)
	}

	rows, err := query(ctx, s.db, sel)
	if err != nil {
		return nil, fmt.Errorf("due reviews: %w", err)
	}
	defer rows.Close()

	var out []DueReview
	for rows.Next() {
		var (
			d    DueReview
			last sql.NullTime
		)
		err := rows.Scan(&d.UserID, &d.QuestionID, &d.EF, &d.Repetitions, &d.IntervalDays,
			&d.NextReview, &last, &d.LastQuality, &d.Question, &d.MaterialID)
		if err != nil {
			return nil, fmt.Errorf("scan due review: %w", err)
		}
		d.NextReview = d.NextReview.UTC()
		if last.Valid {
			d.LastReview = last.Time.UTC()
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func scanReview(r scanner) (*spacedrep.ReviewState, error) {
	var (
		rs   spacedrep.ReviewState
		last sql.NullTime
	)
	err := r.Scan(&rs.UserID, &rs.QuestionID, &rs.EF, &rs.Repetitions, &rs.IntervalDays, &rs.NextReview, &last, &rs.LastQuality)
	if err != nil {
		return nil, err
	}
	rs.NextReview = rs.NextReview.UTC()
	if last.Valid {
		rs.LastReview = last.Time.UTC()
	}
	return &rs, nil
}
