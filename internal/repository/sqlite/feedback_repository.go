package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"lecturer-feedback/internal/domain"
	"lecturer-feedback/internal/repository"
)

const createFeedbackTable = `
CREATE TABLE IF NOT EXISTS feedback (
	id TEXT PRIMARY KEY,
	lecturer_name TEXT NOT NULL,
	course TEXT NOT NULL,
	feedback_text TEXT NOT NULL,
	rating INTEGER NULL,
	user_id TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_feedback_lecturer ON feedback(lecturer_name);
CREATE INDEX IF NOT EXISTS idx_feedback_user ON feedback(user_id);
`

const selectFeedback = `SELECT id, lecturer_name, course, feedback_text, rating, user_id, created_at, updated_at FROM feedback`

type FeedbackRepository struct {
	db *sql.DB
}

func NewFeedbackRepository(db *sql.DB) repository.FeedbackRepository {
	return &FeedbackRepository{db: db}
}

func (r *FeedbackRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createFeedbackTable); err != nil {
		return fmt.Errorf("create feedback table: %w", err)
	}
	return nil
}

func (r *FeedbackRepository) Create(ctx context.Context, fb *domain.Feedback) error {
	now := time.Now().UTC()
	fb.CreatedAt = now
	fb.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
INSERT INTO feedback (id, lecturer_name, course, feedback_text, rating, user_id, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		fb.ID,
		fb.LecturerName,
		fb.Course,
		fb.Text,
		nullInt(fb.Rating),
		fb.UserID,
		fb.CreatedAt,
		fb.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

func (r *FeedbackRepository) List(ctx context.Context, filter domain.FeedbackFilter, scope domain.Scope) ([]domain.Feedback, error) {
	var (
		conds []string
		args  []any
	)
	if filter.LecturerName != "" {
		conds = append(conds, "lecturer_name = ?")
		args = append(args, filter.LecturerName)
	}
	if filter.Course != "" {
		conds = append(conds, "course = ?")
		args = append(args, filter.Course)
	}
	if !scope.Unscoped() {
		conds = append(conds, "user_id = ?")
		args = append(args, scope.OwnerID)
	}

	query := selectFeedback
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at ASC, id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query feedback: %w", err)
	}
	defer rows.Close()

	list := []domain.Feedback{}
	for rows.Next() {
		fb, err := scanFeedback(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *fb)
	}
	return list, rows.Err()
}

func (r *FeedbackRepository) Update(ctx context.Context, id string, scope domain.Scope, changes domain.FeedbackChanges) (*domain.Feedback, error) {
	sets := []string{"updated_at=?"}
	args := []any{time.Now().UTC()}
	if changes.LecturerName != nil {
		sets = append(sets, "lecturer_name=?")
		args = append(args, *changes.LecturerName)
	}
	if changes.Course != nil {
		sets = append(sets, "course=?")
		args = append(args, *changes.Course)
	}
	if changes.Text != nil {
		sets = append(sets, "feedback_text=?")
		args = append(args, *changes.Text)
	}
	if changes.Rating != nil {
		sets = append(sets, "rating=?")
		args = append(args, *changes.Rating)
	}

	where, whereArgs := byID(id, scope)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() // safe no-op on commit

	res, err := tx.ExecContext(ctx, `UPDATE feedback SET `+strings.Join(sets, ", ")+where, append(args, whereArgs...)...)
	if err != nil {
		return nil, fmt.Errorf("update feedback: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("feedback update rows affected: %w", err)
	}
	if aff == 0 {
		return nil, repository.ErrNotFound
	}

	fb, err := scanFeedback(tx.QueryRowContext(ctx, selectFeedback+where, whereArgs...))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit feedback update: %w", err)
	}
	return fb, nil
}

func (r *FeedbackRepository) Delete(ctx context.Context, id string, scope domain.Scope) error {
	where, args := byID(id, scope)
	res, err := r.db.ExecContext(ctx, `DELETE FROM feedback`+where, args...)
	if err != nil {
		return fmt.Errorf("delete feedback: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("feedback delete rows affected: %w", err)
	}
	if aff == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *FeedbackRepository) AverageRatings(ctx context.Context, limit int) ([]domain.LecturerRating, error) {
	query := `
SELECT lecturer_name, AVG(rating) AS average_rating, COUNT(*) AS feedback_count
FROM feedback
WHERE rating IS NOT NULL
GROUP BY lecturer_name
ORDER BY average_rating DESC, lecturer_name ASC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query average ratings: %w", err)
	}
	defer rows.Close()

	ratings := []domain.LecturerRating{}
	for rows.Next() {
		var lr domain.LecturerRating
		if err := rows.Scan(&lr.LecturerName, &lr.AverageRating, &lr.FeedbackCount); err != nil {
			return nil, fmt.Errorf("scan average rating: %w", err)
		}
		ratings = append(ratings, lr)
	}
	return ratings, rows.Err()
}

func (r *FeedbackRepository) RatingTrends(ctx context.Context, lecturerName string) ([]domain.RatingTrend, error) {
	// created_at is written in UTC and serialised with a leading YYYY-MM-DD
	query := `
SELECT lecturer_name, substr(created_at, 1, 10) AS day, AVG(rating) AS average_rating
FROM feedback
WHERE rating IS NOT NULL`
	var args []any
	if lecturerName != "" {
		query += ` AND lecturer_name = ?`
		args = append(args, lecturerName)
	}
	query += `
GROUP BY lecturer_name, day
ORDER BY day ASC, lecturer_name ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query rating trends: %w", err)
	}
	defer rows.Close()

	trends := []domain.RatingTrend{}
	for rows.Next() {
		var rt domain.RatingTrend
		if err := rows.Scan(&rt.LecturerName, &rt.Date, &rt.AverageRating); err != nil {
			return nil, fmt.Errorf("scan rating trend: %w", err)
		}
		trends = append(trends, rt)
	}
	return trends, rows.Err()
}

func byID(id string, scope domain.Scope) (string, []any) {
	if scope.Unscoped() {
		return ` WHERE id=?`, []any{id}
	}
	return ` WHERE id=? AND user_id=?`, []any{id, scope.OwnerID}
}

func scanFeedback(scanner interface {
	Scan(dest ...any) error
}) (*domain.Feedback, error) {
	var (
		fb     domain.Feedback
		rating sql.NullInt64
	)
	if err := scanner.Scan(
		&fb.ID,
		&fb.LecturerName,
		&fb.Course,
		&fb.Text,
		&rating,
		&fb.UserID,
		&fb.CreatedAt,
		&fb.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan feedback: %w", err)
	}
	if rating.Valid {
		v := int(rating.Int64)
		fb.Rating = &v
	}
	fb.CreatedAt = fb.CreatedAt.UTC()
	fb.UpdatedAt = fb.UpdatedAt.UTC()
	return &fb, nil
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
