package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/yamdb/yamdb-server/internal/domain"
	"github.com/yamdb/yamdb-server/internal/store"
)

// reviewColumns must match the scan order in scanReview.
const reviewColumns = `r.id, r.title_id, COALESCE(t.name, ''), r.author_id, u.username, r.text, r.score, r.pub_date`

const reviewFrom = ` FROM reviews r
	JOIN users u ON u.id = r.author_id
	LEFT JOIN titles t ON t.id = r.title_id`

func scanReview(scanner interface{ Scan(dest ...any) error }) (*domain.Review, error) {
	var (
		r       domain.Review
		titleID sql.NullInt64
		pubDate string
	)
	err := scanner.Scan(&r.ID, &titleID, &r.TitleName, &r.AuthorID, &r.AuthorUsername, &r.Text, &r.Score, &pubDate)
	if err != nil {
		return nil, err
	}
	if titleID.Valid {
		id := titleID.Int64
		r.TitleID = &id
	}
	if r.PubDate, err = parseTime(pubDate); err != nil {
		return nil, fmt.Errorf("parse pub_date: %w", err)
	}
	return &r, nil
}

// CreateReview inserts a review, stamping pub_date, and reloads the denormalized names.
// Returns store.ErrAlreadyExists when the author already reviewed the title.
func (s *Store) CreateReview(ctx context.Context, r *domain.Review) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO reviews (title_id, author_id, text, score, pub_date) VALUES (?, ?, ?, ?, ?)`,
		r.TitleID, r.AuthorID, r.Text, r.Score, formatTime(s.now()))
	if err != nil {
		return mapError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := s.getReview(ctx, id)
	if err != nil {
		return err
	}
	*r = *created
	return nil
}

func (s *Store) getReview(ctx context.Context, id int64) (*domain.Review, error) {
	r, err := scanReview(s.db.QueryRowContext(ctx, `SELECT `+reviewColumns+reviewFrom+` WHERE r.id = ?`, id))
	if err != nil {
		return nil, mapError(err)
	}
	return r, nil
}

// GetReview returns the review only if it belongs to titleID.
func (s *Store) GetReview(ctx context.Context, titleID, reviewID int64) (*domain.Review, error) {
	r, err := scanReview(s.db.QueryRowContext(ctx,
		`SELECT `+reviewColumns+reviewFrom+` WHERE r.id = ? AND r.title_id = ?`, reviewID, titleID))
	if err != nil {
		return nil, mapError(err)
	}
	return r, nil
}

// ListReviews returns a title's reviews ordered by pub_date.
func (s *Store) ListReviews(ctx context.Context, titleID int64, f store.ReviewFilter, page store.Page) (store.Result[domain.Review], error) {
	where := ` WHERE r.title_id = ?`
	args := []any{titleID}
	if f.Score != 0 {
		where += ` AND r.score = ?`
		args = append(args, f.Score)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reviews r`+where, args...).Scan(&total); err != nil {
		return store.Result[domain.Review]{}, fmt.Errorf("count reviews: %w", err)
	}

	limit, limitArgs := limitClause(page)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+reviewColumns+reviewFrom+where+` ORDER BY r.pub_date, r.id`+limit, append(args, limitArgs...)...)
	if err != nil {
		return store.Result[domain.Review]{}, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	items := []domain.Review{}
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return store.Result[domain.Review]{}, fmt.Errorf("scan review: %w", err)
		}
		items = append(items, *r)
	}
	return store.Result[domain.Review]{Items: items, Total: total}, rows.Err()
}

// UpdateReview overwrites text and score. Title, author and pub_date never change.
func (s *Store) UpdateReview(ctx context.Context, r *domain.Review) error {
	res, err := s.db.ExecContext(ctx, `UPDATE reviews SET text = ?, score = ? WHERE id = ?`, r.Text, r.Score, r.ID)
	if err != nil {
		return mapError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteReview removes a review and, through the foreign key, its comments.
func (s *Store) DeleteReview(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// HasReview reports whether authorID already reviewed titleID.
func (s *Store) HasReview(ctx context.Context, titleID, authorID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM reviews WHERE title_id = ? AND author_id = ?)`, titleID, authorID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check review: %w", err)
	}
	return exists, nil
}
