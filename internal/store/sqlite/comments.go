package sqlite

import (
	"context"
	"fmt"

	"github.com/yamdb/yamdb-server/internal/domain"
	"github.com/yamdb/yamdb-server/internal/store"
)

// commentColumns must match the scan order in scanComment.
const commentColumns = `c.id, c.review_id, r.text, c.author_id, u.username, c.text, c.pub_date`

const commentFrom = ` FROM comments c
	JOIN reviews r ON r.id = c.review_id
	JOIN users u ON u.id = c.author_id`

func scanComment(scanner interface{ Scan(dest ...any) error }) (*domain.Comment, error) {
	var (
		c       domain.Comment
		pubDate string
	)
	if err := scanner.Scan(&c.ID, &c.ReviewID, &c.ReviewText, &c.AuthorID, &c.AuthorUsername, &c.Text, &pubDate); err != nil {
		return nil, err
	}
	var err error
	if c.PubDate, err = parseTime(pubDate); err != nil {
		return nil, fmt.Errorf("parse pub_date: %w", err)
	}
	return &c, nil
}

// CreateComment inserts a comment, stamping pub_date, and reloads the denormalized fields.
func (s *Store) CreateComment(ctx context.Context, c *domain.Comment) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO comments (review_id, author_id, text, pub_date) VALUES (?, ?, ?, ?)`,
		c.ReviewID, c.AuthorID, c.Text, formatTime(s.now()))
	if err != nil {
		return mapError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := scanComment(s.db.QueryRowContext(ctx, `SELECT `+commentColumns+commentFrom+` WHERE c.id = ?`, id))
	if err != nil {
		return mapError(err)
	}
	*c = *created
	return nil
}

// GetComment returns the comment only if it belongs to reviewID.
func (s *Store) GetComment(ctx context.Context, reviewID, commentID int64) (*domain.Comment, error) {
	c, err := scanComment(s.db.QueryRowContext(ctx,
		`SELECT `+commentColumns+commentFrom+` WHERE c.id = ? AND c.review_id = ?`, commentID, reviewID))
	if err != nil {
		return nil, mapError(err)
	}
	return c, nil
}

// ListComments returns a review's comments ordered by pub_date.
func (s *Store) ListComments(ctx context.Context, reviewID int64, f store.CommentFilter, page store.Page) (store.Result[domain.Comment], error) {
	where := ` WHERE c.review_id = ?`
	args := []any{reviewID}
	if f.Text != "" {
		where += ` AND lower(c.text) LIKE ? ESCAPE '\'`
		args = append(args, likePattern(f.Text))
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM comments c`+where, args...).Scan(&total); err != nil {
		return store.Result[domain.Comment]{}, fmt.Errorf("count comments: %w", err)
	}

	limit, limitArgs := limitClause(page)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+commentColumns+commentFrom+where+` ORDER BY c.pub_date, c.id`+limit, append(args, limitArgs...)...)
	if err != nil {
		return store.Result[domain.Comment]{}, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	items := []domain.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return store.Result[domain.Comment]{}, fmt.Errorf("scan comment: %w", err)
		}
		items = append(items, *c)
	}
	return store.Result[domain.Comment]{Items: items, Total: total}, rows.Err()
}

// UpdateComment overwrites the comment text.
func (s *Store) UpdateComment(ctx context.Context, c *domain.Comment) error {
	res, err := s.db.ExecContext(ctx, `UPDATE comments SET text = ? WHERE id = ?`, c.Text, c.ID)
	if err != nil {
		return fmt.Errorf("update comment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteComment removes a comment.
func (s *Store) DeleteComment(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}
