package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/yamdb/yamdb-server/internal/store"
)

// term is the shared shape of categories and genres.
type term struct {
	ID   int64
	Name string
	Slug string
}

// Categories and genres are the same table shape; table names are constants
// chosen by the callers below, never user input.
const (
	tableCategories = "categories"
	tableGenres     = "genres"
)

func (s *Store) insertTerm(ctx context.Context, table, name, slug string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO `+table+` (name, slug) VALUES (?, ?)`, name, slug)
	if err != nil {
		return 0, mapError(err)
	}
	return res.LastInsertId()
}

func (s *Store) getTermBySlug(ctx context.Context, table, slug string) (*term, error) {
	var t term
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, slug FROM `+table+` WHERE slug = ?`, slug).Scan(&t.ID, &t.Name, &t.Slug)
	if err != nil {
		return nil, mapError(err)
	}
	return &t, nil
}

func (s *Store) listTerms(ctx context.Context, table, search string, page store.Page) ([]term, int, error) {
	where := ""
	var args []any
	if search != "" {
		where = ` WHERE lower(name) LIKE ? ESCAPE '\'`
		args = append(args, likePattern(search))
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", table, err)
	}

	limit, limitArgs := limitClause(page)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, slug FROM `+table+where+` ORDER BY name, id`+limit,
		append(args, limitArgs...)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", table, err)
	}
	defer rows.Close()

	var terms []term
	for rows.Next() {
		var t term
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug); err != nil {
			return nil, 0, fmt.Errorf("scan %s: %w", table, err)
		}
		terms = append(terms, t)
	}
	return terms, total, rows.Err()
}

// deleteTerm removes a term. Foreign keys clear titles.category_id or drop
// title_genres rows, so titles themselves survive.
func (s *Store) deleteTerm(ctx context.Context, table, slug string) ([]int64, error) {
	var affected []int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var query string
		if table == tableCategories {
			query = `SELECT t.id FROM titles t JOIN categories c ON c.id = t.category_id WHERE c.slug = ?`
		} else {
			query = `SELECT tg.title_id FROM title_genres tg JOIN genres g ON g.id = tg.genre_id WHERE g.slug = ?`
		}
		rows, err := tx.QueryContext(ctx, query, slug)
		if err != nil {
			return fmt.Errorf("find titles for %s: %w", table, err)
		}
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return err
			}
			affected = append(affected, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE slug = ?`, slug)
		if err != nil {
			return fmt.Errorf("delete from %s: %w", table, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return store.ErrNotFound
		}
		return nil
	})
	return affected, err
}
