package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/yamdb/yamdb-server/internal/domain"
	"github.com/yamdb/yamdb-server/internal/store"
)

// titleColumns is the ordered list of columns selected in title queries.
// Must match the scan order in scanTitle. The rating is aggregated per row.
const titleColumns = `t.id, t.name, t.year, t.description, c.id, c.name, c.slug,
	(SELECT AVG(r.score) FROM reviews r WHERE r.title_id = t.id)`

const titleFrom = ` FROM titles t LEFT JOIN categories c ON c.id = t.category_id`

// scanTitle scans a sql.Row (or sql.Rows via its Scan method) into a domain.Title.
// Genres are attached separately by loadGenres.
func scanTitle(scanner interface{ Scan(dest ...any) error }) (*domain.Title, error) {
	var (
		t            domain.Title
		categoryID   sql.NullInt64
		categoryName sql.NullString
		categorySlug sql.NullString
		rating       sql.NullFloat64
	)
	err := scanner.Scan(&t.ID, &t.Name, &t.Year, &t.Description,
		&categoryID, &categoryName, &categorySlug, &rating)
	if err != nil {
		return nil, err
	}
	if categoryID.Valid {
		t.Category = &domain.Category{ID: categoryID.Int64, Name: categoryName.String, Slug: categorySlug.String}
	}
	if rating.Valid {
		v := rating.Float64
		t.Rating = &v
	}
	t.Genres = []domain.Genre{}
	return &t, nil
}

// CreateTitle inserts a title with its genre links and sets its ID.
// Category and genres must already exist; only their IDs are used.
func (s *Store) CreateTitle(ctx context.Context, t *domain.Title) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO titles (name, year, description, category_id) VALUES (?, ?, ?, ?)`,
			t.Name, t.Year, t.Description, categoryID(t))
		if err != nil {
			return mapError(err)
		}
		if t.ID, err = res.LastInsertId(); err != nil {
			return err
		}
		return replaceGenres(ctx, tx, t.ID, t.Genres)
	})
	if err != nil {
		return err
	}
	s.reindexTitle(ctx, t.ID)
	return nil
}

// UpdateTitle overwrites the title's fields and genre links.
func (s *Store) UpdateTitle(ctx context.Context, t *domain.Title) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE titles SET name = ?, year = ?, description = ?, category_id = ? WHERE id = ?`,
			t.Name, t.Year, t.Description, categoryID(t), t.ID)
		if err != nil {
			return mapError(err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return store.ErrNotFound
		}
		return replaceGenres(ctx, tx, t.ID, t.Genres)
	})
	if err != nil {
		return err
	}
	s.reindexTitle(ctx, t.ID)
	return nil
}

func categoryID(t *domain.Title) sql.NullInt64 {
	if t.Category == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Category.ID, Valid: true}
}

func replaceGenres(ctx context.Context, tx *sql.Tx, titleID int64, genres []domain.Genre) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM title_genres WHERE title_id = ?`, titleID); err != nil {
		return fmt.Errorf("clear title genres: %w", err)
	}
	for _, g := range genres {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO title_genres (title_id, genre_id) VALUES (?, ?)`, titleID, g.ID); err != nil {
			return fmt.Errorf("link genre %s: %w", g.Slug, err)
		}
	}
	return nil
}

// GetTitle returns a title with its category, genres and rating.
func (s *Store) GetTitle(ctx context.Context, id int64) (*domain.Title, error) {
	t, err := scanTitle(s.db.QueryRowContext(ctx, `SELECT `+titleColumns+titleFrom+` WHERE t.id = ?`, id))
	if err != nil {
		return nil, mapError(err)
	}
	if err := s.loadGenres(ctx, []*domain.Title{t}); err != nil {
		return nil, err
	}
	return t, nil
}

// ListTitles returns titles ordered by year, narrowed by f.
func (s *Store) ListTitles(ctx context.Context, f store.TitleFilter, page store.Page) (store.Result[domain.Title], error) {
	var (
		conds []string
		args  []any
	)
	if f.Category != "" {
		conds = append(conds, `c.slug = ?`)
		args = append(args, f.Category)
	}
	if f.Genre != "" {
		conds = append(conds, `EXISTS (SELECT 1 FROM title_genres tg JOIN genres g ON g.id = tg.genre_id
			WHERE tg.title_id = t.id AND g.slug = ?)`)
		args = append(args, f.Genre)
	}
	if f.Name != "" {
		conds = append(conds, `lower(t.name) LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(f.Name))
	}
	if f.Year != 0 {
		conds = append(conds, `t.year = ?`)
		args = append(args, f.Year)
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*)`+titleFrom+where, args...).Scan(&total); err != nil {
		return store.Result[domain.Title]{}, fmt.Errorf("count titles: %w", err)
	}

	limit, limitArgs := limitClause(page)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+titleColumns+titleFrom+where+` ORDER BY t.year, t.id`+limit, append(args, limitArgs...)...)
	if err != nil {
		return store.Result[domain.Title]{}, fmt.Errorf("list titles: %w", err)
	}
	defer rows.Close()

	var ptrs []*domain.Title
	for rows.Next() {
		t, err := scanTitle(rows)
		if err != nil {
			return store.Result[domain.Title]{}, fmt.Errorf("scan title: %w", err)
		}
		ptrs = append(ptrs, t)
	}
	if err := rows.Err(); err != nil {
		return store.Result[domain.Title]{}, err
	}
	if err := s.loadGenres(ctx, ptrs); err != nil {
		return store.Result[domain.Title]{}, err
	}

	items := make([]domain.Title, len(ptrs))
	for i, t := range ptrs {
		items[i] = *t
	}
	return store.Result[domain.Title]{Items: items, Total: total}, nil
}

// loadGenres attaches genres to titles with a single query.
func (s *Store) loadGenres(ctx context.Context, titles []*domain.Title) error {
	if len(titles) == 0 {
		return nil
	}
	byID := make(map[int64]*domain.Title, len(titles))
	args := make([]any, len(titles))
	for i, t := range titles {
		byID[t.ID] = t
		args[i] = t.ID
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(titles)), ",")

	rows, err := s.db.QueryContext(ctx, `SELECT tg.title_id, g.id, g.name, g.slug
		FROM title_genres tg JOIN genres g ON g.id = tg.genre_id
		WHERE tg.title_id IN (`+placeholders+`) ORDER BY g.name, g.id`, args...)
	if err != nil {
		return fmt.Errorf("load title genres: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			titleID int64
			g       domain.Genre
		)
		if err := rows.Scan(&titleID, &g.ID, &g.Name, &g.Slug); err != nil {
			return fmt.Errorf("scan title genre: %w", err)
		}
		if t := byID[titleID]; t != nil {
			t.Genres = append(t.Genres, g)
		}
	}
	return rows.Err()
}

// DeleteTitle removes a title. Its reviews remain with a NULL title.
func (s *Store) DeleteTitle(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM titles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete title: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	if err := s.indexer().DeleteTitle(ctx, id); err != nil {
		s.logger.Warn("remove title from index failed", "title_id", id, "error", err)
	}
	return nil
}

// CountTitles returns the number of stored titles.
func (s *Store) CountTitles(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM titles`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count titles: %w", err)
	}
	return n, nil
}
