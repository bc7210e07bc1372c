package sqlite

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/yamdb/yamdb-server/internal/domain"
	"github.com/yamdb/yamdb-server/internal/store"
)

type recordingIndexer struct {
	mu      sync.Mutex
	indexed map[int64]*domain.Title
	calls   int
	deleted []int64
}

func (r *recordingIndexer) IndexTitle(_ context.Context, t *domain.Title) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.indexed == nil {
		r.indexed = map[int64]*domain.Title{}
	}
	r.indexed[t.ID] = t
	r.calls++
	return nil
}

func (r *recordingIndexer) DeleteTitle(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, id)
	return nil
}

func TestTitle_CreateGetWithRelations(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	films := &domain.Category{Name: "Films", Slug: "films"}
	if err := s.CreateCategory(ctx, films); err != nil {
		t.Fatalf("create category: %v", err)
	}
	scifi := &domain.Genre{Name: "Sci-Fi", Slug: "sci-fi"}
	drama := &domain.Genre{Name: "Drama", Slug: "drama"}
	for _, g := range []*domain.Genre{scifi, drama} {
		if err := s.CreateGenre(ctx, g); err != nil {
			t.Fatalf("create genre: %v", err)
		}
	}

	title := &domain.Title{
		Name:        "Solaris",
		Year:        1972,
		Description: "A psychologist is sent to a station orbiting a distant planet.",
		Category:    films,
		Genres:      []domain.Genre{*scifi, *drama},
	}
	if err := s.CreateTitle(ctx, title); err != nil {
		t.Fatalf("create title: %v", err)
	}

	got, err := s.GetTitle(ctx, title.ID)
	if err != nil {
		t.Fatalf("get title: %v", err)
	}
	if got.Category == nil || got.Category.Slug != "films" {
		t.Errorf("category = %+v", got.Category)
	}
	if len(got.Genres) != 2 || got.Genres[0].Slug != "drama" || got.Genres[1].Slug != "sci-fi" {
		t.Errorf("genres = %+v", got.Genres)
	}
	if got.Rating != nil {
		t.Errorf("rating without reviews should be nil, got %v", *got.Rating)
	}
}

func TestTitle_GetMissing(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetTitle(context.Background(), 404); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestTitle_RatingIsMeanOfScores(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	title := mustCreateTitle(t, s, "Stalker", 1979)
	for i, score := range []int{10, 7, 8} {
		author := mustCreateUser(t, s, []string{"ann", "bob", "cid"}[i])
		r := &domain.Review{TitleID: &title.ID, AuthorID: author.ID, Text: "review", Score: score}
		if err := s.CreateReview(ctx, r); err != nil {
			t.Fatalf("create review: %v", err)
		}
	}

	got, err := s.GetTitle(ctx, title.ID)
	if err != nil {
		t.Fatalf("get title: %v", err)
	}
	if got.Rating == nil || *got.Rating < 8.333 || *got.Rating > 8.334 {
		t.Errorf("rating = %v, want 8.333...", got.Rating)
	}
}

func TestTitle_ListFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	books := &domain.Category{Name: "Books", Slug: "books"}
	films := &domain.Category{Name: "Films", Slug: "films"}
	for _, c := range []*domain.Category{books, films} {
		if err := s.CreateCategory(ctx, c); err != nil {
			t.Fatalf("create category: %v", err)
		}
	}
	fantasy := &domain.Genre{Name: "Fantasy", Slug: "fantasy"}
	if err := s.CreateGenre(ctx, fantasy); err != nil {
		t.Fatalf("create genre: %v", err)
	}

	for _, title := range []*domain.Title{
		{Name: "The Hobbit", Year: 1937, Category: books, Genres: []domain.Genre{*fantasy}},
		{Name: "The Hobbit: An Unexpected Journey", Year: 2012, Category: films, Genres: []domain.Genre{*fantasy}},
		{Name: "Heat", Year: 1995, Category: films},
	} {
		if err := s.CreateTitle(ctx, title); err != nil {
			t.Fatalf("create title: %v", err)
		}
	}

	tests := []struct {
		name   string
		filter store.TitleFilter
		want   []string
	}{
		{"no filter ordered by year", store.TitleFilter{}, []string{"The Hobbit", "Heat", "The Hobbit: An Unexpected Journey"}},
		{"category", store.TitleFilter{Category: "films"}, []string{"Heat", "The Hobbit: An Unexpected Journey"}},
		{"genre", store.TitleFilter{Genre: "fantasy"}, []string{"The Hobbit", "The Hobbit: An Unexpected Journey"}},
		{"name case-insensitive", store.TitleFilter{Name: "hobBIT"}, []string{"The Hobbit", "The Hobbit: An Unexpected Journey"}},
		{"year", store.TitleFilter{Year: 1995}, []string{"Heat"}},
		{"combined", store.TitleFilter{Category: "films", Genre: "fantasy"}, []string{"The Hobbit: An Unexpected Journey"}},
		{"no match", store.TitleFilter{Genre: "horror"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.ListTitles(ctx, tt.filter, store.All)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if res.Total != len(tt.want) || len(res.Items) != len(tt.want) {
				t.Fatalf("got %d items (total %d), want %d", len(res.Items), res.Total, len(tt.want))
			}
			for i, name := range tt.want {
				if res.Items[i].Name != name {
					t.Errorf("item %d = %q, want %q", i, res.Items[i].Name, name)
				}
			}
		})
	}
}

func TestTitle_UpdateReplacesGenres(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := &domain.Genre{Name: "A", Slug: "a"}
	b := &domain.Genre{Name: "B", Slug: "b"}
	for _, g := range []*domain.Genre{a, b} {
		if err := s.CreateGenre(ctx, g); err != nil {
			t.Fatalf("create genre: %v", err)
		}
	}
	title := &domain.Title{Name: "Old", Year: 2000, Genres: []domain.Genre{*a}}
	if err := s.CreateTitle(ctx, title); err != nil {
		t.Fatalf("create: %v", err)
	}

	title.Name = "New"
	title.Genres = []domain.Genre{*b}
	if err := s.UpdateTitle(ctx, title); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := s.GetTitle(ctx, title.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "New" || len(got.Genres) != 1 || got.Genres[0].Slug != "b" {
		t.Errorf("unexpected title after update: %+v", got)
	}

	missing := &domain.Title{ID: 999, Name: "x", Year: 1}
	if err := s.UpdateTitle(ctx, missing); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestTitle_DeleteKeepsReviewsWithNullTitle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	title := mustCreateTitle(t, s, "Doomed", 2010)
	author := mustCreateUser(t, s, "critic")
	r := &domain.Review{TitleID: &title.ID, AuthorID: author.ID, Text: "meh", Score: 4}
	if err := s.CreateReview(ctx, r); err != nil {
		t.Fatalf("create review: %v", err)
	}

	if err := s.DeleteTitle(ctx, title.ID); err != nil {
		t.Fatalf("delete title: %v", err)
	}

	orphan, err := s.getReview(ctx, r.ID)
	if err != nil {
		t.Fatalf("review should survive title deletion: %v", err)
	}
	if orphan.TitleID != nil {
		t.Errorf("expected NULL title, got %d", *orphan.TitleID)
	}
}

func TestTitle_SearchIndexerHooks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	idx := &recordingIndexer{}
	s.SetSearchIndexer(idx)

	title := mustCreateTitle(t, s, "Indexed", 2020)
	if idx.indexed[title.ID] == nil || idx.indexed[title.ID].Name != "Indexed" {
		t.Fatalf("title not indexed on create: %+v", idx.indexed)
	}

	// Review writes leave indexed documents alone.
	author := mustCreateUser(t, s, "rater")
	review := &domain.Review{TitleID: &title.ID, AuthorID: author.ID, Text: "ok", Score: 6}
	if err := s.CreateReview(ctx, review); err != nil {
		t.Fatalf("create review: %v", err)
	}
	review.Score = 8
	if err := s.UpdateReview(ctx, review); err != nil {
		t.Fatalf("update review: %v", err)
	}
	if err := s.DeleteReview(ctx, review.ID); err != nil {
		t.Fatalf("delete review: %v", err)
	}
	if err := s.DeleteUser(ctx, author.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	if idx.calls != 1 {
		t.Errorf("IndexTitle calls = %d, want 1", idx.calls)
	}

	if err := s.DeleteTitle(ctx, title.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(idx.deleted) != 1 || idx.deleted[0] != title.ID {
		t.Errorf("deleted = %v", idx.deleted)
	}

	n, err := s.CountTitles(ctx)
	if err != nil || n != 0 {
		t.Errorf("CountTitles = %d, %v", n, err)
	}
}
