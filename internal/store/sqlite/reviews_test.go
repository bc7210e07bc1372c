package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/yamdb/yamdb-server/internal/domain"
	"github.com/yamdb/yamdb-server/internal/store"
)

func TestReview_CreateFillsNames(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	title := mustCreateTitle(t, s, "Alien", 1979)
	author := mustCreateUser(t, s, "ripley")

	r := &domain.Review{TitleID: &title.ID, AuthorID: author.ID, Text: "In space no one can hear you scream.", Score: 9}
	if err := s.CreateReview(ctx, r); err != nil {
		t.Fatalf("create review: %v", err)
	}
	if r.ID == 0 || r.AuthorUsername != "ripley" || r.TitleName != "Alien" || r.PubDate.IsZero() {
		t.Errorf("unexpected review: %+v", r)
	}
}

func TestReview_UniquePerAuthorAndTitle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	title := mustCreateTitle(t, s, "Aliens", 1986)
	author := mustCreateUser(t, s, "hicks")

	first := &domain.Review{TitleID: &title.ID, AuthorID: author.ID, Text: "Game over, man.", Score: 8}
	if err := s.CreateReview(ctx, first); err != nil {
		t.Fatalf("create review: %v", err)
	}

	exists, err := s.HasReview(ctx, title.ID, author.ID)
	if err != nil || !exists {
		t.Fatalf("HasReview = %v, %v", exists, err)
	}

	second := &domain.Review{TitleID: &title.ID, AuthorID: author.ID, Text: "again", Score: 2}
	if err := s.CreateReview(ctx, second); !errors.Is(err, store.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestReview_GetScopedToTitle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := mustCreateTitle(t, s, "A", 2000)
	b := mustCreateTitle(t, s, "B", 2001)
	author := mustCreateUser(t, s, "scoped")
	r := &domain.Review{TitleID: &a.ID, AuthorID: author.ID, Text: "on A", Score: 5}
	if err := s.CreateReview(ctx, r); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := s.GetReview(ctx, a.ID, r.ID); err != nil {
		t.Errorf("get under own title: %v", err)
	}
	if _, err := s.GetReview(ctx, b.ID, r.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound under other title, got %v", err)
	}
}

func TestReview_ListOrderAndScoreFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	title := mustCreateTitle(t, s, "Heat", 1995)
	for i, name := range []string{"first", "second", "third"} {
		u := mustCreateUser(t, s, name)
		score := 5
		if i == 1 {
			score = 9
		}
		if err := s.CreateReview(ctx, &domain.Review{TitleID: &title.ID, AuthorID: u.ID, Text: name, Score: score}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	all, err := s.ListReviews(ctx, title.ID, store.ReviewFilter{}, store.All)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if all.Total != 3 || all.Items[0].Text != "first" || all.Items[2].Text != "third" {
		t.Errorf("unexpected order: %+v", all.Items)
	}

	nines, err := s.ListReviews(ctx, title.ID, store.ReviewFilter{Score: 9}, store.All)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if nines.Total != 1 || nines.Items[0].Text != "second" {
		t.Errorf("unexpected score filter result: %+v", nines.Items)
	}
}

func TestReview_UpdateAndDeleteCascadesComments(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	title := mustCreateTitle(t, s, "Ran", 1985)
	author := mustCreateUser(t, s, "kuro")
	r := &domain.Review{TitleID: &title.ID, AuthorID: author.ID, Text: "epic", Score: 7}
	if err := s.CreateReview(ctx, r); err != nil {
		t.Fatalf("create: %v", err)
	}

	r.Text, r.Score = "masterpiece", 10
	if err := s.UpdateReview(ctx, r); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := s.GetReview(ctx, title.ID, r.ID)
	if err != nil || got.Score != 10 || got.Text != "masterpiece" {
		t.Fatalf("after update: %+v, %v", got, err)
	}

	c := &domain.Comment{ReviewID: r.ID, AuthorID: author.ID, Text: "agreed"}
	if err := s.CreateComment(ctx, c); err != nil {
		t.Fatalf("create comment: %v", err)
	}

	if err := s.DeleteReview(ctx, r.ID); err != nil {
		t.Fatalf("delete review: %v", err)
	}
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM comments`).Scan(&n); err != nil || n != 0 {
		t.Errorf("comments after review delete = %d, %v", n, err)
	}
	if err := s.DeleteReview(ctx, r.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestReview_ScoreCheckConstraint(t *testing.T) {
	s := newTestStore(t)
	title := mustCreateTitle(t, s, "Bounds", 2000)
	author := mustCreateUser(t, s, "bounds")

	err := s.CreateReview(context.Background(), &domain.Review{TitleID: &title.ID, AuthorID: author.ID, Text: "x", Score: 11})
	if err == nil {
		t.Fatal("expected CHECK constraint failure for score 11")
	}
}
