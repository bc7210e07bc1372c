package fixtures

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yamdb/yamdb-server/internal/authz"
	"github.com/yamdb/yamdb-server/internal/domain"
	domainerrors "github.com/yamdb/yamdb-server/internal/errors"
	"github.com/yamdb/yamdb-server/internal/service"
	"github.com/yamdb/yamdb-server/internal/store"
	"github.com/yamdb/yamdb-server/internal/store/sqlite"
	"github.com/yamdb/yamdb-server/internal/validation"
)

const sample = `
categories:
  - {name: Films, slug: films}
  - {name: Books, slug: books}
genres:
  - {name: Drama, slug: drama}
  - {name: Science Fiction, slug: sci-fi}
users:
  - {username: alice, email: alice@example.com, role: moderator}
  - {username: bob, email: bob@example.com}
titles:
  - name: Solaris
    year: 1972
    description: A station above an ocean.
    category: films
    genre: [drama, sci-fi]
  - {name: Roadside Picnic, year: 1972, category: books, genre: [sci-fi]}
reviews:
  - {title: Solaris, author: alice, text: Slow and great., score: 9}
  - {title: Solaris, author: bob, text: Too slow., score: 4}
comments:
  - {title: Solaris, review_author: bob, author: alice, text: Give it another try.}
`

func setupLoader(t *testing.T) (*Loader, *sqlite.Store) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st, err := sqlite.Open(filepath.Join(t.TempDir(), "fixtures.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	enforcer, err := authz.NewEnforcer()
	require.NoError(t, err)
	validator := validation.New()

	reviews := service.NewReviewService(st, enforcer, validator, logger)
	services := Services{
		Users:      service.NewUserService(st, enforcer, validator, logger),
		Categories: service.NewCategoryService(st, enforcer, validator, logger),
		Genres:     service.NewGenreService(st, enforcer, validator, logger),
		Titles:     service.NewTitleService(st, enforcer, validator, logger),
		Reviews:    reviews,
		Comments:   service.NewCommentService(st, reviews, enforcer, validator, logger),
	}
	return NewLoader(services, st, logger), st
}

func TestDecode(t *testing.T) {
	f, err := Decode(strings.NewReader(sample))
	require.NoError(t, err)

	assert.Len(t, f.Categories, 2)
	assert.Equal(t, []string{"drama", "sci-fi"}, f.Titles[0].Genre)
	assert.Equal(t, "bob", f.Comments[0].ReviewAuthor)

	empty, err := Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, empty.Titles)

	_, err = Decode(strings.NewReader("movies:\n  - {name: x}\n"))
	assert.Error(t, err, "unknown top-level key")
}

func TestLoader_Load(t *testing.T) {
	loader, st := setupLoader(t)
	ctx := context.Background()

	f, err := Decode(strings.NewReader(sample))
	require.NoError(t, err)

	sum, err := loader.Load(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, Summary{Categories: 2, Genres: 2, Users: 2, Titles: 2, Reviews: 2, Comments: 1}, sum)

	titles, err := st.ListTitles(ctx, store.TitleFilter{Name: "solaris"}, store.All)
	require.NoError(t, err)
	require.Len(t, titles.Items, 1)
	solaris := titles.Items[0]
	require.NotNil(t, solaris.Rating)
	assert.InDelta(t, 6.5, *solaris.Rating, 1e-9)
	assert.Equal(t, []string{"drama", "sci-fi"}, solaris.GenreSlugs())

	alice, err := st.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleModerator, alice.Role)
	assert.False(t, alice.IsSuperuser)
}

func TestLoader_StopsAtFirstInvalidRecord(t *testing.T) {
	loader, st := setupLoader(t)
	ctx := context.Background()

	f := &File{
		Categories: []Term{{Name: "Films", Slug: "films"}},
		Titles: []Title{
			{Name: "Solaris", Year: 1972, Category: "films", Genre: []string{"drama"}},
		},
	}

	sum, err := loader.Load(ctx, f)
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
	assert.Contains(t, err.Error(), `titles[0] "Solaris"`)
	assert.Equal(t, 1, sum.Categories)

	n, err := st.CountTitles(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLoader_UnknownReferences(t *testing.T) {
	loader, _ := setupLoader(t)
	ctx := context.Background()

	_, err := loader.Load(ctx, &File{Reviews: []Review{{Title: "Nope", Author: "alice", Text: "x", Score: 5}}})
	assert.ErrorContains(t, err, `unknown title "Nope"`)

	_, err = loader.Load(ctx, &File{Comments: []Comment{{Title: "Nope", ReviewAuthor: "bob", Author: "alice", Text: "x"}}})
	assert.ErrorContains(t, err, `no review of "Nope" by "bob"`)
}
