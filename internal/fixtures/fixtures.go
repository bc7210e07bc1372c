// Package fixtures loads catalog and community data from YAML files.
//
// A fixture file looks like:
//
//	categories:
//	  - {name: Films, slug: films}
//	genres:
//	  - {name: Drama, slug: drama}
//	users:
//	  - {username: alice, email: alice@example.com, role: moderator}
//	titles:
//	  - {name: Solaris, year: 1972, category: films, genre: [drama]}
//	reviews:
//	  - {title: Solaris, author: alice, text: Slow and great., score: 9}
//	comments:
//	  - {title: Solaris, review_author: alice, author: alice, text: Agreed.}
//
// Reviews name their title by its name, comments name their review by the
// title and the review's author. Everything goes through the services, so the
// same validation applies as over HTTP.
package fixtures

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/yamdb/yamdb-server/internal/domain"
	"github.com/yamdb/yamdb-server/internal/service"
)

// File is the decoded content of a fixture file.
type File struct {
	Categories []Term    `yaml:"categories"`
	Genres     []Term    `yaml:"genres"`
	Users      []User    `yaml:"users"`
	Titles     []Title   `yaml:"titles"`
	Reviews    []Review  `yaml:"reviews"`
	Comments   []Comment `yaml:"comments"`
}

// Term is a category or a genre.
type Term struct {
	Name string `yaml:"name"`
	Slug string `yaml:"slug"`
}

// User is an account.
type User struct {
	Username  string `yaml:"username"`
	Email     string `yaml:"email"`
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
	Bio       string `yaml:"bio"`
	Role      string `yaml:"role"`
}

// Title references its category and genres by slug.
type Title struct {
	Name        string   `yaml:"name"`
	Year        int      `yaml:"year"`
	Description string   `yaml:"description"`
	Category    string   `yaml:"category"`
	Genre       []string `yaml:"genre"`
}

// Review is written by Author about the title named Title.
type Review struct {
	Title  string `yaml:"title"`
	Author string `yaml:"author"`
	Text   string `yaml:"text"`
	Score  int    `yaml:"score"`
}

// Comment replies to the review ReviewAuthor wrote about Title.
type Comment struct {
	Title        string `yaml:"title"`
	ReviewAuthor string `yaml:"review_author"`
	Author       string `yaml:"author"`
	Text         string `yaml:"text"`
}

// Decode parses a fixture file. Unknown keys are rejected.
func Decode(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}
	return &f, nil
}

// Summary counts the records a load created.
type Summary struct {
	Categories int
	Genres     int
	Users      int
	Titles     int
	Reviews    int
	Comments   int
}

// Services are the services a load writes through.
type Services struct {
	Users      *service.UserService
	Categories *service.CategoryService
	Genres     *service.GenreService
	Titles     *service.TitleService
	Reviews    *service.ReviewService
	Comments   *service.CommentService
}

// UserLookup resolves review and comment authors.
type UserLookup interface {
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
}

// Loader writes fixture files.
type Loader struct {
	services Services
	users    UserLookup
	logger   *slog.Logger
}

// NewLoader creates a loader.
func NewLoader(services Services, users UserLookup, logger *slog.Logger) *Loader {
	return &Loader{services: services, users: users, logger: logger}
}

// operator performs catalog and account writes during a load.
var operator = &domain.User{Username: "loaddata", Role: domain.RoleAdmin, IsSuperuser: true}

type reviewKey struct {
	title  string
	author string
}

// Load creates every record of f in dependency order and stops at the first failure.
// Records created before the failure are kept.
func (l *Loader) Load(ctx context.Context, f *File) (Summary, error) {
	var sum Summary

	for i, c := range f.Categories {
		if _, err := l.services.Categories.Create(ctx, operator, service.TermRequest{Name: c.Name, Slug: c.Slug}); err != nil {
			return sum, fmt.Errorf("categories[%d] %q: %w", i, c.Slug, err)
		}
		sum.Categories++
	}

	for i, g := range f.Genres {
		if _, err := l.services.Genres.Create(ctx, operator, service.TermRequest{Name: g.Name, Slug: g.Slug}); err != nil {
			return sum, fmt.Errorf("genres[%d] %q: %w", i, g.Slug, err)
		}
		sum.Genres++
	}

	for i, u := range f.Users {
		_, err := l.services.Users.Create(ctx, operator, service.CreateUserRequest{
			Username:  u.Username,
			Email:     u.Email,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Bio:       u.Bio,
			Role:      domain.Role(u.Role),
		})
		if err != nil {
			return sum, fmt.Errorf("users[%d] %q: %w", i, u.Username, err)
		}
		sum.Users++
	}

	titles := make(map[string]int64, len(f.Titles))
	for i, t := range f.Titles {
		if _, dup := titles[t.Name]; dup {
			return sum, fmt.Errorf("titles[%d]: duplicate title name %q", i, t.Name)
		}
		created, err := l.services.Titles.Create(ctx, operator, service.CreateTitleRequest{
			Name:        t.Name,
			Year:        t.Year,
			Description: t.Description,
			Category:    t.Category,
			Genre:       t.Genre,
		})
		if err != nil {
			return sum, fmt.Errorf("titles[%d] %q: %w", i, t.Name, err)
		}
		titles[t.Name] = created.ID
		sum.Titles++
	}

	reviews := make(map[reviewKey]int64, len(f.Reviews))
	for i, r := range f.Reviews {
		titleID, ok := titles[r.Title]
		if !ok {
			return sum, fmt.Errorf("reviews[%d]: unknown title %q", i, r.Title)
		}
		author, err := l.users.GetUserByUsername(ctx, r.Author)
		if err != nil {
			return sum, fmt.Errorf("reviews[%d]: author %q: %w", i, r.Author, err)
		}
		created, err := l.services.Reviews.Create(ctx, author, titleID, service.CreateReviewRequest{Text: r.Text, Score: r.Score})
		if err != nil {
			return sum, fmt.Errorf("reviews[%d] on %q: %w", i, r.Title, err)
		}
		reviews[reviewKey{title: r.Title, author: r.Author}] = created.ID
		sum.Reviews++
	}

	for i, c := range f.Comments {
		reviewID, ok := reviews[reviewKey{title: c.Title, author: c.ReviewAuthor}]
		if !ok {
			return sum, fmt.Errorf("comments[%d]: no review of %q by %q", i, c.Title, c.ReviewAuthor)
		}
		author, err := l.users.GetUserByUsername(ctx, c.Author)
		if err != nil {
			return sum, fmt.Errorf("comments[%d]: author %q: %w", i, c.Author, err)
		}
		if _, err := l.services.Comments.Create(ctx, author, titles[c.Title], reviewID, service.CommentRequest{Text: c.Text}); err != nil {
			return sum, fmt.Errorf("comments[%d]: %w", i, err)
		}
		sum.Comments++
	}

	l.logger.Info("fixtures loaded",
		"categories", sum.Categories,
		"genres", sum.Genres,
		"users", sum.Users,
		"titles", sum.Titles,
		"reviews", sum.Reviews,
		"comments", sum.Comments,
	)
	return sum, nil
}
