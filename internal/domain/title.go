package domain

// Title is a reviewable work.
type Title struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Year        int       `json:"year"`
	Description string    `json:"description"`
	Category    *Category `json:"category"` // nil once the category is deleted
	Genres      []Genre   `json:"genre"`

	// Rating is the mean review score, nil when the title has no reviews.
	// It is computed on read and never stored.
	Rating *float64 `json:"rating"`
}

// GenreSlugs returns the slugs of the title's genres in order.
func (t *Title) GenreSlugs() []string {
	slugs := make([]string, len(t.Genres))
	for i, g := range t.Genres {
		slugs[i] = g.Slug
	}
	return slugs
}
