// Package search provides full-text search over titles using Bleve.
// The index is a derived view of the relational store: it is updated on every
// title write and can be rebuilt from the store at any time.
package search

import (
	"strconv"

	"github.com/yamdb/yamdb-server/internal/domain"
)

// TitleDocument is the indexed form of a title.
type TitleDocument struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Year        int      `json:"year"`
	Category    string   `json:"category,omitempty"` // slug
	GenreSlugs  []string `json:"genre_slugs,omitempty"`
	GenreNames  []string `json:"genre_names,omitempty"`
}

// NewTitleDocument builds the document for t.
func NewTitleDocument(t *domain.Title) *TitleDocument {
	doc := &TitleDocument{
		ID:          docID(t.ID),
		Name:        t.Name,
		Description: t.Description,
		Year:        t.Year,
		GenreSlugs:  t.GenreSlugs(),
	}
	if t.Category != nil {
		doc.Category = t.Category.Slug
	}
	for _, g := range t.Genres {
		doc.GenreNames = append(doc.GenreNames, g.Name)
	}
	return doc
}

// ToMap converts the document to a map whose keys match the index mapping.
func (d *TitleDocument) ToMap() map[string]any {
	m := map[string]any{
		"id":   d.ID,
		"name": d.Name,
		"year": d.Year,
	}
	if d.Description != "" {
		m["description"] = d.Description
	}
	if d.Category != "" {
		m["category"] = d.Category
	}
	if len(d.GenreSlugs) > 0 {
		m["genre_slugs"] = d.GenreSlugs
	}
	if len(d.GenreNames) > 0 {
		m["genre_names"] = d.GenreNames
	}
	return m
}

func docID(id int64) string {
	return strconv.FormatInt(id, 10)
}
