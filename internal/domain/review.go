package domain

import "time"

// Score bounds for a review.
const (
	MinScore = 1
	MaxScore = 10
)

// Review is a user's scored opinion about a title. A user reviews a title at most once.
type Review struct {
	ID             int64     `json:"id"`
	TitleID        *int64    `json:"-"` // nil once the title is deleted
	TitleName      string    `json:"title"`
	AuthorID       int64     `json:"-"`
	AuthorUsername string    `json:"author"`
	Text           string    `json:"text"`
	Score          int       `json:"score"`
	PubDate        time.Time `json:"pub_date"`
}

// Comment is a reply to a review.
type Comment struct {
	ID             int64     `json:"id"`
	ReviewID       int64     `json:"-"`
	ReviewText     string    `json:"review"`
	AuthorID       int64     `json:"-"`
	AuthorUsername string    `json:"author"`
	Text           string    `json:"text"`
	PubDate        time.Time `json:"pub_date"`
}
