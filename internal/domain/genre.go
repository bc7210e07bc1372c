package domain

// Genre is a tag a title can carry any number of.
type Genre struct {
	ID   int64  `json:"-"`
	Name string `json:"name"`
	Slug string `json:"slug"` // URL-safe unique key: "science-fiction"
}

// Category is the single kind a title belongs to ("Books", "Films").
type Category struct {
	ID   int64  `json:"-"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}
