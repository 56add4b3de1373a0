// Package model defines the data structures shared by the ansaNewsBot packages: news
// categories with their feed watermarks, the items pulled from a feed during one poll cycle,
// the enriched posts delivered to subscribers and the destinations receiving them.
package model

type Category struct {
	ID        int64  `db:"category_id" json:"id"`
	Name      string `db:"name" json:"name"`
	FeedURL   string `db:"feed" json:"feed_url"`
	Watermark int64  `db:"epoch" json:"watermark"`
}

// Item is a single feed entry. It only lives for the duration of a poll cycle.
type Item struct {
	CategoryID int64
	Title      string
	Link       string
	PubDate    string
	Epoch      int64
}

type Post struct {
	Title       string
	Description string
	ImageURL    string
	Link        string
}

type Destination struct {
	ID   int64  `db:"channel_id" json:"id"`
	Name string `db:"channel_name" json:"name"`
}

// Batch holds the enriched posts of one category ordered oldest-first.
type Batch struct {
	Category Category
	Posts    []Post
}

// Latest returns the most recent post of the batch.
func (b Batch) Latest() Post {
	return b.Posts[len(b.Posts)-1]
}
