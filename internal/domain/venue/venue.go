// Package venue holds the venue details model and the normalization applied
// to loosely formatted attributes when they are read from storage.
package venue

// MaxReviews is the number of reviews returned with venue details.
const MaxReviews = 5

// Review is one review snippet attached to a venue.
type Review struct {
	Source string `json:"source"`
	Text   string `json:"review_text"`
}

// Venue is the full record of a place, as shown on its details page.
type Venue struct {
	ID              string
	Name            string
	Neighborhood    string
	Address         string
	Website         string
	InstagramHandle string
	Description     string
	Tags            []string
	Price           Price
	Hours           map[string]string
	Amenities       map[string]bool
	Reviews         []Review
}
