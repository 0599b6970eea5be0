package store

// Category is a persisted navigation category.
type Category struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Slug            string `json:"slug"`
	SourceURL       string `json:"source_url"`
	LastRefreshedAt int64  `json:"last_refreshed_at"` // ms
	CreatedAt       int64  `json:"created_at"`        // ms
}

// Product is a persisted product listing entry. CategorySlug is the
// physical encoding of the catalog key the record belongs to.
type Product struct {
	ID              string  `json:"id"`
	SourceID        string  `json:"source_id"`
	CategorySlug    string  `json:"category_slug"`
	Title           string  `json:"title"`
	Author          string  `json:"author,omitempty"`
	Price           float64 `json:"price"`
	Currency        string  `json:"currency"`
	ImageURL        string  `json:"image_url,omitempty"`
	SourceURL       string  `json:"source_url"`
	LastRefreshedAt int64   `json:"last_refreshed_at"` // ms
	CreatedAt       int64   `json:"created_at"`        // ms
}

// ProductDetail holds the lazily created detail row for a product.
type ProductDetail struct {
	ProductID    string  `json:"product_id"`
	Description  string  `json:"description"`
	RatingsAvg   float64 `json:"ratings_avg"`
	ReviewsCount int     `json:"reviews_count"`
	CreatedAt    int64   `json:"created_at"` // ms
}
