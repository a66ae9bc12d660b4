//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

// TopLikedLimit is how many listings the dashboard ranks by likes.
const TopLikedLimit = 5

// PropertyStats aggregates catalog counters for the admin dashboard.
type PropertyStats struct {
	Total      int `json:"total"      db:"total"`
	Available  int `json:"available"  db:"available"`
	Sold       int `json:"sold"       db:"sold"`
	TotalLikes int `json:"total_likes" db:"total_likes"`
}

// Dashboard is everything the admin landing page shows.
type Dashboard struct {
	Stats    PropertyStats `json:"stats"`
	TopLiked []*Property   `json:"top_liked"`
	Recent   []*Property   `json:"recent"`
	Pending  int           `json:"pending_users"`
}

// LikeResult reports the visitor's like state after a toggle.
type LikeResult struct {
	PropertyID string `json:"property_id"`
	Liked      bool   `json:"liked"`
	Likes      int    `json:"likes"`
}
