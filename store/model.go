package store

// Post is a short text post. PostID is assigned by the post repository and never changes.
type Post struct {
	PostID  uint64 `json:"post_id"`
	Content string `json:"content"`
}
