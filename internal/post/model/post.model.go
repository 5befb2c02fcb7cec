package model

// Status tags a Response as a success or a failure.
type Status int

const (
	StatusOk Status = iota
	StatusErr
)

func (s Status) String() string {
	if s == StatusOk {
		return "ok"
	}
	return "err"
}

// Response is the envelope every post repository operation returns.
// Value is still meaningful on failure: it is what gets written to the client.
type Response[T any] struct {
	Status Status
	Value  T
}

func Ok[T any](value T) Response[T] {
	return Response[T]{Status: StatusOk, Value: value}
}

func Err[T any](value T) Response[T] {
	return Response[T]{Status: StatusErr, Value: value}
}

// IsOk reports whether the operation succeeded.
func (r Response[T]) IsOk() bool {
	return r.Status == StatusOk
}

// Required fields are pointers so a missing key can be told apart from a zero value.
type CreatePostRequest struct {
	Content *string `json:"content"`
}

type UpdatePostRequest struct {
	PostID         *uint64 `json:"post_id"`
	UpdatedContent *string `json:"updated_content"`
}

// Event types pushed to realtime subscribers.
const (
	EventCreated = "CREATED"
	EventUpdated = "UPDATED"
	EventDeleted = "DELETED"
)

// PostEvent describes a successful mutation. Content is empty for deletions.
type PostEvent struct {
	Type    string `json:"type"`
	PostID  uint64 `json:"post_id"`
	Content string `json:"content,omitempty"`
}
