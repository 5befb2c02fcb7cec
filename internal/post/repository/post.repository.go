package repository

import (
	"postserver/internal/post/model"
	"postserver/store"
)

// PostDb is the ordered in-memory collection of posts.
// It does no locking of its own; callers go through a Guard.
type PostDb struct {
	posts []store.Post
}

func NewPostDb() *PostDb {
	return &PostDb{posts: []store.Post{}}
}

// Len returns the number of live posts.
func (db *PostDb) Len() int {
	return len(db.posts)
}

// GetPosts returns a copy of every post in insertion order. Never nil.
func (db *PostDb) GetPosts() []store.Post {
	out := make([]store.Post, len(db.posts))
	copy(out, db.posts)
	return out
}

func (db *PostDb) GetPost(id uint64) model.Response[*store.Post] {
	if i := db.indexOf(id); i >= 0 {
		p := db.posts[i]
		return model.Ok(&p)
	}
	return model.Err[*store.Post](nil)
}

// CreatePost appends a post and returns its new id. It cannot fail.
func (db *PostDb) CreatePost(content string) model.Response[uint64] {
	id := db.nextPostID(uint64(len(db.posts)) + 1)
	db.posts = append(db.posts, store.Post{PostID: id, Content: content})
	return model.Ok(id)
}

func (db *PostDb) UpdatePost(id uint64, updatedContent string) model.Response[*uint64] {
	i := db.indexOf(id)
	if i < 0 {
		return model.Err[*uint64](nil)
	}
	db.posts[i].Content = updatedContent
	return model.Ok(&id)
}

func (db *PostDb) DeletePost(id uint64) model.Response[*uint64] {
	i := db.indexOf(id)
	if i < 0 {
		return model.Err[*uint64](nil)
	}
	removed := db.posts[i].PostID
	db.posts = append(db.posts[:i], db.posts[i+1:]...)
	return model.Ok(&removed)
}

// nextPostID walks up from candidate until it finds an id no live post holds.
// Starting from count+1 means a freed low id is not handed out again while the
// count stays below it: after 1,2 and delete(1) the next id is 3, not 1.
func (db *PostDb) nextPostID(candidate uint64) uint64 {
	for db.indexOf(candidate) >= 0 {
		candidate++
	}
	return candidate
}

func (db *PostDb) indexOf(id uint64) int {
	for i := range db.posts {
		if db.posts[i].PostID == id {
			return i
		}
	}
	return -1
}
