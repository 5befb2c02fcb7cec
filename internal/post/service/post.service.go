package service

import (
	"context"
	"errors"
	"time"

	"postserver/internal/post/model"
	"postserver/internal/post/repository"
	"postserver/pkg/logger"
	"postserver/pkg/metrics"
	"postserver/store"
)

const publishTimeout = 2 * time.Second

// EventPublisher receives an event after every successful mutation.
type EventPublisher interface {
	Publish(ctx context.Context, event model.PostEvent) error
}

// Publishers fans one event out to several publishers.
type Publishers []EventPublisher

func (ps Publishers) Publish(ctx context.Context, event model.PostEvent) error {
	var errs []error
	for _, p := range ps {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PostService runs each request against the shared post store under its guard.
type PostService struct {
	Guard     *repository.Guard
	Publisher EventPublisher
}

// NewPostService wires the service. publisher may be nil.
func NewPostService(guard *repository.Guard, publisher EventPublisher) *PostService {
	return &PostService{Guard: guard, Publisher: publisher}
}

// run holds the guard for the whole of fn. If the guard cannot be taken it
// returns an Err envelope carrying fallback, so callers never see the lock error.
func run[T any](ctx context.Context, guard *repository.Guard, operation string, fallback T, fn func(db *repository.PostDb) model.Response[T]) model.Response[T] {
	var resp model.Response[T]
	err := guard.Do(ctx, func(db *repository.PostDb) {
		resp = fn(db)
		metrics.Posts.Set(float64(db.Len()))
	})
	if err != nil {
		logger.FromContext(ctx).Errorf("Service: %s could not get the post store lock: %v", operation, err)
		metrics.RecordLockFailure(operation)
		return model.Err(fallback)
	}
	metrics.RecordOperation(operation, resp.Status.String())
	if !resp.IsOk() {
		logger.FromContext(ctx).Debugf("Service: %s found no matching post", operation)
	}
	return resp
}

// GetPosts never fails on a healthy store; on lock failure the payload is an empty list.
func (s *PostService) GetPosts(ctx context.Context) model.Response[[]store.Post] {
	return run(ctx, s.Guard, "get_posts", []store.Post{}, func(db *repository.PostDb) model.Response[[]store.Post] {
		return model.Ok(db.GetPosts())
	})
}

func (s *PostService) GetPost(ctx context.Context, id uint64) model.Response[*store.Post] {
	return run[*store.Post](ctx, s.Guard, "get_post", nil, func(db *repository.PostDb) model.Response[*store.Post] {
		return db.GetPost(id)
	})
}

func (s *PostService) CreatePost(ctx context.Context, content string) model.Response[uint64] {
	resp := run[uint64](ctx, s.Guard, "create_post", 0, func(db *repository.PostDb) model.Response[uint64] {
		return db.CreatePost(content)
	})
	if resp.IsOk() {
		s.publish(ctx, model.PostEvent{Type: model.EventCreated, PostID: resp.Value, Content: content})
	}
	return resp
}

func (s *PostService) UpdatePost(ctx context.Context, id uint64, updatedContent string) model.Response[*uint64] {
	resp := run[*uint64](ctx, s.Guard, "update_post", nil, func(db *repository.PostDb) model.Response[*uint64] {
		return db.UpdatePost(id, updatedContent)
	})
	if resp.IsOk() {
		s.publish(ctx, model.PostEvent{Type: model.EventUpdated, PostID: id, Content: updatedContent})
	}
	return resp
}

func (s *PostService) DeletePost(ctx context.Context, id uint64) model.Response[*uint64] {
	resp := run[*uint64](ctx, s.Guard, "delete_post", nil, func(db *repository.PostDb) model.Response[*uint64] {
		return db.DeletePost(id)
	})
	if resp.IsOk() {
		s.publish(ctx, model.PostEvent{Type: model.EventDeleted, PostID: id})
	}
	return resp
}

// publish runs after the lock is released, so subscribers may see events from
// concurrent requests in a different order than the store applied them.
func (s *PostService) publish(ctx context.Context, event model.PostEvent) {
	if s.Publisher == nil {
		return
	}
	// The mutation is done; a client hanging up must not swallow the event.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.Publisher.Publish(ctx, event); err != nil {
		logger.FromContext(ctx).Warnf("Service: failed to publish %s event for post %d: %v", event.Type, event.PostID, err)
	}
}
