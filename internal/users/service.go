package users

import (
	"context"
	"database/sql"

	"bookbnb-backend/internal/books"
	"bookbnb-backend/internal/platform/apierr"
	"bookbnb-backend/internal/platform/id"
	"bookbnb-backend/internal/platform/paging"
)

type repository interface {
	Get(ctx context.Context, id string) (*Profile, error)
	Search(ctx context.Context, search, location string, p paging.Page) ([]Profile, int64, error)
	Stats(ctx context.Context, id string) (Stats, error)
	Reviews(ctx context.Context, id string) ([]Review, error)
	Verify(ctx context.Context, id string) error
}

// bookLister is the part of books.Service profiles need.
type bookLister interface {
	ByOwner(ctx context.Context, ownerID string, availableOnly bool, p paging.Page) (books.ListResult, error)
}

type Service struct {
	store repository
	books bookLister
}

func NewService(db *sql.DB, bookSvc *books.Service) *Service {
	return &Service{store: NewStore(db), books: bookSvc}
}

type SearchResult struct {
	Users []Profile
	Total int64
	Info  paging.Info
}

func (s *Service) Search(ctx context.Context, search, location string, p paging.Page) (SearchResult, error) {
	items, total, err := s.store.Search(ctx, search, location, p)
	if err != nil {
		return SearchResult{}, err
	}
	return SearchResult{Users: items, Total: total, Info: p.Info(total, len(items))}, nil
}

type ProfileResult struct {
	User  *Profile
	Books []books.Book
	Stats Stats
}

// Profile returns the public profile with the user's available books.
func (s *Service) Profile(ctx context.Context, userID string) (*ProfileResult, error) {
	u, err := s.get(ctx, userID)
	if err != nil {
		return nil, err
	}
	owned, err := s.books.ByOwner(ctx, u.ID, true, paging.All)
	if err != nil {
		return nil, err
	}
	st, err := s.store.Stats(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	return &ProfileResult{User: u, Books: owned.Books, Stats: st}, nil
}

func (s *Service) Books(ctx context.Context, userID string, availableOnly bool, p paging.Page) (books.ListResult, error) {
	return s.books.ByOwner(ctx, userID, availableOnly, p)
}

func (s *Service) Reviews(ctx context.Context, userID string) ([]Review, error) {
	u, err := s.get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.store.Reviews(ctx, u.ID)
}

// Verify marks the caller as verified. Users can only verify themselves.
func (s *Service) Verify(ctx context.Context, actor, userID string) (*Profile, error) {
	if actor != userID {
		return nil, apierr.Forbidden("Not authorized to verify other users")
	}
	if _, err := s.get(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.store.Verify(ctx, userID); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, userID)
}

func (s *Service) get(ctx context.Context, userID string) (*Profile, error) {
	if !id.Valid(userID) {
		return nil, errNotFound
	}
	return s.store.Get(ctx, userID)
}
