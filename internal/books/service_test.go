package books

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookbnb-backend/internal/platform/apierr"
	"bookbnb-backend/internal/platform/id"
	"bookbnb-backend/internal/platform/paging"
)

type memStore struct {
	books map[string]*Book
	// 貸出中として扱う本
	held map[string]bool
}

func newMemStore() *memStore {
	return &memStore{books: map[string]*Book{}, held: map[string]bool{}}
}

func (m *memStore) Get(_ context.Context, id string) (*Book, error) {
	b, ok := m.books[id]
	if !ok {
		return nil, errNotFound
	}
	cp := *b
	cp.Owner.ID = cp.OwnerID
	return &cp, nil
}

func (m *memStore) List(_ context.Context, f Filter, p paging.Page) ([]Book, int64, error) {
	var out []Book
	for _, b := range m.books {
		if f.OwnerID != "" && b.OwnerID != f.OwnerID {
			continue
		}
		if f.AvailableOnly && !b.IsAvailable {
			continue
		}
		out = append(out, *b)
	}
	return out, int64(len(out)), nil
}

func (m *memStore) Create(_ context.Context, b *Book) error {
	cp := *b
	m.books[b.ID] = &cp
	return nil
}

func (m *memStore) Update(_ context.Context, b *Book) error {
	cp := *b
	m.books[b.ID] = &cp
	return nil
}

func (m *memStore) Delete(_ context.Context, id string) error {
	if m.held[id] {
		return errOnLoan
	}
	delete(m.books, id)
	return nil
}

func (m *memStore) SetAvailability(_ context.Context, id string, available bool, _ time.Time) error {
	if available && m.held[id] {
		return errOnLoan
	}
	m.books[id].IsAvailable = available
	return nil
}

func (m *memStore) Count(context.Context) (int64, error) { return int64(len(m.books)), nil }

var fixedNow = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestService() (*Service, *memStore) {
	st := newMemStore()
	return &Service{store: st, now: func() time.Time { return fixedNow }}, st
}

func ptr[T any](v T) *T { return &v }

func gatsby() Input {
	return Input{
		Title:       ptr("The Great Gatsby"),
		Author:      ptr("F. Scott Fitzgerald"),
		Description: ptr("A classic American novel."),
		Genre:       ptr("  classic   fiction "),
		Location:    ptr("New York"),
		DailyRate:   ptr(2.0),
		WeeklyRate:  ptr(10.0),
		MonthlyRate: ptr(30.0),
		Tags:        []string{"Classic", " american ", "classic", ""},
	}
}

func TestCreate_Defaults(t *testing.T) {
	s, _ := newTestService()
	owner := id.New()

	b, err := s.Create(context.Background(), owner, gatsby())
	require.NoError(t, err)
	assert.Equal(t, owner, b.OwnerID)
	assert.True(t, b.IsAvailable)
	assert.Equal(t, ConditionGood, b.Condition)
	assert.Equal(t, "English", b.Language)
	assert.Equal(t, "Classic Fiction", b.Genre)
	assert.Equal(t, []string{"classic", "american"}, b.Tags)
	assert.True(t, b.Deposit.IsZero())
	assert.True(t, b.WeeklyRate.Decimal.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, fixedNow, b.CreatedAt)
}

func TestCreate_Validation(t *testing.T) {
	s, st := newTestService()

	in := gatsby()
	in.Title = ptr(" ")
	_, err := s.Create(context.Background(), id.New(), in)
	assert.True(t, apierr.Is(err, apierr.CodeInvalidArgument))

	in = gatsby()
	in.DailyRate = ptr(0.0)
	in.Condition = ptr("Mint")
	in.PublishedYear = ptr(2999)
	_, err = s.Create(context.Background(), id.New(), in)
	var api *apierr.APIError
	require.ErrorAs(t, err, &api)
	assert.Len(t, api.Fields, 3)
	assert.Empty(t, st.books)
}

func TestCreate_LimitsCountCharacters(t *testing.T) {
	s, _ := newTestService()

	in := gatsby()
	in.Description = ptr(strings.Repeat("本", 1000))
	in.Rules = []string{strings.Repeat("é", 200)}
	b, err := s.Create(context.Background(), id.New(), in)
	require.NoError(t, err)
	assert.Equal(t, 1000, len([]rune(b.Description)))

	in.Rules = []string{strings.Repeat("é", 201)}
	_, err = s.Create(context.Background(), id.New(), in)
	assert.True(t, apierr.Is(err, apierr.CodeInvalidArgument))
}

func TestUpdate_OwnerOnly(t *testing.T) {
	s, _ := newTestService()
	owner := id.New()
	b, err := s.Create(context.Background(), owner, gatsby())
	require.NoError(t, err)

	_, err = s.Update(context.Background(), id.New(), b.ID, Input{Title: ptr("Stolen")})
	assert.True(t, apierr.Is(err, apierr.CodeForbidden))

	got, err := s.Update(context.Background(), owner, b.ID, Input{Title: ptr("Gatsby"), MonthlyRate: ptr(25.5)})
	require.NoError(t, err)
	assert.Equal(t, "Gatsby", got.Title)
	assert.Equal(t, "F. Scott Fitzgerald", got.Author)
	assert.Equal(t, owner, got.OwnerID)
	assert.True(t, got.MonthlyRate.Decimal.Equal(decimal.RequireFromString("25.5")))
}

func TestDeleteAndAvailability_RespectLoans(t *testing.T) {
	ctx := context.Background()
	s, st := newTestService()
	owner := id.New()
	b, err := s.Create(ctx, owner, gatsby())
	require.NoError(t, err)

	st.held[b.ID] = true
	st.books[b.ID].IsAvailable = false

	_, err = s.SetAvailability(ctx, owner, b.ID, true)
	assert.True(t, apierr.Is(err, apierr.CodeInvalidState))
	err = s.Delete(ctx, owner, b.ID)
	assert.True(t, apierr.Is(err, apierr.CodeInvalidState))

	st.held[b.ID] = false
	got, err := s.SetAvailability(ctx, owner, b.ID, true)
	require.NoError(t, err)
	assert.True(t, got.IsAvailable)

	assert.True(t, apierr.Is(s.Delete(ctx, id.New(), b.ID), apierr.CodeForbidden))
	require.NoError(t, s.Delete(ctx, owner, b.ID))
	_, err = s.Get(ctx, b.ID)
	assert.True(t, apierr.Is(err, apierr.CodeNotFound))
}

func TestGet_MalformedID(t *testing.T) {
	s, _ := newTestService()
	_, err := s.Get(context.Background(), "507f1f77bcf86cd799439011")
	assert.True(t, apierr.Is(err, apierr.CodeNotFound))
}

func TestAverageRating(t *testing.T) {
	b := &Book{}
	assert.Equal(t, 0.0, b.AverageRating())
	b.RatingSum, b.TotalRatings = 14, 3
	assert.Equal(t, 4.7, b.AverageRating())
}
