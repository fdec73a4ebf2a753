package books

import (
	"context"
	"database/sql"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"bookbnb-backend/internal/platform/apierr"
	"bookbnb-backend/internal/platform/id"
	"bookbnb-backend/internal/platform/paging"
)

type repository interface {
	Get(ctx context.Context, id string) (*Book, error)
	List(ctx context.Context, f Filter, p paging.Page) ([]Book, int64, error)
	Create(ctx context.Context, b *Book) error
	Update(ctx context.Context, b *Book) error
	Delete(ctx context.Context, id string) error
	SetAvailability(ctx context.Context, id string, available bool, at time.Time) error
	Count(ctx context.Context) (int64, error)
}

type Service struct {
	store repository
	now   func() time.Time
}

func NewService(db *sql.DB) *Service {
	return &Service{store: NewStore(db), now: func() time.Time { return time.Now().UTC() }}
}

type ListResult struct {
	Books []Book
	Total int64
	Info  paging.Info
}

func (s *Service) List(ctx context.Context, f Filter, p paging.Page) (ListResult, error) {
	items, total, err := s.store.List(ctx, f, p)
	if err != nil {
		return ListResult{}, err
	}
	return ListResult{Books: items, Total: total, Info: p.Info(total, len(items))}, nil
}

// ByOwner lists an owner's books, newest first.
func (s *Service) ByOwner(ctx context.Context, ownerID string, availableOnly bool, p paging.Page) (ListResult, error) {
	if !id.Valid(ownerID) {
		return ListResult{Books: []Book{}, Info: p.Info(0, 0)}, nil
	}
	return s.List(ctx, Filter{OwnerID: ownerID, AvailableOnly: availableOnly}, p)
}

func (s *Service) Get(ctx context.Context, bookID string) (*Book, error) {
	if !id.Valid(bookID) {
		return nil, errNotFound
	}
	return s.store.Get(ctx, bookID)
}

func (s *Service) Count(ctx context.Context) (int64, error) { return s.store.Count(ctx) }

// Input carries the editable listing fields. nil leaves a field unchanged
// on update.
type Input struct {
	Title         *string
	Author        *string
	ISBN          *string
	Description   *string
	Genre         *string
	Condition     *string
	Language      *string
	Pages         *int
	PublishedYear *int
	Images        []string
	DailyRate     *float64
	WeeklyRate    *float64
	MonthlyRate   *float64
	Deposit       *float64
	Location      *string
	Coordinates   *Coordinates
	Tags          []string
	Rules         []string
}

func (s *Service) Create(ctx context.Context, owner string, in Input) (*Book, error) {
	now := s.now()
	b := &Book{
		ID:          id.New(),
		OwnerID:     owner,
		Condition:   ConditionGood,
		Language:    "English",
		IsAvailable: true,
		Images:      []string{},
		Tags:        []string{},
		Rules:       []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, req := range []struct {
		v    *string
		name string
	}{{in.Title, "title"}, {in.Author, "author"}, {in.Description, "description"}, {in.Genre, "genre"}, {in.Location, "location"}} {
		if req.v == nil || strings.TrimSpace(*req.v) == "" {
			return nil, apierr.InvalidFields([]apierr.FieldError{{Field: req.name, Message: cases.Title(language.English).String(req.name) + " is required"}})
		}
	}
	if in.DailyRate == nil {
		return nil, apierr.InvalidFields([]apierr.FieldError{{Field: "dailyRate", Message: "Daily rate must be a number"}})
	}
	if err := s.apply(b, in); err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, b); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, b.ID)
}

func (s *Service) Update(ctx context.Context, actor, bookID string, in Input) (*Book, error) {
	b, err := s.owned(ctx, actor, bookID, "Not authorized to update this book")
	if err != nil {
		return nil, err
	}
	if err := s.apply(b, in); err != nil {
		return nil, err
	}
	b.UpdatedAt = s.now()
	if err := s.store.Update(ctx, b); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, b.ID)
}

func (s *Service) Delete(ctx context.Context, actor, bookID string) error {
	if _, err := s.owned(ctx, actor, bookID, "Not authorized to delete this book"); err != nil {
		return err
	}
	return s.store.Delete(ctx, bookID)
}

func (s *Service) SetAvailability(ctx context.Context, actor, bookID string, available bool) (*Book, error) {
	if _, err := s.owned(ctx, actor, bookID, "Not authorized to update this book"); err != nil {
		return nil, err
	}
	if err := s.store.SetAvailability(ctx, bookID, available, s.now()); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, bookID)
}

func (s *Service) owned(ctx context.Context, actor, bookID, denied string) (*Book, error) {
	b, err := s.Get(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if b.OwnerID != actor {
		return nil, apierr.Forbidden(denied)
	}
	return b, nil
}

// apply validates in and copies the set fields onto b.
func (s *Service) apply(b *Book, in Input) error {
	var bad []apierr.FieldError
	fail := func(field, msg string) { bad = append(bad, apierr.FieldError{Field: field, Message: msg}) }

	text := func(v *string, dst *string, field, label string, limit int) {
		if v == nil {
			return
		}
		t := strings.TrimSpace(*v)
		switch {
		case t == "":
			fail(field, label+" cannot be empty")
		case utf8.RuneCountInString(t) > limit:
			fail(field, label+" is too long")
		default:
			*dst = t
		}
	}
	text(in.Title, &b.Title, "title", "Title", 255)
	text(in.Author, &b.Author, "author", "Author", 255)
	text(in.Description, &b.Description, "description", "Description", 1000)
	text(in.Location, &b.Location, "location", "Location", 255)
	text(in.Language, &b.Language, "language", "Language", 50)
	if in.Genre != nil {
		var g string
		text(in.Genre, &g, "genre", "Genre", 100)
		if g != "" {
			b.Genre = NormalizeGenre(g)
		}
	}
	if in.ISBN != nil {
		isbn := strings.TrimSpace(*in.ISBN)
		b.ISBN = sql.NullString{String: isbn, Valid: isbn != ""}
	}
	if in.Condition != nil {
		c := Condition(*in.Condition)
		if !c.Valid() {
			fail("condition", "Invalid condition")
		} else {
			b.Condition = c
		}
	}
	if in.Pages != nil {
		if *in.Pages < 1 {
			fail("pages", "Pages must be at least 1")
		} else {
			b.Pages = sql.NullInt64{Int64: int64(*in.Pages), Valid: true}
		}
	}
	if in.PublishedYear != nil {
		y := *in.PublishedYear
		if y < 1800 || y > s.now().Year() {
			fail("publishedYear", "Published year is out of range")
		} else {
			b.PublishedYear = sql.NullInt64{Int64: int64(y), Valid: true}
		}
	}

	if in.DailyRate != nil {
		if *in.DailyRate <= 0 {
			fail("dailyRate", "Daily rate must be greater than 0")
		} else {
			b.DailyRate = money(*in.DailyRate)
		}
	}
	optRate := func(v *float64, dst *decimal.NullDecimal, field, label string) {
		if v == nil {
			return
		}
		if *v <= 0 {
			fail(field, label+" must be greater than 0")
			return
		}
		*dst = decimal.NewNullDecimal(money(*v))
	}
	optRate(in.WeeklyRate, &b.WeeklyRate, "weeklyRate", "Weekly rate")
	optRate(in.MonthlyRate, &b.MonthlyRate, "monthlyRate", "Monthly rate")
	if in.Deposit != nil {
		if *in.Deposit < 0 {
			fail("deposit", "Deposit cannot be negative")
		} else {
			b.Deposit = money(*in.Deposit)
		}
	}

	if in.Coordinates != nil {
		c := *in.Coordinates
		if c.Lat < -90 || c.Lat > 90 || c.Lng < -180 || c.Lng > 180 {
			fail("coordinates", "Coordinates are out of range")
		} else {
			b.Coordinates = &c
		}
	}
	if in.Images != nil {
		b.Images = compact(in.Images)
	}
	if in.Tags != nil {
		b.Tags = NormalizeTags(in.Tags)
	}
	if in.Rules != nil {
		rules := compact(in.Rules)
		for _, r := range rules {
			if utf8.RuneCountInString(r) > 200 {
				fail("rules", "Each rule cannot exceed 200 characters")
				break
			}
		}
		b.Rules = rules
	}

	if len(bad) > 0 {
		return apierr.InvalidFields(bad)
	}
	return nil
}

func money(v float64) decimal.Decimal { return decimal.NewFromFloat(v).Round(2) }

func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// NormalizeGenre title-cases a genre so "science fiction" and
// "Science Fiction" group together.
func NormalizeGenre(g string) string {
	return cases.Title(language.English).String(strings.Join(strings.Fields(g), " "))
}

// NormalizeTags lower-cases, trims and de-duplicates tags, keeping order.
func NormalizeTags(tags []string) []string {
	lower := cases.Lower(language.English)
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = lower.String(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
