// Package seed fills an empty catalog with a demo account and sample books.
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"bookbnb-backend/internal/books"
	"bookbnb-backend/internal/platform/apierr"
	"bookbnb-backend/internal/platform/auth"
)

const (
	DemoEmail    = "demo@demo.com"
	DemoUsername = "demoUser"
	demoPassword = "password123"
)

type accounts interface {
	FindByLogin(ctx context.Context, login string) (*auth.UserResponse, error)
	Register(ctx context.Context, in auth.RegisterRequest) (*auth.AuthResponse, error)
}

type catalog interface {
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, owner string, in books.Input) (*books.Book, error)
}

type sample struct {
	title, author, description, genre, location, image string
	daily, weekly, monthly                            float64
}

var samples = []sample{
	{
		title: "The Great Gatsby", author: "F. Scott Fitzgerald",
		description: "Classic novel set in the Jazz Age.", genre: "Fiction",
		daily: 2, weekly: 10, monthly: 30, location: "New York",
		image: "https://covers.openlibrary.org/b/id/7222246-L.jpg",
	},
	{
		title: "To Kill a Mockingbird", author: "Harper Lee",
		description: "Pulitzer Prize winning novel about racial injustice.", genre: "Classic",
		daily: 1.5, weekly: 8, monthly: 25, location: "Alabama",
		image: "https://covers.openlibrary.org/b/id/8225265-L.jpg",
	},
	{
		title: "1984", author: "George Orwell",
		description: "Dystopian novel exploring surveillance and control.", genre: "Science Fiction",
		daily: 2, weekly: 9, monthly: 28, location: "London",
		image: "https://covers.openlibrary.org/b/id/7222246-L.jpg",
	},
}

// Run seeds only when the books table is empty. It reports whether
// anything was written.
func Run(ctx context.Context, log *slog.Logger, users accounts, cat catalog) (bool, error) {
	n, err := cat.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("count books: %w", err)
	}
	if n > 0 {
		log.Info("books already exist, skipping seed", "count", n)
		return false, nil
	}

	owner, err := demoUser(ctx, log, users)
	if err != nil {
		return false, err
	}

	for _, s := range samples {
		s := s
		in := books.Input{
			Title:       &s.title,
			Author:      &s.author,
			Description: &s.description,
			Genre:       &s.genre,
			Location:    &s.location,
			DailyRate:   &s.daily,
			WeeklyRate:  &s.weekly,
			MonthlyRate: &s.monthly,
			Images:      []string{s.image},
		}
		if _, err := cat.Create(ctx, owner, in); err != nil {
			return false, fmt.Errorf("seed %q: %w", s.title, err)
		}
	}
	log.Info("sample books seeded", "count", len(samples), "owner", owner)
	return true, nil
}

func demoUser(ctx context.Context, log *slog.Logger, users accounts) (string, error) {
	u, err := users.FindByLogin(ctx, DemoEmail)
	if err != nil {
		return "", fmt.Errorf("find demo user: %w", err)
	}
	if u != nil {
		return u.ID, nil
	}
	res, err := users.Register(ctx, auth.RegisterRequest{
		Username:  DemoUsername,
		Email:     DemoEmail,
		Password:  demoPassword,
		FirstName: "Demo",
		LastName:  "User",
	})
	if apierr.Is(err, apierr.CodeConflict) {
		// 別プロセスが先に作成した
		u, err := users.FindByLogin(ctx, DemoEmail)
		if err != nil {
			return "", fmt.Errorf("find demo user: %w", err)
		}
		if u == nil {
			return "", fmt.Errorf("demo user %s conflicts with an existing account", DemoUsername)
		}
		return u.ID, nil
	}
	if err != nil {
		return "", fmt.Errorf("create demo user: %w", err)
	}
	log.Info("demo user created", "id", res.User.ID)
	return res.User.ID, nil
}
