package books

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"bookbnb-backend/internal/loans"
	"bookbnb-backend/internal/platform/apierr"
	"bookbnb-backend/internal/platform/db"
	"bookbnb-backend/internal/platform/paging"
)

var (
	errNotFound = apierr.NotFound("Book not found")
	errOnLoan   = apierr.InvalidState("Book is currently on loan")
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

const bookSelect = `
SELECT
  b.book_id, b.owner_id, b.title, b.author, b.isbn, b.description, b.genre, b.book_condition, b.language,
  b.pages, b.published_year, b.images, b.is_available, b.daily_rate, b.weekly_rate, b.monthly_rate, b.deposit,
  b.location, b.lat, b.lng, b.tags, b.rules, b.rating_sum, b.total_ratings, b.total_loans,
  b.created_at, b.updated_at,
  u.username, u.first_name, u.last_name, u.rating, u.avatar, u.bio, u.location, u.joined_at
FROM books b
JOIN users u ON u.user_id = b.owner_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner) (*Book, error) {
	var (
		b                   Book
		cond                string
		images, tags, rules []byte
		lat, lng            sql.NullFloat64
	)
	err := row.Scan(
		&b.ID, &b.OwnerID, &b.Title, &b.Author, &b.ISBN, &b.Description, &b.Genre, &cond, &b.Language,
		&b.Pages, &b.PublishedYear, &images, &b.IsAvailable, &b.DailyRate, &b.WeeklyRate, &b.MonthlyRate, &b.Deposit,
		&b.Location, &lat, &lng, &tags, &rules, &b.RatingSum, &b.TotalRatings, &b.TotalLoans,
		&b.CreatedAt, &b.UpdatedAt,
		&b.Owner.Username, &b.Owner.FirstName, &b.Owner.LastName, &b.Owner.Rating,
		&b.Owner.Avatar, &b.Owner.Bio, &b.Owner.Location, &b.Owner.JoinedAt,
	)
	if err != nil {
		return nil, err
	}
	b.Condition = Condition(cond)
	b.Owner.ID = b.OwnerID
	if lat.Valid && lng.Valid {
		b.Coordinates = &Coordinates{Lat: lat.Float64, Lng: lng.Float64}
	}
	for _, col := range []struct {
		raw []byte
		dst *[]string
	}{{images, &b.Images}, {tags, &b.Tags}, {rules, &b.Rules}} {
		if err := decodeList(col.raw, col.dst); err != nil {
			return nil, err
		}
	}
	return &b, nil
}

func decodeList(raw []byte, dst *[]string) error {
	*dst = []string{}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode json column: %w", err)
	}
	return nil
}

func encodeList(v []string) string {
	if v == nil {
		v = []string{}
	}
	buf, _ := json.Marshal(v)
	return string(buf)
}

func coords(c *Coordinates) (lat, lng sql.NullFloat64) {
	if c == nil {
		return
	}
	return sql.NullFloat64{Float64: c.Lat, Valid: true}, sql.NullFloat64{Float64: c.Lng, Valid: true}
}

func (s *Store) Get(ctx context.Context, id string) (*Book, error) {
	b, err := scanBook(s.db.QueryRowContext(ctx, bookSelect+` WHERE b.book_id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errNotFound
	}
	return b, err
}

// likeContains builds a case-insensitive "contains" pattern with LIKE
// metacharacters escaped.
func likeContains(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

func buildWhere(f Filter) (string, []any) {
	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString(" WHERE 1=1")
	if f.AvailableOnly {
		sb.WriteString(" AND b.is_available = 1")
	}
	if f.OwnerID != "" {
		sb.WriteString(" AND b.owner_id = ?")
		args = append(args, f.OwnerID)
	}
	if f.Search != "" {
		sb.WriteString(" AND MATCH(b.title, b.author, b.description, b.genre) AGAINST (? IN NATURAL LANGUAGE MODE)")
		args = append(args, f.Search)
	}
	if f.Genre != "" {
		sb.WriteString(" AND b.genre LIKE ?")
		args = append(args, likeContains(f.Genre))
	}
	if f.Location != "" {
		sb.WriteString(" AND b.location LIKE ?")
		args = append(args, likeContains(f.Location))
	}
	if f.MinPrice.Valid {
		sb.WriteString(" AND b.daily_rate >= ?")
		args = append(args, f.MinPrice.Decimal)
	}
	if f.MaxPrice.Valid {
		sb.WriteString(" AND b.daily_rate <= ?")
		args = append(args, f.MaxPrice.Decimal)
	}
	if f.Condition != "" {
		sb.WriteString(" AND b.book_condition = ?")
		args = append(args, f.Condition)
	}
	return sb.String(), args
}

func (s *Store) List(ctx context.Context, f Filter, p paging.Page) ([]Book, int64, error) {
	where, args := buildWhere(f)

	var (
		total int64
		out   = make([]Book, 0)
	)
	err := db.ReadOnly(ctx, s.db, func(ctx context.Context, tx db.DBTX) error {
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM books b`+where, args...).Scan(&total); err != nil {
			return err
		}

		q := bookSelect + where + " ORDER BY b.created_at DESC, b.book_id DESC"
		if !p.Unbounded() {
			q += " LIMIT ? OFFSET ?"
			args = append(args, p.Limit, p.Offset())
		}
		rows, err := tx.QueryContext(ctx, q, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			b, err := scanBook(rows)
			if err != nil {
				return err
			}
			out = append(out, *b)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *Store) Create(ctx context.Context, b *Book) error {
	const q = `
INSERT INTO books (
  book_id, owner_id, title, author, isbn, description, genre, book_condition, language, pages, published_year,
  images, is_available, daily_rate, weekly_rate, monthly_rate, deposit, location, lat, lng, tags, rules,
  created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	lat, lng := coords(b.Coordinates)
	_, err := s.db.ExecContext(ctx, q,
		b.ID, b.OwnerID, b.Title, b.Author, b.ISBN, b.Description, b.Genre, b.Condition, b.Language, b.Pages, b.PublishedYear,
		encodeList(b.Images), b.IsAvailable, b.DailyRate, b.WeeklyRate, b.MonthlyRate, b.Deposit, b.Location, lat, lng,
		encodeList(b.Tags), encodeList(b.Rules), b.CreatedAt, b.UpdatedAt,
	)
	if db.IsForeignKeyViolation(err) {
		return apierr.NotFound("User not found")
	}
	return err
}

// Update writes the editable columns. Owner and counters are never touched.
func (s *Store) Update(ctx context.Context, b *Book) error {
	const q = `
UPDATE books SET
  title = ?, author = ?, isbn = ?, description = ?, genre = ?, book_condition = ?, language = ?,
  pages = ?, published_year = ?, images = ?, daily_rate = ?, weekly_rate = ?, monthly_rate = ?, deposit = ?,
  location = ?, lat = ?, lng = ?, tags = ?, rules = ?, updated_at = ?
WHERE book_id = ?`
	lat, lng := coords(b.Coordinates)
	_, err := s.db.ExecContext(ctx, q,
		b.Title, b.Author, b.ISBN, b.Description, b.Genre, b.Condition, b.Language,
		b.Pages, b.PublishedYear, encodeList(b.Images), b.DailyRate, b.WeeklyRate, b.MonthlyRate, b.Deposit,
		b.Location, lat, lng, encodeList(b.Tags), encodeList(b.Rules), b.UpdatedAt,
		b.ID,
	)
	// MySQL は値が変わらない行を 0 件と数えるため RowsAffected では存在確認しない
	return err
}

// lockAndCheckFree locks the book row and reports whether it is free of
// approved or active loans.
func lockAndCheckFree(ctx context.Context, tx db.DBTX, id string) (bool, error) {
	var bookID string
	err := tx.QueryRowContext(ctx, `SELECT book_id FROM books WHERE book_id = ? FOR UPDATE`, id).Scan(&bookID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, errNotFound
	}
	if err != nil {
		return false, err
	}

	rows, err := tx.QueryContext(ctx, `SELECT status FROM loans WHERE book_id = ?`, id)
	if err != nil {
		return false, err
	}
	defer rows.Close()
	var statuses []loans.Status
	for rows.Next() {
		var st string
		if err := rows.Scan(&st); err != nil {
			return false, err
		}
		statuses = append(statuses, loans.Status(st))
	}
	if err := rows.Err(); err != nil {
		return false, err
	}
	return loans.BookAvailable(statuses), nil
}

// Delete removes a book that no approved or active loan holds.
func (s *Store) Delete(ctx context.Context, id string) error {
	return db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		free, err := lockAndCheckFree(ctx, tx, id)
		if err != nil {
			return err
		}
		if !free {
			return errOnLoan
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM books WHERE book_id = ?`, id)
		return err
	})
}

// SetAvailability flips is_available. Making a book available is refused
// while a loan holds it.
func (s *Store) SetAvailability(ctx context.Context, id string, available bool, at time.Time) error {
	return db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		free, err := lockAndCheckFree(ctx, tx, id)
		if err != nil {
			return err
		}
		if available && !free {
			return errOnLoan
		}
		_, err = tx.ExecContext(ctx, `UPDATE books SET is_available = ?, updated_at = ? WHERE book_id = ?`, available, at, id)
		return err
	})
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`).Scan(&n)
	return n, err
}
