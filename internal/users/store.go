package users

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"bookbnb-backend/internal/platform/apierr"
	"bookbnb-backend/internal/platform/db"
	"bookbnb-backend/internal/platform/paging"
)

var errNotFound = apierr.NotFound("User not found")

type Profile struct {
	ID           string
	Username     string
	FirstName    string
	LastName     string
	Avatar       sql.NullString
	Bio          sql.NullString
	Location     sql.NullString
	Rating       float64
	TotalRatings int
	IsVerified   bool
	JoinedAt     time.Time
}

type Stats struct {
	TotalBooks     int64
	AvailableBooks int64
	TotalLoans     int64
}

// Review is a rating the user received through a loan.
type Review struct {
	LoanID    string
	BookID    string
	BookTitle sql.NullString
	// reviewer の立場（borrower: 借り手からの評価）
	ReviewerRole string
	Reviewer     Profile
	Rating       int
	Comment      sql.NullString
	Date         time.Time
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

const profileCols = `u.user_id, u.username, u.first_name, u.last_name, u.avatar, u.bio, u.location, u.rating, u.total_ratings, u.is_verified, u.joined_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*Profile, error) {
	var p Profile
	err := row.Scan(&p.ID, &p.Username, &p.FirstName, &p.LastName, &p.Avatar, &p.Bio, &p.Location,
		&p.Rating, &p.TotalRatings, &p.IsVerified, &p.JoinedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) Get(ctx context.Context, id string) (*Profile, error) {
	p, err := scanProfile(s.db.QueryRowContext(ctx, `SELECT `+profileCols+` FROM users u WHERE u.user_id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errNotFound
	}
	return p, err
}

func likeContains(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

func (s *Store) Search(ctx context.Context, search, location string, p paging.Page) ([]Profile, int64, error) {
	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString(" WHERE 1=1")
	if search != "" {
		pat := likeContains(search)
		sb.WriteString(" AND (u.username LIKE ? OR u.first_name LIKE ? OR u.last_name LIKE ?)")
		args = append(args, pat, pat, pat)
	}
	if location != "" {
		sb.WriteString(" AND u.location LIKE ?")
		args = append(args, likeContains(location))
	}
	where := sb.String()

	var (
		total int64
		out   = make([]Profile, 0)
	)
	err := db.ReadOnly(ctx, s.db, func(ctx context.Context, tx db.DBTX) error {
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM users u`+where, args...).Scan(&total); err != nil {
			return err
		}

		q := `SELECT ` + profileCols + ` FROM users u` + where +
			` ORDER BY u.rating DESC, u.total_ratings DESC, u.user_id ASC LIMIT ? OFFSET ?`
		rows, err := tx.QueryContext(ctx, q, append(args, p.Limit, p.Offset())...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			u, err := scanProfile(rows)
			if err != nil {
				return err
			}
			out = append(out, *u)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *Store) Stats(ctx context.Context, id string) (Stats, error) {
	const q = `
SELECT
  (SELECT COUNT(*) FROM books WHERE owner_id = ?),
  (SELECT COUNT(*) FROM books WHERE owner_id = ? AND is_available = 1),
  (SELECT COUNT(*) FROM loans WHERE (lender_id = ? OR borrower_id = ?) AND status = 'completed')`
	var st Stats
	err := s.db.QueryRowContext(ctx, q, id, id, id, id).Scan(&st.TotalBooks, &st.AvailableBooks, &st.TotalLoans)
	return st, err
}

// Reviews lists ratings left for the user by the other side of each loan,
// newest first.
func (s *Store) Reviews(ctx context.Context, id string) ([]Review, error) {
	const q = `
SELECT l.loan_id, l.book_id, b.title, 'borrower', u.user_id, u.username, u.first_name, u.last_name, u.avatar,
       l.borrower_rating, l.borrower_comment, l.borrower_rated_at AS rated_at
FROM loans l
JOIN users u ON u.user_id = l.borrower_id
LEFT JOIN books b ON b.book_id = l.book_id
WHERE l.lender_id = ? AND l.borrower_rating IS NOT NULL
UNION ALL
SELECT l.loan_id, l.book_id, b.title, 'lender', u.user_id, u.username, u.first_name, u.last_name, u.avatar,
       l.lender_rating, l.lender_comment, l.lender_rated_at AS rated_at
FROM loans l
JOIN users u ON u.user_id = l.lender_id
LEFT JOIN books b ON b.book_id = l.book_id
WHERE l.borrower_id = ? AND l.lender_rating IS NOT NULL
ORDER BY rated_at DESC`
	rows, err := s.db.QueryContext(ctx, q, id, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Review, 0)
	for rows.Next() {
		var r Review
		if err := rows.Scan(&r.LoanID, &r.BookID, &r.BookTitle, &r.ReviewerRole,
			&r.Reviewer.ID, &r.Reviewer.Username, &r.Reviewer.FirstName, &r.Reviewer.LastName, &r.Reviewer.Avatar,
			&r.Rating, &r.Comment, &r.Date); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) Verify(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET is_verified = 1 WHERE user_id = ?`, id)
	return err
}
