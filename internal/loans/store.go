package loans

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"bookbnb-backend/internal/platform/apierr"
	"bookbnb-backend/internal/platform/db"
)

// Repository is the persistence contract of the loan core.
type Repository interface {
	FindBookByID(ctx context.Context, id string) (*Book, error)
	FindLoanByID(ctx context.Context, id string) (*Loan, error)
	CreateLoan(ctx context.Context, l *Loan) error
	// TransitionStatus writes the new status only if the loan is still in
	// ch.From, and applies the book side effects in the same transaction.
	TransitionStatus(ctx context.Context, ch StatusChange) error
	// SubmitRating fills the side's rating slot only if it is empty and the
	// loan is completed, then folds the score into the ratee's mean.
	SubmitRating(ctx context.Context, in RatingSubmission) error
	ListLoans(ctx context.Context, f Filter) ([]Loan, error)
	ReportDamage(ctx context.Context, loanID string, d DamageReport) error
	ResolveDamage(ctx context.Context, loanID string, at sql.NullTime) error
}

var (
	errLoanNotFound = apierr.NotFound("Loan not found")
	errBookNotFound = apierr.NotFound("Book not found")
	errLostRace     = apierr.Conflict("Loan was updated by another request, please retry")
	errRatedAlready = apierr.InvalidState("You have already rated this loan")
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) FindBookByID(ctx context.Context, id string) (*Book, error) {
	const q = `
SELECT book_id, owner_id, title, is_available, daily_rate, weekly_rate, monthly_rate, deposit
FROM books WHERE book_id = ?`
	var b Book
	err := s.db.QueryRowContext(ctx, q, id).Scan(
		&b.ID, &b.OwnerID, &b.Title, &b.IsAvailable, &b.DailyRate, &b.WeeklyRate, &b.MonthlyRate, &b.Deposit,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errBookNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *Store) CreateLoan(ctx context.Context, l *Loan) error {
	const q = `
INSERT INTO loans (
  loan_id, book_id, borrower_id, lender_id, start_date, end_date, status,
  total_amount, deposit, pickup_location, return_location, notes, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q,
		l.ID, l.BookID, l.BorrowerID, l.LenderID, l.StartDate, l.EndDate, l.Status,
		l.TotalAmount, l.Deposit, l.PickupLocation, l.ReturnLocation, l.Notes, l.CreatedAt, l.UpdatedAt,
	)
	if db.IsForeignKeyViolation(err) {
		return apierr.NotFound("User not found")
	}
	return err
}

func (s *Store) TransitionStatus(ctx context.Context, ch StatusChange) error {
	return db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		// 本の行を先にロックし、同じ本への遷移を直列化する
		others, bookFound, err := lockBookLoans(ctx, tx, ch.BookID, ch.LoanID)
		if err != nil {
			return err
		}
		available, changes, err := AvailabilityAfter(ch.From, ch.To, others)
		if err != nil {
			return err
		}

		var returnDate sql.NullTime
		if ch.To == StatusCompleted {
			returnDate = sql.NullTime{Time: ch.At, Valid: true}
		}
		const q = `
UPDATE loans
SET status = ?, notes = COALESCE(?, notes), return_date = COALESCE(?, return_date), updated_at = ?
WHERE loan_id = ? AND status = ?`
		res, err := tx.ExecContext(ctx, q, ch.To, ch.Notes, returnDate, ch.At, ch.LoanID, ch.From)
		if err != nil {
			return err
		}
		aff, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if aff == 0 {
			return errLostRace
		}

		// 本が削除済みなら遷移だけ成立させる
		if !bookFound || !changes {
			return nil
		}
		bq := `UPDATE books SET is_available = ?, updated_at = ?`
		if ch.To == StatusCompleted {
			bq += `, total_loans = total_loans + 1`
		}
		bq += ` WHERE book_id = ?`
		_, err = tx.ExecContext(ctx, bq, available, ch.At, ch.BookID)
		return err
	})
}

// lockBookLoans locks the book row and returns the statuses of its loans
// other than exceptLoan. found is false when the book no longer exists.
func lockBookLoans(ctx context.Context, tx db.DBTX, bookID, exceptLoan string) (others []Status, found bool, err error) {
	var got string
	err = tx.QueryRowContext(ctx, `SELECT book_id FROM books WHERE book_id = ? FOR UPDATE`, bookID).Scan(&got)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	rows, err := tx.QueryContext(ctx, `SELECT status FROM loans WHERE book_id = ? AND loan_id <> ?`, bookID, exceptLoan)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()
	for rows.Next() {
		var st Status
		if err := rows.Scan(&st); err != nil {
			return nil, false, err
		}
		others = append(others, st)
	}
	return others, true, rows.Err()
}

func (s *Store) SubmitRating(ctx context.Context, in RatingSubmission) error {
	if in.Side != SideBorrower && in.Side != SideLender {
		return apierr.Invalid("unknown rating side")
	}
	return db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		q := fmt.Sprintf(`
UPDATE loans
SET %[1]s_rating = ?, %[1]s_comment = ?, %[1]s_rated_at = ?, updated_at = ?
WHERE loan_id = ? AND status = 'completed' AND %[1]s_rating IS NULL`, in.Side)
		res, err := tx.ExecContext(ctx, q, in.Rating.Score, in.Rating.Comment, in.Rating.At, in.Rating.At, in.LoanID)
		if err != nil {
			return err
		}
		aff, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if aff == 0 {
			return errRatedAlready
		}

		var (
			mean  float64
			count int
		)
		err = tx.QueryRowContext(ctx,
			`SELECT rating, total_ratings FROM users WHERE user_id = ? FOR UPDATE`, in.RateeID,
		).Scan(&mean, &count)
		if errors.Is(err, sql.ErrNoRows) {
			// 相手ユーザーが消えていても評価自体は残す
			return nil
		}
		if err != nil {
			return err
		}
		mean, count = NextRating(mean, count, in.Rating.Score)
		_, err = tx.ExecContext(ctx,
			`UPDATE users SET rating = ?, total_ratings = ? WHERE user_id = ?`, mean, count, in.RateeID)
		return err
	})
}

func (s *Store) ReportDamage(ctx context.Context, loanID string, d DamageReport) error {
	const q = `
UPDATE loans
SET damage_reported = 1, damage_description = ?, damage_reported_at = ?, damage_resolved = 0, updated_at = ?
WHERE loan_id = ? AND (damage_reported = 0 OR damage_resolved = 1)`
	res, err := s.db.ExecContext(ctx, q, d.Description, d.At, d.At, loanID)
	if err != nil {
		return err
	}
	if aff, err := res.RowsAffected(); err != nil {
		return err
	} else if aff == 0 {
		return apierr.InvalidState("Damage has already been reported for this loan")
	}
	return nil
}

func (s *Store) ResolveDamage(ctx context.Context, loanID string, at sql.NullTime) error {
	const q = `
UPDATE loans SET damage_resolved = 1, updated_at = ?
WHERE loan_id = ? AND damage_reported = 1 AND damage_resolved = 0`
	res, err := s.db.ExecContext(ctx, q, at, loanID)
	if err != nil {
		return err
	}
	if aff, err := res.RowsAffected(); err != nil {
		return err
	} else if aff == 0 {
		return apierr.InvalidState("There is no open damage report for this loan")
	}
	return nil
}

// ===== reads =====

const loanSelect = `
SELECT
  l.loan_id, l.book_id, l.borrower_id, l.lender_id, l.start_date, l.end_date, l.return_date, l.status,
  l.total_amount, l.deposit, l.pickup_location, l.return_location, l.notes,
  l.borrower_rating, l.borrower_comment, l.borrower_rated_at,
  l.lender_rating, l.lender_comment, l.lender_rated_at,
  l.damage_reported, l.damage_description, l.damage_reported_at, l.damage_resolved,
  l.created_at, l.updated_at,
  b.title, b.author, b.images, b.daily_rate,
  bu.username, bu.first_name, bu.last_name, bu.email, bu.avatar, bu.rating,
  lu.username, lu.first_name, lu.last_name, lu.email, lu.avatar, lu.rating
FROM loans l
LEFT JOIN books b ON b.book_id = l.book_id
JOIN users bu ON bu.user_id = l.borrower_id
JOIN users lu ON lu.user_id = l.lender_id`

type rowScanner interface {
	Scan(dest ...any) error
}

type ratingCols struct {
	score   sql.NullInt64
	comment sql.NullString
	at      sql.NullTime
}

func (r ratingCols) rating() *Rating {
	if !r.score.Valid {
		return nil
	}
	return &Rating{Score: int(r.score.Int64), Comment: r.comment.String, At: r.at.Time}
}

func scanLoan(row rowScanner) (*Loan, error) {
	var (
		l                  Loan
		status             string
		borrowerR, lenderR ratingCols
		damageDesc         sql.NullString
		title, author      sql.NullString
		images             []byte
		dailyRate          decimal.NullDecimal
	)
	err := row.Scan(
		&l.ID, &l.BookID, &l.BorrowerID, &l.LenderID, &l.StartDate, &l.EndDate, &l.ReturnDate, &status,
		&l.TotalAmount, &l.Deposit, &l.PickupLocation, &l.ReturnLocation, &l.Notes,
		&borrowerR.score, &borrowerR.comment, &borrowerR.at,
		&lenderR.score, &lenderR.comment, &lenderR.at,
		&l.Damage.Reported, &damageDesc, &l.Damage.At, &l.Damage.Resolved,
		&l.CreatedAt, &l.UpdatedAt,
		&title, &author, &images, &dailyRate,
		&l.Borrower.Username, &l.Borrower.FirstName, &l.Borrower.LastName, &l.Borrower.Email, &l.Borrower.Avatar, &l.Borrower.Rating,
		&l.Lender.Username, &l.Lender.FirstName, &l.Lender.LastName, &l.Lender.Email, &l.Lender.Avatar, &l.Lender.Rating,
	)
	if err != nil {
		return nil, err
	}
	l.Status = Status(status)
	l.BorrowerRating = borrowerR.rating()
	l.LenderRating = lenderR.rating()
	l.Damage.Description = damageDesc.String
	l.Borrower.ID = l.BorrowerID
	l.Lender.ID = l.LenderID

	l.Book = BookSummary{ID: l.BookID, Present: title.Valid}
	if title.Valid {
		l.Book.Title = title.String
		l.Book.Author = author.String
		l.Book.DailyRate = dailyRate.Decimal
		if len(images) > 0 {
			if err := json.Unmarshal(images, &l.Book.Images); err != nil {
				return nil, fmt.Errorf("decode book images: %w", err)
			}
		}
	}
	return &l, nil
}

func (s *Store) FindLoanByID(ctx context.Context, id string) (*Loan, error) {
	l, err := scanLoan(s.db.QueryRowContext(ctx, loanSelect+` WHERE l.loan_id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errLoanNotFound
	}
	return l, err
}

func (s *Store) ListLoans(ctx context.Context, f Filter) ([]Loan, error) {
	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString(loanSelect)
	sb.WriteString(" WHERE 1=1")

	switch f.Role {
	case SideBorrower:
		sb.WriteString(" AND l.borrower_id = ?")
		args = append(args, f.UserID)
	case SideLender:
		sb.WriteString(" AND l.lender_id = ?")
		args = append(args, f.UserID)
	default:
		sb.WriteString(" AND (l.borrower_id = ? OR l.lender_id = ?)")
		args = append(args, f.UserID, f.UserID)
	}
	if f.Status != "" {
		sb.WriteString(" AND l.status = ?")
		args = append(args, f.Status)
	}
	sb.WriteString(" ORDER BY l.created_at DESC, l.loan_id DESC")

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Loan, 0)
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}
