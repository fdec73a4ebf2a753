package loans

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// ParseStatus accepts only the statuses a client may request. pending is
// the initial state and can never be set explicitly.
func ParseStatus(s string) (Status, bool) {
	switch st := Status(s); st {
	case StatusApproved, StatusRejected, StatusActive, StatusCompleted, StatusCancelled:
		return st, true
	}
	return "", false
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusRejected
}

// Holding reports whether a loan in this status keeps the book out of circulation.
func (s Status) Holding() bool {
	return s == StatusApproved || s == StatusActive
}

// Side identifies which participant of a loan is acting.
type Side string

const (
	SideBorrower Side = "borrower"
	SideLender   Side = "lender"
)

type Rating struct {
	Score   int
	Comment string
	At      time.Time
}

type DamageReport struct {
	Reported    bool
	Description string
	At          sql.NullTime
	Resolved    bool
}

// Book is the slice of a listing the loan core reads.
type Book struct {
	ID          string
	OwnerID     string
	Title       string
	IsAvailable bool
	DailyRate   decimal.Decimal
	WeeklyRate  decimal.NullDecimal
	MonthlyRate decimal.NullDecimal
	Deposit     decimal.Decimal
}

type BookSummary struct {
	ID        string
	Title     string
	Author    string
	Images    []string
	DailyRate decimal.Decimal
	// 本が削除済みのとき false
	Present bool
}

type Party struct {
	ID        string
	Username  string
	FirstName string
	LastName  string
	Email     string
	Avatar    sql.NullString
	Rating    float64
}

type Loan struct {
	ID             string
	BookID         string
	BorrowerID     string
	LenderID       string
	StartDate      time.Time
	EndDate        time.Time
	ReturnDate     sql.NullTime
	Status         Status
	TotalAmount    decimal.Decimal
	Deposit        decimal.Decimal
	PickupLocation string
	ReturnLocation string
	Notes          string
	BorrowerRating *Rating
	LenderRating   *Rating
	Damage         DamageReport
	CreatedAt      time.Time
	UpdatedAt      time.Time

	// populated by reads
	Book     BookSummary
	Borrower Party
	Lender   Party
}

func (l *Loan) Duration() int { return DurationDays(l.StartDate, l.EndDate) }

func (l *Loan) IsOverdue(now time.Time) bool {
	return l.Status == StatusActive && now.After(l.EndDate)
}

// SideOf returns the side actor plays on the loan.
func (l *Loan) SideOf(actor string) (Side, bool) {
	switch actor {
	case l.BorrowerID:
		return SideBorrower, true
	case l.LenderID:
		return SideLender, true
	}
	return "", false
}

// RatingBy returns the rating slot written by side.
func (l *Loan) RatingBy(side Side) *Rating {
	if side == SideBorrower {
		return l.BorrowerRating
	}
	return l.LenderRating
}

// Counterparty returns the user id on the other side of the loan.
func (l *Loan) Counterparty(side Side) string {
	if side == SideBorrower {
		return l.LenderID
	}
	return l.BorrowerID
}

// ===== persistence inputs =====

// StatusChange is applied only if the loan is still in From.
type StatusChange struct {
	LoanID string
	BookID string
	From   Status
	To     Status
	Notes  sql.NullString
	At     time.Time
}

type RatingSubmission struct {
	LoanID  string
	Side    Side
	RateeID string
	Rating  Rating
}

type Filter struct {
	UserID string
	Role   Side // empty: both sides
	Status Status
}
