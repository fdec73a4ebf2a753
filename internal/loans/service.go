package loans

import (
	"context"
	"database/sql"
	"strings"
	"time"
	"unicode/utf8"

	"bookbnb-backend/internal/platform/apierr"
	"bookbnb-backend/internal/platform/id"
)

// -------------- Clock & ID --------------

type Clock interface{ Now() time.Time }
type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

type IDGen interface{ New() string }
type ulidGen struct{}

func (ulidGen) New() string { return id.New() }

// -------------- Service --------------

type Service struct {
	repo   Repository
	clock  Clock
	id     IDGen
	policy Policy
}

func NewService(db *sql.DB, policy Policy) *Service {
	return newService(NewStore(db), realClock{}, ulidGen{}, policy)
}

func newService(repo Repository, clock Clock, ids IDGen, policy Policy) *Service {
	return &Service{repo: repo, clock: clock, id: ids, policy: policy}
}

type CreateInput struct {
	BookID         string
	StartDate      time.Time
	EndDate        time.Time
	PickupLocation string
	ReturnLocation string
	Notes          string
}

// Create opens a pending loan for borrower. Checks run in a fixed order and
// the first failure is returned.
func (s *Service) Create(ctx context.Context, borrower string, in CreateInput) (*Loan, error) {
	if utf8.RuneCountInString(in.Notes) > 500 {
		return nil, apierr.InvalidFields([]apierr.FieldError{{Field: "notes", Message: "Notes cannot exceed 500 characters"}})
	}
	if strings.TrimSpace(in.PickupLocation) == "" || strings.TrimSpace(in.ReturnLocation) == "" {
		return nil, apierr.Invalid("Pickup and return locations are required")
	}
	if !id.Valid(in.BookID) {
		return nil, errBookNotFound
	}

	book, err := s.repo.FindBookByID(ctx, in.BookID)
	if err != nil {
		return nil, err
	}
	if !book.IsAvailable {
		return nil, apierr.InvalidState("Book is not available for lending")
	}
	if book.OwnerID == borrower {
		return nil, apierr.InvalidState("You cannot borrow your own book")
	}
	now := s.clock.Now()
	if in.StartDate.Before(now) {
		return nil, apierr.InvalidState("Start date cannot be in the past")
	}
	if !in.EndDate.After(in.StartDate) {
		return nil, apierr.InvalidState("End date must be after start date")
	}

	l := &Loan{
		ID:             s.id.New(),
		BookID:         book.ID,
		BorrowerID:     borrower,
		LenderID:       book.OwnerID,
		StartDate:      in.StartDate.UTC(),
		EndDate:        in.EndDate.UTC(),
		Status:         StatusPending,
		TotalAmount:    Price(book, DurationDays(in.StartDate, in.EndDate)),
		Deposit:        book.Deposit,
		PickupLocation: strings.TrimSpace(in.PickupLocation),
		ReturnLocation: strings.TrimSpace(in.ReturnLocation),
		Notes:          in.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.CreateLoan(ctx, l); err != nil {
		return nil, err
	}
	return s.repo.FindLoanByID(ctx, l.ID)
}

// Get returns a loan visible to actor.
func (s *Service) Get(ctx context.Context, actor, loanID string) (*Loan, error) {
	l, err := s.find(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if _, ok := l.SideOf(actor); !ok {
		return nil, apierr.Forbidden("Not authorized to view this loan")
	}
	return l, nil
}

func (s *Service) List(ctx context.Context, actor, role, status string) ([]Loan, error) {
	f := Filter{UserID: actor}
	switch Side(role) {
	case SideBorrower, SideLender:
		f.Role = Side(role)
	case "":
	default:
		return nil, apierr.Invalid("role must be borrower or lender")
	}
	if status != "" {
		st := Status(status)
		if _, ok := ParseStatus(status); !ok && st != StatusPending {
			return nil, apierr.Invalid("Invalid status")
		}
		f.Status = st
	}
	return s.repo.ListLoans(ctx, f)
}

// UpdateStatus moves a loan to target. The write is conditional on the
// status read here; a concurrent change surfaces as a conflict.
func (s *Service) UpdateStatus(ctx context.Context, actor, loanID, target, notes string) (*Loan, error) {
	to, ok := ParseStatus(target)
	if !ok {
		return nil, apierr.InvalidFields([]apierr.FieldError{{Field: "status", Message: "Invalid status"}})
	}
	if utf8.RuneCountInString(notes) > 500 {
		return nil, apierr.InvalidFields([]apierr.FieldError{{Field: "notes", Message: "Notes cannot exceed 500 characters"}})
	}

	l, err := s.find(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(l, actor, to); err != nil {
		return nil, err
	}
	if err := s.policy.CheckTransition(l.Status, to); err != nil {
		return nil, err
	}

	ch := StatusChange{
		LoanID: l.ID,
		BookID: l.BookID,
		From:   l.Status,
		To:     to,
		At:     s.clock.Now(),
	}
	if notes != "" {
		ch.Notes = sql.NullString{String: notes, Valid: true}
	}
	if err := s.repo.TransitionStatus(ctx, ch); err != nil {
		return nil, err
	}
	return s.repo.FindLoanByID(ctx, l.ID)
}

// Rate records actor's one-time rating of the other participant.
func (s *Service) Rate(ctx context.Context, actor, loanID string, score int, comment string) (*Loan, error) {
	if score < 1 || score > 5 {
		return nil, apierr.InvalidFields([]apierr.FieldError{{Field: "rating", Message: "Rating must be between 1 and 5"}})
	}
	if utf8.RuneCountInString(comment) > 500 {
		return nil, apierr.InvalidFields([]apierr.FieldError{{Field: "comment", Message: "Comment cannot exceed 500 characters"}})
	}

	l, err := s.find(ctx, loanID)
	if err != nil {
		return nil, err
	}
	side, ok := l.SideOf(actor)
	if !ok {
		return nil, apierr.Forbidden("Not authorized to rate this loan")
	}
	if l.Status != StatusCompleted {
		return nil, apierr.InvalidState("Can only rate completed loans")
	}
	if l.RatingBy(side) != nil {
		return nil, errRatedAlready
	}

	err = s.repo.SubmitRating(ctx, RatingSubmission{
		LoanID:  l.ID,
		Side:    side,
		RateeID: l.Counterparty(side),
		Rating:  Rating{Score: score, Comment: comment, At: s.clock.Now()},
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindLoanByID(ctx, l.ID)
}

func (s *Service) ReportDamage(ctx context.Context, actor, loanID, description string) (*Loan, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, apierr.InvalidFields([]apierr.FieldError{{Field: "description", Message: "Description is required"}})
	}
	if utf8.RuneCountInString(description) > 1000 {
		return nil, apierr.InvalidFields([]apierr.FieldError{{Field: "description", Message: "Description cannot exceed 1000 characters"}})
	}

	l, err := s.find(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if _, ok := l.SideOf(actor); !ok {
		return nil, apierr.Forbidden("Not authorized to report damage on this loan")
	}
	if l.Status != StatusActive && l.Status != StatusCompleted {
		return nil, apierr.InvalidState("Damage can only be reported on active or completed loans")
	}

	now := s.clock.Now()
	err = s.repo.ReportDamage(ctx, l.ID, DamageReport{
		Reported:    true,
		Description: description,
		At:          sql.NullTime{Time: now, Valid: true},
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindLoanByID(ctx, l.ID)
}

func (s *Service) ResolveDamage(ctx context.Context, actor, loanID string) (*Loan, error) {
	l, err := s.find(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if actor != l.LenderID {
		return nil, apierr.Forbidden("Only the lender can resolve a damage report")
	}
	if !l.Damage.Reported || l.Damage.Resolved {
		return nil, apierr.InvalidState("There is no open damage report for this loan")
	}
	if err := s.repo.ResolveDamage(ctx, l.ID, sql.NullTime{Time: s.clock.Now(), Valid: true}); err != nil {
		return nil, err
	}
	return s.repo.FindLoanByID(ctx, l.ID)
}

// Now exposes the service clock for response building.
func (s *Service) Now() time.Time { return s.clock.Now() }

func (s *Service) find(ctx context.Context, loanID string) (*Loan, error) {
	if !id.Valid(loanID) {
		return nil, errLoanNotFound
	}
	return s.repo.FindLoanByID(ctx, loanID)
}
