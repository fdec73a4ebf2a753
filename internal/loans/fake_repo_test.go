package loans

import (
	"context"
	"database/sql"
	"time"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type userAgg struct {
	mean  float64
	count int
}

// memRepo keeps the same conditional-write semantics as Store.
type memRepo struct {
	books      map[string]*Book
	totalLoans map[string]int
	loans      map[string]*Loan
	users      map[string]*userAgg

	// beforeWrite runs just before a conditional write, to simulate a
	// concurrent request landing first.
	beforeWrite func()
}

func newMemRepo() *memRepo {
	return &memRepo{
		books:      map[string]*Book{},
		totalLoans: map[string]int{},
		loans:      map[string]*Loan{},
		users:      map[string]*userAgg{},
	}
}

func (m *memRepo) FindBookByID(_ context.Context, id string) (*Book, error) {
	b, ok := m.books[id]
	if !ok {
		return nil, errBookNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *memRepo) FindLoanByID(_ context.Context, id string) (*Loan, error) {
	l, ok := m.loans[id]
	if !ok {
		return nil, errLoanNotFound
	}
	cp := *l
	cp.Borrower.ID, cp.Lender.ID = cp.BorrowerID, cp.LenderID
	return &cp, nil
}

func (m *memRepo) CreateLoan(_ context.Context, l *Loan) error {
	cp := *l
	m.loans[l.ID] = &cp
	return nil
}

func (m *memRepo) TransitionStatus(_ context.Context, ch StatusChange) error {
	if m.beforeWrite != nil {
		m.beforeWrite()
	}
	l := m.loans[ch.LoanID]
	if l == nil || l.Status != ch.From {
		return errLostRace
	}
	var others []Status
	for _, o := range m.loans {
		if o.BookID == ch.BookID && o.ID != ch.LoanID {
			others = append(others, o.Status)
		}
	}
	available, changes, err := AvailabilityAfter(ch.From, ch.To, others)
	if err != nil {
		return err
	}

	l.Status = ch.To
	l.UpdatedAt = ch.At
	if ch.Notes.Valid {
		l.Notes = ch.Notes.String
	}
	if ch.To == StatusCompleted {
		l.ReturnDate = sql.NullTime{Time: ch.At, Valid: true}
	}
	if b, ok := m.books[ch.BookID]; ok && changes {
		b.IsAvailable = available
		if ch.To == StatusCompleted {
			m.totalLoans[ch.BookID]++
		}
	}
	return nil
}

func (m *memRepo) SubmitRating(_ context.Context, in RatingSubmission) error {
	if m.beforeWrite != nil {
		m.beforeWrite()
	}
	l := m.loans[in.LoanID]
	if l == nil || l.Status != StatusCompleted || l.RatingBy(in.Side) != nil {
		return errRatedAlready
	}
	r := in.Rating
	if in.Side == SideBorrower {
		l.BorrowerRating = &r
	} else {
		l.LenderRating = &r
	}
	if u, ok := m.users[in.RateeID]; ok {
		u.mean, u.count = NextRating(u.mean, u.count, r.Score)
	}
	return nil
}

func (m *memRepo) ListLoans(_ context.Context, f Filter) ([]Loan, error) {
	var out []Loan
	for _, l := range m.loans {
		switch f.Role {
		case SideBorrower:
			if l.BorrowerID != f.UserID {
				continue
			}
		case SideLender:
			if l.LenderID != f.UserID {
				continue
			}
		default:
			if l.BorrowerID != f.UserID && l.LenderID != f.UserID {
				continue
			}
		}
		if f.Status != "" && l.Status != f.Status {
			continue
		}
		out = append(out, *l)
	}
	return out, nil
}

func (m *memRepo) ReportDamage(_ context.Context, loanID string, d DamageReport) error {
	l := m.loans[loanID]
	if l.Damage.Reported && !l.Damage.Resolved {
		return errLostRace
	}
	l.Damage = d
	return nil
}

func (m *memRepo) ResolveDamage(_ context.Context, loanID string, _ sql.NullTime) error {
	m.loans[loanID].Damage.Resolved = true
	return nil
}
