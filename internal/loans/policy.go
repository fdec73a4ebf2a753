package loans

import (
	"fmt"

	"bookbnb-backend/internal/platform/apierr"
)

// CancelPolicy decides who may cancel a loan.
type CancelPolicy string

const (
	CancelParticipants CancelPolicy = "participants"
	CancelLender       CancelPolicy = "lender"
	CancelBorrower     CancelPolicy = "borrower"
	// 認証済みなら誰でも取り消せる（旧実装の挙動）
	CancelUnguarded CancelPolicy = "unguarded"
)

func ParseCancelPolicy(s string) (CancelPolicy, error) {
	switch p := CancelPolicy(s); p {
	case CancelParticipants, CancelLender, CancelBorrower, CancelUnguarded:
		return p, nil
	case "":
		return CancelParticipants, nil
	default:
		return "", fmt.Errorf("unknown cancel policy %q", s)
	}
}

type Policy struct {
	Cancel CancelPolicy
	// Strict limits each status to its listed successors.
	Strict bool
}

func DefaultPolicy() Policy { return Policy{Cancel: CancelParticipants} }

var successors = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved: {StatusActive, StatusCancelled},
	StatusActive:   {StatusCompleted, StatusCancelled},
}

// Authorize checks that actor may move l to the target status.
func (p Policy) Authorize(l *Loan, actor string, to Status) error {
	isLender := actor == l.LenderID
	isBorrower := actor == l.BorrowerID

	switch to {
	case StatusApproved, StatusRejected:
		if !isLender {
			return apierr.Forbidden("Only the lender can approve or reject loans")
		}
	case StatusActive, StatusCompleted:
		if !isLender && !isBorrower {
			return apierr.Forbidden("Not authorized to update this loan")
		}
	case StatusCancelled:
		var ok bool
		switch p.Cancel {
		case CancelUnguarded:
			ok = true
		case CancelLender:
			ok = isLender
		case CancelBorrower:
			ok = isBorrower
		default:
			ok = isLender || isBorrower
		}
		if !ok {
			return apierr.Forbidden("Not authorized to cancel this loan")
		}
	}
	return nil
}

func (p Policy) CheckTransition(from, to Status) error {
	if from.Terminal() {
		return apierr.InvalidState(fmt.Sprintf("Loan is already %s", from))
	}
	if !p.Strict {
		return nil
	}
	for _, s := range successors[from] {
		if s == to {
			return nil
		}
	}
	return apierr.InvalidState(fmt.Sprintf("Cannot change loan status from %s to %s", from, to))
}

var errBookHeld = apierr.InvalidState("Book is already on loan")

// AvailabilityAfter returns the book availability once a loan moves from
// -> to, given the statuses of the book's other loans. changes is false when
// the book is left untouched. Moving into a holding status while another
// loan holds the book is refused.
func AvailabilityAfter(from, to Status, others []Status) (available, changes bool, err error) {
	switch {
	case to.Holding():
		if from.Holding() {
			return false, false, nil
		}
		if !BookAvailable(others) {
			return false, false, errBookHeld
		}
		return false, true, nil
	case to == StatusCompleted, to == StatusCancelled, from.Holding():
		return BookAvailable(others), true, nil
	}
	return false, false, nil
}

// BookAvailable derives a book's availability from the statuses of its loans.
func BookAvailable(statuses []Status) bool {
	for _, s := range statuses {
		if s.Holding() {
			return false
		}
	}
	return true
}
