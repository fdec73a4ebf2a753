package loans

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookbnb-backend/internal/platform/apierr"
)

func TestParseCancelPolicy(t *testing.T) {
	p, err := ParseCancelPolicy("")
	require.NoError(t, err)
	assert.Equal(t, CancelParticipants, p)

	p, err = ParseCancelPolicy("lender")
	require.NoError(t, err)
	assert.Equal(t, CancelLender, p)

	_, err = ParseCancelPolicy("anyone")
	assert.Error(t, err)
}

func TestPolicy_Authorize(t *testing.T) {
	l := &Loan{BorrowerID: "b", LenderID: "l"}
	tests := []struct {
		name   string
		policy Policy
		actor  string
		to     Status
		want   apierr.Code
	}{
		{"lender approves", DefaultPolicy(), "l", StatusApproved, ""},
		{"borrower approves", DefaultPolicy(), "b", StatusApproved, apierr.CodeForbidden},
		{"borrower rejects", DefaultPolicy(), "b", StatusRejected, apierr.CodeForbidden},
		{"borrower activates", DefaultPolicy(), "b", StatusActive, ""},
		{"stranger completes", DefaultPolicy(), "x", StatusCompleted, apierr.CodeForbidden},
		{"participant cancels", DefaultPolicy(), "b", StatusCancelled, ""},
		{"stranger cancels", DefaultPolicy(), "x", StatusCancelled, apierr.CodeForbidden},
		{"unguarded stranger cancels", Policy{Cancel: CancelUnguarded}, "x", StatusCancelled, ""},
		{"lender-only policy, borrower cancels", Policy{Cancel: CancelLender}, "b", StatusCancelled, apierr.CodeForbidden},
		{"borrower-only policy, lender cancels", Policy{Cancel: CancelBorrower}, "l", StatusCancelled, apierr.CodeForbidden},
		{"borrower-only policy, borrower cancels", Policy{Cancel: CancelBorrower}, "b", StatusCancelled, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.Authorize(l, tt.actor, tt.to)
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, apierr.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestPolicy_CheckTransition(t *testing.T) {
	lenient := DefaultPolicy()
	strict := Policy{Cancel: CancelParticipants, Strict: true}

	for _, from := range []Status{StatusCompleted, StatusCancelled, StatusRejected} {
		assert.True(t, apierr.Is(lenient.CheckTransition(from, StatusActive), apierr.CodeInvalidState), from)
		assert.True(t, apierr.Is(strict.CheckTransition(from, StatusActive), apierr.CodeInvalidState), from)
	}

	assert.NoError(t, lenient.CheckTransition(StatusPending, StatusCompleted))
	assert.True(t, apierr.Is(strict.CheckTransition(StatusPending, StatusCompleted), apierr.CodeInvalidState))

	assert.NoError(t, strict.CheckTransition(StatusPending, StatusApproved))
	assert.NoError(t, strict.CheckTransition(StatusApproved, StatusActive))
	assert.NoError(t, strict.CheckTransition(StatusActive, StatusCompleted))
	assert.NoError(t, strict.CheckTransition(StatusActive, StatusCancelled))
	assert.Error(t, strict.CheckTransition(StatusApproved, StatusRejected))
}

func TestAvailabilityAfter(t *testing.T) {
	avail, changes, err := AvailabilityAfter(StatusPending, StatusApproved, []Status{StatusPending, StatusRejected})
	require.NoError(t, err)
	assert.True(t, changes)
	assert.False(t, avail)

	for _, s := range []Status{StatusCompleted, StatusCancelled} {
		avail, changes, err = AvailabilityAfter(StatusActive, s, nil)
		require.NoError(t, err)
		assert.True(t, changes)
		assert.True(t, avail)
	}

	// 他の貸出が押さえている間は戻さない
	avail, changes, err = AvailabilityAfter(StatusApproved, StatusCancelled, []Status{StatusApproved})
	require.NoError(t, err)
	assert.True(t, changes)
	assert.False(t, avail)

	_, changes, err = AvailabilityAfter(StatusPending, StatusRejected, nil)
	require.NoError(t, err)
	assert.False(t, changes)
	_, changes, err = AvailabilityAfter(StatusApproved, StatusActive, nil)
	require.NoError(t, err)
	assert.False(t, changes)

	avail, changes, err = AvailabilityAfter(StatusApproved, StatusRejected, nil)
	require.NoError(t, err)
	assert.True(t, changes, "a released hold is recomputed")
	assert.True(t, avail)
}

func TestAvailabilityAfter_SecondHoldRefused(t *testing.T) {
	for _, to := range []Status{StatusApproved, StatusActive} {
		_, _, err := AvailabilityAfter(StatusPending, to, []Status{StatusActive})
		assert.True(t, apierr.Is(err, apierr.CodeInvalidState), to)
	}
}

func TestBookAvailable(t *testing.T) {
	assert.True(t, BookAvailable(nil))
	assert.True(t, BookAvailable([]Status{StatusPending, StatusCompleted, StatusRejected}))
	assert.False(t, BookAvailable([]Status{StatusCompleted, StatusApproved}))
	assert.False(t, BookAvailable([]Status{StatusActive}))
}

func TestParseStatus(t *testing.T) {
	_, ok := ParseStatus("pending")
	assert.False(t, ok)
	_, ok = ParseStatus("shipped")
	assert.False(t, ok)
	st, ok := ParseStatus("completed")
	assert.True(t, ok)
	assert.Equal(t, StatusCompleted, st)
}

func TestNextRating(t *testing.T) {
	mean, count := NextRating(0, 0, 4)
	assert.Equal(t, 4.0, mean)
	assert.Equal(t, 1, count)

	mean, count = NextRating(mean, count, 2)
	assert.Equal(t, 3.0, mean)
	assert.Equal(t, 2, count)
}
