package loans

import (
	"time"
)

// ===== requests =====

type CreateLoanRequest struct {
	BookID         string `json:"bookId" binding:"required"`
	StartDate      string `json:"startDate" binding:"required"`
	EndDate        string `json:"endDate" binding:"required"`
	PickupLocation string `json:"pickupLocation" binding:"required,max=255"`
	ReturnLocation string `json:"returnLocation" binding:"required,max=255"`
	Notes          string `json:"notes" binding:"max=500"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Notes  string `json:"notes" binding:"max=500"`
}

type RateRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"max=500"`
}

type DamageRequest struct {
	Description string `json:"description" binding:"required,max=1000"`
}

// ===== responses =====

type BookRef struct {
	ID        string   `json:"_id"`
	Title     string   `json:"title,omitempty"`
	Author    string   `json:"author,omitempty"`
	Images    []string `json:"images,omitempty"`
	DailyRate float64  `json:"dailyRate,omitempty"`
}

type PartyRef struct {
	ID        string  `json:"_id"`
	Username  string  `json:"username"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Email     string  `json:"email,omitempty"`
	Avatar    *string `json:"avatar,omitempty"`
	Rating    float64 `json:"rating"`
}

type RatingResponse struct {
	Rating  int       `json:"rating"`
	Comment string    `json:"comment,omitempty"`
	Date    time.Time `json:"date"`
}

type DamageResponse struct {
	Reported    bool       `json:"reported"`
	Description string     `json:"description,omitempty"`
	Date        *time.Time `json:"date,omitempty"`
	Resolved    bool       `json:"resolved"`
}

type LoanResponse struct {
	ID             string          `json:"_id"`
	Book           BookRef         `json:"book"`
	Borrower       PartyRef        `json:"borrower"`
	Lender         PartyRef        `json:"lender"`
	StartDate      time.Time       `json:"startDate"`
	EndDate        time.Time       `json:"endDate"`
	ReturnDate     *time.Time      `json:"returnDate,omitempty"`
	Status         Status          `json:"status"`
	TotalAmount    float64         `json:"totalAmount"`
	Deposit        float64         `json:"deposit"`
	PickupLocation string          `json:"pickupLocation"`
	ReturnLocation string          `json:"returnLocation"`
	Notes          string          `json:"notes"`
	BorrowerRating *RatingResponse `json:"borrowerRating,omitempty"`
	LenderRating   *RatingResponse `json:"lenderRating,omitempty"`
	DamageReport   DamageResponse  `json:"damageReport"`
	Duration       int             `json:"duration"`
	IsOverdue      bool            `json:"isOverdue"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// ===== mapping =====

func toLoanResponse(l *Loan, now time.Time, withEmail bool) LoanResponse {
	res := LoanResponse{
		ID:             l.ID,
		Book:           BookRef{ID: l.BookID},
		Borrower:       toPartyRef(l.Borrower, withEmail),
		Lender:         toPartyRef(l.Lender, withEmail),
		StartDate:      l.StartDate,
		EndDate:        l.EndDate,
		Status:         l.Status,
		TotalAmount:    l.TotalAmount.InexactFloat64(),
		Deposit:        l.Deposit.InexactFloat64(),
		PickupLocation: l.PickupLocation,
		ReturnLocation: l.ReturnLocation,
		Notes:          l.Notes,
		BorrowerRating: toRatingResponse(l.BorrowerRating),
		LenderRating:   toRatingResponse(l.LenderRating),
		DamageReport: DamageResponse{
			Reported:    l.Damage.Reported,
			Description: l.Damage.Description,
			Resolved:    l.Damage.Resolved,
		},
		Duration:  l.Duration(),
		IsOverdue: l.IsOverdue(now),
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
	if l.Book.Present {
		res.Book.Title = l.Book.Title
		res.Book.Author = l.Book.Author
		res.Book.Images = l.Book.Images
		res.Book.DailyRate = l.Book.DailyRate.InexactFloat64()
	}
	if l.ReturnDate.Valid {
		t := l.ReturnDate.Time
		res.ReturnDate = &t
	}
	if l.Damage.At.Valid {
		t := l.Damage.At.Time
		res.DamageReport.Date = &t
	}
	return res
}

func toPartyRef(p Party, withEmail bool) PartyRef {
	ref := PartyRef{
		ID:        p.ID,
		Username:  p.Username,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Rating:    p.Rating,
	}
	if withEmail {
		ref.Email = p.Email
	}
	if p.Avatar.Valid {
		v := p.Avatar.String
		ref.Avatar = &v
	}
	return ref
}

func toRatingResponse(r *Rating) *RatingResponse {
	if r == nil {
		return nil
	}
	return &RatingResponse{Rating: r.Score, Comment: r.Comment, Date: r.At}
}

// parseDate accepts an ISO-8601 calendar date or date-time.
func parseDate(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
