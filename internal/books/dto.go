package books

import (
	"database/sql"
	"time"

	"bookbnb-backend/internal/platform/paging"
)

type CreateBookRequest struct {
	Title         string       `json:"title" binding:"required,max=255"`
	Author        string       `json:"author" binding:"required,max=255"`
	ISBN          string       `json:"isbn" binding:"max=32"`
	Description   string       `json:"description" binding:"required,max=1000"`
	Genre         string       `json:"genre" binding:"required,max=100"`
	Condition     string       `json:"condition" binding:"omitempty,oneof='New' 'Like New' 'Very Good' 'Good' 'Fair' 'Poor'"`
	Language      string       `json:"language" binding:"max=50"`
	Pages         *int         `json:"pages" binding:"omitempty,min=1"`
	PublishedYear *int         `json:"publishedYear" binding:"omitempty,min=1800"`
	Images        []string     `json:"images" binding:"omitempty,dive,max=500"`
	DailyRate     *float64     `json:"dailyRate" binding:"required,gt=0"`
	WeeklyRate    *float64     `json:"weeklyRate" binding:"omitempty,gt=0"`
	MonthlyRate   *float64     `json:"monthlyRate" binding:"omitempty,gt=0"`
	Deposit       *float64     `json:"deposit" binding:"omitempty,gte=0"`
	Location      string       `json:"location" binding:"required,max=255"`
	Coordinates   *Coordinates `json:"coordinates"`
	Tags          []string     `json:"tags" binding:"omitempty,dive,max=50"`
	Rules         []string     `json:"rules" binding:"omitempty,dive,max=200"`
}

func (r CreateBookRequest) input() Input {
	opt := func(s string) *string {
		if s == "" {
			return nil
		}
		return &s
	}
	return Input{
		Title:         &r.Title,
		Author:        &r.Author,
		ISBN:          opt(r.ISBN),
		Description:   &r.Description,
		Genre:         &r.Genre,
		Condition:     opt(r.Condition),
		Language:      opt(r.Language),
		Pages:         r.Pages,
		PublishedYear: r.PublishedYear,
		Images:        r.Images,
		DailyRate:     r.DailyRate,
		WeeklyRate:    r.WeeklyRate,
		MonthlyRate:   r.MonthlyRate,
		Deposit:       r.Deposit,
		Location:      &r.Location,
		Coordinates:   r.Coordinates,
		Tags:          r.Tags,
		Rules:         r.Rules,
	}
}

// UpdateBookRequest is a partial update. Owner and availability are not
// editable here.
type UpdateBookRequest struct {
	Title         *string      `json:"title" binding:"omitempty,min=1,max=255"`
	Author        *string      `json:"author" binding:"omitempty,min=1,max=255"`
	ISBN          *string      `json:"isbn" binding:"omitempty,max=32"`
	Description   *string      `json:"description" binding:"omitempty,min=1,max=1000"`
	Genre         *string      `json:"genre" binding:"omitempty,min=1,max=100"`
	Condition     *string      `json:"condition" binding:"omitempty,oneof='New' 'Like New' 'Very Good' 'Good' 'Fair' 'Poor'"`
	Language      *string      `json:"language" binding:"omitempty,min=1,max=50"`
	Pages         *int         `json:"pages" binding:"omitempty,min=1"`
	PublishedYear *int         `json:"publishedYear" binding:"omitempty,min=1800"`
	Images        []string     `json:"images" binding:"omitempty,dive,max=500"`
	DailyRate     *float64     `json:"dailyRate" binding:"omitempty,gt=0"`
	WeeklyRate    *float64     `json:"weeklyRate" binding:"omitempty,gt=0"`
	MonthlyRate   *float64     `json:"monthlyRate" binding:"omitempty,gt=0"`
	Deposit       *float64     `json:"deposit" binding:"omitempty,gte=0"`
	Location      *string      `json:"location" binding:"omitempty,min=1,max=255"`
	Coordinates   *Coordinates `json:"coordinates"`
	Tags          []string     `json:"tags" binding:"omitempty,dive,max=50"`
	Rules         []string     `json:"rules" binding:"omitempty,dive,max=200"`
}

func (r UpdateBookRequest) input() Input {
	return Input{
		Title:         r.Title,
		Author:        r.Author,
		ISBN:          r.ISBN,
		Description:   r.Description,
		Genre:         r.Genre,
		Condition:     r.Condition,
		Language:      r.Language,
		Pages:         r.Pages,
		PublishedYear: r.PublishedYear,
		Images:        r.Images,
		DailyRate:     r.DailyRate,
		WeeklyRate:    r.WeeklyRate,
		MonthlyRate:   r.MonthlyRate,
		Deposit:       r.Deposit,
		Location:      r.Location,
		Coordinates:   r.Coordinates,
		Tags:          r.Tags,
		Rules:         r.Rules,
	}
}

type AvailabilityRequest struct {
	IsAvailable *bool `json:"isAvailable" binding:"required"`
}

// ===== responses =====

type OwnerRef struct {
	ID        string     `json:"_id"`
	Username  string     `json:"username"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Rating    float64    `json:"rating"`
	Avatar    *string    `json:"avatar,omitempty"`
	Bio       *string    `json:"bio,omitempty"`
	Location  *string    `json:"location,omitempty"`
	JoinDate  *time.Time `json:"joinDate,omitempty"`
}

type BookResponse struct {
	ID            string       `json:"_id"`
	Title         string       `json:"title"`
	Author        string       `json:"author"`
	ISBN          *string      `json:"isbn,omitempty"`
	Description   string       `json:"description"`
	Genre         string       `json:"genre"`
	Condition     Condition    `json:"condition"`
	Language      string       `json:"language"`
	Pages         *int64       `json:"pages,omitempty"`
	PublishedYear *int64       `json:"publishedYear,omitempty"`
	Images        []string     `json:"images"`
	Owner         OwnerRef     `json:"owner"`
	IsAvailable   bool         `json:"isAvailable"`
	DailyRate     float64      `json:"dailyRate"`
	WeeklyRate    *float64     `json:"weeklyRate,omitempty"`
	MonthlyRate   *float64     `json:"monthlyRate,omitempty"`
	Deposit       float64      `json:"deposit"`
	Location      string       `json:"location"`
	Coordinates   *Coordinates `json:"coordinates,omitempty"`
	Tags          []string     `json:"tags"`
	Rules         []string     `json:"rules"`
	Rating        float64      `json:"rating"`
	TotalRatings  int          `json:"totalRatings"`
	AverageRating float64      `json:"averageRating"`
	TotalLoans    int          `json:"totalLoans"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

type Pagination struct {
	paging.Info
	TotalBooks int64 `json:"totalBooks"`
}

type ListResponse struct {
	Books      []BookResponse `json:"books"`
	Pagination Pagination     `json:"pagination"`
}

func nullStr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

// ToResponse renders b. detailed adds the owner's bio, location and join date.
func ToResponse(b *Book, detailed bool) BookResponse {
	res := BookResponse{
		ID:            b.ID,
		Title:         b.Title,
		Author:        b.Author,
		Description:   b.Description,
		Genre:         b.Genre,
		Condition:     b.Condition,
		Language:      b.Language,
		Images:        b.Images,
		IsAvailable:   b.IsAvailable,
		DailyRate:     b.DailyRate.InexactFloat64(),
		Deposit:       b.Deposit.InexactFloat64(),
		Location:      b.Location,
		Coordinates:   b.Coordinates,
		Tags:          b.Tags,
		Rules:         b.Rules,
		Rating:        b.RatingSum,
		TotalRatings:  b.TotalRatings,
		AverageRating: b.AverageRating(),
		TotalLoans:    b.TotalLoans,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
		Owner: OwnerRef{
			ID:        b.Owner.ID,
			Username:  b.Owner.Username,
			FirstName: b.Owner.FirstName,
			LastName:  b.Owner.LastName,
			Rating:    b.Owner.Rating,
		},
	}
	if b.ISBN.Valid {
		v := b.ISBN.String
		res.ISBN = &v
	}
	if b.Pages.Valid {
		v := b.Pages.Int64
		res.Pages = &v
	}
	if b.PublishedYear.Valid {
		v := b.PublishedYear.Int64
		res.PublishedYear = &v
	}
	if b.WeeklyRate.Valid {
		v := b.WeeklyRate.Decimal.InexactFloat64()
		res.WeeklyRate = &v
	}
	if b.MonthlyRate.Valid {
		v := b.MonthlyRate.Decimal.InexactFloat64()
		res.MonthlyRate = &v
	}
	res.Owner.Avatar = nullStr(b.Owner.Avatar)
	if detailed {
		res.Owner.Bio = nullStr(b.Owner.Bio)
		res.Owner.Location = nullStr(b.Owner.Location)
		joined := b.Owner.JoinedAt
		res.Owner.JoinDate = &joined
	}
	return res
}

func ToResponses(items []Book) []BookResponse {
	out := make([]BookResponse, 0, len(items))
	for i := range items {
		out = append(out, ToResponse(&items[i], false))
	}
	return out
}

func NewListResponse(r ListResult) ListResponse {
	return ListResponse{
		Books:      ToResponses(r.Books),
		Pagination: Pagination{Info: r.Info, TotalBooks: r.Total},
	}
}
