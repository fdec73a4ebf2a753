package users

import (
	"database/sql"
	"time"

	"bookbnb-backend/internal/books"
	"bookbnb-backend/internal/platform/paging"
)

type UserResponse struct {
	ID           string    `json:"_id"`
	Username     string    `json:"username"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Avatar       *string   `json:"avatar,omitempty"`
	Bio          *string   `json:"bio,omitempty"`
	Location     *string   `json:"location,omitempty"`
	Rating       float64   `json:"rating"`
	TotalRatings int       `json:"totalRatings"`
	IsVerified   bool      `json:"isVerified"`
	JoinDate     time.Time `json:"joinDate"`
}

type Pagination struct {
	paging.Info
	TotalUsers int64 `json:"totalUsers"`
}

type SearchResponse struct {
	Users      []UserResponse `json:"users"`
	Pagination Pagination     `json:"pagination"`
}

type StatsResponse struct {
	TotalBooks     int64   `json:"totalBooks"`
	AvailableBooks int64   `json:"availableBooks"`
	TotalLoans     int64   `json:"totalLoans"`
	AverageRating  float64 `json:"averageRating"`
}

type ProfileResponse struct {
	User  UserResponse         `json:"user"`
	Books []books.BookResponse `json:"books"`
	Stats StatsResponse        `json:"stats"`
}

type ReviewerRef struct {
	ID        string  `json:"_id"`
	Username  string  `json:"username"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Avatar    *string `json:"avatar,omitempty"`
}

type ReviewResponse struct {
	LoanID    string      `json:"loanId"`
	BookID    string      `json:"bookId"`
	BookTitle string      `json:"bookTitle,omitempty"`
	Role      string      `json:"reviewerRole"`
	Reviewer  ReviewerRef `json:"reviewer"`
	Rating    int         `json:"rating"`
	Comment   string      `json:"comment,omitempty"`
	Date      time.Time   `json:"date"`
}

type ReviewsResponse struct {
	Reviews []ReviewResponse `json:"reviews"`
}

func nullStr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func toUserResponse(p *Profile) UserResponse {
	return UserResponse{
		ID:           p.ID,
		Username:     p.Username,
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		Avatar:       nullStr(p.Avatar),
		Bio:          nullStr(p.Bio),
		Location:     nullStr(p.Location),
		Rating:       p.Rating,
		TotalRatings: p.TotalRatings,
		IsVerified:   p.IsVerified,
		JoinDate:     p.JoinedAt,
	}
}

// users.rating は平均値そのものなので丸めるだけ
func toStatsResponse(p *Profile, st Stats) StatsResponse {
	res := StatsResponse{
		TotalBooks:     st.TotalBooks,
		AvailableBooks: st.AvailableBooks,
		TotalLoans:     st.TotalLoans,
	}
	if p.TotalRatings > 0 {
		res.AverageRating = books.Round1(p.Rating)
	}
	return res
}

func toReviewResponse(r Review) ReviewResponse {
	return ReviewResponse{
		LoanID:    r.LoanID,
		BookID:    r.BookID,
		BookTitle: r.BookTitle.String,
		Role:      r.ReviewerRole,
		Reviewer: ReviewerRef{
			ID:        r.Reviewer.ID,
			Username:  r.Reviewer.Username,
			FirstName: r.Reviewer.FirstName,
			LastName:  r.Reviewer.LastName,
			Avatar:    nullStr(r.Reviewer.Avatar),
		},
		Rating:  r.Rating,
		Comment: r.Comment.String,
		Date:    r.Date,
	}
}
