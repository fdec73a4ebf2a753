package books

import (
	"database/sql"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

type Condition string

const (
	ConditionNew      Condition = "New"
	ConditionLikeNew  Condition = "Like New"
	ConditionVeryGood Condition = "Very Good"
	ConditionGood     Condition = "Good"
	ConditionFair     Condition = "Fair"
	ConditionPoor     Condition = "Poor"
)

func (c Condition) Valid() bool {
	switch c {
	case ConditionNew, ConditionLikeNew, ConditionVeryGood, ConditionGood, ConditionFair, ConditionPoor:
		return true
	}
	return false
}

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Owner is the public part of the owning user.
type Owner struct {
	ID        string
	Username  string
	FirstName string
	LastName  string
	Rating    float64
	Avatar    sql.NullString
	Bio       sql.NullString
	Location  sql.NullString
	JoinedAt  time.Time
}

type Book struct {
	ID            string
	OwnerID       string
	Title         string
	Author        string
	ISBN          sql.NullString
	Description   string
	Genre         string
	Condition     Condition
	Language      string
	Pages         sql.NullInt64
	PublishedYear sql.NullInt64
	Images        []string
	IsAvailable   bool
	DailyRate     decimal.Decimal
	WeeklyRate    decimal.NullDecimal
	MonthlyRate   decimal.NullDecimal
	Deposit       decimal.Decimal
	Location      string
	Coordinates   *Coordinates
	Tags          []string
	Rules         []string
	RatingSum     float64
	TotalRatings  int
	TotalLoans    int
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Owner Owner
}

// AverageRating is the rating sum over its count, one decimal place.
func (b *Book) AverageRating() float64 {
	if b.TotalRatings == 0 {
		return 0
	}
	return Round1(b.RatingSum / float64(b.TotalRatings))
}

func Round1(v float64) float64 { return math.Round(v*10) / 10 }

type Filter struct {
	Search        string
	Genre         string
	Location      string
	MinPrice      decimal.NullDecimal
	MaxPrice      decimal.NullDecimal
	Condition     Condition
	OwnerID       string
	AvailableOnly bool
}
