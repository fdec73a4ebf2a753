// Package paging parses page/limit query parameters and builds the
// pagination block returned by list endpoints.
package paging

import (
	"strconv"

	"bookbnb-backend/internal/platform/apierr"
)

type Page struct {
	Number int
	Limit  int
}

// All disables LIMIT/OFFSET.
var All = Page{Number: 1}

func (p Page) Unbounded() bool { return p.Limit <= 0 }

func (p Page) Offset() int {
	if p.Number <= 1 || p.Unbounded() {
		return 0
	}
	return (p.Number - 1) * p.Limit
}

// MaxPage bounds page so (page-1)*limit stays a sane OFFSET.
const MaxPage = 10000

// Parse reads page (1..MaxPage) and limit (1..max); empty values take defaults.
func Parse(page, limit string, def, maxLimit int) (Page, error) {
	p := Page{Number: 1, Limit: def}
	var fields []apierr.FieldError
	if page != "" {
		n, err := strconv.Atoi(page)
		if err != nil || n < 1 || n > MaxPage {
			fields = append(fields, apierr.FieldError{Field: "page", Message: "page must be between 1 and " + strconv.Itoa(MaxPage)})
		}
		p.Number = n
	}
	if limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 1 || n > maxLimit {
			fields = append(fields, apierr.FieldError{Field: "limit", Message: "limit must be between 1 and " + strconv.Itoa(maxLimit)})
		}
		p.Limit = n
	}
	if len(fields) > 0 {
		return Page{}, apierr.InvalidFields(fields)
	}
	return p, nil
}

// Info is the pagination block without the per-resource total field.
type Info struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	HasNext     bool `json:"hasNext"`
	HasPrev     bool `json:"hasPrev"`
}

func (p Page) Info(total int64, returned int) Info {
	pages := 1
	if !p.Unbounded() {
		pages = int((total + int64(p.Limit) - 1) / int64(p.Limit))
	}
	return Info{
		CurrentPage: p.Number,
		TotalPages:  pages,
		HasNext:     int64(p.Offset()+returned) < total,
		HasPrev:     p.Number > 1,
	}
}
