// Package pagination implements page-number pagination over a counted result set.
//
// Page numbers are forgiving: a page that is not an integer falls back to the
// first page and an integer page outside [1, num_pages] falls back to the last.
package pagination

import (
	"errors"
	"strconv"
	"strings"
)

const (
	// DefaultPerPage is used when a request does not name a page size.
	DefaultPerPage = 1

	// MaxPerPage caps the page size a caller may request.
	MaxPerPage = 1000
)

// ErrInvalidPerPage is returned when the page size is below 1.
var ErrInvalidPerPage = errors.New("per_page must be at least 1")

// Request is the raw page selection taken from the query string.
// Page is kept as a string so non-numeric input can fall back to page 1.
type Request struct {
	Page    string `form:"page"`
	PerPage int    `form:"per_page" binding:"omitempty,min=1,max=1000"`
}

// Info describes the resolved page. It is serialized as the "pagination"
// object of list responses.
type Info struct {
	Page        int  `json:"page"`
	Start       int  `json:"start"`
	End         int  `json:"end"`
	NumPages    int  `json:"num_pages"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
	Total       int  `json:"total"`

	perPage int
}

// Normalize fills in defaults. A zero PerPage means "not provided".
func (r Request) Normalize() (Request, error) {
	if r.PerPage == 0 {
		r.PerPage = DefaultPerPage
	}
	if r.PerPage < 1 {
		return r, ErrInvalidPerPage
	}
	if r.PerPage > MaxPerPage {
		r.PerPage = MaxPerPage
	}
	return r, nil
}

// Paginate resolves req against a result set of total records.
// req must already be normalized.
func Paginate(total int, req Request) Info {
	perPage := req.PerPage
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if total < 0 {
		total = 0
	}

	numPages := (total + perPage - 1) / perPage
	if numPages < 1 {
		numPages = 1
	}

	page := resolvePage(req.Page, numPages)

	info := Info{
		Page:        page,
		NumPages:    numPages,
		HasNext:     page < numPages,
		HasPrevious: page > 1,
		Total:       total,
		perPage:     perPage,
	}

	if total > 0 {
		info.Start = (page-1)*perPage + 1
		if page == numPages {
			info.End = total
		} else {
			info.End = page * perPage
		}
	}

	return info
}

func resolvePage(raw string, numPages int) int {
	page, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 1
	}
	if page < 1 || page > numPages {
		return numPages
	}
	return page
}

// Offset returns the number of records before the page.
func (i Info) Offset() int {
	return (i.Page - 1) * i.perPage
}

// Limit returns the page size.
func (i Info) Limit() int {
	return i.perPage
}

// PerPage returns the resolved page size.
func (i Info) PerPage() int {
	return i.perPage
}
