// Package service implements the clinic's use cases on top of the repository contracts.
// Business failures are reported as *Error; infrastructure failures are wrapped and returned as-is.
package service

import (
	"math"
	"strings"
	"time"

	"dentalclinic/internal/repository"
	"dentalclinic/internal/validation"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
	// maxPage keeps Page*Size inside a signed 32-bit OFFSET.
	maxPage = math.MaxInt32 / maxPageSize
)

// Page is a zero-based page request.
type Page struct {
	Page int
	Size int
}

// PageQuery normalizes the request: a negative page becomes 0, a page past maxPage
// becomes maxPage and a size outside 1..100 becomes 10.
func (p Page) PageQuery() (repository.PageQuery, Page) {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Page > maxPage {
		p.Page = maxPage
	}
	if p.Size < 1 || p.Size > maxPageSize {
		p.Size = defaultPageSize
	}
	return repository.PageQuery{Limit: p.Size, Offset: p.Page * p.Size}, p
}

// ListResult is the service-level DTO for paginated lists.
type ListResult[T any] struct {
	Items []T `json:"data"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Size  int `json:"size"`
}

func newListResult[T any](res *repository.PageResult[T], p Page) *ListResult[T] {
	items := res.Items
	if items == nil {
		items = []T{}
	}
	return &ListResult[T]{Items: items, Total: res.Total, Page: p.Page, Size: p.Size}
}

// check validates a request DTO.
func check(req any) error {
	if details := validation.Struct(req); details != nil {
		return validationFailed(details)
	}
	return nil
}

// clock is shared by services that need the current time; tests replace it.
type clock struct {
	now func() time.Time
	loc *time.Location
}

func newClock(loc *time.Location) clock {
	if loc == nil {
		loc = time.UTC
	}
	return clock{now: time.Now, loc: loc}
}

func (c clock) Now() time.Time {
	return c.now().In(c.loc)
}

// normalizeCode matches the upper-case form business codes are stored in.
func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func normalizeCodes(codes []string) []string {
	out := make([]string, len(codes))
	for i, c := range codes {
		out[i] = normalizeCode(c)
	}
	return out
}

func ptr[T any](v T) *T {
	return &v
}

// optional returns nil for an empty string.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
