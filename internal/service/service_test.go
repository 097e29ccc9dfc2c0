package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"dentalclinic/internal/repository"
)

func TestPage_PageQuery(t *testing.T) {
	tests := []struct {
		name     string
		in       Page
		wantQ    repository.PageQuery
		wantPage Page
	}{
		{"defaults", Page{}, repository.PageQuery{Limit: 10, Offset: 0}, Page{Page: 0, Size: 10}},
		{"second page", Page{Page: 2, Size: 25}, repository.PageQuery{Limit: 25, Offset: 50}, Page{Page: 2, Size: 25}},
		{"negative page", Page{Page: -3, Size: 5}, repository.PageQuery{Limit: 5, Offset: 0}, Page{Page: 0, Size: 5}},
		{"oversized size", Page{Page: 1, Size: 500}, repository.PageQuery{Limit: 10, Offset: 10}, Page{Page: 1, Size: 10}},
		{
			name:     "huge page is capped",
			in:       Page{Page: 1 << 62, Size: 100},
			wantQ:    repository.PageQuery{Limit: 100, Offset: maxPage * 100},
			wantPage: Page{Page: maxPage, Size: 100},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, p := tt.in.PageQuery()
			assert.Equal(t, tt.wantQ, q)
			assert.Equal(t, tt.wantPage, p)
			assert.GreaterOrEqual(t, q.Offset, 0)
		})
	}
}

func TestNormalizeCodes(t *testing.T) {
	assert.Equal(t, "CLN01", normalizeCode("  cln01 "))
	assert.Equal(t, []string{"FILL", "SCALE"}, normalizeCodes([]string{"fill", " Scale"}))
}
