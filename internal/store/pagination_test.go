package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPage_Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   Page
		want Page
	}{
		{"zero uses default", Page{}, Page{Limit: 20}},
		{"clamped to max", Page{Limit: 500, Offset: 10}, Page{Limit: 100, Offset: 10}},
		{"negative offset", Page{Limit: 5, Offset: -3}, Page{Limit: 5}},
		{"kept", Page{Limit: 50, Offset: 50}, Page{Limit: 50, Offset: 50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalize(20, 100))
		})
	}
}

func TestResult_HasNext(t *testing.T) {
	r := Result[int]{Items: []int{1, 2}, Total: 5}
	assert.True(t, r.HasNext(Page{Limit: 2, Offset: 0}))
	assert.True(t, r.HasNext(Page{Limit: 2, Offset: 2}))

	last := Result[int]{Items: []int{5}, Total: 5}
	assert.False(t, last.HasNext(Page{Limit: 2, Offset: 4}))
}
