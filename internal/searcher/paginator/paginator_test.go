package paginator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/tfidf-search-server/pkg/errors"
)

func TestPaginate(t *testing.T) {
	tests := []struct {
		name  string
		items []int
		size  int
		want  [][]int
	}{
		{"empty", nil, 3, [][]int{}},
		{"exact", []int{1, 2, 3, 4}, 2, [][]int{{1, 2}, {3, 4}}},
		{"short tail", []int{1, 2, 3, 4, 5}, 2, [][]int{{1, 2}, {3, 4}, {5}}},
		{"one page", []int{1, 2}, 10, [][]int{{1, 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pages, err := Paginate(tt.items, tt.size)
			require.NoError(t, err)
			assert.Equal(t, tt.want, pages)
		})
	}
}

func TestPaginateZeroSize(t *testing.T) {
	_, err := Paginate([]string{"a"}, 0)
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestPagesDoNotOverwriteEachOther(t *testing.T) {
	items := []int{1, 2, 3}
	pages, err := Paginate(items, 2)
	require.NoError(t, err)
	pages[0] = append(pages[0], 99)
	assert.Equal(t, []int{3}, pages[1])
}
