package model_test

import (
	"context"
	"errors"
	"testing"

	"catalog-sync/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pagedStream(pages [][]int, failAt int) (*model.Stream[int], *int) {
	calls := 0
	return model.NewStream(func(ctx context.Context) ([]int, bool, error) {
		calls++
		if calls == failAt {
			return nil, false, errors.New("page failed")
		}
		page := pages[calls-1]
		return page, calls < len(pages), nil
	}), &calls
}

func TestStream_CollectsAllPages(t *testing.T) {
	s, calls := pagedStream([][]int{{1, 2}, {}, {3}}, 0)

	items, err := model.Collect(context.Background(), s)

	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, items)
	assert.Equal(t, 3, *calls)
	assert.False(t, s.Next(context.Background()), "exhausted stream stays exhausted")
	assert.Equal(t, 3, *calls)
}

func TestStream_PageErrorEndsStream(t *testing.T) {
	s, _ := pagedStream([][]int{{1}, {2}, {3}}, 2)

	items, err := model.Collect(context.Background(), s)

	assert.Equal(t, []int{1}, items)
	assert.EqualError(t, err, "page failed")
}

func TestStream_StopsRequestingPagesAfterCancel(t *testing.T) {
	s, calls := pagedStream([][]int{{1, 2}, {3}}, 0)
	ctx, cancel := context.WithCancel(context.Background())

	require.True(t, s.Next(ctx))
	cancel()
	// The buffered item from the page already fetched is still delivered.
	require.True(t, s.Next(ctx))
	assert.Equal(t, 2, s.Item())
	assert.False(t, s.Next(ctx))
	assert.ErrorIs(t, s.Err(), context.Canceled)
	assert.Equal(t, 1, *calls)
}
