package scroll

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loopscroll/internal/domain"
)

func TestPropsNormalized(t *testing.T) {
	tests := []struct {
		name  string
		props Props[int]
		check func(t *testing.T, p Props[int])
	}{
		{
			name:  "negative speed stops",
			props: Props[int]{Speed: -3, LoadCount: 4},
			check: func(t *testing.T, p Props[int]) { assert.Zero(t, p.Speed) },
		},
		{
			name:  "nan speed stops",
			props: Props[int]{Speed: math.NaN(), LoadCount: 4},
			check: func(t *testing.T, p Props[int]) { assert.Zero(t, p.Speed) },
		},
		{
			name:  "load count below one",
			props: Props[int]{LoadCount: 0},
			check: func(t *testing.T, p Props[int]) { assert.Equal(t, 1, p.LoadCount) },
		},
		{
			name:  "negative wait",
			props: Props[int]{WaitTime: -time.Second},
			check: func(t *testing.T, p Props[int]) { assert.Zero(t, p.WaitTime) },
		},
		{
			name:  "unknown direction",
			props: Props[int]{Direction: "sideways"},
			check: func(t *testing.T, p Props[int]) { assert.Equal(t, domain.DirectionUp, p.Direction) },
		},
		{
			name:  "unknown wait mode",
			props: Props[int]{WaitMode: "forever"},
			check: func(t *testing.T, p Props[int]) { assert.Equal(t, domain.WaitPerItem, p.WaitMode) },
		},
		{
			name:  "valid values kept",
			props: Props[int]{Speed: 2.5, LoadCount: 3, Direction: domain.DirectionRight, WaitMode: domain.WaitPerPage},
			check: func(t *testing.T, p Props[int]) {
				assert.Equal(t, 2.5, p.Speed)
				assert.Equal(t, 3, p.LoadCount)
				assert.Equal(t, domain.DirectionRight, p.Direction)
				assert.Equal(t, domain.WaitPerPage, p.WaitMode)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, tt.props.normalized())
		})
	}
}

func TestDefaultProps(t *testing.T) {
	p := DefaultProps[string]()
	assert.Equal(t, DefaultItemKey, p.ItemKey)
	assert.Equal(t, domain.DirectionUp, p.Direction)
	assert.Equal(t, DefaultSpeed, p.Speed)
	assert.Equal(t, DefaultLoadCount, p.LoadCount)
	assert.True(t, p.PausedOnHover)
	assert.Zero(t, p.WaitTime)
}

func TestSliceSourceFetch(t *testing.T) {
	src := SliceSource[int]{1, 2, 3, 4, 5}
	ctx := context.Background()

	b, err := src.Fetch(ctx, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, b.Items)
	assert.False(t, b.Done)

	b, err = src.Fetch(ctx, 4, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{5}, b.Items)
	assert.True(t, b.Done)

	b, err = src.Fetch(ctx, 9, 2)
	require.NoError(t, err)
	assert.Empty(t, b.Items)
	assert.True(t, b.Done)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = src.Fetch(cancelled, 0, 2)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSameSource(t *testing.T) {
	a := SliceSource[int]{1, 2}
	b := SliceSource[int]{1, 2}

	assert.True(t, sameSource[int](nil, nil))
	assert.False(t, sameSource[int](a, nil))
	assert.True(t, sameSource[int](a, a))
	assert.False(t, sameSource[int](a, b))

	data := []int{1, 2, 3}
	assert.True(t, sameSlice(data, data))
	assert.False(t, sameSlice(data, data[:2]))
	assert.False(t, sameSlice(data, []int{1, 2, 3}))
	assert.True(t, sameSlice[int](nil, []int{}))
}
