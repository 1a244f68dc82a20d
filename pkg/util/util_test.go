package util

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForEach_CollectsErrorsByIndex(t *testing.T) {
	inputs := []int{1, 2, 3, 4, 5}
	boom := errors.New("boom")

	errs := ForEach(context.Background(), inputs, 2, func(ctx context.Context, n int) error {
		if n%2 == 0 {
			return boom
		}
		return nil
	})

	require.Len(t, errs, 5)
	assert.NoError(t, errs[0])
	assert.ErrorIs(t, errs[1], boom)
	assert.NoError(t, errs[2])
	assert.ErrorIs(t, errs[3], boom)
	assert.NoError(t, errs[4])
}

func TestForEach_RespectsWorkerLimit(t *testing.T) {
	var running, peak int32
	inputs := make([]int, 20)

	ForEach(context.Background(), inputs, 3, func(ctx context.Context, _ int) error {
		n := atomic.AddInt32(&running, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		atomic.AddInt32(&running, -1)
		return nil
	})

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
}

func TestForEach_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	errs := ForEach(ctx, []int{1, 2, 3}, 1, func(ctx context.Context, _ int) error { return nil })
	require.Len(t, errs, 3)
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, context.Canceled)
		}
	}
}

func TestForEach_Empty(t *testing.T) {
	assert.Empty(t, ForEach(context.Background(), []string(nil), 4, func(context.Context, string) error { return nil }))
}

func TestFormatDateTpl(t *testing.T) {
	ts := time.Date(2023, 11, 10, 7, 5, 9, 0, time.UTC)

	assert.Equal(t, "2023.11.10", FormatDateTpl(ts, "YYYY.MM.DD"))
	assert.Equal(t, "10/11/23", FormatDateTpl(ts, "DD/MM/YY"))
	assert.Equal(t, "2023-11-10 07:05:09", FormatDateTpl(ts, "YYYY-MM-DD hh:mm:ss"))
	assert.Equal(t, "", FormatDateTpl(time.Time{}, "YYYY"))
}
