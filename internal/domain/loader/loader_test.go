package loader

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type progressCapture struct {
	fractions []float64
	names     []string
}

func (p *progressCapture) sink(fraction float64, taskName string) {
	p.fractions = append(p.fractions, fraction)
	p.names = append(p.names, taskName)
}

func TestExecuteRunsInOrder(t *testing.T) {
	var order []string
	l := New(nil, nil)
	l.Add("first", 1, func(context.Context) error {
		order = append(order, "first")
		return nil
	})
	l.Add("second", 1, func(context.Context) error {
		order = append(order, "second")
		return nil
	})

	require.NoError(t, l.Execute(context.Background()))
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestWeightedProgress(t *testing.T) {
	capture := &progressCapture{}
	l := New(nil, capture.sink)
	l.Add("settings", 1, func(context.Context) error { return nil })
	l.Add("categories", 3, func(context.Context) error { return nil })

	require.NoError(t, l.Execute(context.Background()))

	require.Len(t, capture.fractions, 3)
	assert.Equal(t, 0.0, capture.fractions[0])
	assert.InDelta(t, 0.25, capture.fractions[1], 1e-9)
	assert.InDelta(t, 1.0, capture.fractions[2], 1e-9)
	assert.Equal(t, "categories", capture.names[2])
}

func TestContinuesPastFailures(t *testing.T) {
	var ran bool
	boom := errors.New("boom")
	l := New(nil, nil)
	l.Add("failing", 1, func(context.Context) error { return boom })
	l.Add("after", 1, func(context.Context) error {
		ran = true
		return nil
	})

	err := l.Execute(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.True(t, ran)
}

func TestContinuesPastPanics(t *testing.T) {
	var ran bool
	l := New(nil, nil)
	l.Add("panicking", 1, func(context.Context) error { panic("nope") })
	l.Add("after", 1, func(context.Context) error {
		ran = true
		return nil
	})

	assert.Error(t, l.Execute(context.Background()))
	assert.True(t, ran)
}

func TestCancellationStopsBetweenTasks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var secondRan bool
	l := New(nil, nil)
	l.Add("first", 1, func(context.Context) error {
		cancel()
		return nil
	})
	l.Add("second", 1, func(context.Context) error {
		secondRan = true
		return nil
	})

	err := l.Execute(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, secondRan)
}

func TestDefaultWeight(t *testing.T) {
	capture := &progressCapture{}
	l := New(nil, capture.sink)
	l.Add("a", 0, func(context.Context) error { return nil })
	l.Add("b", -2, func(context.Context) error { return nil })

	require.NoError(t, l.Execute(context.Background()))
	assert.InDelta(t, 0.5, capture.fractions[1], 1e-9)
}

func TestExecuteOnce(t *testing.T) {
	l := New(nil, nil)
	l.Add("only", 1, func(context.Context) error { return nil })

	require.NoError(t, l.Execute(context.Background()))
	assert.Error(t, l.Execute(context.Background()))
}

func TestEmptyLoader(t *testing.T) {
	capture := &progressCapture{}
	l := New(nil, capture.sink)

	require.NoError(t, l.Execute(context.Background()))
	assert.Equal(t, []float64{1}, capture.fractions)
}
