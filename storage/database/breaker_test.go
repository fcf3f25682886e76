package database

import (
	"context"
	"database/sql/driver"
	"testing"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"

	"github.com/Pensezy/EduTrack-CM-sub003/core"
)

func TestBreaker_Do(t *testing.T) {
	uniqueViolation := &pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"}

	tests := []struct {
		name            string
		err             error
		wantUnavailable bool
		wantSame        bool
	}{
		{name: "success"},
		{name: "bad connection", err: driver.ErrBadConn, wantUnavailable: true},
		{name: "wrapped bad connection", err: errors.Wrap(driver.ErrBadConn, "querying"), wantUnavailable: true},
		{name: "deadline", err: context.DeadlineExceeded, wantUnavailable: true},
		{name: "connection exception", err: &pq.Error{Code: "08006"}, wantUnavailable: true},
		{name: "admin shutdown", err: &pq.Error{Code: "57P01"}, wantUnavailable: true},
		{name: "unique violation", err: uniqueViolation, wantSame: true},
		{name: "other error", err: errors.New("boom"), wantSame: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			br := NewBreaker("test", nil)
			err := br.Do(func() error { return tt.err })

			switch {
			case tt.err == nil:
				assert.NoError(t, err)
			case tt.wantUnavailable:
				assert.True(t, core.IsBackendUnavailable(err))
				assert.True(t, errors.Is(err, tt.err))
			case tt.wantSame:
				assert.Equal(t, tt.err, err)
				assert.False(t, core.IsBackendUnavailable(err))
			}
		})
	}
}

func TestBreaker_opens(t *testing.T) {
	br := NewBreaker("test", nil)

	// failures other than connection ones never trip it
	for i := 0; i < 5; i++ {
		_ = br.Do(func() error { return &pq.Error{Code: "23505"} })
	}
	assert.Equal(t, gobreaker.StateClosed, br.State())

	for i := 0; i < 3; i++ {
		err := br.Do(func() error { return driver.ErrBadConn })
		assert.True(t, core.IsBackendUnavailable(err))
	}
	assert.Equal(t, gobreaker.StateOpen, br.State())

	// fails fast without calling the store
	var called bool
	err := br.Do(func() error {
		called = true
		return nil
	})
	assert.False(t, called)
	assert.True(t, core.IsBackendUnavailable(err))
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
}

func TestIsConnError(t *testing.T) {
	assert.False(t, IsConnError(nil))
	assert.False(t, IsConnError(&pq.Error{Code: "23505"}))
	assert.True(t, IsConnError(&pq.Error{Code: "08001"}))
	assert.True(t, IsConnError(errors.Wrap(driver.ErrBadConn, "exec")))
}
