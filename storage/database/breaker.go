package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"net"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/sony/gobreaker"

	"github.com/Pensezy/EduTrack-CM-sub003/core"
)

// Breaker guards record store calls. Once the store looks down it fails fast instead of waiting on it.
type Breaker struct {
	cb *gobreaker.CircuitBreaker
}

func NewBreaker(name string, logger core.Logger) *Breaker {
	return &Breaker{
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 3,
			Interval:    10 * time.Second,
			Timeout:     10 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				// open after 3 consecutive failures
				return counts.ConsecutiveFailures >= 3
			},
			IsSuccessful: func(err error) bool {
				return err == nil || !IsConnError(err)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				if logger != nil {
					logger.Warn("circuit breaker " + name + ": " + from.String() + " -> " + to.String())
				}
			},
		}),
	}
}

// Do runs fn through the circuit breaker.
// Open circuits and connection failures come back as core.BackendUnavailableError; other errors unchanged.
func (b *Breaker) Do(fn func() error) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) || IsConnError(err) {
		return core.NewBackendUnavailableError(err)
	}
	return err
}

func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

// IsConnError reports whether err means the record store could not be reached.
func IsConnError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// class 08: connection exception, 57P0x: operator intervention (shutdown)
		return pqErr.Code.Class() == "08" || strings.HasPrefix(string(pqErr.Code), "57P0")
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
