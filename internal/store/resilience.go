package store

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Juara-1/warung-backend/internal/domain/repository"
	"github.com/Juara-1/warung-backend/internal/metrics"
	"github.com/Juara-1/warung-backend/internal/observability/logger"
)

// Policy acota cada llamada al store.
type Policy struct {
	// Timeout por intento. Siempre finito.
	Timeout time.Duration
	// MaxAttempts incluye el primer intento.
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

var DefaultPolicy = Policy{
	Timeout:     3 * time.Second,
	MaxAttempts: 3,
	BaseBackoff: 50 * time.Millisecond,
	MaxBackoff:  time.Second,
}

func (p Policy) normalized() Policy {
	if p.Timeout <= 0 {
		p.Timeout = DefaultPolicy.Timeout
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}
	if p.BaseBackoff <= 0 {
		p.BaseBackoff = DefaultPolicy.BaseBackoff
	}
	if p.MaxBackoff < p.BaseBackoff {
		p.MaxBackoff = p.BaseBackoff
	}
	return p
}

// Run ejecuta fn con timeout por intento. Los errores de dominio (ErrConflict,
// ErrNotFound) pasan sin cambios; los transitorios se reintentan; el resto y el
// agotamiento de intentos terminan en ErrStoreUnavailable.
func (p Policy) Run(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	p = p.normalized()
	log := logger.From(ctx).With(logger.Layer("store"), logger.Op(op))

	var err error
	for attempt := 1; ; attempt++ {
		actx, cancel := context.WithTimeout(ctx, p.Timeout)
		err = fn(actx)
		cancel()

		if err == nil || isDomainError(err) {
			return err
		}
		if ctx.Err() != nil || !IsTransient(err) || attempt >= p.MaxAttempts {
			break
		}

		metrics.StoreRetries.WithLabelValues(op).Inc()
		wait := p.backoff(attempt)
		log.Warn("transient store error, retrying", logger.Attempt(attempt), logger.Err(err))

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			err = ctx.Err()
			metrics.StoreUnavailable.WithLabelValues(op).Inc()
			return fmt.Errorf("%w: %s: %v", repository.ErrStoreUnavailable, op, err)
		case <-t.C:
		}
	}

	metrics.StoreUnavailable.WithLabelValues(op).Inc()
	log.Error("store unavailable", logger.Err(err))
	return fmt.Errorf("%w: %s: %v", repository.ErrStoreUnavailable, op, err)
}

// backoff exponencial con jitter completo, acotado por MaxBackoff.
func (p Policy) backoff(attempt int) time.Duration {
	d := p.BaseBackoff << (attempt - 1)
	if d <= 0 || d > p.MaxBackoff {
		d = p.MaxBackoff
	}
	return d/2 + time.Duration(rand.Int63n(int64(d/2)+1))
}

func isDomainError(err error) bool {
	return errors.Is(err, repository.ErrConflict) ||
		errors.Is(err, repository.ErrNotFound) ||
		errors.Is(err, repository.ErrStoreUnavailable)
}

// IsTransient reporta errores que vale la pena reintentar: timeouts, fallas de
// conexión y los SQLSTATE de serialización/deadlock/shutdown.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return true
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case len(pgErr.Code) == 5 && pgErr.Code[:2] == "08": // connection_exception
			return true
		case pgErr.Code == "40001", pgErr.Code == "40P01", pgErr.Code == "57P01", pgErr.Code == "57P03":
			return true
		}
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
