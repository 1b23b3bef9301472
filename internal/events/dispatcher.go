package events

import (
	"context"
	"sync"
	"time"

	"github.com/Juara-1/warung-backend/internal/metrics"
	"github.com/Juara-1/warung-backend/internal/observability/logger"
)

const (
	DefaultBuffer          = 256
	DefaultDeliveryTimeout = 2 * time.Second
)

// Dispatcher implementa Publisher sobre un canal acotado. Run es el único
// consumidor.
type Dispatcher struct {
	ch      chan Event
	sinks   []Sink
	timeout time.Duration
	now     func() time.Time

	// mu ordena envíos contra el cierre: todo evento encolado con RLock
	// tomado queda en el canal antes de que Run marque stopped y drene.
	mu      sync.RWMutex
	stopped bool
}

var _ Publisher = (*Dispatcher)(nil)

func New(buffer int, timeout time.Duration, sinks ...Sink) *Dispatcher {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if timeout <= 0 {
		timeout = DefaultDeliveryTimeout
	}
	return &Dispatcher{
		ch:      make(chan Event, buffer),
		sinks:   sinks,
		timeout: timeout,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Publish encola e. Si el buffer está lleno o el dispatcher ya paró, lo
// descarta.
func (d *Dispatcher) Publish(e Event) {
	if e.At.IsZero() {
		e.At = d.now()
	}
	if reason := d.enqueue(e); reason != "" {
		d.drop(e, reason)
		return
	}
	metrics.EventsPublished.WithLabelValues(string(e.Type)).Inc()
}

// enqueue retorna el motivo de descarte, o "" si e quedó en el canal.
func (d *Dispatcher) enqueue(e Event) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		return "stopped"
	}
	select {
	case d.ch <- e:
		return ""
	default:
		return "buffer_full"
	}
}

func (d *Dispatcher) drop(e Event, reason string) {
	metrics.EventsDropped.WithLabelValues(string(e.Type)).Inc()
	logger.L().Warn("event dropped",
		logger.Component("events"),
		logger.Event(string(e.Type)),
		logger.Reason(reason),
	)
}

// Run entrega eventos hasta que ctx termina. Al salir drena lo que quedó en
// el buffer con el mismo timeout por sink.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case e := <-d.ch:
			d.deliver(e)
		case <-ctx.Done():
			d.mu.Lock()
			d.stopped = true
			d.mu.Unlock()
			d.drain()
			return nil
		}
	}
}

func (d *Dispatcher) drain() {
	for {
		select {
		case e := <-d.ch:
			d.deliver(e)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(e Event) {
	for _, s := range d.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		err := s.Deliver(ctx, e)
		cancel()
		if err != nil {
			metrics.EventDeliveryFailures.WithLabelValues(s.Name()).Inc()
			logger.L().Warn("event delivery failed",
				logger.Component("events"),
				logger.Event(string(e.Type)),
				logger.Sink(s.Name()),
				logger.Err(err),
			)
		}
	}
}
