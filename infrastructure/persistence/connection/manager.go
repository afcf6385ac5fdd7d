// Package connection owns the lifecycle of the record store connection.
//
// A single Manager per process decides, for every unit of work, whether the
// link must be (re)established before the work proceeds. Concurrent callers
// arriving while an attempt is in flight wait for that attempt and adopt its
// outcome instead of starting their own.
package connection

import (
	"context"
	"fmt"
	"sync"
	"time"

	apperrors "journals-backend/pkg/errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// DefaultTimeout bounds a single establishment attempt.
const DefaultTimeout = 5 * time.Second

// Manager is the connection state machine. It is the sole mutator of
// connection state; the zero value is not usable, use NewManager.
type Manager struct {
	dialer   Dialer
	timeout  time.Duration
	logger   *zap.Logger
	observer Observer
	tracer   trace.Tracer

	mu        sync.Mutex
	state     State
	inflight  *attempt
	lastErr   error
	attempts  uint64
	changedAt time.Time
}

// attempt is one establishment attempt shared by every caller that arrives
// while it runs. err is written before done is closed.
type attempt struct {
	done chan struct{}
	err  error
}

// Option configures a Manager.
type Option func(*Manager)

// WithTimeout sets the bound on a single establishment attempt.
func WithTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithObserver registers an observer for attempts and transitions.
func WithObserver(o Observer) Option {
	return func(m *Manager) {
		if o != nil {
			m.observer = o
		}
	}
}

// WithTracer sets the tracer used for attempt spans.
func WithTracer(t trace.Tracer) Option {
	return func(m *Manager) {
		if t != nil {
			m.tracer = t
		}
	}
}

// NewManager creates a manager in the Disconnected state.
func NewManager(dialer Dialer, opts ...Option) *Manager {
	m := &Manager{
		dialer:    dialer,
		timeout:   DefaultTimeout,
		logger:    zap.NewNop(),
		observer:  nopObserver{},
		tracer:    otel.Tracer("journals-backend/connection"),
		state:     Disconnected,
		changedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// EnsureReady returns nil once a usable connection exists.
//
// Ready returns immediately without a network round-trip. Disconnected and
// Failed start a new attempt. Connecting waits for the attempt in flight. A
// failed attempt is reported as a connection error carrying the cause.
func (m *Manager) EnsureReady(ctx context.Context) error {
	m.mu.Lock()
	switch m.state {
	case Ready:
		m.mu.Unlock()
		return nil
	case Connecting:
		a := m.inflight
		m.mu.Unlock()
		return m.wait(ctx, a)
	}

	a := &attempt{done: make(chan struct{})}
	m.inflight = a
	m.attempts++
	m.transition(Connecting, nil)
	m.mu.Unlock()

	// The attempt outlives the caller that started it: other callers may be
	// waiting on it.
	go m.run(context.WithoutCancel(ctx), a)

	return m.wait(ctx, a)
}

// Warm is an optional warm-up call made at startup. A failure is logged and
// returned but leaves the manager ready to retry on the next demand.
func (m *Manager) Warm(ctx context.Context) error {
	start := time.Now()
	if err := m.EnsureReady(ctx); err != nil {
		m.logger.Warn("Record store warm-up failed, will retry on demand",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)),
		)
		return err
	}
	m.logger.Info("Record store warm-up completed", zap.Duration("duration", time.Since(start)))
	return nil
}

// Invalidate is called when the transport reports the link is no longer
// healthy. A Ready connection drops to Disconnected so the next EnsureReady
// re-validates it. Reports in any other state are ignored: an attempt in
// flight decides the outcome itself.
func (m *Manager) Invalidate(cause error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != Ready {
		return
	}
	m.logger.Warn("Record store link reported unhealthy", zap.Error(cause))
	m.transition(Disconnected, cause)
}

// State returns the current state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Stats returns a snapshot for health reporting.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Stats{
		State:     m.state,
		StateName: m.state.String(),
		Attempts:  m.attempts,
		Since:     m.changedAt,
	}
	if m.lastErr != nil {
		s.LastError = m.lastErr.Error()
	}
	return s
}

// Close releases the dialer's resources and returns to Disconnected.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	if m.state != Connecting {
		m.transition(Disconnected, nil)
	}
	m.mu.Unlock()

	if c, ok := m.dialer.(Closer); ok {
		return c.Close(ctx)
	}
	return nil
}

func (m *Manager) run(parent context.Context, a *attempt) {
	ctx, cancel := context.WithTimeout(parent, m.timeout)
	defer cancel()

	ctx, span := m.tracer.Start(ctx, "connection.Dial",
		trace.WithAttributes(attribute.String("connection.timeout", m.timeout.String())),
	)
	start := time.Now()

	err := m.dial(ctx)
	took := time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()

	m.mu.Lock()
	a.err = err
	m.inflight = nil
	if err != nil {
		m.transition(Failed, err)
	} else {
		m.transition(Ready, nil)
	}
	m.observer.AttemptFinished(err, took)
	m.mu.Unlock()

	close(a.done)

	if err != nil {
		m.logger.Error("Record store connection attempt failed",
			zap.Error(err),
			zap.Duration("duration", took),
		)
		return
	}
	m.logger.Info("Connected to record store", zap.Duration("duration", took))
}

// dial calls the dialer, turning a panic into an error so a misbehaving
// driver cannot take the process down.
func (m *Manager) dial(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("dialer panicked: %v", r)
		}
	}()
	return m.dialer.Dial(ctx)
}

func (m *Manager) wait(ctx context.Context, a *attempt) error {
	select {
	case <-a.done:
		if a.err != nil {
			return apperrors.NewConnection("record store unavailable", a.err)
		}
		return nil
	case <-ctx.Done():
		return apperrors.NewConnection("gave up waiting for record store connection", ctx.Err())
	}
}

// transition must be called with mu held.
func (m *Manager) transition(to State, cause error) {
	from := m.state
	m.state = to
	m.changedAt = time.Now()
	if cause != nil {
		m.lastErr = cause
	} else if to == Ready {
		m.lastErr = nil
	}
	if from != to {
		m.logger.Debug("Connection state changed",
			zap.Stringer("from", from),
			zap.Stringer("to", to),
		)
		m.observer.StateChanged(from, to)
	}
}
