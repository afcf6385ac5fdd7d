package connection

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	apperrors "journals-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeDialer counts dials. When release is non-nil every dial blocks until it
// is closed. Errors are consumed in order; once exhausted dials succeed.
type fakeDialer struct {
	calls   atomic.Int32
	release chan struct{}

	mu   sync.Mutex
	errs []error
}

func (d *fakeDialer) Dial(ctx context.Context) error {
	d.calls.Add(1)
	if d.release != nil {
		select {
		case <-d.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.errs) == 0 {
		return nil
	}
	err := d.errs[0]
	d.errs = d.errs[1:]
	return err
}

type recordingObserver struct {
	mu          sync.Mutex
	transitions []State
	failures    int
}

func (o *recordingObserver) AttemptFinished(err error, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err != nil {
		o.failures++
	}
}

func (o *recordingObserver) StateChanged(_, to State) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.transitions = append(o.transitions, to)
}

func TestEnsureReady_ConcurrentColdStartDialsOnce(t *testing.T) {
	dialer := &fakeDialer{release: make(chan struct{})}
	m := NewManager(dialer, WithLogger(zap.NewNop()))

	const callers = 50
	var wg sync.WaitGroup
	results := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = m.EnsureReady(context.Background())
		}(i)
	}

	require.Eventually(t, func() bool { return m.State() == Connecting }, time.Second, time.Millisecond)
	close(dialer.release)
	wg.Wait()

	assert.Equal(t, int32(1), dialer.calls.Load())
	for _, err := range results {
		assert.NoError(t, err)
	}
	assert.Equal(t, Ready, m.State())
}

func TestEnsureReady_ConcurrentCallersShareFailure(t *testing.T) {
	cause := errors.New("server selection timeout")
	dialer := &fakeDialer{release: make(chan struct{}), errs: []error{cause}}
	m := NewManager(dialer)

	const callers = 20
	var wg, entered sync.WaitGroup
	results := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		entered.Add(1)
		go func(i int) {
			defer wg.Done()
			entered.Done()
			results[i] = m.EnsureReady(context.Background())
		}(i)
	}

	// Every caller must be parked on the attempt before it resolves,
	// otherwise a late caller would legitimately retry after the failure.
	entered.Wait()
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, Connecting, m.State())
	close(dialer.release)
	wg.Wait()

	assert.Equal(t, int32(1), dialer.calls.Load())
	for _, err := range results {
		require.Error(t, err)
		assert.True(t, apperrors.IsConnection(err))
		assert.ErrorIs(t, err, cause)
	}
	assert.Equal(t, Failed, m.State())
}

func TestEnsureReady_ReadyDoesNotRedial(t *testing.T) {
	dialer := &fakeDialer{}
	m := NewManager(dialer)
	ctx := context.Background()

	require.NoError(t, m.EnsureReady(ctx))
	for i := 0; i < 10; i++ {
		require.NoError(t, m.EnsureReady(ctx))
	}

	assert.Equal(t, int32(1), dialer.calls.Load())
	assert.Equal(t, uint64(1), m.Stats().Attempts)
}

func TestEnsureReady_RetriesAfterFailure(t *testing.T) {
	dialer := &fakeDialer{errs: []error{errors.New("refused"), errors.New("refused again")}}
	obs := &recordingObserver{}
	m := NewManager(dialer, WithObserver(obs))
	ctx := context.Background()

	err := m.EnsureReady(ctx)
	require.Error(t, err)
	assert.True(t, apperrors.IsConnection(err))
	assert.Equal(t, Failed, m.State())
	assert.Equal(t, "refused", m.Stats().LastError)

	require.Error(t, m.EnsureReady(ctx))
	require.NoError(t, m.EnsureReady(ctx))

	assert.Equal(t, int32(3), dialer.calls.Load())
	assert.Equal(t, Ready, m.State())
	assert.Empty(t, m.Stats().LastError)
	assert.Equal(t, 2, obs.failures)
	assert.Equal(t, []State{Connecting, Failed, Connecting, Failed, Connecting, Ready}, obs.transitions)
}

func TestInvalidate_ForcesRevalidation(t *testing.T) {
	dialer := &fakeDialer{}
	m := NewManager(dialer)
	ctx := context.Background()

	require.NoError(t, m.EnsureReady(ctx))
	m.Invalidate(errors.New("heartbeat failed"))
	assert.Equal(t, Disconnected, m.State())
	assert.Equal(t, "heartbeat failed", m.Stats().LastError)

	require.NoError(t, m.EnsureReady(ctx))
	assert.Equal(t, int32(2), dialer.calls.Load())
	assert.Equal(t, Ready, m.State())
}

func TestInvalidate_IgnoredUnlessReady(t *testing.T) {
	dialer := &fakeDialer{errs: []error{errors.New("refused")}}
	m := NewManager(dialer)

	m.Invalidate(errors.New("spurious"))
	assert.Equal(t, Disconnected, m.State())

	require.Error(t, m.EnsureReady(context.Background()))
	m.Invalidate(errors.New("spurious"))
	assert.Equal(t, Failed, m.State())
}

func TestEnsureReady_WaiterCancellationDoesNotAbortAttempt(t *testing.T) {
	dialer := &fakeDialer{release: make(chan struct{})}
	m := NewManager(dialer)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- m.EnsureReady(ctx) }()

	require.Eventually(t, func() bool { return m.State() == Connecting }, time.Second, time.Millisecond)
	cancel()

	err := <-errCh
	require.Error(t, err)
	assert.True(t, apperrors.IsConnection(err))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Connecting, m.State())

	close(dialer.release)
	require.NoError(t, m.EnsureReady(context.Background()))
	assert.Equal(t, int32(1), dialer.calls.Load())
}

func TestEnsureReady_AttemptIsBounded(t *testing.T) {
	dialer := &fakeDialer{release: make(chan struct{})}
	m := NewManager(dialer, WithTimeout(20*time.Millisecond))

	start := time.Now()
	err := m.EnsureReady(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, Failed, m.State())
}

type panickingDialer struct{}

func (panickingDialer) Dial(context.Context) error { panic("driver bug") }

func TestEnsureReady_DialerPanicIsReported(t *testing.T) {
	m := NewManager(panickingDialer{})

	err := m.EnsureReady(context.Background())

	require.Error(t, err)
	assert.True(t, apperrors.IsConnection(err))
	assert.Contains(t, err.Error(), "driver bug")
	assert.Equal(t, Failed, m.State())
}

func TestWarm(t *testing.T) {
	m := NewManager(&fakeDialer{errs: []error{errors.New("down")}})

	assert.Error(t, m.Warm(context.Background()))
	assert.NoError(t, m.Warm(context.Background()))
	assert.Equal(t, Ready, m.State())
}

type closingDialer struct {
	fakeDialer
	closed bool
}

func (d *closingDialer) Close(context.Context) error {
	d.closed = true
	return nil
}

func TestClose(t *testing.T) {
	dialer := &closingDialer{}
	m := NewManager(dialer)
	require.NoError(t, m.EnsureReady(context.Background()))

	require.NoError(t, m.Close(context.Background()))

	assert.True(t, dialer.closed)
	assert.Equal(t, Disconnected, m.State())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "disconnected", Disconnected.String())
	assert.Equal(t, "connecting", Connecting.String())
	assert.Equal(t, "ready", Ready.String())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "unknown", State(42).String())
}
