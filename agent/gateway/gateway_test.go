package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	contractx "github.com/Sampath-yadav/Sahay-Project/agent/contract"
	metricsx "github.com/Sampath-yadav/Sahay-Project/pkg/metrics"
)

type recordingSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()
	return ctx.Err()
}

func newTestGateway(t *testing.T, opts ...Option) (*Gateway, *recordingSleeper) {
	t.Helper()
	sleeper := &recordingSleeper{}
	base := []Option{WithSleeper(sleeper.Sleep), WithLogger(zerolog.Nop())}
	return New(append(base, opts...)...), sleeper
}

func TestDoReturnsFirstSuccessWithoutDelay(t *testing.T) {
	t.Parallel()

	g, sleeper := newTestGateway(t)
	calls := 0
	got, err := Do(context.Background(), g, "store.get_provider", func(context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 1, calls)
	assert.Empty(t, sleeper.delays)
}

func TestDoRetriesTransientWithExponentialBackoff(t *testing.T) {
	t.Parallel()

	g, sleeper := newTestGateway(t, WithMetrics(metricsx.New(prometheus.NewRegistry())))

	calls := 0
	_, err := Do(context.Background(), g, "store.search_providers", func(context.Context) (int, error) {
		calls++
		return 0, &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, contractx.ErrUnavailable)
	assert.ErrorIs(t, err, syscall.ECONNREFUSED)
	assert.Equal(t, contractx.KindUnavailable, contractx.KindOf(err))
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, sleeper.delays)
	assert.Equal(t, 400*time.Millisecond, g.Delay(3))
}

func TestDoRecoversAfterTransientFailure(t *testing.T) {
	t.Parallel()

	g, sleeper := newTestGateway(t)
	calls := 0
	got, err := Do(context.Background(), g, "store.list_providers", func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("read tcp 10.0.0.1:5432: connection reset by peer")
		}
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, got)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, sleeper.delays)
}

func TestDoPermanentFailureMakesOneAttempt(t *testing.T) {
	t.Parallel()

	for _, perm := range []error{
		fmt.Errorf("%w: booking b1", contractx.ErrNotFound),
		fmt.Errorf("%w: slot taken", contractx.ErrConflict),
		fmt.Errorf("%w: bad date", contractx.ErrInvalidInput),
		errors.New("permission denied for table bookings"),
	} {
		g, sleeper := newTestGateway(t)
		calls := 0
		_, err := Do(context.Background(), g, "store.cancel_booking", func(context.Context) (struct{}, error) {
			calls++
			return struct{}{}, perm
		})
		assert.Equal(t, perm, err)
		assert.Equal(t, 1, calls, "error %v", perm)
		assert.Empty(t, sleeper.delays)
	}
}

func TestDoDeadlineReturnsTimeout(t *testing.T) {
	t.Parallel()

	g := New(WithDeadline(20*time.Millisecond), WithLogger(zerolog.Nop()))
	start := time.Now()
	_, err := Do(context.Background(), g, "store.insert_booking", func(ctx context.Context) (int, error) {
		// Ignores ctx, like the PostgREST client.
		time.Sleep(500 * time.Millisecond)
		return 1, nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, contractx.ErrTimeout)
	assert.Equal(t, contractx.KindTimeout, contractx.KindOf(err))
	assert.Less(t, time.Since(start), 400*time.Millisecond)
}

func TestDoDeadlineInterruptsBackoff(t *testing.T) {
	t.Parallel()

	g := New(WithDeadline(30*time.Millisecond), WithBaseDelay(time.Second), WithLogger(zerolog.Nop()))
	calls := 0
	_, err := Do(context.Background(), g, "store.ping", func(context.Context) (int, error) {
		calls++
		return 0, errors.New("dial tcp: lookup db.internal: no such host")
	})
	assert.ErrorIs(t, err, contractx.ErrTimeout)
	assert.Equal(t, 1, calls)
}

func TestClassify(t *testing.T) {
	t.Parallel()

	transient := []error{
		&net.DNSError{Err: "no such host", Name: "db"},
		fmt.Errorf("write: %w", syscall.EPIPE),
		fmt.Errorf("query: %w", syscall.ECONNRESET),
		errors.New("unexpected EOF"),
		errors.New("EOF"),
		errors.New("upstream responded status=503"),
		errors.New("(502) Bad Gateway"),
		errors.New("dial tcp: i/o timeout"),
		tempErr{},
	}
	for _, err := range transient {
		assert.Equal(t, ClassTransient, Classify(err), "Classify(%v)", err)
	}

	permanent := []error{
		contractx.ErrNotFound,
		contractx.ErrAmbiguous,
		contractx.ErrUnavailable,
		context.Canceled,
		errors.New("(23505) duplicate key value"),
		errors.New("status=404 not found"),
		errors.New("syntax error at or near SELECT"),
	}
	for _, err := range permanent {
		assert.Equal(t, ClassPermanent, Classify(err), "Classify(%v)", err)
	}
}

type tempErr struct{}

func (tempErr) Error() string   { return "upstream hiccup" }
func (tempErr) Temporary() bool { return true }

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, Config{MaxAttempts: 3, BaseDelay: 100 * time.Millisecond}.Validate())
	require.Error(t, Config{MaxAttempts: 0}.Validate())
	require.Error(t, Config{MaxAttempts: 1, Deadline: -time.Second}.Validate())
}
