package generation

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reachpoint/replybot/internal/cache"
	"github.com/reachpoint/replybot/internal/ratelimit"
	"github.com/reachpoint/replybot/internal/resilience"
	"github.com/reachpoint/replybot/internal/telemetry"
)

type fakeProvider struct {
	mu    sync.Mutex
	calls int32

	// failures is the number of leading calls that return failErr.
	failures int
	failErr  error

	// block, when set, is closed to release in-flight Generate calls.
	block chan struct{}

	result *Result
}

func (f *fakeProvider) Generate(ctx context.Context, req Request) (*Result, error) {
	n := atomic.AddInt32(&f.calls, 1)
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	failures := f.failures
	failErr := f.failErr
	f.mu.Unlock()
	if int(n) <= failures {
		return nil, failErr
	}
	if f.result != nil {
		return f.result, nil
	}
	return &Result{
		Strategies: []Strategy{{Text: "generated reply", Approach: "insight"}},
		Model:      req.Model,
	}, nil
}

func (f *fakeProvider) callCount() int {
	return int(atomic.LoadInt32(&f.calls))
}

func testRequest() Request {
	return Request{
		TargetID:      "t1",
		TargetText:    "interesting post",
		TargetAuthor:  "someone",
		Niche:         "tech",
		Model:         "test-model",
		MaxTokens:     1024,
		MaxStrategies: 3,
	}
}

func newTestCaller(p Provider, gate *ratelimit.Bucket) (*Caller, *cache.Cache[*Result], *telemetry.Recorder) {
	c := cache.New[*Result]()
	rec := telemetry.NewRecorder()
	caller := NewCaller(p, gate, c, rec, CallerConfig{
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
	})
	return caller, c, rec
}

func TestCall_Success(t *testing.T) {
	p := &fakeProvider{}
	caller, _, rec := newTestCaller(p, ratelimit.NewBucket(10, 10))

	res, err := caller.Call(context.Background(), testRequest())
	require.NoError(t, err)
	require.Len(t, res.Strategies, 1)
	assert.Equal(t, 1, p.callCount())

	m := rec.Metrics()
	assert.Equal(t, 1, m.TotalOperations)
	assert.Equal(t, 1.0, m.SuccessRate)
}

func TestCall_CacheHitSkipsGateAndProvider(t *testing.T) {
	p := &fakeProvider{}
	gate := ratelimit.NewBucket(1, 0.001)
	caller, _, _ := newTestCaller(p, gate)

	_, err := caller.Call(context.Background(), testRequest())
	require.NoError(t, err)
	require.Equal(t, 1, p.callCount())

	// The single token is spent. A second identical call must still succeed
	// from cache without touching the gate or the provider.
	res, err := caller.Call(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "generated reply", res.Strategies[0].Text)
	assert.Equal(t, 1, p.callCount())
}

func TestCall_GateRefusalFailsFast(t *testing.T) {
	p := &fakeProvider{}
	gate := ratelimit.NewBucket(1, 0.001)
	caller, _, _ := newTestCaller(p, gate)

	require.True(t, gate.TryConsume(1))

	_, err := caller.Call(context.Background(), testRequest())
	require.Error(t, err)
	assert.True(t, errors.Is(err, resilience.ErrRateLimited))
	assert.Equal(t, 0, p.callCount())
}

func TestCall_RetriesTransientThenSucceeds(t *testing.T) {
	p := &fakeProvider{
		failures: 2,
		failErr:  resilience.NewTransientError(eris.New("upstream 503"), 503),
	}
	caller, _, rec := newTestCaller(p, ratelimit.NewBucket(10, 10))

	res, err := caller.Call(context.Background(), testRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, res.Strategies)
	// Two failures, one success, within maxRetries+1 attempts.
	assert.Equal(t, 3, p.callCount())

	m := rec.Metrics()
	assert.Equal(t, 1, m.TotalOperations)
	assert.Equal(t, 1.0, m.SuccessRate)
}

func TestCall_TransientExhaustionIsServiceUnavailable(t *testing.T) {
	p := &fakeProvider{
		failures: 10,
		failErr:  resilience.NewTransientError(eris.New("upstream 503"), 503),
	}
	caller, _, rec := newTestCaller(p, ratelimit.NewBucket(10, 10))

	_, err := caller.Call(context.Background(), testRequest())
	require.Error(t, err)
	assert.True(t, errors.Is(err, resilience.ErrServiceUnavailable))
	assert.Equal(t, 3, p.callCount())

	m := rec.Metrics()
	assert.Equal(t, 1, m.TotalOperations)
	assert.Equal(t, 1.0, m.ErrorRate)
}

func TestCall_MalformedResponseNotRetried(t *testing.T) {
	p := &fakeProvider{
		failures: 10,
		failErr:  eris.Wrap(resilience.ErrMalformedResponse, "generate: bad json"),
	}
	caller, _, _ := newTestCaller(p, ratelimit.NewBucket(10, 10))

	_, err := caller.Call(context.Background(), testRequest())
	require.Error(t, err)
	assert.True(t, errors.Is(err, resilience.ErrMalformedResponse))
	assert.Equal(t, 1, p.callCount())
}

func TestCall_AuthFailureNotRetried(t *testing.T) {
	p := &fakeProvider{
		failures: 10,
		failErr:  eris.Wrap(resilience.ErrAuthFailure, "generate: status 401"),
	}
	caller, _, _ := newTestCaller(p, ratelimit.NewBucket(10, 10))

	_, err := caller.Call(context.Background(), testRequest())
	require.Error(t, err)
	assert.True(t, errors.Is(err, resilience.ErrAuthFailure))
	assert.Equal(t, 1, p.callCount())
}

func TestCall_ConcurrentIdenticalRequestsCollapse(t *testing.T) {
	p := &fakeProvider{block: make(chan struct{})}
	caller, _, _ := newTestCaller(p, ratelimit.NewBucket(10, 10))

	var wg sync.WaitGroup
	results := make([]*Result, 4)
	errs := make([]error, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = caller.Call(context.Background(), testRequest())
		}(i)
	}

	// Give the goroutines time to pile up behind the in-flight call.
	time.Sleep(50 * time.Millisecond)
	close(p.block)
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		require.NotNil(t, results[i])
	}
	assert.Equal(t, 1, p.callCount())
}

func TestCall_SuccessPopulatesCache(t *testing.T) {
	p := &fakeProvider{}
	caller, c, _ := newTestCaller(p, ratelimit.NewBucket(10, 10))

	req := testRequest()
	_, err := caller.Call(context.Background(), req)
	require.NoError(t, err)

	cached, ok := c.Get(req.CacheKey())
	require.True(t, ok)
	assert.Equal(t, "generated reply", cached.Strategies[0].Text)
}

func TestCall_FailureDoesNotPopulateCache(t *testing.T) {
	p := &fakeProvider{
		failures: 10,
		failErr:  resilience.NewTransientError(eris.New("boom"), 500),
	}
	caller, c, _ := newTestCaller(p, ratelimit.NewBucket(10, 10))

	req := testRequest()
	_, err := caller.Call(context.Background(), req)
	require.Error(t, err)

	_, ok := c.Get(req.CacheKey())
	assert.False(t, ok)
}

func TestCacheKey_DistinguishesRequests(t *testing.T) {
	a := testRequest()
	b := testRequest()
	b.TargetText = "different post"

	assert.NotEqual(t, a.CacheKey(), b.CacheKey())
	assert.Equal(t, a.CacheKey(), testRequest().CacheKey())
}
