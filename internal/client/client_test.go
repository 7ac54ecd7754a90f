package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, serverURL string, cfg Config) *Client {
	t.Helper()
	cfg.BaseURL = serverURL
	c, err := New(cfg)
	require.NoError(t, err)
	return c
}

func countingServer(t *testing.T, body string) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func TestGetCachesWithinTTL(t *testing.T) {
	server, calls := countingServer(t, `{"_id":"BSYNRYMUTXBXSQ-UHFFFAOYSA-N","name":"aspirin"}`)
	c := newTestClient(t, server.URL, Config{
		CacheEnabled: true,
		CacheTTL:     time.Minute,
		HTTPClient:   server.Client(),
	})

	first, err := c.Get(context.Background(), "chem/BSYNRYMUTXBXSQ-UHFFFAOYSA-N", Params{"fields": "name"})
	require.NoError(t, err)
	second, err := c.Get(context.Background(), "chem/BSYNRYMUTXBXSQ-UHFFFAOYSA-N", Params{"fields": "name"})
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, int64(1), calls.Load(), "second call must be served from cache")
}

func TestGetRefetchesAfterTTL(t *testing.T) {
	server, calls := countingServer(t, `{"name":"aspirin"}`)
	clock := newFakeClock()
	c := newTestClient(t, server.URL, Config{
		CacheEnabled: true,
		CacheTTL:     60 * time.Second,
		HTTPClient:   server.Client(),
	})
	c.cache.clock = clock.Now

	_, err := c.Get(context.Background(), "chem/ASPIRIN-ID", Params{"fields": "name"})
	require.NoError(t, err)
	_, err = c.Get(context.Background(), "chem/ASPIRIN-ID", Params{"fields": "name"})
	require.NoError(t, err)
	require.Equal(t, int64(1), calls.Load())

	clock.Advance(61 * time.Second)

	_, err = c.Get(context.Background(), "chem/ASPIRIN-ID", Params{"fields": "name"})
	require.NoError(t, err)
	require.Equal(t, int64(2), calls.Load(), "stale entry must trigger a refetch")
}

func TestGetParamOrderHitsSameEntry(t *testing.T) {
	server, calls := countingServer(t, `{"total":1}`)
	c := newTestClient(t, server.URL, Config{
		CacheEnabled: true,
		CacheTTL:     time.Minute,
		HTTPClient:   server.Client(),
	})

	_, err := c.Get(context.Background(), "query", Params{"q": "aspirin", "size": 5})
	require.NoError(t, err)
	_, err = c.Get(context.Background(), "query", Params{"size": 5, "q": "aspirin"})
	require.NoError(t, err)

	require.Equal(t, int64(1), calls.Load())
}

func TestGetNilParamSharesCacheEntry(t *testing.T) {
	server, calls := countingServer(t, `{"total":1}`)
	c := newTestClient(t, server.URL, Config{
		CacheEnabled: true,
		CacheTTL:     time.Minute,
		HTTPClient:   server.Client(),
	})

	_, err := c.Get(context.Background(), "query", Params{"q": "aspirin", "fields": nil})
	require.NoError(t, err)
	_, err = c.Get(context.Background(), "query", Params{"q": "aspirin"})
	require.NoError(t, err)
	require.Equal(t, int64(1), calls.Load())

	// All-nil params collapse to no params at all.
	_, err = c.Get(context.Background(), "query", Params{"fields": nil})
	require.NoError(t, err)
	_, err = c.Get(context.Background(), "query", nil)
	require.NoError(t, err)
	require.Equal(t, int64(2), calls.Load())
}

func TestCacheDisabledAlwaysFetches(t *testing.T) {
	server, calls := countingServer(t, `{"total":1}`)
	c := newTestClient(t, server.URL, Config{
		CacheEnabled: false,
		HTTPClient:   server.Client(),
	})

	_, err := c.Get(context.Background(), "query", Params{"q": "aspirin"})
	require.NoError(t, err)
	_, err = c.Get(context.Background(), "query", Params{"q": "aspirin"})
	require.NoError(t, err)

	require.Equal(t, int64(2), calls.Load())
}

func TestPostNeverCached(t *testing.T) {
	server, calls := countingServer(t, `[{"_id":"a","found":true}]`)
	c := newTestClient(t, server.URL, Config{
		CacheEnabled: true,
		CacheTTL:     time.Minute,
		HTTPClient:   server.Client(),
	})

	body := map[string]any{"ids": []string{"CHEMBL25"}}
	_, err := c.Post(context.Background(), "query", body)
	require.NoError(t, err)
	_, err = c.Post(context.Background(), "query", body)
	require.NoError(t, err)

	require.Equal(t, int64(2), calls.Load())
}

func TestCacheHitConsumesNoToken(t *testing.T) {
	server, _ := countingServer(t, `{"name":"aspirin"}`)
	clock := newFakeClock()
	c := newTestClient(t, server.URL, Config{
		CacheEnabled: true,
		CacheTTL:     time.Minute,
		RateLimit:    10,
		HTTPClient:   server.Client(),
	})
	c.limiter.clock = clock.Now
	c.limiter.lastRefill = clock.Now()

	_, err := c.Get(context.Background(), "chem/ASPIRIN-ID", nil)
	require.NoError(t, err)
	_, err = c.Get(context.Background(), "chem/ASPIRIN-ID", nil)
	require.NoError(t, err)

	require.InDelta(t, 9, c.limiter.Tokens(), 1e-9, "only the uncached call may consume a token")
}

func TestBurstThenThrottled(t *testing.T) {
	server, calls := countingServer(t, `{"ok":true}`)
	clock := newFakeClock()
	sleeper := &recordingSleeper{}
	c := newTestClient(t, server.URL, Config{
		RateLimit:  10,
		HTTPClient: server.Client(),
	})
	c.limiter.clock = clock.Now
	c.limiter.lastRefill = clock.Now()
	c.limiter.sleep = sleeper.sleep

	// 15 distinct endpoints against a full bucket of 10: the first 10 are
	// admitted immediately, the rest pace out at one per 100ms.
	for i := 0; i < 15; i++ {
		_, err := c.Get(context.Background(), "chem/ID", Params{"fields": "name", "size": i})
		require.NoError(t, err)
	}

	require.Equal(t, int64(15), calls.Load())
	require.Len(t, sleeper.waits, 5)
	require.Equal(t, 100*time.Millisecond, sleeper.waits[0])
	require.Equal(t, 500*time.Millisecond, sleeper.waits[4])
}

func TestErrorClassification(t *testing.T) {
	t.Run("http status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "chem not found", http.StatusNotFound)
		}))
		defer server.Close()

		c := newTestClient(t, server.URL, Config{HTTPClient: server.Client()})
		_, err := c.Get(context.Background(), "chem/NOPE", nil)

		apiErr, ok := AsAPIError(err)
		require.True(t, ok)
		require.Equal(t, KindHTTPStatus, apiErr.Kind)
		require.Equal(t, http.StatusNotFound, apiErr.StatusCode)
		require.Contains(t, apiErr.Message, "HTTP error 404")
		require.Contains(t, apiErr.Message, "chem not found")
	})

	t.Run("decode", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"broken":`))
		}))
		defer server.Close()

		c := newTestClient(t, server.URL, Config{HTTPClient: server.Client()})
		_, err := c.Get(context.Background(), "metadata", nil)

		apiErr, ok := AsAPIError(err)
		require.True(t, ok)
		require.Equal(t, KindDecode, apiErr.Kind)
	})

	t.Run("timeout", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
			_, _ = w.Write([]byte(`{}`))
		}))
		defer server.Close()

		c := newTestClient(t, server.URL, Config{
			Timeout:    20 * time.Millisecond,
			HTTPClient: server.Client(),
		})
		_, err := c.Get(context.Background(), "metadata", nil)

		apiErr, ok := AsAPIError(err)
		require.True(t, ok)
		require.Equal(t, KindTimeout, apiErr.Kind)
		require.Contains(t, apiErr.Message, "timed out")
	})

	t.Run("network", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		serverURL := server.URL
		server.Close()

		c := newTestClient(t, serverURL, Config{})
		_, err := c.Get(context.Background(), "metadata", nil)

		apiErr, ok := AsAPIError(err)
		require.True(t, ok)
		require.Equal(t, KindNetwork, apiErr.Kind)
	})

	t.Run("cancelled", func(t *testing.T) {
		server, _ := countingServer(t, `{}`)
		c := newTestClient(t, server.URL, Config{HTTPClient: server.Client()})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := c.Get(ctx, "metadata", nil)

		apiErr, ok := AsAPIError(err)
		require.True(t, ok)
		require.Equal(t, KindCancelled, apiErr.Kind)
	})
}

func TestFailuresAreNotCached(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "upstream hiccup", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"aspirin"}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, Config{
		CacheEnabled: true,
		CacheTTL:     time.Minute,
		HTTPClient:   server.Client(),
	})

	_, err := c.Get(context.Background(), "chem/ASPIRIN-ID", nil)
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	require.Equal(t, KindHTTPStatus, apiErr.Kind)

	value, err := c.Get(context.Background(), "chem/ASPIRIN-ID", nil)
	require.NoError(t, err)
	require.Equal(t, map[string]any{"name": "aspirin"}, value)
	require.Equal(t, int64(2), calls.Load())
}

func TestClearCache(t *testing.T) {
	server, calls := countingServer(t, `{"total":0}`)
	c := newTestClient(t, server.URL, Config{
		CacheEnabled: true,
		CacheTTL:     time.Minute,
		HTTPClient:   server.Client(),
	})

	_, err := c.Get(context.Background(), "query", Params{"q": "x"})
	require.NoError(t, err)
	c.ClearCache()
	_, err = c.Get(context.Background(), "query", Params{"q": "x"})
	require.NoError(t, err)

	require.Equal(t, int64(2), calls.Load())
}

// One client is shared by every tool handler, so the cache and the limiter
// see many goroutines at once. Run with -race.
func TestConcurrentGets(t *testing.T) {
	server, calls := countingServer(t, `{"total":1}`)
	c := newTestClient(t, server.URL, Config{
		CacheEnabled: true,
		CacheTTL:     time.Minute,
		RateLimit:    1000,
		HTTPClient:   server.Client(),
	})

	const (
		workers      = 10
		iterations   = 5
		distinctKeys = 5
	)

	var wg sync.WaitGroup
	errs := make(chan error, workers*iterations)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				q := fmt.Sprintf("chem%d", (w+i)%distinctKeys)
				if _, err := c.Get(context.Background(), "query", Params{"q": q}); err != nil {
					errs <- err
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	// Concurrent misses on the same key may each reach the network, but
	// never more than one request per Get.
	fetched := calls.Load()
	require.GreaterOrEqual(t, fetched, int64(distinctKeys))
	require.LessOrEqual(t, fetched, int64(workers*iterations))

	// Every key is cached by now, so another round costs no requests.
	for i := 0; i < distinctKeys; i++ {
		_, err := c.Get(context.Background(), "query", Params{"q": fmt.Sprintf("chem%d", i)})
		require.NoError(t, err)
	}
	require.Equal(t, fetched, calls.Load())
}

func TestPostSetsJSONContentType(t *testing.T) {
	var contentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, Config{HTTPClient: server.Client()})
	_, err := c.Post(context.Background(), "chem", map[string]any{"ids": []string{"a"}})
	require.NoError(t, err)
	require.Equal(t, "application/json", contentType)
}
