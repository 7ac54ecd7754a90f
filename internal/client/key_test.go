package client

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCacheKeyParamOrderIndependent(t *testing.T) {
	a, err := cacheKey(http.MethodGet, "query", Params{"q": "aspirin", "size": 10})
	require.NoError(t, err)
	b, err := cacheKey(http.MethodGet, "query", Params{"size": 10, "q": "aspirin"})
	require.NoError(t, err)

	require.Equal(t, a, b)
}

func TestCacheKeyNestedMapsCanonicalized(t *testing.T) {
	a, err := cacheKey(http.MethodPost, "query", map[string]any{
		"ids":    []any{"CHEMBL25"},
		"scopes": map[string]any{"x": 1, "y": 2},
	})
	require.NoError(t, err)
	b, err := cacheKey(http.MethodPost, "query", map[string]any{
		"scopes": map[string]any{"y": 2, "x": 1},
		"ids":    []any{"CHEMBL25"},
	})
	require.NoError(t, err)

	require.Equal(t, a, b)
}

func TestCacheKeyDistinguishesRequests(t *testing.T) {
	base, err := cacheKey(http.MethodGet, "query", Params{"q": "aspirin"})
	require.NoError(t, err)

	byMethod, err := cacheKey(http.MethodPost, "query", Params{"q": "aspirin"})
	require.NoError(t, err)
	require.NotEqual(t, base, byMethod)

	byEndpoint, err := cacheKey(http.MethodGet, "metadata", Params{"q": "aspirin"})
	require.NoError(t, err)
	require.NotEqual(t, base, byEndpoint)

	byParams, err := cacheKey(http.MethodGet, "query", Params{"q": "ibuprofen"})
	require.NoError(t, err)
	require.NotEqual(t, base, byParams)
}

func TestCacheKeyNilParams(t *testing.T) {
	a, err := cacheKey(http.MethodGet, "metadata", nil)
	require.NoError(t, err)
	b, err := cacheKey(http.MethodGet, "metadata", nil)
	require.NoError(t, err)
	require.Equal(t, a, b)
}
