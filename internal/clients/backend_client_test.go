package clients

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/papertrade/internal/domain"
)

func TestBackendClient_GetQuotes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/quote", r.URL.Path)
		switch r.URL.Query().Get("symbol") {
		case "AAPL":
			_, _ = w.Write([]byte(`{"symbol":"AAPL","price":185.5,"change_pct":1.2}`))
		case "005930.KS":
			_, _ = w.Write([]byte(`{"symbol":"005930.KS","price":70000,"change_pct":-0.4}`))
		case "ZERO":
			_, _ = w.Write([]byte(`{"symbol":"ZERO","price":0,"change_pct":0}`))
		default:
			http.Error(w, `{"error":"Symbol not found"}`, http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewBackendClient(srv.URL+"/", nil)
	quotes, err := c.GetQuotes(context.Background(), []string{"AAPL", "005930.KS", "ZERO", "NOPE"})

	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.True(t, quotes["AAPL"].Price.Equal(decimal.RequireFromString("185.5")))
	assert.True(t, quotes["AAPL"].ChangePct.Equal(decimal.RequireFromString("1.2")))
	assert.True(t, quotes["005930.KS"].Price.Equal(decimal.NewFromInt(70000)))
}

func TestBackendClient_GetQuotesDoesNotRetryNotFound(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	quotes, err := NewBackendClient(srv.URL, nil).GetQuotes(context.Background(), []string{"NOPE"})

	require.NoError(t, err)
	assert.Empty(t, quotes)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestBackendClient_GetQuotesTotalFailure(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewBackendClient(srv.URL, nil)
	_, err := c.GetQuotes(context.Background(), []string{"AAPL", "TSLA"})

	require.Error(t, err)
	// each symbol: one attempt plus retries
	assert.Equal(t, int32(2*(defaultMaxRetries+1)), atomic.LoadInt32(&hits))
}

func TestBackendClient_GetQuotesPartialServerFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("symbol") == "AAPL" {
			_, _ = w.Write([]byte(`{"symbol":"AAPL","price":185.5,"change_pct":1.2}`))
			return
		}
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	quotes, err := NewBackendClient(srv.URL, nil).GetQuotes(context.Background(), []string{"AAPL", "TSLA"})

	require.NoError(t, err)
	assert.Len(t, quotes, 1)
	assert.Contains(t, quotes, "AAPL")
}

func TestBackendClient_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/search", r.URL.Path)
		require.Equal(t, "samsung electronics", r.URL.Query().Get("query"))
		_, _ = w.Write([]byte(`{"results":[
			{"symbol":"005930.ks","name":"Samsung Electronics","price":70000,"change_pct":0.5,"sector":"Technology","volatility":"medium"},
			{"symbol":"","name":"broken"}
		]}`))
	}))
	defer srv.Close()

	stocks, err := NewBackendClient(srv.URL, nil).Search(context.Background(), "  samsung electronics ")

	require.NoError(t, err)
	require.Len(t, stocks, 1)
	assert.Equal(t, "005930.KS", stocks[0].Symbol)
	assert.Equal(t, "Samsung Electronics", stocks[0].Name)
	assert.Equal(t, domain.VolatilityMedium, stocks[0].Volatility)
}

func TestBackendClient_SearchEmptyQuery(t *testing.T) {
	stocks, err := NewBackendClient("http://127.0.0.1:1", nil).Search(context.Background(), " ")
	require.NoError(t, err)
	assert.Empty(t, stocks)
}

func TestBackendClient_SearchBadRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"Query parameter is required"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := NewBackendClient(srv.URL, nil).Search(context.Background(), "x")

	require.Error(t, err)
	assert.True(t, isClientError(err))
}
