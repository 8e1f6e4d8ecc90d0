package clients

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chartBody = `{"chart":{"result":[{"meta":{"symbol":"AAPL"},"indicators":{"quote":[{"close":[180.0,null,185.5]}]}}],"error":null}}`

func TestYahooClient_GetQuotes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "2d", r.URL.Query().Get("range"))
		require.Equal(t, "1d", r.URL.Query().Get("interval"))
		switch strings.TrimPrefix(r.URL.Path, "/v8/finance/chart/") {
		case "AAPL":
			_, _ = w.Write([]byte(chartBody))
		case "EMPTY":
			_, _ = w.Write([]byte(`{"chart":{"result":[],"error":null}}`))
		default:
			http.Error(w, `{"chart":{"result":null,"error":{"code":"Not Found"}}}`, http.StatusNotFound)
		}
	}))
	defer srv.Close()

	quotes, err := NewYahooClient(srv.URL, nil).GetQuotes(context.Background(), []string{"AAPL", "EMPTY", "NOPE"})

	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.True(t, quotes["AAPL"].Price.Equal(decimal.RequireFromString("185.5")))
	assert.True(t, quotes["AAPL"].ChangePct.Equal(decimal.RequireFromString("3.06")), quotes["AAPL"].ChangePct.String())
}

func TestYahooClient_GetQuotesMalformedBody(t *testing.T) {
	var brokenCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch strings.TrimPrefix(r.URL.Path, "/v8/finance/chart/") {
		case "AAPL":
			_, _ = w.Write([]byte(chartBody))
		default:
			brokenCalls.Add(1)
			_, _ = w.Write([]byte(`{"chart":{"result":[`))
		}
	}))
	defer srv.Close()

	quotes, err := NewYahooClient(srv.URL, nil).GetQuotes(context.Background(), []string{"AAPL", "BROKEN"})

	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Contains(t, quotes, "AAPL")
	assert.Equal(t, int32(1), brokenCalls.Load(), "undecodable body must not be retried")
}

func TestQuoteFromCloses(t *testing.T) {
	tests := []struct {
		name   string
		closes any
		price  string
		change string
	}{
		{"single close", []any{62.5}, "62.5", "0"},
		{"drop", []any{200.0, 190.0}, "190", "-5"},
		{"nulls skipped", []any{nil, 100.0, nil}, "100", "0"},
		{"all null", []any{nil}, "0", "0"},
		{"not a list", "x", "0", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := quoteFromCloses(tt.closes)
			assert.True(t, q.Price.Equal(decimal.RequireFromString(tt.price)), q.Price.String())
			assert.True(t, q.ChangePct.Equal(decimal.RequireFromString(tt.change)), q.ChangePct.String())
		})
	}
}

func TestYahooClient_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/finance/search", r.URL.Path)
		require.Equal(t, "samsung", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(`{"quotes":[
			{"symbol":"005930.KS","shortname":"SamsungElec","longname":"Samsung Electronics Co., Ltd.","sector":"Technology"},
			{"symbol":"SSNLF","shortname":"Samsung Electronics"},
			{"shortname":"no symbol"}
		]}`))
	}))
	defer srv.Close()

	stocks, err := NewYahooClient(srv.URL, nil).Search(context.Background(), "samsung")

	require.NoError(t, err)
	require.Len(t, stocks, 2)
	assert.Equal(t, "005930.KS", stocks[0].Symbol)
	assert.Equal(t, "Samsung Electronics Co., Ltd.", stocks[0].Name)
	assert.Equal(t, "Technology", stocks[0].Sector)
	assert.Equal(t, "Samsung Electronics", stocks[1].Name)
}
