package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/skalibog/marketsnap/internal/config"
	"github.com/skalibog/marketsnap/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const historyCSV = `#datatype,string,long,dateTime:RFC3339,double,double,double,double,double,double,double,double
#group,false,false,false,false,false,false,false,false,false,false,false
#default,_result,,,,,,,,,,
,result,table,_time,current_price,change_rate_24h,sma_20,ema_10,rsi_14,macd,stochastic_k,orderbook_ratio
,,0,2024-03-01T00:30:00Z,129,0.0078,119.5,124.1,100,5.2,93.33,1.25

`

type fakeInflux struct {
	*httptest.Server
	mu     sync.Mutex
	status string
	writes []string
	query  string
}

func newFakeInflux(t *testing.T, status string) *fakeInflux {
	t.Helper()
	f := &fakeInflux{status: status}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		defer f.mu.Unlock()
		switch r.URL.Path {
		case "/health":
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"name":"influxdb","message":"ready","status":"`+f.status+`","checks":[]}`)
		case "/api/v2/write":
			f.writes = append(f.writes, string(body))
			w.WriteHeader(http.StatusNoContent)
		case "/api/v2/query":
			f.query = string(body)
			w.Header().Set("Content-Type", "text/csv; charset=utf-8")
			_, _ = io.WriteString(w, historyCSV)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(f.Close)
	return f
}

func storageConfig(url string) config.StorageConfig {
	return config.StorageConfig{
		Enabled:      true,
		URL:          url,
		Token:        "token",
		Organization: "org",
		Bucket:       "marketsnap",
	}
}

func TestNewInfluxDBStorageUnhealthy(t *testing.T) {
	srv := newFakeInflux(t, "fail")
	_, err := NewInfluxDBStorage(context.Background(), storageConfig(srv.URL))
	require.Error(t, err)
}

func TestSaveSnapshot(t *testing.T) {
	srv := newFakeInflux(t, "pass")
	s, err := NewInfluxDBStorage(context.Background(), storageConfig(srv.URL))
	require.NoError(t, err)
	defer s.Close()

	snap := &models.MarketSnapshot{
		Timestamp:    "2024-03-01T09:30:00+09:00",
		Market:       "KRW-BTC",
		CurrentPrice: 129,
		Indicators:   models.IndicatorSet{RSI14: 71.5},
		OrderBook:    models.OrderBookSummary{Ratio: 1.25},
	}
	require.NoError(t, s.SaveSnapshot(context.Background(), snap))

	srv.mu.Lock()
	defer srv.mu.Unlock()
	require.Len(t, srv.writes, 1)
	line := srv.writes[0]
	assert.True(t, strings.HasPrefix(line, "snapshots,market=KRW-BTC "), line)
	assert.Contains(t, line, "rsi_14=71.5")
	assert.Contains(t, line, "orderbook_ratio=1.25")
	assert.Contains(t, line, "1709253000000000000")
}

func TestSaveSnapshotBadTimestamp(t *testing.T) {
	srv := newFakeInflux(t, "pass")
	s, err := NewInfluxDBStorage(context.Background(), storageConfig(srv.URL))
	require.NoError(t, err)
	defer s.Close()

	err = s.SaveSnapshot(context.Background(), &models.MarketSnapshot{Timestamp: "вчера"})
	require.Error(t, err)
}

func TestGetHistory(t *testing.T) {
	srv := newFakeInflux(t, "pass")
	s, err := NewInfluxDBStorage(context.Background(), storageConfig(srv.URL))
	require.NoError(t, err)
	defer s.Close()

	points, err := s.GetHistory(context.Background(), "KRW-BTC", 10)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, HistoryPoint{
		Timestamp:     "2024-03-01T09:30:00+09:00",
		CurrentPrice:  129,
		ChangeRate24h: 0.0078,
		SMA20:         119.5,
		EMA10:         124.1,
		RSI14:         100,
		MACD:          5.2,
		StochasticK:   93.33,
		OrderBookRate: 1.25,
	}, points[0])

	srv.mu.Lock()
	defer srv.mu.Unlock()
	assert.Contains(t, srv.query, `r.market == \"KRW-BTC\"`)
	assert.Contains(t, srv.query, "limit(n: 10)")
}
