package fred

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	c "capm/service/api"
)

func TestSeriesObservations(t *testing.T) {
	body, err := os.ReadFile("testdata/sp500.json")
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, observations, r.URL.Path)
		assert.Equal(t, SeriesSP500, r.URL.Query().Get(seriesId))
		assert.Equal(t, "2024-03-06", r.URL.Query().Get(observationStart))
		assert.Equal(t, "2024-03-08", r.URL.Query().Get(observationEnd))
		assert.Equal(t, "json", r.URL.Query().Get(fileType))
		w.Write(body)
	}))
	defer server.Close()

	client, err := c.TestClientFactory(server.URL, "fred-key")
	require.NoError(t, err)

	start := time.Date(2024, time.March, 6, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.March, 8, 0, 0, 0, 0, time.UTC)

	res, err := NewClient(client).SeriesObservations(context.Background(), SeriesSP500, start, end)
	require.NoError(t, err)
	require.Len(t, res, 3)

	assert.Equal(t, start, res[0].Date)
	assert.InDelta(t, 5104.76, res[0].Value.Float64, 1e-9)
	assert.False(t, res[1].Value.Valid, "holiday observation should be null")
	assert.InDelta(t, 5123.69, res[2].Value.Float64, 1e-9)
}

func TestSeriesObservationsBadRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error_code":400,"error_message":"Bad Request. The value for variable api_key is not registered."}`))
	}))
	defer server.Close()

	client, err := c.TestClientFactory(server.URL, "bad")
	require.NoError(t, err)

	_, err = NewClient(client).SeriesObservations(context.Background(), SeriesSP500, time.Now().AddDate(-1, 0, 0), time.Now())
	assert.Error(t, err)
}
