package weather

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Current(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Moscow", r.URL.Query().Get("q"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		_, _ = w.Write([]byte(`{"weather":[{"description":"пасмурно"}],"main":{"temp":18.6}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), "key", "")
	c.weatherURL = srv.URL

	obs, err := c.Current(context.Background(), "Moscow")
	require.NoError(t, err)
	assert.Equal(t, "пасмурно", obs.Description)
	assert.InDelta(t, 18.6, obs.TempC, 0.001)
}

func TestClient_Current_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), "key", "")
	c.weatherURL = srv.URL

	_, err := c.Current(context.Background(), "Nowhere")
	assert.ErrorIs(t, err, ErrLookupFailed)
}

func TestClient_Forecast(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"list":[
			{"dt":1718000000,"main":{"temp":15.2},"wind":{"speed":4.5},"rain":{"3h":0.8}},
			{"dt":1718010800,"main":{"temp":17.1},"wind":{"speed":3.0}}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), "key", "")
	c.forecastURL = srv.URL

	samples, err := c.Forecast(context.Background(), "Moscow")
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.InDelta(t, 0.8, samples[0].RainVolume, 0.001)
	assert.Zero(t, samples[1].RainVolume)
	assert.True(t, samples[1].Timestamp.After(samples[0].Timestamp))
}

func TestClient_TimezoneFor(t *testing.T) {
	geo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"lat":55.75,"lon":37.62}]`))
	}))
	defer geo.Close()
	tzdb := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "position", r.URL.Query().Get("by"))
		_, _ = w.Write([]byte(`{"status":"OK","zoneName":"Europe/Moscow"}`))
	}))
	defer tzdb.Close()

	c := NewClient(http.DefaultClient, "key", "tzkey")
	c.geoURL = geo.URL
	c.tzdbURL = tzdb.URL

	tz, err := c.TimezoneFor(context.Background(), "Moscow")
	require.NoError(t, err)
	assert.Equal(t, "Europe/Moscow", tz)
}

func TestClient_TimezoneFor_NoGeocodeResults(t *testing.T) {
	geo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer geo.Close()

	c := NewClient(http.DefaultClient, "key", "tzkey")
	c.geoURL = geo.URL

	_, err := c.TimezoneFor(context.Background(), "Nowhere")
	assert.ErrorIs(t, err, ErrLookupFailed)
}

func TestClient_TimezoneFor_BadStatus(t *testing.T) {
	geo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"lat":1,"lon":2}]`))
	}))
	defer geo.Close()
	tzdb := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"FAILED"}`))
	}))
	defer tzdb.Close()

	c := NewClient(http.DefaultClient, "key", "tzkey")
	c.geoURL = geo.URL
	c.tzdbURL = tzdb.URL

	_, err := c.TimezoneFor(context.Background(), "Moscow")
	assert.ErrorIs(t, err, ErrLookupFailed)
	assert.False(t, errors.Is(err, context.DeadlineExceeded))
}
