package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
)

// Client implements Provider on top of the OpenWeatherMap API, with
// TimeZoneDB resolving coordinates to IANA timezone names.
type Client struct {
	apiKey  string
	tzdbKey string

	weatherURL  string
	forecastURL string
	geoURL      string
	tzdbURL     string

	httpCfg HTTPClientConfig

	weatherCB  *gobreaker.CircuitBreaker
	forecastCB *gobreaker.CircuitBreaker
	geoCB      *gobreaker.CircuitBreaker
	tzdbCB     *gobreaker.CircuitBreaker
}

// NewClient builds a Client sharing one HTTP client across endpoints.
// Each endpoint gets its own circuit breaker so a flaky timezone
// service cannot take down weather requests.
func NewClient(httpClient *http.Client, apiKey, tzdbKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		tzdbKey: tzdbKey,

		weatherURL:  "https://api.openweathermap.org/data/2.5/weather",
		forecastURL: "https://api.openweathermap.org/data/2.5/forecast",
		geoURL:      "https://api.openweathermap.org/geo/1.0/direct",
		tzdbURL:     "https://api.timezonedb.com/v2.1/get-time-zone",

		httpCfg: HTTPClientConfig{
			Client: httpClient,
			Backoff: BackoffConfig{
				MaxRetries:      2,
				InitialInterval: 300 * time.Millisecond,
				MaxInterval:     2 * time.Second,
			},
		},

		weatherCB:  newBreaker("openweather-current"),
		forecastCB: newBreaker("openweather-forecast"),
		geoCB:      newBreaker("openweather-geo"),
		tzdbCB:     newBreaker("timezonedb"),
	}
}

func (c *Client) getJSON(ctx context.Context, cb *gobreaker.CircuitBreaker, rawURL string, out any) error {
	resp, err := doRequestWithResilience(ctx, c.httpCfg, cb, func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, rawURL, nil)
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(out)
}

// Current fetches the current weather for a city (metric units, Russian
// descriptions, matching the bot's audience).
func (c *Client) Current(ctx context.Context, city string) (Observation, error) {
	values := url.Values{}
	values.Set("q", city)
	values.Set("appid", c.apiKey)
	values.Set("units", "metric")
	values.Set("lang", "ru")

	var payload struct {
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
		Main struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
	}
	if err := c.getJSON(ctx, c.weatherCB, c.weatherURL+"?"+values.Encode(), &payload); err != nil {
		return Observation{}, fmt.Errorf("%w: current %q: %v", ErrLookupFailed, city, err)
	}

	obs := Observation{TempC: payload.Main.Temp}
	if len(payload.Weather) > 0 {
		obs.Description = payload.Weather[0].Description
	}
	return obs, nil
}

// Forecast fetches the 5-day / 3-hour forecast for a city.
func (c *Client) Forecast(ctx context.Context, city string) ([]Sample, error) {
	values := url.Values{}
	values.Set("q", city)
	values.Set("appid", c.apiKey)
	values.Set("units", "metric")

	var payload struct {
		List []struct {
			Dt   int64 `json:"dt"`
			Main struct {
				Temp float64 `json:"temp"`
			} `json:"main"`
			Wind struct {
				Speed float64 `json:"speed"`
			} `json:"wind"`
			Rain struct {
				ThreeH float64 `json:"3h"`
			} `json:"rain"`
		} `json:"list"`
	}
	if err := c.getJSON(ctx, c.forecastCB, c.forecastURL+"?"+values.Encode(), &payload); err != nil {
		return nil, fmt.Errorf("%w: forecast %q: %v", ErrLookupFailed, city, err)
	}

	samples := make([]Sample, 0, len(payload.List))
	for _, it := range payload.List {
		samples = append(samples, Sample{
			Timestamp:  time.Unix(it.Dt, 0).UTC(),
			TempC:      it.Main.Temp,
			WindSpeed:  it.Wind.Speed,
			RainVolume: it.Rain.ThreeH,
		})
	}
	return samples, nil
}

// TimezoneFor geocodes the city and resolves its IANA timezone via
// TimeZoneDB. Any failure along the chain is ErrLookupFailed; the
// caller stores the timezone as unknown and moves on.
func (c *Client) TimezoneFor(ctx context.Context, city string) (string, error) {
	values := url.Values{}
	values.Set("q", city)
	values.Set("limit", "1")
	values.Set("appid", c.apiKey)

	var places []struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	}
	if err := c.getJSON(ctx, c.geoCB, c.geoURL+"?"+values.Encode(), &places); err != nil {
		return "", fmt.Errorf("%w: geocode %q: %v", ErrLookupFailed, city, err)
	}
	if len(places) == 0 {
		return "", fmt.Errorf("%w: geocode %q: no results", ErrLookupFailed, city)
	}

	if c.tzdbKey == "" {
		return "", fmt.Errorf("%w: timezonedb key not configured", ErrLookupFailed)
	}

	tzValues := url.Values{}
	tzValues.Set("key", c.tzdbKey)
	tzValues.Set("format", "json")
	tzValues.Set("by", "position")
	tzValues.Set("lat", fmt.Sprintf("%f", places[0].Lat))
	tzValues.Set("lng", fmt.Sprintf("%f", places[0].Lon))

	var tzPayload struct {
		Status   string `json:"status"`
		ZoneName string `json:"zoneName"`
	}
	if err := c.getJSON(ctx, c.tzdbCB, c.tzdbURL+"?"+tzValues.Encode(), &tzPayload); err != nil {
		return "", fmt.Errorf("%w: timezone %q: %v", ErrLookupFailed, city, err)
	}
	if tzPayload.Status != "OK" || tzPayload.ZoneName == "" {
		return "", fmt.Errorf("%w: timezone %q: status %s", ErrLookupFailed, city, tzPayload.Status)
	}
	return tzPayload.ZoneName, nil
}
