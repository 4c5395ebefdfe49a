package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/patrickmn/go-cache"

	"vitalog/internal/models"
)

// DefaultHydrationGoalML is the baseline daily hydration goal before any
// weather adjustment.
const DefaultHydrationGoalML = 2000

// WeatherService looks up current conditions for the user's location and
// derives a weather-adjusted hydration goal. Lookups are cached for a fixed
// TTL; a failed lookup returns nil and the caller falls back to the
// unadjusted goal. This service is best-effort throughout.
type WeatherService struct {
	baseURL    string
	httpClient *http.Client
	cache      *cache.Cache
	clock      clockwork.Clock
	metrics    *Metrics
	logger     *slog.Logger
}

// NewWeatherService creates a weather service caching lookups for ttl.
func NewWeatherService(baseURL string, ttl time.Duration, clock clockwork.Clock, metrics *Metrics, logger *slog.Logger) *WeatherService {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}

	transport := &http.Transport{
		MaxIdleConns:    10,
		IdleConnTimeout: 90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	return &WeatherService{
		baseURL: baseURL,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   10 * time.Second,
		},
		cache:   cache.New(ttl, ttl/2),
		clock:   clock,
		metrics: metrics,
		logger:  logger,
	}
}

// weatherResponse is the relevant slice of the provider's payload.
type weatherResponse struct {
	Current struct {
		Temperature float64 `json:"temperature_2m"`
		Humidity    float64 `json:"relative_humidity_2m"`
	} `json:"current"`
}

// Current returns the conditions at the given coordinates, from cache when
// a lookup for the same (rounded) location is still fresh. Returns nil on
// any failure.
func (s *WeatherService) Current(ctx context.Context, latitude, longitude float64) *models.Weather {
	key := fmt.Sprintf("%.2f,%.2f", latitude, longitude)

	if cached, found := s.cache.Get(key); found {
		if weather, ok := cached.(*models.Weather); ok {
			s.metrics.RecordWeatherLookup("cache_hit")
			return weather
		}
	}

	weather := s.fetch(ctx, latitude, longitude)
	if weather == nil {
		s.metrics.RecordWeatherLookup("failed")
		return nil
	}

	s.cache.Set(key, weather, cache.DefaultExpiration)
	s.metrics.RecordWeatherLookup("fetched")
	return weather
}

// fetch performs the provider request. Failures are logged and reported as
// nil; the hydration goal falls back to its base value.
func (s *WeatherService) fetch(ctx context.Context, latitude, longitude float64) *models.Weather {
	params := url.Values{
		"latitude":  {fmt.Sprintf("%.4f", latitude)},
		"longitude": {fmt.Sprintf("%.4f", longitude)},
		"current":   {"temperature_2m,relative_humidity_2m"},
	}

	req, err := http.NewRequestWithContext(ctx, "GET", s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		s.logger.Warn("weather request build failed", "error", err)
		return nil
	}

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	if s.metrics != nil {
		s.metrics.WeatherLatency.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		s.logger.Warn("weather lookup failed", "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.logger.Warn("weather lookup rejected", "status", resp.StatusCode)
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		s.logger.Warn("weather response read failed", "error", err)
		return nil
	}

	var parsed weatherResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		s.logger.Warn("weather response decode failed", "error", err)
		return nil
	}

	return &models.Weather{
		TemperatureC: parsed.Current.Temperature,
		Humidity:     parsed.Current.Humidity,
		FetchedAt:    models.NewTimestamp(s.clock.Now()),
	}
}

// HydrationGoal returns the daily hydration goal in milliliters, adjusted
// for the given conditions. baseML <= 0 uses DefaultHydrationGoalML. A nil
// weather leaves the base goal unchanged.
func (s *WeatherService) HydrationGoal(baseML int, weather *models.Weather) int {
	if baseML <= 0 {
		baseML = DefaultHydrationGoalML
	}
	if weather == nil {
		return baseML
	}

	goal := baseML
	switch {
	case weather.TemperatureC >= 35:
		goal += 750
	case weather.TemperatureC >= 30:
		goal += 500
	case weather.TemperatureC >= 25:
		goal += 250
	}
	if weather.Humidity >= 70 && weather.TemperatureC >= 25 {
		goal += 250
	}
	return goal
}

// GoalForLocation is the one-call form used by the daily dashboard: current
// conditions plus adjustment, falling back to baseML when the lookup fails.
func (s *WeatherService) GoalForLocation(ctx context.Context, latitude, longitude float64, baseML int) int {
	return s.HydrationGoal(baseML, s.Current(ctx, latitude, longitude))
}
