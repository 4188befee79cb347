package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/krishisetu/krishisetu/internal/sms"
)

// Alert thresholds for farmer notifications, matching the mobile
// client's expectations.
const (
	heatwaveTempC = 40.0
	coldTempC     = 5.0
	highWindKmh   = 50.0
)

type CurrentWeather struct {
	Temperature float64 `json:"temperature"`
	WindSpeed   float64 `json:"windspeed"`
}

// Forecast is the upstream open-meteo payload. Raw keeps the full
// response so the handler can echo it back to the client unchanged.
type Forecast struct {
	Current CurrentWeather
	Raw     map[string]json.RawMessage
	Alerts  []string
}

// WeatherService fetches current conditions from open-meteo, derives
// alert lines from them and forwards alerts to the farmer via SMS.
type WeatherService struct {
	baseURL string
	client  *http.Client
	sender  sms.Sender
	logger  *logrus.Logger
}

func NewWeatherService(baseURL string, sender sms.Sender, logger *logrus.Logger) *WeatherService {
	return &WeatherService{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
		sender:  sender,
		logger:  logger,
	}
}

// AlertsFor derives alert lines from current conditions. Exactly one
// line is produced; "normal" is itself a line so the client always has
// something to render.
func AlertsFor(w CurrentWeather) []string {
	switch {
	case w.Temperature >= heatwaveTempC:
		return []string{"Heatwave Alert: High temperature"}
	case w.Temperature <= coldTempC:
		return []string{"Cold Alert: Low temperature"}
	case w.WindSpeed >= highWindKmh:
		return []string{"Wind Alert: High wind speed"}
	default:
		return []string{"Normal Weather: Conditions are normal"}
	}
}

// FetchAndAlert fetches the current forecast for the coordinates and
// sends the alert summary to phoneNo. SMS failure does not fail the
// forecast; the caller still gets the weather data.
func (s *WeatherService) FetchAndAlert(ctx context.Context, latitude, longitude, phoneNo string) (*Forecast, error) {
	forecast, err := s.fetch(ctx, latitude, longitude)
	if err != nil {
		return nil, err
	}

	forecast.Alerts = AlertsFor(forecast.Current)

	message := "Weather Alert:\n" + strings.Join(forecast.Alerts, "\n")
	if err := s.sender.Send(ctx, phoneNo, message); err != nil {
		s.logger.WithError(err).WithField("phone", phoneNo).Warn("Failed to send weather alert SMS")
	}

	return forecast, nil
}

func (s *WeatherService) fetch(ctx context.Context, latitude, longitude string) (*Forecast, error) {
	endpoint := fmt.Sprintf("%s/v1/forecast?latitude=%s&longitude=%s&current_weather=true",
		s.baseURL, url.QueryEscape(latitude), url.QueryEscape(longitude))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build weather request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather API returned status %d", resp.StatusCode)
	}

	var raw map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode weather response: %w", err)
	}

	currentJSON, ok := raw["current_weather"]
	if !ok {
		return nil, fmt.Errorf("weather response missing current_weather")
	}

	var current CurrentWeather
	if err := json.Unmarshal(currentJSON, &current); err != nil {
		return nil, fmt.Errorf("failed to decode current weather: %w", err)
	}

	return &Forecast{Current: current, Raw: raw}, nil
}
