package service

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	to     string
	body   string
	called int
}

func (r *recordingSender) Send(_ context.Context, to, body string) error {
	r.to = to
	r.body = body
	r.called++
	return nil
}

func TestAlertsFor(t *testing.T) {
	tests := []struct {
		name    string
		weather CurrentWeather
		want    string
	}{
		{"heatwave", CurrentWeather{Temperature: 41, WindSpeed: 10}, "Heatwave Alert: High temperature"},
		{"heatwave boundary", CurrentWeather{Temperature: 40, WindSpeed: 0}, "Heatwave Alert: High temperature"},
		{"cold", CurrentWeather{Temperature: 2, WindSpeed: 10}, "Cold Alert: Low temperature"},
		{"cold boundary", CurrentWeather{Temperature: 5, WindSpeed: 10}, "Cold Alert: Low temperature"},
		{"wind", CurrentWeather{Temperature: 25, WindSpeed: 60}, "Wind Alert: High wind speed"},
		{"normal", CurrentWeather{Temperature: 25, WindSpeed: 10}, "Normal Weather: Conditions are normal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alerts := AlertsFor(tt.weather)
			require.Len(t, alerts, 1)
			assert.Equal(t, tt.want, alerts[0])
		})
	}
}

func TestFetchAndAlert(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/forecast", r.URL.Path)
		assert.Equal(t, "12.97", r.URL.Query().Get("latitude"))
		assert.Equal(t, "77.59", r.URL.Query().Get("longitude"))
		assert.Equal(t, "true", r.URL.Query().Get("current_weather"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"latitude":12.97,"longitude":77.59,"current_weather":{"temperature":42.5,"windspeed":12.0}}`)
	}))
	defer upstream.Close()

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	sender := &recordingSender{}
	svc := NewWeatherService(upstream.URL, sender, logger)

	forecast, err := svc.FetchAndAlert(context.Background(), "12.97", "77.59", "+919999999999")
	require.NoError(t, err)

	assert.Equal(t, 42.5, forecast.Current.Temperature)
	assert.Equal(t, []string{"Heatwave Alert: High temperature"}, forecast.Alerts)
	assert.Contains(t, forecast.Raw, "latitude")

	assert.Equal(t, 1, sender.called)
	assert.Equal(t, "+919999999999", sender.to)
	assert.Contains(t, sender.body, "Heatwave Alert")
}

func TestFetchAndAlertUpstreamFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer upstream.Close()

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	sender := &recordingSender{}
	svc := NewWeatherService(upstream.URL, sender, logger)

	_, err := svc.FetchAndAlert(context.Background(), "0", "0", "+919999999999")
	assert.Error(t, err)
	assert.Equal(t, 0, sender.called)
}

func TestFetchAndAlertMissingCurrentWeather(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"latitude":0}`)
	}))
	defer upstream.Close()

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	svc := NewWeatherService(upstream.URL, &recordingSender{}, logger)

	_, err := svc.FetchAndAlert(context.Background(), "0", "0", "+919999999999")
	assert.Error(t, err)
}
