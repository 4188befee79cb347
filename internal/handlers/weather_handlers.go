package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/krishisetu/krishisetu/internal/service"
)

type WeatherHandlers struct {
	weatherService *service.WeatherService
	logger         *logrus.Logger
}

func NewWeatherHandlers(weatherService *service.WeatherService, logger *logrus.Logger) *WeatherHandlers {
	return &WeatherHandlers{
		weatherService: weatherService,
		logger:         logger,
	}
}

// GetForecast proxies the upstream forecast for the given coordinates,
// adds derived alerts and forwards them to the given phone number.
// The response is the upstream payload with an "alerts" key added.
func (h *WeatherHandlers) GetForecast(w http.ResponseWriter, r *http.Request) {
	latitude := r.URL.Query().Get("latitude")
	longitude := r.URL.Query().Get("longitude")
	phone := r.URL.Query().Get("phone")

	if latitude == "" || longitude == "" || phone == "" {
		respondWithError(w, http.StatusBadRequest, "Latitude, longitude, and phone number are required")
		return
	}

	forecast, err := h.weatherService.FetchAndAlert(r.Context(), latitude, longitude, phone)
	if err != nil {
		h.logger.WithError(err).Error("Weather fetch error")
		respondWithError(w, http.StatusInternalServerError, "Weather fetch failed")
		return
	}

	payload := make(map[string]interface{}, len(forecast.Raw)+1)
	for k, v := range forecast.Raw {
		payload[k] = json.RawMessage(v)
	}
	payload["alerts"] = forecast.Alerts

	respondWithJSON(w, http.StatusOK, payload)
}
