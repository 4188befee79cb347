package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/krishisetu/krishisetu/internal/otp"
)

type OTPHandlers struct {
	otpService *otp.Service
	logger     *logrus.Logger
}

func NewOTPHandlers(otpService *otp.Service, logger *logrus.Logger) *OTPHandlers {
	return &OTPHandlers{
		otpService: otpService,
		logger:     logger,
	}
}

type GenerateOTPRequest struct {
	PhoneNo string `json:"phoneNo"`
}

type VerifyOTPRequest struct {
	PhoneNo string `json:"phoneNo"`
	OTP     string `json:"otp"`
}

func (h *OTPHandlers) GenerateOTP(w http.ResponseWriter, r *http.Request) {
	var req GenerateOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.PhoneNo == "" {
		respondWithError(w, http.StatusBadRequest, "Phone number is required")
		return
	}

	_, err := h.otpService.Generate(r.Context(), req.PhoneNo)
	if err != nil {
		var rateLimited *otp.RateLimitedError
		switch {
		case errors.Is(err, otp.ErrMissingInput):
			respondWithError(w, http.StatusBadRequest, "Phone number is required")
		case errors.As(err, &rateLimited):
			seconds := int(rateLimited.RetryAfter.Round(time.Second).Seconds())
			if seconds < 1 {
				seconds = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
			respondWithError(w, http.StatusTooManyRequests,
				fmt.Sprintf("Please wait %d seconds before requesting another OTP", seconds))
		default:
			h.logger.WithError(err).Error("OTP generation error")
			respondWithError(w, http.StatusInternalServerError, "Failed to generate and send OTP")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "OTP sent successfully",
	})
}

func (h *OTPHandlers) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req VerifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.PhoneNo == "" || req.OTP == "" {
		respondWithError(w, http.StatusBadRequest, "Phone number and OTP are required")
		return
	}

	err := h.otpService.Verify(r.Context(), req.PhoneNo, req.OTP)
	if err != nil {
		switch {
		case errors.Is(err, otp.ErrMissingInput):
			respondWithError(w, http.StatusBadRequest, "Phone number and OTP are required")
		case errors.Is(err, otp.ErrNotRequested):
			respondWithError(w, http.StatusBadRequest, "No OTP requested for this number")
		case errors.Is(err, otp.ErrExpired):
			respondWithError(w, http.StatusBadRequest, "OTP has expired. Please request a new one")
		case errors.Is(err, otp.ErrAttemptsExceeded):
			respondWithError(w, http.StatusBadRequest, "Maximum verification attempts exceeded. Please request a new OTP")
		case errors.Is(err, otp.ErrInvalidCode):
			respondWithError(w, http.StatusBadRequest, "Invalid OTP. Please try again")
		default:
			h.logger.WithError(err).Error("OTP verification error")
			respondWithError(w, http.StatusInternalServerError, "Failed to verify OTP")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "OTP verified successfully",
	})
}
