package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krishisetu/krishisetu/internal/config"
	"github.com/krishisetu/krishisetu/internal/otp"
)

type captureSender struct {
	bodies []string
}

func (c *captureSender) Send(_ context.Context, _, body string) error {
	c.bodies = append(c.bodies, body)
	return nil
}

var codeRegexp = regexp.MustCompile(`\d{4}`)

func (c *captureSender) lastCode() string {
	if len(c.bodies) == 0 {
		return ""
	}
	return codeRegexp.FindString(c.bodies[len(c.bodies)-1])
}

func newOTPTestHandlers() (*OTPHandlers, *captureSender) {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	store := otp.NewMemoryStore(0)
	sender := &captureSender{}
	cfg := &config.OTPConfig{
		Store:          "memory",
		Length:         4,
		Expiry:         10 * time.Minute,
		MaxAttempts:    3,
		ResendCooldown: time.Minute,
	}

	svc := otp.NewService(store, sender, cfg, logger)
	return NewOTPHandlers(svc, logger), sender
}

func postJSON(t *testing.T, handler http.HandlerFunc, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler(rr, req)
	return rr
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) Response {
	t.Helper()

	var resp Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func TestGenerateOTPSuccess(t *testing.T) {
	h, sender := newOTPTestHandlers()

	rr := postJSON(t, h.GenerateOTP, GenerateOTPRequest{PhoneNo: "+919999999999"})
	assert.Equal(t, http.StatusOK, rr.Code)

	resp := decodeResponse(t, rr)
	assert.True(t, resp.Success)
	assert.Equal(t, "OTP sent successfully", resp.Message)
	assert.NotEmpty(t, sender.lastCode())
}

func TestGenerateOTPMissingPhone(t *testing.T) {
	h, _ := newOTPTestHandlers()

	rr := postJSON(t, h.GenerateOTP, GenerateOTPRequest{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	resp := decodeResponse(t, rr)
	assert.False(t, resp.Success)
	assert.Equal(t, "Phone number is required", resp.Message)
}

func TestGenerateOTPRateLimited(t *testing.T) {
	h, _ := newOTPTestHandlers()

	rr := postJSON(t, h.GenerateOTP, GenerateOTPRequest{PhoneNo: "+919999999999"})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = postJSON(t, h.GenerateOTP, GenerateOTPRequest{PhoneNo: "+919999999999"})
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))

	resp := decodeResponse(t, rr)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "Please wait")
}

func TestVerifyOTPFlow(t *testing.T) {
	h, sender := newOTPTestHandlers()

	rr := postJSON(t, h.GenerateOTP, GenerateOTPRequest{PhoneNo: "+919999999999"})
	require.Equal(t, http.StatusOK, rr.Code)
	code := sender.lastCode()
	require.NotEmpty(t, code)

	wrong := "0000"
	rr = postJSON(t, h.VerifyOTP, VerifyOTPRequest{PhoneNo: "+919999999999", OTP: wrong})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Invalid OTP. Please try again", decodeResponse(t, rr).Message)

	rr = postJSON(t, h.VerifyOTP, VerifyOTPRequest{PhoneNo: "+919999999999", OTP: code})
	assert.Equal(t, http.StatusOK, rr.Code)
	resp := decodeResponse(t, rr)
	assert.True(t, resp.Success)
	assert.Equal(t, "OTP verified successfully", resp.Message)

	// The code was consumed; replaying it reports no pending OTP.
	rr = postJSON(t, h.VerifyOTP, VerifyOTPRequest{PhoneNo: "+919999999999", OTP: code})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "No OTP requested for this number", decodeResponse(t, rr).Message)
}

func TestVerifyOTPMissingFields(t *testing.T) {
	h, _ := newOTPTestHandlers()

	rr := postJSON(t, h.VerifyOTP, VerifyOTPRequest{PhoneNo: "+919999999999"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Phone number and OTP are required", decodeResponse(t, rr).Message)

	rr = postJSON(t, h.VerifyOTP, VerifyOTPRequest{OTP: "1234"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestVerifyOTPNotRequested(t *testing.T) {
	h, _ := newOTPTestHandlers()

	rr := postJSON(t, h.VerifyOTP, VerifyOTPRequest{PhoneNo: "+918888888888", OTP: "1234"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "No OTP requested for this number", decodeResponse(t, rr).Message)
}

func TestVerifyOTPAttemptsExceeded(t *testing.T) {
	h, sender := newOTPTestHandlers()

	rr := postJSON(t, h.GenerateOTP, GenerateOTPRequest{PhoneNo: "+917777777777"})
	require.Equal(t, http.StatusOK, rr.Code)
	require.NotEmpty(t, sender.lastCode())

	for i := 0; i < 3; i++ {
		rr = postJSON(t, h.VerifyOTP, VerifyOTPRequest{PhoneNo: "+917777777777", OTP: "0000"})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Invalid OTP. Please try again", decodeResponse(t, rr).Message)
	}

	rr = postJSON(t, h.VerifyOTP, VerifyOTPRequest{PhoneNo: "+917777777777", OTP: "0000"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Maximum verification attempts exceeded. Please request a new OTP", decodeResponse(t, rr).Message)

	rr = postJSON(t, h.VerifyOTP, VerifyOTPRequest{PhoneNo: "+917777777777", OTP: sender.lastCode()})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "No OTP requested for this number", decodeResponse(t, rr).Message)
}
