package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/krishisetu/krishisetu/internal/models"
	"github.com/krishisetu/krishisetu/internal/repository"
	"github.com/krishisetu/krishisetu/internal/service"
)

type AuthHandlers struct {
	jwtService   *service.JWTService
	refreshStore repository.RefreshTokenStore
	userRepo     *repository.UserRepository
	logger       *logrus.Logger
}

func NewAuthHandlers(
	jwtService *service.JWTService,
	refreshStore repository.RefreshTokenStore,
	userRepo *repository.UserRepository,
	logger *logrus.Logger,
) *AuthHandlers {
	return &AuthHandlers{
		jwtService:   jwtService,
		refreshStore: refreshStore,
		userRepo:     userRepo,
		logger:       logger,
	}
}

type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	PhoneNo  string `json:"phoneNo"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Gender   string `json:"gender"`
}

type LoginEmailRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginPhoneRequest struct {
	PhoneNo  string `json:"phoneNo"`
	Password string `json:"password"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type UpdatePasswordRequest struct {
	NewPassword string `json:"newPassword"`
}

func (h *AuthHandlers) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.PhoneNo = strings.TrimSpace(req.PhoneNo)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if req.Username == "" || req.PhoneNo == "" || req.Password == "" || req.Role == "" || req.Gender == "" {
		respondWithError(w, http.StatusBadRequest, "All fields are required")
		return
	}
	if len(req.Password) < 8 {
		respondWithError(w, http.StatusBadRequest, "Password must be at least 8 characters long")
		return
	}
	if !isValidPhoneNumber(req.PhoneNo) {
		respondWithError(w, http.StatusBadRequest, "Invalid phone number format")
		return
	}
	if !models.ValidRole(req.Role) {
		respondWithError(w, http.StatusBadRequest, "Role must be Farmer or Logistics")
		return
	}
	if !models.ValidGender(req.Gender) {
		respondWithError(w, http.StatusBadRequest, "Gender must be Male, Female or Other")
		return
	}

	if req.Email != "" {
		existing, err := h.userRepo.GetByEmail(r.Context(), req.Email)
		if err != nil {
			h.logger.WithError(err).Error("Failed to check existing user by email")
			respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}
		if existing != nil {
			respondWithError(w, http.StatusConflict, "User already exists with the given email")
			return
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.WithError(err).Error("Failed to hash password")
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	user := &models.User{
		ID:             uuid.New().String(),
		PhoneNo:        req.PhoneNo,
		Username:       req.Username,
		Email:          req.Email,
		PasswordHash:   string(hash),
		Role:           req.Role,
		Gender:         req.Gender,
		LanguageSpoken: []string{},
		Documents:      []string{},
	}

	if err := h.userRepo.Create(r.Context(), user); err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			respondWithError(w, http.StatusConflict, "User already exists with the given phone number")
			return
		}
		h.logger.WithError(err).Error("Failed to create user")
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	tokens, err := h.issueTokens(r, user.PhoneNo)
	if err != nil {
		h.logger.WithError(err).Error("Failed to generate tokens")
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	respondWithJSON(w, http.StatusCreated, Response{
		Success: true,
		Message: "Signup successful",
		User:    user,
		Tokens:  tokens,
	})
}

func (h *AuthHandlers) LoginWithEmail(w http.ResponseWriter, r *http.Request) {
	var req LoginEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		respondWithError(w, http.StatusBadRequest, "All fields are required")
		return
	}

	user, err := h.userRepo.GetByEmail(r.Context(), req.Email)
	if err != nil {
		h.logger.WithError(err).Error("Failed to look up user by email")
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	h.finishLogin(w, r, user, req.Password)
}

func (h *AuthHandlers) LoginWithPhone(w http.ResponseWriter, r *http.Request) {
	var req LoginPhoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.PhoneNo = strings.TrimSpace(req.PhoneNo)
	if req.PhoneNo == "" || req.Password == "" {
		respondWithError(w, http.StatusBadRequest, "All fields are required")
		return
	}

	user, err := h.userRepo.GetByPhone(r.Context(), req.PhoneNo)
	if err != nil {
		h.logger.WithError(err).Error("Failed to look up user by phone")
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	h.finishLogin(w, r, user, req.Password)
}

func (h *AuthHandlers) finishLogin(w http.ResponseWriter, r *http.Request, user *models.User, password string) {
	// Same response for unknown user and wrong password.
	if user == nil {
		respondWithError(w, http.StatusNotFound, "Invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		respondWithError(w, http.StatusNotFound, "Invalid credentials")
		return
	}

	tokens, err := h.issueTokens(r, user.PhoneNo)
	if err != nil {
		h.logger.WithError(err).Error("Failed to generate tokens")
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	respondWithJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Login successful",
		User:    user,
		Tokens:  tokens,
	})
}

func (h *AuthHandlers) issueTokens(r *http.Request, phoneNo string) (*models.TokenPair, error) {
	tokens, familyID, err := h.jwtService.GeneratePair(phoneNo)
	if err != nil {
		return nil, err
	}

	claims, err := h.jwtService.VerifyToken(tokens.RefreshToken)
	if err != nil {
		return nil, err
	}

	if err := h.refreshStore.Store(r.Context(), models.RefreshTokenData{
		JTI:       claims.JTI,
		UserID:    phoneNo,
		Phone:     phoneNo,
		FamilyID:  familyID,
		CreatedAt: claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}); err != nil {
		// Token is still valid without the store entry; it just cannot
		// be revoked early.
		h.logger.WithError(err).Error("Failed to store refresh token")
	}

	return tokens, nil
}

func (h *AuthHandlers) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req RefreshTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.RefreshToken == "" {
		respondWithError(w, http.StatusBadRequest, "Refresh token is required")
		return
	}

	claims, err := h.jwtService.VerifyToken(req.RefreshToken)
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	if claims.Type != "refresh" {
		respondWithError(w, http.StatusUnauthorized, "Token is not a refresh token")
		return
	}

	if revoked, err := h.refreshStore.IsRevoked(r.Context(), claims.JTI); err == nil && revoked {
		respondWithError(w, http.StatusUnauthorized, "Refresh token has been revoked")
		return
	}

	familyID := ""
	tokenData, err := h.refreshStore.Get(r.Context(), claims.JTI)
	if err != nil {
		h.logger.WithError(err).Warn("Failed to get refresh token data, rotating into a new family")
	}
	if tokenData != nil {
		familyID = tokenData.FamilyID
		if err := h.refreshStore.Revoke(r.Context(), claims.JTI); err != nil {
			h.logger.WithError(err).Warn("Failed to revoke rotated refresh token")
		}
	}

	tokens, newFamilyID, err := h.jwtService.RefreshTokens(req.RefreshToken, familyID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to generate new tokens")
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	newClaims, err := h.jwtService.VerifyToken(tokens.RefreshToken)
	if err != nil {
		h.logger.WithError(err).Error("Failed to verify new refresh token")
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	if err := h.refreshStore.Store(r.Context(), models.RefreshTokenData{
		JTI:       newClaims.JTI,
		UserID:    claims.Phone,
		Phone:     claims.Phone,
		FamilyID:  newFamilyID,
		CreatedAt: newClaims.IssuedAt.Time,
		ExpiresAt: newClaims.ExpiresAt.Time,
	}); err != nil {
		h.logger.WithError(err).Error("Failed to store new refresh token")
	}

	respondWithJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Token refreshed",
		Tokens:  tokens,
	})
}

func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	var req RefreshTokenRequest
	json.NewDecoder(r.Body).Decode(&req)

	if req.RefreshToken != "" {
		if claims, err := h.jwtService.VerifyToken(req.RefreshToken); err == nil && claims.Type == "refresh" {
			if err := h.refreshStore.Revoke(r.Context(), claims.JTI); err != nil {
				h.logger.WithError(err).Warn("Failed to revoke refresh token on logout")
			}
		}
	}

	respondWithJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Logged out successfully",
	})
}

// UpdatePassword changes the authenticated user's password. The mobile
// client gates this behind the OTP verify flow before calling it.
func (h *AuthHandlers) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	phoneNo, ok := r.Context().Value("phone").(string)
	if !ok || phoneNo == "" {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized - No Token Provided")
		return
	}

	var req UpdatePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.NewPassword == "" {
		respondWithError(w, http.StatusBadRequest, "New password is required")
		return
	}
	if len(req.NewPassword) < 8 {
		respondWithError(w, http.StatusBadRequest, "Password must be at least 8 characters long")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		h.logger.WithError(err).Error("Failed to hash password")
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	if err := h.userRepo.UpdatePassword(r.Context(), phoneNo, string(hash)); err != nil {
		h.logger.WithError(err).Error("Failed to update password")
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	respondWithJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Password updated successfully",
	})
}
