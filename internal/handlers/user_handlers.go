package handlers

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/krishisetu/krishisetu/internal/models"
	"github.com/krishisetu/krishisetu/internal/repository"
	"github.com/krishisetu/krishisetu/internal/storage"
)

type UserHandlers struct {
	userRepo *repository.UserRepository
	uploader storage.Uploader
	logger   *logrus.Logger
}

func NewUserHandlers(userRepo *repository.UserRepository, uploader storage.Uploader, logger *logrus.Logger) *UserHandlers {
	return &UserHandlers{
		userRepo: userRepo,
		uploader: uploader,
		logger:   logger,
	}
}

type UpdateProfileRequest struct {
	Username       *string              `json:"username"`
	Bio            *string              `json:"bio"`
	Email          *string              `json:"email"`
	Gender         *string              `json:"gender"`
	Role           *string              `json:"role"`
	Location       *models.Location     `json:"location"`
	LanguageSpoken []string             `json:"languageSpoken"`
	GovernmentID   *models.GovernmentID `json:"governmentId"`
	SocialLinks    *models.SocialLinks  `json:"socialLinks"`
}

type UpdateProfilePicRequest struct {
	ProfilePic string `json:"profilePic"`
}

// UpdateProfile applies partial updates to the authenticated user's
// profile. Only fields present in the body are changed.
func (h *UserHandlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	phoneNo, ok := r.Context().Value("phone").(string)
	if !ok || phoneNo == "" {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized - No user ID")
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.userRepo.GetByPhone(r.Context(), phoneNo)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load user for profile update")
		respondWithError(w, http.StatusInternalServerError, "Error updating profile")
		return
	}
	if user == nil {
		respondWithError(w, http.StatusNotFound, "User not found")
		return
	}

	if req.Username != nil && *req.Username != "" {
		user.Username = *req.Username
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if req.Email != nil && *req.Email != "" {
		user.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Gender != nil && *req.Gender != "" {
		if !models.ValidGender(*req.Gender) {
			respondWithError(w, http.StatusBadRequest, "Gender must be Male, Female or Other")
			return
		}
		user.Gender = *req.Gender
	}
	if req.Role != nil && *req.Role != "" {
		if !models.ValidRole(*req.Role) {
			respondWithError(w, http.StatusBadRequest, "Role must be Farmer or Logistics")
			return
		}
		user.Role = *req.Role
	}
	if req.Location != nil {
		user.Location = *req.Location
	}
	if req.LanguageSpoken != nil {
		user.LanguageSpoken = req.LanguageSpoken
	}
	if req.GovernmentID != nil {
		user.GovernmentID = *req.GovernmentID
	}
	if req.SocialLinks != nil {
		user.SocialLinks = *req.SocialLinks
	}

	if err := h.userRepo.Save(r.Context(), user); err != nil {
		h.logger.WithError(err).Error("Failed to save profile update")
		respondWithError(w, http.StatusInternalServerError, "Error updating profile")
		return
	}

	respondWithJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Profile updated successfully",
		User:    user,
	})
}

// UpdateProfilePic accepts a base64-encoded image (optionally a data
// URL), stores it and records the resulting URL on the profile.
func (h *UserHandlers) UpdateProfilePic(w http.ResponseWriter, r *http.Request) {
	phoneNo, ok := r.Context().Value("phone").(string)
	if !ok || phoneNo == "" {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized - No user ID")
		return
	}

	var req UpdateProfilePicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.ProfilePic == "" {
		respondWithError(w, http.StatusBadRequest, "Profile picture is required")
		return
	}

	contentType, data, err := decodeImage(req.ProfilePic)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid image data")
		return
	}

	key := fmt.Sprintf("profile_pics/%s-%d", phoneNo, time.Now().UnixMilli())
	picURL, err := h.uploader.Upload(r.Context(), key, contentType, bytes.NewReader(data))
	if err != nil {
		h.logger.WithError(err).Error("Failed to upload profile picture")
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	if err := h.userRepo.SetProfilePic(r.Context(), phoneNo, picURL); err != nil {
		h.logger.WithError(err).Error("Failed to set profile picture")
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	respondWithJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Profile picture updated successfully",
	})
}

// decodeImage accepts raw base64 or a data URL and returns the content
// type and decoded bytes.
func decodeImage(input string) (string, []byte, error) {
	contentType := "image/jpeg"

	if strings.HasPrefix(input, "data:") {
		semi := strings.Index(input, ";base64,")
		if semi < 0 {
			return "", nil, fmt.Errorf("malformed data URL")
		}
		contentType = input[len("data:"):semi]
		input = input[semi+len(";base64,"):]
	}

	data, err := base64.StdEncoding.DecodeString(input)
	if err != nil {
		return "", nil, fmt.Errorf("invalid base64 image: %w", err)
	}

	return contentType, data, nil
}
