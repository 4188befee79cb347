package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/krishisetu/krishisetu/internal/repository"
	"github.com/krishisetu/krishisetu/internal/storage"
)

const maxDocumentSize = 10 << 20 // 10MB

type UploadHandlers struct {
	userRepo *repository.UserRepository
	uploader storage.Uploader
	logger   *logrus.Logger
}

func NewUploadHandlers(userRepo *repository.UserRepository, uploader storage.Uploader, logger *logrus.Logger) *UploadHandlers {
	return &UploadHandlers{
		userRepo: userRepo,
		uploader: uploader,
		logger:   logger,
	}
}

// UploadDoc accepts a single PDF under the multipart field "document",
// stores it and appends its URL to the user's documents list.
func (h *UploadHandlers) UploadDoc(w http.ResponseWriter, r *http.Request) {
	phoneNo, ok := r.Context().Value("phone").(string)
	if !ok || phoneNo == "" {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized - No user ID")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxDocumentSize)
	if err := r.ParseMultipartForm(maxDocumentSize); err != nil {
		respondWithError(w, http.StatusBadRequest, "File upload error")
		return
	}

	file, header, err := r.FormFile("document")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType != "application/pdf" && !strings.EqualFold(filepath.Ext(header.Filename), ".pdf") {
		respondWithError(w, http.StatusBadRequest, "Only PDF files are allowed.")
		return
	}

	key := fmt.Sprintf("documents/%s/%s-%d", phoneNo, header.Filename, time.Now().UnixMilli())
	docURL, err := h.uploader.Upload(r.Context(), key, "application/pdf", file)
	if err != nil {
		h.logger.WithError(err).Error("Failed to upload document")
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	if err := h.userRepo.AppendDocument(r.Context(), phoneNo, docURL); err != nil {
		h.logger.WithError(err).Error("Failed to record document")
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	user, err := h.userRepo.GetByPhone(r.Context(), phoneNo)
	if err != nil {
		h.logger.WithError(err).Warn("Failed to reload user after document upload")
	}

	respondWithJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Document uploaded successfully",
		User:    user,
	})
}
