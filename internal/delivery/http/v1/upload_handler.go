package v1

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/basterrika/wp-image-optimizer/internal/domain"
	"github.com/basterrika/wp-image-optimizer/pkg/logger"
	"github.com/basterrika/wp-image-optimizer/pkg/storage"
	"github.com/basterrika/wp-image-optimizer/pkg/utils"
)

var (
	allowedMimeTypes = map[string]bool{
		"image/jpeg": true,
		"image/jpg":  true,
		"image/png":  true,
		"image/webp": true,
		"image/gif":  true,
		"image/heic": true,
		"image/heif": true,
	}
	allowedExtensions = map[string]bool{
		".jpg":  true,
		".jpeg": true,
		".png":  true,
		".webp": true,
		".gif":  true,
		".heic": true,
		".heif": true,
	}
)

// Converter is the conversion filter both extension points run through.
type Converter interface {
	Convert(up domain.Upload) domain.Upload
}

type UploadHandler struct {
	storage       *storage.LocalStorage
	converter     Converter
	maxUploadSize int64
}

func NewUploadHandler(s *storage.LocalStorage, c Converter, maxUploadSizeMB int64) *UploadHandler {
	return &UploadHandler{
		storage:       s,
		converter:     c,
		maxUploadSize: maxUploadSizeMB << 20, // Convert MB to bytes
	}
}

// UploadFile handles a browser multipart upload: store the file, run it
// through the WebP conversion filter, return the resulting descriptor.
func (h *UploadHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	log := logger.WithContext(r.Context())

	// 1. Parse Multipart Form with configurable limit
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		log.Warn().Err(err).Msg("Upload: ParseMultipartForm failed")
		utils.WriteError(w, http.StatusBadRequest, "File too large or invalid format")
		return
	}

	// 2. Get File
	file, header, err := r.FormFile("file")
	if err != nil {
		log.Warn().Err(err).Msg("Upload: FormFile failed")
		utils.WriteError(w, http.StatusBadRequest, "Invalid file")
		return
	}
	defer file.Close()

	// 3. Validate MIME Type
	contentType := header.Header.Get("Content-Type")
	if !allowedMimeTypes[contentType] {
		log.Warn().Str("content_type", contentType).Msg("Upload: invalid MIME type")
		utils.WriteError(w, http.StatusBadRequest, "Invalid file type. Allowed: JPEG, PNG, WebP, GIF, HEIC")
		return
	}

	// 4. Validate File Extension
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] {
		log.Warn().Str("ext", ext).Msg("Upload: invalid extension")
		utils.WriteError(w, http.StatusBadRequest, "Invalid file extension")
		return
	}

	// 5. Store the original upload
	up, err := h.storage.SaveUpload(file, header.Filename, contentType)
	if err != nil {
		log.Error().Err(err).Msg("Upload: failed to store file")
		utils.WriteError(w, http.StatusInternalServerError, "Failed to store file")
		return
	}

	// 6. "Upload handled" extension point: the conversion filter.
	// Convert never fails the upload; worst case it hands back the
	// original descriptor.
	up = h.converter.Convert(up)

	utils.WriteJSON(w, http.StatusOK, up)
}

// Sideload registers a file that is already on disk (programmatic
// imports) and runs it through the same conversion filter as uploads.
func (h *UploadHandler) Sideload(w http.ResponseWriter, r *http.Request) {
	log := logger.WithContext(r.Context())

	var up domain.Upload
	if err := utils.ReadJSON(r, &up); err != nil {
		log.Warn().Err(err).Msg("Sideload: invalid request body")
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if up.Path == "" {
		utils.WriteError(w, http.StatusBadRequest, "path is required")
		return
	}
	if _, err := os.Stat(up.Path); err != nil {
		log.Warn().Err(err).Str("path", up.Path).Msg("Sideload: file not found")
		utils.WriteError(w, http.StatusNotFound, "File not found")
		return
	}
	if up.URL == "" {
		up.URL = h.storage.PublicURL(up.Path)
	}

	// "Upload sideloaded" extension point: same filter as UploadFile.
	up = h.converter.Convert(up)

	utils.WriteJSON(w, http.StatusOK, up)
}
