package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"pantry-hub/internal/model"
)

const (
	imageField     = "image"
	maxUploadBytes = 10 << 20
)

var errMissingImage = model.Validation(model.ErrCodeMissingField, "An image file is required")

// saveUpload copies the multipart image field to a temporary file and
// returns its path. The caller owns the file.
func saveUpload(w http.ResponseWriter, r *http.Request) (string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+(1<<20))
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return "", model.Validation(model.ErrCodeInvalidInput, "Request must be multipart form data under 10 MB")
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	src, _, err := r.FormFile(imageField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", errMissingImage
		}
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	defer src.Close()

	dst, err := os.CreateTemp("", "pantry-hub-upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	return dst.Name(), nil
}
