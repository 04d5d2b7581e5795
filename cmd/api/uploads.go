package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hilook/storefront-api/internal/data"
	"github.com/hilook/storefront-api/internal/push"
)

// maxUploadSize bounds a single image; a request may carry two.
const maxUploadSize = 5 << 20

// invalidUploadError is a problem with the uploaded file itself, reported as 400.
type invalidUploadError struct {
	field   string
	message string
}

func (e invalidUploadError) Error() string {
	return e.field + ": " + e.message
}

type fileStore interface {
	Upload(ctx context.Context, body io.ReadSeeker, folder, filename, contentType string) (string, error)
	Remove(ctx context.Context, ref string) error
}

type notifier interface {
	Enabled() bool
	Subscribe(ctx context.Context, token, topic string) error
	SendToTopic(ctx context.Context, topic string, msg push.Message) (string, error)
}

type mailSender interface {
	Send(recipient, templateFile string, data interface{}) error
}

type idempotencyStore interface {
	Ping(ctx context.Context) error
	ClaimIdempotencyKey(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseIdempotencyKey(ctx context.Context, key string) error
}

// parseForm reads a multipart or urlencoded body so r.FormValue and
// r.FormFile can be used. Bodies over two images plus fields are rejected.
func (app *application) parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, 2*maxUploadSize+1<<20)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return r.ParseMultipartForm(data.DefaultMaxMemory)
	}

	return r.ParseForm()
}

// readImage returns the uploaded file for field, or nil when none was sent.
func (app *application) readImage(r *http.Request, field string) (multipart.File, *multipart.FileHeader, error) {
	if r.MultipartForm == nil {
		return nil, nil, nil
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil, nil
		}
		return nil, nil, invalidUploadError{field, err.Error()}
	}

	if header.Size > maxUploadSize {
		file.Close()
		return nil, nil, invalidUploadError{field, fmt.Sprintf("must not be larger than %d bytes", maxUploadSize)}
	}

	if !strings.HasPrefix(header.Header.Get("Content-Type"), "image/") {
		file.Close()
		return nil, nil, invalidUploadError{field, "must be an image"}
	}

	return file, header, nil
}

// saveUpload stores file under folder with a random name and returns its reference.
func (app *application) saveUpload(ctx context.Context, file multipart.File, header *multipart.FileHeader, folder string) (string, error) {
	defer file.Close()

	filename := uuid.NewString() + strings.ToLower(filepath.Ext(header.Filename))

	return app.files.Upload(ctx, file, folder, filename, header.Header.Get("Content-Type"))
}

// removeUpload deletes a stored file. Failures are logged and otherwise ignored.
func (app *application) removeUpload(ref string) {
	if ref == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.files.Remove(ctx, ref); err != nil {
		app.logger.Warn("remove upload", zap.String("ref", ref), zap.Error(err))
	}
}

// uploadImage reads and stores the image in field. ref is empty when the
// request did not include one.
func (app *application) uploadImage(r *http.Request, field, folder string) (string, error) {
	file, header, err := app.readImage(r, field)
	if err != nil || file == nil {
		return "", err
	}

	return app.saveUpload(r.Context(), file, header, folder)
}

func (app *application) uploadErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var invalid invalidUploadError

	switch {
	case errors.As(err, &invalid):
		app.failedValidationResponse(w, r, map[string]string{invalid.field: invalid.message})
	default:
		app.serverErrorResponse(w, r, err)
	}
}
