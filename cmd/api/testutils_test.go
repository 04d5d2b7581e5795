package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/hilook/storefront-api/internal/auth"
	"github.com/hilook/storefront-api/internal/data"
	"github.com/hilook/storefront-api/internal/push"
)

type fakeFileStore struct {
	mu       sync.Mutex
	uploaded []string
	removed  []string
}

func (f *fakeFileStore) Upload(ctx context.Context, body io.ReadSeeker, folder, filename, contentType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ref := "/public/uploads/" + folder + filename
	f.uploaded = append(f.uploaded, ref)
	return ref, nil
}

func (f *fakeFileStore) Remove(ctx context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.removed = append(f.removed, ref)
	return nil
}

func newTestApplication(t *testing.T) *application {
	t.Helper()

	pusher, err := push.New(context.Background(), "")
	require.NoError(t, err)

	var cfg config
	cfg.env = "testing"
	cfg.jwt.ttl = time.Hour
	cfg.jwt.adminTTL = time.Hour
	cfg.admin.username = "admin"
	cfg.admin.password = "s3cret-default"

	return &application{
		config: cfg,
		logger: zap.NewNop(),
		files:  &fakeFileStore{},
		push:   pusher,
		tokens: auth.NewIssuer("test-secret", "hilook"),
	}
}

// withMockDB wires the sqlx models to a sqlmock connection.
func withMockDB(t *testing.T, app *application) sqlmock.Sqlmock {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	app.db = sqlx.NewDb(db, "postgres")
	app.models = data.NewModels(app.db)

	return mock
}

// withMockGorm wires the gorm models to their own sqlmock connection.
func withMockGorm(t *testing.T, app *application) sqlmock.Sqlmock {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	app.gorm = data.GormModels(gormDB)

	return mock
}

func jsonRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()

	js, err := json.Marshal(body)
	require.NoError(t, err)

	r := httptest.NewRequest(method, target, bytes.NewReader(js))
	r.Header.Set("Content-Type", "application/json")
	return r
}

// multipartRequest builds a form with the given fields and, when imageField is
// set, one file part of the given content type.
func multipartRequest(t *testing.T, method, target string, fields map[string]string, imageField, contentType string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for key, value := range fields {
		require.NoError(t, mw.WriteField(key, value))
	}

	if imageField != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+imageField+`"; filename="Photo.PNG"`)
		h.Set("Content-Type", contentType)

		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte("\x89PNG\r\n\x1a\n"))
		require.NoError(t, err)
	}

	require.NoError(t, mw.Close())

	r := httptest.NewRequest(method, target, &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	return r
}

func asUser(app *application, r *http.Request, user *data.User) *http.Request {
	return app.contextSetUser(r, user)
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}
