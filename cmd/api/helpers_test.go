package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePriority(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"3", 3, true},
		{" 12 ", 12, true},
		{"0", 0, false},
		{"-1", 0, false},
		{"abc", 0, false},
		{"2.5", 0, false},
		{"4.0", 4, true},
		{"", 0, false},
	}

	for _, tt := range tests {
		got, ok := parsePriority(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		if tt.ok {
			assert.Equal(t, tt.want, got, tt.in)
		}
	}
}

func TestReadIDParam(t *testing.T) {
	app := newTestApplication(t)

	for raw, wantErr := range map[string]bool{"42": false, "0": true, "-3": true, "x": true} {
		params := httprouter.Params{{Key: "id", Value: raw}}
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r = r.WithContext(context.WithValue(r.Context(), httprouter.ParamsKey, params))

		id, err := app.readIDParam(r)
		if wantErr {
			assert.Error(t, err, raw)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, int64(42), id)
	}
}

func TestWriteJSONMessage(t *testing.T) {
	app := newTestApplication(t)

	rr := httptest.NewRecorder()
	require.NoError(t, app.writeJSON(rr, http.StatusOK, "", envelope{"items": []int{1}}, nil))

	body := decodeBody(t, rr)
	assert.NotContains(t, body, "message")
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	rr = httptest.NewRecorder()
	require.NoError(t, app.writeJSON(rr, http.StatusCreated, "Banner created", nil, http.Header{"X-Test": {"1"}}))

	body = decodeBody(t, rr)
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "Banner created", body["message"])
	assert.Equal(t, "1", rr.Header().Get("X-Test"))
}

func TestFailedValidationResponseUsesFirstKey(t *testing.T) {
	app := newTestApplication(t)

	rr := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", nil)

	app.failedValidationResponse(rr, r, map[string]string{
		"priority": "priority must be a positive integer",
		"image":    "image file is required",
	})

	body := decodeBody(t, rr)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "image file is required", body["message"])
	assert.Len(t, body["errors"], 2)
}

func TestServerErrorResponseIncludesError(t *testing.T) {
	app := newTestApplication(t)

	rr := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	app.serverErrorResponse(rr, r, assert.AnError)

	body := decodeBody(t, rr)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, assert.AnError.Error(), body["error"])
	assert.NotEmpty(t, body["message"])
}

func TestReadJSONRejectsUnknownFields(t *testing.T) {
	app := newTestApplication(t)

	var dst struct {
		Token string `json:"token"`
	}

	r := jsonRequest(t, http.MethodPost, "/", map[string]string{"token": "t", "extra": "x"})
	err := app.readJSON(httptest.NewRecorder(), r, &dst)

	assert.EqualError(t, err, `body contains unknown key "extra"`)
}
