package main

import (
	"fmt"
	"net/http"
	"sort"

	"go.uber.org/zap"
)

func (app *application) logError(r *http.Request, err error) {
	app.logger.Error(err.Error(),
		zap.String("request_method", r.Method),
		zap.String("request_url", r.URL.String()),
	)
}

// errorResponse writes {message, ...extra}. extra may be nil.
func (app *application) errorResponse(w http.ResponseWriter, r *http.Request, status int, message string, extra envelope) {
	err := app.writeJSON(w, status, message, extra, nil)
	if err != nil {
		app.logError(r, err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (app *application) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logError(r, err)

	message := "the server encountered a problem and could not process your request"
	app.errorResponse(w, r, http.StatusInternalServerError, message, envelope{"error": err.Error()})
}

func (app *application) notFoundResponse(w http.ResponseWriter, r *http.Request) {
	message := "the requested resource could not be found"
	app.errorResponse(w, r, http.StatusNotFound, message, nil)
}

func (app *application) recordNotFoundResponse(w http.ResponseWriter, r *http.Request, what string) {
	app.errorResponse(w, r, http.StatusNotFound, what+" not found", nil)
}

func (app *application) methodNotAllowedResponse(w http.ResponseWriter, r *http.Request) {
	message := fmt.Sprintf("the %s method is not supported for this resource", r.Method)
	app.errorResponse(w, r, http.StatusMethodNotAllowed, message, nil)
}

func (app *application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusBadRequest, err.Error(), nil)
}

// failedValidationResponse answers 400 with every field error, using the
// first one by key order as the message.
func (app *application) failedValidationResponse(w http.ResponseWriter, r *http.Request, errors map[string]string) {
	keys := make([]string, 0, len(errors))
	for key := range errors {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	message := "validation failed"
	if len(keys) > 0 {
		message = errors[keys[0]]
	}

	app.errorResponse(w, r, http.StatusBadRequest, message, envelope{"errors": errors})
}

// fileNotFoundResponse answers 400 for a required multipart file that is missing.
func (app *application) fileNotFoundResponse(w http.ResponseWriter, r *http.Request, field string) {
	message := fmt.Sprintf("%s file is required", field)
	app.errorResponse(w, r, http.StatusBadRequest, message, envelope{"errors": map[string]string{field: message}})
}

func (app *application) editConflictResponse(w http.ResponseWriter, r *http.Request) {
	message := "unable to update the record due to an edit conflict, please try again"
	app.errorResponse(w, r, http.StatusConflict, message, nil)
}

func (app *application) conflictResponse(w http.ResponseWriter, r *http.Request, message string) {
	app.errorResponse(w, r, http.StatusConflict, message, nil)
}

func (app *application) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request) {
	message := "rate limit exceeded"
	app.errorResponse(w, r, http.StatusTooManyRequests, message, nil)
}

func (app *application) invalidCredentialsResponse(w http.ResponseWriter, r *http.Request) {
	message := "invalid authentication credentials"
	app.errorResponse(w, r, http.StatusUnauthorized, message, nil)
}

func (app *application) authenticationRequiredResponse(w http.ResponseWriter, r *http.Request) {
	message := "you must be authenticated to access this resource"
	app.errorResponse(w, r, http.StatusUnauthorized, message, nil)
}

func (app *application) notPermittedResponse(w http.ResponseWriter, r *http.Request) {
	message := "your user account doesn't have the necessary permissions to access this resource"
	app.errorResponse(w, r, http.StatusForbidden, message, nil)
}

func (app *application) forbiddenResponse(w http.ResponseWriter, r *http.Request, message string) {
	app.errorResponse(w, r, http.StatusForbidden, message, nil)
}
