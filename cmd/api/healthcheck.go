package main

import (
	"context"
	"net/http"
	"time"
)

func (app *application) healthcheckHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	state := "available"

	if _, err := app.db.ExecContext(ctx, "SELECT 1"); err != nil {
		app.logError(r, err)
		status = http.StatusServiceUnavailable
		state = "unavailable"
	}

	if app.redis != nil {
		if err := app.redis.Ping(ctx); err != nil {
			app.logError(r, err)
			status = http.StatusServiceUnavailable
			state = "unavailable"
		}
	}

	env := envelope{
		"status":      state,
		"environment": app.config.env,
		"version":     version,
	}

	err := app.writeJSON(w, status, "", env, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
