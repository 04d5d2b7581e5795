package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/hilook/storefront-api/internal/metrics"
	"github.com/hilook/storefront-api/internal/push"
	"github.com/hilook/storefront-api/internal/validator"
)

// notifyAll sends msg to every subscribed device in the background. Failures
// are logged only.
func (app *application) notifyAll(msg push.Message) {
	if !app.push.Enabled() {
		return
	}

	app.background(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		id, err := app.push.SendToTopic(ctx, push.TopicAll, msg)
		if err != nil {
			metrics.PushNotificationsTotal.WithLabelValues("error").Inc()
			app.logger.Warn("send push notification", zap.Error(err), zap.String("title", msg.Title))
			return
		}

		metrics.PushNotificationsTotal.WithLabelValues("ok").Inc()
		app.logger.Info("push notification sent", zap.String("message_id", id))
	})
}

func (app *application) registerPushTokenHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Token string `json:"token"`
	}

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	v := validator.New()

	v.Check(input.Token != "", "token", "must be provided")
	v.Check(len(input.Token) <= 4096, "token", "must not be more than 4096 bytes long")

	if !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	err = app.push.Subscribe(r.Context(), input.Token, push.TopicAll)
	if err != nil {
		switch {
		case errors.Is(err, push.ErrDisabled):
			app.errorResponse(w, r, http.StatusServiceUnavailable, err.Error(), nil)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, "Token registered", nil, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) sendPushHandler(w http.ResponseWriter, r *http.Request) {
	var input push.Message

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	v := validator.New()

	v.Check(input.Title != "", "title", "must be provided")
	v.Check(input.Body != "", "body", "must be provided")

	if !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	id, err := app.push.SendToTopic(r.Context(), push.TopicAll, input)
	if err != nil {
		metrics.PushNotificationsTotal.WithLabelValues("error").Inc()

		switch {
		case errors.Is(err, push.ErrDisabled):
			app.errorResponse(w, r, http.StatusServiceUnavailable, err.Error(), nil)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	metrics.PushNotificationsTotal.WithLabelValues("ok").Inc()

	err = app.writeJSON(w, http.StatusOK, "Notification sent", envelope{"message_id": id}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
