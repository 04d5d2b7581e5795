package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/hilook/storefront-api/internal/data"
	"github.com/hilook/storefront-api/internal/metrics"
	"github.com/hilook/storefront-api/internal/push"
	"github.com/hilook/storefront-api/internal/s3"
	"github.com/hilook/storefront-api/internal/validator"
)

// ====================================================================================
// Backoffice Handlers
// ====================================================================================

func (app *application) listBannersHandler(w http.ResponseWriter, r *http.Request) {
	banners, err := app.models.Banners.GetAll(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, "", envelope{"items": banners}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) suggestBannerPriorityHandler(w http.ResponseWriter, r *http.Request) {
	next, err := app.models.Banners.NextPriority(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, "", envelope{"next": next}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// createBannerHandler stores the uploaded image and inserts the banner. A
// missing or non-positive priority appends the banner at the end.
func (app *application) createBannerHandler(w http.ResponseWriter, r *http.Request) {
	if err := app.parseForm(w, r); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	file, header, err := app.readImage(r, "image")
	if err != nil {
		app.uploadErrorResponse(w, r, err)
		return
	}

	if file == nil {
		app.fileNotFoundResponse(w, r, "image")
		return
	}

	requested, _ := parsePriority(r.FormValue("priority"))

	ref, err := app.saveUpload(r.Context(), file, header, s3.BANNER)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	banner := &data.Banner{ImageReference: ref}

	v := validator.New()

	if data.ValidateBanner(v, banner); !v.Valid() {
		app.removeUpload(ref)
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	err = app.models.Banners.Insert(r.Context(), banner, requested)
	if err != nil {
		metrics.BannerOperationsTotal.WithLabelValues("insert", "error").Inc()
		app.removeUpload(ref)
		app.serverErrorResponse(w, r, err)
		return
	}

	metrics.BannerOperationsTotal.WithLabelValues("insert", "ok").Inc()

	app.notifyAll(push.Message{
		Title: "New offer",
		Body:  "Check out the latest banner in the app",
		Image: data.VersionedURL(app.storefront.BaseURL, banner.ImageReference, banner.UpdatedAt),
		Data:  map[string]string{"type": "banner_created", "banner_id": strconv.FormatInt(banner.ID, 10)},
	})

	err = app.writeJSON(w, http.StatusCreated, "Banner created", envelope{"item": banner}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// updateBannerHandler accepts an optional new image and an optional priority.
// Both changes are applied in one transaction.
func (app *application) updateBannerHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.parseForm(w, r); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var update data.BannerUpdate

	if raw := r.FormValue("priority"); raw != "" {
		p, ok := parsePriority(raw)
		if !ok {
			app.failedValidationResponse(w, r, map[string]string{"priority": data.ErrInvalidPriority.Error()})
			return
		}
		update.Priority = &p
	}

	existing, err := app.models.Banners.Get(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.recordNotFoundResponse(w, r, "Banner")
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	ref, err := app.uploadImage(r, "image", s3.BANNER)
	if err != nil {
		app.uploadErrorResponse(w, r, err)
		return
	}

	if ref != "" {
		update.ImageReference = &ref
	}

	op := "move"
	if update.Priority == nil {
		op = "image"
	}

	banner, changed, err := app.models.Banners.Update(r.Context(), id, update)
	if err != nil {
		app.removeUpload(ref)

		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			metrics.BannerOperationsTotal.WithLabelValues(op, "not_found").Inc()
			app.recordNotFoundResponse(w, r, "Banner")
		case errors.Is(err, data.ErrInvalidPriority):
			app.failedValidationResponse(w, r, map[string]string{"priority": err.Error()})
		default:
			metrics.BannerOperationsTotal.WithLabelValues(op, "error").Inc()
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	if !changed {
		app.removeUpload(ref)

		err = app.writeJSON(w, http.StatusOK, "No changes", nil, nil)
		if err != nil {
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	metrics.BannerOperationsTotal.WithLabelValues(op, "ok").Inc()

	if ref != "" && existing.ImageReference != ref {
		app.removeUpload(existing.ImageReference)
	}

	err = app.writeJSON(w, http.StatusOK, "Banner updated", envelope{"item": banner}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) deleteBannerHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	banner, err := app.models.Banners.Delete(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			metrics.BannerOperationsTotal.WithLabelValues("delete", "not_found").Inc()
			app.recordNotFoundResponse(w, r, "Banner")
		default:
			metrics.BannerOperationsTotal.WithLabelValues("delete", "error").Inc()
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	metrics.BannerOperationsTotal.WithLabelValues("delete", "ok").Inc()

	app.removeUpload(banner.ImageReference)

	err = app.writeJSON(w, http.StatusOK, "Banner deleted", nil, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// ====================================================================================
// Business Handlers
// ====================================================================================

func (app *application) getBannersHandler(w http.ResponseWriter, r *http.Request) {
	banners, err := app.models.Banners.GetAll(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	items := make([]data.StorefrontBanner, 0, len(banners))
	for _, b := range banners {
		items = append(items, app.storefront.Banner(b))
	}

	err = app.writeJSON(w, http.StatusOK, "", envelope{"banners": items}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
