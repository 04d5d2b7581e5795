package main

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/hilook/storefront-api/internal/data"
	"github.com/hilook/storefront-api/internal/s3"
	"github.com/hilook/storefront-api/internal/validator"
)

// ====================================================================================
// Backoffice Handlers
// ====================================================================================

func (app *application) listSubcategoriesHandler(w http.ResponseWriter, r *http.Request) {
	var pagination data.Pagination

	v := validator.New()

	qs := r.URL.Query()

	categoryID := app.readInt64(qs, "category_id", v)
	name := app.readString(qs, "name", "")
	pagination.Page = app.readInt(qs, "page", 1, v)
	pagination.PageSize = app.readInt(qs, "limit", 20, v)

	if data.ValidatePagination(v, pagination); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	subcategories, metadata, err := app.gorm.Subcategories.GetAll(categoryID, name, pagination)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	env := envelope{
		"items": subcategories,
		"total": metadata.TotalRecords,
		"page":  pagination.Page,
		"limit": pagination.PageSize,
	}

	err = app.writeJSON(w, http.StatusOK, "", env, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) showSubcategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	subcategory, err := app.gorm.Subcategories.Get(id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.recordNotFoundResponse(w, r, "Subcategory")
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, "", envelope{"item": subcategory}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) createSubcategoryHandler(w http.ResponseWriter, r *http.Request) {
	if err := app.parseForm(w, r); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	subcategory := &data.Subcategory{
		Name: strings.TrimSpace(r.FormValue("name")),
	}

	v := validator.New()

	if raw := r.FormValue("category_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		v.Check(err == nil, "category_id", "must be an integer value")
		subcategory.CategoryID = id
	}

	if data.ValidateSubcategory(v, subcategory); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	if !app.categoryExists(w, r, subcategory.CategoryID) {
		return
	}

	ref, err := app.uploadImage(r, "image", s3.SUBCATEGORY)
	if err != nil {
		app.uploadErrorResponse(w, r, err)
		return
	}

	subcategory.ImagePath = ref

	err = app.gorm.Subcategories.Insert(subcategory)
	if err != nil {
		app.removeUpload(ref)
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusCreated, "Subcategory created", envelope{"item": subcategory}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) updateSubcategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	subcategory, err := app.gorm.Subcategories.Get(id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.recordNotFoundResponse(w, r, "Subcategory")
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	if err := app.parseForm(w, r); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	v := validator.New()

	if name := strings.TrimSpace(r.FormValue("name")); name != "" {
		subcategory.Name = name
	}

	if raw := r.FormValue("category_id"); raw != "" {
		categoryID, err := strconv.ParseInt(raw, 10, 64)
		v.Check(err == nil, "category_id", "must be an integer value")
		subcategory.CategoryID = categoryID
	}

	if data.ValidateSubcategory(v, subcategory); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	if !app.categoryExists(w, r, subcategory.CategoryID) {
		return
	}

	oldImage := subcategory.ImagePath

	ref, err := app.uploadImage(r, "image", s3.SUBCATEGORY)
	if err != nil {
		app.uploadErrorResponse(w, r, err)
		return
	}

	if ref != "" {
		subcategory.ImagePath = ref
	}

	err = app.gorm.Subcategories.Update(subcategory)
	if err != nil {
		app.removeUpload(ref)
		app.serverErrorResponse(w, r, err)
		return
	}

	if ref != "" {
		app.removeUpload(oldImage)
	}

	err = app.writeJSON(w, http.StatusOK, "Subcategory updated", envelope{"item": subcategory}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) deleteSubcategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	subcategory, err := app.gorm.Subcategories.Get(id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.recordNotFoundResponse(w, r, "Subcategory")
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.gorm.Subcategories.Delete(id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.recordNotFoundResponse(w, r, "Subcategory")
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	app.removeUpload(subcategory.ImagePath)

	err = app.writeJSON(w, http.StatusOK, "Subcategory deleted", nil, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// categoryExists answers 400 and returns false when id names no category.
func (app *application) categoryExists(w http.ResponseWriter, r *http.Request, id int64) bool {
	_, err := app.gorm.Categories.Get(id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.failedValidationResponse(w, r, map[string]string{"category_id": "category does not exist"})
		default:
			app.serverErrorResponse(w, r, err)
		}
		return false
	}

	return true
}

// ====================================================================================
// Business Handlers
// ====================================================================================

func (app *application) getSubcategoriesHandler(w http.ResponseWriter, r *http.Request) {
	v := validator.New()

	categoryID := app.readInt64(r.URL.Query(), "category_id", v)

	if !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	subcategories, err := app.gorm.Subcategories.GetAPI(categoryID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	items := make([]data.StorefrontSubcategory, 0, len(subcategories))
	for _, s := range subcategories {
		items = append(items, app.storefront.Subcategory(s))
	}

	err = app.writeJSON(w, http.StatusOK, "", envelope{"subcategories": items}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
