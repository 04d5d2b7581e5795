package main

import (
	"errors"
	"net/http"
	"strings"

	"github.com/hilook/storefront-api/internal/data"
	"github.com/hilook/storefront-api/internal/s3"
	"github.com/hilook/storefront-api/internal/validator"
)

// ====================================================================================
// Backoffice Handlers
// ====================================================================================

func (app *application) listCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	categories, err := app.gorm.Categories.GetAll()
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, "", envelope{"items": categories}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) showCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	category, err := app.gorm.Categories.Get(id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.recordNotFoundResponse(w, r, "Category")
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, "", envelope{"item": category}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) createCategoryHandler(w http.ResponseWriter, r *http.Request) {
	if err := app.parseForm(w, r); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))

	category := &data.Category{
		Name: name,
		Slug: slugify(name),
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

	// Validate with a placeholder so field errors come back before the upload.
	category.ImagePath = "pending"

	v := validator.New()

	if data.ValidateCategory(v, category); !v.Valid() {
		file.Close()
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	category.ImagePath, err = app.saveUpload(r.Context(), file, header, s3.CATEGORY)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.gorm.Categories.Insert(category)
	if err != nil {
		app.removeUpload(category.ImagePath)

		switch {
		case errors.Is(err, data.ErrDuplicateSlug):
			app.conflictResponse(w, r, "a category with this name already exists")
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusCreated, "Category created", envelope{"item": category}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) updateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	category, err := app.gorm.Categories.Get(id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.recordNotFoundResponse(w, r, "Category")
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	if err := app.parseForm(w, r); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if name := strings.TrimSpace(r.FormValue("name")); name != "" {
		category.Name = name
		category.Slug = slugify(name)
	}

	v := validator.New()

	if data.ValidateCategory(v, category); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	oldImage := category.ImagePath

	ref, err := app.uploadImage(r, "image", s3.CATEGORY)
	if err != nil {
		app.uploadErrorResponse(w, r, err)
		return
	}

	if ref != "" {
		category.ImagePath = ref
	}

	err = app.gorm.Categories.Update(category)
	if err != nil {
		app.removeUpload(ref)

		switch {
		case errors.Is(err, data.ErrDuplicateSlug):
			app.conflictResponse(w, r, "a category with this name already exists")
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	if ref != "" {
		app.removeUpload(oldImage)
	}

	err = app.writeJSON(w, http.StatusOK, "Category updated", envelope{"item": category}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) deleteCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	category, err := app.gorm.Categories.Get(id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.recordNotFoundResponse(w, r, "Category")
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.gorm.Categories.Delete(id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.recordNotFoundResponse(w, r, "Category")
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	app.removeUpload(category.ImagePath)

	err = app.writeJSON(w, http.StatusOK, "Category deleted", nil, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// ====================================================================================
// Business Handlers
// ====================================================================================

func (app *application) getCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	categories, err := app.gorm.Categories.GetAll()
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	items := make([]data.StorefrontCategory, 0, len(categories))
	for _, c := range categories {
		items = append(items, app.storefront.Category(c))
	}

	err = app.writeJSON(w, http.StatusOK, "", envelope{"categories": items}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
