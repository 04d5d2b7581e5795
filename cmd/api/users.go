package main

import (
	"errors"
	"net/http"
	"strings"

	"github.com/hilook/storefront-api/internal/data"
	"github.com/hilook/storefront-api/internal/validator"
)

// ====================================================================================
// Backoffice Handlers
// ====================================================================================

func (app *application) listUsersHandler(w http.ResponseWriter, r *http.Request) {
	var filters data.Filters

	v := validator.New()

	qs := r.URL.Query()

	search := app.readString(qs, "search", "")
	wholesalerOnly := app.readString(qs, "wholesaler", "") == "true"

	filters.Page = app.readInt(qs, "page", 1, v)
	filters.PageSize = app.readInt(qs, "limit", 20, v)
	filters.Sort = app.readString(qs, "sort", "-id")
	filters.SortSafeList = []string{"id", "name", "phone", "created_at", "-id", "-name", "-phone", "-created_at"}

	if data.ValidateFilters(v, filters); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	users, metadata, err := app.models.Users.GetAll(search, wholesalerOnly, filters)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, "", envelope{"users": users, "pagination": metadata}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) createUserHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name         string `json:"name"`
		Phone        string `json:"phone"`
		Password     string `json:"password"`
		IsWholesaler bool   `json:"is_wholesaler"`
	}

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user := &data.User{
		Name:         strings.TrimSpace(input.Name),
		Phone:        strings.TrimSpace(input.Phone),
		IsWholesaler: input.IsWholesaler,
	}

	v := validator.New()

	if data.ValidatePasswordPlaintext(v, input.Password); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	err = user.Password.Set(input.Password)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	if data.ValidateUser(v, user); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	err = app.models.Users.Insert(user)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrDuplicatePhone):
			app.conflictResponse(w, r, "a user with this phone number already exists")
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusCreated, "User created", envelope{"user": user}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) updateUserHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	user, err := app.models.Users.Get(id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.recordNotFoundResponse(w, r, "User")
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	var input struct {
		Name         *string `json:"name"`
		Phone        *string `json:"phone"`
		Password     *string `json:"password"`
		IsWholesaler *bool   `json:"is_wholesaler"`
	}

	err = app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if input.Name != nil {
		user.Name = strings.TrimSpace(*input.Name)
	}
	if input.Phone != nil {
		user.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.IsWholesaler != nil {
		user.IsWholesaler = *input.IsWholesaler
	}

	v := validator.New()

	if input.Password != nil {
		if data.ValidatePasswordPlaintext(v, *input.Password); !v.Valid() {
			app.failedValidationResponse(w, r, v.Errors)
			return
		}

		err = user.Password.Set(*input.Password)
		if err != nil {
			app.serverErrorResponse(w, r, err)
			return
		}
	}

	if data.ValidateUser(v, user); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	app.saveUser(w, r, user, "User updated")
}

// toggleWholesalerHandler flips is_wholesaler, or sets it when the body names
// a value.
func (app *application) toggleWholesalerHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	user, err := app.models.Users.Get(id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.recordNotFoundResponse(w, r, "User")
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	var input struct {
		IsWholesaler *bool `json:"is_wholesaler"`
	}

	if r.ContentLength != 0 {
		err = app.readJSON(w, r, &input)
		if err != nil {
			app.badRequestResponse(w, r, err)
			return
		}
	}

	if input.IsWholesaler != nil {
		user.IsWholesaler = *input.IsWholesaler
	} else {
		user.IsWholesaler = !user.IsWholesaler
	}

	app.saveUser(w, r, user, "Wholesaler status updated")
}

func (app *application) saveUser(w http.ResponseWriter, r *http.Request, user *data.User, message string) {
	err := app.models.Users.Update(user)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrDuplicatePhone):
			app.conflictResponse(w, r, "a user with this phone number already exists")
		case errors.Is(err, data.ErrEditConflict):
			app.editConflictResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, message, envelope{"user": user}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) deleteUserHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	err = app.models.Users.Delete(id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.recordNotFoundResponse(w, r, "User")
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
