package main

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/hilook/storefront-api/internal/auth"
	"github.com/hilook/storefront-api/internal/data"
	"github.com/hilook/storefront-api/internal/validator"
)

// ====================================================================================
// Admin
// ====================================================================================

func (app *application) adminLoginHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	v := validator.New()

	v.Check(input.Username != "", "username", "must be provided")
	v.Check(input.Password != "", "password", "must be provided")

	if !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	ok, err := app.checkAdminCredentials(input.Username, input.Password)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	if !ok {
		app.invalidCredentialsResponse(w, r)
		return
	}

	token, err := app.tokens.Issue(auth.Claims{Username: input.Username, Role: data.RoleAdmin}, app.config.jwt.adminTTL)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	env := envelope{
		"token": token,
		"user":  envelope{"username": input.Username, "role": data.RoleAdmin},
	}

	err = app.writeJSON(w, http.StatusOK, "Login successful", env, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// checkAdminCredentials compares against the saved admin account, or against
// the configured defaults until one has been saved.
func (app *application) checkAdminCredentials(username, password string) (bool, error) {
	admin, err := app.models.Admins.Get()
	if err != nil {
		if !errors.Is(err, data.ErrRecordNotFound) {
			return false, err
		}

		if app.config.admin.password == "" {
			return false, nil
		}

		userOK := subtle.ConstantTimeCompare([]byte(username), []byte(app.config.admin.username)) == 1
		passOK := subtle.ConstantTimeCompare([]byte(password), []byte(app.config.admin.password)) == 1

		return userOK && passOK, nil
	}

	if admin.Username != username {
		return false, nil
	}

	return admin.Password.Matches(password)
}

func (app *application) adminUpdateHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	admin, err := app.models.Admins.Get()
	if err != nil {
		if !errors.Is(err, data.ErrRecordNotFound) {
			app.serverErrorResponse(w, r, err)
			return
		}
		admin = &data.Admin{}
	}

	admin.Username = strings.TrimSpace(input.Username)

	v := validator.New()

	v.Check(input.Password != "", "password", "must be provided")
	v.Check(len(input.Password) <= 72, "password", "must not be more than 72 bytes long")

	if data.ValidateAdmin(v, admin); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	err = admin.Password.Set(input.Password)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.models.Admins.Save(admin)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, "Admin updated", envelope{"user": admin}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// ====================================================================================
// Users
// ====================================================================================

func (app *application) registerUserHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name     string `json:"name"`
		Phone    string `json:"phone"`
		Password string `json:"password"`
	}

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	permission, err := app.gorm.Permissions.Get()
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	if !permission.IsRegister {
		app.forbiddenResponse(w, r, "registration is currently disabled")
		return
	}

	user := &data.User{
		Name:  strings.TrimSpace(input.Name),
		Phone: strings.TrimSpace(input.Phone),
		Role:  data.RoleUser,
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

	app.respondWithUserToken(w, r, http.StatusCreated, "User registered", user)
}

func (app *application) loginUserHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Phone    string `json:"phone"`
		Password string `json:"password"`
	}

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	v := validator.New()

	v.Check(input.Phone != "", "phone", "must be provided")
	v.Check(input.Password != "", "password", "must be provided")

	if !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	user, err := app.models.Users.GetByPhone(strings.TrimSpace(input.Phone))
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.invalidCredentialsResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	match, err := user.Password.Matches(input.Password)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	if !match {
		app.invalidCredentialsResponse(w, r)
		return
	}

	app.respondWithUserToken(w, r, http.StatusOK, "Login successful", user)
}

func (app *application) respondWithUserToken(w http.ResponseWriter, r *http.Request, status int, message string, user *data.User) {
	claims := auth.Claims{
		UserID:       user.ID,
		Name:         user.Name,
		Phone:        user.Phone,
		IsWholesaler: user.IsWholesaler,
		Role:         data.RoleUser,
	}

	token, err := app.tokens.Issue(claims, app.config.jwt.ttl)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, status, message, envelope{"user": user, "token": token}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) showProfileHandler(w http.ResponseWriter, r *http.Request) {
	user, err := app.models.Users.Get(app.contextGetUser(r).ID)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.recordNotFoundResponse(w, r, "User")
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, "", envelope{"user": user}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
