package routes

import (
	"database/sql"
	"errors"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"

	"github.com/surveyard/surveyard/app"
	"github.com/surveyard/surveyard/httpx"
	"github.com/surveyard/surveyard/log"
	"github.com/surveyard/surveyard/model"
	"github.com/surveyard/surveyard/routes/middlewares"
	"github.com/surveyard/surveyard/survey"
)

type signupRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func Signup(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := signupRequest{}
		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		err = validate.Struct(req)
		if err != nil {
			var verrs validator.ValidationErrors
			if !errors.As(err, &verrs) {
				httpx.LogInternalError(w, "request.validate", err)
				return
			}
			fields := make([]survey.FieldError, len(verrs))
			for i, fe := range verrs {
				fields[i] = survey.FieldError{
					Field:   strings.ToLower(fe.Field()),
					Message: requestFieldMessage(fe),
				}
			}
			renderFieldErrors(w, r, fields)
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			httpx.LogInternalError(w, "signup.hash", err)
			return
		}

		var userID int
		err = app.QueryRowContext(r.Context(), `
			INSERT INTO user (name, email, password_hash) VALUES (?, ?, ?)
			RETURNING id`,
			req.Name, req.Email, string(hash),
		).Scan(&userID)
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			renderFieldErrors(w, r, []survey.FieldError{
				{Field: "email", Message: "The email is already taken."},
			})
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.insert_user", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, model.User{ID: userID, Name: req.Name, Email: req.Email})
	}
}

func Me(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middlewares.UserID(r.Context())

		user := model.User{}
		err := app.QueryRowContext(r.Context(),
			"SELECT id, name, email FROM user WHERE id = ?", userID,
		).Scan(&user.ID, &user.Name, &user.Email)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, "me", userID)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_user", err)
			return
		}

		render.JSON(w, r, user)
	}
}

func Login(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email, pass, ok := r.BasicAuth()
		if !ok {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "login.basic_auth")
			return
		}

		body := url.Values{
			"grant_type": {"password"},
			"username":   {email},
			"password":   {pass},
		}
		r.Body = io.NopCloser(strings.NewReader(body.Encode()))
		r.Header.Set("content-type", "application/x-www-form-urlencoded")
		r.Header.Set("content-length", strconv.Itoa(len(body.Encode())))
		app.UserCredentials(w, r)
	}
}

func Refresh(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("authorization")
		match := regexp.MustCompile(`(?i)^refresh\s+(.*)`).FindStringSubmatch(auth)
		if len(match) == 0 {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "refresh.token")
			return
		}
		token := match[1]

		body := url.Values{
			"grant_type":    {"refresh_token"},
			"refresh_token": {token},
		}

		req, err := http.NewRequest("POST", "/", strings.NewReader(body.Encode()))
		if err != nil {
			httpx.LogStatus(w, http.StatusInternalServerError, log.DebugLevel, "refresh.new_request")
			return
		}
		req.Header.Set("content-type", "application/x-www-form-urlencoded")
		req.Header.Set("content-length", strconv.Itoa(len(body.Encode())))

		resp := httpx.NewResponseBuffer()
		app.UserCredentials(resp, req)
		resp.Flush(w)
	}
}
