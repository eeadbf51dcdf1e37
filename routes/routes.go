package routes

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/surveyard/surveyard/app"
	"github.com/surveyard/surveyard/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.Logger, middleware.Recoverer)

	root.Mount("/api", apiRouter(app))
	root.Mount("/images", serveImages("/images", app.ImagesDir))

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	// public survey surface
	api.Get("/survey/get-by-slug/{slug}", PublicGetSurveyBySlug(app))
	api.Post(`/survey/{id:^\d+$}/answer`, PublicSubmitAnswers(app))

	// owner-only survey surface
	api.Group(func(r chi.Router) {
		r.Use(middlewares.Authenticated(app.TokenSecret))

		r.Get("/survey", ListSurveys(app))
		r.Post("/survey", CreateSurvey(app))
		r.Get(`/survey/{id:^\d+$}`, GetSurveyByID(app))
		r.Put(`/survey/{id:^\d+$}`, UpdateSurvey(app))
		r.Patch(`/survey/{id:^\d+$}`, UpdateSurvey(app))
		r.Delete(`/survey/{id:^\d+$}`, DeleteSurvey(app))

		r.Get("/me", Me(app))
	})

	api.Post("/signup", Signup(app))
	api.Post("/login", Login(app))
	api.Post("/refresh", Refresh(app))

	return api
}

// serveImages hands out uploaded image files. Directory requests 404 instead
// of listing the upload dir.
func serveImages(path, dir string) http.Handler {
	files := http.StripPrefix(path, http.FileServer(http.Dir(dir)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, path)
		if name == "" || strings.HasSuffix(name, "/") {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}
