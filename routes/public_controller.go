package routes

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/surveyard/surveyard/app"
	"github.com/surveyard/surveyard/httpx"
	"github.com/surveyard/surveyard/log"
	"github.com/surveyard/surveyard/survey"
)

// PublicGetSurveyBySlug serves a survey to respondents. Inactive or expired
// surveys 404 with an empty body, same as a slug that never existed.
func PublicGetSurveyBySlug(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")

		found, err := app.Surveys.GetBySlug(r.Context(), slug)
		if errors.Is(err, survey.ErrNotFound) {
			httpx.LogNotFound(w, "survey.get_by_slug", slug)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "survey.get_by_slug", err)
			return
		}

		render.JSON(w, r, found)
	}
}

type answerRequest struct {
	Answers map[string]json.RawMessage `json:"answers"`
}

func PublicSubmitAnswers(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyID, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		req := answerRequest{}
		err = render.DecodeJSON(r.Body, &req)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if len(req.Answers) == 0 {
			renderFieldErrors(w, r, []survey.FieldError{
				{Field: "answers", Message: "The answers field is required."},
			})
			return
		}

		err = app.Surveys.IngestAnswers(r.Context(), surveyID, req.Answers)
		var invalidQuestion *survey.InvalidQuestionError
		var invalidAnswer *survey.InvalidAnswerError
		switch {
		case errors.As(err, &invalidQuestion):
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "survey.answer.invalid_question", "%s", invalidQuestion.Error())
			return
		case errors.As(err, &invalidAnswer):
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "survey.answer.invalid_value", "%s", invalidAnswer.Error())
			return
		case errors.Is(err, survey.ErrNotFound):
			httpx.LogNotFound(w, "survey.answer", surveyID)
			return
		case err != nil:
			httpx.LogInternalError(w, "survey.answer", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
	}
}
