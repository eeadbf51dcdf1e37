package routes

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/surveyard/surveyard/app"
	"github.com/surveyard/surveyard/httpx"
	"github.com/surveyard/surveyard/log"
	"github.com/surveyard/surveyard/model"
	"github.com/surveyard/surveyard/routes/middlewares"
	"github.com/surveyard/surveyard/survey"
)

var validate = validator.New()

type surveyRequest struct {
	Title       string            `json:"title" validate:"required,max=1000"`
	Description string            `json:"description"`
	ExpireDate  string            `json:"expire_date" validate:"required"`
	Status      bool              `json:"status"`
	Image       string            `json:"image"`
	Questions   []questionRequest `json:"questions"`
}

type questionRequest struct {
	ID          json.RawMessage `json:"id"`
	Question    string          `json:"question"`
	Type        string          `json:"type"`
	Description string          `json:"description"`
	Data        json.RawMessage `json:"data"`
}

func (req surveyRequest) toInput() (in survey.SurveyInput, errs []survey.FieldError) {
	expireDate, err := parseDate(req.ExpireDate)
	if err != nil {
		errs = append(errs, survey.FieldError{Field: "expire_date", Message: "The expire date is not a valid date."})
	}

	in = survey.SurveyInput{
		Title:       req.Title,
		Description: req.Description,
		ExpireDate:  expireDate,
		Status:      req.Status,
		Image:       req.Image,
		Questions:   make([]survey.QuestionInput, len(req.Questions)),
	}
	for i, q := range req.Questions {
		in.Questions[i] = survey.QuestionInput{
			ID:          questionID(q.ID),
			Question:    q.Question,
			Type:        model.QuestionType(q.Type),
			Description: q.Description,
			Data:        q.Data,
		}
	}
	return in, errs
}

func parseDate(value string) (time.Time, error) {
	date, err := time.Parse("2006-01-02", value)
	if err != nil {
		date, err = time.Parse(time.RFC3339, value)
	}
	return date, err
}

// questionID normalizes a submitted question id to its text form. Clients may
// send persisted numeric ids, temporary string ids, or nothing at all.
func questionID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var value any
	err := json.Unmarshal(raw, &value)
	if err != nil {
		return strings.TrimSpace(string(raw))
	}

	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		if v == math.Trunc(v) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return strings.TrimSpace(string(raw))
	}
}

func decodeSurveyRequest(w http.ResponseWriter, r *http.Request) (in survey.SurveyInput, ok bool) {
	req := surveyRequest{}
	err := render.DecodeJSON(r.Body, &req)
	if err != nil {
		httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
		return in, false
	}

	err = validate.Struct(req)
	if err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			httpx.LogInternalError(w, "request.validate", err)
			return in, false
		}

		fields := make([]survey.FieldError, len(verrs))
		for i, fe := range verrs {
			fields[i] = survey.FieldError{
				Field:   strings.ToLower(fe.Field()),
				Message: requestFieldMessage(fe),
			}
		}
		renderFieldErrors(w, r, fields)
		return in, false
	}

	in, fields := req.toInput()
	if len(fields) > 0 {
		renderFieldErrors(w, r, fields)
		return in, false
	}
	return in, true
}

func requestFieldMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return "The " + field + " field is required."
	case "max":
		return "The " + field + " field is too long."
	default:
		return "The " + field + " field is invalid."
	}
}

func renderFieldErrors(w http.ResponseWriter, r *http.Request, fields []survey.FieldError) {
	errs := map[string][]string{}
	for _, fe := range fields {
		errs[fe.Field] = append(errs[fe.Field], fe.Message)
	}

	render.Status(r, http.StatusUnprocessableEntity)
	render.JSON(w, r, map[string]any{
		"message": fields[0].Message,
		"errors":  errs,
	})
}

// writeSurveyError maps service failures onto the HTTP error taxonomy.
func writeSurveyError(w http.ResponseWriter, r *http.Request, code string, id any, err error) {
	if fields := survey.FieldErrors(err); fields != nil {
		renderFieldErrors(w, r, fields)
		return
	}
	switch {
	case errors.Is(err, survey.ErrForbidden):
		httpx.LogStatus(w, http.StatusForbidden, log.DebugLevel, code+".forbidden")
	case errors.Is(err, survey.ErrNotFound):
		httpx.LogNotFound(w, code, id)
	default:
		httpx.LogInternalError(w, code, err)
	}
}

func ListSurveys(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page < 1 {
			page = 1
		}

		userID := middlewares.UserID(r.Context())
		surveys, total, err := app.Surveys.List(r.Context(), userID, page, app.PageSize)
		if err != nil {
			httpx.LogInternalError(w, "db.list_surveys", err)
			return
		}

		lastPage := (total + app.PageSize - 1) / app.PageSize
		if lastPage < 1 {
			lastPage = 1
		}
		render.JSON(w, r, map[string]any{
			"data": surveys,
			"meta": map[string]any{
				"page":      page,
				"page_size": app.PageSize,
				"total":     total,
				"last_page": lastPage,
			},
		})
	}
}

func CreateSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, ok := decodeSurveyRequest(w, r)
		if !ok {
			return
		}

		created, err := app.Surveys.Create(r.Context(), middlewares.UserID(r.Context()), in)
		if err != nil {
			writeSurveyError(w, r, "survey.create", nil, err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, created)
	}
}

func GetSurveyByID(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyID, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		found, err := app.Surveys.GetOwned(r.Context(), surveyID, middlewares.UserID(r.Context()))
		if err != nil {
			writeSurveyError(w, r, "survey.get", surveyID, err)
			return
		}

		render.JSON(w, r, found)
	}
}

func UpdateSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyID, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		in, ok := decodeSurveyRequest(w, r)
		if !ok {
			return
		}

		updated, err := app.Surveys.Update(r.Context(), surveyID, middlewares.UserID(r.Context()), in)
		if err != nil {
			writeSurveyError(w, r, "survey.update", surveyID, err)
			return
		}

		render.JSON(w, r, updated)
	}
}

func DeleteSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyID, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		err = app.Surveys.Delete(r.Context(), surveyID, middlewares.UserID(r.Context()))
		if err != nil {
			writeSurveyError(w, r, "survey.delete", surveyID, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
