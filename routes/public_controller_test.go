package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/surveyard/surveyard/app"
	"github.com/surveyard/surveyard/config"
	"github.com/surveyard/surveyard/database"
	"github.com/surveyard/surveyard/httpx"
	"github.com/surveyard/surveyard/model"
	"github.com/surveyard/surveyard/storage"
	"github.com/surveyard/surveyard/survey"
)

func newTestApp(t *testing.T) app.App {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "test.sqlite"))
	if err != nil {
		t.Fatalf("database.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := config.Config{
		TokenSecret: "test-secret",
		TokenTTL:    time.Minute,
		PageSize:    2,
		ImagesDir:   t.TempDir(),
	}
	return app.App{
		DB:           db,
		BearerServer: httpx.NewBearerServer(db, cfg),
		Config:       cfg,
		Surveys: &survey.Service{
			DB:    db,
			Blobs: storage.NewFileStore(cfg.ImagesDir),
		},
	}
}

var seedSeq int

func seedSurvey(t *testing.T, a app.App, status bool, expire time.Time) *model.Survey {
	t.Helper()

	seedSeq++
	var userID int
	err := a.DB.QueryRow(
		"INSERT INTO user (name, email, password_hash) VALUES ('T', ?, 'x') RETURNING id",
		fmt.Sprintf("seed-%d@example.com", seedSeq),
	).Scan(&userID)
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}

	created, err := a.Surveys.Create(context.Background(), userID, survey.SurveyInput{
		Title:      "Public Survey",
		Status:     status,
		ExpireDate: expire,
		Questions: []survey.QuestionInput{
			{Question: "Your name?", Type: model.QuestionText},
		},
	})
	if err != nil {
		t.Fatalf("create survey: %v", err)
	}
	return created
}

func TestPublicGetSurveyBySlug(t *testing.T) {
	a := newTestApp(t)
	handler := Wire(a)
	future := time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC)

	active := seedSurvey(t, a, true, future)
	inactive := seedSurvey(t, a, false, future)
	expired := seedSurvey(t, a, true, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))

	get := func(slug string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/survey/get-by-slug/"+slug, nil)
		handler.ServeHTTP(rec, req)
		return rec
	}

	rec := get(active.Slug)
	if rec.Code != http.StatusOK {
		t.Fatalf("active survey: status = %d, want 200", rec.Code)
	}
	var body model.Survey
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if body.Slug != active.Slug || len(body.Questions) != 1 {
		t.Errorf("body = %+v, want slug %q with 1 question", body, active.Slug)
	}

	for _, tt := range []struct {
		name string
		slug string
	}{
		{"inactive survey", inactive.Slug},
		{"expired survey", expired.Slug},
		{"unknown slug", "does-not-exist"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(tt.slug)
			if rec.Code != http.StatusNotFound {
				t.Errorf("status = %d, want 404", rec.Code)
			}
			if rec.Body.Len() != 0 {
				t.Errorf("body = %q, want empty", rec.Body.String())
			}
		})
	}
}

func TestPublicSubmitAnswers(t *testing.T) {
	a := newTestApp(t)
	handler := Wire(a)
	created := seedSurvey(t, a, true, time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC))
	questionID := created.Questions[0].ID

	post := func(surveyID int, body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", fmt.Sprintf("/api/survey/%d/answer", surveyID), strings.NewReader(body))
		req.Header.Set("content-type", "application/json")
		handler.ServeHTTP(rec, req)
		return rec
	}

	rec := post(created.ID, fmt.Sprintf(`{"answers":{"%d":"Ada"}}`, questionID))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body %q", rec.Code, rec.Body.String())
	}
	if rec.Body.Len() != 0 {
		t.Errorf("body = %q, want empty", rec.Body.String())
	}

	rec = post(created.ID, `{"answers":{"999":"x"}}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `Invalid question ID: "999"`) {
		t.Errorf("body = %q, want the invalid id named", rec.Body.String())
	}

	rec = post(created.ID, `{"answers":{}}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("empty answers: status = %d, want 422", rec.Code)
	}

	rec = post(98765, fmt.Sprintf(`{"answers":{"%d":"x"}}`, questionID))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing survey: status = %d, want 404", rec.Code)
	}

	rec = post(created.ID, `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body: status = %d, want 400", rec.Code)
	}
}

func TestServeImages(t *testing.T) {
	a := newTestApp(t)
	handler := Wire(a)

	token, err := a.Surveys.Blobs.Put("png", []byte("not really a png"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	get := func(target string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", target, nil))
		return rec
	}

	rec := get("/" + token)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /%s: status = %d, want 200", token, rec.Code)
	}
	if rec.Body.String() != "not really a png" {
		t.Errorf("body = %q", rec.Body.String())
	}

	// the upload dir itself is not browsable
	for _, target := range []string{"/images", "/images/"} {
		rec := get(target)
		if rec.Code != http.StatusNotFound {
			t.Errorf("GET %s: status = %d, want 404", target, rec.Code)
		}
	}
}

func TestAuthenticatedRoutesRejectAnonymous(t *testing.T) {
	a := newTestApp(t)
	handler := Wire(a)

	for _, tt := range []struct {
		method, path string
	}{
		{"GET", "/api/survey"},
		{"POST", "/api/survey"},
		{"GET", "/api/survey/1"},
		{"PUT", "/api/survey/1"},
		{"DELETE", "/api/survey/1"},
		{"GET", "/api/me"},
	} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(tt.method, tt.path, strings.NewReader("{}"))
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: status = %d, want 401", tt.method, tt.path, rec.Code)
		}
	}
}
