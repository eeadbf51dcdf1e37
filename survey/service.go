package survey

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/surveyard/surveyard/log"
	"github.com/surveyard/surveyard/model"
	"github.com/surveyard/surveyard/storage"
)

// Service owns the survey record lifecycle: create, update with question
// reconciliation, delete with explicit cascade, and the public slug gate.
type Service struct {
	DB    *sql.DB
	Blobs storage.Store
}

// SurveyInput carries the decoded fields of a create or update request.
// Image is an optional data URI; empty means "no new image".
type SurveyInput struct {
	Title       string
	Description string
	ExpireDate  time.Time
	Status      bool
	Image       string
	Questions   []QuestionInput
}

type validQuestion struct {
	QuestionInput
	data string
}

// validate checks every submitted question and the optional image up front,
// so a failing request mutates nothing.
func (in SurveyInput) validate() (questions []validQuestion, ext string, img []byte, err error) {
	var merr *multierror.Error

	questions = make([]validQuestion, 0, len(in.Questions))
	for i, q := range in.Questions {
		data, qerr := ValidateQuestion(q)
		if qerr != nil {
			merr = multierror.Append(merr, prefixFields(qerr, fmt.Sprintf("questions.%d.", i)))
			continue
		}
		questions = append(questions, validQuestion{q, data})
	}

	if in.Image != "" {
		var derr error
		ext, img, derr = storage.DecodeImageDataURI(in.Image)
		switch {
		case errors.Is(derr, storage.ErrInvalidImageType):
			merr = multierror.Append(merr, FieldError{"image", "The image must be a jpg, jpeg, gif or png."})
		case derr != nil:
			merr = multierror.Append(merr, FieldError{"image", "The image must be a base64 image data URI."})
		}
	}

	return questions, ext, img, merr.ErrorOrNil()
}

// Create persists a new survey owned by userID, generating its slug from the
// title. All submitted questions become inserts.
func (s *Service) Create(ctx context.Context, userID int, in SurveyInput) (*model.Survey, error) {
	questions, ext, img, err := in.validate()
	if err != nil {
		return nil, err
	}

	var image string
	if img != nil {
		image, err = s.Blobs.Put(ext, img)
		if err != nil {
			return nil, err
		}
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	slug, err := uniqueSlug(ctx, tx, in.Title)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var surveyID int
	err = tx.QueryRowContext(ctx, `
		INSERT INTO survey (user_id, title, slug, status, description, image, expire_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		userID, in.Title, slug, in.Status, in.Description, image, in.ExpireDate, now, now,
	).Scan(&surveyID)
	if err != nil {
		return nil, err
	}

	err = insertQuestions(ctx, tx, surveyID, questions)
	if err != nil {
		return nil, err
	}

	err = tx.Commit()
	if err != nil {
		return nil, err
	}

	return s.GetByID(ctx, surveyID)
}

// Update overwrites the survey's scalar fields (never the slug) and reconciles
// its question set against the submitted list in one transaction. Fails with
// ErrForbidden unless callerID owns the survey.
func (s *Service) Update(ctx context.Context, surveyID, callerID int, in SurveyInput) (*model.Survey, error) {
	var ownerID int
	var oldImage string
	err := s.DB.QueryRowContext(ctx,
		"SELECT user_id, image FROM survey WHERE id = ?", surveyID,
	).Scan(&ownerID, &oldImage)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if ownerID != callerID {
		return nil, ErrForbidden
	}

	questions, ext, img, err := in.validate()
	if err != nil {
		return nil, err
	}

	image := oldImage
	if img != nil {
		image, err = s.Blobs.Put(ext, img)
		if err != nil {
			return nil, err
		}
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		UPDATE survey
		SET title = ?, status = ?, description = ?, image = ?, expire_date = ?, updated_at = ?
		WHERE id = ?`,
		in.Title, in.Status, in.Description, image, in.ExpireDate, time.Now(), surveyID,
	)
	if err != nil {
		return nil, err
	}

	existing, err := questionIDs(ctx, tx, surveyID)
	if err != nil {
		return nil, err
	}

	plan := Reconcile(existing, inputs(questions))

	// deletions first, then inserts, then in-place overwrites
	err = deleteQuestions(ctx, tx, surveyID, plan.Delete)
	if err != nil {
		return nil, err
	}

	add, update := splitPlan(questions, plan)
	err = insertQuestions(ctx, tx, surveyID, add)
	if err != nil {
		return nil, err
	}

	stmt, err := tx.PrepareContext(ctx, `
		UPDATE survey_question
		SET type = ?, question = ?, description = ?, data = ?
		WHERE id = ? AND survey_id = ?`)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	for _, q := range update {
		_, err = stmt.ExecContext(ctx, q.Type, q.Question, q.Description, q.data, q.ID, surveyID)
		if err != nil {
			return nil, err
		}
	}

	err = tx.Commit()
	if err != nil {
		return nil, err
	}

	if img != nil && oldImage != "" {
		err = s.Blobs.Delete(oldImage)
		if err != nil {
			log.Warnf("survey.update.delete_old_image: %s", err)
		}
	}

	return s.GetByID(ctx, surveyID)
}

// Delete removes the survey and cascades explicitly to its questions,
// response sessions and answers. The image blob delete is best-effort.
func (s *Service) Delete(ctx context.Context, surveyID, callerID int) error {
	var ownerID int
	var image string
	err := s.DB.QueryRowContext(ctx,
		"SELECT user_id, image FROM survey WHERE id = ?", surveyID,
	).Scan(&ownerID, &image)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if ownerID != callerID {
		return ErrForbidden
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, q := range []string{
		`DELETE FROM survey_question_answer
		 WHERE survey_question_id IN (SELECT id FROM survey_question WHERE survey_id = ?)`,
		"DELETE FROM survey_answer WHERE survey_id = ?",
		"DELETE FROM survey_question WHERE survey_id = ?",
		"DELETE FROM survey WHERE id = ?",
	} {
		_, err = tx.ExecContext(ctx, q, surveyID)
		if err != nil {
			return err
		}
	}

	err = tx.Commit()
	if err != nil {
		return err
	}

	if image != "" {
		err = s.Blobs.Delete(image)
		if err != nil {
			log.Warnf("survey.delete.delete_image: %s", err)
		}
	}
	return nil
}

// GetByID fetches one survey with its questions, without ownership checks.
func (s *Service) GetByID(ctx context.Context, surveyID int) (*model.Survey, error) {
	return s.fetch(ctx, "id = ?", surveyID)
}

// GetOwned fetches one survey for its owner. ErrForbidden on anyone else.
func (s *Service) GetOwned(ctx context.Context, surveyID, callerID int) (*model.Survey, error) {
	survey, err := s.GetByID(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	if survey.UserID != callerID {
		return nil, ErrForbidden
	}
	return survey, nil
}

// GetBySlug fetches a survey for public consumption. Inactive or expired
// surveys report ErrNotFound, indistinguishable from a missing record.
func (s *Service) GetBySlug(ctx context.Context, slug string) (*model.Survey, error) {
	survey, err := s.fetch(ctx, "slug = ?", slug)
	if err != nil {
		return nil, err
	}
	if !survey.Status || time.Now().After(survey.ExpireDate) {
		return nil, ErrNotFound
	}
	return survey, nil
}

// List returns one page of the user's surveys, newest first, without their
// question lists, plus the total survey count for pagination.
func (s *Service) List(ctx context.Context, userID, page, pageSize int) ([]model.Survey, int, error) {
	var total int
	err := s.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM survey WHERE user_id = ?", userID,
	).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, user_id, title, slug, status, description, image, expire_date, created_at, updated_at
		FROM survey
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`,
		userID, pageSize, (page-1)*pageSize,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	surveys := []model.Survey{}
	for rows.Next() {
		survey, err := scanSurvey(rows)
		if err != nil {
			return nil, 0, err
		}
		surveys = append(surveys, *survey)
	}
	return surveys, total, rows.Err()
}

func (s *Service) fetch(ctx context.Context, where string, arg any) (*model.Survey, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT id, user_id, title, slug, status, description, image, expire_date, created_at, updated_at
		FROM survey
		WHERE `+where,
		arg,
	)
	survey, err := scanSurvey(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, survey_id, type, question, description, data
		FROM survey_question
		WHERE survey_id = ?
		ORDER BY id`,
		survey.ID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	survey.Questions = []model.Question{}
	for rows.Next() {
		q := model.Question{}
		var data string
		err = rows.Scan(&q.ID, &q.SurveyID, &q.Type, &q.Question, &q.Description, &data)
		if err != nil {
			return nil, err
		}
		if data != "" {
			err = json.Unmarshal([]byte(data), &q.Data)
			if err != nil {
				return nil, err
			}
		}
		survey.Questions = append(survey.Questions, q)
	}
	return survey, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSurvey(row scanner) (*model.Survey, error) {
	survey := model.Survey{}
	err := row.Scan(
		&survey.ID, &survey.UserID, &survey.Title, &survey.Slug, &survey.Status,
		&survey.Description, &survey.Image, &survey.ExpireDate, &survey.CreatedAt, &survey.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if survey.Image != "" {
		survey.ImageURL = "/" + survey.Image
	}
	return &survey, nil
}

func questionIDs(ctx context.Context, tx *sql.Tx, surveyID int) (ids []int, err error) {
	rows, err := tx.QueryContext(ctx,
		"SELECT id FROM survey_question WHERE survey_id = ? ORDER BY id", surveyID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id int
		err = rows.Scan(&id)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func insertQuestions(ctx context.Context, tx *sql.Tx, surveyID int, questions []validQuestion) error {
	if len(questions) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO survey_question (survey_id, type, question, description, data)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, q := range questions {
		_, err = stmt.ExecContext(ctx, surveyID, q.Type, q.Question, q.Description, q.data)
		if err != nil {
			return err
		}
	}
	return nil
}

func deleteQuestions(ctx context.Context, tx *sql.Tx, surveyID int, ids []int) error {
	if len(ids) == 0 {
		return nil
	}

	answers, err := tx.PrepareContext(ctx,
		"DELETE FROM survey_question_answer WHERE survey_question_id = ?")
	if err != nil {
		return err
	}
	defer answers.Close()

	questions, err := tx.PrepareContext(ctx,
		"DELETE FROM survey_question WHERE id = ? AND survey_id = ?")
	if err != nil {
		return err
	}
	defer questions.Close()

	for _, id := range ids {
		_, err = answers.ExecContext(ctx, id)
		if err != nil {
			return err
		}
		_, err = questions.ExecContext(ctx, id, surveyID)
		if err != nil {
			return err
		}
	}
	return nil
}

func inputs(questions []validQuestion) []QuestionInput {
	in := make([]QuestionInput, len(questions))
	for i, q := range questions {
		in[i] = q.QuestionInput
	}
	return in
}

// splitPlan maps the reconciliation plan back onto the validated records.
func splitPlan(questions []validQuestion, plan Plan) (add, update []validQuestion) {
	updateIDs := make(map[string]bool, len(plan.Update))
	for _, q := range plan.Update {
		updateIDs[q.ID] = true
	}

	for _, q := range questions {
		if q.ID != "" && updateIDs[q.ID] {
			update = append(update, q)
		} else {
			add = append(add, q)
		}
	}
	return add, update
}
