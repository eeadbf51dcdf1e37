package survey

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"time"
)

// IngestAnswers records one respondent's submission: a ResponseSession plus
// one answer row per answered question. The whole batch is validated against
// the survey's question set before any row is written, so an invalid question
// id leaves no dangling session behind.
func (s *Service) IngestAnswers(ctx context.Context, surveyID int, answers map[string]json.RawMessage) error {
	var exists bool
	err := s.DB.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM survey WHERE id = ?)", surveyID,
	).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}

	ids, err := s.surveyQuestionIDs(ctx, surveyID)
	if err != nil {
		return err
	}

	// deterministic order, so the reported invalid id is stable
	keys := make([]string, 0, len(answers))
	for key := range answers {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	values := make([]struct {
		questionID int
		value      string
	}, len(keys))
	for i, key := range keys {
		questionID, err := strconv.Atoi(key)
		if err != nil || !ids[questionID] {
			return &InvalidQuestionError{ID: key}
		}

		value, err := answerValue(answers[key])
		if err != nil {
			return &InvalidAnswerError{QuestionID: key}
		}
		values[i].questionID = questionID
		values[i].value = value
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()
	var sessionID int
	err = tx.QueryRowContext(ctx, `
		INSERT INTO survey_answer (survey_id, start_date, end_date)
		VALUES (?, ?, ?)
		RETURNING id`,
		surveyID, now, now,
	).Scan(&sessionID)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO survey_question_answer (survey_question_id, survey_answer_id, answer)
		VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, v := range values {
		_, err = stmt.ExecContext(ctx, v.questionID, sessionID, v.value)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *Service) surveyQuestionIDs(ctx context.Context, surveyID int) (map[int]bool, error) {
	rows, err := s.DB.QueryContext(ctx,
		"SELECT id FROM survey_question WHERE survey_id = ?", surveyID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := map[int]bool{}
	for rows.Next() {
		var id int
		err = rows.Scan(&id)
		if err != nil {
			return nil, err
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

// answerValue stores scalars as their text form and structured values as
// canonical JSON, mirroring how question payloads are serialized.
func answerValue(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}

	var value any
	err := json.Unmarshal(raw, &value)
	if err != nil {
		return "", err
	}

	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		return canonicalJSON(v)
	}
}
