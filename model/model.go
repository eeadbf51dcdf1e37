package model

import "time"

type QuestionType string

const (
	QuestionText     QuestionType = "text"
	QuestionTextarea QuestionType = "textarea"
	QuestionSelect   QuestionType = "select"
	QuestionRadio    QuestionType = "radio"
	QuestionCheckbox QuestionType = "checkbox"
	QuestionRating   QuestionType = "rating"
)

func (t QuestionType) Valid() bool {
	switch t {
	case QuestionText, QuestionTextarea, QuestionSelect, QuestionRadio, QuestionCheckbox, QuestionRating:
		return true
	}
	return false
}

type Survey struct {
	ID          int        `json:"id"`
	UserID      int        `json:"-"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Status      bool       `json:"status"`
	Description string     `json:"description"`
	Image       string     `json:"-"`
	ImageURL    string     `json:"image_url,omitempty"`
	ExpireDate  time.Time  `json:"expire_date"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Questions   []Question `json:"questions,omitempty"`
}

type Question struct {
	ID          int          `json:"id"`
	SurveyID    int          `json:"-"`
	Type        QuestionType `json:"type"`
	Question    string       `json:"question"`
	Description string       `json:"description,omitempty"`
	Data        any          `json:"data"`
}

// ResponseSession is one respondent's submission. Created once, never updated.
type ResponseSession struct {
	ID        int       `json:"id"`
	SurveyID  int       `json:"survey_id"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

type Answer struct {
	ID         int    `json:"id"`
	QuestionID int    `json:"survey_question_id"`
	SessionID  int    `json:"survey_answer_id"`
	Answer     string `json:"answer"`
}

type User struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
