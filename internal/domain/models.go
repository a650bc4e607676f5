package domain

import "time"

// Identity is what an authenticated session tells us about the caller.
type Identity struct {
	Email  string
	Name   string
	Avatar string
}

// User is the identity record; learning data hangs off its ID.
type User struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

// Question models an MCQ question. CorrectAnswer is the text of one of the options.
type Question struct {
	ID            string    `json:"id"`
	Text          string    `json:"text"`
	Options       []string  `json:"options"`
	CorrectAnswer string    `json:"correctAnswer"`
	Topic         string    `json:"topic"`
	CreatedAt     time.Time `json:"createdAt"`
}

// UserAnswer is one submitted answer event.
type UserAnswer struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	QuestionID     string    `json:"questionId"`
	SelectedAnswer string    `json:"selectedAnswer"`
	IsCorrect      bool      `json:"isCorrect"`
	Timestamp      time.Time `json:"timestamp"`
}

// WrongdoingQuestion tracks a question the user missed. It stays open until
// the user answers it correctly in a retest.
type WrongdoingQuestion struct {
	ID                string    `json:"id"`
	UserID            string    `json:"userId"`
	QuestionID        string    `json:"questionId"`
	RetestedCorrectly bool      `json:"retestedCorrectly"`
	LastAttempted     time.Time `json:"lastAttempted"`
}

// UnknownTopicID tags history entries whose topic could not be determined.
const UnknownTopicID = "unknown_topic"

// PointsEntry records the points earned by one scored session.
type PointsEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Points    int       `json:"points"`
	TopicID   string    `json:"topic_id"`
}

// DashboardData is the per-user points aggregate.
type DashboardData struct {
	UserID                string        `json:"-"`
	TotalPoints           int           `json:"totalPoints"`
	PreviousSessionPoints int           `json:"previousSessionPoints"`
	PointsHistory         []PointsEntry `json:"pointsHistory"`
}

// Submission is a single (question, answer) pair sent by a client.
type Submission struct {
	QuestionID     string
	SelectedAnswer string
}

// GradedAnswer is a submission after it has been checked against its question.
type GradedAnswer struct {
	QuestionID     string
	SelectedAnswer string
	CorrectAnswer  string
	Topic          string
	IsCorrect      bool
	Awarded        int
}

// AttemptKind selects how a graded batch affects points and wrongdoing rows.
type AttemptKind int

const (
	// AttemptPractice awards points and opens wrongdoing rows for misses.
	AttemptPractice AttemptKind = iota
	// AttemptRetest leaves points alone and resolves wrongdoing rows answered correctly.
	AttemptRetest
)

// Attempt is the unit the store applies in a single transaction.
type Attempt struct {
	UserID       string
	Kind         AttemptKind
	Answers      []GradedAnswer
	TopicID      string
	At           time.Time
	HistoryLimit int
}

// Points returns the sum of awarded points in the attempt.
func (a Attempt) Points() int {
	total := 0
	for _, ans := range a.Answers {
		total += ans.Awarded
	}
	return total
}

// HistoryEntry is the points-history record a practice attempt appends.
func (a Attempt) HistoryEntry() PointsEntry {
	topic := a.TopicID
	if topic == "" {
		topic = UnknownTopicID
	}
	return PointsEntry{Timestamp: a.At.UTC(), Points: a.Points(), TopicID: topic}
}

// AttemptOutcome reports the state after an attempt was applied.
type AttemptOutcome struct {
	Dashboard DashboardData
	Resolved  int
}

// WrongQuestion is an open wrongdoing row joined with its question and the
// user's latest answer to it.
type WrongQuestion struct {
	ID             string
	Question       Question
	LastUserAnswer string
	LastAttempted  time.Time
}

// WrongQuestionQuery filters open wrongdoing rows for one user.
type WrongQuestionQuery struct {
	UserID      string
	Limit       int // <= 0 means no limit
	NewestFirst bool
}

// AnswerResult is the outcome of a single practice answer.
type AnswerResult struct {
	IsCorrect         bool   `json:"is_correct"`
	CorrectAnswerText string `json:"correct_answer_text"`
	CurrentPoints     int    `json:"current_points"`
}

// QuizResult summarizes a bulk practice submission.
type QuizResult struct {
	SessionPoints int `json:"session_points_earned"`
	CorrectCount  int `json:"correct_count"`
	TotalPoints   int `json:"total_points"`
}

// RetestItem is a question offered for retest.
type RetestItem struct {
	ID                 string   `json:"id"`
	QuestionText       string   `json:"question_text"`
	Options            []string `json:"options"`
	PreviousUserAnswer string   `json:"previousUserAnswer"`
}

// RetestAnswerResult reports how one retest answer was graded.
type RetestAnswerResult struct {
	QuestionID        string `json:"question_id"`
	IsCorrect         bool   `json:"is_correct"`
	CorrectAnswerText string `json:"correct_answer_text"`
}

// RetestResult summarizes a retest submission.
type RetestResult struct {
	Results  []RetestAnswerResult `json:"results"`
	Resolved int                  `json:"resolved"`
}

// DashboardWrongQuestion is the dashboard view of an outstanding miss.
type DashboardWrongQuestion struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	UserAnswer    string   `json:"userAnswer"`
	CorrectAnswer string   `json:"correctAnswer"`
	Date          string   `json:"date"`
}

// Dashboard is the full dashboard payload.
type Dashboard struct {
	DashboardData
	WrongQuestions []DashboardWrongQuestion `json:"wrongQuestions"`
}

// DashboardUpdate is pushed to live subscribers whenever a user's points change.
type DashboardUpdate struct {
	UserID string        `json:"userId"`
	Data   DashboardData `json:"data"`
}

// GeneratedQuestion is a question as handed to a client, without its answer.
type GeneratedQuestion struct {
	ID           string   `json:"id"`
	QuestionText string   `json:"question_text"`
	Options      []string `json:"options"`
}

// GeneratedSet is the response to a generation request.
type GeneratedSet struct {
	Questions []GeneratedQuestion `json:"questions"`
	TopicID   string              `json:"topic_id"`
}
