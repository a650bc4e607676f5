package http

import (
	"context"
	"errors"
	"io"
	"net/http"

	"english-mcq-service/internal/domain"
)

// LearningService is what the handlers need from the use-case layer.
type LearningService interface {
	UserResolver
	SubmitAnswer(ctx context.Context, userID string, submission domain.Submission) (domain.AnswerResult, error)
	SubmitQuiz(ctx context.Context, userID, topicID string, answers map[string]string) (domain.QuizResult, error)
	GenerateQuestions(ctx context.Context, topic string, count int) (domain.GeneratedSet, error)
	RetestQuestions(ctx context.Context, userID string, count int) ([]domain.RetestItem, error)
	SubmitRetest(ctx context.Context, userID string, answers map[string]string) (domain.RetestResult, error)
	Dashboard(ctx context.Context, userID string) (domain.Dashboard, error)
	ResetDashboard(ctx context.Context, userID string) error
	EraseUserData(ctx context.Context, userID string) error
	UpdateAvatar(ctx context.Context, userID, filename string, r io.Reader) (domain.User, error)
	Subscribe(userID string) (<-chan domain.DashboardData, func())
}

// maxAvatarForm leaves room for multipart framing around the avatar part.
const maxAvatarForm = 5<<20 + 1<<20

type Handler struct {
	service LearningService
}

func NewHandler(service LearningService) *Handler {
	return &Handler{service: service}
}

type answerRequest struct {
	QuestionID         string `json:"question_id"`
	SelectedAnswerText string `json:"selected_answer_text"`
}

type answersRequest struct {
	Answers map[string]string `json:"answers"`
}

type quizRequest struct {
	TopicID string            `json:"topic_id"`
	Answers map[string]string `json:"answers"`
}

type quizResponse struct {
	Success bool `json:"success"`
	domain.QuizResult
}

type generateRequest struct {
	TopicString  string `json:"topic_string"`
	NumQuestions int    `json:"num_questions"`
}

type retestGenerateRequest struct {
	Count int `json:"count"`
}

type retestQuestionsResponse struct {
	Questions []domain.RetestItem `json:"questions"`
}

type retestSubmitResponse struct {
	Success bool `json:"success"`
	domain.RetestResult
}

func currentUser(r *http.Request) (domain.User, error) {
	user, ok := UserFrom(r.Context())
	if !ok {
		return domain.User{}, domain.ErrUnauthorized
	}
	return user, nil
}

func (h *Handler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req answerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.service.SubmitAnswer(r.Context(), user.ID, domain.Submission{
		QuestionID:     req.QuestionID,
		SelectedAnswer: req.SelectedAnswerText,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) SubmitQuiz(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req quizRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.service.SubmitQuiz(r.Context(), user.ID, req.TopicID, req.Answers)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quizResponse{Success: true, QuizResult: res})
}

func (h *Handler) GenerateQuestions(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	set, err := h.service.GenerateQuestions(r.Context(), req.TopicString, req.NumQuestions)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

func (h *Handler) RetestQuestions(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req retestGenerateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	items, err := h.service.RetestQuestions(r.Context(), user.ID, req.Count)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, retestQuestionsResponse{Questions: items})
}

func (h *Handler) SubmitRetest(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req answersRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.service.SubmitRetest(r.Context(), user.ID, req.Answers)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, retestSubmitResponse{Success: true, RetestResult: res})
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	dash, err := h.service.Dashboard(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

func (h *Handler) ResetDashboard(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.service.ResetDashboard(r.Context(), user.ID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

func (h *Handler) EraseUserData(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.service.EraseUserData(r.Context(), user.ID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarForm)
	f, header, err := r.FormFile("avatar")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, domain.InvalidInput("avatar too large"))
			return
		}
		writeError(w, r, domain.InvalidInput("avatar file required"))
		return
	}
	defer f.Close()

	updated, err := h.service.UpdateAvatar(r.Context(), user.ID, header.Filename, f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}
