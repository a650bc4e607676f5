package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"english-mcq-service/internal/app"
	"english-mcq-service/internal/domain"
	"english-mcq-service/internal/infra/blob"
	"english-mcq-service/internal/infra/memory"
)

const testSecret = "test-secret"

type testServer struct {
	*httptest.Server
	auth *Authenticator
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.NewStore()
	err := store.SaveQuestions(context.Background(), []domain.Question{
		{ID: "q1", Text: "They ___ to the cinema last night.", Options: []string{"go", "goes", "went", "gone"}, CorrectAnswer: "went", Topic: "past simple tense"},
		{ID: "q2", Text: "What is the past simple form of 'go'?", Options: []string{"goed", "gone", "went", "going"}, CorrectAnswer: "went", Topic: "past simple tense"},
	})
	if err != nil {
		t.Fatalf("save questions: %v", err)
	}

	avatarDir := t.TempDir()
	uploader, err := blob.NewFSUploader(avatarDir, "/avatars")
	if err != nil {
		t.Fatalf("uploader: %v", err)
	}
	service := app.NewService(store, memory.NewQuestionCache(store, time.Minute), app.DefaultSettings(),
		app.WithGenerator(memory.NewStaticGenerator(memory.DefaultBank())),
		app.WithUploader(uploader),
	)
	auth := NewAuthenticator(testSecret, "", true)
	srv := httptest.NewServer(NewRouter(RouterConfig{Service: service, Auth: auth, AvatarDir: avatarDir}))
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, auth: auth}
}

func (s *testServer) token(t *testing.T, email string) string {
	t.Helper()
	tok, err := s.auth.IssueToken(domain.Identity{Email: email, Name: "Alice"}, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp, data
}

func TestUnauthenticatedRequestsAreRejected(t *testing.T) {
	srv := newTestServer(t)

	for _, token := range []string{"", "not-a-jwt"} {
		resp, body := srv.do(t, http.MethodGet, "/api/dashboard", token, nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", resp.StatusCode)
		}
		if strings.TrimSpace(string(body)) != `{"error":"Unauthorized"}` {
			t.Fatalf("unexpected body %s", body)
		}
	}

	other := NewAuthenticator("other-secret", "", false)
	forged, _ := other.IssueToken(domain.Identity{Email: "a@x.com"}, time.Hour)
	if resp, _ := srv.do(t, http.MethodGet, "/api/users/me", forged, nil); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected forged token rejected, got %d", resp.StatusCode)
	}
	expired, _ := srv.auth.IssueToken(domain.Identity{Email: "a@x.com"}, -time.Minute)
	if resp, _ := srv.do(t, http.MethodGet, "/api/users/me", expired, nil); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected expired token rejected, got %d", resp.StatusCode)
	}
}

func TestAnswerAndDashboardFlow(t *testing.T) {
	srv := newTestServer(t)
	tok := srv.token(t, "a@x.com")

	resp, body := srv.do(t, http.MethodPost, "/api/mcqs/answer", tok, map[string]string{
		"question_id":          "q1",
		"selected_answer_text": "went",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("answer: %d %s", resp.StatusCode, body)
	}
	var res domain.AnswerResult
	_ = json.Unmarshal(body, &res)
	if !res.IsCorrect || res.CorrectAnswerText != "went" || res.CurrentPoints != 10 {
		t.Fatalf("unexpected answer result %s", body)
	}

	resp, body = srv.do(t, http.MethodPost, "/api/mcqs/answer", tok, map[string]string{
		"question_id":          "q2",
		"selected_answer_text": "gone",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("answer 2: %d %s", resp.StatusCode, body)
	}

	_, body = srv.do(t, http.MethodGet, "/api/dashboard", tok, nil)
	var dash struct {
		TotalPoints           int `json:"totalPoints"`
		PreviousSessionPoints int `json:"previousSessionPoints"`
		PointsHistory         []domain.PointsEntry
		WrongQuestions        []domain.DashboardWrongQuestion `json:"wrongQuestions"`
	}
	if err := json.Unmarshal(body, &dash); err != nil {
		t.Fatalf("decode dashboard: %v", err)
	}
	if dash.TotalPoints != 10 || dash.PreviousSessionPoints != 0 {
		t.Fatalf("unexpected dashboard %s", body)
	}
	if len(dash.WrongQuestions) != 1 || dash.WrongQuestions[0].UserAnswer != "gone" {
		t.Fatalf("unexpected wrong questions %s", body)
	}

	resp, body = srv.do(t, http.MethodPost, "/api/retest/submit", tok, map[string]any{
		"answers": map[string]string{"q2": "went"},
	})
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"success":true`) || !strings.Contains(string(body), `"resolved":1`) {
		t.Fatalf("unexpected retest submit %d %s", resp.StatusCode, body)
	}

	resp, body = srv.do(t, http.MethodPost, "/api/dashboard/reset", tok, nil)
	if resp.StatusCode != http.StatusOK || strings.TrimSpace(string(body)) != `{"success":true}` {
		t.Fatalf("unexpected reset %d %s", resp.StatusCode, body)
	}
	resp, _ = srv.do(t, http.MethodDelete, "/api/users/me/data", tok, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected erase status %d", resp.StatusCode)
	}
}

func TestQuizSubmitRecordsTopicHistory(t *testing.T) {
	srv := newTestServer(t)
	tok := srv.token(t, "a@x.com")

	resp, body := srv.do(t, http.MethodPost, "/api/mcqs/submit", tok, map[string]any{
		"topic_id": "topic_past_simple_tense",
		"answers":  map[string]string{"q1": "went", "q2": "went"},
	})
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"session_points_earned":20`) {
		t.Fatalf("unexpected quiz submit %d %s", resp.StatusCode, body)
	}
	srv.do(t, http.MethodPost, "/api/mcqs/submit", tok, map[string]any{
		"answers": map[string]string{"q1": "go"},
	})

	_, body = srv.do(t, http.MethodGet, "/api/dashboard", tok, nil)
	var dash struct {
		PointsHistory []domain.PointsEntry `json:"pointsHistory"`
	}
	if err := json.Unmarshal(body, &dash); err != nil {
		t.Fatalf("decode dashboard: %v", err)
	}
	if len(dash.PointsHistory) != 2 {
		t.Fatalf("expected one history entry per submit, got %s", body)
	}
	first, second := dash.PointsHistory[0], dash.PointsHistory[1]
	if first.Points != 20 || first.TopicID != "topic_past_simple_tense" || first.Timestamp.IsZero() {
		t.Fatalf("unexpected first entry %+v", first)
	}
	if second.Points != 0 || second.TopicID != "topic_past_simple_tense" {
		t.Fatalf("expected the topic derived from the questions, got %+v", second)
	}
}

func TestErrorMapping(t *testing.T) {
	srv := newTestServer(t)
	tok := srv.token(t, "a@x.com")

	resp, _ := srv.do(t, http.MethodPost, "/api/mcqs/answer", tok, map[string]string{"question_id": "missing", "selected_answer_text": "x"})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown question, got %d", resp.StatusCode)
	}
	resp, _ = srv.do(t, http.MethodPost, "/api/retest/generate", tok, map[string]int{"count": 0})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for count 0, got %d", resp.StatusCode)
	}
	resp, _ = srv.do(t, http.MethodPost, "/api/mcqs/generate", tok, map[string]any{"topic_string": "travel", "num_questions": 51})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for too many questions, got %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/mcqs/submit", strings.NewReader("{not json"))
	req.Header.Set("Authorization", "Bearer "+tok)
	raw, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	raw.Body.Close()
	if raw.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", raw.StatusCode)
	}
}

func TestDevHeaderAndProfile(t *testing.T) {
	srv := newTestServer(t)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/users/me", nil)
	req.Header.Set("X-User-Email", "dev@x.com")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	defer resp.Body.Close()
	var user domain.User
	_ = json.NewDecoder(resp.Body).Decode(&user)
	if resp.StatusCode != http.StatusOK || user.Email != "dev@x.com" || user.ID == "" {
		t.Fatalf("unexpected profile %d %+v", resp.StatusCode, user)
	}
}

func TestGenerateQuestionsOmitsAnswers(t *testing.T) {
	srv := newTestServer(t)
	tok := srv.token(t, "a@x.com")

	resp, body := srv.do(t, http.MethodPost, "/api/mcqs/generate", tok, map[string]any{"topic_string": "business email phrases", "num_questions": 1})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("generate: %d %s", resp.StatusCode, body)
	}
	if strings.Contains(string(body), "correctAnswer") || strings.Contains(string(body), "correct_answer") {
		t.Fatalf("generated questions must not leak answers: %s", body)
	}
	var set domain.GeneratedSet
	_ = json.Unmarshal(body, &set)
	if set.TopicID != "topic_business_email_phrases" || len(set.Questions) != 1 || len(set.Questions[0].Options) == 0 {
		t.Fatalf("unexpected set %s", body)
	}
}

func TestAvatarUploadAndServe(t *testing.T) {
	srv := newTestServer(t)
	tok := srv.token(t, "a@x.com")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("avatar", "me.png")
	_, _ = part.Write([]byte("fake-png"))
	_ = mw.Close()

	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/api/users/me/avatar", &buf)
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	defer resp.Body.Close()
	var user domain.User
	_ = json.NewDecoder(resp.Body).Decode(&user)
	if resp.StatusCode != http.StatusOK || !strings.HasPrefix(user.Avatar, "/avatars/"+user.ID+"/") {
		t.Fatalf("unexpected upload response %d %+v", resp.StatusCode, user)
	}

	got, err := http.Get(srv.URL + user.Avatar)
	if err != nil {
		t.Fatalf("get avatar: %v", err)
	}
	defer got.Body.Close()
	data, _ := io.ReadAll(got.Body)
	if got.StatusCode != http.StatusOK || string(data) != "fake-png" {
		t.Fatalf("unexpected avatar fetch %d %q", got.StatusCode, data)
	}

	req, _ = http.NewRequest(http.MethodPut, srv.URL+"/api/users/me/avatar", strings.NewReader(""))
	req.Header.Set("Authorization", "Bearer "+tok)
	missing, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("upload without file: %v", err)
	}
	missing.Body.Close()
	if missing.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without file, got %d", missing.StatusCode)
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(body) != "ok" {
		t.Fatalf("unexpected healthz %d %q", resp.StatusCode, body)
	}
}
