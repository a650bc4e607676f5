package app

import (
	"context"
	"io"
	"time"

	"english-mcq-service/internal/domain"
	"english-mcq-service/internal/logger"
)

// Store abstracts where learning data lives (in-memory, SQL, etc).
// RecordAttempt, ResetDashboard and EraseUserData must each be atomic.
type Store interface {
	EnsureUser(ctx context.Context, identity domain.Identity) (domain.User, error)
	UserByEmail(ctx context.Context, email string) (domain.User, error)
	UpdateAvatar(ctx context.Context, userID, avatarURL string) (domain.User, error)

	SaveQuestions(ctx context.Context, questions []domain.Question) error
	LoadQuestion(ctx context.Context, questionID string) (domain.Question, error)

	RecordAttempt(ctx context.Context, attempt domain.Attempt) (domain.AttemptOutcome, error)
	WrongQuestions(ctx context.Context, query domain.WrongQuestionQuery) ([]domain.WrongQuestion, error)
	DashboardData(ctx context.Context, userID string) (domain.DashboardData, error)
	ResetDashboard(ctx context.Context, userID string) error
	EraseUserData(ctx context.Context, userID string) error
}

// QuestionRepository loads question content (from cache/backing store).
type QuestionRepository interface {
	GetQuestion(ctx context.Context, questionID string) (domain.Question, error)
}

// QuestionGenerator produces new questions for a topic.
type QuestionGenerator interface {
	Generate(ctx context.Context, topic string, count int) ([]domain.Question, error)
}

// AvatarUploader stores an avatar image and returns its public URL.
type AvatarUploader interface {
	Upload(ctx context.Context, userID, filename string, r io.Reader) (string, error)
}

// DashboardPublisher fans out points changes to live subscribers.
type DashboardPublisher interface {
	Publish(ctx context.Context, update domain.DashboardUpdate) error
}

// Settings are the scoring rules.
type Settings struct {
	PointsPerCorrect int
	HistoryLimit     int
	MaxRetestCount   int
}

// DefaultSettings mirrors the production scoring rules.
func DefaultSettings() Settings {
	return Settings{PointsPerCorrect: 10, HistoryLimit: 50, MaxRetestCount: 50}
}

// Service contains the learning use cases.
type Service struct {
	store     Store
	questions QuestionRepository
	settings  Settings

	generator QuestionGenerator
	uploader  AvatarUploader
	hub       *Hub
	publisher DashboardPublisher
	now       func() time.Time
	log       *logger.Logger
}

// Option configures optional collaborators of the Service.
type Option func(*Service)

func WithGenerator(g QuestionGenerator) Option { return func(s *Service) { s.generator = g } }

func WithUploader(u AvatarUploader) Option { return func(s *Service) { s.uploader = u } }

// WithPublisher replaces the default publisher (the local hub).
func WithPublisher(p DashboardPublisher) Option { return func(s *Service) { s.publisher = p } }

// WithClock is meant for tests that need deterministic timestamps.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func WithLogger(l *logger.Logger) Option { return func(s *Service) { s.log = l } }

func NewService(store Store, questions QuestionRepository, settings Settings, opts ...Option) *Service {
	defaults := DefaultSettings()
	if settings.PointsPerCorrect <= 0 {
		settings.PointsPerCorrect = defaults.PointsPerCorrect
	}
	if settings.HistoryLimit <= 0 {
		settings.HistoryLimit = defaults.HistoryLimit
	}
	if settings.MaxRetestCount <= 0 {
		settings.MaxRetestCount = defaults.MaxRetestCount
	}

	hub := NewHub()
	s := &Service{
		store:     store,
		questions: questions,
		settings:  settings,
		hub:       hub,
		publisher: hub,
		now:       time.Now,
		log:       logger.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hub exposes the local fan-out so relays can deliver remote updates into it.
func (s *Service) Hub() *Hub {
	return s.hub
}

// Subscribe returns a channel of points updates for a user.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *Service) Subscribe(userID string) (<-chan domain.DashboardData, func()) {
	return s.hub.Subscribe(userID)
}

func (s *Service) publish(ctx context.Context, data domain.DashboardData) {
	if data.PointsHistory == nil {
		data.PointsHistory = []domain.PointsEntry{}
	}
	update := domain.DashboardUpdate{UserID: data.UserID, Data: data}
	if err := s.publisher.Publish(ctx, update); err != nil {
		s.log.Warn("dashboard publish failed", "user_id", data.UserID, "error", err)
	}
}

func (s *Service) clock() time.Time {
	return s.now().UTC()
}
