package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/docker/docker/client"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"sandman-server/internal/database"
	"sandman-server/internal/model"
	"sandman-server/internal/repository"
)

// StoryRepositorySuite содержит состояние для интеграционных тестов репозитория.
type StoryRepositorySuite struct {
	suite.Suite
	ctx         context.Context
	pgContainer *postgres.PostgresContainer
	pgPool      *pgxpool.Pool
	repo        repository.StoryRepository
	logger      *zap.Logger
}

func (s *StoryRepositorySuite) SetupSuite() {
	s.ctx = context.Background()
	var err error

	s.logger, err = zap.NewDevelopment()
	require.NoError(s.T(), err, "Failed to create logger for tests")

	s.pgContainer, err = postgres.Run(s.ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
	)
	require.NoError(s.T(), err, "Failed to start postgres container")

	pgConnStr, err := s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err, "Failed to get postgres connection string")

	s.pgPool, err = pgxpool.New(s.ctx, pgConnStr)
	require.NoError(s.T(), err, "Failed to connect to test postgres")

	require.NoError(s.T(), s.runMigrations(pgConnStr), "Failed to run migrations")

	s.repo = repository.NewPgStoryRepository(s.pgPool, s.logger)
}

func (s *StoryRepositorySuite) TearDownSuite() {
	if s.pgPool != nil {
		s.pgPool.Close()
	}
	if s.pgContainer != nil {
		if err := s.pgContainer.Terminate(s.ctx); err != nil {
			s.logger.Error("Failed to terminate postgres container", zap.Error(err))
		}
	}
}

func (s *StoryRepositorySuite) SetupTest() {
	_, err := s.pgPool.Exec(s.ctx, "TRUNCATE TABLE stories")
	require.NoError(s.T(), err, "Failed to truncate stories table")
}

// runMigrations применяет встроенные миграции к тестовой БД.
func (s *StoryRepositorySuite) runMigrations(dbURL string) error {
	sourceDriver, err := iofs.New(database.MigrationsFS, database.MigrationsPath)
	if err != nil {
		return fmt.Errorf("failed to create iofs source driver: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, dbURL)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

func (s *StoryRepositorySuite) newRecord() *model.StoryRecord {
	return &model.StoryRecord{
		Title:     "Mina and the Ember",
		ChildName: "Mina",
		Language:  "en",
		Mood:      model.MoodCalming,
		VoiceID:   "voice-1",
		Scenes: []model.Scene{
			{Text: "scene one", Mood: model.MoodCalming},
			{Text: "scene two", Mood: model.MoodCalming},
		},
		AudioByScene:  map[string][]byte{"0": []byte("audio-0")},
		ImagesByScene: map[string][]byte{"img_0": []byte("image-0")},
	}
}

func (s *StoryRepositorySuite) TestInsertAndGetByID() {
	record := s.newRecord()
	require.NoError(s.T(), s.repo.Insert(s.ctx, record))
	require.NotEqual(s.T(), uuid.Nil, record.ID, "Insert должен назначить id")

	loaded, err := s.repo.GetByID(s.ctx, record.ID)
	require.NoError(s.T(), err)
	s.Equal(record.Title, loaded.Title)
	s.Equal(record.ChildName, loaded.ChildName)
	s.Equal(model.MoodCalming, loaded.Mood)
	s.Len(loaded.Scenes, 2)
	s.Equal([]byte("audio-0"), loaded.AudioByScene["0"])
	s.Equal([]byte("image-0"), loaded.ImagesByScene["img_0"])
}

func (s *StoryRepositorySuite) TestGetByIDNotFound() {
	_, err := s.repo.GetByID(s.ctx, uuid.New())
	s.ErrorIs(err, model.ErrNotFound)
}

func (s *StoryRepositorySuite) TestListNewestFirst() {
	first := s.newRecord()
	first.Title = "older"
	first.CreatedAt = time.Now().UTC().Add(-time.Hour)
	require.NoError(s.T(), s.repo.Insert(s.ctx, first))

	second := s.newRecord()
	second.Title = "newer"
	require.NoError(s.T(), s.repo.Insert(s.ctx, second))

	summaries, err := s.repo.List(s.ctx, 10)
	require.NoError(s.T(), err)
	require.Len(s.T(), summaries, 2)
	s.Equal("newer", summaries[0].Title)
	s.Equal("older", summaries[1].Title)
	s.Equal(2, summaries[0].SceneCount)
}

func (s *StoryRepositorySuite) TestAppendAudioFirstWriteWins() {
	record := s.newRecord()
	require.NoError(s.T(), s.repo.Insert(s.ctx, record))

	// Новый ключ добавляется.
	require.NoError(s.T(), s.repo.AppendAudio(s.ctx, record.ID, "1", []byte("audio-1")))
	// Повторная запись того же ключа — no-op без ошибки.
	require.NoError(s.T(), s.repo.AppendAudio(s.ctx, record.ID, "1", []byte("overwrite-attempt")))

	loaded, err := s.repo.GetByID(s.ctx, record.ID)
	require.NoError(s.T(), err)
	s.Equal([]byte("audio-1"), loaded.AudioByScene["1"])
	s.Equal([]byte("audio-0"), loaded.AudioByScene["0"], "существующие ключи не затрагиваются")
}

func (s *StoryRepositorySuite) TestAppendImageToMissingStory() {
	err := s.repo.AppendImage(s.ctx, uuid.New(), "img_0", []byte("image"))
	s.ErrorIs(err, model.ErrNotFound)
}

func (s *StoryRepositorySuite) TestAppendReservedAudioKeys() {
	record := s.newRecord()
	require.NoError(s.T(), s.repo.Insert(s.ctx, record))

	require.NoError(s.T(), s.repo.AppendAudio(s.ctx, record.ID, model.AudioKeySfx, []byte("sfx")))
	require.NoError(s.T(), s.repo.AppendAudio(s.ctx, record.ID, model.AudioKeyLullaby, []byte("lullaby")))

	loaded, err := s.repo.GetByID(s.ctx, record.ID)
	require.NoError(s.T(), err)
	s.Equal([]byte("sfx"), loaded.AudioByScene[model.AudioKeySfx])
	s.Equal([]byte("lullaby"), loaded.AudioByScene[model.AudioKeyLullaby])
}

func TestStoryRepositorySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	cli, err := client.NewClientWithOpts(client.FromEnv)
	if err != nil {
		t.Fatalf("Docker client init error: %v. Ensure Docker is running and accessible.", err)
	}
	if _, err := cli.Ping(context.Background()); err != nil {
		t.Skipf("Docker daemon is not running or accessible: %v", err)
	}
	cli.Close()

	suite.Run(t, new(StoryRepositorySuite))
}
