package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"wayfarer/internal/config"
	"wayfarer/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupMockDB creates a GORM *gorm.DB backed by sqlmock with ping monitoring.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectPing()
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	require.NoError(t, err)
	return gormDB, mock
}

// --- humanizeParam (pure function, no HTTP) ---

func TestHumanizeParam(t *testing.T) {
	tests := []struct {
		param    string
		expected string
	}{
		{"id", "ID"},
		{"userId", "user ID"},
		{"inviteId", "invite ID"},
		{"circleMemberId", "circle member ID"},
		{"code", "code"},
	}
	for _, tt := range tests {
		t.Run(tt.param, func(t *testing.T) {
			assert.Equal(t, tt.expected, humanizeParam(tt.param))
		})
	}
}

// --- parseID ---

func TestParseID(t *testing.T) {
	srv := &Server{config: &config.Config{}}
	app := fiber.New()
	app.Get("/circles/:id/invites/:inviteId", func(c *fiber.Ctx) error {
		id, err := srv.parseID(c, "inviteId")
		if err != nil {
			return nil
		}
		return c.JSON(fiber.Map{"id": id})
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/circles/1/invites/42", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	for _, bad := range []string{"0", "-3", "abc"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/circles/1/invites/"+bad, nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, bad)

		var body models.ErrorResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		_ = resp.Body.Close()
		assert.Equal(t, "Invalid invite ID", body.Error)
		assert.Equal(t, models.CodeValidation, body.Code)
	}
}

// --- respond ---

func TestRespond_MapsCodes(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{models.NewValidationError("bad"), fiber.StatusBadRequest},
		{models.NewInvalidStateError("revoked"), fiber.StatusConflict},
		{models.NewNotFoundError("Group", 1), fiber.StatusNotFound},
		{models.NewCollaboratorFailure("create group", errors.New("timeout")), fiber.StatusBadGateway},
		{errors.New("boom"), fiber.StatusInternalServerError},
	}
	for _, tc := range cases {
		app := fiber.New()
		app.Get("/", func(c *fiber.Ctx) error { return respond(c, tc.err) })
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)
		assert.Equal(t, tc.status, resp.StatusCode, tc.err.Error())
		_ = resp.Body.Close()
	}
}

// --- ReadinessCheck ---

func readiness(t *testing.T, srv *Server) (int, map[string]any) {
	t.Helper()
	app := fiber.New()
	app.Get("/health/ready", srv.ReadinessCheck)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestReadinessCheck(t *testing.T) {
	t.Run("database down", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectPing().WillReturnError(errors.New("connection refused"))

		status, body := readiness(t, &Server{config: &config.Config{}, db: db})
		assert.Equal(t, fiber.StatusServiceUnavailable, status)
		assert.Equal(t, "unhealthy", body["status"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no redis is still ready", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectPing()

		status, body := readiness(t, &Server{config: &config.Config{}, db: db})
		assert.Equal(t, fiber.StatusOK, status)
		checks := body["checks"].(map[string]any)
		assert.Equal(t, "healthy", checks["database"])
		assert.Equal(t, "unavailable", checks["redis"])
	})

	t.Run("redis healthy", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectPing()
		mr := miniredis.RunT(t)
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = rdb.Close() })

		status, body := readiness(t, &Server{config: &config.Config{}, db: db, redis: rdb})
		assert.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, "healthy", body["checks"].(map[string]any)["redis"])
	})
}
