package middleware

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"alfredoptarigan/hirematch/internal/logger"
	"alfredoptarigan/hirematch/internal/models"
	"alfredoptarigan/hirematch/internal/repositories"
	"alfredoptarigan/hirematch/internal/services"
)

func setupRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestRedisStorage(t *testing.T) {
	client, mr := setupRedis(t)
	storage := NewRedisStorage(client, "limiter:")

	val, err := storage.Get("missing")
	assert.NoError(t, err)
	assert.Nil(t, val)

	require.NoError(t, storage.Set("1.2.3.4", []byte("5"), time.Minute))
	assert.True(t, mr.Exists("limiter:1.2.3.4"))
	assert.Equal(t, time.Minute, mr.TTL("limiter:1.2.3.4"))

	val, err = storage.Get("1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, []byte("5"), val)

	require.NoError(t, storage.Set("5.6.7.8", []byte("1"), 0))
	require.NoError(t, mr.Set("other:key", "keep"))
	require.NoError(t, storage.Reset())
	assert.False(t, mr.Exists("limiter:1.2.3.4"))
	assert.False(t, mr.Exists("limiter:5.6.7.8"))
	assert.True(t, mr.Exists("other:key"))

	require.NoError(t, storage.Set("k", []byte("v"), 0))
	require.NoError(t, storage.Delete("k"))
	assert.False(t, mr.Exists("limiter:k"))
}

func TestRateLimiter_BlocksAfterMax(t *testing.T) {
	client, _ := setupRedis(t)

	app := fiber.New()
	app.Use(NewRateLimiter(NewRedisStorage(client, "limiter:"), 2, 15*time.Minute))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}

type fakeVerifier struct {
	identity *services.Identity
	err      error
}

func (f *fakeVerifier) Verify(ctx context.Context, idToken string) (*services.Identity, error) {
	if idToken != "good-token" && f.err == nil {
		return nil, services.ErrInvalidToken
	}
	return f.identity, f.err
}

type fakeUsers struct {
	users map[string]*models.User
}

func (f *fakeUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, repositories.ErrUserNotFound
}

func newAuthApp(verifier services.TokenVerifier, users repositories.UserRepository) *fiber.App {
	app := fiber.New()
	api := app.Group("/api", Authenticate(verifier, users, zap.NewNop()))
	api.Get("/me", func(c *fiber.Ctx) error {
		return c.SendString(UserFromCtx(c).ID)
	})
	api.Get("/admin", RequireRole(models.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendString("admin")
	})
	api.Get("/hiring", RequireRole(models.RoleEmployer, models.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendString("hiring")
	})
	return app
}

func TestAuthenticate(t *testing.T) {
	users := &fakeUsers{users: map[string]*models.User{
		"uid-seeker": {ID: "uid-seeker", Role: models.RoleSeeker},
		"uid-admin":  {ID: "uid-admin", Role: models.RoleAdmin},
	}}

	tests := []struct {
		name     string
		verifier *fakeVerifier
		header   string
		path     string
		want     int
	}{
		{name: "missing header", verifier: &fakeVerifier{}, path: "/api/me", want: fiber.StatusUnauthorized},
		{name: "wrong scheme", verifier: &fakeVerifier{}, header: "Basic abc", path: "/api/me", want: fiber.StatusUnauthorized},
		{name: "invalid token", verifier: &fakeVerifier{}, header: "Bearer bad-token", path: "/api/me", want: fiber.StatusUnauthorized},
		{
			name:     "identity outage",
			verifier: &fakeVerifier{err: services.ErrUpstream},
			header:   "Bearer good-token",
			path:     "/api/me",
			want:     fiber.StatusServiceUnavailable,
		},
		{
			name:     "no profile",
			verifier: &fakeVerifier{identity: &services.Identity{UID: "uid-ghost"}},
			header:   "Bearer good-token",
			path:     "/api/me",
			want:     fiber.StatusForbidden,
		},
		{
			name:     "authenticated",
			verifier: &fakeVerifier{identity: &services.Identity{UID: "uid-seeker"}},
			header:   "Bearer good-token",
			path:     "/api/me",
			want:     fiber.StatusOK,
		},
		{
			name:     "seeker on admin route",
			verifier: &fakeVerifier{identity: &services.Identity{UID: "uid-seeker"}},
			header:   "Bearer good-token",
			path:     "/api/admin",
			want:     fiber.StatusForbidden,
		},
		{
			name:     "admin on employer route",
			verifier: &fakeVerifier{identity: &services.Identity{UID: "uid-admin"}},
			header:   "Bearer good-token",
			path:     "/api/hiring",
			want:     fiber.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newAuthApp(tt.verifier, users)

			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)

			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestRequireRole_WithoutAuthenticate(t *testing.T) {
	app := fiber.New()
	app.Get("/", RequireRole(models.RoleAdmin), func(c *fiber.Ctx) error { return nil })

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	app := fiber.New()
	app.Use(requestid.New())
	app.Use(RequestLogger(zap.New(core)))
	app.Get("/", func(c *fiber.Ctx) error {
		logger.FromContext(c.UserContext(), zap.NewNop()).Info("handled")
		return c.SendStatus(fiber.StatusNoContent)
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(fiber.HeaderXRequestID, "req-42")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "req-42", logs.All()[0].ContextMap()["request_id"])
}
