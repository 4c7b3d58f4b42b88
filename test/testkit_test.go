package test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"kenhavate/internal/config"
	"kenhavate/internal/database"
	"kenhavate/internal/middleware"
	"kenhavate/internal/models"
	"kenhavate/internal/seed"
	"kenhavate/internal/server"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// testkit runs the real server wiring: config from the environment, sqlite
// on disk, and Redis through miniredis.
type testkit struct {
	app     *fiber.App
	cfg     *config.Config
	db      *gorm.DB
	redis   *redis.Client
	factory *seed.Factory
	area    models.ThematicArea
}

func newTestkit(t *testing.T) *testkit {
	t.Helper()

	mr := miniredis.RunT(t)
	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_SQLITE_PATH", filepath.Join(t.TempDir(), "kenhavate.db"))
	t.Setenv("REDIS_URL", mr.Addr())
	t.Setenv("DB_MAX_OPEN_CONNS", "1")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	srv, err := server.NewServer(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})

	db, err := database.Connect(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	areas, err := seed.EnsureThematicAreas(context.Background(), db)
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return &testkit{
		app:     srv.App(),
		cfg:     cfg,
		db:      db,
		redis:   rdb,
		factory: seed.NewFactory(db, seed.SeedOptions{SkipBcrypt: true}),
		area:    areas[0],
	}
}

type authUser struct {
	models.User
	Token string
}

func (k *testkit) user(t *testing.T, admin bool) authUser {
	t.Helper()
	u, err := k.factory.CreateUser(context.Background(), func(u *models.User) { u.IsAdmin = admin })
	require.NoError(t, err)
	token, err := middleware.IssueToken(k.cfg.JWTSecret, u.ID, time.Hour)
	require.NoError(t, err)
	return authUser{User: *u, Token: token}
}

func (k *testkit) submission() map[string]any {
	return map[string]any{
		"title":                    "Recycled asphalt for rural shoulders",
		"thematic_area_id":         k.area.ID,
		"abstract":                 "Reuse milled asphalt to stabilise unpaved shoulders.",
		"problem_statement":        "Gravel shoulders erode within two rainy seasons.",
		"proposed_solution":        "Blend reclaimed asphalt with cement and compact in place.",
		"cost_benefit_analysis":    "Material cost drops by roughly a third.",
		"declaration_of_interests": "None.",
		"original_idea_disclaimer": true,
	}
}

// call sends an authenticated JSON request and decodes the response into out
// when out is non-nil.
func (k *testkit) call(t *testing.T, who authUser, method, path string, payload, out any) int {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if who.Token != "" {
		req.Header.Set("Authorization", "Bearer "+who.Token)
	}

	resp, err := k.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	if out != nil && resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

// inbox subscribes to a user's notification channel.
func (k *testkit) inbox(t *testing.T, userID uint) *redis.PubSub {
	t.Helper()
	sub := k.redis.Subscribe(context.Background(), "notifications:user:"+itoa(userID))
	_, err := sub.Receive(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = sub.Close() })
	return sub
}

func nextNotification(t *testing.T, sub *redis.PubSub) map[string]string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	var out map[string]string
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &out))
	return out
}
