package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/sajda/internal/auth"
	"github.com/Nixie-Tech-LLC/sajda/internal/config"
	"github.com/Nixie-Tech-LLC/sajda/internal/db"
	"github.com/Nixie-Tech-LLC/sajda/internal/model"
	"github.com/Nixie-Tech-LLC/sajda/internal/qibla"
	"github.com/Nixie-Tech-LLC/sajda/internal/syncer"
	"github.com/Nixie-Tech-LLC/sajda/internal/tracking"
)

func testServer(t *testing.T) (*gin.Engine, *config.Config, db.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, err := db.Open(db.DriverSQLite, filepath.Join(t.TempDir(), "sajda.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	store := db.NewStore(conn)

	cfg := &config.Config{SecretKey: "secret", SyncRemote: config.RemoteNone}
	dispatcher := syncer.NewDispatcher(store, InitRemote(cfg), zerolog.Nop())

	r := gin.New()
	RegisterRoutes(r, cfg, Services{
		Sessions:   qibla.NewSessions(),
		Boundary:   tracking.NewBoundaryService(store, zerolog.Nop()),
		Dispatcher: dispatcher,
		Queue:      store,
	})
	return r, cfg, store
}

func TestRoutes_PublicAndProtected(t *testing.T) {
	r, cfg, _ := testServer(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/qibla/bearing", strings.NewReader(`{"latitude":48.8566,"longitude":2.3522}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/prayers/today", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := auth.GenerateJWT("device", cfg.SecretKey, time.Hour)
	require.NoError(t, err)
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/prayers/today", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRoutes_SyncWithoutRemoteKeepsQueue(t *testing.T) {
	r, cfg, store := testServer(t)
	_, err := store.Enqueue(context.Background(), "2026-02-01", model.PrayerPayload{Asr: true})
	require.NoError(t, err)

	token, err := auth.GenerateJWT("device", cfg.SecretKey, time.Hour)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/sync", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
	assert.Contains(t, w.Body.String(), syncer.ErrOffline.Error())

	pending, err := store.ListPending(context.Background())
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}
