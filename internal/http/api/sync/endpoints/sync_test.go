package endpoints_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/sajda/internal/auth"
	"github.com/Nixie-Tech-LLC/sajda/internal/http/api"
	"github.com/Nixie-Tech-LLC/sajda/internal/http/api/sync/endpoints"
	"github.com/Nixie-Tech-LLC/sajda/internal/model"
	"github.com/Nixie-Tech-LLC/sajda/internal/syncer"
)

const secret = "test-secret"

type stubDispatcher struct{ result syncer.Result }

func (s stubDispatcher) SyncPendingItems(context.Context) syncer.Result { return s.result }

type stubQueue struct {
	items []model.SyncQueueItem
	err   error
}

func (s stubQueue) ListPending(context.Context) ([]model.SyncQueueItem, error) { return s.items, s.err }

func router(d endpoints.Dispatcher, q endpoints.PendingLister) *gin.Engine {
	return ownedRouter(d, q, "")
}

func ownedRouter(d endpoints.Dispatcher, q endpoints.PendingLister, owner string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api.MountGroup(r, api.GroupConfig{Prefix: "/api", Auth: true, SecretKey: secret}, endpoints.SyncModule(d, q, owner))
	return r
}

func request(t *testing.T, r http.Handler, method, path string, authorized bool) *httptest.ResponseRecorder {
	t.Helper()
	subject := ""
	if authorized {
		subject = "device-1"
	}
	return requestAs(t, r, method, path, subject)
}

func requestAs(t *testing.T, r http.Handler, method, path, subject string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if subject != "" {
		token, err := auth.GenerateJWT(subject, secret, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSync(t *testing.T) {
	r := router(stubDispatcher{result: syncer.Result{SyncedCount: 2, FailedCount: 1, Errors: []string{"2026-01-02: 500"}}}, stubQueue{})

	w := request(t, r, http.MethodPost, "/api/sync", true)
	require.Equal(t, http.StatusOK, w.Code)

	var res syncer.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.False(t, res.Success)
	assert.Equal(t, 2, res.SyncedCount)
	assert.Equal(t, 1, res.FailedCount)
	assert.Len(t, res.Errors, 1)
}

func TestSync_EmptyErrorsSerializeAsArray(t *testing.T) {
	r := router(stubDispatcher{result: syncer.Result{Success: true}}, stubQueue{})

	w := request(t, r, http.MethodPost, "/api/sync", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"errors":[]`)
}

func TestSync_RequiresToken(t *testing.T) {
	r := router(stubDispatcher{}, stubQueue{})
	assert.Equal(t, http.StatusUnauthorized, request(t, r, http.MethodPost, "/api/sync", false).Code)
	assert.Equal(t, http.StatusUnauthorized, request(t, r, http.MethodGet, "/api/sync/pending", false).Code)
}

func TestPending(t *testing.T) {
	items := []model.SyncQueueItem{
		{ID: 1, Date: "2026-01-01", Payload: model.PrayerPayload{Fajr: true}},
		{ID: 2, Date: "2026-01-02"},
	}
	r := router(stubDispatcher{}, stubQueue{items: items})

	w := request(t, r, http.MethodGet, "/api/sync/pending", true)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Count int                   `json:"count"`
		Items []model.SyncQueueItem `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, int64(1), body.Items[0].ID)
	assert.True(t, body.Items[0].Payload.Fajr)

	r = router(stubDispatcher{}, stubQueue{err: errors.New("locked")})
	assert.Equal(t, http.StatusInternalServerError, request(t, r, http.MethodGet, "/api/sync/pending", true).Code)
}

func TestSync_OwnerOnly(t *testing.T) {
	r := ownedRouter(stubDispatcher{result: syncer.Result{Success: true}}, stubQueue{}, "user-42")

	assert.Equal(t, http.StatusForbidden, requestAs(t, r, http.MethodPost, "/api/sync", "user-7").Code)
	assert.Equal(t, http.StatusForbidden, requestAs(t, r, http.MethodGet, "/api/sync/pending", "user-7").Code)
	assert.Equal(t, http.StatusOK, requestAs(t, r, http.MethodPost, "/api/sync", "user-42").Code)
	assert.Equal(t, http.StatusOK, requestAs(t, r, http.MethodGet, "/api/sync/pending", "user-42").Code)
}
