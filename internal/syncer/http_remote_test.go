package syncer_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/sajda/internal/auth"
	"github.com/Nixie-Tech-LLC/sajda/internal/model"
	"github.com/Nixie-Tech-LLC/sajda/internal/syncer"
)

func TestHTTPRemote_UpsertDay(t *testing.T) {
	var body map[string]any
	var subject string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/rpc/upsert_prayer_day", r.URL.Path)

		sub, err := auth.ParseToken(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "), "s3cret")
		require.NoError(t, err)
		subject = sub
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	remote := syncer.NewHTTPRemote(srv.URL, "/rpc/upsert_prayer_day", "user-42", "s3cret")
	err := remote.UpsertDay(context.Background(), "2026-06-01", model.PrayerPayload{Fajr: true, Maghrib: true})
	require.NoError(t, err)

	assert.Equal(t, "user-42", subject)
	assert.Equal(t, "2026-06-01", body["date"])
	assert.Equal(t, true, body["fajr"])
	assert.Equal(t, false, body["dhuhr"])
	assert.Equal(t, true, body["maghrib"])
}

func TestHTTPRemote_ServerErrorIsFailure(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	remote := syncer.NewHTTPRemote(srv.URL, "/rpc", "u", "k")
	err := remote.UpsertDay(context.Background(), "2026-06-01", model.PrayerPayload{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	assert.Equal(t, 1, calls, "no transport-level retries")
}

func TestHTTPRemote_Probe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	remote := syncer.NewHTTPRemote(srv.URL, "/rpc", "u", "k")
	assert.NoError(t, remote.Probe(context.Background()))

	srv.Close()
	assert.Error(t, remote.Probe(context.Background()))
}
