package syncer

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/Nixie-Tech-LLC/sajda/internal/auth"
	"github.com/Nixie-Tech-LLC/sajda/internal/model"
)

// HTTPRemote posts each day to a JSON RPC endpoint that upserts by
// (user, date). The caller's identity travels as a bearer JWT.
type HTTPRemote struct {
	client *resty.Client
	path   string
	userID string
	secret string
}

type upsertDayRequest struct {
	Date    model.Date `json:"date"`
	Fajr    bool       `json:"fajr"`
	Dhuhr   bool       `json:"dhuhr"`
	Asr     bool       `json:"asr"`
	Maghrib bool       `json:"maghrib"`
	Isha    bool       `json:"isha"`
}

func NewHTTPRemote(baseURL, path, userID, secret string) *HTTPRemote {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(20*time.Second).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &HTTPRemote{client: client, path: path, userID: userID, secret: secret}
}

func (r *HTTPRemote) UpsertDay(ctx context.Context, date model.Date, payload model.PrayerPayload) error {
	token, err := auth.GenerateJWT(r.userID, r.secret, 5*time.Minute)
	if err != nil {
		return fmt.Errorf("sign request: %w", err)
	}

	resp, err := r.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetBody(upsertDayRequest{
			Date:    date,
			Fajr:    payload.Fajr,
			Dhuhr:   payload.Dhuhr,
			Asr:     payload.Asr,
			Maghrib: payload.Maghrib,
			Isha:    payload.Isha,
		}).
		Post(r.path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("remote rejected %s: status %d", date, resp.StatusCode())
	}
	return nil
}

// Probe succeeds when the server answers at all; only transport errors
// count as offline.
func (r *HTTPRemote) Probe(ctx context.Context) error {
	_, err := r.client.R().SetContext(ctx).Head("/")
	return err
}
