// Package athan fetches daily prayer times from an Aladhan-shaped API.
package athan

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/Nixie-Tech-LLC/sajda/internal/model"
	redisclient "github.com/Nixie-Tech-LLC/sajda/internal/redis"
)

const DefaultBaseURL = "https://api.aladhan.com"

// Cache is satisfied by redis.TimingsCache; misses are reported with
// redis.ErrCacheMiss.
type Cache interface {
	Get(ctx context.Context, key string) (*model.PrayerTimes, error)
	Set(ctx context.Context, key string, times model.PrayerTimes) error
}

type Client struct {
	http   *resty.Client
	method int
	cache  Cache
	logger zerolog.Logger
}

type Option func(*Client)

// WithCache puts a cache in front of the provider.
func WithCache(cache Cache) Option {
	return func(c *Client) { c.cache = cache }
}

// WithMethod picks the calculation method (2 = ISNA).
func WithMethod(method int) Option {
	return func(c *Client) { c.method = method }
}

func NewClient(baseURL string, logger zerolog.Logger, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(15*time.Second).
			SetRetryCount(2).
			SetRetryWaitTime(500*time.Millisecond).
			SetHeader("Accept", "application/json"),
		method: 2,
		logger: logger.With().Str("component", "athan").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type timingsResponse struct {
	Code int `json:"code"`
	Data struct {
		Timings map[string]string `json:"timings"`
	} `json:"data"`
}

// Timings returns the prayer times of day at location.
func (c *Client) Timings(ctx context.Context, day time.Time, at model.GeoPoint) (*model.PrayerTimes, error) {
	key := fmt.Sprintf("%s:%.4f:%.4f:%d", model.DateOf(day), at.Latitude, at.Longitude, c.method)

	if c.cache != nil {
		cached, err := c.cache.Get(ctx, key)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, redisclient.ErrCacheMiss) {
			c.logger.Warn().Err(err).Str("key", key).Msg("prayer times cache read failed")
		}
	}

	var body timingsResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("date", day.Format("02-01-2006")).
		SetQueryParams(map[string]string{
			"latitude":  strconv.FormatFloat(at.Latitude, 'f', -1, 64),
			"longitude": strconv.FormatFloat(at.Longitude, 'f', -1, 64),
			"method":    strconv.Itoa(c.method),
		}).
		SetResult(&body).
		Get("/v1/timings/{date}")
	if err != nil {
		return nil, fmt.Errorf("fetch prayer times: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("fetch prayer times: status %d", resp.StatusCode())
	}

	t := body.Data.Timings
	times := &model.PrayerTimes{
		Date:    model.DateOf(day),
		Imsak:   clean(t["Imsak"]),
		Fajr:    clean(t["Fajr"]),
		Sunrise: clean(t["Sunrise"]),
		Dhuhr:   clean(t["Dhuhr"]),
		Asr:     clean(t["Asr"]),
		Maghrib: clean(t["Maghrib"]),
		Isha:    clean(t["Isha"]),
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, *times); err != nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("prayer times cache write failed")
		}
	}
	return times, nil
}

// clean strips the timezone suffix the provider sometimes appends,
// "04:52 (EET)" -> "04:52".
func clean(v string) string {
	v = strings.TrimSpace(v)
	if i := strings.IndexByte(v, ' '); i >= 0 {
		v = v[:i]
	}
	return v
}

// ParseClock parses "HH:mm".
func ParseClock(hhmm string) (hour, minute int, err error) {
	parts := strings.Split(clean(hhmm), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid clock time %q", hhmm)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", hhmm)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", hhmm)
	}
	return hour, minute, nil
}

// ClockOn returns the instant hhmm on day's calendar date, in day's location.
func ClockOn(day time.Time, hhmm string) (time.Time, error) {
	h, m, err := ParseClock(hhmm)
	if err != nil {
		return time.Time{}, err
	}
	y, mo, d := day.Date()
	return time.Date(y, mo, d, h, m, 0, 0, day.Location()), nil
}

// Display converts the five prayers to the 12-hour timetable rows.
func Display(times model.PrayerTimes) []model.Prayer {
	prayers := make([]model.Prayer, 0, len(model.Prayers))
	for _, p := range model.Prayers {
		h, m, err := ParseClock(times.For(p))
		if err != nil {
			continue
		}
		period := "AM"
		if h >= 12 {
			period = "PM"
			if h > 12 {
				h -= 12
			}
		}
		if h == 0 {
			h = 12
		}
		prayers = append(prayers, model.Prayer{
			Name:   strings.ToUpper(string(p)),
			Time:   fmt.Sprintf("%02d:%02d", h, m),
			Period: period,
		})
	}
	return prayers
}
