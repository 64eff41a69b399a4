package endpoints

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/sajda/internal/athan"
	"github.com/Nixie-Tech-LLC/sajda/internal/http/api"
	"github.com/Nixie-Tech-LLC/sajda/internal/http/api/prayers/packets"
	"github.com/Nixie-Tech-LLC/sajda/internal/model"
)

// Tracker is the prayer-day state the endpoints act on.
type Tracker interface {
	Initialize(ctx context.Context, times *model.PrayerTimes) (bool, error)
	LastResetDate(ctx context.Context) (model.Date, error)
	Today(ctx context.Context) (model.DailyPrayerState, error)
	MarkPrayer(ctx context.Context, prayer model.PrayerName, status model.PrayerStatus) (model.DailyPrayerState, error)
}

// TimingsSource resolves a day's prayer times for a location.
type TimingsSource interface {
	Timings(ctx context.Context, day time.Time, at model.GeoPoint) (*model.PrayerTimes, error)
}

type PrayerController struct {
	tracker Tracker
	timings TimingsSource
	home    *model.GeoPoint
	now     func() time.Time
}

// PrayerModule mounts the tracking endpoints. timings and home may be nil;
// without them rollover falls back to the calendar date.
func PrayerModule(tracker Tracker, timings TimingsSource, home *model.GeoPoint) api.Module {
	return prayerModule(&PrayerController{tracker: tracker, timings: timings, home: home, now: time.Now})
}

func prayerModule(ctl *PrayerController) api.Module {
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/prayers/today", ctl.today)
		c.PUT("/prayers/today/:prayer", ctl.mark)
		c.POST("/prayers/initialize", ctl.initialize)
		c.GET("/prayer-times", ctl.prayerTimes)
	})
}

// GET /api/prayers/today
func (p *PrayerController) today(ctx *gin.Context) (any, *api.APIError) {
	state, err := p.tracker.Today(ctx.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to read prayer day")
		return nil, api.Internal("could not read prayer day")
	}
	return packets.NewDayResponse(state), nil
}

// PUT /api/prayers/today/:prayer
func (p *PrayerController) mark(ctx *gin.Context) (any, *api.APIError) {
	prayer, err := model.ParsePrayerName(ctx.Param("prayer"))
	if err != nil {
		return nil, api.BadRequest(err.Error())
	}

	var request packets.MarkPrayerRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	status, err := model.ParsePrayerStatus(request.Status)
	if err != nil {
		return nil, api.BadRequest(err.Error())
	}

	state, err := p.tracker.MarkPrayer(ctx.Request.Context(), prayer, status)
	if err != nil {
		log.Error().Err(err).Str("prayer", string(prayer)).Msg("failed to mark prayer")
		return nil, api.Internal("could not save prayer status")
	}
	return packets.NewDayResponse(state), nil
}

// POST /api/prayers/initialize
func (p *PrayerController) initialize(ctx *gin.Context) (any, *api.APIError) {
	var request packets.InitializeRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&request); err != nil {
			return nil, api.BadRequest(err.Error())
		}
	}

	var times *model.PrayerTimes
	if at, ok := p.location(request.Latitude, request.Longitude); ok && p.timings != nil {
		t, err := p.timings.Timings(ctx.Request.Context(), p.now(), at)
		if err != nil {
			log.Warn().Err(err).Msg("prayer times unavailable, using calendar boundary")
		} else {
			times = t
		}
	}

	rolled, err := p.tracker.Initialize(ctx.Request.Context(), times)
	if err != nil {
		log.Error().Err(err).Msg("daily boundary check failed")
		return nil, api.Internal("could not initialize prayer day")
	}
	last, err := p.tracker.LastResetDate(ctx.Request.Context())
	if err != nil {
		return nil, api.Internal("could not initialize prayer day")
	}

	return packets.InitializeResponse{
		RolledOver:    rolled,
		LastResetDate: last,
		ImsakUsed:     times != nil && times.Imsak != "",
	}, nil
}

// GET /api/prayer-times?latitude=..&longitude=..&date=YYYY-MM-DD
func (p *PrayerController) prayerTimes(ctx *gin.Context) (any, *api.APIError) {
	if p.timings == nil {
		return nil, api.NotFound("prayer times are not configured")
	}

	lat, lon, apiErr := queryLocation(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	at, ok := p.location(lat, lon)
	if !ok {
		return nil, api.BadRequest("latitude and longitude are required")
	}

	day := p.now()
	if raw := model.Date(ctx.Query("date")); raw != "" {
		if !raw.Valid() {
			return nil, api.BadRequest("date must be YYYY-MM-DD")
		}
		day, _ = time.ParseInLocation(model.DateLayout, string(raw), time.Local)
	}

	times, err := p.timings.Timings(ctx.Request.Context(), day, at)
	if err != nil {
		log.Error().Err(err).Msg("failed to get prayer times")
		return nil, &api.APIError{Code: http.StatusBadGateway, Message: "failed to get prayer times"}
	}
	return packets.PrayerTimesResponse{Times: *times, Display: athan.Display(*times)}, nil
}

func (p *PrayerController) location(lat, lon *float64) (model.GeoPoint, bool) {
	if lat != nil && lon != nil {
		return model.GeoPoint{Latitude: *lat, Longitude: *lon}, true
	}
	if p.home != nil {
		return *p.home, true
	}
	return model.GeoPoint{}, false
}

func queryLocation(ctx *gin.Context) (*float64, *float64, *api.APIError) {
	parse := func(key string, limit float64) (*float64, *api.APIError) {
		raw := ctx.Query(key)
		if raw == "" {
			return nil, nil
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < -limit || v > limit {
			return nil, api.BadRequest("invalid " + key)
		}
		return &v, nil
	}

	lat, apiErr := parse("latitude", 90)
	if apiErr != nil {
		return nil, nil, apiErr
	}
	lon, apiErr := parse("longitude", 180)
	if apiErr != nil {
		return nil, nil, apiErr
	}
	return lat, lon, nil
}
