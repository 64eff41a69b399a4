package endpoints

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/sajda/internal/http/api"
	"github.com/Nixie-Tech-LLC/sajda/internal/http/api/qibla/packets"
	"github.com/Nixie-Tech-LLC/sajda/internal/model"
	"github.com/Nixie-Tech-LLC/sajda/internal/qibla"
)

// FeedbackPublisher pushes feedback to a device over a side channel.
type FeedbackPublisher interface {
	Publish(deviceID string, fb model.Feedback) error
}

type QiblaController struct {
	sessions  *qibla.Sessions
	publisher FeedbackPublisher
}

// QiblaModule mounts the bearing and guidance session endpoints. publisher
// may be nil.
func QiblaModule(sessions *qibla.Sessions, publisher FeedbackPublisher) api.Module {
	ctl := &QiblaController{sessions: sessions, publisher: publisher}
	return api.ModuleFunc(func(c *api.Controller) {
		c.POST("/qibla/bearing", ctl.bearing)

		c.POST("/qibla/sessions", ctl.startSession)
		c.GET("/qibla/sessions/:id", ctl.getSession)
		c.POST("/qibla/sessions/:id/heading", ctl.heading)
		c.DELETE("/qibla/sessions/:id", ctl.endSession)
	})
}

// POST /api/qibla/bearing
func (q *QiblaController) bearing(ctx *gin.Context) (any, *api.APIError) {
	var request packets.LocationRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}

	origin := request.Point()
	return packets.BearingResponse{
		Origin:     origin,
		Target:     model.Kaaba,
		Bearing:    qibla.QiblaBearing(origin),
		DistanceKm: qibla.DistanceKm(origin, model.Kaaba),
	}, nil
}

// POST /api/qibla/sessions
func (q *QiblaController) startSession(ctx *gin.Context) (any, *api.APIError) {
	var request packets.StartSessionRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}

	s := q.sessions.Start(request.DeviceID, request.Point())
	return packets.NewSessionResponse(s), nil
}

// GET /api/qibla/sessions/:id
func (q *QiblaController) getSession(ctx *gin.Context) (any, *api.APIError) {
	s, err := q.sessions.Get(ctx.Param("id"))
	if err != nil {
		return nil, api.NotFound(err.Error())
	}
	return packets.NewSessionResponse(s), nil
}

// POST /api/qibla/sessions/:id/heading
func (q *QiblaController) heading(ctx *gin.Context) (any, *api.APIError) {
	s, err := q.sessions.Get(ctx.Param("id"))
	if err != nil {
		return nil, api.NotFound(err.Error())
	}

	var sample model.HeadingSample
	if err := ctx.ShouldBindJSON(&sample); err != nil {
		return nil, api.BadRequest(err.Error())
	}

	fb := s.Apply(sample)
	if q.publisher != nil && s.DeviceID != "" {
		if err := q.publisher.Publish(s.DeviceID, fb); err != nil {
			log.Warn().Err(err).Str("device", s.DeviceID).Msg("could not forward feedback")
		}
	}
	return fb, nil
}

// DELETE /api/qibla/sessions/:id
func (q *QiblaController) endSession(ctx *gin.Context) (any, *api.APIError) {
	if err := q.sessions.End(ctx.Param("id")); err != nil {
		if errors.Is(err, qibla.ErrSessionNotFound) {
			return nil, api.NotFound(err.Error())
		}
		return nil, api.Internal(err.Error())
	}
	return nil, nil
}
