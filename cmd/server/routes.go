package main

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/sajda/internal/config"
	"github.com/Nixie-Tech-LLC/sajda/internal/http/api"
	prayerapi "github.com/Nixie-Tech-LLC/sajda/internal/http/api/prayers/endpoints"
	qiblaapi "github.com/Nixie-Tech-LLC/sajda/internal/http/api/qibla/endpoints"
	syncapi "github.com/Nixie-Tech-LLC/sajda/internal/http/api/sync/endpoints"
	"github.com/Nixie-Tech-LLC/sajda/internal/mqtt"
	"github.com/Nixie-Tech-LLC/sajda/internal/qibla"
)

// Services are the long-lived components the HTTP modules are built on.
type Services struct {
	Sessions   *qibla.Sessions
	Feed       *mqtt.HeadingFeed
	Boundary   prayerapi.Tracker
	Timings    prayerapi.TimingsSource
	Dispatcher syncapi.Dispatcher
	Queue      syncapi.PendingLister
}

// RegisterRoutes sets up all application routes
func RegisterRoutes(r *gin.Engine, cfg *config.Config, svc Services) {
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool { return true },
		AllowMethods: []string{
			"GET",
			"POST",
			"PUT",
			"DELETE",
			"OPTIONS",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Authorization",
			"Accept",
		},
		ExposeHeaders: []string{
			"Content-Length",
		},
		AllowCredentials: false,
	}))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// a nil *mqtt.HeadingFeed must not become a non-nil interface
	var publisher qiblaapi.FeedbackPublisher
	if svc.Feed != nil {
		publisher = svc.Feed
	}

	api.MountGroup(r, api.GroupConfig{
		Prefix: "/api",
	},
		qiblaapi.QiblaModule(svc.Sessions, publisher),
	)

	api.MountGroup(r, api.GroupConfig{
		Prefix:    "/api",
		Auth:      true,
		SecretKey: cfg.SecretKey,
	},
		prayerapi.PrayerModule(svc.Boundary, svc.Timings, cfg.Home),
		syncapi.SyncModule(svc.Dispatcher, svc.Queue, cfg.SyncUserID),
	)
}
