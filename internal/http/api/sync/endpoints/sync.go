package endpoints

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/sajda/internal/http/api"
	"github.com/Nixie-Tech-LLC/sajda/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/sajda/internal/model"
	"github.com/Nixie-Tech-LLC/sajda/internal/syncer"
)

type Dispatcher interface {
	SyncPendingItems(ctx context.Context) syncer.Result
}

type PendingLister interface {
	ListPending(ctx context.Context) ([]model.SyncQueueItem, error)
}

type SyncController struct {
	dispatcher Dispatcher
	queue      PendingLister
	owner      string
}

type pendingResponse struct {
	Count int                   `json:"count"`
	Items []model.SyncQueueItem `json:"items"`
}

// SyncModule exposes the queue and an on-demand dispatch. When owner is set
// only tokens issued for that subject may use it.
func SyncModule(dispatcher Dispatcher, queue PendingLister, owner string) api.Module {
	ctl := &SyncController{dispatcher: dispatcher, queue: queue, owner: owner}
	return api.ModuleFunc(func(c *api.Controller) {
		c.POST("/sync", ctl.sync)
		c.GET("/sync/pending", ctl.pending)
	})
}

func (s *SyncController) authorize(ctx *gin.Context) *api.APIError {
	if s.owner == "" {
		return nil
	}
	subject, ok := middleware.CurrentSubject(ctx)
	if !ok || subject != s.owner {
		log.Warn().Str("subject", subject).Msg("sync request from another subject")
		return &api.APIError{Code: http.StatusForbidden, Message: "token subject does not own this queue"}
	}
	return nil
}

// POST /api/sync
func (s *SyncController) sync(ctx *gin.Context) (any, *api.APIError) {
	if apiErr := s.authorize(ctx); apiErr != nil {
		return nil, apiErr
	}
	res := s.dispatcher.SyncPendingItems(ctx.Request.Context())
	if res.Errors == nil {
		res.Errors = []string{}
	}
	return res, nil
}

// GET /api/sync/pending
func (s *SyncController) pending(ctx *gin.Context) (any, *api.APIError) {
	if apiErr := s.authorize(ctx); apiErr != nil {
		return nil, apiErr
	}
	items, err := s.queue.ListPending(ctx.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to list sync queue")
		return nil, api.Internal("could not read sync queue")
	}
	if items == nil {
		items = []model.SyncQueueItem{}
	}
	return pendingResponse{Count: len(items), Items: items}, nil
}
