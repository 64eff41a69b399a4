package qibla

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/sajda/internal/model"
)

var ErrSessionNotFound = errors.New("guidance session not found")

// Session is one open compass screen: a fixed origin, its Qibla bearing and
// the hysteresis state for the heading ticks it receives.
type Session struct {
	ID         string         `json:"id"`
	DeviceID   string         `json:"device_id"`
	Origin     model.GeoPoint `json:"origin"`
	Bearing    float64        `json:"bearing"`
	DistanceKm float64        `json:"distance_km"`
	StartedAt  time.Time      `json:"started_at"`

	mu       sync.Mutex
	guidance *Guidance
	last     model.Feedback
}

func newSession(deviceID string, origin model.GeoPoint) *Session {
	return &Session{
		ID:         uuid.NewString(),
		DeviceID:   deviceID,
		Origin:     origin,
		Bearing:    QiblaBearing(origin),
		DistanceKm: DistanceKm(origin, model.Kaaba),
		StartedAt:  time.Now().UTC(),
		guidance:   NewGuidance(),
		last:       model.Feedback{FeedbackLevel: model.Far},
	}
}

// Apply feeds one heading sample through the session's reducer.
func (s *Session) Apply(sample model.HeadingSample) model.Feedback {
	s.mu.Lock()
	defer s.mu.Unlock()

	bearing := s.Bearing
	s.last = s.guidance.Update(sample.Heading, &bearing)
	return s.last
}

// Last returns the most recent feedback.
func (s *Session) Last() model.Feedback {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Sessions tracks open guidance sessions by id.
type Sessions struct {
	mu       sync.RWMutex
	byID     map[string]*Session
	byDevice map[string]string
}

func NewSessions() *Sessions {
	return &Sessions{
		byID:     make(map[string]*Session),
		byDevice: make(map[string]string),
	}
}

// Start opens a session. A device keeps at most one session; starting a new
// one replaces the old one so the level starts again from Far.
func (r *Sessions) Start(deviceID string, origin model.GeoPoint) *Session {
	s := newSession(deviceID, origin)

	r.mu.Lock()
	defer r.mu.Unlock()

	if deviceID != "" {
		if prev, ok := r.byDevice[deviceID]; ok {
			delete(r.byID, prev)
		}
		r.byDevice[deviceID] = s.ID
	}
	r.byID[s.ID] = s

	log.Debug().Str("session", s.ID).Str("device", deviceID).
		Float64("bearing", s.Bearing).Msg("guidance session started")
	return s
}

func (r *Sessions) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byID[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// ForDevice returns the open session of a device.
func (r *Sessions) ForDevice(deviceID string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byDevice[deviceID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return r.byID[id], nil
}

// End closes a session.
func (r *Sessions) End(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byID[id]
	if !ok {
		return ErrSessionNotFound
	}
	delete(r.byID, id)
	if r.byDevice[s.DeviceID] == id {
		delete(r.byDevice, s.DeviceID)
	}
	log.Debug().Str("session", id).Msg("guidance session ended")
	return nil
}

// Count returns the number of open sessions.
func (r *Sessions) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
