package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/yoockh/yoosight/internal/cache"
	"github.com/yoockh/yoosight/internal/models"
	mongorepo "github.com/yoockh/yoosight/internal/repositories/mongo"
	pgrepo "github.com/yoockh/yoosight/internal/repositories/postgres"
	"github.com/yoockh/yoosight/internal/utils"
)

// HistoryService records session outcomes. Writes happen off the coordinator loop and
// failures are only logged.
type HistoryService interface {
	Observe(t models.Transition)
	Get(ctx context.Context, sessionID string) (*models.SessionRecord, error)
	Close()
}

const (
	historyQueueSize = 64
	historyTimeout   = 5 * time.Second
	snapshotTTL      = 24 * time.Hour
)

type historyService struct {
	sessions     mongorepo.SessionRepository
	descriptions pgrepo.DescriptionRepo
	snapshots    cache.Cache
	log          *logrus.Logger

	qmu    sync.RWMutex
	closed bool
	queue  chan models.Transition
	done   chan struct{}
}

func NewHistoryService(sessions mongorepo.SessionRepository, descriptions pgrepo.DescriptionRepo, snapshots cache.Cache, log *logrus.Logger) HistoryService {
	if log == nil {
		log = logrus.New()
	}
	if snapshots == nil {
		snapshots = cache.NewMemoryCache(0)
	}
	s := &historyService{
		sessions:     sessions,
		descriptions: descriptions,
		snapshots:    snapshots,
		log:          log,
		queue:        make(chan models.Transition, historyQueueSize),
		done:         make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *historyService) Observe(t models.Transition) {
	s.qmu.RLock()
	defer s.qmu.RUnlock()
	if s.closed {
		return
	}
	select {
	case s.queue <- t:
	default:
		s.log.WithField("session_id", t.Session.ID).Warn("history queue full, transition dropped")
	}
}

func (s *historyService) Get(ctx context.Context, sessionID string) (*models.SessionRecord, error) {
	const op = "HistoryService.Get"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}

	var rec models.SessionRecord
	hit, err := s.snapshots.GetJSON(ctx, cache.SessionKey(sessionID), &rec)
	if err != nil {
		s.log.WithError(err).Warn("snapshot cache read failed")
	}
	if hit {
		return &rec, nil
	}

	if s.sessions == nil {
		return nil, utils.E(utils.CodeNotFound, op, "session not found", nil)
	}
	out, err := s.sessions.GetBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "session not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get session", err)
	}
	return out, nil
}

func (s *historyService) Close() {
	s.qmu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.qmu.Unlock()
	<-s.done
}

func (s *historyService) run() {
	defer close(s.done)
	for t := range s.queue {
		s.record(t)
	}
}

func (s *historyService) record(t models.Transition) {
	ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
	defer cancel()

	log := s.log.WithFields(logrus.Fields{"session_id": t.Session.ID, "state": t.To})
	rec := toRecord(t.Session)

	switch {
	case t.From == models.StateIdle:
		if s.sessions != nil {
			if err := s.sessions.Create(ctx, rec); err != nil {
				log.WithError(err).Error("failed to create session record")
			}
		}
	case t.To.Terminal():
		if err := s.snapshots.SetJSON(ctx, cache.SessionKey(rec.SessionID), rec, snapshotTTL); err != nil {
			log.WithError(err).Warn("failed to cache session snapshot")
		}
		if s.sessions != nil {
			if err := s.sessions.Finish(ctx, rec); err != nil {
				log.WithError(err).Error("failed to finish session record")
			}
		}
		if t.To == models.StateComplete && s.descriptions != nil {
			if err := s.descriptions.Insert(ctx, toDescription(t.Session)); err != nil {
				log.WithError(err).Error("failed to insert description log")
			}
		}
	default:
		if s.sessions != nil {
			if err := s.sessions.SetStatus(ctx, rec.SessionID, rec.Status); err != nil {
				log.WithError(err).Warn("failed to update session status")
			}
		}
	}
}

func toRecord(cs models.CaptureSession) *models.SessionRecord {
	rec := &models.SessionRecord{
		SessionID:     cs.ID,
		Language:      cs.LanguageCode,
		Status:        string(cs.State),
		FailureCode:   cs.FailureCode,
		FailureReason: cs.FailureReason,
		ChunkCount:    cs.Chunks,
		TextLength:    len(cs.AccumulatedText),
		CreatedAt:     cs.CreatedAt,
		EndedAt:       cs.EndedAt,
	}
	if cs.EndedAt != nil {
		rec.DurationMS = cs.EndedAt.Sub(cs.CreatedAt).Milliseconds()
	}
	return rec
}

func toDescription(cs models.CaptureSession) *models.DescriptionLog {
	md, _ := json.Marshal(map[string]any{
		"chunks":     cs.Chunks,
		"created_at": cs.CreatedAt,
	})
	ts := time.Now().UTC()
	if cs.EndedAt != nil {
		ts = *cs.EndedAt
	}
	return &models.DescriptionLog{
		ID:        uuid.NewString(),
		SessionID: cs.ID,
		Language:  cs.LanguageCode,
		Content:   cs.AccumulatedText,
		Timestamp: ts,
		Metadata:  datatypes.JSON(md),
	}
}
