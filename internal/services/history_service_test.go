package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/yoockh/yoosight/internal/logger"
	"github.com/yoockh/yoosight/internal/models"
	"github.com/yoockh/yoosight/internal/utils"
)

type fakeSessionRepo struct {
	mu       sync.Mutex
	created  []models.SessionRecord
	statuses []string
	finished []models.SessionRecord
}

func (r *fakeSessionRepo) Create(ctx context.Context, s *models.SessionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, *s)
	return nil
}

func (r *fakeSessionRepo) GetBySessionID(ctx context.Context, sessionID string) (*models.SessionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.created {
		if s.SessionID == sessionID {
			out := s
			return &out, nil
		}
	}
	return nil, utils.ErrNotFound
}

func (r *fakeSessionRepo) SetStatus(ctx context.Context, sessionID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, status)
	return nil
}

func (r *fakeSessionRepo) Finish(ctx context.Context, rec *models.SessionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = append(r.finished, *rec)
	return nil
}

func (r *fakeSessionRepo) ListRecent(ctx context.Context, limit int) ([]models.SessionRecord, error) {
	return nil, nil
}

type fakeDescriptionRepo struct {
	mu   sync.Mutex
	rows []models.DescriptionLog
}

func (r *fakeDescriptionRepo) Insert(ctx context.Context, log *models.DescriptionLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, *log)
	return nil
}

func (r *fakeDescriptionRepo) GetBySession(ctx context.Context, sessionID string) (*models.DescriptionLog, error) {
	return nil, utils.ErrNotFound
}

func (r *fakeDescriptionRepo) LatestN(ctx context.Context, n int) ([]models.DescriptionLog, error) {
	return nil, nil
}

func replay(h HistoryService, s models.CaptureSession, states ...models.SessionState) {
	from := models.StateIdle
	for _, to := range states {
		s.State = to
		if to.Terminal() {
			end := s.CreatedAt.Add(1500 * time.Millisecond)
			s.EndedAt = &end
		}
		h.Observe(models.Transition{From: from, To: to, Session: s, At: time.Now()})
		from = to
	}
}

func TestHistoryRecordsCompletedSession(t *testing.T) {
	sessions := &fakeSessionRepo{}
	descriptions := &fakeDescriptionRepo{}
	h := NewHistoryService(sessions, descriptions, nil, logger.Discard())

	s := models.CaptureSession{
		ID:              "11111111-1111-4111-8111-111111111111",
		LanguageCode:    "EN",
		AccumulatedText: "The screen shows a login form.",
		Chunks:          4,
		CreatedAt:       time.Now().UTC(),
	}
	replay(h, s,
		models.StateAwaitingPermission,
		models.StateCapturing,
		models.StateFrameReady,
		models.StateAnalyzing,
		models.StateSpeaking,
		models.StateComplete,
	)
	h.Close()

	if len(sessions.created) != 1 || sessions.created[0].Status != string(models.StateAwaitingPermission) {
		t.Fatalf("created %+v", sessions.created)
	}
	if len(sessions.statuses) != 4 {
		t.Fatalf("status updates %v", sessions.statuses)
	}
	if len(sessions.finished) != 1 {
		t.Fatalf("finished %+v", sessions.finished)
	}
	fin := sessions.finished[0]
	if fin.Status != string(models.StateComplete) || fin.ChunkCount != 4 || fin.DurationMS != 1500 {
		t.Fatalf("finished record %+v", fin)
	}
	if len(descriptions.rows) != 1 || descriptions.rows[0].Content != s.AccumulatedText {
		t.Fatalf("description rows %+v", descriptions.rows)
	}
}

func TestHistoryFailedSessionHasNoDescription(t *testing.T) {
	sessions := &fakeSessionRepo{}
	descriptions := &fakeDescriptionRepo{}
	h := NewHistoryService(sessions, descriptions, nil, logger.Discard())

	s := models.CaptureSession{ID: "s-1", LanguageCode: "EN", CreatedAt: time.Now().UTC(), FailureCode: string(utils.CodePermissionDenied)}
	replay(h, s, models.StateAwaitingPermission, models.StateFailed)
	h.Close()

	if len(descriptions.rows) != 0 {
		t.Fatalf("failed session should not log a description")
	}
	if len(sessions.finished) != 1 || sessions.finished[0].FailureCode != string(utils.CodePermissionDenied) {
		t.Fatalf("finished %+v", sessions.finished)
	}
}

func TestHistoryGetPrefersSnapshot(t *testing.T) {
	h := NewHistoryService(nil, nil, nil, logger.Discard())

	s := models.CaptureSession{ID: "s-2", LanguageCode: "ES", CreatedAt: time.Now().UTC()}
	replay(h, s, models.StateAwaitingPermission, models.StateFailed)
	h.Close()

	rec, err := h.Get(context.Background(), "s-2")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.Language != "ES" || rec.Status != string(models.StateFailed) {
		t.Fatalf("record %+v", rec)
	}
	if _, err := h.Get(context.Background(), "missing"); !utils.IsCode(err, utils.CodeNotFound) {
		t.Fatalf("missing session: %v", err)
	}
	if _, err := h.Get(context.Background(), ""); !utils.IsCode(err, utils.CodeInvalidArgument) {
		t.Fatalf("empty id: %v", err)
	}
}
