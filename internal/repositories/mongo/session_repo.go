package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/yoockh/yoosight/internal/models"
	"github.com/yoockh/yoosight/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type SessionRepository interface {
	Create(ctx context.Context, s *models.SessionRecord) error
	GetBySessionID(ctx context.Context, sessionID string) (*models.SessionRecord, error)
	SetStatus(ctx context.Context, sessionID, status string) error
	Finish(ctx context.Context, rec *models.SessionRecord) error
	ListRecent(ctx context.Context, limit int) ([]models.SessionRecord, error)
}

type sessionRepo struct {
	col *mongo.Collection
}

func NewSessionRepo(db *mongo.Database) SessionRepository {
	return &sessionRepo{col: db.Collection("capture_sessions")}
}

func (r *sessionRepo) Create(ctx context.Context, s *models.SessionRecord) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	_, err := r.col.InsertOne(ctx, s)
	return err
}

func (r *sessionRepo) GetBySessionID(ctx context.Context, sessionID string) (*models.SessionRecord, error) {
	var s models.SessionRecord
	err := r.col.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	return &s, err
}

func (r *sessionRepo) SetStatus(ctx context.Context, sessionID, status string) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"session_id": sessionID},
		bson.M{"$set": bson.M{"status": status}},
	)
	return err
}

// Finish records the terminal outcome. It upserts so a lost Create does not lose the outcome.
func (r *sessionRepo) Finish(ctx context.Context, rec *models.SessionRecord) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"session_id": rec.SessionID},
		bson.M{
			"$set": bson.M{
				"status":         rec.Status,
				"failure_code":   rec.FailureCode,
				"failure_reason": rec.FailureReason,
				"chunk_count":    rec.ChunkCount,
				"text_length":    rec.TextLength,
				"ended_at":       rec.EndedAt,
				"duration_ms":    rec.DurationMS,
			},
			"$setOnInsert": bson.M{
				"language":   rec.Language,
				"created_at": rec.CreatedAt,
			},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

func (r *sessionRepo) ListRecent(ctx context.Context, limit int) ([]models.SessionRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	cur, err := r.col.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(int64(limit)),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.SessionRecord
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
