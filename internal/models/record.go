package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SessionRecord is the Mongo history document for one capture session.
type SessionRecord struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID string             `bson:"session_id" json:"session_id"` // uuid v4

	Language string `bson:"language" json:"language"`
	Status   string `bson:"status" json:"status"` // one of SessionState

	FailureCode   string `bson:"failure_code,omitempty" json:"failure_code,omitempty"`
	FailureReason string `bson:"failure_reason,omitempty" json:"failure_reason,omitempty"`
	ChunkCount    int    `bson:"chunk_count" json:"chunk_count"`
	TextLength    int    `bson:"text_length" json:"text_length"`

	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	EndedAt   *time.Time `bson:"ended_at,omitempty" json:"ended_at,omitempty"`

	DurationMS int64 `bson:"duration_ms" json:"duration_ms"`
}
