package models

import (
	"time"

	"gorm.io/datatypes"
)

// DescriptionLog stores each spoken screen description.
type DescriptionLog struct {
	ID        string         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SessionID string         `gorm:"column:session_id;type:uuid;uniqueIndex" json:"session_id"`
	Language  string         `gorm:"column:language;type:text" json:"language"`
	Content   string         `gorm:"column:content;type:text" json:"content"`
	Timestamp time.Time      `gorm:"column:timestamp;type:timestamptz;index" json:"timestamp"`
	Metadata  datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata"`
}

func (DescriptionLog) TableName() string { return "description_logs" }
