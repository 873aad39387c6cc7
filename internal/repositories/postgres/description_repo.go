package postgres

import (
	"context"
	"errors"

	"github.com/yoockh/yoosight/internal/models"
	"github.com/yoockh/yoosight/internal/utils"
	"gorm.io/gorm"
)

type DescriptionRepo interface {
	Insert(ctx context.Context, log *models.DescriptionLog) error
	GetBySession(ctx context.Context, sessionID string) (*models.DescriptionLog, error)
	LatestN(ctx context.Context, n int) ([]models.DescriptionLog, error)
}

type descriptionRepo struct {
	db *gorm.DB
}

func NewDescriptionRepo(db *gorm.DB) DescriptionRepo {
	return &descriptionRepo{db: db}
}

func (r *descriptionRepo) Insert(ctx context.Context, log *models.DescriptionLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *descriptionRepo) GetBySession(ctx context.Context, sessionID string) (*models.DescriptionLog, error) {
	var row models.DescriptionLog
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &row, err
}

func (r *descriptionRepo) LatestN(ctx context.Context, n int) ([]models.DescriptionLog, error) {
	if n <= 0 {
		n = 5
	}
	var rows []models.DescriptionLog
	err := r.db.WithContext(ctx).
		Order("timestamp DESC").
		Limit(n).
		Find(&rows).Error
	return rows, err
}
