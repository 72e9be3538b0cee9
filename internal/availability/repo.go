package availability

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bakehouse-labs/bakehouse-backend/pkg/db/models"
)

const windowSettingKey = "ordering_window"

// Repository persists the ordering window in the settings table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetWindow(ctx context.Context) (*Window, error)
	SaveWindow(ctx context.Context, window Window) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an availability repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// GetWindow returns the stored window, or nil when none has been configured.
func (r *repository) GetWindow(ctx context.Context) (*Window, error) {
	var setting models.Setting
	err := r.db.WithContext(ctx).
		Where("key = ?", windowSettingKey).
		First(&setting).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	var window Window
	if err := json.Unmarshal([]byte(setting.Value), &window); err != nil {
		return nil, fmt.Errorf("decode ordering window: %w", err)
	}
	return &window, nil
}

func (r *repository) SaveWindow(ctx context.Context, window Window) error {
	payload, err := json.Marshal(window)
	if err != nil {
		return fmt.Errorf("encode ordering window: %w", err)
	}
	setting := models.Setting{Key: windowSettingKey, Value: string(payload)}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&setting).Error
}
