package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/secret-deus/RAG-Chat/internal/model"
)

type ProviderConfigRepository struct {
	db *gorm.DB
}

func NewProviderConfigRepository(db *gorm.DB) *ProviderConfigRepository {
	return &ProviderConfigRepository{db: db}
}

func (r *ProviderConfigRepository) List() ([]model.ProviderConfig, error) {
	var configs []model.ProviderConfig
	if err := r.db.Order("created_at ASC").Find(&configs).Error; err != nil {
		return nil, fmt.Errorf("list provider configs failed: %w", err)
	}
	return configs, nil
}

func (r *ProviderConfigRepository) GetByID(id uint) (*model.ProviderConfig, error) {
	var cfg model.ProviderConfig
	if err := r.db.First(&cfg, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get provider config failed: %w", err)
	}
	return &cfg, nil
}

// GetActiveByType returns the active config for a capability type, or nil
// when none is active.
func (r *ProviderConfigRepository) GetActiveByType(capability string) (*model.ProviderConfig, error) {
	var cfg model.ProviderConfig
	err := r.db.Where("type = ? AND is_active = ?", capability, true).First(&cfg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get active provider config failed: %w", err)
	}
	return &cfg, nil
}

// Create inserts the config. When it is marked active, the deactivation of
// same-type peers and the insert run in one transaction so two concurrent
// activations cannot both end up active.
func (r *ProviderConfigRepository) Create(cfg *model.ProviderConfig) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if cfg.IsActive {
			if err := tx.Model(&model.ProviderConfig{}).
				Where("type = ?", cfg.Type).
				Update("is_active", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(cfg).Error
	})
	if err != nil {
		return fmt.Errorf("create provider config failed: %w", err)
	}
	return nil
}

// SetActive flips a config's active flag. Activation deactivates all
// same-type peers inside the same transaction.
func (r *ProviderConfigRepository) SetActive(id uint, isActive bool) (*model.ProviderConfig, error) {
	var updated model.ProviderConfig
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&updated, id).Error; err != nil {
			return err
		}
		if isActive {
			if err := tx.Model(&model.ProviderConfig{}).
				Where("type = ? AND id <> ?", updated.Type, id).
				Update("is_active", false).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(&updated).Update("is_active", isActive).Error; err != nil {
			return err
		}
		updated.IsActive = isActive
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("update provider config failed: %w", err)
	}
	return &updated, nil
}
