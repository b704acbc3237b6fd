// Package menu is the read path over the persisted IVR menu graph, plus the
// helpers used to seed it.
package menu

import (
	"context"
	"errors"
	"fmt"

	"ivr-flow/internal/models"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("menu: not found")

// Repository resolves menu nodes by identifier. Inactive nodes are
// reported as ErrNotFound.
type Repository interface {
	Get(ctx context.Context, menuID string) (*models.MenuNode, error)
}

// GormRepository reads menu_configurations through gorm.
type GormRepository struct {
	DB *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{DB: db}
}

func (r *GormRepository) Get(ctx context.Context, menuID string) (*models.MenuNode, error) {
	if menuID == "" {
		return nil, ErrNotFound
	}
	var node models.MenuNode
	err := r.DB.WithContext(ctx).
		Where("menu_id = ? AND is_active = ?", menuID, true).
		First(&node).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query menu %s: %w", menuID, err)
	}
	return &node, nil
}

// ListActive returns every active node ordered by priority then id.
func (r *GormRepository) ListActive(ctx context.Context) ([]models.MenuNode, error) {
	var nodes []models.MenuNode
	if err := r.DB.WithContext(ctx).
		Where("is_active = ?", true).
		Order("priority DESC, menu_id ASC").
		Find(&nodes).Error; err != nil {
		return nil, fmt.Errorf("list menus: %w", err)
	}
	return nodes, nil
}
