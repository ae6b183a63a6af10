package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Alwanly/service-endpoint-dispatch/internal/models"
	"github.com/Alwanly/service-endpoint-dispatch/pkg/failure"
)

// ErrNotFound is returned when no stored endpoint has the requested ID.
var ErrNotFound = errors.New("endpoint not found in store")

type Repository struct {
	DB *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{DB: db}
}

type IRepository interface {
	CreateEndpoint(ctx context.Context, ep *models.Endpoint) error
	CreateEndpointIfAbsent(ctx context.Context, ep *models.Endpoint) (bool, error)
	UpdateEndpoint(ctx context.Context, ep *models.Endpoint) error
	DeleteEndpoint(ctx context.Context, id string) error
	GetEndpoint(ctx context.Context, id string) (*models.Endpoint, error)
	ListEndpoints(ctx context.Context) ([]models.Endpoint, error)
}

var _ IRepository = (*Repository)(nil)

func dbError(operation string, err error) error {
	return failure.NewDatabaseError(fmt.Sprintf("failed to %s endpoint: %v", operation, err), operation, err)
}

func (r *Repository) CreateEndpoint(ctx context.Context, ep *models.Endpoint) error {
	if err := r.DB.WithContext(ctx).Create(ep).Error; err != nil {
		return dbError("create", err)
	}
	return nil
}

// CreateEndpointIfAbsent inserts ep unless its ID is already stored and
// reports whether a row was written.
func (r *Repository) CreateEndpointIfAbsent(ctx context.Context, ep *models.Endpoint) (bool, error) {
	result := r.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(ep)
	if result.Error != nil {
		return false, dbError("create", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *Repository) UpdateEndpoint(ctx context.Context, ep *models.Endpoint) error {
	result := r.DB.WithContext(ctx).
		Model(&models.Endpoint{ID: ep.ID}).
		Select("name", "url", "method", "headers", "updated_at").
		Updates(ep)

	if result.Error != nil {
		return dbError("update", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, ep.ID)
	}
	return nil
}

func (r *Repository) DeleteEndpoint(ctx context.Context, id string) error {
	result := r.DB.WithContext(ctx).Delete(&models.Endpoint{}, "id = ?", id)
	if result.Error != nil {
		return dbError("delete", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (r *Repository) GetEndpoint(ctx context.Context, id string) (*models.Endpoint, error) {
	var ep models.Endpoint
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&ep).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, dbError("get", err)
	}
	return &ep, nil
}

func (r *Repository) ListEndpoints(ctx context.Context) ([]models.Endpoint, error) {
	var eps []models.Endpoint
	if err := r.DB.WithContext(ctx).Order("id ASC").Find(&eps).Error; err != nil {
		return nil, dbError("list", err)
	}
	return eps, nil
}
