package properties

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/krisalay/query-cache/internal/errs"
)

var (
	ErrNotFound     = errors.New("property not found")
	ErrInvalidInput = errors.New("invalid property")
)

// Repository is the system of record for properties.
type Repository interface {
	List(ctx context.Context, ownerID string) ([]Property, error)
	Create(ctx context.Context, p *Property) error
	Delete(ctx context.Context, ownerID, id string) error
}

type GormRepository struct {
	db *gorm.DB
}

var _ Repository = (*GormRepository)(nil)

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// Migrate creates or updates the properties table.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(&Property{}); err != nil {
		return errs.Wrap(err, "auto migrate properties")
	}
	return nil
}

func (r *GormRepository) List(ctx context.Context, ownerID string) ([]Property, error) {
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}

	owner := strings.TrimSpace(ownerID)
	if owner == "" {
		return nil, errs.Wrap(ErrInvalidInput, "owner id is required")
	}

	rows := make([]Property, 0)
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", owner).
		Order("created_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrapf(err, "list properties of owner %q", owner)
	}
	return rows, nil
}

// Create assigns an ID when p has none and inserts it.
func (r *GormRepository) Create(ctx context.Context, p *Property) error {
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	p.OwnerID = strings.TrimSpace(p.OwnerID)
	p.Name = strings.TrimSpace(p.Name)
	if p.OwnerID == "" || p.Name == "" {
		return errs.Wrap(ErrInvalidInput, "owner id and name are required")
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return errs.Wrap(err, "insert property")
	}
	return nil
}

func (r *GormRepository) Delete(ctx context.Context, ownerID, id string) error {
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	res := r.db.WithContext(ctx).
		Where("owner_id = ? AND id = ?", ownerID, id).
		Delete(&Property{})
	if res.Error != nil {
		return errs.Wrap(res.Error, "delete property")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
