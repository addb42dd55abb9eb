package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"bin-status-backend/internal/model"
)

// ErrNotFound is returned by Get and Update when no record exists at the
// given key.
var ErrNotFound = errors.New("bin record not found")

// Store is the persistence boundary for bin records. Records are
// addressed by their document path ("<location>/Bin-<id>"); Set is a
// full overwrite, Update is a merge-patch that touches only the named
// columns.
type Store interface {
	Get(ctx context.Context, key model.BinKey) (*model.Bin, error)
	Set(ctx context.Context, bin *model.Bin) error
	Update(ctx context.Context, key model.BinKey, fields map[string]any) error
	List(ctx context.Context, location string) ([]model.Bin, error)
	ListAll(ctx context.Context) ([]model.Bin, error)

	// DB exposes the underlying connection for collaborators that need
	// direct queries (subscription handlers, notification workers).
	DB() *gorm.DB
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Get(ctx context.Context, key model.BinKey) (*model.Bin, error) {
	var bin model.Bin
	err := s.db.WithContext(ctx).Where("path = ?", key.Path()).First(&bin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read bin record %s: %w", key.Path(), err)
	}
	return &bin, nil
}

func (s *gormStore) Set(ctx context.Context, bin *model.Bin) error {
	bin.Path = bin.Key().Path()
	if err := s.db.WithContext(ctx).Save(bin).Error; err != nil {
		return fmt.Errorf("failed to write bin record %s: %w", bin.Path, err)
	}
	return nil
}

func (s *gormStore) Update(ctx context.Context, key model.BinKey, fields map[string]any) error {
	res := s.db.WithContext(ctx).Model(&model.Bin{}).Where("path = ?", key.Path()).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("failed to patch bin record %s: %w", key.Path(), res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormStore) List(ctx context.Context, location string) ([]model.Bin, error) {
	var bins []model.Bin
	err := s.db.WithContext(ctx).Where("location = ?", location).Order("bin_id").Find(&bins).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list bins for location %q: %w", location, err)
	}
	return bins, nil
}

func (s *gormStore) ListAll(ctx context.Context) ([]model.Bin, error) {
	var bins []model.Bin
	err := s.db.WithContext(ctx).Order("path").Find(&bins).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list bins: %w", err)
	}
	return bins, nil
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}
