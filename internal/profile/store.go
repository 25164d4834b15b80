// Package profile persists saved portal profiles in a local SQLite database
// through GORM.
package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tvlink/tvlink/internal/models"
)

// ErrNotFound is returned when no profile matches the lookup.
var ErrNotFound = errors.New("profile not found")

// ErrDuplicateName is returned when a profile name is already taken.
var ErrDuplicateName = errors.New("profile name already exists")

// Store provides CRUD access to saved profiles.
type Store struct {
	db  *gorm.DB
	log *slog.Logger
}

// Open opens (creating if needed) the profile database at path and runs
// migrations.
func Open(path string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening profile database: %w", err)
	}

	if err := db.AutoMigrate(&models.Profile{}); err != nil {
		return nil, fmt.Errorf("migrating profile database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("accessing underlying database: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Debug("profile database opened", "path", path)
	return &Store{db: db, log: log}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("accessing underlying database: %w", err)
	}
	return sqlDB.Close()
}

// Create saves a new profile. The profile is validated first and the name
// must be unused.
func (s *Store) Create(ctx context.Context, p *models.Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Profile{}).Where("name = ?", p.Name).Count(&count).Error; err != nil {
		return fmt.Errorf("checking profile name: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateName, p.Name)
	}

	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("creating profile: %w", err)
	}
	return nil
}

// GetByName retrieves a profile by its unique name.
func (s *Store) GetByName(ctx context.Context, name string) (*models.Profile, error) {
	var p models.Profile
	if err := s.db.WithContext(ctx).Where("name = ?", name).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("getting profile by name: %w", err)
	}
	return &p, nil
}

// GetAll retrieves all saved profiles ordered by name.
func (s *Store) GetAll(ctx context.Context) ([]*models.Profile, error) {
	var profiles []*models.Profile
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("getting all profiles: %w", err)
	}
	return profiles, nil
}

// Update updates an existing profile.
func (s *Store) Update(ctx context.Context, p *models.Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Save(p).Error; err != nil {
		return fmt.Errorf("updating profile: %w", err)
	}
	return nil
}

// Delete removes a profile by name. Removal is permanent so the name can be
// reused immediately.
func (s *Store) Delete(ctx context.Context, name string) error {
	result := s.db.WithContext(ctx).Unscoped().Where("name = ?", name).Delete(&models.Profile{})
	if result.Error != nil {
		return fmt.Errorf("deleting profile: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}
