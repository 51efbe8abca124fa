// Package voice persists reusable voice profiles so a caller can pin a
// synthesis voice per language across sessions.
package voice

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	platformerrors "github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/platform/errors"
)

// Profile is the GORM model for one stored voice profile.
type Profile struct {
	ID        uint           `gorm:"primaryKey"                             json:"id"`
	Name      string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	Language  string         `gorm:"type:varchar(16);index;not null"        json:"language"`
	Voice     string         `gorm:"type:varchar(255);not null"             json:"voice"`
	Provider  string         `gorm:"type:varchar(64)"                       json:"provider,omitempty"`
	Settings  datatypes.JSON `                                              json:"settings,omitempty"`
	CreatedAt time.Time      `                                              json:"created_at"`
	UpdatedAt time.Time      `                                              json:"updated_at"`
}

// Store provides profile persistence over SQLite.
type Store struct {
	db *gorm.DB
}

// NewStore opens the database at dsn and migrates the profile table.
func NewStore(dsn string) (*Store, error) {
	if dsn == "" {
		dsn = "file:voices.db"
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindStorage, "voice.NewStore", "open database", err)
	}
	if err := db.AutoMigrate(&Profile{}); err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindStorage, "voice.NewStore", "migrate profiles", err)
	}
	return &Store{db: db}, nil
}

// NewStoreWithDB wraps an existing database handle, used by tests.
func NewStoreWithDB(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&Profile{}); err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindStorage, "voice.NewStoreWithDB", "migrate profiles", err)
	}
	return &Store{db: db}, nil
}

// Save creates or updates a profile keyed by name.
func (s *Store) Save(ctx context.Context, profile *Profile) error {
	if profile.Name == "" || profile.Voice == "" {
		return platformerrors.New(platformerrors.KindInvalidState, "voice.Save", "name and voice required")
	}

	var existing Profile
	err := s.db.WithContext(ctx).Where("name = ?", profile.Name).First(&existing).Error
	switch {
	case err == nil:
		profile.ID = existing.ID
		profile.CreatedAt = existing.CreatedAt
		return s.db.WithContext(ctx).Save(profile).Error
	case err == gorm.ErrRecordNotFound:
		return s.db.WithContext(ctx).Create(profile).Error
	default:
		return platformerrors.Wrap(platformerrors.KindStorage, "voice.Save", "lookup profile", err)
	}
}

// Get returns the profile with the given name.
func (s *Store) Get(ctx context.Context, name string) (*Profile, error) {
	var profile Profile
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&profile).Error
	if err == gorm.ErrRecordNotFound {
		return nil, platformerrors.New(platformerrors.KindStorage, "voice.Get",
			fmt.Sprintf("profile not found: %s", name))
	}
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindStorage, "voice.Get", "query profile", err)
	}
	return &profile, nil
}

// List returns all profiles, optionally filtered by language.
func (s *Store) List(ctx context.Context, language string) ([]Profile, error) {
	query := s.db.WithContext(ctx).Order("name")
	if language != "" {
		query = query.Where("language = ?", language)
	}
	var profiles []Profile
	if err := query.Find(&profiles).Error; err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindStorage, "voice.List", "query profiles", err)
	}
	return profiles, nil
}

// Delete removes the profile with the given name.
func (s *Store) Delete(ctx context.Context, name string) error {
	res := s.db.WithContext(ctx).Where("name = ?", name).Delete(&Profile{})
	if res.Error != nil {
		return platformerrors.Wrap(platformerrors.KindStorage, "voice.Delete", "delete profile", res.Error)
	}
	if res.RowsAffected == 0 {
		return platformerrors.New(platformerrors.KindStorage, "voice.Delete",
			fmt.Sprintf("profile not found: %s", name))
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// EncodeSettings marshals arbitrary synthesis settings into the JSON column.
func EncodeSettings(settings map[string]any) (datatypes.JSON, error) {
	if len(settings) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(settings)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
