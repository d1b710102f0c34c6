package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// User represents an account that owns trips. Credential handling lives
// outside this service; sessions and API keys reference users by id.
type User struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Email     string         `gorm:"not null;uniqueIndex" json:"email"`
	Name      string         `json:"name"`
}

// Trip represents a user-owned travel plan spanning a date range
type Trip struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	UserID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Name        string         `gorm:"not null" json:"name"`
	Description string         `json:"description"`
	StartDate   *time.Time     `json:"start_date"`
	EndDate     *time.Time     `json:"end_date"`
	IsPublic    bool           `gorm:"not null;default:false" json:"is_public"`
	ShareCode   string         `gorm:"not null;uniqueIndex" json:"share_code"`

	// Storage-layer cascade is a backstop only; the service deletes
	// dependents explicitly before the trip.
	Places []Place         `gorm:"foreignKey:TripID;constraint:OnDelete:CASCADE" json:"-"`
	Items  []ItineraryItem `gorm:"foreignKey:TripID;constraint:OnDelete:CASCADE" json:"-"`
}

// Place represents a named, geolocated point of interest attached to a trip
type Place struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	TripID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"trip_id"`
	Name        string         `gorm:"not null" json:"name"`
	Description string         `json:"description"`
	Category    string         `json:"category"`
	Latitude    float64        `gorm:"not null" json:"latitude"`
	Longitude   float64        `gorm:"not null" json:"longitude"`
	Address     string         `json:"address"`
}

// TagList is an ordered list of tags stored as a jsonb column
type TagList []string

// Value implements driver.Valuer
func (t TagList) Value() (driver.Value, error) {
	if t == nil {
		return "[]", nil
	}
	data, err := json.Marshal(t)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal tag list")
	}
	return string(data), nil
}

// Scan implements sql.Scanner
func (t *TagList) Scan(value interface{}) error {
	if value == nil {
		*t = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported tag list column type %T", value)
	}
	if len(data) == 0 {
		*t = nil
		return nil
	}
	return errors.Wrap(json.Unmarshal(data, t), "failed to unmarshal tag list")
}

// GormDataType tells GORM which column type to migrate
func (TagList) GormDataType() string {
	return "jsonb"
}

// ItineraryItem is a scheduled activity on a given day of a trip,
// optionally linked to a Place. OrderIndex defines display order within
// (TripID, DayNumber); uniqueness there is an operational contract kept by
// the mutation paths, not a database constraint.
type ItineraryItem struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	TripID      uuid.UUID      `gorm:"type:uuid;not null;index:idx_itinerary_trip_day" json:"trip_id"`
	PlaceID     *uuid.UUID     `gorm:"type:uuid" json:"place_id"`
	Title       string         `gorm:"not null" json:"title"`
	Description string         `json:"description"`
	StartTime   string         `gorm:"not null" json:"start_time"`
	EndTime     string         `gorm:"not null" json:"end_time"`
	DayNumber   int            `gorm:"not null;index:idx_itinerary_trip_day" json:"day_number"`
	OrderIndex  int            `gorm:"not null" json:"order_index"`
	Tags        TagList        `gorm:"type:jsonb" json:"tags"`
}

// ItineraryItemView is the read projection of an item with denormalized
// place fields joined in
type ItineraryItemView struct {
	ItineraryItem `gorm:"embedded"`
	PlaceName     *string  `gorm:"column:place_name" json:"place_name,omitempty"`
	Latitude      *float64 `gorm:"column:latitude" json:"latitude,omitempty"`
	Longitude     *float64 `gorm:"column:longitude" json:"longitude,omitempty"`
	Address       *string  `gorm:"column:address" json:"address,omitempty"`
}

// APIKey represents an API token granting the external binding access as
// its owning user
type APIKey struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
	Key        string         `gorm:"not null;uniqueIndex" json:"key"`
	Name       string         `json:"name"`
	UserID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	ExpiresAt  *time.Time     `json:"expires_at"`
	LastUsedAt *time.Time     `json:"last_used_at"`
}

// SetupModels configures GORM models and runs migrations
func SetupModels(db *gorm.DB) error {
	// Apply all migrations
	err := db.AutoMigrate(
		&User{},
		&Trip{},
		&Place{},
		&ItineraryItem{},
		&APIKey{},
	)

	if err != nil {
		return errors.Wrap(err, "failed to run auto migrations")
	}

	return nil
}
