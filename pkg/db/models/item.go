package models

import (
	"time"

	"github.com/google/uuid"
)

// Item is one catalog entry with its currently available unit count.
// Stock only moves through the lending engine: Borrow decrements, Return
// increments, restock adjustments go through the catalog service.
type Item struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string    `gorm:"type:text;not null;uniqueIndex" json:"name"`
	Location  string    `gorm:"column:location;not null;default:''" json:"location"`
	Stock     int       `gorm:"column:stock;not null;default:0;check:stock >= 0" json:"stock"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
