package models

import "time"

type Product struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"not null;size:120;uniqueIndex" json:"name"`
	Description string         `gorm:"not null;size:600" json:"description"`
	Price       float64        `gorm:"not null" json:"price"`
	Images      []ProductImage `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"images"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// ProductImage is owned by its product. DeleteHandle is the opaque key the
// media host needs to remove the asset; it is empty for the placeholder
// image, which is not remotely hosted by us.
type ProductImage struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ProductID    uint      `gorm:"not null;index" json:"-"`
	URL          string    `gorm:"not null;size:500" json:"url"`
	DeleteHandle string    `gorm:"size:200" json:"-"`
	CreatedAt    time.Time `json:"-"`
}
