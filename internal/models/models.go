package models

import "time"

// Notification kinds. The log only ever carries these three.
const (
	KindInfo    = "info"
	KindWarning = "warning"
	KindSuccess = "success"
)

// Product is a stocked item. StockActuel must never go below zero; the
// services enforce this before any write.
type Product struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	Name        string  `gorm:"size:255;not null" json:"name"`
	Type        string  `gorm:"size:100" json:"type,omitempty"`
	MinStock    int     `gorm:"column:min_stock;not null;default:0" json:"min_stock"`
	StockActuel int     `gorm:"column:stock_actuel;not null;default:0" json:"stock_actuel"`
	Unite       string  `gorm:"size:50" json:"unite,omitempty"`
	ImageURI    *string `gorm:"column:image_uri" json:"image_uri,omitempty"`
}

// Notification is one immutable row of the activity log. Rows are only ever
// appended, or removed all at once by the gated full-clear.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:255" json:"title"`
	Message   string    `gorm:"size:1024" json:"message"`
	Kind      string    `gorm:"size:20" json:"kind"` // info, warning, success
	CreatedAt time.Time `json:"created_at"`
}

// KVEntry is a single named durable slot. The session manager keeps the
// serialized current session under one well-known key.
type KVEntry struct {
	Key   string `gorm:"primaryKey;size:64"`
	Value string `gorm:"size:2048"`
}
