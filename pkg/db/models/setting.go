package models

import "time"

// Setting is a key/value row for operational state such as the ordering
// window. Values are JSON documents owned by the reading service.
type Setting struct {
	Key       string    `gorm:"column:key;primaryKey"`
	Value     string    `gorm:"column:value;type:jsonb;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
