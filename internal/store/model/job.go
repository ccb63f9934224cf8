package model

import (
	"time"

	"gorm.io/gorm"
)

// JobRecord is one finished coordinator job as kept in the archive. The
// in-memory history is capped, the archive is not.
type JobRecord struct {
	gorm.Model
	JobID      string `gorm:"not null;uniqueIndex"`
	Kind       string `gorm:"not null"`
	Path       string `gorm:"not null;index"`
	Name       string
	Algorithm  string
	Status     string `gorm:"not null;index"`
	Error      string
	Percent    float64
	StartedAt  time.Time
	FinishedAt time.Time
}
