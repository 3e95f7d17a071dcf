package specification

import (
	"time"

	"gorm.io/gorm"
)

// DateBetween bounds a timestamp column; nil ends are open
type DateBetween struct {
	Column string
	From   *time.Time
	To     *time.Time
}

func (s DateBetween) Apply(db *gorm.DB) *gorm.DB {
	if s.From != nil {
		db = db.Where(s.Column+" >= ?", *s.From)
	}
	if s.To != nil {
		db = db.Where(s.Column+" <= ?", *s.To)
	}
	return db
}

// ValueIn filters a column to a set of values
type ValueIn struct {
	Column string
	Values []string
}

func (s ValueIn) Apply(db *gorm.DB) *gorm.DB {
	if len(s.Values) == 0 {
		return db
	}
	return db.Where(s.Column+" IN ?", s.Values)
}
