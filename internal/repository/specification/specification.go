package specification

import "gorm.io/gorm"

// Specification narrows or shapes one query. Repositories apply them in
// the order given.
type Specification interface {
	Apply(db *gorm.DB) *gorm.DB
}

func ApplyAll(db *gorm.DB, specs ...Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}
