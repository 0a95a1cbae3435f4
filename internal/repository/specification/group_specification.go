package specification

import (
	"strings"

	"gorm.io/gorm"
)

// GroupBy groups on the given columns.
type GroupBy struct {
	Fields []string
}

func (s GroupBy) Apply(db *gorm.DB) *gorm.DB {
	if len(s.Fields) == 0 {
		return db
	}
	return db.Group(strings.Join(s.Fields, ", "))
}
