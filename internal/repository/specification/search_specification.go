package specification

import (
	"strings"

	"gorm.io/gorm"
)

// KeywordSearch matches rows where any word appears in any column.
// Uses ILIKE, so Postgres only.
type KeywordSearch struct {
	Columns []string
	Words   []string
}

func (s KeywordSearch) Apply(db *gorm.DB) *gorm.DB {
	if len(s.Columns) == 0 || len(s.Words) == 0 {
		return db
	}

	var clauses []string
	var args []interface{}
	for _, word := range s.Words {
		pattern := "%" + escapeLike(word) + "%"
		for _, col := range s.Columns {
			clauses = append(clauses, col+" ILIKE ?")
			args = append(args, pattern)
		}
	}
	return db.Where("("+strings.Join(clauses, " OR ")+")", args...)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
