package postgres

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/exam-session-engine/internal/repositories"
)

var sortableResultColumns = map[string]string{
	"submitted_at": "submitted_at",
	"percentage":   "percentage",
	"grade":        "grade",
}

func applyPaginationAndSort(query *gorm.DB, sortBy, sortOrder string, limit, offset int) *gorm.DB {
	column, ok := sortableResultColumns[sortBy]
	if !ok {
		column = "submitted_at"
	}
	order := "desc"
	if sortOrder == "asc" {
		order = "asc"
	}
	query = query.Order(fmt.Sprintf("%s %s", column, order))

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	return query
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repositories.ErrNotFound
	}
	return err
}
