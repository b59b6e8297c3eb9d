package database

import (
	"fmt"

	"github.com/emberline/guildhall/domain/store"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ApplyOptions applies the conditions, ordering and paging of a store query
// to a gorm session.
func ApplyOptions(db *gorm.DB, options ...store.Option) *gorm.DB {
	q := store.Build(options...)
	db = applyConditions(db, q)

	for _, ord := range q.Orders() {
		db = db.Order(clause.OrderByColumn{Column: clause.Column{Name: ord.Field()}, Desc: ord.Descending()})
	}

	if q.Limit() > 0 {
		db = db.Limit(q.Limit())
	}
	if q.Offset() > 0 {
		db = db.Offset(q.Offset())
	}
	return db
}

// ApplyConditions applies only WHERE conditions, for COUNT queries.
func ApplyConditions(db *gorm.DB, options ...store.Option) *gorm.DB {
	return applyConditions(db, store.Build(options...))
}

func applyConditions(db *gorm.DB, q store.Query) *gorm.DB {
	for _, cond := range q.Conditions() {
		switch cond.Op() {
		case store.OpIn:
			db = db.Where(fmt.Sprintf("%s IN ?", cond.Field()), cond.Value())
		case store.OpContains:
			db = db.Where(fmt.Sprintf("LOWER(%s) LIKE LOWER(?)", cond.Field()), fmt.Sprintf("%%%v%%", cond.Value()))
		case store.OpRaw:
			db = db.Where(cond.Field(), cond.Args()...)
		default:
			db = db.Where(fmt.Sprintf("%s = ?", cond.Field()), cond.Value())
		}
	}
	return db
}
