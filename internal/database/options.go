package database

import (
	"fmt"

	"github.com/paulbrigner/xmonitor/domain/query"
	"gorm.io/gorm"
)

// ApplyOptions builds a query.Query from the given options and applies it
// to a GORM session.
func ApplyOptions(db *gorm.DB, options ...query.Option) *gorm.DB {
	q := query.Build(options...)

	db = applyConditions(db, q)

	for _, ord := range q.Orders() {
		dir := "ASC"
		if !ord.Ascending() {
			dir = "DESC"
		}
		db = db.Order(fmt.Sprintf("%s %s", ord.Field(), dir))
	}

	if q.LimitValue() > 0 {
		db = db.Limit(q.LimitValue())
	}

	if q.OffsetValue() > 0 {
		db = db.Offset(q.OffsetValue())
	}

	return db
}

// ApplyConditions applies only WHERE conditions (no limit/offset/order),
// for COUNT and DELETE statements.
func ApplyConditions(db *gorm.DB, options ...query.Option) *gorm.DB {
	return applyConditions(db, query.Build(options...))
}

func applyConditions(db *gorm.DB, q query.Query) *gorm.DB {
	for _, cond := range q.Conditions() {
		if cond.In() {
			db = db.Where(fmt.Sprintf("%s IN ?", cond.Field()), cond.Value())
		} else {
			db = db.Where(fmt.Sprintf("%s = ?", cond.Field()), cond.Value())
		}
	}
	for _, w := range q.Wheres() {
		db = db.Where(w.Clause(), w.Args()...)
	}
	return db
}
