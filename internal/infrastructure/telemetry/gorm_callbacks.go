package telemetry

import (
	"context"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"gorm.io/gorm"
)

type startTimeKey string

// statementStart returns a before-callback that stamps the statement context with the current time
func statementStart(key startTimeKey) func(*gorm.DB) {
	return func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		db.Statement.Context = context.WithValue(ctx, key, time.Now())
	}
}

// statementElapsed reads the stamp left by statementStart
func statementElapsed(db *gorm.DB, key startTimeKey) (time.Duration, bool) {
	if db.Statement.Context == nil {
		return 0, false
	}
	start, ok := db.Statement.Context.Value(key).(time.Time)
	if !ok {
		return 0, false
	}
	return time.Since(start), true
}

// registerAround hooks before and after every gorm processor under the given name prefix.
// after receives the SQL verb of the processor; row and raw statements get "" and are classified by sqlVerb.
func registerAround(db *gorm.DB, prefix string, before func(*gorm.DB), after func(verb string) func(*gorm.DB)) error {
	cb := db.Callback()
	var merr *multierror.Error
	merr = multierror.Append(merr,
		cb.Create().Before("gorm:create").Register(prefix+":before_create", before),
		cb.Query().Before("gorm:query").Register(prefix+":before_query", before),
		cb.Update().Before("gorm:update").Register(prefix+":before_update", before),
		cb.Delete().Before("gorm:delete").Register(prefix+":before_delete", before),
		cb.Row().Before("gorm:row").Register(prefix+":before_row", before),
		cb.Raw().Before("gorm:raw").Register(prefix+":before_raw", before),

		cb.Create().After("gorm:create").Register(prefix+":after_create", after("INSERT")),
		cb.Query().After("gorm:query").Register(prefix+":after_query", after("SELECT")),
		cb.Update().After("gorm:update").Register(prefix+":after_update", after("UPDATE")),
		cb.Delete().After("gorm:delete").Register(prefix+":after_delete", after("DELETE")),
		cb.Row().After("gorm:row").Register(prefix+":after_row", after("")),
		cb.Raw().After("gorm:raw").Register(prefix+":after_raw", after("")),
	)
	return merr.ErrorOrNil()
}

// sqlVerb classifies a statement by its leading keyword
func sqlVerb(sql string) string {
	sql = strings.ToUpper(strings.TrimSpace(sql))
	for _, verb := range []string{"SELECT", "INSERT", "UPDATE", "DELETE"} {
		if strings.HasPrefix(sql, verb) {
			return verb
		}
	}
	return "OTHER"
}
