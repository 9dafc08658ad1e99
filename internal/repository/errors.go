// Package repository is the MySQL implementation of the Entity Store. One
// XxxRepo per table runs its queries either on the pool or on the
// transaction carried by the context (see Store.WithTx); Store bundles the
// repos behind the method set the ledger depends on.
//
// Driver failures are translated into the model taxonomy here so higher
// layers never inspect MySQL error numbers.
package repository

import (
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
)

// MySQL server error numbers the repositories react to.
const (
	mysqlDuplicateEntry  uint16 = 1062
	mysqlLockWaitTimeout uint16 = 1205
	mysqlDeadlock        uint16 = 1213
)

// isDuplicateKey reports whether err is a unique key violation.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// isRetryable reports whether err is a lock wait timeout or a deadlock, both
// of which roll back the whole transaction on the server.
func isRetryable(err error) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return false
	}
	return me.Number == mysqlDeadlock || me.Number == mysqlLockWaitTimeout
}

// notFound swaps sql.ErrNoRows for the given sentinel.
func notFound(err, sentinel error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel
	}
	return err
}
