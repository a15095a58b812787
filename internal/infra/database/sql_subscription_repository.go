package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"shabbat_deactivate/internal/domain/subscription"

	"github.com/sirupsen/logrus"
)

const (
	subscriptionsTable = "hebcal_shabbat_email"
	bouncesTable       = "hebcal_shabbat_bounce"

	// maxAddressesPerStatement bounds the size of each IN (...) list.
	maxAddressesPerStatement = 500
)

// Dialect selects the bind parameter syntax of the underlying driver.
type Dialect int

const (
	DialectMySQL    Dialect = iota // ?
	DialectPostgres                // $1, $2, ...
)

// DialectFor maps a database/sql driver name to its Dialect.
func DialectFor(driverName string) Dialect {
	if driverName == "postgres" {
		return DialectPostgres
	}
	return DialectMySQL
}

func (d Dialect) placeholder(n int) string {
	if d == DialectPostgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// placeholders returns count comma-separated parameters numbered from start.
func (d Dialect) placeholders(start, count int) string {
	parts := make([]string, count)
	for i := range parts {
		parts[i] = d.placeholder(start + i)
	}
	return strings.Join(parts, ", ")
}

type SQLSubscriptionRepository struct {
	db      *sql.DB
	dialect Dialect
	logger  logrus.FieldLogger
}

func NewSQLSubscriptionRepository(db *sql.DB, dialect Dialect, logger logrus.FieldLogger) *SQLSubscriptionRepository {
	return &SQLSubscriptionRepository{db: db, dialect: dialect, logger: logger}
}

func (r *SQLSubscriptionRepository) bounceGroupsQuery(reasonCount int) string {
	return fmt.Sprintf(`
SELECT b.email_address, b.std_reason, COUNT(1) AS count
FROM %s e
JOIN %s b ON e.email_address = b.email_address
WHERE e.email_status = %s
AND b.std_reason IN (%s)
AND b.deactivated = %s
GROUP BY b.email_address, b.std_reason
ORDER BY b.email_address, b.std_reason`,
		subscriptionsTable, bouncesTable,
		r.dialect.placeholder(1),
		r.dialect.placeholders(2, reasonCount),
		r.dialect.placeholder(2+reasonCount))
}

func (r *SQLSubscriptionRepository) ListBounceGroups(ctx context.Context, reasons []string) ([]subscription.BounceGroup, error) {
	groups := make([]subscription.BounceGroup, 0)
	if len(reasons) == 0 {
		return groups, nil
	}

	query := r.bounceGroupsQuery(len(reasons))
	args := make([]interface{}, 0, len(reasons)+2)
	args = append(args, string(subscription.StatusActive))
	for _, reason := range reasons {
		args = append(args, reason)
	}
	args = append(args, false)

	r.logger.WithField("reasons", strings.Join(reasons, ",")).Info(query)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing bounce groups: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var g subscription.BounceGroup
		if err := rows.Scan(&g.EmailAddress, &g.StdReason, &g.Count); err != nil {
			return nil, fmt.Errorf("error scanning bounce group: %w", err)
		}
		groups = append(groups, g)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bounce groups: %w", err)
	}
	return groups, nil
}

// Deactivate applies both updates in one transaction and rolls back if either fails.
func (r *SQLSubscriptionRepository) Deactivate(ctx context.Context, addresses []string) error {
	if len(addresses) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting deactivation transaction: %w", err)
	}

	subsStmt := fmt.Sprintf("UPDATE %s SET email_status = %%s WHERE email_address IN (%%s)", subscriptionsTable)
	if err := r.updateInChunks(ctx, tx, subsStmt, string(subscription.StatusBounce), addresses); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("error updating subscription status: %w", err)
	}

	bouncesStmt := fmt.Sprintf("UPDATE %s SET deactivated = %%s WHERE email_address IN (%%s)", bouncesTable)
	if err := r.updateInChunks(ctx, tx, bouncesStmt, true, addresses); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("error flagging bounces as deactivated: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing deactivation: %w", err)
	}
	return nil
}

// updateInChunks runs stmtFormat once per chunk of addresses. The format takes
// the value placeholder followed by the address list placeholders.
func (r *SQLSubscriptionRepository) updateInChunks(ctx context.Context, tx *sql.Tx, stmtFormat string, value interface{}, addresses []string) error {
	for start := 0; start < len(addresses); start += maxAddressesPerStatement {
		end := start + maxAddressesPerStatement
		if end > len(addresses) {
			end = len(addresses)
		}
		chunk := addresses[start:end]

		stmt := fmt.Sprintf(stmtFormat, r.dialect.placeholder(1), r.dialect.placeholders(2, len(chunk)))
		args := make([]interface{}, 0, len(chunk)+1)
		args = append(args, value)
		for _, addr := range chunk {
			args = append(args, addr)
		}

		res, err := tx.ExecContext(ctx, stmt, args...)
		if err != nil {
			return err
		}
		if affected, err := res.RowsAffected(); err == nil {
			r.logger.WithField("rows", affected).Debug(stmt)
		}
	}
	return nil
}
