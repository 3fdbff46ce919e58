package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

type schemaType string

const (
	schemaTypeTable   schemaType = "table"
	schemaTypeIndex   schemaType = "index"
	schemaTypeTrigger schemaType = "trigger"
)

// migrateTo converges the live schema to schemaDefinition declaratively.
//
// The target schema is created in an attached in-memory database and compared against the live
// one. Removed objects are dropped, new ones created and changed tables rebuilt with the
// 12-step procedure from https://www.sqlite.org/lang_altertable.html#otheralter, copying the
// columns both versions share. Based on https://david.rothlis.net/declarative-schema-migration-for-sqlite/.
func (db *Database) migrateTo(ctx context.Context, schemaDefinition string) (err error) {
	start := time.Now()

	detach, err := db.attachSchemaTarget(ctx, schemaDefinition)
	if err != nil {
		return fmt.Errorf("attach schema target database: %w", err)
	}
	defer detach()

	// Foreign keys cannot be toggled inside a transaction and the single read-write connection
	// guarantees the pragma applies to the transaction below.
	if _, err = db.ReadWrite.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		return fmt.Errorf("disable foreign key validation: %w", err)
	}
	defer func() {
		if _, fkErr := db.ReadWrite.ExecContext(ctx, "PRAGMA foreign_keys = ON"); fkErr != nil {
			err = errors.Join(err, fmt.Errorf("re-enable foreign key validation: %w", fkErr))
		}
	}()

	tx, err := db.ReadWrite.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("start transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			err = errors.Join(err, fmt.Errorf("rollback transaction: %w", rbErr))
		}
	}()

	// Tables go first because rebuilding a table drops its indexes and triggers.
	for _, typ := range []schemaType{schemaTypeTable, schemaTypeIndex, schemaTypeTrigger} {
		if err = db.migrateSchema(ctx, tx, typ); err != nil {
			return fmt.Errorf("migrate %ss: %w", typ, err)
		}
	}

	var violations []string
	if violations, err = queryColumn[string](ctx, tx, "SELECT \"table\" FROM pragma_foreign_key_check"); err != nil {
		return fmt.Errorf("foreign key check: %w", err)
	}
	if len(violations) > 0 {
		return fmt.Errorf("foreign key violations in tables %s", strings.Join(violations, ", "))
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	db.logger.LogAttrs(ctx, slog.LevelInfo, "migrated database", slog.Duration("duration", time.Since(start)))
	return nil
}

// attachSchemaTarget attaches an in-memory database initialised with schemaDefinition as
// schemaTarget. The returned function detaches it.
func (db *Database) attachSchemaTarget(ctx context.Context, schemaDefinition string) (func(), error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", rand.Text())
	// The target database must stay open until it is attached, otherwise the shared cache is gone.
	target, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open schema target database: %w", err)
	}
	defer func() {
		if closeErr := target.Close(); closeErr != nil {
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to close schema target database",
				slog.Any("error", closeErr))
		}
	}()
	if _, err = target.ExecContext(ctx, schemaDefinition); err != nil {
		return nil, fmt.Errorf("create schema target: %w", err)
	}
	if _, err = db.ReadWrite.ExecContext(ctx, "ATTACH DATABASE ? AS schemaTarget", dsn); err != nil {
		return nil, fmt.Errorf("attach: %w", err)
	}
	return func() {
		if _, detachErr := db.ReadWrite.ExecContext(ctx, "DETACH DATABASE schemaTarget"); detachErr != nil {
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to detach schema target database",
				slog.Any("error", detachErr))
		}
	}, nil
}

const (
	// The rename of a rebuilt table adds quotes around its name so quotes are ignored in diffs.
	deletedQuery = `SELECT live.name
FROM sqlite_schema AS live
         LEFT JOIN schemaTarget.sqlite_schema AS target ON live.name = target.name AND live.type = target.type
WHERE live.type = ? AND target.type IS NULL AND live.name NOT LIKE 'sqlite_%'`
	createdQuery = `SELECT target.sql
FROM schemaTarget.sqlite_schema AS target
         LEFT JOIN sqlite_schema AS live ON live.name = target.name AND live.type = target.type
WHERE target.type = ? AND live.type IS NULL AND target.name NOT LIKE 'sqlite_%'`
	changedQuery = `SELECT live.name, target.sql
FROM sqlite_schema AS live
         JOIN schemaTarget.sqlite_schema AS target ON live.name = target.name AND live.type = target.type
WHERE live.type = ? AND live.name NOT LIKE 'sqlite_%'
  AND REPLACE(live.sql, '"', '') <> REPLACE(target.sql, '"', '')`
)

// migrateSchema synchronises all objects of typ between the live and target schemas.
func (db *Database) migrateSchema(ctx context.Context, tx *sql.Tx, typ schemaType) error {
	logger := db.logger.With(slog.String("schemaType", string(typ)))

	deleted, err := queryColumn[string](ctx, tx, deletedQuery, typ)
	if err != nil {
		return fmt.Errorf("query deleted: %w", err)
	}
	for _, name := range deleted {
		dropSQL := fmt.Sprintf("DROP %s IF EXISTS %s;", strings.ToUpper(string(typ)), name)
		logger.LogAttrs(ctx, slog.LevelInfo, "dropping", slog.String("query", dropSQL))
		if _, err = tx.ExecContext(ctx, dropSQL); err != nil {
			return fmt.Errorf("drop %s: %w", name, err)
		}
	}

	created, err := queryColumn[string](ctx, tx, createdQuery, typ)
	if err != nil {
		return fmt.Errorf("query created: %w", err)
	}
	for _, createSQL := range created {
		logger.LogAttrs(ctx, slog.LevelInfo, "creating", slog.String("query", createSQL))
		if _, err = tx.ExecContext(ctx, createSQL); err != nil {
			return fmt.Errorf("create: %w", err)
		}
	}

	changed, err := queryChanged(ctx, tx, typ)
	if err != nil {
		return fmt.Errorf("query changed: %w", err)
	}
	for _, c := range changed {
		logger.LogAttrs(ctx, slog.LevelInfo, "migrating", slog.String("name", c.name), slog.String("new_sql", c.newSQL))
		if typ == schemaTypeTable {
			err = rebuildTable(ctx, tx, c)
		} else {
			_, err = tx.ExecContext(ctx, fmt.Sprintf("DROP %s %s; %s", strings.ToUpper(string(typ)), c.name, c.newSQL))
		}
		if err != nil {
			return fmt.Errorf("migrate %s: %w", c.name, err)
		}
	}
	return nil
}

type changedSchema struct {
	name   string
	newSQL string
}

func queryChanged(ctx context.Context, tx *sql.Tx, typ schemaType) (_ []changedSchema, err error) {
	rows, err := tx.QueryContext(ctx, changedQuery, typ)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer func() {
		err = errors.Join(err, rows.Close())
	}()
	var changed []changedSchema
	for rows.Next() {
		var c changedSchema
		if err = rows.Scan(&c.name, &c.newSQL); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		changed = append(changed, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return changed, nil
}

// rebuildTable creates the new table under a temporary name, copies the common columns over,
// drops the old table and renames the new one in its place.
func rebuildTable(ctx context.Context, tx *sql.Tx, c changedSchema) error {
	tempName := c.name + "_migration_temp"
	if _, err := tx.ExecContext(ctx, strings.Replace(c.newSQL, c.name, tempName, 1)); err != nil {
		return fmt.Errorf("create temporary table: %w", err)
	}

	// Quoted in case a column name is an SQLite keyword.
	columns, err := queryColumn[string](ctx, tx, `SELECT '"' || target.name || '"'
FROM PRAGMA_TABLE_INFO(:table_name) AS live
JOIN PRAGMA_TABLE_INFO(:table_name, 'schemaTarget') AS target ON target.name = live.name`,
		sql.Named("table_name", c.name))
	if err != nil {
		return fmt.Errorf("query common columns: %w", err)
	}
	common := strings.Join(columns, ", ")

	for _, stmt := range []string{
		fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s;", tempName, common, common, c.name),
		fmt.Sprintf("DROP TABLE %s;", c.name),
		fmt.Sprintf("ALTER TABLE %s RENAME TO %s;", tempName, c.name),
	} {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt, err)
		}
	}
	return nil
}

// queryColumn returns the single column produced by query.
func queryColumn[T any](ctx context.Context, tx *sql.Tx, query string, args ...any) (_ []T, err error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer func() {
		err = errors.Join(err, rows.Close())
	}()
	var results []T
	for rows.Next() {
		var v T
		if err = rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		results = append(results, v)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return results, nil
}
