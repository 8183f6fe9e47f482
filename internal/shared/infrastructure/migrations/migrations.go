// Package migrations applies the embedded schema for the configured driver.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/felixgeelhaar/tempo/internal/shared/infrastructure/database"
)

//go:embed sqlite/*.sql postgres/*.sql
var files embed.FS

const createVersionTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
    version    TEXT PRIMARY KEY,
    applied_at TEXT NOT NULL
)`

// Run applies every pending .up.sql file for conn's driver in name order and
// returns the versions it applied. Each file runs in its own transaction.
func Run(ctx context.Context, conn database.Connection) ([]string, error) {
	names, err := upFiles(conn.Driver())
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(ctx, createVersionTable); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}

	applied, err := appliedVersions(ctx, conn)
	if err != nil {
		return nil, err
	}

	var ran []string
	for _, name := range names {
		version := strings.TrimSuffix(name, ".up.sql")
		if applied[version] {
			continue
		}
		if err := apply(ctx, conn, name, version); err != nil {
			return ran, err
		}
		ran = append(ran, version)
	}
	return ran, nil
}

// Versions lists the migrations bundled for driver.
func Versions(driver database.Driver) ([]string, error) {
	names, err := upFiles(driver)
	if err != nil {
		return nil, err
	}
	versions := make([]string, len(names))
	for i, name := range names {
		versions[i] = strings.TrimSuffix(name, ".up.sql")
	}
	return versions, nil
}

func upFiles(driver database.Driver) ([]string, error) {
	if !driver.IsValid() {
		return nil, fmt.Errorf("no migrations for driver %q", driver)
	}
	entries, err := fs.ReadDir(files, driver.String())
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func appliedVersions(ctx context.Context, conn database.Connection) (map[string]bool, error) {
	rows, err := conn.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

func apply(ctx context.Context, conn database.Connection, name, version string) error {
	body, err := files.ReadFile(conn.Driver().String() + "/" + name)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", name, err)
	}

	uow := database.NewUnitOfWork(conn)
	txCtx, err := uow.Begin(ctx)
	if err != nil {
		return err
	}

	exec := database.ExecutorFromContext(txCtx, conn)
	for _, stmt := range statements(string(body)) {
		if _, err := exec.Exec(txCtx, stmt); err != nil {
			_ = uow.Rollback(txCtx)
			return fmt.Errorf("migration %s: %w", name, err)
		}
	}
	if _, err := exec.Exec(txCtx, `INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`,
		version, database.TimeArg(time.Now())); err != nil {
		_ = uow.Rollback(txCtx)
		return fmt.Errorf("record migration %s: %w", name, err)
	}
	return uow.Commit(txCtx)
}

// statements splits a migration on semicolons at line ends. The bundled
// files never put a semicolon inside a literal.
func statements(body string) []string {
	var out []string
	for _, part := range strings.Split(body, ";\n") {
		part = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(part), ";"))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
