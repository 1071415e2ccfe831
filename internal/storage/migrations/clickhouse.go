package migrations

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	chstore "solana-credit-lab/internal/storage/clickhouse"
)

// RunClickhouseMigrations creates the database named in dsn if needed and
// applies every embedded statement. Returns a connection to that database.
func RunClickhouseMigrations(ctx context.Context, dsn string) (*chstore.Conn, error) {
	dbName, err := databaseFromDSN(dsn)
	if err != nil {
		return nil, err
	}

	admin, err := chstore.NewConnWithDatabase(ctx, dsn, "")
	if err != nil {
		return nil, fmt.Errorf("connect clickhouse admin: %w", err)
	}
	createErr := admin.Exec(ctx, "CREATE DATABASE IF NOT EXISTS "+dbName)
	if err := errors.Join(createErr, admin.Close()); err != nil {
		return nil, fmt.Errorf("create database %s: %w", dbName, err)
	}

	conn, err := chstore.NewConn(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect clickhouse db: %w", err)
	}

	files, err := load(ClickhouseFS, "clickhouse")
	if err != nil {
		conn.Close()
		return nil, err
	}

	for _, m := range files {
		stmts, err := splitStatements(m.SQL)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("split migration %s: %w", m.Name, err)
		}
		// The native driver runs one statement per Exec.
		for _, stmt := range stmts {
			if err := conn.Exec(ctx, stmt); err != nil {
				conn.Close()
				return nil, fmt.Errorf("apply migration %s: %w", m.Name, err)
			}
		}
	}

	return conn, nil
}

// splitStatements drops -- comment lines and splits on semicolons.
// Semicolons inside single-quoted literals are rejected.
func splitStatements(input string) ([]string, error) {
	var (
		lines    []string
		inString bool
	)
	for _, line := range strings.Split(input, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		for i := 0; i < len(line); i++ {
			switch {
			case line[i] == '\'' && i+1 < len(line) && line[i+1] == '\'':
				i++
			case line[i] == '\'':
				inString = !inString
			case line[i] == ';' && inString:
				return nil, errors.New("semicolon inside string literal")
			}
		}
		lines = append(lines, line)
	}

	var stmts []string
	for _, part := range strings.Split(strings.Join(lines, "\n"), ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts, nil
}

// databaseFromDSN returns the database path segment of a clickhouse DSN.
func databaseFromDSN(dsn string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse clickhouse dsn: %w", err)
	}
	db := strings.TrimPrefix(u.Path, "/")
	if db == "" {
		return "", errors.New("clickhouse dsn missing database")
	}
	for _, r := range db {
		if !(r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return "", fmt.Errorf("invalid clickhouse database name %q", db)
		}
	}
	return db, nil
}
