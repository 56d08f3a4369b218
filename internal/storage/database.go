package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gigglechat/internal/config"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/mattn/go-sqlite3"
)

// Supported dialects.
const (
	SQLite   = "sqlite3"
	MySQL    = "mysql"
	Postgres = "postgres"
)

// DB is a *sql.DB that remembers its dialect so queries written with
// `?` placeholders can run on every supported driver.
type DB struct {
	*sql.DB
	Dialect string
}

// NormalizeDriver maps driver aliases to a dialect name.
func NormalizeDriver(driver string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "mysql":
		return MySQL, nil
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	default:
		return "", fmt.Errorf("unsupported driver: %s", driver)
	}
}

// Open connects to the database configured for dbType.
func Open(dbType string, cfg *config.Config) (*DB, error) {
	dbCfg, ok := cfg.Databases[dbType]
	if !ok {
		return nil, fmt.Errorf("database config for %s not found", dbType)
	}
	dialect, err := NormalizeDriver(dbType)
	if err != nil {
		return nil, err
	}

	var db *sql.DB
	switch dialect {
	case SQLite:
		if dbCfg.DSN == "" {
			return nil, fmt.Errorf("sqlite dsn must be provided")
		}
		db, err = sql.Open("sqlite3", dbCfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite database: %w", err)
		}
		// sqlite serializes writers anyway; one connection also keeps ":memory:" a single database.
		db.SetMaxOpenConns(1)
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable sqlite foreign keys: %w", err)
		}
	case MySQL:
		params := dbCfg.Params
		if params == "" {
			params = "parseTime=true&charset=utf8mb4"
		}
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
			dbCfg.Username,
			dbCfg.Password,
			dbCfg.Host,
			dbCfg.Port,
			dbCfg.DBName,
			params,
		)
		db, err = sql.Open("mysql", dsn)
		if err != nil {
			return nil, fmt.Errorf("open mysql database: %w", err)
		}
	case Postgres:
		dsn := dbCfg.DSN
		if dsn == "" {
			dsn = fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
				dbCfg.Username,
				dbCfg.Password,
				dbCfg.Host,
				dbCfg.Port,
				dbCfg.DBName,
			)
			if dbCfg.Params != "" {
				dsn += "?" + dbCfg.Params
			}
		}
		db, err = sql.Open("pgx", dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres database: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &DB{DB: db, Dialect: dialect}, nil
}

// Rebind rewrites `?` placeholders into the dialect's bind syntax.
func (db *DB) Rebind(query string) string {
	if db.Dialect != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// InsertID runs an INSERT and returns the generated id column.
func (db *DB) InsertID(ctx context.Context, query string, args ...any) (int64, error) {
	if db.Dialect == Postgres {
		var id int64
		if err := db.QueryRowContext(ctx, db.Rebind(query)+" RETURNING id", args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// IsUniqueViolation reports whether err is a unique constraint failure on any supported driver.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// Migrate ensures the required tables are present.
func Migrate(db *DB) error {
	var stmts []string
	switch db.Dialect {
	case SQLite:
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS users (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				username TEXT NOT NULL UNIQUE,
				password_hash TEXT NOT NULL,
				created_at DATETIME NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS characters (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL,
				personality_prompt TEXT NOT NULL,
				avatar TEXT,
				description TEXT
			)`,
		}
	case MySQL:
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS users (
				id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
				username VARCHAR(150) NOT NULL UNIQUE,
				password_hash VARCHAR(255) NOT NULL,
				created_at DATETIME NOT NULL,
				PRIMARY KEY (id)
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE IF NOT EXISTS characters (
				id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
				name VARCHAR(100) NOT NULL,
				personality_prompt MEDIUMTEXT NOT NULL,
				avatar VARCHAR(200),
				description MEDIUMTEXT,
				PRIMARY KEY (id)
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		}
	case Postgres:
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS users (
				id BIGSERIAL PRIMARY KEY,
				username VARCHAR(150) NOT NULL UNIQUE,
				password_hash VARCHAR(255) NOT NULL,
				created_at TIMESTAMPTZ NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS characters (
				id BIGSERIAL PRIMARY KEY,
				name VARCHAR(100) NOT NULL,
				personality_prompt TEXT NOT NULL,
				avatar VARCHAR(200),
				description TEXT
			)`,
		}
	default:
		return fmt.Errorf("unsupported driver for migration: %s", db.Dialect)
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate (%s): %w", db.Dialect, err)
		}
	}
	return nil
}
