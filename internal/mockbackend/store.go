// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mockbackend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

// ErrUserNotFound is returned by FindUser for unknown usernames.
var ErrUserNotFound = errors.New("user not found")

var schemas = map[string][]string{
	DriverSQLite: {
		`CREATE TABLE IF NOT EXISTS users (
			username      TEXT PRIMARY KEY,
			name          TEXT NOT NULL,
			role          TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			totp_secret   TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS incidents (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			title      TEXT NOT NULL,
			severity   TEXT NOT NULL,
			status     TEXT NOT NULL,
			created_at TEXT NOT NULL DEFAULT ''
		)`,
	},
	DriverMySQL: {
		`CREATE TABLE IF NOT EXISTS users (
			username      VARCHAR(128) PRIMARY KEY,
			name          VARCHAR(255) NOT NULL,
			role          VARCHAR(64) NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			totp_secret   VARCHAR(128) NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS incidents (
			id         BIGINT AUTO_INCREMENT PRIMARY KEY,
			title      VARCHAR(512) NOT NULL,
			severity   VARCHAR(32) NOT NULL,
			status     VARCHAR(64) NOT NULL,
			created_at VARCHAR(40) NOT NULL DEFAULT ''
		)`,
	},
}

var upsertUser = map[string]string{
	DriverSQLite: `INSERT INTO users (username, name, role, password_hash, totp_secret) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(username) DO UPDATE SET name = excluded.name, role = excluded.role,
		password_hash = excluded.password_hash, totp_secret = excluded.totp_secret`,
	DriverMySQL: `INSERT INTO users (username, name, role, password_hash, totp_secret) VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE name = VALUES(name), role = VALUES(role),
		password_hash = VALUES(password_hash), totp_secret = VALUES(totp_secret)`,
}

// User is a stored account.
type User struct {
	Username     string
	Name         string
	Role         string
	PasswordHash string
	TOTPSecret   string
}

// Incident is a stored incident, in the shape the list route returns.
type Incident struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Severity  string `json:"severity"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Store holds users and incidents in sqlite or MySQL.
type Store struct {
	db     *sql.DB
	driver string
}

// OpenStore connects to the configured database and creates the schema.
func OpenStore(cfg DatabaseConfig) (*Store, error) {
	var (
		db  *sql.DB
		err error
	)
	switch cfg.Driver {
	case DriverSQLite:
		db, err = sql.Open("sqlite", cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// One connection: an in-memory database exists per connection.
		db.SetMaxOpenConns(1)
	case DriverMySQL:
		db, err = openMySQL(cfg)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}

	s := &Store{db: db, driver: cfg.Driver}
	for _, stmt := range schemas[cfg.Driver] {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}
	return s, nil
}

func openMySQL(c DatabaseConfig) (*sql.DB, error) {
	cfg := gomysql.NewConfig()
	cfg.User = c.User
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", c.Host, c.Port)
	cfg.DBName = c.Name

	connector, err := gomysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("create connector: %w", err)
	}
	db := sql.OpenDB(connector)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return db, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Seed creates or updates the configured users and, when the incident
// table is empty, inserts the configured incidents.
func (s *Store) Seed(ctx context.Context, cfg Config) error {
	for _, u := range cfg.Users {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", u.Username, err)
		}
		name := u.Name
		if name == "" {
			name = u.Username
		}
		err = s.PutUser(ctx, User{
			Username:     u.Username,
			Name:         name,
			Role:         u.Role,
			PasswordHash: string(hash),
			TOTPSecret:   u.TOTPSecret,
		})
		if err != nil {
			return err
		}
	}

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM incidents`).Scan(&n); err != nil {
		return fmt.Errorf("count incidents: %w", err)
	}
	if n > 0 {
		return nil
	}
	for _, inc := range cfg.Incidents {
		_, err := s.AddIncident(ctx, Incident{
			Title:     inc.Title,
			Severity:  inc.Severity,
			Status:    inc.Status,
			CreatedAt: inc.CreatedAt,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// PutUser inserts or replaces an account.
func (s *Store) PutUser(ctx context.Context, u User) error {
	_, err := s.db.ExecContext(ctx, upsertUser[s.driver], u.Username, u.Name, u.Role, u.PasswordHash, u.TOTPSecret)
	if err != nil {
		return fmt.Errorf("put user %s: %w", u.Username, err)
	}
	return nil
}

// FindUser returns the account for username.
func (s *Store) FindUser(ctx context.Context, username string) (*User, error) {
	var u User
	err := s.db.QueryRowContext(ctx,
		`SELECT username, name, role, password_hash, totp_secret FROM users WHERE username = ?`, username,
	).Scan(&u.Username, &u.Name, &u.Role, &u.PasswordHash, &u.TOTPSecret)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

// ListIncidents returns every incident, newest first.
func (s *Store) ListIncidents(ctx context.Context) ([]Incident, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, severity, status, created_at FROM incidents ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}
	defer rows.Close()

	out := []Incident{}
	for rows.Next() {
		var inc Incident
		if err := rows.Scan(&inc.ID, &inc.Title, &inc.Severity, &inc.Status, &inc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan incident: %w", err)
		}
		out = append(out, inc)
	}
	return out, rows.Err()
}

// AddIncident stores inc and returns it with its assigned ID.
func (s *Store) AddIncident(ctx context.Context, inc Incident) (Incident, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO incidents (title, severity, status, created_at) VALUES (?, ?, ?, ?)`,
		inc.Title, inc.Severity, inc.Status, inc.CreatedAt)
	if err != nil {
		return inc, fmt.Errorf("add incident: %w", err)
	}
	inc.ID, err = res.LastInsertId()
	if err != nil {
		return inc, fmt.Errorf("add incident: %w", err)
	}
	return inc, nil
}

// timestamp formats t the way created_at is stored.
func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
