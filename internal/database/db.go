package database

import (
	"context"
	"database/sql"
	_ "embed"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

// Schema holds the DDL for accounts, roles, account_roles and members.
//
//go:embed schema.sql
var Schema string

// DSN builds the driver connection string.  parseTime maps DATETIME to
// time.Time, loc=UTC keeps times consistent, and clientFoundRows makes
// RowsAffected count matched rows so an UPDATE that changes nothing is not
// mistaken for a missing row.
func DSN(user, pass, host, port, name string) string {
	cfg := mysql.NewConfig()
	cfg.User = user
	cfg.Passwd = pass
	cfg.Net = "tcp"
	cfg.Addr = host + ":" + port
	cfg.DBName = name
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.ClientFoundRows = true
	cfg.MultiStatements = false
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	return cfg.FormatDSN()
}

// Open connects to MySQL and verifies the connection.  The returned handle is
// shared by every repository and must be closed at shutdown.
func Open(user, pass, host, port, name string, log *zap.Logger) (*sql.DB, error) {
	db, err := sql.Open("mysql", DSN(user, pass, host, port, name))
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Info("mysql connected", zap.String("addr", host+":"+port), zap.String("db", name))
	return db, nil
}

// Migrate applies Schema statement by statement.  Every statement is
// idempotent (CREATE TABLE IF NOT EXISTS), so running it on each start is
// safe.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range statements(Schema) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// statements drops "--" comment lines, then splits the rest on ';'.  Blank
// pieces are skipped.  The DDL contains no ';' inside string literals.
func statements(script string) []string {
	var code []string
	for _, l := range strings.Split(script, "\n") {
		if !strings.HasPrefix(strings.TrimSpace(l), "--") {
			code = append(code, l)
		}
	}
	var out []string
	for _, stmt := range strings.Split(strings.Join(code, "\n"), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
