package storage

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

var mysqlDialect = sqlDialect{
	name: "mysql",
	schema: `CREATE TABLE IF NOT EXISTS ul_entries (
        namespace VARCHAR(16) NOT NULL,
        id BINARY(32) NOT NULL,
        data LONGBLOB NOT NULL,
        updated_at BIGINT NOT NULL,
        PRIMARY KEY (namespace, id)
)`,
	upsert: `INSERT INTO ul_entries (namespace, id, data, updated_at) VALUES (?, ?, ?, ?)
        ON DUPLICATE KEY UPDATE data = VALUES(data), updated_at = VALUES(updated_at)`,
}

// MySQLBackend stores entries in a MySQL table.
type MySQLBackend struct {
	*sqlBackend
}

// NewMySQLBackend connects using a go-sql-driver config and creates the table if missing.
func NewMySQLBackend(cfg *mysql.Config, log *slog.Logger) (*MySQLBackend, error) {
	if cfg == nil || strings.TrimSpace(cfg.DBName) == "" {
		return nil, fmt.Errorf("MySQL database name must not be empty")
	}

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(10 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
	}

	uri := fmt.Sprintf("mysql://%s/%s", cfg.Addr, cfg.DBName)
	if cfg.User != "" {
		uri = fmt.Sprintf("mysql://%s:***@%s/%s", cfg.User, cfg.Addr, cfg.DBName)
	}

	inner, err := newSQLBackend(db, mysqlDialect, cfg.DBName, uri, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &MySQLBackend{sqlBackend: inner}, nil
}

// MySQLConfigFromURI converts host, credentials and database of a mysql:// location
// into a driver config. Extra query parameters are passed to the driver unchanged.
func MySQLConfigFromURI(host, user, password, dbName string, params map[string]string) *mysql.Config {
	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = host
	if !strings.Contains(host, ":") {
		cfg.Addr = host + ":3306"
	}
	cfg.User = user
	cfg.Passwd = password
	cfg.DBName = strings.Trim(dbName, "/")
	cfg.ParseTime = true
	if len(params) > 0 {
		cfg.Params = params
	}
	return cfg
}
