package history

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/salestier-cli/internal/utils"
	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

// ErrUnsupportedDriver is returned for a history driver other than sqlite,
// mysql or postgres.
var ErrUnsupportedDriver = errors.New("unsupported history driver")

// Driver names accepted by database/sql for each backend.
const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// normalizeDriver maps user-facing driver aliases to a database/sql driver name.
func normalizeDriver(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "sqlite", "sqlite3":
		return DriverSQLite, nil
	case "mysql", "mariadb":
		return DriverMySQL, nil
	case "postgres", "postgresql", "pq":
		return DriverPostgres, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDriver, name)
	}
}

// resolveDSN turns the configured DSN into the form the driver expects.
func resolveDSN(driver, dsn string) (string, error) {
	switch driver {
	case DriverSQLite:
		if dsn == "" {
			dir, err := utils.AppDir()
			if err != nil {
				return "", err
			}
			if err := utils.EnsureDir(dir); err != nil {
				return "", err
			}
			return filepath.Join(dir, "history.db"), nil
		}
		return utils.ExpandHome(dsn)
	case DriverMySQL:
		return toMySQLDSN(dsn)
	case DriverPostgres:
		if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
			kv, err := pq.ParseURL(dsn)
			if err != nil {
				return "", fmt.Errorf("parse dsn: %w", err)
			}
			return kv, nil
		}
		return dsn, nil
	}
	return dsn, nil
}

// toMySQLDSN converts mariadb:// or mysql:// URLs to the driver's native
// DSN. Anything else passes through unchanged.
func toMySQLDSN(dsn string) (string, error) {
	if !strings.HasPrefix(dsn, "mariadb://") && !strings.HasPrefix(dsn, "mysql://") {
		return dsn, nil
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse dsn: %w", err)
	}
	cfg := mysql.NewConfig()
	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Passwd, _ = u.User.Password()
	}
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	if cfg.User == "" || cfg.Addr == "" || cfg.DBName == "" {
		return "", errors.New("incomplete dsn (user/host/db)")
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.InterpolateParams = true
	return cfg.FormatDSN(), nil
}

// rebind rewrites ? placeholders to $1, $2, ... for postgres.
func rebind(driver, query string) string {
	if driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
