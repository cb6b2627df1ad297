package shared

import (
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	mysqldriver "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverSQLite   = "sqlite3"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// Dialect captures the driver-specific parts of query text.
type Dialect struct {
	Driver string
}

// DialectFor returns the [Dialect] for a database/sql driver name.
// An empty name selects sqlite3.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "", DriverSQLite:
		return Dialect{Driver: DriverSQLite}, nil
	case DriverMySQL, DriverPostgres:
		return Dialect{Driver: driver}, nil
	default:
		return Dialect{}, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
}

// Placeholder returns the bind parameter marker for the n-th (1-based) argument.
func (d Dialect) Placeholder(n int) string {
	if d.Driver == DriverPostgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// Rebind rewrites "?" markers in query to the dialect's placeholder style.
//
// Queries passed here must not contain literal question marks.
func (d Dialect) Rebind(query string) string {
	if d.Driver != DriverPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString(d.Placeholder(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// BuildDSN constructs the driver-specific connection string for cfg.
func BuildDSN(cfg DatabaseConfig) (string, error) {
	dialect, err := DialectFor(cfg.Driver)
	if err != nil {
		return "", err
	}

	switch dialect.Driver {
	case DriverMySQL:
		return buildMySQLDSN(cfg)
	case DriverPostgres:
		return buildPostgresDSN(cfg)
	default:
		if cfg.URL != "" {
			return cfg.URL, nil
		}
		if cfg.Path == "" {
			return "", fmt.Errorf("%w: sqlite3 requires database.path", ErrInvalidConfig)
		}
		return cfg.Path, nil
	}
}

func buildMySQLDSN(cfg DatabaseConfig) (string, error) {
	var mc *mysqldriver.Config
	if cfg.URL != "" {
		parsed, err := mysqldriver.ParseDSN(cfg.URL)
		if err != nil {
			return "", fmt.Errorf("%w: invalid mysql url: %v", ErrInvalidConfig, err)
		}
		mc = parsed
	} else {
		port := cfg.Port
		if port <= 0 {
			port = 3306
		}
		mc = mysqldriver.NewConfig()
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(port))
		mc.DBName = cfg.Name
	}

	if cfg.Username != "" {
		mc.User = cfg.Username
	}
	if cfg.Password != "" {
		mc.Passwd = cfg.Password
	}
	mc.AllowNativePasswords = true

	return mc.FormatDSN(), nil
}

func buildPostgresDSN(cfg DatabaseConfig) (string, error) {
	if cfg.URL != "" {
		if !strings.HasPrefix(cfg.URL, "postgres://") && !strings.HasPrefix(cfg.URL, "postgresql://") {
			return cfg.URL, nil
		}
		u, err := url.Parse(cfg.URL)
		if err != nil {
			return "", fmt.Errorf("%w: invalid postgres url: %v", ErrInvalidConfig, err)
		}
		if cfg.Username != "" {
			if cfg.Password != "" {
				u.User = url.UserPassword(cfg.Username, cfg.Password)
			} else {
				u.User = url.User(cfg.Username)
			}
		}
		return u.String(), nil
	}

	port := cfg.Port
	if port <= 0 {
		port = 5432
	}

	parts := []string{
		"host=" + quoteConnValue(cfg.Host),
		"port=" + strconv.Itoa(port),
		"dbname=" + quoteConnValue(cfg.Name),
		"sslmode=disable",
	}
	if cfg.Username != "" {
		parts = append(parts, "user="+quoteConnValue(cfg.Username))
	}
	if cfg.Password != "" {
		parts = append(parts, "password="+quoteConnValue(cfg.Password))
	}

	return strings.Join(parts, " "), nil
}

// quoteConnValue quotes a libpq key/value connection parameter.
func quoteConnValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// NewDatabase opens a connection to a SQLite database at the specified path.
// The path can be ":memory:" for an in-memory database.
// Returns an open database connection or an error if connection fails.
func NewDatabase(path string) (*sql.DB, error) {
	return openAndPing(DriverSQLite, path)
}

// OpenDatabase opens and pings the database described by cfg, returning it with its [Dialect].
func OpenDatabase(cfg DatabaseConfig) (*sql.DB, Dialect, error) {
	dialect, err := DialectFor(cfg.Driver)
	if err != nil {
		return nil, Dialect{}, err
	}

	dsn, err := BuildDSN(cfg)
	if err != nil {
		return nil, Dialect{}, err
	}

	db, err := openAndPing(dialect.Driver, dsn)
	if err != nil {
		return nil, Dialect{}, err
	}
	return db, dialect, nil
}

func openAndPing(driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// ConfigureDatabase sets connection pool settings for the database.
//
// The lookup server passes maxIdleConns = 0 so every handler's executor connection is closed on release.
func ConfigureDatabase(db *sql.DB, maxOpenConns, maxIdleConns int) {
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
}
