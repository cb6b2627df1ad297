package shared

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestDialect(t *testing.T) {
	t.Run("DialectFor", func(t *testing.T) {
		tt := []struct {
			driver string
			want   string
		}{
			{"", DriverSQLite},
			{"sqlite3", DriverSQLite},
			{"mysql", DriverMySQL},
			{"postgres", DriverPostgres},
		}
		for _, tc := range tt {
			d, err := DialectFor(tc.driver)
			if err != nil {
				t.Fatalf("DialectFor(%q) error = %v", tc.driver, err)
			}
			if d.Driver != tc.want {
				t.Errorf("DialectFor(%q) = %q, want %q", tc.driver, d.Driver, tc.want)
			}
		}

		if _, err := DialectFor("oracle"); !errors.Is(err, ErrUnsupportedDriver) {
			t.Errorf("expected ErrUnsupportedDriver, got %v", err)
		}
	})

	t.Run("Rebind", func(t *testing.T) {
		query := "SELECT a FROM t WHERE x = ? AND y = ?"

		if got := (Dialect{Driver: DriverSQLite}).Rebind(query); got != query {
			t.Errorf("sqlite Rebind changed query: %q", got)
		}
		if got := (Dialect{Driver: DriverMySQL}).Rebind(query); got != query {
			t.Errorf("mysql Rebind changed query: %q", got)
		}

		want := "SELECT a FROM t WHERE x = $1 AND y = $2"
		if got := (Dialect{Driver: DriverPostgres}).Rebind(query); got != want {
			t.Errorf("postgres Rebind = %q, want %q", got, want)
		}
	})

	t.Run("Placeholder", func(t *testing.T) {
		if got := (Dialect{Driver: DriverPostgres}).Placeholder(3); got != "$3" {
			t.Errorf("postgres Placeholder(3) = %q", got)
		}
		if got := (Dialect{Driver: DriverSQLite}).Placeholder(3); got != "?" {
			t.Errorf("sqlite Placeholder(3) = %q", got)
		}
	})
}

func TestBuildDSN(t *testing.T) {
	tt := []struct {
		name    string
		cfg     DatabaseConfig
		want    string
		check   func(t *testing.T, dsn string)
		wantErr error
	}{
		{
			name: "sqlite path",
			cfg:  DatabaseConfig{Driver: DriverSQLite, Path: "./records.db"},
			want: "./records.db",
		},
		{
			name: "sqlite url wins",
			cfg:  DatabaseConfig{Path: "./records.db", URL: "file:records.db?mode=ro"},
			want: "file:records.db?mode=ro",
		},
		{
			name:    "sqlite without path",
			cfg:     DatabaseConfig{Driver: DriverSQLite},
			wantErr: ErrInvalidConfig,
		},
		{
			name: "mysql from fields",
			cfg:  DatabaseConfig{Driver: DriverMySQL, Host: "db", Name: "records", Username: "reader", Password: "secret"},
			check: func(t *testing.T, dsn string) {
				if !strings.HasPrefix(dsn, "reader:secret@tcp(db:3306)/records") {
					t.Errorf("unexpected mysql dsn %q", dsn)
				}
			},
		},
		{
			name: "mysql url with credential override",
			cfg:  DatabaseConfig{Driver: DriverMySQL, URL: "app:old@tcp(db:3307)/shops", Password: "new"},
			check: func(t *testing.T, dsn string) {
				if !strings.HasPrefix(dsn, "app:new@tcp(db:3307)/shops") {
					t.Errorf("unexpected mysql dsn %q", dsn)
				}
			},
		},
		{
			name:    "mysql bad url",
			cfg:     DatabaseConfig{Driver: DriverMySQL, URL: "not a dsn"},
			wantErr: ErrInvalidConfig,
		},
		{
			name: "postgres key value",
			cfg:  DatabaseConfig{Driver: DriverPostgres, Host: "db", Name: "records", Username: "reader", Password: "it's"},
			want: `host=db port=5432 dbname=records sslmode=disable user=reader password='it\'s'`,
		},
		{
			name: "postgres url with credentials",
			cfg:  DatabaseConfig{Driver: DriverPostgres, URL: "postgres://db:5432/records?sslmode=disable", Username: "reader", Password: "secret"},
			want: "postgres://reader:secret@db:5432/records?sslmode=disable",
		},
		{
			name:    "unknown driver",
			cfg:     DatabaseConfig{Driver: "oracle"},
			wantErr: ErrUnsupportedDriver,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			dsn, err := BuildDSN(tc.cfg)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("BuildDSN() error = %v", err)
			}
			if tc.check != nil {
				tc.check(t, dsn)
				return
			}
			if dsn != tc.want {
				t.Errorf("BuildDSN() = %q, want %q", dsn, tc.want)
			}
		})
	}
}

func TestOpenDatabase(t *testing.T) {
	t.Run("sqlite", func(t *testing.T) {
		db, dialect, err := OpenDatabase(DatabaseConfig{Path: filepath.Join(t.TempDir(), "records.db")})
		if err != nil {
			t.Fatalf("OpenDatabase() error = %v", err)
		}
		defer db.Close()

		if dialect.Driver != DriverSQLite {
			t.Errorf("dialect = %q, want sqlite3", dialect.Driver)
		}

		ConfigureDatabase(db, 4, 0)
		if got := db.Stats().MaxOpenConnections; got != 4 {
			t.Errorf("max open connections = %d, want 4", got)
		}
	})

	t.Run("unknown driver", func(t *testing.T) {
		if _, _, err := OpenDatabase(DatabaseConfig{Driver: "oracle"}); !errors.Is(err, ErrUnsupportedDriver) {
			t.Errorf("expected ErrUnsupportedDriver, got %v", err)
		}
	})

	t.Run("unreachable sqlite path", func(t *testing.T) {
		cfg := DatabaseConfig{Path: filepath.Join(t.TempDir(), "missing", "dir", "records.db")}
		if _, _, err := OpenDatabase(cfg); err == nil {
			t.Error("expected ping to fail for a path in a missing directory")
		}
	})
}
