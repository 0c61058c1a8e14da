package acquire

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"           // postgres driver
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
)

// ErrUnsupportedDriver is returned for a driver name DSN does not know.
var ErrUnsupportedDriver = errors.New("unsupported driver")

// Credentials are the connection settings shared by every dataset.
type Credentials struct {
	Host     string
	Port     int
	User     string
	Password string
	// Dir holds sqlite database files, one per dataset database.
	Dir string
}

// NormalizeDriver maps accepted spellings to a database/sql driver name.
func NormalizeDriver(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "mysql":
		return "mysql", nil
	case "postgres", "postgresql", "pg":
		return "postgres", nil
	case "sqlite", "sqlite3":
		return "sqlite3", nil
	default:
		return "", fmt.Errorf("%w: %q (supported drivers are: mysql|postgres|sqlite)", ErrUnsupportedDriver, name)
	}
}

// DSN builds the connection string for database on the given driver.
func DSN(driver string, c Credentials, database string) (string, error) {
	d, err := NormalizeDriver(driver)
	if err != nil {
		return "", err
	}
	switch d {
	case "mysql":
		cfg := mysql.NewConfig()
		cfg.User = c.User
		cfg.Passwd = c.Password
		cfg.Net = "tcp"
		cfg.Addr = hostPort(c.Host, c.Port, 3306)
		cfg.DBName = database
		return cfg.FormatDSN(), nil
	case "postgres":
		u := url.URL{
			Scheme:   "postgres",
			Host:     hostPort(c.Host, c.Port, 5432),
			Path:     "/" + database,
			RawQuery: url.Values{"sslmode": {"disable"}}.Encode(),
		}
		if c.User != "" {
			u.User = url.UserPassword(c.User, c.Password)
		}
		return u.String(), nil
	default:
		return filepath.Join(c.Dir, database+".db"), nil
	}
}

func hostPort(host string, port, def int) string {
	if host == "" {
		host = "localhost"
	}
	if port == 0 {
		port = def
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}
