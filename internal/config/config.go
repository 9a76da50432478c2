package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
)

type Config struct {
	AppPort  string
	LogLevel string

	MySQLHost string
	MySQLPort string
	MySQLDB   string
	MySQLUser string
	MySQLPass string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	IdempTTLSecs int

	// PolicyFile points at the YAML money settings; empty means DefaultPolicy.
	PolicyFile string
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

// getenvInt falls back to d when k is unset or not an integer.
func getenvInt(k string, d int) int {
	if n, err := strconv.Atoi(os.Getenv(k)); err == nil {
		return n
	}
	return d
}

func Load() *Config {
	return &Config{
		AppPort:   getenv("APP_PORT", "8080"),
		LogLevel:  getenv("LOG_LEVEL", "info"),
		MySQLHost: getenv("MYSQL_HOST", "mysql"),
		MySQLPort: getenv("MYSQL_PORT", "3306"),
		MySQLDB:   getenv("MYSQL_DB", "loanledger"),
		MySQLUser: getenv("MYSQL_USER", "loanledger"),
		MySQLPass: getenv("MYSQL_PASS", "loanledger"),

		RedisAddr:     getenv("REDIS_ADDR", "redis:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getenvInt("REDIS_DB", 0),

		IdempTTLSecs: getenvInt("IDEMPOTENCY_TTL_SECONDS", 300),
		PolicyFile:   os.Getenv("POLICY_FILE"),
	}
}

func (c *Config) Validate() error {
	switch {
	case c.AppPort == "":
		return errors.New("missing APP_PORT")
	case c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "":
		return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
	case c.RedisAddr == "":
		return errors.New("missing REDIS_ADDR")
	case c.RedisDB < 0:
		return fmt.Errorf("invalid REDIS_DB %d", c.RedisDB)
	case c.IdempTTLSecs <= 0:
		return fmt.Errorf("invalid IDEMPOTENCY_TTL_SECONDS %d", c.IdempTTLSecs)
	}
	if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
		return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
	}
	return nil
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// parseTime is required for DATETIME columns; loc=UTC keeps due dates stable
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}
