package database

import (
	"net"
	"net/url"
)

type DBConfig struct {
	User     string
	Password string
	Host     string
	Port     string
	DBName   string
	// SSLMode is passed through as the sslmode parameter; empty means disable.
	SSLMode  string
}

// DSN renders the config as a postgres URL with escaped credentials.
func (c DBConfig) DSN() string {
	mode := c.SSLMode
	if mode == "" {
		mode = "disable"
	}
	return (&url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: url.Values{"sslmode": {mode}}.Encode(),
	}).String()
}
