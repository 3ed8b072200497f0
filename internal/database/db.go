package database

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// Open connects to Postgres and verifies the connection.
func Open(postgresURI string) (*sql.DB, error) {
	db, err := sql.Open("postgres", postgresURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database is unreachable: %w", err)
	}

	return db, nil
}
