package knowledge

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"

	"github.com/sopaco/deepwiki-rs/config"
)

// postgresMetadataBackend mirrors the file backend's contract over a
// single-row table, grounded on the teacher's internal/server/migrate.go
// migration-runner shape. It exists to exercise lib/pq and
// golang-migrate as an alternative to the default JSON file when a
// deployment already runs Postgres for other reasons.
type postgresMetadataBackend struct {
	db *sql.DB
}

func newPostgresMetadataBackend(cfg config.PostgresConfig, migrationsDir string) (*postgresMetadataBackend, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("knowledge: open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("knowledge: ping postgres: %w", err)
	}

	if migrationsDir != "" {
		driver, err := postgres.WithInstance(db, &postgres.Config{})
		if err != nil {
			return nil, fmt.Errorf("knowledge: migrate driver: %w", err)
		}
		m, err := migrate.NewWithDatabaseInstance("file://"+migrationsDir, "postgres", driver)
		if err != nil {
			return nil, fmt.Errorf("knowledge: migrate init: %w", err)
		}
		if err := m.Up(); err != nil && err != migrate.ErrNoChange {
			return nil, fmt.Errorf("knowledge: migrate up: %w", err)
		}
	} else {
		if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS knowledge_metadata (
			id SMALLINT PRIMARY KEY DEFAULT 1,
			payload JSONB NOT NULL,
			CONSTRAINT singleton CHECK (id = 1)
		)`); err != nil {
			return nil, fmt.Errorf("knowledge: create table: %w", err)
		}
	}

	return &postgresMetadataBackend{db: db}, nil
}

func (b *postgresMetadataBackend) load() (metadata, error) {
	var payload []byte
	err := b.db.QueryRow(`SELECT payload FROM knowledge_metadata WHERE id = 1`).Scan(&payload)
	if err == sql.ErrNoRows {
		return metadata{Categories: map[string][]fileRecord{}}, nil
	}
	if err != nil {
		return metadata{}, fmt.Errorf("knowledge: load metadata: %w", err)
	}
	var m metadata
	if err := json.Unmarshal(payload, &m); err != nil {
		return metadata{}, err
	}
	if m.Categories == nil {
		m.Categories = map[string][]fileRecord{}
	}
	return m, nil
}

func (b *postgresMetadataBackend) save(m metadata) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return err
	}
	_, err = b.db.Exec(`
		INSERT INTO knowledge_metadata (id, payload) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload
	`, payload)
	if err != nil {
		return fmt.Errorf("knowledge: save metadata: %w", err)
	}
	return nil
}
