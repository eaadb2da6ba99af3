package relational

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS usuarios (
		id            SERIAL PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		rol           TEXT NOT NULL,
		nombre        TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS candidatos (
		id        SERIAL PRIMARY KEY,
		nombre    TEXT NOT NULL,
		email     TEXT NOT NULL UNIQUE,
		seniority TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS procesos (
		id                   SERIAL PRIMARY KEY,
		candidato_id         TEXT NOT NULL,
		puesto               TEXT NOT NULL,
		estado               TEXT NOT NULL,
		feedback             TEXT,
		notas_confidenciales TEXT,
		updated_at           TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS procesos_candidato_id_idx ON procesos (candidato_id)`,
	`CREATE TABLE IF NOT EXISTS aplicaciones (
		id               SERIAL PRIMARY KEY,
		candidato_email  TEXT NOT NULL,
		oferta_id        TEXT NOT NULL,
		estado           TEXT NOT NULL DEFAULT 'Pendiente',
		fecha_aplicacion TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (candidato_email, oferta_id)
	)`,
	`CREATE INDEX IF NOT EXISTS aplicaciones_oferta_id_idx ON aplicaciones (oferta_id)`,
	`CREATE TABLE IF NOT EXISTS entrevistas (
		id               SERIAL PRIMARY KEY,
		proceso_id       INTEGER NOT NULL REFERENCES procesos (id) ON DELETE CASCADE,
		tipo             TEXT NOT NULL,
		fecha            TIMESTAMPTZ NOT NULL,
		entrevistador    TEXT NOT NULL,
		duracion_minutos INTEGER NOT NULL DEFAULT 0,
		notas            TEXT NOT NULL DEFAULT '',
		puntaje          INTEGER CHECK (puntaje BETWEEN 1 AND 5),
		estado           TEXT NOT NULL DEFAULT 'Programada'
	)`,
	`CREATE TABLE IF NOT EXISTS evaluaciones (
		id         SERIAL PRIMARY KEY,
		proceso_id INTEGER NOT NULL REFERENCES procesos (id) ON DELETE CASCADE,
		tipo       TEXT NOT NULL,
		plataforma TEXT NOT NULL,
		resultado  TEXT NOT NULL,
		puntaje    DOUBLE PRECISION NOT NULL DEFAULT 0,
		feedback   TEXT NOT NULL DEFAULT ''
	)`,
}

// EnsureSchema creates missing tables and indexes. It is safe to run repeatedly.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema statement %d: %w", i+1, err)
		}
	}
	s.logger.Info("schema ensured", zap.Int("statements", len(schema)))
	return nil
}
