// Package graph implements store.Graph on Neo4j.
package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/talentum-plus/talentum/internal/logger"
	"github.com/talentum-plus/talentum/internal/store"
)

// Store is the Neo4j skills graph.
type Store struct {
	driver   neo4j.DriverWithContext
	database string
	logger   *zap.Logger
}

// Connect creates a driver for uri. The connection is verified by Ping.
// An empty username connects without authentication.
func Connect(uri, username, password, database string, log *zap.Logger) (*Store, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil, errors.New("neo4j uri is required")
	}

	auth := neo4j.NoAuth()
	if username != "" {
		auth = neo4j.BasicAuth(username, password, "")
	}

	driver, err := neo4j.NewDriverWithContext(uri, auth)
	if err != nil {
		return nil, fmt.Errorf("creating neo4j driver: %w", err)
	}

	return &Store{
		driver:   driver,
		database: database,
		logger:   logger.ForStore(log, store.NameGraph),
	}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.driver.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("neo4j ping: %w", err)
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func (s *Store) write(ctx context.Context, op, cypher string, params map[string]any) (*neo4j.EagerResult, error) {
	result, err := neo4j.ExecuteQuery(ctx, s.driver, cypher, params,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(s.database),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

func (s *Store) read(ctx context.Context, op, cypher string, params map[string]any) (*neo4j.EagerResult, error) {
	result, err := neo4j.ExecuteQuery(ctx, s.driver, cypher, params,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(s.database),
		neo4j.ExecuteQueryWithReadersRouting(),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

var constraints = []string{
	`CREATE CONSTRAINT candidato_id IF NOT EXISTS FOR (c:Candidato) REQUIRE c.id IS UNIQUE`,
	`CREATE CONSTRAINT skill_nombre IF NOT EXISTS FOR (s:Skill) REQUIRE s.nombre IS UNIQUE`,
	`CREATE CONSTRAINT rol_nombre IF NOT EXISTS FOR (r:Rol) REQUIRE r.nombre IS UNIQUE`,
	`CREATE CONSTRAINT mentor_id IF NOT EXISTS FOR (m:Mentor) REQUIRE m.id IS UNIQUE`,
	`CREATE CONSTRAINT curso_codigo IF NOT EXISTS FOR (cu:Curso) REQUIRE cu.codigo IS UNIQUE`,
	`CREATE CONSTRAINT empresa_id IF NOT EXISTS FOR (e:Empresa) REQUIRE e.id IS UNIQUE`,
	`CREATE CONSTRAINT oferta_id IF NOT EXISTS FOR (of:Oferta) REQUIRE of.id IS UNIQUE`,
	`CREATE CONSTRAINT usuario_email IF NOT EXISTS FOR (u:Usuario) REQUIRE u.email IS UNIQUE`,
}

// EnsureConstraints creates the node key constraints. It is safe to run repeatedly.
func (s *Store) EnsureConstraints(ctx context.Context) error {
	for _, c := range constraints {
		if _, err := s.write(ctx, "creating constraint", c, nil); err != nil {
			return err
		}
	}
	s.logger.Info("constraints ensured", zap.Int("constraints", len(constraints)))
	return nil
}
