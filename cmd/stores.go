package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/talentum-plus/talentum/internal/secrets"
	"github.com/talentum-plus/talentum/internal/store/cache"
	"github.com/talentum-plus/talentum/internal/store/documents"
	"github.com/talentum-plus/talentum/internal/store/graph"
	"github.com/talentum-plus/talentum/internal/store/relational"

	"go.uber.org/zap"
)

// stores holds the four connected backends.
type stores struct {
	docs  *documents.Store
	rel   *relational.Store
	graph *graph.Store
	cache *cache.Cache
}

// connectStores opens every backend. Whatever was already opened is closed
// again when a later one fails.
func connectStores(ctx context.Context, config *Config, logger *zap.Logger) (*stores, error) {
	s := &stores{}

	if config.Mongo == nil || config.Postgres == nil || config.Neo4j == nil || config.Redis == nil {
		return nil, errors.New("mongo, postgres, neo4j and redis sections are required")
	}

	docs, err := documents.Connect(ctx, config.Mongo.URI, config.Mongo.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}
	s.docs = docs

	rel, err := relational.Connect(ctx, config.Postgres.DSN, logger)
	if err != nil {
		s.close(ctx, logger)
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	s.rel = rel

	password, err := secrets.Load(secrets.Source{
		Name:     "neo4j password",
		Value:    config.Neo4j.Password,
		File:     config.Neo4j.PasswordFile,
		Optional: config.Neo4j.Username == "",
	})
	if err != nil {
		s.close(ctx, logger)
		return nil, err
	}

	g, err := graph.Connect(config.Neo4j.URI, config.Neo4j.Username, password, config.Neo4j.Database, logger)
	if err != nil {
		s.close(ctx, logger)
		return nil, fmt.Errorf("connecting to neo4j: %w", err)
	}
	s.graph = g

	c, err := cache.New(config.Redis.URL, config.Redis.MaxIdle, logger)
	if err != nil {
		s.close(ctx, logger)
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	s.cache = c

	return s, nil
}

func (s *stores) close(ctx context.Context, logger *zap.Logger) {
	closeOne := func(name string, fn func(context.Context) error) {
		if err := fn(ctx); err != nil {
			logger.Warn("closing store", zap.String("store", name), zap.Error(err))
		}
	}

	if s.cache != nil {
		closeOne("redis", s.cache.Close)
	}
	if s.graph != nil {
		closeOne("neo4j", s.graph.Close)
	}
	if s.rel != nil {
		closeOne("postgres", s.rel.Close)
	}
	if s.docs != nil {
		closeOne("mongodb", s.docs.Close)
	}
}
