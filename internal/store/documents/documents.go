// Package documents implements store.Documents on MongoDB.
package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/talentum-plus/talentum/internal/logger"
	"github.com/talentum-plus/talentum/internal/store"
)

// Collection names.
const (
	Profiles           = "perfiles"
	Courses            = "cursos"
	Enrollments        = "inscripciones"
	Companies          = "empresas"
	Offers             = "ofertas"
	ConnectionRequests = "solicitudes_conexion"
	ChangeHistory      = "historial_cambios"
)

const defaultDatabase = "talentum"

// Store is the MongoDB document store.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	logger *zap.Logger
	now    func() time.Time
}

// Connect opens a client for uri and selects database. The URI database is
// used when database is empty.
func Connect(ctx context.Context, uri, database string, log *zap.Logger) (*Store, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil, errors.New("mongo uri is required")
	}

	opts := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}

	if database = strings.TrimSpace(database); database == "" {
		database = defaultDatabase
	}

	return &Store{
		client: client,
		db:     client.Database(database),
		logger: logger.ForStore(log, store.NameDocuments),
		now:    time.Now,
	}, nil
}

func (s *Store) collection(name string) *mongo.Collection {
	return s.db.Collection(name)
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("mongodb ping: %w", err)
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// EnsureIndexes creates the unique and lookup indexes the service relies on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		Profiles: {{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		Courses: {{
			Keys:    bson.D{{Key: "codigo", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		Enrollments: {{
			Keys:    bson.D{{Key: "candidato_email", Value: 1}, {Key: "curso_codigo", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		Companies: {{
			Keys:    bson.D{{Key: "cuit", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		Offers: {
			{Keys: bson.D{{Key: "empresa", Value: 1}}},
			{Keys: bson.D{{Key: "estado", Value: 1}}},
		},
		ConnectionRequests: {
			{Keys: bson.D{{Key: "remitente_email", Value: 1}, {Key: "estado", Value: 1}}},
			{Keys: bson.D{{Key: "destinatario_email", Value: 1}, {Key: "estado", Value: 1}}},
		},
		ChangeHistory: {{
			Keys: bson.D{{Key: "candidato_email", Value: 1}, {Key: "timestamp", Value: -1}},
		}},
	}

	for name, models := range indexes {
		created, err := s.collection(name).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("creating indexes on %s: %w", name, err)
		}
		s.logger.Info("indexes ensured", zap.String("collection", name), zap.Strings("indexes", created))
	}
	return nil
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", store.ErrInvalidID, id)
	}
	return oid, nil
}

func insertedID(res *mongo.InsertOneResult) string {
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		return oid.Hex()
	}
	return fmt.Sprint(res.InsertedID)
}

// translate maps driver errors onto store sentinels.
func translate(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	op := fmt.Sprintf(format, args...)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("%s: %w", op, store.ErrNotFound)
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%s: %w", op, store.ErrDuplicate)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func (s *Store) insert(ctx context.Context, collection string, doc any) (string, error) {
	res, err := s.collection(collection).InsertOne(ctx, doc)
	if err != nil {
		return "", translate(err, "inserting into %s", collection)
	}
	return insertedID(res), nil
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter any, opts ...*options.FindOptions) ([]*T, error) {
	cur, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, translate(err, "querying %s", coll.Name())
	}

	items := make([]*T, 0)
	if err := cur.All(ctx, &items); err != nil {
		return nil, translate(err, "decoding %s", coll.Name())
	}
	return items, nil
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, filter any) (*T, error) {
	var item T
	if err := coll.FindOne(ctx, filter).Decode(&item); err != nil {
		return nil, translate(err, "finding in %s", coll.Name())
	}
	return &item, nil
}

func findOneAndUpdate[T any](ctx context.Context, coll *mongo.Collection, filter, update any) (*T, error) {
	var item T
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&item); err != nil {
		return nil, translate(err, "updating %s", coll.Name())
	}
	return &item, nil
}

func limitOpts(limit int) *options.FindOptions {
	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return opts
}
