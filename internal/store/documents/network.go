package documents

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/talentum-plus/talentum/internal/models"
	"github.com/talentum-plus/talentum/internal/store"
)

func (s *Store) InsertConnectionRequest(ctx context.Context, r *models.ConnectionRequest) (string, error) {
	if r.Status == "" {
		r.Status = models.RequestPending
	}
	if r.RequestedAt.IsZero() {
		r.RequestedAt = s.now().UTC()
	}
	id, err := s.insert(ctx, ConnectionRequests, r)
	if err != nil {
		return "", err
	}
	r.ID = id
	return id, nil
}

func (s *Store) GetConnectionRequest(ctx context.Context, id string) (*models.ConnectionRequest, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return findOne[models.ConnectionRequest](ctx, s.collection(ConnectionRequests), bson.M{"_id": oid})
}

func (s *Store) FindConnection(ctx context.Context, a, b, status string) (*models.ConnectionRequest, error) {
	filter := bson.M{
		"estado": status,
		"$or": bson.A{
			bson.M{"remitente_email": a, "destinatario_email": b},
			bson.M{"remitente_email": b, "destinatario_email": a},
		},
	}
	return findOne[models.ConnectionRequest](ctx, s.collection(ConnectionRequests), filter)
}

func (s *Store) ListConnectionRequests(ctx context.Context, f store.ConnectionFilter) ([]*models.ConnectionRequest, error) {
	filter := bson.M{}
	if f.Sender != "" {
		filter["remitente_email"] = f.Sender
	}
	if f.Recipient != "" {
		filter["destinatario_email"] = f.Recipient
	}
	if f.Participant != "" {
		filter["$or"] = bson.A{
			bson.M{"remitente_email": f.Participant},
			bson.M{"destinatario_email": f.Participant},
		}
	}
	if f.Status != "" {
		filter["estado"] = f.Status
	}
	return findAll[models.ConnectionRequest](ctx, s.collection(ConnectionRequests), filter)
}

func (s *Store) SetConnectionStatus(ctx context.Context, id, status string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	res, err := s.collection(ConnectionRequests).UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"estado": status}})
	if err != nil {
		return translate(err, "updating connection request %s", id)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("updating connection request %s: %w", id, store.ErrNotFound)
	}
	return nil
}
