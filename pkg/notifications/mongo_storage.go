package notifications

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	notificationsCollection = "notifications"
	templatesCollection     = "notification_templates"
)

// MongoStorage is a Storage implementation backed by MongoDB. Document
// metadata maps straight onto BSON, which suits the loosely typed metadata
// and template data the service carries.
type MongoStorage struct {
	notifs    *mongo.Collection
	templates *mongo.Collection
}

// NewMongoStorage creates a Mongo-backed store on an existing database handle.
func NewMongoStorage(db *mongo.Database) *MongoStorage {
	return &MongoStorage{
		notifs:    db.Collection(notificationsCollection),
		templates: db.Collection(templatesCollection),
	}
}

// EnsureIndexes creates the indexes the query paths rely on. Call once at
// startup.
func (s *MongoStorage) EnsureIndexes(ctx context.Context) error {
	_, err := s.notifs.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "read_at", Value: 1}}},
	})
	if err != nil {
		return errors.Join(ErrStorage, err)
	}
	return nil
}

func (s *MongoStorage) Create(ctx context.Context, notif Notification) error {
	if notif.ID == "" {
		return ErrMissingID
	}
	if _, err := s.notifs.InsertOne(ctx, notif); err != nil {
		return errors.Join(ErrStorage, err)
	}
	return nil
}

func (s *MongoStorage) FindByID(ctx context.Context, id string) (*Notification, error) {
	var n Notification
	err := s.notifs.FindOne(ctx, bson.M{"_id": id}).Decode(&n)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotificationNotFound
		}
		return nil, errors.Join(ErrStorage, err)
	}
	return &n, nil
}

func (s *MongoStorage) FindMany(ctx context.Context, filter Filter) ([]Notification, error) {
	query := bson.M{}
	if filter.UserID != "" {
		query["user_id"] = filter.UserID
	}
	if filter.IsRead != nil {
		if *filter.IsRead {
			query["read_at"] = bson.M{"$ne": nil}
		} else {
			query["read_at"] = nil
		}
	}

	cursor, err := s.notifs.Find(ctx, query,
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, errors.Join(ErrStorage, err)
	}

	out := make([]Notification, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, errors.Join(ErrStorage, err)
	}
	return out, nil
}

func (s *MongoStorage) MarkRead(ctx context.Context, id string) (*Notification, error) {
	// Only unread documents are updated, so a second mark keeps the first
	// timestamp.
	now := time.Now().UTC()
	var n Notification
	err := s.notifs.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "read_at": nil},
		bson.M{"$set": bson.M{"read_at": now}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&n)
	if err == nil {
		return &n, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.Join(ErrStorage, err)
	}

	// Either already read or genuinely missing.
	return s.FindByID(ctx, id)
}

func (s *MongoStorage) Delete(ctx context.Context, id string) error {
	res, err := s.notifs.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Join(ErrStorage, err)
	}
	// Mongo deletes are silent no-ops on missing documents; surface that as
	// NotFound per the storage contract.
	if res.DeletedCount == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *MongoStorage) CountUnread(ctx context.Context, userID string) (int, error) {
	count, err := s.notifs.CountDocuments(ctx, bson.M{"user_id": userID, "read_at": nil})
	if err != nil {
		return 0, errors.Join(ErrStorage, err)
	}
	return int(count), nil
}

func (s *MongoStorage) FindTemplateByID(ctx context.Context, id int) (*Template, error) {
	var tpl Template
	err := s.templates.FindOne(ctx, bson.M{"_id": id}).Decode(&tpl)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTemplateNotFound
		}
		return nil, errors.Join(ErrStorage, err)
	}
	return &tpl, nil
}

func (s *MongoStorage) CreateTemplate(ctx context.Context, tpl Template) error {
	_, err := s.templates.ReplaceOne(ctx,
		bson.M{"_id": tpl.ID}, tpl, options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Join(ErrStorage, err)
	}
	return nil
}
