package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"time"

	"content-service/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo stores the corpus in a MongoDB collection. Full replacement writes
// the new batch into a staging collection and renames it over the live one,
// so readers never see the delete-then-insert window.
type Mongo struct {
	db     *mongo.Database
	name   string
	schema model.Schema
}

func NewMongo(db *mongo.Database, schema model.Schema, collection string) *Mongo {
	m := &Mongo{db: db, name: collection, schema: schema}
	m.ensureIndexes(db.Collection(collection))
	return m
}

func (m *Mongo) ensureIndexes(coll *mongo.Collection) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: m.schema.PrimaryField, Value: 1}}},
		{Keys: bson.D{{Key: "_fetchedAt", Value: -1}}},
	}

	if _, err := coll.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Printf("Warning: Failed to create indexes on %s: %v", coll.Name(), err)
	}
}

func (m *Mongo) collection() *mongo.Collection {
	return m.db.Collection(m.name)
}

func (m *Mongo) Count(ctx context.Context) (int64, error) {
	return m.collection().CountDocuments(ctx, bson.M{})
}

func (m *Mongo) List(ctx context.Context, page, pageSize int) ([]model.Item, error) {
	return m.find(ctx, bson.M{}, page, pageSize)
}

func (m *Mongo) Search(ctx context.Context, term string, page, pageSize int) ([]model.Item, error) {
	return m.find(ctx, m.searchFilter(term), page, pageSize)
}

func (m *Mongo) find(ctx context.Context, filter bson.M, page, pageSize int) ([]model.Item, error) {
	skip := int64(page-1) * int64(pageSize)
	opts := options.Find().
		SetSort(bson.D{{Key: "_fetchedAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(skip).
		SetLimit(int64(pageSize))

	cursor, err := m.collection().Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", m.name, err)
	}
	defer cursor.Close(ctx)

	items := []model.Item{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", m.name, err)
	}
	return items, nil
}

// searchFilter builds a case-insensitive substring match over the schema's
// search fields. The term is quoted so regex metacharacters match literally.
func (m *Mongo) searchFilter(term string) bson.M {
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}
	clauses := make([]bson.M, 0, len(m.schema.SearchFields))
	for _, field := range m.schema.SearchFields {
		clauses = append(clauses, bson.M{field: pattern})
	}
	return bson.M{"$or": clauses}
}

func (m *Mongo) GetByID(ctx context.Context, id string) (model.Item, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var item model.Item
	err = m.collection().FindOne(ctx, bson.M{"_id": oid}).Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find %s by id: %w", m.schema.Name, err)
	}
	return item, nil
}

func (m *Mongo) ReplaceAll(ctx context.Context, items []model.Item) (int64, error) {
	previous, err := m.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", m.name, err)
	}

	stagingName := m.name + "_staging"
	staging := m.db.Collection(stagingName)
	if err := staging.Drop(ctx); err != nil {
		return previous, fmt.Errorf("drop staging: %w", err)
	}

	if len(items) > 0 {
		docs := make([]interface{}, 0, len(items))
		for _, item := range items {
			docs = append(docs, item)
		}
		if _, err := staging.InsertMany(ctx, docs); err != nil {
			return previous, fmt.Errorf("insert batch: %w", err)
		}
	} else if err := m.db.CreateCollection(ctx, stagingName); err != nil {
		return previous, fmt.Errorf("create staging: %w", err)
	}
	m.ensureIndexes(staging)

	// The rename is the commit point: one atomic swap of staging over live.
	cmd := bson.D{
		{Key: "renameCollection", Value: m.db.Name() + "." + stagingName},
		{Key: "to", Value: m.db.Name() + "." + m.name},
		{Key: "dropTarget", Value: true},
	}
	if err := m.db.Client().Database("admin").RunCommand(ctx, cmd).Err(); err != nil {
		return previous, fmt.Errorf("swap collections: %w", err)
	}
	return previous, nil
}
