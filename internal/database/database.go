// internal/database/database.go
package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"brew-reviews/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// parentField holds the owning document path of subcollection documents.
const parentField = "_parent"

// MongoDB stores nested collections as flat Mongo collections: "brewed-drinks/P1/reviews"
// lives in collection "brewed-drinks.reviews" with _parent "P1".
type MongoDB struct {
	Client *mongo.Client
	DB     *mongo.Database
	logger *slog.Logger
}

func NewMongoDB(ctx context.Context, uri, dbName string, logger *slog.Logger) (*MongoDB, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Database("admin").RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	logger.Info("connected to MongoDB", slog.String("database", dbName))

	return &MongoDB{
		Client: client,
		DB:     client.Database(dbName),
		logger: logger,
	}, nil
}

type mongoSnapshot struct {
	id  string
	raw bson.Raw
}

func (s *mongoSnapshot) ID() string { return s.id }

func (s *mongoSnapshot) DataTo(v any) error {
	if err := bson.Unmarshal(s.raw, v); err != nil {
		return fmt.Errorf("failed to decode document %s: %w", s.id, err)
	}
	return nil
}

// location maps a collection path to the Mongo collection and the base filter that
// scopes it to one parent document.
func (m *MongoDB) location(collection string) (*mongo.Collection, bson.M, error) {
	name, parent, err := mongoCollectionName(collection)
	if err != nil {
		return nil, nil, err
	}
	filter := bson.M{}
	if parent != "" {
		filter[parentField] = parent
	}
	return m.DB.Collection(name), filter, nil
}

func mongoCollectionName(collection string) (name, parent string, err error) {
	names, parents, err := splitPath(collection)
	if err != nil {
		return "", "", err
	}
	return strings.Join(names, "."), strings.Join(parents, "/"), nil
}

func withID(filter bson.M, id string) bson.M {
	out := bson.M{"_id": id}
	for k, v := range filter {
		out[k] = v
	}
	return out
}

func (m *MongoDB) Create(ctx context.Context, collection, id string, data any) error {
	coll, filter, err := m.location(collection)
	if err != nil {
		return err
	}
	doc, err := toBSONMap(data)
	if err != nil {
		return fmt.Errorf("failed to encode document %s/%s: %w", collection, id, err)
	}
	doc["_id"] = id
	if parent, ok := filter[parentField]; ok {
		doc[parentField] = parent
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := coll.ReplaceOne(ctx, withID(filter, id), doc, opts); err != nil {
		return fmt.Errorf("failed to save %s/%s: %w", collection, id, err)
	}
	return nil
}

func (m *MongoDB) Get(ctx context.Context, collection, id string) (Snapshot, error) {
	coll, filter, err := m.location(collection)
	if err != nil {
		return nil, err
	}
	raw, err := coll.FindOne(ctx, withID(filter, id)).Raw()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.NewNotFoundError("document", Ref{Collection: collection, ID: id}.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}
	return &mongoSnapshot{id: id, raw: raw}, nil
}

func (m *MongoDB) Exists(ctx context.Context, collection, id string) (bool, error) {
	coll, filter, err := m.location(collection)
	if err != nil {
		return false, err
	}
	n, err := coll.CountDocuments(ctx, withID(filter, id), options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to probe %s/%s: %w", collection, id, err)
	}
	return n > 0, nil
}

func (m *MongoDB) Query(ctx context.Context, collection, field string, value any) ([]Snapshot, error) {
	coll, filter, err := m.location(collection)
	if err != nil {
		return nil, err
	}
	filter[field] = value
	return m.find(ctx, coll, filter)
}

func (m *MongoDB) List(ctx context.Context, collection string) ([]Snapshot, error) {
	coll, filter, err := m.location(collection)
	if err != nil {
		return nil, err
	}
	return m.find(ctx, coll, filter)
}

func (m *MongoDB) find(ctx context.Context, coll *mongo.Collection, filter bson.M) ([]Snapshot, error) {
	cursor, err := coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", coll.Name(), err)
	}
	defer cursor.Close(ctx)

	var out []Snapshot
	for cursor.Next(ctx) {
		// cursor.Current is reused between iterations
		raw := make(bson.Raw, len(cursor.Current))
		copy(raw, cursor.Current)
		id, ok := documentID(raw.Lookup("_id"))
		if !ok {
			m.logger.Warn("skipping document with unsupported _id",
				slog.String("collection", coll.Name()),
				slog.String("id_type", raw.Lookup("_id").Type.String()),
			)
			continue
		}
		out = append(out, &mongoSnapshot{id: id, raw: raw})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", coll.Name(), err)
	}
	return out, nil
}

// documentID renders an _id as the string path segment used elsewhere. Documents
// created outside this service may carry ObjectID or integer ids.
func documentID(v bson.RawValue) (string, bool) {
	if id, ok := v.StringValueOK(); ok {
		return id, true
	}
	if oid, ok := v.ObjectIDOK(); ok {
		return oid.Hex(), true
	}
	if n, ok := v.Int32OK(); ok {
		return strconv.FormatInt(int64(n), 10), true
	}
	if n, ok := v.Int64OK(); ok {
		return strconv.FormatInt(n, 10), true
	}
	return "", false
}

func (m *MongoDB) Update(ctx context.Context, collection, id string, updates ...Update) error {
	coll, filter, err := m.location(collection)
	if err != nil {
		return err
	}
	update, err := mongoUpdate(updates)
	if err != nil {
		return err
	}

	result, err := coll.UpdateOne(ctx, withID(filter, id), update)
	if err != nil {
		return fmt.Errorf("failed to update %s/%s: %w", collection, id, err)
	}
	if result.MatchedCount == 0 {
		return utils.NewNotFoundError("document", Ref{Collection: collection, ID: id}.String())
	}
	return nil
}

// mongoUpdate translates field operators into a Mongo update document.
func mongoUpdate(updates []Update) (bson.M, error) {
	if len(updates) == 0 {
		return nil, fmt.Errorf("empty update")
	}
	operators := map[UpdateOp]string{
		OpSet:           "$set",
		OpAddToSet:      "$addToSet",
		OpRemoveFromSet: "$pull",
		OpIncrement:     "$inc",
	}

	update := bson.M{}
	for _, u := range updates {
		key, ok := operators[u.Op]
		if !ok {
			return nil, fmt.Errorf("unsupported update operator %s", u.Op)
		}
		fields, ok := update[key].(bson.M)
		if !ok {
			fields = bson.M{}
			update[key] = fields
		}
		fields[u.Field] = u.Value
	}
	return update, nil
}

func (m *MongoDB) Delete(ctx context.Context, collection, id string) error {
	coll, filter, err := m.location(collection)
	if err != nil {
		return err
	}
	if _, err := coll.DeleteOne(ctx, withID(filter, id)); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	return nil
}

// DeleteBatch deletes all refs inside one transaction. Requires a replica set.
func (m *MongoDB) DeleteBatch(ctx context.Context, refs []Ref) error {
	if len(refs) == 0 {
		return nil
	}
	session, err := m.Client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		for _, ref := range refs {
			coll, filter, err := m.location(ref.Collection)
			if err != nil {
				return nil, err
			}
			if _, err := coll.DeleteOne(sc, withID(filter, ref.ID)); err != nil {
				return nil, fmt.Errorf("failed to delete %s: %w", ref, err)
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("batch delete of %d documents failed: %w", len(refs), err)
	}
	return nil
}

// EnsureIndexes creates the lookup indexes used by the review engine. productCollections
// are the product collections whose reviews subcollections need a parent index.
func (m *MongoDB) EnsureIndexes(ctx context.Context, productCollections []string) error {
	indexes := map[string][]mongo.IndexModel{
		ReviewsCollection: {
			{Keys: bson.D{{Key: "productId", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "userId", Value: 1}}},
		},
		CommentsCollection: {
			{Keys: bson.D{{Key: "reviewId", Value: 1}, {Key: "createdAt", Value: 1}}},
			{Keys: bson.D{{Key: "parentCommentId", Value: 1}}},
			{Keys: bson.D{{Key: "userId", Value: 1}}},
		},
		OrdersCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}}},
		},
		UsersCollection + "." + OrdersCollection: {
			{Keys: bson.D{{Key: parentField, Value: 1}}},
		},
	}
	for _, pc := range productCollections {
		indexes[pc+"."+ReviewsCollection] = []mongo.IndexModel{
			{Keys: bson.D{{Key: parentField, Value: 1}}},
		}
	}

	for name, models := range indexes {
		if _, err := m.DB.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create %s indexes: %w", name, err)
		}
	}
	return nil
}

func (m *MongoDB) Close(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}
