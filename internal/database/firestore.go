package database

import (
	"context"
	"fmt"
	"log/slog"

	"brew-reviews/internal/utils"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Firestore is the DocumentStore backed by Cloud Firestore, where nested collection
// paths are native.
type Firestore struct {
	Client *firestore.Client
	logger *slog.Logger
}

// NewFirestore connects to the given project. credentialsFile may be empty to use
// application default credentials.
func NewFirestore(ctx context.Context, projectID, credentialsFile string, logger *slog.Logger) (*Firestore, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Firestore: %w", err)
	}
	logger.Info("connected to Firestore", slog.String("project", projectID))
	return &Firestore{Client: client, logger: logger}, nil
}

type firestoreSnapshot struct {
	snap *firestore.DocumentSnapshot
}

func (s *firestoreSnapshot) ID() string { return s.snap.Ref.ID }

func (s *firestoreSnapshot) DataTo(v any) error {
	if err := s.snap.DataTo(v); err != nil {
		return fmt.Errorf("failed to decode document %s: %w", s.snap.Ref.ID, err)
	}
	return nil
}

func (f *Firestore) collection(path string) (*firestore.CollectionRef, error) {
	if _, _, err := splitPath(path); err != nil {
		return nil, err
	}
	return f.Client.Collection(path), nil
}

func (f *Firestore) doc(path, id string) (*firestore.DocumentRef, error) {
	coll, err := f.collection(path)
	if err != nil {
		return nil, err
	}
	return coll.Doc(id), nil
}

func (f *Firestore) Create(ctx context.Context, collection, id string, data any) error {
	ref, err := f.doc(collection, id)
	if err != nil {
		return err
	}
	if _, err := ref.Set(ctx, data); err != nil {
		return fmt.Errorf("failed to save %s/%s: %w", collection, id, err)
	}
	return nil
}

func (f *Firestore) Get(ctx context.Context, collection, id string) (Snapshot, error) {
	ref, err := f.doc(collection, id)
	if err != nil {
		return nil, err
	}
	snap, err := ref.Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, utils.NewNotFoundError("document", Ref{Collection: collection, ID: id}.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}
	return &firestoreSnapshot{snap: snap}, nil
}

func (f *Firestore) Exists(ctx context.Context, collection, id string) (bool, error) {
	ref, err := f.doc(collection, id)
	if err != nil {
		return false, err
	}
	snap, err := ref.Get(ctx)
	if status.Code(err) == codes.NotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to probe %s/%s: %w", collection, id, err)
	}
	return snap.Exists(), nil
}

func (f *Firestore) Query(ctx context.Context, collection, field string, value any) ([]Snapshot, error) {
	coll, err := f.collection(collection)
	if err != nil {
		return nil, err
	}
	return f.all(coll.Where(field, "==", value).Documents(ctx), collection)
}

func (f *Firestore) List(ctx context.Context, collection string) ([]Snapshot, error) {
	coll, err := f.collection(collection)
	if err != nil {
		return nil, err
	}
	return f.all(coll.Documents(ctx), collection)
}

func (f *Firestore) all(iter *firestore.DocumentIterator, collection string) ([]Snapshot, error) {
	snaps, err := iter.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", collection, err)
	}
	out := make([]Snapshot, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, &firestoreSnapshot{snap: snap})
	}
	return out, nil
}

func (f *Firestore) Update(ctx context.Context, collection, id string, updates ...Update) error {
	ref, err := f.doc(collection, id)
	if err != nil {
		return err
	}
	fsUpdates, err := firestoreUpdates(updates)
	if err != nil {
		return err
	}
	_, err = ref.Update(ctx, fsUpdates)
	if status.Code(err) == codes.NotFound {
		return utils.NewNotFoundError("document", Ref{Collection: collection, ID: id}.String())
	}
	if err != nil {
		return fmt.Errorf("failed to update %s/%s: %w", collection, id, err)
	}
	return nil
}

// firestoreUpdates translates field operators into Firestore field transforms.
func firestoreUpdates(updates []Update) ([]firestore.Update, error) {
	if len(updates) == 0 {
		return nil, fmt.Errorf("empty update")
	}
	out := make([]firestore.Update, 0, len(updates))
	for _, u := range updates {
		var value any
		switch u.Op {
		case OpSet:
			value = u.Value
		case OpAddToSet:
			value = firestore.ArrayUnion(u.Value)
		case OpRemoveFromSet:
			value = firestore.ArrayRemove(u.Value)
		case OpIncrement:
			value = firestore.Increment(u.Value)
		default:
			return nil, fmt.Errorf("unsupported update operator %s", u.Op)
		}
		out = append(out, firestore.Update{Path: u.Field, Value: value})
	}
	return out, nil
}

func (f *Firestore) Delete(ctx context.Context, collection, id string) error {
	ref, err := f.doc(collection, id)
	if err != nil {
		return err
	}
	if _, err := ref.Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	return nil
}

func (f *Firestore) DeleteBatch(ctx context.Context, refs []Ref) error {
	if len(refs) == 0 {
		return nil
	}
	docs := make([]*firestore.DocumentRef, 0, len(refs))
	for _, r := range refs {
		ref, err := f.doc(r.Collection, r.ID)
		if err != nil {
			return err
		}
		docs = append(docs, ref)
	}
	err := f.Client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		for _, ref := range docs {
			if err := tx.Delete(ref); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("batch delete of %d documents failed: %w", len(refs), err)
	}
	return nil
}

func (f *Firestore) Close(ctx context.Context) error {
	return f.Client.Close()
}
