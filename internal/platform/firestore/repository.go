package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
)

// Document is a decoded snapshot with its metadata timestamps.
type Document[T any] struct {
	ID         string
	Data       T
	CreateTime time.Time
	UpdateTime time.Time
}

// Decoder hydrates a typed entity from a snapshot.
type Decoder[T any] func(snap *firestore.DocumentSnapshot) (T, error)

// QueryBuilder customises Firestore queries before execution.
type QueryBuilder func(query firestore.Query) firestore.Query

// Collection wraps typed access to one Firestore collection.
type Collection[T any] struct {
	provider *Provider
	name     string
	decode   Decoder[T]
}

// NewCollection binds a typed collection to a provider. A nil decoder uses Firestore struct decoding.
func NewCollection[T any](provider *Provider, name string, decode Decoder[T]) *Collection[T] {
	if decode == nil {
		decode = StructDecoder[T]()
	}
	return &Collection[T]{provider: provider, name: strings.TrimSpace(name), decode: decode}
}

// Name returns the collection name.
func (c *Collection[T]) Name() string { return c.name }

// Get fetches and decodes one document.
func (c *Collection[T]) Get(ctx context.Context, id string) (Document[T], error) {
	ref, err := c.Doc(ctx, id)
	if err != nil {
		return Document[T]{}, err
	}
	snap, err := ref.Get(ctx)
	if err != nil {
		return Document[T]{}, WrapError(c.op("get"), err)
	}
	return c.document(snap)
}

// Merge writes the given fields into the document, creating it if absent.
func (c *Collection[T]) Merge(ctx context.Context, id string, fields map[string]any) error {
	ref, err := c.Doc(ctx, id)
	if err != nil {
		return err
	}
	if _, err := ref.Set(ctx, fields, firestore.MergeAll); err != nil {
		return WrapError(c.op("merge"), err)
	}
	return nil
}

// Create writes a new document with a caller supplied id, failing if it exists.
func (c *Collection[T]) Create(ctx context.Context, id string, data any) error {
	ref, err := c.Doc(ctx, id)
	if err != nil {
		return err
	}
	if _, err := ref.Create(ctx, data); err != nil {
		return WrapError(c.op("create"), err)
	}
	return nil
}

// Delete removes a document. Deleting a missing document is not an error.
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	ref, err := c.Doc(ctx, id)
	if err != nil {
		return err
	}
	if _, err := ref.Delete(ctx); err != nil && !IsNotFound(err) {
		return WrapError(c.op("delete"), err)
	}
	return nil
}

// Query executes a collection query and returns the decoded documents.
func (c *Collection[T]) Query(ctx context.Context, build QueryBuilder) ([]Document[T], error) {
	coll, err := c.ref(ctx)
	if err != nil {
		return nil, err
	}
	query := coll.Query
	if build != nil {
		query = build(query)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var docs []Document[T]
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, WrapError(c.op("query"), err)
		}
		doc, err := c.document(snap)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// DeleteWhere removes every document matched by the query and returns how many were deleted.
func (c *Collection[T]) DeleteWhere(ctx context.Context, build QueryBuilder) (int, error) {
	coll, err := c.ref(ctx)
	if err != nil {
		return 0, err
	}
	client, err := c.provider.Client(ctx)
	if err != nil {
		return 0, err
	}
	query := coll.Query
	if build != nil {
		query = build(query)
	}

	writer := client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0)

	iter := query.Select().Documents(ctx)
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			iter.Stop()
			writer.End()
			return 0, WrapError(c.op("delete_where"), err)
		}
		job, err := writer.Delete(snap.Ref)
		if err != nil {
			iter.Stop()
			writer.End()
			return 0, WrapError(c.op("delete_where"), err)
		}
		jobs = append(jobs, job)
	}
	iter.Stop()
	writer.End()

	deleted := 0
	var errs []error
	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			errs = append(errs, err)
			continue
		}
		deleted++
	}
	if len(errs) > 0 {
		return deleted, WrapError(c.op("delete_where"), errors.Join(errs...))
	}
	return deleted, nil
}

// Doc returns a reference to the named document.
func (c *Collection[T]) Doc(ctx context.Context, id string) (*firestore.DocumentRef, error) {
	if strings.TrimSpace(id) == "" {
		return nil, WrapError(c.op("doc"), errors.New("firestore: document id is required"))
	}
	coll, err := c.ref(ctx)
	if err != nil {
		return nil, err
	}
	return coll.Doc(id), nil
}

func (c *Collection[T]) document(snap *firestore.DocumentSnapshot) (Document[T], error) {
	entity, err := c.decode(snap)
	if err != nil {
		return Document[T]{}, fmt.Errorf("firestore: decode %s/%s: %w", c.name, snap.Ref.ID, err)
	}
	return Document[T]{
		ID:         snap.Ref.ID,
		Data:       entity,
		CreateTime: snap.CreateTime,
		UpdateTime: snap.UpdateTime,
	}, nil
}

func (c *Collection[T]) ref(ctx context.Context) (*firestore.CollectionRef, error) {
	if c == nil || c.provider == nil {
		return nil, WrapError("firestore.collection", errors.New("firestore: provider is nil"))
	}
	if c.name == "" {
		return nil, WrapError("firestore.collection", errors.New("firestore: collection name is required"))
	}
	client, err := c.provider.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client.Collection(c.name), nil
}

func (c *Collection[T]) op(action string) string {
	return c.name + "." + action
}

// StructDecoder populates the target struct using Firestore's native decoding.
func StructDecoder[T any]() Decoder[T] {
	return func(snap *firestore.DocumentSnapshot) (T, error) {
		var target T
		err := snap.DataTo(&target)
		return target, err
	}
}
