// Package firestore stores each entry as a document under
// users/{uid}/entries and follows the collection with a realtime listener.
package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/chris-regnier/daybook/internal/entry"
	"github.com/chris-regnier/daybook/internal/storage"
)

// Store implements storage.Storage and storage.Watcher for one user.
type Store struct {
	client *firestore.Client
	uid    string
	// ownsClient is set when Close should close the client too.
	ownsClient bool
}

// New scopes client to uid's entries. An empty uid means nobody is signed in.
func New(client *firestore.Client, uid string) (*Store, error) {
	if uid == "" {
		return nil, storage.ErrUnauthenticated
	}
	return &Store{client: client, uid: uid}, nil
}

// NewOwned is New for a client the store should close.
func NewOwned(client *firestore.Client, uid string) (*Store, error) {
	s, err := New(client, uid)
	if err != nil {
		return nil, err
	}
	s.ownsClient = true
	return s, nil
}

func (s *Store) entries() *firestore.CollectionRef {
	return s.client.Collection("users").Doc(s.uid).Collection("entries")
}

func (s *Store) query() firestore.Query {
	return s.entries().OrderBy("date", firestore.Desc)
}

// Close closes the client if the store owns it.
func (s *Store) Close() error {
	if s.ownsClient {
		return s.client.Close()
	}
	return nil
}

// Load reads every entry document, newest first.
func (s *Store) Load(ctx context.Context) ([]entry.Entry, error) {
	docs, err := s.query().Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("%w: listing entries: %v", storage.ErrStorage, err)
	}
	return decodeAll(docs), nil
}

// Save makes the collection match entries exactly: every entry is written
// and documents for entries no longer present are deleted.
func (s *Store) Save(ctx context.Context, entries []entry.Entry) error {
	keep := make(map[string]bool, len(entries))
	for _, e := range entries {
		keep[e.ID] = true
	}

	var stale []*firestore.DocumentRef
	it := s.entries().Select().Documents(ctx)
	defer it.Stop()
	for {
		doc, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: listing entries: %v", storage.ErrStorage, err)
		}
		if !keep[doc.Ref.ID] {
			stale = append(stale, doc.Ref)
		}
	}

	bw := s.client.BulkWriter(ctx)
	var jobs []*firestore.BulkWriterJob
	for _, e := range entries {
		job, err := bw.Set(s.entries().Doc(e.ID), encode(e))
		if err != nil {
			bw.End()
			return fmt.Errorf("%w: queueing %s: %v", storage.ErrStorage, e.ID, err)
		}
		jobs = append(jobs, job)
	}
	for _, ref := range stale {
		job, err := bw.Delete(ref)
		if err != nil {
			bw.End()
			return fmt.Errorf("%w: queueing delete of %s: %v", storage.ErrStorage, ref.ID, err)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			return fmt.Errorf("%w: writing entries: %v", storage.ErrStorage, err)
		}
	}
	return nil
}

// Watch follows the entries collection, emitting the full ordered set on
// every change.
func (s *Store) Watch(ctx context.Context) (*storage.Subscription, error) {
	return storage.NewSubscription(ctx, func(ctx context.Context, emit storage.EmitFunc) error {
		it := s.query().Snapshots(ctx)
		defer it.Stop()
		for {
			snap, err := it.Next()
			if err != nil {
				if ctx.Err() != nil || status.Code(err) == codes.Canceled {
					return nil
				}
				return fmt.Errorf("%w: listening to entries: %v", storage.ErrStorage, err)
			}
			docs, err := snap.Documents.GetAll()
			if err != nil {
				return fmt.Errorf("%w: reading snapshot: %v", storage.ErrStorage, err)
			}
			if !emit(decodeAll(docs)) {
				return nil
			}
		}
	}), nil
}

func encode(e entry.Entry) map[string]interface{} {
	photos := e.Photo
	if photos == nil {
		photos = []string{}
	}
	var date interface{}
	if e.HasDate() {
		date = e.Date.UTC()
	}
	return map[string]interface{}{
		"title": e.Title,
		"story": e.Story,
		"date":  date,
		"photo": photos,
	}
}

func decodeAll(docs []*firestore.DocumentSnapshot) []entry.Entry {
	out := make([]entry.Entry, 0, len(docs))
	for _, doc := range docs {
		out = append(out, decode(doc.Ref.ID, doc.Data()))
	}
	return out
}

// decode reads a document leniently: documents written by other clients may
// carry dates as strings or photo lists with stray values.
func decode(id string, data map[string]interface{}) entry.Entry {
	e := entry.Entry{ID: id, Photo: []string{}}
	e.Title, _ = data["title"].(string)
	e.Story, _ = data["story"].(string)
	switch d := data["date"].(type) {
	case time.Time:
		e.Date = d.Local()
	case string:
		e.Date = storage.ParseTimestamp(d)
	}
	if photos, ok := data["photo"].([]interface{}); ok {
		for _, p := range photos {
			if ref, ok := p.(string); ok {
				e.Photo = append(e.Photo, ref)
			}
		}
	}
	return e
}
