// Package mongodb implements the journal store on MongoDB.
//
// The store owns the driver client. Dial creates it on first need and pings
// the primary on every call, so the connection manager can use it both to
// establish and to re-validate the link. Heartbeat failures and network
// errors on operations are reported back to the manager.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"journals-backend/application/ports"
	"journals-backend/domain/journal"
	"journals-backend/infrastructure/persistence/connection"
	apperrors "journals-backend/pkg/errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/event"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// documentValidationFailure is the server error code for a write rejected by
// the collection's JSON schema validator.
const documentValidationFailure = 121

// Config holds the driver settings
type Config struct {
	URI                    string
	Database               string
	Collection             string
	MaxPoolSize            uint64
	HeartbeatInterval      time.Duration
	ServerSelectionTimeout time.Duration
}

// document is the stored shape: the journal attributes plus the ObjectID key.
type document struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	journal.Fields `bson:",inline"`
}

func (d document) toJournal() journal.Journal {
	return journal.Journal{ID: d.ID.Hex(), Fields: d.Fields}
}

// JournalStore is a MongoDB-backed ports.JournalStore
type JournalStore struct {
	cfg    Config
	logger *zap.Logger

	mu     sync.RWMutex
	client *mongo.Client
	coll   *mongo.Collection

	// reporterMu is separate from mu: heartbeat callbacks fire on driver
	// goroutines while Dial holds mu.
	reporterMu sync.RWMutex
	reporter   connection.Reporter
}

// NewJournalStore creates a store. No network I/O happens until Dial.
func NewJournalStore(cfg Config, logger *zap.Logger) *JournalStore {
	return &JournalStore{
		cfg:    cfg,
		logger: logger,
	}
}

// SetReporter registers the receiver of transport failure reports
func (s *JournalStore) SetReporter(r connection.Reporter) {
	s.reporterMu.Lock()
	defer s.reporterMu.Unlock()
	s.reporter = r
}

// Dial implements connection.Dialer
func (s *JournalStore) Dial(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client == nil {
		client, err := mongo.Connect(ctx, s.clientOptions())
		if err != nil {
			return fmt.Errorf("failed to create mongo client: %w", err)
		}
		s.client = client
		s.coll = client.Database(s.cfg.Database).Collection(s.cfg.Collection)
	}

	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		// Drop the client so the next attempt starts from a fresh one.
		disconnectCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		if derr := s.client.Disconnect(disconnectCtx); derr != nil {
			s.logger.Debug("Failed to disconnect stale mongo client", zap.Error(derr))
		}
		s.client, s.coll = nil, nil
		return fmt.Errorf("failed to ping mongo primary: %w", err)
	}
	return nil
}

// Close implements connection.Closer
func (s *JournalStore) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client == nil {
		return nil
	}
	err := s.client.Disconnect(ctx)
	s.client, s.coll = nil, nil
	return err
}

func (s *JournalStore) clientOptions() *options.ClientOptions {
	opts := options.Client().
		ApplyURI(s.cfg.URI).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true}).
		SetServerMonitor(&event.ServerMonitor{
			ServerHeartbeatFailed: s.heartbeatFailed,
		})
	if s.cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(s.cfg.MaxPoolSize)
	}
	if s.cfg.HeartbeatInterval > 0 {
		opts.SetHeartbeatInterval(s.cfg.HeartbeatInterval)
	}
	if s.cfg.ServerSelectionTimeout > 0 {
		opts.SetServerSelectionTimeout(s.cfg.ServerSelectionTimeout)
	}
	return opts
}

func (s *JournalStore) heartbeatFailed(evt *event.ServerHeartbeatFailedEvent) {
	s.logger.Warn("MongoDB heartbeat failed",
		zap.String("connection_id", evt.ConnectionID),
		zap.Error(evt.Failure),
	)
	s.report(evt.Failure)
}

func (s *JournalStore) report(err error) {
	s.reporterMu.RLock()
	r := s.reporter
	s.reporterMu.RUnlock()
	if r != nil {
		r.Invalidate(err)
	}
}

func (s *JournalStore) collection() (*mongo.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.coll == nil {
		return nil, apperrors.NewConnection("record store not connected", mongo.ErrClientDisconnected)
	}
	return s.coll, nil
}

// List returns all journals ordered by identifier, which follows insertion order.
func (s *JournalStore) List(ctx context.Context, opts ports.ListOptions) ([]journal.Journal, error) {
	coll, err := s.collection()
	if err != nil {
		return nil, err
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if proj := projection(opts.Fields); proj != nil {
		findOpts.SetProjection(proj)
	}

	cursor, err := coll.Find(ctx, bson.D{}, findOpts)
	if err != nil {
		return nil, s.storeError("failed to list journals", err)
	}

	var docs []document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, s.storeError("failed to read journals", err)
	}

	journals := make([]journal.Journal, 0, len(docs))
	for _, d := range docs {
		journals = append(journals, d.toJournal())
	}
	return journals, nil
}

// Create inserts a journal and returns it with the generated ObjectID
func (s *JournalStore) Create(ctx context.Context, fields journal.Fields) (journal.Journal, error) {
	coll, err := s.collection()
	if err != nil {
		return journal.Journal{}, err
	}

	res, err := coll.InsertOne(ctx, document{Fields: fields})
	if err != nil {
		return journal.Journal{}, s.storeError("failed to create journal", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return journal.Journal{}, apperrors.NewStore("unexpected inserted id type", fmt.Errorf("%T", res.InsertedID))
	}
	return journal.Journal{ID: oid.Hex(), Fields: fields}, nil
}

// Update applies patch with $set and returns the document after the update
func (s *JournalStore) Update(ctx context.Context, id string, patch journal.Patch) (journal.Journal, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return journal.Journal{}, apperrors.NewNotFound("Journal not found")
	}
	coll, err := s.collection()
	if err != nil {
		return journal.Journal{}, err
	}

	filter := bson.D{{Key: "_id", Value: oid}}

	var result *mongo.SingleResult
	if patch.IsEmpty() {
		result = coll.FindOne(ctx, filter)
	} else {
		update, err := setUpdate(patch)
		if err != nil {
			return journal.Journal{}, apperrors.NewValidation(err.Error())
		}
		result = coll.FindOneAndUpdate(ctx, filter, update,
			options.FindOneAndUpdate().SetReturnDocument(options.After))
	}

	var doc document
	if err := result.Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return journal.Journal{}, apperrors.NewNotFound("Journal not found")
		}
		return journal.Journal{}, s.storeError("failed to update journal", err)
	}
	return doc.toJournal(), nil
}

// Delete removes the journal with the given identifier
func (s *JournalStore) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperrors.NewNotFound("Journal not found")
	}
	coll, err := s.collection()
	if err != nil {
		return err
	}

	res, err := coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return s.storeError("failed to delete journal", err)
	}
	if res.DeletedCount == 0 {
		return apperrors.NewNotFound("Journal not found")
	}
	return nil
}

// storeError classifies a driver error. Transport failures are reported to
// the connection manager before being surfaced as store errors.
func (s *JournalStore) storeError(message string, err error) error {
	var we mongo.WriteException
	if errors.As(err, &we) && we.HasErrorCode(documentValidationFailure) {
		return apperrors.NewValidation("journal failed document validation")
	}
	if isTransportError(err) {
		s.report(err)
	}
	return apperrors.NewStore(message, err)
}

func isTransportError(err error) bool {
	return mongo.IsNetworkError(err) ||
		mongo.IsTimeout(err) ||
		errors.Is(err, mongo.ErrClientDisconnected)
}

func projection(fields []string) bson.D {
	if len(fields) == 0 {
		return nil
	}
	proj := make(bson.D, 0, len(fields))
	for _, f := range fields {
		proj = append(proj, bson.E{Key: f, Value: 1})
	}
	return proj
}

// setUpdate builds a $set document from the supplied fields of patch. The
// omitempty tags on journal.Fields leave unsupplied fields out.
func setUpdate(patch journal.Patch) (bson.D, error) {
	raw, err := bson.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("invalid journal patch: %w", err)
	}
	return bson.D{{Key: "$set", Value: bson.Raw(raw)}}, nil
}
