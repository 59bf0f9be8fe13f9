package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/custodia-labs/studypipe/internal/core/domain"
	"github.com/custodia-labs/studypipe/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.MaterialStore = (*Store)(nil)

// CollectionName is the collection material records are stored in.
const CollectionName = "materials"

// DefaultDatabase is used when no database name is configured.
const DefaultDatabase = "studypipe"

const connectTimeout = 10 * time.Second

// materialDocument is the stored shape of a material.
type materialDocument struct {
	ID               string                `bson:"_id"`
	OriginalFilename string                `bson:"original_filename"`
	SafeName         string                `bson:"safe_name"`
	Subject          string                `bson:"subject"`
	UploadedBy       string                `bson:"uploaded_by"`
	Status           string                `bson:"status"`
	Artifacts        map[string]string     `bson:"artifacts"`
	QuizContent      []domain.QuizQuestion `bson:"quiz_content,omitempty"`
	Error            string                `bson:"error,omitempty"`
	CreatedAt        time.Time             `bson:"created_at"`
	StartedAt        *time.Time            `bson:"started_at,omitempty"`
	CompletedAt      *time.Time            `bson:"completed_at,omitempty"`
	FailedAt         *time.Time            `bson:"failed_at,omitempty"`
}

// Store is a MongoDB-backed material store.
type Store struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewStore connects to uri, verifies the connection and ensures indexes exist.
func NewStore(ctx context.Context, uri, database string) (*Store, error) {
	if uri == "" {
		return nil, fmt.Errorf("%w: mongo uri is required", domain.ErrStoreUnavailable)
	}
	if database == "" {
		database = DefaultDatabase
	}

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("%w: connecting: %w", domain.ErrStoreUnavailable, err)
	}
	s := &Store{
		client:     client,
		collection: client.Database(database).Collection(CollectionName),
	}

	if err := s.Ping(connectCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	if err := s.ensureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "subject", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "uploaded_by", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return wrapError("creating indexes", err)
	}
	return nil
}

// Ping validates the server is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Insert stores a new material.
func (s *Store) Insert(ctx context.Context, m *domain.Material) (string, error) {
	if m.ID == "" {
		return "", fmt.Errorf("%w: material id is required", domain.ErrStore)
	}
	if _, err := s.collection.InsertOne(ctx, toDocument(m)); err != nil {
		return "", wrapError("inserting material", err)
	}
	return m.ID, nil
}

// Update applies a partial update in one round trip.
func (s *Store) Update(ctx context.Context, id string, u domain.MaterialUpdate) error {
	update := updateDocument(u)
	if len(update) == 0 {
		_, err := s.Find(ctx, id)
		return err
	}
	res, err := s.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return wrapError("updating material", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Find retrieves a material by ID.
func (s *Store) Find(ctx context.Context, id string) (*domain.Material, error) {
	var doc materialDocument
	if err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, wrapError("finding material", err)
	}
	return fromDocument(&doc), nil
}

// List returns materials matching the filter, newest first.
func (s *Store) List(ctx context.Context, filter domain.ListFilter) ([]domain.Material, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	cursor, err := s.collection.Find(ctx, listQuery(filter), opts)
	if err != nil {
		return nil, wrapError("querying materials", err)
	}
	defer cursor.Close(ctx)

	var docs []materialDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, wrapError("decoding materials", err)
	}
	materials := make([]domain.Material, 0, len(docs))
	for i := range docs {
		materials = append(materials, *fromDocument(&docs[i]))
	}
	return materials, nil
}

func listQuery(filter domain.ListFilter) bson.M {
	q := bson.M{}
	if filter.Subject != "" {
		q["subject"] = string(filter.Subject)
	}
	if filter.Status != "" {
		q["status"] = string(filter.Status)
	}
	if filter.UploadedBy != "" {
		q["uploaded_by"] = filter.UploadedBy
	}
	return q
}

// updateDocument translates a partial update into $set and $unset operators.
// A field that is both cleared and set is only set.
func updateDocument(u domain.MaterialUpdate) bson.M {
	set := bson.M{}
	unset := bson.M{}

	if u.OriginalFilename != nil {
		set["original_filename"] = *u.OriginalFilename
		set["safe_name"] = domain.SafeName(*u.OriginalFilename)
	}
	if u.Subject != nil {
		set["subject"] = string(*u.Subject)
	}
	if u.Status != nil {
		set["status"] = string(*u.Status)
	}
	if u.Artifacts != nil {
		set["artifacts"] = artifactMap(u.Artifacts)
	}
	if u.QuizContent != nil {
		set["quiz_content"] = u.QuizContent
	} else if u.ClearQuiz {
		unset["quiz_content"] = ""
	}
	if u.Error != nil {
		if *u.Error == "" {
			unset["error"] = ""
		} else {
			set["error"] = *u.Error
		}
	}

	times := []struct {
		field string
		value *time.Time
	}{
		{"started_at", u.StartedAt},
		{"completed_at", u.CompletedAt},
		{"failed_at", u.FailedAt},
	}
	for _, ts := range times {
		switch {
		case ts.value != nil:
			set[ts.field] = *ts.value
		case u.ClearTimestamps:
			unset[ts.field] = ""
		}
	}

	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update
}

func toDocument(m *domain.Material) *materialDocument {
	return &materialDocument{
		ID:               m.ID,
		OriginalFilename: m.OriginalFilename,
		SafeName:         m.SafeName,
		Subject:          string(m.Subject),
		UploadedBy:       m.UploadedBy,
		Status:           string(m.Status),
		Artifacts:        artifactMap(m.Artifacts),
		QuizContent:      m.QuizContent,
		Error:            m.Error,
		CreatedAt:        m.CreatedAt,
		StartedAt:        m.StartedAt,
		CompletedAt:      m.CompletedAt,
		FailedAt:         m.FailedAt,
	}
}

func fromDocument(doc *materialDocument) *domain.Material {
	m := &domain.Material{
		ID:               doc.ID,
		OriginalFilename: doc.OriginalFilename,
		SafeName:         doc.SafeName,
		Subject:          domain.Subject(doc.Subject),
		UploadedBy:       doc.UploadedBy,
		Status:           domain.MaterialStatus(doc.Status),
		Artifacts:        make(domain.ArtifactSet, len(doc.Artifacts)),
		QuizContent:      doc.QuizContent,
		Error:            doc.Error,
		CreatedAt:        doc.CreatedAt.UTC(),
		StartedAt:        utc(doc.StartedAt),
		CompletedAt:      utc(doc.CompletedAt),
		FailedAt:         utc(doc.FailedAt),
	}
	for k, v := range doc.Artifacts {
		m.Artifacts[domain.ArtifactName(k)] = v
	}
	return m
}

func artifactMap(set domain.ArtifactSet) map[string]string {
	out := make(map[string]string, len(set))
	for k, v := range set {
		out[string(k)] = v
	}
	return out
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

func wrapError(op string, err error) error {
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return fmt.Errorf("%w: %s: %w", domain.ErrStoreUnavailable, op, err)
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrStore, op, err)
}
