package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AnshRaj112/mindsoothe-backend/internal/models"
)

const (
	journalCollection = "journals"

	// DefaultRecentLimit is how many entries the history view shows.
	DefaultRecentLimit = 10
	// MaxRecentLimit caps a single history read.
	MaxRecentLimit = 50
)

// JournalStore is the append-only persistence collaborator. Insert assigns
// the identifier and returns the stored entry.
type JournalStore interface {
	Insert(ctx context.Context, entry models.JournalEntry) (models.JournalEntry, error)
	Recent(ctx context.Context, limit int) ([]models.JournalEntry, error)
	Ping(ctx context.Context) error
}

// journalDocument is the Mongo shape of a JournalEntry. Field names match
// the documents the existing web app reads and writes.
type journalDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Text        string             `bson:"text"`
	Mood        string             `bson:"mood"`
	Reflection  string             `bson:"reflection"`
	Suggestions []string           `bson:"suggestions"`
	Severity    string             `bson:"severity"`
	CreatedAt   time.Time          `bson:"createdAt"`
}

func (d journalDocument) entry() models.JournalEntry {
	return models.JournalEntry{
		ID:          d.ID.Hex(),
		Text:        d.Text,
		Mood:        d.Mood,
		Reflection:  d.Reflection,
		Suggestions: d.Suggestions,
		Severity:    models.Severity(d.Severity),
		CreatedAt:   d.CreatedAt.UTC(),
	}
}

// MongoJournalStore keeps entries in the "journals" collection.
type MongoJournalStore struct {
	db  *mongo.Database
	col *mongo.Collection
}

func NewMongoJournalStore(db *mongo.Database) *MongoJournalStore {
	return &MongoJournalStore{db: db, col: db.Collection(journalCollection)}
}

// EnsureIndexes creates the createdAt index used by Recent.
// Called on startup from main after Mongo has connected.
func (s *MongoJournalStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "createdAt", Value: -1}},
		Options: options.Index().SetName("idx_created_at"),
	})
	return err
}

func (s *MongoJournalStore) Insert(ctx context.Context, entry models.JournalEntry) (models.JournalEntry, error) {
	if err := checkInsertable(entry); err != nil {
		return models.JournalEntry{}, err
	}
	doc := journalDocument{
		ID:          primitive.NewObjectID(),
		Text:        entry.Text,
		Mood:        entry.Mood,
		Reflection:  entry.Reflection,
		Suggestions: entry.Suggestions,
		Severity:    string(entry.Severity),
		CreatedAt:   creationTime(entry.CreatedAt),
	}
	if _, err := s.col.InsertOne(ctx, doc); err != nil {
		return models.JournalEntry{}, fmt.Errorf("insert journal: %w", err)
	}
	return doc.entry(), nil
}

// Recent returns up to limit entries, newest first.
func (s *MongoJournalStore) Recent(ctx context.Context, limit int) ([]models.JournalEntry, error) {
	limit = clampRecentLimit(limit)

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := s.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find journals: %w", err)
	}
	defer cur.Close(ctx)

	var docs []journalDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode journals: %w", err)
	}

	entries := make([]models.JournalEntry, 0, len(docs))
	for _, d := range docs {
		entries = append(entries, d.entry())
	}
	return entries, nil
}

func (s *MongoJournalStore) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, nil)
}

// creationTime returns t, or now when t is zero, truncated to the
// millisecond precision both backends store.
func creationTime(t time.Time) time.Time {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Truncate(time.Millisecond)
}

func checkInsertable(entry models.JournalEntry) error {
	if entry.Text == "" {
		return errors.New("journal text is required")
	}
	if !entry.Severity.Persistable() {
		return fmt.Errorf("severity %q cannot be stored", entry.Severity)
	}
	return nil
}

func clampRecentLimit(limit int) int {
	if limit <= 0 {
		return DefaultRecentLimit
	}
	if limit > MaxRecentLimit {
		return MaxRecentLimit
	}
	return limit
}
