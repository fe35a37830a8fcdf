package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/AnshRaj112/mindsoothe-backend/internal/models"
)

// PostgresJournalStore keeps entries in the "journals" table created by
// database.InitPostgresTables.
type PostgresJournalStore struct {
	db *sql.DB
}

func NewPostgresJournalStore(db *sql.DB) *PostgresJournalStore {
	return &PostgresJournalStore{db: db}
}

func (s *PostgresJournalStore) Insert(ctx context.Context, entry models.JournalEntry) (models.JournalEntry, error) {
	if err := checkInsertable(entry); err != nil {
		return models.JournalEntry{}, err
	}
	entry.ID = uuid.New().String()
	entry.CreatedAt = creationTime(entry.CreatedAt)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO journals (id, text, mood, reflection, suggestions, severity, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.Text, entry.Mood, entry.Reflection,
		pq.Array(entry.Suggestions), string(entry.Severity), entry.CreatedAt,
	)
	if err != nil {
		return models.JournalEntry{}, fmt.Errorf("insert journal: %w", err)
	}
	return entry, nil
}

// Recent returns up to limit entries, newest first.
func (s *PostgresJournalStore) Recent(ctx context.Context, limit int) ([]models.JournalEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, text, mood, reflection, suggestions, severity, created_at
		 FROM journals ORDER BY created_at DESC LIMIT $1`,
		clampRecentLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("query journals: %w", err)
	}
	defer rows.Close()

	entries := []models.JournalEntry{}
	for rows.Next() {
		var (
			e           models.JournalEntry
			suggestions pq.StringArray
			severity    string
		)
		if err := rows.Scan(&e.ID, &e.Text, &e.Mood, &e.Reflection, &suggestions, &severity, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan journal: %w", err)
		}
		e.Suggestions = []string(suggestions)
		e.Severity = models.Severity(severity)
		e.CreatedAt = e.CreatedAt.UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journals: %w", err)
	}
	return entries, nil
}

func (s *PostgresJournalStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
