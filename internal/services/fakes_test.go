package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/AnshRaj112/mindsoothe-backend/internal/models"
)

type fakeStore struct {
	mu           sync.Mutex
	entries      []models.JournalEntry
	insertErr    error
	recentErr    error
	inserts      int
	recentLimits []int
}

func newFakeStore() *fakeStore { return &fakeStore{} }

func (f *fakeStore) Insert(ctx context.Context, entry models.JournalEntry) (models.JournalEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserts++
	if f.insertErr != nil {
		return models.JournalEntry{}, f.insertErr
	}
	entry.ID = fmt.Sprintf("entry-%d", f.inserts)
	entry.CreatedAt = creationTime(entry.CreatedAt)
	f.entries = append(f.entries, entry)
	return entry, nil
}

func (f *fakeStore) Recent(ctx context.Context, limit int) ([]models.JournalEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recentLimits = append(f.recentLimits, limit)
	if f.recentErr != nil {
		return nil, f.recentErr
	}
	out := []models.JournalEntry{}
	for i := len(f.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.entries[i])
	}
	return out, nil
}

func (f *fakeStore) Ping(ctx context.Context) error { return nil }

func (f *fakeStore) stored() []models.JournalEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.JournalEntry(nil), f.entries...)
}

type fakeModerator struct {
	verdict ModerationVerdict
	err     error
	calls   int
}

func (f *fakeModerator) Moderate(ctx context.Context, text string) (ModerationVerdict, error) {
	f.calls++
	return f.verdict, f.err
}

type fakeReflector struct {
	result ReflectionResult
	err    error
	calls  int
	block  bool
}

func (f *fakeReflector) Reflect(ctx context.Context, text string) (ReflectionResult, error) {
	f.calls++
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.result, f.err
}
