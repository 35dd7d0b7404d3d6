package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/ahmetcoskunkizilkaya/punchcard-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/punchcard-backend/internal/search"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Company{}, &models.Punchcard{}))
	return db
}

// memIndex is an in-memory search.Index with failure injection.
type memIndex struct {
	mu      sync.Mutex
	docs    map[string]search.Document
	missing bool

	searchErr error
	indexErr  error
	deleteErr error
	resetErr  error

	calls []string
}

func newMemIndex() *memIndex {
	return &memIndex{docs: map[string]search.Document{}}
}

func (m *memIndex) record(call string) {
	m.calls = append(m.calls, call)
}

func (m *memIndex) Search(_ context.Context, query string, from, size int) ([]search.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("search")
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if m.missing {
		return nil, search.ErrIndexNotFound
	}

	var out []search.Document
	for _, d := range m.docs {
		if query == "" || strings.Contains(strings.ToLower(d.Title+" "+d.Description), strings.ToLower(query)) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	if from >= len(out) {
		return []search.Document{}, nil
	}
	end := from + size
	if end > len(out) {
		end = len(out)
	}
	return out[from:end], nil
}

func (m *memIndex) IndexDocument(_ context.Context, id string, doc search.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("index:" + id)
	if m.indexErr != nil {
		return m.indexErr
	}
	doc.ID = id
	m.docs[id] = doc
	m.missing = false
	return nil
}

func (m *memIndex) DeleteDocument(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("delete:" + id)
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.docs, id)
	return nil
}

func (m *memIndex) EnsureIndex(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.missing = false
	return nil
}

func (m *memIndex) Reset(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("reset")
	if m.resetErr != nil {
		return m.resetErr
	}
	m.docs = map[string]search.Document{}
	m.missing = false
	return nil
}

func (m *memIndex) Ping(context.Context) error { return nil }

func (m *memIndex) doc(id string) (search.Document, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	return d, ok
}

func (m *memIndex) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.docs)
}

var errBackend = errors.New("backend down")
