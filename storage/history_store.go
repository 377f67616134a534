package storage

import (
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
)

// MaxHistoryEntries caps the history log; the oldest entries are evicted
// first.
const MaxHistoryEntries = 50

// HistoryStore is the file-backed analysis history log, ordered
// most-recent-first. Every Record call reloads the file, prepends, truncates
// and rewrites it in full, matching the per-request read semantics of the
// handlers.
type HistoryStore struct {
	path string
}

func NewHistoryStore(path string) *HistoryStore {
	return &HistoryStore{path: path}
}

// Load returns the full ordered sequence of entries, or an empty slice if no
// durable record exists yet.
func (s *HistoryStore) Load() ([]HistoryEntry, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return []HistoryEntry{}, nil
	} else if err != nil {
		return nil, err
	}

	var entries []HistoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Record prepends entry, truncates the log to the newest MaxHistoryEntries
// and persists the full sequence.
func (s *HistoryStore) Record(entry HistoryEntry) error {
	entries, err := s.Load()
	if err != nil {
		return err
	}

	entries = append([]HistoryEntry{entry}, entries...)
	if len(entries) > MaxHistoryEntries {
		entries = entries[:MaxHistoryEntries]
	}
	return s.persist(entries)
}

// ForViewer returns the entries visible to the given identity: doctors see
// everything, patients only the entries they authored.
func (s *HistoryStore) ForViewer(role, userID string) ([]HistoryEntry, error) {
	entries, err := s.Load()
	if err != nil {
		return nil, err
	}
	if role == RoleDoctor {
		return entries, nil
	}

	own := make([]HistoryEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.UserID == userID {
			own = append(own, entry)
		}
	}
	return own, nil
}

func (s *HistoryStore) persist(entries []HistoryEntry) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return err
	}
	data, err := json.MarshalIndent(entries, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o640)
}
