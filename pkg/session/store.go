// Package session records metadata about recording sessions: when they
// ran, how many windows they produced, and where their CSV export
// landed. The raw sample buffers live in the collector; this store is
// the durable index researchers query afterwards.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is one recorded trial.
type Session struct {
	ID             string    `json:"id"`
	StartedAt      time.Time `json:"started_at"`
	StoppedAt      time.Time `json:"stopped_at,omitempty"`
	WindowsEmitted int       `json:"windows_emitted"`
	GazeSamples    int       `json:"gaze_samples"`
	Interactions   int       `json:"interactions"`
	HeartRate      int       `json:"heart_rate_samples"`
	ExportPath     string    `json:"export_path,omitempty"`
}

// Store defines the interface for session storage operations.
type Store interface {
	// Save creates or updates a session
	Save(sess *Session) error

	// Get retrieves a session by ID
	Get(id string) (*Session, error)

	// List returns all sessions, newest first
	List() ([]*Session, error)

	// Delete removes a session by ID
	Delete(id string) error

	// Count returns the total number of sessions
	Count() int
}

// JSONStore implements Store using a JSON file for persistence.
type JSONStore struct {
	path     string
	sessions map[string]*Session
	mu       sync.RWMutex
}

// storeData is the JSON structure for the store file.
type storeData struct {
	Version   int        `json:"version"`
	UpdatedAt string     `json:"updated_at"`
	Sessions  []*Session `json:"sessions"`
}

const currentVersion = 1

// NewJSONStore creates a new JSON-based store at the given path.
// If the file doesn't exist, it will be created on first save.
func NewJSONStore(path string) (*JSONStore, error) {
	store := &JSONStore{
		path:     path,
		sessions: make(map[string]*Session),
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		if err := store.load(); err != nil {
			return nil, fmt.Errorf("failed to load store: %w", err)
		}
	}

	return store, nil
}

// load reads the store from disk.
func (s *JSONStore) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var stored storeData
	if err := json.Unmarshal(data, &stored); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}

	s.sessions = make(map[string]*Session)
	for _, sess := range stored.Sessions {
		s.sessions[sess.ID] = sess
	}

	return nil
}

// save writes the store to disk. Caller must hold the lock.
func (s *JSONStore) save() error {
	sessions := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}

	stored := storeData{
		Version:   currentVersion,
		UpdatedAt: time.Now().Format(time.RFC3339),
		Sessions:  sessions,
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	// Write to temp file first, then rename (atomic write)
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// Save creates or updates a session.
func (s *JSONStore) Save(sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess.ID == "" {
		sess.ID = uuid.New().String()
	}
	if sess.StartedAt.IsZero() {
		sess.StartedAt = time.Now()
	}

	s.sessions[sess.ID] = sess
	return s.save()
}

// Get retrieves a session by ID.
func (s *JSONStore) Get(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session not found: %s", id)
	}
	return sess, nil
}

// List returns all sessions, newest first.
func (s *JSONStore) List() ([]*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].StartedAt.After(sessions[j].StartedAt)
	})
	return sessions, nil
}

// Delete removes a session by ID.
func (s *JSONStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("session not found: %s", id)
	}
	delete(s.sessions, id)
	return s.save()
}

// Count returns the total number of sessions.
func (s *JSONStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
