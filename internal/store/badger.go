// Modelview - Collaborative 3D Model Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelview

package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/modelview/internal/logging"
	"github.com/tomtom215/modelview/internal/models"
)

const backendBadger = "badger"

// Key prefixes. The model payload lives under its own key so that frequent
// camera and transform writes do not rewrite the mesh.
const (
	projectKeyPrefix = "project:"
	modelKeyPrefix   = "model:"
	userKeyPrefix    = "user:"
)

// maxConflictRetries bounds optimistic transaction retries in Update.
const maxConflictRetries = 8

// BadgerConfig configures OpenBadger.
type BadgerConfig struct {
	// Path is the data directory. Ignored when InMemory is set.
	Path string

	// InMemory keeps all data in RAM (tests).
	InMemory bool

	// SyncWrites fsyncs every commit.
	SyncWrites bool
}

// BadgerStore implements Store on BadgerDB.
type BadgerStore struct {
	db *badger.DB

	// writeMu serializes read-modify-write cycles. The conflict retry in
	// Update still covers transactions opened through DB().
	writeMu sync.Mutex
	now     func() time.Time
}

// OpenBadger opens (or creates) a BadgerDB database.
func OpenBadger(cfg BadgerConfig) (*BadgerStore, error) {
	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.SyncWrites = cfg.SyncWrites
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	logging.Info().
		Str("path", cfg.Path).
		Bool("in_memory", cfg.InMemory).
		Bool("sync_writes", cfg.SyncWrites).
		Msg("Project store opened")

	return NewBadgerStore(db), nil
}

// NewBadgerStore wraps an already open database.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db, now: time.Now}
}

// DB exposes the underlying database for maintenance (value-log GC).
func (s *BadgerStore) DB() *badger.DB { return s.db }

// Backend implements Store.
func (s *BadgerStore) Backend() string { return backendBadger }

// List implements ProjectStore.
func (s *BadgerStore) List(_ context.Context) (out []models.ProjectSummary, err error) {
	defer observeBadger("list", time.Now(), &err)

	err = s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(projectKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var p models.Project
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &p)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			sum := p.Summary()
			if _, err := txn.Get(modelKey(p.ProjectID)); err == nil {
				sum.HasModel = true
			}
			out = append(out, sum)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.ProjectSummary{}
	}
	sortSummaries(out)
	return out, nil
}

// Get implements ProjectStore.
func (s *BadgerStore) Get(_ context.Context, projectID string) (p *models.Project, err error) {
	defer observeBadger("get", time.Now(), &err)

	err = s.db.View(func(txn *badger.Txn) error {
		var err error
		p, err = loadProject(txn, projectID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Create implements ProjectStore.
func (s *BadgerStore) Create(_ context.Context, p *models.Project) (err error) {
	defer observeBadger("create", time.Now(), &err)

	return s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(projectKey(p.ProjectID))
		if err == nil {
			return ErrProjectExists
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("check project: %w", err)
		}
		return saveProject(txn, p, nil)
	})
}

// Update implements ProjectStore. Conflicting concurrent commits are retried
// against the fresh document, so the last committed write wins.
func (s *BadgerStore) Update(_ context.Context, projectID string, fn Mutator) (changed bool, err error) {
	defer observeBadger("update", time.Now(), &err)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		changed = false
		err = s.db.Update(func(txn *badger.Txn) error {
			p, err := loadProject(txn, projectID)
			if err != nil {
				return err
			}
			prevModel := p.Model
			ok, err := fn(p)
			if err != nil || !ok {
				return err
			}
			p.UpdatedAt = s.now()
			changed = true
			return saveProject(txn, p, prevModel)
		})
		if !errors.Is(err, badger.ErrConflict) {
			break
		}
		logging.Debug().Str("project_id", projectID).Int("attempt", attempt+1).Msg("Project update conflict, retrying")
	}
	if err != nil {
		return false, err
	}
	return changed, nil
}

// UpsertUser implements UserStore.
func (s *BadgerStore) UpsertUser(_ context.Context, u models.User) (err error) {
	defer observeBadger("upsert_user", time.Now(), &err)

	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = s.now()
	}
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(userKey(u.UserID), data)
	})
}

// GetUser implements UserStore.
func (s *BadgerStore) GetUser(_ context.Context, userID string) (u *models.User, err error) {
	defer observeBadger("get_user", time.Now(), &err)

	var user models.User
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(userID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return fmt.Errorf("get user: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &user)
		})
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUsers implements UserStore.
func (s *BadgerStore) GetUsers(_ context.Context, userIDs []string) (out map[string]string, err error) {
	defer observeBadger("get_users", time.Now(), &err)

	out = make(map[string]string, len(userIDs))
	err = s.db.View(func(txn *badger.Txn) error {
		for _, id := range userIDs {
			item, err := txn.Get(userKey(id))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return fmt.Errorf("get user %s: %w", id, err)
			}
			var u models.User
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &u)
			}); err != nil {
				return err
			}
			out[id] = u.Name
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RunGC reclaims value-log space until nothing more can be rewritten.
func (s *BadgerStore) RunGC(discardRatio float64) error {
	for {
		err := s.db.RunValueLogGC(discardRatio)
		if errors.Is(err, badger.ErrNoRewrite) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("run GC: %w", err)
		}
	}
}

// Ping implements Store with an empty read transaction.
func (s *BadgerStore) Ping(_ context.Context) (err error) {
	defer observeBadger("ping", time.Now(), &err)
	if s.db.IsClosed() {
		return ErrClosed
	}
	return s.db.View(func(*badger.Txn) error { return nil })
}

// Close implements Store.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func projectKey(id string) []byte { return []byte(projectKeyPrefix + id) }
func modelKey(id string) []byte   { return []byte(modelKeyPrefix + id) }
func userKey(id string) []byte    { return []byte(userKeyPrefix + id) }

func loadProject(txn *badger.Txn, projectID string) (*models.Project, error) {
	item, err := txn.Get(projectKey(projectID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}

	var p models.Project
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &p)
	}); err != nil {
		return nil, fmt.Errorf("decode project: %w", err)
	}

	mi, err := txn.Get(modelKey(projectID))
	switch {
	case err == nil:
		if p.Model, err = mi.ValueCopy(nil); err != nil {
			return nil, fmt.Errorf("read model: %w", err)
		}
	case !errors.Is(err, badger.ErrKeyNotFound):
		return nil, fmt.Errorf("get model: %w", err)
	}

	if p.ChatLog == nil {
		p.ChatLog = []models.ChatMessage{}
	}
	if p.Annotations == nil {
		p.Annotations = []models.Annotation{}
	}
	return &p, nil
}

// saveProject writes the document and, when it differs from prevModel, the
// model payload.
func saveProject(txn *badger.Txn, p *models.Project, prevModel []byte) error {
	doc := *p
	doc.Model = nil
	data, err := json.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("marshal project: %w", err)
	}
	if err := txn.Set(projectKey(p.ProjectID), data); err != nil {
		return fmt.Errorf("set project: %w", err)
	}
	if bytes.Equal(p.Model, prevModel) {
		return nil
	}
	if len(p.Model) == 0 {
		return txn.Delete(modelKey(p.ProjectID))
	}
	if err := txn.Set(modelKey(p.ProjectID), p.Model); err != nil {
		return fmt.Errorf("set model: %w", err)
	}
	return nil
}

func observeBadger(op string, start time.Time, err *error) {
	observe(backendBadger, op, start, err)
}
