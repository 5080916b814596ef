package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"todolists/model"
	"todolists/store"
)

// load reads both keys and restores the store invariants: at least one
// list, unique list ids, item ids present and an active id that names a
// stored list. Anything it had to repair is written back.
func (s *ListStore) load(ctx context.Context) error {
	snap, found, err := s.loadSnapshot(ctx)
	if err != nil {
		return err
	}
	if !found || len(snap.Lists) == 0 {
		s.log.Info("no stored lists, starting with a fresh list")
		s.bootstrap()
		return s.persist(ctx, "bootstrap", persistAll)
	}

	s.lists = snap.Lists
	dirty := s.normalize()

	activeID, activeOK := s.loadActive(ctx)
	if !activeOK || s.indexOfList(activeID) < 0 {
		if activeOK {
			s.log.WithField("list_id", activeID).Warn("active list missing, falling back to first list")
		}
		s.activeID = s.lists[0].ID
		if err := s.saveActive(ctx, "load"); err != nil {
			return err
		}
	} else {
		s.activeID = activeID
	}

	if dirty {
		return s.saveLists(ctx, "normalize")
	}
	return nil
}

// loadSnapshot returns found=false when there is nothing usable to load.
func (s *ListStore) loadSnapshot(ctx context.Context) (model.Snapshot, bool, error) {
	log := s.log.WithField("key", model.ListsKey)

	data, err := s.provider.Load(ctx, model.ListsKey)
	if errors.Is(err, store.ErrNotFound) {
		return model.Snapshot{}, false, nil
	}
	if err != nil {
		log.WithError(err).Error("load failed")
		return model.Snapshot{}, false, &PersistenceError{Op: "load", Key: model.ListsKey, Err: err}
	}

	snap, err := store.DecodeSnapshot(data)
	if err == nil {
		return snap, true, nil
	}
	if !store.IsCorrupt(err) {
		return model.Snapshot{}, false, fmt.Errorf("decode %s: %w", model.ListsKey, err)
	}

	log.WithError(err).Warn("stored lists are corrupt")
	rec, ok := s.provider.(store.Recoverer)
	if !ok {
		// The provider keeps no backups.
		key, err := s.quarantine(ctx, data)
		if err != nil {
			log.WithError(err).Error("could not keep corrupt lists aside")
			return model.Snapshot{}, false, &PersistenceError{Op: "quarantine", Key: key, Err: err}
		}
		s.recovery.QuarantineKey = key
		log.WithField("quarantine_key", key).Warn("corrupt lists kept aside")
		return model.Snapshot{}, false, nil
	}
	restored, source, err := rec.Recover(ctx, model.ListsKey, func(b []byte) error {
		_, err := store.DecodeSnapshot(b)
		return err
	})
	if err != nil {
		log.WithError(err).Warn("no usable backup")
		return model.Snapshot{}, false, nil
	}
	snap, err = store.DecodeSnapshot(restored)
	if err != nil {
		return model.Snapshot{}, false, nil
	}
	s.recovery.Source = source
	log.WithField("source", source).Info("lists recovered from backup")
	return snap, true, nil
}

// quarantine saves data under a fresh corrupt-<ts> key next to the lists key.
func (s *ListStore) quarantine(ctx context.Context, data []byte) (string, error) {
	key := fmt.Sprintf("%s.corrupt-%d", model.ListsKey, time.Now().UnixMilli())
	for {
		_, err := s.provider.Load(ctx, key)
		if errors.Is(err, store.ErrNotFound) {
			break
		}
		if err != nil {
			return key, err
		}
		key += "-1"
	}
	return key, s.provider.Save(ctx, key, data)
}

func (s *ListStore) loadActive(ctx context.Context) (int64, bool) {
	log := s.log.WithField("key", model.ActiveKey)
	data, err := s.provider.Load(ctx, model.ActiveKey)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.WithError(err).Warn("load failed")
		}
		return 0, false
	}
	id, err := store.DecodeActive(data)
	if err != nil {
		log.WithError(err).Warn("active id is corrupt")
		return 0, false
	}
	return id, true
}

// normalize repairs loaded lists in place and reports whether anything
// changed.
func (s *ListStore) normalize() bool {
	dirty := false
	seen := make(map[int64]bool, len(s.lists))
	for i := range s.lists {
		l := &s.lists[i]
		if seen[l.ID] {
			old := l.ID
			for seen[l.ID] {
				l.ID = s.newListID()
			}
			s.log.WithFields(logrus.Fields{"old_id": old, "list_id": l.ID}).Warn("duplicate list id reassigned")
			dirty = true
		}
		seen[l.ID] = true

		title := model.ClampTitle(strings.TrimSpace(l.Title))
		if title == "" {
			title = model.FallbackTitle
		}
		if title != l.Title {
			l.Title = title
			dirty = true
		}

		itemIDs := make(map[string]bool, len(l.Items))
		for j := range l.Items {
			for l.Items[j].ID == "" || itemIDs[l.Items[j].ID] {
				l.Items[j].ID = s.newItemID()
				dirty = true
			}
			itemIDs[l.Items[j].ID] = true
		}
	}
	return dirty
}
