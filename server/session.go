package main

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hexwave/wavelet/blip"
	"github.com/hexwave/wavelet/commons"
	"github.com/hexwave/wavelet/config"
)

// session owns every live blip and serializes operation streams per blip.
// The core applies one stream against one buffer at a time; the per-blip
// lock here is what enforces that when several clients write.
type session struct {
	mu    sync.Mutex
	blips map[uuid.UUID]*blipState
	store *config.Config
}

type blipState struct {
	mu   sync.Mutex
	blip *blip.Blip
}

// newSession restores persisted blips from the store.
func newSession(store *config.Config) *session {
	s := &session{
		blips: make(map[uuid.UUID]*blipState),
		store: store,
	}
	for key, raw := range store.All() {
		var snap commons.BlipSnapshot
		if err := json.Unmarshal([]byte(raw), &snap); err != nil {
			logrus.WithError(err).WithField("blip", key).Error("failed to decode persisted blip, skipping")
			continue
		}
		b, err := commons.Restore(&snap)
		if err != nil {
			logrus.WithError(err).WithField("blip", key).Error("failed to restore persisted blip, skipping")
			continue
		}
		s.blips[b.ID] = &blipState{blip: b}
	}
	logrus.WithField("blips", len(s.blips)).Info("session restored")
	return s
}

// create makes a fresh blip owned by creator.
func (s *session) create(creator string) *commons.BlipSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := blip.NewBlip(creator)
	s.blips[b.ID] = &blipState{blip: b}
	return commons.Snapshot(b)
}

func (s *session) get(id uuid.UUID) (*blipState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.blips[id]
	if !ok {
		return nil, fmt.Errorf("unknown blip %s", id)
	}
	return state, nil
}

// applyScript applies one operation script to a blip under its lock and
// returns the normalized snapshot. The script is validated as a whole before
// anything mutates, so a bad script leaves the blip untouched.
func (s *session) applyScript(id uuid.UUID, username string, script []commons.Operation) (*commons.BlipSnapshot, error) {
	state, err := s.get(id)
	if err != nil {
		return nil, err
	}

	ops, err := commons.ToOps(script)
	if err != nil {
		return nil, err
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	if err := blip.ApplyScript(state.blip.Document, ops); err != nil {
		return nil, err
	}
	if !state.blip.Contributors.Contains(username) {
		state.blip.Contributors.Append(username)
	}

	snap := commons.Snapshot(state.blip)
	s.persist(snap)
	return snap, nil
}

// annotate attaches an annotation range to a blip under its lock.
func (s *session) annotate(id uuid.UUID, username string, rec commons.AnnotationRecord) (*commons.BlipSnapshot, error) {
	state, err := s.get(id)
	if err != nil {
		return nil, err
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	if err := state.blip.Annotate(rec.Start, rec.End, rec.Name, rec.Value); err != nil {
		return nil, err
	}
	if !state.blip.Contributors.Contains(username) {
		state.blip.Contributors.Append(username)
	}

	snap := commons.Snapshot(state.blip)
	s.persist(snap)
	return snap, nil
}

// snapshot returns the normalized view of a blip for sync requests.
func (s *session) snapshot(id uuid.UUID) (*commons.BlipSnapshot, error) {
	state, err := s.get(id)
	if err != nil {
		return nil, err
	}

	state.mu.Lock()
	defer state.mu.Unlock()
	return commons.Snapshot(state.blip), nil
}

// persist queues the snapshot into the config store; the store's autosave
// timer batches the disk writes.
func (s *session) persist(snap *commons.BlipSnapshot) {
	raw, err := json.Marshal(snap)
	if err != nil {
		logrus.WithError(err).WithField("blip", snap.BlipID).Error("failed to encode blip for persistence")
		return
	}
	s.store.Put(snap.BlipID.String(), string(raw))
}
