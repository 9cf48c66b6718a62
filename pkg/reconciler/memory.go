package reconciler

import (
	"context"
	"fmt"
	"sync"

	"github.com/agentstation/factmap/pkg/claims"
	"github.com/agentstation/factmap/pkg/errors"
	"github.com/agentstation/factmap/pkg/planner"
)

// MemoryStore is an in-process Fetcher and Persister. It applies plan
// writes the way the store would, assigning statement IDs to created facts
// and bumping the revision once per persisted plan.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*claims.Record
	nextID  int
}

// NewMemoryStore returns a store seeded with copies of records.
func NewMemoryStore(records ...*claims.Record) *MemoryStore {
	m := &MemoryStore{records: make(map[string]*claims.Record)}
	for _, r := range records {
		m.Put(r)
	}
	return m
}

// Put stores a copy of record, replacing any previous version.
func (m *MemoryStore) Put(record *claims.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[record.ID] = copyRecord(record)
}

// Fetch implements Fetcher.
func (m *MemoryStore) Fetch(ctx context.Context, id string) (*claims.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[id]
	if !ok {
		return nil, errors.NewNotFoundError("record", id)
	}
	return copyRecord(r), nil
}

// Persist implements Persister. A plan built against an older revision is
// refused with an edit conflict.
func (m *MemoryStore) Persist(ctx context.Context, plan *planner.Plan) (*PersistResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.records[plan.RecordID]
	if !ok {
		return nil, errors.NewNotFoundError("record", plan.RecordID)
	}
	if current.Revision != plan.BaseRevision {
		return nil, errors.NewAPIError("memory", 0, "editconflict",
			fmt.Sprintf("base revision %d is not current revision %d", plan.BaseRevision, current.Revision))
	}

	next := copyRecord(current)
	writes := plan.Writes()
	for _, w := range writes {
		switch w.Kind {
		case planner.WriteCreate:
			m.nextID++
			f := w.Fact
			f.ID = fmt.Sprintf("%s$%d", next.ID, m.nextID)
			next.Facts = append(next.Facts, f)
		case planner.WriteUpdate:
			i, ok := next.FactByID(w.FactID)
			if !ok {
				return nil, errors.NewNotFoundError("statement", w.FactID)
			}
			next.Facts[i] = w.Fact
		case planner.WriteRemove:
			if i, ok := next.FactByID(w.FactID); ok {
				next.Facts = append(next.Facts[:i], next.Facts[i+1:]...)
			}
		}
	}
	next.Revision++
	m.records[next.ID] = next

	return &PersistResult{RecordID: next.ID, Revision: next.Revision, Writes: len(writes)}, nil
}

func copyRecord(r *claims.Record) *claims.Record {
	out := &claims.Record{ID: r.ID, Revision: r.Revision, Facts: make([]claims.Fact, len(r.Facts))}
	for i, f := range r.Facts {
		f.Qualifiers = append([]claims.Snak(nil), f.Qualifiers...)
		refs := make([]claims.Reference, len(f.References))
		for j, ref := range f.References {
			refs[j] = claims.Reference{Hash: ref.Hash, Snaks: append([]claims.Snak(nil), ref.Snaks...)}
		}
		f.References = refs
		out.Facts[i] = f
	}
	return out
}
