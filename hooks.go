package factmap

import (
	"sync"

	"github.com/agentstation/factmap/pkg/reconciler"
)

// Hook function types for record events
type (
	// EditedHook is called after a record's plan was persisted
	EditedHook func(result *reconciler.Result)

	// RecordErrorHook is called when a record could not be reconciled
	RecordErrorHook func(recordID string, err error)
)

// events manages event callbacks for record outcomes
type events struct {
	mu            sync.RWMutex
	onEdited      []EditedHook
	onRecordError []RecordErrorHook
}

// newEvents creates a new events instance
func newEvents() *events {
	return &events{}
}

// OnEdited registers a callback for persisted records
func (h *events) OnEdited(fn EditedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onEdited = append(h.onEdited, fn)
}

// OnRecordError registers a callback for failed records
func (h *events) OnRecordError(fn RecordErrorHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onRecordError = append(h.onRecordError, fn)
}

func (h *events) triggerEdited(result *reconciler.Result) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onEdited {
		fn(result)
	}
}

func (h *events) triggerRecordError(recordID string, err error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onRecordError {
		fn(recordID, err)
	}
}
