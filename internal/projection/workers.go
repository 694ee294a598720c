package projection

import (
	"sync"

	"github.com/cdpsession/engine/pkg/model"
)

// WorkerState tracks ServiceWorker registrations and versions, upserted by
// id. Deletion is signaled by the isDeleted flag on an update rather than a
// separate remove call, mirroring ServiceWorker.workerRegistrationUpdated's
// own shape.
type WorkerState struct {
	mu      sync.Mutex
	workers map[string]*model.WorkerInfo
}

// NewWorkerState returns an empty WorkerState.
func NewWorkerState() *WorkerState {
	return &WorkerState{workers: make(map[string]*model.WorkerInfo)}
}

// Upsert inserts or replaces a worker record by id. A record with Deleted
// set is kept (not removed) so callers can observe the transition; List
// omits deleted workers.
func (w *WorkerState) Upsert(info model.WorkerInfo) {
	w.mu.Lock()
	defer w.mu.Unlock()
	cp := info
	w.workers[info.ID] = &cp
}

// Get returns a defensive copy of one worker by id.
func (w *WorkerState) Get(id string) (model.WorkerInfo, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	info, ok := w.workers[id]
	if !ok {
		return model.WorkerInfo{}, false
	}
	return *info, true
}

// List returns copies of every worker that has not been marked deleted.
func (w *WorkerState) List() []model.WorkerInfo {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]model.WorkerInfo, 0, len(w.workers))
	for _, info := range w.workers {
		if !info.Deleted {
			out = append(out, *info)
		}
	}
	return out
}

// Reset clears every tracked worker, used by Session.Reset().
func (w *WorkerState) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.workers = make(map[string]*model.WorkerInfo)
}
