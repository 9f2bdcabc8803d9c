package rankings

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync"
	"time"
)

// RefreshStatus describes the lifecycle stage of a refresh job.
type RefreshStatus string

const (
	RefreshStatusPending   RefreshStatus = "pending"
	RefreshStatusRunning   RefreshStatus = "running"
	RefreshStatusSucceeded RefreshStatus = "succeeded"
	RefreshStatusFailed    RefreshStatus = "failed"
)

// RefreshRecord tracks one queued reload and its outcome. Versions bracket
// the reload so callers can tell whether the snapshot actually moved.
type RefreshRecord struct {
	ID            string        `json:"id"`
	Status        RefreshStatus `json:"status"`
	RequestedBy   string        `json:"requested_by,omitempty"`
	Reason        string        `json:"reason,omitempty"`
	VersionBefore uint64        `json:"version_before"`
	VersionAfter  uint64        `json:"version_after,omitempty"`
	Fingerprint   string        `json:"fingerprint,omitempty"`
	Error         string        `json:"error,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
	CompletedAt   *time.Time    `json:"completed_at,omitempty"`
}

// RefreshInput represents an enqueue request for the refresher.
type RefreshInput struct {
	RequestedBy string
	Reason      string
}

// RefreshScheduler queues table reloads and exposes job status.
type RefreshScheduler interface {
	EnqueueRefresh(ctx context.Context, input RefreshInput) (RefreshRecord, error)
	GetRefresh(id string) (RefreshRecord, bool)
}

// Reloader is the service surface the refresher drives.
type Reloader interface {
	Reload(ctx context.Context) error
	Version() uint64
	Fingerprint() string
}

// Refresher executes table reloads asynchronously, one at a time, so
// concurrent refresh requests cannot race each other's snapshot swaps.
type Refresher struct {
	service Reloader

	queue chan refreshTask
	mu    sync.RWMutex
	jobs  map[string]*RefreshRecord

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type refreshTask struct {
	id string
}

// NewRefresher constructs a refresh worker over the service.
func NewRefresher(service Reloader) *Refresher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Refresher{
		service: service,
		queue:   make(chan refreshTask, 16),
		jobs:    make(map[string]*RefreshRecord),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start begins processing refresh requests.
func (f *Refresher) Start() {
	f.wg.Add(1)
	go f.loop()
}

// Stop signals the worker to halt and waits for completion.
func (f *Refresher) Stop(ctx context.Context) error {
	f.cancel()
	done := make(chan struct{})
	go func() {
		f.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *Refresher) loop() {
	defer f.wg.Done()
	for {
		select {
		case <-f.ctx.Done():
			return
		case task := <-f.queue:
			f.process(task)
		}
	}
}

// EnqueueRefresh schedules a reload and returns the pending record.
func (f *Refresher) EnqueueRefresh(_ context.Context, input RefreshInput) (RefreshRecord, error) {
	if f.service == nil {
		return RefreshRecord{}, fmt.Errorf("refresh service not configured")
	}

	id := newID()
	now := time.Now().UTC()
	record := RefreshRecord{
		ID:            id,
		Status:        RefreshStatusPending,
		RequestedBy:   input.RequestedBy,
		Reason:        input.Reason,
		VersionBefore: f.service.Version(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	f.mu.Lock()
	f.jobs[id] = &record
	snapshot := record
	f.mu.Unlock()

	select {
	case f.queue <- refreshTask{id: id}:
	default:
		f.mu.Lock()
		delete(f.jobs, id)
		f.mu.Unlock()
		return RefreshRecord{}, fmt.Errorf("refresh queue full")
	}

	return snapshot, nil
}

// GetRefresh returns a snapshot of the refresh record.
func (f *Refresher) GetRefresh(id string) (RefreshRecord, bool) {
	f.mu.RLock()
	record, ok := f.jobs[id]
	if !ok {
		f.mu.RUnlock()
		return RefreshRecord{}, false
	}
	snapshot := *record
	f.mu.RUnlock()
	return snapshot, true
}

func (f *Refresher) process(task refreshTask) {
	f.setStatus(task.id, RefreshStatusRunning, "")

	if err := f.service.Reload(f.ctx); err != nil {
		f.finish(task.id, RefreshStatusFailed, err.Error())
		return
	}
	f.finish(task.id, RefreshStatusSucceeded, "")
}

func (f *Refresher) setStatus(id string, status RefreshStatus, message string) {
	now := time.Now().UTC()
	f.mu.Lock()
	if record, ok := f.jobs[id]; ok {
		record.Status = status
		record.Error = message
		record.UpdatedAt = now
	}
	f.mu.Unlock()
}

func (f *Refresher) finish(id string, status RefreshStatus, message string) {
	now := time.Now().UTC()
	version := f.service.Version()
	fingerprint := f.service.Fingerprint()

	f.mu.Lock()
	if record, ok := f.jobs[id]; ok {
		record.Status = status
		record.Error = message
		record.UpdatedAt = now
		record.CompletedAt = &now
		if status == RefreshStatusSucceeded {
			record.VersionAfter = version
			record.Fingerprint = fingerprint
		}
	}
	f.mu.Unlock()
}

func newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return fmt.Sprintf("%x", b[:])
}
