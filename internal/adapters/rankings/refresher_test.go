package rankings_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	adapter "rankcore/internal/adapters/rankings"
	"rankcore/internal/core"
	"rankcore/pkg/rankings"
)

type failingSource struct {
	err error
}

func (s failingSource) Load(context.Context) (map[rankings.Source]rankings.Table, error) {
	return nil, s.err
}

func (s failingSource) PeerGroups(context.Context) ([]rankings.PeerGroup, error) {
	return nil, nil
}

func (s failingSource) Close() error { return nil }

func waitForRefresh(t *testing.T, refresher *adapter.Refresher, id string, want adapter.RefreshStatus) adapter.RefreshRecord {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		record, ok := refresher.GetRefresh(id)
		if ok && record.Status == want {
			return record
		}
		time.Sleep(10 * time.Millisecond)
	}
	record, _ := refresher.GetRefresh(id)
	t.Fatalf("refresh %s never reached %s, last seen %+v", id, want, record)
	return adapter.RefreshRecord{}
}

func TestRefresherProcessesJob(t *testing.T) {
	svc := core.NewService(core.NewStaticTableSource(testTables(), testPeers()))
	refresher := adapter.NewRefresher(svc)
	refresher.Start()
	t.Cleanup(func() {
		if err := refresher.Stop(context.Background()); err != nil {
			t.Fatalf("stop refresher: %v", err)
		}
	})

	record, err := refresher.EnqueueRefresh(context.Background(), adapter.RefreshInput{
		RequestedBy: "ops",
		Reason:      "new season data",
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if record.VersionBefore != 0 || record.RequestedBy != "ops" {
		t.Fatalf("unexpected queued record: %+v", record)
	}

	final := waitForRefresh(t, refresher, record.ID, adapter.RefreshStatusSucceeded)
	if final.VersionAfter != 1 {
		t.Fatalf("expected version 1 after reload, got %d", final.VersionAfter)
	}
	if final.Fingerprint == "" || final.Fingerprint != svc.Fingerprint() {
		t.Fatalf("unexpected fingerprint: %q", final.Fingerprint)
	}
	if final.CompletedAt == nil {
		t.Fatalf("expected completion timestamp")
	}
	if svc.Version() != 1 {
		t.Fatalf("service version = %d", svc.Version())
	}
}

func TestRefresherRecordsFailure(t *testing.T) {
	svc := core.NewService(failingSource{err: errors.New("datastore offline")})
	refresher := adapter.NewRefresher(svc)
	refresher.Start()
	t.Cleanup(func() { _ = refresher.Stop(context.Background()) })

	record, err := refresher.EnqueueRefresh(context.Background(), adapter.RefreshInput{})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	final := waitForRefresh(t, refresher, record.ID, adapter.RefreshStatusFailed)
	if final.Error == "" || final.VersionAfter != 0 {
		t.Fatalf("unexpected failed record: %+v", final)
	}
	if svc.Version() != 0 {
		t.Fatalf("failed reload must not bump version, got %d", svc.Version())
	}
}

func TestRefresherQueueFull(t *testing.T) {
	svc := core.NewService(core.NewStaticTableSource(testTables(), nil))
	refresher := adapter.NewRefresher(svc)
	// Not started, so the queue only drains at Stop. Fill it.
	var lastErr error
	for i := 0; i < 20; i++ {
		if _, err := refresher.EnqueueRefresh(context.Background(), adapter.RefreshInput{}); err != nil {
			lastErr = err
			break
		}
	}
	if lastErr == nil || lastErr.Error() != "refresh queue full" {
		t.Fatalf("expected queue full error, got %v", lastErr)
	}
}

func TestRefresherGetUnknown(t *testing.T) {
	refresher := adapter.NewRefresher(core.NewService(core.NewStaticTableSource(nil, nil)))
	if _, ok := refresher.GetRefresh("missing"); ok {
		t.Fatalf("expected miss for unknown job id")
	}
}

func TestHandlerRefreshEndpoints(t *testing.T) {
	svc, handler := setupHandler(t)
	refresher := adapter.NewRefresher(svc)
	refresher.Start()
	t.Cleanup(func() { _ = refresher.Stop(context.Background()) })
	handler.Refreshes = refresher

	body := bytes.NewBufferString(`{"requested_by":"ops","reason":"scheduled"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/rankings/refresh", body)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusAccepted {
		t.Fatalf("unexpected status: %d", resp.Code)
	}
	var queued struct {
		Refresh adapter.RefreshRecord `json:"refresh"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&queued); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if queued.Refresh.ID == "" || queued.Refresh.RequestedBy != "ops" {
		t.Fatalf("unexpected queued record: %+v", queued.Refresh)
	}

	waitForRefresh(t, refresher, queued.Refresh.ID, adapter.RefreshStatusSucceeded)

	resp = get(t, handler, "/api/v1/rankings/refresh/"+queued.Refresh.ID)
	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.Code)
	}
	var fetched struct {
		Refresh adapter.RefreshRecord `json:"refresh"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&fetched); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if fetched.Refresh.Status != adapter.RefreshStatusSucceeded {
		t.Fatalf("unexpected status: %+v", fetched.Refresh)
	}

	if resp := get(t, handler, "/api/v1/rankings/refresh/unknown"); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown job, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/rankings/refresh/"+queued.Refresh.ID, nil)
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for delete, got %d", resp.Code)
	}
}
