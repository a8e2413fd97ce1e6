package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"horse.fit/meetups/internal/db"
	"horse.fit/meetups/internal/meetup"
	"horse.fit/meetups/internal/sources"
	"horse.fit/meetups/internal/synclock"
)

type fakeService struct {
	enabled    bool
	syncResult meetup.SyncResult
	syncErr    error
	syncCalls  []string
	syncCtxErr error
	items      []db.Meetup
	searchErr  error
	searched   []string
	listCalls  [][2]int
}

func (f *fakeService) Enabled() bool { return f.enabled }

func (f *fakeService) Sync(ctx context.Context, trigger string) (meetup.SyncResult, error) {
	f.syncCalls = append(f.syncCalls, trigger)
	f.syncCtxErr = ctx.Err()
	return f.syncResult, f.syncErr
}

func (f *fakeService) Search(_ context.Context, criteria string) ([]db.Meetup, error) {
	f.searched = append(f.searched, criteria)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.items, nil
}

func (f *fakeService) List(_ context.Context, page, pageSize int) (meetup.ListResult, error) {
	f.listCalls = append(f.listCalls, [2]int{page, pageSize})
	return meetup.ListResult{Items: f.items, Total: int64(len(f.items)), Page: page, PageSize: pageSize}, nil
}

type jsendBody struct {
	Status    string          `json:"status"`
	Data      json.RawMessage `json:"data"`
	Message   string          `json:"message"`
	RequestID string          `json:"request_id"`
}

func serve(t *testing.T, server *Server, method, target string, header http.Header) (*httptest.ResponseRecorder, jsendBody) {
	t.Helper()

	req := httptest.NewRequest(method, target, nil)
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	rec := httptest.NewRecorder()
	server.routes().ServeHTTP(rec, req)

	var body jsendBody
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
		}
	}
	return rec, body
}

func newTestServer(service MeetupService, opts Options) *Server {
	return NewServer(service, zerolog.Nop(), opts)
}

func TestHandleHealth(t *testing.T) {
	t.Parallel()

	server := newTestServer(&fakeService{enabled: true}, Options{})
	rec, body := serve(t, server, http.MethodGet, "/api/v1/health", nil)
	if rec.Code != http.StatusOK || body.Status != "success" {
		t.Fatalf("unexpected response: %d %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(string(body.Data), `"sync_enabled":true`) {
		t.Fatalf("expected sync_enabled in data, got %s", body.Data)
	}
}

func TestHandleList_ValidatesPaging(t *testing.T) {
	t.Parallel()

	service := &fakeService{}
	server := newTestServer(service, Options{})

	rec, body := serve(t, server, http.MethodGet, "/api/v1/meetups?page_size=abc", nil)
	if rec.Code != http.StatusBadRequest || body.Status != "fail" {
		t.Fatalf("unexpected response: %d %s", rec.Code, rec.Body.String())
	}

	rec, _ = serve(t, server, http.MethodGet, "/api/v1/meetups?page=2&page_size=5", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if len(service.listCalls) != 1 || service.listCalls[0] != [2]int{2, 5} {
		t.Fatalf("unexpected list calls: %v", service.listCalls)
	}
}

func TestHandleSearch(t *testing.T) {
	t.Parallel()

	service := &fakeService{items: []db.Meetup{{MeetupID: 1, Title: "Tech Talk on Go", StartDate: time.Date(2026, 3, 10, 22, 0, 0, 0, time.UTC)}}}
	server := newTestServer(service, Options{})

	rec, body := serve(t, server, http.MethodGet, "/api/v1/meetups/search?q=%20%20", nil)
	if rec.Code != http.StatusBadRequest || body.Status != "fail" {
		t.Fatalf("expected validation failure, got %d %s", rec.Code, rec.Body.String())
	}
	if len(service.searched) != 0 {
		t.Fatalf("did not expect blank search to reach the service")
	}

	rec, body = serve(t, server, http.MethodGet, "/api/v1/meetups/search?q=talk", nil)
	if rec.Code != http.StatusOK || body.Status != "success" {
		t.Fatalf("unexpected response: %d %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(string(body.Data), "Tech Talk on Go") {
		t.Fatalf("expected result in data, got %s", body.Data)
	}
}

func TestHandleSync_Success(t *testing.T) {
	t.Parallel()

	service := &fakeService{syncResult: meetup.SyncResult{
		RunUUID: "run-1",
		Status:  meetup.RunCompleted,
		Ingest:  meetup.IngestResult{Fetched: 2, Inserted: 2},
		Match:   meetup.MatchResult{Candidates: 2, Videos: 2, Matched: 1},
	}}
	server := newTestServer(service, Options{})

	rec, body := serve(t, server, http.MethodPost, "/api/v1/meetups/sync", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(string(body.Data), "2 new events found and 1 related videos matched") {
		t.Fatalf("expected summary in data, got %s", body.Data)
	}
	if len(service.syncCalls) != 1 || service.syncCalls[0] != meetup.TriggerAPI {
		t.Fatalf("unexpected sync calls: %v", service.syncCalls)
	}
}

func TestHandleSync_ErrorMapping(t *testing.T) {
	t.Parallel()

	fetchErr := &sources.SourceFetchError{Provider: "youtube", StatusCode: 403, Message: "quota exceeded"}
	cases := []struct {
		name   string
		err    error
		status int
		jsend  string
	}{
		{name: "disabled", err: meetup.ErrServiceDisabled, status: http.StatusServiceUnavailable, jsend: "fail"},
		{name: "provider", err: errors.Join(nil, fetchErr), status: http.StatusBadGateway, jsend: "fail"},
		{name: "store", err: errors.New("connection refused"), status: http.StatusInternalServerError, jsend: "error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			server := newTestServer(&fakeService{syncErr: tc.err}, Options{})
			rec, body := serve(t, server, http.MethodPost, "/api/v1/meetups/sync", nil)
			if rec.Code != tc.status || body.Status != tc.jsend {
				t.Fatalf("unexpected response: %d %s", rec.Code, rec.Body.String())
			}
			if tc.jsend == "error" && body.RequestID == "" {
				t.Fatalf("expected request_id on error envelope, got %s", rec.Body.String())
			}
		})
	}
}

func TestHandleSync_ProviderFailureCarriesMessageAndPartialData(t *testing.T) {
	t.Parallel()

	service := &fakeService{
		syncResult: meetup.SyncResult{Ingest: meetup.IngestResult{Fetched: 1, Inserted: 1}},
		syncErr:    &sources.SourceFetchError{Provider: "youtube", StatusCode: 403, Message: "quota exceeded"},
	}
	server := newTestServer(service, Options{})

	rec, body := serve(t, server, http.MethodPost, "/api/v1/meetups/sync", nil)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if !strings.Contains(body.Message, "quota exceeded") {
		t.Fatalf("expected upstream message, got %q", body.Message)
	}
	if !strings.Contains(string(body.Data), `"inserted":1`) {
		t.Fatalf("expected partial ingest data, got %s", body.Data)
	}
}

func TestRequireAdminKey(t *testing.T) {
	t.Parallel()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret-key"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash key: %v", err)
	}
	service := &fakeService{}
	server := newTestServer(service, Options{AdminAPIKeyHash: string(hash)})

	rec, body := serve(t, server, http.MethodPost, "/api/v1/meetups/sync", nil)
	if rec.Code != http.StatusUnauthorized || body.Status != "fail" {
		t.Fatalf("expected unauthorized without key, got %d", rec.Code)
	}

	rec, _ = serve(t, server, http.MethodPost, "/api/v1/meetups/sync", http.Header{adminKeyHeader: []string{"wrong"}})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized with wrong key, got %d", rec.Code)
	}
	if len(service.syncCalls) != 0 {
		t.Fatalf("did not expect sync to run without a valid key")
	}

	rec, _ = serve(t, server, http.MethodPost, "/api/v1/meetups/sync", http.Header{adminKeyHeader: []string{"secret-key"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected success with valid key, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestRoutes_MetricsAndUploads(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "meetup"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "meetup", "cover.png"), []byte("png"), 0o644); err != nil {
		t.Fatalf("write cover: %v", err)
	}

	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("meetups_sync_runs_total 1\n"))
	})
	server := newTestServer(&fakeService{}, Options{UploadDir: dir, MetricsHandler: metrics})

	rec, _ := serve(t, server, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "meetups_sync_runs_total") {
		t.Fatalf("unexpected metrics response: %d %s", rec.Code, rec.Body.String())
	}

	rec, _ = serve(t, server, http.MethodGet, "/uploads/meetup/cover.png", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "png" {
		t.Fatalf("unexpected upload response: %d %q", rec.Code, rec.Body.String())
	}
}

func TestUnknownAPIRouteReturnsJSend(t *testing.T) {
	t.Parallel()

	server := newTestServer(&fakeService{}, Options{})
	rec, body := serve(t, server, http.MethodGet, "/api/v1/nope", nil)
	if rec.Code != http.StatusNotFound || body.Status != "fail" {
		t.Fatalf("unexpected response: %d %s", rec.Code, rec.Body.String())
	}
}

func TestHandleSync_SurvivesClientDisconnect(t *testing.T) {
	t.Parallel()

	service := &fakeService{}
	server := newTestServer(service, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/meetups/sync", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	server.routes().ServeHTTP(rec, req)

	if len(service.syncCalls) != 1 {
		t.Fatalf("expected one sync call, got %v", service.syncCalls)
	}
	if service.syncCtxErr != nil {
		t.Fatalf("expected sync context to outlive the request, got %v", service.syncCtxErr)
	}
}

func TestHandleSync_ConflictWhenLockHeld(t *testing.T) {
	t.Parallel()

	lockFile := filepath.Join(t.TempDir(), "sync.lock")
	held, err := synclock.Acquire(lockFile)
	if err != nil {
		t.Fatalf("acquire lock: %v", err)
	}

	service := &fakeService{}
	server := newTestServer(service, Options{SyncLockFile: lockFile})

	rec, body := serve(t, server, http.MethodPost, "/api/v1/meetups/sync", nil)
	if rec.Code != http.StatusConflict || body.Status != "fail" {
		t.Fatalf("expected 409 fail while locked, got %d %s", rec.Code, rec.Body.String())
	}
	if len(service.syncCalls) != 0 {
		t.Fatalf("did not expect sync to run while locked")
	}

	if err := held.Unlock(); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	rec, _ = serve(t, server, http.MethodPost, "/api/v1/meetups/sync", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected sync to run once the lock is free, got %d", rec.Code)
	}
}
