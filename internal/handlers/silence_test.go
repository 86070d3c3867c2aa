package handlers

import (
	"bytes"
	"context"
	"database/sql/driver"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"

	"github.com/kbcmdba/ActiveQueryListing-sub000/internal/middleware"
	"github.com/kbcmdba/ActiveQueryListing-sub000/internal/repo"
	"github.com/kbcmdba/ActiveQueryListing-sub000/internal/window"
)

// requestWithChiURLParams returns a request with chi route context and URL params set.
func requestWithChiURLParams(method, path string, body []byte, params map[string]string) *http.Request {
	var r *http.Request
	if body != nil {
		r = httptest.NewRequest(method, path, bytes.NewReader(body))
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	return r
}

var windowCols = []string{
	"id", "window_type", "schedule_type", "days_of_week", "day_of_month",
	"month_of_year", "period_days", "period_start_date", "start_time", "end_time",
	"timezone", "silence_until", "description", "created_by", "created_at", "updated_at",
}

func adhocRow(id int, until time.Time) []driver.Value {
	created := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	return []driver.Value{
		id, "adhoc", nil, nil, nil, nil, nil, nil, nil, nil, nil,
		until, "patching", "alice", created, created,
	}
}

func newSilenceHandler(t *testing.T, now time.Time) (*SilenceHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	windows := repo.NewWindowRepo(db, time.UTC)
	clock := func() time.Time { return now }
	return &SilenceHandler{
		Factory:    &window.Factory{Windows: windows, Now: clock},
		Resolver:   &window.Resolver{Windows: windows, Now: clock},
		Aggregator: &window.Aggregator{Windows: windows, Now: clock},
		Hosts:      repo.NewHostRepo(db),
		Enabled:    true,
	}, mock
}

func TestSilenceHandler_CreateAdhoc(t *testing.T) {
	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	h, mock := newSilenceHandler(t, now)

	until := now.Add(60 * time.Minute)
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO maintenance_windows").
		WithArgs(until, "patching db1", "alice").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))
	mock.ExpectExec("INSERT INTO maintenance_window_host_map").
		WithArgs(42, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	body := []byte(`{"target_type":"host","target_id":7,"duration":60,"description":"patching db1"}`)
	req := httptest.NewRequest("POST", "/api/v1/silences", bytes.NewReader(body))
	req = req.WithContext(context.WithValue(req.Context(), middleware.UserKey, "alice"))
	rr := httptest.NewRecorder()
	h.CreateAdhoc(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("CreateAdhoc status: got %d, want 201 (body %s)", rr.Code, rr.Body)
	}
	var resp struct {
		Success   bool   `json:"success"`
		WindowID  int    `json:"window_id"`
		Message   string `json:"message"`
		ExpiresAt string `json:"expires_at"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || resp.WindowID != 42 {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.Message != "silenced host 7 for 60 minutes" {
		t.Errorf("message = %q", resp.Message)
	}
	if resp.ExpiresAt != "2024-06-01 13:00:00" {
		t.Errorf("expires_at = %q", resp.ExpiresAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestSilenceHandler_CreateAdhoc_Disabled(t *testing.T) {
	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	h, mock := newSilenceHandler(t, now)
	h.Enabled = false

	body := []byte(`{"target_type":"host","target_id":7,"duration":60}`)
	req := httptest.NewRequest("POST", "/api/v1/silences", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.CreateAdhoc(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("CreateAdhoc status: got %d, want 403", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("storage touched while disabled: %v", err)
	}
}

func TestSilenceHandler_CreateAdhoc_Validation(t *testing.T) {
	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		body string
	}{
		{"zero duration", `{"target_type":"host","target_id":7,"duration":0}`},
		{"duration over cap", `{"target_type":"host","target_id":7,"duration":10081}`},
		{"bad target type", `{"target_type":"cluster","target_id":7,"duration":60}`},
		{"missing target id", `{"target_type":"host","duration":60}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, mock := newSilenceHandler(t, now)

			req := httptest.NewRequest("POST", "/api/v1/silences", bytes.NewReader([]byte(tt.body)))
			rr := httptest.NewRecorder()
			h.CreateAdhoc(rr, req)

			if rr.Code != http.StatusBadRequest {
				t.Errorf("status: got %d, want 400 (body %s)", rr.Code, rr.Body)
			}
			var resp struct {
				Success bool   `json:"success"`
				Error   string `json:"error"`
			}
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp.Success || resp.Error == "" {
				t.Errorf("unexpected response: %+v", resp)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("storage touched on invalid input: %v", err)
			}
		})
	}
}

func TestSilenceHandler_CreateAdhoc_InvalidJSON(t *testing.T) {
	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	h, _ := newSilenceHandler(t, now)

	req := httptest.NewRequest("POST", "/api/v1/silences", bytes.NewReader([]byte("{not json")))
	rr := httptest.NewRecorder()
	h.CreateAdhoc(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rr.Code)
	}
}

func TestSilenceHandler_HostSilence_Silenced(t *testing.T) {
	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	h, mock := newSilenceHandler(t, now)

	created := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM hosts").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"id", "hostname", "port", "created_at"}).
			AddRow(7, "db1.example.com", 3306, created))
	mock.ExpectQuery("JOIN maintenance_window_host_map m ON").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows(windowCols).AddRow(adhocRow(11, now.Add(time.Hour))...))

	req := requestWithChiURLParams("GET", "/api/v1/hosts/7/silence", nil, map[string]string{"id": "7"})
	rr := httptest.NewRecorder()
	h.HostSilence(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("HostSilence status: got %d, want 200 (body %s)", rr.Code, rr.Body)
	}
	var resp struct {
		Silenced bool `json:"silenced"`
		Silence  *struct {
			WindowID int    `json:"window_id"`
			Target   string `json:"target"`
		} `json:"silence"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Silenced || resp.Silence == nil || resp.Silence.WindowID != 11 {
		t.Errorf("unexpected response: %+v", resp)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestSilenceHandler_HostSilence_NotSilenced(t *testing.T) {
	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	h, mock := newSilenceHandler(t, now)

	created := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM hosts").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"id", "hostname", "port", "created_at"}).
			AddRow(7, "db1.example.com", 3306, created))
	mock.ExpectQuery("JOIN maintenance_window_host_map m ON").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows(windowCols))
	groupCols := append(append([]string{}, windowCols...), "tag")
	mock.ExpectQuery("JOIN maintenance_window_host_group_map m ON").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows(groupCols))

	req := requestWithChiURLParams("GET", "/api/v1/hosts/7/silence", nil, map[string]string{"id": "7"})
	rr := httptest.NewRecorder()
	h.HostSilence(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("HostSilence status: got %d, want 200", rr.Code)
	}
	var resp struct {
		Silenced bool            `json:"silenced"`
		Silence  json.RawMessage `json:"silence"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Silenced || len(resp.Silence) != 0 {
		t.Errorf("unexpected response: %+v", resp)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestSilenceHandler_HostSilence_UnknownHost(t *testing.T) {
	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	h, mock := newSilenceHandler(t, now)

	mock.ExpectQuery("FROM hosts").
		WithArgs(99).
		WillReturnRows(sqlmock.NewRows([]string{"id", "hostname", "port", "created_at"}))

	req := requestWithChiURLParams("GET", "/api/v1/hosts/99/silence", nil, map[string]string{"id": "99"})
	rr := httptest.NewRecorder()
	h.HostSilence(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("HostSilence status: got %d, want 404", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestSilenceHandler_HostSilence_InvalidID(t *testing.T) {
	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	h, _ := newSilenceHandler(t, now)

	req := requestWithChiURLParams("GET", "/api/v1/hosts/abc/silence", nil, map[string]string{"id": "abc"})
	rr := httptest.NewRecorder()
	h.HostSilence(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("HostSilence status: got %d, want 400", rr.Code)
	}
}

func TestSilenceHandler_ActiveSilences_Empty(t *testing.T) {
	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	h, mock := newSilenceHandler(t, now)

	mock.ExpectQuery("FROM maintenance_windows w").
		WillReturnRows(sqlmock.NewRows(windowCols))

	req := httptest.NewRequest("GET", "/api/v1/silences/active", nil)
	rr := httptest.NewRecorder()
	h.ActiveSilences(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("ActiveSilences status: got %d, want 200", rr.Code)
	}
	var list []json.RawMessage
	if err := json.NewDecoder(rr.Body).Decode(&list); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Errorf("expected empty array, got %s", rr.Body)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestSilenceHandler_ActiveSilences(t *testing.T) {
	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	h, mock := newSilenceHandler(t, now)

	created := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM maintenance_windows w").
		WillReturnRows(sqlmock.NewRows(windowCols).AddRow(adhocRow(11, now.Add(time.Hour))...))
	mock.ExpectQuery("JOIN maintenance_window_host_map m ON m.host_id").
		WithArgs(11).
		WillReturnRows(sqlmock.NewRows([]string{"id", "hostname", "port", "created_at"}).
			AddRow(7, "db1.example.com", 3306, created))
	groupHostCols := []string{"id", "hostname", "port", "created_at", "tag"}
	mock.ExpectQuery("JOIN maintenance_window_host_group_map m ON m.group_id").
		WithArgs(11).
		WillReturnRows(sqlmock.NewRows(groupHostCols))

	req := httptest.NewRequest("GET", "/api/v1/silences/active", nil)
	rr := httptest.NewRecorder()
	h.ActiveSilences(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("ActiveSilences status: got %d, want 200 (body %s)", rr.Code, rr.Body)
	}
	var list []struct {
		WindowID int      `json:"window_id"`
		Hosts    []string `json:"hosts"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&list); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(list) != 1 || list[0].WindowID != 11 {
		t.Fatalf("unexpected list: %+v", list)
	}
	if len(list[0].Hosts) != 1 || list[0].Hosts[0] != "db1.example.com:3306" {
		t.Errorf("hosts = %v", list[0].Hosts)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
