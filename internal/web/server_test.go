package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pingdash/internal/models"
)

type stubStore struct {
	models.Store
	hours int
	fail  bool
}

func (s *stubStore) GetRecent(hours int) ([]models.PingRecord, error) {
	s.hours = hours
	if s.fail {
		return nil, errors.New("database is locked")
	}
	return []models.PingRecord{{Target: "1.1.1.1", Success: true, RTT: 9.5}}, nil
}

func (s *stubStore) GetStats(hours int) ([]models.Stats, error) {
	return []models.Stats{{Target: "1.1.1.1", TotalPings: 10, Successful: 9}}, nil
}

func (s *stubStore) GetOutages(days int) ([]models.Outage, error) { return []models.Outage{}, nil }

func (s *stubStore) HourlyStats(target string) ([]models.HourlyStat, error) {
	if target != "1.1.1.1" {
		return nil, nil
	}
	return []models.HourlyStat{{Hour: "2024-03-04 05:00:00", TotalPings: 60, Successful: 58}}, nil
}

func (s *stubStore) GetSpeedTests(limit int) ([]models.SpeedTestRecord, error) {
	return []models.SpeedTestRecord{{Target: "1.1.1.1", DownloadMbps: 80}}, nil
}

func (s *stubStore) GetPortScans(limit int) ([]models.PortScanRecord, error) {
	return []models.PortScanRecord{{Target: "1.1.1.1", Port: 443, Status: "open", Service: "HTTPS"}}, nil
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestRecentHonoursHours(t *testing.T) {
	store := &stubStore{}
	h := New(store, "").Handler()

	rec := get(t, h, "/api/recent?hours=6")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if store.hours != 6 {
		t.Errorf("hours = %d, want 6", store.hours)
	}
	var got []models.PingRecord
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].RTT != 9.5 {
		t.Errorf("got %+v", got)
	}

	get(t, h, "/api/recent?hours=bogus")
	if store.hours != 24 {
		t.Errorf("invalid hours should default to 24, got %d", store.hours)
	}
}

func TestStoreErrorIs500(t *testing.T) {
	h := New(&stubStore{fail: true}, "").Handler()
	if rec := get(t, h, "/api/recent"); rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestEndpoints(t *testing.T) {
	h := New(&stubStore{}, "").Handler()
	for _, path := range []string{"/api/stats", "/api/outages", "/api/speedtests", "/api/portscans?limit=5"} {
		rec := get(t, h, path)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d", path, rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("%s: content type = %q", path, ct)
		}
	}
}

func TestHourly(t *testing.T) {
	h := New(&stubStore{}, "").Handler()

	if rec := get(t, h, "/api/hourly"); rec.Code != http.StatusBadRequest {
		t.Errorf("missing target: status = %d, want 400", rec.Code)
	}

	rec := get(t, h, "/api/hourly?target=1.1.1.1")
	var got []models.HourlyStat
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].TotalPings != 60 {
		t.Errorf("got %+v", got)
	}

	rec = get(t, h, "/api/hourly?target=unknown")
	if body := rec.Body.String(); body != "[]\n" {
		t.Errorf("unknown target body = %q, want empty list", body)
	}
}

func TestLive(t *testing.T) {
	srv := New(&stubStore{}, "")
	h := srv.Handler()

	if rec := get(t, h, "/api/live"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status before publish = %d, want 503", rec.Code)
	}

	stats := models.DefaultNetworkStats()
	stats.TotalPings = 7
	srv.Publish(LiveStatus{Target: "example.com", Address: "192.0.2.1", UpdatedAt: time.Now(), Stats: stats})

	rec := get(t, h, "/api/live")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got LiveStatus
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Target != "example.com" || got.Stats.TotalPings != 7 {
		t.Errorf("got %+v", got)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := New(&stubStore{}, "").Handler()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/stats", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}
