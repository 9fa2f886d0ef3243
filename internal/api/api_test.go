package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/balkashynov/shiftr/internal/attendance"
	"github.com/balkashynov/shiftr/internal/clock"
	"github.com/balkashynov/shiftr/internal/db"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	eng    *attendance.Engine
	clock  *clock.Fake
}

type response struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  string          `json:"error"`
	Code   string          `json:"code"`
	Field  string          `json:"field"`
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store, err := db.Open(db.Options{DSN: filepath.Join(t.TempDir(), "api.db")})
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	lg := log.New(&bytes.Buffer{}, "", 0)
	clk := clock.NewFake(time.Date(2024, 3, 4, 7, 50, 0, 0, time.UTC))
	eng := attendance.NewEngine(store, attendance.Deps{Clock: clk, Audit: store, Logger: lg}, attendance.DefaultConfig())

	return &testServer{
		router: NewRouter(&Handler{Engine: eng, Health: store, Audit: store, Logger: lg}),
		eng:    eng,
		clock:  clk,
	}
}

func (s *testServer) do(t *testing.T, method, path, body string) (int, response) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var resp response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("%s %s: invalid JSON %q: %v", method, path, w.Body.String(), err)
	}
	return w.Code, resp
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("Failed to decode %s: %v", raw, err)
	}
	return v
}

const daySchedule = `{"name":"day","time_in":"08:00","time_out":"17:00","break_start":"12:00","break_end":"13:00","break_max_minutes":60,"grace_period_minutes":10}`

func TestAttendanceFlow(t *testing.T) {
	s := newTestServer(t)

	code, resp := s.do(t, "POST", "/api/v1/schedules", daySchedule)
	if code != http.StatusCreated {
		t.Fatalf("Expected 201 creating schedule, got %d (%s)", code, resp.Error)
	}
	if code, resp := s.do(t, "POST", "/api/v1/schedules", daySchedule); code != http.StatusBadRequest || resp.Field != "name" {
		t.Errorf("Expected duplicate name rejected, got %d %+v", code, resp)
	}

	if code, resp := s.do(t, "POST", "/api/v1/schedules/1/assignments", `{"user_ids":["ana","bob"]}`); code != http.StatusOK {
		t.Fatalf("Expected 200 assigning, got %d (%s)", code, resp.Error)
	}

	code, resp = s.do(t, "POST", "/api/v1/schedules/1/sessions", `{"date":"2024-03-04"}`)
	if code != http.StatusCreated {
		t.Fatalf("Expected 201 activating, got %d (%s)", code, resp.Error)
	}
	session := decode[struct {
		ID     uint   `json:"id"`
		Status string `json:"status"`
	}](t, resp.Data)
	if session.Status != "active" {
		t.Errorf("Expected active session, got %s", session.Status)
	}
	if code, resp := s.do(t, "POST", "/api/v1/schedules/1/sessions", `{"date":"2024-03-04"}`); code != http.StatusConflict || resp.Code != "duplicate_session" {
		t.Errorf("Expected 409 duplicate_session, got %d %+v", code, resp)
	}

	code, resp = s.do(t, "POST", "/api/v1/sessions/1/checkin", `{"user_id":"ana"}`)
	if code != http.StatusOK {
		t.Fatalf("Expected 200 checking in, got %d (%s)", code, resp.Error)
	}
	record := decode[struct {
		ID     uint   `json:"id"`
		Status string `json:"status"`
	}](t, resp.Data)
	if record.Status != "present" {
		t.Errorf("Expected present, got %s", record.Status)
	}
	if code, resp := s.do(t, "POST", "/api/v1/sessions/1/checkin", `{"user_id":"ana"}`); code != http.StatusUnprocessableEntity || resp.Code != "already_checked_in" {
		t.Errorf("Expected 422 already_checked_in, got %d %+v", code, resp)
	}

	recordPath := "/api/v1/records/" + strconv.FormatUint(uint64(record.ID), 10)
	if code, resp := s.do(t, "POST", recordPath+"/breaks/start", ""); code != http.StatusUnprocessableEntity || resp.Code != "outside_break_window" {
		t.Errorf("Expected 422 outside_break_window, got %d %+v", code, resp)
	}

	s.clock.Set(time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC))
	if code, resp := s.do(t, "POST", recordPath+"/breaks/start", `{"type":"meal"}`); code != http.StatusOK {
		t.Errorf("Expected 200 starting break, got %d (%s)", code, resp.Error)
	}
	s.clock.Set(time.Date(2024, 3, 4, 12, 30, 0, 0, time.UTC))
	if code, resp := s.do(t, "POST", recordPath+"/breaks/end", ""); code != http.StatusOK {
		t.Errorf("Expected 200 ending break, got %d (%s)", code, resp.Error)
	}

	s.clock.Set(time.Date(2024, 3, 4, 17, 0, 0, 0, time.UTC))
	code, resp = s.do(t, "POST", recordPath+"/checkout", "")
	if code != http.StatusOK {
		t.Fatalf("Expected 200 checking out, got %d (%s)", code, resp.Error)
	}
	out := decode[struct {
		HoursWorked float64 `json:"hours_worked"`
	}](t, resp.Data)
	if out.HoursWorked != 8.67 { // 07:50-17:00 less 30m
		t.Errorf("Expected 8.67 hours, got %.2f", out.HoursWorked)
	}

	code, resp = s.do(t, "POST", "/api/v1/sessions/1/absences", "")
	if code != http.StatusOK {
		t.Fatalf("Expected 200 marking absences, got %d (%s)", code, resp.Error)
	}
	absences := decode[attendance.AbsenceResult](t, resp.Data)
	if len(absences.Marked) != 1 || absences.Marked[0] != "bob" {
		t.Errorf("Expected bob marked absent, got %+v", absences)
	}

	code, resp = s.do(t, "GET", "/api/v1/users/ana/records?date=2024-03-04", "")
	if code != http.StatusOK || len(decode[[]json.RawMessage](t, resp.Data)) != 1 {
		t.Errorf("Expected one record for ana, got %d %s", code, resp.Data)
	}

	code, resp = s.do(t, "GET", recordPath+"/audit", "")
	if code != http.StatusOK || len(decode[[]json.RawMessage](t, resp.Data)) != 4 {
		t.Errorf("Expected 4 audit entries, got %d %s", code, resp.Data)
	}

	if code, resp := s.do(t, "POST", "/api/v1/sessions/1/lock", ""); code != http.StatusOK {
		t.Errorf("Expected 200 locking, got %d (%s)", code, resp.Error)
	}
	if code, resp := s.do(t, "POST", "/api/v1/sessions/1/lock", ""); code != http.StatusUnprocessableEntity || resp.Code != "session_not_active" {
		t.Errorf("Expected 422 session_not_active, got %d %+v", code, resp)
	}
}

func TestRequestErrors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{"non-numeric id", "GET", "/api/v1/records/abc", "", http.StatusBadRequest},
		{"unknown record", "GET", "/api/v1/records/99", "", http.StatusNotFound},
		{"unknown session", "POST", "/api/v1/sessions/99/checkin", `{"user_id":"ana"}`, http.StatusNotFound},
		{"malformed body", "POST", "/api/v1/sessions/1/checkin", `{"user_id":`, http.StatusBadRequest},
		{"missing user", "POST", "/api/v1/sessions/1/checkin", `{}`, http.StatusBadRequest},
		{"bad clock", "POST", "/api/v1/schedules", strings.Replace(daySchedule, `"08:00"`, `"8am"`, 1), http.StatusBadRequest},
		{"bad date", "GET", "/api/v1/sessions?date=someday", "", http.StatusBadRequest},
		{"inverted report", "GET", "/api/v1/reports?from=2024-03-10&to=2024-03-01", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp := s.do(t, tt.method, tt.path, tt.body)
			if code != tt.wantStatus {
				t.Errorf("Expected %d, got %d (%+v)", tt.wantStatus, code, resp)
			}
			if resp.Error == "" {
				t.Error("Expected an error message")
			}
		})
	}
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	code, resp := s.do(t, "GET", "/healthz", "")
	if code != http.StatusOK || resp.Status != "ok" {
		t.Errorf("Expected healthy, got %d %+v", code, resp)
	}
}

func TestEventsStream(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	schedule, err := s.eng.CreateSchedule(ctx, attendance.ScheduleInput{
		Name: "day", TimeIn: "08:00", TimeOut: "17:00",
		BreakStart: "12:00", BreakEnd: "13:00", BreakMaxMinutes: 60,
	})
	if err != nil {
		t.Fatalf("CreateSchedule: %v", err)
	}
	session, err := s.eng.ActivateSessionForDate(ctx, schedule.ID, "2024-03-04")
	if err != nil {
		t.Fatalf("ActivateSessionForDate: %v", err)
	}

	srv := httptest.NewServer(s.router)
	defer srv.Close()

	reqCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(reqCtx, "GET", srv.URL+"/api/v1/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET events: %v", err)
	}
	defer resp.Body.Close()

	lines := bufio.NewScanner(resp.Body)
	waitFor := func(event string) {
		t.Helper()
		for lines.Scan() {
			if strings.TrimSpace(lines.Text()) == "event:"+event {
				return
			}
		}
		t.Fatalf("Stream ended before %s event: %v", event, lines.Err())
	}

	waitFor("ready")
	s.clock.Set(time.Date(2024, 3, 4, 8, 30, 0, 0, time.UTC))
	if _, err := s.eng.CheckIn(ctx, "ana", session.ID); err != nil {
		t.Fatalf("CheckIn: %v", err)
	}
	waitFor("attendance_updated")
	waitFor("late_arrival")
}
