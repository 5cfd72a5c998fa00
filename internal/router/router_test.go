package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"pet-run-board/internal/domain/assignments"
	"pet-run-board/internal/platform/metrics"
	"pet-run-board/internal/router"
)

const day = "2026-10-14"

type capturePublisher struct {
	mu     sync.Mutex
	events []assignments.BoardSaved
}

func (p *capturePublisher) PublishBoardSaved(_ context.Context, ev assignments.BoardSaved) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *capturePublisher) sources() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Source)
	}
	return out
}

func TestHTTP_EndToEnd_BoardLifecycle(t *testing.T) {
	pub := &capturePublisher{}
	m := metrics.New()
	ts := httptest.NewServer(router.NewRouter(router.Options{
		AuthVerifier: nil,
		Metrics:      m,
		Publisher:    pub,
		Location:     time.UTC,
	}))
	defer ts.Close()

	operator := "op-1"

	// 1) Operador crea runs
	yardID := createRun(t, ts.URL, operator, map[string]any{
		"name": "Yard", "max_capacity": 2, "time_period_minutes": 60, "sort_order": 2,
	})
	denID := createRun(t, ts.URL, operator, map[string]any{
		"name": "Den", "max_capacity": 1, "sort_order": 1,
	})

	// 2) Check-in de dos pets
	checkIn(t, ts.URL, operator, "p1", "Rex")
	checkIn(t, ts.URL, operator, "p2", "Luna")

	// 3) Roster del día
	{
		st, body := doReq(t, ts.URL, "GET", "/roster/"+day, "", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 roster, got %d body=%s", st, string(body))
		}
		var resp struct {
			Pets []struct {
				ID      string `json:"id"`
				Booking struct {
					BookingID string `json:"booking_id"`
				} `json:"booking"`
			} `json:"pets"`
		}
		_ = json.Unmarshal(body, &resp)
		if len(resp.Pets) != 2 || resp.Pets[0].Booking.BookingID == "" {
			t.Fatalf("unexpected roster body=%s", string(body))
		}
	}

	// 4) Board vacío, runs ordenados por sort_order
	{
		b := getBoard(t, ts.URL)
		if len(b.Runs) != 2 || b.Runs[0].ID != denID || b.Runs[1].ID != yardID {
			t.Fatalf("expected runs [den, yard], got %+v", b.Runs)
		}
		if len(b.Assignments) != 0 {
			t.Fatalf("expected empty board, got %+v", b.Assignments)
		}
	}

	// 5) Guardar sin operador => 401
	{
		st, _ := doReq(t, ts.URL, "PUT", "/boards/"+day, "", map[string]any{"assignments": []any{}})
		if st != http.StatusUnauthorized {
			t.Fatalf("expected 401 without operator, got %d", st)
		}
	}

	// 6) Replace-all con dos pets
	var epochAfterSave int64
	{
		st, body := doReq(t, ts.URL, "PUT", "/boards/"+day, operator, map[string]any{
			"assignments": []map[string]any{
				{"run_id": yardID, "pet_id": "p1", "start_time": "09:00", "end_time": "10:00", "booking_id": "", "notes": ""},
				{"run_id": denID, "pet_id": "p2", "start_time": "10:30", "end_time": "11:00", "booking_id": "", "notes": "quiet"},
			},
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 save board, got %d body=%s", st, string(body))
		}
		var b boardResp
		_ = json.Unmarshal(body, &b)
		if len(b.Assignments) != 2 || b.Assignments[0].PetID != "p2" {
			t.Fatalf("expected canonical order den first, got %+v", b.Assignments)
		}
		epochAfterSave = b.Epoch
	}

	// 7) Replace-all inválido no toca lo guardado
	{
		st, _ := doReq(t, ts.URL, "PUT", "/boards/"+day, operator, map[string]any{
			"assignments": []map[string]any{
				{"run_id": yardID, "pet_id": "p1", "start_time": "09:00", "end_time": "10:00"},
				{"run_id": denID, "pet_id": "p1", "start_time": "11:00", "end_time": "12:00"},
			},
		})
		if st != http.StatusBadRequest {
			t.Fatalf("expected 400 duplicate pet, got %d", st)
		}
		b := getBoard(t, ts.URL)
		if len(b.Assignments) != 2 || b.Epoch != epochAfterSave {
			t.Fatalf("expected board unchanged after rejected save, got %+v", b)
		}
	}

	// 8) Slots: 09:00 en Yard sigue disponible (1 de 2)
	{
		st, body := doReq(t, ts.URL, "GET", "/boards/"+day+"/runs/"+yardID+"/slots", "", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 slots, got %d body=%s", st, string(body))
		}
		if !strings.Contains(string(body), `{"start_time":"09:00","end_time":"10:00","available":true}`) {
			t.Fatalf("expected 09:00 slot available, body=%s", string(body))
		}
	}

	// 9) Asignación incremental mueve a p2 al Yard
	{
		st, body := doReq(t, ts.URL, "POST", "/boards/"+day+"/runs/"+yardID+"/assignments", operator, map[string]any{
			"pet_id": "p2", "start_time": "11:00", "end_time": "12:00",
		})
		if st != http.StatusCreated {
			t.Fatalf("expected 201 create assignment, got %d body=%s", st, string(body))
		}
		b := getBoard(t, ts.URL)
		if len(b.Assignments) != 2 {
			t.Fatalf("expected pet moved, not duplicated: %+v", b.Assignments)
		}
		for _, a := range b.Assignments {
			if a.RunID != yardID {
				t.Fatalf("expected all in yard, got %+v", b.Assignments)
			}
		}
	}

	// 10) Delete por pet id
	{
		st, body := doReq(t, ts.URL, "DELETE", "/boards/"+day+"/runs/"+yardID+"/assignments/p2", operator, nil)
		if st != http.StatusNoContent {
			t.Fatalf("expected 204 delete, got %d body=%s", st, string(body))
		}
		st, _ = doReq(t, ts.URL, "DELETE", "/boards/"+day+"/runs/"+yardID+"/assignments/p2", operator, nil)
		if st != http.StatusNotFound {
			t.Fatalf("expected 404 second delete, got %d", st)
		}
	}

	// 11) Eventos y métricas
	got := pub.sources()
	want := []string{"replace_all", "create", "delete"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("expected events %v, got %v", want, got)
	}

	st, body := doReq(t, ts.URL, "GET", "/metrics", "", nil)
	if st != http.StatusOK || !strings.Contains(string(body), `runboard_backend_board_writes_total{source="replace_all"} 1`) {
		t.Fatalf("expected board write metric, got %d", st)
	}
}

func TestHTTP_BadDateAndUnknownRun(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{}))
	defer ts.Close()

	if st, _ := doReq(t, ts.URL, "GET", "/boards/14-10-2026", "", nil); st != http.StatusBadRequest {
		t.Fatalf("expected 400 bad date, got %d", st)
	}
	if st, _ := doReq(t, ts.URL, "GET", "/boards/"+day+"/runs/nope/slots", "", nil); st != http.StatusNotFound {
		t.Fatalf("expected 404 unknown run, got %d", st)
	}
	if st, _ := doReq(t, ts.URL, "PUT", "/boards/"+day, "op-1", map[string]any{"assignments": []any{}, "extra": 1}); st != http.StatusBadRequest {
		t.Fatalf("expected 400 unknown field, got %d", st)
	}
}

func TestHTTP_HealthAndSwagger(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{}))
	defer ts.Close()

	if st, body := doReq(t, ts.URL, "GET", "/health", "", nil); st != http.StatusOK || string(body) != "ok" {
		t.Fatalf("expected health ok, got %d %s", st, string(body))
	}
	st, body := doReq(t, ts.URL, "GET", "/swagger/doc.json", "", nil)
	if st != http.StatusOK || !strings.Contains(string(body), `"/boards/{date}"`) {
		t.Fatalf("expected swagger doc, got %d", st)
	}
	if st, _ := doReq(t, ts.URL, "GET", "/metrics", "", nil); st != http.StatusNotFound && st != http.StatusMethodNotAllowed {
		t.Fatalf("expected no /metrics without collector, got %d", st)
	}
}

type boardResp struct {
	Date  string `json:"date"`
	Epoch int64  `json:"epoch"`
	Runs  []struct {
		ID string `json:"id"`
	} `json:"runs"`
	Assignments []struct {
		ID    string `json:"id"`
		RunID string `json:"run_id"`
		PetID string `json:"pet_id"`
	} `json:"assignments"`
}

func getBoard(t *testing.T, baseURL string) boardResp {
	t.Helper()

	st, body := doReq(t, baseURL, "GET", "/boards/"+day, "", nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 get board, got %d body=%s", st, string(body))
	}
	var b boardResp
	if err := json.Unmarshal(body, &b); err != nil {
		t.Fatalf("decode board: %v body=%s", err, string(body))
	}
	return b
}

func createRun(t *testing.T, baseURL, operatorID string, payload map[string]any) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/runs", operatorID, payload)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create run, got %d body=%s", st, string(body))
	}

	var resp struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.ID == "" {
		t.Fatalf("create run: missing id body=%s", string(body))
	}
	return resp.ID
}

func checkIn(t *testing.T, baseURL, operatorID, petID, name string) {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/roster/"+day+"/check-ins", operatorID, map[string]any{
		"pet_id":    petID,
		"pet_name":  name,
		"species":   "dog",
		"check_in":  day + "T08:00:00Z",
		"check_out": "2026-10-16T18:00:00Z",
	})
	if st != http.StatusCreated {
		t.Fatalf("expected 201 check-in, got %d body=%s", st, string(body))
	}
}

func doReq(t *testing.T, baseURL, method, path, debugUserID string, body any) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if debugUserID != "" {
		req.Header.Set("X-Debug-User-ID", debugUserID)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	return res.StatusCode, respBody
}
