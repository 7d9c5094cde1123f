package web

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"compassdial/internal/dial"
)

type fakeCalibrator struct {
	offset  float64
	zeroed  int
	wantErr error
}

func (c *fakeCalibrator) SetOffset(deg float64) error {
	if c.wantErr != nil {
		return c.wantErr
	}
	c.offset = deg
	return nil
}

func (c *fakeCalibrator) Zero() error {
	if c.wantErr != nil {
		return c.wantErr
	}
	c.zeroed++
	return nil
}

func (c *fakeCalibrator) Offset() float64 { return c.offset }

func testMeanings(t *testing.T) *dial.Meanings {
	t.Helper()
	path := filepath.Join(t.TempDir(), "meanings.yaml")
	if err := os.WriteFile(path, []byte("entries:\n  \"6-6\": \"north\"\n"), 0o644); err != nil {
		t.Fatalf("write meanings: %v", err)
	}
	m, err := dial.LoadMeanings(path)
	if err != nil {
		t.Fatalf("LoadMeanings: %v", err)
	}
	return m
}

func newTestHandler(t *testing.T) (*Status, *DialBroadcaster, *fakeCalibrator, http.Handler) {
	t.Helper()
	status := NewStatus()
	frames := NewDialBroadcaster()
	cal := &fakeCalibrator{}
	return status, frames, cal, Handler(status, frames, testMeanings(t), cal)
}

func TestStatusEndpoint(t *testing.T) {
	status, _, _, h := newTestHandler(t)
	status.SetStatic("sim", "auto")
	status.SetFrame(time.Now().UTC(), DialFrame{Receiving: true, HeadingDeg: 45, BigLabel: 1, SmallLabel: 1})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d want=200", rr.Code)
	}
	var snap StatusSnapshot
	if err := json.Unmarshal(rr.Body.Bytes(), &snap); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if snap.Service != "compassdial" || snap.Source != "sim" || snap.FramesTotal != 1 {
		t.Fatalf("snapshot: %+v", snap)
	}
	if snap.Dial.HeadingDeg != 45 || !snap.Dial.Receiving {
		t.Fatalf("dial frame: %+v", snap.Dial)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/status", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status=%d want=405", rr.Code)
	}
}

func TestDialEndpoint(t *testing.T) {
	status, _, _, h := newTestHandler(t)
	status.SetFrame(time.Now().UTC(), DialFrame{HeadingDeg: 123.4, BigLabel: 2, SmallLabel: 3, MeaningKey: "2-3"})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/dial", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d want=200", rr.Code)
	}
	var f DialFrame
	if err := json.Unmarshal(rr.Body.Bytes(), &f); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if f.HeadingDeg != 123.4 || f.MeaningKey != "2-3" {
		t.Fatalf("frame: %+v", f)
	}
}

func TestMeaningsEndpoint(t *testing.T) {
	_, _, _, h := newTestHandler(t)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/meanings", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d want=200", rr.Code)
	}
	var resp struct {
		Entries map[string]string `json:"entries"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Entries["6-6"] != "north" {
		t.Fatalf("entries: %+v", resp.Entries)
	}
}

func TestCalibrationOffsetEndpoint(t *testing.T) {
	_, _, cal, h := newTestHandler(t)

	rr := httptest.NewRecorder()
	body := strings.NewReader(`{"offset_deg": 12.5}`)
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/calibration/offset", body))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d want=200 body=%s", rr.Code, rr.Body.String())
	}
	if cal.offset != 12.5 {
		t.Fatalf("offset=%v want=12.5", cal.offset)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/calibration/offset", strings.NewReader("not json")))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status=%d want=400", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/calibration/offset", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status=%d want=405", rr.Code)
	}

	cal.wantErr = fmt.Errorf("offset must be finite")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/calibration/offset", strings.NewReader(`{"offset_deg": 1}`)))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status=%d want=400", rr.Code)
	}
}

func TestCalibrationZeroEndpoint(t *testing.T) {
	_, _, cal, h := newTestHandler(t)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/calibration/zero", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d want=200 body=%s", rr.Code, rr.Body.String())
	}
	if cal.zeroed != 1 {
		t.Fatalf("zeroed=%d want=1", cal.zeroed)
	}
}

func TestCalibrationUnavailable(t *testing.T) {
	status := NewStatus()
	h := Handler(status, NewDialBroadcaster(), testMeanings(t), nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/calibration/zero", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status=%d want=404", rr.Code)
	}
}

func TestEventsStream(t *testing.T) {
	_, frames, _, h := newTestHandler(t)
	srv := httptest.NewServer(h)
	defer srv.Close()

	// A frame published before connecting is replayed to the new
	// subscriber immediately.
	frames.Publish(DialFrame{HeadingDeg: 77, BigLabel: 2, SmallLabel: 2})

	resp, err := http.Get(srv.URL + "/api/events")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if got := resp.Header.Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("content-type=%q", got)
	}

	sc := bufio.NewScanner(resp.Body)
	deadline := time.AfterFunc(2*time.Second, func() { resp.Body.Close() })
	defer deadline.Stop()
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var f DialFrame
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &f); err != nil {
			t.Fatalf("unmarshal event: %v", err)
		}
		if f.HeadingDeg != 77 {
			t.Fatalf("event frame: %+v", f)
		}
		return
	}
	t.Fatalf("no data event received: %v", sc.Err())
}
