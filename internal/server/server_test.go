package server

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/healthviz/internal/dataset"
	"github.com/ziadkadry99/healthviz/internal/db"
	"github.com/ziadkadry99/healthviz/internal/detail"
	"github.com/ziadkadry99/healthviz/internal/hierarchy"
)

const treeJSON = `{"name":"root","children":[
	{"name":"A","value":5},
	{"name":"B","children":[{"name":"B1","value":3},{"name":"B2","value":4}]}
]}`

const worldJSON = `{"type":"FeatureCollection","features":[
	{"type":"Feature","properties":{"name":"Japan"},"geometry":{"type":"Polygon","coordinates":[]}},
	{"type":"Feature","properties":{"name":"Chile"},"geometry":{"type":"Polygon","coordinates":[]}},
	{"type":"Feature","properties":{"name":"France"},"geometry":{"type":"MultiPolygon","coordinates":[]}}
]}`

const medTech = `Country,Technology_Types,Availability_Category,Year,OBS_VALUE
Japan,MRI units,Very High,2021,57.4
Japan,CT scanners,Very High,2021,115.7
Korea,MRI units,High,2021,35.5
Mexico,MRI units,Very Low,2021,
Korea,MRI units,High,2020,32.0
Chile,CT scanners,Low,2020,25.1
`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	for name, body := range map[string]string{
		"hospitals.json":     treeJSON,
		"maps/world.geojson": worldJSON,
	} {
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	srv := New(Config{DataDir: dir}, database)
	res, err := dataset.ReadObservations(strings.NewReader(medTech))
	if err != nil {
		t.Fatalf("ReadObservations: %v", err)
	}
	if _, err := srv.Store().Import(context.Background(), "med.csv", res, nil); err != nil {
		t.Fatalf("Import: %v", err)
	}
	return srv
}

func get(t *testing.T, srv *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", target, nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
}

func TestHealthCheck(t *testing.T) {
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer database.Close()

	srv := New(Config{Port: 0}, database)

	w := get(t, srv, "/healthz")
	var body map[string]string
	decode(t, w, &body)
	if body["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", body["status"])
	}
}

func TestCORSHeaders(t *testing.T) {
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer database.Close()

	srv := New(Config{Port: 0, AllowAll: true}, database)

	req := httptest.NewRequest("OPTIONS", "/healthz", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("expected CORS Allow-Origin header")
	}
}

func TestListCharts(t *testing.T) {
	srv := newTestServer(t)
	var entries []dataset.Entry
	decode(t, get(t, srv, "/api/charts"), &entries)
	if len(entries) != 2 {
		t.Fatalf("entries = %+v", entries)
	}
	if entries[0].Name != "hospitals" || entries[0].Kind != dataset.KindTree {
		t.Errorf("entries[0] = %+v", entries[0])
	}
	if entries[1].Name != "world" || entries[1].Kind != dataset.KindBoundaries {
		t.Errorf("entries[1] = %+v", entries[1])
	}
}

func TestTree(t *testing.T) {
	srv := newTestServer(t)
	var root hierarchy.Node
	decode(t, get(t, srv, "/api/charts/hospitals/tree"), &root)
	if root.Name != "root" || root.Value != 12 || len(root.Children) != 2 {
		t.Errorf("root = %+v", root)
	}
	if root.Children[0].Name != "B" {
		t.Errorf("first child = %q, want B", root.Children[0].Name)
	}

	if w := get(t, srv, "/api/charts/missing/tree"); w.Code != http.StatusNotFound {
		t.Errorf("missing chart: expected 404, got %d", w.Code)
	}
}

func TestSVG(t *testing.T) {
	srv := newTestServer(t)

	w := get(t, srv, "/api/charts/hospitals/svg?variant=treemap&path=B")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Content-Type = %q", ct)
	}
	if body := w.Body.String(); !strings.Contains(body, "<svg") || !strings.Contains(body, "B1") {
		t.Errorf("unexpected svg body:\n%s", body)
	}

	tests := []struct {
		target string
		want   int
	}{
		{"/api/charts/hospitals/svg", http.StatusOK},
		{"/api/charts/hospitals/svg?path=Z", http.StatusNotFound},
		{"/api/charts/hospitals/svg?path=A", http.StatusBadRequest},
		{"/api/charts/hospitals/svg?variant=pie", http.StatusBadRequest},
		{"/api/charts/missing/svg", http.StatusNotFound},
	}
	for _, tt := range tests {
		if w := get(t, srv, tt.target); w.Code != tt.want {
			t.Errorf("%s: expected %d, got %d", tt.target, tt.want, w.Code)
		}
	}
}

func TestObservations(t *testing.T) {
	srv := newTestServer(t)
	var obs []dataset.Observation
	decode(t, get(t, srv, "/api/observations?year=2021&technology=MRI%20units"), &obs)
	if len(obs) != 2 || obs[0].Country != "Japan" || obs[1].Country != "Korea" {
		t.Errorf("observations = %+v", obs)
	}

	if w := get(t, srv, "/api/observations?year=soon"); w.Code != http.StatusBadRequest {
		t.Errorf("bad year: expected 400, got %d", w.Code)
	}
}

func TestFilters(t *testing.T) {
	srv := newTestServer(t)
	var got filtersResponse
	decode(t, get(t, srv, "/api/filters"), &got)
	if got.MinYear != 2020 || got.MaxYear != 2021 {
		t.Errorf("years = %d..%d", got.MinYear, got.MaxYear)
	}
	want := []string{"All", "MRI units", "CT scanners"}
	if strings.Join(got.Technologies, ",") != strings.Join(want, ",") {
		t.Errorf("technologies = %v, want %v", got.Technologies, want)
	}
}

func TestBubblesDefaultToLatestYear(t *testing.T) {
	srv := newTestServer(t)
	var got bubblesResponse
	decode(t, get(t, srv, "/api/bubbles"), &got)
	if got.Year != 2021 || got.Technology != dataset.AllTechnologies {
		t.Errorf("filter = %+v", got.filterResponse)
	}
	if !got.Frame.Done || len(got.Frame.Elements) != 3 {
		t.Fatalf("frame = %+v", got.Frame)
	}
	for _, e := range got.Frame.Elements {
		if e.Radius <= 0 {
			t.Errorf("%s: radius %v", e.Key, e.Radius)
		}
	}

	w := get(t, srv, "/api/bubbles?year=2020&format=svg")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "<circle") {
		t.Errorf("svg bubbles: %d\n%s", w.Code, w.Body.String())
	}
}

func TestBubblesFocus(t *testing.T) {
	srv := newTestServer(t)
	focus := url.QueryEscape("Japan|MRI units|2021")

	var got bubblesResponse
	decode(t, get(t, srv, "/api/bubbles?focus="+focus), &got)
	if got.Detail == nil {
		t.Fatal("expected detail for focused bubble")
	}
	if got.Detail.Name != "Japan" || got.Detail.Focus.K != detail.FocusScale {
		t.Errorf("detail = %+v", got.Detail)
	}

	w := get(t, srv, "/api/bubbles?format=svg&focus="+focus)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), got.Detail.Focus.String()) {
		t.Errorf("svg does not apply focus %s", got.Detail.Focus)
	}

	if w := get(t, srv, "/api/bubbles?focus=Atlantis"); w.Code != http.StatusNotFound {
		t.Errorf("unknown focus: expected 404, got %d", w.Code)
	}
}

func TestCountries(t *testing.T) {
	srv := newTestServer(t)
	var got countriesResponse
	decode(t, get(t, srv, "/api/countries?boundaries=world"), &got)
	if len(got.Countries) != 3 {
		t.Fatalf("countries = %+v", got.Countries)
	}
	japan, chile := got.Countries[0], got.Countries[1]
	if !japan.HasData || japan.Value != 57.4 || japan.Category != "Very High" {
		t.Errorf("Japan = %+v", japan)
	}
	if chile.HasData {
		t.Errorf("Chile has no 2021 observation: %+v", chile)
	}

	if got.Globe.Scale != 300 {
		t.Errorf("globe scale = %v", got.Globe.Scale)
	}

	var zoomed countriesResponse
	decode(t, get(t, srv, "/api/countries?boundaries=world&zoom=2&drag=20,10"), &zoomed)
	if math.Abs(zoomed.Globe.Scale-432) > 1e-9 {
		t.Errorf("zoomed scale = %v, want 432", zoomed.Globe.Scale)
	}
	if zoomed.Globe.Rotation != [2]float64{270, -40} {
		t.Errorf("rotation = %v, want [270 -40]", zoomed.Globe.Rotation)
	}
	if w := get(t, srv, "/api/countries?boundaries=world&drag=left"); w.Code != http.StatusBadRequest {
		t.Errorf("bad drag: expected 400, got %d", w.Code)
	}
	for _, zoom := range []string{"2000000000", "-51", "in"} {
		if w := get(t, srv, "/api/countries?boundaries=world&zoom="+zoom); w.Code != http.StatusBadRequest {
			t.Errorf("zoom=%s: expected 400, got %d", zoom, w.Code)
		}
	}
	var widest countriesResponse
	decode(t, get(t, srv, "/api/countries?boundaries=world&zoom=-50"), &widest)
	if widest.Globe.Scale <= 0 || widest.Globe.Scale >= 300 {
		t.Errorf("zoom=-50 scale = %v", widest.Globe.Scale)
	}

	if w := get(t, srv, "/api/countries"); w.Code != http.StatusBadRequest {
		t.Errorf("missing boundaries: expected 400, got %d", w.Code)
	}
	if w := get(t, srv, "/api/countries?boundaries=mars"); w.Code != http.StatusNotFound {
		t.Errorf("unknown boundaries: expected 404, got %d", w.Code)
	}
}

func TestStack(t *testing.T) {
	srv := newTestServer(t)
	var got dataset.Stacked
	decode(t, get(t, srv, "/api/stack?group=Country&series=Technology_Types&year=2020"), &got)
	if got.Year != 2020 || len(got.Series) != 2 {
		t.Fatalf("stacked = %+v", got)
	}
	rows := make(map[string]dataset.StackRow)
	for _, r := range got.Rows {
		rows[r.Group] = r
	}
	if !rows["Japan"].NoData {
		t.Errorf("Japan has no 2020 data: %+v", rows["Japan"])
	}
	if rows["Chile"].NoData || rows["Chile"].Total != 25.1 {
		t.Errorf("Chile = %+v", rows["Chile"])
	}

	if w := get(t, srv, "/api/stack?group=Country"); w.Code != http.StatusBadRequest {
		t.Errorf("missing series: expected 400, got %d", w.Code)
	}
}

func TestImports(t *testing.T) {
	srv := newTestServer(t)
	var imports []dataset.Import
	decode(t, get(t, srv, "/api/imports"), &imports)
	if len(imports) != 1 || imports[0].Source != "med.csv" || imports[0].Rows != 5 {
		t.Errorf("imports = %+v", imports)
	}
}

// navMessage mirrors navResponse with the transition left raw.
type navMessage struct {
	Type       string          `json:"type"`
	SessionID  string          `json:"session_id"`
	Breadcrumb string          `json:"breadcrumb"`
	Transition json.RawMessage `json:"transition"`
	Detail     *detail.View    `json:"detail"`
	Error      string          `json:"error"`
}

func dial(t *testing.T, ts *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/navigate?" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, req navRequest) navMessage {
	t.Helper()
	if err := conn.WriteJSON(req); err != nil {
		t.Fatalf("write: %v", err)
	}
	return readMessage(t, conn)
}

func readMessage(t *testing.T, conn *websocket.Conn) navMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg navMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func TestNavigateSessionsAreIndependent(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t).Router())
	defer ts.Close()

	first := dial(t, ts, "chart=hospitals")
	second := dial(t, ts, "chart=hospitals&variant=treemap")

	a, b := readMessage(t, first), readMessage(t, second)
	if a.Type != msgTransition || a.Breadcrumb != "root" || len(a.Transition) == 0 {
		t.Fatalf("first start = %+v", a)
	}
	if a.SessionID == "" || a.SessionID == b.SessionID {
		t.Errorf("session IDs %q and %q should be distinct", a.SessionID, b.SessionID)
	}

	got := roundTrip(t, first, navRequest{Type: "click", Key: "B"})
	if got.Type != msgTransition || got.Breadcrumb != "root -> B" {
		t.Errorf("after click = %+v", got)
	}

	got = roundTrip(t, second, navRequest{Type: "frame"})
	if got.Type != msgFrame || got.Breadcrumb != "root" {
		t.Errorf("second session moved: %+v", got)
	}
}

func TestNavigateEvents(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t).Router())
	defer ts.Close()

	conn := dial(t, ts, "chart=hospitals")
	readMessage(t, conn)

	if got := roundTrip(t, conn, navRequest{Type: "background"}); got.Type != msgFrame || got.Breadcrumb != "root" {
		t.Errorf("background at root = %+v", got)
	}
	if got := roundTrip(t, conn, navRequest{Type: "click", Key: "Z"}); got.Type != msgError || got.Error == "" {
		t.Errorf("unknown key = %+v", got)
	}
	if got := roundTrip(t, conn, navRequest{Type: "hover"}); got.Type != msgError {
		t.Errorf("unknown type = %+v", got)
	}

	roundTrip(t, conn, navRequest{Type: "click", Key: "B"})
	got := roundTrip(t, conn, navRequest{Type: "click", Key: "B2"})
	if got.Type != msgSelection || got.Detail == nil || got.Detail.Name != "B2" {
		t.Fatalf("leaf click = %+v", got)
	}
	if got.Breadcrumb != "root -> B" {
		t.Errorf("selection changed the view: %q", got.Breadcrumb)
	}

	got = roundTrip(t, conn, navRequest{Type: "dblclick"})
	if got.Type != msgTransition || got.Breadcrumb != "root" || got.Detail == nil || got.Detail.Name != "" {
		t.Errorf("reset = %+v", got)
	}
}

func TestNavigateBubbleSelection(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t).Router())
	defer ts.Close()

	conn := dial(t, ts, "variant=bubble&technology=MRI%20units")
	if start := readMessage(t, conn); start.Type != msgTransition {
		t.Fatalf("start = %+v", start)
	}

	got := roundTrip(t, conn, navRequest{Type: "click", Key: "Japan|MRI units|2021"})
	if got.Type != msgSelection || got.Detail == nil {
		t.Fatalf("bubble click = %+v", got)
	}
	v := got.Detail
	if v.Title != "Details for Japan" || v.Category != "Very High" || v.Year != 2021 {
		t.Errorf("detail = %+v", v)
	}
	if v.Description != detail.DefaultDescriptions["Very High"] {
		t.Errorf("description = %q", v.Description)
	}
	if v.Focus.K != detail.FocusScale {
		t.Errorf("focus = %+v", v.Focus)
	}
}

func TestNavigateRequiresChart(t *testing.T) {
	srv := newTestServer(t)
	if w := get(t, srv, "/ws/navigate"); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if w := get(t, srv, "/ws/navigate?chart=missing"); w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}
