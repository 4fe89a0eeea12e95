package web

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vadiminshakov/paydash/internal/clients"
	"github.com/vadiminshakov/paydash/internal/dashboard"
)

// fakeAPI imitates the payments backend.
type fakeAPI struct {
	mu     sync.Mutex
	hits   map[string]int
	bodies map[string]map[string]any
}

func newFakeAPI(t *testing.T) (*fakeAPI, *httptest.Server) {
	t.Helper()
	api := &fakeAPI{hits: map[string]int{}, bodies: map[string]map[string]any{}}
	srv := httptest.NewServer(http.HandlerFunc(api.serve))
	t.Cleanup(srv.Close)
	return api, srv
}

func (a *fakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	a.hits[r.URL.Path]++
	if r.Method == http.MethodPost {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		a.bodies[r.URL.Path] = body
	}
	a.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/users":
		io.WriteString(w, `{"users":[{"name":"Alice","address":"0xAAA","balance":100,"type":"Regular"},{"name":"Bob","address":"0xBBB","balance":50,"type":"Premium"}]}`)
	case "/transactions":
		io.WriteString(w, `{"transactions":[
			{"id":"T1","sender":"0xAAA","recipient":"0xBBB","amount":20,"fee":0.2,"status":"SUCCESS","timestamp":"t1"},
			{"id":"T2","sender":"0xBBB","recipient":"0xAAA","amount":75,"fee":0.75,"status":"PENDING","timestamp":"t2"},
			{"id":"T3","sender":"0xAAA","recipient":"0xBBB","amount":600,"fee":6,"status":"FAILED","timestamp":"t3"}]}`)
	case "/rates":
		io.WriteString(w, `{"rates":{"EUR":{"rate":0.92,"recommendation":"BUY","savings":1.5}},"lastUpdate":"now"}`)
	case "/vaults":
		io.WriteString(w, `{"vaults":[]}`)
	case "/send":
		a.mu.Lock()
		amount, _ := a.bodies["/send"]["amount"].(string)
		a.mu.Unlock()
		if amount == "999999" {
			io.WriteString(w, `{"success":false,"message":"Insufficient balance"}`)
			return
		}
		io.WriteString(w, `{"success":true,"message":"ok"}`)
	case "/vault/request":
		io.WriteString(w, `{"success":true}`)
	default:
		http.NotFound(w, r)
	}
}

func (a *fakeAPI) hitCount(path string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.hits[path]
}

func (a *fakeAPI) body(path string) map[string]any {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.bodies[path]
}

func newTestServer(t *testing.T, load bool) (*Server, *fakeAPI, *dashboard.Dashboard) {
	t.Helper()
	api, backend := newFakeAPI(t)

	client := clients.NewBackendClient(backend.URL, 0, zap.NewNop())
	d := dashboard.New(client, zap.NewNop(), dashboard.Options{
		RefreshInterval: time.Hour,
		NotificationTTL: time.Minute,
		ExportDir:       t.TempDir(),
	})
	t.Cleanup(d.Stop)

	if load {
		require.NoError(t, d.Load(context.Background()))
	}

	return NewServer(":0", d, zap.NewNop()), api, d
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestServer_Index(t *testing.T) {
	s, _, _ := newTestServer(t, false)

	rec := do(t, s, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<title>Paydash</title>")
}

func TestServer_TransactionsAndFilter(t *testing.T) {
	s, _, _ := newTestServer(t, true)

	rec := do(t, s, http.MethodGet, "/api/transactions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody(t, rec)["items"], 3)

	rec = do(t, s, http.MethodPost, "/api/filter", `{"status":"PENDING"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	items := body["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "T2", items[0].(map[string]any)["id"])

	rec = do(t, s, http.MethodPost, "/api/filter", `{"status":"DONE"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/filter/clear", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody(t, rec)["items"], 3)
}

func TestServer_Send(t *testing.T) {
	s, api, _ := newTestServer(t, true)

	rec := do(t, s, http.MethodPost, "/api/send", `{"sender":"0xAAA","recipient":"0xAAA","amount":"5"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Cannot send to yourself!", decodeBody(t, rec)["error"])
	assert.Zero(t, api.hitCount("/send"))

	rec = do(t, s, http.MethodPost, "/api/send", `{"sender":"0xAAA","recipient":"0xBBB","amount":"999999"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "Insufficient balance", decodeBody(t, rec)["error"])

	rec = do(t, s, http.MethodPost, "/api/send", `{"sender":"0xAAA","recipient":"0xBBB","amount":"10"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "10", api.body("/send")["amount"])
	assert.Equal(t, 2, api.hitCount("/transactions"), "transactions are reloaded after a transfer")

	rec = do(t, s, http.MethodPost, "/api/send", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_Withdrawal(t *testing.T) {
	s, api, _ := newTestServer(t, false)

	rec := do(t, s, http.MethodPost, "/api/vaults/V7/withdrawals", `{"requester":"0xAAA","amount":"40","purpose":"fees"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "V7", api.body("/vault/request")["vaultId"])
}

func TestServer_Receipt(t *testing.T) {
	s, _, _ := newTestServer(t, false)

	rec := do(t, s, http.MethodGet, "/receipt/T1", "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.True(t, strings.HasSuffix(rec.Header().Get("Location"), "/receipt?id=T1"))
}

func TestServer_ExportCSV(t *testing.T) {
	s, _, d := newTestServer(t, false)

	rec := do(t, s, http.MethodGet, "/export.csv", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.NoError(t, d.Load(context.Background()))
	rec = do(t, s, http.MethodGet, "/export.csv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "blockchain_transactions_")
	assert.Contains(t, rec.Body.String(), `"T3","0xAAA","0xBBB",600.00,6.00,606.00,"FAILED","t3"`)
}

func TestServer_Charts(t *testing.T) {
	s, _, _ := newTestServer(t, true)

	rec := do(t, s, http.MethodGet, "/charts/status.png", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	rec = do(t, s, http.MethodGet, "/charts/heatmap.png", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_FormFocusPausesRefresh(t *testing.T) {
	s, _, d := newTestServer(t, false)
	d.Start(context.Background())

	rec := do(t, s, http.MethodPost, "/api/forms/focus", `{"event":"focus"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "paused", d.Snapshot().AutoRefresh)

	rec = do(t, s, http.MethodPost, "/api/forms/focus", `{"event":"blur"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_ThemeToggle(t *testing.T) {
	s, _, _ := newTestServer(t, false)

	rec := do(t, s, http.MethodPost, "/api/theme/toggle", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["dark_mode"])
}

func TestServer_EventStream(t *testing.T) {
	s, _, d := newTestServer(t, true)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := make(chan string, 16)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			if strings.HasPrefix(line, "event: ") {
				events <- strings.TrimPrefix(line, "event: ")
			}
		}
		close(events)
	}()

	require.Equal(t, "state", <-events)

	d.ClearFilters()

	seen := map[string]bool{}
	timeout := time.After(2 * time.Second)
	for !seen["notification"] {
		select {
		case ev, ok := <-events:
			require.True(t, ok)
			seen[ev] = true
		case <-timeout:
			t.Fatal("notification event not received")
		}
	}
}
