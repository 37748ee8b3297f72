package service

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/hazyhaar/revpull/pipeline"
	"github.com/hazyhaar/revpull/review"
)

const fixturePage = `<html><body>
<div class="business-reviews-card-view__reviews-container">
	<div class="business-reviews-card-view__review" data-review-id="A">
		<span class="business-review-view__author-name">Анна</span>
		<meta itemprop="ratingValue" content="5">
		<span class="business-review-view__date">12 января 2024</span>
		<span class="business-review-view__body-text">Отличное место</span>
	</div>
	<div class="business-reviews-card-view__review" data-review-id="B">
		<span class="business-review-view__author-name">Борис</span>
		<span class="business-review-view__body-text">Нормально</span>
	</div>
	<div class="business-reviews-card-view__review" data-review-id="C">
		<span class="business-review-view__author-name">Вера</span>
		<span class="business-review-view__body-text">Не понравилось</span>
	</div>
</div>
</body></html>`

// newHTTPService builds a service in http mode with a store in a temp
// dir: the full stack minus the browser.
func newHTTPService(t *testing.T) *Service {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Browser.Mode = "http"
	cfg.Store.Path = filepath.Join(t.TempDir(), "runs.db")
	cfg.Extract.MaxDuration = 10 * time.Second
	cfg.Extract.RetryBackoffBase = time.Millisecond

	svc, err := New(cfg, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { svc.Close() })
	return svc
}

func TestConfigDefaults(t *testing.T) {
	// WHAT: A zero config is fully usable after defaults.
	cfg := DefaultConfig()
	if cfg.Browser.Mode != "browser" {
		t.Errorf("mode = %q", cfg.Browser.Mode)
	}
	if cfg.Extract.NoNewThreshold != 3 {
		t.Errorf("threshold = %d", cfg.Extract.NoNewThreshold)
	}
	if cfg.Extract.RetryBackoffBase != 500*time.Millisecond {
		t.Errorf("backoff base = %v", cfg.Extract.RetryBackoffBase)
	}
	if cfg.Extract.ExpandSelector == "" {
		t.Error("expand selector empty")
	}
	if cfg.Serve.Addr == "" {
		t.Error("serve addr empty")
	}
}

func TestExtract_HTTPMode(t *testing.T) {
	// WHAT: Full stack over a static fixture: http session, real parser,
	// scroll strategy, persistence.
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(fixturePage))
	}))
	defer target.Close()

	svc := newHTTPService(t)

	res, err := svc.Extract(t.Context(), target.URL)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Status != pipeline.StatusCompleted {
		t.Fatalf("status = %s, want completed (err: %s)", res.Status, res.Error)
	}
	if len(res.Records) != 3 {
		t.Fatalf("records = %d, want 3", len(res.Records))
	}
	if res.Records[0].ID != "A" || res.Records[0].Rating != 5 {
		t.Errorf("first record = %+v", res.Records[0])
	}

	// The run was persisted.
	runs, err := svc.Store().ListRuns(t.Context(), 10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 || runs[0].RunID != res.RunID {
		t.Errorf("persisted runs = %+v", runs)
	}
}

func TestAPI_ExtractAndFetch(t *testing.T) {
	// WHAT: POST /api/extract runs the pipeline; the run endpoints serve
	// what was persisted.
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(fixturePage))
	}))
	defer target.Close()

	svc := newHTTPService(t)
	api := httptest.NewServer(svc.Router())
	defer api.Close()

	body, _ := json.Marshal(map[string]string{"url": target.URL})
	resp, err := http.Post(api.URL+"/api/extract", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var res pipeline.Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(res.Records) != 3 {
		t.Fatalf("records = %d, want 3", len(res.Records))
	}

	recResp, err := http.Get(api.URL + "/api/runs/" + res.RunID + "/records")
	if err != nil {
		t.Fatalf("GET records: %v", err)
	}
	defer recResp.Body.Close()
	var recs []review.Record
	if err := json.NewDecoder(recResp.Body).Decode(&recs); err != nil {
		t.Fatalf("decode records: %v", err)
	}
	if len(recs) != 3 || recs[0].ID != "A" {
		t.Errorf("records = %+v", recs)
	}
}

func TestAPI_BadRequest(t *testing.T) {
	svc := newHTTPService(t)
	api := httptest.NewServer(svc.Router())
	defer api.Close()

	resp, err := http.Post(api.URL+"/api/extract", "application/json", bytes.NewReader([]byte(`{}`)))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestAPI_BasicAuth(t *testing.T) {
	// WHAT: With auth configured, /api rejects wrong credentials and
	// accepts the right ones. /healthz stays open.
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	cfg.Browser.Mode = "http"
	cfg.Serve.AuthUser = "ops"
	cfg.Serve.AuthHash = string(hash)

	svc, err := New(cfg, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer svc.Close()

	api := httptest.NewServer(svc.Router())
	defer api.Close()

	resp, err := http.Get(api.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, api.URL+"/api/runs", nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("no-auth status = %d, want 401", resp.StatusCode)
	}

	req.SetBasicAuth("ops", "s3cret")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	// Store disabled: authorized request reaches the handler and gets 404.
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("auth status = %d, want 404", resp.StatusCode)
	}
}

func TestRenderMarkdown(t *testing.T) {
	// WHAT: The markdown report carries headers, stars, bodies, replies,
	// and converts formatted bodies from HTML.
	res := &pipeline.Result{
		RunID:  "r1",
		URL:    "http://example.com",
		Status: pipeline.StatusCompleted,
		Records: []review.Record{
			{ID: "A", Author: "Анна", Rating: 5, PublishedRaw: "12 января 2024",
				Body: "Первая строка вторая", BodyHTML: "Первая строка<br>вторая"},
			{ID: "B", Author: "Борис", Body: "Нормально", Reply: "Спасибо"},
		},
	}

	md := RenderMarkdown(res)
	for _, want := range []string{"## Анна", "★★★★★", "12 января 2024", "## Борис", "> Спасибо"} {
		if !bytes.Contains([]byte(md), []byte(want)) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}
