package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"shoplist/internal/core"
	"shoplist/internal/storage/memory"
	"shoplist/internal/store"
)

func newTestServer(t *testing.T, opts ...Option) (*Server, *store.Store) {
	t.Helper()
	n := 0
	clock := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	st := store.New(memory.New(),
		store.WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
		store.WithClock(func() time.Time {
			clock = clock.Add(time.Minute)
			return clock
		}),
	)
	srv := NewServer(":0", st, nil, opts...)
	t.Cleanup(func() { srv.rateLimiter.stop() })
	return srv, st
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := do(t, srv, http.MethodGet, path, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}
}

func TestSecurityHeadersAndRequestID(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := do(t, srv, http.MethodGet, "/api/state", "")
	if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := rr.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", got)
	}
	if got := rr.Header().Get("X-Request-ID"); !strings.HasPrefix(got, "req_") {
		t.Errorf("X-Request-ID = %q, want generated req_ id", got)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/state", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rr = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	if got := rr.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("X-Request-ID = %q, want inbound id echoed", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/state", nil)
	req.Header.Set("X-Request-ID", "bad id\n")
	rr = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	if got := rr.Header().Get("X-Request-ID"); got == "bad id\n" {
		t.Errorf("malformed inbound request id was echoed")
	}
}

func TestStateDefaults(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := do(t, srv, http.MethodGet, "/api/state", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	got := decode[store.Snapshot](t, rr)
	if diff := cmp.Diff(store.DefaultSnapshot(), got); diff != "" {
		t.Errorf("state mismatch (-want +got):\n%s", diff)
	}
}

func TestAddItem(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantFields []string
		wantCents  int64
	}{
		{"number price", `{"name":"Milk","price":3.5,"category":"Groceries"}`, http.StatusCreated, nil, 350},
		{"text price with comma", `{"name":"Bread","price":"2,25","category":"Groceries"}`, http.StatusCreated, nil, 225},
		{"blank name", `{"name":"  ","price":1,"category":"Groceries"}`, http.StatusUnprocessableEntity, []string{"name"}, 0},
		{"zero price", `{"name":"Milk","price":0,"category":"Groceries"}`, http.StatusUnprocessableEntity, []string{"price"}, 0},
		{"negative price", `{"name":"Milk","price":-2,"category":"Groceries"}`, http.StatusUnprocessableEntity, []string{"price"}, 0},
		{"garbage price", `{"name":"Milk","price":"abc","category":"Groceries"}`, http.StatusUnprocessableEntity, []string{"price"}, 0},
		{"missing price", `{"name":"Milk","category":"Groceries"}`, http.StatusUnprocessableEntity, []string{"price"}, 0},
		{"unknown category", `{"name":"Milk","price":1,"category":"Toys"}`, http.StatusUnprocessableEntity, []string{"category"}, 0},
		{"everything wrong", `{"name":"","price":0,"category":""}`, http.StatusUnprocessableEntity, []string{"category", "name", "price"}, 0},
		{"malformed json", `{"name":`, http.StatusBadRequest, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, st := newTestServer(t)
			rr := do(t, srv, http.MethodPost, "/api/items", tt.body)
			if rr.Code != tt.wantStatus {
				t.Fatalf("status=%d body=%s, want %d", rr.Code, rr.Body.String(), tt.wantStatus)
			}

			switch tt.wantStatus {
			case http.StatusCreated:
				item := decode[core.Item](t, rr)
				if item.Price.Cents != tt.wantCents {
					t.Errorf("price cents = %d, want %d", item.Price.Cents, tt.wantCents)
				}
				if item.Purchased {
					t.Errorf("new item is purchased")
				}
				if loc := rr.Header().Get("Location"); loc != "/api/items/"+item.ID {
					t.Errorf("Location = %q", loc)
				}
				if len(st.Items()) != 1 {
					t.Errorf("store has %d items, want 1", len(st.Items()))
				}
			case http.StatusUnprocessableEntity:
				body := decode[errorBody](t, rr)
				var fields []string
				for f := range body.Fields {
					fields = append(fields, f)
				}
				if diff := cmp.Diff(tt.wantFields, fields, sortStrings); diff != "" {
					t.Errorf("field errors mismatch (-want +got):\n%s", diff)
				}
				if len(st.Items()) != 0 {
					t.Errorf("rejected add mutated the store")
				}
			}
		})
	}
}

func TestListItemsFilterAndSearch(t *testing.T) {
	srv, _ := newTestServer(t)
	for _, body := range []string{
		`{"name":"Milk","price":3.5,"category":"Groceries"}`,
		`{"name":"Cable","price":9.99,"category":"Electronics"}`,
		`{"name":"Almond milk","price":4,"category":"Groceries"}`,
	} {
		if rr := do(t, srv, http.MethodPost, "/api/items", body); rr.Code != http.StatusCreated {
			t.Fatalf("add status=%d", rr.Code)
		}
	}

	got := decode[itemsResponse](t, do(t, srv, http.MethodGet, "/api/items", ""))
	if diff := cmp.Diff([]string{"Almond milk", "Cable", "Milk"}, names(got.Items)); diff != "" {
		t.Errorf("default order mismatch (-want +got):\n%s", diff)
	}

	got = decode[itemsResponse](t, do(t, srv, http.MethodGet, "/api/items?q=MILK", ""))
	if diff := cmp.Diff([]string{"Almond milk", "Milk"}, names(got.Items)); diff != "" {
		t.Errorf("search mismatch (-want +got):\n%s", diff)
	}
	if got.Count != 2 {
		t.Errorf("count = %d, want 2", got.Count)
	}

	rr := do(t, srv, http.MethodPatch, "/api/filter", `{"sortBy":"price","category":"Groceries"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("filter status=%d", rr.Code)
	}
	got = decode[itemsResponse](t, do(t, srv, http.MethodGet, "/api/items", ""))
	if diff := cmp.Diff([]string{"Almond milk", "Milk"}, names(got.Items)); diff != "" {
		t.Errorf("filtered order mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdateToggleDelete(t *testing.T) {
	srv, st := newTestServer(t)
	do(t, srv, http.MethodPost, "/api/items", `{"name":"Milk","price":3.5,"category":"Groceries"}`)

	rr := do(t, srv, http.MethodPatch, "/api/items/id-1", `{"name":"Oat milk","price":"4.20"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("update status=%d body=%s", rr.Code, rr.Body.String())
	}
	item := decode[core.Item](t, rr)
	if item.Name != "Oat milk" || item.Price.Cents != 420 || item.Category != "Groceries" {
		t.Errorf("updated item = %+v", item)
	}

	rr = do(t, srv, http.MethodPatch, "/api/items/id-1", `{"price":0}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid update status=%d", rr.Code)
	}
	if st.Items()[0].Price.Cents != 420 {
		t.Errorf("invalid update mutated the price")
	}

	if rr := do(t, srv, http.MethodPatch, "/api/items/nope", `{"name":"x"}`); rr.Code != http.StatusNotFound {
		t.Errorf("update unknown status=%d, want 404", rr.Code)
	}

	rr = do(t, srv, http.MethodPost, "/api/items/id-1/toggle", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("toggle status=%d", rr.Code)
	}
	if !decode[core.Item](t, rr).Purchased {
		t.Errorf("toggle did not mark purchased")
	}
	if rr := do(t, srv, http.MethodPost, "/api/items/nope/toggle", ""); rr.Code != http.StatusNotFound {
		t.Errorf("toggle unknown status=%d, want 404", rr.Code)
	}

	if rr := do(t, srv, http.MethodDelete, "/api/items/id-1", ""); rr.Code != http.StatusNoContent {
		t.Fatalf("delete status=%d", rr.Code)
	}
	if len(st.Items()) != 0 {
		t.Errorf("delete left %d items", len(st.Items()))
	}
	if rr := do(t, srv, http.MethodDelete, "/api/items/id-1", ""); rr.Code != http.StatusNoContent {
		t.Errorf("delete unknown status=%d, want 204", rr.Code)
	}
}

func TestClearItems(t *testing.T) {
	srv, st := newTestServer(t)
	do(t, srv, http.MethodPost, "/api/items", `{"name":"A","price":1,"category":"Other"}`)
	do(t, srv, http.MethodPost, "/api/items", `{"name":"B","price":2,"category":"Other"}`)
	do(t, srv, http.MethodPost, "/api/items", `{"name":"C","price":3,"category":"Other"}`)
	do(t, srv, http.MethodPost, "/api/items/id-2/toggle", "")

	rr := do(t, srv, http.MethodDelete, "/api/items?purchased=true", "")
	if diff := cmp.Diff(map[string]int{"removed": 1}, decode[map[string]int](t, rr)); diff != "" {
		t.Errorf("clear purchased mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"A", "C"}, names(st.Items())); diff != "" {
		t.Errorf("remaining mismatch (-want +got):\n%s", diff)
	}

	rr = do(t, srv, http.MethodDelete, "/api/items", "")
	if diff := cmp.Diff(map[string]int{"removed": 2}, decode[map[string]int](t, rr)); diff != "" {
		t.Errorf("clear all mismatch (-want +got):\n%s", diff)
	}
	if len(st.Items()) != 0 {
		t.Errorf("clear all left %d items", len(st.Items()))
	}
}

func TestCategories(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := do(t, srv, http.MethodPost, "/api/categories", `{"name":"  Toys  "}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("add category status=%d", rr.Code)
	}
	want := append(append([]string{}, store.DefaultCategories...), "Toys")
	got := decode[map[string][]string](t, rr)["categories"]
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("categories mismatch (-want +got):\n%s", diff)
	}

	if rr := do(t, srv, http.MethodPost, "/api/categories", `{"name":"Toys"}`); rr.Code != http.StatusConflict {
		t.Errorf("duplicate status=%d, want 409", rr.Code)
	}
	if rr := do(t, srv, http.MethodPost, "/api/categories", `{"name":"   "}`); rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("blank status=%d, want 422", rr.Code)
	}

	got = decode[map[string][]string](t, do(t, srv, http.MethodGet, "/api/categories", ""))["categories"]
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("listed categories mismatch (-want +got):\n%s", diff)
	}
}

func TestFilterAndTheme(t *testing.T) {
	srv, st := newTestServer(t)

	if rr := do(t, srv, http.MethodPatch, "/api/filter", `{"sortBy":"colour"}`); rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad sortBy status=%d, want 422", rr.Code)
	}

	rr := do(t, srv, http.MethodPatch, "/api/filter", `{"showPurchased":false}`)
	want := core.Filter{Category: core.AllCategories, ShowPurchased: false, SortBy: core.SortByName}
	if diff := cmp.Diff(want, decode[core.Filter](t, rr)); diff != "" {
		t.Errorf("filter mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, decode[core.Filter](t, do(t, srv, http.MethodGet, "/api/filter", ""))); diff != "" {
		t.Errorf("GET filter mismatch (-want +got):\n%s", diff)
	}

	rr = do(t, srv, http.MethodPost, "/api/theme/toggle", "")
	if diff := cmp.Diff(map[string]bool{"darkMode": false}, decode[map[string]bool](t, rr)); diff != "" {
		t.Errorf("theme mismatch (-want +got):\n%s", diff)
	}
	if st.DarkMode() {
		t.Errorf("store still in dark mode")
	}
}

func TestSummary(t *testing.T) {
	srv, _ := newTestServer(t)
	do(t, srv, http.MethodPost, "/api/items", `{"name":"A","price":1.10,"category":"Other"}`)
	do(t, srv, http.MethodPost, "/api/items", `{"name":"B","price":2.20,"category":"Home"}`)
	do(t, srv, http.MethodPost, "/api/items/id-2/toggle", "")

	got := decode[core.Summary](t, do(t, srv, http.MethodGet, "/api/summary", ""))
	if got.Items != 2 || got.PurchasedItems != 1 || got.RemainingItems != 1 {
		t.Errorf("counts = %+v", got)
	}
	if got.TotalCost.Cents != 330 || got.PurchasedCost.Cents != 220 || got.RemainingCost.Cents != 110 {
		t.Errorf("costs = %v/%v/%v", got.TotalCost, got.PurchasedCost, got.RemainingCost)
	}
}

func TestExport(t *testing.T) {
	srv, _ := newTestServer(t)
	do(t, srv, http.MethodPost, "/api/items", `{"name":"Milk \"2%\"","price":3.5,"category":"Groceries"}`)

	rr := do(t, srv, http.MethodGet, "/api/export?format=csv", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("csv status=%d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); cd != `attachment; filename="shopping-list-2025-06-01.csv"` {
		t.Errorf("Content-Disposition = %q", cd)
	}
	wantCSV := "Name,Price,Category,Purchased,Created At\n" +
		`"Milk ""2%""",3.50,"Groceries",false,"2025-06-01T09:01:00.000Z"` + "\n"
	if diff := cmp.Diff(wantCSV, rr.Body.String()); diff != "" {
		t.Errorf("csv mismatch (-want +got):\n%s", diff)
	}

	rr = do(t, srv, http.MethodGet, "/api/export", "")
	if cd := rr.Header().Get("Content-Disposition"); !strings.HasSuffix(cd, `.json"`) {
		t.Errorf("Content-Disposition = %q", cd)
	}
	doc := decode[map[string]any](t, rr)
	for _, key := range []string{"items", "categories", "exportDate"} {
		if _, ok := doc[key]; !ok {
			t.Errorf("export missing %q", key)
		}
	}

	if rr := do(t, srv, http.MethodGet, "/api/export?format=xml", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("xml status=%d, want 400", rr.Code)
	}
}

func TestImport(t *testing.T) {
	srv, st := newTestServer(t)
	do(t, srv, http.MethodPost, "/api/items", `{"name":"Old","price":1,"category":"Other"}`)

	for _, body := range []string{`not json`, `{"categories":["A"]}`, `{"items":null}`} {
		if rr := do(t, srv, http.MethodPost, "/api/import", body); rr.Code != http.StatusBadRequest {
			t.Errorf("import %q status=%d, want 400", body, rr.Code)
		}
	}
	if diff := cmp.Diff([]string{"Old"}, names(st.Items())); diff != "" {
		t.Errorf("rejected import mutated the store (-want +got):\n%s", diff)
	}

	body := `{"items":[{"id":"x","name":"New","price":2.5,"category":"Toys","purchased":true,"createdAt":"2024-01-02T03:04:05.000Z"}],"categories":["Toys","Toys","Home"]}`
	rr := do(t, srv, http.MethodPost, "/api/import", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("import status=%d body=%s", rr.Code, rr.Body.String())
	}
	if diff := cmp.Diff(map[string]int{"items": 1, "categories": 2}, decode[map[string]int](t, rr)); diff != "" {
		t.Errorf("import response mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Toys", "Home"}, st.Categories()); diff != "" {
		t.Errorf("categories mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"New"}, names(st.Items())); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
}

func TestRateLimitAppliesToMutations(t *testing.T) {
	srv, _ := newTestServer(t, WithRateLimit(2))
	now := time.Date(2025, 6, 1, 9, 0, 15, 0, time.UTC)
	srv.rateLimiter.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if rr := do(t, srv, http.MethodPost, "/api/theme/toggle", ""); rr.Code != http.StatusOK {
			t.Fatalf("toggle %d status=%d", i, rr.Code)
		}
	}
	rr := do(t, srv, http.MethodPost, "/api/theme/toggle", "")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("third toggle status=%d, want 429", rr.Code)
	}
	if rr.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q", rr.Header().Get("Retry-After"))
	}
	if srv.metrics.rateLimitHits != 1 {
		t.Errorf("rateLimitHits = %d, want 1", srv.metrics.rateLimitHits)
	}

	if rr := do(t, srv, http.MethodGet, "/api/state", ""); rr.Code != http.StatusOK {
		t.Errorf("reads are not rate limited, got %d", rr.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)
	if rr := do(t, srv, http.MethodPut, "/api/items", `{}`); rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("PUT /api/items status=%d, want 405", rr.Code)
	}
}

var sortStrings = cmpopts.SortSlices(func(a, b string) bool { return a < b })

func names(items []core.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name
	}
	return out
}
