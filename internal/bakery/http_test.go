package bakery_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"MiniBakery/internal/auth"
	"MiniBakery/internal/bakery"
)

const jwtSecret = "test-secret"

type fixture struct {
	ts    *httptest.Server
	b     *bakery.Bakery
	token string
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	tm := auth.NewTokenMaker(jwtSecret)
	b := newBakery(t)

	s := &bakery.Server{Bakery: b, Tokens: tm, Log: zap.NewNop()}
	h := bakery.NewHandler(s, bakery.HTTPDeps{
		Log:            zap.NewNop(),
		Service:        "bakery",
		Registry:       prometheus.NewRegistry(),
		MetricsEnabled: true,
		MetricsToken:   "metrics-token",
	})

	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)

	tok, err := tm.New(auth.Staff{ID: "s_test", Email: "baker@example.com", Role: auth.RoleBaker}, time.Minute)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return fixture{ts: ts, b: b, token: tok}
}

func doJSON(t *testing.T, method, url, token, body string) (*http.Response, []byte) {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, raw
}

func TestHTTP_StaffRoutesRequireToken(t *testing.T) {
	f := newFixture(t)

	resp, _ := doJSON(t, http.MethodPost, f.ts.URL+"/goods/cake", "", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("produce status=%d", resp.StatusCode)
	}
	resp, _ = doJSON(t, http.MethodPut, f.ts.URL+"/prices/cake", "", `{"amount": 5}`)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("set price status=%d", resp.StatusCode)
	}
	if f.b.TotalQuantityRemaining() != 0 || f.b.AskPrice("cake") != 0 {
		t.Fatalf("unauthenticated request changed state")
	}
}

func TestHTTP_SetPrice(t *testing.T) {
	f := newFixture(t)

	resp, raw := doJSON(t, http.MethodPut, f.ts.URL+"/prices/cake", f.token, `{"amount": 20.146}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d body=%s", resp.StatusCode, raw)
	}
	if got := f.b.AskPrice("cake"); got != 20.15 {
		t.Fatalf("price=%v", got)
	}

	for _, body := range []string{`{"amount": "five"}`, `{"amount": -1}`, `{"amount": true}`, `{}`} {
		resp, raw = doJSON(t, http.MethodPut, f.ts.URL+"/prices/cake", f.token, body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("body %s: status=%d raw=%s", body, resp.StatusCode, raw)
		}
	}
	if got := f.b.AskPrice("cake"); got != 20.15 {
		t.Fatalf("price changed to %v", got)
	}

	resp, raw = doJSON(t, http.MethodGet, f.ts.URL+"/prices/cake", "", "")
	var pr struct {
		Price float64 `json:"price"`
	}
	if err := json.Unmarshal(raw, &pr); err != nil || pr.Price != 20.15 {
		t.Fatalf("get price status=%d body=%s", resp.StatusCode, raw)
	}
}

func TestHTTP_ProducePurchaseConsume(t *testing.T) {
	f := newFixture(t)
	_ = f.b.SetPrice("cake", 5)

	var produced []bakery.GoodView
	for i := 0; i < 3; i++ {
		resp, raw := doJSON(t, http.MethodPost, f.ts.URL+"/goods/cake", f.token, "")
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("produce status=%d body=%s", resp.StatusCode, raw)
		}
		var g bakery.GoodView
		if err := json.Unmarshal(raw, &g); err != nil {
			t.Fatalf("decode: %v body=%s", err, raw)
		}
		produced = append(produced, g)
	}

	resp, raw := doJSON(t, http.MethodGet, f.ts.URL+"/goods/cake/oldest", "", "")
	var oldest bakery.GoodView
	if err := json.Unmarshal(raw, &oldest); err != nil || oldest.ID != produced[0].ID {
		t.Fatalf("oldest status=%d body=%s", resp.StatusCode, raw)
	}

	resp, raw = doJSON(t, http.MethodPost, f.ts.URL+"/goods/cake/purchase", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("purchase status=%d body=%s", resp.StatusCode, raw)
	}
	var one bakery.GoodView
	if err := json.Unmarshal(raw, &one); err != nil {
		t.Fatalf("implicit purchase should return an object: %v body=%s", err, raw)
	}
	if one.ID != oldest.ID || !one.Sold || one.Price != 5 {
		t.Fatalf("purchased=%+v", one)
	}

	resp, raw = doJSON(t, http.MethodPost, f.ts.URL+"/goods/cake/purchase", "", `{"quantity": 1}`)
	var many []bakery.GoodView
	if err := json.Unmarshal(raw, &many); err != nil || len(many) != 1 {
		t.Fatalf("explicit purchase should return a list: status=%d body=%s", resp.StatusCode, raw)
	}

	resp, raw = doJSON(t, http.MethodPost, f.ts.URL+"/items/"+one.ID+"/consume", "", "")
	var cr struct {
		Consumed bool `json:"consumed"`
	}
	if err := json.Unmarshal(raw, &cr); err != nil || !cr.Consumed {
		t.Fatalf("consume status=%d body=%s", resp.StatusCode, raw)
	}
	_, raw = doJSON(t, http.MethodPost, f.ts.URL+"/items/"+one.ID+"/consume", "", "")
	if err := json.Unmarshal(raw, &cr); err != nil || cr.Consumed {
		t.Fatalf("second consume body=%s", raw)
	}

	_, raw = doJSON(t, http.MethodGet, f.ts.URL+"/register", "", "")
	var reg struct {
		Total float64 `json:"total"`
	}
	if err := json.Unmarshal(raw, &reg); err != nil || reg.Total != 10 {
		t.Fatalf("register body=%s", raw)
	}

	_, raw = doJSON(t, http.MethodGet, f.ts.URL+"/goods/cake/stock", "", "")
	var st struct {
		QuantityRemaining int     `json:"quantity_remaining"`
		InventoryValue    float64 `json:"inventory_value"`
	}
	if err := json.Unmarshal(raw, &st); err != nil || st.QuantityRemaining != 1 || st.InventoryValue != 5 {
		t.Fatalf("stock body=%s", raw)
	}
}

func TestHTTP_PurchaseErrors(t *testing.T) {
	f := newFixture(t)
	f.b.Produce("cake")
	f.b.Produce("cake")

	cases := []struct {
		name string
		path string
		body string
		want int
	}{
		{"unknown good", "/goods/cronut/purchase", "", http.StatusNotFound},
		{"insufficient stock", "/goods/cake/purchase", `{"quantity": 5}`, http.StatusConflict},
		{"zero quantity", "/goods/cake/purchase", `{"quantity": 0}`, http.StatusBadRequest},
		{"fractional quantity", "/goods/cake/purchase", `{"quantity": 1.5}`, http.StatusBadRequest},
		{"string quantity", "/goods/cake/purchase", `{"quantity": "2"}`, http.StatusBadRequest},
		{"unknown field", "/goods/cake/purchase", `{"qty": 2}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, raw := doJSON(t, http.MethodPost, f.ts.URL+tc.path, "", tc.body)
			if resp.StatusCode != tc.want {
				t.Fatalf("status=%d want=%d body=%s", resp.StatusCode, tc.want, raw)
			}
		})
	}

	if got := f.b.QuantityRemaining("cake"); got != 2 {
		t.Fatalf("quantity=%d want=2", got)
	}
	if got := f.b.InspectRegister(); got != 0 {
		t.Fatalf("register=%v want=0", got)
	}
}

func TestHTTP_NotFound(t *testing.T) {
	f := newFixture(t)

	resp, _ := doJSON(t, http.MethodGet, f.ts.URL+"/goods/cake/oldest", "", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("oldest status=%d", resp.StatusCode)
	}
	resp, _ = doJSON(t, http.MethodGet, f.ts.URL+"/items/g_missing", "", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("item status=%d", resp.StatusCode)
	}
}

func TestHTTP_SummaryAndMetrics(t *testing.T) {
	f := newFixture(t)
	_ = f.b.SetPrice("bread", 2)
	f.b.Produce("bread")

	_, raw := doJSON(t, http.MethodGet, f.ts.URL+"/bakery", "", "")
	var s bakery.Summary
	if err := json.Unmarshal(raw, &s); err != nil {
		t.Fatalf("decode: %v body=%s", err, raw)
	}
	if s.Name != "Eliots Bakery" || s.QuantityRemaining != 1 || s.InventoryValue != 2 {
		t.Fatalf("summary=%+v", s)
	}

	resp, _ := doJSON(t, http.MethodGet, f.ts.URL+"/metrics", "", "")
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("metrics without token status=%d", resp.StatusCode)
	}
	resp, raw = doJSON(t, http.MethodGet, f.ts.URL+"/metrics", "metrics-token", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics status=%d", resp.StatusCode)
	}
	if !bytes.Contains(raw, []byte("http_requests_total")) {
		t.Fatalf("metrics body missing http_requests_total")
	}
}
