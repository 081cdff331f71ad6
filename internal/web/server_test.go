package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/dataengine/internal/core"
)

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testSources(t *testing.T) []core.Source {
	t.Helper()
	dir := t.TempDir()
	var rows strings.Builder
	rows.WriteString("State,County\n")
	for i := range 120 {
		rows.WriteString("TX,County ")
		rows.WriteString(strings.Repeat("x", i%3))
		rows.WriteString("\n")
	}
	return []core.Source{
		{Name: "Counties", Path: writeSource(t, dir, "counties.csv", rows.String())},
		{Name: "Rates", Path: writeSource(t, dir, "rates.json", `[["State","Rate"],["TX",6.25],["WA",6.5]]`)},
	}
}

func newTestServer(t *testing.T, load bool) (*Server, *core.Registry) {
	t.Helper()
	reg := core.NewRegistry(testSources(t), core.Options{})
	if load {
		_, err := reg.LoadAll(context.Background())
		require.NoError(t, err)
	}
	return NewServer(reg, Options{Gatherer: prometheus.NewRegistry()}), reg
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	s, reg := newTestServer(t, false)

	rec := get(t, s, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"not_ready"}`, rec.Body.String())

	_, err := reg.LoadAll(context.Background())
	require.NoError(t, err)

	rec = get(t, s, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready"}`, rec.Body.String())
}

func TestAPI_NotReady(t *testing.T) {
	s, _ := newTestServer(t, false)

	for _, target := range []string{"/api/datasets", "/api/datasets/Counties", "/api/datasets/Counties/headers"} {
		rec := get(t, s, target)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, target)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "REG002", resp.Code)
	}
}

func TestListDatasets(t *testing.T) {
	s, _ := newTestServer(t, true)

	rec := get(t, s, "/api/datasets")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var list DatasetList
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, "ready", list.State)
	assert.NotEmpty(t, list.LoadID)
	require.Len(t, list.Datasets, 2)

	assert.Equal(t, "Counties", list.Datasets[0].Name)
	assert.Equal(t, "Counties", list.Datasets[0].Label)
	assert.Equal(t, "csv", list.Datasets[0].Format)
	assert.Equal(t, 120, list.Datasets[0].Records)
	assert.Equal(t, []string{"State", "County"}, list.Datasets[0].Header)

	assert.Equal(t, "Rates", list.Datasets[1].Name)
	assert.Equal(t, "json", list.Datasets[1].Format)
	assert.Equal(t, 2, list.Datasets[1].Records)
}

func TestDataset_Paging(t *testing.T) {
	s, _ := newTestServer(t, true)

	tests := []struct {
		name       string
		query      string
		wantOffset int
		wantLimit  int
		wantCount  int
	}{
		{"defaults", "", 0, defaultPageSize, defaultPageSize},
		{"explicit", "?limit=10&offset=5", 5, 10, 10},
		{"tail", "?limit=50&offset=100", 100, 50, 20},
		{"past end", "?offset=500", 500, defaultPageSize, 0},
		{"zero limit", "?limit=0", 0, 0, 0},
		{"clamped limit", "?limit=5000", 0, maxPageSize, 120},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, s, "/api/datasets/Counties"+tt.query)
			require.Equal(t, http.StatusOK, rec.Code)

			var page DatasetPage
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
			assert.Equal(t, "Counties", page.Name)
			assert.Equal(t, 120, page.Total)
			assert.Equal(t, tt.wantOffset, page.Offset)
			assert.Equal(t, tt.wantLimit, page.Limit)

			var raw struct {
				Records []json.RawMessage `json:"records"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
			assert.Len(t, raw.Records, tt.wantCount)
			assert.NotNil(t, raw.Records)
		})
	}
}

func TestDataset_RecordsKeepHeaderOrder(t *testing.T) {
	s, _ := newTestServer(t, true)

	rec := get(t, s, "/api/datasets/Rates?limit=1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"records":[{"State":"TX","Rate":"6.25"}]`)
}

func TestDataset_BadPaging(t *testing.T) {
	s, _ := newTestServer(t, true)

	for _, query := range []string{"?limit=-1", "?limit=abc", "?offset=-3", "?offset=1.5"} {
		rec := get(t, s, "/api/datasets/Counties"+query)
		assert.Equal(t, http.StatusBadRequest, rec.Code, query)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "REQ003", resp.Code)
	}
}

func TestDataset_Unknown(t *testing.T) {
	s, _ := newTestServer(t, true)

	rec := get(t, s, "/api/datasets/Nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "REG001", resp.Code)

	rec = get(t, s, "/api/datasets/Nope/headers")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHeaders(t *testing.T) {
	s, _ := newTestServer(t, true)

	rec := get(t, s, "/api/datasets/Rates/headers")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"name":"Rates","header":["State","Rate"]}`, rec.Body.String())
}

func TestIndex(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		s, _ := newTestServer(t, true)

		rec := get(t, s, "/")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

		body := rec.Body.String()
		assert.Contains(t, body, "<h1>Data Engine</h1>")
		assert.Contains(t, body, `<span class="state">ready</span>`)
		assert.Contains(t, body, `<a href="/api/datasets/Counties">Counties</a>`)
		assert.Contains(t, body, "<td>120</td>")
		assert.Contains(t, body, "<h2>Other</h2>")
	})

	t.Run("not ready", func(t *testing.T) {
		s, _ := newTestServer(t, false)

		rec := get(t, s, "/")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `<span class="state">not_ready</span>`)
		assert.Contains(t, rec.Body.String(), "No datasets available.")
	})
}

func TestIndex_EscapesValues(t *testing.T) {
	var buf strings.Builder
	err := indexPage(indexData{
		State: "ready",
		Groups: []datasetGroup{{
			Name: "A<B",
			Datasets: []DatasetSummary{{
				Name:   "X",
				Label:  "<script>alert(1)</script>",
				Source: "a&b.csv",
			}},
		}},
	}).Render(context.Background(), &buf)
	require.NoError(t, err)

	assert.NotContains(t, buf.String(), "<script>")
	assert.Contains(t, buf.String(), "&lt;script&gt;")
	assert.Contains(t, buf.String(), "a&amp;b.csv")
	assert.Contains(t, buf.String(), "<h2>A&lt;B</h2>")
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "dataengine_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	s := NewServer(core.NewRegistry(nil, core.Options{}), Options{Gatherer: reg})
	rec := get(t, s, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "dataengine_test_total 1")
}

func TestSecurityHeaders(t *testing.T) {
	s, _ := newTestServer(t, true)

	rec := get(t, s, "/healthz")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}
