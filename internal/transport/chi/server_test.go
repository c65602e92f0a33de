package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/fredesa/knowledge-registry/internal/domain"
	"github.com/fredesa/knowledge-registry/internal/domain/category"
	"github.com/fredesa/knowledge-registry/internal/domain/gap"
	"github.com/fredesa/knowledge-registry/internal/domain/search/request"
	"github.com/fredesa/knowledge-registry/internal/domain/search/result"
	"github.com/fredesa/knowledge-registry/internal/domain/source"
	"github.com/fredesa/knowledge-registry/internal/domain/source/dimension"
	"github.com/fredesa/knowledge-registry/internal/domain/stats"
	"github.com/fredesa/knowledge-registry/internal/transport/dto"
	gapuc "github.com/fredesa/knowledge-registry/internal/usecase/gap"
	healthuc "github.com/fredesa/knowledge-registry/internal/usecase/health"
)

const farID = "6f1c2a8e-3b4d-5e6f-8a9b-0c1d2e3f4a5b"

func farSource() source.Source {
	return source.Reconstruct(source.Attrs{
		ID:              farID,
		Name:            "FAR Part 15 Contracting by Negotiation",
		Description:     "Source selection procedures",
		URL:             "https://www.acquisition.gov/far/part-15",
		CategoryName:    "Federal_Contracting",
		CategoryDisplay: "Federal Contracting",
		Dimension:       dimension.Practice,
		Authority:       90,
		Quality:         88,
		WordCount:       12000,
		Active:          true,
	})
}

func serve(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestQueryKnowledgeBase_OK(t *testing.T) {
	f := newFixture(t)
	f.search.queryFn = func(_ context.Context, in request.Input) (result.Result, error) {
		return result.New([]source.Source{farSource()}, result.Info{
			OriginalQuery: in.Text,
			Keywords:      []string{"far", "negotiation"},
			Filters:       result.Filters{Dimension: in.Dimension, MinAuthority: 90},
		}, "Found 1 authoritative sources"), nil
	}
	h := NewRouter(f.server, RouterOptions{}, zap.NewNop())

	rr := serve(t, h, http.MethodPost, "/tools/query_knowledge_base",
		`{"query":"FAR negotiation","dimension":"practice","min_authority":90,"max_results":3}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rr.Code, rr.Body.String())
	}

	if f.search.last.Text != "FAR negotiation" || f.search.last.Limit != 3 || f.search.last.MinAuthority != 90 {
		t.Errorf("aliases not mapped: %+v", f.search.last)
	}

	resp := decode[dto.QueryResponse](t, rr)
	if len(resp.Sources) != 1 || resp.Sources[0].Category != "Federal Contracting" {
		t.Fatalf("sources: %+v", resp.Sources)
	}
	if resp.QueryInfo.Filters.Category != nil {
		t.Errorf("category filter: got %v, want null", *resp.QueryInfo.Filters.Category)
	}
	if d := resp.QueryInfo.Filters.Dimension; d == nil || *d != "practice" {
		t.Errorf("dimension filter: got %v", d)
	}
	if resp.QueryInfo.ResultCount != 1 {
		t.Errorf("result_count: got %d", resp.QueryInfo.ResultCount)
	}
}

func TestQueryKnowledgeBase_BadBody(t *testing.T) {
	f := newFixture(t)
	h := NewRouter(f.server, RouterOptions{}, zap.NewNop())

	rr := serve(t, h, http.MethodPost, "/tools/query_knowledge_base", `{"text":`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d", rr.Code)
	}
	if resp := decode[dto.ErrorResponse](t, rr); resp.Code != dto.CodeBadRequest {
		t.Errorf("code: got %s", resp.Code)
	}
}

func TestQueryKnowledgeBase_DomainErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   dto.ErrorCode
		wantMsg    string
	}{
		{
			name:       "invalid filter",
			err:        domain.NewFilterError("dimension", "speculative"),
			wantStatus: http.StatusBadRequest,
			wantCode:   dto.CodeInvalidFilter,
			wantMsg:    "speculative",
		},
		{
			name:       "invalid query",
			err:        fmt.Errorf("%w: min_authority must be between 0 and 100", domain.ErrInvalidQuery),
			wantStatus: http.StatusBadRequest,
			wantCode:   dto.CodeInvalidQuery,
			wantMsg:    "min_authority",
		},
		{
			name:       "catalog unavailable hides cause",
			err:        fmt.Errorf("%w: dial tcp 10.0.0.1:5432: refused", domain.ErrUnavailable),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   dto.CodeUnavailable,
			wantMsg:    "catalog unavailable",
		},
		{
			name:       "unknown",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   dto.CodeInternal,
			wantMsg:    "internal error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.search.queryFn = func(context.Context, request.Input) (result.Result, error) {
				return result.Result{}, tt.err
			}
			h := NewRouter(f.server, RouterOptions{}, zap.NewNop())

			rr := serve(t, h, http.MethodPost, "/tools/query_knowledge_base", `{"text":"x"}`)
			if rr.Code != tt.wantStatus {
				t.Fatalf("status: got %d, want %d", rr.Code, tt.wantStatus)
			}
			resp := decode[dto.ErrorResponse](t, rr)
			if resp.Code != tt.wantCode {
				t.Errorf("code: got %s, want %s", resp.Code, tt.wantCode)
			}
			if !strings.Contains(resp.Message, tt.wantMsg) {
				t.Errorf("message %q does not contain %q", resp.Message, tt.wantMsg)
			}
			if strings.Contains(resp.Message, "10.0.0.1") {
				t.Errorf("message leaks cause: %q", resp.Message)
			}
		})
	}
}

func TestSearch_QueryParams(t *testing.T) {
	f := newFixture(t)
	h := NewRouter(f.server, RouterOptions{}, zap.NewNop())

	rr := serve(t, h, http.MethodGet, "/api/v1/search?q=cmmc+level+2&category=Cybersecurity&limit=5&min_authority=70", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rr.Code, rr.Body.String())
	}
	want := request.Input{Text: "cmmc level 2", Category: "Cybersecurity", MinAuthority: 70, Limit: 5}
	if f.search.last != want {
		t.Errorf("input: got %+v, want %+v", f.search.last, want)
	}
}

func TestSearch_BadLimit(t *testing.T) {
	f := newFixture(t)
	h := NewRouter(f.server, RouterOptions{}, zap.NewNop())

	rr := serve(t, h, http.MethodGet, "/api/v1/search?q=far&limit=many", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d", rr.Code)
	}
}

func TestSourceDetails(t *testing.T) {
	f := newFixture(t)
	f.catalog.sourceFn = func(_ context.Context, id string) (source.Source, error) {
		if id == farID {
			return farSource(), nil
		}
		return source.Source{}, fmt.Errorf("source %s: %w", id, domain.ErrNotFound)
	}
	h := NewRouter(f.server, RouterOptions{}, zap.NewNop())

	rr := serve(t, h, http.MethodGet, "/api/v1/sources/"+farID, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	detail := decode[dto.SourceDetail](t, rr)
	if detail.AuthorityLabel == "" || detail.CategoryName != "Federal_Contracting" {
		t.Errorf("detail: %+v", detail)
	}

	rr = serve(t, h, http.MethodPost, "/tools/get_source_details", `{"source_id":"00000000-0000-0000-0000-000000000000"}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("missing source status: got %d", rr.Code)
	}
}

func TestListCategories(t *testing.T) {
	f := newFixture(t)
	f.catalog.categoriesFn = func(context.Context) ([]category.Category, error) {
		return []category.Category{
			category.Reconstruct("Cybersecurity", "Cybersecurity", "NIST and CMMC", 3,
				map[dimension.Dimension]int{dimension.Current: 2, dimension.Theory: 1}),
		}, nil
	}
	h := NewRouter(f.server, RouterOptions{}, zap.NewNop())

	for _, path := range []string{"/tools/list_categories", "/api/v1/categories"} {
		rr := serve(t, h, http.MethodGet, path, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status: got %d", path, rr.Code)
		}
		list := decode[dto.CategoryList](t, rr)
		if len(list.Categories) != 1 || list.Categories[0].CurrentSources != 2 {
			t.Errorf("%s: %+v", path, list)
		}
	}
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	f.catalog.statsFn = func(context.Context) (stats.Catalog, error) {
		st := stats.NewCatalog()
		st.TotalSources = 4
		st.ByAuthority[90] = 3
		st.ByAuthority[50] = 1
		st.ByDimension[dimension.Practice] = 4
		st.Categories = 2
		return st, nil
	}
	h := NewRouter(f.server, RouterOptions{}, zap.NewNop())

	rr := serve(t, h, http.MethodGet, "/stats", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	st := decode[dto.Stats](t, rr)
	if st.AuthorityBreakdown["90"] != 3 || st.DimensionBreakdown["practice"] != 4 {
		t.Errorf("stats: %+v", st)
	}
}

func TestListTools(t *testing.T) {
	f := newFixture(t)
	h := NewRouter(f.server, RouterOptions{}, zap.NewNop())

	rr := serve(t, h, http.MethodGet, "/tools", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	tools := decode[dto.ToolList](t, rr)
	if len(tools.Tools) != 4 {
		t.Errorf("tools: got %d, want 4", len(tools.Tools))
	}
}

func TestListGaps(t *testing.T) {
	f := newFixture(t)
	var gotLimit int
	f.gaps.recentFn = func(_ context.Context, limit int) ([]gapuc.Entry, error) {
		gotLimit = limit
		return []gapuc.Entry{{
			Gap:         gap.Gap{Query: "quantum proposals", Keywords: []string{"quantum", "proposals"}, DetectedAt: time.Now()},
			Occurrences: 4,
		}}, nil
	}
	h := NewRouter(f.server, RouterOptions{}, zap.NewNop())

	rr := serve(t, h, http.MethodGet, "/api/v1/gaps?limit=5", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	if gotLimit != 5 {
		t.Errorf("limit: got %d, want 5", gotLimit)
	}
	list := decode[dto.GapList](t, rr)
	if len(list.Gaps) != 1 || list.Gaps[0].Occurrences != 4 {
		t.Errorf("gaps: %+v", list)
	}
}

func TestListGaps_Disabled(t *testing.T) {
	f := newFixture(t)
	s := NewServer(f.search, f.catalog, nil, f.health, zap.NewNop())
	h := NewRouter(s, RouterOptions{}, zap.NewNop())

	rr := serve(t, h, http.MethodGet, "/api/v1/gaps", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	if list := decode[dto.GapList](t, rr); len(list.Gaps) != 0 {
		t.Errorf("gaps: %+v", list)
	}
}

func TestDetectKnowledgeGap(t *testing.T) {
	f := newFixture(t)
	var gotQuery string
	var gotKeywords []string
	f.gaps.detectFn = func(_ context.Context, query string, keywords []string) (gapuc.Detection, error) {
		gotQuery, gotKeywords = query, keywords
		return gapuc.Detection{
			Topic: "export+itar", Keywords: []string{"itar", "export"},
			GapDetected: true, SourcesFound: 1, Action: gapuc.ActionLogged,
		}, nil
	}
	h := NewRouter(f.server, RouterOptions{}, zap.NewNop())

	rr := serve(t, h, http.MethodPost, "/tools/detect_knowledge_gap", `{"query":"ITAR exports","keywords":["itar","export"]}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rr.Code, rr.Body.String())
	}
	if gotQuery != "ITAR exports" || len(gotKeywords) != 2 {
		t.Errorf("detect called with %q %v", gotQuery, gotKeywords)
	}
	d := decode[dto.GapDetection](t, rr)
	if !d.GapDetected || d.SourcesFound != 1 || d.Action != gapuc.ActionLogged || d.Message == "" {
		t.Errorf("detection: %+v", d)
	}
}

func TestDetectKnowledgeGap_NoKeywords(t *testing.T) {
	f := newFixture(t)
	f.gaps.detectFn = func(context.Context, string, []string) (gapuc.Detection, error) {
		return gapuc.Detection{}, fmt.Errorf("%w: no keywords to check", domain.ErrInvalidQuery)
	}
	h := NewRouter(f.server, RouterOptions{}, zap.NewNop())

	rr := serve(t, h, http.MethodPost, "/tools/detect_knowledge_gap", `{"query":"the"}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rr.Code)
	}
}

func TestResolveGap(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"resolved", nil, http.StatusOK},
		{"unknown topic", fmt.Errorf("%w: knowledge gap", domain.ErrNotFound), http.StatusNotFound},
		{"store down", errors.New("redis down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			var gotKey string
			f.gaps.resolveFn = func(_ context.Context, key string) (gapuc.Resolution, error) {
				gotKey = key
				if tt.err != nil {
					return gapuc.Resolution{}, tt.err
				}
				return gapuc.Resolution{Topic: key, EventsRemoved: 2}, nil
			}
			h := NewRouter(f.server, RouterOptions{}, zap.NewNop())

			rr := serve(t, h, http.MethodDelete, "/api/v1/gaps/export+itar", "")
			if rr.Code != tt.wantStatus {
				t.Fatalf("status: got %d, want %d", rr.Code, tt.wantStatus)
			}
			if gotKey != "export+itar" {
				t.Errorf("key: got %q", gotKey)
			}
			if tt.err == nil {
				if res := decode[dto.GapResolution](t, rr); res.EventsRemoved != 2 {
					t.Errorf("resolution: %+v", res)
				}
			}
		})
	}
}

func TestGapWrites_Disabled(t *testing.T) {
	f := newFixture(t)
	s := NewServer(f.search, f.catalog, nil, f.health, zap.NewNop())
	h := NewRouter(s, RouterOptions{}, zap.NewNop())

	if rr := serve(t, h, http.MethodPost, "/tools/detect_knowledge_gap", `{"query":"itar"}`); rr.Code != http.StatusServiceUnavailable {
		t.Errorf("detect status: got %d, want 503", rr.Code)
	}
	if rr := serve(t, h, http.MethodDelete, "/api/v1/gaps/itar", ""); rr.Code != http.StatusServiceUnavailable {
		t.Errorf("resolve status: got %d, want 503", rr.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		status healthuc.Status
		want   int
	}{
		{healthuc.Healthy, http.StatusOK},
		{healthuc.Degraded, http.StatusOK},
		{healthuc.Unhealthy, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		f := newFixture(t)
		f.health.report = healthuc.Report{Status: tt.status, Checks: map[string]healthuc.CheckResult{}}
		h := NewRouter(f.server, RouterOptions{APIKeys: []string{"secret"}}, zap.NewNop())

		rr := serve(t, h, http.MethodGet, "/health", "")
		if rr.Code != tt.want {
			t.Errorf("%s: got %d, want %d", tt.status, rr.Code, tt.want)
		}
	}
}

func TestRouter_RequestIDAndNotFound(t *testing.T) {
	f := newFixture(t)
	h := NewRouter(f.server, RouterOptions{}, zap.NewNop())

	rr := serve(t, h, http.MethodGet, "/nope", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d", rr.Code)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
}

func TestRouter_RateLimited(t *testing.T) {
	f := newFixture(t)
	h := NewRouter(f.server, RouterOptions{Limiter: NewRateLimiter(0.001, 1)}, zap.NewNop())

	if rr := serve(t, h, http.MethodGet, "/tools", ""); rr.Code != http.StatusOK {
		t.Fatalf("first request: got %d", rr.Code)
	}
	rr := serve(t, h, http.MethodGet, "/tools", "")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: got %d", rr.Code)
	}
	if resp := decode[dto.ErrorResponse](t, rr); resp.Code != dto.CodeRateLimited {
		t.Errorf("code: got %s", resp.Code)
	}
	if rr := serve(t, h, http.MethodGet, "/health", ""); rr.Code != http.StatusOK {
		t.Errorf("health must bypass limiter: got %d", rr.Code)
	}
}

func TestRouter_MCPMount(t *testing.T) {
	f := newFixture(t)
	mcp := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusAccepted) })
	h := NewRouter(f.server, RouterOptions{MCP: mcp, MCPPath: "/mcp"}, zap.NewNop())

	if rr := serve(t, h, http.MethodPost, "/mcp", `{}`); rr.Code != http.StatusAccepted {
		t.Errorf("mcp mount: got %d", rr.Code)
	}
}

func TestJSONRecoverer(t *testing.T) {
	panicky := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("kaboom") })
	rr := serve(t, JSONRecoverer(zap.NewNop())(panicky), http.MethodGet, "/", "")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d", rr.Code)
	}
	if resp := decode[dto.ErrorResponse](t, rr); resp.Code != dto.CodeInternal {
		t.Errorf("code: got %s", resp.Code)
	}
}
