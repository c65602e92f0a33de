package gap

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/fredesa/knowledge-registry/internal/domain"
	"github.com/fredesa/knowledge-registry/internal/domain/gap"
	"github.com/fredesa/knowledge-registry/internal/domain/search/filter"
	"github.com/fredesa/knowledge-registry/internal/domain/source"
	"github.com/fredesa/knowledge-registry/internal/domain/source/dimension"
)

type mockStore struct {
	gaps       []gap.Gap
	counts     map[string]int64
	err        error
	countErr   error
	lastLimit  int
	countCalls int

	recorded   []gap.Gap
	recordErr  error
	resolved   []string
	removed    int
	counted    bool
	resolveErr error
}

func (m *mockStore) Record(_ context.Context, g gap.Gap) error {
	m.recorded = append(m.recorded, g)
	return m.recordErr
}

func (m *mockStore) Resolve(_ context.Context, key string) (int, bool, error) {
	m.resolved = append(m.resolved, key)
	return m.removed, m.counted, m.resolveErr
}

type mockCatalog struct {
	sources  []source.Source
	err      error
	lastPred filter.Predicate
}

func (m *mockCatalog) FetchCandidates(_ context.Context, p filter.Predicate) ([]source.Source, error) {
	m.lastPred = p
	if m.err != nil {
		return nil, m.err
	}
	var out []source.Source
	for _, s := range m.sources {
		if p.Matches(s) {
			out = append(out, s)
		}
	}
	return out, nil
}

func testSource(t *testing.T, id, name string, auth int) source.Source {
	t.Helper()
	s, err := source.New(source.Attrs{
		ID: id, Name: name, URL: "https://example.gov/" + id,
		CategoryName: "Federal_Contracting", CategoryDisplay: "Federal Contracting",
		Dimension: dimension.Practice, Authority: auth, Quality: 80, Active: true,
	})
	if err != nil {
		t.Fatalf("source.New: %v", err)
	}
	return s
}

func newTestService(store *mockStore, cat *mockCatalog) *Service {
	svc := New(store, cat, 0)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func (m *mockStore) Recent(_ context.Context, limit int) ([]gap.Gap, error) {
	m.lastLimit = limit
	return m.gaps, m.err
}

func (m *mockStore) Occurrences(_ context.Context, key string) (int64, error) {
	m.countCalls++
	return m.counts[key], m.countErr
}

func TestRecent_LimitBounds(t *testing.T) {
	tests := []struct{ in, want int }{{0, DefaultLimit}, {-1, DefaultLimit}, {5, 5}, {1000, MaxLimit}}
	for _, tt := range tests {
		store := &mockStore{}
		if _, err := New(store, nil, 0).Recent(context.Background(), tt.in); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if store.lastLimit != tt.want {
			t.Errorf("limit %d: store got %d, want %d", tt.in, store.lastLimit, tt.want)
		}
	}
}

func TestRecent_AttachesOccurrences(t *testing.T) {
	store := &mockStore{
		gaps: []gap.Gap{
			{Query: "quantum proposals", Keywords: []string{"quantum", "proposals"}},
			{Query: "proposals quantum", Keywords: []string{"proposals", "quantum"}},
			{Query: "oral orals", Keywords: []string{"oral", "orals"}},
		},
		counts: map[string]int64{"proposals+quantum": 7, "oral+orals": 1},
	}
	got, err := New(store, nil, 0).Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d", len(got))
	}
	if got[0].Occurrences != 7 || got[1].Occurrences != 7 || got[2].Occurrences != 1 {
		t.Errorf("occurrences = %d, %d, %d", got[0].Occurrences, got[1].Occurrences, got[2].Occurrences)
	}
	if store.countCalls != 2 {
		t.Errorf("Occurrences called %d times, want 2", store.countCalls)
	}
}

func TestRecent_Errors(t *testing.T) {
	boom := errors.New("boom")
	if _, err := New(&mockStore{err: boom}, nil, 0).Recent(context.Background(), 1); !errors.Is(err, boom) {
		t.Errorf("error = %v", err)
	}
	store := &mockStore{gaps: []gap.Gap{{Keywords: []string{"x"}}}, countErr: boom}
	if _, err := New(store, nil, 0).Recent(context.Background(), 1); !errors.Is(err, boom) {
		t.Errorf("error = %v", err)
	}
}

func TestDetect_Covered(t *testing.T) {
	store := &mockStore{}
	cat := &mockCatalog{sources: []source.Source{
		testSource(t, "far15", "FAR Part 15 Source Selection", 90),
		testSource(t, "dfars", "DFARS Source Selection Procedures", 90),
	}}

	d, err := newTestService(store, cat).Detect(context.Background(), "", []string{"Selection"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.GapDetected || d.SourcesFound != 2 || d.Action != ActionNone {
		t.Errorf("detection = %+v", d)
	}
	if len(store.recorded) != 0 {
		t.Errorf("covered topic recorded: %+v", store.recorded)
	}
	if cat.lastPred.MinAuthority() != filter.DefaultMinAuthority {
		t.Errorf("floor = %d", cat.lastPred.MinAuthority())
	}
}

func TestDetect_GapRecorded(t *testing.T) {
	store := &mockStore{}
	cat := &mockCatalog{sources: []source.Source{testSource(t, "itar", "ITAR Handbook", 90)}}

	d, err := newTestService(store, cat).Detect(context.Background(), "ITAR export compliance", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.GapDetected || d.SourcesFound != 1 || d.Action != ActionLogged {
		t.Errorf("detection = %+v", d)
	}
	if d.Topic != "compliance+export+itar" {
		t.Errorf("topic = %q", d.Topic)
	}
	if len(store.recorded) != 1 {
		t.Fatalf("recorded %d gaps, want 1", len(store.recorded))
	}
	g := store.recorded[0]
	if g.Query != "ITAR export compliance" || g.ResultCount != 1 ||
		!reflect.DeepEqual(g.Keywords, []string{"itar", "export", "compliance"}) {
		t.Errorf("gap = %+v", g)
	}
}

func TestDetect_Errors(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name  string
		store *mockStore
		cat   *mockCatalog
		query string
		want  error
	}{
		{"no keywords", &mockStore{}, &mockCatalog{}, "what is the", domain.ErrInvalidQuery},
		{"catalog down", &mockStore{}, &mockCatalog{err: boom}, "itar", domain.ErrUnavailable},
		{"record fails", &mockStore{recordErr: boom}, &mockCatalog{}, "itar", boom},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestService(tt.store, tt.cat).Detect(context.Background(), tt.query, nil)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	store := &mockStore{removed: 3, counted: true}
	res, err := New(store, nil, 0).Resolve(context.Background(), "Quantum+procurement")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Topic != "procurement+quantum" || res.EventsRemoved != 3 {
		t.Errorf("resolution = %+v", res)
	}
	if !reflect.DeepEqual(store.resolved, []string{"procurement+quantum"}) {
		t.Errorf("store resolved %v", store.resolved)
	}
}

func TestResolve_Errors(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name  string
		store *mockStore
		key   string
		want  error
	}{
		{"blank key", &mockStore{}, " + ", domain.ErrInvalidQuery},
		{"unknown topic", &mockStore{}, "itar", domain.ErrNotFound},
		{"store fails", &mockStore{resolveErr: boom}, "itar", boom},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.store, nil, 0).Resolve(context.Background(), tt.key); !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestTopicKey(t *testing.T) {
	tests := map[string]string{
		"quantum+procurement":  "procurement+quantum",
		"Quantum, Procurement": "procurement+quantum",
		"itar":                 "itar",
		"":                     "",
	}
	for in, want := range tests {
		if got := TopicKey(in); got != want {
			t.Errorf("TopicKey(%q) = %q, want %q", in, got, want)
		}
	}
}
