package gaps

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/fredesa/knowledge-registry/internal/db"
	"github.com/fredesa/knowledge-registry/internal/domain/gap"
)

// fakeRedis is an in-memory stand-in for the consumer interface.
type fakeRedis struct {
	kv      map[string]int64
	ttl     map[string]time.Duration
	list    [][]byte
	failOn  string
	getData map[string][]byte
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{kv: map[string]int64{}, ttl: map[string]time.Duration{}, getData: map[string][]byte{}}
}

func (f *fakeRedis) fail(op string) error {
	if f.failOn == op {
		return &db.Error{Op: op, Err: errors.New("connection reset")}
	}
	return nil
}

func (f *fakeRedis) Get(_ context.Context, key string) ([]byte, error) {
	if err := f.fail(db.OpGet); err != nil {
		return nil, err
	}
	if b, ok := f.getData[key]; ok {
		return b, nil
	}
	n, ok := f.kv[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return []byte(jsonInt(n)), nil
}

func jsonInt(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func (f *fakeRedis) IncrBy(_ context.Context, key string, val int64) error {
	if err := f.fail(db.OpIncrBy); err != nil {
		return err
	}
	f.kv[key] += val
	return nil
}

func (f *fakeRedis) Expire(_ context.Context, key string, ttl time.Duration, nx bool) error {
	if _, ok := f.ttl[key]; ok && nx {
		return nil
	}
	f.ttl[key] = ttl
	return nil
}

func (f *fakeRedis) LPush(_ context.Context, _ string, values ...[]byte) error {
	if err := f.fail(db.OpLPush); err != nil {
		return err
	}
	for _, v := range values {
		f.list = append([][]byte{v}, f.list...)
	}
	return nil
}

func (f *fakeRedis) LTrim(_ context.Context, _ string, start, stop int64) error {
	if int64(len(f.list)) > stop+1 {
		f.list = f.list[start : stop+1]
	}
	return nil
}

func (f *fakeRedis) LRange(_ context.Context, _ string, start, stop int64) ([][]byte, error) {
	if err := f.fail(db.OpLRange); err != nil {
		return nil, err
	}
	if start >= int64(len(f.list)) {
		return [][]byte{}, nil
	}
	if stop < 0 {
		stop += int64(len(f.list))
	}
	if stop >= int64(len(f.list)) {
		stop = int64(len(f.list)) - 1
	}
	return f.list[start : stop+1], nil
}

func (f *fakeRedis) LRem(_ context.Context, _ string, _ int64, value []byte) (int64, error) {
	if err := f.fail(db.OpLRem); err != nil {
		return 0, err
	}
	kept := f.list[:0]
	var n int64
	for _, it := range f.list {
		if string(it) == string(value) {
			n++
			continue
		}
		kept = append(kept, it)
	}
	f.list = kept
	return n, nil
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) (int64, error) {
	if err := f.fail(db.OpDel); err != nil {
		return 0, err
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.kv[k]; ok {
			delete(f.kv, k)
			n++
		}
	}
	return n, nil
}

func testGap(q string, kws ...string) gap.Gap {
	return gap.Gap{Query: q, Keywords: kws, ResultCount: 0, DetectedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func TestRecord_CountsTopicAndLogsEvent(t *testing.T) {
	f := newFakeRedis()
	s := New(f, time.Hour, 10)
	ctx := context.Background()

	if err := s.Record(ctx, testGap("quantum procurement", "quantum", "procurement")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Record(ctx, testGap("procurement quantum", "procurement", "quantum")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	n, err := s.Occurrences(ctx, "procurement+quantum")
	if err != nil || n != 2 {
		t.Fatalf("expected 2 occurrences, got %d (%v)", n, err)
	}
	if f.ttl[countPrefix+"procurement+quantum"] != time.Hour {
		t.Error("retention TTL not applied")
	}

	recent, err := s.Recent(ctx, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recent) != 2 || recent[0].Query != "procurement quantum" {
		t.Errorf("expected newest first, got %+v", recent)
	}
}

func TestRecord_NoKeywordsSkipsCounter(t *testing.T) {
	f := newFakeRedis()
	s := New(f, 0, 0)

	if err := s.Record(context.Background(), testGap("the and or")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.kv) != 0 {
		t.Error("keywordless gap must not be counted")
	}
	if len(f.list) != 1 {
		t.Error("event should still be logged")
	}
}

func TestRecord_LogIsCapped(t *testing.T) {
	f := newFakeRedis()
	s := New(f, time.Hour, 3)
	for i := 0; i < 5; i++ {
		_ = s.Record(context.Background(), testGap("q", "kw"))
	}
	if len(f.list) != 3 {
		t.Errorf("expected log capped at 3, got %d", len(f.list))
	}
}

func TestRecord_StoreError(t *testing.T) {
	f := newFakeRedis()
	f.failOn = db.OpIncrBy
	s := New(f, time.Hour, 10)

	if err := s.Record(context.Background(), testGap("q", "kw")); err == nil {
		t.Fatal("expected error")
	}
}

func TestRecent_SkipsCorruptEntries(t *testing.T) {
	f := newFakeRedis()
	f.list = [][]byte{[]byte("garbage")}
	s := New(f, time.Hour, 10)
	_ = s.Record(context.Background(), testGap("q", "kw"))

	got, err := s.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected 1 decodable gap, got %d", len(got))
	}
}

func TestOccurrences(t *testing.T) {
	f := newFakeRedis()
	s := New(f, time.Hour, 10)
	ctx := context.Background()

	if n, err := s.Occurrences(ctx, "unknown"); err != nil || n != 0 {
		t.Errorf("missing key should be 0, got %d (%v)", n, err)
	}
	if n, _ := s.Occurrences(ctx, ""); n != 0 {
		t.Error("empty key should be 0")
	}

	f.getData[countPrefix+"bad"] = []byte("not-a-number")
	if _, err := s.Occurrences(ctx, "bad"); err == nil {
		t.Error("expected parse error")
	}

	f.failOn = db.OpGet
	if _, err := s.Occurrences(ctx, "x"); err == nil {
		t.Error("expected store error")
	}
}

func TestResolve_RemovesTopic(t *testing.T) {
	f := newFakeRedis()
	s := New(f, time.Hour, 10)
	ctx := context.Background()

	_ = s.Record(ctx, testGap("quantum procurement", "quantum", "procurement"))
	_ = s.Record(ctx, testGap("itar export", "itar", "export"))
	_ = s.Record(ctx, testGap("procurement quantum", "procurement", "quantum"))

	removed, counted, err := s.Resolve(ctx, "procurement+quantum")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if removed != 2 || !counted {
		t.Errorf("Resolve = %d, %v; want 2, true", removed, counted)
	}
	if n, _ := s.Occurrences(ctx, "procurement+quantum"); n != 0 {
		t.Errorf("occurrences after resolve = %d", n)
	}
	recent, _ := s.Recent(ctx, 10)
	if len(recent) != 1 || recent[0].Query != "itar export" {
		t.Errorf("remaining = %+v", recent)
	}
}

func TestResolve_UnknownTopic(t *testing.T) {
	s := New(newFakeRedis(), time.Hour, 10)
	removed, counted, err := s.Resolve(context.Background(), "nothing+here")
	if err != nil || removed != 0 || counted {
		t.Errorf("Resolve = %d, %v, %v", removed, counted, err)
	}
}

func TestResolve_StoreErrors(t *testing.T) {
	for _, op := range []string{db.OpLRange, db.OpLRem, db.OpDel} {
		t.Run(op, func(t *testing.T) {
			f := newFakeRedis()
			s := New(f, time.Hour, 10)
			_ = s.Record(context.Background(), testGap("q", "kw"))
			f.failOn = op
			if _, _, err := s.Resolve(context.Background(), "kw"); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
