package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tbxark/formwizard/types"
)

var testSchema = FormSchema{
	Defaults: types.Fields{
		"full_name":    "",
		"email":        "",
		"accept_terms": false,
	},
	TotalSteps: 6,
}

func fixedClock() time.Time {
	return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
}

func sampleSession() types.FormSession {
	return types.FormSession{
		ID:          "3f1c0f7e-7b7e-4d0c-9d8a-2b2f8c1e0a11",
		Fields:      types.Fields{"full_name": "Ada Lovelace", "email": "ada@example.com", "accept_terms": true},
		CurrentStep: 4,
		LastUpdated: fixedClock(),
	}
}

func TestStoreNamespacesKeys(t *testing.T) {
	ctx := context.Background()
	core := NewMemoryCache[string]()
	s := NewStore[string](core, "form")

	require.NoError(t, s.Set(ctx, "onboarding", "v"))
	ok, err := core.Exists(ctx, "form:onboarding")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.ErrorIs(t, s.Set(ctx, "  ", "v"), ErrKeyNotFound)
	_, _, err = s.Get(ctx, "")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, s.Del(ctx, "onboarding"))
	ok, err = s.Exists(ctx, "onboarding")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFormStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	core := NewMemoryCache[[]byte]()
	fs := NewFormStore(core, "form", testSchema, WithClock(fixedClock))

	want := sampleSession()
	fs.Save(ctx, "onboarding", want)

	got := fs.Load(ctx, "onboarding")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("session mismatch (-want +got):\n%s", diff)
	}

	// a new store over the same bytes behaves like an app restart
	restarted := NewFormStore(core, "form", testSchema)
	got = restarted.Load(ctx, "onboarding")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("session mismatch after restart (-want +got):\n%s", diff)
	}
}

func TestFormStoreLoadNeverSaved(t *testing.T) {
	fs := NewFormStore(NewMemoryCache[[]byte](), "form", testSchema)
	got := fs.Load(context.Background(), "never")
	assert.Equal(t, 1, got.CurrentStep)
	assert.Equal(t, testSchema.Defaults, got.Fields)
	assert.Empty(t, got.ID)
}

func TestFormStoreToleratesSchemaDrift(t *testing.T) {
	ctx := context.Background()
	core := NewMemoryCache[[]byte]()
	require.NoError(t, core.Set(ctx, "form:onboarding", []byte(
		`{"id":"abc","fields":{"full_name":"Old Record","nickname":"gone"},"current_step":9,"extra":1}`,
	)))
	fs := NewFormStore(core, "form", testSchema)

	got := fs.Load(ctx, "onboarding")
	assert.Equal(t, "abc", got.ID)
	assert.Equal(t, 6, got.CurrentStep, "step is clamped into range")
	assert.Equal(t, types.Fields{"full_name": "Old Record", "email": "", "accept_terms": false}, got.Fields)
}

func TestFormStoreCorruptRecordFallsBack(t *testing.T) {
	ctx := context.Background()
	core := NewMemoryCache[[]byte]()
	require.NoError(t, core.Set(ctx, "form:onboarding", []byte(`garbage`)))
	fs := NewFormStore(core, "form", testSchema)

	got := fs.Load(ctx, "onboarding")
	assert.Equal(t, testSchema.Default(), got)
}

func TestFormStoreClear(t *testing.T) {
	ctx := context.Background()
	fs := NewFormStore(NewMemoryCache[[]byte](), "form", testSchema)
	fs.Save(ctx, "onboarding", sampleSession())
	fs.Clear(ctx, "onboarding")
	assert.Equal(t, testSchema.Default(), fs.Load(ctx, "onboarding"))
}

func TestFormStoreAssignsIDAndTimestamp(t *testing.T) {
	ctx := context.Background()
	fs := NewFormStore(NewMemoryCache[[]byte](), "form", testSchema, WithClock(fixedClock))
	fs.Save(ctx, "onboarding", types.FormSession{Fields: types.Fields{"email": "x@y.io"}, CurrentStep: 2})

	got := fs.Load(ctx, "onboarding")
	assert.NotEmpty(t, got.ID)
	assert.True(t, got.LastUpdated.Equal(fixedClock()))
	assert.Equal(t, "x@y.io", got.Fields["email"])
}

type failingCache struct{ MemoryCache[[]byte] }

func (*failingCache) Set(context.Context, string, []byte) error { return errors.New("disk full") }
func (*failingCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("io error")
}
func (*failingCache) Del(context.Context, string) error { return errors.New("read-only") }

func TestFormStoreSwallowsFailures(t *testing.T) {
	ctx := context.Background()
	fs := NewFormStore(&failingCache{}, "form", testSchema)
	assert.NotPanics(t, func() {
		fs.Save(ctx, "onboarding", sampleSession())
		fs.Clear(ctx, "onboarding")
	})
	assert.Equal(t, testSchema.Default(), fs.Load(ctx, "onboarding"))
}

func TestSQLiteCacheRoundTripAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "forms.db")

	cache, err := OpenSQLite(path)
	require.NoError(t, err)
	fs := NewFormStore(cache, "form", testSchema)
	want := sampleSession()
	fs.Save(ctx, "onboarding", want)

	want.CurrentStep = 5
	fs.Save(ctx, "onboarding", want)
	require.NoError(t, cache.Close())

	reopened, err := OpenSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()

	got := NewFormStore(reopened, "form", testSchema).Load(ctx, "onboarding")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("session mismatch (-want +got):\n%s", diff)
	}

	ok, err := reopened.Exists(ctx, "form:onboarding")
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, reopened.Del(ctx, "form:onboarding"))
	_, found, err := reopened.Get(ctx, "form:onboarding")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestOpenSQLiteRequiresPath(t *testing.T) {
	_, err := OpenSQLite("")
	assert.Error(t, err)
}

type recordingStore struct {
	mu    sync.Mutex
	ops   []string
	saved map[string]types.FormSession
	gate  chan struct{}
}

func newRecordingStore() *recordingStore {
	return &recordingStore{saved: map[string]types.FormSession{}}
}

func (r *recordingStore) Load(_ context.Context, key string) types.FormSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.saved[key]; ok {
		return s
	}
	return testSchema.Default()
}

func (r *recordingStore) Save(_ context.Context, key string, s types.FormSession) {
	if r.gate != nil {
		<-r.gate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, "save:"+s.Fields.String("email"))
	r.saved[key] = s
}

func (r *recordingStore) Clear(_ context.Context, key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, "clear")
	delete(r.saved, key)
}

func (r *recordingStore) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ops...)
}

func TestWriteBehindCoalescesQueuedSaves(t *testing.T) {
	ctx := context.Background()
	rec := newRecordingStore()
	rec.gate = make(chan struct{})
	wb := NewWriteBehind(rec, nil)
	defer wb.Close()

	wb.Save(ctx, "k", types.FormSession{Fields: types.Fields{"email": "first"}})
	// wait until the worker is blocked on the first save
	require.Eventually(t, func() bool {
		wb.mu.Lock()
		defer wb.mu.Unlock()
		return wb.busy
	}, time.Second, time.Millisecond)

	wb.Save(ctx, "k", types.FormSession{Fields: types.Fields{"email": "second"}})
	wb.Save(ctx, "k", types.FormSession{Fields: types.Fields{"email": "third"}})
	close(rec.gate)

	require.NoError(t, wb.Flush(ctx))
	assert.Equal(t, []string{"save:first", "save:third"}, rec.snapshot())
	assert.Equal(t, "third", wb.Load(ctx, "k").Fields.String("email"))
}

func TestWriteBehindClearReplacesPendingSave(t *testing.T) {
	ctx := context.Background()
	rec := newRecordingStore()
	rec.gate = make(chan struct{})
	wb := NewWriteBehind(rec, nil)

	wb.Save(ctx, "other", types.FormSession{Fields: types.Fields{"email": "blocker"}})
	require.Eventually(t, func() bool {
		wb.mu.Lock()
		defer wb.mu.Unlock()
		return wb.busy
	}, time.Second, time.Millisecond)

	wb.Save(ctx, "k", types.FormSession{Fields: types.Fields{"email": "stale"}})
	wb.Clear(ctx, "k")
	close(rec.gate)

	require.NoError(t, wb.Close())
	assert.Equal(t, []string{"save:blocker", "clear"}, rec.snapshot())
}

func TestWriteBehindSavesInlineAfterClose(t *testing.T) {
	ctx := context.Background()
	rec := newRecordingStore()
	wb := NewWriteBehind(rec, nil)
	require.NoError(t, wb.Close())
	require.NoError(t, wb.Close())

	wb.Save(ctx, "k", types.FormSession{Fields: types.Fields{"email": "late"}})
	assert.Equal(t, []string{"save:late"}, rec.snapshot())
}

func TestWriteBehindFlushHonoursContext(t *testing.T) {
	rec := newRecordingStore()
	rec.gate = make(chan struct{})
	wb := NewWriteBehind(rec, nil)
	defer func() {
		close(rec.gate)
		wb.Close()
	}()

	wb.Save(context.Background(), "k", types.FormSession{})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, wb.Flush(ctx), context.DeadlineExceeded)
}
