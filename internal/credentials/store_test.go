package credentials

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func testRecord(email string) Record {
	return Record{
		Email:        email,
		AccessToken:  "ya29.test-access",
		RefreshToken: "1//test-refresh",
		Expiry:       time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC),
		Scopes:       []string{"openid", "https://mail.google.com/"},
		TokenType:    "Bearer",
	}
}

type recordedOp struct {
	operation string
	result    string
}

type fakeRecorder struct {
	mu  sync.Mutex
	ops []recordedOp
}

func (f *fakeRecorder) RecordStoreOperation(_ context.Context, operation, result string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, recordedOp{operation, result})
}

func TestStore_RecordsOperations(t *testing.T) {
	recorder := &fakeRecorder{}
	store, err := NewStore(t.TempDir(), WithStoreRecorder(recorder))
	require.NoError(t, err)

	rec := testRecord("alice@example.com")
	require.NoError(t, store.Save(rec.Email, rec))
	_, err = store.Load(rec.Email)
	require.NoError(t, err)
	_, err = store.Load("missing@example.com")
	require.Error(t, err)
	require.NoError(t, store.Delete(rec.Email))

	assert.Equal(t, []recordedOp{
		{"save", "success"},
		{"load", "success"},
		{"load", "error"},
		{"delete", "success"},
	}, recorder.ops)
}

func TestStore_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	rec := testRecord("alice@example.com")

	require.NoError(t, store.Save(rec.Email, rec))

	loaded, err := store.Load(rec.Email)
	require.NoError(t, err)
	assert.Equal(t, rec, loaded)
}

func TestStore_LoadMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Load("nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_LoadCorrupt(t *testing.T) {
	store := newTestStore(t)
	path := store.path("broken@example.com")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := store.Load("broken@example.com")
	assert.ErrorIs(t, err, ErrCorrupt)

	// A corrupt file is reported, never removed.
	_, statErr := os.Stat(path)
	assert.NoError(t, statErr)
}

func TestStore_LoadMissingFields(t *testing.T) {
	store := newTestStore(t)
	path := store.path("empty@example.com")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))

	_, err := store.Load("empty@example.com")
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestStore_SaveOverwrites(t *testing.T) {
	store := newTestStore(t)
	rec := testRecord("alice@example.com")
	require.NoError(t, store.Save(rec.Email, rec))

	rec.AccessToken = "ya29.newer"
	rec.Expiry = rec.Expiry.Add(time.Hour)
	require.NoError(t, store.Save(rec.Email, rec))

	loaded, err := store.Load(rec.Email)
	require.NoError(t, err)
	assert.Equal(t, "ya29.newer", loaded.AccessToken)
}

func TestStore_SaveRejectsMismatchedEmail(t *testing.T) {
	store := newTestStore(t)
	rec := testRecord("alice@example.com")

	err := store.Save("bob@example.com", rec)
	assert.Error(t, err)
}

func TestStore_List(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save("bob@example.com", testRecord("bob@example.com")))
	require.NoError(t, store.Save("alice@example.com", testRecord("alice@example.com")))

	emails, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"alice@example.com", "bob@example.com"}, emails)
}

func TestStore_ListSkipsInvalidFiles(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save("alice@example.com", testRecord("alice@example.com")))
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "junk.json"), []byte("nope"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "notes.txt"), []byte("hi"), 0o600))

	emails, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"alice@example.com"}, emails)
}

func TestStore_Isolation(t *testing.T) {
	storeA := newTestStore(t)
	storeB := newTestStore(t)

	require.NoError(t, storeA.Save("alice@x.com", testRecord("alice@x.com")))
	require.NoError(t, storeB.Save("bob@y.com", testRecord("bob@y.com")))

	listA, err := storeA.List()
	require.NoError(t, err)
	listB, err := storeB.List()
	require.NoError(t, err)

	assert.Equal(t, []string{"alice@x.com"}, listA)
	assert.Equal(t, []string{"bob@y.com"}, listB)

	_, err = storeA.Load("bob@y.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_DeleteIdempotent(t *testing.T) {
	store := newTestStore(t)
	rec := testRecord("alice@example.com")
	require.NoError(t, store.Save(rec.Email, rec))

	require.NoError(t, store.Delete(rec.Email))
	_, err := store.Load(rec.Email)
	assert.ErrorIs(t, err, ErrNotFound)

	// Second delete is a no-op.
	require.NoError(t, store.Delete(rec.Email))
}

// TestStore_AtomicSave hammers the same key with writers while a reader loads
// continuously. The reader must always see a complete record.
func TestStore_AtomicSave(t *testing.T) {
	store := newTestStore(t)
	const email = "alice@example.com"
	require.NoError(t, store.Save(email, testRecord(email)))

	done := make(chan struct{})
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			rec := testRecord(email)
			for i := 0; i < 50; i++ {
				rec.AccessToken = "ya29.write"
				if err := store.Save(email, rec); err != nil {
					t.Errorf("save: %v", err)
					return
				}
			}
		}(w)
	}
	go func() {
		wg.Wait()
		close(done)
	}()

	for {
		select {
		case <-done:
			return
		default:
		}
		rec, err := store.Load(email)
		require.NoError(t, err)
		assert.NotEmpty(t, rec.AccessToken)
	}
}

func TestStore_NoTempFileLeftBehind(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save("alice@example.com", testRecord("alice@example.com")))

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "alice@example.com.json", entries[0].Name())
}

func TestStore_FilePermissions(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save("alice@example.com", testRecord("alice@example.com")))

	info, err := os.Stat(store.path("alice@example.com"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileName_SanitizesHostileRunes(t *testing.T) {
	assert.Equal(t, "a_b@example.com", fileName("a/b@example.com"))
	assert.Equal(t, "alice@example.com", fileName("alice@example.com"))
}

func TestRecord_Usable(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want bool
	}{
		{
			name: "valid access token",
			rec:  Record{AccessToken: "t", Expiry: time.Now().Add(time.Hour)},
			want: true,
		},
		{
			name: "expired with refresh token",
			rec:  Record{AccessToken: "t", RefreshToken: "r", Expiry: time.Now().Add(-time.Hour)},
			want: true,
		},
		{
			name: "expired without refresh token",
			rec:  Record{AccessToken: "t", Expiry: time.Now().Add(-time.Hour)},
			want: false,
		},
		{
			name: "zero expiry never expires",
			rec:  Record{AccessToken: "t"},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rec.Usable())
		})
	}
}

func TestRecord_TokenConversion(t *testing.T) {
	rec := testRecord("alice@example.com")
	tok := rec.Token()

	assert.Equal(t, rec.AccessToken, tok.AccessToken)
	assert.Equal(t, rec.RefreshToken, tok.RefreshToken)
	assert.Equal(t, rec.Expiry, tok.Expiry)
	assert.Equal(t, "Bearer", tok.TokenType)

	back := NewRecord(rec.Email, tok, rec.Scopes)
	assert.Equal(t, rec, back)
}

func TestNewRecord_DefaultsTokenType(t *testing.T) {
	tok := &oauth2.Token{AccessToken: "t", Expiry: time.Now().UTC()}
	rec := NewRecord("alice@example.com", tok, nil)
	assert.Equal(t, "Bearer", rec.TokenType)
}

func TestStore_DiskFormat(t *testing.T) {
	store := newTestStore(t)
	rec := testRecord("alice@example.com")
	require.NoError(t, store.Save(rec.Email, rec))

	data, err := os.ReadFile(store.path(rec.Email))
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	for _, key := range []string{"email", "access_token", "refresh_token", "expiry", "scopes", "token_type"} {
		assert.Contains(t, fields, key)
	}
}
