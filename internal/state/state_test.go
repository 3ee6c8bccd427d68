package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alexjbarnes/build-cli/internal/config"
	"github.com/alexjbarnes/build-cli/internal/logging"
	"github.com/alexjbarnes/build-cli/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *BoltStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := OpenBolt(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testRecord() models.TokenRecord {
	return models.TokenRecord{
		"access_token":  "at_123",
		"refresh_token": "rt_456",
		"token_id":      "id_789",
		"expires_in":    float64(86400),
		"scope":         "openid profile",
	}
}

// --- OpenBolt / Close ---

func TestOpenBolt_CreatesDB(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "sub", "state.db")
	s, err := OpenBolt(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	info, err := os.Stat(dbPath)
	require.NoError(t, err)
	assert.Equal(t, stateFilePerm, info.Mode().Perm())

	dirInfo, err := os.Stat(filepath.Dir(dbPath))
	require.NoError(t, err)
	assert.Equal(t, stateDirPerm, dirInfo.Mode().Perm())
}

func TestOpenBolt_ReopensExistingDB(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "state.db")

	s1, err := OpenBolt(dbPath)
	require.NoError(t, err)
	require.NoError(t, s1.Save(testRecord()))
	require.NoError(t, s1.Close())

	s2, err := OpenBolt(dbPath)
	require.NoError(t, err)
	defer s2.Close()

	rec, err := s2.Load()
	require.NoError(t, err)
	assert.Equal(t, "at_123", rec.AccessToken())
}

// --- BoltStore ---

func TestBoltStore_EmptyByDefault(t *testing.T) {
	s := testDB(t)
	rec, err := s.Load()
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestBoltStore_RoundTripKeepsPassthroughFields(t *testing.T) {
	s := testDB(t)
	require.NoError(t, s.Save(testRecord()))

	rec, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, testRecord(), rec)
}

func TestBoltStore_Overwrite(t *testing.T) {
	s := testDB(t)
	require.NoError(t, s.Save(models.TokenRecord{"access_token": "old"}))
	require.NoError(t, s.Save(models.TokenRecord{"access_token": "new"}))

	rec, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "new", rec.AccessToken())
	assert.Empty(t, rec.RefreshToken())
}

func TestBoltStore_Delete(t *testing.T) {
	s := testDB(t)
	require.NoError(t, s.Save(testRecord()))
	require.NoError(t, s.Delete())

	rec, err := s.Load()
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestBoltStore_DeleteMissingIsNoOp(t *testing.T) {
	s := testDB(t)
	assert.NoError(t, s.Delete())
}

// --- FileStore ---

func testFileStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), ".build.token"), logging.Discard())
}

func TestFileStore_MissingFileIsAbsent(t *testing.T) {
	s := testFileStore(t)
	rec, err := s.Load()
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestFileStore_RoundTrip(t *testing.T) {
	s := testFileStore(t)
	require.NoError(t, s.Save(testRecord()))

	rec, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, testRecord(), rec)
}

func TestFileStore_WritesRawJSONWithOwnerOnlyMode(t *testing.T) {
	s := testFileStore(t)
	require.NoError(t, s.Save(models.TokenRecord{"access_token": "at"}))

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.JSONEq(t, `{"access_token":"at"}`, string(data))

	info, err := os.Stat(s.Path())
	require.NoError(t, err)
	assert.Equal(t, stateFilePerm, info.Mode().Perm())
}

func TestFileStore_SaveLeavesNoTempFiles(t *testing.T) {
	s := testFileStore(t)
	require.NoError(t, s.Save(testRecord()))
	require.NoError(t, s.Save(testRecord()))

	entries, err := os.ReadDir(filepath.Dir(s.Path()))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileStore_CorruptFileIsAbsent(t *testing.T) {
	for name, content := range map[string]string{
		"garbage": "not json",
		"array":   `["a"]`,
		"empty":   "",
	} {
		t.Run(name, func(t *testing.T) {
			s := testFileStore(t)
			require.NoError(t, os.WriteFile(s.Path(), []byte(content), 0o600))

			rec, err := s.Load()
			require.NoError(t, err)
			assert.Nil(t, rec)
		})
	}
}

func TestFileStore_ReadErrorIsReported(t *testing.T) {
	// a directory at the token path cannot be read as a file
	dir := t.TempDir()
	s := NewFileStore(dir, logging.Discard())

	_, err := s.Load()
	assert.Error(t, err)
}

func TestFileStore_Delete(t *testing.T) {
	s := testFileStore(t)
	require.NoError(t, s.Save(testRecord()))
	require.NoError(t, s.Delete())

	_, err := os.Stat(s.Path())
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, s.Delete(), "second delete should be a no-op")
}

// --- MemoryStore ---

func TestMemoryStore_IsolatesCallerCopies(t *testing.T) {
	seed := models.TokenRecord{"access_token": "a"}
	s := NewMemoryStore(seed)
	seed["access_token"] = "mutated"

	rec, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "a", rec.AccessToken())

	rec["access_token"] = "mutated"
	again, _ := s.Load()
	assert.Equal(t, "a", again.AccessToken())
}

func TestMemoryStore_SaveDelete(t *testing.T) {
	s := NewMemoryStore(nil)
	require.NoError(t, s.Save(testRecord()))
	assert.Equal(t, 1, s.Saves)

	require.NoError(t, s.Delete())
	rec, _ := s.Load()
	assert.Nil(t, rec)
}

// --- Open ---

func TestOpen_SelectsBackend(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		TokenStore: config.TokenStoreFile,
		TokenPath:  filepath.Join(dir, ".build.token"),
		StatePath:  filepath.Join(dir, "state", "state.db"),
	}

	s, err := Open(cfg, logging.Discard())
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	cfg.TokenStore = config.TokenStoreBolt
	s, err = Open(cfg, logging.Discard())
	require.NoError(t, err)
	assert.IsType(t, &BoltStore{}, s)
	require.NoError(t, s.Close())

	cfg.TokenStore = "keychain"
	_, err = Open(cfg, logging.Discard())
	assert.Error(t, err)
}
