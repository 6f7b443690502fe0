package dedup

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryosukesatoh/paper-digest/internal/logging"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seen.json")

	s := OpenFileStore(path, logging.Discard())
	s.Add("B")
	s.Add("A")
	require.NoError(t, s.Flush())

	reloaded := OpenFileStore(path, logging.Discard())
	assert.ElementsMatch(t, []string{"A", "B"}, reloaded.IDs())
	assert.True(t, reloaded.Contains("A"))
	assert.True(t, reloaded.Contains("B"))
	assert.False(t, reloaded.Contains("C"))
}

func TestFileStoreWritesFlatJSONArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seen.json")

	s := OpenFileStore(path, logging.Discard())
	s.Add("http://arxiv.org/abs/1v1")
	require.NoError(t, s.Flush())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var ids []string
	require.NoError(t, json.Unmarshal(data, &ids))
	assert.Equal(t, []string{"http://arxiv.org/abs/1v1"}, ids)
}

func TestFileStoreFlushOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seen.json")
	require.NoError(t, os.WriteFile(path, []byte(`["A","B","C","D","E","F"]`), 0o644))

	s := OpenFileStore(path, logging.Discard())
	require.Equal(t, 6, s.Len())
	s.Add("G")
	require.NoError(t, s.Flush())

	reloaded := OpenFileStore(path, logging.Discard())
	assert.Equal(t, []string{"A", "B", "C", "D", "E", "F", "G"}, reloaded.IDs())

	matches, err := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches, "temporary files must not be left behind")
}

func TestFileStoreMissingFileIsEmpty(t *testing.T) {
	s := OpenFileStore(filepath.Join(t.TempDir(), "absent.json"), logging.Discard())
	assert.Equal(t, 0, s.Len())
}

func TestFileStoreCorruptFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seen.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s := OpenFileStore(path, logging.Discard())
	assert.Equal(t, 0, s.Len())

	s.Add("A")
	require.NoError(t, s.Flush())
	assert.Equal(t, []string{"A"}, OpenFileStore(path, logging.Discard()).IDs())
}

func TestFileStoreEmptyFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seen.json")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	assert.Equal(t, 0, OpenFileStore(path, logging.Discard()).Len())
}

func TestFileStoreUnwritableDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "seen.json")

	s := OpenFileStore(path, logging.Discard())
	s.Add("A")
	require.Error(t, s.Flush())
	assert.True(t, s.Contains("A"), "in-memory state survives a failed flush")
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore("A")
	assert.True(t, s.Contains("A"))
	assert.False(t, s.Contains("B"))
	s.Add("B")
	assert.True(t, s.Contains("B"))
	assert.Equal(t, 2, s.Len())
	assert.NoError(t, s.Flush())
}

func TestKeyPolicies(t *testing.T) {
	tests := []struct {
		policy string
		id     string
		want   string
	}{
		{PolicyExact, "http://arxiv.org/abs/2101.12345v1", "http://arxiv.org/abs/2101.12345v1"},
		{PolicyIgnoreVersion, "http://arxiv.org/abs/2101.12345v1", "http://arxiv.org/abs/2101.12345"},
		{PolicyIgnoreVersion, "http://arxiv.org/abs/2101.12345v12", "http://arxiv.org/abs/2101.12345"},
		{PolicyIgnoreVersion, "http://arxiv.org/abs/2101.12345", "http://arxiv.org/abs/2101.12345"},
		{PolicyIgnoreVersion, "http://arxiv.org/abs/hep-th/9901001v3", "http://arxiv.org/abs/hep-th/9901001"},
		{PolicyIgnoreVersion, "2101.12345v3", "2101.12345"},
		{PolicyIgnoreVersion, "https://example.org/models/conv12", "https://example.org/models/conv12"},
		{PolicyIgnoreVersion, "http://arxiv.org/abs/2101.123v2", "http://arxiv.org/abs/2101.123v2"},
		{"unknown", "id-v2", "id-v2"},
	}

	for _, tt := range tests {
		t.Run(tt.policy+"/"+tt.id, func(t *testing.T) {
			assert.Equal(t, tt.want, KeyFuncFor(tt.policy)(tt.id))
		})
	}
}
