package words

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_NormalizesAndFilters(t *testing.T) {
	s := New(map[int][]string{
		5: {" crane", "CRATE ", "crane", "cr4ne", "toolong", "abc"},
	})

	got, err := s.WordsOfLength(5)
	require.NoError(t, err)
	assert.Equal(t, []string{"CRANE", "CRATE"}, got)
	assert.True(t, s.IsValid("CRANE"))
	assert.False(t, s.IsValid("crane"), "validity is checked against normalized words")
}

func TestNew_PlaceholderForEmptyLengths(t *testing.T) {
	s := New(map[int][]string{5: {"crane"}})

	tests := []struct {
		length int
		want   []string
	}{
		{4, []string{"TEST"}},
		{6, []string{"ERRORS"}},
		{7, []string{"TESTING"}},
	}
	for _, tt := range tests {
		got, err := s.WordsOfLength(tt.length)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
		assert.Len(t, got[0], tt.length)
	}
}

func TestWordsOfLength_Unsupported(t *testing.T) {
	s := New(nil)
	for _, n := range []int{0, 3, 8, -1} {
		_, err := s.WordsOfLength(n)
		assert.ErrorIs(t, err, ErrUnsupportedLength)
	}
}

func TestPickRandom(t *testing.T) {
	s := New(map[int][]string{4: {"able", "acid", "aged"}})
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		w := s.PickRandom(4)
		require.Contains(t, []string{"ABLE", "ACID", "AGED"}, w)
		seen[w] = true
	}
	assert.Len(t, seen, 3, "every word should come up over 200 picks")
	assert.Empty(t, s.PickRandom(9))
}

func TestLoad_Embedded(t *testing.T) {
	s := Load("")
	for _, n := range SupportedLengths {
		list, err := s.WordsOfLength(n)
		require.NoError(t, err)
		assert.Greater(t, len(list), 100, "embedded %d-letter list", n)
	}
	assert.True(t, s.IsValid("CRANE"))
	assert.True(t, s.IsValid("CRATE"))
	assert.True(t, s.IsValid("SPEED"))
	assert.True(t, s.IsValid("ERASE"))
}

func TestLoad_DirectoryWithMissingAndCorruptFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "5-letter-words.json"), []byte(`["crane","crate"]`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "6-letter-words.json"), []byte(`not json`), 0o644))

	s := Load(dir)

	five, _ := s.WordsOfLength(5)
	assert.Equal(t, []string{"CRANE", "CRATE"}, five)
	six, _ := s.WordsOfLength(6)
	assert.Equal(t, []string{"ERRORS"}, six)
	four, _ := s.WordsOfLength(4)
	assert.Equal(t, []string{"TEST"}, four)
	assert.Equal(t, map[int]int{4: 1, 5: 2, 6: 1, 7: 1}, s.Stats())
}
