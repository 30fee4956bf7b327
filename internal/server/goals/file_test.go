package goals

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dmitrijs2005/goalkeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_MissingDocumentIsEmpty(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	got, err := s.Load(context.Background(), "alice.json")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestFileStore_SaveLoad(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	in := []Goal{
		{Name: "a", Deadline: "2024-01-01T10:00", Reminders: "do a"},
		{Name: "b", ReminderSent: true},
	}
	require.NoError(t, s.Save(context.Background(), "alice.json", in))

	raw, err := os.ReadFile(filepath.Join(dir, "alice.json"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "[\n    {"), "document is indented by four spaces")

	got, err := s.Load(context.Background(), "alice.json")
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestFileStore_SaveCreatesSubdirectories(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, s.Save(context.Background(), "users/bob.json", []Goal{{Name: "x"}}))
	_, err = os.Stat(filepath.Join(dir, "users", "bob.json"))
	require.NoError(t, err)
}

func TestFileStore_EmptyFileIsEmptyList(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "e.json"), []byte("  \n"), 0o644))
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	got, err := s.Load(context.Background(), "e.json")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFileStore_CorruptDocument(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{not json"), 0o644))
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	_, err = s.Load(context.Background(), "bad.json")
	require.ErrorIs(t, err, common.ErrorStoreIO)
}

func TestFileStore_RejectsEscapingPathway(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	for _, p := range []string{"", "../x.json", "/etc/passwd"} {
		_, err := s.Load(context.Background(), p)
		assert.ErrorIs(t, err, ErrInvalidPathway, p)
		assert.ErrorIs(t, s.Save(context.Background(), p, nil), ErrInvalidPathway, p)
	}
}

func TestFileStore_Locate(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "alice.json"), s.Locate("alice.json"))
}
