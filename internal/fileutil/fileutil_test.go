package fileutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/readingwrapped/internal/testutil"
)

func TestSanitizeFilename(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "normal text", input: "Normal Text", expected: "Normal Text"},
		{name: "text with colon", input: "Title: Subtitle", expected: "Title - Subtitle"},
		{name: "text with slash", input: "Title/Subtitle", expected: "Title-Subtitle"},
		{name: "text with backslash", input: "Title\\Subtitle", expected: "Title-Subtitle"},
		{name: "question and quotes", input: `Who "Really" Wrote It?`, expected: "Who Really Wrote It"},
		{name: "isbn", input: "9780141439518", expected: "9780141439518"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, SanitizeFilename(tc.input))
		})
	}
}

func TestFileExists(t *testing.T) {
	env := testutil.NewTestEnv(t)
	path := env.WriteFileString("present.txt", "x")
	env.WriteFileString("dir/inner.txt", "x")

	assert.True(t, FileExists(path))
	assert.False(t, FileExists(env.Path("absent.txt")))
	assert.False(t, FileExists(env.Path("dir")))
}

func TestWriteFileWithOverwrite(t *testing.T) {
	env := testutil.NewTestEnv(t)
	path := env.Path("nested", "report.json")

	written, err := WriteFileWithOverwrite(path, []byte("first"), 0o644, false)
	require.NoError(t, err)
	assert.True(t, written)

	written, err = WriteFileWithOverwrite(path, []byte("second"), 0o644, false)
	require.NoError(t, err)
	assert.False(t, written)
	assert.Equal(t, "first", string(env.ReadFile(filepath.Join("nested", "report.json"))))

	written, err = WriteFileWithOverwrite(path, []byte("third"), 0o644, true)
	require.NoError(t, err)
	assert.True(t, written)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "third", string(content))
}
