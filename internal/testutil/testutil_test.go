package testutil

import (
	"encoding/csv"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/readingwrapped/internal/config"
)

func TestTestEnv_PathStaysInSandbox(t *testing.T) {
	env := NewTestEnv(t)

	path := env.Path("subdir", "file.txt")
	assert.True(t, strings.HasPrefix(path, env.RootDir()))
	assert.Equal(t, env.RootDir(), env.Path())
	assert.Equal(t, filepath.Join(env.RootDir(), "a"), env.Path("a", "b", ".."))
}

func TestTestEnv_WriteReadList(t *testing.T) {
	env := NewTestEnv(t)

	abs := env.WriteFileString("out/b.txt", "beta")
	env.WriteFileString("out/a.txt", "alpha")

	assert.Equal(t, env.Path("out", "b.txt"), abs)
	assert.Equal(t, "beta", string(env.ReadFile("out/b.txt")))
	assert.True(t, env.FileExists("out/a.txt"))
	assert.False(t, env.FileExists("out/c.txt"))
	assert.Equal(t, []string{"a.txt", "b.txt"}, env.ListFiles("out"))
	assert.Empty(t, env.ListFiles("missing"))
}

func TestGoodreadsCSV(t *testing.T) {
	content := GoodreadsCSV(
		GoodreadsRow{Title: "Dune", Author: "Frank Herbert", ISBN13: "9780441013593", DateRead: "2024/03/01"},
		GoodreadsRow{Title: "Emma", ExclusiveShelf: "to-read"},
	)

	records, err := csv.NewReader(strings.NewReader(content)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, GoodreadsHeader, records[0])
	assert.Equal(t, "Dune", records[1][1])
	assert.Equal(t, `="9780441013593"`, records[1][6])
	assert.Equal(t, "read", records[1][18])
	assert.Equal(t, "to-read", records[2][18])
	assert.Equal(t, "0", records[2][7])
}

func TestResetConfig(t *testing.T) {
	config.GoogleBooksAPIKey = "before"
	t.Cleanup(func() { config.GoogleBooksAPIKey = "" })

	t.Run("inner", func(t *testing.T) {
		ResetConfig(t)
		config.GoogleBooksAPIKey = "changed"
		SetViperValue(t, "server.addr", ":9999")

		assert.Equal(t, ":9999", viper.GetString("server.addr"))
		assert.Equal(t, 3, viper.GetInt("covers.max_attempts"))
	})

	assert.Equal(t, "before", config.GoogleBooksAPIKey)
	assert.False(t, viper.IsSet("server.addr"))
}

func TestNewIPv4Server(t *testing.T) {
	server := NewIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "ok")
	}))

	assert.True(t, strings.HasPrefix(server.URL, "http://127.0.0.1:"))

	resp, err := server.Client().Get(server.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "ok", string(body))
}

func TestTestEnv_Chdir(t *testing.T) {
	env := NewTestEnv(t)
	env.WriteFileString("work/config.yaml", "debug: true\n")

	env.Chdir("work")

	_, err := os.Stat("config.yaml")
	assert.NoError(t, err)
}
