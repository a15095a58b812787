package auditlog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDir(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "plain.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	assert.Equal(t, dir, ResolveDir(dir))
	assert.Equal(t, ".", ResolveDir(filepath.Join(dir, "missing")))
	assert.Equal(t, ".", ResolveDir(file))
}

func TestLine(t *testing.T) {
	at := time.Unix(1700000000, 999)
	assert.Equal(t, "status=1 to=A code=deactivated time=1700000000\n", Line("A", at))
}

func TestFileSink_AppendsWithSharedTimestamp(t *testing.T) {
	dir := t.TempDir()
	sink := NewFileSink(dir)
	require.Equal(t, filepath.Join(dir, "subscribers.log"), sink.Path())

	at := time.Unix(1700000000, 0)
	require.NoError(t, sink.Append([]string{"a@example.com", "b@example.com"}, at))
	require.NoError(t, sink.Append([]string{"c@example.com"}, at.Add(time.Minute)))

	data, err := os.ReadFile(sink.Path())
	require.NoError(t, err)
	assert.Equal(t,
		"status=1 to=a@example.com code=deactivated time=1700000000\n"+
			"status=1 to=b@example.com code=deactivated time=1700000000\n"+
			"status=1 to=c@example.com code=deactivated time=1700000060\n",
		string(data))
}

func TestFileSink_EmptyDoesNotCreateFile(t *testing.T) {
	sink := NewFileSink(t.TempDir())
	require.NoError(t, sink.Append(nil, time.Now()))

	_, err := os.Stat(sink.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestFileSink_OpenFailure(t *testing.T) {
	sink := NewFileSink(filepath.Join(t.TempDir(), "no-such-dir"))
	assert.Error(t, sink.Append([]string{"a@example.com"}, time.Now()))
}
