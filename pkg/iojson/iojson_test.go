package iojson

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func TestWriteWith(t *testing.T) {
	var out, errOut bytes.Buffer
	require.NoError(t, WriteWith(&out, &errOut, payload{Kind: "info", Message: "hi"}))

	assert.Equal(t, "{\n  \"kind\": \"info\",\n  \"message\": \"hi\"\n}\n", out.String())
	assert.Empty(t, errOut.String())
}

func TestWriteWith_MarshalFailure(t *testing.T) {
	var out, errOut bytes.Buffer
	require.NoError(t, WriteWith(&out, &errOut, math.Inf(1)))

	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "json_error")
}

func TestWriteLine(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, WriteLine(&out, payload{Kind: "a", Message: "1"}))
	require.NoError(t, WriteLine(&out, payload{Kind: "b", Message: "2"}))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)

	var got payload
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &got))
	assert.Equal(t, payload{Kind: "b", Message: "2"}, got)

	require.Error(t, WriteLine(&out, math.NaN()))
}

func TestMarshalError(t *testing.T) {
	got := MarshalError("boom", map[string]any{"step": 3})
	assert.JSONEq(t, `{"message":"boom","data":{"step":3}}`, got)

	got = MarshalError("bad data", map[string]any{"x": math.Inf(1)})
	assert.Contains(t, got, `"message":"bad data"`)
	assert.Contains(t, got, "json_error")
}

func TestFileReader_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"kind":"error","message":"m"}`), 0o644))

	fr := &FileReader[payload]{fileFlagValue: path}
	assert.True(t, fr.IsSet())

	got, err := fr.Read()
	require.NoError(t, err)
	assert.Equal(t, payload{Kind: "error", Message: "m"}, got)
}

func TestFileReader_Stdin(t *testing.T) {
	fr := &FileReader[payload]{
		stdin:      strings.NewReader(`{"kind":"info","message":"piped"}`),
		stdinIsTTY: func() bool { return false },
	}
	assert.True(t, fr.Piped())

	got, err := fr.Read()
	require.NoError(t, err)
	assert.Equal(t, "piped", got.Message)
}

func TestFileReader_Errors(t *testing.T) {
	tty := &FileReader[payload]{stdinIsTTY: func() bool { return true }}
	_, err := tty.Read()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stdin is a terminal")

	unknown := &FileReader[payload]{
		stdin:      strings.NewReader(`{"kind":"info","colour":"red"}`),
		stdinIsTTY: func() bool { return false },
	}
	_, err = unknown.Read()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "colour")

	missing := &FileReader[payload]{fileFlagValue: filepath.Join(t.TempDir(), "nope.json")}
	_, err = missing.Read()
	require.ErrorIs(t, err, os.ErrNotExist)
}
