package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/reoring/typedstruct/schemafile"
)

const testSchemas = `schemas:
  - name: Child
    fields:
      - {name: n, type: int}
  - name: Parent
    fields:
      - {name: title, type: string}
      - {name: kids, type: "[Child]"}
`

type result struct {
	stdout string
	stderr string
	err    error
}

func run(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(append([]string{"--env-file", writeFile(t, "test.env", "")}, args...))
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.Execute()
	return result{stdout: out.String(), stderr: errOut.String(), err: err}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestConvert_JSONToYAML(t *testing.T) {
	schemas := writeFile(t, "schemas.yaml", testSchemas)
	doc := writeFile(t, "doc.json", `{"title":"t","kids":[{"n":1},{"n":2}],"extra":true}`)

	res := run(t, "", "convert", "--schemas", schemas, "--type", "Parent", "--to", "yaml", doc)
	require.NoError(t, res.err, res.stderr)

	var got map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(res.stdout), &got))
	assert.Equal(t, map[string]any{
		"title": "t",
		"kids":  []any{map[string]any{"n": 1}, map[string]any{"n": 2}},
	}, got)
}

func TestConvert_StdinYAMLToJSON(t *testing.T) {
	schemas := writeFile(t, "schemas.yaml", testSchemas)

	res := run(t, "- n: 1\n- n: 2\n", "convert", "--schemas", schemas, "--type", "Child", "--list", "--from", "yaml", "-")
	require.NoError(t, res.err, res.stderr)
	assert.Equal(t, `[{"n":1},{"n":2}]`+"\n", res.stdout)
}

func TestConvert_Errors(t *testing.T) {
	schemas := writeFile(t, "schemas.yaml", testSchemas)

	t.Run("unknown schema", func(t *testing.T) {
		res := run(t, "{}", "convert", "--schemas", schemas, "--type", "Nope")
		require.Error(t, res.err)
		assert.Contains(t, res.stderr, "Nope")
		assert.Contains(t, res.stderr, "load schemas")
	})
	t.Run("bad format", func(t *testing.T) {
		res := run(t, "{}", "convert", "--schemas", schemas, "--type", "Child", "--to", "xml")
		require.Error(t, res.err)
		assert.Contains(t, res.err.Error(), "unknown format")
	})
	t.Run("missing flag", func(t *testing.T) {
		res := run(t, "{}", "convert", "--type", "Child")
		require.Error(t, res.err)
		var reported *reportedError
		assert.False(t, errors.As(res.err, &reported))
	})
	t.Run("undetectable extension", func(t *testing.T) {
		doc := writeFile(t, "doc.txt", "{}")
		res := run(t, "", "convert", "--schemas", schemas, "--type", "Child", doc)
		assert.ErrorContains(t, res.err, "pass --from")
	})
}

func TestValidate(t *testing.T) {
	schemas := writeFile(t, "schemas.yaml", testSchemas)

	t.Run("valid", func(t *testing.T) {
		doc := writeFile(t, "doc.yaml", "title: ok\nkids:\n  - n: 3\n")
		res := run(t, "", "validate", "--schemas", schemas, "--type", "Parent", doc)
		require.NoError(t, res.err, res.stderr)
		assert.Contains(t, res.stderr, "document is valid")
		assert.Empty(t, res.stdout)
	})
	t.Run("type mismatch", func(t *testing.T) {
		doc := writeFile(t, "doc.json", `{"title":"ok","kids":[{"n":"three"}]}`)
		res := run(t, "", "validate", "--schemas", schemas, "--type", "Parent", doc)
		require.Error(t, res.err)
		var reported *reportedError
		require.ErrorAs(t, res.err, &reported)
		assert.Contains(t, res.stderr, "type_mismatch")
		assert.Contains(t, res.stderr, "invalid document")
	})
	t.Run("syntax error reports line", func(t *testing.T) {
		doc := writeFile(t, "doc.yaml", "title: ok\nkids: [\n")
		res := run(t, "", "validate", "--schemas", schemas, "--type", "Parent", doc)
		require.Error(t, res.err)
		assert.Contains(t, res.stderr, "line")
	})
	t.Run("unknown keys rejected by config", func(t *testing.T) {
		t.Setenv("TYPEDSTRUCT_UNKNOWN_KEYS", "reject")
		doc := writeFile(t, "doc.json", `{"title":"ok","extra":1}`)

		res := run(t, "", "validate", "--schemas", schemas, "--type", "Parent", doc)
		require.Error(t, res.err)
		assert.Contains(t, res.stderr, "unknown_key")
	})
}

func TestStream(t *testing.T) {
	schemas := writeFile(t, "schemas.yaml", testSchemas)
	input := "title: a\nkids: []\n---\nn: 2\n"

	t.Run("json lines", func(t *testing.T) {
		res := run(t, input, "stream", "--schemas", schemas, "--types", "Parent, Child")
		require.NoError(t, res.err, res.stderr)
		assert.Equal(t, `{"title":"a","kids":[]}`+"\n"+`{"n":2}`+"\n", res.stdout)
	})
	t.Run("yaml", func(t *testing.T) {
		res := run(t, input, "stream", "--schemas", schemas, "--types", "Parent,Child", "--to", "yaml")
		require.NoError(t, res.err, res.stderr)
		assert.Equal(t, "title: a\nkids: []\n---\nn: 2\n", res.stdout)
	})
	t.Run("count mismatch", func(t *testing.T) {
		res := run(t, input, "stream", "--schemas", schemas, "--types", "Parent")
		require.Error(t, res.err)
		assert.Contains(t, res.stderr, "decode stream")
	})
	t.Run("unknown keys rejected by config", func(t *testing.T) {
		t.Setenv("TYPEDSTRUCT_UNKNOWN_KEYS", "reject")
		res := run(t, input+"color: red\n", "stream", "--schemas", schemas, "--types", "Parent,Child")
		require.Error(t, res.err)
		assert.Contains(t, res.stderr, "unknown_key")
	})
	t.Run("duplicate keys ignored by config", func(t *testing.T) {
		t.Setenv("TYPEDSTRUCT_DUPLICATE_KEYS", "ignore")
		res := run(t, input+"n: 3\n", "stream", "--schemas", schemas, "--types", "Parent,Child")
		require.NoError(t, res.err, res.stderr)
		assert.Equal(t, `{"title":"a","kids":[]}`+"\n"+`{"n":3}`+"\n", res.stdout)
	})
}

func TestSchema_PrintsCanonicalForm(t *testing.T) {
	schemas := writeFile(t, "schemas.json", `{"schemas":[{"name":"Child","fields":[{"name":"n","type":"int"}]}]}`)

	res := run(t, "", "schema", "--schemas", schemas)
	require.NoError(t, res.err, res.stderr)

	reg, err := schemafile.Load([]byte(res.stdout))
	require.NoError(t, err)
	s, ok := reg.Lookup("Child")
	require.True(t, ok)
	assert.Equal(t, 1, s.NumFields())
}

func TestInvalidLogLevel(t *testing.T) {
	res := run(t, "", "--log-level", "loud", "schema", "--schemas", "unused.yaml")
	require.Error(t, res.err)
	assert.ErrorContains(t, res.err, "TYPEDSTRUCT_LOG_LEVEL")
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	schemas := writeFile(t, "schemas.yaml", testSchemas)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--env-file", writeFile(t, "test.env", ""), "serve", "--schemas", schemas, "--addr", "127.0.0.1:0"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&errOut)

	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
		assert.Contains(t, errOut.String(), "shutting down http server")
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop")
	}
}
