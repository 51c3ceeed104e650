package generator

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tacogips/doxx/internal/errors"
	"github.com/tacogips/doxx/internal/template/model"
)

type countingRenderer struct {
	calls int
	out   string
	err   error
}

func (r *countingRenderer) Render(body string, _ map[string]string) (string, error) {
	r.calls++
	return r.out, r.err
}

func readFile(t *testing.T, fs afero.Fs, path string) string {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	return string(data)
}

func TestPlaceholderRenderer(t *testing.T) {
	r := NewRenderer()

	tests := []struct {
		name string
		body string
		want string
	}{
		{"single", "Hello {{name}}", "Hello Chris"},
		{"repeated", "{{name}} and {{name}}", "Chris and Chris"},
		{"unknown kept", "{{name}} {{missing}}", "Chris {{missing}}"},
		{"spaces are part of the tag", "{{ name }}", "{{ name }}"},
		{"no tags", "plain", "plain"},
		{"empty value", "[{{empty}}]", "[]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Render(tt.body, map[string]string{"name": "Chris", "empty": ""})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlaceholderRendererUnterminated(t *testing.T) {
	for _, body := range []string{"Hello {{name", "{{name}} then {{", "{{a {{b"} {
		_, err := NewRenderer().Render(body, map[string]string{"name": "x"})
		require.Error(t, err, body)
		assert.True(t, errors.IsErrorCode(err, errors.ErrRenderFailed), body)
	}
}

func TestRenderAndWriteUnterminatedWritesNothing(t *testing.T) {
	fs := afero.NewMemMapFs()
	g := New(NewRenderer(), NewFileWriter(fs, &sync.Mutex{}))

	tmpl := model.ResolvedTemplate{Location: "a.doxt", Body: "Hello {{name", OutputPath: "/k/a.txt"}
	err := g.RenderAndWrite(context.Background(), tmpl, map[string]string{"name": "Chris"}, false)

	assert.True(t, errors.IsErrorCode(err, errors.ErrRenderFailed))
	exists, _ := afero.Exists(fs, "/k/a.txt")
	assert.False(t, exists)
}

func TestRenderAndWriteCallsRendererOnce(t *testing.T) {
	fs := afero.NewMemMapFs()
	r := &countingRenderer{out: "rendered output"}
	g := New(r, NewFileWriter(fs, &sync.Mutex{}))

	tmpl := model.ResolvedTemplate{Location: "a.doxt", Body: "Hello {{name}}", OutputPath: "/k/a.txt"}
	require.NoError(t, g.RenderAndWrite(context.Background(), tmpl, map[string]string{"name": "Chris"}, false))

	assert.Equal(t, 1, r.calls)
	assert.Equal(t, "rendered output", readFile(t, fs, "/k/a.txt"))
}

func TestRenderAndWriteVerbatim(t *testing.T) {
	body := "RAW{{x}}RAW\r\n\ttrailing  "

	tests := []struct {
		name           string
		verbatim       bool
		noReplacements bool
	}{
		{"verbatim template", true, false},
		{"key without replacements", false, true},
		{"both", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			r := &countingRenderer{out: "should not be used"}
			g := New(r, NewFileWriter(fs, nil))

			tmpl := model.ResolvedTemplate{Body: body, Verbatim: tt.verbatim, OutputPath: "/out/raw.txt"}
			require.NoError(t, g.RenderAndWrite(context.Background(), tmpl, map[string]string{"x": "y"}, tt.noReplacements))

			assert.Zero(t, r.calls)
			assert.Equal(t, body, readFile(t, fs, "/out/raw.txt"))
		})
	}
}

func TestRenderAndWriteRenderFailure(t *testing.T) {
	fs := afero.NewMemMapFs()
	g := New(&countingRenderer{err: stderrors.New("boom")}, NewFileWriter(fs, nil))

	tmpl := model.ResolvedTemplate{Location: "a.doxt", Body: "Hello {{name}}", OutputPath: "/k/a.txt"}
	err := g.RenderAndWrite(context.Background(), tmpl, map[string]string{"name": "x"}, false)

	assert.True(t, errors.IsErrorCode(err, errors.ErrRenderFailed))
	exists, _ := afero.Exists(fs, "/k/a.txt")
	assert.False(t, exists, "nothing is written when rendering fails")
}

func TestRenderAndWriteIdempotent(t *testing.T) {
	fs := afero.NewMemMapFs()
	g := New(NewRenderer(), NewFileWriter(fs, nil))
	tmpl := model.ResolvedTemplate{Body: "Hello {{name}}", OutputPath: "/k/docs/a.txt"}
	values := map[string]string{"name": "Chris"}

	require.NoError(t, g.RenderAndWrite(context.Background(), tmpl, values, false))
	first := readFile(t, fs, "/k/docs/a.txt")
	require.NoError(t, g.RenderAndWrite(context.Background(), tmpl, values, false))

	assert.Equal(t, "Hello Chris", first)
	assert.Equal(t, first, readFile(t, fs, "/k/docs/a.txt"))
	tmpExists, _ := afero.Exists(fs, "/k/docs/a.txt.tmp")
	assert.False(t, tmpExists)
}

func TestRenderAndWriteCancelled(t *testing.T) {
	fs := afero.NewMemMapFs()
	g := New(NewRenderer(), NewFileWriter(fs, nil))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := g.RenderAndWrite(ctx, model.ResolvedTemplate{Body: "hello", OutputPath: "/a"}, nil, true)
	assert.True(t, errors.IsErrorCode(err, errors.ErrRenderFailed))
}

func TestFileWriterFailure(t *testing.T) {
	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())
	w := NewFileWriter(fs, nil)

	err := w.WriteFile("/k/a.txt", []byte("x"))
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrWriteFailed))
	assert.Equal(t, "/k/a.txt", errors.GetErrorDetails(err)["path"])
}
