package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadDocumentTextPlain(t *testing.T) {
	path := writeFile(t, "note.txt", "plain text content")

	assert.Equal(t, "plain text content", ReadDocumentText(path, "text/plain"))
}

func TestReadDocumentTextMissingFile(t *testing.T) {
	assert.Equal(t, "", ReadDocumentText(filepath.Join(t.TempDir(), "missing.txt"), "text/plain"))
}

func TestReadDocumentTextHTMLStripsMarkup(t *testing.T) {
	html := `<html><head><style>body{color:red}</style></head><body><h1>Title</h1><p>Alice  met <b>Bob</b>.</p><script>alert(1)</script></body></html>`
	path := writeFile(t, "page.html", html)

	text := ReadDocumentText(path, "text/html")

	assert.Equal(t, "Title Alice met Bob.", text)
	assert.NotContains(t, text, "alert")
	assert.NotContains(t, text, "color:red")
}

func TestReadDocumentTextHTMLByExtension(t *testing.T) {
	path := writeFile(t, "page.htm", "<p>hello</p>")

	assert.Equal(t, "hello", ReadDocumentText(path, ""))
}

func TestReadDocumentTextReplacesInvalidUTF8(t *testing.T) {
	path := filepath.Join(t.TempDir(), "binary.txt")
	require.NoError(t, os.WriteFile(path, []byte{'o', 'k', 0xff, '!'}, 0o644))

	text := ReadDocumentText(path, "text/plain")

	assert.Contains(t, text, "ok")
	assert.Contains(t, text, "!")
	assert.Contains(t, text, "�")
}

func TestReadDocumentTextHTMLSeparatesBlocks(t *testing.T) {
	path := writeFile(t, "page.html", "<h1>Title</h1><p>Alice met Bob.</p><div>Apollo<ul><li>one</li><li>two</li></ul></div>")

	text := ReadDocumentText(path, "text/html")

	assert.Equal(t, "Title Alice met Bob. Apollo one two", text)
}

func TestReadDocumentTextHTMLKeepsInlineElementsGlued(t *testing.T) {
	path := writeFile(t, "page.html", "<p>The <em>Apollo</em> program, <strong>nineteen</strong>sixty-nine.</p>")

	text := ReadDocumentText(path, "text/html")

	assert.Equal(t, "The Apollo program, nineteensixty-nine.", text)
}
