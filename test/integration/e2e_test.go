package integration

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/tacogips/doxx/internal/app"
	"github.com/tacogips/doxx/internal/config"
)

// TestE2E_MultiTemplateKit builds every template of the license kit fixture
func TestE2E_MultiTemplateKit(t *testing.T) {
	kit := copyFixtureToTemp(t, "license-kit", t.TempDir())

	if err := runBuild(t, config.DefaultConfig(), filepath.Join(kit, "key.yaml")); err != nil {
		t.Fatalf("build failed: %v", err)
	}

	license := readFile(t, filepath.Join(kit, "LICENSE"))
	if !strings.Contains(license, "Copyright (c) 2015 Chris Simpkins") {
		t.Errorf("LICENSE not rendered:\n%s", license)
	}
	if !strings.Contains(license, "of kitchen and") {
		t.Errorf("LICENSE missing project name:\n%s", license)
	}

	readme := readFile(t, filepath.Join(kit, "docs", "README.md"))
	want := "# kitchen\n\nMaintained by Chris Simpkins. See {{unknown}} for details.\n"
	if readme != want {
		t.Errorf("README.md = %q, want %q", readme, want)
	}

	makefile := readFile(t, filepath.Join(kit, "Makefile"))
	if makefile != "build:\n\techo {{not a placeholder}}\n" {
		t.Errorf("verbatim Makefile changed: %q", makefile)
	}
}

// TestE2E_BuildIsRepeatable runs the same build twice
func TestE2E_BuildIsRepeatable(t *testing.T) {
	kit := copyFixtureToTemp(t, "license-kit", t.TempDir())
	keyPath := filepath.Join(kit, "key.yaml")

	if err := runBuild(t, config.DefaultConfig(), keyPath); err != nil {
		t.Fatalf("first build failed: %v", err)
	}
	first := readFile(t, filepath.Join(kit, "LICENSE"))

	if err := runBuild(t, config.DefaultConfig(), keyPath); err != nil {
		t.Fatalf("second build failed: %v", err)
	}
	if second := readFile(t, filepath.Join(kit, "LICENSE")); second != first {
		t.Errorf("second build differs:\n%s\nvs\n%s", first, second)
	}
}

// TestE2E_ProjectArchiveWorkflow packs the site fixture, then builds it as
// a project archive with caller replacements
func TestE2E_ProjectArchiveWorkflow(t *testing.T) {
	tempDir := t.TempDir()
	site := copyFixtureToTemp(t, "site", tempDir)
	fs := afero.NewOsFs()

	archivePath, err := app.PackArchive(fs, site, false)
	if err != nil {
		t.Fatalf("pack failed: %v", err)
	}
	if err := os.RemoveAll(site); err != nil {
		t.Fatalf("failed to remove source: %v", err)
	}

	keyPath := filepath.Join(tempDir, "key.yaml")
	writeFile(t, keyPath, "---\nproject: "+filepath.Base(archivePath)+"\n---\ntitle: Home Page\n")

	if err := runBuild(t, config.DefaultConfig(), keyPath); err != nil {
		t.Fatalf("build failed: %v", err)
	}

	index := readFile(t, filepath.Join(site, "index.html"))
	if index != `<html lang="en"><title>Home Page</title></html>`+"\n" {
		t.Errorf("index.html = %q", index)
	}
	about := readFile(t, filepath.Join(site, "pages", "about.html"))
	if about != "<p>About Home Page</p>\n" {
		t.Errorf("about.html = %q", about)
	}
	if _, err := os.Stat(filepath.Join(site, "style.css")); err != nil {
		t.Errorf("static file missing: %v", err)
	}
	if _, err := os.Stat(archivePath); !os.IsNotExist(err) {
		t.Errorf("archive should be removed after unpacking, stat err = %v", err)
	}
}

// TestE2E_RemoteSources serves a template and an auxiliary text file over
// HTTP
func TestE2E_RemoteSources(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/templates/notice.doxt":
			w.Write([]byte("---doxx---\nextension: txt\n---doxx---\nNotice for {{name}}\n"))
		case "/files/CHANGELOG":
			w.Write([]byte("v1.0.0\n"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	dir := t.TempDir()
	keyPath := filepath.Join(dir, "key.yaml")
	writeFile(t, keyPath, "---\n"+
		"template: "+srv.URL+"/templates/notice.doxt\n"+
		"textfiles:\n  CHANGELOG: "+srv.URL+"/files/CHANGELOG\n"+
		"---\nname: doxx\n")

	if err := runBuild(t, config.DefaultConfig(), keyPath); err != nil {
		t.Fatalf("build failed: %v", err)
	}

	if got := readFile(t, filepath.Join(dir, "notice.txt")); got != "Notice for doxx\n" {
		t.Errorf("notice.txt = %q", got)
	}
	if got := readFile(t, filepath.Join(dir, "CHANGELOG")); got != "v1.0.0\n" {
		t.Errorf("CHANGELOG = %q", got)
	}
}

// TestE2E_CleanAfterBuild removes key and templates but keeps built files
func TestE2E_CleanAfterBuild(t *testing.T) {
	kit := copyFixtureToTemp(t, "license-kit", t.TempDir())
	if err := runBuild(t, config.DefaultConfig(), filepath.Join(kit, "key.yaml")); err != nil {
		t.Fatalf("build failed: %v", err)
	}

	result, err := app.Clean(afero.NewOsFs(), kit)
	if err != nil {
		t.Fatalf("clean failed: %v", err)
	}
	if len(result.Removed) != 5 {
		t.Errorf("removed %v, want key.yaml, three templates and the templates directory", result.Removed)
	}
	if _, err := os.Stat(filepath.Join(kit, "LICENSE")); err != nil {
		t.Errorf("built file removed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(kit, "templates")); !os.IsNotExist(err) {
		t.Errorf("templates directory should be removed, stat err = %v", err)
	}
}
