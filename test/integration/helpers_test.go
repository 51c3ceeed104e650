package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"

	"github.com/tacogips/doxx/internal/app"
	"github.com/tacogips/doxx/internal/config"
	"github.com/tacogips/doxx/internal/key"
	"github.com/tacogips/doxx/internal/remote"
)

// copyFixtureToTemp copies a fixture directory into tempDir and returns the
// path of the copy.
func copyFixtureToTemp(t *testing.T, fixtureName, tempDir string) string {
	t.Helper()

	fixtureDir, err := filepath.Abs(filepath.Join("../fixtures", fixtureName))
	if err != nil {
		t.Fatalf("failed to get fixture path: %v", err)
	}

	destDir := filepath.Join(tempDir, fixtureName)
	err = filepath.Walk(fixtureDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		relPath, err := filepath.Rel(fixtureDir, path)
		if err != nil {
			return err
		}
		destPath := filepath.Join(destDir, relPath)

		if info.IsDir() {
			return os.MkdirAll(destPath, 0755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(destPath, data, 0644)
	})
	if err != nil {
		t.Fatalf("failed to copy fixture: %v", err)
	}
	return destDir
}

// runBuild parses keyPath from disk and builds it with the real remote
// client.
func runBuild(t *testing.T, cfg *config.Config, keyPath string) error {
	t.Helper()
	fs := afero.NewOsFs()

	k, err := key.Parse(fs, keyPath)
	if err != nil {
		t.Fatalf("failed to parse key %s: %v", keyPath, err)
	}

	builder := app.NewBuilder(app.BuilderOptions{
		FS:      fs,
		Config:  cfg,
		Fetcher: remote.NewClient(cfg, fs),
	})
	return builder.Run(context.Background(), k)
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}
