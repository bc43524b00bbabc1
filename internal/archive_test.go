package internal

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/iksnae/scratch-cli/testutil"
)

func TestSanitizeTitle(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"plain", "Maze Runner", "Maze Runner"},
		{"punctuation stripped", "My Game! (v2.0)", "My Game v20"},
		{"slashes stripped", "a/b\\c", "abc"},
		{"hyphen underscore kept", "space_cat-3", "space_cat-3"},
		{"surrounding space trimmed", "  trimmed  ", "trimmed"},
		{"unicode letters kept", "héllo wörld", "héllo wörld"},
		{"only punctuation", "!!!???", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeTitle(tt.title)
			if got != tt.want {
				t.Errorf("SanitizeTitle(%q) = %q, want %q", tt.title, got, tt.want)
			}
			if again := SanitizeTitle(got); again != got {
				t.Errorf("SanitizeTitle is not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func newTestBuilder(t *testing.T, f *testutil.FakePlatform) (*ArchiveBuilder, *Client) {
	t.Helper()
	client := newTestClient(t, f)
	client.SetSession(platformSession(f))
	builder := NewArchiveBuilder(client)
	builder.SetProgress(nil)
	return builder, client
}

func archiveEntries(t *testing.T, path string) map[string][]byte {
	t.Helper()
	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("zip.OpenReader(%s) error = %v", path, err)
	}
	defer zr.Close()

	entries := make(map[string][]byte)
	for _, zf := range zr.File {
		rc, err := zf.Open()
		if err != nil {
			t.Fatalf("failed to open entry %s: %v", zf.Name, err)
		}
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(rc); err != nil {
			t.Fatalf("failed to read entry %s: %v", zf.Name, err)
		}
		rc.Close()
		entries[zf.Name] = buf.Bytes()
	}
	return entries
}

func TestArchiveBuilder_FetchDefinition(t *testing.T) {
	f := testutil.NewFakePlatform(t)
	f.AddProject(101, "Maze Runner", minimalDefinition())
	builder, _ := newTestBuilder(t, f)
	outDir := t.TempDir()

	path, err := builder.FetchDefinition(context.Background(), 101, outDir)
	if err != nil {
		t.Fatalf("FetchDefinition() error = %v", err)
	}
	if filepath.Base(path) != "Maze Runner_101.json" {
		t.Errorf("path = %s, want Maze Runner_101.json", filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !bytes.Equal(data, minimalDefinition()) {
		t.Errorf("written definition differs from the fetched document")
	}
}

func TestArchiveBuilder_FetchDefinition_NoMetadata(t *testing.T) {
	f := testutil.NewFakePlatform(t)
	f.AddProject(101, "Maze Runner", minimalDefinition())
	delete(f.Metadata, 101)
	builder, _ := newTestBuilder(t, f)
	outDir := t.TempDir()

	path, err := builder.FetchDefinition(context.Background(), 101, outDir)
	if err != nil {
		t.Fatalf("FetchDefinition() error = %v", err)
	}
	if filepath.Base(path) != "project_101.json" {
		t.Errorf("path = %s, want the synthetic project_101.json", filepath.Base(path))
	}
}

func TestArchiveBuilder_FetchArchive(t *testing.T) {
	f := testutil.NewFakePlatform(t)
	f.AddProject(101, "Maze Runner", minimalDefinition())
	f.Assets["abc123.svg"] = []byte("<svg/>")
	f.Assets["def456.wav"] = []byte("RIFFdata")
	builder, _ := newTestBuilder(t, f)
	outDir := t.TempDir()

	path, err := builder.FetchArchive(context.Background(), 101, outDir)
	if err != nil {
		t.Fatalf("FetchArchive() error = %v", err)
	}
	if filepath.Base(path) != "Maze Runner_101.sb3" {
		t.Errorf("path = %s, want Maze Runner_101.sb3", filepath.Base(path))
	}

	entries := archiveEntries(t, path)
	// The duplicated costume collapses: definition plus two unique assets
	if len(entries) != 3 {
		names := make([]string, 0, len(entries))
		for name := range entries {
			names = append(names, name)
		}
		sort.Strings(names)
		t.Fatalf("container has %d entries %v, want 3", len(entries), names)
	}
	if !bytes.Equal(entries["project.json"], minimalDefinition()) {
		t.Errorf("project.json differs from the fetched document")
	}
	if !bytes.Equal(entries["abc123.svg"], []byte("<svg/>")) {
		t.Errorf("abc123.svg = %q, want the stored asset", entries["abc123.svg"])
	}
	if !bytes.Equal(entries["def456.wav"], []byte("RIFFdata")) {
		t.Errorf("def456.wav = %q, want the stored asset", entries["def456.wav"])
	}

	// Deduplication holds at the network level too
	if hits := f.AssetHits("abc123.svg"); hits != 1 {
		t.Errorf("abc123.svg fetched %d times, want 1", hits)
	}
}

func TestArchiveBuilder_FetchArchive_PartialAssetFailure(t *testing.T) {
	f := testutil.NewFakePlatform(t)
	f.AddProject(101, "Maze Runner", minimalDefinition())
	f.Assets["abc123.svg"] = []byte("<svg/>")
	f.FailAssets["def456.wav"] = 404
	builder, _ := newTestBuilder(t, f)
	outDir := t.TempDir()

	path, err := builder.FetchArchive(context.Background(), 101, outDir)
	if err != nil {
		t.Fatalf("FetchArchive() error = %v, want nil despite the failed asset", err)
	}

	entries := archiveEntries(t, path)
	if len(entries) != 2 {
		t.Fatalf("container has %d entries, want 2 (definition plus the one good asset)", len(entries))
	}
	if _, ok := entries["def456.wav"]; ok {
		t.Error("container contains the failed asset")
	}

	// HTTP-status failures are final; no retry should happen
	if hits := f.AssetHits("def456.wav"); hits != 1 {
		t.Errorf("def456.wav fetched %d times, want 1", hits)
	}
}

func TestArchiveBuilder_FetchArchive_NotFound(t *testing.T) {
	f := testutil.NewFakePlatform(t)
	builder, _ := newTestBuilder(t, f)

	_, err := builder.FetchArchive(context.Background(), 999, t.TempDir())

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("FetchArchive() error = %v, want *FetchError", err)
	}
	if fetchErr.Kind != FetchNotFound {
		t.Errorf("FetchError.Kind = %v, want FetchNotFound", fetchErr.Kind)
	}
}

func TestArchiveBuilder_FetchArchive_MalformedDefinition(t *testing.T) {
	f := testutil.NewFakePlatform(t)
	f.AddProject(101, "Broken", []byte("not json"))
	builder, _ := newTestBuilder(t, f)
	outDir := t.TempDir()

	_, err := builder.FetchArchive(context.Background(), 101, outDir)

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("FetchArchive() error = %v, want *FetchError", err)
	}
	if fetchErr.Kind != FetchParse {
		t.Errorf("FetchError.Kind = %v, want FetchParse", fetchErr.Kind)
	}

	// No partial output file may survive a failed build
	matches, _ := filepath.Glob(filepath.Join(outDir, "*.sb3"))
	if len(matches) != 0 {
		t.Errorf("failed build left files behind: %v", matches)
	}
}

func TestArchiveBuilder_FetchArchive_Sequential(t *testing.T) {
	f := testutil.NewFakePlatform(t)
	f.AddProject(101, "Maze Runner", minimalDefinition())
	f.Assets["abc123.svg"] = []byte("<svg/>")
	f.Assets["def456.wav"] = []byte("RIFFdata")
	builder, _ := newTestBuilder(t, f)
	builder.SetWorkers(1)

	path, err := builder.FetchArchive(context.Background(), 101, t.TempDir())
	if err != nil {
		t.Fatalf("FetchArchive() error = %v", err)
	}
	if entries := archiveEntries(t, path); len(entries) != 3 {
		t.Errorf("container has %d entries, want 3", len(entries))
	}
}

func TestArchiveBuilder_FetchAll(t *testing.T) {
	f := testutil.NewFakePlatform(t)
	f.AddProject(101, "Good One", minimalDefinition())
	f.AddProject(102, "Broken", []byte("not json"))
	f.AddProject(103, "Another", minimalDefinition())
	f.Assets["abc123.svg"] = []byte("<svg/>")
	f.Assets["def456.wav"] = []byte("RIFFdata")
	builder, _ := newTestBuilder(t, f)
	outDir := t.TempDir()

	fetched, err := builder.FetchAll(context.Background(), outDir, false)
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}
	if fetched != 2 {
		t.Errorf("FetchAll() = %d, want 2 (the broken project is skipped)", fetched)
	}

	matches, _ := filepath.Glob(filepath.Join(outDir, "*.sb3"))
	if len(matches) != 2 {
		t.Errorf("output dir has %d archives %v, want 2", len(matches), matches)
	}
}

func TestArchiveBuilder_FetchAll_DefinitionsOnly(t *testing.T) {
	f := testutil.NewFakePlatform(t)
	f.AddProject(101, "Good One", minimalDefinition())
	builder, _ := newTestBuilder(t, f)
	outDir := t.TempDir()

	fetched, err := builder.FetchAll(context.Background(), outDir, true)
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}
	if fetched != 1 {
		t.Errorf("FetchAll() = %d, want 1", fetched)
	}

	matches, _ := filepath.Glob(filepath.Join(outDir, "*.json"))
	if len(matches) != 1 {
		t.Errorf("output dir has %d definitions %v, want 1", len(matches), matches)
	}
}
