package internal

import (
	"archive/zip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/klauspost/compress/flate"
	"golang.org/x/sync/errgroup"
)

const (
	// definitionEntryName is the fixed container entry holding the raw
	// project document
	definitionEntryName = "project.json"

	// progressInterval is how many assets pass between progress reports
	progressInterval = 10

	// bulkListLimit caps the public-listing fallback during bulk mode
	bulkListLimit = 100

	// assetRetryDelay is the pause before the single transport-error retry
	assetRetryDelay = 500 * time.Millisecond
)

// ArchiveBuilder assembles downloadable project files: either the raw
// definition alone or a full container with every resolvable asset.
type ArchiveBuilder struct {
	client   *Client
	resolver *AssetResolver
	workers  int
	progress ProgressFunc
}

// NewArchiveBuilder creates a builder using the client's configured
// worker count and the default progress reporter.
func NewArchiveBuilder(client *Client) *ArchiveBuilder {
	return &ArchiveBuilder{
		client:   client,
		resolver: NewAssetResolver(),
		workers:  client.cfg.AssetWorkers,
		progress: LogProgress,
	}
}

// SetWorkers overrides the asset fetch concurrency. 1 is strictly
// sequential.
func (b *ArchiveBuilder) SetWorkers(n int) {
	if n > 0 {
		b.workers = n
	}
}

// SetProgress replaces the progress reporter. A nil reporter disables
// reporting.
func (b *ArchiveBuilder) SetProgress(fn ProgressFunc) {
	b.progress = fn
}

// SanitizeTitle strips every rune that is not a letter, digit, space,
// hyphen, or underscore, then trims surrounding whitespace.
func SanitizeTitle(title string) string {
	var sb strings.Builder
	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			sb.WriteRune(r)
		}
	}
	return strings.TrimSpace(sb.String())
}

// syntheticTitle is the fallback name for projects whose metadata is
// unavailable or whose title sanitizes to nothing.
func syntheticTitle(projectID int64) string {
	return fmt.Sprintf("project_%d", projectID)
}

// safeFilename builds "<safe-title>_<id><ext>" inside outDir.
func safeFilename(outDir, title string, projectID int64, ext string) string {
	safe := SanitizeTitle(title)
	if safe == "" {
		safe = syntheticTitle(projectID)
	}
	return filepath.Join(outDir, fmt.Sprintf("%s_%d%s", safe, projectID, ext))
}

// metadataOrFallback resolves the project title and access token. A
// metadata failure is not fatal: own unpublished projects often have no
// public metadata, so the build continues with a synthetic title and the
// session-header fallback.
func (b *ArchiveBuilder) metadataOrFallback(ctx context.Context, projectID int64) (string, string) {
	meta, err := b.client.ProjectMetadata(ctx, projectID)
	if err != nil {
		LogDebug("Metadata for project %d unavailable (%v); using synthetic title", projectID, err)
		return syntheticTitle(projectID), ""
	}
	title := meta.Title
	if title == "" {
		title = syntheticTitle(projectID)
	}
	return title, meta.AccessToken
}

// FetchDefinition downloads the raw project document and writes it
// verbatim to "<safe-title>_<id>.json". Returns the written path.
func (b *ArchiveBuilder) FetchDefinition(ctx context.Context, projectID int64, outDir string) (string, error) {
	title, accessToken := b.metadataOrFallback(ctx, projectID)

	raw, err := b.client.DownloadDefinition(ctx, projectID, accessToken)
	if err != nil {
		return "", err
	}

	path := safeFilename(outDir, title, projectID, ".json")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// FetchArchive downloads the project document, resolves and fetches its
// assets, and writes a single zip-compatible container. Failed assets
// are logged and omitted; they never abort the build.
func (b *ArchiveBuilder) FetchArchive(ctx context.Context, projectID int64, outDir string) (string, error) {
	title, accessToken := b.metadataOrFallback(ctx, projectID)

	raw, err := b.client.DownloadDefinition(ctx, projectID, accessToken)
	if err != nil {
		return "", err
	}

	var def ProjectDefinition
	if err := json.Unmarshal(raw, &def); err != nil {
		return "", &FetchError{Kind: FetchParse, ProjectID: projectID, Err: err}
	}
	assets := b.resolver.Resolve(&def)
	LogInfo("Fetching %d asset(s) for project %d", len(assets), projectID)

	path := safeFilename(outDir, title, projectID, ".sb3")
	if err := b.writeContainer(ctx, path, raw, assets); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

func (b *ArchiveBuilder) writeContainer(ctx context.Context, path string, raw []byte, assets []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.DefaultCompression)
	})

	// The definition goes in exactly as fetched, never re-encoded
	w, err := zw.Create(definitionEntryName)
	if err != nil {
		return fmt.Errorf("failed to start container: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		return fmt.Errorf("failed to write %s: %w", definitionEntryName, err)
	}

	if err := b.writeAssets(ctx, zw, assets); err != nil {
		zw.Close()
		return err
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize container: %w", err)
	}
	return f.Close()
}

type assetResult struct {
	name string
	data []byte
	err  error
}

// writeAssets fetches every asset with bounded concurrency and streams
// the successes into the container. Entry writing stays on this
// goroutine; the zip writer is not safe for concurrent use.
func (b *ArchiveBuilder) writeAssets(ctx context.Context, zw *zip.Writer, assets []string) error {
	total := len(assets)
	if total == 0 {
		return nil
	}

	results := make(chan assetResult)
	go func() {
		var g errgroup.Group
		g.SetLimit(b.workers)
		for _, name := range assets {
			name := name
			g.Go(func() error {
				data, err := b.fetchAssetWithRetry(ctx, name)
				results <- assetResult{name: name, data: data, err: err}
				return nil
			})
		}
		g.Wait()
		close(results)
	}()

	var writeErr error
	done := 0
	for res := range results {
		done++
		switch {
		case writeErr != nil:
			// keep draining so the workers can finish
		case res.err != nil:
			LogWarn("Skipping asset: %v", res.err)
		default:
			writeErr = b.writeEntry(zw, res.name, res.data)
		}
		if b.progress != nil && (done%progressInterval == 0 || done == total) {
			b.progress(done, total)
		}
	}
	return writeErr
}

func (b *ArchiveBuilder) writeEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("failed to add %s to container: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write %s to container: %w", name, err)
	}
	return nil
}

// fetchAssetWithRetry retries exactly once, and only on transport errors.
// HTTP-status failures are final; the server already answered.
func (b *ArchiveBuilder) fetchAssetWithRetry(ctx context.Context, name string) ([]byte, error) {
	data, err := b.client.FetchAsset(ctx, name)
	if err == nil {
		return data, nil
	}

	var assetErr *AssetError
	if errors.As(err, &assetErr) && assetErr.Status == 0 && ctx.Err() == nil {
		LogDebug("Retrying asset %s after transport error: %v", name, assetErr.Err)
		time.Sleep(assetRetryDelay)
		return b.client.FetchAsset(ctx, name)
	}
	return nil, err
}

// FetchAll enumerates the user's projects and downloads each one,
// isolating per-project failures. Returns how many projects succeeded.
func (b *ArchiveBuilder) FetchAll(ctx context.Context, outDir string, definitionOnly bool) (int, error) {
	projects, err := b.client.ListProjects(ctx, bulkListLimit)
	if err != nil {
		return 0, err
	}
	if len(projects) == 0 {
		LogInfo("No projects found")
		return 0, nil
	}

	LogInfo("Downloading %d project(s)", len(projects))
	fetched := 0
	for _, p := range projects {
		if p.ID == 0 {
			LogWarn("Skipping listing entry %q without an id", p.Title)
			continue
		}
		var err error
		if definitionOnly {
			_, err = b.FetchDefinition(ctx, p.ID, outDir)
		} else {
			_, err = b.FetchArchive(ctx, p.ID, outDir)
		}
		if err != nil {
			LogWarn("Failed to download project %d (%s): %v", p.ID, p.Title, err)
			continue
		}
		fetched++
	}
	return fetched, nil
}
