package internal

import (
	"fmt"
	"sort"
)

// Per-kind fallback formats used when an entry carries an assetId but no
// dataFormat. Later project format variants drop both identifier forms
// for some entries; those are skipped entirely.
const (
	defaultCostumeFormat = "svg"
	defaultSoundFormat   = "wav"
)

// ProjectDefinition is the structured project document. Only the parts
// needed to resolve assets are decoded; the raw bytes go into the archive
// verbatim.
type ProjectDefinition struct {
	Targets []Target `json:"targets"`
}

// Target is one sprite or the stage
type Target struct {
	Costumes []AssetEntry `json:"costumes"`
	Sounds   []AssetEntry `json:"sounds"`
}

// AssetEntry references one binary asset. MD5Ext is the combined
// "identifier.extension" form; older entries carry AssetID plus
// DataFormat instead.
type AssetEntry struct {
	MD5Ext     string `json:"md5ext"`
	AssetID    string `json:"assetId"`
	DataFormat string `json:"dataFormat"`
}

// AssetResolver computes the set of distinct asset identifiers a project
// references.
type AssetResolver struct{}

// NewAssetResolver creates a new AssetResolver
func NewAssetResolver() *AssetResolver {
	return &AssetResolver{}
}

// Resolve walks every target's costumes and sounds and returns the
// deduplicated asset identifiers, sorted for deterministic output. The
// result is independent of target order and of repeated references.
func (r *AssetResolver) Resolve(def *ProjectDefinition) []string {
	seen := make(map[string]bool)
	var assets []string

	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			assets = append(assets, name)
		}
	}

	for _, target := range def.Targets {
		for _, costume := range target.Costumes {
			add(resolveEntry(costume, defaultCostumeFormat))
		}
		for _, sound := range target.Sounds {
			add(resolveEntry(sound, defaultSoundFormat))
		}
	}

	sort.Strings(assets)
	return assets
}

// resolveEntry yields the asset identifier for one entry, or "" when the
// entry carries neither identifier form.
func resolveEntry(entry AssetEntry, defaultFormat string) string {
	if entry.MD5Ext != "" {
		return entry.MD5Ext
	}
	if entry.AssetID != "" {
		format := entry.DataFormat
		if format == "" {
			format = defaultFormat
		}
		return fmt.Sprintf("%s.%s", entry.AssetID, format)
	}
	return ""
}
