package internal

import "encoding/json"

// Normalization defaults for fields the upstream listing omits.
const (
	defaultTitle     = "Untitled"
	defaultTimestamp = "unknown"
)

// Normalizer converts the two upstream listing shapes into the canonical
// ProjectSummary. Normalization is total: missing fields default
// deterministically and never produce an error beyond malformed JSON.
type Normalizer struct{}

// NewNormalizer creates a new Normalizer
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// NormalizeProject converts one raw listing entry into a ProjectSummary.
func (n *Normalizer) NormalizeProject(raw json.RawMessage) (ProjectSummary, error) {
	if hasFieldsWrapper(raw) {
		var site rawSiteProject
		if err := json.Unmarshal(raw, &site); err != nil {
			return ProjectSummary{}, &FetchError{Kind: FetchParse, Err: err}
		}
		return n.fromSite(site), nil
	}

	var api rawAPIProject
	if err := json.Unmarshal(raw, &api); err != nil {
		return ProjectSummary{}, &FetchError{Kind: FetchParse, Err: err}
	}
	return n.fromAPI(api), nil
}

// NormalizeList converts a whole listing, skipping nothing: every entry
// either normalizes or fails the call.
func (n *Normalizer) NormalizeList(raws []json.RawMessage) ([]ProjectSummary, error) {
	summaries := make([]ProjectSummary, 0, len(raws))
	for _, raw := range raws {
		summary, err := n.NormalizeProject(raw)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (n *Normalizer) fromSite(p rawSiteProject) ProjectSummary {
	return ProjectSummary{
		ID:          p.PK,
		Title:       orDefault(p.Fields.Title, defaultTitle),
		Description: p.Fields.Description,
		Stats: ProjectStats{
			Views:     p.Fields.ViewCount,
			Loves:     p.Fields.LoveCount,
			Favorites: p.Fields.FavoriteCount,
			Remixes:   p.Fields.RemixersCount,
		},
		CreatedAt:  orDefault(p.Fields.DatetimeCreated, defaultTimestamp),
		ModifiedAt: orDefault(p.Fields.DatetimeModified, defaultTimestamp),
		Public:     p.Fields.IsPublished,
	}
}

func (n *Normalizer) fromAPI(p rawAPIProject) ProjectSummary {
	return ProjectSummary{
		ID:          p.ID,
		Title:       orDefault(p.Title, defaultTitle),
		Description: p.Description,
		Stats: ProjectStats{
			Views:     p.Stats.Views,
			Loves:     p.Stats.Loves,
			Favorites: p.Stats.Favorites,
			Remixes:   p.Stats.Remixes,
		},
		CreatedAt:  orDefault(p.History.Created, defaultTimestamp),
		ModifiedAt: orDefault(p.History.Modified, defaultTimestamp),
		Public:     p.Public,
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
