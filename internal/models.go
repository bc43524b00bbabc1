package internal

import "encoding/json"

// ProjectStats holds the engagement counters of a project
type ProjectStats struct {
	Views     int64 `json:"views"`
	Loves     int64 `json:"loves"`
	Favorites int64 `json:"favorites"`
	Remixes   int64 `json:"remixes"`
}

// ProjectSummary is the canonical listing shape. Both upstream listing
// formats normalize into it; see normalizer.go.
type ProjectSummary struct {
	ID          int64        `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Stats       ProjectStats `json:"stats"`
	CreatedAt   string       `json:"created_at"`
	ModifiedAt  string       `json:"modified_at"`
	Public      bool         `json:"public"`
}

// ProjectMetadata is the per-project detail needed to fetch a
// definition. AccessToken gates unpublished project downloads and may be
// empty.
type ProjectMetadata struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	AccessToken string `json:"project_token"`
}

// rawSiteProject is the MyStuff listing shape: the project id lives in
// "pk" and everything else under a "fields" wrapper.
type rawSiteProject struct {
	PK     int64         `json:"pk"`
	Fields rawSiteFields `json:"fields"`
}

type rawSiteFields struct {
	Title            string `json:"title"`
	Description      string `json:"description"`
	ViewCount        int64  `json:"view_count"`
	LoveCount        int64  `json:"love_count"`
	FavoriteCount    int64  `json:"favorite_count"`
	RemixersCount    int64  `json:"remixers_count"`
	DatetimeCreated  string `json:"datetime_created"`
	DatetimeModified string `json:"datetime_modified"`
	IsPublished      bool   `json:"isPublished"`
}

// rawAPIProject is the public API listing shape: flat fields with nested
// stats and history objects.
type rawAPIProject struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Public      bool   `json:"public"`
	Stats       struct {
		Views     int64 `json:"views"`
		Loves     int64 `json:"loves"`
		Favorites int64 `json:"favorites"`
		Remixes   int64 `json:"remixes"`
	} `json:"stats"`
	History struct {
		Created  string `json:"created"`
		Modified string `json:"modified"`
	} `json:"history"`
}

// rawLoginResult is one element of the login response list
type rawLoginResult struct {
	Username string `json:"username"`
	Token    string `json:"token"`
	Msg      string `json:"msg"`
}

// hasFieldsWrapper reports whether a raw listing entry uses the
// "fields/pk" shape.
func hasFieldsWrapper(raw json.RawMessage) bool {
	var probe struct {
		Fields json.RawMessage `json:"fields"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return false
	}
	return len(probe.Fields) > 0
}
