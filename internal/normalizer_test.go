package internal

import (
	"encoding/json"
	"testing"
)

func TestNormalizer_NormalizeProject(t *testing.T) {
	n := NewNormalizer()

	tests := []struct {
		name string
		raw  string
		want ProjectSummary
	}{
		{
			name: "site shape with fields wrapper",
			raw: `{"pk":101,"fields":{"title":"My Game","description":"fun",
				"view_count":12,"love_count":3,"favorite_count":2,"remixers_count":1,
				"datetime_created":"2024-01-01","datetime_modified":"2024-06-01",
				"isPublished":true}}`,
			want: ProjectSummary{
				ID:          101,
				Title:       "My Game",
				Description: "fun",
				Stats:       ProjectStats{Views: 12, Loves: 3, Favorites: 2, Remixes: 1},
				CreatedAt:   "2024-01-01",
				ModifiedAt:  "2024-06-01",
				Public:      true,
			},
		},
		{
			name: "flat API shape",
			raw: `{"id":202,"title":"Platformer","description":"jump around","public":true,
				"stats":{"views":100,"loves":10,"favorites":5,"remixes":2},
				"history":{"created":"2023-05-05","modified":"2023-06-06"}}`,
			want: ProjectSummary{
				ID:          202,
				Title:       "Platformer",
				Description: "jump around",
				Stats:       ProjectStats{Views: 100, Loves: 10, Favorites: 5, Remixes: 2},
				CreatedAt:   "2023-05-05",
				ModifiedAt:  "2023-06-06",
				Public:      true,
			},
		},
		{
			name: "site shape with everything missing defaults deterministically",
			raw:  `{"pk":303,"fields":{}}`,
			want: ProjectSummary{
				ID:         303,
				Title:      "Untitled",
				CreatedAt:  "unknown",
				ModifiedAt: "unknown",
			},
		},
		{
			name: "flat shape with everything missing defaults deterministically",
			raw:  `{"id":404}`,
			want: ProjectSummary{
				ID:         404,
				Title:      "Untitled",
				CreatedAt:  "unknown",
				ModifiedAt: "unknown",
			},
		},
		{
			name: "empty object still normalizes",
			raw:  `{}`,
			want: ProjectSummary{
				Title:      "Untitled",
				CreatedAt:  "unknown",
				ModifiedAt: "unknown",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := n.NormalizeProject(json.RawMessage(tt.raw))
			if err != nil {
				t.Fatalf("NormalizeProject() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("NormalizeProject() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNormalizer_NormalizeProject_Malformed(t *testing.T) {
	n := NewNormalizer()

	_, err := n.NormalizeProject(json.RawMessage(`"just a string"`))
	if err == nil {
		t.Fatal("NormalizeProject() should fail on non-object input")
	}
}

func TestNormalizer_NormalizeList(t *testing.T) {
	n := NewNormalizer()

	raws := []json.RawMessage{
		json.RawMessage(`{"pk":1,"fields":{"title":"A"}}`),
		json.RawMessage(`{"id":2,"title":"B"}`),
	}

	got, err := n.NormalizeList(raws)
	if err != nil {
		t.Fatalf("NormalizeList() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("NormalizeList() returned %d summaries, want 2", len(got))
	}
	if got[0].ID != 1 || got[0].Title != "A" {
		t.Errorf("first summary = %+v", got[0])
	}
	if got[1].ID != 2 || got[1].Title != "B" {
		t.Errorf("second summary = %+v", got[1])
	}
}
