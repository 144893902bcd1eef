package reminder

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/sandeepkv93/nudge/internal/model"
)

func TestBuildContent(t *testing.T) {
	long := strings.Repeat("x", 40)
	cases := []struct {
		name  string
		task  model.Task
		title string
		body  string
	}{
		{
			name:  "short",
			task:  model.Task{ID: "1", Title: "Call mom", Description: "about sunday"},
			title: "Call mom",
			body:  "about sunday",
		},
		{
			name:  "long title",
			task:  model.Task{ID: "2", Title: long},
			title: strings.Repeat("x", 27) + "…",
			body:  placeholderBody,
		},
		{
			name:  "long body",
			task:  model.Task{ID: "3", Title: "t", Description: strings.Repeat("y", 60)},
			title: "t",
			body:  strings.Repeat("y", 57) + "…",
		},
		{
			name:  "delayed once without description",
			task:  model.Task{ID: "4", Title: "t", DelayCount: 1},
			title: "t",
			body:  "(Delayed once)",
		},
		{
			name:  "delayed many",
			task:  model.Task{ID: "5", Title: "t", Description: "d", DelayCount: 3},
			title: "t",
			body:  "d (Delayed 3x)",
		},
		{
			name:  "exactly at limit",
			task:  model.Task{ID: "6", Title: strings.Repeat("é", 27)},
			title: strings.Repeat("é", 27),
			body:  placeholderBody,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := BuildContent(tc.task)
			if got.Title != tc.title {
				t.Fatalf("title: want %q got %q", tc.title, got.Title)
			}
			if got.Body != tc.body {
				t.Fatalf("body: want %q got %q", tc.body, got.Body)
			}
			if got.Payload.TaskID != tc.task.ID || !got.Payload.IsPrimary {
				t.Fatalf("unexpected payload: %+v", got.Payload)
			}
		})
	}
}

func TestTruncateCountsRunes(t *testing.T) {
	got := truncate(strings.Repeat("ü", 30), titleLimit)
	if utf8.RuneCountInString(got) != titleLimit+1 {
		t.Fatalf("expected %d runes, got %d", titleLimit+1, utf8.RuneCountInString(got))
	}
}
