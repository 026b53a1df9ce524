package writ

import (
	"errors"
	"strings"
	"testing"
)

func TestNormalizeTag(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Go", "go"},
		{"  web  dev ", "web-dev"},
		{"a,b", "ab"},
		{"server--side", "server-side"},
	}
	for _, tt := range tests {
		if got := NormalizeTag(tt.in); got != tt.want {
			t.Errorf("NormalizeTag(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeTags(t *testing.T) {
	got := NormalizeTags([]string{"Go", "go", "x", "", "Web Dev"})
	want := []string{"go", "web-dev"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("NormalizeTags = %v, want %v", got, want)
	}
	if got := SplitTags("go, web dev ,go"); strings.Join(got, "|") != "go|web-dev" {
		t.Errorf("SplitTags = %v", got)
	}
}

func TestTagListRules(t *testing.T) {
	l := NewTagList()
	tests := []struct {
		tag  string
		want error
	}{
		{"golang", nil},
		{"g", ErrTagTooShort},
		{strings.Repeat("x", MaxTagLength+1), ErrTagTooLong},
		{"GoLang", ErrDuplicateTag},
		{"web", nil},
	}
	for _, tt := range tests {
		if err := l.Add(tt.tag); !errors.Is(err, tt.want) {
			t.Errorf("Add(%q) = %v, want %v", tt.tag, err, tt.want)
		}
	}
	if l.String() != "golang, web" {
		t.Errorf("String() = %q", l.String())
	}
}

func TestTagListLimit(t *testing.T) {
	l := NewTagList("aa", "bb", "cc", "dd", "ee", "ff", "gg")
	if l.Len() != MaxTags {
		t.Fatalf("Len() = %d, want %d", l.Len(), MaxTags)
	}
	if err := l.Add("hh"); !errors.Is(err, ErrTooManyTags) {
		t.Errorf("Add over limit = %v", err)
	}
	if !l.Remove("AA") {
		t.Error("Remove should normalize")
	}
	if l.Remove("aa") {
		t.Error("second Remove should report false")
	}
	if err := l.Add("hh"); err != nil {
		t.Errorf("Add after remove = %v", err)
	}
	tags := l.Tags()
	tags[0] = "mutated"
	if l.Has("mutated") {
		t.Error("Tags should return a copy")
	}
	l.Clear()
	if l.Len() != 0 {
		t.Error("Clear should empty the list")
	}
}
