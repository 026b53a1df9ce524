package writ

import (
	"errors"
	"regexp"
	"strings"
)

// Tag limits enforced by TagList.
const (
	MaxTags      = 6
	MaxTagLength = 20
)

var (
	ErrTagTooShort  = errors.New("writ: tag is too short")
	ErrTagTooLong   = errors.New("writ: tag is too long")
	ErrTooManyTags  = errors.New("writ: too many tags, remove one before adding another")
	ErrDuplicateTag = errors.New("writ: duplicate tag")
)

var tagSeparators = regexp.MustCompile(`[\s-]+`)

// NormalizeTag lowercases a tag, drops commas and joins words with "-".
func NormalizeTag(tag string) string {
	tag = strings.ReplaceAll(tag, ",", "")
	tag = strings.ToLower(strings.TrimSpace(tag))
	return tagSeparators.ReplaceAllString(tag, "-")
}

// NormalizeTags normalizes every tag and drops duplicates and tags that are
// too short, keeping first-seen order.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = NormalizeTag(t)
		if len(t) <= 1 {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// SplitTags parses a comma separated tag string.
func SplitTags(s string) []string {
	return NormalizeTags(strings.Split(s, ","))
}

// TagList is an ordered set of normalized tags with the editor's limits.
type TagList struct {
	tags []string
}

// NewTagList creates a list holding the valid tags among initial.
func NewTagList(initial ...string) *TagList {
	l := &TagList{}
	for _, t := range initial {
		_ = l.Add(t)
	}
	return l
}

// Add normalizes and appends tag.
func (l *TagList) Add(tag string) error {
	tag = NormalizeTag(tag)
	switch {
	case len(tag) <= 1:
		return ErrTagTooShort
	case len(tag) > MaxTagLength:
		return ErrTagTooLong
	case l.Has(tag):
		return ErrDuplicateTag
	case len(l.tags) >= MaxTags:
		return ErrTooManyTags
	}
	l.tags = append(l.tags, tag)
	return nil
}

// Remove deletes tag and reports whether it was present.
func (l *TagList) Remove(tag string) bool {
	tag = NormalizeTag(tag)
	for i, t := range l.tags {
		if t == tag {
			l.tags = append(l.tags[:i], l.tags[i+1:]...)
			return true
		}
	}
	return false
}

// Has reports whether the normalized tag is present.
func (l *TagList) Has(tag string) bool {
	tag = NormalizeTag(tag)
	for _, t := range l.tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Clear removes every tag.
func (l *TagList) Clear() {
	l.tags = nil
}

// Tags returns a copy of the tags in insertion order.
func (l *TagList) Tags() []string {
	out := make([]string, len(l.tags))
	copy(out, l.tags)
	return out
}

// Len returns the number of tags.
func (l *TagList) Len() int {
	return len(l.tags)
}

// String joins the tags with ", ".
func (l *TagList) String() string {
	return strings.Join(l.tags, ", ")
}
