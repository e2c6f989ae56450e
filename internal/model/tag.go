package model

import "strings"

// Tag is a name-bearing label attached to transactions. Tags form a two-level
// hierarchy: a tag with an empty Parent is a parent tag, everything else is a
// child of the named parent. Identity is by name alone.
type Tag struct {
	Name   string
	Parent string
}

// NewTag validates the tag name and returns a parent tag.
func NewTag(name string) (Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Tag{}, newValidationError("tag", "name must not be empty")
	}
	return Tag{Name: name}, nil
}

// NewChildTag validates the tag name and returns a tag under the given parent.
func NewChildTag(parent, name string) (Tag, error) {
	tag, err := NewTag(name)
	if err != nil {
		return Tag{}, err
	}
	parent = strings.TrimSpace(parent)
	if parent == "" {
		return Tag{}, newValidationError("tag", "parent name must not be empty")
	}
	tag.Parent = parent
	return tag, nil
}

// Equal reports tag equality, which is defined by name only.
func (t Tag) Equal(other Tag) bool {
	return t.Name == other.Name
}

// IsParent reports whether the tag sits at the top of the hierarchy.
func (t Tag) IsParent() bool {
	return t.Parent == ""
}
