package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/pocketfin/pocketfin/internal/model"
	"github.com/pocketfin/pocketfin/internal/store"
)

// TagManager maintains the two-level tag hierarchy. Tags are immutable once
// created and only removed by explicit user action.
type TagManager struct {
	store  store.Store
	logger *logrus.Entry
}

// NewTagManager creates a manager backed by the given store.
func NewTagManager(s store.Store, logger *logrus.Logger) *TagManager {
	return &TagManager{
		store:  s,
		logger: logger.WithField("component", "tags"),
	}
}

// AddParentTag registers a new top-level tag.
func (tm *TagManager) AddParentTag(ctx context.Context, name string) (model.Tag, error) {
	tag, err := model.NewTag(name)
	if err != nil {
		return model.Tag{}, err
	}
	if err := tm.ensureAbsent(ctx, tag.Name); err != nil {
		return model.Tag{}, err
	}
	if err := tm.store.SaveTag(ctx, tag); err != nil {
		return model.Tag{}, err
	}
	tm.logger.WithField("tag", tag.Name).Info("parent tag added")
	return tag, nil
}

// AddChildTag registers a new tag under an existing parent.
func (tm *TagManager) AddChildTag(ctx context.Context, parent, name string) (model.Tag, error) {
	tag, err := model.NewChildTag(parent, name)
	if err != nil {
		return model.Tag{}, err
	}

	existing, err := tm.store.ListTags(ctx)
	if err != nil {
		return model.Tag{}, err
	}
	parentFound := false
	for _, t := range existing {
		if t.Name == tag.Name {
			return model.Tag{}, &model.ValidationError{Field: "tag", Message: fmt.Sprintf("tag %q already exists", tag.Name)}
		}
		if t.Name == parent && t.IsParent() {
			parentFound = true
		}
	}
	if !parentFound {
		return model.Tag{}, &model.ValidationError{Field: "tag", Message: fmt.Sprintf("parent tag %q is not registered", parent)}
	}

	if err := tm.store.SaveTag(ctx, tag); err != nil {
		return model.Tag{}, err
	}
	tm.logger.WithFields(logrus.Fields{"tag": tag.Name, "parent": parent}).Info("child tag added")
	return tag, nil
}

// RemoveTag deletes a tag. Removing a parent removes its children as well;
// the store performs the cascade as one atomic unit.
func (tm *TagManager) RemoveTag(ctx context.Context, name string) error {
	if err := tm.store.DeleteTag(ctx, name); err != nil {
		return err
	}
	tm.logger.WithField("tag", name).Info("tag removed")
	return nil
}

// AllTags returns the hierarchy as parent name to children, sorted by name.
// Parents without children map to an empty slice.
func (tm *TagManager) AllTags(ctx context.Context) (map[string][]model.Tag, error) {
	tags, err := tm.store.ListTags(ctx)
	if err != nil {
		return nil, err
	}

	result := make(map[string][]model.Tag)
	for _, t := range tags {
		if t.IsParent() {
			if _, ok := result[t.Name]; !ok {
				result[t.Name] = []model.Tag{}
			}
			continue
		}
		result[t.Parent] = append(result[t.Parent], t)
	}
	for parent := range result {
		sort.Slice(result[parent], func(i, j int) bool {
			return result[parent][i].Name < result[parent][j].Name
		})
	}
	return result, nil
}

func (tm *TagManager) ensureAbsent(ctx context.Context, name string) error {
	existing, err := tm.store.ListTags(ctx)
	if err != nil {
		return err
	}
	for _, t := range existing {
		if t.Name == name {
			return &model.ValidationError{Field: "tag", Message: fmt.Sprintf("tag %q already exists", name)}
		}
	}
	return nil
}
