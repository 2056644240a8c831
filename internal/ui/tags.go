// Copyright (c) 2026 QEFData Team
// QEFData - data distribution toolkit for the qef project
// This source code is licensed under the MIT license found in the LICENSE file.

package ui

import (
	"sort"

	"github.com/jmborr/qefdata/internal/db"
)

// TagSuggester provides access to known tags and suggestion helpers.
type TagSuggester interface {
	AllTags() ([]string, error)
	Suggest(currentVal string) []string
}

type dbTagSuggester struct{}

func (d *dbTagSuggester) AllTags() ([]string, error) {
	datasets, err := db.GetAllDatasets()
	if err != nil {
		return nil, err
	}
	tagSet := make(map[string]struct{})
	for _, ds := range datasets {
		for _, tag := range ds.TagList() {
			tagSet[tag] = struct{}{}
		}
	}
	tags := make([]string, 0, len(tagSet))
	for t := range tagSet {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags, nil
}

func (d *dbTagSuggester) Suggest(currentVal string) []string {
	tags, err := d.AllTags()
	if err != nil {
		return nil
	}
	return SuggestTags(tags, currentVal)
}

// DefaultTagSuggester returns a TagSuggester backed by the catalog.
func DefaultTagSuggester() TagSuggester {
	return &dbTagSuggester{}
}
