package db

import "github.com/jmborr/qefdata/internal/model"

// FakeDatasetSearcher is a minimal, configurable fake used by tests.
type FakeDatasetSearcher struct {
	// Results to return from SearchDatasets. If nil, an empty slice is returned.
	Results []model.Dataset
	// Err to return from SearchDatasets if non-nil.
	Err error
}

// SearchDatasets implements DatasetSearcher for the fake.
func (f *FakeDatasetSearcher) SearchDatasets(query string) ([]model.Dataset, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	if f.Results == nil {
		return []model.Dataset{}, nil
	}
	return f.Results, nil
}
