package query

import (
	"fmt"
	"strings"

	"github.com/jinzhu/copier"
	"github.com/samber/lo"
	"github.com/volcengine/apminsight-profiling-demo/dataset"
)

// FullCopy clones every record before filtering, so inactive users are copied only to be
// thrown away. Keep it that way: this is the slow path the profile is meant to show.
type FullCopy struct{}

func (s *FullCopy) Name() string {
	return NameFullCopy
}

func (s *FullCopy) ActiveUsers(ds *dataset.Dataset) ([]dataset.Record, error) {
	var cloned []dataset.Record
	if err := copier.CopyWithOption(&cloned, ds.Records(), copier.Option{DeepCopy: true}); err != nil {
		return nil, fmt.Errorf("clone dataset: %w", err)
	}

	active := lo.Filter(cloned, func(r dataset.Record, _ int) bool {
		return r.IsActive
	})

	return lo.Map(active, func(r dataset.Record, _ int) dataset.Record {
		r.Name = strings.ToUpper(r.Name)
		return r
	}), nil
}
