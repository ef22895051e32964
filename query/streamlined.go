package query

import (
	"strings"

	"github.com/volcengine/apminsight-profiling-demo/dataset"
)

// Streamlined reads the shared records in place and only builds the output.
type Streamlined struct{}

func (s *Streamlined) Name() string {
	return NameStreamlined
}

func (s *Streamlined) ActiveUsers(ds *dataset.Dataset) ([]dataset.Record, error) {
	out := make([]dataset.Record, 0)
	for _, r := range ds.Records() {
		if !r.IsActive {
			continue
		}
		r.Name = strings.ToUpper(r.Name)
		out = append(out, r)
	}
	return out, nil
}
