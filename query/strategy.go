// Package query holds the two implementations of the active-users query. They return the
// same records and differ only in how much they allocate on the way.
package query

import (
	"errors"
	"sort"

	"github.com/volcengine/apminsight-profiling-demo/dataset"
)

const (
	NameFullCopy    = "full-copy"
	NameStreamlined = "streamlined"
)

var ErrUnknownStrategy = errors.New("unknown strategy")

type Strategy interface {
	Name() string
	// ActiveUsers returns new records for every active user with the name upper-cased,
	// ordered by id. The result never shares storage with ds.
	ActiveUsers(ds *dataset.Dataset) ([]dataset.Record, error)
}

var strategyRegister = map[string]Strategy{
	NameFullCopy:    &FullCopy{},
	NameStreamlined: &Streamlined{},
}

func Lookup(name string) (Strategy, error) {
	if s, ok := strategyRegister[name]; ok {
		return s, nil
	}
	return nil, ErrUnknownStrategy
}

func Names() []string {
	names := make([]string, 0, len(strategyRegister))
	for name := range strategyRegister {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
