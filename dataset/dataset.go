// Package dataset builds the synthetic user collection served by the demo routes.
package dataset

import (
	"strconv"
)

// DefaultSize is the number of records generated when no size is configured.
const DefaultSize = 10000

type Record struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	IsActive bool   `json:"isActive"`
}

// Dataset is generated once and is read-only afterwards.
type Dataset struct {
	records []Record
}

// Generate returns n records with ids 0..n-1. Even ids are active.
func Generate(n int) *Dataset {
	if n < 0 {
		n = 0
	}
	records := make([]Record, n)
	for id := range records {
		records[id] = Record{
			ID:       id,
			Name:     "User " + strconv.Itoa(id),
			IsActive: id%2 == 0,
		}
	}
	return &Dataset{records: records}
}

func (d *Dataset) Len() int {
	return len(d.records)
}

func (d *Dataset) At(i int) Record {
	return d.records[i]
}

// Records exposes the backing slice. Callers must treat it as read-only.
func (d *Dataset) Records() []Record {
	return d.records
}
