// Package dataset holds the in-memory experiment dataset: an ordered
// mapping from channel name to a unit-tagged sample column. The ordering is
// insertion order, matching how channels appear in the recording header, so
// exports and listings stay stable across a reduction.
package dataset

import (
	"errors"
	"fmt"

	"golook/pkg/units"
)

// Sentinel errors for dataset operations.
var (
	// ErrChannelNotFound indicates a lookup for a channel name that is not present.
	ErrChannelNotFound = errors.New("dataset: channel not found")

	// ErrChannelExists indicates a rename would overwrite an existing channel.
	ErrChannelExists = errors.New("dataset: channel already exists")

	// ErrRaggedDataset indicates channels of unequal sample counts.
	ErrRaggedDataset = errors.New("dataset: channels have unequal lengths")
)

// Dataset is an ordered channel map. Not safe for concurrent mutation; a
// reduction operates on its dataset from a single goroutine.
type Dataset struct {
	names   []string
	columns map[string]units.Quantity
}

// New returns an empty dataset.
func New() *Dataset {
	return &Dataset{columns: make(map[string]units.Quantity)}
}

// Len returns the number of channels.
func (d *Dataset) Len() int { return len(d.names) }

// Names returns the channel names in insertion order.
func (d *Dataset) Names() []string {
	out := make([]string, len(d.names))
	copy(out, d.names)
	return out
}

// Get returns the named channel.
func (d *Dataset) Get(name string) (units.Quantity, bool) {
	q, ok := d.columns[name]
	return q, ok
}

// Set inserts a channel or replaces an existing one in place. Replacement
// keeps the channel's position; insertion appends.
func (d *Dataset) Set(name string, q units.Quantity) {
	if _, ok := d.columns[name]; !ok {
		d.names = append(d.names, name)
	}
	d.columns[name] = q
}

// Pop removes the named channel and returns it. Remaining channels keep
// their relative order.
func (d *Dataset) Pop(name string) (units.Quantity, bool) {
	q, ok := d.columns[name]
	if !ok {
		return units.Quantity{}, false
	}
	delete(d.columns, name)
	for i, n := range d.names {
		if n == name {
			d.names = append(d.names[:i], d.names[i+1:]...)
			break
		}
	}
	return q, true
}

// Rename relabels a channel using the pop-and-reassign pattern: the old key
// is removed and the channel is reinserted at the end under the new name.
func (d *Dataset) Rename(from, to string) error {
	if from == to {
		return nil
	}
	if _, ok := d.columns[to]; ok {
		return fmt.Errorf("%w: %q", ErrChannelExists, to)
	}
	q, ok := d.Pop(from)
	if !ok {
		return fmt.Errorf("%w: %q", ErrChannelNotFound, from)
	}
	d.Set(to, q)
	return nil
}

// Rows returns the common sample count, or an error when channels disagree.
// Derived channels are recomputed at full length, so a ragged dataset means
// a reduction step went wrong.
func (d *Dataset) Rows() (int, error) {
	if len(d.names) == 0 {
		return 0, nil
	}
	n := d.columns[d.names[0]].Len()
	for _, name := range d.names[1:] {
		if l := d.columns[name].Len(); l != n {
			return 0, fmt.Errorf("%w: %q has %d rows, %q has %d",
				ErrRaggedDataset, d.names[0], n, name, l)
		}
	}
	return n, nil
}
