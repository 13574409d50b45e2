package registry

import (
	"github.com/ruteri/content-hash-registry/interfaces"
)

// State is the complete in-memory form of a registry instance.
// Owner is fixed at creation and Entries only ever grows.
type State struct {
	Owner   interfaces.Identity      `json:"owner"`
	Entries []interfaces.ContentHash `json:"entries"`
}

// New creates the initial state of a registry created by caller.
func New(caller interfaces.Identity) *State {
	return &State{
		Owner:   caller,
		Entries: []interfaces.ContentHash{},
	}
}

// Append records hash after all existing entries.
// Duplicates are kept and no check is made against Owner.
func (s *State) Append(hash interfaces.ContentHash) {
	s.Entries = append(s.Entries, hash)
}

// List returns a copy of the entries in insertion order.
// The result never aliases the state and is never nil.
func (s *State) List() []interfaces.ContentHash {
	out := make([]interfaces.ContentHash, len(s.Entries))
	copy(out, s.Entries)
	return out
}
