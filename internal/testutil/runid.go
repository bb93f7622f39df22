package testutil

// FixedRunID generates the same run identifier every time.
//
// Runs recorded with a FixedRunID land under a known key, so tests can read
// them back from the store without threading the generated id through.
//
// Thread-safety: FixedRunID is stateless and safe for concurrent use.
type FixedRunID struct {
	id string
}

// NewFixedRunID creates a fixed run identifier generator. An empty id
// becomes "test-run-default".
func NewFixedRunID(id string) *FixedRunID {
	if id == "" {
		id = "test-run-default"
	}
	return &FixedRunID{id: id}
}

// Generate returns the fixed run identifier.
func (g *FixedRunID) Generate() string {
	return g.id
}
