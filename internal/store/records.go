package store

import (
	"errors"

	"github.com/roach88/xfersynth/internal/ir"
)

// ErrRunNotFound is returned when a run id has no record.
var ErrRunNotFound = errors.New("run not found")

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	RunRunning  RunStatus = "running"
	RunFinished RunStatus = "finished"
	RunFailed   RunStatus = "failed"
)

// Run is one synthesis run over one seed program.
type Run struct {
	ID          string
	Seed        uint64
	Chains      int
	Steps       int
	ProgramHash string
	Params      map[string]string
	Status      RunStatus
	BestScore   float64
	BestHash    string
}

// Candidate is an accepted program of a run.
type Candidate struct {
	ID      int64
	RunID   string
	Chain   int
	Step    int
	Hash    string
	Score   float64
	Program string // printed form
	Spec    string // JSON serialization, readable by ir.DecodeFunction
	Seq     int64
}

// Function decodes the stored program.
func (c Candidate) Function() (*ir.Function, error) {
	return ir.DecodeFunction([]byte(c.Spec), "candidate "+c.Hash)
}

// BanditDecision records the weighting arm chosen by a chain and the
// reward observed for the previous interval.
type BanditDecision struct {
	ID     int64
	RunID  string
	Chain  int
	Step   int
	Arm    string
	Reward float64
	Seq    int64
}
