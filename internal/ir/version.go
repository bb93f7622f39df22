package ir

// Version constants for the IR encoding and the engine.
const (
	// IRVersion is the program encoding version. It is mixed into program
	// hashes and recorded with every stored run.
	IRVersion = "1"

	// EngineVersion is the xfersynth engine version.
	EngineVersion = "0.1.0"
)
