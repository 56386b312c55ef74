package embedstore

// deletionState tracks which of the two removals a pending id still needs.
type deletionState int

const (
	awaitingBoth deletionState = iota
	// awaitingMetadata: the vector map no longer holds the id.
	awaitingMetadata
	// awaitingVector: the metadata map no longer holds the id.
	awaitingVector
	purged
)

func (s deletionState) String() string {
	switch s {
	case awaitingBoth:
		return "awaiting_both"
	case awaitingMetadata:
		return "awaiting_metadata"
	case awaitingVector:
		return "awaiting_vector"
	case purged:
		return "purged"
	default:
		return "unknown"
	}
}

func (s deletionState) metadataRemoved() deletionState {
	switch s {
	case awaitingBoth:
		return awaitingVector
	case awaitingMetadata:
		return purged
	default:
		return s
	}
}

func (s deletionState) vectorRemoved() deletionState {
	switch s {
	case awaitingBoth:
		return awaitingMetadata
	case awaitingVector:
		return purged
	default:
		return s
	}
}
