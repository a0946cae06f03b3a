package app

// WatchOperation tracks a CLI operation that may mutate the database.
// Operations are created in memory with ID=0. Only DB-mutating commands
// persist them (giving them an auto-increment ID from the database).
type WatchOperation struct {
	ID         int64
	Operation  string
	Parameters string
	Status     string // "success" or "error"
}

// NewWatchOperation creates a new in-memory watch operation.
func NewWatchOperation(operation, parameters string) *WatchOperation {
	return &WatchOperation{
		Operation:  operation,
		Parameters: parameters,
		Status:     "success",
	}
}

// Persisted returns true if this operation has been saved to the database.
func (op *WatchOperation) Persisted() bool {
	return op.ID != 0
}
