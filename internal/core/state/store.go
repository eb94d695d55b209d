package state

import "context"

// SelectedCompanyKey holds the serialized record of the selected company.
// The key is shared by every directory instance in the process.
const SelectedCompanyKey = "empresaSelecionada"

// Store persists small client-side values that must outlive the process.
type Store interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
