package molecule

import (
	"context"
)

// Repository persists molecules as molfile documents under caller-chosen keys.
type Repository interface {
	// Save stores m under key, overwriting any existing document.
	Save(ctx context.Context, key string, m *Molecule) error

	// FindByKey loads the molecule stored under key.
	// Returns an error satisfying errors.IsNotFound if nothing is stored there.
	FindByKey(ctx context.Context, key string) (*Molecule, error)

	// Exists reports whether a document is stored under key.
	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes the document under key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

//Personal.AI order the ending
