package cli

import (
	"fmt"
	"os"

	"github.com/fablekeep/continuity/internal/policy"
	"github.com/fablekeep/continuity/internal/store"
)

const defaultDatabase = "continuity.db"

// openExistingStore opens the database at path, refusing to create one: a
// read command against a missing database is a usage error, not an empty
// result.
func openExistingStore(path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, WrapExitError(ExitCommandError,
			fmt.Sprintf("database not found at %s", path), err)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitFailure, "open database", err)
	}
	return st, nil
}

// loadPolicy loads a CUE policy file, or the built-in default when no path
// is given.
func loadPolicy(path string) (*policy.Policy, error) {
	if path == "" {
		return policy.Default(), nil
	}
	pol, err := policy.LoadFile(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load policy", err)
	}
	return pol, nil
}
