// Package vcs defines the repository status capability consumed by the
// policy checks. The production implementation shells out to git; tests use
// a fake so check control flow is decoupled from any binary invocation.
package vcs

import "context"

// FileState classifies a path in the working tree.
type FileState int

const (
	// Untracked means the path is not known to the repository.
	Untracked FileState = iota
	// Modified means the path is tracked and has working-tree or staged
	// changes.
	Modified
)

// FileStatus is the state of one path as reported by the repository.
type FileStatus struct {
	Path  string
	State FileState
}

// StatusProvider answers live repository queries for the policy checks.
// All operations are bounded: implementations must enforce a timeout and
// return an error rather than hang, because callers treat query failure as
// "could not verify" and degrade toward caution.
type StatusProvider interface {
	// Status classifies the given paths. Paths with no repository status
	// (clean, tracked, unchanged) are omitted from the result.
	Status(ctx context.Context, dir string, paths []string) ([]FileStatus, error)

	// DryRunAdd reports which files a staging command would stage under the
	// given path, without staging them.
	DryRunAdd(ctx context.Context, dir, path string) ([]string, error)

	// Changes lists the uncommitted changes in the working tree, one
	// porcelain-style line per changed path. An empty result means the
	// tree is clean.
	Changes(ctx context.Context, dir string) ([]string, error)
}

// Classify splits statuses into untracked and modified path lists, in input
// order. Both staging-check code paths (directory dry-run and explicit file
// list) share this single classification.
func Classify(statuses []FileStatus) (untracked, modified []string) {
	for _, st := range statuses {
		if st.State == Untracked {
			untracked = append(untracked, st.Path)
		} else {
			modified = append(modified, st.Path)
		}
	}
	return untracked, modified
}
