package generator

import (
	"errors"
	"fmt"
)

var (
	// ErrProjectNotFound matches every *ProjectNotFoundError.
	ErrProjectNotFound = errors.New("project not found")
	// ErrMissingWorkspaceLocation is returned by GenerateWorkspace when the
	// workspace has no location to be created in.
	ErrMissingWorkspaceLocation = errors.New("workspace location is undefined")
)

// ProjectNotFoundError reports a projectId with no entry in
// cfsconfig.Projects.
type ProjectNotFoundError struct {
	ProjectID string
}

func (e *ProjectNotFoundError) Error() string {
	return fmt.Sprintf("project with ID %s not found in cfsconfig", e.ProjectID)
}

func (e *ProjectNotFoundError) Is(target error) bool {
	return target == ErrProjectNotFound
}
