package ports

import (
	"context"

	"github.com/aretw0/msquare/pkg/domain"
)

// ProjectStore persists portfolio projects and their media.
type ProjectStore interface {
	// CreateProject stores a new project. The ID and CreatedAt are set by the caller.
	CreateProject(ctx context.Context, p domain.Project) error

	// GetProject returns the project with its media ordered by DisplayOrder.
	// Returns domain.ErrProjectNotFound if the project does not exist.
	GetProject(ctx context.Context, id string) (domain.Project, error)

	// ListProjects returns every project, newest first, each with its media.
	ListProjects(ctx context.Context) ([]domain.Project, error)

	// DeleteProject removes the project and all of its media rows.
	// Returns domain.ErrProjectNotFound if the project does not exist.
	DeleteProject(ctx context.Context, id string) error

	// AddMedia appends a media row to a project, assigning the next DisplayOrder.
	// Returns the stored row, or domain.ErrProjectNotFound.
	AddMedia(ctx context.Context, m domain.Media) (domain.Media, error)

	// ListMedia returns the media of a project ordered by DisplayOrder.
	ListMedia(ctx context.Context, projectID string) ([]domain.Media, error)

	// DeleteMedia removes one media row and returns it so the caller can remove the object.
	// Returns domain.ErrMediaNotFound if it does not belong to the project.
	DeleteMedia(ctx context.Context, projectID, mediaID string) (domain.Media, error)
}
