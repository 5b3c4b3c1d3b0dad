package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/msquare/pkg/domain"
)

// Store implements ports.ProjectStore in memory.
// Safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	projects  map[string]domain.Project
	media     map[string][]domain.Media
	nextOrder map[string]int
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		projects:  make(map[string]domain.Project),
		media:     make(map[string][]domain.Media),
		nextOrder: make(map[string]int),
	}
}

// CreateProject stores a copy of p without its media.
func (s *Store) CreateProject(ctx context.Context, p domain.Project) error {
	p.Media = nil

	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[p.ID] = p
	return nil
}

// GetProject returns a copy of the project with its media.
func (s *Store) GetProject(ctx context.Context, id string) (domain.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.projects[id]
	if !ok {
		return domain.Project{}, domain.ErrProjectNotFound
	}
	p.Media = s.mediaLocked(id)
	return p, nil
}

// ListProjects returns all projects, newest first.
func (s *Store) ListProjects(ctx context.Context) ([]domain.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]domain.Project, 0, len(s.projects))
	for id, p := range s.projects {
		p.Media = s.mediaLocked(id)
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

// DeleteProject removes the project and its media.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[id]; !ok {
		return domain.ErrProjectNotFound
	}
	delete(s.projects, id)
	delete(s.media, id)
	delete(s.nextOrder, id)
	return nil
}

// AddMedia appends m with the next display order of its project.
func (s *Store) AddMedia(ctx context.Context, m domain.Media) (domain.Media, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[m.ProjectID]; !ok {
		return domain.Media{}, domain.ErrProjectNotFound
	}
	m.DisplayOrder = s.nextOrder[m.ProjectID]
	s.nextOrder[m.ProjectID]++
	s.media[m.ProjectID] = append(s.media[m.ProjectID], m)
	return m, nil
}

// ListMedia returns a copy of the media of a project.
func (s *Store) ListMedia(ctx context.Context, projectID string) ([]domain.Media, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mediaLocked(projectID), nil
}

// DeleteMedia removes one media row.
func (s *Store) DeleteMedia(ctx context.Context, projectID, mediaID string) (domain.Media, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.media[projectID]
	for i, m := range list {
		if m.ID == mediaID {
			s.media[projectID] = append(list[:i:i], list[i+1:]...)
			return m, nil
		}
	}
	return domain.Media{}, domain.ErrMediaNotFound
}

// mediaLocked copies the media slice; rows are appended in display order.
func (s *Store) mediaLocked(projectID string) []domain.Media {
	list := s.media[projectID]
	if len(list) == 0 {
		return nil
	}
	out := make([]domain.Media, len(list))
	copy(out, list)
	return out
}
