package ports

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/msquare/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunProjectStoreContract runs a suite of tests to verify that a ProjectStore implementation
// adheres to the defined interface contract. newStore must return an empty store on every call.
func RunProjectStoreContract(t *testing.T, newStore func(t *testing.T) ProjectStore) {
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	project := func(id string, age int) domain.Project {
		return domain.Project{
			ID:          id,
			Title:       "Project " + id,
			Description: "Description " + id,
			Category:    domain.CategoryRenovation,
			Featured:    age == 0,
			CreatedAt:   base.Add(time.Duration(age) * time.Hour),
		}
	}

	t.Run("Create and Get", func(t *testing.T) {
		store := newStore(t)
		p := project("p1", 0)
		require.NoError(t, store.CreateProject(ctx, p))

		loaded, err := store.GetProject(ctx, "p1")
		require.NoError(t, err, "GetProject should not return error")
		assert.Equal(t, p.Title, loaded.Title)
		assert.Equal(t, p.Description, loaded.Description)
		assert.Equal(t, p.Category, loaded.Category)
		assert.True(t, loaded.Featured)
		assert.True(t, p.CreatedAt.Equal(loaded.CreatedAt))
		assert.Empty(t, loaded.Media)
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		store := newStore(t)
		_, err := store.GetProject(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrProjectNotFound)
	})

	t.Run("List Newest First", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.CreateProject(ctx, project("old", 0)))
		require.NoError(t, store.CreateProject(ctx, project("new", 2)))
		require.NoError(t, store.CreateProject(ctx, project("mid", 1)))

		list, err := store.ListProjects(ctx)
		require.NoError(t, err)
		ids := make([]string, len(list))
		for i, p := range list {
			ids[i] = p.ID
		}
		assert.Equal(t, []string{"new", "mid", "old"}, ids)
	})

	t.Run("Media Order", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.CreateProject(ctx, project("p1", 0)))

		var added []domain.Media
		for _, id := range []string{"m1", "m2", "m3"} {
			m, err := store.AddMedia(ctx, domain.Media{ID: id, ProjectID: "p1", URL: "/media/" + id, Type: domain.MediaImage, Path: "p1/" + id})
			require.NoError(t, err)
			added = append(added, m)
		}
		assert.Equal(t, 0, added[0].DisplayOrder)
		assert.Less(t, added[0].DisplayOrder, added[1].DisplayOrder)
		assert.Less(t, added[1].DisplayOrder, added[2].DisplayOrder)

		media, err := store.ListMedia(ctx, "p1")
		require.NoError(t, err)
		require.Len(t, media, 3)
		assert.Equal(t, "m1", media[0].ID)
		assert.Equal(t, "p1/m1", media[0].Path)
		assert.Equal(t, "m3", media[2].ID)

		loaded, err := store.GetProject(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, media, loaded.Media)

		list, err := store.ListProjects(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Len(t, list[0].Media, 3)
	})

	t.Run("AddMedia Unknown Project", func(t *testing.T) {
		store := newStore(t)
		_, err := store.AddMedia(ctx, domain.Media{ID: "m1", ProjectID: "ghost"})
		assert.ErrorIs(t, err, domain.ErrProjectNotFound)
	})

	t.Run("DeleteMedia", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.CreateProject(ctx, project("p1", 0)))
		require.NoError(t, store.CreateProject(ctx, project("p2", 1)))
		first, err := store.AddMedia(ctx, domain.Media{ID: "m1", ProjectID: "p1", Path: "p1/a.jpg"})
		require.NoError(t, err)
		_, err = store.AddMedia(ctx, domain.Media{ID: "m2", ProjectID: "p1", Path: "p1/b.jpg"})
		require.NoError(t, err)

		_, err = store.DeleteMedia(ctx, "p2", "m1")
		assert.ErrorIs(t, err, domain.ErrMediaNotFound, "media of another project")

		removed, err := store.DeleteMedia(ctx, "p1", "m2")
		require.NoError(t, err)
		assert.Equal(t, "p1/b.jpg", removed.Path)

		_, err = store.DeleteMedia(ctx, "p1", "m2")
		assert.ErrorIs(t, err, domain.ErrMediaNotFound)

		next, err := store.AddMedia(ctx, domain.Media{ID: "m3", ProjectID: "p1"})
		require.NoError(t, err)
		assert.Greater(t, next.DisplayOrder, first.DisplayOrder)

		media, err := store.ListMedia(ctx, "p1")
		require.NoError(t, err)
		require.Len(t, media, 2)
		assert.Equal(t, "m1", media[0].ID)
		assert.Equal(t, "m3", media[1].ID)
	})

	t.Run("Delete Cascades", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.CreateProject(ctx, project("p1", 0)))
		_, err := store.AddMedia(ctx, domain.Media{ID: "m1", ProjectID: "p1"})
		require.NoError(t, err)

		require.NoError(t, store.DeleteProject(ctx, "p1"))

		_, err = store.GetProject(ctx, "p1")
		assert.ErrorIs(t, err, domain.ErrProjectNotFound, "Get after Delete should return ErrProjectNotFound")
		media, err := store.ListMedia(ctx, "p1")
		require.NoError(t, err)
		assert.Empty(t, media)
		list, err := store.ListProjects(ctx)
		require.NoError(t, err)
		assert.Empty(t, list)

		assert.ErrorIs(t, store.DeleteProject(ctx, "p1"), domain.ErrProjectNotFound)
	})

	t.Run("Concurrent AddMedia", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.CreateProject(ctx, project("p1", 0)))

		const n = 20
		var wg sync.WaitGroup
		orders := make(chan int, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				m, err := store.AddMedia(ctx, domain.Media{ID: string(rune('a' + i)), ProjectID: "p1"})
				if assert.NoError(t, err) {
					orders <- m.DisplayOrder
				}
			}(i)
		}
		wg.Wait()
		close(orders)

		seen := make(map[int]bool)
		for o := range orders {
			assert.False(t, seen[o], "display order %d assigned twice", o)
			seen[o] = true
		}
		assert.Len(t, seen, n)
	})
}
