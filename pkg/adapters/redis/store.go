package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/msquare/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key of the store.
const DefaultPrefix = "msquare:"

// Store implements ports.ProjectStore using Redis.
//
// Layout, relative to the prefix:
//
//	project:<id>       JSON project, without media
//	projects           ZSET of project IDs scored by creation time (unix ms)
//	media:<id>         HASH mediaID -> JSON media
//	media-order:<id>   ZSET of media IDs scored by display order
//	media-seq:<id>     counter handing out display orders
type Store struct {
	client *backend.Client
	prefix string
}

type Option func(*Store)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: DefaultPrefix,
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

// Client exposes the underlying client, e.g. to share it with a Locker.
func (s *Store) Client() *backend.Client {
	return s.client
}

func (s *Store) projectKey(id string) string    { return s.prefix + "project:" + id }
func (s *Store) indexKey() string               { return s.prefix + "projects" }
func (s *Store) mediaKey(id string) string      { return s.prefix + "media:" + id }
func (s *Store) mediaOrderKey(id string) string { return s.prefix + "media-order:" + id }
func (s *Store) mediaSeqKey(id string) string   { return s.prefix + "media-seq:" + id }

// CreateProject persists the project and indexes it by creation time.
func (s *Store) CreateProject(ctx context.Context, p domain.Project) error {
	p.Media = nil
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal project: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
		pipe.Set(ctx, s.projectKey(p.ID), data, 0)
		pipe.ZAdd(ctx, s.indexKey(), backend.Z{
			Score:  float64(p.CreatedAt.UnixMilli()),
			Member: p.ID,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// GetProject loads the project and its media.
func (s *Store) GetProject(ctx context.Context, id string) (domain.Project, error) {
	val, err := s.client.Get(ctx, s.projectKey(id)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return domain.Project{}, domain.ErrProjectNotFound
		}
		return domain.Project{}, fmt.Errorf("failed to get from redis: %w", err)
	}

	var p domain.Project
	if err := json.Unmarshal([]byte(val), &p); err != nil {
		return domain.Project{}, fmt.Errorf("failed to unmarshal project: %w", err)
	}
	if p.Media, err = s.ListMedia(ctx, id); err != nil {
		return domain.Project{}, err
	}
	return p, nil
}

// ListProjects returns the indexed projects, newest first.
// Index entries whose project key vanished are skipped.
func (s *Store) ListProjects(ctx context.Context) ([]domain.Project, error) {
	ids, err := s.client.ZRevRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	if len(ids) == 0 {
		return []domain.Project{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.projectKey(id)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load projects: %w", err)
	}

	list := make([]domain.Project, 0, len(vals))
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var p domain.Project
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, fmt.Errorf("failed to unmarshal project %s: %w", ids[i], err)
		}
		if p.Media, err = s.ListMedia(ctx, p.ID); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, nil
}

// DeleteProject removes the project, its index entry and all media rows in one transaction.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	var del *backend.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
		del = pipe.Del(ctx, s.projectKey(id))
		pipe.ZRem(ctx, s.indexKey(), id)
		pipe.Del(ctx, s.mediaKey(id), s.mediaOrderKey(id), s.mediaSeqKey(id))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete from redis: %w", err)
	}
	if del.Val() == 0 {
		return domain.ErrProjectNotFound
	}
	return nil
}

// maxTxRetries bounds optimistic transaction retries under contention.
const maxTxRetries = 10

// AddMedia stores the media row with the next display order.
// The project and its counter are watched, so a concurrent DeleteProject or AddMedia
// aborts the transaction instead of leaving orphan rows or duplicate orders.
func (s *Store) AddMedia(ctx context.Context, m domain.Media) (domain.Media, error) {
	projectKey, seqKey := s.projectKey(m.ProjectID), s.mediaSeqKey(m.ProjectID)

	txf := func(tx *backend.Tx) error {
		n, err := tx.Exists(ctx, projectKey).Result()
		if err != nil {
			return fmt.Errorf("failed to check project: %w", err)
		}
		if n == 0 {
			return domain.ErrProjectNotFound
		}

		seq, err := tx.Get(ctx, seqKey).Int64()
		if err != nil && !errors.Is(err, backend.Nil) {
			return fmt.Errorf("failed to read display order: %w", err)
		}
		m.DisplayOrder = int(seq)

		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("failed to marshal media: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
			pipe.Set(ctx, seqKey, seq+1, 0)
			pipe.HSet(ctx, s.mediaKey(m.ProjectID), m.ID, data)
			pipe.ZAdd(ctx, s.mediaOrderKey(m.ProjectID), backend.Z{
				Score:  float64(m.DisplayOrder),
				Member: m.ID,
			})
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, txf, projectKey, seqKey)
		if errors.Is(err, backend.TxFailedErr) {
			continue
		}
		if errors.Is(err, domain.ErrProjectNotFound) {
			return domain.Media{}, err
		}
		if err != nil {
			return domain.Media{}, fmt.Errorf("failed to save media: %w", err)
		}
		return m, nil
	}
	return domain.Media{}, fmt.Errorf("failed to save media: project %s is under contention", m.ProjectID)
}

// ListMedia returns the media of a project ordered by display order.
func (s *Store) ListMedia(ctx context.Context, projectID string) ([]domain.Media, error) {
	ids, err := s.client.ZRange(ctx, s.mediaOrderKey(projectID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list media: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	vals, err := s.client.HMGet(ctx, s.mediaKey(projectID), ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load media: %w", err)
	}

	list := make([]domain.Media, 0, len(vals))
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var m domain.Media
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			return nil, fmt.Errorf("failed to unmarshal media %s: %w", ids[i], err)
		}
		list = append(list, m)
	}
	return list, nil
}

// DeleteMedia removes one media row and returns it.
func (s *Store) DeleteMedia(ctx context.Context, projectID, mediaID string) (domain.Media, error) {
	raw, err := s.client.HGet(ctx, s.mediaKey(projectID), mediaID).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return domain.Media{}, domain.ErrMediaNotFound
		}
		return domain.Media{}, fmt.Errorf("failed to get media: %w", err)
	}
	var m domain.Media
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return domain.Media{}, fmt.Errorf("failed to unmarshal media: %w", err)
	}

	var del *backend.IntCmd
	_, err = s.client.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
		del = pipe.HDel(ctx, s.mediaKey(projectID), mediaID)
		pipe.ZRem(ctx, s.mediaOrderKey(projectID), mediaID)
		return nil
	})
	if err != nil {
		return domain.Media{}, fmt.Errorf("failed to delete media: %w", err)
	}
	if del.Val() == 0 {
		// lost a race with another delete
		return domain.Media{}, domain.ErrMediaNotFound
	}
	return m, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
