package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	r "gopkg.in/redis.v5"

	"github.com/lei/status-tracker/internal/models"
)

const (
	buildIDsKey    = "build_ids"
	lastUpdatedKey = "last_updated"
)

// Redis is a Store backed by a Redis server. Builds and job results are
// JSON documents under build/{id} and job/{id}; build_ids is a set.
type Redis struct {
	client *r.Client
	prefix string
}

// NewRedis connects to the server at url and verifies it answers
func NewRedis(url, prefix string) (*Redis, error) {
	opts, err := r.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := r.NewClient(opts)
	if err := client.Ping().Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &Redis{client: client, prefix: prefix}, nil
}

func (s *Redis) key(parts ...string) string {
	k := s.prefix
	for i, p := range parts {
		if i > 0 {
			k += "/"
		}
		k += p
	}
	return k
}

func idString(id int64) string {
	return strconv.FormatInt(id, 10)
}

func (s *Redis) SaveBuild(ctx context.Context, b models.Build) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encode build %d: %w", b.ID, err)
	}

	if err := s.client.Set(s.key("build", idString(b.ID)), data, 0).Err(); err != nil {
		return fmt.Errorf("save build %d: %w", b.ID, err)
	}
	if err := s.client.SAdd(s.key(buildIDsKey), idString(b.ID)).Err(); err != nil {
		return fmt.Errorf("index build %d: %w", b.ID, err)
	}
	return nil
}

func (s *Redis) BuildIDs(ctx context.Context) ([]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	members, err := s.client.SMembers(s.key(buildIDsKey)).Result()
	if err != nil {
		return nil, fmt.Errorf("list build ids: %w", err)
	}

	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid build id %q in %s: %w", m, buildIDsKey, err)
		}
		ids = append(ids, id)
	}
	return sortNewestFirst(ids), nil
}

func (s *Redis) Build(ctx context.Context, id int64) (models.Build, error) {
	var b models.Build
	if err := s.getJSON(ctx, s.key("build", idString(id)), &b); err != nil {
		return models.Build{}, err
	}
	return b, nil
}

func (s *Redis) SaveJobResults(ctx context.Context, jobID int64, results []models.TestResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if results == nil {
		results = []models.TestResult{}
	}
	data, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("encode job %d: %w", jobID, err)
	}

	if err := s.client.Set(s.key("job", idString(jobID)), data, 0).Err(); err != nil {
		return fmt.Errorf("save job %d: %w", jobID, err)
	}
	return nil
}

func (s *Redis) JobResults(ctx context.Context, jobID int64) ([]models.TestResult, error) {
	var results []models.TestResult
	if err := s.getJSON(ctx, s.key("job", idString(jobID)), &results); err != nil {
		return nil, err
	}
	return results, nil
}

// SetLastUpdated stores fractional unix seconds
func (s *Redis) SetLastUpdated(ctx context.Context, t time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	secs := float64(t.UnixNano()) / float64(time.Second)
	value := strconv.FormatFloat(secs, 'f', -1, 64)
	if err := s.client.Set(s.key(lastUpdatedKey), value, 0).Err(); err != nil {
		return fmt.Errorf("save last updated: %w", err)
	}
	return nil
}

func (s *Redis) LastUpdated(ctx context.Context) (time.Time, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}

	value, err := s.client.Get(s.key(lastUpdatedKey)).Result()
	if errors.Is(err, r.Nil) {
		return time.Time{}, ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("get last updated: %w", err)
	}

	secs, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid last updated %q: %w", value, err)
	}
	whole, frac := math.Modf(secs)
	return time.Unix(int64(whole), int64(frac*float64(time.Second))), nil
}

func (s *Redis) Close() error {
	return s.client.Close()
}

func (s *Redis) getJSON(ctx context.Context, key string, v interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := s.client.Get(key).Bytes()
	if errors.Is(err, r.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", key, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}
