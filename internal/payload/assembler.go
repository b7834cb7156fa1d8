// Package payload assembles the raw status matrix served on /api from the store.
package payload

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/lei/status-tracker/internal/matrix"
	"github.com/lei/status-tracker/internal/models"
	"github.com/lei/status-tracker/internal/store"
	"github.com/lei/status-tracker/pkg/logger"
)

// ErrNoData is returned while nothing has been collected yet
var ErrNoData = errors.New("no builds collected yet")

const DefaultWindow = 10

// Server-side ranking weights. The table re-ranks with its own weights.
var scores = map[models.Outcome]float64{
	models.OutcomeFailed:  10,
	models.OutcomeUnknown: 0.1,
}

// Options configures the assembler
type Options struct {
	Version matrix.EncodingVersion
	// Window is the number of newest builds included
	Window int
	// Slots is the number of job variants per build
	Slots int
}

// Assembler builds payloads from collected data
type Assembler struct {
	store  store.Store
	opts   Options
	logger *logger.Logger
}

// New creates an assembler reading from s
func New(s store.Store, opts Options, log *logger.Logger) *Assembler {
	if opts.Version == 0 {
		opts.Version = matrix.V2
	}
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}
	if opts.Slots <= 0 {
		opts.Slots = matrix.GroupSize
	}

	return &Assembler{store: s, opts: opts, logger: log}
}

type testRow struct {
	name  string
	cells map[int64][]models.Outcome
	score float64
}

// Payload assembles the matrix of the newest builds. Each (test, build, slot)
// keeps the first recorded outcome; gaps are unknown.
func (a *Assembler) Payload(ctx context.Context) (*models.Payload, error) {
	log := logger.FromContext(ctx, a.logger)

	ids, err := a.store.BuildIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list build ids: %w", err)
	}
	if len(ids) > a.opts.Window {
		ids = ids[:a.opts.Window]
	}

	var (
		builds []models.Build
		rows   = make(map[string]*testRow)
	)

	for _, id := range ids {
		b, err := a.store.Build(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("payload: build listed but not stored", "build_id", id)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get build %d: %w", id, err)
		}
		builds = append(builds, b)

		for slot, jobID := range b.JobIDs {
			if slot >= a.opts.Slots {
				break
			}

			results, err := a.store.JobResults(ctx, jobID)
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("get job %d: %w", jobID, err)
			}

			for _, res := range results {
				row, ok := rows[res.Name]
				if !ok {
					row = &testRow{name: res.Name, cells: make(map[int64][]models.Outcome)}
					rows[res.Name] = row
				}
				cell, ok := row.cells[b.ID]
				if !ok {
					cell = emptyCell(a.opts.Slots)
					row.cells[b.ID] = cell
				}
				if cell[slot] == "" {
					cell[slot] = res.Outcome
				}
			}
		}
	}

	if len(builds) == 0 {
		return nil, ErrNoData
	}

	ranked := a.rank(rows, builds)

	p, err := a.encode(ranked, builds)
	if err != nil {
		return nil, err
	}

	log.Debug("payload: assembled",
		"encoding", a.opts.Version.String(),
		"builds", len(builds),
		"tests", len(ranked))

	return p, nil
}

// emptyCell returns a cell with no slot recorded; empty slots read as unknown
func emptyCell(slots int) []models.Outcome {
	return make([]models.Outcome, slots)
}

// width is the number of codes emitted per build. V1 rows are read back in
// fixed chunks of matrix.GroupSize, so V1 cells are padded with unknown or
// truncated to that size.
func (a *Assembler) width() int {
	if a.opts.Version == matrix.V1 {
		return matrix.GroupSize
	}
	return a.opts.Slots
}

func (a *Assembler) outcome(row *testRow, buildID int64, slot int) models.Outcome {
	cell, ok := row.cells[buildID]
	if !ok || slot >= len(cell) || cell[slot] == "" {
		return models.OutcomeUnknown
	}
	return cell[slot]
}

// rank orders rows by descending score, ties by name
func (a *Assembler) rank(rows map[string]*testRow, builds []models.Build) []*testRow {
	out := make([]*testRow, 0, len(rows))
	for _, row := range rows {
		for _, b := range builds {
			for slot := 0; slot < a.opts.Slots; slot++ {
				row.score += scores[a.outcome(row, b.ID, slot)]
			}
		}
		out = append(out, row)
	}

	slices.SortFunc(out, func(x, y *testRow) int {
		if c := cmp.Compare(y.score, x.score); c != 0 {
			return c
		}
		return cmp.Compare(x.name, y.name)
	})
	return out
}

func (a *Assembler) encode(rows []*testRow, builds []models.Build) (*models.Payload, error) {
	p := &models.Payload{
		Index:    make([]string, 0, len(rows)),
		Data:     make([]json.RawMessage, 0, len(rows)),
		Columns:  make([]json.RawMessage, 0, len(builds)),
		Metadata: make(map[string]models.BuildMetadata, len(builds)),
		Encoding: matrix.Dictionary(a.opts.Version),
	}

	for _, b := range builds {
		p.Metadata[strconv.FormatInt(b.ID, 10)] = models.BuildMetadata{
			SHA:           b.SHA,
			CommitMessage: b.CommitMessage,
			BuildID:       b.ID,
			JobIDs:        b.JobIDs,
		}

		switch a.opts.Version {
		case matrix.V1:
			for slot := 0; slot < a.width(); slot++ {
				if err := appendRaw(&p.Columns, []int64{b.ID, int64(slot)}); err != nil {
					return nil, err
				}
			}
		default:
			if err := appendRaw(&p.Columns, b.ID); err != nil {
				return nil, err
			}
		}
	}

	for _, row := range rows {
		p.Index = append(p.Index, row.name)

		var value interface{}
		switch a.opts.Version {
		case matrix.V1:
			flat := make([]int64, 0, len(builds)*a.width())
			for _, b := range builds {
				for slot := 0; slot < a.width(); slot++ {
					flat = append(flat, matrix.Encode(a.outcome(row, b.ID, slot), a.opts.Version))
				}
			}
			value = flat
		default:
			grouped := make([][]int64, 0, len(builds))
			for _, b := range builds {
				cell := make([]int64, a.width())
				for slot := range cell {
					cell[slot] = matrix.Encode(a.outcome(row, b.ID, slot), a.opts.Version)
				}
				grouped = append(grouped, cell)
			}
			value = grouped
		}

		if err := appendRaw(&p.Data, value); err != nil {
			return nil, err
		}
	}

	return p, nil
}

func appendRaw(dst *[]json.RawMessage, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode payload value: %w", err)
	}
	*dst = append(*dst, data)
	return nil
}

// LastUpdated returns the time of the last completed collection
func (a *Assembler) LastUpdated(ctx context.Context) (time.Time, error) {
	t, err := a.store.LastUpdated(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return time.Time{}, ErrNoData
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("get last updated: %w", err)
	}
	return t, nil
}
