package matrix

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lei/status-tracker/internal/models"
)

// DefaultLinkTemplate points column headers at the build page
const DefaultLinkTemplate = "https://travis-ci.com/ray-project/ray/builds/{build_id}"

const buildIDPlaceholder = "{build_id}"

// Options configures Render
type Options struct {
	Version      EncodingVersion
	LinkTemplate string
	Variants     []string
}

// BuildLink expands the link template for a build
func BuildLink(template string, buildID int64) string {
	if template == "" {
		template = DefaultLinkTemplate
	}
	id := strconv.FormatInt(buildID, 10)
	if !strings.Contains(template, buildIDPlaceholder) {
		return strings.TrimRight(template, "/") + "/" + id
	}
	return strings.ReplaceAll(template, buildIDPlaceholder, id)
}

// FormatColumn projects build metadata into a column header. Only the first
// line of the commit message is kept. A build with no metadata entry is a
// contract violation.
func FormatColumn(buildID int64, metadata map[string]models.BuildMetadata, linkTemplate string) (models.ColumnHeader, error) {
	meta, ok := metadata[strconv.FormatInt(buildID, 10)]
	if !ok {
		return models.ColumnHeader{}, fmt.Errorf("%w: build %d", ErrMissingMetadata, buildID)
	}

	subject, _, _ := strings.Cut(meta.CommitMessage, "\n")

	return models.ColumnHeader{
		ColumnID:       buildID,
		Label:          meta.SHA,
		TooltipSubject: strings.TrimRight(subject, "\r"),
		Link:           BuildLink(linkTemplate, buildID),
	}, nil
}

// DisplayName trims a slash-delimited test path to its last segment
func DisplayName(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 && i < len(name)-1 {
		return name[i+1:]
	}
	return name
}

// View converts a decoded row into its display model
func (r Row) View() models.RowView {
	return models.RowView{
		Key:             r.Key,
		DisplayName:     DisplayName(r.Name),
		TooltipFullName: r.Name,
		FailedCount:     r.Failed,
		TimeoutCount:    r.Timeout,
		FlakyCount:      r.Flaky,
		Weight:          r.Weight(),
		Cells:           r.Cells,
	}
}

// Render runs the whole transformation: decode rows, format headers, rank.
// Any contract violation aborts the render.
func Render(p *models.Payload, opts Options) (*models.Table, error) {
	rows, columns, err := Build(p, opts.Version)
	if err != nil {
		return nil, err
	}

	headers := make([]models.ColumnHeader, 0, len(columns))
	for _, id := range columns {
		h, err := FormatColumn(id, p.Metadata, opts.LinkTemplate)
		if err != nil {
			return nil, err
		}
		headers = append(headers, h)
	}

	ranked := Rank(rows)
	views := make([]models.RowView, len(ranked))
	for i, r := range ranked {
		views[i] = r.View()
	}

	return &models.Table{
		Encoding: opts.Version.String(),
		Variants: opts.Variants,
		Columns:  headers,
		Rows:     views,
	}, nil
}
