package travis

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/lei/status-tracker/internal/models"
	"github.com/lei/status-tracker/internal/provider"
)

const shortSHALength = 6

// mapBuild converts a Travis build to a generic Build keeping the first
// slots jobs, which are the tracked variants in slot order
func mapBuild(b Build, slots int) models.Build {
	sha := b.Commit.SHA
	if len(sha) > shortSHALength {
		sha = sha[:shortSHALength]
	}

	jobs := b.Jobs
	if slots > 0 && len(jobs) > slots {
		jobs = jobs[:slots]
	}

	jobIDs := make([]int64, len(jobs))
	for i, j := range jobs {
		jobIDs[i] = j.ID
	}

	return models.Build{
		ID:            b.ID,
		SHA:           sha,
		CommitMessage: b.Commit.Message,
		JobIDs:        jobIDs,
	}
}

// parseError converts HTTP error responses to provider errors
func parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	switch resp.StatusCode {
	case http.StatusNotFound:
		return provider.ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return provider.ErrUnauthorized
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return provider.ErrProviderUnavailable
	default:
		// Travis errors look like {"@type":"error","error_type":...,"error_message":...}
		var errResp struct {
			ErrorType    string `json:"error_type"`
			ErrorMessage string `json:"error_message"`
		}

		if json.Unmarshal(body, &errResp) == nil && errResp.ErrorMessage != "" {
			return &provider.ProviderError{
				Code:    resp.StatusCode,
				Message: errResp.ErrorMessage,
			}
		}

		return &provider.ProviderError{
			Code:    resp.StatusCode,
			Message: string(body),
		}
	}
}
