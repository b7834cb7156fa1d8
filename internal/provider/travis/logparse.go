package travis

import (
	"fmt"
	"regexp"

	"github.com/lei/status-tracker/internal/models"
)

// DefaultTestPattern matches pytest result lines of the ray test suite.
// The first group is the test name, the second the outcome keyword.
const DefaultTestPattern = `(?m)^python/ray/tests/(.+::[^\s]+).*(PASSED|FAILED|SKIPPED|FLAKY|TIMEOUT).+`

// Logs this short (or the literal "null") carry no test output.
const minLogLength = 100

// LogParser extracts test results from a job log
type LogParser struct {
	re *regexp.Regexp
}

// NewLogParser compiles pattern, which must have exactly two groups
func NewLogParser(pattern string) (*LogParser, error) {
	if pattern == "" {
		pattern = DefaultTestPattern
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile test pattern: %w", err)
	}
	if re.NumSubexp() != 2 {
		return nil, fmt.Errorf("test pattern must have 2 groups (name, outcome), has %d", re.NumSubexp())
	}

	return &LogParser{re: re}, nil
}

// Parse returns every test line in log, in log order
func (p *LogParser) Parse(log string) []models.TestResult {
	if log == "null" || len(log) < minLogLength {
		return nil
	}

	matches := p.re.FindAllStringSubmatch(log, -1)
	results := make([]models.TestResult, 0, len(matches))
	for _, m := range matches {
		results = append(results, models.TestResult{
			Name:    m[1],
			Outcome: models.ParseOutcome(m[2]),
		})
	}

	return results
}
