package stages

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/custodia-labs/studypipe/internal/core/domain"
)

// ExtractJSONList pulls the bracketed list out of free-form oracle output.
//
// The candidate runs from the first '[' to the last ']' so that commentary
// and code fences around the list are discarded. The candidate must be valid
// JSON. Missing or unmatched brackets fail with domain.ErrArtifactFormat.
func ExtractJSONList(raw string) (string, error) {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end < start {
		return "", fmt.Errorf("%w: no bracketed list in output", domain.ErrArtifactFormat)
	}

	candidate := raw[start : end+1]
	if !json.Valid([]byte(candidate)) {
		return "", fmt.Errorf("%w: bracketed list is not valid JSON", domain.ErrArtifactFormat)
	}
	return candidate, nil
}

// record is a generated artifact entry.
type record interface {
	Validate() error
}

// DecodeList decodes a JSON list and validates every entry. Fields the
// entry type does not declare are rejected, so one artifact's shape is never
// accepted as another's. An empty list, a non-list, or any invalid entry
// fails with domain.ErrArtifactFormat.
func DecodeList[T record](list string) ([]T, error) {
	dec := json.NewDecoder(strings.NewReader(list))
	dec.DisallowUnknownFields()

	var items []T
	if err := dec.Decode(&items); err != nil {
		return nil, fmt.Errorf("%w: decode list: %v", domain.ErrArtifactFormat, err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: list is empty", domain.ErrArtifactFormat)
	}
	for i, item := range items {
		if err := item.Validate(); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", domain.ErrArtifactFormat, i, err)
		}
	}
	return items, nil
}

// ParseList extracts, decodes and validates a list from oracle output.
// It returns the decoded entries and the JSON text to persist.
func ParseList[T record](raw string) ([]T, string, error) {
	list, err := ExtractJSONList(raw)
	if err != nil {
		return nil, "", err
	}
	items, err := DecodeList[T](list)
	if err != nil {
		return nil, "", err
	}
	return items, list, nil
}
