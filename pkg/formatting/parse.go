package formatting

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrParseFailed is returned when a body cannot be decoded as JSON.
var ErrParseFailed = errors.New("failed to parse response")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Parse decodes data as JSON into T. Leading byte order marks and
// surrounding whitespace are ignored. Empty bodies and malformed JSON
// both return ErrParseFailed.
func Parse[T any](data []byte) (T, error) {
	var result T

	data = bytes.TrimPrefix(data, utf8BOM)
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return result, fmt.Errorf("%w: empty body", ErrParseFailed)
	}

	if err := json.Unmarshal(data, &result); err != nil {
		return result, fmt.Errorf("%w: %w", ErrParseFailed, err)
	}

	return result, nil
}
