// Package qr encodes a finalized report as scannable payload chunks under
// the P{i}/{n}:{data} convention understood by the scanning collaborator.
package qr

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DefaultChunkSize keeps each payload comfortably inside a single QR code.
const DefaultChunkSize = 512

// Encode marshals v and splits it into chunks of at most size bytes of
// data each. A payload that fits in one chunk is returned raw, without a
// part header.
func Encode(v any, size int) ([]string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshaling payload: %w", err)
	}
	if size <= 0 {
		size = DefaultChunkSize
	}
	if len(data) <= size {
		return []string{string(data)}, nil
	}

	n := (len(data) + size - 1) / size
	parts := make([]string, 0, n)
	for i := 0; i < n; i++ {
		start := i * size
		end := min(start+size, len(data))
		parts = append(parts, fmt.Sprintf("P%d/%d:%s", i+1, n, data[start:end]))
	}
	return parts, nil
}

// Decode reassembles parts (raw or chunked, in any order) and unmarshals
// the result into v. Mixed, duplicate, or incomplete part sets are
// rejected.
func Decode(parts []string, v any) error {
	if len(parts) == 0 {
		return fmt.Errorf("no payload parts")
	}

	if len(parts) == 1 && !strings.HasPrefix(parts[0], "P") {
		return json.Unmarshal([]byte(parts[0]), v)
	}

	total := 0
	chunks := map[int]string{}
	for _, p := range parts {
		var i, n int
		header, data, ok := strings.Cut(p, ":")
		if !ok {
			return fmt.Errorf("malformed part %q", truncate(p))
		}
		if _, err := fmt.Sscanf(header, "P%d/%d", &i, &n); err != nil {
			return fmt.Errorf("malformed part header %q", header)
		}
		if i < 1 || i > n {
			return fmt.Errorf("part index %d out of range 1..%d", i, n)
		}
		if total == 0 {
			total = n
		} else if n != total {
			return fmt.Errorf("inconsistent part count: %d vs %d", n, total)
		}
		if _, dup := chunks[i]; dup {
			return fmt.Errorf("duplicate part %d", i)
		}
		chunks[i] = data
	}
	if len(chunks) != total {
		return fmt.Errorf("incomplete payload: have %d of %d parts", len(chunks), total)
	}

	var b strings.Builder
	for i := 1; i <= total; i++ {
		b.WriteString(chunks[i])
	}
	return json.Unmarshal([]byte(b.String()), v)
}

func truncate(s string) string {
	if len(s) > 32 {
		return s[:32] + "..."
	}
	return s
}
