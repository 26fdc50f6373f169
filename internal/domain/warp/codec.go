package warp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/danghamo/warpgate/internal/domain/shared"
)

// record is the on-disk shape of one warp
type record struct {
	X json.RawMessage `json:"x"`
	Y json.RawMessage `json:"y"`
	Z json.RawMessage `json:"z"`
}

// Encode renders a dictionary as a warps document
func Encode(warps Dictionary) ([]byte, error) {
	doc := make(map[string]Point, len(warps))
	for name, p := range warps {
		doc[name] = p
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode warps: %w", err)
	}
	return data, nil
}

// Decode parses a warps document. Empty input is an empty dictionary; any
// entry with a missing or non-integer coordinate rejects the whole document.
// Names that collide after lowercasing keep the entry read last.
func Decode(data []byte) (Dictionary, error) {
	warps := Dictionary{}
	if len(bytes.TrimSpace(data)) == 0 {
		return warps, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, shared.ErrMalformedData("warps document", err)
	}
	switch tok {
	case nil:
		if err := trailing(dec); err != nil {
			return nil, err
		}
		return warps, nil
	case json.Delim('{'):
	default:
		return nil, shared.ErrMalformedData("warps document", fmt.Errorf("expected an object, got %v", tok))
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, shared.ErrMalformedData("warps document", err)
		}
		name, ok := tok.(string)
		if !ok {
			return nil, shared.ErrMalformedData("warps document", fmt.Errorf("unexpected token %v", tok))
		}

		var rec record
		if err := dec.Decode(&rec); err != nil {
			return nil, shared.ErrMalformedData(fmt.Sprintf("warp %q", name), err)
		}

		x, err := coordinate(name, "x", rec.X)
		if err != nil {
			return nil, err
		}
		y, err := coordinate(name, "y", rec.Y)
		if err != nil {
			return nil, err
		}
		z, err := coordinate(name, "z", rec.Z)
		if err != nil {
			return nil, err
		}

		warps[NormalizeName(name)] = shared.NewBlockPos(x, y, z)
	}

	// closing brace
	if _, err := dec.Token(); err != nil {
		return nil, shared.ErrMalformedData("warps document", err)
	}
	if err := trailing(dec); err != nil {
		return nil, err
	}
	return warps, nil
}

// trailing rejects anything after the top-level value
func trailing(dec *json.Decoder) error {
	if _, err := dec.Token(); err != io.EOF {
		if err == nil {
			err = fmt.Errorf("unexpected data after document")
		}
		return shared.ErrMalformedData("warps document", err)
	}
	return nil
}

// coordinate accepts only a bare JSON integer within int32 range
func coordinate(name, field string, raw json.RawMessage) (int, error) {
	source := fmt.Sprintf("warp %q field %s", name, field)
	if len(raw) == 0 {
		return 0, shared.ErrMalformedData(source, nil)
	}
	if c := raw[0]; c != '-' && (c < '0' || c > '9') {
		return 0, shared.ErrMalformedData(source, fmt.Errorf("not a number: %s", raw))
	}
	v, err := json.Number(raw).Int64()
	if err != nil {
		return 0, shared.ErrMalformedData(source, err)
	}
	if v < math.MinInt32 || v > math.MaxInt32 {
		return 0, shared.ErrMalformedData(source, fmt.Errorf("coordinate %d out of range", v))
	}
	return int(v), nil
}
