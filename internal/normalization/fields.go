package normalization

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// scalar decodes a JSON scalar into its string form.
// BigInt serialization wraps values as single-element arrays; those are unwrapped.
// Returns ok=false for null, empty arrays and missing values.
func scalar(raw json.RawMessage) (string, bool, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return "", false, err
	}

	if arr, isArr := v.([]interface{}); isArr {
		if len(arr) == 0 {
			return "", false, nil
		}
		if len(arr) > 1 {
			return "", false, fmt.Errorf("expected single-element array, got %d elements", len(arr))
		}
		v = arr[0]
	}

	switch x := v.(type) {
	case nil:
		return "", false, nil
	case string:
		return x, true, nil
	case json.Number:
		return x.String(), true, nil
	case bool:
		return strconv.FormatBool(x), true, nil
	default:
		return "", false, fmt.Errorf("expected scalar, got %T", v)
	}
}

// integer decodes a JSON integer (number, numeric string or [value]).
func integer(raw json.RawMessage) (int64, bool, error) {
	s, ok, err := scalar(raw)
	if err != nil || !ok {
		return 0, ok, err
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, true, fmt.Errorf("expected integer, got %q", s)
	}
	return n, true, nil
}
