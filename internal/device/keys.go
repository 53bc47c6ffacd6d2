package device

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Store key layout.
const (
	DevicePrefix   = "device:"
	GroupPrefix    = "group:"
	NextGroupIDKey = "nextGroupId"
)

// DeviceID is an opaque device identifier. JSON input may carry it as a
// string or a number; it is always written back as a string.
type DeviceID string

// UnmarshalJSON accepts "abc" or 42. Integral numbers are normalised, so
// 1, 1.0 and 1e0 name the same device.
func (id *DeviceID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = DeviceID(s)
		return nil
	}

	var n json.Number
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		return fmt.Errorf("device id must be a string or number, got %s", data)
	}
	if i, err := n.Int64(); err == nil {
		*id = DeviceID(strconv.FormatInt(i, 10))
		return nil
	}
	if f, err := n.Float64(); err == nil && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		*id = DeviceID(strconv.FormatInt(int64(f), 10))
		return nil
	}
	*id = DeviceID(n.String())
	return nil
}

// Valid reports whether id can be used as a single MQTT topic segment:
// non-empty and free of the separator and both wildcards.
func (id DeviceID) Valid() bool {
	return id != "" && !strings.ContainsAny(string(id), "/+#")
}

// DeviceKey returns the store key holding a device's state.
func DeviceKey(id DeviceID) string {
	return DevicePrefix + string(id)
}

// GroupKey returns the store key holding a group record.
func GroupKey(id int64) string {
	return GroupPrefix + strconv.FormatInt(id, 10)
}

// StripKey recovers the identifier from a scanned key. Keys starting with
// 'd' are device keys; anything else is taken to be a group key.
func StripKey(key string) string {
	prefix := GroupPrefix
	if strings.HasPrefix(key, "d") {
		prefix = DevicePrefix
	}
	if len(key) < len(prefix) {
		return ""
	}
	return key[len(prefix):]
}

// keyIDs maps keys to identifiers. With raw set the keys are already bare
// identifiers and are returned unchanged.
func keyIDs(keys []string, raw bool) []string {
	ids := make([]string, len(keys))
	for i, k := range keys {
		if raw {
			ids[i] = k
		} else {
			ids[i] = StripKey(k)
		}
	}
	return ids
}

// ParseGroupID parses a group id taken from a request path. Anything that
// is not a positive integer cannot name a group.
func ParseGroupID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: %q", ErrGroupNotFound, s)
	}
	return id, nil
}
