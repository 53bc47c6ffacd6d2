package device

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestKeys(t *testing.T) {
	if got := DeviceKey("42"); got != "device:42" {
		t.Errorf("DeviceKey() = %q", got)
	}
	if got := GroupKey(7); got != "group:7" {
		t.Errorf("GroupKey() = %q", got)
	}
}

func TestStripKey(t *testing.T) {
	tests := map[string]string{
		"device:42":  "42",
		"device:abc": "abc",
		"group:7":    "7",
		"group:":     "",
		"dev":        "",
	}
	for key, want := range tests {
		if got := StripKey(key); got != want {
			t.Errorf("StripKey(%q) = %q, want %q", key, got, want)
		}
	}
}

func TestKeyIDs(t *testing.T) {
	keys := []string{"device:1", "group:2"}
	if got := keyIDs(keys, false); got[0] != "1" || got[1] != "2" {
		t.Errorf("keyIDs(strip) = %v", got)
	}
	raw := []string{"1", "abc"}
	if got := keyIDs(raw, true); got[0] != "1" || got[1] != "abc" {
		t.Errorf("keyIDs(raw) = %v", got)
	}
}

func TestDeviceIDJSON(t *testing.T) {
	var ids []DeviceID
	if err := json.Unmarshal([]byte(`["abc", 42, 7.5]`), &ids); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if len(ids) != 3 || ids[0] != "abc" || ids[1] != "42" || ids[2] != "7.5" {
		t.Errorf("ids = %v", ids)
	}

	var same []DeviceID
	if err := json.Unmarshal([]byte(`[1, 1.0, 1e0, "1", -3.0]`), &same); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	for i, got := range same[:4] {
		if got != "1" {
			t.Errorf("ids[%d] = %q, want 1", i, got)
		}
	}
	if same[4] != "-3" {
		t.Errorf("ids[4] = %q, want -3", same[4])
	}

	var id DeviceID
	if err := json.Unmarshal([]byte(`true`), &id); err == nil {
		t.Error("json.Unmarshal(true) expected error")
	}

	out, err := json.Marshal(DeviceID("42"))
	if err != nil || string(out) != `"42"` {
		t.Errorf("json.Marshal() = %s, %v; want \"42\"", out, err)
	}
}

func TestParseGroupID(t *testing.T) {
	if id, err := ParseGroupID("12"); err != nil || id != 12 {
		t.Errorf("ParseGroupID(12) = %d, %v", id, err)
	}
	for _, bad := range []string{"", "abc", "0", "-3"} {
		if _, err := ParseGroupID(bad); !errors.Is(err, ErrGroupNotFound) {
			t.Errorf("ParseGroupID(%q) error = %v, want ErrGroupNotFound", bad, err)
		}
	}
}

func TestDeviceIDValid(t *testing.T) {
	tests := []struct {
		id   DeviceID
		want bool
	}{
		{"42", true},
		{"abc-def", true},
		{"", false},
		{"a/b", false},
		{"+", false},
		{"led#1", false},
	}
	for _, tt := range tests {
		if got := tt.id.Valid(); got != tt.want {
			t.Errorf("DeviceID(%q).Valid() = %v, want %v", tt.id, got, tt.want)
		}
	}
}
