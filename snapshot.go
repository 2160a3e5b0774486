package tirta

import "encoding/json"

// Snapshot is a serializable mapping of a client's cache contents at a point
// in time. Produced once per server-rendered request, consumed once during
// hydration to seed a fresh client without re-fetching.
type Snapshot map[string]json.RawMessage

// Clone returns an independent copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	out := make(Snapshot, len(s))
	for k, v := range s {
		cp := make(json.RawMessage, len(v))
		copy(cp, v)
		out[k] = cp
	}
	return out
}

// Merge overlays other onto s; keys in other win.
func (s Snapshot) Merge(other Snapshot) {
	for k, v := range other {
		s[k] = v
	}
}

// Size returns the serialized byte size of the snapshot, used for metrics.
func (s Snapshot) Size() int {
	n := 0
	for k, v := range s {
		n += len(k) + len(v)
	}
	return n
}

// ParseSnapshot decodes a serialized snapshot, as embedded in a rendered
// page, back into a Snapshot for hydration.
func ParseSnapshot(data []byte) (Snapshot, error) {
	if len(data) == 0 {
		return Snapshot{}, nil
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	if s == nil {
		s = Snapshot{}
	}
	return s, nil
}
