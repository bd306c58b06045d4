package sqlite

import (
	"encoding/json"
	"strconv"

	"github.com/mesh-intelligence/termmeta/pkg/types"
)

// decodeFields converts a stored JSON object into TermMeta. Scalar values
// of any JSON type are accepted and rendered as strings, matching tables
// written by older tools that stored the legacy display flags as numbers.
// Returns false when raw is not a JSON object.
func decodeFields(raw json.RawMessage) (types.TermMeta, bool) {
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return nil, false
	}
	meta := make(types.TermMeta, len(obj))
	for field, v := range obj {
		switch val := v.(type) {
		case string:
			meta[field] = val
		case float64:
			meta[field] = strconv.FormatFloat(val, 'f', -1, 64)
		case bool:
			if val {
				meta[field] = "1"
			} else {
				meta[field] = ""
			}
		case nil:
			meta[field] = ""
		default:
			// Nested arrays and objects have no string form; keep the JSON.
			b, err := json.Marshal(val)
			if err != nil {
				continue
			}
			meta[field] = string(b)
		}
	}
	return meta, true
}

// decodeTable converts a serialized MetaTable. Entries whose key is not a
// term ID or whose value is not an object are skipped. A blob that is not
// a JSON object decodes to an empty table and false.
func decodeTable(blob []byte) (types.MetaTable, bool) {
	table := types.MetaTable{}
	if len(blob) == 0 {
		return table, true
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(blob, &raw); err != nil || raw == nil {
		return table, false
	}
	for key, entry := range raw {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil || id <= 0 {
			continue
		}
		meta, ok := decodeFields(entry)
		if !ok {
			continue
		}
		table[id] = meta
	}
	return table, true
}

// encodeTable serializes a MetaTable keyed by decimal term ID.
func encodeTable(table types.MetaTable) ([]byte, error) {
	out := make(map[string]types.TermMeta, len(table))
	for id, meta := range table {
		if meta == nil {
			meta = types.TermMeta{}
		}
		out[strconv.FormatInt(id, 10)] = meta
	}
	return json.Marshal(out)
}
