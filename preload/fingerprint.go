package preload

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// Fingerprint computes a content hash over a processor's resolved
// preloader_params, per spec §4.F "Configuration consistency": "The
// preloader carries a fingerprint (hash of preloader-binding parameters)."
func Fingerprint(params map[string]interface{}) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ordered := make([][2]interface{}, 0, len(keys))
	for _, k := range keys {
		ordered = append(ordered, [2]interface{}{k, params[k]})
	}

	b, _ := json.Marshal(ordered)
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}
