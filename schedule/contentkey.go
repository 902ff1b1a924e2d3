package schedule

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/bittoy/corpuspipe/pathconf"
)

// ContentKey captures a job's identity, inputs, and configuration
// sensitivity, used to decide whether to re-run it, per spec §4.E step 3.
type ContentKey struct {
	RuleID        string
	Bindings      map[string]interface{}
	InputStats    map[string]FileStat
	ModelVersions map[string]string
	ConfigSubtree map[string]interface{}
	RegistryHash  string // empty when --ignore-registry-hash is set
}

// FileStat captures the bits of an input file that invalidate a content key
// when they change.
type FileStat struct {
	ModTime int64
	Size    int64
}

// Digest returns a stable hex digest for the content key, used as the
// comparison value and as the persisted-store value.
func (k ContentKey) Digest() string {
	// sort map keys before hashing so the digest is deterministic
	// regardless of Go's randomised map iteration order.
	norm := struct {
		RuleID        string
		Bindings      string
		InputStats    string
		ModelVersions string
		ConfigSubtree string
		RegistryHash  string
	}{
		RuleID:        k.RuleID,
		Bindings:      stableJSON(k.Bindings),
		InputStats:    stableJSON(k.InputStats),
		ModelVersions: stableJSON(k.ModelVersions),
		ConfigSubtree: stableJSON(k.ConfigSubtree),
		RegistryHash:  k.RegistryHash,
	}
	h := sha256.New()
	enc := json.NewEncoder(h)
	_ = enc.Encode(norm)
	return hex.EncodeToString(h.Sum(nil))
}

func stableJSON(v interface{}) string {
	b, _ := json.Marshal(sortedAny(v))
	return string(b)
}

// sortedAny recursively converts maps into sorted-key slices of pairs so
// that json.Marshal output is deterministic regardless of map ordering.
func sortedAny(v interface{}) interface{} {
	switch vv := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(vv))
		for k := range vv {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]interface{}, 0, len(keys))
		for _, k := range keys {
			out = append(out, []interface{}{k, sortedAny(vv[k])})
		}
		return out
	case map[string]FileStat:
		keys := make([]string, 0, len(vv))
		for k := range vv {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]interface{}, 0, len(keys))
		for _, k := range keys {
			out = append(out, []interface{}{k, vv[k]})
		}
		return out
	case map[string]string:
		keys := make([]string, 0, len(vv))
		for k := range vv {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]interface{}, 0, len(keys))
		for _, k := range keys {
			out = append(out, []interface{}{k, vv[k]})
		}
		return out
	default:
		return v
	}
}

// StatInputs stats every input path, used to build ContentKey.InputStats.
func StatInputs(paths []string) map[string]FileStat {
	out := make(map[string]FileStat, len(paths))
	for _, p := range paths {
		st, err := os.Stat(p)
		if err != nil {
			out[p] = FileStat{}
			continue
		}
		out[p] = FileStat{ModTime: st.ModTime().UnixNano(), Size: st.Size()}
	}
	return out
}

// Store persists the output-path -> content-key digest map across runs, per
// spec §6 "work/.content-keys".
type Store struct {
	path string
	data map[string]string
}

func OpenStore(dirs pathconf.Dirs) (*Store, error) {
	path := dirs.ContentKeyFile()
	s := &Store{path: path, data: map[string]string{}}
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	} else if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(b, &s.data); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Get(outputPath string) (string, bool) {
	v, ok := s.data[outputPath]
	return v, ok
}

func (s *Store) Set(outputPath, digest string) {
	s.data[outputPath] = digest
}

// Flush writes the store atomically: write to a temp file, then rename into
// place, per spec §3 invariant "A rule's outputs are written atomically."
func (s *Store) Flush() error {
	b, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// IsFresh reports whether a job can be skipped: its persisted digest matches
// the freshly computed one, the output exists, and the output is newer than
// every input, per spec §4.E step 3 and §8 "Freshness is monotone".
func (s *Store) IsFresh(outputPath string, key ContentKey, inputPaths []string) bool {
	prev, ok := s.Get(outputPath)
	if !ok || prev != key.Digest() {
		return false
	}
	outStat, err := os.Stat(outputPath)
	if err != nil {
		return false
	}
	for _, in := range inputPaths {
		inStat, err := os.Stat(in)
		if err != nil {
			continue
		}
		if inStat.ModTime().After(outStat.ModTime()) {
			return false
		}
	}
	return true
}

// RegistryHash computes a stable digest over a registry's processor IDs,
// used to invalidate content keys when the set of registered processors
// changes, per SPEC_FULL.md's Open Question 2 resolution. Outputs and other
// processor metadata are not part of the digest.
func RegistryHash(processorIDs []string) string {
	sorted := append([]string(nil), processorIDs...)
	sort.Strings(sorted)
	h := sha256.New()
	for _, id := range sorted {
		fmt.Fprintln(h, id)
	}
	return hex.EncodeToString(h.Sum(nil))
}
