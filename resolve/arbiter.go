package resolve

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/bittoy/corpuspipe/pathconf"
)

// Arbiter is the interactive-arbitration capability object, queried only
// when a UI front-end supplies one, per spec §9 "Interactive arbitration":
// "Put the interaction behind an explicit capability object ... non-
// interactive runs must fail with the corresponding error rather than
// guess." Grounded on the teacher's Callbacks/CallbackOption capability
// pattern (types/options.go).
type Arbiter interface {
	// ChooseClassProducer asks the user to pick one of the candidate
	// processor IDs as the canonical producer of class.
	ChooseClassProducer(class string, candidates []string) (string, error)
	// ChooseConflictOrder asks the user to order a set of equal-order
	// conflicting rule IDs, most-preferred first.
	ChooseConflictOrder(outputKey string, ruleIDs []string) ([]string, error)
}

// Decisions persists arbitration choices under <corpus>/.engine/decisions.toml
// so interactive choices are never re-asked, per spec §6 "Persisted state"
// and SPEC_FULL.md's Open Question 1 resolution.
type Decisions struct {
	ClassChoices    map[string]string   `toml:"class_choices"`
	ConflictChoices map[string][]string `toml:"conflict_choices"`
}

func LoadDecisions(dirs pathconf.Dirs) (*Decisions, error) {
	path := dirs.DecisionsFile()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Decisions{ClassChoices: map[string]string{}, ConflictChoices: map[string][]string{}}, nil
	} else if err != nil {
		return nil, err
	}
	var d Decisions
	if err := toml.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	if d.ClassChoices == nil {
		d.ClassChoices = map[string]string{}
	}
	if d.ConflictChoices == nil {
		d.ConflictChoices = map[string][]string{}
	}
	return &d, nil
}

func (d *Decisions) Save(dirs pathconf.Dirs) error {
	path := dirs.DecisionsFile()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(d)
}

// ConflictKey derives the stable key a conflict group is remembered under:
// its sorted rule IDs joined, so order of discovery never matters.
func ConflictKey(ruleIDs []string) string {
	sorted := append([]string(nil), ruleIDs...)
	sort.Strings(sorted)
	return strings.Join(sorted, "|")
}

// RememberingArbiter wraps a delegate Arbiter (or none) with a Decisions
// store: it replays a prior decision without asking again, only delegating
// (or failing) on first encounter.
type RememberingArbiter struct {
	Delegate  Arbiter
	Decisions *Decisions
	dirs      pathconf.Dirs
}

func NewRememberingArbiter(dirs pathconf.Dirs, delegate Arbiter, d *Decisions) *RememberingArbiter {
	return &RememberingArbiter{Delegate: delegate, Decisions: d, dirs: dirs}
}

func (a *RememberingArbiter) ChooseClassProducer(class string, candidates []string) (string, error) {
	if chosen, ok := a.Decisions.ClassChoices[class]; ok {
		return chosen, nil
	}
	if a.Delegate == nil {
		return "", ErrNonInteractive
	}
	chosen, err := a.Delegate.ChooseClassProducer(class, candidates)
	if err != nil {
		return "", err
	}
	a.Decisions.ClassChoices[class] = chosen
	_ = a.Decisions.Save(a.dirs)
	return chosen, nil
}

func (a *RememberingArbiter) ChooseConflictOrder(outputKey string, ruleIDs []string) ([]string, error) {
	key := ConflictKey(ruleIDs)
	if chosen, ok := a.Decisions.ConflictChoices[key]; ok {
		return chosen, nil
	}
	if a.Delegate == nil {
		return nil, ErrNonInteractive
	}
	chosen, err := a.Delegate.ChooseConflictOrder(outputKey, ruleIDs)
	if err != nil {
		return nil, err
	}
	a.Decisions.ConflictChoices[key] = chosen
	_ = a.Decisions.Save(a.dirs)
	return chosen, nil
}

// ErrNonInteractive is returned when an ambiguity arises and no interactive
// delegate is available.
var ErrNonInteractive = errNonInteractive{}

type errNonInteractive struct{}

func (errNonInteractive) Error() string { return "ambiguity requires interactive arbitration" }
