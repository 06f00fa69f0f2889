package criteria

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Plan is the outcome of the read-only validation phase: the full write-set
// plus the rejected entries. Nothing has touched storage yet.
type Plan struct {
	Entries []Criterion
	Errors  []EntryError
}

var commonKeys = []string{"type", "description", "bonus", "ta_visible", "peer_visible"}

// entryRule validates one variant. Rubric tolerates max_mark so an exported
// document imports unchanged; the value must be a number but the max is
// always derived from the levels.
type entryRule struct {
	allowed  []string
	required []string
	build    func(f fields, c *Criterion, p Policy) error
}

var rules = map[Kind]entryRule{
	KindRubric: {
		allowed:  append([]string{"levels", "max_mark"}, commonKeys...),
		required: []string{"type", "levels"},
		build:    buildRubric,
	},
	KindFlexible: {
		allowed:  append([]string{"max_mark"}, commonKeys...),
		required: []string{"type", "max_mark"},
		build:    buildMarked,
	},
	KindCheckbox: {
		allowed:  append([]string{"max_mark"}, commonKeys...),
		required: []string{"type", "max_mark"},
		build:    buildMarked,
	},
}

// Validate parses a criteria document and checks every entry. Entries that
// fail are reported and skipped; survivors get dense positions 1..N in
// document order.
func Validate(data []byte, p Policy) (Plan, error) {
	entries, err := parseDocument(data)
	if err != nil {
		return Plan{}, err
	}
	p = p.normalized()

	var plan Plan
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		key := strings.ToLower(e.Name)
		c, err := validateEntry(e, p)
		if err == nil && seen[key] {
			err = invalid(e.Name, "duplicate criterion name")
		}
		if err != nil {
			plan.Errors = append(plan.Errors, EntryError{Name: e.Name, Reason: ReasonInvalidFormat, Detail: err.Error()})
			continue
		}
		seen[key] = true
		c.Position = len(plan.Entries) + 1
		plan.Entries = append(plan.Entries, c)
	}
	return plan, nil
}

func validateEntry(e rawEntry, p Policy) (Criterion, error) {
	if e.Name == "" {
		return Criterion{}, invalid(e.Name, "missing criterion name")
	}
	f, err := mappingFields(e.Node)
	if err != nil {
		return Criterion{}, invalid(e.Name, "%v", err)
	}
	if !f.has("type") {
		return Criterion{}, invalid(e.Name, "missing type")
	}
	typ, err := scalarString(f["type"])
	if err != nil {
		return Criterion{}, invalid(e.Name, "type: %v", err)
	}
	kind, ok := ParseKind(typ)
	if !ok {
		return Criterion{}, invalid(e.Name, "unknown type %q", typ)
	}
	rule := rules[kind]
	if err := f.checkKeys(rule.allowed, rule.required); err != nil {
		return Criterion{}, invalid(e.Name, "%v", err)
	}

	c := Criterion{
		Name:        e.Name,
		Kind:        kind,
		TAVisible:   p.DefaultTAVisible,
		PeerVisible: p.DefaultPeerVisible,
	}
	if err := rule.build(f, &c, p); err != nil {
		return Criterion{}, invalid(e.Name, "%v", err)
	}
	if err := applyCommon(f, &c); err != nil {
		return Criterion{}, invalid(e.Name, "%v", err)
	}
	if !c.TAVisible && !c.PeerVisible {
		return Criterion{}, invalid(e.Name, "criterion must be visible to TAs or peers")
	}
	return c, nil
}

func applyCommon(f fields, c *Criterion) error {
	var err error
	if c.Description, err = scalarString(f["description"]); err != nil {
		return fmt.Errorf("description: %w", err)
	}
	flags := []struct {
		key string
		dst *bool
	}{
		{"bonus", &c.Bonus},
		{"ta_visible", &c.TAVisible},
		{"peer_visible", &c.PeerVisible},
	}
	for _, fl := range flags {
		n, ok := f[fl.key]
		if !ok {
			continue
		}
		v, err := scalarBool(n)
		if err != nil {
			return fmt.Errorf("%s: %w", fl.key, err)
		}
		*fl.dst = v
	}
	return nil
}

func buildMarked(f fields, c *Criterion, p Policy) error {
	v, err := scalarNumber(f["max_mark"])
	if err != nil {
		return fmt.Errorf("max_mark: %w", err)
	}
	v = roundMark(v, p.MarkPrecision)
	if v <= 0 {
		return errors.New("max_mark must be positive")
	}
	c.MaxMark = v
	return nil
}

func buildRubric(f fields, c *Criterion, p Policy) error {
	if n, ok := f["max_mark"]; ok {
		v, err := scalarNumber(n)
		if err != nil {
			return fmt.Errorf("max_mark: %w", err)
		}
		if v < 0 {
			return errors.New("max_mark is negative")
		}
	}
	levels, err := parseLevels(f["levels"])
	if err != nil {
		return fmt.Errorf("levels: %w", err)
	}
	if err := checkLevels(levels, p.MinRubricLevels); err != nil {
		return fmt.Errorf("levels: %w", err)
	}
	top := 0.0
	for _, l := range levels {
		if l.Mark > top {
			top = l.Mark
		}
	}
	top = roundMark(top, p.MarkPrecision)
	if top <= 0 {
		return errors.New("levels: highest mark must be positive")
	}
	c.Levels = levels
	c.MaxMark = top
	return nil
}

// parseLevels accepts the export form (name -> {description, mark}) and a
// list form ([{name, description, mark}]). Both keep document order.
func parseLevels(n *yaml.Node) ([]Level, error) {
	if isNull(n) {
		return nil, errors.New("missing")
	}
	var out []Level
	switch n.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := resolve(n.Content[i])
			if k == nil || k.Kind != yaml.ScalarNode {
				return nil, errors.New("level names must be scalars")
			}
			l, err := parseLevel(k.Value, resolve(n.Content[i+1]), false)
			if err != nil {
				return nil, err
			}
			out = append(out, l)
		}
	case yaml.SequenceNode:
		for _, item := range n.Content {
			l, err := parseLevel("", resolve(item), true)
			if err != nil {
				return nil, err
			}
			out = append(out, l)
		}
	default:
		return nil, errors.New("expected a mapping or a list")
	}
	return out, nil
}

// checkLevels holds the rules every stored rubric scale obeys, so that an
// exported scale always parses back. Names are compared as written.
func checkLevels(levels []Level, minLevels int) error {
	if len(levels) == 0 {
		return errors.New("empty")
	}
	if len(levels) < minLevels {
		return fmt.Errorf("need at least %d, got %d", minLevels, len(levels))
	}
	seen := make(map[string]bool, len(levels))
	for _, l := range levels {
		if l.Name == "" {
			return errors.New("level name is blank")
		}
		if seen[l.Name] {
			return fmt.Errorf("duplicate level %q", l.Name)
		}
		seen[l.Name] = true
		if l.Mark < 0 {
			return fmt.Errorf("level %q mark is negative", l.Name)
		}
	}
	return nil
}

func parseLevel(name string, n *yaml.Node, named bool) (Level, error) {
	f, err := mappingFields(n)
	if err != nil {
		return Level{}, fmt.Errorf("level %q: %w", name, err)
	}
	allowed := []string{"description", "mark"}
	if named {
		allowed = append(allowed, "name")
	}
	if err := f.checkKeys(allowed, allowed); err != nil {
		return Level{}, fmt.Errorf("level %q: %w", name, err)
	}
	if named {
		if name, err = scalarString(f["name"]); err != nil {
			return Level{}, fmt.Errorf("level name: %w", err)
		}
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Level{}, errors.New("level name is blank")
	}
	desc, err := scalarString(f["description"])
	if err != nil {
		return Level{}, fmt.Errorf("level %q description: %w", name, err)
	}
	mark, err := scalarNumber(f["mark"])
	if err != nil {
		return Level{}, fmt.Errorf("level %q mark: %w", name, err)
	}
	if mark < 0 {
		return Level{}, fmt.Errorf("level %q mark is negative", name)
	}
	return Level{Name: name, Description: desc, Mark: mark}, nil
}
