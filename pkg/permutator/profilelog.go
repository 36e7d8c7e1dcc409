package permutator

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// InvalidProfileLine is raised by ParseProfileLog on a malformed
// profile-log entry (§6, §7). It is fatal: the profile-driven driver
// aborts rather than skipping the offending block.
type InvalidProfileLine struct {
	Line   string
	Reason string
}

func (e *InvalidProfileLine) Error() string {
	return fmt.Sprintf("invalid profile line %q: %s", e.Line, e.Reason)
}

func newInvalidProfileLine(line, reason string) error {
	return errors.WithStack(&InvalidProfileLine{Line: line, Reason: reason})
}

// IsInvalidProfileLine reports whether err is (or wraps) an
// InvalidProfileLine.
func IsInvalidProfileLine(err error) bool {
	var e *InvalidProfileLine
	return stderrors.As(err, &e)
}

// ProfileBlock is one `PROFILE: START` .. `PROFILE: END` pair: an
// ordered field=value assignment list naming one explicit scenario
// point, in assignment order (§6).
type ProfileBlock struct {
	Fields []string
	Values map[string][]string
}

// ParseProfileLog parses the `PROFILE: START` / `PROFILE:
// <option>=<value>` / `PROFILE: END` text format into one ProfileBlock
// per START/END pair. Blank lines and anything not prefixed `PROFILE:`
// are ignored, matching the teacher's permissive line-oriented parsers.
func ParseProfileLog(text string) ([]ProfileBlock, error) {
	var blocks []ProfileBlock
	var current *ProfileBlock

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || !strings.HasPrefix(line, "PROFILE:") {
			continue
		}
		body := strings.TrimSpace(strings.TrimPrefix(line, "PROFILE:"))

		switch {
		case body == "START":
			if current != nil {
				return nil, newInvalidProfileLine(line, "nested START before matching END")
			}
			current = &ProfileBlock{Values: make(map[string][]string)}
		case body == "END":
			if current == nil {
				return nil, newInvalidProfileLine(line, "END without matching START")
			}
			blocks = append(blocks, *current)
			current = nil
		default:
			if current == nil {
				return nil, newInvalidProfileLine(line, "assignment outside START/END block")
			}
			parts := strings.SplitN(body, "=", 2)
			if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
				return nil, newInvalidProfileLine(line, "expected <option>=<value>")
			}
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])
			if _, ok := current.Values[key]; ok {
				return nil, newInvalidProfileLine(line, fmt.Sprintf("option %q assigned twice in one block", key))
			}
			current.Fields = append(current.Fields, key)
			current.Values[key] = []string{value}
		}
	}

	if current != nil {
		return nil, newInvalidProfileLine("PROFILE: START", "unterminated block: missing PROFILE: END")
	}
	return blocks, nil
}

// ScenarioFor resolves one ProfileBlock into a fully narrowed Scenario
// over base (typically DefaultScenario(store)): every field the block
// names is pinned to its single value. Fields the block does not name
// keep base's full domain, so TotalBits is 0 and the Permutator walks
// exactly one point only when the block names every field.
func ScenarioFor(base *Scenario, block ProfileBlock, name string) (*Scenario, error) {
	scenario, err := ApplyOverrides(base, block.Values)
	if err != nil {
		return nil, err
	}
	scenario.Name = name
	return scenario, nil
}
