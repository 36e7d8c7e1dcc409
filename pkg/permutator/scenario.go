package permutator

import (
	"fmt"

	"github.com/xsimrunner/xsim/pkg/profile"
	"github.com/xsimrunner/xsim/pkg/target"
)

// Scenario is a named triple (name, field-list, value-list-per-field)
// the Permutator enumerates the cartesian product of (§4.4).
type Scenario struct {
	Name        string
	Descriptors []*BitDescriptor
}

// TotalBits is the sum of every descriptor's bit-width: the point
// index space is `[0, 2^TotalBits)`.
func (s *Scenario) TotalBits() int {
	total := 0
	for _, d := range s.Descriptors {
		total += d.Bits
	}
	return total
}

// DefaultScenario builds the six-field scenario named "default", used when
// `run` is invoked with no `field=values` arguments (§4.4,
// §6): `[hw_base_profile, os_base_profile, app_base_profile,
// flaw_base_profile, flaw_local, flaw_kernel]`, each enum field's
// values drawn from the ProfileStore's enumerated keys.
func DefaultScenario(store *profile.Store) *Scenario {
	return &Scenario{
		Name: "default",
		Descriptors: []*BitDescriptor{
			newEnumDescriptor("hw_base_profile", store.HardwareNames(),
				func(tgt *target.Target, v string) error { return tgt.SetHardware(v) },
				func(tgt *target.Target) string {
					if tgt.Derivable.Hardware == nil {
						return ""
					}
					return tgt.Derivable.Hardware.Name
				}),
			newEnumDescriptor("os_base_profile", store.OSNames(),
				func(tgt *target.Target, v string) error { return tgt.SetOS(v) },
				func(tgt *target.Target) string {
					if tgt.Derivable.OS == nil {
						return ""
					}
					return tgt.Derivable.OS.Name
				}),
			newEnumDescriptor("app_base_profile", store.ApplicationNames(),
				func(tgt *target.Target, v string) error { return tgt.SetApplication(v) },
				func(tgt *target.Target) string {
					if tgt.Derivable.Application == nil {
						return ""
					}
					return tgt.Derivable.Application.Name
				}),
			newEnumDescriptor("flaw_base_profile", store.FlawNames(),
				func(tgt *target.Target, v string) error { return tgt.SetFlaw(v) },
				func(tgt *target.Target) string {
					if tgt.Derivable.Flaw == nil {
						return ""
					}
					return tgt.Derivable.Flaw.Name
				}),
			newOverrideBoolDescriptor("flaw_local",
				func(tgt *target.Target) string {
					if tgt.Derivable.Flaw == nil {
						return "unset"
					}
					return boolString(tgt.Derivable.Flaw.Local)
				},
				func(tgt *target.Target, value bool) error {
					if tgt.Derivable.Flaw == nil {
						return target.NewIncompatibleTarget("flaw_local: no flaw assigned yet")
					}
					tgt.Derivable.Flaw.Local = value
					return nil
				}),
			newOverrideBoolDescriptor("flaw_kernel",
				func(tgt *target.Target) string {
					if tgt.Derivable.Application == nil {
						return "unset"
					}
					return boolString(tgt.Derivable.Application.Kernel)
				},
				func(tgt *target.Target, value bool) error {
					if tgt.Derivable.Application == nil {
						return target.NewIncompatibleTarget("flaw_kernel: no application assigned yet")
					}
					tgt.Derivable.Application.Kernel = value
					return nil
				}),
		},
	}
}

// ApplyOverrides returns a copy of scenario with each named field's
// value domain narrowed to the given list, matching the `run
// [OUTPUT_DIR] [FIELD=VAL,VAL,...]` CLI surface (§6). A field named in
// overrides that the scenario does not declare is an error.
func ApplyOverrides(scenario *Scenario, overrides map[string][]string) (*Scenario, error) {
	byName := make(map[string]*BitDescriptor, len(scenario.Descriptors))
	for _, d := range scenario.Descriptors {
		byName[d.Name] = d
	}
	for name := range overrides {
		if _, ok := byName[name]; !ok {
			return nil, fmt.Errorf("unknown scenario field %q", name)
		}
	}

	out := &Scenario{Name: scenario.Name, Descriptors: make([]*BitDescriptor, 0, len(scenario.Descriptors))}
	for _, d := range scenario.Descriptors {
		values, ok := overrides[d.Name]
		if !ok {
			out.Descriptors = append(out.Descriptors, d)
			continue
		}
		if len(values) == 0 {
			return nil, fmt.Errorf("field %q: empty value override", d.Name)
		}
		out.Descriptors = append(out.Descriptors, d.WithValues(values))
	}
	return out, nil
}

func boolString(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
