package profile

import "sort"

// Store holds every built-in profile, loaded once at process start,
// keyed by symbolic name (§4.1). It is a plain value constructed once
// and passed by reference — there is no package-level singleton
// (Design Note 7).
type Store struct {
	hardware     map[string]*Hardware
	os           map[string]*OperatingSystem
	applications map[string]*Application
	flaws        map[string]*Flaw
	capabilities map[string]*Capabilities
	coreFlaws    map[string]bool
}

// NewStore loads every built-in profile into the five name->profile
// mappings plus the core-flaws subset.
func NewStore() *Store {
	s := &Store{
		hardware:     builtinHardware(),
		os:           builtinOS(),
		applications: builtinApplications(),
		flaws:        builtinFlaws(),
		capabilities: builtinCapabilities(),
	}
	s.coreFlaws = make(map[string]bool)
	for _, name := range coreFlawNames(s.flaws) {
		s.coreFlaws[name] = true
	}
	return s
}

// Hardware returns a clone of the named hardware profile for mutation,
// never the stored record itself (§4.1: "profiles are cloned on
// read-for-mutation").
func (s *Store) Hardware(name string) (*Hardware, bool) {
	h, ok := s.hardware[name]
	if !ok {
		return nil, false
	}
	return h.Clone(), true
}

func (s *Store) OS(name string) (*OperatingSystem, bool) {
	o, ok := s.os[name]
	if !ok {
		return nil, false
	}
	return o.Clone(), true
}

func (s *Store) Application(name string) (*Application, bool) {
	a, ok := s.applications[name]
	if !ok {
		return nil, false
	}
	return a.Clone(), true
}

func (s *Store) Flaw(name string) (*Flaw, bool) {
	f, ok := s.flaws[name]
	if !ok {
		return nil, false
	}
	return f.Clone(), true
}

func (s *Store) Capabilities(name string) (*Capabilities, bool) {
	c, ok := s.capabilities[name]
	if !ok {
		return nil, false
	}
	return c.Clone(), true
}

// sortedKeys returns m's keys in lexicographic order, the shared
// helper behind every `list` subcommand and the default Permutator
// field enumeration (§6).
func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (s *Store) HardwareNames() []string     { return sortedKeys(s.hardware) }
func (s *Store) OSNames() []string           { return sortedKeys(s.os) }
func (s *Store) ApplicationNames() []string  { return sortedKeys(s.applications) }
func (s *Store) FlawNames() []string         { return sortedKeys(s.flaws) }
func (s *Store) CapabilityNames() []string   { return sortedKeys(s.capabilities) }

// CoreFlawNames returns the flaw subset excluding second-order derived
// variants (§4.1).
func (s *Store) CoreFlawNames() []string {
	out := make([]string, 0, len(s.coreFlaws))
	for name := range s.coreFlaws {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// FlawEnables returns the other flaw variants reachable from name via
// the Enables list (§3), resolving clones so callers never see the
// stored record.
func (s *Store) FlawEnables(name string) []string {
	f, ok := s.flaws[name]
	if !ok {
		return nil
	}
	return append([]string(nil), f.Enables...)
}
