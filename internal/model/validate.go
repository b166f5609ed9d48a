package model

import "fmt"

// Validate checks the structural invariants the parser contract (spec §6)
// promises: unique state ids, transitions referencing existing states (or
// an empty target list), well-formed compound/parallel/history shape, and
// at most one shallow + one deep history per parent (spec §4.8). Adapted
// from the teacher's MachineConfig.Validate()/StateConfig.Validate()
// (reachability + target-existence walk), generalized to a real tree
// instead of a flat id-keyed map.
func (d *Document) Validate() error {
	if d.Root == nil {
		return fmt.Errorf("document has no root state")
	}
	if _, ok := d.ByID[d.Initial]; d.Initial != "" && !ok {
		return fmt.Errorf("initial state %q not found", d.Initial)
	}

	seen := make(map[string]bool)
	return d.validateState(d.Root, seen)
}

func (d *Document) validateState(s *State, seen map[string]bool) error {
	if s.ID == "" {
		return fmt.Errorf("state with empty id under parent %v", parentID(s))
	}
	if seen[s.ID] {
		return fmt.Errorf("duplicate state id %q", s.ID)
	}
	seen[s.ID] = true

	switch s.Kind {
	case Compound:
		if len(s.Children) == 0 {
			return fmt.Errorf("compound state %q requires children", s.ID)
		}
		if s.InitialState == "" && s.InitialTransition == nil {
			return fmt.Errorf("compound state %q requires an initial designator", s.ID)
		}
	case Parallel:
		if len(s.Children) < 2 {
			return fmt.Errorf("parallel state %q requires at least two regions", s.ID)
		}
	case HistoryShallow, HistoryDeep:
		if len(s.Children) > 0 {
			return fmt.Errorf("history state %q cannot have children", s.ID)
		}
	}

	shallow, deep := 0, 0
	for _, c := range s.Children {
		if c.Kind == HistoryShallow {
			shallow++
		}
		if c.Kind == HistoryDeep {
			deep++
		}
	}
	if shallow > 1 {
		return fmt.Errorf("state %q has more than one shallow-history child", s.ID)
	}
	if deep > 1 {
		return fmt.Errorf("state %q has more than one deep-history child", s.ID)
	}

	for _, t := range s.Transitions {
		for _, target := range t.Targets {
			if _, ok := d.ByID[target]; !ok {
				return fmt.Errorf("transition on state %q targets unknown state %q", s.ID, target)
			}
		}
	}

	for _, c := range s.Children {
		if err := d.validateState(c, seen); err != nil {
			return err
		}
	}
	return nil
}

func parentID(s *State) string {
	if s.Parent == nil {
		return "<root>"
	}
	return s.Parent.ID
}
