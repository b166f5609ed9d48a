// Package config implements the Configuration Manager (spec §4.4, §4.8):
// entry/exit order computation, compound/parallel/history completion rules,
// and history recording/restoration. Grounded on the teacher's
// internal/core/interpreter.go (computeLCCA/getExitStates/getEntryStates/
// resolveInitialLeaf) and internal/core/machine_helper.go (ancestor path
// cache), generalized from a flat path-indexed machine to the full tree of
// compound/parallel/history states (see DESIGN.md).
package config
