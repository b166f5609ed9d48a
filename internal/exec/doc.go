// Package exec implements the Executable Content interpreter (spec §4.5):
// raise/send/cancel/assign/script/log/if-elseif-else/foreach, run against a
// datamodel.Bridge. Grounded on the teacher's internal/extensibility/
// actionrunner.go (ActionRunner interface + LoggingActionRunner decorator)
// and guardevaluator.go (GuardEvaluator + ExpressionGuardEvaluator),
// generalized from ad hoc string evaluation to the flat Action tagged union
// (see DESIGN.md).
package exec
