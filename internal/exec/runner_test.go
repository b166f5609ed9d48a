package exec

import (
	"testing"

	scxml "github.com/comalice/scxml/internal/model"
	"github.com/comalice/scxml/internal/datamodel"
	"github.com/stretchr/testify/require"
)

type fakeHost struct {
	raised  []string
	sent    []SendRequest
	cancels []string
	logs    []string
	errs    []error
}

func (f *fakeHost) Raise(name string, data any)   { f.raised = append(f.raised, name) }
func (f *fakeHost) Send(req SendRequest) error    { f.sent = append(f.sent, req); return nil }
func (f *fakeHost) Cancel(sendID string)          { f.cancels = append(f.cancels, sendID) }
func (f *fakeHost) Log(label, msg string)         { f.logs = append(f.logs, msg) }
func (f *fakeHost) RaiseError(t string, err error) { f.errs = append(f.errs, err) }

func newRunner(t *testing.T) (*Runner, *fakeHost, string) {
	t.Helper()
	b := datamodel.NewGojaBridge()
	require.NoError(t, b.CreateSession("s1", "m", nil))
	h := &fakeHost{}
	return New(b, h), h, "s1"
}

func TestRunnerRaise(t *testing.T) {
	r, h, sid := newRunner(t)
	r.RunBlock(sid, []scxml.Action{scxml.Raise("ping")})
	require.Equal(t, []string{"ping"}, h.raised)
}

func TestRunnerAssignAndLog(t *testing.T) {
	r, h, sid := newRunner(t)
	r.RunBlock(sid, []scxml.Action{
		scxml.Script("var x = 1;"),
		scxml.Assign("x", "x + 41"),
		scxml.Log("", "x"),
	})
	require.Empty(t, h.errs)
	require.Equal(t, []string{"42"}, h.logs)
}

func TestRunnerIfElse(t *testing.T) {
	r, h, sid := newRunner(t)
	r.RunBlock(sid, []scxml.Action{
		scxml.Script("var flag = false;"),
		scxml.If(
			scxml.IfBranch{Cond: "flag", Actions: []scxml.Action{scxml.Raise("yes")}},
			scxml.IfBranch{Cond: "", Actions: []scxml.Action{scxml.Raise("no")}},
		),
	})
	require.Equal(t, []string{"no"}, h.raised)
}

func TestRunnerForeach(t *testing.T) {
	r, h, sid := newRunner(t)
	r.RunBlock(sid, []scxml.Action{
		scxml.Script("var arr = [1,2,3]; var sum = 0;"),
		scxml.Foreach("arr", "item", "idx",
			scxml.Assign("sum", "sum + item"),
		),
		scxml.Log("", "sum"),
	})
	require.Empty(t, h.errs)
	require.Equal(t, []string{"6"}, h.logs)
}

func TestRunnerSendResolvesFields(t *testing.T) {
	r, h, sid := newRunner(t)
	r.RunBlock(sid, []scxml.Action{
		scxml.Script("var name = 'done';"),
		{Kind: scxml.ActionSend, EventExpr: "name", Target: "#_internal", Delay: "10ms"},
	})
	require.Len(t, h.sent, 1)
	require.Equal(t, "done", h.sent[0].Event)
	require.Equal(t, "#_internal", h.sent[0].Target)
}

func TestRunnerCancel(t *testing.T) {
	r, h, sid := newRunner(t)
	r.RunBlock(sid, []scxml.Action{scxml.Cancel("abc")})
	require.Equal(t, []string{"abc"}, h.cancels)
}

func TestRunnerBlockIsolationStopsOnError(t *testing.T) {
	r, h, sid := newRunner(t)
	r.RunBlock(sid, []scxml.Action{
		scxml.Assign("undeclared", "1"),
		scxml.Raise("unreached"),
	})
	require.Len(t, h.errs, 1)
	require.Empty(t, h.raised)
}
