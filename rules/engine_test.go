package rules

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/milk9111/rulesplayer/clock"
	"github.com/milk9111/rulesplayer/ecs"
	"github.com/milk9111/rulesplayer/serial"
)

const testBehaviorID = 99

type fakeHost struct {
	actors  map[ecs.ActorID]bool
	tags    map[string][]ecs.ActorID
	pos     map[ecs.ActorID][2]float64
	perform float64
	clk     *clock.Clock
	rng     *rand.Rand
}

func newFakeHost(actors ...ecs.ActorID) *fakeHost {
	h := &fakeHost{
		actors: make(map[ecs.ActorID]bool),
		tags:   make(map[string][]ecs.ActorID),
		pos:    make(map[ecs.ActorID][2]float64),
		clk:    clock.New(120, 4, 4),
		rng:    rand.New(rand.NewSource(1)),
	}
	for _, a := range actors {
		h.actors[a] = true
	}
	return h
}

func (h *fakeHost) HasActor(a ecs.ActorID) bool { return h.actors[a] }
func (h *fakeHost) PerformTime() float64        { return h.perform }
func (h *fakeHost) Clock() *clock.Clock         { return h.clk }
func (h *fakeHost) Rand() *rand.Rand            { return h.rng }

func (h *fakeHost) ActorTransform(a ecs.ActorID) (float64, float64, float64, bool) {
	p, ok := h.pos[a]
	return p[0], p[1], 0, ok
}

func (h *fakeHost) EachActorWithTag(tag string, fn func(ecs.ActorID)) {
	for _, a := range h.tags[tag] {
		fn(a)
	}
}

func (h *fakeHost) IndexActorWithTag(tag string, i int) ecs.ActorID {
	if i < 0 || i >= len(h.tags[tag]) {
		return ecs.NullActor
	}
	return h.tags[tag][i]
}

type testParams struct {
	Label string
}

func (p *testParams) Fields(f Fields) { f.String("label", &p.Label) }

var (
	testTrigger  = NewTriggerKind[testParams]("test")
	otherTrigger = NewTriggerKind[testParams]("other")
)

type record struct {
	actor ecs.ActorID
	label string
	at    float64
}

type recordResponse struct {
	BaseResponse
	Label string
	host  *fakeHost
	log   *[]record
}

func (r *recordResponse) Fields(f Fields) { f.String("label", &r.Label) }

func (r *recordResponse) Run(ctx *Context) {
	*r.log = append(*r.log, record{actor: ctx.ActorID, label: r.Label, at: r.host.perform})
}

type fireOtherResponse struct {
	BaseResponse
}

func (r *fireOtherResponse) Fields(Fields) {}

func (r *fireOtherResponse) Run(ctx *Context) {
	Fire(ctx.Engine(), otherTrigger, ctx.ActorID, Extras{})
}

// removeActorResponse drops an actor from the host, as a destroy would.
type removeActorResponse struct {
	BaseResponse
	Actor int
	host  *fakeHost
}

func (r *removeActorResponse) Fields(f Fields) { f.Int("actor", &r.Actor) }

func (r *removeActorResponse) Run(*Context) {
	delete(r.host.actors, ecs.ActorID(r.Actor))
}

type harness struct {
	host   *fakeHost
	engine *Engine
	log    []record
}

func newHarness(t *testing.T, actors ...ecs.ActorID) *harness {
	t.Helper()
	h := &harness{host: newFakeHost(actors...)}
	c := NewCatalog()
	RegisterCore(c)
	RegisterTrigger(c, testTrigger, testBehaviorID)
	RegisterTrigger(c, otherTrigger, testBehaviorID)
	c.RegisterResponse("record", testBehaviorID, func() Response {
		return &recordResponse{host: h.host, log: &h.log}
	})
	c.RegisterResponse("fire other", testBehaviorID, func() Response { return &fireOtherResponse{} })
	c.RegisterResponse("remove actor", testBehaviorID, func() Response { return &removeActorResponse{host: h.host} })
	h.engine = NewEngine(h.host, c)
	return h
}

// load reads a {"rules": [...]} document and attaches the rules to actor.
func (h *harness) load(t *testing.T, actor ecs.ActorID, src string) []Rule {
	t.Helper()
	doc, err := serial.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	arr, ok := doc.Reader().Field("rules")
	if !ok {
		t.Fatalf("missing rules")
	}
	rules := h.engine.LoadRules(arr)
	h.engine.Attach(actor, rules)
	return rules
}

func (h *harness) labels() []string {
	out := make([]string, len(h.log))
	for i, r := range h.log {
		out[i] = r.label
	}
	return out
}

func rule(trigger, response string) string {
	return fmt.Sprintf(`{"trigger": {"name": %q, "behaviorId": 99, "params": {}}, "response": %s}`, trigger, response)
}

func rec(label string) string {
	return fmt.Sprintf(`{"name": "record", "behaviorId": 99, "params": {"label": %q}}`, label)
}

func TestRepeatCappedAtMax(t *testing.T) {
	tests := []struct {
		name  string
		count string
		want  int
	}{
		{name: "three", count: "3", want: 3},
		{name: "zero", count: "0", want: 0},
		{name: "negative", count: "-4", want: 0},
		{name: "max", count: fmt.Sprint(MaxRepeats), want: MaxRepeats},
		{name: "over max", count: fmt.Sprint(MaxRepeats + 1000), want: MaxRepeats},
		{name: "beyond int range", count: "1e19", want: MaxRepeats},
		{name: "infinite", count: `{"expressionType": "^", "behaviorId": 16, "params": {"lhs": 10, "rhs": 400}}`, want: MaxRepeats},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, 1)
			resp := fmt.Sprintf(`{"name": "repeat", "behaviorId": 16, "params": {"count": %s, "body": %s}}`, tt.count, rec("x"))
			h.load(t, 1, `{"rules": [`+rule("test", resp)+`]}`)

			if !Fire(h.engine, testTrigger, 1, Extras{}) {
				t.Fatalf("expected trigger to fire")
			}
			h.engine.Drain()
			if len(h.log) != tt.want {
				t.Fatalf("expected %d runs, got %d", tt.want, len(h.log))
			}
		})
	}
}

func TestStopRepeatingEndsLoop(t *testing.T) {
	h := newHarness(t, 1)
	body := `{"name": "record", "behaviorId": 99, "params": {"label": "x", "nextResponse": {"name": "stop repeating", "behaviorId": 16, "params": {}}}}`
	h.load(t, 1, `{"rules": [`+rule("test", `{"name": "repeat", "behaviorId": 16, "params": {"count": 10, "body": `+body+`, "nextResponse": `+rec("after")+`}}`)+`]}`)

	Fire(h.engine, testTrigger, 1, Extras{})
	h.engine.Drain()
	if got := strings.Join(h.labels(), ","); got != "x,after" {
		t.Fatalf("expected x,after, got %s", got)
	}
}

func TestInfiniteRepeatDoesNotDrift(t *testing.T) {
	h := newHarness(t, 1)
	h.load(t, 1, `{"rules": [`+rule("test", `{"name": "infinite repeat", "behaviorId": 16, "params": {"interval": 1, "body": `+rec("tick")+`}}`)+`]}`)

	const dt = 0.013
	Fire(h.engine, testTrigger, 1, Extras{})
	for h.host.perform < 20 {
		h.engine.Drain()
		h.host.perform += dt
	}

	if len(h.log) < 20 || len(h.log) > 21 {
		t.Fatalf("expected about 20 ticks, got %d", len(h.log))
	}
	for i, r := range h.log {
		if late := r.at - float64(i); late < 0 || late > dt+1e-9 {
			t.Fatalf("tick %d at %.4f drifted by %.4f", i, r.at, late)
		}
	}
}

func TestActOnVisitsTaggedActorsAndRestores(t *testing.T) {
	h := newHarness(t, 1, 2, 3, 4)
	h.host.tags["enemy"] = []ecs.ActorID{2, 3, 4}
	resp := `{"name": "act on", "behaviorId": 16, "params": {"tag": "enemy", "body": ` + rec("body") + `, "nextResponse": ` + rec("after") + `}}`
	h.load(t, 1, `{"rules": [`+rule("test", resp)+`]}`)

	Fire(h.engine, testTrigger, 1, Extras{})
	h.engine.Drain()

	want := []ecs.ActorID{2, 3, 4, 1}
	if len(h.log) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(h.log))
	}
	for i, a := range want {
		if h.log[i].actor != a {
			t.Fatalf("record %d: expected actor %s, got %s", i, a, h.log[i].actor)
		}
	}
}

func TestActOnOtherUsesExtras(t *testing.T) {
	h := newHarness(t, 1, 2)
	resp := `{"name": "act on other", "behaviorId": 16, "params": {"body": ` + rec("body") + `, "nextResponse": ` + rec("after") + `}}`
	h.load(t, 1, `{"rules": [`+rule("test", resp)+`]}`)

	Fire(h.engine, testTrigger, 1, Extras{Other: 2})
	h.engine.Drain()
	if len(h.log) != 2 || h.log[0].actor != 2 || h.log[1].actor != 1 {
		t.Fatalf("unexpected records %+v", h.log)
	}
}

func TestActOnClosestPicksNearest(t *testing.T) {
	h := newHarness(t, 1, 2, 3)
	h.host.tags["coin"] = []ecs.ActorID{1, 2, 3}
	h.host.pos[1] = [2]float64{0, 0}
	h.host.pos[2] = [2]float64{5, 0}
	h.host.pos[3] = [2]float64{1, 1}
	resp := `{"name": "act on closest", "behaviorId": 16, "params": {"tag": "coin", "body": ` + rec("body") + `}}`
	h.load(t, 1, `{"rules": [`+rule("test", resp)+`]}`)

	Fire(h.engine, testTrigger, 1, Extras{})
	h.engine.Drain()
	if len(h.log) != 1 || h.log[0].actor != 3 {
		t.Fatalf("expected actor 3, got %+v", h.log)
	}
}

func TestWaitResumesAndDropsForRemovedActor(t *testing.T) {
	resp := `{"name": "wait", "behaviorId": 16, "params": {"duration": 1, "nextResponse": ` + rec("destroy") + `}}`
	tests := []struct {
		name   string
		remove bool
		want   int
	}{
		{name: "alive", want: 1},
		{name: "removed", remove: true, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, 1)
			h.load(t, 1, `{"rules": [`+rule("test", resp)+`]}`)

			h.host.perform = 2
			Fire(h.engine, testTrigger, 1, Extras{})
			h.engine.Drain()

			h.host.perform = 2.5
			h.engine.Drain()
			if len(h.log) != 0 {
				t.Fatalf("resumed early")
			}
			if tt.remove {
				delete(h.host.actors, 1)
			}
			h.host.perform = 3
			h.engine.Drain()
			if len(h.log) != tt.want {
				t.Fatalf("expected %d runs, got %d", tt.want, len(h.log))
			}
			if tt.want == 1 && h.log[0].at != 3 {
				t.Fatalf("expected resume at 3, got %v", h.log[0].at)
			}
			if h.engine.NumScheduled() != 0 {
				t.Fatalf("expected empty schedule, got %d", h.engine.NumScheduled())
			}
		})
	}
}

func TestBeatWaitUsesClock(t *testing.T) {
	h := newHarness(t, 1)
	resp := `{"name": "wait", "behaviorId": 16, "params": {"duration": 1, "intervalType": "beats", "nextResponse": ` + rec("beat") + `}}`
	h.load(t, 1, `{"rules": [`+rule("test", resp)+`]}`)

	Fire(h.engine, testTrigger, 1, Extras{})
	h.engine.Drain()

	// 120 bpm: one beat is half a second.
	h.host.clk.Update(0.4)
	h.engine.Drain()
	if len(h.log) != 0 {
		t.Fatalf("resumed before the beat")
	}
	h.host.clk.Update(0.11)
	h.engine.Drain()
	if len(h.log) != 1 {
		t.Fatalf("expected resume after one beat, got %d", len(h.log))
	}
}

func TestFireDuringDrainRunsNextDrain(t *testing.T) {
	h := newHarness(t, 1)
	h.load(t, 1, `{"rules": [`+
		rule("test", `{"name": "fire other", "behaviorId": 99, "params": {}}`)+`, `+
		rule("other", rec("other"))+`]}`)

	Fire(h.engine, testTrigger, 1, Extras{})
	h.engine.Drain()
	if len(h.log) != 0 || h.engine.NumScheduled() != 1 {
		t.Fatalf("expected one pending chain, got log=%d scheduled=%d", len(h.log), h.engine.NumScheduled())
	}
	h.engine.Drain()
	if len(h.log) != 1 {
		t.Fatalf("expected other rule to run, got %d", len(h.log))
	}
}

func TestFireIfFiltersEntries(t *testing.T) {
	h := newHarness(t, 1)
	h.load(t, 1, `{"rules": [
		{"trigger": {"name": "test", "behaviorId": 99, "params": {"label": "a"}}, "response": `+rec("a")+`},
		{"trigger": {"name": "test", "behaviorId": 99, "params": {"label": "b"}}, "response": `+rec("b")+`}
	]}`)

	FireIf(h.engine, testTrigger, 1, Extras{}, func(p *testParams) bool { return p.Label == "b" })
	h.engine.Drain()
	if got := strings.Join(h.labels(), ","); got != "b" {
		t.Fatalf("expected b, got %s", got)
	}
	if !HasTrigger(h.engine, testTrigger, 1) {
		t.Fatalf("expected trigger on actor 1")
	}
	h.engine.RemoveActorTriggers(1)
	if HasTrigger(h.engine, testTrigger, 1) {
		t.Fatalf("expected triggers removed")
	}
}

func TestIfTakesBranch(t *testing.T) {
	cond := `{"name": "expression meets condition", "behaviorId": 16, "params": {
		"lhs": {"expressionType": "+", "behaviorId": 16, "params": {"lhs": 1, "rhs": 2}},
		"comparison": %q, "value": 3}}`
	tests := []struct {
		op   string
		want string
	}{
		{op: CmpEqual, want: "then,after"},
		{op: CmpGreater, want: "else,after"},
	}
	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			h := newHarness(t, 1)
			resp := `{"name": "if", "behaviorId": 16, "params": {"condition": ` + fmt.Sprintf(cond, tt.op) +
				`, "then": ` + rec("then") + `, "else": ` + rec("else") + `, "nextResponse": ` + rec("after") + `}}`
			h.load(t, 1, `{"rules": [`+rule("test", resp)+`]}`)

			Fire(h.engine, testTrigger, 1, Extras{})
			h.engine.Drain()
			if got := strings.Join(h.labels(), ","); got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestUnknownNodesAreSkipped(t *testing.T) {
	h := newHarness(t, 1)
	rules := h.load(t, 1, `{"rules": [
		{"trigger": {"name": "nope", "behaviorId": 99, "params": {}}, "response": `+rec("a")+`},
		{"trigger": {"name": "test", "behaviorId": 99, "params": {}}, "response": {"name": "nope", "behaviorId": 99}},
		{"trigger": {"name": "test", "behaviorId": 99, "params": {}}, "response": `+rec("c")+`}
	]}`)
	if len(rules) != 1 {
		t.Fatalf("expected 1 loaded rule, got %d", len(rules))
	}
}

func TestUnknownResponseKeepsRestOfChain(t *testing.T) {
	h := newHarness(t, 1)
	c := `{"name": "record", "behaviorId": 99, "params": {"label": "c"}}`
	bad := `{"name": "no such thing", "behaviorId": 99, "params": {"nextResponse": ` + c + `}}`
	a := `{"name": "record", "behaviorId": 99, "params": {"label": "a", "nextResponse": ` + bad + `}}`
	h.load(t, 1, `{"rules": [`+rule("test", a)+`, `+rule("other", bad)+`]}`)

	Fire(h.engine, testTrigger, 1, Extras{})
	h.engine.Drain()
	if got := strings.Join(h.labels(), ","); got != "a,c" {
		t.Fatalf("expected a,c, got %s", got)
	}

	h.log = nil
	Fire(h.engine, otherTrigger, 1, Extras{})
	h.engine.Drain()
	if got := strings.Join(h.labels(), ","); got != "c" {
		t.Fatalf("expected c, got %s", got)
	}
}

func TestActOnEndsChainWhenActingActorRemoved(t *testing.T) {
	tests := []struct {
		name string
		form string
	}{
		{name: "act on", form: `"act on", "behaviorId": 16, "params": {"tag": "enemy", `},
		{name: "act on other", form: `"act on other", "behaviorId": 16, "params": {`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, 1, 2, 3)
			h.host.tags["enemy"] = []ecs.ActorID{2, 3}
			body := `{"name": "remove actor", "behaviorId": 99, "params": {"actor": 1, "nextResponse": ` + rec("body") + `}}`
			resp := `{"name": ` + tt.form + `"body": ` + body + `, "nextResponse": ` + rec("after") + `}}`
			h.load(t, 1, `{"rules": [`+rule("test", resp)+`]}`)

			Fire(h.engine, testTrigger, 1, Extras{Other: 2})
			h.engine.Drain()
			for _, r := range h.log {
				if r.actor == 1 {
					t.Fatalf("chain resumed on removed actor: %+v", h.log)
				}
			}
			if got := strings.Join(h.labels(), ","); strings.Contains(got, "after") {
				t.Fatalf("expected chain to end, got %s", got)
			}
		})
	}
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	c := NewCatalog()
	RegisterCore(c)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	c.RegisterResponse("wait", CoreBehaviorID, NewWait)
}
