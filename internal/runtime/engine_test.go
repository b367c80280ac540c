package runtime_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/murmur/internal/runtime"
	"github.com/aretw0/murmur/pkg/adapters/memory"
	"github.com/aretw0/murmur/pkg/domain"
	"github.com/aretw0/murmur/pkg/processor"
	"github.com/aretw0/murmur/pkg/reveal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildGraph(t *testing.T) *memory.Graph {
	t.Helper()
	g, err := memory.NewBuilder().
		Add("intro", memory.Lines("en", "Hello.", "Welcome back.")...).
		Add("forest", memory.Lines("en", "Trees everywhere.")...).
		Add("crossroads", memory.Lines("en", "Which way?")...).
		AddBranch("left", memory.Lines("en", "Go left")...).
		AddBranch("right", memory.Lines("en", "Go right")...).
		Add("lake", memory.Lines("en", "A quiet lake.")...).
		Add("talk", memory.Lines("en", "A", "B", "C")...).
		Add("greet", memory.Lines("en", "Hi {0}.", "Bye {0}.")...).
		Add("door", memory.Lines("en", "Knock knock.")...).
		AddBranch("answer", memory.Lines("en", "Who's there?")...).
		Link("intro", "forest").
		Link("crossroads", "left", "right").
		Link("left", "lake").
		Link("door", "answer").
		Build()
	require.NoError(t, err)
	return g
}

type fixture struct {
	engine   *runtime.Engine
	main     *memory.Buffer
	branches []*memory.Buffer
}

// newFixture builds an engine whose slots have no readers: text lands at once.
func newFixture(t *testing.T, slots int, opts ...runtime.EngineOption) *fixture {
	t.Helper()
	f := &fixture{main: memory.NewBuffer()}
	branchSlots := make([]runtime.Slot, slots)
	for i := range branchSlots {
		buf := memory.NewBuffer()
		f.branches = append(f.branches, buf)
		branchSlots[i] = runtime.Slot{Target: buf}
	}

	e, err := runtime.NewEngine(buildGraph(t), runtime.Slot{Target: f.main}, branchSlots, opts...)
	require.NoError(t, err)
	f.engine = e
	return f
}

// newReaderFixture builds an engine whose slots reveal one character per delay.
func newReaderFixture(t *testing.T, slots int, delay time.Duration) *fixture {
	t.Helper()
	newSlot := func() (runtime.Slot, *memory.Buffer) {
		buf := memory.NewBuffer()
		r, err := reveal.New(buf, reveal.WithDefaultDelay(delay))
		require.NoError(t, err)
		return runtime.Slot{Reader: r}, buf
	}

	f := &fixture{}
	var main runtime.Slot
	main, f.main = newSlot()
	branchSlots := make([]runtime.Slot, slots)
	for i := range branchSlots {
		var buf *memory.Buffer
		branchSlots[i], buf = newSlot()
		f.branches = append(f.branches, buf)
	}

	e, err := runtime.NewEngine(buildGraph(t), main, branchSlots)
	require.NoError(t, err)
	f.engine = e
	return f
}

func (f *fixture) settle(t *testing.T) {
	t.Helper()
	for i := 0; i < 1000; i++ {
		f.engine.Tick(time.Millisecond)
		if f.engine.HasFinishedReading() {
			return
		}
	}
	t.Fatal("engine did not finish reading")
}

func requireStep(t *testing.T, ok bool, err error) {
	t.Helper()
	require.NoError(t, err)
	require.True(t, ok)
}

func TestNewEngine_Validation(t *testing.T) {
	g := buildGraph(t)

	_, err := runtime.NewEngine(nil, runtime.Slot{Target: memory.NewBuffer()}, nil)
	assert.Error(t, err)

	_, err = runtime.NewEngine(g, runtime.Slot{}, nil)
	assert.ErrorIs(t, err, domain.ErrMissingTarget)

	_, err = runtime.NewEngine(g, runtime.Slot{Target: memory.NewBuffer()}, []runtime.Slot{{}})
	assert.ErrorIs(t, err, domain.ErrMissingTarget)
}

func TestEngine_IntroForestScenario(t *testing.T) {
	f := newReaderFixture(t, 2, time.Millisecond)
	e := f.engine

	require.NoError(t, e.StartDialogue("intro"))
	assert.False(t, e.HasFinishedReading())
	f.settle(t)
	assert.Equal(t, "Hello.", f.main.Text())
	afterStart := e.Current()

	ok, err := e.Advance()
	requireStep(t, ok, err)
	f.settle(t)
	assert.Equal(t, "Welcome back.", f.main.Text())

	ok, err = e.Advance()
	requireStep(t, ok, err)
	f.settle(t)
	assert.Equal(t, "Trees everywhere.", f.main.Text())
	assert.Len(t, e.History(), 2, "one history entry per forward step")

	ok, err = e.StepBack()
	requireStep(t, ok, err)
	f.settle(t)
	assert.Equal(t, &domain.ProcessedDialogue{NodeID: "intro", ContentIndex: 1, Body: "Welcome back.", Slot: domain.MainSlot}, e.Current())
	assert.Equal(t, "", f.main.Text(), "stepping back hides the restored dialogue")

	ok, err = e.StepBack()
	requireStep(t, ok, err)
	f.settle(t)

	ok, err = e.StepBack()
	require.NoError(t, err)
	assert.False(t, ok, "history is exhausted")

	assert.Equal(t, afterStart, e.Current())
	assert.Empty(t, e.History())
	assert.Equal(t, "", f.main.Text())

	for _, b := range f.branches {
		assert.Equal(t, "", b.Text(), "branch slots are never touched")
	}
}

func TestEngine_StepBackRestoresIdenticalContent(t *testing.T) {
	f := newFixture(t, 0)
	e := f.engine

	require.NoError(t, e.StartDialogue("greet", runtime.WithProcessors(processor.Variables("Ada"))))
	first := e.Current()
	assert.Equal(t, "Hi Ada.", first.Body)

	ok, err := e.Advance(processor.Variables("Bob"))
	requireStep(t, ok, err)
	assert.Equal(t, 1, e.Current().ContentIndex)
	assert.Equal(t, "Bye Bob.", f.main.Text())

	ok, err = e.ReadPrevious()
	requireStep(t, ok, err)
	assert.Equal(t, first, e.Current())
	assert.Equal(t, "Hi Ada.", f.main.Text())
}

func TestEngine_AdvancePresentsChildrenInBranchSlots(t *testing.T) {
	f := newFixture(t, 3)
	e := f.engine
	f.branches[2].SetText("untouched")

	require.NoError(t, e.StartDialogue("crossroads"))
	assert.Equal(t, "Which way?", f.main.Text())

	ok, err := e.Advance()
	requireStep(t, ok, err)

	assert.Equal(t, "Which way?", f.main.Text(), "main slot is left as is")
	assert.Equal(t, "Go left", f.branches[0].Text())
	assert.Equal(t, "Go right", f.branches[1].Text())
	assert.Equal(t, "untouched", f.branches[2].Text())

	left, err := e.BranchDialogue(0)
	require.NoError(t, err)
	assert.Equal(t, "left", left.NodeID)
	empty, err := e.BranchDialogue(2)
	require.NoError(t, err)
	assert.Nil(t, empty)

	assert.Equal(t, "right", e.Current().NodeID, "last presented child is current")
	assert.Len(t, e.History(), 1, "a fan-out is a single forward step")
}

func TestEngine_FanOutDropsExtraChildren(t *testing.T) {
	f := newFixture(t, 1)

	require.NoError(t, f.engine.StartDialogue("crossroads"))
	ok, err := f.engine.Advance()
	requireStep(t, ok, err)

	assert.Equal(t, "Go left", f.branches[0].Text())
	assert.Equal(t, "left", f.engine.Current().NodeID)
}

func TestEngine_FanOutWithoutBranchSlots(t *testing.T) {
	f := newFixture(t, 0)

	require.NoError(t, f.engine.StartDialogue("crossroads"))
	_, err := f.engine.Advance()
	assert.ErrorIs(t, err, domain.ErrIndexOutOfRange)
	assert.Empty(t, f.engine.History(), "failed navigation leaves the history untouched")
}

func TestEngine_SelectBranchAndStepBack(t *testing.T) {
	f := newFixture(t, 2)
	e := f.engine

	require.NoError(t, e.StartDialogue("crossroads"))
	ok, err := e.Advance()
	requireStep(t, ok, err)

	ok, err = e.SelectBranch(0)
	requireStep(t, ok, err)

	assert.Equal(t, "A quiet lake.", f.main.Text())
	assert.Equal(t, "Go left", f.branches[0].Text(), "selected slot keeps its text")
	assert.Equal(t, "", f.branches[1].Text(), "other slots are reset")
	assert.Equal(t, "lake", e.Current().NodeID)

	history := e.History()
	require.Len(t, history, 2)
	assert.Equal(t, "crossroads", history[0].NodeID)
	assert.Equal(t, "left", history[1].NodeID)
	assert.True(t, history[1].IsBranch)

	// Undo the selection: the choices come back.
	ok, err = e.ReadPrevious()
	requireStep(t, ok, err)
	assert.Equal(t, "Which way?", f.main.Text())
	assert.Equal(t, "Go left", f.branches[0].Text())
	assert.Equal(t, "Go right", f.branches[1].Text())
	assert.Equal(t, "right", e.Current().NodeID)
	assert.Len(t, e.History(), 1)

	// Undo the fan-out: back to the crossroads, choices cleared.
	ok, err = e.ReadPrevious()
	requireStep(t, ok, err)
	assert.Equal(t, "Which way?", f.main.Text())
	assert.Equal(t, "", f.branches[0].Text())
	assert.Equal(t, "", f.branches[1].Text())
	assert.Equal(t, "crossroads", e.Current().NodeID)
	assert.Empty(t, e.History())
}

func TestEngine_SelectBranchDeadEnds(t *testing.T) {
	f := newFixture(t, 3)
	e := f.engine

	require.NoError(t, e.StartDialogue("crossroads"))
	ok, err := e.Advance()
	requireStep(t, ok, err)

	for name, slot := range map[string]int{"Negative": -1, "Out Of Range": 3, "Empty Slot": 2, "Childless Node": 1} {
		t.Run(name, func(t *testing.T) {
			ok, err := e.SelectBranch(slot)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
	assert.Len(t, e.History(), 1)
}

func TestEngine_DescendIntoSingleBranchChild(t *testing.T) {
	f := newFixture(t, 2)
	e := f.engine

	require.NoError(t, e.StartDialogue("door"))
	ok, err := e.Advance()
	requireStep(t, ok, err)

	assert.Equal(t, "Knock knock.", f.main.Text())
	assert.Equal(t, "Who's there?", f.branches[0].Text())
	assert.Equal(t, 0, e.Current().Slot)
}

func TestEngine_ConcatenateAdvance(t *testing.T) {
	f := newFixture(t, 0)
	e := f.engine

	require.NoError(t, e.StartDialogue("talk"))

	ok, err := e.ConcatenateAdvance(", ")
	requireStep(t, ok, err)
	assert.Equal(t, "A, B", f.main.Text())

	ok, err = e.ConcatenateAdvance("; ")
	requireStep(t, ok, err)
	assert.Equal(t, "A, B; C", f.main.Text())

	current := e.Current()
	assert.True(t, current.Concatenated)
	assert.Equal(t, "; ", current.Separator)
	text, err := e.Displayed(domain.MainSlot)
	require.NoError(t, err)
	assert.Equal(t, "A, B; C", text)

	ok, err = e.ReadPrevious()
	requireStep(t, ok, err)
	assert.Equal(t, "A, B", f.main.Text(), "the chain before B is rebuilt from history")

	ok, err = e.ReadPrevious()
	requireStep(t, ok, err)
	assert.Equal(t, "A", f.main.Text())
	assert.False(t, e.Current().Concatenated)
}

func TestEngine_ConcatenationAcrossNodes(t *testing.T) {
	f := newFixture(t, 0)
	e := f.engine

	require.NoError(t, e.StartDialogue("intro", runtime.AtContent(1)))
	ok, err := e.ConcatenateAdvance(" ")
	requireStep(t, ok, err)
	assert.Equal(t, "Welcome back. Trees everywhere.", f.main.Text())

	ok, err = e.Advance()
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = e.StepBack()
	requireStep(t, ok, err)
	assert.Equal(t, "", f.main.Text(), "hidden after stepping back")

	snapshot := e.Snapshot()
	assert.Equal(t, "Welcome back.", snapshot.Main.Body)
	assert.Equal(t, "", snapshot.Main.Prefix)
}

func TestEngine_StartErrors(t *testing.T) {
	f := newFixture(t, 1)
	e := f.engine

	err := e.StartDialogue("ghost")
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)

	err = e.StartDialogue("intro", runtime.InBranch(0))
	assert.ErrorIs(t, err, domain.ErrNotBranch)

	err = e.StartDialogue("intro", runtime.AtContent(5))
	assert.ErrorIs(t, err, domain.ErrIndexOutOfRange)
	var indexErr *domain.IndexError
	require.True(t, errors.As(err, &indexErr))
	assert.Equal(t, "content", indexErr.Kind)
	assert.Equal(t, 2, indexErr.Length)

	err = e.StartDialogue("left", runtime.InBranch(4))
	require.True(t, errors.As(err, &indexErr))
	assert.Equal(t, "branch", indexErr.Kind)

	assert.Nil(t, e.Current(), "errors never commit")

	_, err = e.BranchReader(7)
	assert.ErrorIs(t, err, domain.ErrIndexOutOfRange)
}

func TestEngine_BranchNodeDefaultsToFirstSlot(t *testing.T) {
	f := newFixture(t, 2)

	require.NoError(t, f.engine.StartDialogue("right"))
	assert.Equal(t, "Go right", f.branches[0].Text())
	assert.Equal(t, "", f.main.Text())

	require.NoError(t, f.engine.StartDialogue("right", runtime.InBranch(1)))
	assert.Equal(t, "Go right", f.branches[1].Text())
}

func TestEngine_DeadEnds(t *testing.T) {
	var deadEnds []string
	f := newFixture(t, 0, runtime.WithLifecycleHooks(domain.LifecycleHooks{
		OnDeadEnd: func(ev *domain.DialogueEvent) { deadEnds = append(deadEnds, ev.NodeID) },
	}))
	e := f.engine

	ok, err := e.Advance()
	require.NoError(t, err)
	assert.False(t, ok, "nothing started yet")

	require.NoError(t, e.StartDialogue("lake"))
	ok, err = e.Advance()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []string{"lake"}, deadEnds)
	assert.Equal(t, "A quiet lake.", f.main.Text())
}

func TestEngine_LifecycleHooks(t *testing.T) {
	var events []domain.EventType
	record := func(ev *domain.DialogueEvent) { events = append(events, ev.Type) }

	f := newFixture(t, 2, runtime.WithLifecycleHooks(domain.LifecycleHooks{
		OnCommit:            record,
		OnStepBack:          record,
		OnBranchesPresented: record,
		OnBranchSelected:    record,
		OnDeadEnd:           record,
	}))
	e := f.engine

	require.NoError(t, e.StartDialogue("crossroads"))
	_, err := e.Advance()
	require.NoError(t, err)
	_, err = e.SelectBranch(0)
	require.NoError(t, err)
	_, err = e.Advance()
	require.NoError(t, err)
	_, err = e.StepBack()
	require.NoError(t, err)

	assert.Equal(t, []domain.EventType{
		domain.EventCommit,
		domain.EventBranchesPresented,
		domain.EventBranchSelected,
		domain.EventCommit,
		domain.EventDeadEnd,
		domain.EventStepBack,
	}, events)
}

func TestEngine_StepBackAfterJump(t *testing.T) {
	f := newFixture(t, 0)
	e := f.engine

	require.NoError(t, e.StartDialogue("intro"))
	require.NoError(t, e.StartDialogue("lake"))

	ok, err := e.ReadPrevious()
	requireStep(t, ok, err)
	assert.Equal(t, "intro", e.Current().NodeID)
	assert.Equal(t, "Hello.", f.main.Text())
}

func TestEngine_ReversedStart(t *testing.T) {
	f := newReaderFixture(t, 0, time.Millisecond)

	require.NoError(t, f.engine.StartDialogue("forest", runtime.Reversed()))
	f.engine.Tick(0)
	assert.Equal(t, "Trees everywhere", f.main.Text(), "shown whole, then hidden from the end")

	f.settle(t)
	assert.Equal(t, "", f.main.Text())
}

func TestEngine_Language(t *testing.T) {
	bilingual := &domain.Node{ID: "hello", Contents: []domain.Content{
		domain.NewContent(map[string]domain.Translation{
			"en": {Descriptor: "Guide", Body: "Hello"},
			"pt": {Descriptor: "Guia", Body: "Olá"},
		}),
	}}
	buf := memory.NewBuffer()
	e, err := runtime.NewEngine(memory.NewGraph(bilingual), runtime.Slot{Target: buf}, nil, runtime.WithLanguage("pt"))
	require.NoError(t, err)

	require.NoError(t, e.StartDialogue("hello"))
	assert.Equal(t, "Olá", buf.Text())
	assert.Equal(t, "Guia", e.Current().Descriptor)

	e.SetLanguage("en-GB")
	assert.Equal(t, "en-GB", e.Language())
	require.NoError(t, e.StartDialogue("hello"))
	assert.Equal(t, "Hello", buf.Text(), "closest authored language")

	e.SetLanguage("ja")
	require.NoError(t, e.StartDialogue("hello"))
	assert.Equal(t, "", buf.Text())
}

func TestEngine_CurrentNodeInfo(t *testing.T) {
	f := newFixture(t, 0)

	_, ok := f.engine.CurrentNodeInfo()
	assert.False(t, ok)

	require.NoError(t, f.engine.StartDialogue("intro"))
	info, ok := f.engine.CurrentNodeInfo()
	require.True(t, ok)
	assert.Equal(t, "intro", info.Node.ID)
	assert.Equal(t, "Hello.", info.Content)
	assert.True(t, info.IsFirst)
	assert.False(t, info.IsLast)

	_, err := f.engine.Advance()
	require.NoError(t, err)
	info, _ = f.engine.CurrentNodeInfo()
	assert.False(t, info.IsFirst)
	assert.True(t, info.IsLast)
}

func TestEngine_TextSpeedBroadcast(t *testing.T) {
	f := newReaderFixture(t, 2, time.Millisecond)
	e := f.engine

	e.SetTextSpeed(0.25)
	assert.Equal(t, 0.25, e.TextSpeed())
	assert.Equal(t, 0.25, e.MainReader().TextSpeed())
	for i := 0; i < e.TotalBranches(); i++ {
		r, err := e.BranchReader(i)
		require.NoError(t, err)
		assert.Equal(t, 0.25, r.TextSpeed())
	}

	e.SetTextSpeed(7)
	assert.Equal(t, 1.0, e.TextSpeed())
}

func TestEngine_SnapshotRestore(t *testing.T) {
	f := newFixture(t, 2, runtime.WithLanguage("en"))
	require.NoError(t, f.engine.StartDialogue("crossroads"))
	ok, err := f.engine.Advance()
	requireStep(t, ok, err)

	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "s1", f.engine.Snapshot()))
	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)

	g := newFixture(t, 2)
	require.NoError(t, g.engine.Restore(loaded))

	assert.Equal(t, f.engine.Current(), g.engine.Current())
	assert.Equal(t, f.engine.History(), g.engine.History())
	assert.Equal(t, "Which way?", g.main.Text())
	assert.Equal(t, "Go left", g.branches[0].Text())
	assert.Equal(t, "Go right", g.branches[1].Text())

	ok, err = g.engine.SelectBranch(0)
	requireStep(t, ok, err)
	assert.Equal(t, "A quiet lake.", g.main.Text())
}

func TestEngine_RestoreWithReaders(t *testing.T) {
	f := newFixture(t, 0)
	require.NoError(t, f.engine.StartDialogue("talk"))
	_, err := f.engine.ConcatenateAdvance(" ")
	require.NoError(t, err)

	g := newReaderFixture(t, 0, time.Second)
	require.NoError(t, g.engine.Restore(f.engine.Snapshot()))
	assert.Equal(t, "A B", g.main.Text(), "restored text is shown without ticking")
	assert.True(t, g.engine.HasFinishedReading())
}

func TestEngine_RestoreUnknownNode(t *testing.T) {
	f := newFixture(t, 0)
	require.NoError(t, f.engine.StartDialogue("intro"))

	err := f.engine.Restore(&domain.Snapshot{
		Current: &domain.ProcessedDialogue{NodeID: "ghost", Slot: domain.MainSlot},
	})
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)
	assert.Equal(t, "intro", f.engine.Current().NodeID, "failed restore leaves the engine as it was")
	assert.Equal(t, "Hello.", f.main.Text())
}

func TestEngine_Reset(t *testing.T) {
	f := newFixture(t, 2)
	require.NoError(t, f.engine.StartDialogue("crossroads"))
	_, err := f.engine.Advance()
	require.NoError(t, err)

	f.engine.Reset()

	assert.Nil(t, f.engine.Current())
	assert.Empty(t, f.engine.History())
	assert.Equal(t, "", f.main.Text())
	assert.Equal(t, "", f.branches[0].Text())
	assert.True(t, f.engine.HasFinishedReading())
}
