package builtin

import (
	"math/rand"
	"os"
	"testing"

	"github.com/noahfreelove/flow/internal/diag"
	"github.com/noahfreelove/flow/internal/music"
	"github.com/noahfreelove/flow/internal/types"
	"github.com/noahfreelove/flow/internal/values"
)

// testEnv builds a fresh root frame with every builtin registered, plus an
// Env whose Call callback actually invokes user functions the way the
// interpreter would (needed for map/filter/reduce/each).
func testEnv(t *testing.T) (*values.Frame, Env) {
	t.Helper()
	root := values.NewRoot()
	env := Env{
		Bag: diag.NewBag(),
		RNG: rand.New(rand.NewSource(7)),
		Call: func(ov *values.Overload, args []values.Value) values.Value {
			v, err := ov.Host(args)
			if err != nil {
				t.Fatalf("callback host error: %v", err)
			}
			return v
		},
	}
	Register(root, env)
	return root, env
}

// call resolves exactly one overload of name whose signature matches
// argTypes and invokes its Host implementation directly.
func call(t *testing.T, root *values.Frame, name string, args []values.Value, argTypes ...*types.Type) values.Value {
	t.Helper()
	for _, ov := range root.LookupFuncs(name) {
		if len(ov.Sig.Params) != len(argTypes) {
			continue
		}
		match := true
		for i, p := range ov.Sig.Params {
			if !p.Equals(argTypes[i]) {
				match = false
				break
			}
		}
		if !match {
			continue
		}
		v, err := ov.Host(args)
		if err != nil {
			t.Fatalf("%s: unexpected host error: %v", name, err)
		}
		return v
	}
	t.Fatalf("no overload of %q matches %v", name, argTypes)
	return values.Void
}

func TestAddWidensToHigherRung(t *testing.T) {
	root, _ := testEnv(t)
	v := call(t, root, "add", []values.Value{values.NewInt(3), values.NewDouble(2.5)}, types.Int, types.Double)
	if v.Type.Kind != types.KindDouble {
		t.Fatalf("add(Int, Double) should widen to Double, got %s", v.Type)
	}
	if got := toFloat(v); got != 5.5 {
		t.Errorf("add(3, 2.5) = %v, want 5.5", got)
	}
}

func TestDivByZeroReturnsError(t *testing.T) {
	root, _ := testEnv(t)
	for _, ov := range root.LookupFuncs("div") {
		if ov.Sig.Params[0].Equals(types.Int) && ov.Sig.Params[1].Equals(types.Int) {
			if _, err := ov.Host([]values.Value{values.NewInt(1), values.NewInt(0)}); err == nil {
				t.Fatalf("div by zero should return an error")
			}
			return
		}
	}
	t.Fatal("div(Int, Int) overload not found")
}

func TestStrIntAndStrStringRoundtrip(t *testing.T) {
	root, _ := testEnv(t)
	v := call(t, root, "str", []values.Value{values.NewInt(11)}, types.Int)
	if toString(v) != "11" {
		t.Errorf("str(11) = %q, want \"11\"", toString(v))
	}
	v2 := call(t, root, "str", []values.Value{values.NewString("hi")}, types.String)
	if toString(v2) != "hi" {
		t.Errorf("str(\"hi\") = %q, want unchanged \"hi\"", toString(v2))
	}
}

func TestListVariadicPacksElements(t *testing.T) {
	root, _ := testEnv(t)
	for _, ov := range root.LookupFuncs("list") {
		v, err := ov.Host([]values.Value{values.NewInt(1), values.NewInt(2), values.NewInt(3)})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		arr := toArray(v)
		if len(arr.Items) != 3 {
			t.Fatalf("list(1,2,3) produced %d items, want 3", len(arr.Items))
		}
		return
	}
	t.Fatal("list overload not found")
}

func TestMapAppliesCallback(t *testing.T) {
	root, env := testEnv(t)
	double := &values.Overload{
		Sig: types.Signature{Name: "double", Params: []*types.Type{types.Int}},
		Host: func(args []values.Value) (values.Value, error) {
			return values.NewInt(toInt(args[0]) * 2), nil
		},
	}
	arr := values.NewArray(types.Int, []values.Value{values.NewInt(1), values.NewInt(2), values.NewInt(3)})
	fn := values.NewFunction(double)
	v := call(t, root, "map", []values.Value{arr, fn}, types.VoidArray, types.Function)
	out := toArray(v)
	if len(out.Items) != 3 {
		t.Fatalf("map produced %d items, want 3", len(out.Items))
	}
	if toInt(out.Items[1]) != 4 {
		t.Errorf("map(double, [1,2,3])[1] = %d, want 4", toInt(out.Items[1]))
	}
	_ = env
}

func TestFilterKeepsOnlyTruthyItems(t *testing.T) {
	root, _ := testEnv(t)
	isEven := &values.Overload{
		Sig: types.Signature{Name: "isEven", Params: []*types.Type{types.Int}},
		Host: func(args []values.Value) (values.Value, error) {
			return values.NewBool(toInt(args[0])%2 == 0), nil
		},
	}
	arr := values.NewArray(types.Int, []values.Value{values.NewInt(1), values.NewInt(2), values.NewInt(3), values.NewInt(4)})
	fn := values.NewFunction(isEven)
	v := call(t, root, "filter", []values.Value{arr, fn}, types.VoidArray, types.Function)
	out := toArray(v)
	if len(out.Items) != 2 {
		t.Fatalf("filter kept %d items, want 2", len(out.Items))
	}
}

func TestReduceSumsWithSeed(t *testing.T) {
	root, _ := testEnv(t)
	sum := &values.Overload{
		Sig: types.Signature{Name: "sum", Params: []*types.Type{types.Int, types.Int}},
		Host: func(args []values.Value) (values.Value, error) {
			return values.NewInt(toInt(args[0]) + toInt(args[1])), nil
		},
	}
	for _, ov := range root.LookupFuncs("reduce") {
		arr := values.NewArray(types.Int, []values.Value{values.NewInt(1), values.NewInt(2), values.NewInt(3)})
		seed := values.NewArray(types.Void, []values.Value{values.NewInt(10)})
		v, err := ov.Host([]values.Value{arr, values.NewFunction(sum), seed})
		if err != nil {
			t.Fatalf("reduce: %v", err)
		}
		if toInt(v) != 16 {
			t.Errorf("reduce(sum, [1,2,3], 10) = %d, want 16", toInt(v))
		}
		return
	}
	t.Fatal("reduce overload not found")
}

func TestTransposeShiftsMidiNumber(t *testing.T) {
	root, _ := testEnv(t)
	note := music.MusicalNote{Letter: 'C', Octave: 4, Duration: music.NoteValue{Class: music.Quarter}}
	seq := &music.Sequence{Bars: []music.Bar{{TimeSig: music.TimeSignature{Num: 4, Den: 4}, Notes: []music.MusicalNote{note}}}}
	v := call(t, root, "transpose", []values.Value{values.NewSequence(seq), values.NewInt(2)}, types.Sequence, types.Int)
	out := v.Payload.(*music.Sequence)
	got := out.Bars[0].Notes[0]
	if got.MidiNumber() != note.MidiNumber()+2 {
		t.Errorf("transpose(+2) MIDI = %d, want %d", got.MidiNumber(), note.MidiNumber()+2)
	}
}

func TestTransposeAdditivity(t *testing.T) {
	root, _ := testEnv(t)
	note := music.MusicalNote{Letter: 'D', Octave: 3, Duration: music.NoteValue{Class: music.Eighth}}
	seq := &music.Sequence{Bars: []music.Bar{{TimeSig: music.TimeSignature{Num: 4, Den: 4}, Notes: []music.MusicalNote{note}}}}

	once := call(t, root, "transpose", []values.Value{values.NewSequence(seq), values.NewInt(5)}, types.Sequence, types.Int)
	onceSeq := once.Payload.(*music.Sequence)
	twice := call(t, root, "transpose", []values.Value{values.NewSequence(onceSeq), values.NewInt(3)}, types.Sequence, types.Int)
	twiceSeq := twice.Payload.(*music.Sequence)

	direct := call(t, root, "transpose", []values.Value{values.NewSequence(seq), values.NewInt(8)}, types.Sequence, types.Int)
	directSeq := direct.Payload.(*music.Sequence)

	if twiceSeq.Bars[0].Notes[0].MidiNumber() != directSeq.Bars[0].Notes[0].MidiNumber() {
		t.Errorf("transpose(transpose(s,5),3) should equal transpose(s,8)")
	}
}

func TestRetrogradeIsInvolution(t *testing.T) {
	root, _ := testEnv(t)
	n1 := music.MusicalNote{Letter: 'C', Octave: 4, Duration: music.NoteValue{Class: music.Quarter}}
	n2 := music.MusicalNote{Letter: 'D', Octave: 4, Duration: music.NoteValue{Class: music.Quarter}}
	seq := &music.Sequence{Bars: []music.Bar{
		{TimeSig: music.TimeSignature{Num: 4, Den: 4}, Notes: []music.MusicalNote{n1, n2}},
	}}
	once := call(t, root, "retrograde", []values.Value{values.NewSequence(seq)}, types.Sequence)
	onceSeq := once.Payload.(*music.Sequence)
	twice := call(t, root, "retrograde", []values.Value{values.NewSequence(onceSeq)}, types.Sequence)
	twiceSeq := twice.Payload.(*music.Sequence)

	if len(twiceSeq.Bars[0].Notes) != 2 || twiceSeq.Bars[0].Notes[0].Letter != 'C' || twiceSeq.Bars[0].Notes[1].Letter != 'D' {
		t.Errorf("retrograde(retrograde(s)) should equal s, got %+v", twiceSeq.Bars[0].Notes)
	}
}

func TestAugmentDiminishRoundtrip(t *testing.T) {
	root, _ := testEnv(t)
	note := music.MusicalNote{Letter: 'E', Octave: 4, Duration: music.NoteValue{Class: music.Quarter}}
	seq := &music.Sequence{Bars: []music.Bar{{TimeSig: music.TimeSignature{Num: 4, Den: 4}, Notes: []music.MusicalNote{note}}}}

	diminished := call(t, root, "diminish", []values.Value{values.NewSequence(seq)}, types.Sequence)
	dimSeq := diminished.Payload.(*music.Sequence)
	if dimSeq.Bars[0].Notes[0].Duration.Class != music.Eighth {
		t.Fatalf("diminish(quarter) = %s, want eighth", dimSeq.Bars[0].Notes[0].Duration.Class)
	}

	restored := call(t, root, "augment", []values.Value{values.NewSequence(dimSeq)}, types.Sequence)
	restoredSeq := restored.Payload.(*music.Sequence)
	if restoredSeq.Bars[0].Notes[0].Duration.Class != music.Quarter {
		t.Errorf("augment(diminish(quarter)) = %s, want quarter", restoredSeq.Bars[0].Notes[0].Duration.Class)
	}
}

func TestArpeggiateExpandsEachNoteIntoOffsetCycle(t *testing.T) {
	root, _ := testEnv(t)
	note := music.MusicalNote{Letter: 'C', Octave: 4, Duration: music.NoteValue{Class: music.Quarter}}
	seq := &music.Sequence{Bars: []music.Bar{{TimeSig: music.TimeSignature{Num: 4, Den: 4}, Notes: []music.MusicalNote{note}}}}
	offsets := values.NewArray(types.Int, []values.Value{values.NewInt(0), values.NewInt(4), values.NewInt(7)})

	v := call(t, root, "arpeggiate", []values.Value{values.NewSequence(seq), offsets}, types.Sequence, types.ArrayOf(types.Int))
	out := v.Payload.(*music.Sequence)
	notes := out.Bars[0].Notes
	if len(notes) != 3 {
		t.Fatalf("arpeggiate with 3 offsets should produce 3 notes, got %d", len(notes))
	}
	if notes[0].MidiNumber() != note.MidiNumber() || notes[2].MidiNumber() != note.MidiNumber()+7 {
		t.Errorf("arpeggiate should offset each note by its cycle value, got MIDI %d, %d, %d",
			notes[0].MidiNumber(), notes[1].MidiNumber(), notes[2].MidiNumber())
	}
	if notes[0].Duration.Class <= note.Duration.Class {
		t.Errorf("arpeggiated notes should be subdivided shorter than the original, got class %s", notes[0].Duration.Class)
	}
}

func TestSeedAndReseedDriveSameRNG(t *testing.T) {
	root, env := testEnv(t)
	call(t, root, "seed", []values.Value{values.NewInt(42)}, types.Int)
	first := env.RNG.Int63()

	call(t, root, "seed", []values.Value{values.NewInt(42)}, types.Int)
	second := env.RNG.Int63()
	if first != second {
		t.Errorf("seeding with the same value should reproduce the same draw")
	}
}

func TestExportWAVWritesFile(t *testing.T) {
	root, _ := testEnv(t)
	buf := &music.Buffer{Samples: []float64{0, 0.5, -0.5}, SampleRate: 44100, Channels: 1}
	path := t.TempDir() + "/out.wav"
	v := call(t, root, "exportwav", []values.Value{values.NewBuffer(buf), values.NewString(path)}, types.Buffer, types.String)
	if !v.IsVoid() {
		t.Errorf("exportwav should return Void on success")
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("expected exportwav to create %s: %v", path, err)
	}
	if info.Size() == 0 {
		t.Errorf("exported WAV file should be non-empty")
	}
}
