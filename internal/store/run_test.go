package store

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/roach88/lutgen/internal/lut"
	"github.com/roach88/lutgen/internal/testutil"
)

// searchRun performs a real search and returns its record.
func searchRun(t *testing.T, id string, spec lut.Spec, f lut.Func) Run {
	t.Helper()
	var its []lut.Iteration
	res, err := lut.Search(spec, f, lut.WithObserver(func(it lut.Iteration) {
		its = append(its, it)
	}))
	if err != nil {
		t.Fatalf("Search() failed: %v", err)
	}
	return NewRun(id, spec, "testdata/"+spec.ID+".cue", res, its)
}

func TestNewRun_Accepted(t *testing.T) {
	run := searchRun(t, "run-0001", lut.Spec{ID: "sin", Start: 0, End: 1000, MaxAbsError: 70}, testutil.Sine1000)

	if run.Outcome != lut.OutcomeAccepted {
		t.Fatalf("Outcome = %q, want accepted", run.Outcome)
	}
	if run.Step != 16 || run.Segments != 64 || run.ValueType != "i16" {
		t.Errorf("got step=%d segments=%d type=%q, want 16/64/i16", run.Step, run.Segments, run.ValueType)
	}
	if len(run.Iterations) != 6 {
		t.Errorf("len(Iterations) = %d, want 6", len(run.Iterations))
	}
}

func TestNewRun_Infeasible(t *testing.T) {
	run := searchRun(t, "run-0001", lut.Spec{ID: "lin", Start: 0, End: 8, MaxAbsError: 0.5}, testutil.Ramp(0.9, 0))

	if run.Outcome != lut.OutcomeInfeasible {
		t.Fatalf("Outcome = %q, want infeasible", run.Outcome)
	}
	if run.Step != 1 {
		t.Errorf("Step = %d, want 1", run.Step)
	}
	if run.ValueType != "" || run.Segments != 0 {
		t.Errorf("infeasible run should not describe a table: %+v", run)
	}
}

func TestWriteRun_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	ids := testutil.NewSequentialIDs()

	want := searchRun(t, ids.Generate(), lut.Spec{ID: "sin", Start: 0, End: 1000, MaxAbsError: 70}, testutil.Sine1000)

	seq, err := s.WriteRun(ctx, want)
	if err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}
	if seq != 1 {
		t.Errorf("seq = %d, want 1", seq)
	}
	want.Seq = seq

	got, err := s.ReadRun(ctx, want.ID)
	if err != nil {
		t.Fatalf("ReadRun() failed: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ReadRun() mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteRun_Idempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	run := searchRun(t, "run-0001", lut.Spec{ID: "sin", Start: 0, End: 1000, MaxAbsError: 70}, testutil.Sine1000)

	first, err := s.WriteRun(ctx, run)
	if err != nil {
		t.Fatalf("first WriteRun() failed: %v", err)
	}
	second, err := s.WriteRun(ctx, run)
	if err != nil {
		t.Fatalf("second WriteRun() failed: %v", err)
	}
	if first != second {
		t.Errorf("duplicate write changed seq: %d then %d", first, second)
	}

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM iterations WHERE run_id = ?", run.ID).Scan(&count); err != nil {
		t.Fatalf("count iterations: %v", err)
	}
	if count != len(run.Iterations) {
		t.Errorf("iterations = %d, want %d", count, len(run.Iterations))
	}
}

func TestWriteRun_EmptyID(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.WriteRun(context.Background(), Run{}); err == nil {
		t.Error("expected error for empty run id")
	}
}

func TestWriteRun_InfiniteErrorStoredAsNull(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	run := Run{
		ID:          "run-0001",
		ParamID:     "nan",
		Start:       0,
		End:         4,
		MaxAbsError: 1,
		Outcome:     lut.OutcomeInfeasible,
		Step:        1,
		MaxError:    math.Inf(1),
		Iterations: []lut.Iteration{
			{Ordinal: 1, Step: 4, Segments: 2, MaxError: math.Inf(1), Excluded: 41},
		},
	}
	if _, err := s.WriteRun(ctx, run); err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}

	var stored *float64
	if err := s.db.QueryRow("SELECT max_error FROM runs WHERE id = ?", run.ID).Scan(&stored); err != nil {
		t.Fatalf("select max_error: %v", err)
	}
	if stored != nil {
		t.Errorf("max_error = %v, want NULL", *stored)
	}

	got, err := s.ReadRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("ReadRun() failed: %v", err)
	}
	if !math.IsInf(got.MaxError, 1) || !math.IsInf(got.Iterations[0].MaxError, 1) {
		t.Errorf("expected +Inf errors, got %v and %v", got.MaxError, got.Iterations[0].MaxError)
	}
}

func TestReadRun_NotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.ReadRun(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("ReadRun() error = %v, want ErrNotFound", err)
	}
}

func TestListRuns_OrderAndFilter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	ids := testutil.NewSequentialIDs()

	sin := lut.Spec{ID: "sin", Start: 0, End: 1000, MaxAbsError: 70}
	lin := lut.Spec{ID: "lin", Start: 0, End: 8, MaxAbsError: 0.5}

	for _, r := range []Run{
		searchRun(t, ids.Generate(), sin, testutil.Sine1000),
		searchRun(t, ids.Generate(), lin, testutil.Ramp(0.9, 0)),
		searchRun(t, ids.Generate(), sin, testutil.Sine1000),
	} {
		if _, err := s.WriteRun(ctx, r); err != nil {
			t.Fatalf("WriteRun(%s) failed: %v", r.ID, err)
		}
	}

	all, err := s.ListRuns(ctx, "")
	if err != nil {
		t.Fatalf("ListRuns() failed: %v", err)
	}
	var gotIDs []string
	for _, r := range all {
		gotIDs = append(gotIDs, r.ID)
		if r.Iterations != nil {
			t.Errorf("ListRuns() should not load iterations for %s", r.ID)
		}
	}
	if diff := cmp.Diff([]string{"run-0001", "run-0002", "run-0003"}, gotIDs); diff != "" {
		t.Errorf("ListRuns() order mismatch (-want +got):\n%s", diff)
	}

	sinRuns, err := s.ListRuns(ctx, "sin")
	if err != nil {
		t.Fatalf("ListRuns(sin) failed: %v", err)
	}
	if len(sinRuns) != 2 || sinRuns[0].Seq >= sinRuns[1].Seq {
		t.Errorf("ListRuns(sin) = %+v, want two runs in seq order", sinRuns)
	}

	none, err := s.ListRuns(ctx, "cos")
	if err != nil {
		t.Fatalf("ListRuns(cos) failed: %v", err)
	}
	if none == nil || len(none) != 0 {
		t.Errorf("ListRuns(cos) = %#v, want empty non-nil slice", none)
	}
}

func TestUUIDv7Generator(t *testing.T) {
	gen := UUIDv7Generator{}
	a, b := gen.Generate(), gen.Generate()

	if a == b {
		t.Fatal("generated duplicate IDs")
	}
	u, err := uuid.Parse(a)
	if err != nil {
		t.Fatalf("invalid UUID %q: %v", a, err)
	}
	if u.Version() != 7 {
		t.Errorf("Version() = %d, want 7", u.Version())
	}
}

func TestTableHash(t *testing.T) {
	build := func(end, step int64, f lut.Func) *lut.Table {
		t.Helper()
		table, err := lut.Build(0, end, step, f)
		if err != nil {
			t.Fatalf("Build() failed: %v", err)
		}
		return table
	}

	a := TableHash(build(1016, 16, testutil.Sine1000))
	b := TableHash(build(1016, 16, testutil.Sine1000))
	if a != b {
		t.Errorf("equal tables hashed differently: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("len(hash) = %d, want 64 hex characters", len(a))
	}

	others := []*lut.Table{
		build(1008, 8, testutil.Sine1000),
		build(1016, 16, testutil.Ramp(1, 0)),
		build(1016, 16, func(x float64) float64 { return testutil.Sine1000(x) + 1 }),
	}
	for i, o := range others {
		if TableHash(o) == a {
			t.Errorf("table %d collides with the reference hash", i)
		}
	}
}

func TestNewRun_TableHashOnlyWhenAccepted(t *testing.T) {
	acc := searchRun(t, "run-0001", lut.Spec{ID: "sin", Start: 0, End: 1000, MaxAbsError: 70}, testutil.Sine1000)
	if acc.TableHash == "" {
		t.Error("accepted run has no table hash")
	}

	inf := searchRun(t, "run-0002", lut.Spec{ID: "lin", Start: 0, End: 8, MaxAbsError: 0.5}, testutil.Ramp(0.9, 0))
	if inf.TableHash != "" {
		t.Errorf("infeasible run has table hash %q", inf.TableHash)
	}
}
