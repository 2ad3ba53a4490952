package transformer

import (
	"reflect"
	"sync"
	"testing"
	"time"

	"energyetl/internal/metrics"
	"energyetl/internal/records"
)

/*
dropYearsBefore keeps records whose year is at least min. It never mutates the
input table.
*/
type dropYearsBefore struct{ min int }

func (dropYearsBefore) Name() string { return "drop_years" }

func (d dropYearsBefore) Apply(t records.Table) records.Table {
	var out []records.Record
	for _, r := range t.Records {
		if r.Year >= d.min {
			out = append(out, r.Clone())
		}
	}
	return t.WithRecords(out)
}

/*
orderProbe appends its name to *calls whenever Apply is invoked.
*/
type orderProbe struct {
	name  string
	calls *[]string
}

func (p orderProbe) Name() string { return p.name }

func (p orderProbe) Apply(t records.Table) records.Table {
	*p.calls = append(*p.calls, p.name)
	return t
}

type counted struct {
	name  string
	delta float64
	job   string
	kind  string
	step  string
}

/*
recordingBackend captures counter increments for assertions.
*/
type recordingBackend struct {
	mu       sync.Mutex
	counters []counted
}

func (b *recordingBackend) IncCounter(name string, delta float64, l metrics.Labels) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.counters = append(b.counters, counted{name, delta, l["job"], l["kind"], l["step"]})
}
func (b *recordingBackend) ObserveHistogram(string, float64, metrics.Labels) {}
func (b *recordingBackend) Flush() error                                   { return nil }

func yearsTable(years ...int) records.Table {
	t := records.Table{Columns: []string{records.ColCountry, records.ColISOCode, records.ColYear}}
	for _, y := range years {
		t.Records = append(t.Records, records.Record{Country: "X", ISOCode: "XXX", Year: y, YearOK: true})
	}
	return t
}

func TestChain_AppliesInOrder(t *testing.T) {
	var calls []string
	c := Chain{
		orderProbe{"a", &calls},
		orderProbe{"b", &calls},
		orderProbe{"c", &calls},
	}
	c.Apply("job", yearsTable(2000))
	if !reflect.DeepEqual(calls, []string{"a", "b", "c"}) {
		t.Fatalf("calls = %v", calls)
	}
	if got := c.Names(); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("Names() = %v", got)
	}
}

func TestChain_DoesNotMutateInput(t *testing.T) {
	in := yearsTable(1980, 1995, 2005)
	out := Chain{dropYearsBefore{1990}}.Apply("job", in)
	if in.Len() != 3 {
		t.Fatalf("input mutated: len=%d", in.Len())
	}
	if out.Len() != 2 || out.Records[0].Year != 1995 {
		t.Fatalf("out = %+v", out.Records)
	}
}

func TestChain_Empty(t *testing.T) {
	in := yearsTable(2000)
	if out := (Chain{}).Apply("job", in); out.Len() != 1 {
		t.Fatalf("empty chain changed the table: %+v", out)
	}
}

func TestChain_RecordsMetrics(t *testing.T) {
	b := &recordingBackend{}
	metrics.SetBackend(b)
	t.Cleanup(metrics.Reset)

	c := Chain{
		dropYearsBefore{1990},
		Func{StageName: "noop", Fn: func(t records.Table) records.Table { return t }},
	}
	c.Apply("owid", yearsTable(1980, 1985, 2000))

	var steps []string
	var dropped []counted
	for _, cnt := range b.counters {
		switch cnt.name {
		case metrics.StepTotal:
			steps = append(steps, cnt.step)
		case metrics.RecordsTotal:
			dropped = append(dropped, cnt)
		}
	}
	if !reflect.DeepEqual(steps, []string{"drop_years", "noop"}) {
		t.Fatalf("steps = %v", steps)
	}
	if len(dropped) != 1 || dropped[0].kind != "drop_years_dropped" || dropped[0].delta != 2 || dropped[0].job != "owid" {
		t.Fatalf("dropped counters = %+v", dropped)
	}
}

func TestFunc(t *testing.T) {
	f := Func{StageName: "years_after_2000", Fn: func(t records.Table) records.Table {
		return dropYearsBefore{2001}.Apply(t)
	}}
	if f.Name() != "years_after_2000" {
		t.Fatalf("Name() = %q", f.Name())
	}
	if got := f.Apply(yearsTable(2000, 2001)).Len(); got != 1 {
		t.Fatalf("Apply len = %d, want 1", got)
	}
}

func BenchmarkChain_Apply(b *testing.B) {
	years := make([]int, 10000)
	for i := range years {
		years[i] = 1980 + i%40
	}
	in := yearsTable(years...)
	c := Chain{dropYearsBefore{1990}, dropYearsBefore{2000}}
	b.ResetTimer()
	start := time.Now()
	for i := 0; i < b.N; i++ {
		_ = c.Apply("bench", in)
	}
	b.ReportMetric(float64(b.N*len(years))/time.Since(start).Seconds(), "records/s")
}
