package parser

import "testing"

func TestTimestampPresent(t *testing.T) {
	ts, ok := Timestamp("TS:1000 | ARM:1 | BATT:87")
	if !ok || ts != 1000 {
		t.Fatalf("expected (1000, true), got (%d, %v)", ts, ok)
	}
}

func TestTimestampAnywhereInLine(t *testing.T) {
	ts, ok := Timestamp("ARM:1 | TS:42 | BATT:87")
	if !ok || ts != 42 {
		t.Fatalf("expected (42, true), got (%d, %v)", ts, ok)
	}
}

func TestTimestampMissing(t *testing.T) {
	if _, ok := Timestamp("ARM:1 | BATT:87"); ok {
		t.Fatalf("expected no timestamp for marker-less line")
	}
}

func TestTimestampUnparsable(t *testing.T) {
	if _, ok := Timestamp("TS:abc | ARM:1"); ok {
		t.Fatalf("expected parse failure for non-numeric timestamp")
	}
}

func TestTimestampWithPadding(t *testing.T) {
	ts, ok := Timestamp("TS: 250 | ARM:0")
	if !ok || ts != 250 {
		t.Fatalf("expected (250, true), got (%d, %v)", ts, ok)
	}
}

func TestAnnotate(t *testing.T) {
	got := Annotate("TS:1500 | ARM:1", 500)
	want := "TS:1500 | ARM:1 | AGE:500ms"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestAnnotateNegativeAge(t *testing.T) {
	got := Annotate("TS:100", -200)
	want := "TS:100 | AGE:-200ms"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestFields(t *testing.T) {
	fields := Fields("TS:1000 | ARM:1 | OK")
	if len(fields) != 3 {
		t.Fatalf("expected 3 fields, got %d", len(fields))
	}
	if fields[0].Key != "TS" || fields[0].Value != "1000" {
		t.Fatalf("unexpected first field: %+v", fields[0])
	}
	if fields[2].Key != "OK" || fields[2].Value != "" {
		t.Fatalf("unexpected bare field: %+v", fields[2])
	}
}
