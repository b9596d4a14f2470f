package models

import (
	"testing"
)

func TestBlockTableKeepsFirstObservationOrder(t *testing.T) {
	table := NewBlockTable()
	table.Ensure("a.c:1")
	table.AddCall("a.c:2", "f")
	table.AddCall("a.c:2", "g")
	table.SetDistance("a.c:3", Known(1))
	table.SetDistance("a.c:1", Known(4))
	table.Ensure("a.c:2")

	if table.Len() != 3 {
		t.Fatalf("Expected 3 records, got %d", table.Len())
	}

	records := table.DistanceRecords()
	expected := []DistanceRecord{
		{Name: "a.c:1", Distance: Known(4)},
		{Name: "a.c:2", Distance: Unsure()},
		{Name: "a.c:3", Distance: Known(1)},
	}
	for i, want := range expected {
		if records[i] != want {
			t.Errorf("At index %d: expected %+v, got %+v", i, want, records[i])
		}
	}

	record, ok := table.Get("a.c:2")
	if !ok {
		t.Fatal("Expected record for a.c:2")
	}
	if !record.CallsFunction("g") || record.CallsFunction("h") {
		t.Errorf("Unexpected calls %v", record.Calls)
	}
}
