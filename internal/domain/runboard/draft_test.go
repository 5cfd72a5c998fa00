package runboard

import (
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func petIDs(list []Assignment) []string {
	out := make([]string, 0, len(list))
	for _, a := range list {
		out = append(out, a.PetID)
	}
	return out
}

func seededDraft() *Draft {
	return draftFromPayload(
		[]Run{{ID: "r1"}, {ID: "r2"}, {ID: "r3"}},
		[]Assignment{
			{ID: "a1", RunID: "r1", PetID: "p1", StartTime: "09:00", EndTime: "10:00"},
			{ID: "a2", RunID: "r1", PetID: "p2", StartTime: "09:00", EndTime: "10:00"},
			{ID: "a3", RunID: "r2", PetID: "p3", StartTime: "11:00", EndTime: "12:00"},
		},
	)
}

func TestDraftFromPayloadKeepsEmptyRunsAndOrder(t *testing.T) {
	d := seededDraft()

	if diff := cmp.Diff([]string{"r1", "r2", "r3"}, d.RunIDs()); diff != "" {
		t.Fatalf("run order mismatch (-want +got):\n%s", diff)
	}
	if got := d.AssignmentsFor("r3"); len(got) != 0 {
		t.Fatalf("r3 should be empty, got %v", got)
	}
	if diff := cmp.Diff([]string{"p1", "p2", "p3"}, d.AllAssignedPetIDs()); diff != "" {
		t.Fatalf("assigned pets mismatch (-want +got):\n%s", diff)
	}
	if a, _ := d.Find("p2"); a.ID != "a2" {
		t.Fatalf("backend id should be kept, got %+v", a)
	}
}

func TestPlaceMovesPetAcrossRuns(t *testing.T) {
	d := seededDraft()
	d.Place("p1", "r2", "13:00", "14:00", "b1", "")

	if diff := cmp.Diff([]string{"p2"}, petIDs(d.AssignmentsFor("r1"))); diff != "" {
		t.Fatalf("r1 mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"p3", "p1"}, petIDs(d.AssignmentsFor("r2"))); diff != "" {
		t.Fatalf("r2 mismatch (-want +got):\n%s", diff)
	}

	count := 0
	for _, a := range d.Flatten() {
		if a.PetID == "p1" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("pet must appear once, got %d", count)
	}
}

func TestPlaceIntoUnknownRunAppendsToOrder(t *testing.T) {
	d := seededDraft()
	d.Place("p9", "r9", "08:00", "09:00", "", "")

	ids := d.RunIDs()
	if ids[len(ids)-1] != "r9" {
		t.Fatalf("expected r9 at end, got %v", ids)
	}
}

func TestRemoveAndUnassignEverywhere(t *testing.T) {
	d := seededDraft()
	before := d.AssignmentsFor("r1")

	d.Remove("p1", "r1")
	d.Remove("nope", "r1")
	d.Remove("p1", "missing")

	if diff := cmp.Diff([]string{"p2"}, petIDs(d.AssignmentsFor("r1"))); diff != "" {
		t.Fatalf("r1 mismatch (-want +got):\n%s", diff)
	}
	if len(before) != 2 {
		t.Fatalf("previous copy must not be mutated, got %v", before)
	}

	d.UnassignEverywhere("p3")
	if _, ok := d.Find("p3"); ok {
		t.Fatalf("p3 should be back in the pool")
	}
}

func TestReorder(t *testing.T) {
	d := draftFromPayload([]Run{{ID: "r1"}}, []Assignment{
		{RunID: "r1", PetID: "a"}, {RunID: "r1", PetID: "b"}, {RunID: "r1", PetID: "c"}, {RunID: "r1", PetID: "d"},
	})

	d.Reorder("r1", 0, 2)
	if diff := cmp.Diff([]string{"b", "c", "a", "d"}, petIDs(d.AssignmentsFor("r1"))); diff != "" {
		t.Fatalf("reorder 0->2 (-want +got):\n%s", diff)
	}
	d.Reorder("r1", 3, 0)
	if diff := cmp.Diff([]string{"d", "b", "c", "a"}, petIDs(d.AssignmentsFor("r1"))); diff != "" {
		t.Fatalf("reorder 3->0 (-want +got):\n%s", diff)
	}

	snap := d.Clone()
	d.Reorder("r1", 1, 1)
	d.Reorder("r1", -1, 2)
	d.Reorder("r1", 0, 4)
	d.Reorder("missing", 0, 1)
	if !d.Equal(snap) {
		t.Fatalf("invalid reorders must be no-ops")
	}
}

func TestEqualIsOrderSensitiveAndIgnoresIDs(t *testing.T) {
	a := seededDraft()
	b := a.Clone()
	b.setID("r1", "p1", "other-id")
	if !a.Equal(b) {
		t.Fatalf("ids must not affect equality")
	}

	b.Reorder("r1", 0, 1)
	if a.Equal(b) {
		t.Fatalf("order change must be detected")
	}
	b.Reorder("r1", 1, 0)
	if !a.Equal(b) {
		t.Fatalf("reverting order should restore equality")
	}

	b.Place("p2", "r1", "09:00", "10:30", "", "")
	if a.Equal(b) {
		t.Fatalf("content change must be detected")
	}
}

func TestCloneIsDeep(t *testing.T) {
	a := seededDraft()
	c := a.Clone()
	c.Place("p1", "r3", "15:00", "16:00", "", "")

	if got, _ := a.Find("p1"); got.RunID != "r1" {
		t.Fatalf("original mutated: %+v", got)
	}
}

func TestFlattenOrder(t *testing.T) {
	d := seededDraft()
	want := []Assignment{
		{ID: "a1", RunID: "r1", PetID: "p1", StartTime: "09:00", EndTime: "10:00"},
		{ID: "a2", RunID: "r1", PetID: "p2", StartTime: "09:00", EndTime: "10:00"},
		{ID: "a3", RunID: "r2", PetID: "p3", StartTime: "11:00", EndTime: "12:00"},
	}
	if diff := cmp.Diff(want, d.Flatten()); diff != "" {
		t.Fatalf("flatten mismatch (-want +got):\n%s", diff)
	}
}

func TestDraftKeepsOnePlacementPerPetAcrossMutations(t *testing.T) {
	d := seededDraft()
	runs := []string{"r1", "r2", "r3"}
	pets := []string{"p1", "p2", "p3", "p4", "p5"}
	rnd := rand.New(rand.NewPCG(14, 10))

	for step := 0; step < 500; step++ {
		pet := pets[rnd.IntN(len(pets))]
		run := runs[rnd.IntN(len(runs))]
		switch rnd.IntN(4) {
		case 0, 1:
			d.Place(pet, run, "09:00", "10:00", "", "")
		case 2:
			d.Remove(pet, run)
		case 3:
			n := len(d.AssignmentsFor(run)) + 1
			d.Reorder(run, rnd.IntN(n)-1, rnd.IntN(n)-1)
		}

		seen := map[string]string{}
		for _, a := range d.Flatten() {
			if prev, dup := seen[a.PetID]; dup {
				t.Fatalf("step %d: %s placed in %s and %s", step, a.PetID, prev, a.RunID)
			}
			seen[a.PetID] = a.RunID
		}
		if len(d.AllAssignedPetIDs()) != len(seen) {
			t.Fatalf("step %d: assigned ids %v do not match %v", step, d.AllAssignedPetIDs(), seen)
		}
	}
}
