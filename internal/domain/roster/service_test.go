package roster

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"
)

// testRepo en el paquete para no depender de adapters.
type testRepo struct {
	mu   sync.Mutex
	byID map[string]Stay
}

func newTestRepo() *testRepo { return &testRepo{byID: map[string]Stay{}} }

func (r *testRepo) Create(_ context.Context, s Stay) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[s.ID] = s
	return nil
}

func (r *testRepo) GetByID(_ context.Context, id string) (Stay, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok {
		return Stay{}, ErrNotFound
	}
	return s, nil
}

func (r *testRepo) ListActive(_ context.Context, start, end time.Time) ([]Stay, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []Stay{}
	for _, s := range r.byID {
		if s.ActiveOn(start, end) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CheckIn.Before(out[j].CheckIn) })
	return out, nil
}

func TestCheckInAndList(t *testing.T) {
	svc := NewService(newTestRepo(), time.UTC)
	ctx := context.Background()

	checkIn := time.Date(2026, 10, 14, 10, 30, 0, 0, time.UTC)
	st, err := svc.CheckIn(ctx, "2026-10-14", CheckInInput{
		PetID:         "p1",
		PetName:       " Rex ",
		Species:       "Dog",
		OwnerUserIDs:  []string{"o1", "o1", " "},
		BehaviorFlags: []string{FlagReactive},
		MedicalNotes:  "insulina",
		CheckIn:       &checkIn,
		CheckOut:      time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("CheckIn: %v", err)
	}
	if st.PetName != "Rex" || st.Species != SpeciesDog || len(st.OwnerUserIDs) != 1 {
		t.Fatalf("unexpected stay: %+v", st)
	}

	for _, d := range []string{"2026-10-14", "2026-10-15", "2026-10-16"} {
		items, err := svc.CheckedIn(ctx, d)
		if err != nil || len(items) != 1 {
			t.Fatalf("CheckedIn(%s) = %d, %v; want 1", d, len(items), err)
		}
	}
	items, _ := svc.CheckedIn(ctx, "2026-10-17")
	if len(items) != 0 {
		t.Fatalf("stay should be over on 2026-10-17")
	}
	items, _ = svc.CheckedIn(ctx, "2026-10-13")
	if len(items) != 0 {
		t.Fatalf("stay should not start before check-in")
	}
}

func TestCheckInDefaultsToStartOfDay(t *testing.T) {
	svc := NewService(newTestRepo(), time.UTC)
	st, err := svc.CheckIn(context.Background(), "2026-10-14", CheckInInput{
		PetID: "p1", PetName: "Rex", Species: "cat",
		CheckOut: time.Date(2026, 10, 14, 18, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("CheckIn: %v", err)
	}
	if !st.CheckIn.Equal(time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected check-in: %s", st.CheckIn)
	}
}

func TestCheckInValidation(t *testing.T) {
	svc := NewService(newTestRepo(), time.UTC)
	ctx := context.Background()
	out := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	otherDay := time.Date(2026, 10, 13, 9, 0, 0, 0, time.UTC)

	cases := map[string]struct {
		date string
		in   CheckInInput
	}{
		"bad date":       {"14/10/2026", CheckInInput{PetID: "p", PetName: "n", Species: "dog", CheckOut: out}},
		"no pet":         {"2026-10-14", CheckInInput{PetName: "n", Species: "dog", CheckOut: out}},
		"bad species":    {"2026-10-14", CheckInInput{PetID: "p", PetName: "n", Species: "ferret", CheckOut: out}},
		"other day":      {"2026-10-14", CheckInInput{PetID: "p", PetName: "n", Species: "dog", CheckIn: &otherDay, CheckOut: out}},
		"checkout first": {"2026-10-14", CheckInInput{PetID: "p", PetName: "n", Species: "dog", CheckOut: otherDay}},
	}
	for name, c := range cases {
		if _, err := svc.CheckIn(ctx, c.date, c.in); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%s: expected ErrInvalidInput, got %v", name, err)
		}
	}
}

func TestCheckedInKeepsLatestStayPerPet(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, time.UTC)
	ctx := context.Background()

	_ = repo.Create(ctx, Stay{ID: "s1", PetID: "p1", CheckIn: time.Date(2026, 10, 13, 9, 0, 0, 0, time.UTC), CheckOut: time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)})
	_ = repo.Create(ctx, Stay{ID: "s2", PetID: "p1", CheckIn: time.Date(2026, 10, 14, 15, 0, 0, 0, time.UTC), CheckOut: time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)})

	items, err := svc.CheckedIn(ctx, "2026-10-14")
	if err != nil {
		t.Fatalf("CheckedIn: %v", err)
	}
	if len(items) != 1 || items[0].ID != "s2" {
		t.Fatalf("expected only s2, got %+v", items)
	}
}
