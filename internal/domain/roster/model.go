package roster

import "time"

// Species define las especies admitidas en la guardería.
// @Enum dog, cat
type Species string

const (
	SpeciesDog Species = "dog"
	SpeciesCat Species = "cat"
)

func (s Species) Valid() bool {
	return s == SpeciesDog || s == SpeciesCat
}

// Flags de comportamiento que el board muestra como badges.
const (
	FlagReactive   = "reactive"
	FlagEscapeRisk = "escape_risk"
	FlagSenior     = "senior"
	FlagSoloOnly   = "solo_only"
)

// Stay es una estadía (booking) con check-in activo. El ID es el booking ID.
type Stay struct {
	ID    string
	PetID string

	PetName string
	Species Species
	Breed   string

	OwnerUserIDs  []string
	BehaviorFlags []string

	MedicalNotes string
	DietaryNotes string

	ServiceName string
	CheckIn     time.Time
	CheckOut    time.Time

	CreatedAt time.Time
}

// ActiveOn: la estadía pisa el día [start, end).
func (s Stay) ActiveOn(start, end time.Time) bool {
	return s.CheckIn.Before(end) && s.CheckOut.After(start)
}
