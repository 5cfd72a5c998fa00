package runboard

// Draft es la copia de trabajo del día: run -> lista ordenada de asignaciones.
// El orden importa (planillas impresas, roster) y cuenta para dirty.
//
// Todas las operaciones son totales: no devuelven error y no persisten nada.
// No es thread-safe; la Session serializa el acceso.
type Draft struct {
	order []string
	byRun map[string][]Assignment
}

func NewDraft() *Draft {
	return &Draft{byRun: map[string][]Assignment{}}
}

// draftFromPayload arma el formato anidado a partir de la lista plana del backend.
// Runs sin asignaciones quedan con lista vacía; asignaciones a runs desconocidos se
// agregan al final del orden. Si el backend mandara un pet repetido, gana la última fila.
func draftFromPayload(runs []Run, flat []Assignment) *Draft {
	d := NewDraft()
	for _, r := range runs {
		d.ensureRun(r.ID)
	}
	for _, a := range flat {
		d.Place(a.PetID, a.RunID, a.StartTime, a.EndTime, a.BookingID, a.Notes)
		d.setID(a.RunID, a.PetID, a.ID)
	}
	return d
}

func (d *Draft) ensureRun(runID string) {
	if _, ok := d.byRun[runID]; ok {
		return
	}
	d.order = append(d.order, runID)
	d.byRun[runID] = []Assignment{}
}

// Place saca al pet de todos los runs y lo agrega al final de runID.
func (d *Draft) Place(petID, runID, start, end, bookingID, notes string) {
	d.UnassignEverywhere(petID)
	d.ensureRun(runID)
	d.byRun[runID] = append(d.byRun[runID], Assignment{
		RunID:     runID,
		PetID:     petID,
		StartTime: start,
		EndTime:   end,
		BookingID: bookingID,
		Notes:     notes,
	})
}

// Remove filtra la asignación del pet en runID (no-op si no está).
func (d *Draft) Remove(petID, runID string) {
	list, ok := d.byRun[runID]
	if !ok {
		return
	}
	out := list[:0:0]
	for _, a := range list {
		if a.PetID != petID {
			out = append(out, a)
		}
	}
	d.byRun[runID] = out
}

// UnassignEverywhere devuelve el pet al pool sacándolo de todos los runs.
func (d *Draft) UnassignEverywhere(petID string) {
	for _, runID := range d.order {
		d.Remove(petID, runID)
	}
}

// Reorder mueve un elemento dentro de la misma lista. No-op si los índices no sirven.
// Mover entre runs no existe a propósito: requiere una ventana confirmada (Place).
func (d *Draft) Reorder(runID string, from, to int) {
	list, ok := d.byRun[runID]
	if !ok || from == to {
		return
	}
	if from < 0 || from >= len(list) || to < 0 || to >= len(list) {
		return
	}

	out := make([]Assignment, 0, len(list))
	moved := list[from]
	for i, a := range list {
		if i != from {
			out = append(out, a)
		}
	}
	out = append(out[:to], append([]Assignment{moved}, out[to:]...)...)
	d.byRun[runID] = out
}

// AssignmentsFor devuelve una copia de la lista de runID (vacía si no hay).
func (d *Draft) AssignmentsFor(runID string) []Assignment {
	return append([]Assignment{}, d.byRun[runID]...)
}

// AllAssignedPetIDs es la unión de pets asignados, sin duplicados, en orden de board.
func (d *Draft) AllAssignedPetIDs() []string {
	seen := map[string]struct{}{}
	out := make([]string, 0)
	for _, runID := range d.order {
		for _, a := range d.byRun[runID] {
			if _, ok := seen[a.PetID]; ok {
				continue
			}
			seen[a.PetID] = struct{}{}
			out = append(out, a.PetID)
		}
	}
	return out
}

// Find ubica la asignación actual de un pet.
func (d *Draft) Find(petID string) (Assignment, bool) {
	for _, runID := range d.order {
		for _, a := range d.byRun[runID] {
			if a.PetID == petID {
				return a, true
			}
		}
	}
	return Assignment{}, false
}

// Flatten arma la lista plana para el replace-all: orden de runs, luego orden de lista.
func (d *Draft) Flatten() []Assignment {
	out := make([]Assignment, 0)
	for _, runID := range d.order {
		out = append(out, d.byRun[runID]...)
	}
	return out
}

// RunIDs devuelve los runs conocidos en orden.
func (d *Draft) RunIDs() []string {
	return append([]string{}, d.order...)
}

// Clone es una copia profunda (las Assignment son valores, alcanza con copiar slices).
func (d *Draft) Clone() *Draft {
	c := &Draft{
		order: append([]string{}, d.order...),
		byRun: make(map[string][]Assignment, len(d.byRun)),
	}
	for k, v := range d.byRun {
		c.byRun[k] = append([]Assignment{}, v...)
	}
	return c
}

// Equal es igualdad estructural sensible al orden. Los IDs del backend no cuentan.
func (d *Draft) Equal(o *Draft) bool {
	if d == nil || o == nil {
		return d == o
	}
	if len(d.order) != len(o.order) {
		return false
	}
	for i := range d.order {
		if d.order[i] != o.order[i] {
			return false
		}
		a, b := d.byRun[d.order[i]], o.byRun[o.order[i]]
		if len(a) != len(b) {
			return false
		}
		for j := range a {
			if !a[j].sameContent(b[j]) {
				return false
			}
		}
	}
	return true
}

// replaceWith copia el contenido de src sobre d (mismo puntero para los que lo tengan).
func (d *Draft) replaceWith(src *Draft) {
	c := src.Clone()
	d.order = c.order
	d.byRun = c.byRun
}

func (d *Draft) setID(runID, petID, id string) {
	list := d.byRun[runID]
	for i := range list {
		if list[i].PetID == petID {
			list[i].ID = id
			return
		}
	}
}
