package runboard

import "math"

// CapacityStatus es la banda de ocupación.
type CapacityStatus string

const (
	CapacityNominal  CapacityStatus = "nominal"
	CapacityWarning  CapacityStatus = "warning"
	CapacityCritical CapacityStatus = "critical"
)

const (
	warningPercent  = 70
	criticalPercent = 90
)

// RunCapacity es la ocupación derivada de un run. Occupancy nunca se recorta:
// un run sobre capacidad se representa y se marca, no se esconde.
type RunCapacity struct {
	RunID              string
	Occupancy          int
	MaxCapacity        int
	RawPercent         int // round(100*occ/max), sin recortar
	UtilizationPercent int // recortado a 100 para mostrar
	OverCapacity       bool
	Status             CapacityStatus
}

// CapacitySummary agrega todos los runs del día.
type CapacitySummary struct {
	Runs               []RunCapacity
	TotalAssigned      int
	TotalCapacity      int
	UtilizationPercent int
	Status             CapacityStatus
}

func percent(occupancy, capacity int) int {
	if capacity <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(occupancy) / float64(capacity)))
}

// Classify aplica las bandas: <70 nominal, 70-89 warning, >=90 o sobre capacidad critical.
func Classify(occupancy, capacity int) CapacityStatus {
	if occupancy > capacity {
		return CapacityCritical
	}
	p := percent(occupancy, capacity)
	switch {
	case p >= criticalPercent:
		return CapacityCritical
	case p >= warningPercent:
		return CapacityWarning
	default:
		return CapacityNominal
	}
}

// ComputeRunCapacity es pura; se recalcula en cada lectura.
func ComputeRunCapacity(run Run, d *Draft) RunCapacity {
	occ := 0
	if d != nil {
		occ = len(d.byRun[run.ID])
	}
	capacity := run.Capacity()
	raw := percent(occ, capacity)
	return RunCapacity{
		RunID:              run.ID,
		Occupancy:          occ,
		MaxCapacity:        capacity,
		RawPercent:         raw,
		UtilizationPercent: min(raw, 100),
		OverCapacity:       occ > capacity,
		Status:             Classify(occ, capacity),
	}
}

// Summarize suma ocupación y capacidad de todos los runs.
func Summarize(runs []Run, d *Draft) CapacitySummary {
	out := CapacitySummary{Runs: make([]RunCapacity, 0, len(runs))}
	for _, r := range runs {
		rc := ComputeRunCapacity(r, d)
		out.Runs = append(out.Runs, rc)
		out.TotalAssigned += rc.Occupancy
		out.TotalCapacity += rc.MaxCapacity
	}
	out.UtilizationPercent = min(percent(out.TotalAssigned, out.TotalCapacity), 100)
	out.Status = CapacityNominal
	if out.TotalCapacity > 0 {
		out.Status = Classify(out.TotalAssigned, out.TotalCapacity)
	}
	return out
}
