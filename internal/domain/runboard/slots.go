package runboard

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	minutesPerDay = 24 * 60

	// DefaultStepMinutes es el paso cuando el run no tiene TimePeriodMinutes.
	DefaultStepMinutes = 30

	gridStepMinutes  = 15
	gridFirstMinutes = 7 * 60  // 07:00
	gridLastMinutes  = 20 * 60 // 20:00
)

// ParseClock convierte "HH:MM" (24h, siempre dos dígitos) a minutos desde medianoche.
// El formato fijo es lo que permite comparar ventanas por string.
func ParseClock(s string) (int, error) {
	s = strings.TrimSpace(s)
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	h, err := strconv.Atoi(s[:2])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	m, err := strconv.Atoi(s[3:])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return h*60 + m, nil
}

// FormatClock es la inversa de ParseClock; envuelve en 24h.
func FormatClock(minutes int) string {
	minutes %= minutesPerDay
	if minutes < 0 {
		minutes += minutesPerDay
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ComputeEndTime = start + period, aritmética entera módulo 24h (hora local de la instalación).
func ComputeEndTime(start string, periodMinutes int) (string, error) {
	m, err := ParseClock(start)
	if err != nil {
		return "", err
	}
	return FormatClock(m + periodMinutes), nil
}

// ValidateWindow exige HH:MM válidos y start < end.
func ValidateWindow(start, end string) error {
	if _, err := ParseClock(start); err != nil {
		return err
	}
	if _, err := ParseClock(end); err != nil {
		return err
	}
	if start >= end {
		return fmt.Errorf("%w: start %s must be before end %s", ErrInvalidWindow, start, end)
	}
	return nil
}

// Suggestion es la ventana por defecto que se ofrece al confirmar una ubicación.
type Suggestion struct {
	Start      string
	End        string // vacío si EndDerived == false
	EndDerived bool
	Step       int // minutos sugeridos para la UI cuando no hay período
	Windows    []Window
}

// SuggestWindow calcula el fin por defecto para un run y un inicio pedido.
// Sin TimePeriodMinutes no se deriva fin: el caller debe mandarlo explícito.
func SuggestWindow(run Run, start string) (Suggestion, error) {
	if _, err := ParseClock(start); err != nil {
		return Suggestion{}, err
	}
	if run.TimePeriodMinutes == nil || *run.TimePeriodMinutes <= 0 {
		return Suggestion{Start: start, Step: DefaultStepMinutes}, nil
	}
	end, err := ComputeEndTime(start, *run.TimePeriodMinutes)
	if err != nil {
		return Suggestion{}, err
	}
	return Suggestion{
		Start:      start,
		End:        end,
		EndDerived: true,
		Step:       *run.TimePeriodMinutes,
	}, nil
}

// CandidateGrid es la grilla fija (cada 15' de 07:00 a 20:00) cuando no hay lista de slots.
func CandidateGrid(periodMinutes *int) []Window {
	length := DefaultStepMinutes
	if periodMinutes != nil && *periodMinutes > 0 {
		length = *periodMinutes
	}

	out := make([]Window, 0, (gridLastMinutes-gridFirstMinutes)/gridStepMinutes+1)
	for m := gridFirstMinutes; m <= gridLastMinutes; m += gridStepMinutes {
		out = append(out, Window{
			StartTime: FormatClock(m),
			EndTime:   FormatClock(m + length),
			Available: true,
		})
	}
	return out
}

// RankWindows ordena: abiertas desde el inicio pedido, luego abiertas anteriores,
// luego las no disponibles. Las no disponibles se ofrecen igual (la lista es orientativa).
func RankWindows(windows []Window, requested string) []Window {
	req, err := ParseClock(requested)
	if err != nil {
		req = 0
	}

	rank := func(w Window) int {
		start, err := ParseClock(w.StartTime)
		if err != nil {
			return 3
		}
		switch {
		case w.Available && start >= req:
			return 0
		case w.Available:
			return 1
		default:
			return 2
		}
	}

	out := append([]Window(nil), windows...)
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := rank(out[i]), rank(out[j])
		if ri != rj {
			return ri < rj
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out
}

// NextAvailable elige la próxima ventana abierta respecto del inicio pedido.
// ok == false cuando no hay ninguna abierta.
func NextAvailable(windows []Window, requested string) (Window, bool) {
	for _, w := range RankWindows(windows, requested) {
		if w.Available {
			return w, true
		}
	}
	return Window{}, false
}

// roundUpToGrid redondea la hora del reloj al próximo múltiplo de 15' dentro de la grilla.
func roundUpToGrid(t time.Time) string {
	m := t.Hour()*60 + t.Minute()
	if t.Second() > 0 || t.Nanosecond() > 0 {
		m++
	}
	if rem := m % gridStepMinutes; rem != 0 {
		m += gridStepMinutes - rem
	}
	if m < gridFirstMinutes {
		m = gridFirstMinutes
	}
	if m > gridLastMinutes {
		m = gridLastMinutes
	}
	return FormatClock(m)
}
