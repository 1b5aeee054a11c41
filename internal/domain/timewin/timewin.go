// Package timewin calcula ventanas de calendario (día/semana/mes/año) y
// define la serialización canónica de timestamps locales "naive".
//
// Todo el sistema razona en hora civil local del negocio: los instantes
// viajan y se guardan SIN offset ni zona ("YYYY-MM-DDTHH:mm:ss"). El formato
// exacto es requisito de compatibilidad de wire, no una elección de display.
package timewin

import "time"

const (
	// LayoutLocal es el formato de timestamp local naive en el wire.
	LayoutLocal = "2006-01-02T15:04:05"
	// LayoutDate es el formato de fechas sin componente horario.
	LayoutDate = "2006-01-02"
)

// Format serializa t en el formato canónico local (descarta sub-segundos).
func Format(t time.Time) string {
	return t.Format(LayoutLocal)
}

// FormatDate serializa solo la fecha (YYYY-MM-DD).
func FormatDate(t time.Time) string {
	return t.Format(LayoutDate)
}

// Parse interpreta un timestamp local naive. No acepta offset ni zona.
func Parse(s string) (time.Time, error) {
	return time.Parse(LayoutLocal, s)
}

// ParseDate interpreta una fecha YYYY-MM-DD.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(LayoutDate, s)
}

// StartOfDay devuelve d con hora 00:00:00.000.
func StartOfDay(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
}

// EndOfDay devuelve d con hora 23:59:59.999.
func EndOfDay(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, int(999*time.Millisecond), d.Location())
}

// StartOfWeek devuelve el lunes 00:00:00.000 de la semana de d.
// La semana empieza lunes: el domingo (weekday 0) cierra la semana anterior.
func StartOfWeek(d time.Time) time.Time {
	offset := int(d.Weekday()) - 1
	if d.Weekday() == time.Sunday {
		offset = 6
	}
	return StartOfDay(d.AddDate(0, 0, -offset))
}

// EndOfWeek devuelve el domingo 23:59:59.999 de la semana de d.
func EndOfWeek(d time.Time) time.Time {
	return EndOfDay(StartOfWeek(d).AddDate(0, 0, 6))
}

// StartOfMonth devuelve el día 1 del mes de d a las 00:00:00.000.
func StartOfMonth(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, d.Location())
}

// EndOfMonth devuelve el último día del mes de d a las 23:59:59.999.
func EndOfMonth(d time.Time) time.Time {
	return EndOfDay(StartOfMonth(d).AddDate(0, 1, -1))
}

// StartOfYear devuelve el 1 de enero del año de d a las 00:00:00.000.
func StartOfYear(d time.Time) time.Time {
	return time.Date(d.Year(), time.January, 1, 0, 0, 0, 0, d.Location())
}

// EndOfYear devuelve el 31 de diciembre del año de d a las 23:59:59.999.
func EndOfYear(d time.Time) time.Time {
	return EndOfDay(time.Date(d.Year(), time.December, 31, 0, 0, 0, 0, d.Location()))
}
