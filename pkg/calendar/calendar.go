// Package calendar formats the footer dates.
//
// The Hijri date follows the Umm al-Qura calendar of Saudi Arabia. When a
// date falls outside the table's range the formatter returns HijriFallback
// instead.
package calendar

import (
	"strconv"
	"strings"
	"time"

	"github.com/hablullah/go-hijri"
)

// HijriFallback is shown when the Hijri date cannot be computed.
const HijriFallback = "١٤٤٦ هـ"

// Formatter renders "now" in the two footer calendars.
type Formatter interface {
	Hijri(t time.Time) string
	Gregorian(t time.Time) string
}

// Arabic formats dates in Arabic with Arabic-Indic digits,
// e.g. "١٧ أكتوبر ٢٠٢٦" and "٥ ربيع الآخر ١٤٤٨ هـ".
type Arabic struct{}

var gregorianMonths = [12]string{
	"يناير", "فبراير", "مارس", "أبريل", "مايو", "يونيو",
	"يوليو", "أغسطس", "سبتمبر", "أكتوبر", "نوفمبر", "ديسمبر",
}

var hijriMonths = [12]string{
	"محرم", "صفر", "ربيع الأول", "ربيع الآخر", "جمادى الأولى", "جمادى الآخرة",
	"رجب", "شعبان", "رمضان", "شوال", "ذو القعدة", "ذو الحجة",
}

// Gregorian implements Formatter.
func (Arabic) Gregorian(t time.Time) string {
	return ArabicDigits(strconv.Itoa(t.Day())) + " " +
		gregorianMonths[t.Month()-1] + " " +
		ArabicDigits(strconv.Itoa(t.Year()))
}

// Hijri implements Formatter.
func (Arabic) Hijri(t time.Time) string {
	d, ok := ToHijri(t)
	if !ok {
		return HijriFallback
	}
	return ArabicDigits(strconv.Itoa(d.Day)) + " " +
		hijriMonths[d.Month-1] + " " +
		ArabicDigits(strconv.Itoa(d.Year)) + " هـ"
}

// HijriDate is a date in the Umm al-Qura calendar.
type HijriDate struct {
	Year  int
	Month int // 1–12
	Day   int // 1–30
}

// ToHijri converts the civil date of t (in its own location) to the
// Umm al-Qura calendar. ok is false outside the supported range
// (roughly 1356–1500 AH).
func ToHijri(t time.Time) (HijriDate, bool) {
	civil := time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, time.UTC)
	d, err := hijri.CreateUmmAlQuraDate(civil)
	if err != nil {
		return HijriDate{}, false
	}
	out := HijriDate{Year: int(d.Year), Month: int(d.Month), Day: int(d.Day)}
	if out.Month < 1 || out.Month > 12 || out.Day < 1 || out.Day > 30 {
		return HijriDate{}, false
	}
	return out, true
}

// ArabicDigits replaces ASCII digits in s with Arabic-Indic digits.
func ArabicDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 2)
	for _, r := range s {
		if r >= '0' && r <= '9' {
			r = '٠' + (r - '0')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Static always returns the same strings. Useful where calendar
// conversion is unavailable and in tests.
type Static struct {
	HijriText     string
	GregorianText string
}

// Hijri implements Formatter.
func (s Static) Hijri(time.Time) string { return s.HijriText }

// Gregorian implements Formatter.
func (s Static) Gregorian(time.Time) string { return s.GregorianText }
