package calc

import (
	"math"
	"time"
)

// excelEpoch is December 31, 1899: serial day 0. Excel (inherited from
// Lotus 1-2-3) treats 1900 as a leap year even though it isn't, so serial
// 60 is reserved for the fictitious February 29, 1900 and every serial
// from 61 onward is one day ahead of a true proleptic-Gregorian count
// from the epoch. Derived independently from spec §8 scenario 7
// (DATE(1900,3,1) must equal serial 61) rather than ported from any
// example repo, since none of the corpus models spreadsheet dates.
var excelEpoch = time.Date(1899, time.December, 31, 0, 0, 0, 0, time.UTC)

// dateToSerial converts a calendar date to its Excel serial number.
func dateToSerial(t time.Time) float64 {
	days := int(t.Sub(excelEpoch).Hours() / 24)
	if t.After(time.Date(1900, time.February, 28, 0, 0, 0, 0, time.UTC)) {
		days++
	}
	return float64(days)
}

// serialToDate converts an Excel serial number back to a calendar date.
func serialToDate(serial float64) time.Time {
	days := int(serial)
	if days >= 60 {
		days--
	}
	return excelEpoch.AddDate(0, 0, days)
}

// registerDateFuncs wires DATE/YEAR/MONTH/DAY/TODAY/EDATE, grounded on
// the Lotus 1900 serial-date rule spec §8 makes a universal invariant.
func registerDateFuncs(r *Registry) {
	r.Register("DATE", fnDate)
	r.Register("YEAR", fnYear)
	r.Register("MONTH", fnMonth)
	r.Register("DAY", fnDay)
	r.Register("EDATE", fnEdate)
	r.Register("EOMONTH", fnEomonth)
	r.Register("DAYS", fnDays)
	r.Register("TODAY", fnToday)
	r.Register("NOW", fnNow)
	r.Register("HOUR", fnHour)
	r.Register("MINUTE", fnMinute)
	r.Register("SECOND", fnSecond)
}

// fnEomonth returns the serial for the last day of the month that is
// months away from the start date.
func fnEomonth(args []Value) Value {
	n, nOk := ToNumber(arg(args, 0))
	months, mOk := ToNumber(arg(args, 1))
	if !nOk || !mOk {
		return ErrValue()
	}
	t := serialToDate(n)
	firstOfTarget := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, int(months)+1, 0)
	lastDay := firstOfTarget.AddDate(0, 0, -1)
	return Number{F: dateToSerial(lastDay), IsInt: true}
}

// fnToday and fnNow read time.Now() directly on every call; the
// registry has no per-call context to cache it in, and the Engine does
// not sample the clock once per Calculate call either.
func fnToday(args []Value) Value {
	now := time.Now().UTC()
	t := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return Number{F: dateToSerial(t), IsInt: true}
}

func fnNow(args []Value) Value {
	now := time.Now().UTC()
	days := dateToSerial(time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC))
	fraction := (float64(now.Hour())*3600 + float64(now.Minute())*60 + float64(now.Second())) / 86400
	return Float(days + fraction)
}

func fnHour(args []Value) Value {
	n, ok := ToNumber(arg(args, 0))
	if !ok {
		return ErrValue()
	}
	frac := n - math.Floor(n)
	return Int(int64(math.Floor(frac * 24)))
}

func fnMinute(args []Value) Value {
	n, ok := ToNumber(arg(args, 0))
	if !ok {
		return ErrValue()
	}
	frac := n - math.Floor(n)
	totalMinutes := frac * 1440
	return Int(int64(math.Floor(totalMinutes)) % 60)
}

func fnSecond(args []Value) Value {
	n, ok := ToNumber(arg(args, 0))
	if !ok {
		return ErrValue()
	}
	frac := n - math.Floor(n)
	totalSeconds := int64(math.Round(frac * 86400))
	return Int(totalSeconds % 60)
}

func fnDate(args []Value) Value {
	y, yOk := ToNumber(arg(args, 0))
	m, mOk := ToNumber(arg(args, 1))
	d, dOk := ToNumber(arg(args, 2))
	if !yOk || !mOk || !dOk {
		return ErrValue()
	}
	t := time.Date(int(y), time.Month(1), 1, 0, 0, 0, 0, time.UTC)
	t = t.AddDate(0, int(m)-1, int(d)-1)
	return Number{F: dateToSerial(t), IsInt: true}
}

func fnYear(args []Value) Value {
	n, ok := ToNumber(arg(args, 0))
	if !ok {
		return ErrValue()
	}
	return Int(int64(serialToDate(n).Year()))
}

func fnMonth(args []Value) Value {
	n, ok := ToNumber(arg(args, 0))
	if !ok {
		return ErrValue()
	}
	return Int(int64(serialToDate(n).Month()))
}

func fnDay(args []Value) Value {
	n, ok := ToNumber(arg(args, 0))
	if !ok {
		return ErrValue()
	}
	return Int(int64(serialToDate(n).Day()))
}

func fnEdate(args []Value) Value {
	n, nOk := ToNumber(arg(args, 0))
	months, mOk := ToNumber(arg(args, 1))
	if !nOk || !mOk {
		return ErrValue()
	}
	t := serialToDate(n).AddDate(0, int(months), 0)
	return Number{F: dateToSerial(t), IsInt: true}
}

func fnDays(args []Value) Value {
	end, eOk := ToNumber(arg(args, 0))
	start, sOk := ToNumber(arg(args, 1))
	if !eOk || !sOk {
		return ErrValue()
	}
	return Number{F: end - start, IsInt: true}
}
