package engine

import "time"

func isBusinessDay(d time.Time) bool {
	wd := d.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

func midnightUTC(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

// rebalanceDates produces the strictly ascending sequence of evaluation
// dates between start and end (inclusive): every business day for Daily,
// the last business day of each ISO week for Weekly and the last business
// day of each calendar month for Monthly. An unknown frequency fails
// before any simulation work is done.
func rebalanceDates(start, end time.Time, freq Frequency) ([]time.Time, error) {
	if !freq.valid() {
		return nil, UnknownFrequencyErr
	}

	var business []time.Time
	for d := midnightUTC(start); !d.After(midnightUTC(end)); d = d.AddDate(0, 0, 1) {
		if isBusinessDay(d) {
			business = append(business, d)
		}
	}
	if freq == Daily {
		return business, nil
	}

	// A business day closes its period when the next business day falls in
	// a different ISO week (weekly) or calendar month (monthly), or when
	// it is the last business day in range.
	var dates []time.Time
	for i, d := range business {
		if i == len(business)-1 {
			dates = append(dates, d)
			break
		}
		next := business[i+1]
		if freq == Weekly {
			y1, w1 := d.ISOWeek()
			y2, w2 := next.ISOWeek()
			if y1 != y2 || w1 != w2 {
				dates = append(dates, d)
			}
			continue
		}
		if d.Month() != next.Month() || d.Year() != next.Year() {
			dates = append(dates, d)
		}
	}
	return dates, nil
}
