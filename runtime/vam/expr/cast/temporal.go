package cast

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/brimdata/esql"
)

var durationUnits = map[string]time.Duration{
	"millisecond":  time.Millisecond,
	"milliseconds": time.Millisecond,
	"ms":           time.Millisecond,
	"second":       time.Second,
	"seconds":      time.Second,
	"sec":          time.Second,
	"s":            time.Second,
	"minute":       time.Minute,
	"minutes":      time.Minute,
	"min":          time.Minute,
	"hour":         time.Hour,
	"hours":        time.Hour,
	"h":            time.Hour,
}

var periodUnits = map[string]esql.Period{
	"day":      {Days: 1},
	"days":     {Days: 1},
	"d":        {Days: 1},
	"week":     {Days: 7},
	"weeks":    {Days: 7},
	"w":        {Days: 7},
	"month":    {Months: 1},
	"months":   {Months: 1},
	"mo":       {Months: 1},
	"quarter":  {Months: 3},
	"quarters": {Months: 3},
	"q":        {Months: 3},
	"year":     {Months: 12},
	"years":    {Months: 12},
	"yr":       {Months: 12},
	"y":        {Months: 12},
}

// Temporal returns n units as a time_duration or date_period value.
func Temporal(n int64, unit string) (esql.Value, error) {
	unit = strings.ToLower(unit)
	if d, ok := durationUnits[unit]; ok {
		if n > int64(1<<63-1)/int64(d) || n < -int64(1<<63-1)/int64(d) {
			return esql.Null, fmt.Errorf("[%d %s] out of [time_duration] range", n, unit)
		}
		return esql.Value{Type: esql.TypeTimeDuration, Any: n * int64(d)}, nil
	}
	if p, ok := periodUnits[unit]; ok {
		months, days := n*int64(p.Months), n*int64(p.Days)
		if months > 1<<31-1 || months < -1<<31 || days > 1<<31-1 || days < -1<<31 {
			return esql.Null, fmt.Errorf("[%d %s] out of [date_period] range", n, unit)
		}
		return esql.Value{Type: esql.TypeDatePeriod, Any: esql.Period{Months: int32(months), Days: int32(days)}.Pack()}, nil
	}
	return esql.Null, fmt.Errorf("Unexpected temporal unit: '%s'", unit)
}

// ParseTemporal parses strings such as "3 hours" or "1 year" into a value
// of type typ.
func ParseTemporal(s string, typ esql.DataType) (esql.Value, error) {
	num, unit, ok := strings.Cut(strings.TrimSpace(s), " ")
	if !ok {
		return esql.Null, fmt.Errorf("Cannot convert [%s] to [%s]", s, typ)
	}
	n, err := strconv.ParseInt(num, 10, 64)
	if err != nil {
		return esql.Null, fmt.Errorf("Cannot convert [%s] to [%s]", s, typ)
	}
	val, err := Temporal(n, strings.TrimSpace(unit))
	if err != nil {
		return esql.Null, err
	}
	if val.Type != typ {
		return esql.Null, fmt.Errorf("Cannot convert [%s] to [%s]", s, typ)
	}
	return val, nil
}
