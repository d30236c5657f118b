package schedule

import (
	"sort"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

//ValidStatuses are the statuses of the events that count for the schedule
var ValidStatuses = map[string]bool{"Scheduled": true, "Confirmed": true, "Completed": true}

//Event is a read only schedule record
type Event struct {
	ID         string
	TenantRefs []string
	//Date in YYYY-MM-DD form
	Date   string
	Status string
}

//Summary holds the nearest past and future event dates, empty string means none
type Summary struct {
	Last string
	Next string
}

//NearestEvents finds the last event before today and the first event on or after today
//for the tenant ref. Dates must be normalized to YYYY-MM-DD, see NormalizeDate.
func NearestEvents(tenantRef string, events []Event, today string) Summary {
	var past, future []string
	for _, e := range events {
		if !matches(tenantRef, &e) {
			continue
		}
		if e.Date < today {
			past = append(past, e.Date)
		} else {
			future = append(future, e.Date)
		}
	}
	res := Summary{}
	if len(past) > 0 {
		sort.SliceStable(past, func(i, j int) bool { return past[i] > past[j] })
		res.Last = past[0]
	}
	if len(future) > 0 {
		sort.SliceStable(future, func(i, j int) bool { return future[i] < future[j] })
		res.Next = future[0]
	}
	return res
}

func matches(tenantRef string, e *Event) bool {
	if e.Date == "" || !ValidStatuses[e.Status] {
		return false
	}
	for _, r := range e.TenantRefs {
		if r == tenantRef {
			return true
		}
	}
	return false
}

//Today returns the UTC date of the time
func Today(now time.Time) string {
	return now.UTC().Format(dateLayout)
}

//NormalizeDate converts a loose datastore value to YYYY-MM-DD, returns "" if the value is not a date
func NormalizeDate(v interface{}) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC().Format(dateLayout)
	}
	if len(s) >= len(dateLayout) {
		if _, err := time.Parse(dateLayout, s[:len(dateLayout)]); err == nil {
			return s[:len(dateLayout)]
		}
	}
	return ""
}

//NormalizeRefs converts a loose link field value to the list of ids
func NormalizeRefs(v interface{}) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []interface{}:
		res := make([]string, 0, len(t))
		for _, i := range t {
			if s, ok := i.(string); ok && s != "" {
				res = append(res, s)
			}
		}
		return res
	case string:
		if t != "" {
			return []string{t}
		}
	}
	return nil
}
