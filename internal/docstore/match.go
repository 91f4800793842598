package docstore

import (
	"encoding/json"
	"reflect"
	"sort"
	"strings"
	"time"
)

func matches(f Fields, filters []Filter) bool {
	for _, flt := range filters {
		if !reflect.DeepEqual(f[flt.Field], jsonValue(flt.Value)) {
			return false
		}
	}
	return true
}

func jsonValue(v any) any {
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return v
	}
	return out
}

// apply filters, orders and limits docs. Sorting is stable so documents that
// tie keep their storage order.
func apply(docs []Document, q Query) []Document {
	out := make([]Document, 0, len(docs))
	for _, d := range docs {
		if matches(d.Fields, q.Filters) {
			out = append(out, d)
		}
	}
	if len(q.OrderBy) > 0 {
		sort.SliceStable(out, func(i, j int) bool {
			for _, ob := range q.OrderBy {
				c := compare(out[i].Fields[ob.Field], out[j].Fields[ob.Field])
				if c == 0 {
					continue
				}
				if ob.Desc {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

// compare orders normalized values: missing < bool < number < time < string.
func compare(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return ra - rb
	}
	switch av := a.(type) {
	case bool:
		bv := b.(bool)
		switch {
		case av == bv:
			return 0
		case !av:
			return -1
		default:
			return 1
		}
	case float64:
		bv := b.(float64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	case string:
		bv := b.(string)
		if ta, ok := asTime(av); ok {
			tb, _ := asTime(bv)
			return ta.Compare(tb)
		}
		return strings.Compare(av, bv)
	}
	return 0
}

func rank(v any) int {
	switch x := v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case float64:
		return 2
	case string:
		if _, ok := asTime(x); ok {
			return 3
		}
		return 4
	}
	return 5
}

func asTime(s string) (time.Time, bool) {
	t, err := time.Parse(time.RFC3339Nano, s)
	return t, err == nil
}
