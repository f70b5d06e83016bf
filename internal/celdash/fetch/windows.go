package fetch

import "time"

// Window is one half-open sub-range [From, To) of a fetch.
type Window struct {
	From time.Time
	To   time.Time
}

// Windows partitions [from, to) into consecutive windows of size. The last
// window may be shorter. A non-positive size yields a single window.
func Windows(from, to time.Time, size time.Duration) []Window {
	if !to.After(from) {
		return nil
	}
	if size <= 0 {
		return []Window{{From: from, To: to}}
	}

	var out []Window
	for cursor := from; cursor.Before(to); {
		end := cursor.Add(size)
		if end.After(to) {
			end = to
		}
		out = append(out, Window{From: cursor, To: end})
		cursor = end
	}
	return out
}
