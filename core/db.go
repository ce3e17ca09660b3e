package core

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// FilterOrderings drops the orderings whose field is not one of `allowed`.
// Orderings come from query strings and end up in ORDER BY clauses.
func FilterOrderings(orderings []DBOrdering, allowed ...string) []DBOrdering {
	if len(orderings) == 0 {
		return nil
	}
	ok := make(map[string]struct{}, len(allowed))
	for _, f := range allowed {
		ok[f] = struct{}{}
	}
	out := make([]DBOrdering, 0, len(orderings))
	for _, ord := range orderings {
		if _, found := ok[ord.Field]; found {
			out = append(out, ord)
		}
	}
	return out
}
