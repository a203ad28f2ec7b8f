package dataset

// AllTechnologies matches every technology in a Filter.
const AllTechnologies = "All"

// Filter selects observations by year and technology. A zero Year matches
// every year; an empty Technology or AllTechnologies matches every
// technology.
type Filter struct {
	Year       int    `json:"year,omitempty"`
	Technology string `json:"technology,omitempty"`
}

// Match reports whether o passes the filter.
func (f Filter) Match(o Observation) bool {
	if f.Year != 0 && o.Year != f.Year {
		return false
	}
	if f.Technology != "" && f.Technology != AllTechnologies && o.Technology != f.Technology {
		return false
	}
	return true
}

// Apply returns the matching observations in input order.
func (f Filter) Apply(obs []Observation) []Observation {
	var out []Observation
	for _, o := range obs {
		if f.Match(o) {
			out = append(out, o)
		}
	}
	return out
}

// YearRange returns the smallest and largest year. ok is false for an
// empty slice.
func YearRange(obs []Observation) (min, max int, ok bool) {
	for i, o := range obs {
		if i == 0 || o.Year < min {
			min = o.Year
		}
		if i == 0 || o.Year > max {
			max = o.Year
		}
	}
	return min, max, len(obs) > 0
}

// Technologies returns the distinct technologies in first-seen order.
func Technologies(obs []Observation) []string {
	return distinct(obs, func(o Observation) string { return o.Technology })
}

func distinct(obs []Observation, key func(Observation) string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, o := range obs {
		k := key(o)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}
