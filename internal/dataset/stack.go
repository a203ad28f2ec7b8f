package dataset

import "github.com/aclements/go-moremath/vec"

// NoDataLabel is drawn for groups without any value.
const NoDataLabel = "No Data Available"

// StackRow is one stacked column.
type StackRow struct {
	Group  string    `json:"group"`
	Values []float64 `json:"values"` // aligned with Stacked.Series
	Total  float64   `json:"total"`
	NoData bool      `json:"no_data"`
}

// Stacked is a per-group breakdown of one year.
type Stacked struct {
	Year   int        `json:"year"`
	Series []string   `json:"series"`
	Rows   []StackRow `json:"rows"`
	Max    float64    `json:"max"`
}

// Stack aggregates the observations of year into one row per distinct
// value of the group column and one value per distinct value of the series
// column. Groups and series come from every year, so a group absent in
// year still gets a row, flagged NoData. A missing cell counts as zero and
// the first matching row wins.
func Stack(obs []Observation, group, series string, year int) Stacked {
	groups := distinct(obs, func(o Observation) string { return o.Field(group) })
	s := Stacked{
		Year:   year,
		Series: distinct(obs, func(o Observation) string { return o.Field(series) }),
	}
	index := make(map[string]int, len(s.Series))
	for i, name := range s.Series {
		index[name] = i
	}

	rows := make(map[string]*StackRow, len(groups))
	filled := make(map[string]map[int]bool, len(groups))
	for _, g := range groups {
		rows[g] = &StackRow{Group: g, Values: make([]float64, len(s.Series))}
		filled[g] = make(map[int]bool)
	}
	for _, o := range obs {
		if o.Year != year {
			continue
		}
		g := o.Field(group)
		i, ok := index[o.Field(series)]
		if !ok || rows[g] == nil || filled[g][i] {
			continue
		}
		rows[g].Values[i] = o.Value
		filled[g][i] = true
	}

	for _, g := range groups {
		r := rows[g]
		r.Total = vec.Sum(r.Values)
		r.NoData = r.Total == 0
		if r.Total > s.Max {
			s.Max = r.Total
		}
		s.Rows = append(s.Rows, *r)
	}
	return s
}
