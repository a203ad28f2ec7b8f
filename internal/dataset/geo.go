package dataset

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// Feature is a country outline of a boundary dataset. Only its name and
// geometry type are read; the coordinates are left to the client.
type Feature struct {
	Name     string `json:"name"`
	Geometry string `json:"geometry"`
}

// ReadBoundaries lists the features of a GeoJSON FeatureCollection.
func ReadBoundaries(data []byte) ([]Feature, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("reading boundaries: invalid JSON")
	}
	features := gjson.GetBytes(data, "features")
	if !features.IsArray() {
		return nil, fmt.Errorf("reading boundaries: missing features array")
	}
	var out []Feature
	for i, f := range features.Array() {
		name := f.Get("properties.name")
		if name.Type != gjson.String {
			return nil, fmt.Errorf("reading boundaries: feature %d has no properties.name", i)
		}
		out = append(out, Feature{Name: name.String(), Geometry: f.Get("geometry.type").String()})
	}
	return out, nil
}

// CountryValue is a feature joined with its observation.
type CountryValue struct {
	Name     string  `json:"name"`
	Value    float64 `json:"value"`
	Category string  `json:"category,omitempty"`
	HasData  bool    `json:"has_data"`
}

// MatchCountries joins features with observations by exact country name.
// Features without an observation get HasData false. When several rows
// name the same country the first one wins.
func MatchCountries(features []Feature, obs []Observation) []CountryValue {
	byName := make(map[string]Observation, len(obs))
	for _, o := range obs {
		if _, ok := byName[o.Country]; !ok {
			byName[o.Country] = o
		}
	}
	out := make([]CountryValue, len(features))
	for i, f := range features {
		out[i] = CountryValue{Name: f.Name}
		if o, ok := byName[f.Name]; ok {
			out[i].Value = o.Value
			out[i].Category = o.Category
			out[i].HasData = true
		}
	}
	return out
}
