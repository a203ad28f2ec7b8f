package dataset

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ziadkadry99/healthviz/internal/db"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	d, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return NewStore(d)
}

func TestStoreImportAndQuery(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	res := readMedTech(t)

	var last int
	imp, err := s.Import(ctx, "med.csv", res, func(done int) { last = done })
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if imp.ID == "" || imp.Rows != 5 || imp.Skipped != 1 {
		t.Errorf("import = %+v", imp)
	}
	if last != 5 {
		t.Errorf("progress reached %d, want 5", last)
	}

	n, err := s.Count(ctx)
	if err != nil || n != 5 {
		t.Fatalf("Count = %d, %v", n, err)
	}

	got, err := s.Query(ctx, Filter{Year: 2021, Technology: "MRI units"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 2 || got[0].ID != "Japan|MRI units|2021" || got[1].Country != "Korea" {
		t.Fatalf("Query = %+v", got)
	}
	if got[0].Fields[ColCategory] != "Very High" {
		t.Errorf("fields not restored: %v", got[0].Fields)
	}

	all, err := s.Query(ctx, Filter{Technology: AllTechnologies})
	if err != nil || len(all) != 5 {
		t.Errorf("Query(All) = %d rows, %v", len(all), err)
	}
}

func TestStoreReimportReplaces(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	res := readMedTech(t)
	for i := 0; i < 2; i++ {
		if _, err := s.Import(ctx, "med.csv", res, nil); err != nil {
			t.Fatalf("Import %d: %v", i, err)
		}
	}
	n, err := s.Count(ctx)
	if err != nil || n != 5 {
		t.Errorf("Count after reimport = %d, %v", n, err)
	}
}

func TestStoreRangeAndTechnologies(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	if _, _, ok, err := s.YearRange(ctx); err != nil || ok {
		t.Errorf("empty YearRange ok=%v err=%v", ok, err)
	}

	if _, err := s.Import(ctx, "med.csv", readMedTech(t), nil); err != nil {
		t.Fatal(err)
	}
	lo, hi, ok, err := s.YearRange(ctx)
	if err != nil || !ok || lo != 2020 || hi != 2021 {
		t.Errorf("YearRange = %d, %d, %v, %v", lo, hi, ok, err)
	}
	techs, err := s.Technologies(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(techs) != 2 || techs[0] != "MRI units" || techs[1] != "CT scanners" {
		t.Errorf("Technologies = %v", techs)
	}
}

func TestStoreImports(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	for _, src := range []string{"2020.csv", "2021.csv"} {
		if _, err := s.Import(ctx, src, readMedTech(t), nil); err != nil {
			t.Fatalf("Import %s: %v", src, err)
		}
	}

	imports, err := s.Imports(ctx, 0)
	if err != nil {
		t.Fatalf("Imports: %v", err)
	}
	if len(imports) != 2 || imports[0].Source != "2021.csv" {
		t.Fatalf("imports = %+v", imports)
	}
	if imports[0].Rows != 5 || imports[0].Skipped != 1 || imports[0].CreatedAt.IsZero() {
		t.Errorf("latest import = %+v", imports[0])
	}

	limited, err := s.Imports(ctx, 1)
	if err != nil || len(limited) != 1 {
		t.Errorf("Imports(1) = %v, %v", limited, err)
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"hierarchical_data.json":    `{}`,
		"maps/world.geojson":        `{}`,
		"cleaned/OECD_MED_TECH.csv": "Country,Year,OBS_VALUE\n",
		"notes.txt":                 "ignored",
		"node_modules/dep.json":     `{}`,
	}
	for name, body := range files {
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := Discover(dir, nil)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	want := []Entry{
		{Name: "OECD_MED_TECH", Kind: KindTable},
		{Name: "hierarchical_data", Kind: KindTree},
		{Name: "world", Kind: KindBoundaries},
	}
	if len(entries) != len(want) {
		t.Fatalf("entries = %+v", entries)
	}
	for i, w := range want {
		if entries[i].Name != w.Name || entries[i].Kind != w.Kind {
			t.Errorf("entry %d = %+v, want %+v", i, entries[i], w)
		}
	}

	if e, ok := Lookup(entries, "world", KindBoundaries); !ok || filepath.Base(e.Path) != "world.geojson" {
		t.Errorf("Lookup(world) = %+v, %v", e, ok)
	}
	if _, ok := Lookup(entries, "world", KindTree); ok {
		t.Error("Lookup should respect kind")
	}

	only, err := Discover(dir, []string{"**/*.csv"})
	if err != nil || len(only) != 1 || only[0].Kind != KindTable {
		t.Errorf("Discover(csv) = %+v, %v", only, err)
	}
}
