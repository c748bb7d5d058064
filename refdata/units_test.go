package refdata

import (
	"context"
	"strings"
	"testing"

	"github.com/tder311/nemflow/models"
)

func TestSampleUnits(t *testing.T) {
	units := SampleUnits()
	if len(units) != 10 {
		t.Fatalf("expected 10 sample units, got %d", len(units))
	}

	byDUID := map[string]models.UnitMetadata{}
	for _, u := range units {
		byDUID[u.DUID] = u
	}
	hallett, ok := byDUID["AGLHAL"]
	if !ok {
		t.Fatal("AGLHAL missing from sample set")
	}
	if hallett.FuelSource != "Wind" || hallett.Region != "SA" || hallett.CapacityMW != 94.5 {
		t.Errorf("unexpected AGLHAL metadata: %+v", hallett)
	}
}

func TestReadCSV(t *testing.T) {
	in := `duid,station_name,region,fuel_source,technology_type,capacity_mw
LOYYB1,Loy Yang B,VIC1,Coal,Steam Turbine,535
,No Unit,VIC1,Coal,Steam Turbine,100
TORRB1,Torrens Island B,SA1,Gas,Steam Turbine,200
`
	units, err := ReadCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	if len(units) != 2 {
		t.Fatalf("expected 2 units, got %d", len(units))
	}
	if units[0].DUID != "LOYYB1" || units[0].CapacityMW != 535 {
		t.Errorf("unexpected first unit: %+v", units[0])
	}
	if units[0].Region != "VIC" {
		t.Errorf("region not normalized: %q", units[0].Region)
	}
}

func TestReadCSVMissingDUIDColumn(t *testing.T) {
	in := "station_name,region\nLoy Yang B,VIC\n"
	if _, err := ReadCSV(strings.NewReader(in)); err == nil {
		t.Fatal("expected error for missing duid column")
	}
}

type fakeUnitStore struct {
	upserted []models.UnitMetadata
}

func (f *fakeUnitStore) UpsertUnits(_ context.Context, rows []models.UnitMetadata) (int, error) {
	f.upserted = append(f.upserted, rows...)
	return len(rows), nil
}

func TestImportFallsBackToSamples(t *testing.T) {
	st := &fakeUnitStore{}
	n, err := Import(context.Background(), st, "")
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if n != len(SampleUnits()) {
		t.Fatalf("expected %d units, got %d", len(SampleUnits()), n)
	}
	if len(st.upserted) != n {
		t.Fatalf("store received %d units, want %d", len(st.upserted), n)
	}
}
