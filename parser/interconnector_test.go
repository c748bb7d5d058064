package parser

import (
	"errors"
	"testing"
)

func TestInterconnectorFlows(t *testing.T) {
	sample := `I,DISPATCH,INTERCONNECTORRES,3,SETTLEMENTDATE,RUNNO,INTERCONNECTORID,DISPATCHINTERVAL,INTERVENTION,METEREDMWFLOW,MWFLOW,MWLOSSES,MARGINALVALUE
D,DISPATCH,INTERCONNECTORRES,3,"2025/01/15 04:05:00",1,VIC1-NSW1,20250115001,0,352.1,348.9,12.4,0.0
D,DISPATCH,INTERCONNECTORRES,3,"2025/01/15 04:05:00",1,,20250115001,0,1,2,3,4
D,DISPATCH,INTERCONNECTORRES,3,"2025/01/15 04:05:00",1,T-V-MNSP1,20250115001,0,-120.0,-118.3,4.1,0.0
`
	flows, skipped, err := InterconnectorFlows([]byte(sample))
	if err != nil {
		t.Fatalf("InterconnectorFlows failed: %v", err)
	}
	if len(flows) != 2 {
		t.Fatalf("expected 2 flows, got %d", len(flows))
	}
	if skipped != 1 {
		t.Fatalf("row without a link id should be skipped, got skipped=%d", skipped)
	}
	if flows[0].InterconnectorID != "VIC1-NSW1" || flows[0].MeteredMWFlow != 352.1 || flows[0].MWLoss != 12.4 {
		t.Fatalf("unexpected first flow: %+v", flows[0])
	}
	if flows[1].MWFlow != -118.3 {
		t.Fatalf("negative flow not preserved: %+v", flows[1])
	}
}

func TestInterconnectorFlowsRequiresHeader(t *testing.T) {
	// Data rows before any header row cannot be decoded positionally.
	sample := `D,DISPATCH,INTERCONNECTORRES,3,"2025/01/15 04:05:00",1,VIC1-NSW1,20250115001,0,352.1,348.9,12.4,0.0
`
	_, skipped, err := InterconnectorFlows([]byte(sample))
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
	if skipped != 1 {
		t.Fatalf("headerless row should count as skipped, got %d", skipped)
	}
}
