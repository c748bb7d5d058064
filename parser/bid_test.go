package parser

import (
	"strings"
	"testing"
)

const bidSample = `C,NEMP.WORLD,BIDMOVE_COMPLETE,AEMO,PUBLIC,2025/01/15,04:30:00
I,BID,BIDDAYOFFER_D,2,SETTLEMENTDATE,DUID,BIDTYPE,BIDSETTLEMENTDATE,OFFERDATE,VERSIONNO,PRICEBAND1,PRICEBAND2,PRICEBAND3,PRICEBAND4,PRICEBAND5,PRICEBAND6,PRICEBAND7,PRICEBAND8,PRICEBAND9,PRICEBAND10,MINIMUMLOAD,T1,T2,T3,T4
D,BID,BIDDAYOFFER_D,2,"2025/01/15 00:00:00",AGLHAL,ENERGY,"2025/01/15 00:00:00","2025/01/14 12:31:00",1,-1000,0,55.5,80,120,200,500,1000,5000,15000,0,0,0,0,0
D,BID,BIDDAYOFFER_D,2,"2025/01/15 00:00:00",AGLHAL,RAISE6SEC,"2025/01/15 00:00:00","2025/01/14 12:31:00",1,0,1,2,3,4,5,6,7,8,9,0,0,0,0,0
I,BID,BIDPEROFFER_D,2,SETTLEMENTDATE,DUID,BIDTYPE,INTERVAL_DATETIME,OFFERDATE,MAXAVAIL,FIXEDLOAD,ROCUP,ROCDOWN,PASAAVAILABILITY,BANDAVAIL1,BANDAVAIL2,BANDAVAIL3,BANDAVAIL4,BANDAVAIL5,BANDAVAIL6,BANDAVAIL7,BANDAVAIL8,BANDAVAIL9,BANDAVAIL10
D,BID,BIDPEROFFER_D,2,"2025/01/15 00:00:00",AGLHAL,ENERGY,"2025/01/15 04:05:00","2025/01/14 12:31:00",94,0,3,3,94,10,20,30,4,5,6,7,8,9,5
D,BID,BIDPEROFFER_D,2,"2025/01/15 00:00:00",AGLHAL,LOWER6SEC,"2025/01/15 04:05:00","2025/01/14 12:31:00",94,0,3,3,94,1,2,3,4,5,6,7,8,9,10
C,END OF REPORT
`

func TestBidsFiltersToEnergy(t *testing.T) {
	dayOffers, intervalOffers, _, err := Bids([]byte(bidSample))
	if err != nil {
		t.Fatalf("Bids failed: %v", err)
	}
	if len(dayOffers) != 1 {
		t.Fatalf("expected 1 ENERGY day offer, got %d", len(dayOffers))
	}
	if len(intervalOffers) != 1 {
		t.Fatalf("expected 1 ENERGY interval offer, got %d", len(intervalOffers))
	}

	day := dayOffers[0]
	if day.DUID != "AGLHAL" {
		t.Fatalf("unexpected day offer DUID: %q", day.DUID)
	}
	if day.PriceBands[0] == nil || *day.PriceBands[0] != -1000 {
		t.Fatalf("price band 1 wrong: %+v", day.PriceBands[0])
	}
	if day.PriceBands[9] == nil || *day.PriceBands[9] != 15000 {
		t.Fatalf("price band 10 wrong: %+v", day.PriceBands[9])
	}
	if day.OfferDate == nil {
		t.Fatal("offer date missing")
	}

	per := intervalOffers[0]
	if per.IntervalDateTime.Hour() != 4 || per.IntervalDateTime.Minute() != 5 {
		t.Fatalf("interval timestamp wrong: %v", per.IntervalDateTime)
	}
	if per.MaxAvail == nil || *per.MaxAvail != 94 {
		t.Fatalf("max avail wrong: %+v", per.MaxAvail)
	}
	if per.BandAvail[2] == nil || *per.BandAvail[2] != 30 {
		t.Fatalf("band avail 3 wrong: %+v", per.BandAvail[2])
	}
}

func TestBidsIntervalFallsBackToSettlementDate(t *testing.T) {
	sample := `I,BID,BIDPEROFFER_D,1,SETTLEMENTDATE,DUID,BIDTYPE,OFFERDATE,MAXAVAIL,BANDAVAIL1
D,BID,BIDPEROFFER_D,1,"2025/01/15 00:00:00",BASTYAN,ENERGY,"2025/01/14 09:00:00",80,80
`
	_, intervalOffers, _, err := Bids([]byte(sample))
	if err != nil {
		t.Fatalf("Bids failed: %v", err)
	}
	if len(intervalOffers) != 1 {
		t.Fatalf("expected 1 interval offer, got %d", len(intervalOffers))
	}
	if intervalOffers[0].IntervalDateTime.Day() != 15 {
		t.Fatalf("fallback timestamp wrong: %v", intervalOffers[0].IntervalDateTime)
	}
}

func TestBidsNoEnergyRows(t *testing.T) {
	sample := strings.ReplaceAll(bidSample, "ENERGY", "RAISE60SEC")
	_, _, _, err := Bids([]byte(sample))
	if err != ErrNoData {
		t.Fatalf("expected ErrNoData when no ENERGY rows remain, got %v", err)
	}
}
