package parser

import (
	"fmt"
	"strings"

	"github.com/tder311/nemflow/internal/nemcsv"
	"github.com/tder311/nemflow/models"
)

// Bids parses BIDDAYOFFER_D and BIDPEROFFER_D rows from a Bidmove_Complete
// report, filtered to ENERGY offers. Both sub-tables are wide and versioned,
// so decoding is entirely header-driven. Rows arriving before their header,
// or missing a unit or timestamp, are skipped.
func Bids(raw []byte) ([]models.BidDayOffer, []models.BidIntervalOffer, int, error) {
	var (
		dayOffers      []models.BidDayOffer
		intervalOffers []models.BidIntervalOffer
		dayHeader      nemcsv.ColumnIndex
		perHeader      nemcsv.ColumnIndex
		skipped        int
	)

	sc := lineScanner(raw)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := nemcsv.Fields(line)
		if len(fields) < nemcsv.IDColumns {
			continue
		}

		group := fields[1]
		if group != "BID" && group != "BIDS" {
			continue
		}
		subTable := fields[2]

		switch fields[0] {
		case "I":
			if strings.Contains(subTable, "BIDDAYOFFER_D") {
				dayHeader = nemcsv.HeaderIndex(fields)
			} else if strings.Contains(subTable, "BIDPEROFFER_D") {
				perHeader = nemcsv.HeaderIndex(fields)
			}
		case "D":
			if strings.Contains(subTable, "BIDDAYOFFER_D") && dayHeader != nil {
				if offer, ok := decodeDayOffer(fields, dayHeader); ok {
					dayOffers = append(dayOffers, offer)
				} else {
					skipped++
				}
			} else if strings.Contains(subTable, "BIDPEROFFER_D") && perHeader != nil {
				if offer, ok := decodeIntervalOffer(fields, perHeader); ok {
					intervalOffers = append(intervalOffers, offer)
				} else {
					skipped++
				}
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, nil, skipped, err
	}

	if len(dayOffers) == 0 && len(intervalOffers) == 0 {
		return nil, nil, skipped, ErrNoData
	}
	return dayOffers, intervalOffers, skipped, nil
}

func decodeDayOffer(fields []string, header nemcsv.ColumnIndex) (models.BidDayOffer, bool) {
	var offer models.BidDayOffer

	if bt := header.Field(fields, "BIDTYPE"); bt != "" && bt != "ENERGY" {
		return offer, false
	}
	duid := header.Field(fields, "DUID")
	ts := header.Time(fields, "SETTLEMENTDATE")
	if duid == "" || ts.IsZero() {
		return offer, false
	}

	offer = models.BidDayOffer{
		SettlementDate: ts,
		DUID:           duid,
		MinimumLoad:    header.Float(fields, "MINIMUMLOAD"),
		T1:             header.Float(fields, "T1"),
		T2:             header.Float(fields, "T2"),
		T3:             header.Float(fields, "T3"),
		T4:             header.Float(fields, "T4"),
	}
	if od := header.Time(fields, "OFFERDATE"); !od.IsZero() {
		offer.OfferDate = &od
	}
	for i := 0; i < models.BandCount; i++ {
		offer.PriceBands[i] = header.Float(fields, fmt.Sprintf("PRICEBAND%d", i+1))
	}
	return offer, true
}

func decodeIntervalOffer(fields []string, header nemcsv.ColumnIndex) (models.BidIntervalOffer, bool) {
	var offer models.BidIntervalOffer

	if bt := header.Field(fields, "BIDTYPE"); bt != "" && bt != "ENERGY" {
		return offer, false
	}
	duid := header.Field(fields, "DUID")
	if duid == "" {
		return offer, false
	}
	// Newer report versions carry INTERVAL_DATETIME; older ones only
	// SETTLEMENTDATE plus a period number.
	ts := header.Time(fields, "INTERVAL_DATETIME")
	if ts.IsZero() {
		ts = header.Time(fields, "SETTLEMENTDATE")
	}
	if ts.IsZero() {
		return offer, false
	}

	offer = models.BidIntervalOffer{
		IntervalDateTime: ts,
		DUID:             duid,
		MaxAvail:         header.Float(fields, "MAXAVAIL"),
		FixedLoad:        header.Float(fields, "FIXEDLOAD"),
		RocUp:            header.Float(fields, "ROCUP"),
		RocDown:          header.Float(fields, "ROCDOWN"),
		PASAAvailability: header.Float(fields, "PASAAVAILABILITY"),
	}
	if od := header.Time(fields, "OFFERDATE"); !od.IsZero() {
		offer.OfferDate = &od
	}
	for i := 0; i < models.BandCount; i++ {
		offer.BandAvail[i] = header.Float(fields, fmt.Sprintf("BANDAVAIL%d", i+1))
	}
	return offer, true
}
