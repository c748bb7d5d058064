package models

import (
	"time"
)

// PriceSource identifies which NEMWEB report family a price row came from.
type PriceSource string

const (
	// SourceDispatch is the provisional 5-minute dispatch price, published
	// within minutes of the interval.
	SourceDispatch PriceSource = "DISPATCH"
	// SourceTrading is the 30-minute trading price.
	SourceTrading PriceSource = "TRADING"
	// SourcePublic is the settlement-grade daily price series, published
	// with a multi-hour lag.
	SourcePublic PriceSource = "PUBLIC"
)

// FeedKind names one category of market data handled by the ingester.
type FeedKind string

const (
	FeedDispatch        FeedKind = "dispatch"
	FeedPrice           FeedKind = "price"
	FeedInterconnector  FeedKind = "interconnector"
	FeedReserveForecast FeedKind = "pasa"
	FeedBids            FeedKind = "bids"
	FeedPriceSetter     FeedKind = "price_setter"
)

// PASAHorizon selects which reserve-adequacy report a forecast belongs to.
type PASAHorizon string

const (
	// HorizonPreDispatch is PDPASA, covering roughly the next 6 hours.
	HorizonPreDispatch PASAHorizon = "PDPASA"
	// HorizonShortTerm is STPASA, covering roughly the next 6 days.
	HorizonShortTerm PASAHorizon = "STPASA"
)

// DispatchReading is one UNIT_SCADA telemetry row for a dispatchable unit.
// Unique key: (SettlementDate, DUID).
type DispatchReading struct {
	SettlementDate time.Time `json:"settlementdate"`
	DUID           string    `json:"duid"`
	ScadaValue     float64   `json:"scadavalue"`
	UIGF           float64   `json:"uigf"`
	TotalCleared   float64   `json:"totalcleared"`
	RampRate       float64   `json:"ramprate"`
	Availability   float64   `json:"availability"`
	Raise1Sec      float64   `json:"raise1sec"`
	Lower1Sec      float64   `json:"lower1sec"`
}

// PriceRecord is one regional reference price observation.
// Unique key: (SettlementDate, Region, Source).
type PriceRecord struct {
	SettlementDate time.Time   `json:"settlementdate"`
	Region         string      `json:"region"`
	Price          float64     `json:"price"`
	TotalDemand    float64     `json:"totaldemand"`
	Source         PriceSource `json:"price_type"`
}

// InterconnectorFlow is one INTERCONNECTORRES row describing power transfer
// over a regional link. Unique key: (SettlementDate, InterconnectorID).
type InterconnectorFlow struct {
	SettlementDate  time.Time `json:"settlementdate"`
	InterconnectorID string   `json:"interconnectorid"`
	MeteredMWFlow   float64   `json:"meteredmwflow"`
	MWFlow          float64   `json:"mwflow"`
	MWLoss          float64   `json:"mwloss"`
	MarginalValue   float64   `json:"marginalvalue"`
}

// ReserveForecast is one REGIONSOLUTION row from a PDPASA or STPASA run.
// Optional analytic fields are pointers: absent in the feed means nil here,
// never a fabricated zero. Unique key: (RunDateTime, IntervalDateTime, RegionID).
type ReserveForecast struct {
	RunDateTime      time.Time   `json:"run_datetime"`
	IntervalDateTime time.Time   `json:"interval_datetime"`
	RegionID         string      `json:"regionid"`
	Horizon          PASAHorizon `json:"horizon"`

	Demand10   *float64 `json:"demand10"`
	Demand50   *float64 `json:"demand50"`
	Demand90   *float64 `json:"demand90"`
	ReserveReq *float64 `json:"reservereq"`
	CapacityReq *float64 `json:"capacityreq"`

	AggregateCapacityAvailable *float64 `json:"aggregatecapacityavailable"`
	AggregatePASAAvailability  *float64 `json:"aggregatepasaavailability"`
	SurplusReserve             *float64 `json:"surplusreserve"`

	LORCondition *int     `json:"lorcondition"`
	LOR1Level    *float64 `json:"calculatedlor1level"`
	LOR2Level    *float64 `json:"calculatedlor2level"`
}

// BandCount is the fixed number of bid bands in every NEM offer.
const BandCount = 10

// BidDayOffer carries the ten daily price bands for one unit.
// Unique key: (SettlementDate, DUID).
type BidDayOffer struct {
	SettlementDate time.Time  `json:"settlementdate"`
	OfferDate      *time.Time `json:"offerdate"`
	DUID           string     `json:"duid"`

	PriceBands  [BandCount]*float64 `json:"pricebands"`
	MinimumLoad *float64            `json:"minimumload"`
	T1          *float64            `json:"t1"`
	T2          *float64            `json:"t2"`
	T3          *float64            `json:"t3"`
	T4          *float64            `json:"t4"`
}

// BidIntervalOffer carries per-interval band availability for one unit.
// Unique key: (IntervalDateTime, DUID).
type BidIntervalOffer struct {
	IntervalDateTime time.Time  `json:"interval_datetime"`
	OfferDate        *time.Time `json:"offerdate"`
	DUID             string     `json:"duid"`

	BandAvail        [BandCount]*float64 `json:"bandavail"`
	MaxAvail         *float64            `json:"maxavail"`
	FixedLoad        *float64            `json:"fixedload"`
	RocUp            *float64            `json:"rocup"`
	RocDown          *float64            `json:"rocdown"`
	PASAAvailability *float64            `json:"pasaavailability"`
}

// PriceSetter attributes one dispatch interval's clearing price to the unit
// whose energy offer set it.
type PriceSetter struct {
	PeriodID  time.Time `json:"period_id"`
	Region    string    `json:"region"`
	Price     float64   `json:"price"`
	DUID      string    `json:"duid"`
	Increase  float64   `json:"increase"`
	BandPrice *float64  `json:"band_price"`
	BandNo    *int      `json:"band_no"`
	// Significant is false for constraint artifacts whose sensitivity
	// coefficient falls below the reporting threshold.
	Significant bool `json:"significant"`
}

// UnitMetadata is reference data describing one dispatchable unit.
type UnitMetadata struct {
	DUID           string  `json:"duid"`
	StationName    string  `json:"station_name"`
	Region         string  `json:"region"`
	FuelSource     string  `json:"fuel_source"`
	TechnologyType string  `json:"technology_type"`
	CapacityMW     float64 `json:"capacity_mw"`
}
