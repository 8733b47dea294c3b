package auctiontypes

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	AuctionTypeDefault     = "default"
	AuctionTypeQualitative = "meat"
)

const (
	StagePause = "pause"
	StageBids  = "bids"
)

// TenderData is the envelope the tender API wraps every payload in.
type TenderData struct {
	Data Tender `json:"data"`
}

type Tender struct {
	TenderID        string          `json:"tenderID,omitempty"`
	Title           string          `json:"title,omitempty"`
	Description     string          `json:"description,omitempty"`
	ProcuringEntity json.RawMessage `json:"procuringEntity,omitempty"`
	Lots            []Lot           `json:"lots,omitempty"`
	Items           []Item          `json:"items,omitempty"`
	Features        []Feature       `json:"features,omitempty"`
	Bids            []Bid           `json:"bids,omitempty"`
}

type Lot struct {
	ID            string  `json:"id"`
	Title         string  `json:"title,omitempty"`
	Description   string  `json:"description,omitempty"`
	Value         *Value  `json:"value,omitempty"`
	MinimalStep   *Value  `json:"minimalStep,omitempty"`
	AuctionPeriod *Period `json:"auctionPeriod,omitempty"`
	AuctionURL    string  `json:"auctionUrl,omitempty"`
}

type Period struct {
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
}

type Value struct {
	Amount                float64 `json:"amount"`
	Currency              string  `json:"currency,omitempty"`
	ValueAddedTaxIncluded bool    `json:"valueAddedTaxIncluded,omitempty"`
}

type Item struct {
	ID             string          `json:"id,omitempty"`
	Description    string          `json:"description,omitempty"`
	RelatedLot     string          `json:"relatedLot,omitempty"`
	Quantity       float64         `json:"quantity,omitempty"`
	Unit           json.RawMessage `json:"unit,omitempty"`
	Classification json.RawMessage `json:"classification,omitempty"`
}

type Feature struct {
	Code        string         `json:"code"`
	Title       string         `json:"title,omitempty"`
	Description string         `json:"description,omitempty"`
	RelatedLot  string         `json:"relatedLot,omitempty"`
	Enum        []FeatureValue `json:"enum,omitempty"`
}

type FeatureValue struct {
	Value float64 `json:"value"`
	Title string  `json:"title,omitempty"`
}

// Parameter is one bidder answer to one lot feature.
type Parameter struct {
	Code  string  `json:"code"`
	Value float64 `json:"value"`
}

type Bid struct {
	ID        string     `json:"id"`
	Date      string     `json:"date,omitempty"`
	Tenderers []Tenderer `json:"tenderers,omitempty"`
	LotValues []LotValue `json:"lotValues,omitempty"`
}

type Tenderer struct {
	Name       string          `json:"name,omitempty"`
	Identifier json.RawMessage `json:"identifier,omitempty"`
}

// LotValue is one bid's submission for one lot. At most one LotValue per
// bid carries a given RelatedLot.
type LotValue struct {
	RelatedLot       string      `json:"relatedLot"`
	Value            *Value      `json:"value,omitempty"`
	Date             string      `json:"date,omitempty"`
	Parameters       []Parameter `json:"parameters,omitempty"`
	ParticipationURL string      `json:"participationUrl,omitempty"`
}

// TenderSnapshot pairs the decoded tender with the raw payload it was
// decoded from. The raw bytes are kept because the payload carries dynamic
// multilingual keys (title_ru, description_en, ...) that the typed model
// cannot enumerate.
type TenderSnapshot struct {
	Tender Tender
	Raw    []byte
}

func NewTenderSnapshot(raw []byte) (*TenderSnapshot, error) {
	var envelope TenderData
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, err
	}
	return &TenderSnapshot{Tender: envelope.Data, Raw: raw}, nil
}

// BidInfo is the per-lot projection of one bid: the matching LotValue
// flattened next to the bid identifier.
type BidInfo struct {
	ID         string      `json:"id"`
	Date       time.Time   `json:"date"`
	Value      *Value      `json:"value,omitempty"`
	Parameters []Parameter `json:"parameters,omitempty"`
}

// LotContext is the immutable single-lot view of a multi-lot tender,
// derived once at auction start.
type LotContext struct {
	TenderID        string
	Lot             Lot
	Items           []Item
	Features        []Feature
	StartDate       time.Time
	Bids            []BidInfo
	BiddersCount    int
	Title           string
	Description     string
	ProcuringEntity json.RawMessage

	// Mapping assigns each bidder its stable anonymous display rank
	// ("1", "2", ...) in the order bids were recorded.
	Mapping map[string]string

	// Qualitative tables, populated only when the lot declares features.
	BidderCoefficients map[string]decimal.Decimal
	BidderParameters   map[string][]Parameter

	// Multilingual holds tender-level dynamic language keys
	// (e.g. "title_ru"); LotMultilingual the lot-level ones.
	Multilingual    map[string]string
	LotMultilingual map[string]string
}

func (c *LotContext) Qualitative() bool {
	return len(c.Features) > 0
}

func (c *LotContext) AuctionType() string {
	if c.Qualitative() {
		return AuctionTypeQualitative
	}
	return AuctionTypeDefault
}

// Label carries a bidder's display name per supported language.
type Label struct {
	Uk string `json:"uk,omitempty"`
	Ru string `json:"ru,omitempty"`
	En string `json:"en,omitempty"`
}

/// Stage is one timeline slot of the auction document: a pause or one
// bidder's turn. The same record shape backs initial_bids and results.
type Stage struct {
	Type     string  `json:"type,omitempty"`
	Start    string  `json:"start,omitempty"`
	BidderID string  `json:"bidder_id,omitempty"`
	Amount   float64 `json:"amount,omitempty"`
	Time     string  `json:"time,omitempty"`
	Label    *Label  `json:"label,omitempty"`
}

type AuctionLot struct {
	Title         string `json:"title"`
	TitleRu       string `json:"title_ru,omitempty"`
	TitleEn       string `json:"title_en,omitempty"`
	Description   string `json:"description"`
	DescriptionRu string `json:"description_ru,omitempty"`
	DescriptionEn string `json:"description_en,omitempty"`
}

// AuctionDocument is the worker-owned run state, persisted through a
// DocumentStore. A single worker instance mutates it for the lifetime of
// one lot's auction.
type AuctionDocument struct {
	ID              string          `json:"_id"`
	TenderID        string          `json:"tenderID"`
	APIVersion      string          `json:"TENDERS_API_VERSION"`
	CurrentStage    int             `json:"current_stage"`
	Stages          []Stage         `json:"stages"`
	InitialBids     []Stage         `json:"initial_bids"`
	Results         []Stage         `json:"results"`
	AuctionType     string          `json:"auction_type"`
	Value           *Value          `json:"value,omitempty"`
	MinimalStep     *Value          `json:"minimalStep,omitempty"`
	Items           []Item          `json:"items,omitempty"`
	ProcuringEntity json.RawMessage `json:"procuringEntity,omitempty"`
	Title           string          `json:"title,omitempty"`
	TitleRu         string          `json:"title_ru,omitempty"`
	TitleEn         string          `json:"title_en,omitempty"`
	Description     string          `json:"description,omitempty"`
	DescriptionRu   string          `json:"description_ru,omitempty"`
	DescriptionEn   string          `json:"description_en,omitempty"`
	Lot             AuctionLot      `json:"lot"`
}

// TenderClient is the synchronization boundary with the remote tender API.
// A nil snapshot never accompanies a nil error; exhaustion and upstream
// cancellation surface as ErrRetryExhausted and ErrAuctionCancelled.
type TenderClient interface {
	FetchTender(requestID string) (*TenderSnapshot, error)
	FetchAuction(requestID string) (*TenderSnapshot, error)
	PatchAuctionLot(lotID string, body TenderData, requestID string) (*TenderSnapshot, error)
	PostAuctionLot(lotID string, body TenderData, requestID string) (*TenderSnapshot, error)
}

// DocumentStore persists the auction document between worker phases.
// Engines are deployment concerns; the worker only needs get/save.
type DocumentStore interface {
	Get(id string) (*AuctionDocument, error)
	Save(doc *AuctionDocument) error
}
