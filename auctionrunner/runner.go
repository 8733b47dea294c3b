package auctionrunner

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"code.cloudfoundry.org/lager"
	uuid "github.com/nu7hatch/gouuid"

	"github.com/openprocurement/auction-worker/auctiontypes"
	"github.com/openprocurement/auction-worker/identity"
	"github.com/openprocurement/auction-worker/ranking"
	"github.com/openprocurement/auction-worker/timeline"
)

type Config struct {
	AuctionID  string
	LotID      string
	APIVersion string

	// AuctionURLTemplate is the public auction URL with an {auction_id}
	// placeholder.
	AuctionURLTemplate string

	// HashSecret is the shared secret participation tokens derive from.
	HashSecret string
}

// Runner drives one lot's auction: context acquisition, document
// initialization, URL publication, results post and announcement. One
// runner instance owns one lot's document; nothing here is safe for
// concurrent use by multiple goroutines.
type Runner struct {
	cfg     Config
	client  auctiontypes.TenderClient
	builder *ContextBuilder
	store   auctiontypes.DocumentStore
	logger  lager.Logger

	snapshot *auctiontypes.TenderSnapshot
	context  *auctiontypes.LotContext
	document *auctiontypes.AuctionDocument
}

func New(
	cfg Config,
	client auctiontypes.TenderClient,
	builder *ContextBuilder,
	store auctiontypes.DocumentStore,
	logger lager.Logger,
) *Runner {
	return &Runner{
		cfg:     cfg,
		client:  client,
		builder: builder,
		store:   store,
		logger:  logger.Session("auction-runner", lager.Data{"auction": cfg.AuctionID, "lot": cfg.LotID}),
	}
}

func (r *Runner) Context() *auctiontypes.LotContext       { return r.context }
func (r *Runner) Document() *auctiontypes.AuctionDocument { return r.document }

// AuctionURL resolves the public URL of this auction.
func (r *Runner) AuctionURL() string {
	return strings.Replace(r.cfg.AuctionURLTemplate, "{auction_id}", r.cfg.AuctionID, 1)
}

// StagePlan exposes the timeline the bid-intake service schedules
// submission windows from.
func (r *Runner) StagePlan() timeline.StagePlan {
	bidders := 0
	if r.context != nil {
		bidders = r.context.BiddersCount
	}
	return timeline.Plan(bidders, timeline.DefaultRounds)
}

// GetAuctionInfo acquires tender and auction payloads and builds the lot
// context. In prepare mode the public tender record is fetched as a base
// and the privileged auction payload merged over it. Upstream cancellation
// or an exhausted read marks the stored document cancelled and aborts.
func (r *Runner) GetAuctionInfo(prepare bool) error {
	requestID := newRequestID()
	logger := r.logger.Session("get-auction-info", lager.Data{"request-id": requestID, "prepare": prepare})

	var base *auctiontypes.TenderSnapshot
	if prepare {
		var err error
		base, err = r.client.FetchTender(requestID)
		if err != nil {
			logger.Error("failed-to-fetch-tender", err)
			return err
		}
	}

	auction, err := r.client.FetchAuction(requestID)
	if err != nil {
		if errors.Is(err, auctiontypes.ErrAuctionCancelled) || errors.Is(err, auctiontypes.ErrRetryExhausted) {
			r.markCancelled(logger)
		}
		logger.Error("failed-to-fetch-auction", err)
		return err
	}

	snapshot, err := mergeSnapshots(base, auction)
	if err != nil {
		logger.Error("failed-to-merge-payloads", err)
		return err
	}

	ctx, err := r.builder.Build(snapshot, r.cfg.LotID, prepare)
	if err != nil {
		return err
	}

	r.snapshot = snapshot
	r.context = ctx
	return nil
}

// PrepareAuctionDocument seeds the run state: a single pause stage at the
// lot's auction start, current stage -1, and the lot/value/multilingual
// snapshot the bidding UI renders.
func (r *Runner) PrepareAuctionDocument() (*auctiontypes.AuctionDocument, error) {
	if r.context == nil {
		return nil, errors.New("lot context not built")
	}

	doc := newAuctionDocument(r.cfg.AuctionID, r.cfg.APIVersion, r.context)
	if err := r.store.Save(doc); err != nil {
		r.logger.Error("failed-to-save-document", err)
		return nil, err
	}
	r.document = doc
	return doc, nil
}

// LoadDocument restores the persisted run state for the post-bidding
// phases, which run after the process that seeded the document is gone.
func (r *Runner) LoadDocument() (*auctiontypes.AuctionDocument, error) {
	doc, err := r.store.Get(r.cfg.AuctionID)
	if err != nil {
		r.logger.Error("failed-to-load-document", err)
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("auction document %q not found", r.cfg.AuctionID)
	}
	r.document = doc
	return doc, nil
}

// PrepareAuctionAndParticipationURLs publishes the auction URL on the lot
// and a participation URL on every bidder's lot value, in one idempotent
// patch that resends the full lot and bid lists.
func (r *Runner) PrepareAuctionAndParticipationURLs() error {
	if r.snapshot == nil {
		return errors.New("tender snapshot not acquired")
	}
	requestID := newRequestID()
	logger := r.logger.Session("set-auction-urls", lager.Data{"request-id": requestID})

	auctionURL := r.AuctionURL()

	lots := cloneLots(r.snapshot.Tender.Lots)
	for i := range lots {
		if lots[i].ID == r.cfg.LotID {
			lots[i].AuctionURL = auctionURL
			break
		}
	}

	bids := cloneBids(r.snapshot.Tender.Bids)
	for i := range bids {
		for j := range bids[i].LotValues {
			if bids[i].LotValues[j].RelatedLot == r.cfg.LotID {
				bids[i].LotValues[j].ParticipationURL = identity.ParticipationURL(auctionURL, bids[i].ID, r.cfg.HashSecret)
				break
			}
		}
	}

	patch := auctiontypes.TenderData{Data: auctiontypes.Tender{Lots: lots, Bids: bids}}
	logger.Info("publishing", lager.Data{"auction-url": auctionURL, "bidders": len(bids)})

	if _, err := r.client.PatchAuctionLot(r.cfg.LotID, patch, requestID); err != nil {
		logger.Error("failed-to-publish-urls", err)
		return err
	}
	return nil
}

// PostResultsData resolves each bidder's final amount from the recorded
// results and posts the full bid list back to the tender. The post is
// one-shot finalization; the returned snapshot is the remote read-back
// confirming the results materialized.
func (r *Runner) PostResultsData() (*auctiontypes.TenderSnapshot, error) {
	if r.snapshot == nil || r.document == nil {
		return nil, errors.New("auction not initialized")
	}
	requestID := newRequestID()
	logger := r.logger.Session("post-results", lager.Data{"request-id": requestID})

	results := recordsToBids(r.document.Results)
	logger.Info("approved-data", lager.Data{"results": r.document.Results})

	bids := cloneBids(r.snapshot.Tender.Bids)
	for i := range bids {
		for j := range bids[i].LotValues {
			if bids[i].LotValues[j].RelatedLot != r.cfg.LotID {
				continue
			}
			latest, err := ranking.Latest(results, bids[i].ID)
			if err != nil {
				logger.Error("bidder-missing-from-results", err)
				return nil, err
			}
			if bids[i].LotValues[j].Value == nil {
				bids[i].LotValues[j].Value = &auctiontypes.Value{}
			}
			bids[i].LotValues[j].Value.Amount = latest.Amount
			bids[i].LotValues[j].Date = latest.Time.Format(time.RFC3339)
			break
		}
	}

	patch := auctiontypes.TenderData{Data: auctiontypes.Tender{Bids: bids}}
	snapshot, err := r.client.PostAuctionLot(r.cfg.LotID, patch, requestID)
	if err != nil {
		logger.Error("failed-to-post-results", err)
		return nil, err
	}

	logger.Debug("done")
	return snapshot, nil
}

// AnnounceResultsData back-fills bidder display names into every record
// referencing a bidder and marks the document terminal by moving
// current_stage to the last stage. When no read-back snapshot is supplied
// the tender is fetched for the tenderer identities.
func (r *Runner) AnnounceResultsData(results *auctiontypes.TenderSnapshot) error {
	if r.document == nil {
		return errors.New("auction document not prepared")
	}
	requestID := newRequestID()
	logger := r.logger.Session("announce-results", lager.Data{"request-id": requestID})

	if results == nil {
		var err error
		results, err = r.client.FetchTender(requestID)
		if err != nil {
			logger.Error("failed-to-fetch-tender", err)
			return err
		}
	}

	names := map[string]string{}
	for _, bid := range results.Tender.Bids {
		for _, lotValue := range bid.LotValues {
			if lotValue.RelatedLot == r.cfg.LotID {
				if len(bid.Tenderers) > 0 {
					names[bid.ID] = bid.Tenderers[0].Name
				}
				break
			}
		}
	}

	for _, section := range [][]auctiontypes.Stage{r.document.InitialBids, r.document.Stages, r.document.Results} {
		for i := range section {
			if section[i].BidderID == "" {
				continue
			}
			name, ok := names[section[i].BidderID]
			if !ok {
				continue
			}
			section[i].Label = &auctiontypes.Label{Uk: name, Ru: name, En: name}
		}
	}

	r.document.CurrentStage = len(r.document.Stages) - 1
	if err := r.store.Save(r.document); err != nil {
		logger.Error("failed-to-save-document", err)
		return err
	}

	logger.Info("done", lager.Data{"current-stage": r.document.CurrentStage})
	return nil
}

// markCancelled stamps the stored document with the cancelled stage so the
// bidding UI stops serving the auction. A missing document only gets
// logged; the run aborts either way.
func (r *Runner) markCancelled(logger lager.Logger) {
	doc, err := r.store.Get(r.cfg.AuctionID)
	if err != nil {
		logger.Error("failed-to-load-document", err)
		return
	}
	if doc == nil {
		logger.Info("auction-document-missing")
		return
	}

	doc.CurrentStage = CancelledStage
	if err := r.store.Save(doc); err != nil {
		logger.Error("failed-to-save-document", err)
		return
	}
	r.document = doc
	logger.Info("cancel-auction")
}

// mergeSnapshots overlays the privileged auction payload onto the public
// tender payload, key by key at the data level, mirroring how sibling
// lot workers see partial views of the same tender.
func mergeSnapshots(base, overlay *auctiontypes.TenderSnapshot) (*auctiontypes.TenderSnapshot, error) {
	if base == nil {
		return overlay, nil
	}

	type envelope struct {
		Data map[string]json.RawMessage `json:"data"`
	}

	var baseEnv, overlayEnv envelope
	if err := json.Unmarshal(base.Raw, &baseEnv); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(overlay.Raw, &overlayEnv); err != nil {
		return nil, err
	}
	if baseEnv.Data == nil {
		baseEnv.Data = map[string]json.RawMessage{}
	}
	for key, value := range overlayEnv.Data {
		baseEnv.Data[key] = value
	}

	merged, err := json.Marshal(envelope{Data: baseEnv.Data})
	if err != nil {
		return nil, err
	}
	return auctiontypes.NewTenderSnapshot(merged)
}

func newRequestID() string {
	guid, err := uuid.NewV4()
	if err != nil {
		return ""
	}
	return guid.String()
}
