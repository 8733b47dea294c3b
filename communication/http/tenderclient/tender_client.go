package tenderclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	cfhttp "code.cloudfoundry.org/cfhttp/v2"
	"code.cloudfoundry.org/clock"
	"code.cloudfoundry.org/lager"
	uuid "github.com/nu7hatch/gouuid"
	"github.com/tedsuo/rata"

	"github.com/openprocurement/auction-worker/auctiontypes"
	"github.com/openprocurement/auction-worker/communication/http/routes"
)

const (
	// RequestIDHeader carries the correlation identifier on every outbound
	// request. Upstream-supplied identifiers are propagated, not replaced.
	RequestIDHeader = "X-Client-Request-ID"

	// CancellationMarker prefixes the 403 error description the tender API
	// uses to signal that the auction no longer exists upstream.
	CancellationMarker = "Can't get auction info"

	DefaultRetryCount  = 10
	DefaultBackoffUnit = time.Second

	requestTimeout = 300 * time.Second
)

type Config struct {
	APIURL      string
	TenderID    string
	Token       string
	RetryCount  int
	BackoffUnit time.Duration
}

// Client synchronizes tender state with the remote tender API. Reads and
// patches retry with quadratic backoff; patch callers resend the full
// sub-resource state so a retried request is safe to repeat.
type Client struct {
	httpClient  *http.Client
	reqGen      *rata.RequestGenerator
	tenderID    string
	token       string
	retryCount  int
	backoffUnit time.Duration
	clock       clock.Clock
	logger      lager.Logger
}

func New(httpClient *http.Client, cfg Config, clk clock.Clock, logger lager.Logger) *Client {
	if httpClient == nil {
		httpClient = cfhttp.NewClient(cfhttp.WithRequestTimeout(requestTimeout))
	}
	retryCount := cfg.RetryCount
	if retryCount <= 0 {
		retryCount = DefaultRetryCount
	}
	backoffUnit := cfg.BackoffUnit
	if backoffUnit <= 0 {
		backoffUnit = DefaultBackoffUnit
	}

	return &Client{
		httpClient:  httpClient,
		reqGen:      rata.NewRequestGenerator(cfg.APIURL, routes.TenderRoutes),
		tenderID:    cfg.TenderID,
		token:       cfg.Token,
		retryCount:  retryCount,
		backoffUnit: backoffUnit,
		clock:       clk,
		logger:      logger.Session("tender-client", lager.Data{"tender": cfg.TenderID}),
	}
}

func (c *Client) FetchTender(requestID string) (*auctiontypes.TenderSnapshot, error) {
	return c.fetch(routes.Tender, requestID)
}

func (c *Client) FetchAuction(requestID string) (*auctiontypes.TenderSnapshot, error) {
	return c.fetch(routes.TenderAuction, requestID)
}

func (c *Client) PatchAuctionLot(lotID string, body auctiontypes.TenderData, requestID string) (*auctiontypes.TenderSnapshot, error) {
	return c.change(routes.PatchLotAuction, lotID, body, requestID)
}

func (c *Client) PostAuctionLot(lotID string, body auctiontypes.TenderData, requestID string) (*auctiontypes.TenderSnapshot, error) {
	return c.change(routes.PostLotAuction, lotID, body, requestID)
}

func (c *Client) fetch(routeName string, requestID string) (*auctiontypes.TenderSnapshot, error) {
	requestID = EnsureRequestID(requestID)
	logger := c.logger.Session("fetch", lager.Data{
		"route":      routeName,
		"request-id": requestID,
	})
	logger.Debug("requesting")

	snapshot, err := c.withRetry(logger, func() (*auctiontypes.TenderSnapshot, error) {
		return c.getOnce(routeName, requestID)
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("done")
	return snapshot, nil
}

func (c *Client) change(routeName string, lotID string, body auctiontypes.TenderData, requestID string) (*auctiontypes.TenderSnapshot, error) {
	requestID = EnsureRequestID(requestID)
	logger := c.logger.Session("change", lager.Data{
		"route":      routeName,
		"lot":        lotID,
		"request-id": requestID,
	})

	payload, err := json.Marshal(body)
	if err != nil {
		logger.Error("failed-to-marshal-body", err)
		return nil, err
	}

	logger.Debug("requesting")

	snapshot, err := c.withRetry(logger, func() (*auctiontypes.TenderSnapshot, error) {
		return c.changeOnce(routeName, lotID, payload, requestID)
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("done")
	return snapshot, nil
}

// withRetry drives one logical operation through the retry budget,
// sleeping iteration² backoff units before each retry. The sleep goes
// through the injected clock so only this goroutine suspends. Upstream
// cancellation short-circuits; an exhausted budget yields
// ErrRetryExhausted rather than the last transport error.
func (c *Client) withRetry(logger lager.Logger, attempt func() (*auctiontypes.TenderSnapshot, error)) (*auctiontypes.TenderSnapshot, error) {
	for iteration := 0; iteration < c.retryCount; iteration++ {
		if wait := time.Duration(iteration*iteration) * c.backoffUnit; wait > 0 {
			logger.Debug("wait-before-retry", lager.Data{"iteration": iteration})
			c.clock.Sleep(wait)
		}

		snapshot, err := attempt()
		if err == nil {
			return snapshot, nil
		}
		if errors.Is(err, auctiontypes.ErrAuctionCancelled) {
			logger.Info("auction-cancelled-upstream")
			return nil, err
		}
		logger.Error("attempt-failed", err, lager.Data{"iteration": iteration})
	}

	logger.Error("retry-budget-exhausted", auctiontypes.ErrRetryExhausted)
	return nil, auctiontypes.ErrRetryExhausted
}

func (c *Client) getOnce(routeName string, requestID string) (*auctiontypes.TenderSnapshot, error) {
	req, err := c.reqGen.CreateRequest(routeName, rata.Params{"tender_id": c.tenderID}, nil)
	if err != nil {
		return nil, err
	}
	c.decorate(req, requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusForbidden && bodySignalsCancellation(payload) {
		return nil, auctiontypes.ErrAuctionCancelled
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return auctiontypes.NewTenderSnapshot(payload)
}

func (c *Client) changeOnce(routeName string, lotID string, payload []byte, requestID string) (*auctiontypes.TenderSnapshot, error) {
	req, err := c.reqGen.CreateRequest(routeName, rata.Params{
		"tender_id": c.tenderID,
		"lot_id":    lotID,
	}, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.decorate(req, requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return auctiontypes.NewTenderSnapshot(body)
}

func (c *Client) decorate(req *http.Request, requestID string) {
	req.Header.Set(RequestIDHeader, requestID)
	if c.token != "" {
		req.SetBasicAuth(c.token, "")
	}
}

// EnsureRequestID returns the supplied correlation identifier, or a fresh
// one when the caller has none to propagate.
func EnsureRequestID(requestID string) string {
	if requestID != "" {
		return requestID
	}
	guid, err := uuid.NewV4()
	if err != nil {
		return ""
	}
	return guid.String()
}

func bodySignalsCancellation(payload []byte) bool {
	var errorsPayload struct {
		Errors []struct {
			Description string `json:"description"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(payload, &errorsPayload); err != nil {
		return false
	}
	for _, apiError := range errorsPayload.Errors {
		if strings.HasPrefix(apiError.Description, CancellationMarker) {
			return true
		}
	}
	return false
}
