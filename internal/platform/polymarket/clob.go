package polymarket

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/basketbot/internal/crypto"
	"github.com/alanyoungcy/basketbot/internal/domain"
)

// usdcDecimals shifts USD amounts into the 6-decimal fixed-point integers
// the exchange contract expects.
const usdcDecimals = 6

// ClobClient is the REST client for the Polymarket CLOB (Central Limit
// Order Book) API. It signs and submits fill-or-kill market orders.
type ClobClient struct {
	baseURL       string
	httpClient    *http.Client
	signer        *crypto.Signer
	hmacAuth      *crypto.HMACAuth
	funder        string
	signatureType int
}

// NewClobClient creates a new CLOB REST client.
//
// baseURL is the CLOB API root, e.g. "https://clob.polymarket.com".
// signer holds the EOA key used for order and auth signatures. funder is the
// address that holds the USDC (the proxy or Safe address for signature types
// 1 and 2, the EOA itself for type 0). hmac may be nil until DeriveAPIKey
// runs.
func NewClobClient(baseURL string, signer *crypto.Signer, hmac *crypto.HMACAuth, funder string, signatureType int) *ClobClient {
	if funder == "" {
		funder = signer.Address().Hex()
	}
	return &ClobClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		signer:        signer,
		hmacAuth:      hmac,
		funder:        funder,
		signatureType: signatureType,
	}
}

// PostMarketBuy signs and submits a fill-or-kill market buy for one basket
// leg. quotedPrice sizes the token amount the notional should purchase.
//
// The venue either fills the whole requested size or kills the order; a kill
// comes back as OrderResult{Status: OrderRejected} with a nil error. Errors
// are reserved for transport and protocol failures.
func (c *ClobClient) PostMarketBuy(ctx context.Context, plan domain.OrderPlan, quotedPrice decimal.Decimal) (domain.OrderResult, error) {
	if plan.NotionalUSD.LessThanOrEqual(decimal.Zero) {
		return domain.OrderResult{}, fmt.Errorf("polymarket/clob: %w: non-positive notional", domain.ErrInvalidOrder)
	}
	if quotedPrice.LessThanOrEqual(decimal.Zero) {
		return domain.OrderResult{}, fmt.Errorf("polymarket/clob: %w: non-positive quoted price", domain.ErrInvalidOrder)
	}

	salt, err := newSalt()
	if err != nil {
		return domain.OrderResult{}, fmt.Errorf("polymarket/clob: generate salt: %w", err)
	}

	makerAmount := plan.NotionalUSD.Shift(usdcDecimals).Truncate(0)
	takerAmount := plan.NotionalUSD.Div(quotedPrice).Shift(usdcDecimals).Truncate(0)

	payload := crypto.OrderPayload{
		Salt:          salt,
		Maker:         c.funder,
		Signer:        c.signer.Address().Hex(),
		Taker:         "0x0000000000000000000000000000000000000000",
		TokenID:       plan.TokenID,
		MakerAmount:   makerAmount.String(),
		TakerAmount:   takerAmount.String(),
		Expiration:    "0",
		Nonce:         "0",
		FeeRateBps:    "0",
		Side:          0, // BUY
		SignatureType: c.signatureType,
	}

	sig, err := c.signer.SignOrder(payload)
	if err != nil {
		return domain.OrderResult{}, fmt.Errorf("polymarket/clob: %w: %v", domain.ErrSigningFailed, err)
	}

	body := map[string]any{
		"order": map[string]any{
			"salt":          payload.Salt,
			"maker":         payload.Maker,
			"signer":        payload.Signer,
			"taker":         payload.Taker,
			"tokenId":       payload.TokenID,
			"makerAmount":   payload.MakerAmount,
			"takerAmount":   payload.TakerAmount,
			"expiration":    payload.Expiration,
			"nonce":         payload.Nonce,
			"feeRateBps":    payload.FeeRateBps,
			"side":          "BUY",
			"signatureType": payload.SignatureType,
			"signature":     sig,
		},
		"owner":     c.funder,
		"orderType": string(domain.OrderTypeFOK),
	}

	respBody, err := c.doAuthenticatedRequest(ctx, http.MethodPost, "/order", body)
	if err != nil {
		return domain.OrderResult{}, fmt.Errorf("polymarket/clob: post order: %w", err)
	}

	var apiResult APIOrderResult
	if err := json.Unmarshal(respBody, &apiResult); err != nil {
		return domain.OrderResult{}, fmt.Errorf("polymarket/clob: decode order result: %w", err)
	}

	return toOrderResult(&apiResult, plan, quotedPrice), nil
}

// toOrderResult maps the CLOB response onto the leg result. A successful FOK
// fill is for the full requested notional; anything else is a rejection.
func toOrderResult(r *APIOrderResult, plan domain.OrderPlan, quotedPrice decimal.Decimal) domain.OrderResult {
	if !r.Success || r.Status == "unmatched" {
		msg := r.ErrorMsg
		if msg == "" {
			msg = "killed with no fill"
		}
		return domain.OrderResult{
			Status:  domain.OrderRejected,
			OrderID: r.OrderID,
			Message: msg,
		}
	}

	res := domain.OrderResult{
		Status:      domain.OrderFilled,
		OrderID:     r.OrderID,
		FilledUSD:   plan.NotionalUSD,
		FilledPrice: quotedPrice,
	}
	// Prefer the venue-reported amounts when present.
	if making, err := decimal.NewFromString(r.MakingAmount); err == nil && making.IsPositive() {
		res.FilledUSD = making.Shift(-usdcDecimals)
		if taking, err := decimal.NewFromString(r.TakingAmount); err == nil && taking.IsPositive() {
			res.FilledPrice = making.Div(taking)
		}
	}
	return res
}

// DeriveAPIKey performs the CLOB auth flow to obtain an HMAC API key. It
// signs a ClobAuth EIP-712 message and sends it with L1 headers to the
// derive-api-key endpoint. Per Polymarket docs, L1 requires POLY_ADDRESS,
// POLY_SIGNATURE, POLY_TIMESTAMP, POLY_NONCE. On success it populates the
// client's hmacAuth field.
func (c *ClobClient) DeriveAPIKey(ctx context.Context) error {
	address := c.signer.Address().Hex()
	timestamp := time.Now().Unix()
	nonce := int64(0)

	sig, err := c.signer.SignAuthMessage(address, timestamp, nonce)
	if err != nil {
		return fmt.Errorf("polymarket/clob: sign auth message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/derive-api-key", nil)
	if err != nil {
		return fmt.Errorf("polymarket/clob: create auth request: %w", err)
	}
	req.Header.Set("POLY_ADDRESS", address)
	req.Header.Set("POLY_SIGNATURE", sig)
	req.Header.Set("POLY_TIMESTAMP", fmt.Sprintf("%d", timestamp))
	req.Header.Set("POLY_NONCE", fmt.Sprintf("%d", nonce))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.TransportError{Op: "clob derive api key", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.TransportError{Op: "clob read auth response", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("polymarket/clob: auth failed (HTTP %d): %s", resp.StatusCode, string(respBody))
	}

	var authResp struct {
		APIKey     string `json:"apiKey"`
		Secret     string `json:"secret"`
		Passphrase string `json:"passphrase"`
	}
	if err := json.Unmarshal(respBody, &authResp); err != nil {
		return fmt.Errorf("polymarket/clob: decode auth response: %w", err)
	}

	c.hmacAuth = &crypto.HMACAuth{
		Key:        authResp.APIKey,
		Secret:     authResp.Secret,
		Passphrase: authResp.Passphrase,
	}

	return nil
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// newSalt returns a random uint64 as a decimal string for order uniqueness.
func newSalt() (string, error) {
	n, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 64))
	if err != nil {
		return "", err
	}
	return n.String(), nil
}

// doAuthenticatedRequest builds, signs (HMAC), sends, and reads an HTTP
// request against the CLOB API. It returns the raw response body. Network
// failures come back as domain.TransportError.
func (c *ClobClient) doAuthenticatedRequest(ctx context.Context, method, path string, body any) ([]byte, error) {
	var bodyReader io.Reader
	var bodyStr string

	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyStr = string(jsonBody)
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// Apply HMAC authentication headers.
	if c.hmacAuth != nil {
		address := c.signer.Address().Hex()
		headers := c.hmacAuth.L2Headers(address, method, path, bodyStr)
		for k, v := range headers {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.TransportError{Op: "clob " + method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.TransportError{Op: "clob read response", Err: err}
	}

	if err := checkHTTPStatus(resp.StatusCode, respBody); err != nil {
		return nil, err
	}

	return respBody, nil
}

// checkHTTPStatus maps non-2xx status codes to appropriate domain errors.
func checkHTTPStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	bodyStr := string(body)
	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, bodyStr)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, bodyStr)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, bodyStr)
	default:
		return fmt.Errorf("HTTP %d: %s", statusCode, bodyStr)
	}
}
