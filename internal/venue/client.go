package venue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	sdkmath "cosmossdk.io/math"

	"rangekeeper/internal/logger"
	"rangekeeper/internal/types"
)

// Error definitions for zero-tolerance error handling
var (
	ErrGatewayRequestFailed = errors.New("gateway request failed")
	ErrGatewayRPCError      = errors.New("gateway returned an RPC error")
	ErrMalformedResponse    = errors.New("malformed gateway response")
	ErrInvalidAmount        = errors.New("invalid amount in gateway response")
	ErrTransactionFailed    = errors.New("transaction failed on-chain")
	ErrConfirmationTimeout  = errors.New("timed out waiting for transaction confirmation")
)

var venueLogger = logger.GetForComponent("venue_client")

const (
	defaultConfirmationPollInterval = 2 * time.Second
	confirmationMaxAttempts         = 30
)

// JSONRPCRequest is the envelope sent to the gateway.
type JSONRPCRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      uint64      `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
}

// JSONRPCResponse is the envelope received from the gateway.
type JSONRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *JSONRPCError   `json:"error,omitempty"`
}

// JSONRPCError carries a gateway-side failure.
type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

// Client talks to the venue gateway over JSON-RPC and implements every
// external contract the rebalancer consumes.
type Client struct {
	endpoint            string
	apiKey              string
	signingKey          string
	httpClient          *http.Client
	confirmPollInterval time.Duration
	nextID              atomic.Uint64
}

// Compile-time check that the client satisfies the full venue surface.
var _ Venue = (*Client)(nil)

// NewClient creates a gateway client. The signing key is forwarded with every
// transaction submission; the gateway performs construction and signing.
func NewClient(endpoint, apiKey, signingKey string) (*Client, error) {
	if endpoint == "" {
		return nil, errors.New("gateway endpoint cannot be empty")
	}
	if signingKey == "" {
		return nil, errors.New("signing key cannot be empty")
	}

	client := &Client{
		endpoint:            endpoint,
		apiKey:              apiKey,
		signingKey:          signingKey,
		httpClient:          &http.Client{Timeout: 30 * time.Second},
		confirmPollInterval: defaultConfirmationPollInterval,
	}

	venueLogger.Info().Str("endpoint", endpoint).Msg("Venue gateway client initialized")
	return client, nil
}

// call performs one JSON-RPC round trip and decodes the result into out.
func (c *Client) call(ctx context.Context, method string, params interface{}, out interface{}) error {
	reqBody := JSONRPCRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", method, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", method, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return errors.Join(ErrGatewayRequestFailed, fmt.Errorf("%s: %w", method, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Join(ErrGatewayRequestFailed, fmt.Errorf("%s: reading body: %w", method, err))
	}

	if resp.StatusCode != http.StatusOK {
		return errors.Join(ErrGatewayRequestFailed,
			fmt.Errorf("%s: HTTP %d: %s", method, resp.StatusCode, string(body)))
	}

	var rpcResp JSONRPCResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return errors.Join(ErrMalformedResponse, fmt.Errorf("%s: %w", method, err))
	}

	if rpcResp.Error != nil {
		return errors.Join(ErrGatewayRPCError,
			fmt.Errorf("%s: code %d: %s %s", method, rpcResp.Error.Code, rpcResp.Error.Message, rpcResp.Error.Data))
	}

	if rpcResp.Result == nil {
		return errors.Join(ErrMalformedResponse, fmt.Errorf("%s: result is null", method))
	}

	if err := json.Unmarshal(rpcResp.Result, out); err != nil {
		return errors.Join(ErrMalformedResponse, fmt.Errorf("%s: decoding result: %w", method, err))
	}

	return nil
}

// Wire shapes. Amounts travel as decimal strings; tick values fit int64.

type tokenWire struct {
	Symbol          string `json:"symbol"`
	Decimals        int    `json:"decimals"`
	CoinType        string `json:"coin_type,omitempty"`
	FungibleAddress string `json:"fungible_address,omitempty"`
}

type poolWire struct {
	ID          string    `json:"id"`
	CurrentTick int64     `json:"current_tick"`
	FeeTier     int       `json:"fee_tier"`
	TickSpacing int64     `json:"tick_spacing"`
	TokenA      tokenWire `json:"token_a"`
	TokenB      tokenWire `json:"token_b"`
}

type positionWire struct {
	ID        string   `json:"id"`
	Pool      poolWire `json:"pool"`
	TickLower int64    `json:"tick_lower"`
	TickUpper int64    `json:"tick_upper"`
	Liquidity string   `json:"liquidity"`
}

// normalizeToken converts the wire union (coin type or fungible-asset
// address) into the tagged Token variant. This is the only place the
// presence check happens.
func normalizeToken(w tokenWire) (types.Token, error) {
	token := types.Token{Symbol: w.Symbol, Decimals: w.Decimals}
	switch {
	case w.CoinType != "" && w.FungibleAddress != "":
		return types.Token{}, fmt.Errorf("%w: token %q carries both a coin type and a fungible address",
			ErrMalformedResponse, w.Symbol)
	case w.CoinType != "":
		token.Form = types.AssetFormCoin
		token.CoinType = w.CoinType
	case w.FungibleAddress != "":
		token.Form = types.AssetFormFungible
		token.FungibleAddress = w.FungibleAddress
	default:
		return types.Token{}, fmt.Errorf("%w: token %q carries neither a coin type nor a fungible address",
			ErrMalformedResponse, w.Symbol)
	}
	return token, nil
}

func decodePool(w poolWire) (types.Pool, error) {
	tokenA, err := normalizeToken(w.TokenA)
	if err != nil {
		return types.Pool{}, err
	}
	tokenB, err := normalizeToken(w.TokenB)
	if err != nil {
		return types.Pool{}, err
	}
	if w.TickSpacing <= 0 {
		return types.Pool{}, fmt.Errorf("%w: pool %s has non-positive tick spacing %d",
			ErrMalformedResponse, w.ID, w.TickSpacing)
	}
	return types.Pool{
		ID:          types.PoolID(w.ID),
		CurrentTick: w.CurrentTick,
		FeeTier:     w.FeeTier,
		TickSpacing: w.TickSpacing,
		TokenA:      tokenA,
		TokenB:      tokenB,
	}, nil
}

func parseAmount(s, field string) (sdkmath.Int, error) {
	amount, ok := sdkmath.NewIntFromString(s)
	if !ok {
		return sdkmath.Int{}, fmt.Errorf("%w: %s=%q", ErrInvalidAmount, field, s)
	}
	if amount.IsNegative() {
		return sdkmath.Int{}, fmt.Errorf("%w: %s is negative: %s", ErrInvalidAmount, field, s)
	}
	return amount, nil
}

// PositionsByOwner implements PositionSource.
func (c *Client) PositionsByOwner(ctx context.Context, owner string, pool types.PoolID) ([]types.Position, error) {
	params := map[string]interface{}{"owner": owner, "pool": pool}

	var wires []positionWire
	if err := c.call(ctx, "rk_positionsByOwner", params, &wires); err != nil {
		return nil, err
	}

	positions := make([]types.Position, 0, len(wires))
	for _, w := range wires {
		poolSnapshot, err := decodePool(w.Pool)
		if err != nil {
			return nil, fmt.Errorf("position %s: %w", w.ID, err)
		}
		liquidity, err := parseAmount(w.Liquidity, "liquidity")
		if err != nil {
			return nil, fmt.Errorf("position %s: %w", w.ID, err)
		}
		if w.TickLower >= w.TickUpper {
			return nil, fmt.Errorf("%w: position %s has degenerate range [%d, %d]",
				ErrMalformedResponse, w.ID, w.TickLower, w.TickUpper)
		}
		positions = append(positions, types.Position{
			ID:        types.PositionID(w.ID),
			Pool:      poolSnapshot,
			TickLower: w.TickLower,
			TickUpper: w.TickUpper,
			Liquidity: liquidity,
		})
	}

	venueLogger.Debug().Str("owner", owner).Int("positions", len(positions)).Msg("Fetched positions by owner")
	return positions, nil
}

// WithdrawableAmounts implements PositionSource.
func (c *Client) WithdrawableAmounts(ctx context.Context, id types.PositionID) (sdkmath.Int, sdkmath.Int, error) {
	params := map[string]interface{}{"position": id}

	var result struct {
		AmountA string `json:"amount_a"`
		AmountB string `json:"amount_b"`
	}
	if err := c.call(ctx, "rk_withdrawableAmounts", params, &result); err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, err
	}

	amountA, err := parseAmount(result.AmountA, "amount_a")
	if err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, err
	}
	amountB, err := parseAmount(result.AmountB, "amount_b")
	if err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, err
	}
	return amountA, amountB, nil
}

// EstimateCounterpart implements RatioEstimator.
func (c *Client) EstimateCounterpart(ctx context.Context, target RatioTarget, knownAmount sdkmath.Int, direction EstimateDirection) (sdkmath.Int, error) {
	params := map[string]interface{}{
		"currency_a":   target.CurrencyA,
		"currency_b":   target.CurrencyB,
		"fee_tier":     target.FeeTier,
		"tick_lower":   target.Range.Lower,
		"tick_upper":   target.Range.Upper,
		"current_tick": target.CurrentTick,
		"amount":       knownAmount.String(),
		"direction":    direction,
	}

	var result struct {
		Amount string `json:"amount"`
	}
	if err := c.call(ctx, "rk_estimateCounterpart", params, &result); err != nil {
		return sdkmath.Int{}, err
	}
	return parseAmount(result.Amount, "amount")
}

// QuoteForOutput implements SwapService.
func (c *Client) QuoteForOutput(ctx context.Context, from, to string, desiredOut sdkmath.Int, safeMode bool) (types.SwapPlan, error) {
	params := map[string]interface{}{
		"from":       from,
		"to":         to,
		"amount_out": desiredOut.String(),
		"safe_mode":  safeMode,
	}

	var result struct {
		AmountIn  string          `json:"amount_in"`
		AmountOut string          `json:"amount_out"`
		Route     json.RawMessage `json:"route"`
	}
	if err := c.call(ctx, "rk_quoteSwap", params, &result); err != nil {
		return types.SwapPlan{}, err
	}

	amountIn, err := parseAmount(result.AmountIn, "amount_in")
	if err != nil {
		return types.SwapPlan{}, err
	}
	amountOut, err := parseAmount(result.AmountOut, "amount_out")
	if err != nil {
		return types.SwapPlan{}, err
	}
	if len(result.Route) == 0 {
		return types.SwapPlan{}, fmt.Errorf("%w: quote has no route", ErrMalformedResponse)
	}

	return types.SwapPlan{AmountIn: amountIn, AmountOut: amountOut, Route: result.Route}, nil
}

// SubmitSwap implements SwapService.
func (c *Client) SubmitSwap(ctx context.Context, sender string, plan types.SwapPlan) (types.TxHandle, error) {
	params := map[string]interface{}{
		"sender":      sender,
		"amount_in":   plan.AmountIn.String(),
		"amount_out":  plan.AmountOut.String(),
		"route":       plan.Route,
		"signing_key": c.signingKey,
	}
	return c.submit(ctx, "rk_submitSwap", params)
}

// SubmitWithdraw implements LiquidityService.
func (c *Client) SubmitWithdraw(ctx context.Context, id types.PositionID, recipient string) (types.TxHandle, error) {
	params := map[string]interface{}{
		"position":    id,
		"recipient":   recipient,
		"signing_key": c.signingKey,
	}
	return c.submit(ctx, "rk_submitWithdraw", params)
}

// SubmitDeposit implements LiquidityService.
func (c *Client) SubmitDeposit(ctx context.Context, sender string, pool types.PoolID, rng types.TickRange, amountA, amountB sdkmath.Int, slippagePercent float64) (types.TxHandle, error) {
	params := map[string]interface{}{
		"sender":           sender,
		"pool":             pool,
		"tick_lower":       rng.Lower,
		"tick_upper":       rng.Upper,
		"amount_a":         amountA.String(),
		"amount_b":         amountB.String(),
		"slippage_percent": slippagePercent,
		"signing_key":      c.signingKey,
	}
	return c.submit(ctx, "rk_submitDeposit", params)
}

func (c *Client) submit(ctx context.Context, method string, params map[string]interface{}) (types.TxHandle, error) {
	var result struct {
		Handle string `json:"handle"`
	}
	if err := c.call(ctx, method, params, &result); err != nil {
		return "", err
	}
	if result.Handle == "" {
		return "", fmt.Errorf("%w: %s returned an empty handle", ErrMalformedResponse, method)
	}

	venueLogger.Info().Str("method", method).Str("handle", result.Handle).Msg("Transaction submitted")
	return types.TxHandle(result.Handle), nil
}

// WaitForConfirmation implements TransactionWaiter by polling the gateway's
// transaction status method until the transaction settles or the attempt
// budget runs out.
func (c *Client) WaitForConfirmation(ctx context.Context, handle types.TxHandle) (*types.TransactionResult, error) {
	params := map[string]interface{}{"handle": handle}

	for attempt := 1; attempt <= confirmationMaxAttempts; attempt++ {
		var result struct {
			Status string `json:"status"` // pending | confirmed | failed
			Hash   string `json:"hash,omitempty"`
			Error  string `json:"error,omitempty"`
		}
		if err := c.call(ctx, "rk_transactionStatus", params, &result); err != nil {
			return nil, err
		}

		switch result.Status {
		case "confirmed":
			venueLogger.Info().
				Str("handle", string(handle)).
				Str("txHash", result.Hash).
				Int("attempts", attempt).
				Msg("Transaction confirmed")
			return &types.TransactionResult{Hash: result.Hash, Success: true}, nil
		case "failed":
			return &types.TransactionResult{Hash: result.Hash, Success: false, ErrorMessage: result.Error},
				errors.Join(ErrTransactionFailed, fmt.Errorf("handle %s: %s", handle, result.Error))
		case "pending":
			// keep polling
		default:
			return nil, fmt.Errorf("%w: unknown transaction status %q", ErrMalformedResponse, result.Status)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.confirmPollInterval):
		}
	}

	return nil, fmt.Errorf("%w: handle %s after %d attempts", ErrConfirmationTimeout, handle, confirmationMaxAttempts)
}
