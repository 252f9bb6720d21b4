package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"dex-guard/agent/internal/chains"
	"dex-guard/shared/logger"
)

// ERC-20 Transfer(address,address,uint256) topic and the canonical burn sink.
const (
	transferTopic  = "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"
	ethBurnAddress = "0x000000000000000000000000000000000000dead"
)

// EthereumRPCService is the Ethereum chain metadata source, speaking raw
// JSON-RPC to an archive node that also exposes the Otterscan namespace.
type EthereumRPCService struct {
	rpcURL string
	client *http.Client
	log    *logger.Logger
}

func NewEthereumRPCService(rpcURL string, log *logger.Logger) (*EthereumRPCService, error) {
	if rpcURL == "" {
		return nil, fmt.Errorf("ethereum RPC URL not set")
	}
	return &EthereumRPCService{
		rpcURL: rpcURL,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}, nil
}

type jsonRPCRequest struct {
	JsonRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type jsonRPCResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (es *EthereumRPCService) call(ctx context.Context, method string, params []interface{}, out interface{}) error {
	payload, err := json.Marshal(jsonRPCRequest{JsonRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, es.rpcURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := es.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", method, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned status %s", method, resp.Status)
	}

	var rpcResp jsonRPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("%s response decode failed: %w", method, err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("%s RPC error %d: %s", method, rpcResp.Error.Code, rpcResp.Error.Message)
	}
	return json.Unmarshal(rpcResp.Result, out)
}

// TokenMetadata implements chains.MetadataSource for Ethereum. The pool
// program slot stays empty here; route policy for Ethereum is enforced by AMM
// name on the quote instead.
func (es *EthereumRPCService) TokenMetadata(ctx context.Context, address string) (*chains.TokenMetadata, error) {
	meta := &chains.TokenMetadata{}

	var creatorResult struct {
		Creator string `json:"creator"`
		Hash    string `json:"hash"`
	}
	if err := es.call(ctx, "ots_getContractCreator", []interface{}{address}, &creatorResult); err != nil {
		return nil, fmt.Errorf("contract creator lookup for %s failed: %w", address, err)
	}
	meta.CreatorAddress = strings.ToLower(creatorResult.Creator)

	if meta.CreatorAddress != "" {
		if burns, err := es.creatorBurnCount(ctx, address, meta.CreatorAddress); err != nil {
			es.log.Debug("creator burn count lookup failed", "token", address, "error", err)
		} else {
			meta.CreatorBurnCount = burns
		}
	}

	return meta, nil
}

// creatorBurnCount counts the creator's transfers of this token into the burn
// sink.
func (es *EthereumRPCService) creatorBurnCount(ctx context.Context, token, creator string) (int, error) {
	filter := map[string]interface{}{
		"fromBlock": "0x0",
		"toBlock":   "latest",
		"address":   token,
		"topics": []interface{}{
			transferTopic,
			padTopicAddress(creator),
			padTopicAddress(ethBurnAddress),
		},
	}
	var logs []json.RawMessage
	if err := es.call(ctx, "eth_getLogs", []interface{}{filter}, &logs); err != nil {
		return 0, err
	}
	return len(logs), nil
}

func padTopicAddress(addr string) string {
	hex := strings.TrimPrefix(strings.ToLower(addr), "0x")
	return "0x" + strings.Repeat("0", 64-len(hex)) + hex
}
