package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"dex-guard/agent/internal/chains"
	"dex-guard/shared/logger"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// HeliusService is the Solana chain metadata source: mint authority, prior
// creator burns and the program owning the primary pool account.
type HeliusService struct {
	rpcClient *rpc.Client
	log       *logger.Logger
}

func NewHeliusService(rpcURL string, log *logger.Logger) (*HeliusService, error) {
	if rpcURL == "" {
		return nil, fmt.Errorf("helius RPC URL not set")
	}
	client := rpc.New(rpcURL)
	if _, err := client.GetHealth(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to connect to Solana RPC at %s: %w", sanitizeURL(rpcURL), err)
	}
	log.Info("Solana RPC client initialized", "url", sanitizeURL(rpcURL))
	return &HeliusService{rpcClient: client, log: log}, nil
}

func sanitizeURL(rawURL string) string {
	if idx := strings.Index(rawURL, "api-key="); idx != -1 {
		return rawURL[:idx+len("api-key=")] + "HIDDEN_FOR_LOGS"
	}
	return rawURL
}

// TokenMetadata implements chains.MetadataSource for Solana.
func (hs *HeliusService) TokenMetadata(ctx context.Context, address string) (*chains.TokenMetadata, error) {
	mintPubKey, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return nil, fmt.Errorf("invalid mint address %q: %w", address, err)
	}

	meta := &chains.TokenMetadata{}

	creator, err := hs.mintAuthority(ctx, mintPubKey)
	if err != nil {
		return nil, fmt.Errorf("mint authority lookup for %s failed: %w", address, err)
	}
	meta.CreatorAddress = creator

	if programID, err := hs.primaryPoolProgram(ctx, mintPubKey); err != nil {
		hs.log.Debug("pool program lookup failed", "mint", address, "error", err)
	} else {
		meta.ProgramID = programID
	}

	if creator != "" {
		if burns, err := hs.creatorBurnCount(ctx, creator); err != nil {
			hs.log.Debug("creator burn count lookup failed", "creator", creator, "error", err)
		} else {
			meta.CreatorBurnCount = burns
		}
	}

	return meta, nil
}

// mintAuthority pulls the jsonParsed mint account and returns its authority.
func (hs *HeliusService) mintAuthority(ctx context.Context, mint solana.PublicKey) (string, error) {
	out, err := hs.rpcClient.GetAccountInfoWithOpts(ctx, mint, &rpc.GetAccountInfoOpts{
		Commitment: rpc.CommitmentFinalized,
		Encoding:   solana.EncodingJSONParsed,
	})
	if err != nil {
		return "", err
	}
	if out == nil || out.Value == nil {
		return "", fmt.Errorf("mint account not found")
	}

	var wrapper struct {
		Parsed struct {
			Info struct {
				MintAuthority string `json:"mintAuthority"`
			} `json:"info"`
		} `json:"parsed"`
	}
	if err := json.Unmarshal(out.Value.Data.GetRawJSON(), &wrapper); err != nil {
		return "", fmt.Errorf("failed to parse mint account data: %w", err)
	}
	return wrapper.Parsed.Info.MintAuthority, nil
}

// primaryPoolProgram finds the largest token account for the mint and returns
// the program that owns it. For pooled tokens that is the AMM program.
func (hs *HeliusService) primaryPoolProgram(ctx context.Context, mint solana.PublicKey) (string, error) {
	largest, err := hs.rpcClient.GetTokenLargestAccounts(ctx, mint, rpc.CommitmentFinalized)
	if err != nil {
		return "", err
	}
	if largest == nil || len(largest.Value) == 0 {
		return "", fmt.Errorf("no token accounts found")
	}

	accInfo, err := hs.rpcClient.GetAccountInfoWithOpts(ctx, largest.Value[0].Address, &rpc.GetAccountInfoOpts{
		Commitment: rpc.CommitmentFinalized,
		Encoding:   solana.EncodingJSONParsed,
	})
	if err != nil {
		return "", err
	}
	if accInfo == nil || accInfo.Value == nil {
		return "", fmt.Errorf("largest token account not found")
	}

	var wrapper struct {
		Parsed struct {
			Info struct {
				Owner string `json:"owner"`
			} `json:"info"`
		} `json:"parsed"`
	}
	if err := json.Unmarshal(accInfo.Value.Data.GetRawJSON(), &wrapper); err != nil {
		return "", fmt.Errorf("failed to parse token account data: %w", err)
	}
	return wrapper.Parsed.Info.Owner, nil
}

// creatorBurnCount scans recent creator activity for liquidity burns. Memo
// scanning is a heuristic; transactions without a burn memo are not counted.
func (hs *HeliusService) creatorBurnCount(ctx context.Context, creator string) (int, error) {
	creatorPubKey, err := solana.PublicKeyFromBase58(creator)
	if err != nil {
		return 0, fmt.Errorf("invalid creator address %q: %w", creator, err)
	}

	limit := 200
	sigs, err := hs.rpcClient.GetSignaturesForAddressWithOpts(ctx, creatorPubKey, &rpc.GetSignaturesForAddressOpts{
		Limit:      &limit,
		Commitment: rpc.CommitmentFinalized,
	})
	if err != nil {
		return 0, err
	}

	burns := 0
	for _, sig := range sigs {
		if sig.Memo != nil && strings.Contains(strings.ToLower(*sig.Memo), "burn") {
			burns++
		}
	}
	return burns, nil
}
