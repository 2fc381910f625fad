// nft/client.go
package nft

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"nft-wager-arena/models"
	"nft-wager-arena/utils"

	"github.com/sirupsen/logrus"
)

// Client talks to the NFT service over HTTP. The service address is its base URL.
type Client struct {
	BaseURL string
	Token   string
	Client  *http.Client
	Log     *logrus.Entry
}

func NewClient(address models.ActorID, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(string(address), "/"),
		Token:   token,
		Client:  utils.HTTPClient,
		Log:     logrus.WithField("component", "nft_client"),
	}
}

// Dialer returns a Service for the given NFT service address.
type Dialer func(address models.ActorID) Service

// HTTPDialer builds clients that authenticate with the given service token.
func HTTPDialer(token string) Dialer {
	return func(address models.ActorID) Service {
		return NewClient(address, token)
	}
}

func (c *Client) Mint(ctx context.Context, txID uint64, metadata models.TokenMetadata) (Event, error) {
	return c.send(ctx, "Mint", MintRequest{TransactionID: txID, TokenMetadata: metadata})
}

func (c *Client) Transfer(ctx context.Context, txID uint64, to models.ActorID, tokenID models.TokenID) (Event, error) {
	return c.send(ctx, "Transfer", TransferRequest{TransactionID: txID, To: to, TokenID: tokenID})
}

func (c *Client) IsApproved(ctx context.Context, txID uint64, to models.ActorID, tokenID models.TokenID) (Event, error) {
	return c.send(ctx, "IsApproved", ApprovalRequest{TransactionID: txID, To: to, TokenID: tokenID})
}

// send posts {"<action>": payload} to /actions and decodes the reply event.
// Transport failures map to ErrUndeliverable, non-2xx replies to ErrRejected.
func (c *Client) send(ctx context.Context, action string, payload any) (Event, error) {
	jsonData, err := json.Marshal(map[string]any{action: payload})
	if err != nil {
		return Event{}, fmt.Errorf("failed to encode %s request: %w", action, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/actions", bytes.NewBuffer(jsonData))
	if err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrUndeliverable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrUndeliverable, err)
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.Log.WithField("status", resp.StatusCode).Warnf("[NFT] %s returned %d: %.200s", action, resp.StatusCode, string(body))
		return Event{}, fmt.Errorf("%w: %s returned status %d", ErrRejected, action, resp.StatusCode)
	}

	if readErr != nil {
		// The round trip broke mid-reply; nothing usable arrived.
		return Event{}, fmt.Errorf("%w: reading %s reply: %v", ErrUndeliverable, action, readErr)
	}

	var out Event
	if err := json.Unmarshal(body, &out); err != nil {
		// A reply arrived but it is not an event at all.
		return Event{Kind: EventKind("Undecodable")}, nil
	}
	return out, nil
}
