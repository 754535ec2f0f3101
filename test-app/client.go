package main

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/zerolog"

	"github.com/compose-network/rootchain/server/api/middleware"
	"github.com/compose-network/rootchain/x/sigs"
)

// Client talks to the root chain HTTP API as one account.
type Client struct {
	base       string
	domainName string
	key        *ecdsa.PrivateKey
	addr       common.Address
	http       *http.Client
	log        zerolog.Logger

	mu     sync.Mutex
	domain *common.Hash
	nonce  uint64
	synced bool
}

func NewClient(base, domainName string, key *ecdsa.PrivateKey, log zerolog.Logger) *Client {
	addr := crypto.PubkeyToAddress(key.PublicKey)
	return &Client{
		base:       strings.TrimRight(base, "/"),
		domainName: domainName,
		key:        key,
		addr:       addr,
		http:       &http.Client{Timeout: 10 * time.Second},
		log:        log.With().Str("account", addr.Hex()).Logger(),
	}
}

// nextNonce returns the signing domain and the nonce for the next signed call.
// Both are fetched from the server once and the nonce is then counted locally.
func (c *Client) nextNonce(ctx context.Context) (common.Hash, uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.domain == nil {
		var status struct {
			Operator common.Address `json:"operator"`
		}
		if err := c.Get(ctx, "/v1/status", &status); err != nil {
			return common.Hash{}, 0, fmt.Errorf("fetch operator: %w", err)
		}
		d := middleware.Domain(c.domainName, status.Operator)
		c.domain = &d
	}
	if !c.synced {
		var resp struct {
			Nonce uint64 `json:"nonce"`
		}
		if err := c.Get(ctx, "/v1/nonces/"+c.addr.Hex(), &resp); err != nil {
			return common.Hash{}, 0, fmt.Errorf("fetch nonce: %w", err)
		}
		c.nonce, c.synced = resp.Nonce, true
	}
	c.nonce++
	return *c.domain, c.nonce, nil
}

func (c *Client) Address() common.Address {
	return c.addr
}

// Post sends body signed by the client's key and decodes the JSON reply into out.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	domain, nonce, err := c.nextNonce(ctx)
	if err != nil {
		return err
	}
	err = middleware.SignRequest(req, domain, nonce, raw, func(h common.Hash) ([]byte, error) {
		return sigs.Sign(h, c.key)
	})
	if err != nil {
		return fmt.Errorf("sign request: %w", err)
	}
	if err := c.do(req, out); err != nil {
		// the server may not have consumed the nonce; resync before the next call
		c.mu.Lock()
		c.synced = false
		c.mu.Unlock()
		return err
	}
	return nil
}

// Get performs an unsigned read.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	c.log.Debug().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Msg("API call")

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%s %s: %d %s", req.Method, req.URL.Path, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}
