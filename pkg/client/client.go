// Package client is a small typed HTTP client for the marketd API.
package client

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/mindlabs/gomarket/internal/assetreg"
	"github.com/mindlabs/gomarket/internal/domain"
	"github.com/mindlabs/gomarket/internal/engine"
	"github.com/mindlabs/gomarket/pkg/addr"
)

type Client struct {
	http *resty.Client
}

func New(host string) *Client {
	host = strings.TrimSuffix(host, "/")
	c := resty.New().
		SetBaseURL(host).
		SetTimeout(30 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second)
	return &Client{http: c}
}

type apiError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	req := c.http.R().SetContext(ctx)
	if body != nil {
		req.SetHeader("Content-Type", "application/json")
		req.SetHeader("X-Request-ID", uuid.NewString())
		req.SetBody(body)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	if resp.IsError() {
		var apiErr apiError
		if json.Unmarshal(resp.Body(), &apiErr) == nil && apiErr.Error != "" {
			return errors.Errorf("%s %s: %s (%s)", method, path, apiErr.Error, apiErr.Code)
		}
		return errors.Errorf("%s %s: status %d", method, path, resp.StatusCode())
	}
	if out != nil && len(resp.Body()) > 0 {
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return errors.Wrapf(err, "%s %s: decode response", method, path)
		}
	}
	return nil
}

type InitializeProtocolRequest struct {
	Payer     addr.Address       `json:"payer"`
	Admins    []addr.Address     `json:"admins"`
	Allowlist []addr.Address     `json:"withdraw_allowlist"`
	Fees      domain.FeeSchedule `json:"fees"`
}

func (c *Client) InitializeProtocol(ctx context.Context, req InitializeProtocolRequest) (*domain.ProtocolConfig, error) {
	var out domain.ProtocolConfig
	if err := c.do(ctx, "POST", "/v1/protocol/initialize", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Protocol(ctx context.Context) (*domain.ProtocolConfig, error) {
	var out domain.ProtocolConfig
	if err := c.do(ctx, "GET", "/v1/protocol", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type UpdateFeesRequest struct {
	Admin addr.Address       `json:"admin"`
	Fees  domain.FeeSchedule `json:"fees"`
}

func (c *Client) UpdateFees(ctx context.Context, req UpdateFeesRequest) error {
	return c.do(ctx, "POST", "/v1/protocol/fees", req, nil)
}

type UpdateFeeRequest struct {
	Admin addr.Address `json:"admin"`
	Fee   domain.Fee   `json:"fee"`
}

func (c *Client) UpdateFee(ctx context.Context, op domain.Operation, req UpdateFeeRequest) error {
	return c.do(ctx, "POST", "/v1/protocol/fees/"+string(op), req, nil)
}

type WithdrawRequest struct {
	Signer      addr.Address `json:"signer"`
	Amount      uint64       `json:"amount"`
	Destination addr.Address `json:"destination"`
}

func (c *Client) WithdrawProtocolFees(ctx context.Context, req WithdrawRequest) error {
	return c.do(ctx, "POST", "/v1/protocol/withdraw", req, nil)
}

type CreateProjectRequest struct {
	Owner       addr.Address   `json:"owner"`
	ID          uint64         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Operators   []addr.Address `json:"operators"`
}

func (c *Client) CreateProject(ctx context.Context, req CreateProjectRequest) (*domain.Project, error) {
	var out domain.Project
	if err := c.do(ctx, "POST", "/v1/projects", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Project(ctx context.Context, project addr.Address) (*domain.Project, error) {
	var out domain.Project
	if err := c.do(ctx, "GET", "/v1/projects/"+project.String(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) WithdrawProjectFees(ctx context.Context, project addr.Address, req WithdrawRequest) error {
	return c.do(ctx, "POST", "/v1/projects/"+project.String()+"/withdraw", req, nil)
}

type CreateTradeHubRequest struct {
	Signer addr.Address `json:"signer"`
	Name   string       `json:"name"`
	FeeBps uint64       `json:"fee_bps"`
}

func (c *Client) CreateTradeHub(ctx context.Context, project addr.Address, req CreateTradeHubRequest) (*domain.TradeHub, error) {
	var out domain.TradeHub
	if err := c.do(ctx, "POST", "/v1/projects/"+project.String()+"/hubs", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) TradeHub(ctx context.Context, hub addr.Address) (*domain.TradeHub, error) {
	var out domain.TradeHub
	if err := c.do(ctx, "GET", "/v1/hubs/"+hub.String(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type CreateMinterRequest struct {
	Signer       addr.Address         `json:"signer"`
	Name         string               `json:"name"`
	MintPrice    uint64               `json:"mint_price"`
	MaxSupply    uint64               `json:"max_supply"`
	AssetsConfig *domain.AssetsConfig `json:"assets_config,omitempty"`
}

func (c *Client) CreateMinterConfig(ctx context.Context, project addr.Address, req CreateMinterRequest) (*domain.MinterConfig, error) {
	var out domain.MinterConfig
	if err := c.do(ctx, "POST", "/v1/projects/"+project.String()+"/minters", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MinterConfig(ctx context.Context, minter addr.Address) (*domain.MinterConfig, error) {
	var out domain.MinterConfig
	if err := c.do(ctx, "GET", "/v1/minters/"+minter.String(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type MintAssetRequest struct {
	Signer addr.Address `json:"signer"`
	Owner  addr.Address `json:"owner"`
	Name   string       `json:"name"`
	URI    string       `json:"uri"`
}

func (c *Client) MintAsset(ctx context.Context, project addr.Address, minterName string, req MintAssetRequest) (*assetreg.Asset, error) {
	var out assetreg.Asset
	path := "/v1/projects/" + project.String() + "/minters/" + minterName + "/mint"
	if err := c.do(ctx, "POST", path, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type CreateListingRequest struct {
	Signer addr.Address `json:"signer"`
	Asset  addr.Address `json:"asset"`
	Hub    addr.Address `json:"hub"`
	Price  uint64       `json:"price"`
}

func (c *Client) CreateListing(ctx context.Context, req CreateListingRequest) (*domain.Listing, error) {
	var out domain.Listing
	if err := c.do(ctx, "POST", "/v1/listings", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type DelistRequest struct {
	Signer addr.Address `json:"signer"`
	Asset  addr.Address `json:"asset"`
	Hub    addr.Address `json:"hub"`
}

func (c *Client) DelistAsset(ctx context.Context, req DelistRequest) error {
	return c.do(ctx, "POST", "/v1/listings/delist", req, nil)
}

type PurchaseRequest struct {
	Buyer    addr.Address `json:"buyer"`
	Asset    addr.Address `json:"asset"`
	Hub      addr.Address `json:"hub"`
	MaxPrice uint64       `json:"max_price"`
}

func (c *Client) PurchaseAsset(ctx context.Context, req PurchaseRequest) (*domain.Listing, error) {
	var out domain.Listing
	if err := c.do(ctx, "POST", "/v1/listings/purchase", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Listing(ctx context.Context, listing addr.Address) (*domain.Listing, error) {
	var out domain.Listing
	if err := c.do(ctx, "GET", "/v1/listings/"+listing.String(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Asset(ctx context.Context, asset addr.Address) (*assetreg.Asset, error) {
	var out assetreg.Asset
	if err := c.do(ctx, "GET", "/v1/assets/"+asset.String(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Balance(ctx context.Context, account addr.Address) (*engine.Account, error) {
	var out engine.Account
	if err := c.do(ctx, "GET", "/v1/accounts/"+account.String()+"/balance", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type FundRequest struct {
	Amount uint64 `json:"amount"`
}

func (c *Client) Fund(ctx context.Context, account addr.Address, amount uint64) error {
	return c.do(ctx, "POST", "/v1/accounts/"+account.String()+"/fund", FundRequest{Amount: amount}, nil)
}
