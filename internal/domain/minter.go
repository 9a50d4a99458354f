package domain

import (
	"fmt"
	"time"

	"github.com/mindlabs/gomarket/pkg/addr"
)

const (
	MaxMinterNameLen = 32
	MaxURIPrefixLen  = 200
)

// AssetsConfig drives generated names and URIs for minted assets.
type AssetsConfig struct {
	AssetNamePrefix string `json:"asset_name_prefix"`
	AssetURIPrefix  string `json:"asset_uri_prefix"`
}

// MinterConfig is a per-project mint template. MaxSupply of zero means
// unlimited.
type MinterConfig struct {
	Address      addr.Address  `json:"address"`
	Project      addr.Address  `json:"project"`
	Name         string        `json:"name"`
	MintPrice    uint64        `json:"mint_price"`
	MintsCounter uint64        `json:"mints_counter"`
	MaxSupply    uint64        `json:"max_supply"`
	AssetsConfig *AssetsConfig `json:"assets_config,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

// NextAssetIdentity resolves the name and URI for the next mint. Without
// an assets config the caller must supply both.
func (m *MinterConfig) NextAssetIdentity(name, uri string) (string, string, error) {
	if m.AssetsConfig != nil {
		cfg := m.AssetsConfig
		n := fmt.Sprintf("%s #%d", cfg.AssetNamePrefix, m.MintsCounter)
		u := fmt.Sprintf("%s/%s/%d", cfg.AssetURIPrefix, cfg.AssetNamePrefix, m.MintsCounter)
		return n, u, nil
	}
	if name == "" || uri == "" {
		return "", "", ErrNameAndURIRequired
	}
	return name, uri, nil
}

// SupplyAvailable reports whether another mint is allowed.
func (m *MinterConfig) SupplyAvailable() bool {
	return m.MaxSupply == 0 || m.MintsCounter < m.MaxSupply
}
