package domain

import (
	"time"

	"github.com/mindlabs/gomarket/pkg/addr"
)

const (
	MaxProjectNameLen        = 64
	MaxProjectDescriptionLen = 200
	MaxProjectOperators      = 3
)

// Project is one tenant record. Its treasury is a derived sub-account
// with no key of its own; only the engine's own logic may debit it.
type Project struct {
	Address     addr.Address   `json:"address"`
	ID          uint64         `json:"id"`
	Owner       addr.Address   `json:"owner"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Operators   []addr.Address `json:"operators"`
	Treasury    addr.Address   `json:"treasury"`
	CreatedAt   time.Time      `json:"created_at"`
}

// IsAuthorized gates every privileged action scoped to the project.
func (p *Project) IsAuthorized(a addr.Address) bool {
	return a == p.Owner || containsAddr(p.Operators, a)
}
