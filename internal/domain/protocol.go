package domain

import "github.com/mindlabs/gomarket/pkg/addr"

// MaxAdmins bounds both the admin set and the withdraw allowlist.
const MaxAdmins = 3

// ProtocolConfig is the singleton protocol registry. Its record account
// doubles as the protocol treasury: fees accumulate on top of the record's
// rent reserve and admins withdraw the excess to allowlisted addresses.
type ProtocolConfig struct {
	Address           addr.Address   `json:"address"`
	Admins            []addr.Address `json:"admins"`
	WithdrawAllowlist []addr.Address `json:"withdraw_allowlist"`
	Fees              FeeSchedule    `json:"fees"`
}

func (p *ProtocolConfig) IsAdmin(a addr.Address) bool {
	return containsAddr(p.Admins, a)
}

func (p *ProtocolConfig) IsAllowlisted(a addr.Address) bool {
	return containsAddr(p.WithdrawAllowlist, a)
}

func containsAddr(list []addr.Address, a addr.Address) bool {
	for _, item := range list {
		if item == a {
			return true
		}
	}
	return false
}
