package pudding

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// DefaultNetwork is the bundle key used when no network has been detected.
const DefaultNetwork = "default"

// mainnetAliases are tried in order when the node reports network id 1.
var mainnetAliases = []string{"1", "live", DefaultNetwork}

// Bundle is one network's snapshot of a contract: interface, unlinked
// bytecode, deployed address, event topics and library links. Its JSON
// form is the generated artifact format.
type Bundle struct {
	ABI            json.RawMessage            `json:"abi"`
	UnlinkedBinary string                     `json:"unlinked_binary"`
	Events         map[string]json.RawMessage `json:"events"`
	UpdatedAt      int64                      `json:"updated_at"`
	Links          map[string]string          `json:"links"`
	Address        string                     `json:"address,omitempty"`
}

// Clone returns a deep copy of the bundle.
func (b *Bundle) Clone() *Bundle {
	out := &Bundle{
		ABI:            append(json.RawMessage(nil), b.ABI...),
		UnlinkedBinary: b.UnlinkedBinary,
		UpdatedAt:      b.UpdatedAt,
		Address:        b.Address,
	}
	if b.Events != nil {
		out.Events = make(map[string]json.RawMessage, len(b.Events))
		for k, v := range b.Events {
			out.Events[k] = append(json.RawMessage(nil), v...)
		}
	}
	if b.Links != nil {
		out.Links = make(map[string]string, len(b.Links))
		for k, v := range b.Links {
			out.Links[k] = v
		}
	}
	return out
}

// Networks maps a network id to its bundle.
type Networks map[string]*Bundle

// ParseNetworks decodes a generated network document.
func ParseNetworks(data []byte) (Networks, error) {
	var n Networks
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("pudding: parsing networks: %w", err)
	}
	for id, b := range n {
		if b == nil {
			return nil, fmt.Errorf("pudding: parsing networks: empty bundle for %q", id)
		}
	}
	return n, nil
}

// MustParseNetworks is like ParseNetworks but panics on error.
func MustParseNetworks(data []byte) Networks {
	n, err := ParseNetworks(data)
	if err != nil {
		panic(err)
	}
	return n
}

// IDs returns the known network ids, sorted.
func (n Networks) IDs() []string {
	ids := make([]string, 0, len(n))
	for id := range n {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clone returns a deep copy of every bundle.
func (n Networks) Clone() Networks {
	out := make(Networks, len(n))
	for id, b := range n {
		out[id] = b.Clone()
	}
	return out
}

// Resolve returns the canonical id and bundle for a network id. Id "1"
// falls back to "live" and then "default".
func (n Networks) Resolve(id string) (string, *Bundle, bool) {
	candidates := []string{id}
	if id == "1" {
		candidates = mainnetAliases
	}
	for _, c := range candidates {
		if b, ok := n[c]; ok {
			return c, b, true
		}
	}
	return "", nil, false
}

// network is the parsed, active form of a bundle.
type network struct {
	id        string
	abi       abi.ABI
	unlinked  string
	address   string
	updatedAt int64
	links     LinkTable
	events    EventTable
}

// activate parses a bundle into its active form.
func activate(id string, b *Bundle) (*network, error) {
	n := &network{
		id:        id,
		unlinked:  b.UnlinkedBinary,
		address:   b.Address,
		updatedAt: b.UpdatedAt,
		links:     make(LinkTable, len(b.Links)),
	}

	if len(bytes.TrimSpace(b.ABI)) > 0 {
		parsed, err := abi.JSON(bytes.NewReader(b.ABI))
		if err != nil {
			return nil, fmt.Errorf("pudding: network %q: parsing abi: %w", id, err)
		}
		n.abi = parsed
	}

	for name, addr := range b.Links {
		if !common.IsHexAddress(addr) {
			return nil, fmt.Errorf("pudding: network %q: invalid address %q for library %s", id, addr, name)
		}
		n.links[name] = common.HexToAddress(addr)
	}

	events, err := ParseEventTable(b.Events)
	if err != nil {
		return nil, fmt.Errorf("pudding: network %q: %w", id, err)
	}
	n.events = events
	return n, nil
}

// UpdatedTime converts the bundle's epoch-millisecond timestamp.
func (b *Bundle) UpdatedTime() time.Time {
	return time.UnixMilli(b.UpdatedAt)
}
