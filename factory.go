package pudding

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// GeneratedWith is the artifact format version the bundles follow.
const GeneratedWith = "3.2.0"

// Method is a member added to every contract of a factory through Extend.
type Method func(ctx context.Context, c *Contract, args ...any) (any, error)

// Mixin is a named set of Methods.
type Mixin map[string]Method

// Factory is the entry point for one contract class: it owns the network
// bundles, the active network, class-level transaction defaults, the
// library link table and the backend, and produces bound Contracts.
//
// A Factory is safe for concurrent use. Contracts snapshot the interface
// and address when they are bound; defaults, events, backend and the
// next-gen flag are read when an operation runs.
type Factory struct {
	mu sync.RWMutex

	name      string
	networks  Networks
	active    *network
	networkID string

	defaults TxOpts
	backend  Backend
	mixins   Mixin
	nextGen  bool
	initial  string

	timeout      time.Duration
	pollInterval time.Duration
	logger       *zap.Logger
	metrics      *Metrics
}

// NewFactory creates a factory for the named contract. If networks has a
// "default" bundle it is activated so its data is available immediately,
// but the network id is left unset so CheckNetwork still detects it.
// WithActiveNetwork selects a bundle up front instead. The factory keeps
// its own copy of networks.
func NewFactory(name string, networks Networks, opts ...Option) (*Factory, error) {
	f := &Factory{
		name:         name,
		networks:     networks.Clone(),
		active:       emptyNetwork(),
		mixins:       make(Mixin),
		timeout:      DefaultSynchronizationTimeout,
		pollInterval: DefaultPollInterval,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = f.logger.With(zap.String("contract", name))

	if _, ok := networks[DefaultNetwork]; ok {
		if err := f.SetNetwork(DefaultNetwork); err != nil {
			return nil, err
		}
		f.networkID = ""
	}
	if f.initial != "" {
		if err := f.SetNetwork(f.initial); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// MustFactory is like NewFactory but panics on error.
func MustFactory(name string, networks Networks, opts ...Option) *Factory {
	f, err := NewFactory(name, networks, opts...)
	if err != nil {
		panic(err)
	}
	return f
}

func emptyNetwork() *network {
	return &network{links: make(LinkTable), events: make(EventTable)}
}

// Name returns the contract name.
func (f *Factory) Name() string {
	return f.name
}

// SetProvider attaches the backend.
func (f *Factory) SetProvider(b Backend) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.backend = b
}

// Provider returns the attached backend, or nil.
func (f *Factory) Provider() Backend {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.backend
}

// Networks returns the ids of every known network, sorted.
func (f *Factory) Networks() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.networks.IDs()
}

// NetworkID returns the id of the active network, or "" while undetected.
func (f *Factory) NetworkID() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.networkID
}

// SetNetwork makes the bundle for id active. Unknown ids fail with a
// *NetworkUnknownError and leave the active bundle in place.
func (f *Factory) SetNetwork(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.setNetworkLocked(id)
}

func (f *Factory) setNetworkLocked(id string) error {
	b, ok := f.networks[id]
	if !ok {
		return &NetworkUnknownError{Contract: f.name, NetworkID: id}
	}
	n, err := activate(id, b)
	if err != nil {
		return err
	}
	f.active = n
	f.networkID = id
	return nil
}

// CheckNetwork detects the backend's network and activates the matching
// bundle. Once a network id is known, by detection or SetNetwork, it
// returns immediately.
func (f *Factory) CheckNetwork(ctx context.Context) error {
	f.mu.RLock()
	known := f.networkID != ""
	backend := f.backend
	f.mu.RUnlock()

	if known {
		return nil
	}
	if backend == nil {
		return ErrNoProvider
	}

	id, err := backend.NetworkID(ctx)
	if err != nil {
		return &TransportError{Op: "net_version", Err: err}
	}
	detected := id.String()

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.networkID != "" {
		return nil
	}
	canonical, _, ok := f.networks.Resolve(detected)
	if !ok {
		return &NetworkUnknownError{Contract: f.name, NetworkID: detected}
	}
	f.logger.Debug("network detected", zap.String("network", detected), zap.String("bundle", canonical))
	return f.setNetworkLocked(canonical)
}

// ABI returns the active network's interface.
func (f *Factory) ABI() abi.ABI {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.active.abi
}

// Address returns the active network's deployed address, or "".
func (f *Factory) Address() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.active.address
}

// UpdatedAt returns when the active bundle was generated.
func (f *Factory) UpdatedAt() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return time.UnixMilli(f.active.updatedAt)
}

// UnlinkedBinary returns the active bytecode template.
func (f *Factory) UnlinkedBinary() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.active.unlinked
}

// Binary returns the active bytecode with every linked library substituted.
// It is recomputed on each call, so links added later are always reflected.
func (f *Factory) Binary() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return Materialize(f.active.unlinked, f.active.links)
}

// Links returns a copy of the active link table.
func (f *Factory) Links() LinkTable {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.active.links.Clone()
}

// Events returns a copy of the active event table.
func (f *Factory) Events() EventTable {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.active.events.Clone()
}

// Defaults merges patch into the class-level transaction defaults and
// returns the result.
func (f *Factory) Defaults(patch TxOpts) TxOpts {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.defaults = f.defaults.Merge(patch)
	return TxOpts{}.Merge(f.defaults)
}

// NextGen reports whether writes resolve with a *TxResult.
func (f *Factory) NextGen() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.nextGen
}

// SetNextGen toggles the *TxResult resolution of writes.
func (f *Factory) SetNextGen(enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextGen = enabled
}

// SetSynchronizationTimeout changes how long writes wait for receipts.
func (f *Factory) SetSynchronizationTimeout(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.timeout = d
}

// Extend adds members to every contract of this factory. Interface
// entries take precedence over members of the same name.
func (f *Factory) Extend(mixins ...Mixin) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range mixins {
		for name, fn := range m {
			f.mixins[name] = fn
		}
	}
}

func (f *Factory) mixin(name string) (Method, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	m, ok := f.mixins[name]
	return m, ok
}

// Link records the address of a library in the active link table. The
// link is also written to the active bundle, so clones made afterwards
// inherit it.
func (f *Factory) Link(name string, address common.Address) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.linkLocked(name, address)
}

func (f *Factory) linkLocked(name string, address common.Address) {
	f.active.links[name] = address
	if b, ok := f.networks[f.active.id]; ok && f.active.id != "" {
		if b.Links == nil {
			b.Links = make(map[string]string)
		}
		b.Links[name] = address.Hex()
	}
}

// LinkAll records every library of links.
func (f *Factory) LinkAll(links map[string]common.Address) {
	for name, addr := range links {
		f.Link(name, addr)
	}
}

// LinkLibrary links a deployed library factory by its name and address and
// imports its events so their logs decode in this contract's receipts.
func (f *Factory) LinkLibrary(lib *Factory) error {
	address := lib.Address()
	if address == "" {
		return ErrLinkWithoutAddress
	}
	if !common.IsHexAddress(address) {
		return &InvalidAddressError{Contract: lib.Name(), Address: address}
	}
	events := lib.Events()

	f.mu.Lock()
	defer f.mu.Unlock()
	f.linkLocked(lib.Name(), common.HexToAddress(address))
	f.active.events.Merge(events)
	return nil
}

// WithNetwork returns an independent factory seeded from this one and
// activated on id. The clone copies networks, defaults, mixins, backend
// and settings; later changes to either side stay on that side.
func (f *Factory) WithNetwork(id string) (*Factory, error) {
	f.mu.RLock()
	clone := &Factory{
		name:         f.name,
		networks:     f.networks.Clone(),
		active:       emptyNetwork(),
		defaults:     TxOpts{}.Merge(f.defaults),
		backend:      f.backend,
		mixins:       make(Mixin, len(f.mixins)),
		nextGen:      f.nextGen,
		timeout:      f.timeout,
		pollInterval: f.pollInterval,
		logger:       f.logger,
		metrics:      f.metrics,
	}
	for name, m := range f.mixins {
		clone.mixins[name] = m
	}
	f.mu.RUnlock()

	if err := clone.SetNetwork(id); err != nil {
		return nil, err
	}
	return clone, nil
}

// At binds a contract at address without submitting anything.
func (f *Factory) At(address string) (*Contract, error) {
	if !isHexAddress(address) {
		return nil, &InvalidAddressError{Contract: f.name, Address: address}
	}
	f.mu.RLock()
	contractABI := f.active.abi
	f.mu.RUnlock()

	return newContract(f, common.HexToAddress(address), contractABI, common.Hash{}), nil
}

// Deployed binds the contract at the active network's recorded address.
func (f *Factory) Deployed() (*Contract, error) {
	address := f.Address()
	if address == "" {
		return nil, ErrNoAddress
	}
	return f.At(address)
}

// Deploy submits a new instance of the contract and waits until it is
// mined. Trailing transaction options are recognised as for any call; if
// they carry no Data, the linked binary is used. Missing provider, missing
// bytecode and unlinked libraries are reported before anything is sent.
func (f *Factory) Deploy(ctx context.Context, args ...any) (*Contract, error) {
	f.mu.RLock()
	backend := f.backend
	n := f.active
	defaults := f.defaults
	binary := Materialize(n.unlinked, n.links)
	f.mu.RUnlock()

	if backend == nil {
		return nil, ErrNoProvider
	}
	if n.unlinked == "" {
		return nil, ErrNoBytecode
	}
	if libs := ScanUnresolved(binary); len(libs) > 0 {
		return nil, &UnresolvedLibrariesError{Contract: f.name, Libraries: libs}
	}

	callArgs, opts, err := SplitOptions(args)
	if err != nil {
		return nil, &ArgumentError{Method: "constructor", Index: len(args) - 1, Err: err}
	}
	opts = defaults.Merge(opts)

	code := opts.Data
	if code == nil {
		if code, err = decodeBytecode(binary); err != nil {
			return nil, fmt.Errorf("pudding: %s binary: %w", f.name, err)
		}
	}

	coerced, err := coerceArgs("constructor", n.abi.Constructor.Inputs, callArgs)
	if err != nil {
		return nil, err
	}
	input, err := n.abi.Pack("", coerced...)
	if err != nil {
		return nil, &EncodingError{Err: err}
	}
	payload := append(common.CopyBytes(code), input...)

	hash, err := backend.SendTransactionArgs(ctx, opts.args(nil, payload))
	if err != nil {
		return nil, &TransportError{Op: "eth_sendTransaction", Err: err}
	}
	f.logger.Info("deployment submitted", zap.Stringer("tx", hash))

	receipt, err := f.tracker(backend).Wait(ctx, hash)
	if err != nil {
		return nil, err
	}
	if receipt.ContractAddress == (common.Address{}) {
		return nil, ErrCodeNotStored
	}
	deployed, err := backend.CodeAt(ctx, receipt.ContractAddress, nil)
	if err != nil {
		return nil, &TransportError{Op: "eth_getCode", Err: err}
	}
	if len(deployed) == 0 {
		return nil, ErrCodeNotStored
	}

	f.metrics.observeDeployment(f.name)
	f.logger.Info("contract deployed",
		zap.Stringer("tx", hash),
		zap.Stringer("address", receipt.ContractAddress))

	return newContract(f, receipt.ContractAddress, n.abi, hash), nil
}

// tracker builds a confirmation tracker from the current settings.
func (f *Factory) tracker(backend ReceiptFetcher) *Tracker {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return NewTracker(backend,
		WithTrackerInterval(f.pollInterval),
		WithTrackerTimeout(f.timeout),
		WithTrackerLogger(f.logger),
		WithTrackerMetrics(f.metrics),
	)
}

// callState returns what an operation reads live at invocation time.
func (f *Factory) callState() (Backend, TxOpts, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.backend == nil {
		return nil, TxOpts{}, ErrNoProvider
	}
	return f.backend, f.defaults, nil
}

func (f *Factory) defaultsSnapshot() TxOpts {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.defaults
}

func isHexAddress(s string) bool {
	return len(s) == 2+2*common.AddressLength && has0xPrefix(s) && common.IsHexAddress(s)
}

func decodeBytecode(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	return hex.DecodeString(s)
}
