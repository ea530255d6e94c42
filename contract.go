package pudding

import (
	"context"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

// Contract is a contract instance bound to an address. Its operations are
// fixed when it is created; the factory's defaults, backend, events and
// mixins are read each time an operation runs.
type Contract struct {
	factory *Factory
	address common.Address
	abi     abi.ABI
	txHash  common.Hash
	ops     map[string]*Operation
}

func newContract(f *Factory, address common.Address, contractABI abi.ABI, txHash common.Hash) *Contract {
	c := &Contract{
		factory: f,
		address: address,
		abi:     contractABI,
		txHash:  txHash,
	}
	c.ops = bindOperations(c)
	return c
}

// Address returns the contract address.
func (c *Contract) Address() common.Address {
	return c.address
}

// TxHash returns the hash of the deployment transaction, or the zero hash
// for contracts bound with At.
func (c *Contract) TxHash() common.Hash {
	return c.txHash
}

// ABI returns the interface the contract was bound with.
func (c *Contract) ABI() abi.ABI {
	return c.abi
}

// Factory returns the factory that produced the contract.
func (c *Contract) Factory() *Factory {
	return c.factory
}

// Operation returns the bound operation for a function or event name.
func (c *Contract) Operation(name string) (*Operation, error) {
	op, ok := c.ops[name]
	if !ok {
		return nil, &MethodNotFoundError{Contract: c.factory.Name(), Method: name}
	}
	return op, nil
}

// MustOperation is like Operation but panics on error.
func (c *Contract) MustOperation(name string) *Operation {
	op, err := c.Operation(name)
	if err != nil {
		panic(err)
	}
	return op
}

// HasOperation returns true if the interface has an entry with the given name.
func (c *Contract) HasOperation(name string) bool {
	_, ok := c.ops[name]
	return ok
}

// OperationNames returns the names of all bound entries, sorted.
func (c *Contract) OperationNames() []string {
	names := make([]string, 0, len(c.ops))
	for name := range c.ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke runs the named interface entry, falling back to the factory's
// mixins. See Operation.Invoke for the result shapes.
func (c *Contract) Invoke(ctx context.Context, name string, args ...any) (any, error) {
	if op, ok := c.ops[name]; ok {
		return op.Invoke(ctx, args...)
	}
	if m, ok := c.factory.mixin(name); ok {
		return m(ctx, c, args...)
	}
	return nil, &MethodNotFoundError{Contract: c.factory.Name(), Method: name}
}

// AllEvents subscribes to every log the contract emits.
func (c *Contract) AllEvents(ctx context.Context, ch chan<- types.Log) (ethereum.Subscription, error) {
	backend := c.factory.Provider()
	if backend == nil {
		return nil, ErrNoProvider
	}
	q := ethereum.FilterQuery{Addresses: []common.Address{c.address}}
	sub, err := backend.SubscribeFilterLogs(ctx, q, ch)
	if err != nil {
		return nil, &TransportError{Op: "eth_subscribe", Err: err}
	}
	return sub, nil
}

// DecodeLogs decodes logs against the factory's current event table.
func (c *Contract) DecodeLogs(logs []*types.Log) ([]DecodedLog, error) {
	return DecodeLogs(c.factory.Events(), logs)
}

// Transfer sends a plain value transfer to the contract's fallback function
// and waits for it to be mined. Like a write, it resolves with the hash, or
// a *TxResult in next-gen mode.
func (c *Contract) Transfer(ctx context.Context, opts TxOpts) (any, error) {
	f := c.factory
	backend, defaults, err := f.callState()
	if err != nil {
		return nil, err
	}
	opts = defaults.Merge(opts)
	to := c.address

	hash, err := backend.SendTransactionArgs(ctx, opts.args(&to, opts.Data))
	if err != nil {
		return nil, &TransportError{Op: "eth_sendTransaction", Err: err}
	}
	f.logger.Debug("value transfer submitted", zap.Stringer("tx", hash), zap.Stringer("to", to))

	receipt, err := f.tracker(backend).Wait(ctx, hash)
	if err != nil {
		return nil, err
	}
	if !f.NextGen() {
		return hash, nil
	}
	logs, err := DecodeLogs(f.Events(), receipt.Logs)
	if err != nil {
		return nil, err
	}
	return &TxResult{Hash: hash, Receipt: receipt, Logs: logs}, nil
}

// ParseABI parses a JSON ABI string into an abi.ABI.
func ParseABI(abiJSON string) (abi.ABI, error) {
	return abi.JSON(strings.NewReader(abiJSON))
}

// MustParseABI is like ParseABI but panics on error.
func MustParseABI(abiJSON string) abi.ABI {
	parsed, err := ParseABI(abiJSON)
	if err != nil {
		panic(err)
	}
	return parsed
}
