package pudding

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// OperationKind tags the variant of a bound Operation.
type OperationKind uint8

const (
	// ReadCall operations simulate the call and never touch chain state.
	ReadCall OperationKind = iota

	// WriteCall operations submit a transaction and wait for its receipt.
	WriteCall

	// EventHandle operations expose the backend's log subscription.
	EventHandle
)

func (k OperationKind) String() string {
	switch k {
	case ReadCall:
		return "read"
	case WriteCall:
		return "write"
	case EventHandle:
		return "event"
	default:
		return fmt.Sprintf("OperationKind(%d)", uint8(k))
	}
}

// TxResult is what a write resolves with in next-gen mode.
type TxResult struct {
	Hash    common.Hash
	Receipt *types.Receipt
	Logs    []DecodedLog
}

// Operation is one interface entry bound to a contract instance.
//
// Every function operation classifies trailing options (see IsTxOptions)
// and merges them over the factory defaults independently, whichever
// sibling is used.
type Operation struct {
	contract *Contract
	kind     OperationKind
	method   abi.Method
	event    abi.Event
}

// bindOperations builds the name -> operation table of a contract.
// Functions take precedence over events sharing a name.
func bindOperations(c *Contract) map[string]*Operation {
	ops := make(map[string]*Operation, len(c.abi.Methods)+len(c.abi.Events))
	for name, ev := range c.abi.Events {
		ops[name] = &Operation{contract: c, kind: EventHandle, event: ev}
	}
	for name, m := range c.abi.Methods {
		kind := WriteCall
		if m.IsConstant() {
			kind = ReadCall
		}
		ops[name] = &Operation{contract: c, kind: kind, method: m}
	}
	return ops
}

// Name returns the entry name.
func (op *Operation) Name() string {
	if op.kind == EventHandle {
		return op.event.Name
	}
	return op.method.Name
}

// Kind returns the operation variant.
func (op *Operation) Kind() OperationKind {
	return op.kind
}

// Method returns the ABI method of a function operation.
func (op *Operation) Method() abi.Method {
	return op.method
}

// Event returns the ABI event of an event handle.
func (op *Operation) Event() abi.Event {
	return op.event
}

// Inputs returns the entry's parameters.
func (op *Operation) Inputs() abi.Arguments {
	if op.kind == EventHandle {
		return op.event.Inputs
	}
	return op.method.Inputs
}

// Selector returns the 4-byte function selector.
func (op *Operation) Selector() [4]byte {
	var sel [4]byte
	copy(sel[:], op.method.ID)
	return sel
}

// HasReturnValue returns true if the function has outputs.
func (op *Operation) HasReturnValue() bool {
	return len(op.method.Outputs) > 0
}

// Payable returns true if the function accepts ether.
func (op *Operation) Payable() bool {
	return op.kind != EventHandle && op.method.IsPayable()
}

// Invoke runs the operation the way its entry asks for. Reads return nil,
// the single output, or []any for several outputs. Writes wait for the
// receipt and return the common.Hash, or a *TxResult when the factory is
// in next-gen mode.
func (op *Operation) Invoke(ctx context.Context, args ...any) (any, error) {
	switch op.kind {
	case ReadCall:
		values, err := op.Call(ctx, args...)
		if err != nil {
			return nil, err
		}
		switch len(values) {
		case 0:
			return nil, nil
		case 1:
			return values[0], nil
		default:
			return values, nil
		}

	case WriteCall:
		if op.contract.factory.NextGen() {
			return op.Transact(ctx, args...)
		}
		hash, err := op.SendTransaction(ctx, args...)
		if err != nil {
			return nil, err
		}
		if _, err := op.contract.factory.tracker(op.contract.factory.Provider()).Wait(ctx, hash); err != nil {
			return nil, err
		}
		return hash, nil

	default:
		return nil, ErrInvalidOperation
	}
}

// Call simulates the function with eth_call and unpacks its outputs.
func (op *Operation) Call(ctx context.Context, args ...any) ([]any, error) {
	backend, data, opts, err := op.prepare(args)
	if err != nil {
		return nil, err
	}
	to := op.contract.address

	out, err := backend.CallContract(ctx, opts.callMsg(&to, data), nil)
	if err != nil {
		return nil, &TransportError{Op: "eth_call", Err: err}
	}
	if len(out) == 0 && len(op.method.Outputs) > 0 {
		code, err := backend.CodeAt(ctx, to, nil)
		if err != nil {
			return nil, &TransportError{Op: "eth_getCode", Err: err}
		}
		if len(code) == 0 {
			return nil, ErrNoCode
		}
	}

	values, err := op.method.Outputs.Unpack(out)
	if err != nil {
		return nil, fmt.Errorf("pudding: unpacking result of %q: %w", op.method.Name, err)
	}
	return values, nil
}

// SendTransaction submits the function as a transaction and returns its
// hash without waiting for it to be mined.
func (op *Operation) SendTransaction(ctx context.Context, args ...any) (common.Hash, error) {
	backend, data, opts, err := op.prepare(args)
	if err != nil {
		return common.Hash{}, err
	}
	to := op.contract.address

	hash, err := backend.SendTransactionArgs(ctx, opts.args(&to, data))
	if err != nil {
		return common.Hash{}, &TransportError{Op: "eth_sendTransaction", Err: err}
	}
	return hash, nil
}

// Transact submits the function, waits for the receipt and decodes its logs
// against the factory's event table.
func (op *Operation) Transact(ctx context.Context, args ...any) (*TxResult, error) {
	hash, err := op.SendTransaction(ctx, args...)
	if err != nil {
		return nil, err
	}
	f := op.contract.factory
	receipt, err := f.tracker(f.Provider()).Wait(ctx, hash)
	if err != nil {
		return nil, err
	}
	logs, err := DecodeLogs(f.Events(), receipt.Logs)
	if err != nil {
		return nil, err
	}
	return &TxResult{Hash: hash, Receipt: receipt, Logs: logs}, nil
}

// EstimateGas asks the backend how much gas the call would use.
func (op *Operation) EstimateGas(ctx context.Context, args ...any) (uint64, error) {
	backend, data, opts, err := op.prepare(args)
	if err != nil {
		return 0, err
	}
	to := op.contract.address

	gas, err := backend.EstimateGas(ctx, opts.callMsg(&to, data))
	if err != nil {
		return 0, &TransportError{Op: "eth_estimateGas", Err: err}
	}
	return gas, nil
}

// Request builds the raw JSON-RPC request for the call without sending it:
// eth_call for read-only functions, eth_sendTransaction otherwise.
func (op *Operation) Request(args ...any) (*Request, error) {
	if op.kind == EventHandle {
		return nil, ErrInvalidOperation
	}
	data, opts, err := op.encode(args, op.contract.factory.defaultsSnapshot())
	if err != nil {
		return nil, err
	}
	to := op.contract.address

	method := "eth_sendTransaction"
	if op.kind == ReadCall {
		method = "eth_call"
	}
	return &Request{Method: method, Args: opts.args(&to, data)}, nil
}

// Watch subscribes to this event's logs emitted by the contract. Extra
// topic filters apply to the indexed parameters in order.
func (op *Operation) Watch(ctx context.Context, ch chan<- types.Log, topics ...[]common.Hash) (ethereum.Subscription, error) {
	if op.kind != EventHandle {
		return nil, ErrInvalidOperation
	}
	backend := op.contract.factory.Provider()
	if backend == nil {
		return nil, ErrNoProvider
	}
	sub, err := backend.SubscribeFilterLogs(ctx, op.filterQuery(nil, nil, topics), ch)
	if err != nil {
		return nil, &TransportError{Op: "eth_subscribe", Err: err}
	}
	return sub, nil
}

// Filter returns this event's past logs between two blocks; nil bounds
// are left to the node's defaults.
func (op *Operation) Filter(ctx context.Context, fromBlock, toBlock *big.Int, topics ...[]common.Hash) ([]types.Log, error) {
	if op.kind != EventHandle {
		return nil, ErrInvalidOperation
	}
	backend := op.contract.factory.Provider()
	if backend == nil {
		return nil, ErrNoProvider
	}
	logs, err := backend.FilterLogs(ctx, op.filterQuery(fromBlock, toBlock, topics))
	if err != nil {
		return nil, &TransportError{Op: "eth_getLogs", Err: err}
	}
	return logs, nil
}

func (op *Operation) filterQuery(fromBlock, toBlock *big.Int, topics [][]common.Hash) ethereum.FilterQuery {
	return ethereum.FilterQuery{
		FromBlock: fromBlock,
		ToBlock:   toBlock,
		Addresses: []common.Address{op.contract.address},
		Topics:    append([][]common.Hash{{op.event.ID}}, topics...),
	}
}

// prepare resolves the backend and encodes the call.
func (op *Operation) prepare(args []any) (Backend, []byte, TxOpts, error) {
	if op.kind == EventHandle {
		return nil, nil, TxOpts{}, ErrInvalidOperation
	}
	backend, defaults, err := op.contract.factory.callState()
	if err != nil {
		return nil, nil, TxOpts{}, err
	}
	data, opts, err := op.encode(args, defaults)
	if err != nil {
		return nil, nil, TxOpts{}, err
	}
	return backend, data, opts, nil
}

// encode splits off trailing options, merges them over defaults and packs
// the remaining arguments behind the selector. Data set in the options is
// ignored for function calls.
func (op *Operation) encode(args []any, defaults TxOpts) ([]byte, TxOpts, error) {
	callArgs, opts, err := SplitOptions(args)
	if err != nil {
		return nil, TxOpts{}, &ArgumentError{Method: op.method.Name, Index: len(args) - 1, Err: err}
	}
	opts = defaults.Merge(opts)
	opts.Data = nil

	coerced, err := coerceArgs(op.method.Name, op.method.Inputs, callArgs)
	if err != nil {
		return nil, TxOpts{}, err
	}
	input, err := op.method.Inputs.Pack(coerced...)
	if err != nil {
		return nil, TxOpts{}, &EncodingError{Method: op.method.Name, Err: err}
	}
	data := make([]byte, 0, len(op.method.ID)+len(input))
	data = append(data, op.method.ID...)
	data = append(data, input...)
	return data, opts, nil
}
