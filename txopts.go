package pudding

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// TxOpts holds the execution configuration that trails a call's ABI
// arguments: sender, gas, price, value, nonce and raw data. Zero fields are
// unset and fall through to the factory defaults, then to the node. Gas 0
// means unset, so a call cannot lower a class-level gas default to zero; a
// zero gas limit can never be mined anyway.
type TxOpts struct {
	From     *common.Address
	To       *common.Address
	Gas      uint64
	GasPrice *big.Int
	Value    *big.Int
	Nonce    *uint64
	Data     []byte
}

// Merge returns a copy of o with every set field of patch applied on top.
// A zero Gas in patch keeps the gas of o.
func (o TxOpts) Merge(patch TxOpts) TxOpts {
	merged := o
	if patch.From != nil {
		from := *patch.From
		merged.From = &from
	}
	if patch.To != nil {
		to := *patch.To
		merged.To = &to
	}
	if patch.Gas != 0 {
		merged.Gas = patch.Gas
	}
	if patch.GasPrice != nil {
		merged.GasPrice = new(big.Int).Set(patch.GasPrice)
	}
	if patch.Value != nil {
		merged.Value = new(big.Int).Set(patch.Value)
	}
	if patch.Nonce != nil {
		nonce := *patch.Nonce
		merged.Nonce = &nonce
	}
	if patch.Data != nil {
		merged.Data = common.CopyBytes(patch.Data)
	}
	return merged
}

// IsZero reports whether no field is set.
func (o TxOpts) IsZero() bool {
	return o.From == nil && o.To == nil && o.Gas == 0 && o.GasPrice == nil &&
		o.Value == nil && o.Nonce == nil && o.Data == nil
}

// callMsg builds the message used for eth_call and eth_estimateGas.
func (o TxOpts) callMsg(to *common.Address, data []byte) ethereum.CallMsg {
	msg := ethereum.CallMsg{
		To:       to,
		Gas:      o.Gas,
		GasPrice: o.GasPrice,
		Value:    o.Value,
		Data:     data,
	}
	if o.From != nil {
		msg.From = *o.From
	}
	return msg
}

// args converts the options into their JSON-RPC form.
func (o TxOpts) args(to *common.Address, data []byte) TransactionArgs {
	a := TransactionArgs{
		From: o.From,
		To:   to,
	}
	if o.Gas != 0 {
		gas := hexutil.Uint64(o.Gas)
		a.Gas = &gas
	}
	if o.GasPrice != nil {
		a.GasPrice = (*hexutil.Big)(new(big.Int).Set(o.GasPrice))
	}
	if o.Value != nil {
		a.Value = (*hexutil.Big)(new(big.Int).Set(o.Value))
	}
	if o.Nonce != nil {
		nonce := hexutil.Uint64(*o.Nonce)
		a.Nonce = &nonce
	}
	if data != nil {
		input := hexutil.Bytes(common.CopyBytes(data))
		a.Data = &input
	}
	return a
}

// TransactionArgs is the JSON-RPC payload for eth_sendTransaction and eth_call.
type TransactionArgs struct {
	From     *common.Address `json:"from,omitempty"`
	To       *common.Address `json:"to,omitempty"`
	Gas      *hexutil.Uint64 `json:"gas,omitempty"`
	GasPrice *hexutil.Big    `json:"gasPrice,omitempty"`
	Value    *hexutil.Big    `json:"value,omitempty"`
	Nonce    *hexutil.Uint64 `json:"nonce,omitempty"`
	Data     *hexutil.Bytes  `json:"data,omitempty"`
}

// txOptsFromValue converts a trailing argument classified as options.
// Maps use the web3 keys (from, to, gas, gasPrice, value, nonce, data);
// other structs are read through their JSON encoding.
func txOptsFromValue(v any) (TxOpts, error) {
	switch o := v.(type) {
	case TxOpts:
		return o, nil
	case *TxOpts:
		if o == nil {
			return TxOpts{}, nil
		}
		return *o, nil
	case map[string]any:
		return txOptsFromMap(o)
	case map[string]string:
		m := make(map[string]any, len(o))
		for k, s := range o {
			m[k] = s
		}
		return txOptsFromMap(m)
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return TxOpts{}, fmt.Errorf("transaction options %T: %w", v, err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return TxOpts{}, fmt.Errorf("transaction options %T: %w", v, err)
	}
	return txOptsFromMap(m)
}

func txOptsFromMap(m map[string]any) (TxOpts, error) {
	var opts TxOpts
	for key, value := range m {
		if value == nil {
			continue
		}
		switch strings.ToLower(key) {
		case "from":
			addr, err := toAddress(value)
			if err != nil {
				return TxOpts{}, fmt.Errorf("option %q: %w", key, err)
			}
			opts.From = &addr
		case "to":
			addr, err := toAddress(value)
			if err != nil {
				return TxOpts{}, fmt.Errorf("option %q: %w", key, err)
			}
			opts.To = &addr
		case "gas", "gaslimit":
			n, err := toBigInt(value)
			if err != nil || !n.IsUint64() {
				return TxOpts{}, fmt.Errorf("option %q: invalid gas %v", key, value)
			}
			opts.Gas = n.Uint64()
		case "gasprice":
			n, err := toBigInt(value)
			if err != nil {
				return TxOpts{}, fmt.Errorf("option %q: %w", key, err)
			}
			opts.GasPrice = n
		case "value":
			n, err := toBigInt(value)
			if err != nil {
				return TxOpts{}, fmt.Errorf("option %q: %w", key, err)
			}
			opts.Value = n
		case "nonce":
			n, err := toBigInt(value)
			if err != nil || !n.IsUint64() {
				return TxOpts{}, fmt.Errorf("option %q: invalid nonce %v", key, value)
			}
			nonce := n.Uint64()
			opts.Nonce = &nonce
		case "data", "input":
			b, err := toBytes(value)
			if err != nil {
				return TxOpts{}, fmt.Errorf("option %q: %w", key, err)
			}
			opts.Data = b
		}
	}
	return opts, nil
}
