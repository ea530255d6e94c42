package pudding

import (
	"encoding/json"
	"fmt"
	"math/big"
	"reflect"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

var bigIntType = reflect.TypeOf(&big.Int{})

// coerceArgs converts call arguments into the Go types abi.Pack expects for
// the given inputs.
func coerceArgs(method string, inputs abi.Arguments, args []any) ([]any, error) {
	if len(args) != len(inputs) {
		return nil, &ArgumentError{
			Method: method,
			Index:  len(args),
			Err:    fmt.Errorf("%w: expected %d, got %d", ErrArgumentCount, len(inputs), len(args)),
		}
	}
	out := make([]any, len(args))
	for i, arg := range args {
		v, err := convertToABIType(arg, inputs[i].Type)
		if err != nil {
			return nil, &ArgumentError{Method: method, Index: i, Err: err}
		}
		out[i] = v
	}
	return out, nil
}

// convertToABIType handles common Go type conversions for ABI encoding.
// Values already of the expected Go type pass through untouched; anything
// it doesn't know is left for abi.Pack to reject.
func convertToABIType(value any, abiType abi.Type) (any, error) {
	target := abiType.GetType()
	if value != nil && reflect.TypeOf(value) == target {
		return value, nil
	}

	switch abiType.T {
	case abi.IntTy, abi.UintTy:
		n, err := toBigInt(value)
		if err != nil {
			return nil, &TypeMismatchError{Expected: abiType.String(), Got: fmt.Sprintf("%T", value)}
		}
		if target == bigIntType {
			return n, nil
		}
		return sizedInt(n, abiType, target)

	case abi.AddressTy:
		addr, err := toAddress(value)
		if err != nil {
			return nil, &TypeMismatchError{Expected: abiType.String(), Got: fmt.Sprintf("%T", value)}
		}
		return addr, nil

	case abi.FixedBytesTy:
		b, err := toBytes(value)
		if err != nil {
			return nil, &TypeMismatchError{Expected: abiType.String(), Got: fmt.Sprintf("%T", value)}
		}
		if len(b) > abiType.Size {
			return nil, fmt.Errorf("value of %d bytes overflows %s", len(b), abiType.String())
		}
		arr := reflect.New(target).Elem()
		reflect.Copy(arr, reflect.ValueOf(b))
		return arr.Interface(), nil

	case abi.BytesTy:
		b, err := toBytes(value)
		if err != nil {
			return nil, &TypeMismatchError{Expected: abiType.String(), Got: fmt.Sprintf("%T", value)}
		}
		return b, nil

	case abi.SliceTy, abi.ArrayTy:
		return convertList(value, abiType, target)

	default:
		return value, nil
	}
}

// sizedInt narrows n into one of the fixed-width Go integer types.
func sizedInt(n *big.Int, abiType abi.Type, target reflect.Type) (any, error) {
	out := reflect.New(target).Elem()
	if abiType.T == abi.UintTy {
		if n.Sign() < 0 || n.BitLen() > abiType.Size {
			return nil, fmt.Errorf("value %s overflows %s", n, abiType.String())
		}
		out.SetUint(n.Uint64())
		return out.Interface(), nil
	}
	if !n.IsInt64() || out.OverflowInt(n.Int64()) {
		return nil, fmt.Errorf("value %s overflows %s", n, abiType.String())
	}
	out.SetInt(n.Int64())
	return out.Interface(), nil
}

func convertList(value any, abiType abi.Type, target reflect.Type) (any, error) {
	rv := reflect.ValueOf(value)
	if value == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return value, nil
	}
	n := rv.Len()

	var out reflect.Value
	if abiType.T == abi.ArrayTy {
		if n != abiType.Size {
			return nil, fmt.Errorf("expected %d elements for %s, got %d", abiType.Size, abiType.String(), n)
		}
		out = reflect.New(target).Elem()
	} else {
		out = reflect.MakeSlice(target, n, n)
	}

	for i := 0; i < n; i++ {
		elem, err := convertToABIType(rv.Index(i).Interface(), *abiType.Elem)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		ev := reflect.ValueOf(elem)
		if !ev.IsValid() || !ev.Type().AssignableTo(target.Elem()) {
			return nil, &TypeMismatchError{Expected: abiType.Elem.String(), Got: fmt.Sprintf("%T", elem)}
		}
		out.Index(i).Set(ev)
	}
	return out.Interface(), nil
}

// toBigInt accepts the integer shapes callers commonly hold.
func toBigInt(value any) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		if v == nil {
			return nil, fmt.Errorf("nil *big.Int")
		}
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case int:
		return big.NewInt(int64(v)), nil
	case int8:
		return big.NewInt(int64(v)), nil
	case int16:
		return big.NewInt(int64(v)), nil
	case int32:
		return big.NewInt(int64(v)), nil
	case int64:
		return big.NewInt(v), nil
	case uint:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case float64:
		f := big.NewFloat(v)
		if !f.IsInt() {
			return nil, fmt.Errorf("%v is not an integer", v)
		}
		n, _ := f.Int(nil)
		return n, nil
	case *big.Float:
		if v == nil || !v.IsInt() {
			return nil, fmt.Errorf("%v is not an integer", v)
		}
		n, _ := v.Int(nil)
		return n, nil
	case *uint256.Int:
		if v == nil {
			return nil, fmt.Errorf("nil *uint256.Int")
		}
		return v.ToBig(), nil
	case uint256.Int:
		return v.ToBig(), nil
	case decimal.Decimal:
		return decimalToBig(v)
	case *decimal.Decimal:
		if v == nil {
			return nil, fmt.Errorf("nil *decimal.Decimal")
		}
		return decimalToBig(*v)
	case *hexutil.Big:
		if v == nil {
			return nil, fmt.Errorf("nil *hexutil.Big")
		}
		return new(big.Int).Set(v.ToInt()), nil
	case hexutil.Big:
		return new(big.Int).Set(v.ToInt()), nil
	case hexutil.Uint64:
		return new(big.Int).SetUint64(uint64(v)), nil
	case json.Number:
		return parseBigString(string(v))
	case string:
		return parseBigString(v)
	case map[string]any, map[string]string:
		if s, ok := hexField(v); ok {
			return parseBigString(s)
		}
	case fmt.Stringer:
		if v != nil {
			return parseBigString(v.String())
		}
	}
	return nil, fmt.Errorf("cannot convert %T to an integer", value)
}

func decimalToBig(d decimal.Decimal) (*big.Int, error) {
	if !d.IsInteger() {
		return nil, fmt.Errorf("%s is not an integer", d.String())
	}
	return d.BigInt(), nil
}

func parseBigString(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty integer string")
	}
	base := 10
	digits := s
	neg := false
	if strings.HasPrefix(digits, "-") {
		neg, digits = true, digits[1:]
	}
	if strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X") {
		base, digits = 16, digits[2:]
	}
	n, ok := new(big.Int).SetString(digits, base)
	if !ok {
		return nil, fmt.Errorf("invalid integer %q", s)
	}
	if neg {
		n.Neg(n)
	}
	return n, nil
}

// hexField extracts the payload of serialized big numbers such as
// {"_hex": "0x2a"} or {"type": "BigNumber", "hex": "0x2a"}.
func hexField(m any) (string, bool) {
	for _, key := range []string{"_hex", "hex"} {
		switch m := m.(type) {
		case map[string]any:
			if s, ok := m[key].(string); ok {
				return s, true
			}
		case map[string]string:
			if s, ok := m[key]; ok {
				return s, true
			}
		}
	}
	return "", false
}

func toAddress(value any) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		if v == nil {
			return common.Address{}, fmt.Errorf("nil address")
		}
		return *v, nil
	case string:
		if !common.IsHexAddress(v) {
			return common.Address{}, fmt.Errorf("invalid address %q", v)
		}
		return common.HexToAddress(v), nil
	case []byte:
		if len(v) != common.AddressLength {
			return common.Address{}, fmt.Errorf("invalid address length %d", len(v))
		}
		return common.BytesToAddress(v), nil
	}
	return common.Address{}, fmt.Errorf("cannot convert %T to an address", value)
}

// toBytes accepts raw bytes, byte arrays, 0x-prefixed hex and plain text.
func toBytes(value any) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case hexutil.Bytes:
		return []byte(v), nil
	case common.Hash:
		return v.Bytes(), nil
	case common.Address:
		return v.Bytes(), nil
	case string:
		if has0xPrefix(v) {
			return hexutil.Decode(v)
		}
		return []byte(v), nil
	}
	rv := reflect.ValueOf(value)
	if value != nil && rv.Kind() == reflect.Array && rv.Type().Elem().Kind() == reflect.Uint8 {
		b := make([]byte, rv.Len())
		reflect.Copy(reflect.ValueOf(b), rv)
		return b, nil
	}
	return nil, fmt.Errorf("cannot convert %T to bytes", value)
}

func has0xPrefix(s string) bool {
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}
