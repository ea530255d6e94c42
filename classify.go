package pudding

import (
	"fmt"
	"math/big"
	"reflect"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// IsTxOptions reports whether a trailing call argument is a transaction
// options value rather than an ABI argument.
//
// A value is options iff it is a keyed structure (a map with string keys,
// a struct, or a pointer to one of those; never a slice or array) and it
// does not read as an arbitrary-precision integer. *big.Int is a pointer to
// a struct, so the second test is what keeps big numbers on the ABI side.
//
// The rule only looks at the value, never at the entry's input count, so a
// method whose last input is a tuple and that is called without options
// will lose that argument to the options slot. An empty map is options.
func IsTxOptions(v any) bool {
	return isKeyed(v) && !IsBigNumber(v)
}

// IsBigNumber reports whether v is one of the supported arbitrary-precision
// number shapes, or otherwise parses as a big integer.
func IsBigNumber(v any) bool {
	switch n := v.(type) {
	case *big.Int, big.Int, *big.Float, big.Float,
		*uint256.Int, uint256.Int,
		decimal.Decimal, *decimal.Decimal, decimal.NullDecimal,
		*hexutil.Big, hexutil.Big:
		return true
	case map[string]any, map[string]string:
		s, ok := hexField(n)
		if !ok {
			return false
		}
		_, err := parseBigString(s)
		return err == nil
	case fmt.Stringer:
		if isNilPointer(v) {
			return false
		}
		_, err := parseBigString(n.String())
		return err == nil
	}
	return false
}

// SplitOptions separates a trailing options value from the ABI arguments.
// When the last argument isn't options the returned TxOpts is zero.
func SplitOptions(args []any) ([]any, TxOpts, error) {
	if len(args) == 0 {
		return args, TxOpts{}, nil
	}
	last := args[len(args)-1]
	if !IsTxOptions(last) {
		return args, TxOpts{}, nil
	}
	opts, err := txOptsFromValue(last)
	if err != nil {
		return nil, TxOpts{}, err
	}
	return args[:len(args)-1], opts, nil
}

func isKeyed(v any) bool {
	if v == nil {
		return false
	}
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Struct:
		return true
	case reflect.Map:
		return t.Key().Kind() == reflect.String
	default:
		return false
	}
}

func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
