package pudding

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

type stringer string

func (s stringer) String() string { return string(s) }

func TestIsTxOptions(t *testing.T) {
	var nilBig *big.Int

	tests := []struct {
		name     string
		value    any
		expected bool
	}{
		{"TxOpts", TxOpts{}, true},
		{"*TxOpts", &TxOpts{Gas: 1}, true},
		{"map", map[string]any{"from": alice.Hex()}, true},
		{"empty map", map[string]any{}, true},
		{"string map", map[string]string{"gas": "1"}, true},
		{"struct", struct{ From string }{}, true},
		{"*big.Int", big.NewInt(1), false},
		{"nil *big.Int", nilBig, false},
		{"big.Float", big.NewFloat(1), false},
		{"uint256", uint256.NewInt(1), false},
		{"decimal", decimal.NewFromInt(1), false},
		{"hexutil.Big", (*hexutil.Big)(big.NewInt(1)), false},
		{"serialized big number", map[string]any{"_hex": "0x2a"}, false},
		{"BigNumber with type field", map[string]any{"type": "BigNumber", "hex": "0x2a"}, false},
		{"map with bad hex is options", map[string]any{"_hex": "zz"}, true},
		{"int", 42, false},
		{"string", "hello", false},
		{"address", alice, false},
		{"slice", []any{1, 2}, false},
		{"array", [2]int{1, 2}, false},
		{"bytes", []byte{1}, false},
		{"int-keyed map", map[int]any{1: 1}, false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTxOptions(tt.value); got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestIsBigNumber(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected bool
	}{
		{"*big.Int", big.NewInt(5), true},
		{"big.Int", *big.NewInt(5), true},
		{"uint256", *uint256.NewInt(5), true},
		{"decimal", decimal.RequireFromString("1.5"), true},
		{"null decimal", decimal.NullDecimal{}, true},
		{"numeric stringer", stringer("12345678901234567890"), true},
		{"hex stringer", stringer("0xff"), true},
		{"text stringer", stringer("hello"), false},
		{"hex map", map[string]any{"_hex": "0x01"}, true},
		{"hex string map", map[string]string{"_hex": "0x2a"}, true},
		{"BigNumber string map", map[string]string{"type": "BigNumber", "hex": "0x2a"}, true},
		{"plain string map", map[string]string{"gas": "1"}, false},
		{"plain map", map[string]any{"gas": 1}, false},
		{"TxOpts", TxOpts{}, false},
		{"int", 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsBigNumber(tt.value); got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestSplitOptions(t *testing.T) {
	t.Run("no arguments", func(t *testing.T) {
		args, opts, err := SplitOptions(nil)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if len(args) != 0 || !opts.IsZero() {
			t.Errorf("Expected nothing, got %v %+v", args, opts)
		}
	})

	t.Run("trailing options are split off", func(t *testing.T) {
		args, opts, err := SplitOptions([]any{bob.Hex(), 100, map[string]any{"from": alice.Hex()}})
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if len(args) != 2 {
			t.Errorf("Expected 2 args, got %d", len(args))
		}
		if opts.From == nil || *opts.From != alice {
			t.Errorf("Expected from %s, got %v", alice.Hex(), opts.From)
		}
	})

	t.Run("trailing big number stays an argument", func(t *testing.T) {
		args, opts, err := SplitOptions([]any{bob.Hex(), big.NewInt(100)})
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if len(args) != 2 {
			t.Errorf("Expected 2 args, got %d", len(args))
		}
		if !opts.IsZero() {
			t.Errorf("Expected zero options, got %+v", opts)
		}
	})

	t.Run("options before the last argument stay arguments", func(t *testing.T) {
		args, _, err := SplitOptions([]any{TxOpts{Gas: 1}, 5})
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if len(args) != 2 {
			t.Errorf("Expected 2 args, got %d", len(args))
		}
	})

	t.Run("invalid options", func(t *testing.T) {
		_, _, err := SplitOptions([]any{map[string]any{"from": "nope"}})
		if err == nil {
			t.Fatal("Expected error for invalid options")
		}
		if errors.Is(err, ErrArgumentCount) {
			t.Errorf("Expected option error, got %v", err)
		}
	})

	t.Run("string-keyed serialized number stays an argument", func(t *testing.T) {
		args, opts, err := SplitOptions([]any{bob.Hex(), map[string]string{"_hex": "0x2a"}})
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if len(args) != 2 {
			t.Errorf("Expected 2 args, got %d", len(args))
		}
		if !opts.IsZero() {
			t.Errorf("Expected zero options, got %+v", opts)
		}
	})

	t.Run("address as last argument", func(t *testing.T) {
		args, opts, err := SplitOptions([]any{common.Address{}})
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if len(args) != 1 || !opts.IsZero() {
			t.Errorf("Expected address to stay an argument, got %v %+v", args, opts)
		}
	})
}
