package pudding

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Config is the file form of a factory's settings.
//
//	rpc_url = "http://127.0.0.1:8545"
//	network = "default"
//	next_gen = true
//	synchronization_timeout = "240s"
//	poll_interval = "1s"
//
//	[defaults]
//	from = "0x..."
//	gas = 3000000
//	gas_price_gwei = "1.5"
//	value_ether = "0"
type Config struct {
	RPCURL                 string         `toml:"rpc_url"`
	Network                string         `toml:"network"`
	NextGen                bool           `toml:"next_gen"`
	SynchronizationTimeout string         `toml:"synchronization_timeout"`
	PollInterval           string         `toml:"poll_interval"`
	Defaults               DefaultsConfig `toml:"defaults"`
}

// DefaultsConfig holds the class-level transaction defaults. Amounts are
// decimal strings in gwei and ether.
type DefaultsConfig struct {
	From         string `toml:"from"`
	Gas          uint64 `toml:"gas"`
	GasPriceGwei string `toml:"gas_price_gwei"`
	ValueEther   string `toml:"value_ether"`
}

// LoadConfig reads a TOML config file. Unknown keys are rejected.
func LoadConfig(path string) (*Config, error) {
	var c Config
	md, err := toml.DecodeFile(path, &c)
	if err != nil {
		return nil, fmt.Errorf("pudding: loading config %s: %w", path, err)
	}
	if err := checkUndecoded(md); err != nil {
		return nil, fmt.Errorf("pudding: loading config %s: %w", path, err)
	}
	return &c, nil
}

// DecodeConfig parses a TOML config document. Unknown keys are rejected.
func DecodeConfig(data string) (*Config, error) {
	var c Config
	md, err := toml.Decode(data, &c)
	if err != nil {
		return nil, fmt.Errorf("pudding: decoding config: %w", err)
	}
	if err := checkUndecoded(md); err != nil {
		return nil, fmt.Errorf("pudding: decoding config: %w", err)
	}
	return &c, nil
}

func checkUndecoded(md toml.MetaData) error {
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown key %q", undecoded[0].String())
	}
	return nil
}

// Options converts the config into factory options. The RPC endpoint is
// not included; see Dial.
func (c *Config) Options() ([]Option, error) {
	var opts []Option

	if c.Network != "" {
		opts = append(opts, WithActiveNetwork(c.Network))
	}
	if c.NextGen {
		opts = append(opts, WithNextGen(true))
	}
	if c.SynchronizationTimeout != "" {
		d, err := time.ParseDuration(c.SynchronizationTimeout)
		if err != nil {
			return nil, fmt.Errorf("pudding: synchronization_timeout: %w", err)
		}
		opts = append(opts, WithSynchronizationTimeout(d))
	}
	if c.PollInterval != "" {
		d, err := time.ParseDuration(c.PollInterval)
		if err != nil {
			return nil, fmt.Errorf("pudding: poll_interval: %w", err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("pudding: poll_interval must be positive, got %s", d)
		}
		opts = append(opts, WithPollInterval(d))
	}

	defaults, err := c.Defaults.TxOpts()
	if err != nil {
		return nil, err
	}
	if !defaults.IsZero() {
		opts = append(opts, WithDefaults(defaults))
	}
	return opts, nil
}

// Dial connects to the configured RPC endpoint.
func (c *Config) Dial(ctx context.Context) (*Client, error) {
	if c.RPCURL == "" {
		return nil, fmt.Errorf("pudding: rpc_url not set")
	}
	return Dial(ctx, c.RPCURL)
}

// TxOpts converts the defaults section into transaction options.
func (d DefaultsConfig) TxOpts() (TxOpts, error) {
	var opts TxOpts
	if d.From != "" {
		if !common.IsHexAddress(d.From) {
			return TxOpts{}, fmt.Errorf("pudding: defaults.from: invalid address %q", d.From)
		}
		from := common.HexToAddress(d.From)
		opts.From = &from
	}
	opts.Gas = d.Gas

	if d.GasPriceGwei != "" {
		wei, err := scaleAmount(d.GasPriceGwei, 9)
		if err != nil {
			return TxOpts{}, fmt.Errorf("pudding: defaults.gas_price_gwei: %w", err)
		}
		opts.GasPrice = wei
	}
	if d.ValueEther != "" {
		wei, err := scaleAmount(d.ValueEther, 18)
		if err != nil {
			return TxOpts{}, fmt.Errorf("pudding: defaults.value_ether: %w", err)
		}
		opts.Value = wei
	}
	return opts, nil
}

// scaleAmount converts a decimal amount of a denomination with the given
// number of decimals into wei.
func scaleAmount(amount string, decimals int32) (*big.Int, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, err
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("negative amount %s", amount)
	}
	wei := d.Shift(decimals)
	if !wei.IsInteger() {
		return nil, fmt.Errorf("%s has more than %d decimals", amount, decimals)
	}
	return wei.BigInt(), nil
}
