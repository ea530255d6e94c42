// Package artifacts embeds the generated network documents of the Wings
// contracts and exposes a factory for each.
package artifacts

import (
	_ "embed"

	pudding "github.com/branched-services/go-pudding"
)

var (
	//go:embed wings.json
	wingsJSON []byte

	//go:embed wingscrowdsale.json
	wingsCrowdsaleJSON []byte
)

// Contract names.
const (
	WingsName          = "Wings"
	WingsCrowdsaleName = "WingsCrowdsale"
)

// WingsNetworks returns a fresh copy of the Wings network bundles.
func WingsNetworks() (pudding.Networks, error) {
	return pudding.ParseNetworks(wingsJSON)
}

// WingsCrowdsaleNetworks returns a fresh copy of the WingsCrowdsale network
// bundles.
func WingsCrowdsaleNetworks() (pudding.Networks, error) {
	return pudding.ParseNetworks(wingsCrowdsaleJSON)
}

// Wings returns a factory for the Wings project registry.
func Wings(opts ...pudding.Option) (*pudding.Factory, error) {
	networks, err := WingsNetworks()
	if err != nil {
		return nil, err
	}
	return pudding.NewFactory(WingsName, networks, opts...)
}

// MustWings is like Wings but panics on error.
func MustWings(opts ...pudding.Option) *pudding.Factory {
	f, err := Wings(opts...)
	if err != nil {
		panic(err)
	}
	return f
}

// WingsCrowdsale returns a factory for the Wings crowdsale token.
func WingsCrowdsale(opts ...pudding.Option) (*pudding.Factory, error) {
	networks, err := WingsCrowdsaleNetworks()
	if err != nil {
		return nil, err
	}
	return pudding.NewFactory(WingsCrowdsaleName, networks, opts...)
}

// MustWingsCrowdsale is like WingsCrowdsale but panics on error.
func MustWingsCrowdsale(opts ...pudding.Option) *pudding.Factory {
	f, err := WingsCrowdsale(opts...)
	if err != nil {
		panic(err)
	}
	return f
}
