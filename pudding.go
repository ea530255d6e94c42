// Package pudding binds compiled Ethereum contracts described by generated
// network artifacts to a JSON-RPC backend.
//
// A contract class is a Factory built from its per-network bundles. Each
// bundle carries the interface, the unlinked bytecode, known event topics,
// library links and, once deployed, the address. The factory resolves the
// bundle for the connected network, links libraries into the bytecode,
// deploys new instances and binds existing ones.
//
// # Basic Usage
//
//	networks := pudding.MustParseNetworks(artifactJSON)
//	client, err := pudding.Dial(ctx, "http://127.0.0.1:8545")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	token := pudding.MustFactory("Token", networks, pudding.WithProvider(client))
//	if err := token.CheckNetwork(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	instance, err := token.Deployed()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	name, err := instance.Invoke(ctx, "name")
//
// # Operations
//
// Every interface entry of a bound Contract is an Operation:
//
//   - ReadCall: constant functions, run with eth_call.
//
//   - WriteCall: mutating functions, submitted with eth_sendTransaction and
//     confirmed by polling for the receipt.
//
//   - EventHandle: events, exposed as log filters and subscriptions.
//
// A trailing argument that is a keyed value (TxOpts, a map or a struct)
// and not a big number is taken as transaction options and merged over
// the factory defaults.
//
// # Confirmation
//
// Writes poll for their receipt every second and give up after 240
// seconds by default. With WithNextGen they resolve with a *TxResult that
// includes the receipt and the decoded logs instead of the bare hash.
//
// # Libraries
//
// Unlinked bytecode holds "__Name___..." placeholders. Link records a
// library address and Binary substitutes it; Deploy refuses to send
// bytecode with placeholders left.
package pudding
