package pudding

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// Backend is the transport a factory talks to. Apart from
// SendTransactionArgs, the methods match go-ethereum's ethclient.Client.
type Backend interface {
	ReceiptFetcher

	// CallContract executes a message call without creating a transaction.
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)

	// EstimateGas estimates the gas a message call would use.
	EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error)

	// CodeAt returns the code deployed at an account.
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)

	// NetworkID returns the id of the network the node is connected to.
	NetworkID(ctx context.Context) (*big.Int, error)

	// FilterLogs returns the logs matching q.
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)

	// SubscribeFilterLogs streams new logs matching q to ch.
	SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error)

	// SendTransactionArgs submits an unsigned transaction for the node to
	// sign with one of its own accounts (eth_sendTransaction).
	SendTransactionArgs(ctx context.Context, args TransactionArgs) (common.Hash, error)
}

// Client is a Backend over a JSON-RPC connection.
type Client struct {
	*ethclient.Client
}

var _ Backend = (*Client)(nil)

// Dial connects to the node at rawurl.
func Dial(ctx context.Context, rawurl string) (*Client, error) {
	c, err := rpc.DialContext(ctx, rawurl)
	if err != nil {
		return nil, err
	}
	return NewClient(c), nil
}

// NewClient wraps an existing RPC client.
func NewClient(c *rpc.Client) *Client {
	return &Client{Client: ethclient.NewClient(c)}
}

// SendTransactionArgs submits args through eth_sendTransaction.
func (c *Client) SendTransactionArgs(ctx context.Context, args TransactionArgs) (common.Hash, error) {
	var hash common.Hash
	if err := c.Client.Client().CallContext(ctx, &hash, "eth_sendTransaction", args); err != nil {
		return common.Hash{}, err
	}
	return hash, nil
}

// Request is a raw JSON-RPC request for a bound operation, ready to be sent
// on its own or as part of a batch.
type Request struct {
	Method string
	Args   TransactionArgs
}

// Params returns the positional JSON-RPC parameters.
func (r *Request) Params() []any {
	if r.Method == "eth_call" {
		return []any{r.Args, "latest"}
	}
	return []any{r.Args}
}

// BatchElem returns the request as an element of rpc.Client.BatchCallContext.
func (r *Request) BatchElem(result any) rpc.BatchElem {
	return rpc.BatchElem{
		Method: r.Method,
		Args:   r.Params(),
		Result: result,
	}
}

// Send issues the request on c and stores the response in result.
func (r *Request) Send(ctx context.Context, c *rpc.Client, result any) error {
	return c.CallContext(ctx, result, r.Method, r.Params()...)
}
