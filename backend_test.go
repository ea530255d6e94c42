package pudding

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/rpc"
)

// receiptStep is one scripted answer to a receipt poll.
type receiptStep struct {
	receipt *types.Receipt
	err     error
}

// fakeBackend is a scripted Backend that records what it was asked.
type fakeBackend struct {
	mu sync.Mutex

	networkID  *big.Int
	networkErr error
	netCalls   int

	callResult []byte
	callErr    error
	calls      []ethereum.CallMsg

	code    map[common.Address][]byte
	codeErr error

	gas      uint64
	gasErr   error
	estimate []ethereum.CallMsg

	sendHash common.Hash
	sendErr  error
	sent     []TransactionArgs

	receipts     []receiptStep
	receiptPolls int

	logs       []types.Log
	filterErr  error
	queries    []ethereum.FilterQuery
	subscribed []ethereum.FilterQuery
}

var _ Backend = (*fakeBackend)(nil)

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		networkID: big.NewInt(1),
		code:      make(map[common.Address][]byte),
		sendHash:  common.HexToHash("0xaaaa000000000000000000000000000000000000000000000000000000000001"),
	}
}

// mined scripts a single successful receipt.
func (b *fakeBackend) mined(r *types.Receipt) *fakeBackend {
	b.receipts = []receiptStep{{receipt: r}}
	return b
}

func (b *fakeBackend) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.receiptPolls++
	if len(b.receipts) == 0 {
		return nil, ethereum.NotFound
	}
	step := b.receipts[0]
	if len(b.receipts) > 1 {
		b.receipts = b.receipts[1:]
	}
	return step.receipt, step.err
}

func (b *fakeBackend) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, call)
	return b.callResult, b.callErr
}

func (b *fakeBackend) EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.estimate = append(b.estimate, call)
	return b.gas, b.gasErr
}

func (b *fakeBackend) CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.code[account], b.codeErr
}

func (b *fakeBackend) NetworkID(ctx context.Context) (*big.Int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.netCalls++
	return b.networkID, b.networkErr
}

func (b *fakeBackend) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queries = append(b.queries, q)
	return b.logs, b.filterErr
}

func (b *fakeBackend) SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.filterErr != nil {
		return nil, b.filterErr
	}
	b.subscribed = append(b.subscribed, q)
	return event.NewSubscription(func(quit <-chan struct{}) error {
		<-quit
		return nil
	}), nil
}

func (b *fakeBackend) SendTransactionArgs(ctx context.Context, args TransactionArgs) (common.Hash, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sendErr != nil {
		return common.Hash{}, b.sendErr
	}
	b.sent = append(b.sent, args)
	return b.sendHash, nil
}

func (b *fakeBackend) sentCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sent)
}

// ethService answers the handful of JSON-RPC methods Client uses.
type ethService struct {
	mu      sync.Mutex
	sent    []TransactionArgs
	receipt *types.Receipt
}

func (s *ethService) SendTransaction(args TransactionArgs) common.Hash {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, args)
	return common.HexToHash("0x01")
}

func (s *ethService) GetTransactionReceipt(hash common.Hash) *types.Receipt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.receipt
}

func (s *ethService) Call(args map[string]any, block string) hexutil.Bytes {
	return hexutil.Bytes{0x2a}
}

type netService struct{}

func (netService) Version() string {
	return "4"
}

func newInProcClient(t *testing.T, eth *ethService) (*Client, *rpc.Client) {
	t.Helper()
	server := rpc.NewServer()
	if err := server.RegisterName("eth", eth); err != nil {
		t.Fatalf("Failed to register eth service: %v", err)
	}
	if err := server.RegisterName("net", netService{}); err != nil {
		t.Fatalf("Failed to register net service: %v", err)
	}
	raw := rpc.DialInProc(server)
	t.Cleanup(func() {
		raw.Close()
		server.Stop()
	})
	return NewClient(raw), raw
}

func TestClientSendTransactionArgs(t *testing.T) {
	eth := &ethService{}
	client, _ := newInProcClient(t, eth)

	from := common.HexToAddress("0x1111111111111111111111111111111111111111")
	to := common.HexToAddress("0x2222222222222222222222222222222222222222")
	opts := TxOpts{From: &from, Gas: 21000, Value: big.NewInt(5)}

	hash, err := client.SendTransactionArgs(context.Background(), opts.args(&to, []byte{0xde, 0xad}))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if hash != common.HexToHash("0x01") {
		t.Errorf("Expected hash 0x01, got %s", hash.Hex())
	}

	if len(eth.sent) != 1 {
		t.Fatalf("Expected 1 transaction, got %d", len(eth.sent))
	}
	got := eth.sent[0]
	if got.From == nil || *got.From != from {
		t.Errorf("Expected from %s, got %v", from.Hex(), got.From)
	}
	if got.To == nil || *got.To != to {
		t.Errorf("Expected to %s, got %v", to.Hex(), got.To)
	}
	if got.Gas == nil || uint64(*got.Gas) != 21000 {
		t.Errorf("Expected gas 21000, got %v", got.Gas)
	}
	if got.Value == nil || got.Value.ToInt().Int64() != 5 {
		t.Errorf("Expected value 5, got %v", got.Value)
	}
	if got.Data == nil || hexutil.Encode(*got.Data) != "0xdead" {
		t.Errorf("Expected data 0xdead, got %v", got.Data)
	}
}

func TestClientNetworkID(t *testing.T) {
	client, _ := newInProcClient(t, &ethService{})

	id, err := client.NetworkID(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if id.String() != "4" {
		t.Errorf("Expected network 4, got %s", id)
	}
}

func TestClientTransactionReceipt(t *testing.T) {
	eth := &ethService{}
	client, _ := newInProcClient(t, eth)

	t.Run("pending receipt is not found", func(t *testing.T) {
		_, err := client.TransactionReceipt(context.Background(), common.HexToHash("0x01"))
		if !errors.Is(err, ethereum.NotFound) {
			t.Errorf("Expected ethereum.NotFound, got %v", err)
		}
	})

	t.Run("mined receipt is returned", func(t *testing.T) {
		eth.mu.Lock()
		eth.receipt = &types.Receipt{
			Status:            types.ReceiptStatusSuccessful,
			CumulativeGasUsed: 21000,
			GasUsed:           21000,
			TxHash:            common.HexToHash("0x01"),
			Logs:              []*types.Log{},
		}
		eth.mu.Unlock()

		tracker := NewTracker(client)
		receipt, err := tracker.Wait(context.Background(), common.HexToHash("0x01"))
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if receipt.GasUsed != 21000 {
			t.Errorf("Expected gas used 21000, got %d", receipt.GasUsed)
		}
	})
}

func TestRequest(t *testing.T) {
	to := common.HexToAddress("0x2222222222222222222222222222222222222222")
	data := hexutil.Bytes{0x01}

	t.Run("eth_call params include block tag", func(t *testing.T) {
		r := &Request{Method: "eth_call", Args: TransactionArgs{To: &to, Data: &data}}
		params := r.Params()
		if len(params) != 2 {
			t.Fatalf("Expected 2 params, got %d", len(params))
		}
		if params[1] != "latest" {
			t.Errorf("Expected latest, got %v", params[1])
		}
	})

	t.Run("eth_sendTransaction params", func(t *testing.T) {
		r := &Request{Method: "eth_sendTransaction", Args: TransactionArgs{To: &to, Data: &data}}
		if len(r.Params()) != 1 {
			t.Errorf("Expected 1 param, got %d", len(r.Params()))
		}
	})

	t.Run("batch element", func(t *testing.T) {
		r := &Request{Method: "eth_call", Args: TransactionArgs{To: &to}}
		var result hexutil.Bytes
		elem := r.BatchElem(&result)
		if elem.Method != "eth_call" {
			t.Errorf("Expected eth_call, got %s", elem.Method)
		}
		if len(elem.Args) != 2 {
			t.Errorf("Expected 2 args, got %d", len(elem.Args))
		}
	})

	t.Run("send over rpc", func(t *testing.T) {
		_, raw := newInProcClient(t, &ethService{})
		r := &Request{Method: "eth_call", Args: TransactionArgs{To: &to, Data: &data}}

		var result hexutil.Bytes
		if err := r.Send(context.Background(), raw, &result); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if hexutil.Encode(result) != "0x2a" {
			t.Errorf("Expected 0x2a, got %s", hexutil.Encode(result))
		}
	})
}
