package artifacts

import (
	"strings"
	"testing"

	pudding "github.com/branched-services/go-pudding"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

func TestWings(t *testing.T) {
	f, err := Wings()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if f.Name() != WingsName {
		t.Errorf("Expected %s, got %s", WingsName, f.Name())
	}
	if f.Address() != "0x13ec53ac8e68bf4131c17c5431ca3b91ba37b873" {
		t.Errorf("Expected recorded address, got %q", f.Address())
	}
	if f.NetworkID() != "" {
		t.Errorf("Expected network to be detected later, got %q", f.NetworkID())
	}
	if len(f.ABI().Methods) != 19 {
		t.Errorf("Expected 19 functions, got %d", len(f.ABI().Methods))
	}
	if len(f.Events()) != 4 {
		t.Errorf("Expected 4 events, got %d", len(f.Events()))
	}
	if !strings.HasPrefix(f.Binary(), "0x") || strings.Contains(f.Binary(), "__") {
		t.Error("Expected fully linked bytecode")
	}

	c, err := f.Deployed()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	t.Run("constant functions read", func(t *testing.T) {
		for _, name := range []string{"getCount", "getProject", "getMilestone", "getForecast"} {
			op := c.MustOperation(name)
			if op.Kind() != pudding.ReadCall {
				t.Errorf("Expected %s to be a read, got %s", name, op.Kind())
			}
		}
	})

	t.Run("mutating functions write", func(t *testing.T) {
		for _, name := range []string{"addProject", "addMilestone", "addForecast", "startCrowdsale", "changeCreator"} {
			op := c.MustOperation(name)
			if op.Kind() != pudding.WriteCall {
				t.Errorf("Expected %s to be a write, got %s", name, op.Kind())
			}
		}
	})

	t.Run("events", func(t *testing.T) {
		for _, name := range []string{"ProjectCreation", "ProjectReady", "ProjectPublishing", "MilestoneAdded"} {
			if c.MustOperation(name).Kind() != pudding.EventHandle {
				t.Errorf("Expected %s to be an event", name)
			}
		}
	})

	t.Run("getCount request", func(t *testing.T) {
		req, err := c.MustOperation("getCount").Request()
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if req.Method != "eth_call" {
			t.Errorf("Expected eth_call, got %s", req.Method)
		}
		if req.Args.Data == nil || hexutil.Encode(*req.Args.Data) != "0xa87d942c" {
			t.Errorf("Expected getCount selector, got %v", req.Args.Data)
		}
		if req.Args.To == nil || *req.Args.To != c.Address() {
			t.Errorf("Expected call to %s", c.Address().Hex())
		}
	})
}

func TestWingsCrowdsale(t *testing.T) {
	f, err := WingsCrowdsale()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if f.Address() != "0x914222838c980f4254dcbaed09c65412874efc25" {
		t.Errorf("Expected recorded address, got %q", f.Address())
	}
	if n := len(f.ABI().Constructor.Inputs); n != 2 {
		t.Errorf("Expected 2 constructor inputs, got %d", n)
	}
	crowdsaleABI := f.ABI()
	if !crowdsaleABI.HasFallback() {
		t.Error("Expected a fallback function")
	}

	events := f.Events()
	transfer := common.HexToHash("0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef")
	approval := common.HexToHash("0x8c5be1e5ebec7d5bd14f71427d1e84f3dd0314c0f7b2291e5b200ac8c7c3b925")
	if events[transfer].Name != "Transfer" || events[approval].Name != "Approval" {
		t.Errorf("Expected Transfer and Approval topics, got %v", events)
	}

	c, err := f.Deployed()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	t.Run("createTokens is payable", func(t *testing.T) {
		op := c.MustOperation("createTokens")
		if op.Kind() != pudding.WriteCall || !op.Payable() {
			t.Errorf("Expected payable write, got %s payable=%v", op.Kind(), op.Payable())
		}
	})

	t.Run("token reads", func(t *testing.T) {
		for _, name := range []string{"name", "symbol", "decimals", "totalSupply", "balanceOf", "allowance", "getTotal", "getPrice"} {
			if c.MustOperation(name).Kind() != pudding.ReadCall {
				t.Errorf("Expected %s to be a read", name)
			}
		}
	})

	t.Run("transfer request", func(t *testing.T) {
		to := common.HexToAddress("0x2222222222222222222222222222222222222222")
		req, err := c.MustOperation("transfer").Request(to.Hex(), "1000", map[string]any{"gas": 90000})
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if req.Method != "eth_sendTransaction" {
			t.Errorf("Expected eth_sendTransaction, got %s", req.Method)
		}
		if req.Args.Gas == nil || uint64(*req.Args.Gas) != 90000 {
			t.Errorf("Expected gas 90000, got %v", req.Args.Gas)
		}
		if !strings.HasPrefix(hexutil.Encode(*req.Args.Data), "0xa9059cbb") {
			t.Errorf("Expected transfer selector, got %x", *req.Args.Data)
		}
	})
}

func TestNetworksAreFresh(t *testing.T) {
	a, err := WingsNetworks()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	a[pudding.DefaultNetwork].Address = ""

	b, err := WingsNetworks()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if b[pudding.DefaultNetwork].Address == "" {
		t.Error("Expected every call to return its own copy")
	}
}

func TestMustFactories(t *testing.T) {
	if MustWings().Name() != WingsName {
		t.Error("Expected Wings factory")
	}
	if MustWingsCrowdsale(pudding.WithNextGen(true)).NextGen() != true {
		t.Error("Expected options to apply")
	}
}
