package pudding

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// EventTable maps an event topic to the event it identifies.
type EventTable map[common.Hash]abi.Event

// Clone returns an independent copy of the table.
func (t EventTable) Clone() EventTable {
	out := make(EventTable, len(t))
	for topic, ev := range t {
		out[topic] = ev
	}
	return out
}

// Merge copies every entry of other into t.
func (t EventTable) Merge(other EventTable) {
	for topic, ev := range other {
		t[topic] = ev
	}
}

// ParseEventTable parses the topic -> entry map of a network bundle. Every
// key must equal the keccak256 hash of its entry's signature.
func ParseEventTable(raw map[string]json.RawMessage) (EventTable, error) {
	table := make(EventTable, len(raw))
	for key, entry := range raw {
		ev, err := parseEvent(entry)
		if err != nil {
			return nil, fmt.Errorf("pudding: event %s: %w", key, err)
		}
		topic := common.HexToHash(key)
		if topic != ev.ID {
			return nil, fmt.Errorf("pudding: event %s: topic does not match signature %s (%s)", key, ev.Sig, ev.ID.Hex())
		}
		table[topic] = ev
	}
	return table, nil
}

// EventTableFromABI indexes every non-anonymous event of an ABI by topic.
func EventTableFromABI(contractABI abi.ABI) EventTable {
	table := make(EventTable, len(contractABI.Events))
	for _, ev := range contractABI.Events {
		if ev.Anonymous {
			continue
		}
		table[ev.ID] = ev
	}
	return table
}

func parseEvent(entry json.RawMessage) (abi.Event, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	buf.Write(entry)
	buf.WriteByte(']')

	parsed, err := abi.JSON(&buf)
	if err != nil {
		return abi.Event{}, err
	}
	if len(parsed.Events) != 1 {
		return abi.Event{}, fmt.Errorf("entry is not an event")
	}
	for _, ev := range parsed.Events {
		return ev, nil
	}
	return abi.Event{}, nil
}

// DecodedLog is a receipt log decoded against a known event.
type DecodedLog struct {
	Event       string
	Address     common.Address
	TxHash      common.Hash
	BlockNumber uint64
	LogIndex    uint
	Args        map[string]any
	Raw         types.Log
}

// DecodeLogs decodes every log whose first topic is in table. Logs with an
// unknown topic, or no topic at all, are dropped.
func DecodeLogs(table EventTable, logs []*types.Log) ([]DecodedLog, error) {
	decoded := make([]DecodedLog, 0, len(logs))
	for _, log := range logs {
		if log == nil || len(log.Topics) == 0 {
			continue
		}
		ev, ok := table[log.Topics[0]]
		if !ok {
			continue
		}
		args, err := decodeLog(ev, log)
		if err != nil {
			return nil, &LogDecodeError{TxHash: log.TxHash, Event: ev.Name, Err: err}
		}
		decoded = append(decoded, DecodedLog{
			Event:       ev.Name,
			Address:     log.Address,
			TxHash:      log.TxHash,
			BlockNumber: log.BlockNumber,
			LogIndex:    log.Index,
			Args:        args,
			Raw:         *log,
		})
	}
	return decoded, nil
}

func decodeLog(ev abi.Event, log *types.Log) (map[string]any, error) {
	args := make(map[string]any, len(ev.Inputs))

	if err := ev.Inputs.NonIndexed().UnpackIntoMap(args, log.Data); err != nil {
		return nil, err
	}

	var indexed abi.Arguments
	for _, arg := range ev.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	if err := abi.ParseTopicsIntoMap(args, indexed, log.Topics[1:]); err != nil {
		return nil, err
	}
	return args, nil
}
