package pudding

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Sentinel errors for common failure conditions.
var (
	// ErrNoProvider indicates a transport-backed operation ran before SetProvider.
	ErrNoProvider = errors.New("pudding: no provider set, call SetProvider first")

	// ErrNoBytecode indicates a deployment was attempted without a compiled image.
	ErrNoBytecode = errors.New("pudding: contract binary not set, can't deploy new instance")

	// ErrNoAddress indicates Deployed was called while the active network has no address.
	ErrNoAddress = errors.New("pudding: cannot find deployed address, contract not deployed or address not set")

	// ErrLinkWithoutAddress indicates a library factory without an address was linked.
	ErrLinkWithoutAddress = errors.New("pudding: cannot link contract without an address")

	// ErrInvalidOperation indicates an operation isn't valid for the entry kind.
	ErrInvalidOperation = errors.New("pudding: invalid operation for this interface entry")

	// ErrArgumentCount indicates the call arguments don't match the entry's inputs.
	ErrArgumentCount = errors.New("pudding: argument count mismatch")

	// ErrCodeNotStored indicates a deployment was mined but left no code behind.
	ErrCodeNotStored = errors.New("pudding: the contract code couldn't be stored, please check your gas amount")

	// ErrNoCode indicates a call returned nothing because the address holds no code.
	ErrNoCode = errors.New("pudding: no contract code at given address")
)

// UnresolvedLibrariesError indicates placeholders remain in the bytecode at deploy time.
type UnresolvedLibrariesError struct {
	Contract  string
	Libraries []string
}

func (e *UnresolvedLibrariesError) Error() string {
	return fmt.Sprintf("pudding: %s contains unresolved libraries, deploy and link the following libraries before deploying a new version of %s: %s",
		e.Contract, e.Contract, strings.Join(e.Libraries, ", "))
}

// InvalidAddressError indicates a malformed address was passed to At.
type InvalidAddressError struct {
	Contract string
	Address  string
}

func (e *InvalidAddressError) Error() string {
	return fmt.Sprintf("pudding: invalid address passed to %s.At(): %q", e.Contract, e.Address)
}

// NetworkUnknownError indicates no bundle exists for a network id.
type NetworkUnknownError struct {
	Contract  string
	NetworkID string
}

func (e *NetworkUnknownError) Error() string {
	return fmt.Sprintf("pudding: %s can't find artifacts for network id %q", e.Contract, e.NetworkID)
}

// TransportError wraps a failure reported by the backend. The message is
// the backend's own.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ConfirmationTimeoutError indicates a receipt was not observed in time.
type ConfirmationTimeoutError struct {
	TxHash  common.Hash
	Timeout time.Duration
}

func (e *ConfirmationTimeoutError) Error() string {
	return fmt.Sprintf("pudding: transaction %s wasn't processed in %g seconds", e.TxHash.Hex(), e.Timeout.Seconds())
}

// MethodNotFoundError indicates the contract doesn't have the requested entry.
type MethodNotFoundError struct {
	Contract string
	Method   string
}

func (e *MethodNotFoundError) Error() string {
	return fmt.Sprintf("pudding: method %q not found in contract %s", e.Method, e.Contract)
}

// ArgumentError indicates an issue with a call argument.
type ArgumentError struct {
	Method string
	Index  int
	Err    error
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("pudding: argument %d for method %q: %v", e.Index, e.Method, e.Err)
}

func (e *ArgumentError) Unwrap() error {
	return e.Err
}

// TypeMismatchError indicates a value can't be converted to the expected ABI type.
type TypeMismatchError struct {
	Expected string
	Got      string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("pudding: type mismatch: expected %s, got %s", e.Expected, e.Got)
}

// EncodingError indicates a failure while packing call data.
type EncodingError struct {
	Method string
	Err    error
}

func (e *EncodingError) Error() string {
	if e.Method == "" {
		return fmt.Sprintf("pudding: encoding constructor arguments: %v", e.Err)
	}
	return fmt.Sprintf("pudding: encoding arguments for %q: %v", e.Method, e.Err)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

// LogDecodeError indicates a log matched a known event topic but didn't decode.
type LogDecodeError struct {
	TxHash common.Hash
	Event  string
	Err    error
}

func (e *LogDecodeError) Error() string {
	return fmt.Sprintf("pudding: decoding %s log of transaction %s: %v", e.Event, e.TxHash.Hex(), e.Err)
}

func (e *LogDecodeError) Unwrap() error {
	return e.Err
}
