package contract

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Registry method names.
const (
	methodListIDs  = "getAllPropertyIds"
	methodDetails  = "getPropertyDetails"
	methodAdd      = "addProperty"
	methodTransfer = "transferOwnership"
)

//go:embed registry.abi.json
var defaultABI []byte

// LoadABI parses the registry ABI from path, or the built-in ABI when path
// is empty, and checks that every registry method is present.
func LoadABI(path string) (abi.ABI, error) {
	data := defaultABI
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return abi.ABI{}, fmt.Errorf("read abi file: %w", err)
		}
		data = extractABI(b)
	}

	parsed, err := abi.JSON(bytes.NewReader(data))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("parse abi: %w", err)
	}

	for _, name := range []string{methodListIDs, methodDetails, methodAdd, methodTransfer} {
		if _, ok := parsed.Methods[name]; !ok {
			return abi.ABI{}, fmt.Errorf("abi is missing method %s", name)
		}
	}
	if !parsed.Methods[methodTransfer].IsPayable() {
		return abi.ABI{}, fmt.Errorf("abi method %s must be payable", methodTransfer)
	}
	return parsed, nil
}

// extractABI accepts either a bare ABI array or a compiler artifact with an
// "abi" field.
func extractABI(b []byte) []byte {
	var artifact struct {
		ABI json.RawMessage `json:"abi"`
	}
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &artifact); err == nil && len(artifact.ABI) > 0 {
			return artifact.ABI
		}
	}
	return b
}
