package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"realestate.dapp/redapp/internal/ledger"
)

// rpcReply is what the fake wallet answers for one method.
type rpcReply struct {
	result interface{}
	code   int
	msg    string
}

// newWalletServer starts a JSON-RPC endpoint answering from replies.
func newWalletServer(t *testing.T, replies map[string]rpcReply) *RPC {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
		reply, ok := replies[req.Method]
		switch {
		case !ok:
			resp["error"] = map[string]interface{}{"code": -32601, "message": "method not found"}
		case reply.code != 0:
			resp["error"] = map[string]interface{}{"code": reply.code, "message": reply.msg}
		default:
			resp["result"] = reply.result
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)

	w, err := DialRPC(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("DialRPC error: %v", err)
	}
	t.Cleanup(w.Close)
	return w
}

func TestRPCRequestAccounts(t *testing.T) {
	w := newWalletServer(t, map[string]rpcReply{
		"eth_requestAccounts": {result: []string{"0x00000000000000000000000000000000000000aa"}},
	})

	accounts, err := w.RequestAccounts(context.Background())
	if err != nil {
		t.Fatalf("RequestAccounts error: %v", err)
	}
	if len(accounts) != 1 || !strings.EqualFold(accounts[0], "0x00000000000000000000000000000000000000aa") {
		t.Fatalf("unexpected accounts: %v", accounts)
	}
}

func TestRPCFallsBackToEthAccounts(t *testing.T) {
	w := newWalletServer(t, map[string]rpcReply{
		"eth_accounts": {result: []string{"0x00000000000000000000000000000000000000bb"}},
	})

	accounts, err := w.RequestAccounts(context.Background())
	if err != nil {
		t.Fatalf("RequestAccounts error: %v", err)
	}
	if len(accounts) != 1 {
		t.Fatalf("unexpected accounts: %v", accounts)
	}
}

func TestRPCUserRejection(t *testing.T) {
	w := newWalletServer(t, map[string]rpcReply{
		"eth_requestAccounts": {code: 4001, msg: "User rejected the request."},
	})

	_, err := w.RequestAccounts(context.Background())
	if !errors.Is(err, ledger.ErrConnectionRejected) {
		t.Fatalf("expected ErrConnectionRejected, got %v", err)
	}
}

func TestRPCNoAccountsIsRejection(t *testing.T) {
	w := newWalletServer(t, map[string]rpcReply{
		"eth_requestAccounts": {result: []string{}},
	})

	_, err := w.RequestAccounts(context.Background())
	if !errors.Is(err, ledger.ErrConnectionRejected) {
		t.Fatalf("expected ErrConnectionRejected, got %v", err)
	}
}

func TestRPCInternalErrorIsUnavailable(t *testing.T) {
	w := newWalletServer(t, map[string]rpcReply{
		"eth_requestAccounts": {code: -32603, msg: "internal error"},
	})

	_, err := w.RequestAccounts(context.Background())
	if !errors.Is(err, ledger.ErrRemoteUnavailable) {
		t.Fatalf("expected ErrRemoteUnavailable, got %v", err)
	}
}
