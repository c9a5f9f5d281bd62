package rpc

import (
	"bytes"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"burnswap/core"
	"burnswap/crypto"
	"burnswap/storage"
)

const testAuthToken = "test-secret"

type testEnv struct {
	server *httptest.Server
	owner  crypto.Address
	user   crypto.Address
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("BURNSWAP_RPC_TOKEN", testAuthToken)

	ownerKey, err := crypto.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate owner key: %v", err)
	}
	userKey, err := crypto.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate user key: %v", err)
	}
	owner := ownerKey.PubKey().Address()
	user := userKey.PubKey().Address()

	node, err := core.NewNode(storage.NewMemDB(), "OLD", "NEW", nil)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	allocs := []core.GenesisAlloc{
		{Token: "OLD", Address: user.Raw(), Amount: big.NewInt(1000)},
	}
	if err := node.InitGenesis(owner.Raw(), allocs, big.NewInt(5000)); err != nil {
		t.Fatalf("init genesis: %v", err)
	}

	srv := httptest.NewServer(NewServer(node).Router())
	t.Cleanup(srv.Close)
	return &testEnv{server: srv, owner: owner, user: user}
}

type rpcResult struct {
	status int
	result json.RawMessage
	err    *RPCError
}

func (e *testEnv) call(t *testing.T, method string, params interface{}, auth bool) rpcResult {
	t.Helper()
	body := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
	}
	if params != nil {
		body["params"] = []interface{}{params}
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, e.server.URL+"/", bytes.NewReader(encoded))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if auth {
		req.Header.Set("Authorization", "Bearer "+testAuthToken)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	var decoded struct {
		Result json.RawMessage `json:"result"`
		Error  *RPCError       `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return rpcResult{status: resp.StatusCode, result: decoded.Result, err: decoded.Error}
}

func (e *testEnv) balance(t *testing.T, token string, addr crypto.Address) string {
	t.Helper()
	res := e.call(t, "token_balance", map[string]string{
		"token":   token,
		"address": addr.String(),
	}, false)
	if res.err != nil {
		t.Fatalf("token_balance: %+v", res.err)
	}
	var out TokenBalanceResult
	if err := json.Unmarshal(res.result, &out); err != nil {
		t.Fatalf("decode balance: %v", err)
	}
	return out.Balance
}

func (e *testEnv) swapInfo(t *testing.T) SwapInfoResult {
	t.Helper()
	res := e.call(t, "swap_info", nil, false)
	if res.err != nil {
		t.Fatalf("swap_info: %+v", res.err)
	}
	var info SwapInfoResult
	if err := json.Unmarshal(res.result, &info); err != nil {
		t.Fatalf("decode info: %v", err)
	}
	return info
}

func TestSwapInfo(t *testing.T) {
	env := newTestEnv(t)
	info := env.swapInfo(t)
	if info.SourceToken != "OLD" || info.DestinationToken != "NEW" {
		t.Fatalf("unexpected token pair %q/%q", info.SourceToken, info.DestinationToken)
	}
	if info.Rate != 100 {
		t.Fatalf("unexpected rate %d", info.Rate)
	}
	if info.Owner != env.owner.String() {
		t.Fatalf("unexpected owner %q", info.Owner)
	}
	if info.Liquidity != "5000" {
		t.Fatalf("unexpected liquidity %q", info.Liquidity)
	}
}

func TestMutationRequiresAuth(t *testing.T) {
	env := newTestEnv(t)
	res := env.call(t, "swap_exchange", map[string]string{
		"caller": env.user.String(),
		"amount": "100",
	}, false)
	if res.status != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.status)
	}
	if res.err == nil || res.err.Code != codeUnauthorized {
		t.Fatalf("expected unauthorized error, got %+v", res.err)
	}
}

func TestExchangeFlow(t *testing.T) {
	env := newTestEnv(t)
	info := env.swapInfo(t)

	res := env.call(t, "token_approve", map[string]string{
		"caller":  env.user.String(),
		"token":   "OLD",
		"spender": info.Vault,
		"amount":  "400",
	}, true)
	if res.err != nil {
		t.Fatalf("approve: %+v", res.err)
	}

	res = env.call(t, "swap_exchange", map[string]string{
		"caller": env.user.String(),
		"amount": "400",
	}, true)
	if res.err != nil {
		t.Fatalf("exchange: %+v", res.err)
	}
	var out SwapExchangeResult
	if err := json.Unmarshal(res.result, &out); err != nil {
		t.Fatalf("decode exchange result: %v", err)
	}
	if out.AmountOut != "400" {
		t.Fatalf("expected 1:1 output, got %q", out.AmountOut)
	}

	if got := env.balance(t, "OLD", env.user); got != "600" {
		t.Fatalf("source balance after swap: %s", got)
	}
	if got := env.balance(t, "NEW", env.user); got != "400" {
		t.Fatalf("destination balance after swap: %s", got)
	}
	if info := env.swapInfo(t); info.Liquidity != "4600" {
		t.Fatalf("liquidity after swap: %q", info.Liquidity)
	}
}

func TestExchangeRejectsBadAmount(t *testing.T) {
	env := newTestEnv(t)
	res := env.call(t, "swap_exchange", map[string]string{
		"caller": env.user.String(),
		"amount": "not-a-number",
	}, true)
	if res.err == nil || res.err.Code != codeInvalidParams {
		t.Fatalf("expected invalid params, got %+v", res.err)
	}
}

func TestRecycleRequiresOwner(t *testing.T) {
	env := newTestEnv(t)
	res := env.call(t, "swap_recycle", map[string]string{
		"caller":    env.user.String(),
		"recipient": env.user.String(),
	}, true)
	if res.status != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", res.status)
	}
	if res.err == nil || res.err.Code != codeUnauthorized {
		t.Fatalf("expected unauthorized error, got %+v", res.err)
	}
}

func TestRecycleSweepsLiquidity(t *testing.T) {
	env := newTestEnv(t)
	res := env.call(t, "swap_recycle", map[string]string{
		"caller":    env.owner.String(),
		"recipient": env.owner.String(),
	}, true)
	if res.err != nil {
		t.Fatalf("recycle: %+v", res.err)
	}
	var out SwapRecycleResult
	if err := json.Unmarshal(res.result, &out); err != nil {
		t.Fatalf("decode recycle result: %v", err)
	}
	if out.Amount != "5000" {
		t.Fatalf("expected full sweep, got %q", out.Amount)
	}
	if got := env.balance(t, "NEW", env.owner); got != "5000" {
		t.Fatalf("owner balance after recycle: %s", got)
	}
	if info := env.swapInfo(t); info.Liquidity != "0" {
		t.Fatalf("liquidity after recycle: %q", info.Liquidity)
	}
}

func TestMethodNotFound(t *testing.T) {
	env := newTestEnv(t)
	res := env.call(t, "swap_unknown", nil, false)
	if res.status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.status)
	}
	if res.err == nil || res.err.Code != codeMethodNotFound {
		t.Fatalf("expected method not found, got %+v", res.err)
	}
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{"/healthz", "/metrics"} {
		resp, err := http.Get(env.server.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("GET %s: status %d", path, resp.StatusCode)
		}
	}
}
