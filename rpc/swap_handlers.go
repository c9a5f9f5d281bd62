package rpc

import (
	"encoding/json"
	"math/big"
	"net/http"
	"strings"

	"burnswap/crypto"
)

type SwapExchangeResult struct {
	Caller    string        `json:"caller"`
	AmountIn  string        `json:"amountIn"`
	AmountOut string        `json:"amountOut"`
	Events    []eventResult `json:"events,omitempty"`
}

func (s *Server) handleSwapExchange(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "expected payload with caller and amount", nil)
		return
	}
	var payload struct {
		Caller string `json:"caller"`
		Amount string `json:"amount"`
		Value  string `json:"value,omitempty"`
	}
	if err := json.Unmarshal(req.Params[0], &payload); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid payload", err.Error())
		return
	}
	caller, err := parseAddressParam(payload.Caller, "caller")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := parseAmountParam(payload.Amount, "amount")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	value := big.NewInt(0)
	if strings.TrimSpace(payload.Value) != "" {
		value, err = parseAmountParam(payload.Value, "value")
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
			return
		}
	}

	out, evts, err := s.node.Exchange(caller, amount, value)
	if err != nil {
		writeNodeError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, SwapExchangeResult{
		Caller:    payload.Caller,
		AmountIn:  amount.String(),
		AmountOut: out.String(),
		Events:    eventResults(evts),
	})
}

type SwapRecycleResult struct {
	Recipient string        `json:"recipient"`
	Amount    string        `json:"amount"`
	Events    []eventResult `json:"events,omitempty"`
}

func (s *Server) handleSwapRecycle(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "expected payload with caller and recipient", nil)
		return
	}
	var payload struct {
		Caller    string `json:"caller"`
		Recipient string `json:"recipient"`
	}
	if err := json.Unmarshal(req.Params[0], &payload); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid payload", err.Error())
		return
	}
	caller, err := parseAddressParam(payload.Caller, "caller")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	recipient, err := parseAddressParam(payload.Recipient, "recipient")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}

	swept, evts, err := s.node.Recycle(caller, recipient)
	if err != nil {
		writeNodeError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, SwapRecycleResult{
		Recipient: payload.Recipient,
		Amount:    swept.String(),
		Events:    eventResults(evts),
	})
}

func (s *Server) handleSwapTransferOwnership(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "expected payload with caller and newOwner", nil)
		return
	}
	var payload struct {
		Caller   string `json:"caller"`
		NewOwner string `json:"newOwner"`
	}
	if err := json.Unmarshal(req.Params[0], &payload); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid payload", err.Error())
		return
	}
	caller, err := parseAddressParam(payload.Caller, "caller")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	newOwner, err := parseAddressParam(payload.NewOwner, "newOwner")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}

	evts, err := s.node.TransferOwnership(caller, newOwner)
	if err != nil {
		writeNodeError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, struct {
		Owner  string        `json:"owner"`
		Events []eventResult `json:"events,omitempty"`
	}{Owner: payload.NewOwner, Events: eventResults(evts)})
}

type SwapInfoResult struct {
	SourceToken      string `json:"sourceToken"`
	DestinationToken string `json:"destinationToken"`
	Rate             uint64 `json:"rate"`
	BurnSink         string `json:"burnSink"`
	Vault            string `json:"vault"`
	Owner            string `json:"owner"`
	Liquidity        string `json:"liquidity"`
}

func (s *Server) handleSwapInfo(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	info, err := s.node.Info()
	if err != nil {
		writeNodeError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, SwapInfoResult{
		SourceToken:      info.SourceSymbol,
		DestinationToken: info.DestinationSymbol,
		Rate:             info.Rate,
		BurnSink:         crypto.NewAddress(info.BurnSink[:]).String(),
		Vault:            crypto.NewAddress(info.Vault[:]).String(),
		Owner:            crypto.NewAddress(info.Owner[:]).String(),
		Liquidity:        info.Liquidity.String(),
	})
}
