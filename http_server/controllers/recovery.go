package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/gorilla/mux"
	"github.com/thedevsaddam/govalidator"
	"github.com/voyage-finance/voyage-recovery/recovery"
)

// ControllerLookup finds the refresh controller of a watched Safe; *service.Watcher implements it.
type ControllerLookup interface {
	Controller(chainId int64, safeAddress common.Address) (*recovery.Controller, bool)
}

// RecoveryExecutor executes the head proposal of a Delay Modifier; *service.Executor implements it.
type RecoveryExecutor interface {
	Execute(ctx context.Context, state recovery.State, item recovery.QueueItem, allowMalicious bool) (*types.Transaction, error)
}

type RecoveryDeps struct {
	Controllers ControllerLookup
	// Executor is nil when no Recoverer key is configured.
	Executor RecoveryExecutor
	Pending  *recovery.PendingStore
	// APIToken guards the routes that sign transactions.
	APIToken string
	Now      func() time.Time
}

func (d RecoveryDeps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

type RecoveryItemResponse struct {
	recovery.QueueItem
	State recovery.TxState `json:"state"`
}

type RecoveryStateResponse struct {
	ChainId     int64                  `json:"chainId"`
	SafeAddress common.Address         `json:"safeAddress"`
	Loaded      bool                   `json:"loaded"`
	UpdatedAt   *time.Time             `json:"updatedAt,omitempty"`
	Error       string                 `json:"error,omitempty"`
	Modifiers   recovery.State         `json:"modifiers"`
	Items       []RecoveryItemResponse `json:"items"`
}

// lookupController resolves the {chainId}/{safe} route variables.
func lookupController(rw http.ResponseWriter, r *http.Request, deps RecoveryDeps) (*recovery.Controller, int64, common.Address, bool) {
	vars := mux.Vars(r)
	chainId, err := strconv.ParseInt(vars["chainId"], 10, 64)
	if err != nil {
		ReturnHttpBadResponse(rw, "Provide a numeric chain id")
		return nil, 0, common.Address{}, false
	}
	if !common.IsHexAddress(vars["safe"]) {
		ReturnHttpBadResponse(rw, "Provide correct safe address in format 0x")
		return nil, 0, common.Address{}, false
	}
	safeAddress := common.HexToAddress(vars["safe"])
	controller, ok := deps.Controllers.Controller(chainId, safeAddress)
	if !ok {
		ReturnHttpError(rw, http.StatusNotFound, "Safe is not watched")
		return nil, 0, common.Address{}, false
	}
	return controller, chainId, safeAddress, true
}

func GetRecoveryState(deps RecoveryDeps) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		controller, chainId, safeAddress, ok := lookupController(rw, r, deps)
		if !ok {
			return
		}

		state, loaded := controller.State()
		response := RecoveryStateResponse{
			ChainId:     chainId,
			SafeAddress: safeAddress,
			Loaded:      loaded,
			Modifiers:   state,
			Items:       []RecoveryItemResponse{},
		}
		if err := controller.LastError(); err != nil {
			response.Error = err.Error()
		}
		if loaded {
			updatedAt := controller.UpdatedAt()
			response.UpdatedAt = &updatedAt
		}

		var pending recovery.PendingSnapshot
		if deps.Pending != nil {
			pending = deps.Pending.Snapshot()
		}
		now := deps.now()
		for _, item := range state.Items() {
			response.Items = append(response.Items, RecoveryItemResponse{
				QueueItem: item,
				State:     recovery.DeriveTxState(state, pending, item, now),
			})
		}
		ReturnHttpJSON(rw, http.StatusOK, response)
	}
}

func RefetchRecovery(deps RecoveryDeps) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		controller, _, _, ok := lookupController(rw, r, deps)
		if !ok {
			return
		}
		controller.Refetch()
		ReturnHttpJSON(rw, http.StatusAccepted, map[string]bool{"refetching": true})
	}
}

type ExecuteRecoverySerializer struct {
	ChainId     string `json:"chainId"`
	SafeAddress string `json:"safeAddress"`
	Modifier    string `json:"modifier"`
	QueueNonce  string `json:"queueNonce"`
	// AllowMalicious must be set to execute a proposal flagged as malicious.
	AllowMalicious bool `json:"allowMalicious"`
}

func ExecuteRecovery(deps RecoveryDeps) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if deps.Executor == nil {
			ReturnHttpError(rw, http.StatusServiceUnavailable, "Recovery execution is not configured")
			return
		}

		// parse request body
		var executeSerializer ExecuteRecoverySerializer
		rules := govalidator.MapData{
			"chainId":     []string{"required", "numeric"},
			"safeAddress": []string{"required", "len:42"},
			"modifier":    []string{"required", "len:42"},
			"queueNonce":  []string{"required", "numeric"},
		}
		opts := govalidator.Options{
			Request: r,
			Data:    &executeSerializer,
			Rules:   rules,
		}
		parsedValue := govalidator.New(opts)
		e := parsedValue.ValidateJSON()
		// 1.0 if body of request is not valid
		if len(e) != 0 {
			ReturnHttpJSON(rw, http.StatusBadRequest, map[string]interface{}{"validationError": e})
			return
		}
		if !common.IsHexAddress(executeSerializer.SafeAddress) || !common.IsHexAddress(executeSerializer.Modifier) {
			ReturnHttpBadResponse(rw, "Provide addresses in format 0x")
			return
		}
		chainId, err := strconv.ParseInt(executeSerializer.ChainId, 10, 64)
		if err != nil {
			ReturnHttpBadResponse(rw, "Provide a numeric chain id")
			return
		}
		queueNonce, err := strconv.ParseUint(executeSerializer.QueueNonce, 10, 64)
		if err != nil {
			ReturnHttpBadResponse(rw, "Provide a numeric queue nonce")
			return
		}

		// 2.0 find the queued proposal
		controller, ok := deps.Controllers.Controller(chainId, common.HexToAddress(executeSerializer.SafeAddress))
		if !ok {
			ReturnHttpError(rw, http.StatusNotFound, "Safe is not watched")
			return
		}
		state, loaded := controller.State()
		if !loaded {
			ReturnHttpError(rw, http.StatusServiceUnavailable, "Recovery state is not loaded yet")
			return
		}
		modifier, ok := state.Modifier(common.HexToAddress(executeSerializer.Modifier))
		if !ok {
			ReturnHttpError(rw, http.StatusNotFound, "Unknown delay modifier")
			return
		}
		var item *recovery.QueueItem
		for i := range modifier.Queue {
			if modifier.Queue[i].Args.QueueNonce == queueNonce {
				item = &modifier.Queue[i]
				break
			}
		}
		if item == nil {
			ReturnHttpError(rw, http.StatusNotFound, "Recovery proposal is not queued")
			return
		}

		// 3.0 execute
		tx, err := deps.Executor.Execute(r.Context(), state, *item, executeSerializer.AllowMalicious)
		if errors.Is(err, recovery.ErrMaliciousRecovery) {
			ReturnHttpError(rw, http.StatusForbidden, err.Error())
			return
		}
		if errors.Is(err, recovery.ErrNotExecutable) {
			ReturnHttpError(rw, http.StatusConflict, err.Error())
			return
		}
		if err != nil {
			ReturnHttpError(rw, http.StatusBadGateway, err.Error())
			return
		}
		ReturnHttpJSON(rw, http.StatusAccepted, map[string]string{"txHash": tx.Hash().Hex()})
	}
}
