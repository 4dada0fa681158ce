package keeper

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"

	errorsmod "cosmossdk.io/errors"

	wasmvmtypes "github.com/CosmWasm/wasmvm/v2/types"

	"github.com/CosmWasm/wasmsim/store"
	"github.com/CosmWasm/wasmsim/types"
	wasmtypes "github.com/CosmWasm/wasmsim/x/wasm/types"
)

// DefaultMaxCallDepth is the aborting depth for recursive contract calls.
const DefaultMaxCallDepth uint32 = 500

// flat gas costs charged per entry point call
const (
	DefaultInstanceCost types.Gas = 60_000
	DefaultContractCost types.Gas = 20_000
)

// CoinTransferrer is the bank surface the keeper needs to move deposits.
type CoinTransferrer interface {
	SendCoins(ctx types.Context, from, to types.AccAddress, amount types.Coins) error
}

// Keeper manages contract code, instances and their execution.
type Keeper struct {
	storeKey           types.StoreKey
	bank               CoinTransferrer
	messenger          Messenger
	wasmVMQueryHandler WasmVMQueryHandler
	maxCallDepth       uint32

	// native contract implementations by code id. Not part of branched state:
	// a rolled back StoreCode leaves an unreachable registry entry behind,
	// the metadata that makes it visible is branched.
	contracts map[uint64]wasmtypes.Contract
}

// NewKeeper constructs the keeper. The messenger and query handler are wired
// by the app builder after all module keepers exist.
func NewKeeper(bank CoinTransferrer, opts ...Option) *Keeper {
	k := &Keeper{
		storeKey:     wasmtypes.StoreKey,
		bank:         bank,
		maxCallDepth: DefaultMaxCallDepth,
		contracts:    make(map[uint64]wasmtypes.Contract),
	}
	for _, o := range opts {
		o.apply(k)
	}
	return k
}

// Messenger returns the configured message handler.
func (k *Keeper) Messenger() Messenger { return k.messenger }

// MaxCallDepth returns the configured recursion limit.
func (k *Keeper) MaxCallDepth() uint32 { return k.maxCallDepth }

func (k *Keeper) setMessenger(m Messenger)             { k.messenger = m }
func (k *Keeper) setQueryHandler(q WasmVMQueryHandler) { k.wasmVMQueryHandler = q }
func (k *Keeper) dispatcher() *MessageDispatcher       { return NewMessageDispatcher(k.messenger, k) }

func (k *Keeper) queryHandler(ctx types.Context, caller types.AccAddress) QueryHandler {
	return NewQueryHandler(ctx, k.wasmVMQueryHandler, caller)
}

// StoreCode registers a native contract implementation and returns its new
// code id and checksum.
func (k *Keeper) StoreCode(ctx types.Context, creator types.AccAddress, contract wasmtypes.Contract) (uint64, []byte, error) {
	if contract == nil {
		return 0, nil, types.ErrEmpty.Wrap("contract")
	}
	if creator.Empty() {
		return 0, nil, types.ErrEmpty.Wrap("creator")
	}
	codeID := k.autoIncrementID(ctx, wasmtypes.KeySequenceCodeID)
	checksum := contractChecksum(codeID, contract)

	codeInfo := wasmtypes.NewCodeInfo(checksum, creator)
	ctx.KVStore(k.storeKey).Set(wasmtypes.GetCodeKey(codeID), wasmtypes.MarshalCodeInfo(codeInfo))
	k.contracts[codeID] = contract

	ctx.EventManager().EmitEvent(types.NewEvent(types.EventTypeStoreCode,
		types.NewAttribute(types.AttributeKeyCodeID, fmt.Sprintf("%d", codeID)),
	))
	return codeID, checksum, nil
}

// contractChecksum derives a stable identifier from the code id and the
// implementation type.
func contractChecksum(codeID uint64, contract wasmtypes.Contract) []byte {
	hasher := sha256.New()
	hasher.Write([]byte(fmt.Sprintf("%T/", contract)))
	idBz := make([]byte, 8)
	binary.BigEndian.PutUint64(idBz, codeID)
	hasher.Write(idBz)
	return hasher.Sum(nil)
}

// GetCodeInfo returns the stored metadata for the code id, nil when unknown.
func (k *Keeper) GetCodeInfo(ctx types.Context, codeID uint64) *wasmtypes.CodeInfo {
	bz := ctx.KVStore(k.storeKey).Get(wasmtypes.GetCodeKey(codeID))
	if bz == nil {
		return nil
	}
	var info wasmtypes.CodeInfo
	mustUnmarshalJSON(bz, &info)
	return &info
}

// AnalyzeCode reports which optional entry points the stored code implements.
func (k *Keeper) AnalyzeCode(ctx types.Context, codeID uint64) (*wasmvmtypes.AnalysisReport, error) {
	if k.GetCodeInfo(ctx, codeID) == nil {
		return nil, types.ErrNoSuchCode.Wrapf("%d", codeID)
	}
	contract, ok := k.contracts[codeID]
	if !ok {
		return nil, types.ErrNoSuchCode.Wrapf("%d", codeID)
	}
	report := &wasmvmtypes.AnalysisReport{
		Entrypoints: []string{"instantiate", "execute", "query"},
	}
	if _, ok := contract.(wasmtypes.HasMigrate); ok {
		report.Entrypoints = append(report.Entrypoints, "migrate")
	}
	if _, ok := contract.(wasmtypes.HasSudo); ok {
		report.Entrypoints = append(report.Entrypoints, "sudo")
	}
	if _, ok := contract.(wasmtypes.HasReply); ok {
		report.Entrypoints = append(report.Entrypoints, "reply")
	}
	if _, ok := contract.(wasmtypes.IBCContract); ok {
		report.HasIBCEntryPoints = true
	}
	return report, nil
}

// GetContractInfo returns the stored metadata for the instance, nil when
// unknown.
func (k *Keeper) GetContractInfo(ctx types.Context, contractAddr types.AccAddress) *wasmtypes.ContractInfo {
	bz := ctx.KVStore(k.storeKey).Get(wasmtypes.GetContractAddressKey(contractAddr))
	if bz == nil {
		return nil
	}
	var info wasmtypes.ContractInfo
	mustUnmarshalJSON(bz, &info)
	return &info
}

// HasContractInfo checks whether a contract instance exists at the address.
func (k *Keeper) HasContractInfo(ctx types.Context, contractAddr types.AccAddress) bool {
	return ctx.KVStore(k.storeKey).Has(wasmtypes.GetContractAddressKey(contractAddr))
}

func (k *Keeper) storeContractInfo(ctx types.Context, contractAddr types.AccAddress, info wasmtypes.ContractInfo) {
	ctx.KVStore(k.storeKey).Set(wasmtypes.GetContractAddressKey(contractAddr), wasmtypes.MarshalContractInfo(info))
}

// contractInstance resolves metadata and implementation for an address.
func (k *Keeper) contractInstance(ctx types.Context, contractAddr types.AccAddress) (wasmtypes.ContractInfo, wasmtypes.Contract, error) {
	info := k.GetContractInfo(ctx, contractAddr)
	if info == nil {
		return wasmtypes.ContractInfo{}, nil, types.ErrNoSuchContract.Wrap(contractAddr.String())
	}
	contract, ok := k.contracts[info.CodeID]
	if !ok {
		return wasmtypes.ContractInfo{}, nil, types.ErrNoSuchCode.Wrapf("%d", info.CodeID)
	}
	return *info, contract, nil
}

// Instantiate creates a new contract instance from the given code id.
func (k *Keeper) Instantiate(
	ctx types.Context,
	codeID uint64,
	creator, admin types.AccAddress,
	initMsg []byte,
	label string,
	deposit types.Coins,
	addressGenerator AddressGenerator,
) (types.AccAddress, []byte, error) {
	ctx.GasMeter().ConsumeGas(DefaultInstanceCost, "Loading contract code")

	codeInfo := k.GetCodeInfo(ctx, codeID)
	if codeInfo == nil {
		return nil, nil, types.ErrNoSuchCode.Wrapf("%d", codeID)
	}
	contract := k.contracts[codeID]
	if contract == nil {
		return nil, nil, types.ErrNoSuchCode.Wrapf("%d", codeID)
	}

	contractAddress := addressGenerator(ctx, codeID, codeInfo.Checksum)
	if k.HasContractInfo(ctx, contractAddress) {
		return nil, nil, types.ErrDuplicate.Wrap("instance with this code id, sender and label exists: try a different label")
	}

	// register the contract before the init call so the address resolves for
	// queries and dispatched messages
	info := wasmtypes.NewContractInfo(codeID, creator, admin, label, wasmtypes.NewAbsoluteTxPosition(ctx))
	if _, ok := contract.(wasmtypes.IBCContract); ok {
		info.IBCPortID = PortIDForContract(contractAddress)
	}
	if err := info.ValidateBasic(); err != nil {
		return nil, nil, err
	}
	k.storeContractInfo(ctx, contractAddress, info)

	// deposit initial contract funds
	if !deposit.IsZero() {
		if err := k.bank.SendCoins(ctx, creator, contractAddress, deposit); err != nil {
			return nil, nil, err
		}
	}

	env := ctx.Env(contractAddress)
	msgInfo := types.NewInfo(creator, deposit)
	res, err := contract.Instantiate(k.deps(ctx, contractAddress), env, msgInfo, initMsg)
	if err != nil {
		return nil, nil, errorsmod.Wrap(types.ErrInstantiateFailed, err.Error())
	}
	if res == nil {
		return nil, nil, errorsmod.Wrap(types.ErrHostViolation, "nil instantiate response")
	}

	ctx.EventManager().EmitEvent(types.ContractSDKEvent(types.EventTypeInstantiate, contractAddress,
		types.NewAttribute(types.AttributeKeyCodeID, fmt.Sprintf("%d", codeID)),
	))

	data, err := k.handleContractResponse(ctx, contractAddress, info.IBCPortID, res.Messages, res.Attributes, res.Data, res.Events)
	if err != nil {
		return nil, nil, err
	}
	return contractAddress, data, nil
}

// Execute executes the contract instance with the given message.
func (k *Keeper) Execute(ctx types.Context, contractAddress, caller types.AccAddress, msg []byte, coins types.Coins) ([]byte, error) {
	ctx.GasMeter().ConsumeGas(DefaultContractCost, "Loading contract")

	info, contract, err := k.contractInstance(ctx, contractAddress)
	if err != nil {
		return nil, err
	}

	// add more funds
	if !coins.IsZero() {
		if err := k.bank.SendCoins(ctx, caller, contractAddress, coins); err != nil {
			return nil, err
		}
	}

	env := ctx.Env(contractAddress)
	msgInfo := types.NewInfo(caller, coins)
	res, execErr := contract.Execute(k.deps(ctx, contractAddress), env, msgInfo, msg)
	if execErr != nil {
		return nil, errorsmod.Wrap(types.ErrExecuteFailed, execErr.Error())
	}
	if res == nil {
		return nil, errorsmod.Wrap(types.ErrHostViolation, "nil execute response")
	}

	ctx.EventManager().EmitEvent(types.ContractSDKEvent(types.EventTypeExecute, contractAddress))

	return k.handleContractResponse(ctx, contractAddress, info.IBCPortID, res.Messages, res.Attributes, res.Data, res.Events)
}

// Migrate switches the contract instance to new code and calls its migrate
// entry point. Only the current admin may do this.
func (k *Keeper) Migrate(ctx types.Context, contractAddress, caller types.AccAddress, newCodeID uint64, msg []byte) ([]byte, error) {
	ctx.GasMeter().ConsumeGas(DefaultInstanceCost, "Loading contract code")

	info := k.GetContractInfo(ctx, contractAddress)
	if info == nil {
		return nil, types.ErrNoSuchContract.Wrap(contractAddress.String())
	}
	if !info.AdminAddr().Equals(caller) {
		return nil, types.ErrUnauthorized.Wrap("no permission to migrate")
	}
	if k.GetCodeInfo(ctx, newCodeID) == nil {
		return nil, types.ErrNoSuchCode.Wrapf("%d", newCodeID)
	}
	newContract, ok := k.contracts[newCodeID]
	if !ok {
		return nil, types.ErrNoSuchCode.Wrapf("%d", newCodeID)
	}
	migrator, ok := newContract.(wasmtypes.HasMigrate)
	if !ok {
		return nil, errorsmod.Wrap(types.ErrMigrationFailed, "code does not support migration")
	}
	// an IBC contract must stay an IBC contract, the port is bound for good
	if info.IBCPortID != "" {
		if _, ok := newContract.(wasmtypes.IBCContract); !ok {
			return nil, errorsmod.Wrap(types.ErrMigrationFailed, "requires ibc callbacks")
		}
	}

	env := ctx.Env(contractAddress)
	res, err := migrator.Migrate(k.deps(ctx, contractAddress), env, msg)
	if err != nil {
		return nil, errorsmod.Wrap(types.ErrMigrationFailed, err.Error())
	}
	if res == nil {
		return nil, errorsmod.Wrap(types.ErrHostViolation, "nil migrate response")
	}

	info.CodeID = newCodeID
	k.storeContractInfo(ctx, contractAddress, *info)

	ctx.EventManager().EmitEvent(types.ContractSDKEvent(types.EventTypeMigrate, contractAddress,
		types.NewAttribute(types.AttributeKeyCodeID, fmt.Sprintf("%d", newCodeID)),
	))

	return k.handleContractResponse(ctx, contractAddress, info.IBCPortID, res.Messages, res.Attributes, res.Data, res.Events)
}

// UpdateContractAdmin sets a new admin for the contract. Only the current
// admin may do this.
func (k *Keeper) UpdateContractAdmin(ctx types.Context, contractAddress, caller, newAdmin types.AccAddress) error {
	return k.setContractAdmin(ctx, contractAddress, caller, newAdmin, types.EventTypeUpdateAdmin)
}

// ClearContractAdmin removes the admin, making the contract immutable.
func (k *Keeper) ClearContractAdmin(ctx types.Context, contractAddress, caller types.AccAddress) error {
	return k.setContractAdmin(ctx, contractAddress, caller, nil, types.EventTypeClearAdmin)
}

func (k *Keeper) setContractAdmin(ctx types.Context, contractAddress, caller, newAdmin types.AccAddress, eventType string) error {
	info := k.GetContractInfo(ctx, contractAddress)
	if info == nil {
		return types.ErrNoSuchContract.Wrap(contractAddress.String())
	}
	if !info.AdminAddr().Equals(caller) {
		return types.ErrUnauthorized.Wrap("caller is not the admin")
	}
	info.Admin = newAdmin.String()
	if newAdmin.Empty() {
		info.Admin = ""
	}
	k.storeContractInfo(ctx, contractAddress, *info)
	ctx.EventManager().EmitEvent(types.ContractSDKEvent(eventType, contractAddress))
	return nil
}

// Sudo allows privileged access to the contract. This entry point is reserved
// for the harness, no contract or user message can trigger it.
func (k *Keeper) Sudo(ctx types.Context, contractAddress types.AccAddress, msg []byte) ([]byte, error) {
	ctx.GasMeter().ConsumeGas(DefaultContractCost, "Loading contract")

	info, contract, err := k.contractInstance(ctx, contractAddress)
	if err != nil {
		return nil, err
	}
	sudoer, ok := contract.(wasmtypes.HasSudo)
	if !ok {
		return nil, errorsmod.Wrap(types.ErrExecuteFailed, "contract does not support sudo")
	}

	env := ctx.Env(contractAddress)
	res, sudoErr := sudoer.Sudo(k.deps(ctx, contractAddress), env, msg)
	if sudoErr != nil {
		return nil, errorsmod.Wrap(types.ErrExecuteFailed, sudoErr.Error())
	}
	if res == nil {
		return nil, errorsmod.Wrap(types.ErrHostViolation, "nil sudo response")
	}

	ctx.EventManager().EmitEvent(types.ContractSDKEvent(types.EventTypeSudo, contractAddress))

	return k.handleContractResponse(ctx, contractAddress, info.IBCPortID, res.Messages, res.Attributes, res.Data, res.Events)
}

// reply is only called from keeper internal functions
// (dispatchSubmessages) after processing the submessage
func (k *Keeper) reply(ctx types.Context, contractAddress types.AccAddress, reply wasmvmtypes.Reply) ([]byte, error) {
	info, contract, err := k.contractInstance(ctx, contractAddress)
	if err != nil {
		return nil, err
	}
	replyer, ok := contract.(wasmtypes.HasReply)
	if !ok {
		// the contract demanded a callback it cannot process
		return nil, errorsmod.Wrap(types.ErrHostViolation, "contract does not support reply")
	}

	env := ctx.Env(contractAddress)
	res, replyErr := replyer.Reply(k.deps(ctx, contractAddress), env, reply)
	if replyErr != nil {
		return nil, errorsmod.Wrap(types.ErrExecuteFailed, replyErr.Error())
	}
	if res == nil {
		return nil, errorsmod.Wrap(types.ErrHostViolation, "nil reply response")
	}

	ctx.EventManager().EmitEvent(types.ContractSDKEvent(types.EventTypeReply, contractAddress))

	return k.handleContractResponse(ctx, contractAddress, info.IBCPortID, res.Messages, res.Attributes, res.Data, res.Events)
}

// QuerySmart queries the smart contract itself. The contract runs against a
// read-only view; any write attempt aborts the query as a host violation.
func (k *Keeper) QuerySmart(ctx types.Context, contractAddr types.AccAddress, req []byte) (rsp []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(store.ErrReadOnly); ok {
				rsp = nil
				err = errorsmod.Wrap(types.ErrHostViolation, "state modification in query")
				return
			}
			panic(r)
		}
	}()

	roCtx := ctx.WithMultiStore(store.NewReadOnly(ctx.MultiStore()))
	_, contract, err := k.contractInstance(roCtx, contractAddr)
	if err != nil {
		return nil, err
	}

	env := roCtx.Env(contractAddr)
	bz, qErr := contract.Query(k.deps(roCtx, contractAddr), env, req)
	if qErr != nil {
		return nil, errorsmod.Wrap(types.ErrQueryFailed, qErr.Error())
	}
	return bz, nil
}

// QueryRaw returns the contract's raw state for the given key.
func (k *Keeper) QueryRaw(ctx types.Context, contractAddr types.AccAddress, key []byte) []byte {
	if key == nil {
		return nil
	}
	return k.contractStore(ctx, contractAddr).Get(key)
}

// contractStore returns the contract's own namespaced storage.
func (k *Keeper) contractStore(ctx types.Context, contractAddr types.AccAddress) store.KVStore {
	return store.NewPrefix(ctx.KVStore(k.storeKey), wasmtypes.GetContractStorePrefix(contractAddr))
}

// deps bundles storage, api and querier for one contract call.
func (k *Keeper) deps(ctx types.Context, contractAddr types.AccAddress) wasmtypes.Deps {
	return wasmtypes.Deps{
		Storage: k.contractStore(ctx, contractAddr),
		API:     cosmosAPI(),
		Querier: k.queryHandler(ctx, contractAddr),
	}
}

// handleContractResponse processes the contract response and dispatches the
// sub-messages. Returns the data to return to the caller.
func (k *Keeper) handleContractResponse(
	ctx types.Context,
	contractAddr types.AccAddress,
	ibcPort string,
	msgs []wasmvmtypes.SubMsg,
	attrs []wasmvmtypes.EventAttribute,
	data []byte,
	evts wasmvmtypes.Array[wasmvmtypes.Event],
) ([]byte, error) {
	if len(attrs) != 0 {
		wasmEvents, err := types.NewWasmModuleEvent(attrs, contractAddr)
		if err != nil {
			return nil, err
		}
		ctx.EventManager().EmitEvents(wasmEvents)
	}
	if len(evts) > 0 {
		customEvents, err := types.NewCustomEvents(evts, contractAddr)
		if err != nil {
			return nil, err
		}
		ctx.EventManager().EmitEvents(customEvents)
	}
	rsp, err := k.dispatcher().DispatchSubmessages(ctx, contractAddr, ibcPort, msgs)
	if err != nil {
		return nil, err
	}
	if rsp != nil {
		return rsp, nil
	}
	return data, nil
}

func (k *Keeper) autoIncrementID(ctx types.Context, sequenceKey []byte) uint64 {
	kv := ctx.KVStore(k.storeKey)
	id := uint64(1)
	if bz := kv.Get(sequenceKey); bz != nil {
		id = binary.BigEndian.Uint64(bz) + 1
	}
	bz := make([]byte, 8)
	binary.BigEndian.PutUint64(bz, id)
	kv.Set(sequenceKey, bz)
	return id
}

// PortIDForContract returns the IBC port bound for an IBC enabled contract.
func PortIDForContract(addr types.AccAddress) string {
	return "wasm." + addr.String()
}

// ContractFromPortID resolves the contract address behind an IBC port.
func ContractFromPortID(portID string) (types.AccAddress, error) {
	if len(portID) < 6 || portID[:5] != "wasm." {
		return nil, types.ErrInvalid.Wrapf("without prefix: %s", portID)
	}
	return types.AccAddressFromBech32(portID[5:])
}

func mustLoadContractInfo(ctx types.Context, contractAddr types.AccAddress) *wasmtypes.ContractInfo {
	bz := ctx.KVStore(wasmtypes.StoreKey).Get(wasmtypes.GetContractAddressKey(contractAddr))
	if bz == nil {
		return nil
	}
	var info wasmtypes.ContractInfo
	mustUnmarshalJSON(bz, &info)
	return &info
}

func mustUnmarshalJSON(bz []byte, v any) {
	if err := json.Unmarshal(bz, v); err != nil {
		panic(err)
	}
}
