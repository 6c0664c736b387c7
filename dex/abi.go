// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dex

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/luxfi/geth/accounts/abi"
	"github.com/luxfi/geth/common"
)

const hookABIJSON = `[
  {"type":"function","name":"beforeInitialize","stateMutability":"nonpayable",
   "inputs":[
     {"name":"sender","type":"address"},
     {"name":"key","type":"tuple","components":[
       {"name":"currency0","type":"address"},
       {"name":"currency1","type":"address"},
       {"name":"fee","type":"uint24"},
       {"name":"tickSpacing","type":"int24"},
       {"name":"hooks","type":"address"}]},
     {"name":"sqrtPriceX96","type":"uint160"}],
   "outputs":[{"name":"","type":"bytes4"}]},
  {"type":"function","name":"afterInitialize","stateMutability":"nonpayable",
   "inputs":[
     {"name":"sender","type":"address"},
     {"name":"key","type":"tuple","components":[
       {"name":"currency0","type":"address"},
       {"name":"currency1","type":"address"},
       {"name":"fee","type":"uint24"},
       {"name":"tickSpacing","type":"int24"},
       {"name":"hooks","type":"address"}]},
     {"name":"sqrtPriceX96","type":"uint160"},
     {"name":"tick","type":"int24"}],
   "outputs":[{"name":"","type":"bytes4"}]},
  {"type":"function","name":"beforeAddLiquidity","stateMutability":"nonpayable",
   "inputs":[
     {"name":"sender","type":"address"},
     {"name":"key","type":"tuple","components":[
       {"name":"currency0","type":"address"},
       {"name":"currency1","type":"address"},
       {"name":"fee","type":"uint24"},
       {"name":"tickSpacing","type":"int24"},
       {"name":"hooks","type":"address"}]},
     {"name":"params","type":"tuple","components":[
       {"name":"tickLower","type":"int24"},
       {"name":"tickUpper","type":"int24"},
       {"name":"liquidityDelta","type":"int256"},
       {"name":"salt","type":"bytes32"}]},
     {"name":"hookData","type":"bytes"}],
   "outputs":[{"name":"","type":"bytes4"}]},
  {"type":"function","name":"beforeRemoveLiquidity","stateMutability":"nonpayable",
   "inputs":[
     {"name":"sender","type":"address"},
     {"name":"key","type":"tuple","components":[
       {"name":"currency0","type":"address"},
       {"name":"currency1","type":"address"},
       {"name":"fee","type":"uint24"},
       {"name":"tickSpacing","type":"int24"},
       {"name":"hooks","type":"address"}]},
     {"name":"params","type":"tuple","components":[
       {"name":"tickLower","type":"int24"},
       {"name":"tickUpper","type":"int24"},
       {"name":"liquidityDelta","type":"int256"},
       {"name":"salt","type":"bytes32"}]},
     {"name":"hookData","type":"bytes"}],
   "outputs":[{"name":"","type":"bytes4"}]},
  {"type":"function","name":"beforeSwap","stateMutability":"nonpayable",
   "inputs":[
     {"name":"sender","type":"address"},
     {"name":"key","type":"tuple","components":[
       {"name":"currency0","type":"address"},
       {"name":"currency1","type":"address"},
       {"name":"fee","type":"uint24"},
       {"name":"tickSpacing","type":"int24"},
       {"name":"hooks","type":"address"}]},
     {"name":"params","type":"tuple","components":[
       {"name":"zeroForOne","type":"bool"},
       {"name":"amountSpecified","type":"int256"},
       {"name":"sqrtPriceLimitX96","type":"uint160"}]},
     {"name":"hookData","type":"bytes"}],
   "outputs":[
     {"name":"","type":"bytes4"},
     {"name":"","type":"int256"},
     {"name":"","type":"uint24"}]},
  {"type":"function","name":"afterSwap","stateMutability":"nonpayable",
   "inputs":[
     {"name":"sender","type":"address"},
     {"name":"key","type":"tuple","components":[
       {"name":"currency0","type":"address"},
       {"name":"currency1","type":"address"},
       {"name":"fee","type":"uint24"},
       {"name":"tickSpacing","type":"int24"},
       {"name":"hooks","type":"address"}]},
     {"name":"params","type":"tuple","components":[
       {"name":"zeroForOne","type":"bool"},
       {"name":"amountSpecified","type":"int256"},
       {"name":"sqrtPriceLimitX96","type":"uint160"}]},
     {"name":"delta","type":"int256"},
     {"name":"hookData","type":"bytes"}],
   "outputs":[
     {"name":"","type":"bytes4"},
     {"name":"","type":"int128"}]},
  {"type":"function","name":"getHookPermissions","stateMutability":"pure",
   "inputs":[],
   "outputs":[{"name":"","type":"tuple","components":[
     {"name":"beforeInitialize","type":"bool"},
     {"name":"afterInitialize","type":"bool"},
     {"name":"beforeAddLiquidity","type":"bool"},
     {"name":"afterAddLiquidity","type":"bool"},
     {"name":"beforeRemoveLiquidity","type":"bool"},
     {"name":"afterRemoveLiquidity","type":"bool"},
     {"name":"beforeSwap","type":"bool"},
     {"name":"afterSwap","type":"bool"},
     {"name":"beforeDonate","type":"bool"},
     {"name":"afterDonate","type":"bool"},
     {"name":"beforeSwapReturnDelta","type":"bool"},
     {"name":"afterSwapReturnDelta","type":"bool"},
     {"name":"afterAddLiquidityReturnDelta","type":"bool"},
     {"name":"afterRemoveLiquidityReturnDelta","type":"bool"}]}]}
]`

// Selector is the 4-byte method identifier a hook returns to acknowledge a call
type Selector [4]byte

// ExtendedABI wraps the standard ABI and adds PackOutput and UnpackInput methods
type ExtendedABI struct {
	abi.ABI
}

// ParseABI parses the raw ABI JSON and returns an ExtendedABI
func ParseABI(rawABI string) ExtendedABI {
	parsed, err := abi.JSON(strings.NewReader(rawABI))
	if err != nil {
		panic(fmt.Sprintf("failed to parse ABI: %v", err))
	}
	return ExtendedABI{ABI: parsed}
}

// PackOutput packs the given args as the output of given method name to conform the ABI.
// This does not include method ID.
func (e ExtendedABI) PackOutput(name string, args ...interface{}) ([]byte, error) {
	method, exist := e.Methods[name]
	if !exist {
		return nil, fmt.Errorf("method '%s' not found", name)
	}
	return method.Outputs.Pack(args...)
}

// UnpackInput unpacks call arguments (without the method ID) of the given method.
func (e ExtendedABI) UnpackInput(name string, data []byte) ([]interface{}, error) {
	method, exist := e.Methods[name]
	if !exist {
		return nil, fmt.Errorf("method '%s' not found", name)
	}
	return method.Inputs.Unpack(data)
}

// HookABI is the v4 hook interface
var HookABI = ParseABI(hookABIJSON)

// Hook method selectors
var (
	SelectorBeforeInitialize      = methodSelector("beforeInitialize")
	SelectorAfterInitialize       = methodSelector("afterInitialize")
	SelectorBeforeAddLiquidity    = methodSelector("beforeAddLiquidity")
	SelectorBeforeRemoveLiquidity = methodSelector("beforeRemoveLiquidity")
	SelectorBeforeSwap            = methodSelector("beforeSwap")
	SelectorAfterSwap             = methodSelector("afterSwap")
	SelectorGetHookPermissions    = methodSelector("getHookPermissions")
)

func methodSelector(name string) Selector {
	var s Selector
	copy(s[:], HookABI.Methods[name].ID)
	return s
}

// MethodBySelector returns the hook method name for a selector
func MethodBySelector(sel Selector) (string, bool) {
	m, err := HookABI.MethodById(sel[:])
	if err != nil {
		return "", false
	}
	return m.Name, true
}

// ABI tuple shapes. Field order follows the tuple components.
type (
	poolKeyTuple struct {
		Currency0   common.Address
		Currency1   common.Address
		Fee         *big.Int
		TickSpacing *big.Int
		Hooks       common.Address
	}

	swapParamsTuple struct {
		ZeroForOne        bool
		AmountSpecified   *big.Int
		SqrtPriceLimitX96 *big.Int
	}

	liquidityParamsTuple struct {
		TickLower      *big.Int
		TickUpper      *big.Int
		LiquidityDelta *big.Int
		Salt           [32]byte
	}
)

func toPoolKeyTuple(k PoolKey) poolKeyTuple {
	return poolKeyTuple{
		Currency0:   k.Currency0.Address,
		Currency1:   k.Currency1.Address,
		Fee:         new(big.Int).SetUint64(uint64(k.Fee)),
		TickSpacing: big.NewInt(int64(k.TickSpacing)),
		Hooks:       k.Hooks,
	}
}

func (t poolKeyTuple) poolKey() PoolKey {
	return PoolKey{
		Currency0:   Currency{Address: t.Currency0},
		Currency1:   Currency{Address: t.Currency1},
		Fee:         uint24(t.Fee.Uint64()),
		TickSpacing: int24(t.TickSpacing.Int64()),
		Hooks:       t.Hooks,
	}
}

func toSwapParamsTuple(p SwapParams) swapParamsTuple {
	limit := p.SqrtPriceLimitX96
	if limit == nil {
		limit = new(big.Int)
	}
	return swapParamsTuple{
		ZeroForOne:        p.ZeroForOne,
		AmountSpecified:   p.AmountSpecified,
		SqrtPriceLimitX96: limit,
	}
}

func (t swapParamsTuple) swapParams() SwapParams {
	return SwapParams{
		ZeroForOne:        t.ZeroForOne,
		AmountSpecified:   t.AmountSpecified,
		SqrtPriceLimitX96: t.SqrtPriceLimitX96,
	}
}

func toLiquidityParamsTuple(p ModifyLiquidityParams) liquidityParamsTuple {
	return liquidityParamsTuple{
		TickLower:      big.NewInt(int64(p.TickLower)),
		TickUpper:      big.NewInt(int64(p.TickUpper)),
		LiquidityDelta: p.LiquidityDelta,
		Salt:           p.Salt,
	}
}

func (t liquidityParamsTuple) liquidityParams() ModifyLiquidityParams {
	return ModifyLiquidityParams{
		TickLower:      int24(t.TickLower.Int64()),
		TickUpper:      int24(t.TickUpper.Int64()),
		LiquidityDelta: t.LiquidityDelta,
		Salt:           t.Salt,
	}
}

// HookCall is a decoded hook invocation
type HookCall struct {
	Method       string
	Sender       common.Address
	Key          PoolKey
	SqrtPriceX96 *big.Int
	Swap         SwapParams
	Liquidity    ModifyLiquidityParams
	HookData     []byte
}

// PackBeforeInitialize encodes a beforeInitialize call
func PackBeforeInitialize(sender common.Address, key PoolKey, sqrtPriceX96 *big.Int) ([]byte, error) {
	return HookABI.Pack("beforeInitialize", sender, toPoolKeyTuple(key), sqrtPriceX96)
}

// PackBeforeAddLiquidity encodes a beforeAddLiquidity call
func PackBeforeAddLiquidity(sender common.Address, key PoolKey, params ModifyLiquidityParams, hookData []byte) ([]byte, error) {
	return HookABI.Pack("beforeAddLiquidity", sender, toPoolKeyTuple(key), toLiquidityParamsTuple(params), nonNil(hookData))
}

// PackBeforeSwap encodes a beforeSwap call
func PackBeforeSwap(sender common.Address, key PoolKey, params SwapParams, hookData []byte) ([]byte, error) {
	return HookABI.Pack("beforeSwap", sender, toPoolKeyTuple(key), toSwapParamsTuple(params), nonNil(hookData))
}

// PackGetHookPermissions encodes a getHookPermissions call
func PackGetHookPermissions() ([]byte, error) {
	return HookABI.Pack("getHookPermissions")
}

func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}

// UnpackHookCall decodes hook calldata (method ID included)
func UnpackHookCall(input []byte) (*HookCall, error) {
	if len(input) < 4 {
		return nil, fmt.Errorf("%w: calldata too short (%d bytes)", ErrInvalidHookResponse, len(input))
	}
	var sel Selector
	copy(sel[:], input[:4])
	name, ok := MethodBySelector(sel)
	if !ok {
		return nil, fmt.Errorf("unknown hook method %x", sel)
	}

	args, err := HookABI.UnpackInput(name, input[4:])
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", name, err)
	}

	call := &HookCall{Method: name}
	switch name {
	case "getHookPermissions":
		return call, nil
	case "beforeInitialize", "afterInitialize":
		call.Sender = args[0].(common.Address)
		call.Key = abi.ConvertType(args[1], new(poolKeyTuple)).(*poolKeyTuple).poolKey()
		call.SqrtPriceX96 = args[2].(*big.Int)
	case "beforeAddLiquidity", "beforeRemoveLiquidity":
		call.Sender = args[0].(common.Address)
		call.Key = abi.ConvertType(args[1], new(poolKeyTuple)).(*poolKeyTuple).poolKey()
		call.Liquidity = abi.ConvertType(args[2], new(liquidityParamsTuple)).(*liquidityParamsTuple).liquidityParams()
		call.HookData = args[3].([]byte)
	case "beforeSwap", "afterSwap":
		call.Sender = args[0].(common.Address)
		call.Key = abi.ConvertType(args[1], new(poolKeyTuple)).(*poolKeyTuple).poolKey()
		call.Swap = abi.ConvertType(args[2], new(swapParamsTuple)).(*swapParamsTuple).swapParams()
		call.HookData = args[len(args)-1].([]byte)
	}
	return call, nil
}

// PackSelectorResult encodes the single bytes4 return of a hook method
func PackSelectorResult(method string, sel Selector) ([]byte, error) {
	return HookABI.PackOutput(method, [4]byte(sel))
}

// UnpackSelectorResult decodes the single bytes4 return of a hook method
func UnpackSelectorResult(method string, data []byte) (Selector, error) {
	out, err := HookABI.Unpack(method, data)
	if err != nil {
		return Selector{}, fmt.Errorf("%w: %v", ErrInvalidHookResponse, err)
	}
	return Selector(out[0].([4]byte)), nil
}

// PackBeforeSwapResult encodes the beforeSwap return values
func PackBeforeSwapResult(sel Selector, delta BeforeSwapDelta, lpFeeOverride uint24) ([]byte, error) {
	packed, err := delta.Pack()
	if err != nil {
		return nil, err
	}
	return HookABI.PackOutput("beforeSwap", [4]byte(sel), packed, new(big.Int).SetUint64(uint64(lpFeeOverride)))
}

// UnpackBeforeSwapResult decodes the beforeSwap return values
func UnpackBeforeSwapResult(data []byte) (Selector, BeforeSwapDelta, uint24, error) {
	out, err := HookABI.Unpack("beforeSwap", data)
	if err != nil {
		return Selector{}, BeforeSwapDelta{}, 0, fmt.Errorf("%w: %v", ErrInvalidHookResponse, err)
	}
	sel := Selector(out[0].([4]byte))
	delta := UnpackBeforeSwapDelta(out[1].(*big.Int))
	fee := uint24(out[2].(*big.Int).Uint64())
	return sel, delta, fee, nil
}

// PackHookPermissions encodes the getHookPermissions return value
func PackHookPermissions(p HookPermissions) ([]byte, error) {
	return HookABI.PackOutput("getHookPermissions", p)
}

// UnpackHookPermissions decodes the getHookPermissions return value
func UnpackHookPermissions(data []byte) (HookPermissions, error) {
	out, err := HookABI.Unpack("getHookPermissions", data)
	if err != nil {
		return HookPermissions{}, fmt.Errorf("%w: %v", ErrInvalidHookResponse, err)
	}
	return *abi.ConvertType(out[0], new(HookPermissions)).(*HookPermissions), nil
}
