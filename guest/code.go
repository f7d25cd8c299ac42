package guest

import "github.com/wippyai/wasm-fork/wasm"

// Code is a function body under construction. Methods append one instruction
// and return the receiver so bodies read top to bottom. The final end opcode is
// added by Module.Func.
type Code struct {
	instrs []wasm.Instruction
}

// NewCode returns an empty function body.
func NewCode() *Code {
	return &Code{}
}

func (c *Code) op(opcode byte, imm interface{}) *Code {
	c.instrs = append(c.instrs, wasm.Instruction{Opcode: opcode, Imm: imm})
	return c
}

func (c *Code) Unreachable() *Code { return c.op(wasm.OpUnreachable, nil) }
func (c *Code) Nop() *Code         { return c.op(wasm.OpNop, nil) }
func (c *Code) Else() *Code        { return c.op(wasm.OpElse, nil) }
func (c *Code) End() *Code         { return c.op(wasm.OpEnd, nil) }
func (c *Code) Return() *Code      { return c.op(wasm.OpReturn, nil) }
func (c *Code) Drop() *Code        { return c.op(wasm.OpDrop, nil) }

var void = wasm.BlockImm{Type: wasm.BlockTypeVoid}

// Block opens a block with no result.
func (c *Code) Block() *Code { return c.op(wasm.OpBlock, void) }

// Loop opens a loop with no result.
func (c *Code) Loop() *Code { return c.op(wasm.OpLoop, void) }

// If opens an if with no result.
func (c *Code) If() *Code { return c.op(wasm.OpIf, void) }

func (c *Code) Br(depth uint32) *Code {
	return c.op(wasm.OpBr, wasm.BranchImm{LabelIdx: depth})
}

func (c *Code) BrIf(depth uint32) *Code {
	return c.op(wasm.OpBrIf, wasm.BranchImm{LabelIdx: depth})
}

func (c *Code) Call(funcIdx uint32) *Code {
	return c.op(wasm.OpCall, wasm.CallImm{FuncIdx: funcIdx})
}

func (c *Code) LocalGet(idx uint32) *Code { return c.op(wasm.OpLocalGet, wasm.LocalImm{LocalIdx: idx}) }
func (c *Code) LocalSet(idx uint32) *Code { return c.op(wasm.OpLocalSet, wasm.LocalImm{LocalIdx: idx}) }
func (c *Code) LocalTee(idx uint32) *Code { return c.op(wasm.OpLocalTee, wasm.LocalImm{LocalIdx: idx}) }

func (c *Code) GlobalGet(idx uint32) *Code {
	return c.op(wasm.OpGlobalGet, wasm.GlobalImm{GlobalIdx: idx})
}

func (c *Code) GlobalSet(idx uint32) *Code {
	return c.op(wasm.OpGlobalSet, wasm.GlobalImm{GlobalIdx: idx})
}

func (c *Code) memarg(opcode byte, align, offset uint32) *Code {
	return c.op(opcode, wasm.MemoryImm{Align: align, Offset: offset})
}

func (c *Code) I32Load(offset uint32) *Code   { return c.memarg(wasm.OpI32Load, 2, offset) }
func (c *Code) I64Load(offset uint32) *Code   { return c.memarg(wasm.OpI64Load, 3, offset) }
func (c *Code) I32Load8U(offset uint32) *Code { return c.memarg(wasm.OpI32Load8U, 0, offset) }
func (c *Code) I32Store(offset uint32) *Code  { return c.memarg(wasm.OpI32Store, 2, offset) }
func (c *Code) I64Store(offset uint32) *Code  { return c.memarg(wasm.OpI64Store, 3, offset) }
func (c *Code) I32Store8(offset uint32) *Code { return c.memarg(wasm.OpI32Store8, 0, offset) }

func (c *Code) I32Const(v int32) *Code { return c.op(wasm.OpI32Const, wasm.I32Imm{Value: v}) }
func (c *Code) I64Const(v int64) *Code { return c.op(wasm.OpI64Const, wasm.I64Imm{Value: v}) }

func (c *Code) I32Eqz() *Code        { return c.op(wasm.OpI32Eqz, nil) }
func (c *Code) I32Eq() *Code         { return c.op(wasm.OpI32Eq, nil) }
func (c *Code) I32Ne() *Code         { return c.op(wasm.OpI32Ne, nil) }
func (c *Code) I32LtU() *Code        { return c.op(wasm.OpI32LtU, nil) }
func (c *Code) I32Add() *Code        { return c.op(wasm.OpI32Add, nil) }
func (c *Code) I32Sub() *Code        { return c.op(wasm.OpI32Sub, nil) }
func (c *Code) I64Add() *Code        { return c.op(wasm.OpI64Add, nil) }
func (c *Code) I64Or() *Code         { return c.op(wasm.OpI64Or, nil) }
func (c *Code) I64Shl() *Code        { return c.op(wasm.OpI64Shl, nil) }
func (c *Code) I64ShrU() *Code       { return c.op(wasm.OpI64ShrU, nil) }
func (c *Code) I32WrapI64() *Code    { return c.op(wasm.OpI32WrapI64, nil) }
func (c *Code) I64ExtendI32U() *Code { return c.op(wasm.OpI64ExtendI32U, nil) }

// MemoryCopy pops (dst, src, n). Requires the bulk-memory feature.
func (c *Code) MemoryCopy() *Code {
	return c.op(wasm.OpPrefixMisc, wasm.MiscImm{SubOpcode: wasm.MiscMemoryCopy, Operands: []uint32{0, 0}})
}

// MemoryFill pops (dst, value, n). Requires the bulk-memory feature.
func (c *Code) MemoryFill() *Code {
	return c.op(wasm.OpPrefixMisc, wasm.MiscImm{SubOpcode: wasm.MiscMemoryFill, Operands: []uint32{0}})
}

// DescPtr replaces an i64 descriptor on the stack with its i32 address.
func (c *Code) DescPtr() *Code {
	return c.I64Const(32).I64ShrU().I32WrapI64()
}

// DescLen replaces an i64 descriptor on the stack with its i32 length.
func (c *Code) DescLen() *Code {
	return c.I32WrapI64()
}

// Instructions returns the instructions emitted so far.
func (c *Code) Instructions() []wasm.Instruction {
	return c.instrs
}

// Bytes returns the encoded instructions, without the closing end.
func (c *Code) Bytes() []byte {
	return c.encode(false)
}

func (c *Code) encode(closed bool) []byte {
	instrs := c.instrs
	if closed {
		instrs = append(instrs[:len(instrs):len(instrs)], wasm.Instruction{Opcode: wasm.OpEnd})
	}
	return wasm.EncodeInstructions(instrs)
}
