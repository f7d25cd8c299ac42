package wasm

import (
	"fmt"

	"github.com/wippyai/wasm-fork/wasm/internal/binary"
)

// Instruction is one WebAssembly instruction. Imm holds the immediate type
// matching Opcode, or nil for instructions without immediates.
type Instruction struct {
	Imm    interface{}
	Opcode byte
}

// BlockImm holds the block type for block, loop and if.
type BlockImm struct {
	Type int32 // BlockTypeVoid or a value type encoding
}

// BranchImm holds the label index for br and br_if.
type BranchImm struct {
	LabelIdx uint32
}

// CallImm holds the function index for call.
type CallImm struct {
	FuncIdx uint32
}

// LocalImm holds the local index for local.get, local.set, local.tee.
type LocalImm struct {
	LocalIdx uint32
}

// GlobalImm holds the global index for global.get and global.set.
type GlobalImm struct {
	GlobalIdx uint32
}

// MemoryImm holds the memarg of loads and stores.
type MemoryImm struct {
	Offset uint32
	Align  uint32
}

// I32Imm holds the constant of i32.const.
type I32Imm struct {
	Value int32
}

// I64Imm holds the constant of i64.const.
type I64Imm struct {
	Value int64
}

// MiscImm holds the sub-opcode and operands of 0xFC instructions.
type MiscImm struct {
	Operands  []uint32
	SubOpcode uint32
}

// EncodeInstructions encodes instructions to bytes. It panics when an
// instruction carries the wrong immediate type, which is a programming error.
func EncodeInstructions(instrs []Instruction) []byte {
	w := binary.NewWriter()
	for i := range instrs {
		encodeInstruction(w, &instrs[i])
	}
	return w.Bytes()
}

func encodeInstruction(w *binary.Writer, instr *Instruction) {
	w.Byte(instr.Opcode)

	switch instr.Opcode {
	case OpBlock, OpLoop, OpIf:
		imm := instr.Imm.(BlockImm)
		w.WriteS32(imm.Type)

	case OpBr, OpBrIf:
		imm := instr.Imm.(BranchImm)
		w.WriteU32(imm.LabelIdx)

	case OpCall:
		imm := instr.Imm.(CallImm)
		w.WriteU32(imm.FuncIdx)

	case OpLocalGet, OpLocalSet, OpLocalTee:
		imm := instr.Imm.(LocalImm)
		w.WriteU32(imm.LocalIdx)

	case OpGlobalGet, OpGlobalSet:
		imm := instr.Imm.(GlobalImm)
		w.WriteU32(imm.GlobalIdx)

	case OpI32Load, OpI64Load, OpI32Load8U, OpI32Store, OpI64Store, OpI32Store8:
		imm := instr.Imm.(MemoryImm)
		w.WriteU32(imm.Align)
		w.WriteU32(imm.Offset)

	case OpI32Const:
		imm := instr.Imm.(I32Imm)
		w.WriteS32(imm.Value)

	case OpI64Const:
		imm := instr.Imm.(I64Imm)
		w.WriteS64(imm.Value)

	case OpPrefixMisc:
		imm := instr.Imm.(MiscImm)
		w.WriteU32(imm.SubOpcode)
		switch imm.SubOpcode {
		case MiscMemoryCopy:
			w.WriteU32(imm.Operands[0]) // dst memory
			w.WriteU32(imm.Operands[1]) // src memory
		case MiscMemoryFill:
			w.WriteU32(imm.Operands[0])
		default:
			panic(fmt.Sprintf("wasm: unsupported 0xFC sub-opcode %d", imm.SubOpcode))
		}
	}
}
