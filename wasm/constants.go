package wasm

// Binary format header.
const (
	// Magic is "\0asm" read as a little-endian uint32.
	Magic uint32 = 0x6D736100

	// Version is the binary format version.
	Version uint32 = 0x01
)

// Section IDs, in the order they must appear.
const (
	SectionType     byte = 1
	SectionImport   byte = 2
	SectionFunction byte = 3
	SectionMemory   byte = 5
	SectionGlobal   byte = 6
	SectionExport   byte = 7
	SectionStart    byte = 8
	SectionCode     byte = 10
	SectionData     byte = 11
)

// Import/export descriptor kinds.
const (
	KindFunc   byte = 0
	KindMemory byte = 2
	KindGlobal byte = 3
)

// Value types.
const (
	ValI32 ValType = 0x7F
	ValI64 ValType = 0x7E
)

// Type and limit encodings.
const (
	FuncTypeByte byte = 0x60
	LimitsHasMax byte = 0x01
)

// BlockTypeVoid is the block type of a block, loop or if with no result.
const BlockTypeVoid int32 = -64

// Control flow opcodes
const (
	OpUnreachable byte = 0x00
	OpNop         byte = 0x01
	OpBlock       byte = 0x02
	OpLoop        byte = 0x03
	OpIf          byte = 0x04
	OpElse        byte = 0x05
	OpEnd         byte = 0x0B
	OpBr          byte = 0x0C
	OpBrIf        byte = 0x0D
	OpReturn      byte = 0x0F
	OpCall        byte = 0x10
	OpDrop        byte = 0x1A
)

// Variable access opcodes
const (
	OpLocalGet  byte = 0x20
	OpLocalSet  byte = 0x21
	OpLocalTee  byte = 0x22
	OpGlobalGet byte = 0x23
	OpGlobalSet byte = 0x24
)

// Memory opcodes
const (
	OpI32Load   byte = 0x28
	OpI64Load   byte = 0x29
	OpI32Load8U byte = 0x2D
	OpI32Store  byte = 0x36
	OpI64Store  byte = 0x37
	OpI32Store8 byte = 0x3A
)

// Constant opcodes
const (
	OpI32Const byte = 0x41
	OpI64Const byte = 0x42
)

// Numeric opcodes
const (
	OpI32Eqz        byte = 0x45
	OpI32Eq         byte = 0x46
	OpI32Ne         byte = 0x47
	OpI32LtU        byte = 0x49
	OpI32Add        byte = 0x6A
	OpI32Sub        byte = 0x6B
	OpI64Add        byte = 0x7C
	OpI64Or         byte = 0x84
	OpI64Shl        byte = 0x86
	OpI64ShrU       byte = 0x88
	OpI32WrapI64    byte = 0xA7
	OpI64ExtendI32U byte = 0xAD
)

// OpPrefixMisc introduces the 0xFC instruction family.
const OpPrefixMisc byte = 0xFC

// 0xFC sub-opcodes (bulk memory).
const (
	MiscMemoryCopy uint32 = 0x0A
	MiscMemoryFill uint32 = 0x0B
)
