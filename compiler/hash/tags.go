package hash

import "github.com/chazu/serpent/compiler"

// ---------------------------------------------------------------------------
// Frozen tag bytes for the fingerprint serialization format.
//
// IMPORTANT: These tags are FROZEN. Once assigned, a tag byte must never
// change meaning. Adding new tags is fine; changing existing ones breaks
// all previously computed fingerprints.
// ---------------------------------------------------------------------------

// HashVersion is the version prefix for the serialization format.
// Bumping this invalidates all existing fingerprints.
const HashVersion byte = 1

const (
	TagReservedZero byte = 0x00 // version prefix / reserved

	// Roots
	TagModule      byte = 0x01
	TagInteractive byte = 0x02
	TagExpression  byte = 0x03
	TagErrorMod    byte = 0x04

	// Simple statements
	TagExprStmt   byte = 0x10
	TagAssign     byte = 0x11
	TagAugAssign  byte = 0x12
	TagPass       byte = 0x13
	TagBreak      byte = 0x14
	TagContinue   byte = 0x15
	TagReturn     byte = 0x16
	TagRaise      byte = 0x17
	TagDelete     byte = 0x18
	TagGlobal     byte = 0x19
	TagAssert     byte = 0x1A
	TagImport     byte = 0x1B
	TagImportFrom byte = 0x1C
	TagAlias      byte = 0x1D
	TagErrorStmt  byte = 0x1F

	// Compound statements
	TagIf            byte = 0x20
	TagWhile         byte = 0x21
	TagFor           byte = 0x22
	TagTry           byte = 0x23
	TagExceptHandler byte = 0x24
	TagWith          byte = 0x25
	TagFunctionDef   byte = 0x26
	TagClassDef      byte = 0x27
	TagArguments     byte = 0x28
	TagArg           byte = 0x29
	TagBody          byte = 0x2A
	TagOrElse        byte = 0x2B
	TagFinalBody     byte = 0x2C

	// Expressions
	TagBoolOp    byte = 0x30
	TagBinOp     byte = 0x31
	TagUnaryOp   byte = 0x32
	TagCompare   byte = 0x33
	TagIfExp     byte = 0x34
	TagLambda    byte = 0x35
	TagCall      byte = 0x36
	TagKeyword   byte = 0x37
	TagStarred   byte = 0x38
	TagAttribute byte = 0x39
	TagSubscript byte = 0x3A
	TagSlice     byte = 0x3B
	TagEllipsis  byte = 0x3C
	TagEmpty     byte = 0x3D
	TagErrorExpr byte = 0x3F

	// Atoms
	TagName  byte = 0x40
	TagNum   byte = 0x41
	TagStr   byte = 0x42
	TagTuple byte = 0x43
	TagList  byte = 0x44
	TagDict  byte = 0x45
	TagSet   byte = 0x46
)

var kindTags = map[compiler.Kind]byte{
	compiler.KindModule:        TagModule,
	compiler.KindInteractive:   TagInteractive,
	compiler.KindExpression:    TagExpression,
	compiler.KindErrorMod:      TagErrorMod,
	compiler.KindExprStmt:      TagExprStmt,
	compiler.KindAssign:        TagAssign,
	compiler.KindAugAssign:     TagAugAssign,
	compiler.KindPass:          TagPass,
	compiler.KindBreak:         TagBreak,
	compiler.KindContinue:      TagContinue,
	compiler.KindReturn:        TagReturn,
	compiler.KindRaise:         TagRaise,
	compiler.KindDelete:        TagDelete,
	compiler.KindGlobal:        TagGlobal,
	compiler.KindAssert:        TagAssert,
	compiler.KindImport:        TagImport,
	compiler.KindImportFrom:    TagImportFrom,
	compiler.KindAlias:         TagAlias,
	compiler.KindErrorStmt:     TagErrorStmt,
	compiler.KindIf:            TagIf,
	compiler.KindWhile:         TagWhile,
	compiler.KindFor:           TagFor,
	compiler.KindTry:           TagTry,
	compiler.KindExceptHandler: TagExceptHandler,
	compiler.KindWith:          TagWith,
	compiler.KindFunctionDef:   TagFunctionDef,
	compiler.KindClassDef:      TagClassDef,
	compiler.KindArguments:     TagArguments,
	compiler.KindArg:           TagArg,
	compiler.KindBody:          TagBody,
	compiler.KindOrElse:        TagOrElse,
	compiler.KindFinalBody:     TagFinalBody,
	compiler.KindBoolOp:        TagBoolOp,
	compiler.KindBinOp:         TagBinOp,
	compiler.KindUnaryOp:       TagUnaryOp,
	compiler.KindCompare:       TagCompare,
	compiler.KindIfExp:         TagIfExp,
	compiler.KindLambda:        TagLambda,
	compiler.KindCall:          TagCall,
	compiler.KindKeyword:       TagKeyword,
	compiler.KindStarred:       TagStarred,
	compiler.KindAttribute:     TagAttribute,
	compiler.KindSubscript:     TagSubscript,
	compiler.KindSlice:         TagSlice,
	compiler.KindEllipsis:      TagEllipsis,
	compiler.KindEmpty:         TagEmpty,
	compiler.KindErrorExpr:     TagErrorExpr,
	compiler.KindName:          TagName,
	compiler.KindNum:           TagNum,
	compiler.KindStr:           TagStr,
	compiler.KindTuple:         TagTuple,
	compiler.KindList:          TagList,
	compiler.KindDict:          TagDict,
	compiler.KindSet:           TagSet,
}

// TagOf returns the frozen tag of kind.
func TagOf(kind compiler.Kind) (byte, bool) {
	tag, ok := kindTags[kind]
	return tag, ok
}
