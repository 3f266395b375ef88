package parser

import "github.com/oisee/minicc/pkg/types"

// baseTypes maps a type-name token's spelling to its basic kind, per
// kw.py's type_names table. The "intN"/"uintN" naming gives N in
// bytes, not bits (int1 is one byte = s8, int8 is eight bytes = s64) —
// preserved exactly as the source spells it rather than renamed to a
// bit-width convention, since a reader cross-checking against
// original_source/kw.py should find the same names.
var baseTypes = map[string]types.Kind{
	"void": types.Void,

	"float4": types.F32,
	"float8": types.F64,

	"int8": types.S64,
	"int4": types.S32,
	"int2": types.S16,
	"int1": types.S8,

	"uint8": types.U64,
	"uint4": types.U32,
	"uint2": types.U16,
	"uint1": types.U8,

	"float8_2": types.V2F64,
	"float4_4": types.V4F32,

	"int8_2":  types.V2S64,
	"int4_4":  types.V4S32,
	"int2_8":  types.V8S16,
	"int1_16": types.V16S8,
}

// typeFromName resolves a TypeName token's spelling to a level-0 type.
func typeFromName(name string) (types.Type, bool) {
	k, ok := baseTypes[name]
	if !ok {
		return types.Type{}, false
	}
	return types.Scalar(k), true
}
