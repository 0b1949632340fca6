package converter

import "github.com/ozontech/jrpc/model"

// AreCompatible reports whether a wire value of kind src may be bound to a
// parameter declared with kind dst. It never looks at the value itself.
func AreCompatible(src, dst model.Kind) bool {
	switch src {
	case model.KindNumber:
		return true
	case model.KindBoolean:
		return dst == model.KindBoolean || dst == model.KindObject
	case model.KindNull, model.KindString:
		return dst == model.KindString || dst == model.KindObject
	case model.KindObject:
		return dst == model.KindObject
	case model.KindArray:
		return dst == model.KindArray || dst == model.KindObject
	default:
		return false
	}
}

// IsExact reports a match that needs no fallback coercion.
func IsExact(src, dst model.Kind) bool {
	return src != model.KindNull && src == dst
}
