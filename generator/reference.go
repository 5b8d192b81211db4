package generator

import (
	"strconv"

	"github.com/ifabos/go-idlmap/cls"
	"github.com/ifabos/go-idlmap/errors"
	"github.com/ifabos/go-idlmap/mapping"
)

// referencer renders the IDL text used to reference a type from another
// definition. With anonSeq, sequences are written inline as sequence<T>;
// otherwise through their typedef alias.
type referencer struct {
	classifier *mapping.Classifier
	anonSeq    bool
}

func (r referencer) ref(t *cls.Type, attrs cls.AttributeSet) (string, error) {
	res, err := r.classifier.Classify(t, attrs)
	if err != nil {
		return "", err
	}
	return r.refResult(res)
}

func (r referencer) refResult(res mapping.Result) (string, error) {
	switch res.Kind {
	case mapping.KindPrimitive:
		name, ok := mapping.PrimitiveName(res.Type, res.Wide)
		if !ok {
			return "", errors.Invariantf("no IDL name for primitive %s", res.Type.FullName())
		}
		return name, nil
	case mapping.KindAny:
		return "any", nil
	case mapping.KindStringValue:
		return "::CORBA::StringValue", nil
	case mapping.KindWStringValue:
		return "::CORBA::WStringValue", nil
	case mapping.KindValueBase:
		return "::CORBA::ValueBase", nil
	case mapping.KindAbstractBase:
		return "::CORBA::AbstractBase", nil
	case mapping.KindTypeCode, mapping.KindTypeDesc:
		return "::CORBA::TypeCode", nil
	case mapping.KindFlags:
		underlying := res.Type.EnumUnderlying
		if underlying == nil {
			underlying = cls.Int32
		}
		return r.ref(underlying, cls.EmptyAttributes)
	case mapping.KindConcreteInterface:
		if res.Type == cls.MarshalByRefObject {
			return "Object", nil
		}
		return mapping.TypeScopedName(res.Type), nil
	case mapping.KindSequence:
		return r.sequenceRef(res)
	case mapping.KindArray:
		elem, err := referencer{classifier: r.classifier}.ref(res.Type.Elem, res.Attrs)
		if err != nil {
			return "", err
		}
		return mapping.ScopedName(mapping.ArrayTypedefModules, mapping.ArrayAlias(res.Dims, elem)), nil
	case mapping.KindUnmappable:
		return "", errors.Unsupportedf("type %s can not be referenced from IDL", res.Type.FullName())
	}
	return mapping.TypeScopedName(res.Type), nil
}

func (r referencer) sequenceRef(res mapping.Result) (string, error) {
	elem, err := r.ref(res.Type.Elem, res.Attrs)
	if err != nil {
		return "", err
	}
	if !r.anonSeq {
		return mapping.ScopedName(mapping.SequenceTypedefModules, mapping.SequenceAlias(res.Bound, elem)), nil
	}
	if res.Bound > 0 {
		return "sequence<" + elem + ", " + strconv.Itoa(res.Bound) + ">", nil
	}
	return "sequence<" + elem + ">", nil
}
