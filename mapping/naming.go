package mapping

import (
	"strconv"
	"strings"

	"github.com/ifabos/go-idlmap/cls"
)

// Namespaces of the synthesized typedefs for sequences and fixed arrays
var (
	SequenceTypedefModules = []string{"org", "omg", "seqTypeDef"}
	ArrayTypedefModules    = []string{"org", "omg", "arrayTypeDef"}
)

// BoxedArrayNamespace is the namespace of boxed value types created for plain arrays
const BoxedArrayNamespace = "org.omg.boxedRMI"

// IdlVersion is the version suffix of generated repository ids
const IdlVersion = "1.0"

var idlKeywords = keywordSet(
	"abstract", "any", "attribute", "boolean", "case", "char", "const", "context",
	"custom", "default", "double", "enum", "exception", "factory", "FALSE", "fixed",
	"float", "in", "inout", "interface", "local", "long", "module", "native", "Object",
	"octet", "oneway", "out", "private", "public", "raises", "readonly", "sequence",
	"short", "string", "struct", "supports", "switch", "TRUE", "truncatable",
	"typedef", "unsigned", "union", "ValueBase", "valuetype", "void", "wchar",
	"wstring", "System",
)

var clsKeywords = keywordSet(
	"AddHandler", "AddressOf", "Alias", "And", "Ansi", "As", "Assembly", "Auto",
	"Base", "Boolean", "bool", "ByRef", "Byte", "ByVal", "Call", "Case", "Catch",
	"CBool", "CByte", "CChar", "CDate", "CDec", "CDbl", "Char", "CInt", "Class",
	"CLng", "CObj", "Const", "CShort", "CSng", "CStr", "CType", "Date", "Decimal",
	"Declare", "Default", "Delegate", "Dim", "Do", "Double", "Each", "Else", "ElseIf",
	"End", "Enum", "Erase", "Error", "Event", "Exit", "ExternalSource", "False",
	"Finalize", "Finally", "Float", "For", "foreach", "Friend", "Function", "Get",
	"GetType", "Goto", "Handles", "If", "Implements", "Imports", "In", "Inherits",
	"Integer", "int", "Interface", "Is", "Let", "Lib", "Like", "lock", "Long", "Loop",
	"Me", "Mod", "Module", "MustInherit", "MustOverride", "MyBase", "MyClass",
	"Namespace", "New", "Next", "Not", "Nothing", "NotInheritable", "NotOverridable",
	"Object", "On", "Option", "Optional", "Or", "Overloads", "Overridable", "override",
	"Overrides", "ParamArray", "Preserve", "Private", "Property", "Protected", "Public",
	"RaiseEvent", "ReadOnly", "ReDim", "Region", "REM", "RemoveHandler", "Resume",
	"Return", "Select", "Set", "Shadows", "Shared", "Short", "Single", "Static", "Step",
	"Stop", "String", "Structure", "struct", "Sub", "SyncLock", "Then", "Throw", "To",
	"True", "Try", "TypeOf", "Unicode", "Until", "volatile", "When", "While", "With",
	"WithEvents", "WriteOnly", "Xor", "eval", "extends", "instanceof", "package", "var",
)

// keywords compare case insensitively
func keywordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[strings.ToLower(w)] = struct{}{}
	}
	return set
}

// ClashesWithIdlKeyword reports whether name collides with an IDL keyword
func ClashesWithIdlKeyword(name string) bool {
	_, ok := idlKeywords[strings.ToLower(name)]
	return ok
}

// ClashesWithClsKeyword reports whether name collides with a CLS language keyword
func ClashesWithClsKeyword(name string) bool {
	_, ok := clsKeywords[strings.ToLower(name)]
	return ok
}

// ClsToIdlName maps a simple CLS name to an IDL identifier
func ClsToIdlName(name string) string {
	if ClashesWithIdlKeyword(name) {
		return "_" + name
	}
	if strings.HasPrefix(name, "_") {
		return "N" + name
	}
	return name
}

// IdlToClsName maps a simple IDL identifier to a CLS name
func IdlToClsName(name string) string {
	if name == "" {
		return name
	}
	first := name[0]
	isLetter := (first >= 'a' && first <= 'z') || (first >= 'A' && first <= 'Z')
	if ClashesWithClsKeyword(name) || !(isLetter || first == '_') {
		return "_" + name
	}
	return name
}

// ReverseIdlToClsName recovers the IDL name of a type that was mapped from IDL
func ReverseIdlToClsName(name string) string {
	return strings.TrimPrefix(name, "_")
}

// Modules returns the IDL module path of a type
func Modules(t *cls.Type) []string {
	if t.Namespace == "" {
		return nil
	}
	parts := strings.Split(t.Namespace, ".")
	modules := make([]string, len(parts))
	for i, p := range parts {
		if t.IdlEntity {
			modules[i] = ReverseIdlToClsName(p)
		} else {
			modules[i] = ClsToIdlName(p)
		}
	}
	return modules
}

// TypeName returns the unqualified IDL name of a type
func TypeName(t *cls.Type) string {
	name := strings.ReplaceAll(t.Name, "+", "_")
	if t.IdlEntity {
		return ReverseIdlToClsName(name)
	}
	return ClsToIdlName(name)
}

// ScopedName joins modules and name into an absolute scoped IDL name
func ScopedName(modules []string, name string) string {
	var b strings.Builder
	for _, m := range modules {
		b.WriteString("::")
		b.WriteString(m)
	}
	b.WriteString("::")
	b.WriteString(name)
	return b.String()
}

// TypeScopedName returns the absolute scoped IDL name of a type, e.g. ::a::b::Test
func TypeScopedName(t *cls.Type) string {
	return ScopedName(Modules(t), TypeName(t))
}

// RepositoryID returns the repository id of a type. A RepositoryID attribute wins.
func RepositoryID(t *cls.Type) string {
	if attr, ok := t.Attributes.Get(cls.AttrRepositoryID); ok && attr.Value != "" {
		return attr.Value
	}
	return RepositoryIDFor(Modules(t), TypeName(t))
}

// RepositoryIDFor builds a repository id from an IDL module path and a name
func RepositoryIDFor(modules []string, name string) string {
	parts := append(append([]string(nil), modules...), name)
	return "IDL:" + strings.Join(parts, "/") + ":" + IdlVersion
}

// FileFor returns the relative artifact path for a definition
func FileFor(modules []string, name string) string {
	parts := append(append([]string(nil), modules...), name+".idl")
	return strings.Join(parts, "/")
}

// GuardName returns the name of the #ifndef guard for a definition
func GuardName(modules []string, name string) string {
	parts := append(append([]string(nil), modules...), name)
	return "__" + strings.Join(parts, "_") + "__"
}

// flattenReference turns a scoped IDL type reference into an identifier part
func flattenReference(ref string) string {
	ref = strings.ReplaceAll(ref, " ", "_")
	return strings.ReplaceAll(ref, "::", "__")
}

// MethodName maps a method name. Overloaded methods are mangled with the
// flattened IDL names of their parameter types.
func MethodName(name string, overloaded bool, paramRefs []string) string {
	result := ClsToIdlName(name)
	if !overloaded {
		return result
	}
	if len(paramRefs) == 0 {
		return result + "__"
	}
	for _, ref := range paramRefs {
		result += "__" + flattenReference(ref)
	}
	return result
}

// SequenceAlias returns the typedef name for a sequence of elemRef with the given bound
func SequenceAlias(bound int, elemRef string) string {
	elem := strings.ReplaceAll(elemRef, ":", "_")
	elem = strings.ReplaceAll(elem, " ", "_")
	return "seqTd" + strconv.Itoa(bound) + "_" + elem
}

// ArrayAlias returns the typedef name for a fixed array of elemRef
func ArrayAlias(dims []int, elemRef string) string {
	var b strings.Builder
	b.WriteString("arrayTd")
	for _, d := range dims {
		b.WriteString("_")
		b.WriteString(strconv.Itoa(d))
	}
	elem := strings.ReplaceAll(elemRef, ":", "_")
	elem = strings.ReplaceAll(elem, " ", "_")
	b.WriteString("_")
	b.WriteString(elem)
	return b.String()
}

// PrimitiveName returns the IDL name of a primitive type. The wide flag selects
// wchar/wstring for chars and strings.
func PrimitiveName(t *cls.Type, wide bool) (string, bool) {
	switch t {
	case cls.Int16:
		return "short", true
	case cls.Int32:
		return "long", true
	case cls.Int64:
		return "long long", true
	case cls.UInt16:
		return "unsigned short", true
	case cls.UInt32:
		return "unsigned long", true
	case cls.UInt64:
		return "unsigned long long", true
	case cls.Byte, cls.SByte:
		return "octet", true
	case cls.Boolean:
		return "boolean", true
	case cls.Void:
		return "void", true
	case cls.Single:
		return "float", true
	case cls.Double:
		return "double", true
	case cls.Char:
		if wide {
			return "wchar", true
		}
		return "char", true
	case cls.String:
		if wide {
			return "wstring", true
		}
		return "string", true
	}
	return "", false
}
