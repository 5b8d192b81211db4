package goemit

import (
	"go/token"
	"sort"
	"strings"

	"github.com/ifabos/go-idlmap/cls"
)

// goBuiltins maps the builtin CLS types to Go types
var goBuiltins = map[*cls.Type]string{
	cls.Boolean:            "bool",
	cls.Byte:               "byte",
	cls.SByte:              "int8",
	cls.Int16:              "int16",
	cls.Int32:              "int32",
	cls.Int64:              "int64",
	cls.UInt16:             "uint16",
	cls.UInt32:             "uint32",
	cls.UInt64:             "uint64",
	cls.Single:             "float32",
	cls.Double:             "float64",
	cls.Char:               "rune",
	cls.String:             "string",
	cls.Object:             "any",
	cls.MarshalByRefObject: "any",
	cls.TypeCode:           "any",
	cls.TypeType:           "any",
	cls.StringValue:        "*string",
	cls.WStringValue:       "*string",
}

// capitalize returns a string with first letter capitalized
func capitalize(s string) string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// uncapitalize returns a string with first letter lowercased
func uncapitalize(s string) string {
	if s == "" {
		return ""
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// exported turns a CLS member name into an exported Go identifier
func exported(name string) string {
	return capitalize(strings.TrimLeft(name, "_"))
}

// local turns a CLS member name into an unexported Go identifier
func local(name string) string {
	id := uncapitalize(strings.TrimLeft(name, "_"))
	if id == "" || token.IsKeyword(id) {
		return id + "_"
	}
	return id
}

// qualified returns the Go identifier of a type including its namespace,
// e.g. Shop_Item for shop.Item
func qualified(t *cls.Type) string {
	var parts []string
	for _, seg := range strings.FieldsFunc(t.Namespace, func(r rune) bool { return r == '.' }) {
		parts = append(parts, exported(seg))
	}
	return strings.Join(append(parts, exported(t.Name)), "_")
}

// nameTable assigns Go identifiers to the emitted types. A type keeps its
// simple name unless another emitted type has the same one.
type nameTable map[*cls.Type]string

func newNameTable(types []*cls.Type) nameTable {
	bySimple := make(map[string][]*cls.Type)
	for _, t := range types {
		simple := exported(t.Name)
		bySimple[simple] = append(bySimple[simple], t)
	}
	names := make(nameTable, len(types))
	for simple, clash := range bySimple {
		for _, t := range clash {
			if len(clash) == 1 {
				names[t] = simple
			} else {
				names[t] = qualified(t)
			}
		}
	}
	return names
}

// goType returns the Go type used for a reference to t
func (n nameTable) goType(t *cls.Type) string {
	if t == nil || t == cls.Void {
		return ""
	}
	if builtin, ok := goBuiltins[t]; ok {
		return builtin
	}
	switch t.Category {
	case cls.Array:
		return "[]" + n.goType(t.Elem)
	case cls.ByRef:
		return n.goType(t.Elem)
	}
	name, ok := n[t]
	if !ok {
		// not emitted, e.g. from a referenced library
		return "any"
	}
	switch {
	case t.IsInterface(), t.Category == cls.Enum, t.Category == cls.Struct:
		return name
	}
	return "*" + name
}

// fileName returns the file the types of a namespace are written to
func fileName(namespace string) string {
	if namespace == "" {
		return "types.go"
	}
	name := strings.ToLower(strings.NewReplacer(".", "_", "-", "_").Replace(namespace))
	return name + ".go"
}

// byNamespace groups types by namespace, keeping their order within a group
func byNamespace(types []*cls.Type) ([]string, map[string][]*cls.Type) {
	groups := make(map[string][]*cls.Type)
	for _, t := range types {
		groups[t.Namespace] = append(groups[t.Namespace], t)
	}
	namespaces := make([]string, 0, len(groups))
	for ns := range groups {
		namespaces = append(namespaces, ns)
	}
	sort.Strings(namespaces)
	return namespaces, groups
}
