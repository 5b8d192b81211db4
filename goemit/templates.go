package goemit

// Template for a Go file holding the types of one namespace
const fileTemplate = `// Code generated by idlmap. DO NOT EDIT.
// Namespace: {{.Namespace}}

package {{.Package}}

{{if .NeedsFmt}}import "fmt"{{end}}

{{range .Decls}}
{{- if eq .Kind "interface"}}{{template "interface" .}}
{{- else if eq .Kind "enum"}}{{template "enum" .}}
{{- else if eq .Kind "boxed"}}{{template "boxed" .}}
{{- else}}{{template "struct" .}}
{{- end}}
{{end}}
`

// Template for a Go interface from an IDL interface or abstract value type
const interfaceTemplate = `
// {{.Name}}RepositoryID is the repository id of {{.Name}}
const {{.Name}}RepositoryID = "{{.RepositoryID}}"

// {{.Name}} is the IDL {{.Doc}} {{.Type.FullName}}
type {{.Name}} interface {
	{{- range .Embeds}}
	{{.}}
	{{- end}}
	{{- range .Type.Properties}}
	{{exported .Name}}() {{goType .Type}}
	{{- if .CanWrite}}
	Set{{exported .Name}}(value {{goType .Type}})
	{{- end}}
	{{- end}}
	{{- range .Type.Methods}}
	{{exported .Name}}({{params .}}) {{results .}}
	{{- end}}
}
`

// Template for a Go struct from an IDL struct, exception or concrete value type
const structTemplate = `
// {{.Name}}RepositoryID is the repository id of {{.Name}}
const {{.Name}}RepositoryID = "{{.RepositoryID}}"

// {{.Name}} is the IDL {{.Doc}} {{.Type.FullName}}
type {{.Name}} struct {
	{{- range .Embeds}}
	{{.}}
	{{- end}}
	{{- range .Fields}}
	{{.Name}} {{.Type}}
	{{- end}}
}
{{- if eq .Kind "exception"}}

// Error implements the error interface
func (e *{{.Name}}) Error() string {
	return {{.Name}}RepositoryID
}
{{- end}}
{{- if .Type.Methods}}

// {{.Name}}Operations are the operations an implementation of {{.Name}} provides
type {{.Name}}Operations interface {
	{{- range .Type.Methods}}
	{{exported .Name}}({{params .}}) {{results .}}
	{{- end}}
}
{{- end}}
`

// Template for a Go enum from an IDL enum
const enumTemplate = `
// {{.Name}}RepositoryID is the repository id of {{.Name}}
const {{.Name}}RepositoryID = "{{.RepositoryID}}"

// {{.Name}} is the IDL enum {{.Type.FullName}}
type {{.Name}} int32

const (
	{{- range $i, $e := .Type.EnumValues}}
	{{- if eq $i 0}}
	{{$.Name}}_{{$e}} {{$.Name}} = iota
	{{- else}}
	{{$.Name}}_{{$e}}
	{{- end}}
	{{- end}}
)

// String converts the enum to a string
func (e {{.Name}}) String() string {
	names := []string{
		{{- range .Type.EnumValues}}
		"{{.}}",
		{{- end}}
	}
	if e < 0 || int(e) >= len(names) {
		return fmt.Sprintf("{{.Name}}(%d)", e)
	}
	return names[e]
}
`

// Template for a Go struct from an IDL boxed value type
const boxedTemplate = `
// {{.Name}}RepositoryID is the repository id of {{.Name}}
const {{.Name}}RepositoryID = "{{.RepositoryID}}"

// {{.Name}} is the IDL boxed value type {{.Type.FullName}}
type {{.Name}} struct {
	Value {{.Boxed}}
}
`
