// Package goemit renders compiled CLS types as Go declarations, one file
// per namespace.
package goemit

import (
	"bytes"
	"go/format"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"go.uber.org/zap"
	"golang.org/x/tools/imports"

	"github.com/ifabos/go-idlmap/cls"
	"github.com/ifabos/go-idlmap/errors"
	"github.com/ifabos/go-idlmap/logger"
)

// DefaultPackage is the package name of generated files unless set otherwise
const DefaultPackage = "generated"

// Emitter generates Go code from compiled CLS types
type Emitter struct {
	outputDir   string
	packageName string
	templates   *template.Template
	log         *zap.SugaredLogger
}

// New creates a Go emitter writing to outputDir
func New(outputDir string) *Emitter {
	return &Emitter{
		outputDir:   outputDir,
		packageName: DefaultPackage,
		log:         logger.Named("goemit"),
	}
}

// SetPackageName sets the Go package name to use for generated code
func (e *Emitter) SetPackageName(name string) {
	if name != "" {
		e.packageName = name
	}
}

// Emit writes one Go file per namespace and returns the written paths
func (e *Emitter) Emit(types []*cls.Type) ([]string, error) {
	files, err := e.Render(types)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(e.outputDir, 0755); err != nil {
		return nil, errors.Wrapf(err, "failed to create output directory %s", e.outputDir)
	}
	namespaces, _ := byNamespace(types)
	paths := make([]string, 0, len(files))
	for _, ns := range namespaces {
		path := filepath.Join(e.outputDir, fileName(ns))
		if err := os.WriteFile(path, files[fileName(ns)], 0644); err != nil {
			return nil, errors.Wrapf(err, "failed to write %s", path)
		}
		e.log.Debugw("wrote go file", logger.FieldFile, path)
		paths = append(paths, path)
	}
	return paths, nil
}

// Render returns the formatted Go source per file name without writing it
func (e *Emitter) Render(types []*cls.Type) (map[string][]byte, error) {
	names := newNameTable(types)
	if err := e.initTemplates(names); err != nil {
		return nil, err
	}
	namespaces, groups := byNamespace(types)

	files := make(map[string][]byte, len(namespaces))
	for _, ns := range namespaces {
		data := fileData{Package: e.packageName, Namespace: ns}
		for _, t := range groups[ns] {
			d, err := names.decl(t)
			if err != nil {
				return nil, err
			}
			if d.Kind == "enum" {
				data.NeedsFmt = true
			}
			data.Decls = append(data.Decls, d)
		}

		var buf bytes.Buffer
		if err := e.templates.ExecuteTemplate(&buf, "file", data); err != nil {
			return nil, errors.Wrapf(err, "failed to render namespace %s", ns)
		}
		name := fileName(ns)
		formatted, err := e.format(name, buf.Bytes())
		if err != nil {
			return nil, err
		}
		files[name] = formatted
	}
	return files, nil
}

func (e *Emitter) format(name string, src []byte) ([]byte, error) {
	formatted, err := imports.Process(name, src, nil)
	if err == nil {
		return formatted, nil
	}
	e.log.Debugw("goimports failed, falling back to go/format", logger.FieldFile, name, logger.FieldError, err)
	formatted, err = format.Source(src)
	if err != nil {
		// keep the unformatted code for debugging
		if e.outputDir != "" {
			if mkErr := os.MkdirAll(e.outputDir, 0755); mkErr == nil {
				_ = os.WriteFile(filepath.Join(e.outputDir, name+".unformatted"), src, 0644)
			}
		}
		return nil, errors.Wrapf(err, "failed to format generated code for %s", name)
	}
	return formatted, nil
}

// Initialize the templates used for code generation
func (e *Emitter) initTemplates(names nameTable) error {
	e.templates = template.New("go").Funcs(template.FuncMap{
		"exported": exported,
		"goType":   names.goType,
		"params":   names.params,
		"results":  names.results,
	})

	for _, tmpl := range []struct {
		name string
		text string
	}{
		{"file", fileTemplate},
		{"interface", interfaceTemplate},
		{"struct", structTemplate},
		{"enum", enumTemplate},
		{"boxed", boxedTemplate},
	} {
		if _, err := e.templates.New(tmpl.name).Parse(tmpl.text); err != nil {
			return errors.Wrapf(err, "failed to parse template %s", tmpl.name)
		}
	}
	return nil
}

type fileData struct {
	Package   string
	Namespace string
	NeedsFmt  bool
	Decls     []decl
}

type fieldDecl struct {
	Name string
	Type string
}

// decl is the view of one type handed to the templates
type decl struct {
	Kind         string
	Doc          string
	Name         string
	RepositoryID string
	Type         *cls.Type
	Embeds       []string
	Fields       []fieldDecl
	Boxed        string
}

func (n nameTable) decl(t *cls.Type) (decl, error) {
	d := decl{Name: n[t], RepositoryID: t.RepositoryID(), Type: t}
	switch {
	case t.IsInterface():
		d.Kind, d.Doc = "interface", "interface"
		if attr, ok := t.Attributes.Get(cls.AttrInterfaceType); ok && attr.Value == cls.InterfaceAbstractValue {
			d.Doc = "abstract value type"
		}
		for _, iface := range t.Interfaces {
			if _, ok := n[iface]; ok {
				d.Embeds = append(d.Embeds, n[iface])
			}
		}
	case t.Category == cls.Enum:
		d.Kind = "enum"
	case t.DerivesFrom(cls.BoxedValueBase):
		d.Kind = "boxed"
		if len(t.Fields) != 1 {
			return decl{}, errors.Invariantf("boxed value type %s must have exactly one field", t.FullName())
		}
		d.Boxed = n.goType(t.Fields[0].Type)
	case t.DerivesFrom(cls.Exception):
		d.Kind, d.Doc = "exception", "exception"
		d.Fields = n.fields(t)
	case t.Category == cls.Struct:
		d.Kind, d.Doc = "struct", "struct"
		d.Fields = n.fields(t)
	case t.IsClass():
		d.Kind, d.Doc = "value", "value type"
		if name, ok := n[t.Base]; ok {
			d.Embeds = append(d.Embeds, name)
		}
		d.Fields = n.fields(t)
	default:
		return decl{}, errors.Unsupportedf("type %s of category %s can not be rendered as Go", t.FullName(), t.Category)
	}
	return d, nil
}

func (n nameTable) fields(t *cls.Type) []fieldDecl {
	fields := make([]fieldDecl, 0, len(t.Fields))
	for _, f := range t.Fields {
		name := exported(f.Name)
		if f.Private {
			name = local(f.Name)
		}
		fields = append(fields, fieldDecl{Name: name, Type: n.goType(f.Type)})
	}
	return fields
}

// params returns the parameter list of a method: in and inout parameters
func (n nameTable) params(m *cls.Method) string {
	var params []string
	for _, p := range m.Params {
		if p.Direction == cls.In || p.Direction == cls.InOut {
			params = append(params, local(p.Name)+" "+n.goType(p.Type))
		}
	}
	return strings.Join(params, ", ")
}

// results returns the results of a method: the return value, out and inout
// parameters and an error
func (n nameTable) results(m *cls.Method) string {
	var results []string
	if ret := n.goType(m.Return); ret != "" {
		results = append(results, ret)
	}
	for _, p := range m.Params {
		if p.Direction == cls.Out || p.Direction == cls.InOut {
			results = append(results, n.goType(p.Type))
		}
	}
	if len(results) == 0 {
		return "error"
	}
	return "(" + strings.Join(append(results, "error"), ", ") + ")"
}
