// Package compiler builds CLS types from IDL specifications: a symbol table
// pass declares and checks all names, a second pass builds the types
// through the TypeManager, completing forward declared types in place.
package compiler

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ifabos/go-idlmap/cls"
	"github.com/ifabos/go-idlmap/errors"
	"github.com/ifabos/go-idlmap/idl"
	"github.com/ifabos/go-idlmap/logger"
)

// Option configures a Compiler
type Option func(*Compiler)

// WithRefLibraries sets the libraries whose types are referenced instead of built
func WithRefLibraries(refs *RefLibraries) Option {
	return func(c *Compiler) {
		c.refs = refs
	}
}

// WithLogger replaces the session logger
func WithLogger(log *zap.SugaredLogger) Option {
	return func(c *Compiler) {
		c.log = log
	}
}

// Compiler is an IDL to CLS compilation session. Units compiled by the
// same session see the types built by the units before them.
type Compiler struct {
	id    string
	refs  *RefLibraries
	units []*cls.Universe
	log   *zap.SugaredLogger
}

// New creates a compilation session
func New(opts ...Option) *Compiler {
	c := &Compiler{id: uuid.NewString()}
	c.log = logger.Named("compiler")
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With(logger.FieldSessionID, c.id)
	return c
}

// SessionID returns the id attached to the session's log entries
func (c *Compiler) SessionID() string {
	return c.id
}

// Compile builds the types of one parsed unit and returns them in the order
// they were completed
func (c *Compiler) Compile(spec *idl.Specification) ([]*cls.Type, error) {
	log := c.log.With(logger.FieldUnit, spec.Name)
	log.Debugw("compiling unit")

	decls, err := buildSymbolTable(spec)
	if err != nil {
		return nil, errors.Wrapf(err, "unit %s", spec.Name)
	}

	module := cls.NewUniverse()
	manager := NewTypeManager(module, append([]*cls.Universe(nil), c.units...), c.refs)

	// forward declarations completed elsewhere are fine
	for _, sym := range decls.table.Top().ForwardOnly() {
		if !manager.CheckSkip(sym.FullName(), sym.RepositoryID()) {
			return nil, errors.InvalidInputf("unit %s: type only forward declared: %s", spec.Name, sym.ScopedName())
		}
	}

	gen := &metadataGenerator{decls: decls, manager: manager, log: log}
	if err := gen.generate(spec.Root.Definitions); err != nil {
		return nil, errors.Wrapf(err, "unit %s", spec.Name)
	}
	if err := manager.AssertAllTypesDefined(); err != nil {
		return nil, err
	}

	c.units = append(c.units, module)
	types := manager.Types()
	log.Debugw("unit compiled", logger.FieldCount, len(types))
	return types, nil
}

// CompileFile parses and compiles the IDL file at path
func (c *Compiler) CompileFile(path string, includeDirs ...string) ([]*cls.Type, error) {
	spec, err := idl.ParseFile(path, includeDirs...)
	if err != nil {
		return nil, err
	}
	return c.Compile(spec)
}

// Types returns the types of all compiled units
func (c *Compiler) Types() []*cls.Type {
	var types []*cls.Type
	for _, unit := range c.units {
		types = append(types, unit.Types()...)
	}
	return types
}

// Module returns a universe holding the types of all compiled units
func (c *Compiler) Module() (*cls.Universe, error) {
	u := cls.NewUniverse()
	for _, t := range c.Types() {
		if err := u.Add(t); err != nil {
			return nil, err
		}
	}
	return u, nil
}
