package generator

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ifabos/go-idlmap/cls"
	"github.com/ifabos/go-idlmap/errors"
	"github.com/ifabos/go-idlmap/logger"
	"github.com/ifabos/go-idlmap/mapping"
)

// DefaultMaxDepth bounds the nesting of type definitions that must be
// completed before an enclosing definition can continue
const DefaultMaxDepth = 256

// Stats summarizes a generation run
type Stats struct {
	Artifacts    int
	ForwardDecls int
	Includes     int
	MaxDepth     int
}

// Option configures a Generator
type Option func(*Generator)

// WithMaxDepth sets the nesting limit; values below 1 keep the default
func WithMaxDepth(depth int) Option {
	return func(g *Generator) {
		if depth > 0 {
			g.maxDepth = depth
		}
	}
}

// WithAnonymousSequences controls whether inline field sequences depend on
// their element type instead of the sequence itself
func WithAnonymousSequences(enabled bool) Option {
	return func(g *Generator) {
		g.manager.Analyzer().SetAnonymousSequences(enabled)
	}
}

// WithLogger replaces the session logger
func WithLogger(log *zap.SugaredLogger) Option {
	return func(g *Generator) {
		g.log = log
	}
}

// Generator is one CLS to IDL generation session. It owns the registry of
// mapped types and the work queue; sessions share nothing.
type Generator struct {
	id         string
	classifier *mapping.Classifier
	manager    *DependencyManager
	out        ArtifactWriter
	log        *zap.SugaredLogger

	refAnon   referencer
	refNoAnon referencer

	maxDepth int
	depth    int
	draining bool
	stats    Stats
}

// New creates a generation session writing artifacts to out
func New(classifier *mapping.Classifier, out ArtifactWriter, opts ...Option) *Generator {
	g := &Generator{
		id:         uuid.NewString(),
		classifier: classifier,
		manager:    NewDependencyManager(classifier),
		out:        out,
		refAnon:    referencer{classifier: classifier, anonSeq: true},
		refNoAnon:  referencer{classifier: classifier},
		maxDepth:   DefaultMaxDepth,
	}
	g.log = logger.Named("generator")
	for _, opt := range opts {
		opt(g)
	}
	g.log = g.log.With(logger.FieldSessionID, g.id)
	return g
}

// ID returns the session id
func (g *Generator) ID() string {
	return g.id
}

// Manager returns the dependency manager of the session
func (g *Generator) Manager() *DependencyManager {
	return g.manager
}

// Stats returns counters of the run so far
func (g *Generator) Stats() Stats {
	return g.stats
}

// MapType maps t used with attrs and every type it transitively depends on.
// Mapping an already mapped type is a no-op. MapType may be called again
// while a mapping is in progress; the types discovered are then mapped by
// the outermost call.
func (g *Generator) MapType(t *cls.Type, attrs cls.AttributeSet) error {
	info, err := g.manager.Info(t, attrs)
	if err != nil {
		return errors.Wrapf(err, "failed to classify %s", t.FullName())
	}
	if err := g.mapInfo(info); err != nil {
		return err
	}
	if g.depth > 0 || g.draining {
		return nil
	}
	return g.drain()
}

// MapTypes maps each of types with its own attributes
func (g *Generator) MapTypes(types []*cls.Type) error {
	for _, t := range types {
		if err := g.MapType(t, cls.EmptyAttributes); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) mapInfo(info MapTypeInfo) error {
	if g.manager.CheckMapped(info) {
		return nil
	}
	switch info.Kind {
	case mapping.KindUnion:
		return errors.Unsupportedf("only types produced from IDL are mapped to an IDL union, %s is not mapped", info.Type.FullName())
	case mapping.KindUnmappable:
		return errors.Unsupportedf("type %s is not mappable to IDL", info.Type.FullName())
	}
	if g.depth >= g.maxDepth {
		return errors.Mark(errors.Newf("mapping %s exceeds the nesting limit of %d", info, g.maxDepth), errors.ErrDepthExceeded)
	}
	if err := g.classifier.ValidateBase(info.Type, info.Kind); err != nil {
		return err
	}

	g.depth++
	if g.depth > g.stats.MaxDepth {
		g.stats.MaxDepth = g.depth
	}
	err := g.define(info)
	g.depth--
	return err
}

// drain maps queued types until the queue is empty. Forward declared types
// are mapped here, so they do not add to the nesting depth.
func (g *Generator) drain() error {
	g.draining = true
	defer func() { g.draining = false }()
	for {
		next, ok := g.manager.GetNextTypeToMap()
		if !ok {
			return nil
		}
		g.log.Debugw("map queued type", logger.FieldType, next.String(), logger.FieldPending, g.manager.Pending())
		if err := g.mapInfo(next); err != nil {
			return err
		}
	}
}

// unitName returns the module path and IDL name of the definition for info
func (g *Generator) unitName(info MapTypeInfo) ([]string, string, mapping.Result, error) {
	res, err := g.classifier.Classify(info.Type, info.Attributes)
	if err != nil {
		return nil, "", res, err
	}
	switch info.Kind {
	case mapping.KindSequence:
		elem, err := g.refNoAnon.ref(res.Type.Elem, res.Attrs)
		if err != nil {
			return nil, "", res, err
		}
		return mapping.SequenceTypedefModules, mapping.SequenceAlias(res.Bound, elem), res, nil
	case mapping.KindArray:
		elem, err := g.refNoAnon.ref(res.Type.Elem, res.Attrs)
		if err != nil {
			return nil, "", res, err
		}
		return mapping.ArrayTypedefModules, mapping.ArrayAlias(res.Dims, elem), res, nil
	}
	return mapping.Modules(info.Type), mapping.TypeName(info.Type), res, nil
}

// define writes the artifact of info. The type is registered before its
// dependencies are mapped, so a cycle leading back to it sees it as mapped.
func (g *Generator) define(info MapTypeInfo) (err error) {
	modules, name, res, err := g.unitName(info)
	if err != nil {
		return err
	}
	depInfo, err := g.manager.GetDependencyInformation(info)
	if err != nil {
		return err
	}

	file := mapping.FileFor(modules, name)
	out, err := g.out.Create(file)
	if err != nil {
		return err
	}
	closed := false
	defer func() {
		if closed {
			return
		}
		if cerr := out.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "failed to close %s", file)
		}
	}()

	u := &unit{info: info, res: res, modules: modules, name: name, w: &idlWriter{w: out}}
	g.log.Debugw("begin type", logger.FieldType, info.String(), logger.FieldKind, info.Kind.String(), logger.FieldFile, file, logger.FieldDepth, g.depth)

	u.w.line("// auto-generated IDL file by CLS to IDL mapper")
	u.w.line("")
	u.w.line("// " + file)
	u.w.line("")

	if err := g.manager.RegisterMappedType(info, file); err != nil {
		return err
	}
	g.stats.Artifacts++

	fwdRefs, err := g.beforeTypeDefinition(u, depInfo)
	if err != nil {
		return err
	}

	guard := mapping.GuardName(modules, name)
	u.w.line("#ifndef " + guard)
	u.w.line("#define " + guard)
	u.w.moduleOpenings(modules)
	if err := g.writeBody(u); err != nil {
		return errors.Wrapf(err, "failed to map %s", info.Type.FullName())
	}
	u.w.closeScopes(len(modules))

	if err := g.endTypeDefinition(u, fwdRefs); err != nil {
		return err
	}
	u.w.line("#endif")
	if u.w.err != nil {
		return errors.Wrapf(u.w.err, "failed to write %s", file)
	}

	closed = true
	if err := out.Close(); err != nil {
		return errors.Wrapf(err, "failed to close %s", file)
	}
	g.log.Debugw("end type", logger.FieldType, info.String(), logger.FieldFile, file)

	g.manager.CompleteMappedType(info)
	// queues the forward declared types among the others
	g.manager.RegisterNotMapped(depInfo)
	return nil
}

// beforeTypeDefinition maps the types needed before the definition and
// writes forward declarations and includes. It returns the forward declared types.
func (g *Generator) beforeTypeDefinition(u *unit, depInfo *DependencyInformation) ([]MapTypeInfo, error) {
	if err := g.mapAll(depInfo.TypesToMapBeforeType()); err != nil {
		return nil, err
	}

	fwdRefs := depInfo.NeededForwardRefs()
	for _, ref := range fwdRefs {
		g.log.Debugw("write forward declaration", logger.FieldType, ref.String(), logger.FieldFile, u.name)
		if err := writeForwardDecl(u.w, ref); err != nil {
			return nil, err
		}
		g.stats.ForwardDecls++
	}

	u.w.line(`#include "orb.idl"`)
	u.w.line(`#include "Predef.idl"`)
	u.w.line("")
	if err := g.writeIncludes(u, depInfo.TypesToIncludeBeforeType()); err != nil {
		return nil, err
	}
	return fwdRefs, nil
}

// endTypeDefinition includes the artifacts of the forward declared types.
// They are mapped later from the work queue.
func (g *Generator) endTypeDefinition(u *unit, fwdRefs []MapTypeInfo) error {
	u.w.line("")
	return g.writeIncludes(u, fwdRefs)
}

func (g *Generator) mapAll(infos []MapTypeInfo) error {
	for _, info := range infos {
		if g.manager.CheckMapped(info) {
			continue
		}
		if err := g.mapInfo(info); err != nil {
			return err
		}
	}
	return nil
}

// fileFor returns the artifact defining info, also for a type that is only
// queued yet
func (g *Generator) fileFor(info MapTypeInfo) (string, error) {
	if g.manager.CheckMapped(info) {
		return g.manager.IdlFileFor(info)
	}
	modules, name, _, err := g.unitName(info)
	if err != nil {
		return "", err
	}
	return mapping.FileFor(modules, name), nil
}

func (g *Generator) writeIncludes(u *unit, infos []MapTypeInfo) error {
	for _, info := range infos {
		if err := writeInclude(u.w, g.fileFor, info); err != nil {
			return err
		}
		g.stats.Includes++
	}
	return nil
}
