package idl

import (
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/ifabos/go-idlmap/errors"
)

var (
	includePattern      = regexp.MustCompile(`^#\s*include\s+[<"]([^>"]+)[>"]`)
	pragmaPrefixPattern = regexp.MustCompile(`^#\s*pragma\s+prefix\s+"([^"]*)"`)
	pragmaIDPattern     = regexp.MustCompile(`^#\s*pragma\s+ID\s+([A-Za-z_:][A-Za-z0-9_:]*)\s+"([^"]*)"`)
)

// IncludeHandler opens an included file. Returning a nil reader and no
// error skips the include.
type IncludeHandler func(path string) (io.Reader, error)

// Parser represents an IDL parser that reads and parses IDL files
type Parser struct {
	lexer          *lexer
	currentToken   *token
	rootModule     *Module
	currentModule  *Module
	container      container
	includeHandler IncludeHandler
	included       map[string]bool
}

// NewParser creates a new IDL parser
func NewParser() *Parser {
	rootModule := NewModule("")
	return &Parser{
		rootModule:    rootModule,
		currentModule: rootModule,
		container:     rootModule,
		includeHandler: func(path string) (io.Reader, error) {
			return nil, errors.Unsupportedf("include not supported: %s", path)
		},
		included: make(map[string]bool),
	}
}

// SetIncludeHandler sets a handler for #include directives
func (p *Parser) SetIncludeHandler(handler IncludeHandler) {
	p.includeHandler = handler
}

// Parse parses an IDL file. Parse may be called again to add the
// definitions of another file to the same tree.
func (p *Parser) Parse(reader io.Reader) error {
	p.lexer = newLexer(reader)
	if err := p.nextToken(); err != nil {
		return err
	}
	return p.parseIDLFile()
}

// GetRootModule returns the root module containing all parsed types
func (p *Parser) GetRootModule() *Module {
	return p.rootModule
}

// Specification returns the parse tree under the given unit name
func (p *Parser) Specification(name string) *Specification {
	return &Specification{Name: name, Root: p.rootModule}
}

// ParseFile parses the file at path. Includes are searched next to the
// file and then in includeDirs; includes that cannot be found are skipped.
func ParseFile(path string, includeDirs ...string) (*Specification, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()

	dirs := append([]string{filepath.Dir(path)}, includeDirs...)
	p := NewParser()
	p.SetIncludeHandler(DirIncludeHandler(dirs...))
	if err := p.Parse(f); err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}
	return p.Specification(filepath.Base(path)), nil
}

// DirIncludeHandler resolves includes against dirs in order
func DirIncludeHandler(dirs ...string) IncludeHandler {
	return func(path string) (io.Reader, error) {
		for _, dir := range dirs {
			data, err := os.ReadFile(filepath.Join(dir, path))
			if err == nil {
				return strings.NewReader(string(data)), nil
			}
			if !os.IsNotExist(err) {
				return nil, errors.Wrapf(err, "failed to read include %s", path)
			}
		}
		return nil, nil
	}
}

func (p *Parser) nextToken() error {
	var err error
	p.currentToken, err = p.lexer.nextToken()
	return err
}

func (p *Parser) errorf(format string, args ...interface{}) error {
	return errors.InvalidInputf("line %d: "+format, append([]interface{}{p.currentToken.line}, args...)...)
}

// expect checks the type of the current token and skips it
func (p *Parser) expect(typ tokenType, what string) error {
	if p.currentToken.typ != typ {
		return p.errorf("expected %s, got %s", what, p.describe())
	}
	return p.nextToken()
}

// expectKeyword checks the value of the current token and skips it
func (p *Parser) expectKeyword(keyword string) error {
	if p.currentToken.typ != tokenIdentifier || p.currentToken.value != keyword {
		return p.errorf("expected '%s', got %s", keyword, p.describe())
	}
	return p.nextToken()
}

// identifier returns the current identifier and skips it
func (p *Parser) identifier(what string) (string, error) {
	if p.currentToken.typ != tokenIdentifier {
		return "", p.errorf("expected %s, got %s", what, p.describe())
	}
	name := p.currentToken.value
	return name, p.nextToken()
}

func (p *Parser) is(keyword string) bool {
	return p.currentToken.typ == tokenIdentifier && p.currentToken.value == keyword
}

func (p *Parser) describe() string {
	if p.currentToken.typ == tokenEOF {
		return "end of file"
	}
	return "'" + p.currentToken.value + "'"
}

// scopedName parses a name like A, A::B or ::A::B
func (p *Parser) scopedName(what string) (string, error) {
	var b strings.Builder
	if p.currentToken.typ == tokenScope {
		b.WriteString("::")
		if err := p.nextToken(); err != nil {
			return "", err
		}
	}
	for {
		name, err := p.identifier(what)
		if err != nil {
			return "", err
		}
		b.WriteString(name)
		if p.currentToken.typ != tokenScope {
			return b.String(), nil
		}
		b.WriteString("::")
		if err := p.nextToken(); err != nil {
			return "", err
		}
	}
}

// scopedNameList parses a comma separated list of scoped names
func (p *Parser) scopedNameList(what string) ([]string, error) {
	var names []string
	for {
		name, err := p.scopedName(what)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
		if p.currentToken.typ != tokenComma {
			return names, nil
		}
		if err := p.nextToken(); err != nil {
			return nil, err
		}
	}
}

// parseIDLFile parses definitions up to the end of the input
func (p *Parser) parseIDLFile() error {
	for p.currentToken.typ != tokenEOF {
		if err := p.parseDefinition(); err != nil {
			return err
		}
	}
	return nil
}

// parseDefinition parses one definition allowed in a module
func (p *Parser) parseDefinition() error {
	if p.currentToken.typ == tokenPreprocessor {
		return p.parsePreprocessor()
	}
	if p.currentToken.typ != tokenIdentifier {
		return p.errorf("unexpected token: %s", p.describe())
	}
	switch p.currentToken.value {
	case "module":
		return p.parseModule()
	case "interface":
		return p.parseInterface("")
	case "valuetype":
		return p.parseValueType("")
	case "abstract", "local", "custom":
		modifier := p.currentToken.value
		if err := p.nextToken(); err != nil {
			return err
		}
		if p.is("valuetype") {
			return p.parseValueType(modifier)
		}
		return p.parseInterface(modifier)
	case "native":
		return p.skipDeclaration()
	}
	return p.parseTypeDeclaration()
}

// parseTypeDeclaration parses the declarations allowed in modules and
// inside interfaces and value types
func (p *Parser) parseTypeDeclaration() error {
	switch p.currentToken.value {
	case "struct":
		return p.parseStruct()
	case "enum":
		return p.parseEnum()
	case "typedef":
		return p.parseTypedef()
	case "union":
		return p.parseUnion()
	case "const":
		return p.parseConst()
	case "exception":
		return p.parseException()
	}
	return p.errorf("unexpected token: %s", p.describe())
}

// parsePreprocessor handles preprocessor directives. Conditionals and
// defines are ignored; included files are parsed at most once.
func (p *Parser) parsePreprocessor() error {
	directive := p.currentToken.value

	switch {
	case includePattern.MatchString(directive):
		includePath := includePattern.FindStringSubmatch(directive)[1]
		if err := p.parseInclude(includePath); err != nil {
			return err
		}
	case pragmaPrefixPattern.MatchString(directive):
		prefix := pragmaPrefixPattern.FindStringSubmatch(directive)[1]
		p.container.addDefinition(&PragmaPrefix{Prefix: prefix})
	case pragmaIDPattern.MatchString(directive):
		match := pragmaIDPattern.FindStringSubmatch(directive)
		p.container.addDefinition(&PragmaID{Target: match[1], ID: match[2]})
	case strings.HasPrefix(strings.TrimSpace(strings.TrimPrefix(directive, "#")), "pragma"):
		// other pragmas (version) are not used by the mapping
	}
	return p.nextToken()
}

func (p *Parser) parseInclude(includePath string) error {
	if p.included[includePath] {
		return nil
	}
	p.included[includePath] = true

	reader, err := p.includeHandler(includePath)
	if err != nil {
		return errors.Wrapf(err, "failed to handle include %s", includePath)
	}
	if reader == nil {
		return nil
	}

	savedLexer, savedToken := p.lexer, p.currentToken
	p.lexer = newLexer(reader)
	err = p.nextToken()
	if err == nil {
		err = p.parseIDLFile()
	}
	p.lexer, p.currentToken = savedLexer, savedToken
	if err != nil {
		return errors.Wrapf(err, "failed to parse included file %s", includePath)
	}
	return nil
}

// parseModule parses an IDL module
func (p *Parser) parseModule() error {
	if err := p.expectKeyword("module"); err != nil {
		return err
	}
	moduleName, err := p.identifier("module name")
	if err != nil {
		return err
	}

	var module *Module
	if existing, exists := p.currentModule.GetSubmodule(moduleName); exists {
		module = existing.Reopen()
	} else {
		module = p.currentModule.AddSubmodule(moduleName)
	}

	parentModule, parentContainer := p.currentModule, p.container
	p.currentModule, p.container = module, module

	if err := p.expect(tokenOpenBrace, "'{' after module name"); err != nil {
		return err
	}
	for p.currentToken.typ != tokenCloseBrace {
		if p.currentToken.typ == tokenEOF {
			return p.errorf("module %s not closed", moduleName)
		}
		if err := p.parseDefinition(); err != nil {
			return err
		}
	}
	if err := p.nextToken(); err != nil {
		return err
	}
	if err := p.expect(tokenSemicolon, "';' after module definition"); err != nil {
		return err
	}

	p.currentModule, p.container = parentModule, parentContainer
	return nil
}

// parseInterface parses an interface or an interface forward declaration.
// modifier is the already consumed abstract or local keyword.
func (p *Parser) parseInterface(modifier string) error {
	interfaceType := &InterfaceType{
		Module:   p.currentModule.Name,
		Abstract: modifier == "abstract",
		Local:    modifier == "local",
	}
	if modifier == "custom" {
		return p.errorf("custom is only allowed for value types")
	}
	if err := p.expectKeyword("interface"); err != nil {
		return err
	}
	name, err := p.identifier("interface name")
	if err != nil {
		return err
	}
	interfaceType.Name = name

	if p.currentToken.typ == tokenSemicolon {
		interfaceType.Forward = true
		p.container.addDefinition(interfaceType)
		return p.nextToken()
	}

	if p.currentToken.typ == tokenColon {
		if err := p.nextToken(); err != nil {
			return err
		}
		if interfaceType.Parents, err = p.scopedNameList("parent interface name"); err != nil {
			return err
		}
	}

	if err := p.expect(tokenOpenBrace, "'{' after interface name"); err != nil {
		return err
	}
	parentContainer := p.container
	p.container = interfaceType
	for p.currentToken.typ != tokenCloseBrace {
		if err := p.parseInterfaceMember(&interfaceType.Operations, &interfaceType.Attributes); err != nil {
			return err
		}
	}
	p.container = parentContainer
	if err := p.nextToken(); err != nil {
		return err
	}
	if err := p.expect(tokenSemicolon, "';' after interface definition"); err != nil {
		return err
	}

	p.container.addDefinition(interfaceType)
	return nil
}

// parseInterfaceMember parses an export of an interface or value type:
// an attribute, an operation or a nested declaration
func (p *Parser) parseInterfaceMember(ops *[]Operation, attrs *[]Attribute) error {
	switch {
	case p.currentToken.typ == tokenEOF:
		return p.errorf("unexpected end of file in definition body")
	case p.currentToken.typ == tokenPreprocessor:
		return p.parsePreprocessor()
	case p.is("readonly") || p.is("attribute"):
		parsed, err := p.parseAttribute()
		if err != nil {
			return err
		}
		*attrs = append(*attrs, parsed...)
		return nil
	case p.is("struct") || p.is("enum") || p.is("typedef") || p.is("union") || p.is("const") || p.is("exception"):
		return p.parseTypeDeclaration()
	}
	op, err := p.parseOperation()
	if err != nil {
		return err
	}
	*ops = append(*ops, op)
	return nil
}

func (p *Parser) parseAttribute() ([]Attribute, error) {
	readonly := false
	if p.is("readonly") {
		readonly = true
		if err := p.nextToken(); err != nil {
			return nil, err
		}
	}
	if err := p.expectKeyword("attribute"); err != nil {
		return nil, err
	}
	attrType, err := p.parseType()
	if err != nil {
		return nil, err
	}

	var attrs []Attribute
	for {
		attrName, err := p.identifier("attribute name")
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, Attribute{Name: attrName, Type: attrType, Readonly: readonly})
		if p.currentToken.typ != tokenComma {
			break
		}
		if err := p.nextToken(); err != nil {
			return nil, err
		}
	}

	// getraises and setraises clauses are not mapped
	for p.currentToken.typ != tokenSemicolon {
		if p.currentToken.typ == tokenEOF {
			return nil, p.errorf("expected ';' after attribute")
		}
		if err := p.nextToken(); err != nil {
			return nil, err
		}
	}
	return attrs, p.nextToken()
}

func (p *Parser) parseOperation() (Operation, error) {
	var op Operation
	if p.is("oneway") {
		op.Oneway = true
		if err := p.nextToken(); err != nil {
			return op, err
		}
	}

	var err error
	if op.ReturnType, err = p.parseType(); err != nil {
		return op, err
	}
	if op.Name, err = p.identifier("operation name"); err != nil {
		return op, err
	}
	if err := p.expect(tokenOpenParen, "'(' after operation name"); err != nil {
		return op, err
	}

	if p.currentToken.typ != tokenCloseParen {
		for {
			direction := In
			if p.is("in") || p.is("out") || p.is("inout") {
				direction = Direction(p.currentToken.value)
				if err := p.nextToken(); err != nil {
					return op, err
				}
			}
			paramType, err := p.parseType()
			if err != nil {
				return op, err
			}
			paramName, err := p.identifier("parameter name")
			if err != nil {
				return op, err
			}
			op.Parameters = append(op.Parameters, Parameter{Name: paramName, Type: paramType, Direction: direction})
			if p.currentToken.typ != tokenComma {
				break
			}
			if err := p.nextToken(); err != nil {
				return op, err
			}
		}
	}
	if err := p.expect(tokenCloseParen, "')' after parameters"); err != nil {
		return op, err
	}

	if p.is("raises") {
		if err := p.nextToken(); err != nil {
			return op, err
		}
		if err := p.expect(tokenOpenParen, "'(' after raises"); err != nil {
			return op, err
		}
		if op.Raises, err = p.scopedNameList("exception name"); err != nil {
			return op, err
		}
		if err := p.expect(tokenCloseParen, "')' after exception list"); err != nil {
			return op, err
		}
	}

	if p.is("context") {
		if err := p.nextToken(); err != nil {
			return op, err
		}
		if err := p.expect(tokenOpenParen, "'(' after context"); err != nil {
			return op, err
		}
		for {
			if p.currentToken.typ != tokenString {
				return op, p.errorf("expected context string, got %s", p.describe())
			}
			op.Context = append(op.Context, p.currentToken.value)
			if err := p.nextToken(); err != nil {
				return op, err
			}
			if p.currentToken.typ != tokenComma {
				break
			}
			if err := p.nextToken(); err != nil {
				return op, err
			}
		}
		if err := p.expect(tokenCloseParen, "')' after context list"); err != nil {
			return op, err
		}
	}

	return op, p.expect(tokenSemicolon, "';' after operation")
}

// parseValueType parses a value type, a boxed value type or a forward
// declaration. modifier is the already consumed abstract or custom keyword.
func (p *Parser) parseValueType(modifier string) error {
	valueType := &ValueType{
		Module:   p.currentModule.Name,
		Abstract: modifier == "abstract",
		Custom:   modifier == "custom",
	}
	if modifier == "local" {
		return p.errorf("local is only allowed for interfaces")
	}
	if err := p.expectKeyword("valuetype"); err != nil {
		return err
	}
	name, err := p.identifier("valuetype name")
	if err != nil {
		return err
	}
	valueType.Name = name

	switch {
	case p.currentToken.typ == tokenSemicolon:
		valueType.Forward = true
		p.container.addDefinition(valueType)
		return p.nextToken()
	case p.currentToken.typ != tokenColon && p.currentToken.typ != tokenOpenBrace && !p.is("supports"):
		if valueType.Abstract || valueType.Custom {
			return p.errorf("boxed value type %s can not be abstract or custom", name)
		}
		boxed, err := p.parseType()
		if err != nil {
			return err
		}
		if err := p.expect(tokenSemicolon, "';' after boxed value type"); err != nil {
			return err
		}
		p.container.addDefinition(&ValueBoxType{Name: name, Module: p.currentModule.Name, Boxed: boxed})
		return nil
	}

	if p.currentToken.typ == tokenColon {
		if err := p.nextToken(); err != nil {
			return err
		}
		if p.is("truncatable") {
			valueType.Truncatable = true
			if err := p.nextToken(); err != nil {
				return err
			}
		}
		if valueType.Parents, err = p.scopedNameList("base value type name"); err != nil {
			return err
		}
	}
	if p.is("supports") {
		if err := p.nextToken(); err != nil {
			return err
		}
		if valueType.Supports, err = p.scopedNameList("supported interface name"); err != nil {
			return err
		}
	}

	if err := p.expect(tokenOpenBrace, "'{' after valuetype header"); err != nil {
		return err
	}
	parentContainer := p.container
	p.container = valueType
	for p.currentToken.typ != tokenCloseBrace {
		switch {
		case p.is("public") || p.is("private"):
			public := p.is("public")
			if err := p.nextToken(); err != nil {
				return err
			}
			memberType, err := p.parseType()
			if err != nil {
				return err
			}
			decls, err := p.parseDeclarators("state member name")
			if err != nil {
				return err
			}
			for _, d := range decls {
				valueType.Members = append(valueType.Members, StateMember{Name: d.name, Type: memberType, Public: public, Dims: d.dims})
			}
			if err := p.expect(tokenSemicolon, "';' after state member"); err != nil {
				return err
			}
		case p.is("factory"):
			// initializers are not mapped
			if err := p.skipDeclaration(); err != nil {
				return err
			}
		default:
			if err := p.parseInterfaceMember(&valueType.Operations, &valueType.Attributes); err != nil {
				return err
			}
		}
	}
	p.container = parentContainer
	if err := p.nextToken(); err != nil {
		return err
	}
	if err := p.expect(tokenSemicolon, "';' after valuetype definition"); err != nil {
		return err
	}

	p.container.addDefinition(valueType)
	return nil
}

// skipDeclaration skips everything up to and including the next ';'
func (p *Parser) skipDeclaration() error {
	for p.currentToken.typ != tokenSemicolon {
		if p.currentToken.typ == tokenEOF {
			return p.errorf("expected ';', got end of file")
		}
		if err := p.nextToken(); err != nil {
			return err
		}
	}
	return p.nextToken()
}

// parseType parses an IDL type
func (p *Parser) parseType() (Type, error) {
	if p.currentToken.typ == tokenScope {
		name, err := p.scopedName("type name")
		if err != nil {
			return nil, err
		}
		return &ScopedType{Name: name}, nil
	}
	if p.currentToken.typ != tokenIdentifier {
		return nil, p.errorf("expected type name, got %s", p.describe())
	}

	switch p.currentToken.value {
	case "sequence":
		return p.parseSequence()
	case "string", "wstring":
		return p.parseStringType()
	case "fixed":
		return p.parseFixed()
	case "unsigned":
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		switch {
		case p.is("short"):
			return &SimpleType{Name: TypeUShort}, p.nextToken()
		case p.is("long"):
			if err := p.nextToken(); err != nil {
				return nil, err
			}
			if p.is("long") {
				return &SimpleType{Name: TypeULongLong}, p.nextToken()
			}
			return &SimpleType{Name: TypeULong}, nil
		}
		return nil, p.errorf("expected 'short' or 'long' after 'unsigned', got %s", p.describe())
	case "long":
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		switch {
		case p.is("long"):
			return &SimpleType{Name: TypeLongLong}, p.nextToken()
		case p.is("double"):
			return &SimpleType{Name: TypeLongDouble}, p.nextToken()
		}
		return &SimpleType{Name: TypeLong}, nil
	}

	for _, bt := range []BasicType{
		TypeShort, TypeFloat, TypeDouble, TypeBoolean, TypeChar, TypeWChar,
		TypeOctet, TypeAny, TypeVoid, TypeObject, TypeValueBase,
	} {
		if p.currentToken.value == string(bt) {
			return &SimpleType{Name: bt}, p.nextToken()
		}
	}

	name, err := p.scopedName("type name")
	if err != nil {
		return nil, err
	}
	return &ScopedType{Name: name}, nil
}

func (p *Parser) parseSequence() (Type, error) {
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	if err := p.expect(tokenOpenAngle, "'<' after sequence"); err != nil {
		return nil, err
	}
	elementType, err := p.parseType()
	if err != nil {
		return nil, err
	}
	maxSize := -1
	if p.currentToken.typ == tokenComma {
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		if maxSize, err = p.positiveInt("sequence size"); err != nil {
			return nil, err
		}
	}
	if err := p.expect(tokenCloseAngle, "'>' after sequence type"); err != nil {
		return nil, err
	}
	return &SequenceType{ElementType: elementType, MaxSize: maxSize}, nil
}

func (p *Parser) parseStringType() (Type, error) {
	t := &SimpleType{Name: BasicType(p.currentToken.value)}
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	if p.currentToken.typ != tokenOpenAngle {
		return t, nil
	}
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	bound, err := p.positiveInt("string bound")
	if err != nil {
		return nil, err
	}
	t.Bound = bound
	return t, p.expect(tokenCloseAngle, "'>' after string bound")
}

func (p *Parser) parseFixed() (Type, error) {
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	if p.currentToken.typ != tokenOpenAngle {
		// fixed without digits and scale is only legal in constants
		return &FixedType{}, nil
	}
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	digits, err := p.positiveInt("fixed digits")
	if err != nil {
		return nil, err
	}
	if err := p.expect(tokenComma, "',' in fixed type"); err != nil {
		return nil, err
	}
	scale, err := p.positiveInt("fixed scale")
	if err != nil {
		return nil, err
	}
	return &FixedType{Digits: digits, Scale: scale}, p.expect(tokenCloseAngle, "'>' after fixed type")
}

func (p *Parser) positiveInt(what string) (int, error) {
	if p.currentToken.typ != tokenNumber {
		return 0, p.errorf("expected %s, got %s", what, p.describe())
	}
	n, err := strconv.Atoi(p.currentToken.value)
	if err != nil || n < 0 {
		return 0, p.errorf("invalid %s: %s", what, p.currentToken.value)
	}
	return n, p.nextToken()
}

type declarator struct {
	name string
	dims []int
}

// parseDeclarators parses name[, name...] where each name may carry array dimensions
func (p *Parser) parseDeclarators(what string) ([]declarator, error) {
	var decls []declarator
	for {
		name, err := p.identifier(what)
		if err != nil {
			return nil, err
		}
		d := declarator{name: name}
		for p.currentToken.typ == tokenOpenBracket {
			if err := p.nextToken(); err != nil {
				return nil, err
			}
			dim, err := p.positiveInt("array dimension")
			if err != nil {
				return nil, err
			}
			d.dims = append(d.dims, dim)
			if err := p.expect(tokenCloseBracket, "']' after array dimension"); err != nil {
				return nil, err
			}
		}
		decls = append(decls, d)
		if p.currentToken.typ != tokenComma {
			return decls, nil
		}
		if err := p.nextToken(); err != nil {
			return nil, err
		}
	}
}

// parseMembers parses the member list of a struct or exception up to the closing brace
func (p *Parser) parseMembers() ([]StructField, error) {
	var fields []StructField
	for p.currentToken.typ != tokenCloseBrace {
		fieldType, err := p.parseType()
		if err != nil {
			return nil, err
		}
		decls, err := p.parseDeclarators("field name")
		if err != nil {
			return nil, err
		}
		for _, d := range decls {
			fields = append(fields, StructField{Name: d.name, Type: fieldType, Dims: d.dims})
		}
		if err := p.expect(tokenSemicolon, "';' after field definition"); err != nil {
			return nil, err
		}
	}
	return fields, p.nextToken()
}

// parseStruct parses an IDL struct
func (p *Parser) parseStruct() error {
	if err := p.nextToken(); err != nil {
		return err
	}
	structName, err := p.identifier("struct name")
	if err != nil {
		return err
	}
	if err := p.expect(tokenOpenBrace, "'{' after struct name"); err != nil {
		return err
	}
	fields, err := p.parseMembers()
	if err != nil {
		return err
	}
	if err := p.expect(tokenSemicolon, "';' after struct definition"); err != nil {
		return err
	}
	p.container.addDefinition(&StructType{Name: structName, Module: p.currentModule.Name, Fields: fields})
	return nil
}

// parseException parses an IDL exception
func (p *Parser) parseException() error {
	if err := p.nextToken(); err != nil {
		return err
	}
	exceptionName, err := p.identifier("exception name")
	if err != nil {
		return err
	}
	if err := p.expect(tokenOpenBrace, "'{' after exception name"); err != nil {
		return err
	}
	fields, err := p.parseMembers()
	if err != nil {
		return err
	}
	if err := p.expect(tokenSemicolon, "';' after exception definition"); err != nil {
		return err
	}
	p.container.addDefinition(&ExceptionType{Name: exceptionName, Module: p.currentModule.Name, Fields: fields})
	return nil
}

// parseEnum parses an IDL enum. A trailing comma before the closing brace is accepted.
func (p *Parser) parseEnum() error {
	if err := p.nextToken(); err != nil {
		return err
	}
	enumName, err := p.identifier("enum name")
	if err != nil {
		return err
	}
	enumType := &EnumType{Name: enumName, Module: p.currentModule.Name, Elements: []string{}}

	if err := p.expect(tokenOpenBrace, "'{' after enum name"); err != nil {
		return err
	}
	for p.currentToken.typ != tokenCloseBrace {
		elementName, err := p.identifier("enum element name")
		if err != nil {
			return err
		}
		enumType.Elements = append(enumType.Elements, elementName)
		if p.currentToken.typ != tokenComma {
			break
		}
		if err := p.nextToken(); err != nil {
			return err
		}
	}
	if len(enumType.Elements) == 0 {
		return p.errorf("enum %s has no elements", enumName)
	}
	if err := p.expect(tokenCloseBrace, "'}' after enum elements"); err != nil {
		return err
	}
	if err := p.expect(tokenSemicolon, "';' after enum definition"); err != nil {
		return err
	}

	p.container.addDefinition(enumType)
	return nil
}

// parseTypedef parses an IDL typedef with one or more declarators
func (p *Parser) parseTypedef() error {
	if err := p.nextToken(); err != nil {
		return err
	}
	if p.is("struct") || p.is("enum") || p.is("union") {
		return p.errorf("inline type definitions in typedef are not supported")
	}
	origType, err := p.parseType()
	if err != nil {
		return err
	}
	decls, err := p.parseDeclarators("typedef name")
	if err != nil {
		return err
	}
	if err := p.expect(tokenSemicolon, "';' after typedef"); err != nil {
		return err
	}
	for _, d := range decls {
		p.container.addDefinition(&TypeDef{Name: d.name, Module: p.currentModule.Name, OrigType: origType, Dims: d.dims})
	}
	return nil
}

// parseUnion parses an IDL union
func (p *Parser) parseUnion() error {
	if err := p.nextToken(); err != nil {
		return err
	}
	unionName, err := p.identifier("union name")
	if err != nil {
		return err
	}
	if err := p.expectKeyword("switch"); err != nil {
		return err
	}
	if err := p.expect(tokenOpenParen, "'(' after switch"); err != nil {
		return err
	}
	discriminantType, err := p.parseType()
	if err != nil {
		return err
	}
	if err := p.expect(tokenCloseParen, "')' after discriminant type"); err != nil {
		return err
	}

	unionType := &UnionType{
		Name:         unionName,
		Module:       p.currentModule.Name,
		Discriminant: discriminantType,
		Cases:        []UnionCase{},
	}

	if err := p.expect(tokenOpenBrace, "'{' after union header"); err != nil {
		return err
	}
	for p.currentToken.typ != tokenCloseBrace {
		var labels []string
		for p.is("case") || p.is("default") {
			if p.is("default") {
				labels = append(labels, "default")
				if err := p.nextToken(); err != nil {
					return err
				}
			} else {
				if err := p.nextToken(); err != nil {
					return err
				}
				var label strings.Builder
				for p.currentToken.typ != tokenColon {
					if p.currentToken.typ == tokenEOF {
						return p.errorf("expected ':' after case label")
					}
					label.WriteString(p.currentToken.value)
					if err := p.nextToken(); err != nil {
						return err
					}
				}
				labels = append(labels, label.String())
			}
			if err := p.expect(tokenColon, "':' after case label"); err != nil {
				return err
			}
		}
		if len(labels) == 0 {
			return p.errorf("expected 'case' or 'default', got %s", p.describe())
		}

		caseType, err := p.parseType()
		if err != nil {
			return err
		}
		caseName, err := p.identifier("case name")
		if err != nil {
			return err
		}
		unionType.Cases = append(unionType.Cases, UnionCase{Labels: labels, Name: caseName, Type: caseType})
		if err := p.expect(tokenSemicolon, "';' after case"); err != nil {
			return err
		}
	}
	if err := p.nextToken(); err != nil {
		return err
	}
	if err := p.expect(tokenSemicolon, "';' after union definition"); err != nil {
		return err
	}

	p.container.addDefinition(unionType)
	return nil
}

// parseConst parses an IDL const. The value expression is kept as text.
func (p *Parser) parseConst() error {
	if err := p.nextToken(); err != nil {
		return err
	}
	constType, err := p.parseType()
	if err != nil {
		return err
	}
	name, err := p.identifier("constant name")
	if err != nil {
		return err
	}
	if p.currentToken.typ != tokenOperator || p.currentToken.value != "=" {
		return p.errorf("expected '=' after constant name, got %s", p.describe())
	}
	if err := p.nextToken(); err != nil {
		return err
	}
	var value []string
	for p.currentToken.typ != tokenSemicolon {
		if p.currentToken.typ == tokenEOF {
			return p.errorf("expected ';' after constant")
		}
		v := p.currentToken.value
		switch p.currentToken.typ {
		case tokenString:
			v = strconv.Quote(v)
		case tokenChar:
			v = "'" + v + "'"
		}
		value = append(value, v)
		if err := p.nextToken(); err != nil {
			return err
		}
	}
	p.container.addDefinition(&ConstDecl{Name: name, Type: constType, Value: strings.Join(value, " ")})
	return p.nextToken()
}
