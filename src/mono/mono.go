package mono

import "github.com/Microindole/lency-sub000/src/ast"

// structInst is the worklist entry shape for both struct and function
// instantiation requests — identical fields, so one type serves both
// queues.
type structInst struct {
	name    string
	args    []*ast.Type
	mangled string
}

// Monomorphizer drains a worklist of concrete instantiations discovered
// while rewriting the program, producing a generic-free declaration list.
// The collection, worklist and specialization phases are collapsed into one
// struct rather than split across separate owning types, since nothing here
// needs the isolation a split would buy.
type Monomorphizer struct {
	structTemplates map[string]*ast.Node // STRUCT decls carrying GenericParams
	enumTemplates   map[string]*ast.Node
	funcTemplates   map[string]*ast.Node // FUNCTION decls carrying GenericParams
	implsByTarget   map[string][]*ast.Node

	doneStructs map[string]bool
	doneFuncs   map[string]bool

	structQueue []structInst
	funcQueue   []structInst // funcInst has the same shape; reused via structInst

	output []*ast.Node
}

// New returns an empty Monomorphizer.
func New() *Monomorphizer {
	return &Monomorphizer{
		structTemplates: make(map[string]*ast.Node),
		enumTemplates:   make(map[string]*ast.Node),
		funcTemplates:   make(map[string]*ast.Node),
		implsByTarget:   make(map[string][]*ast.Node),
		doneStructs:     make(map[string]bool),
		doneFuncs:       make(map[string]bool),
	}
}

func (m *Monomorphizer) queueStruct(name string, args []*ast.Type, mangled string) {
	if m.doneStructs[mangled] {
		return
	}
	m.structQueue = append(m.structQueue, structInst{name, args, mangled})
}

func (m *Monomorphizer) queueFunc(name string, args []*ast.Type, mangled string) {
	if m.doneFuncs[mangled] {
		return
	}
	m.funcQueue = append(m.funcQueue, structInst{name, args, mangled})
}

func implTargetBaseName(t *ast.Type) string {
	switch t.Kind {
	case ast.Struct:
		return t.Name
	case ast.Generic:
		return t.Name
	default:
		return t.String()
	}
}

// Run monomorphizes prog, returning a new Program whose declarations carry
// no Generic, GenericParam or TURBOFISH node anywhere. IMPL blocks never
// appear in the output: their methods are flattened into free FUNCTION
// declarations mangled `Type__method` with an explicit leading `self`
// parameter, matching how the IR generator expects to find them.
func Run(prog *ast.Program) *ast.Program {
	m := New()

	var nonGeneric []*ast.Node
	for _, d := range prog.Decls {
		switch d.Typ {
		case ast.STRUCT:
			sd := d.Data.(ast.StructData)
			if len(sd.GenericParams) > 0 {
				m.structTemplates[sd.Name] = d
				continue
			}
		case ast.ENUM:
			ed := d.Data.(ast.EnumData)
			if len(ed.GenericParams) > 0 {
				m.enumTemplates[ed.Name] = d
				continue
			}
		case ast.FUNCTION:
			fd := d.Data.(ast.FunctionData)
			if len(fd.GenericParams) > 0 {
				m.funcTemplates[fd.Name] = d
				continue
			}
		case ast.IMPL:
			id := d.Data.(ast.ImplData)
			base := implTargetBaseName(id.TypeName)
			m.implsByTarget[base] = append(m.implsByTarget[base], d)
			if id.TypeName.Kind == ast.Generic || len(id.GenericParams) > 0 {
				continue // specialized alongside its struct
			}
		}
		nonGeneric = append(nonGeneric, d)
	}

	for _, d := range nonGeneric {
		if d.Typ == ast.IMPL {
			m.output = append(m.output, m.flattenImpl(d, nil)...)
			continue
		}
		m.output = append(m.output, m.rewriteNode(d, nil))
	}

	for len(m.structQueue) > 0 || len(m.funcQueue) > 0 {
		for len(m.structQueue) > 0 {
			req := m.structQueue[0]
			m.structQueue = m.structQueue[1:]
			if m.doneStructs[req.mangled] {
				continue
			}
			m.doneStructs[req.mangled] = true
			m.specializeStruct(req)
		}
		for len(m.funcQueue) > 0 {
			req := m.funcQueue[0]
			m.funcQueue = m.funcQueue[1:]
			if m.doneFuncs[req.mangled] {
				continue
			}
			m.doneFuncs[req.mangled] = true
			m.specializeFunc(req)
		}
	}

	return &ast.Program{Decls: m.output}
}

func (m *Monomorphizer) specializeStruct(req structInst) {
	tmpl, ok := m.structTemplates[req.name]
	if !ok {
		return // unresolved reference; the resolver already reported UndefinedType
	}
	sd := tmpl.Data.(ast.StructData)
	subst := make(map[string]*ast.Type, len(sd.GenericParams))
	for i, gp := range sd.GenericParams {
		if i < len(req.args) {
			subst[gp.Name] = req.args[i]
		}
	}

	fields := make([]ast.Field, len(sd.Fields))
	for i, f := range sd.Fields {
		fields[i] = ast.Field{Name: f.Name, Ty: m.rewriteType(f.Ty, subst)}
	}
	specialized := &ast.Node{
		Typ:  ast.STRUCT,
		Span: tmpl.Span,
		Data: ast.StructData{Name: req.mangled, Fields: fields},
	}
	m.output = append(m.output, specialized)

	for _, impl := range m.implsByTarget[req.name] {
		m.output = append(m.output, m.flattenImpl(impl, subst)...)
	}
}

func (m *Monomorphizer) specializeFunc(req structInst) {
	tmpl, ok := m.funcTemplates[req.name]
	if !ok {
		return
	}
	fd := tmpl.Data.(ast.FunctionData)
	subst := make(map[string]*ast.Type, len(fd.GenericParams))
	for i, gp := range fd.GenericParams {
		if i < len(req.args) {
			subst[gp.Name] = req.args[i]
		}
	}
	specialized := m.rewriteNode(tmpl, subst)
	sfd := specialized.Data.(ast.FunctionData)
	sfd.Name = req.mangled
	specialized.Data = sfd
	m.output = append(m.output, specialized)
}

// flattenImpl turns one IMPL block's methods into top-level FUNCTION decls
// named `Type__method`, each with a synthetic leading `self` parameter of
// the (possibly just-substituted) receiver type.
func (m *Monomorphizer) flattenImpl(impl *ast.Node, subst map[string]*ast.Type) []*ast.Node {
	id := impl.Data.(ast.ImplData)
	receiver := m.rewriteType(id.TypeName, subst)
	var out []*ast.Node
	for _, method := range id.Methods {
		fd := method.Data.(ast.FunctionData)
		params := append([]ast.Param{{Name: "self", Ty: receiver}}, m.rewriteParams(fd.Params, subst)...)
		fn := &ast.Node{
			Typ:  ast.FUNCTION,
			Span: method.Span,
			Data: ast.FunctionData{
				Name:       MangleMethod(receiver, fd.Name),
				Params:     params,
				ReturnType: m.rewriteType(fd.ReturnType, subst),
				Public:     fd.Public,
				Body:       m.rewriteNode(fd.Body, subst),
			},
		}
		out = append(out, fn)
	}
	return out
}
