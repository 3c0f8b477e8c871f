// Package graph provides dependency graph analysis for Go symbols.
package graph

import (
	"go/ast"
	"go/token"
	"go/types"
	"slices"

	"dario.cat/shaker/internal/analyzer"
	"golang.org/x/tools/go/packages"
)

// Symbol represents a symbol in the dependency graph.
type Symbol struct {
	ID       string         // "pkg/path.SymbolName" or "pkg/path.Type.Method".
	Name     string         // Symbol name.
	Package  string         // Package path.
	Kind     string         // "func", "type", "var", "const".
	Receiver string         // Receiver type name for methods, empty otherwise.
	Exported bool           // Whether the symbol is visible outside its package.
	File     string         // Defining file path.
	Pos      token.Position // Source position.
}

// DependencyGraph represents the dependency relationships between symbols.
type DependencyGraph struct {
	Symbols  map[string]*Symbol             // ID -> Symbol.
	OutEdges map[string]map[string]struct{} // Symbol -> symbols it depends on.
	InEdges  map[string]map[string]struct{} // Symbol -> symbols that depend on it.
	Roots    map[string]struct{}            // Symbols live at program start.
}

// NewDependencyGraph creates a new empty dependency graph.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		Symbols:  make(map[string]*Symbol),
		OutEdges: make(map[string]map[string]struct{}),
		InEdges:  make(map[string]map[string]struct{}),
		Roots:    make(map[string]struct{}),
	}
}

// AddDependency adds a dependency edge from one symbol to another.
func (g *DependencyGraph) AddDependency(from, to string) {
	if from == to {
		return
	}

	if g.OutEdges[from] == nil {
		g.OutEdges[from] = make(map[string]struct{})
	}

	if g.InEdges[to] == nil {
		g.InEdges[to] = make(map[string]struct{})
	}

	g.OutEdges[from][to] = struct{}{}
	g.InEdges[to][from] = struct{}{}
}

// AddRoot marks a symbol as live regardless of references to it.
func (g *DependencyGraph) AddRoot(id string) {
	g.Roots[id] = struct{}{}
}

// AnalyzePackage analyzes a package and adds its symbols, dependencies and
// roots to the graph.
func (g *DependencyGraph) AnalyzePackage(pkg *packages.Package) {
	g.registerDefinitions(pkg)
	g.trackUsages(pkg)
}

// Reachable returns every symbol reachable from any of the given roots,
// roots included.
func (g *DependencyGraph) Reachable(roots ...string) []string {
	visited := make(map[string]bool)

	var result []string

	var dfs func(id string)

	dfs = func(id string) {
		if visited[id] {
			return
		}

		visited[id] = true

		result = append(result, id)
		for depID := range g.OutEdges[id] {
			dfs(depID)
		}
	}

	for _, root := range roots {
		dfs(root)
	}

	return result
}

// Live returns every symbol reachable from the graph roots.
func (g *DependencyGraph) Live() map[string]bool {
	roots := make([]string, 0, len(g.Roots))
	for id := range g.Roots {
		roots = append(roots, id)
	}

	live := make(map[string]bool)
	for _, id := range g.Reachable(roots...) {
		live[id] = true
	}

	return live
}

// PathFromRoot returns the shortest dependency chain from a graph root to
// id, root first, walking reverse edges through live symbols only.
// Returns nil when id is not live.
func (g *DependencyGraph) PathFromRoot(id string, live map[string]bool) []string {
	if !live[id] {
		return nil
	}

	next := map[string]string{id: ""} // Symbol -> dependency one step closer to id.
	queue := []string{id}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if _, isRoot := g.Roots[cur]; isRoot {
			return chain(cur, next)
		}

		for _, dependent := range sortedKeys(g.InEdges[cur]) { // Follow reverse edges.
			if _, seen := next[dependent]; seen || !live[dependent] {
				continue
			}

			next[dependent] = cur
			queue = append(queue, dependent)
		}
	}

	return nil
}

func chain(root string, next map[string]string) []string {
	path := []string{root}
	for cur := next[root]; cur != ""; cur = next[cur] {
		path = append(path, cur)
	}

	return path
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	return keys
}

func (g *DependencyGraph) registerDefinitions(pkg *packages.Package) {
	for _, obj := range pkg.TypesInfo.Defs {
		if obj == nil || obj.Pkg() != pkg.Types {
			continue
		}

		id := analyzer.SymbolID(obj)
		if id == "" {
			continue
		}

		sym := &Symbol{
			ID:       id,
			Name:     obj.Name(),
			Package:  obj.Pkg().Path(),
			Kind:     analyzer.ObjectKind(obj),
			Exported: obj.Exported(),
			File:     pkg.Fset.Position(obj.Pos()).Filename,
			Pos:      pkg.Fset.Position(obj.Pos()),
		}

		if fn, ok := obj.(*types.Func); ok && fn.Type().(*types.Signature).Recv() != nil {
			sym.Receiver = analyzer.ReceiverName(fn.Type().(*types.Signature).Recv().Type())
			// A live type keeps its method set.
			g.AddDependency(obj.Pkg().Path()+"."+sym.Receiver, id)
		}

		g.Symbols[sym.ID] = sym
	}
}

func (g *DependencyGraph) trackUsages(pkg *packages.Package) {
	for _, file := range pkg.Syntax {
		for _, decl := range file.Decls {
			switch d := decl.(type) {
			case *ast.FuncDecl:
				g.trackFunc(pkg, d)
			case *ast.GenDecl:
				g.trackGenDecl(pkg, d)
			}
		}
	}
}

func (g *DependencyGraph) trackFunc(pkg *packages.Package, fn *ast.FuncDecl) {
	callerID := callerSymbolID(pkg, fn)
	if callerID == "" {
		return
	}

	if fn.Recv == nil && (fn.Name.Name == "init" || (fn.Name.Name == "main" && pkg.Name == "main")) {
		g.AddRoot(callerID)
	}

	g.trackNodeUsages(pkg, callerID, fn.Type)

	if fn.Body != nil {
		g.trackNodeUsages(pkg, callerID, fn.Body)
	}
}

func (g *DependencyGraph) trackGenDecl(pkg *packages.Package, decl *ast.GenDecl) {
	for _, spec := range decl.Specs {
		switch s := spec.(type) {
		case *ast.ValueSpec:
			g.trackValueSpec(pkg, decl.Tok, s)
		case *ast.TypeSpec:
			id := pkg.PkgPath + "." + s.Name.Name
			g.trackNodeUsages(pkg, id, s.Type)
		}
	}
}

func (g *DependencyGraph) trackValueSpec(pkg *packages.Package, tok token.Token, spec *ast.ValueSpec) {
	dynamic := tok == token.VAR && hasCall(pkg, spec.Values)

	for _, name := range spec.Names {
		if name.Name == "_" {
			// Blank vars still run their initializers.
			if dynamic {
				g.AddRoot(pkg.PkgPath + "._")
				g.trackSpecUsages(pkg, pkg.PkgPath+"._", spec)
			}

			continue
		}

		id := pkg.PkgPath + "." + name.Name
		if dynamic {
			g.AddRoot(id)
		}

		g.trackSpecUsages(pkg, id, spec)
	}
}

func (g *DependencyGraph) trackSpecUsages(pkg *packages.Package, id string, spec *ast.ValueSpec) {
	if spec.Type != nil {
		g.trackNodeUsages(pkg, id, spec.Type)
	}

	for _, value := range spec.Values {
		g.trackNodeUsages(pkg, id, value)
	}
}

func (g *DependencyGraph) trackNodeUsages(pkg *packages.Package, callerID string, node ast.Node) {
	ast.Inspect(node, func(inner ast.Node) bool {
		g.recordUsage(pkg, callerID, inner)

		return true
	})
}

func (g *DependencyGraph) recordUsage(
	pkg *packages.Package, callerID string, inner ast.Node,
) {
	switch node := inner.(type) {
	case *ast.Ident:
		if obj := pkg.TypesInfo.Uses[node]; obj != nil {
			if calleeID := analyzer.SymbolID(obj); calleeID != "" {
				g.AddDependency(callerID, calleeID)
			}
		}
	case *ast.SelectorExpr:
		if obj := pkg.TypesInfo.Uses[node.Sel]; obj != nil {
			if calleeID := analyzer.SymbolID(obj); calleeID != "" {
				g.AddDependency(callerID, calleeID)
			}
		}
	}
}

// hasCall reports whether any of the expressions contains a function call,
// which makes the initialization dynamic. Conversions do not count.
func hasCall(pkg *packages.Package, exprs []ast.Expr) bool {
	found := false

	for _, expr := range exprs {
		ast.Inspect(expr, func(n ast.Node) bool {
			if found {
				return false
			}

			if _, isLit := n.(*ast.FuncLit); isLit {
				return false // Body runs only when called.
			}

			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}

			if tv, ok := pkg.TypesInfo.Types[call.Fun]; ok && tv.IsType() {
				return true
			}

			found = true

			return false
		})
	}

	return found
}

func callerSymbolID(pkg *packages.Package, fn *ast.FuncDecl) string {
	if fn.Recv == nil {
		return pkg.PkgPath + "." + fn.Name.Name
	}

	if len(fn.Recv.List) == 0 {
		return ""
	}

	recvType := fn.Recv.List[0].Type

	// Handle pointer receivers.
	if star, ok := recvType.(*ast.StarExpr); ok {
		recvType = star.X
	}

	// Handle generic receivers.
	switch idx := recvType.(type) {
	case *ast.IndexExpr:
		recvType = idx.X
	case *ast.IndexListExpr:
		recvType = idx.X
	}

	if ident, ok := recvType.(*ast.Ident); ok {
		return pkg.PkgPath + "." + ident.Name + "." + fn.Name.Name
	}

	return ""
}
