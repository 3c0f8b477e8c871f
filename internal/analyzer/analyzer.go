// Package analyzer provides utilities for loading and analyzing Go packages.
package analyzer

import (
	"errors"
	"fmt"
	"go/types"

	"golang.org/x/tools/go/packages"
)

// ErrPackagesContainErrors is returned when loaded packages have errors.
var ErrPackagesContainErrors = errors.New("packages contain errors")

// LoadMode is the set of package facts needed for symbol reachability.
const LoadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedSyntax |
	packages.NeedTypes |
	packages.NeedTypesInfo |
	packages.NeedImports |
	packages.NeedDeps |
	packages.NeedModule

// LoadPackages loads Go packages with full type information.
// The overlay maps absolute file paths to replacement contents.
func LoadPackages(dir string, overlay map[string][]byte, patterns ...string) ([]*packages.Package, error) {
	cfg := &packages.Config{ //nolint:exhaustruct // Optional fields intentionally omitted.
		Mode:    LoadMode,
		Dir:     dir,
		Overlay: overlay,
	}

	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("loading packages: %w", err)
	}

	if packages.PrintErrors(pkgs) > 0 {
		return nil, ErrPackagesContainErrors
	}

	return pkgs, nil
}

// AllPackages returns roots and every package they transitively import,
// each exactly once, in dependency order.
func AllPackages(roots []*packages.Package) []*packages.Package {
	var all []*packages.Package

	packages.Visit(roots, nil, func(pkg *packages.Package) {
		all = append(all, pkg)
	})

	return all
}

// IsStdlib reports whether pkg belongs to the standard library.
func IsStdlib(pkg *packages.Package) bool {
	return pkg.Module == nil
}

// SymbolID generates a unique identifier for a package-level object:
// "pkg/path.Name" or, for methods, "pkg/path.Type.Method".
// Returns "" for builtins, locals and struct fields.
func SymbolID(obj types.Object) string {
	if obj.Pkg() == nil {
		return "" // Built-in, skip.
	}

	if fn, ok := obj.(*types.Func); ok {
		if recv := fn.Type().(*types.Signature).Recv(); recv != nil {
			name := ReceiverName(recv.Type())
			if name == "" {
				return "" // Interface method.
			}

			return obj.Pkg().Path() + "." + name + "." + obj.Name()
		}
	}

	if v, ok := obj.(*types.Var); ok && v.IsField() {
		return ""
	}

	if obj.Parent() != obj.Pkg().Scope() {
		return "" // Local declaration.
	}

	return obj.Pkg().Path() + "." + obj.Name()
}

// ReceiverName returns the name of the named type behind a method receiver.
func ReceiverName(t types.Type) string {
	if ptr, ok := t.(*types.Pointer); ok {
		t = ptr.Elem()
	}

	if named, ok := t.(*types.Named); ok {
		if _, isIface := named.Underlying().(*types.Interface); isIface {
			return ""
		}

		return named.Obj().Name()
	}

	return ""
}

// ObjectKind returns a string representation of the object kind.
func ObjectKind(obj types.Object) string {
	switch obj.(type) {
	case *types.Func:
		return "func"
	case *types.TypeName:
		return "type"
	case *types.Var:
		return "var"
	case *types.Const:
		return "const"
	default:
		return "unknown"
	}
}
