// Package libexit defines an analyzer that reports process-terminating calls outside
// package main. Libraries return errors; only the binary decides to exit.
package libexit

import (
	"fmt"
	"go/ast"
	"go/types"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
	"golang.org/x/tools/go/types/typeutil"
)

// Analyzer is the libexit analyzer.
var Analyzer = &analysis.Analyzer{
	Name:     "libexit",
	Doc:      "reports os.Exit and Fatal logging calls outside package main",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

// forbidden lists callees by types.Func.FullName.
var forbidden = map[string]bool{
	"os.Exit":                                 true,
	"log.Fatal":                               true,
	"log.Fatalf":                              true,
	"log.Fatalln":                             true,
	"(*log.Logger).Fatal":                     true,
	"(*log.Logger).Fatalf":                    true,
	"(*log.Logger).Fatalln":                   true,
	"(*go.uber.org/zap.Logger).Fatal":         true,
	"(*go.uber.org/zap.SugaredLogger).Fatal":  true,
	"(*go.uber.org/zap.SugaredLogger).Fatalf": true,
	"(*go.uber.org/zap.SugaredLogger).Fatalw": true,
}

func run(pass *analysis.Pass) (any, error) {
	if pass.Pkg == nil || pass.Pkg.Name() == "main" {
		return nil, nil
	}

	insp, ok := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)
	if !ok {
		return nil, fmt.Errorf("failed to assert type: expected *inspector.Inspector")
	}

	insp.Preorder([]ast.Node{(*ast.CallExpr)(nil)}, func(n ast.Node) {
		call, ok := n.(*ast.CallExpr)
		if !ok || inTestFile(pass, call) {
			return
		}
		if name, bad := isExitCall(pass.TypesInfo, call); bad {
			pass.Reportf(call.Pos(), "%s terminates the process; return an error to package main instead", name)
		}
	})
	return nil, nil
}

// isExitCall reports whether call invokes one of the forbidden functions.
func isExitCall(info *types.Info, call *ast.CallExpr) (string, bool) {
	if info == nil || call == nil {
		return "", false
	}
	fn, ok := typeutil.Callee(info, call).(*types.Func)
	if !ok || fn.Pkg() == nil {
		return "", false
	}
	name := fn.FullName()
	return name, forbidden[name]
}

func inTestFile(pass *analysis.Pass, n ast.Node) bool {
	if pass.Fset == nil {
		return false
	}
	return strings.HasSuffix(pass.Fset.Position(n.Pos()).Filename, "_test.go")
}
