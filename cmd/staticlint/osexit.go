package main

import (
	"go/ast"
	"go/types"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

// OsExitAnalyzer запрещает прямой вызов os.Exit и syscall.Exit в функции main пакета main:
// такой выход пропускает defer с синхронизацией логгера и остановкой сервера.
var OsExitAnalyzer = &analysis.Analyzer{
	Name:     "osexit",
	Doc:      "prohibits direct calls to os.Exit in main function of main package",
	Run:      runOsExitCheck,
	Requires: []*analysis.Analyzer{inspect.Analyzer},
}

// exitFuncs пакеты, чья функция Exit завершает процесс
var exitFuncs = map[string]bool{
	"os":      true,
	"syscall": true,
}

func runOsExitCheck(pass *analysis.Pass) (interface{}, error) {
	if pass.Pkg.Name() != "main" {
		return nil, nil
	}

	inspect := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	nodeFilter := []ast.Node{
		(*ast.FuncDecl)(nil),
	}

	inspect.Preorder(nodeFilter, func(node ast.Node) {
		funcDecl := node.(*ast.FuncDecl)
		if funcDecl.Recv != nil || funcDecl.Name.Name != "main" || funcDecl.Body == nil {
			return
		}

		ast.Inspect(funcDecl.Body, func(n ast.Node) bool {
			// Вложенные функции выполняются не обязательно в main
			if _, ok := n.(*ast.FuncLit); ok {
				return false
			}

			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}

			fn := calleeFunc(pass, call)
			if fn != nil && fn.Name() == "Exit" && exitFuncs[fn.Pkg().Path()] {
				pass.Reportf(call.Pos(), "avoid direct %s.Exit call in main function of main package", fn.Pkg().Name())
			}
			return true
		})
	})

	return nil, nil
}

// calleeFunc возвращает функцию пакета, вызываемую через селектор pkg.Func, или nil
func calleeFunc(pass *analysis.Pass, call *ast.CallExpr) *types.Func {
	selExpr, ok := call.Fun.(*ast.SelectorExpr)
	if !ok {
		return nil
	}

	fn, ok := pass.TypesInfo.Uses[selExpr.Sel].(*types.Func)
	if !ok || fn.Pkg() == nil {
		return nil
	}

	if sig, ok := fn.Type().(*types.Signature); !ok || sig.Recv() != nil {
		return nil
	}
	return fn
}
