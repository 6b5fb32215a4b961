package main

import (
	"go/ast"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

// CtxRequestAnalyzer запрещает исходящие HTTP запросы без контекста вне тестов.
// Запрос к сервису поиска номеров должен отменяться вместе с входящим запросом.
var CtxRequestAnalyzer = &analysis.Analyzer{
	Name:     "ctxrequest",
	Doc:      "reports net/http calls that build or send requests without a context",
	Run:      runCtxRequestCheck,
	Requires: []*analysis.Analyzer{inspect.Analyzer},
}

// contextlessHTTPFuncs функции net/http, не принимающие context.Context
var contextlessHTTPFuncs = map[string]string{
	"NewRequest": "http.NewRequestWithContext",
	"Get":        "http.NewRequestWithContext and Client.Do",
	"Head":       "http.NewRequestWithContext and Client.Do",
	"Post":       "http.NewRequestWithContext and Client.Do",
	"PostForm":   "http.NewRequestWithContext and Client.Do",
}

func runCtxRequestCheck(pass *analysis.Pass) (interface{}, error) {
	inspect := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	nodeFilter := []ast.Node{
		(*ast.CallExpr)(nil),
	}

	inspect.Preorder(nodeFilter, func(node ast.Node) {
		call := node.(*ast.CallExpr)

		if strings.HasSuffix(pass.Fset.File(call.Pos()).Name(), "_test.go") {
			return
		}

		// Методы http.Client тоже без контекста, но проверяются только функции пакета
		fn := calleeFunc(pass, call)
		if fn == nil || fn.Pkg().Path() != "net/http" {
			return
		}

		if replacement, found := contextlessHTTPFuncs[fn.Name()]; found {
			pass.Reportf(call.Pos(), "http.%s does not carry a context; use %s", fn.Name(), replacement)
		}
	})

	return nil, nil
}
