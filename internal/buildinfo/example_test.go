package buildinfo_test

import (
	"fmt"

	"github.com/InQaaaaGit/telefone-relay/internal/buildinfo"
)

// ExampleDefaultInfo демонстрирует информацию о сборке без ldflags
func ExampleDefaultInfo() {
	fmt.Println(buildinfo.DefaultInfo())

	// Output:
	// Version: N/A, Date: N/A, Commit: N/A
}

// ExampleInfo_String демонстрирует получение строкового представления информации о сборке
func ExampleInfo_String() {
	info := buildinfo.NewInfo("v1.0.0", "2024-01-01", "abc123")
	fmt.Println(info.String())

	// Output:
	// Version: v1.0.0, Date: 2024-01-01, Commit: abc123
}
