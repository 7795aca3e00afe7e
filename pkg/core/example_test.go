package core_test

import (
	"context"
	"fmt"
	"os"

	"github.com/riskgate/riskgate/pkg/core"
)

// ExampleScan demonstrates how to perform a simple scan of a directory.
func ExampleScan() {
	// 1. Configure the scan
	cfg := core.Config{
		Root:         ".",
		IncludeGlobs: []string{"**/*.go"},
		MaxFileBytes: 1024 * 1024, // Skip files larger than 1MB
	}

	// 2. Run the scan
	res, err := core.Scan(context.Background(), cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Scan failed: %v\n", err)
		return
	}

	// 3. Process findings
	if len(res.Findings) == 0 {
		fmt.Println("No findings.")
	} else {
		fmt.Printf("Found %d findings in %d files.\n", len(res.Findings), res.FilesScanned)
		_ = core.MarshalFindings(os.Stdout, res.Findings)
	}
}
