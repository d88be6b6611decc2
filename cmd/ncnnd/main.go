// Command ncnnd serves ncnn models over HTTP and offers offline helpers for
// inspecting topologies and running one-shot inferences.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ncnnd:", err)
		os.Exit(1)
	}
}
