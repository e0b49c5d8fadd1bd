// Command cfsgen runs the workspace, project and code generators of CFS
// plugins from the command line.
package main

import (
	"fmt"
	"os"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, newStyles(os.Stderr).err.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}
