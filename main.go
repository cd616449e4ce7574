package main

import (
	"forge/cmd"
)

// main hands off to the cobra command tree.
func main() {
	cmd.Execute()
}
