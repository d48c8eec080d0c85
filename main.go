package main

import "github.com/mika534/mparkdl/cmd"

func main() {
	cmd.Execute()
}
