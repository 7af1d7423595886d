package main

import "github.com/mamba-lang/mamba/cmd"

func main() {
	cmd.Execute()
}
