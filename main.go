package main

import "github.com/agentic-research/relabel/cmd"

func main() {
	cmd.Execute()
}
