package main

import "github.com/gynamics/pish/cmd"

func main() {
	cmd.Execute()
}
