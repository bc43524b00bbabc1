package main

import "github.com/iksnae/scratch-cli/cmd"

func main() {
	cmd.Execute()
}
