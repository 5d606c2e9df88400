package main

import "github.com/alter-dl/alter/cmd"

func main() {
	cmd.Execute()
}
