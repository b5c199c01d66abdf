package main

import "github.com/backbone81/kvs/cmd/kvs/cmd"

func main() {
	cmd.Execute()
}
