package main

import "github.com/incbuild/incbuild/cmd"

func main() {
	cmd.Execute()
}
