package main

import "github.com/nextlevelbuilder/tgrelay/cmd"

func main() {
	cmd.Execute()
}
