package main

import "github.com/lepinkainen/readingwrapped/cmd"

var execute = cmd.Execute

func main() {
	execute()
}
