package main

import "github.com/lepinkainen/storefront/cmd"

var execute = cmd.Execute

func main() {
	execute()
}
