package main

import "github.com/eslsoft/finquest/cmd"

func main() {
	cmd.Execute()
}
