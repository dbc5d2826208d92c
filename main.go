package main

import "github.com/icco/sc8850/cmd"

func main() {
	cmd.Execute()
}
