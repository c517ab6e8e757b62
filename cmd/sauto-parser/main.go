package main

import "sauto-parser/cmd/sauto-parser/cmd"

func main() {
	cmd.Execute()
}
