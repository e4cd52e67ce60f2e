package main

import "github.com/oshokin/radio-alternator/cmd/alternator-ctl/cmd"

func main() {
	cmd.Execute()
}
