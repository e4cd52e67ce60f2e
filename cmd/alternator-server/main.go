package main

import "github.com/oshokin/radio-alternator/cmd/alternator-server/cmd"

func main() {
	cmd.Execute()
}
