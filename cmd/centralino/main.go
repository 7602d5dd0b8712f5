package main

import "github.com/example/centralino/cmd"

func main() {
	cmd.Execute()
}
