package main

import "ggp/cmd"

func main() {
	cmd.Execute()
}
