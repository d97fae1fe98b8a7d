package main

import "myeidcore/cmd"

func main() {
	cmd.Execute()
}
