package main

import "intervue/cmd"

func main() {
	cmd.Execute()
}
