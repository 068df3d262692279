package main

import "github.com/kevensen/frtsdk/cmd"

func main() {
	cmd.Execute()
}
