package main

import "github.com/dataquery-sdk/dataquery/cmd"

func main() {
	cmd.Execute()
}
