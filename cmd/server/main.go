package main

import "github.com/communitycal/server/cmd/server/cmd"

func main() {
	cmd.Execute()
}
