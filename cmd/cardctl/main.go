package main

import "github.com/jrsteele09/go-card-portal/cmd/cardctl/cmd"

func main() {
	cmd.Execute()
}
