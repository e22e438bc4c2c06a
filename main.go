package main

import "github.com/meysamhadeli/repodoc/cmd"

func main() {
	cmd.Execute()
}
