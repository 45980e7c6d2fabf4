package main

import "intune-store-importer/internal/cli"

func main() {
	cli.Execute()
}
