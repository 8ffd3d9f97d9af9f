package main

import (
	"os"

	"docfind/app"
)

func main() {
	os.Exit(app.Run())
}
