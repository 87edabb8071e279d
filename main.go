package main

import (
	"os"

	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
