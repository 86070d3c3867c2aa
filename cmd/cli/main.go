package main

import (
	"fmt"
	"os"

	"github.com/kbcmdba/ActiveQueryListing-sub000/cmd/cli/root"
	_ "github.com/kbcmdba/ActiveQueryListing-sub000/cmd/cli/silence"
	_ "github.com/kbcmdba/ActiveQueryListing-sub000/cmd/cli/windows"
)

func main() {
	if err := root.GetRoot().Execute(); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}
