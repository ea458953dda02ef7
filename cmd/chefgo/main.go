// Command chefgo は認証・セッション・ロールゲートのAPIサーバー。
package main

import (
	"fmt"
	"os"

	"github.com/hitoshi/chefgo/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "chefgo: %v\n", err)
		os.Exit(1)
	}
}
