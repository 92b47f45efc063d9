package cli

import (
	"github.com/common-nighthawk/go-figure"
	"github.com/fatih/color"
)

// printBanner renders the startup banner for interactive scan runs.
func printBanner() {
	fig := figure.NewColorFigure("AWAST", "doom", "cyan", true)
	fig.Print()

	color.New(color.FgCyan).Println("  web application security testing client")
}
