package main

import (
	"bitbucket.org/localbzz/portalgo/internal/app/transcriber"
	"github.com/labstack/gommon/color"
)

func main() {
	printBanner()
	transcriber.Execute()
}

var (
	version string
)

func printBanner() {
	banner := `
   __                                 _ __
  / /__________ _____  ______________(_) /_  ___  _____
 / __/ ___/ __ ` + "`" + `/ __ \/ ___/ ___/ ___/ / __ \/ _ \/ ___/
/ /_/ /  / /_/ / / / (__  ) /__/ /  / / /_/ /  __/ /
\__/_/   \__,_/_/ /_/____/\___/_/  /_/_.___/\___/_/   v: %s
%s
________________________________________________________

`
	cl := color.New()
	cl.Printf(banner, cl.Red(version), cl.Green("bitbucket.org/localbzz/portalgo"))
}
