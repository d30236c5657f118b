package main

import (
	"bitbucket.org/localbzz/portalgo/internal/app/portal"
	"github.com/labstack/gommon/color"
)

func main() {
	printBanner()
	portal.Execute()
}

var (
	version string
)

func printBanner() {
	banner := `
                   __        __
    ____  ____  _____/ /_____ _/ /
   / __ \/ __ \/ ___/ __/ __ ` + "`" + `/ / 
  / /_/ / /_/ / /  / /_/ /_/ / /  
 / .___/\____/_/   \__/\__,_/_/   v: %s
/_/
%s
________________________________________________________

`
	cl := color.New()
	cl.Printf(banner, cl.Red(version), cl.Green("bitbucket.org/localbzz/portalgo"))
}
