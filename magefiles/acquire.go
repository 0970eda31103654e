//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Download builds the CLI and fetches the PDF for doi using the user's
// config file, e.g. `mage download 10.1002/9781118445112.stat06003`.
func Download(doi string) error {
	mg.Deps(Build)
	return sh.RunV("./"+binDir+"/"+binName, "dl", "--doi", doi)
}

// InitConfig builds the CLI and runs its configuration wizard.
func InitConfig() error {
	mg.Deps(Build)
	return sh.RunV("./"+binDir+"/"+binName, "init-config")
}
