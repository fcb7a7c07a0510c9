package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jenkins-x-plugins/jx-sealed-secrets/pkg/cmd"
	"github.com/jenkins-x/jx-helpers/v3/pkg/files"
	"github.com/jenkins-x/jx-logging/v3/pkg/log"
	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

// generates the markdown reference docs of the commands into the directory given as the first argument
func main() {
	dir := "docs/cmd"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}
	err := os.MkdirAll(dir, files.DefaultDirWritePermissions)
	if err != nil {
		log.Logger().Fatalf("failed to create dir %s: %s", dir, err.Error())
	}

	root := cmd.Main()
	root.Use = "jx-sealed-secrets"
	root.DisableAutoGenTag = true
	disableFlagsInUseLine(root)
	prepend := func(fileName string) string {
		name := strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
		return fmt.Sprintf("---\ntitle: %s\n---\n\n", strings.ReplaceAll(name, "_", " "))
	}
	linkHandler := func(name string) string {
		return name
	}
	err = doc.GenMarkdownTreeCustom(root, dir, prepend, linkHandler)
	if err != nil {
		log.Logger().Fatalf("failed to generate docs: %s", err.Error())
	}
	log.Logger().Infof("generated docs in %s", dir)
}

func disableFlagsInUseLine(c *cobra.Command) {
	c.DisableFlagsInUseLine = true
	for _, child := range c.Commands() {
		disableFlagsInUseLine(child)
	}
}
