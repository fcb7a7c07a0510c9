package rootcmd

import (
	"fmt"
	"os"
)

// BinaryName the binary name to use in help docs
var BinaryName string

// TopLevelCommand the top level command name
var TopLevelCommand string

func init() {
	BinaryName = os.Getenv("BINARY_NAME")
	if BinaryName == "" {
		BinaryName = "jx sealed-secrets"
	}
	TopLevelCommand = os.Getenv("TOP_LEVEL_COMMAND")
	if TopLevelCommand == "" {
		TopLevelCommand = "jx sealed-secrets"
	}
}

// BashExample returns markdown for a bash script expression
func BashExample(cli string) string {
	return fmt.Sprintf("\n```bash \n%s %s\n```\n", BinaryName, cli)
}
