package main

import (
	"github.com/CompassSecurity/harleek/internal/cmd"
	"github.com/CompassSecurity/harleek/internal/cmd/common"
)

func main() {
	common.Run(cmd.NewRootCmd())
}
