package main

import "github.com/codeready-toolchain/toolchain-cicd/bandit-summary/cmd"

func main() {
	cmd.Execute()
}
