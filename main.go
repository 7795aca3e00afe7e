package main

import "github.com/riskgate/riskgate/cmd/riskgate"

func main() { riskgate.Execute() }
