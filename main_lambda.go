//go:build lambda

package main

import (
	"github.com/aws/aws-lambda-go/lambda"

	"mix-optimizer/internal/format"
	"mix-optimizer/internal/logging"
)

func main() {
	logging.SetDefaultStructuredLogger(name, version)
	format.DisableColor()
	lambda.Start(handler)
}
