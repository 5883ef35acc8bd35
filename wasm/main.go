//go:build wasm

package main

import (
	"syscall/js"
)

func main() {
	// Export functions to JavaScript
	js.Global().Set("TokensiftNewScanner", js.FuncOf(newScanner))
	js.Global().Set("TokensiftEvaluate", js.FuncOf(evaluate))
	js.Global().Set("TokensiftScanBatch", js.FuncOf(scanBatch))
	js.Global().Set("TokensiftCloseScanner", js.FuncOf(closeScanner))
	js.Global().Set("TokensiftBuiltinRules", js.FuncOf(builtinRules))

	// Keep WASM running
	<-make(chan struct{})
}
