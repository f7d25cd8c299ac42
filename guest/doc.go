// Package guest builds small WebAssembly modules that follow the fork ABI.
//
// Module is an incremental builder over the wasm package's section form, and
// Program adds the fork ABI scaffolding on top. Function bodies are written
// with the chainable Code emitter:
//
//	p := guest.NewProgram(nil) // imports debug/fork, exports memory and allocate
//	hello := p.Text(16, "hello")
//	p.Run(nil, p.DebugDesc(guest.NewCode(), hello))
//	p.Invoke(nil, guest.NewCode().Unreachable())
//	wasm := p.Encode()
//
// Sample returns the demo program the CLI runs with -demo.
package guest
