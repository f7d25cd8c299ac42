package guest

// Sample layout.
const (
	sampleStarted = 16
	sampleDone    = 32
	sampleMessage = 48
	samplePrefix  = 1024
)

// SampleEntry is the entry point the sample program forks.
const SampleEntry = 1

// SampleMessage is the payload the sample program hands to its fork.
const SampleMessage = "fork rules!"

// Sample builds the demo guest: run logs "started", forks SampleEntry with
// SampleMessage, then logs "done". The forked entry logs
// "forked with message: <payload>" and returns the payload length.
func Sample() []byte {
	p := NewProgram(nil)

	started := p.Text(sampleStarted, "started")
	done := p.Text(sampleDone, "done")
	msg := p.Text(sampleMessage, SampleMessage)
	prefix := p.Text(samplePrefix, "forked with message: ")
	scratch := int32(prefix.Ptr() + prefix.Len())

	run := NewCode()
	p.DebugDesc(run, started)
	p.ForkDesc(run, SampleEntry, msg).Drop()
	p.DebugDesc(run, done)
	p.Run(nil, run)

	// invoke(entry, desc): locals 0=entry 1=desc
	invoke := NewCode().
		LocalGet(0).I32Const(SampleEntry).I32Eq().
		If().
		// copy payload right after the prefix
		I32Const(scratch).
		LocalGet(1).DescPtr().
		LocalGet(1).DescLen().
		MemoryCopy().
		I32Const(int32(prefix.Ptr())).
		LocalGet(1).DescLen().I32Const(int32(prefix.Len())).I32Add().
		Call(p.Debug).
		LocalGet(1).DescLen().I64ExtendI32U().
		Return().
		End().
		Unreachable()
	p.Invoke(nil, invoke)

	return p.Encode()
}
