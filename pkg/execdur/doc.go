// Package execdur measures how long named code blocks take and how that time splits
// between named checkpoints, aggregated over every execution in the process.
//
//	func handle() {
//		p := execdur.New("handle")
//		defer p.Stop()
//
//		decode()
//		p.AddPoint("decode")
//		store()
//		p.AddPoint("store")
//	}
//
//	// later
//	_ = execdur.Print(os.Stdout)
//
// A probe is committed once, when Stop runs. Probes without checkpoints or with a zero
// total are discarded, and checkpoints observed while the wall clock moves backwards are
// dropped. None of this is reported as an error; install a logger with SetLogger to see
// the drops at debug level.
package execdur
