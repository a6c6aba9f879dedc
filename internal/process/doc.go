// Package process runs a long-lived subprocess whose stdout is consumed as
// a byte stream while stderr is forwarded to the logger.
//
// Shutdown is graceful: SIGINT first, then SIGKILL if the process has not
// exited within the grace period.
//
//	p := process.New("capture", "ffmpeg", args, logger)
//	p.SetLogParser(logging.GetLogger("ffmpeg"), ffmpeg.ParseLogLevel)
//	stdout, err := p.Start()
//	...
//	defer p.Stop()
package process
