// Package burnin validates subtitle styles and builds the ffmpeg invocation
// that composites a subtitle file into video. It also picks which subtitle
// artifact to burn.
//
// Nothing here runs a process; callers hand the Command to an encoder.
package burnin
