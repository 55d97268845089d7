// Package whisperx is the speech-to-text collaborator. It extracts a mono
// 16 kHz WAV with ffmpeg, runs WhisperX through uvx, and returns the ordered
// segments from the JSON output for transcript.Build.
//
// Configuration options (model, CUDA, VAD method) are passed via Config.
package whisperx
