package whisperx

// Config mirrors the [transcription] section of the dualsub config.
type Config struct {
	Model       string
	CUDAEnabled bool
	// VADMethod is "silero" (the default) or "pyannote". Pyannote reads
	// HFToken to download its gated model.
	VADMethod string
	HFToken   string
	// KeepAudio leaves the extracted 16 kHz WAV in the work directory.
	KeepAudio bool
}

const (
	DefaultModel      = "base"
	VADMethodSilero   = "silero"
	VADMethodPyannote = "pyannote"

	UVXCommand    = "uvx"
	FFmpegCommand = "ffmpeg"

	PypiIndexURL = "https://pypi.org/simple"
	cudaIndexURL = "https://download.pytorch.org/whl/cu128"
)

// decodeFlags are passed to every WhisperX run. Sentence resolution keeps
// one spoken sentence per segment, which becomes one cue.
var decodeFlags = []string{
	"--batch_size", "4",
	"--output_format", "json",
	"--segment_resolution", "sentence",
	"--chunk_size", "15",
	"--vad_onset", "0.08",
	"--vad_offset", "0.07",
	"--beam_size", "5",
	"--temperature", "0.0",
}

func (c Config) model() string {
	if c.Model != "" {
		return c.Model
	}
	return DefaultModel
}

func (c Config) vadArgs() []string {
	method := c.VADMethod
	if method == "" {
		method = VADMethodSilero
	}
	args := []string{"--vad_method", method}
	if method == VADMethodPyannote && c.HFToken != "" {
		args = append(args, "--hf_token", c.HFToken)
	}
	return args
}

// indexArgs selects the package index uvx resolves torch from.
func (c Config) indexArgs() []string {
	if c.CUDAEnabled {
		return []string{"--index-url", cudaIndexURL, "--extra-index-url", PypiIndexURL}
	}
	return []string{"--index-url", PypiIndexURL}
}

func (c Config) deviceArgs() []string {
	if c.CUDAEnabled {
		return []string{"--device", "cuda"}
	}
	return []string{"--device", "cpu", "--compute_type", "float32"}
}
