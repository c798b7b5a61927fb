package audio

const (
	DefaultSampleRate = 16000
	DefaultBitDepth   = 16
)

// GetDefaultEncodingInfo returns the encoding used on the processed-audio
// side of the pipeline: 16 kHz mono linear PCM, 16-bit.
func GetDefaultEncodingInfo() EncodingInfo {
	return EncodingInfo{SampleRate: DefaultSampleRate, BitDepth: DefaultBitDepth}
}

// EncodingInfo describes a mono linear PCM stream.
type EncodingInfo struct {
	SampleRate int
	BitDepth   int
}

func (e EncodingInfo) IsZero() bool {
	return e.SampleRate == 0 || e.BitDepth == 0
}

// BytesPerSample returns the storage size of one sample.
func (e EncodingInfo) BytesPerSample() int {
	return e.BitDepth / 8
}

// SamplesPerMillisecond returns how many samples cover one millisecond.
func (e EncodingInfo) SamplesPerMillisecond() int {
	return e.SampleRate / 1000
}
