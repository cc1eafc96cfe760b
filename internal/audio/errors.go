package audio

import "errors"

// ErrNoSamples: a recorded source arrived without any audio data.
var ErrNoSamples = errors.New("no audio data received from microphone")

// ErrNoAudioDevice: device auto-detection came up empty.
var ErrNoAudioDevice = errors.New("no audio input device")

// ErrSegmentationFailed: ffmpeg could not split the input into chunks.
var ErrSegmentationFailed = errors.New("audio segmentation failed")

// ErrFileNotFound: the input audio file does not exist.
var ErrFileNotFound = errors.New("audio file not found")
