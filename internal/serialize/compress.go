package serialize

import (
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// maxDecodedSize bounds decompressed output so a small hostile payload cannot
// expand without limit.
const maxDecodedSize = 1 << 30

var errEmptyPayload = errors.New("empty compressed payload")

// The zstd encoder and decoder are shared by every data source in the
// process. EncodeAll and DecodeAll are goroutine-safe, so a single instance
// of each serves concurrent plan encodes and decodes.
var (
	sharedEncoder = sync.OnceValues(func() (*zstd.Encoder, error) {
		enc, err := zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.SpeedDefault),
			zstd.WithEncoderCRC(true),
			zstd.WithZeroFrames(true),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		return enc, nil
	})

	sharedDecoder = sync.OnceValues(func() (*zstd.Decoder, error) {
		dec, err := zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(0),
			zstd.WithDecoderMaxMemory(maxDecodedSize),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
		}
		return dec, nil
	})
)

// Compress encodes a record payload as a single zstd frame.
func Compress(payload []byte) ([]byte, error) {
	enc, err := sharedEncoder()
	if err != nil {
		return nil, err
	}
	return enc.EncodeAll(payload, make([]byte, 0, len(payload)/2+64)), nil
}

// Decompress reverses Compress. Empty input is rejected since a valid frame
// is never empty, even for an empty payload.
func Decompress(frame []byte) ([]byte, error) {
	if len(frame) == 0 {
		return nil, fmt.Errorf("failed to decompress: %w", errEmptyPayload)
	}
	dec, err := sharedDecoder()
	if err != nil {
		return nil, err
	}
	payload, err := dec.DecodeAll(frame, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress %d bytes: %w", len(frame), err)
	}
	return payload, nil
}
