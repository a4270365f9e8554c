package media

import (
	"sync"

	"github.com/klauspost/compress/zstd"
)

// base64 data URLs compress well; blobs (video) are stored as-is
var (
	codecOnce sync.Once
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
	codecErr  error
)

func initCodec() {
	encoder, codecErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if codecErr != nil {
		return
	}
	decoder, codecErr = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
}

func compress(body []byte) ([]byte, error) {
	codecOnce.Do(initCodec)
	if codecErr != nil {
		return nil, codecErr
	}
	return encoder.EncodeAll(body, make([]byte, 0, len(body)/3)), nil
}

func decompress(body []byte) ([]byte, error) {
	codecOnce.Do(initCodec)
	if codecErr != nil {
		return nil, codecErr
	}
	return decoder.DecodeAll(body, nil)
}
