package logger

import (
	"strings"

	"github.com/nulzo/epoch/internal/cli"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

var pool = buffer.NewPool()

// highlightEncoder colours the trailing JSON field blob of console lines.
type highlightEncoder struct {
	zapcore.Encoder
}

func newHighlightEncoder(cfg zapcore.EncoderConfig) zapcore.Encoder {
	return &highlightEncoder{Encoder: zapcore.NewConsoleEncoder(cfg)}
}

func (e *highlightEncoder) Clone() zapcore.Encoder {
	return &highlightEncoder{Encoder: e.Encoder.Clone()}
}

func (e *highlightEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	buf, err := e.Encoder.EncodeEntry(ent, fields)
	if err != nil {
		return nil, err
	}

	line := buf.String()
	idx := strings.Index(line, "\t{")
	if idx == -1 {
		return buf, nil
	}

	blob := strings.TrimRight(line[idx+1:], "\n")
	out := pool.Get()
	out.AppendString(line[:idx+1])
	out.AppendString(strings.TrimRight(cli.HighlightJSON([]byte(blob)), "\n"))
	out.AppendByte('\n')
	buf.Free()

	return out, nil
}
