package logstream

import (
	"strings"

	"go.uber.org/zap/zapcore"
)

// streamCore is a zapcore.Core that appends every entry to a Stream
type streamCore struct {
	zapcore.LevelEnabler
	enc    zapcore.Encoder
	stream *Stream
}

// Core returns a zap core writing entries at or above level into the stream.
// Timestamps are left to the stream itself.
func (s *Stream) Core(level zapcore.LevelEnabler) zapcore.Core {
	enc := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		LevelKey:         "level",
		NameKey:          "logger",
		MessageKey:       "msg",
		LineEnding:       "\n",
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		EncodeName:       zapcore.FullNameEncoder,
		ConsoleSeparator: " ",
	})
	return &streamCore{LevelEnabler: level, enc: enc, stream: s}
}

func (c *streamCore) With(fields []zapcore.Field) zapcore.Core {
	clone := c.enc.Clone()
	for _, f := range fields {
		f.AddTo(clone)
	}
	return &streamCore{LevelEnabler: c.LevelEnabler, enc: clone, stream: c.stream}
}

func (c *streamCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *streamCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	buf, err := c.enc.EncodeEntry(ent, fields)
	if err != nil {
		return err
	}
	line := strings.TrimRight(buf.String(), "\n")
	buf.Free()
	c.stream.Log(line)
	return nil
}

func (c *streamCore) Sync() error {
	return nil
}
