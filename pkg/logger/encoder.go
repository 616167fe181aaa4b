package logger

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

var bufferpool = buffer.NewPool()

// bracketTimeEncoder formats time as [2006-01-02 15:04:05]
func bracketTimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + t.Format("2006-01-02 15:04:05") + "]")
}

// bracketLevelEncoder formats level as [INFO]
func bracketLevelEncoder(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + level.CapitalString() + "]")
}

// bracketColorLevelEncoder formats level as [INFO] wrapped in an ANSI color
func bracketColorLevelEncoder(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	var color string
	switch level {
	case zapcore.DebugLevel:
		color = "\x1b[35m"
	case zapcore.InfoLevel:
		color = "\x1b[34m"
	case zapcore.WarnLevel:
		color = "\x1b[33m"
	case zapcore.ErrorLevel, zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		color = "\x1b[31m"
	default:
		color = "\x1b[0m"
	}
	enc.AppendString(color + "[" + level.CapitalString() + "]\x1b[0m")
}

// kvConsoleEncoder is a console encoder that renders fields as key=value
// instead of a trailing JSON object.
type kvConsoleEncoder struct {
	zapcore.Encoder
	cfg zapcore.EncoderConfig
}

func newKVConsoleEncoder(cfg zapcore.EncoderConfig) zapcore.Encoder {
	return &kvConsoleEncoder{
		Encoder: zapcore.NewConsoleEncoder(cfg),
		cfg:     cfg,
	}
}

// Clone creates a copy of the encoder
func (e *kvConsoleEncoder) Clone() zapcore.Encoder {
	return &kvConsoleEncoder{Encoder: e.Encoder.Clone(), cfg: e.cfg}
}

// EncodeEntry writes time, level, caller and message, then fields as key=value
func (e *kvConsoleEncoder) EncodeEntry(entry zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	buf := bufferpool.Get()

	appendPrimitive := func(fn func(*stringArray)) {
		arr := &stringArray{}
		fn(arr)
		for _, s := range arr.elems {
			buf.AppendString(s)
			buf.AppendString(e.cfg.ConsoleSeparator)
		}
	}

	if e.cfg.EncodeTime != nil {
		appendPrimitive(func(a *stringArray) { e.cfg.EncodeTime(entry.Time, a) })
	}
	if e.cfg.EncodeLevel != nil {
		appendPrimitive(func(a *stringArray) { e.cfg.EncodeLevel(entry.Level, a) })
	}
	if entry.Caller.Defined && e.cfg.EncodeCaller != nil {
		appendPrimitive(func(a *stringArray) { e.cfg.EncodeCaller(entry.Caller, a) })
	}

	buf.AppendString(entry.Message)

	for _, field := range fields {
		buf.AppendString(e.cfg.ConsoleSeparator)
		buf.AppendString(field.Key)
		buf.AppendByte('=')
		appendFieldValue(buf, field)
	}

	if entry.Stack != "" {
		buf.AppendString(zapcore.DefaultLineEnding)
		buf.AppendString(entry.Stack)
	}
	buf.AppendString(zapcore.DefaultLineEnding)
	return buf, nil
}

// stringArray collects primitive encoder output as strings
type stringArray struct {
	elems []string
}

func (s *stringArray) add(v any)                      { s.elems = append(s.elems, fmt.Sprint(v)) }
func (s *stringArray) AppendBool(v bool)              { s.add(v) }
func (s *stringArray) AppendByteString(v []byte)      { s.elems = append(s.elems, string(v)) }
func (s *stringArray) AppendComplex128(v complex128)  { s.add(v) }
func (s *stringArray) AppendComplex64(v complex64)    { s.add(v) }
func (s *stringArray) AppendFloat64(v float64)        { s.add(v) }
func (s *stringArray) AppendFloat32(v float32)        { s.add(v) }
func (s *stringArray) AppendInt(v int)                { s.add(v) }
func (s *stringArray) AppendInt64(v int64)            { s.add(v) }
func (s *stringArray) AppendInt32(v int32)            { s.add(v) }
func (s *stringArray) AppendInt16(v int16)            { s.add(v) }
func (s *stringArray) AppendInt8(v int8)              { s.add(v) }
func (s *stringArray) AppendString(v string)          { s.elems = append(s.elems, v) }
func (s *stringArray) AppendUint(v uint)              { s.add(v) }
func (s *stringArray) AppendUint64(v uint64)          { s.add(v) }
func (s *stringArray) AppendUint32(v uint32)          { s.add(v) }
func (s *stringArray) AppendUint16(v uint16)          { s.add(v) }
func (s *stringArray) AppendUint8(v uint8)            { s.add(v) }
func (s *stringArray) AppendUintptr(v uintptr)        { s.add(v) }
func (s *stringArray) AppendDuration(v time.Duration) { s.elems = append(s.elems, v.String()) }
func (s *stringArray) AppendTime(v time.Time)         { s.elems = append(s.elems, v.String()) }
func (s *stringArray) AppendArray(v zapcore.ArrayMarshaler) error {
	return v.MarshalLogArray(s)
}
func (s *stringArray) AppendObject(zapcore.ObjectMarshaler) error { return nil }
func (s *stringArray) AppendReflected(v interface{}) error {
	s.add(v)
	return nil
}

// appendFieldValue renders a single field value for key=value output
func appendFieldValue(buf *buffer.Buffer, field zapcore.Field) {
	switch field.Type {
	case zapcore.StringType:
		buf.AppendString(field.String)
	case zapcore.Int64Type, zapcore.Int32Type, zapcore.Int16Type, zapcore.Int8Type:
		buf.AppendInt(field.Integer)
	case zapcore.Uint64Type, zapcore.Uint32Type, zapcore.Uint16Type, zapcore.Uint8Type:
		buf.AppendUint(uint64(field.Integer))
	case zapcore.Float64Type:
		buf.AppendFloat(math.Float64frombits(uint64(field.Integer)), 64)
	case zapcore.Float32Type:
		buf.AppendFloat(float64(math.Float32frombits(uint32(field.Integer))), 32)
	case zapcore.BoolType:
		buf.AppendBool(field.Integer == 1)
	case zapcore.DurationType:
		buf.AppendString(time.Duration(field.Integer).String())
	case zapcore.TimeFullType:
		buf.AppendString(field.Interface.(time.Time).String())
	case zapcore.ErrorType:
		if err, ok := field.Interface.(error); ok && err != nil {
			buf.AppendString(err.Error())
		} else {
			buf.AppendString("<nil>")
		}
	case zapcore.StringerType:
		if stringer, ok := field.Interface.(fmt.Stringer); ok {
			buf.AppendString(stringer.String())
		}
	default:
		if field.Interface != nil {
			buf.AppendString(fmt.Sprint(field.Interface))
		}
	}
}
