package libgl

import (
	"cubemap-prefilter/logger"
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.5-core/gl"
	"go.uber.org/zap"
)

type LabeledGlObject interface {
	SetDebugLabel(string)
}

func setObjectLabel(namespace, id uint32, label string) {
	if label == "" {
		return
	}
	bytes := []byte(label)
	gl.ObjectLabel(namespace, id, int32(len(bytes)), (*uint8)(unsafe.Pointer(&bytes[0])))
}

// EnableDebugOutput routes driver debug messages to the logger.
// Only has an effect on debug contexts.
func EnableDebugOutput() {
	State.Enable(DebugOutput)
	State.Enable(DebugOutputSynchronous)
	gl.DebugMessageCallback(func(source, gltype, id, severity uint32, length int32, message string, userParam unsafe.Pointer) {
		fields := []zap.Field{zap.Uint32("id", id), zap.String("type", fmt.Sprintf("0x%04x", gltype))}
		switch severity {
		case gl.DEBUG_SEVERITY_HIGH:
			logger.Log.Error("GL: "+message, fields...)
		case gl.DEBUG_SEVERITY_MEDIUM:
			logger.Log.Warn("GL: "+message, fields...)
		default:
			logger.Log.Debug("GL: "+message, fields...)
		}
	}, nil)
}

// CheckError drains the GL error queue. It returns nil if no error was recorded.
func CheckError(op string) error {
	var codes []uint32
	for code := gl.GetError(); code != gl.NO_ERROR; code = gl.GetError() {
		codes = append(codes, code)
		// a lost context reports errors forever
		if len(codes) >= 16 {
			break
		}
	}
	if len(codes) == 0 {
		return nil
	}
	names := make([]string, len(codes))
	for i, c := range codes {
		names[i] = errorName(c)
	}
	return fmt.Errorf("%s: %v", op, names)
}

func errorName(code uint32) string {
	switch code {
	case gl.INVALID_ENUM:
		return "GL_INVALID_ENUM"
	case gl.INVALID_VALUE:
		return "GL_INVALID_VALUE"
	case gl.INVALID_OPERATION:
		return "GL_INVALID_OPERATION"
	case gl.INVALID_FRAMEBUFFER_OPERATION:
		return "GL_INVALID_FRAMEBUFFER_OPERATION"
	case gl.OUT_OF_MEMORY:
		return "GL_OUT_OF_MEMORY"
	case gl.STACK_UNDERFLOW:
		return "GL_STACK_UNDERFLOW"
	case gl.STACK_OVERFLOW:
		return "GL_STACK_OVERFLOW"
	}
	return fmt.Sprintf("0x%04x", code)
}
