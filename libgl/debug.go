package libgl

import (
	"context"
	"fmt"
	"log/slog"
	"unsafe"

	"github.com/go-gl/gl/v4.5-core/gl"
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

// EnableDebugOutput routes synchronous driver messages to logger.
// Notifications are logged at debug level, everything else by its severity.
func EnableDebugOutput(logger *slog.Logger) {
	State.Enable(DebugOutput)
	State.Enable(DebugOutputSynchronous)

	gl.DebugMessageCallback(func(source, gltype, id, severity uint32, length int32, message string, userParam unsafe.Pointer) {
		level := slog.LevelDebug
		switch severity {
		case gl.DEBUG_SEVERITY_HIGH:
			level = slog.LevelError
		case gl.DEBUG_SEVERITY_MEDIUM:
			level = slog.LevelWarn
		case gl.DEBUG_SEVERITY_LOW:
			level = slog.LevelInfo
		}
		logger.Log(context.Background(), level, "GL: "+message, "id", id, "type", fmt.Sprintf("0x%04x", gltype))
	}, nil)
}

// Error returns the oldest recorded gl error, if any.
func Error() error {
	code := gl.GetError()
	if code == gl.NO_ERROR {
		return nil
	}
	return fmt.Errorf("gl error 0x%04x", code)
}
