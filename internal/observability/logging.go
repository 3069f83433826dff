// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the process-wide structured logger.
var Logger *zap.Logger

type contextKey string

// Context keys picked up by FromContext.
const (
	RequestIDKey contextKey = "request_id"
	UserIDKey    contextKey = "user_id"
	TraceIDKey   contextKey = "trace_id"
)

const projectName = "twitt"

func init() {
	Logger = NewLogger(os.Getenv("APP_ENV"), "info")
}

// NewLogger builds a zap logger. Production-like environments get JSON output,
// everything else a console encoder.
func NewLogger(env, level string) *zap.Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeCaller = func(caller zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
		if idx := strings.Index(caller.File, projectName+"/"); idx != -1 {
			enc.AppendString(caller.File[idx:] + ":" + strconv.Itoa(caller.Line))
			return
		}
		enc.AppendString(caller.TrimmedPath())
	}

	var encoder zapcore.Encoder
	switch strings.ToLower(env) {
	case "production", "prod", "staging":
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	default:
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), lvl)
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
}

// Init replaces the process logger. It is called once at startup after config load.
func Init(env, level string) {
	Logger = NewLogger(env, level)
	zap.ReplaceGlobals(Logger)
}

// Sync flushes buffered log entries.
func Sync() {
	_ = Logger.Sync()
}

// FromContext returns the process logger enriched with request-scoped fields.
func FromContext(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return Logger
	}
	fields := make([]zap.Field, 0, 3)
	if rid, ok := ctx.Value(RequestIDKey).(string); ok && rid != "" {
		fields = append(fields, zap.String("request_id", rid))
	}
	if uid, ok := ctx.Value(UserIDKey).(uuid.UUID); ok && uid != uuid.Nil {
		fields = append(fields, zap.String("user_id", uid.String()))
	}
	if tid, ok := ctx.Value(TraceIDKey).(string); ok && tid != "" {
		fields = append(fields, zap.String("trace_id", tid))
	}
	if len(fields) == 0 {
		return Logger
	}
	return Logger.With(fields...)
}

// WithUserID stores the acting user id on the context for log enrichment.
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// WSLogger provides structured logging for WebSocket operations.
type WSLogger struct {
	hubName string
}

// NewWSLogger creates a new WSLogger for the given hub.
func NewWSLogger(hubName string) *WSLogger {
	return &WSLogger{hubName: hubName}
}

// LogConnect logs a WebSocket connection event.
func (l *WSLogger) LogConnect(ctx context.Context, userID uuid.UUID, connections int) {
	FromContext(ctx).Info("websocket connected",
		zap.String("hub", l.hubName),
		zap.String("user_id", userID.String()),
		zap.Int("user_connections", connections),
	)
}

// LogDisconnect logs a WebSocket disconnection event.
func (l *WSLogger) LogDisconnect(ctx context.Context, userID uuid.UUID, reason string) {
	FromContext(ctx).Info("websocket disconnected",
		zap.String("hub", l.hubName),
		zap.String("user_id", userID.String()),
		zap.String("reason", reason),
	)
}

// LogError logs a WebSocket error event.
func (l *WSLogger) LogError(ctx context.Context, userID uuid.UUID, err error, eventType string) {
	FromContext(ctx).Error("websocket error",
		zap.String("hub", l.hubName),
		zap.String("user_id", userID.String()),
		zap.String("event_type", eventType),
		zap.Error(err),
	)
}

// LogLifecycle logs a WebSocket hub lifecycle event.
func (l *WSLogger) LogLifecycle(ctx context.Context, event string, fields ...zap.Field) {
	FromContext(ctx).Info("websocket lifecycle",
		append([]zap.Field{zap.String("hub", l.hubName), zap.String("event", event)}, fields...)...,
	)
}
