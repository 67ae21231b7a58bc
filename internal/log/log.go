package log

import (
	"context"
	"io"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

var std = newLogger(os.Stdout, logrus.InfoLevel)

func newLogger(w io.Writer, lvl logrus.Level) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(lvl)
	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05Z07:00",
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "ts",
			logrus.FieldKeyMsg:   "action",
			logrus.FieldKeyLevel: "level",
		},
	})
	return l
}

// Configure replaces the process logger. An unknown level falls back to info.
func Configure(level string, w io.Writer) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	std = newLogger(w, lvl)
}

// Logger exposes the underlying logger for callers that need an io.Writer.
func Logger() *logrus.Logger { return std }

func entry(c *fiber.Ctx, err error, fields map[string]any) *logrus.Entry {
	e := logrus.NewEntry(std)
	if c != nil {
		e = e.WithFields(requestFields(c)).WithField("status", c.Response().StatusCode())
	}
	return decorate(e, err, fields)
}

func decorate(e *logrus.Entry, err error, fields map[string]any) *logrus.Entry {
	if err != nil {
		e = e.WithField("err", err.Error())
	}
	if len(fields) > 0 {
		e = e.WithField("fields", fields)
	}
	return e
}

func requestFields(c *fiber.Ctx) logrus.Fields {
	f := logrus.Fields{
		"ip":     c.IP(),
		"method": c.Method(),
		"path":   c.Path(),
	}
	if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
		f["req_id"] = rid
	}
	return f
}

type requestKey struct{}

// WithRequest returns ctx tagged with c's request fields, so lines logged
// by services below the handler carry the same req_id and ip.
func WithRequest(ctx context.Context, c *fiber.Ctx) context.Context {
	return context.WithValue(ctx, requestKey{}, requestFields(c))
}

func entryCtx(ctx context.Context, err error, fields map[string]any) *logrus.Entry {
	e := logrus.NewEntry(std)
	if ctx != nil {
		if rf, ok := ctx.Value(requestKey{}).(logrus.Fields); ok {
			e = e.WithFields(rf)
		}
	}
	return decorate(e, err, fields)
}

// Audit records a state change to the card store. ctx may carry request
// fields from WithRequest.
func Audit(ctx context.Context, action string, fields map[string]any) {
	entryCtx(ctx, nil, fields).WithField("audit", true).Info(action)
}

func ErrorCtx(ctx context.Context, action string, err error, fields map[string]any) {
	entryCtx(ctx, err, fields).Error(action)
}

func Debug(c *fiber.Ctx, action string, fields map[string]any) {
	entry(c, nil, fields).Debug(action)
}

func Info(c *fiber.Ctx, action string, fields map[string]any) {
	entry(c, nil, fields).Info(action)
}

func Security(c *fiber.Ctx, action string, fields map[string]any) {
	entry(c, nil, fields).Warn(action)
}

func Error(c *fiber.Ctx, action string, err error, fields map[string]any) {
	entry(c, err, fields).Error(action)
}
