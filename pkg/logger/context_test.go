package logger_test

import (
	"bytes"
	"context"
	"log/slog"

	"github.com/frahmantamala/school-records/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Context", func() {
	It("falls back to the process logger", func() {
		Expect(logger.From(context.Background())).NotTo(BeNil())
	})

	It("accumulates request attributes", func() {
		var buf bytes.Buffer
		ctx := logger.NewContext(context.Background(), slog.New(slog.NewTextHandler(&buf, nil)))
		ctx = logger.WithRequestID(ctx, "req-1")
		ctx = logger.WithUsername(ctx, "ana")

		logger.From(ctx).Info("record appended", logger.KeySchool, "A")

		out := buf.String()
		Expect(out).To(ContainSubstring("request_id=req-1"))
		Expect(out).To(ContainSubstring("usuario=ana"))
		Expect(out).To(ContainSubstring("escuela=A"))
	})
})
