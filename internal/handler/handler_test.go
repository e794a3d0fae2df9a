package handler_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/solar-site/internal/handler"
	"github.com/angeloszaimis/solar-site/internal/metrics"
)

func named(name string, status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(name))
	})
}

var _ = Describe("Handler", func() {
	var (
		h         *handler.SiteHandler
		collector *metrics.Collector
		logBuf    *bytes.Buffer
		ctx       context.Context
		cancel    context.CancelFunc
	)

	BeforeEach(func() {
		logBuf = &bytes.Buffer{}
		log := slog.New(slog.NewTextHandler(logBuf, nil))
		ctx, cancel = context.WithCancel(context.Background())
		collector = metrics.NewCollector(100, slog.New(slog.NewTextHandler(io.Discard, nil)))
		collector.Start(ctx)

		h = handler.NewSiteHandler(log,
			named("contact", http.StatusCreated),
			named("preflight", http.StatusNoContent),
			named("static", http.StatusOK),
			collector)
	})

	AfterEach(func() {
		cancel()
	})

	serve := func(method, target string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, target, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	DescribeTable("Route",
		func(method, path, expected string) {
			Expect(handler.Route(method, path)).To(Equal(expected))
		},
		Entry("POST contact", http.MethodPost, "/api/contact", handler.RouteContact),
		Entry("OPTIONS contact", http.MethodOptions, "/api/contact", handler.RoutePreflight),
		Entry("GET contact is static", http.MethodGet, "/api/contact", handler.RouteStatic),
		Entry("PUT contact is static", http.MethodPut, "/api/contact", handler.RouteStatic),
		Entry("trailing slash is static", http.MethodPost, "/api/contact/", handler.RouteStatic),
		Entry("case sensitive", http.MethodPost, "/API/contact", handler.RouteStatic),
		Entry("lower-case method is static", "post", "/api/contact", handler.RouteStatic),
		Entry("other POST is static", http.MethodPost, "/index.html", handler.RouteStatic),
		Entry("root", http.MethodGet, "/", handler.RouteStatic),
	)

	Describe("ServeHTTP", func() {
		It("should dispatch POST /api/contact to the contact handler", func() {
			rec := serve(http.MethodPost, "/api/contact")
			Expect(rec.Code).To(Equal(http.StatusCreated))
			Expect(rec.Body.String()).To(Equal("contact"))
		})

		It("should dispatch OPTIONS /api/contact to the preflight handler", func() {
			rec := serve(http.MethodOptions, "/api/contact")
			Expect(rec.Code).To(Equal(http.StatusNoContent))
		})

		It("should send everything else to the static handler", func() {
			rec := serve(http.MethodGet, "/css/style.css")
			Expect(rec.Body.String()).To(Equal("static"))
		})

		It("should not clean paths before dispatch", func() {
			rec := serve(http.MethodGet, "/a/../../etc/passwd")
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(Equal("static"))
		})

		It("should set a request id", func() {
			rec := serve(http.MethodGet, "/")
			Expect(rec.Header().Get("X-Request-ID")).To(HaveLen(36))
		})

		It("should echo an inbound request id", func() {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("X-Request-ID", "abc-123")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			Expect(rec.Header().Get("X-Request-ID")).To(Equal("abc-123"))
		})

		It("should log the status of every request", func() {
			serve(http.MethodOptions, "/api/contact")
			Expect(logBuf.String()).To(ContainSubstring("status=204"))
			Expect(logBuf.String()).To(ContainSubstring("route=preflight"))
		})

		It("should record metrics per route", func() {
			serve(http.MethodPost, "/api/contact")
			serve(http.MethodGet, "/")
			serve(http.MethodGet, "/")

			Eventually(func() int64 {
				return collector.Snapshot().Routes[handler.RouteStatic].StatusCodes[http.StatusOK]
			}).Should(Equal(int64(2)))
			Eventually(func() int64 {
				return collector.Snapshot().Routes[handler.RouteContact].StatusCodes[http.StatusCreated]
			}).Should(Equal(int64(1)))
		})

		It("should record the implicit 200 when only the body is written", func() {
			h = handler.NewSiteHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), nil, nil,
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("ok")) }),
				collector)
			serve(http.MethodGet, "/")
			Eventually(func() int64 {
				return collector.Snapshot().Routes[handler.RouteStatic].StatusCodes[http.StatusOK]
			}).Should(Equal(int64(1)))
		})

		It("should work without a metrics collector", func() {
			h = handler.NewSiteHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), nil, nil, named("static", 200), nil)
			Expect(serve(http.MethodGet, "/").Code).To(Equal(http.StatusOK))
		})

		Context("when the target aborts", func() {
			BeforeEach(func() {
				h = handler.NewSiteHandler(slog.New(slog.NewTextHandler(logBuf, nil)),
					http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { panic(http.ErrAbortHandler) }),
					nil, nil, collector)
			})

			It("should re-panic and count the abort", func() {
				Expect(func() { serve(http.MethodPost, "/api/contact") }).To(PanicWith(http.ErrAbortHandler))
				Eventually(func() int64 {
					return collector.Snapshot().Routes[handler.RouteContact].Aborted
				}).Should(Equal(int64(1)))
				Expect(logBuf.String()).To(ContainSubstring("Request aborted"))
			})
		})
	})
})
