// Package telemetry provides OpenTelemetry tracing and metrics for rerankd.
//
// Spans and OTel metrics are exported over OTLP (gRPC or HTTP) to a
// collector. Rerank call counters for Prometheus scraping live in the
// compressor package and are served on /metrics; this package covers the
// OTLP side only.
//
// # Usage
//
//	cfg := telemetry.FromSettings(appCfg.Telemetry, version)
//	tel, err := telemetry.New(ctx, cfg, logger)
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//
//	ctx, span := tel.Tracer("rerankd.http").Start(ctx, "rerank")
//	defer span.End()
//
// # Configuration
//
//	telemetry:
//	  enabled: true
//	  endpoint: "localhost:4317"
//	  protocol: grpc          # or http/protobuf
//	  service_name: "rerankd"
//	  insecure: true          # loopback endpoints only
//
// Failures to build an exporter mark the instance degraded instead of
// failing startup.
//
// # Testing
//
//	tt := telemetry.NewTestTelemetry()
//	_, span := tt.Tracer("test").Start(ctx, "test-span")
//	span.End()
//	tt.AssertSpanExists(t, "test-span")
package telemetry
