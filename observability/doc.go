// Package observability provides a hook extension that records run and
// step lifecycle metrics through OpenTelemetry.
//
// Register the extension when constructing an executor:
//
//	exec, err := executor.New(store, actions,
//		executor.WithExtension(observability.NewMetricsExtension()),
//	)
//
// With no MeterProvider configured the instruments are noops, so the
// extension is safe to register unconditionally.
package observability
