// Package main provides the gradcore CLI.
//
// Usage:
//
//	gradcore [flags]            fit a random vector to a target with SGD
//	gradcore [flags] selftest   run the backend conformance suite
//	gradcore version            print the version
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/born-ml/gradcore/autodiff"
	"github.com/born-ml/gradcore/backend"
	"github.com/born-ml/gradcore/backend/cpu"
	"github.com/born-ml/gradcore/backend/webgpu"
	"github.com/born-ml/gradcore/optim"
	"github.com/born-ml/gradcore/tensor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const version = "v0.1.0-dev"

var (
	verbose     = flag.Bool("v", false, "Enable debug logging")
	enableTrace = flag.Bool("trace", false, "Enable OpenTelemetry tracing (stdout)")
	deviceName  = flag.String("device", "cpu", "Device to train on (cpu, gpu)")
	learnRate   = flag.Float64("lr", 0.1, "SGD learning rate")
	steps       = flag.Int("steps", 50, "Number of optimizer steps")
	size        = flag.Int("size", 8, "Number of parameters to fit")
	seed        = flag.Uint64("seed", tensor.DefaultSeed, "Seed for random initialization")
	metricsAddr = flag.String("metrics", "", "Address to serve Prometheus metrics on (e.g. :9100)")
)

func main() {
	flag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	var traceOut io.Writer
	if *enableTrace {
		traceOut = os.Stdout
	}
	if err := run(flag.Arg(0), traceOut); err != nil {
		log.Error().Err(err).Msg("gradcore failed")
		os.Exit(1)
	}
}

// run executes command inside a root span. When traceOut is non-nil spans are
// exported to it, and they are flushed before run returns.
func run(command string, traceOut io.Writer) error {
	if traceOut != nil {
		shutdown, err := initTracer(traceOut)
		if err != nil {
			return fmt.Errorf("initialize tracer: %w", err)
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				log.Error().Err(err).Msg("Tracer shutdown failed")
			}
		}()
	}

	if *metricsAddr != "" {
		go serveMetrics(*metricsAddr)
	}

	ctx, span := otel.Tracer("github.com/born-ml/gradcore/cmd/gradcore").Start(
		context.Background(), "gradcore.run",
		trace.WithAttributes(attribute.String("command", command)),
	)
	defer span.End()

	err := dispatch(ctx, command)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func dispatch(ctx context.Context, command string) error {
	switch command {
	case "version":
		fmt.Printf("gradcore %s\n", version)
		return nil
	case "selftest":
		return runSelfTest()
	case "", "train":
		return runTrain(ctx)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func initTracer(w io.Writer) (func(context.Context) error, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", "gradcore"),
		)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return tp.Shutdown, nil
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	log.Info().Str("addr", addr).Msg("Serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("Metrics server stopped")
	}
}

// runTrain fits a random parameter vector w to a fixed target by minimizing
// sum((w - target)^2).
func runTrain(ctx context.Context) error {
	device, err := tensor.ParseDevice(*deviceName)
	if err != nil {
		return err
	}

	cfg := tensor.DefaultConfig()
	cfg.Seed = *seed
	cfg.DefaultDevice = device
	tctx := tensor.NewContext(cfg)

	shape := tensor.Shape{*size}
	w, err := tctx.Rand(shape, tensor.RequiresGrad(true))
	if err != nil {
		return fmt.Errorf("init parameters: %w", err)
	}
	defer w.Release()

	target, err := tctx.Full(shape, 0.5)
	if err != nil {
		return fmt.Errorf("init target: %w", err)
	}
	defer target.Release()

	opt, err := optim.NewSGD([]*tensor.Tensor{w}, optim.SGDConfig{LR: float32(*learnRate)})
	if err != nil {
		return err
	}

	log.Info().
		Str("device", w.Device().String()).
		Str("backend", w.Backend().Name()).
		Int("params", *size).
		Float32("lr", opt.GetLR()).
		Msg("Training")

	start := time.Now()
	var loss float32
	for step := range *steps {
		loss, err = trainStep(ctx, opt, w, target)
		if err != nil {
			return fmt.Errorf("step %d: %w", step, err)
		}
		if step%10 == 0 {
			log.Debug().Int("step", step).Float32("loss", loss).Msg("Step")
		}
	}

	log.Info().
		Int("steps", *steps).
		Float32("loss", loss).
		Dur("elapsed", time.Since(start)).
		Msg("Training finished")
	return nil
}

func trainStep(ctx context.Context, opt *optim.SGD, w, target *tensor.Tensor) (float32, error) {
	diff, err := autodiff.Sub(w, target)
	if err != nil {
		return 0, err
	}
	defer diff.Release()
	sq, err := autodiff.Square(diff)
	if err != nil {
		return 0, err
	}
	defer sq.Release()
	loss, err := autodiff.Sum(sq)
	if err != nil {
		return 0, err
	}
	defer loss.Release()

	value, err := loss.Item()
	if err != nil {
		return 0, err
	}
	if err := autodiff.BackwardContext(ctx, loss, autodiff.ResetGrads()); err != nil {
		return 0, err
	}
	if err := opt.StepContext(ctx); err != nil {
		return 0, err
	}
	return value, nil
}

func runSelfTest() error {
	backends := []tensor.Backend{cpu.New()}
	if backend.IsAcceleratorAvailable() {
		accel, err := webgpu.New()
		if err != nil {
			log.Warn().Err(err).Msg("Accelerator reported available but failed to initialize")
		} else {
			defer accel.Release()
			backends = append(backends, accel)
		}
	} else {
		log.Info().Msg("Accelerator not available, testing host only")
	}

	var errs []error
	for _, b := range backends {
		report := backend.SelfTest(b)
		fmt.Println(report.String())
		if !report.Passed() {
			errs = append(errs, report.Err())
		}
	}
	return errors.Join(errs...)
}
