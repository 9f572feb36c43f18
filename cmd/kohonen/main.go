// Command kohonen uploads images, vectorizes them and trains self-organizing
// maps from the command line.
//
// Usage:
//
//	kohonen [global flags] <command> [flags] [args]
//
// Commands:
//
//	upload FILE...          store images
//	images                  list images
//	delete-image ID         delete an image and its vector
//	process                 vectorize all images
//	vectors                 print stored vectors
//	export [-o FILE]        write vectors as CSV
//	config create|list|update|delete
//	train -config ID        train and stream events as JSON lines
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hupe1980/kohonen"
	"github.com/hupe1980/kohonen/blobstore"
	miniostore "github.com/hupe1980/kohonen/blobstore/minio"
	s3store "github.com/hupe1980/kohonen/blobstore/s3"
	"github.com/hupe1980/kohonen/codec"
	"github.com/hupe1980/kohonen/notify"
	"github.com/hupe1980/kohonen/prommetrics"
	"github.com/hupe1980/kohonen/resource"
	"github.com/hupe1980/kohonen/store"
	"github.com/hupe1980/kohonen/store/dynamo"
	"github.com/hupe1980/kohonen/training"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var errUsage = errors.New("usage: kohonen [flags] upload|images|delete-image|process|vectors|export|config|train")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "kohonen:", err)
		os.Exit(1)
	}
}

type globalFlags struct {
	backend     string
	root        string
	bucket      string
	prefix      string
	endpoint    string
	accessKey   string
	secretKey   string
	insecure    bool
	ddbTable    string
	compression string
	codec       string
	logLevel    string
	logJSON     bool
	metricsAddr string
	maxRuns     int64
	memLimit    int64
	ioLimit     int64
	workers     int
}

func parseGlobal(args []string, stderr io.Writer) (*globalFlags, []string, error) {
	g := &globalFlags{}
	fs := flag.NewFlagSet("kohonen", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&g.backend, "backend", "local", "blob store: memory, local, s3 or minio")
	fs.StringVar(&g.root, "root", "data", "root directory of the local backend")
	fs.StringVar(&g.bucket, "bucket", "", "bucket of the s3 and minio backends")
	fs.StringVar(&g.prefix, "prefix", "", "key prefix inside the bucket")
	fs.StringVar(&g.endpoint, "endpoint", "", "custom s3 endpoint or minio host:port")
	fs.StringVar(&g.accessKey, "access-key", os.Getenv("MINIO_ACCESS_KEY"), "minio access key")
	fs.StringVar(&g.secretKey, "secret-key", os.Getenv("MINIO_SECRET_KEY"), "minio secret key")
	fs.BoolVar(&g.insecure, "insecure", false, "talk plain http to minio")
	fs.StringVar(&g.ddbTable, "ddb-table", "", "store configurations in this DynamoDB table")
	fs.StringVar(&g.compression, "compression", "none", "record compression: none, lz4 or zstd")
	fs.StringVar(&g.codec, "codec", "go-json", "record and event codec: go-json or json")
	fs.StringVar(&g.logLevel, "log-level", "info", "log level: debug, info, warn or error")
	fs.BoolVar(&g.logJSON, "log-json", false, "log as JSON")
	fs.StringVar(&g.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	fs.Int64Var(&g.maxRuns, "max-runs", 1, "concurrent training runs")
	fs.Int64Var(&g.memLimit, "memory-limit", 0, "image bytes held while vectorizing, 0 for none")
	fs.Int64Var(&g.ioLimit, "io-limit", 0, "image IO limit in bytes per second, 0 for none")
	fs.IntVar(&g.workers, "workers", 0, "vectorization workers, 0 for GOMAXPROCS")
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return g, fs.Args(), nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	g, rest, err := parseGlobal(args, stderr)
	if err != nil {
		return err
	}
	if len(rest) == 0 {
		return errUsage
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(g.logLevel)); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	logger := kohonen.NewTextLogger(level)
	if g.logJSON {
		logger = kohonen.NewJSONLogger(level)
	}

	comp, err := store.ParseCompression(g.compression)
	if err != nil {
		return err
	}

	cdc, ok := codec.ByName(g.codec)
	if !ok {
		return fmt.Errorf("unknown codec %q", g.codec)
	}

	bs, err := openBlobStore(ctx, g)
	if err != nil {
		return err
	}

	opts := []kohonen.Option{
		kohonen.WithLogger(logger),
		kohonen.WithCodec(cdc),
		kohonen.WithCompression(comp),
		kohonen.WithWorkers(g.workers),
		kohonen.WithResourceController(resource.NewController(resource.Config{
			MaxConcurrentRuns:  g.maxRuns,
			MemoryLimitBytes:   g.memLimit,
			IOLimitBytesPerSec: g.ioLimit,
		})),
		kohonen.WithSink(notify.NewStreamSink[training.Event](stdout, cdc)),
	}

	if g.ddbTable != "" {
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return fmt.Errorf("load aws config: %w", err)
		}
		opts = append(opts, kohonen.WithConfigRepository(dynamo.NewConfigRepository(dynamodb.NewFromConfig(cfg), g.ddbTable)))
	}

	if g.metricsAddr != "" {
		reg := prometheus.NewRegistry()
		opts = append(opts, kohonen.WithMetricsCollector(prommetrics.New(reg)))
		srv := &http.Server{
			Addr:              g.metricsAddr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "error", err)
			}
		}()
		defer srv.Close()
	}

	svc := kohonen.New(bs, opts...)
	defer svc.Close()

	cmd, cmdArgs := rest[0], rest[1:]
	switch cmd {
	case "upload":
		return cmdUpload(ctx, svc, cmdArgs, stdout)
	case "images":
		return cmdImages(ctx, svc, stdout)
	case "delete-image":
		return cmdDeleteImage(ctx, svc, cmdArgs)
	case "process":
		return cmdProcess(ctx, svc, stdout)
	case "vectors":
		return cmdVectors(ctx, svc, stdout)
	case "export":
		return cmdExport(ctx, svc, cmdArgs, stdout, stderr)
	case "config":
		return cmdConfig(ctx, svc, cmdArgs, stdout, stderr)
	case "train":
		return cmdTrain(ctx, svc, cmdArgs, stderr)
	default:
		return fmt.Errorf("unknown command %q: %w", cmd, errUsage)
	}
}

func openBlobStore(ctx context.Context, g *globalFlags) (blobstore.BlobStore, error) {
	switch g.backend {
	case "memory":
		return blobstore.NewMemoryStore(), nil
	case "local":
		return blobstore.NewLocalStore(g.root), nil
	case "s3":
		if g.bucket == "" {
			return nil, errors.New("s3 backend needs -bucket")
		}
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		client := s3.NewFromConfig(cfg, func(o *s3.Options) {
			if g.endpoint != "" {
				o.BaseEndpoint = aws.String(g.endpoint)
				o.UsePathStyle = true
			}
		})
		return s3store.NewStore(client, g.bucket, g.prefix), nil
	case "minio":
		if g.bucket == "" || g.endpoint == "" {
			return nil, errors.New("minio backend needs -bucket and -endpoint")
		}
		client, err := minio.New(g.endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(g.accessKey, g.secretKey, ""),
			Secure: !g.insecure,
		})
		if err != nil {
			return nil, fmt.Errorf("minio client: %w", err)
		}
		st := miniostore.NewStore(client, g.bucket, g.prefix)
		if err := st.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", g.backend)
	}
}

func parseID(s string) (uint32, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return uint32(id), nil
}

func cmdUpload(ctx context.Context, svc *kohonen.Service, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return errors.New("usage: upload FILE...")
	}
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		img, err := svc.UploadImage(ctx, filepath.Base(path), data)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%d\t%s\n", img.ID, img.Name)
	}
	return nil
}

func cmdImages(ctx context.Context, svc *kohonen.Service, stdout io.Writer) error {
	imgs, err := svc.Images(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tFORMAT\tSIZE\tUPLOADED")
	for _, img := range imgs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", img.ID, img.Name, img.Format, img.Size, img.UploadedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}

func cmdDeleteImage(ctx context.Context, svc *kohonen.Service, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: delete-image ID")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return svc.DeleteImage(ctx, id)
}

func cmdProcess(ctx context.Context, svc *kohonen.Service, stdout io.Writer) error {
	vs, err := svc.ProcessImages(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "vectorized %d images, dimension %d\n", len(vs), len(vs[0].Values))
	return nil
}

func cmdVectors(ctx context.Context, svc *kohonen.Service, stdout io.Writer) error {
	vs, err := svc.Vectors(ctx)
	if err != nil {
		return err
	}
	for _, v := range vs {
		vals := make([]string, len(v.Values))
		for i, x := range v.Values {
			vals[i] = strconv.FormatFloat(x, 'f', -1, 64)
		}
		fmt.Fprintf(stdout, "%s\t%s\n", v.ImageName, strings.Join(vals, " "))
	}
	return nil
}

func cmdExport(ctx context.Context, svc *kohonen.Service, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(stderr)
	out := fs.String("o", "", "output file, stdout if empty")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *out == "" {
		return svc.ExportVectors(ctx, stdout)
	}

	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	if err := svc.ExportVectors(ctx, f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func configFlags(name string, stderr io.Writer, cfg *kohonen.Config) *flag.FlagSet {
	fs := flag.NewFlagSet("config "+name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.IntVar(&cfg.Neurons, "neurons", cfg.Neurons, "requested neuron count (even)")
	fs.IntVar(&cfg.Iterations, "iterations", cfg.Iterations, "training passes")
	fs.StringVar(&cfg.CompetitionType, "type", cfg.CompetitionType, "competition type: soft, bubble or hard")
	return fs
}

func cmdConfig(ctx context.Context, svc *kohonen.Service, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		return errors.New("usage: config create|list|update|delete")
	}

	switch args[0] {
	case "create":
		cfg := kohonen.Config{Neurons: 100, Iterations: 100, CompetitionType: "soft"}
		if err := configFlags("create", stderr, &cfg).Parse(args[1:]); err != nil {
			return err
		}
		created, err := svc.CreateConfig(ctx, cfg)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, created.ID)
		return nil
	case "update":
		if len(args) < 2 {
			return errors.New("usage: config update ID [flags]")
		}
		id, err := parseID(args[1])
		if err != nil {
			return err
		}
		cfg, err := svc.Config(ctx, id)
		if err != nil {
			return err
		}
		if err := configFlags("update", stderr, &cfg).Parse(args[2:]); err != nil {
			return err
		}
		_, err = svc.UpdateConfig(ctx, cfg)
		return err
	case "list":
		cfgs, err := svc.Configs(ctx)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNEURONS\tTYPE\tITERATIONS")
		for _, c := range cfgs {
			fmt.Fprintf(tw, "%d\t%d\t%s\t%d\n", c.ID, c.Neurons, c.CompetitionType, c.Iterations)
		}
		return tw.Flush()
	case "delete":
		if len(args) != 2 {
			return errors.New("usage: config delete ID")
		}
		id, err := parseID(args[1])
		if err != nil {
			return err
		}
		return svc.DeleteConfig(ctx, id)
	default:
		return fmt.Errorf("unknown config command %q", args[0])
	}
}

func cmdTrain(ctx context.Context, svc *kohonen.Service, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configID := fs.Uint("config", 0, "configuration id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	res, err := svc.Train(ctx, uint32(*configID))
	if err != nil {
		return err
	}
	fmt.Fprintf(stderr, "run %s %s after %d iterations, dm=%g, elapsed=%s\n",
		res.RunID, res.State, res.Iterations, res.DM, res.Elapsed.Round(time.Millisecond))
	return nil
}
