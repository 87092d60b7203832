package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"runtime"
	"time"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/071975/NeMo/softmax"
)

// benchReport is the JSON document emitted by the bench subcommand.
type benchReport struct {
	Batches      int     `json:"batches"`
	AttnHeads    int     `json:"attn_heads"`
	QueryLen     int     `json:"query_len"`
	KeyLen       int     `json:"key_len"`
	Runs         int     `json:"runs"`
	Workers      int     `json:"workers"`
	ForwardMsec  float64 `json:"forward_msec_per_run"`
	BackwardMsec float64 `json:"backward_msec_per_run"`
	RowsPerSec   float64 `json:"forward_rows_per_sec"`
}

func benchCmd() *cli.Command {
	var (
		batches   int64
		attnHeads int64
		queryLen  int64
		keyLen    int64
		runs      int64
		warmup    int64
	)

	return &cli.Command{
		Name:  "bench",
		Usage: "Time forward and backward launches and emit a JSON report",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "batches", Value: 8, Destination: &batches},
			&cli.Int64Flag{Name: "heads", Value: 16, Destination: &attnHeads},
			&cli.Int64Flag{Name: "query-len", Value: 128, Destination: &queryLen},
			&cli.Int64Flag{Name: "key-len", Value: 1024, Destination: &keyLen},
			&cli.Int64Flag{Name: "runs", Value: 10, Destination: &runs},
			&cli.Int64Flag{Name: "warmup", Value: 2, Destination: &warmup},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			b, h, q, k := int(batches), int(attnHeads), int(queryLen), int(keyLen)
			if k > softmax.MaxElements {
				return cli.Exit(fmt.Sprintf("error: key-len %d exceeds maximum %d", k, softmax.MaxElements), 1)
			}

			n := b * h * q * k
			rng := rand.New(rand.NewSource(42))
			src := make([]float32, n)
			for i := range src {
				src[i] = rng.Float32()*2 - 1
			}
			mask := make([]uint8, q*k)
			for i := range mask {
				if rng.Intn(10) == 0 {
					mask[i] = 1
				}
			}
			dst := make([]float32, n)
			grad := make([]float32, n)
			gradIn := make([]float32, n)
			scale := float32(0.125)

			for i := 0; i < int(warmup); i++ {
				softmax.Forward(dst, src, mask, scale, q, k, b, h, 1)
				softmax.Backward(gradIn, grad, dst, scale, q, k, b, h)
			}

			start := time.Now()
			for i := 0; i < int(runs); i++ {
				softmax.Forward(dst, src, mask, scale, q, k, b, h, 1)
			}
			fwd := time.Since(start)

			start = time.Now()
			for i := 0; i < int(runs); i++ {
				softmax.Backward(gradIn, grad, dst, scale, q, k, b, h)
			}
			bwd := time.Since(start)

			rows := b * h * q
			report := benchReport{
				Batches:      b,
				AttnHeads:    h,
				QueryLen:     q,
				KeyLen:       k,
				Runs:         int(runs),
				Workers:      runtime.NumCPU(),
				ForwardMsec:  float64(fwd.Milliseconds()) / float64(runs),
				BackwardMsec: float64(bwd.Milliseconds()) / float64(runs),
				RowsPerSec:   float64(rows) * float64(runs) / fwd.Seconds(),
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
}
