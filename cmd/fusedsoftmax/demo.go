package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/071975/NeMo/softmax"
)

func demoCmd() *cli.Command {
	return &cli.Command{
		Name:  "demo",
		Usage: "Run the operator on a small example row and print the result",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			src := []float32{1.0, 2.0, 3.0}
			dst := make([]float32, len(src))

			unmasked := []uint8{0, 0, 0}
			softmax.Forward(dst, src, unmasked, float32(1.0), 1, 3, 1, 1, 1)
			fmt.Printf("softmax(%v)              = %v\n", src, dst)

			masked := []uint8{0, 1, 0}
			softmax.Forward(dst, src, masked, float32(1.0), 1, 3, 1, 1, 1)
			fmt.Printf("softmax(%v, mask=%v) = %v\n", src, masked, dst)

			grad := []float32{1.0, 0.0, 0.0}
			gradIn := make([]float32, len(src))
			softmax.Backward(gradIn, grad, dst, float32(1.0), 1, 3, 1, 1)
			fmt.Printf("backward(grad=%v)        = %v\n", grad, gradIn)

			return nil
		},
	}
}
