// Command youchoose 训练协同过滤模型、导出交互数据并读取在线推荐结果。
//
//	youchoose train     -config youchoose.yaml
//	youchoose export    -config youchoose.yaml -dir data -orders 1000
//	youchoose recommend -config youchoose.yaml -user 42 -n 10
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, args []string, stdout, stderr io.Writer) error
}

var commands = []command{
	{name: "train", usage: "train a model and optionally publish vectors", run: runTrain},
	{name: "export", usage: "export weighted adjacency and prior orders as CSV", run: runExport},
	{name: "recommend", usage: "recommend items for a user from published vectors", run: runRecommend},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}
	for _, c := range commands {
		if c.name != args[0] {
			continue
		}
		if err := c.run(ctx, args[1:], stdout, stderr); err != nil {
			fmt.Fprintf(stderr, "youchoose %s: %v\n", c.name, err)
			return 1
		}
		return 0
	}
	fmt.Fprintf(stderr, "youchoose: unknown command %q\n", args[0])
	usage(stderr)
	return 2
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: youchoose <command> [flags]")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-10s %s\n", c.name, c.usage)
	}
}
