package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"loadflow"
	"loadflow/mna/debug"
	"loadflow/types"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// 退出码
const (
	exitOK = iota
	exitError
	exitValidation
	exitNumerical
)

type options struct {
	network string
	config  string
	out     string
	trace   string
	plot    string
	verbose bool
}

func main() {
	var opt options
	flag.StringVar(&opt.network, "network", "", "网络 JSON 文件")
	flag.StringVar(&opt.config, "config", "", "求解参数 YAML 文件")
	flag.StringVar(&opt.out, "out", "", "输出带结果的网络 JSON 文件")
	flag.StringVar(&opt.trace, "trace", "", "输出收敛过程 HTML 报告")
	flag.StringVar(&opt.plot, "plot", "", "输出残差曲线 PNG")
	flag.BoolVar(&opt.verbose, "v", false, "输出迭代日志")
	flag.Parse()

	setupLogging(opt.verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	os.Exit(run(ctx, opt))
}

// setupLogging 控制台日志, verbose 时输出迭代日志
func setupLogging(verbose bool) {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).With().Timestamp().Logger()
}

func run(ctx context.Context, opt options) int {
	if opt.network == "" {
		flag.Usage()
		return exitError
	}
	cfg := types.DefaultSolverConfig()
	if opt.config != "" {
		var err error
		if cfg, err = types.LoadSolverConfig(opt.config); err != nil {
			return fail(err, "读取求解参数失败")
		}
	}
	var charts *debug.Charts
	opts := []loadflow.Option{loadflow.WithConfig(cfg), loadflow.WithLogger(log.Logger)}
	if cfg.Trace || opt.trace != "" || opt.plot != "" {
		charts = &debug.Charts{}
		opts = append(opts, loadflow.WithDebug(charts))
	}

	n, err := loadflow.FromJSON(opt.network, opts...)
	if err != nil {
		return fail(err, "加载网络失败")
	}
	_, solveErr := n.SolveLoadFlow(ctx)
	if charts != nil {
		writeTrace(charts, opt)
	}
	if solveErr != nil {
		return fail(solveErr, "潮流计算失败")
	}

	if opt.out != "" {
		if err := n.ToJSON(opt.out, true); err != nil {
			return fail(err, "写入结果失败")
		}
	}
	v := n.Violations()
	if v.Empty() {
		fmt.Println("无越限")
		return exitOK
	}
	for _, id := range v.Buses {
		fmt.Println("母线电压越限:", id)
	}
	for _, id := range v.Lines {
		fmt.Println("线路过载:", id)
	}
	for _, id := range v.Transformers {
		fmt.Println("变压器过载:", id)
	}
	return exitOK
}

// writeTrace 输出调试报告, 失败只记录日志
func writeTrace(charts *debug.Charts, opt options) {
	if opt.trace != "" {
		f, err := os.Create(opt.trace)
		if err == nil {
			err = charts.Render(f)
			f.Close()
		}
		if err != nil {
			log.Error().Err(err).Str("path", opt.trace).Msg("写入收敛报告失败")
		}
	}
	if opt.plot != "" {
		p, err := debug.ResidualPlot(&charts.Record)
		if err == nil {
			var f *os.File
			if f, err = os.Create(opt.plot); err == nil {
				err = debug.WritePNG(p, f)
				f.Close()
			}
		}
		if err != nil {
			log.Error().Err(err).Str("path", opt.plot).Msg("写入残差曲线失败")
		}
	}
}

// fail 记录错误并按错误类别返回退出码
func fail(err error, msg string) int {
	log.Error().Err(err).Msg(msg)
	switch {
	case errors.Is(err, types.ErrValidation):
		return exitValidation
	case errors.Is(err, types.ErrNumerical):
		return exitNumerical
	}
	return exitError
}
