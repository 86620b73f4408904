package main

import (
	"flag"
	"os"

	"k8s.io/klog/v2"

	"github.com/flinkview/flinkview/internal/cmd"
)

func main() {
	// Quiet klog output from client-go; service logs go through zap.
	klog.InitFlags(nil)
	_ = flag.Set("logtostderr", "false")
	_ = flag.Set("stderrthreshold", "FATAL")
	_ = flag.Set("v", "0")
	defer klog.Flush()

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
