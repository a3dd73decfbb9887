// photonr renders JSON sphere scenes with a Monte-Carlo path tracer.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/golang/glog"
	"github.com/spf13/cobra"
)

var cmdRoot = &cobra.Command{
	Use:          "photonr",
	Short:        "Path trace sphere scenes",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// glog's flags ride along on the cobra flag set; mark the Go flag set
		// parsed so glog stops complaining.
		return flag.CommandLine.Parse(nil)
	},
}

var (
	enableProfiling      bool
	enableTracing        bool
	enableMetrics        bool
	monitoringProject    string
	monitoringTraceRatio float64
)

func init() {
	cmdRoot.PersistentFlags().AddGoFlagSet(flag.CommandLine)

	cmdRoot.PersistentFlags().BoolVar(&enableProfiling, "enable-profiling", false, "Send CPU and heap profiles to Cloud Profiler.")
	cmdRoot.PersistentFlags().BoolVar(&enableTracing, "enable-tracing", false, "Export render spans to Cloud Trace.")
	cmdRoot.PersistentFlags().BoolVar(&enableMetrics, "enable-metrics", false, "Export render metrics to Cloud Monitoring.")
	cmdRoot.PersistentFlags().StringVar(&monitoringProject, "monitoring-project", "", "Override project used for monitoring integration.  If not specified, the project associated with Application Default Credentials is used.")
	cmdRoot.PersistentFlags().Float64Var(&monitoringTraceRatio, "monitoring-trace-ratio", 1.0, "What ratio of traces should be exported?")
}

func main() {
	glog.CopyStandardLogTo("INFO")

	cmdRoot.AddCommand(cmdRender, cmdInspect)

	err := cmdRoot.ExecuteContext(context.Background())
	glog.Flush()
	if err != nil {
		os.Exit(1)
	}
}
