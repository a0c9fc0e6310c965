package main

import (
	"os"

	"github.com/spf13/cobra"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
)

var (
	cfgFile    string
	kubeconfig string
	namespace  string
	devLogging bool

	setupLog = ctrl.Log.WithName("setup")
)

var rootCmd = &cobra.Command{
	Use:   "spark-app-monitor",
	Short: "Supervise Spark applications running on a Kubernetes cluster",
	Long: `spark-app-monitor tracks Spark applications from submission to terminal
state: it resolves each application's cluster-assigned identity, polls its
driver and executor pods, surfaces logs and diagnostics, and garbage
collects applications whose launch was never confirmed.`,
	PersistentPreRun: func(*cobra.Command, []string) {
		ctrl.SetLogger(zap.New(zap.UseDevMode(devLogging)))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to an optional YAML config file")
	rootCmd.PersistentFlags().StringVar(&kubeconfig, "kubeconfig", "", "Path to a kubeconfig file (out-of-cluster use only)")
	rootCmd.PersistentFlags().StringVarP(&namespace, "namespace", "n", "", "Namespace the applications run in")
	rootCmd.PersistentFlags().BoolVar(&devLogging, "dev-logging", false, "Enable human-readable development logging")

	rootCmd.AddCommand(trackCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
