package main

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/metrics"

	"github.com/batchfabric/spark-app-monitor/pkg/config"
	"github.com/batchfabric/spark-app-monitor/pkg/kube"
	"github.com/batchfabric/spark-app-monitor/pkg/monitor"
)

var trackCmd = &cobra.Command{
	Use:   "track TAG [TAG...]",
	Short: "Track tagged applications until they reach a terminal state",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTrack,
}

func runTrack(_ *cobra.Command, tags []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if kubeconfig != "" {
		cfg.Kubeconfig = kubeconfig
	}
	if namespace != "" {
		cfg.Namespace = namespace
	}

	clientset, err := kube.NewClientset(cfg.Kubeconfig)
	if err != nil {
		return err
	}
	client := kube.NewClusterClient(clientset, kube.Namespace(cfg.Namespace))

	ctx := ctrl.SetupSignalHandler()

	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr)
	}

	engine := monitor.NewEngine(ctrl.Log.WithName("monitor"), client, cfg.MonitorOptions())
	engine.Start(ctx)

	log := ctrl.Log.WithName("track")
	var wg sync.WaitGroup
	monitors := make([]*monitor.AppMonitor, 0, len(tags))
	for _, tag := range tags {
		m := engine.Track(tag, "", nil, monitor.Listener{
			IDKnown: func(id string) {
				log.Info("application identified", "tag", tag, "appId", id)
			},
			StateChanged: func(from, to monitor.ApplicationState) {
				log.Info("application state changed", "tag", tag, "from", from, "to", to)
			},
			InfoChanged: func(info monitor.ApplicationInfo) {
				log.Info("tracking URL changed", "tag", tag, "url", info.TrackingURL)
			},
		})
		monitors = append(monitors, m)

		wg.Add(1)
		go func() {
			defer wg.Done()
			<-m.Done()
		}()
	}

	wg.Wait()

	failed := false
	for _, m := range monitors {
		state := m.State()
		log.Info("tracking finished", "tag", m.Tag(), "state", state)
		if state != monitor.StateFinished {
			failed = true
		}
	}
	if failed {
		return fmt.Errorf("one or more applications did not finish successfully")
	}
	return nil
}

// serveMetrics exposes the controller-runtime Prometheus registry, which
// the monitoring package registers all collectors against.
func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	if err := http.ListenAndServe(addr, mux); err != nil {
		setupLog.Error(err, "metrics server stopped")
	}
}
