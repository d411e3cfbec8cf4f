// Command worldserver is the WorldService process entry point: loads
// config, bootstraps cloud, wires the engine to an embedded bus agent,
// and serves HTTP (index, health, metrics) on a connection-limited
// listener via gorilla/mux, with a Prometheus /metrics endpoint. The
// bus transport itself is an external collaborator this process never
// terminates a client connection against directly; see
// bridge.Native/bridge.Browser for the outbound-dialing client side.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/netutil"

	awscloud "github.com/brinewood-games/worldstream/cloud/aws"
	cloudpkg "github.com/brinewood-games/worldstream/cloud"
	"github.com/brinewood-games/worldstream/bus"
	"github.com/brinewood-games/worldstream/config"
	"github.com/brinewood-games/worldstream/engine"
	"github.com/brinewood-games/worldstream/physics"
	"github.com/brinewood-games/worldstream/snapshot"
	"github.com/brinewood-games/worldstream/structure"
	"github.com/brinewood-games/worldstream/terrain"
)

// snapshotExtent and snapshotPixels size the PNG reportToCloud publishes
// each update period; 512px keeps the upload small while still legible.
const (
	snapshotExtent = 2000.0
	snapshotPixels = 512
)

var (
	activeCellsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "worldstream_active_cells",
		Help: "Number of currently active world cells.",
	})
	ticksGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "worldstream_ticks_total",
		Help: "Total number of engine ticks processed.",
	})
	participantsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "worldstream_tracked_participants",
		Help: "Number of participants currently tracked by the engine.",
	})
)

func init() {
	prometheus.MustRegister(activeCellsGauge, ticksGauge, participantsGauge)
}

func main() {
	var manifestPath string
	flag.StringVar(&manifestPath, "structures", "", "optional YAML static-structure manifest to preload")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	var cloud cloudpkg.Cloud
	cloud, err = awscloud.New(cfg.Session)
	if err != nil {
		log.Printf("cloud: %v (continuing offline)", err)
		cloud = cloudpkg.Offline{}
	}

	terr := terrain.NewHeightmapTerrain(cfg.World.WorldSeed, cfg.World.CellSize, 16)
	world := structure.NewWorld(terr)
	if manifestPath != "" {
		n, err := structure.LoadManifest(manifestPath, world.Structures)
		if err != nil {
			log.Fatalf("manifest: %v", err)
		}
		log.Printf("loaded %d structures from %s", n, manifestPath)
	}

	eng := engine.New(cfg.World, world, physics.NewReference())
	broker := bus.NewEmbedded()
	agent := bus.NewAgent(broker, eng, bus.Config{Session: cfg.Session, TickHz: cfg.TickHz})
	agent.RegisterHandlers()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := agent.Run(ctx); err != nil {
			log.Printf("agent stopped: %v", err)
		}
	}()

	go reportToCloud(ctx, cloud, eng, world)

	r := mux.NewRouter()
	r.HandleFunc("/", serveIndex(cfg)).Methods(http.MethodGet)
	r.HandleFunc("/healthz", serveHealthz).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	l, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		log.Fatalf("listen: %v", err)
	}
	defer l.Close()
	l = netutil.LimitListener(l, cfg.MaxConns)

	log.Printf("worldstream server listening on %s (session=%s, cloud=%s)", cfg.HTTPAddr, cfg.Session, cloud)
	log.Fatal(http.Serve(l, r))
}

func serveIndex(cfg config.ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "worldstream session=%s\n", cfg.Session)
	}
}

func serveHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// reportToCloud periodically pushes engine stats and a rendered world
// snapshot to the cloud directory at cloud's own update cadence, driven by
// a ticker independent of the engine's own tick loop.
func reportToCloud(ctx context.Context, cloud cloudpkg.Cloud, eng *engine.Engine, world *structure.World) {
	ticker := time.NewTicker(cloud.UpdatePeriod())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := eng.Stats()
			activeCellsGauge.Set(float64(stats.ActiveCells))
			ticksGauge.Set(float64(stats.TotalTicks))
			participantsGauge.Set(float64(stats.TrackedParticipants))

			if err := cloud.UpdateServer(stats.TrackedParticipants); err != nil {
				log.Printf("cloud update: %v", err)
			}

			png, err := snapshot.Render(world, snapshotPixels, snapshotExtent)
			if err != nil {
				log.Printf("snapshot render: %v", err)
				continue
			}
			if err := cloud.UploadWorldSnapshot(png); err != nil {
				log.Printf("snapshot upload: %v", err)
			}
		}
	}
}
