package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/lintang-b-s/compactgraph/pkg/builder"
	"github.com/lintang-b-s/compactgraph/pkg/logger"
	"github.com/lintang-b-s/compactgraph/pkg/osmsource"
	"github.com/lintang-b-s/compactgraph/pkg/profile"
	"github.com/lintang-b-s/compactgraph/pkg/spatialindex"
	"github.com/lintang-b-s/compactgraph/pkg/util"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

type config struct {
	MapFile        string  `mapstructure:"map_file" validate:"required"`
	OutputFile     string  `mapstructure:"output_file" validate:"required"`
	ThreeDim       bool    `mapstructure:"three_dim"`
	Smooth         bool    `mapstructure:"smooth_elevation"`
	SamplingMeter  float64 `mapstructure:"long_edge_sampling_meter" validate:"gte=0"`
	Simplify       bool    `mapstructure:"simplify"`
	SnapRadiusKM   float64 `mapstructure:"snap_radius_km" validate:"gt=0"`
	BuildSnapIndex bool    `mapstructure:"build_snap_index"`
}

func loadConfig(mapFile, outFile string) (*config, error) {
	viper.SetDefault("map_file", mapFile)
	viper.SetDefault("output_file", outFile)
	viper.SetDefault("simplify", true)
	viper.SetDefault("snap_radius_km", 1.0)
	viper.SetDefault("build_snap_index", true)

	// config file is optional, flags and defaults cover the common case
	_ = util.ReadConfig("compactor", ".", "./data/")

	var cfg config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func main() {
	mapFile := flag.String("f", "./data/map.osm.pbf", "openstreetmap pbf extract")
	outFile := flag.String("o", "./data/compact_graph.graph", "output graph file")
	flag.Parse()

	log, err := logger.New()
	if err != nil {
		panic(err)
	}

	cfg, err := loadConfig(*mapFile, *outFile)
	if err != nil {
		log.Sugar().Fatalf("invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source := osmsource.NewPBFSource(ctx, cfg.MapFile)
	b := builder.NewGraphBuilder(profile.NewCarProfile(), nil, log, builder.Options{
		ThreeDim:                 cfg.ThreeDim,
		SmoothElevation:          cfg.Smooth,
		LongEdgeSamplingDistance: cfg.SamplingMeter,
		Simplify:                 cfg.Simplify,
	})

	graph, stats, err := builder.NewDriver(b, source, log).Run(ctx)
	if err != nil {
		log.Sugar().Fatalf("building compact graph: %v", err)
	}
	log.Sugar().Infof("built graph from %s: %d junction nodes, %d shape nodes, %d edges, %d restrictions (skipped: %d ways, %d restrictions)",
		cfg.MapFile, stats.TowerNodes, stats.PillarNodes, stats.Edges,
		stats.Restrictions, stats.SkippedWays, stats.SkippedRestrictions)

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		return graph.WriteGraph(cfg.OutputFile)
	})
	if cfg.BuildSnapIndex {
		g.Go(func() error {
			idx := spatialindex.NewRtree()
			idx.Build(graph, cfg.SnapRadiusKM, log)
			// smoke query against the first junction so a broken index
			// fails the run instead of the first user
			c := graph.NodeCoordinate(0)
			_, err := idx.SnapToNearestJunction(graph, c.Lat, c.Lon, cfg.SnapRadiusKM)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		log.Sugar().Fatalf("writing compact graph: %v", err)
	}

	log.Sugar().Infof("compact graph written to %s", cfg.OutputFile)
}
