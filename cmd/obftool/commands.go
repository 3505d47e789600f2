package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sync/atomic"
	"text/tabwriter"
	"time"

	"github.com/davecgh/go-spew/spew"
	"go.uber.org/zap"

	"github.com/Faultbox/desco/internal/export"
	"github.com/Faultbox/desco/internal/scene"
	"github.com/Faultbox/desco/internal/watch"
	"github.com/Faultbox/desco/pkg/obf"
)

var errUsage = errors.New("invalid arguments")

func (a *app) cmdInfo(args []string) error {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: obftool info <file.obf>")
		return errUsage
	}

	doc, err := a.load(args[0])
	if err != nil {
		return err
	}

	groups := 0
	transforms := 0
	for _, n := range doc.Nodes {
		groups += len(n.Groups)
		if n.HasTransform {
			transforms++
		}
	}
	b := doc.Bounds()

	fmt.Fprintf(a.out, "File:       %s\n", args[0])
	fmt.Fprintf(a.out, "Version:    %s\n", doc.Version)
	fmt.Fprintf(a.out, "Nodes:      %d (%d with transform)\n", len(doc.Nodes), transforms)
	fmt.Fprintf(a.out, "Groups:     %d\n", groups)
	fmt.Fprintf(a.out, "Primitives: %d\n", doc.PrimitiveCount())
	fmt.Fprintf(a.out, "Vertices:   %d\n", doc.TotalVertexCount())
	fmt.Fprintf(a.out, "Indices:    %d\n", doc.TotalIndexCount())
	fmt.Fprintf(a.out, "Bounds:     (%.3f, %.3f, %.3f) - (%.3f, %.3f, %.3f)\n",
		b.Min[0], b.Min[1], b.Min[2], b.Max[0], b.Max[1], b.Max[2])
	return nil
}

func (a *app) cmdDump(args []string) error {
	fs := flag.NewFlagSet("dump", flag.ContinueOnError)
	withMeshes := fs.Bool("meshes", false, "Include mesh geometry")
	depth := fs.Int("depth", 0, "Maximum nesting depth (0 = unlimited)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: obftool dump [-meshes] [-depth n] <file.obf>")
		return errUsage
	}

	doc, err := a.load(fs.Arg(0))
	if err != nil {
		return err
	}

	sc := spew.NewDefaultConfig()
	sc.DisableCapacities = true
	sc.DisablePointerAddresses = true
	sc.SortKeys = true
	sc.MaxDepth = *depth

	sc.Fdump(a.out, doc.Nodes)
	if *withMeshes {
		for _, k := range doc.Keys() {
			m, _ := doc.Mesh(k)
			fmt.Fprintf(a.out, "mesh %s:\n", k)
			sc.Fdump(a.out, m)
		}
	}
	return nil
}

func (a *app) cmdMeshes(args []string) error {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: obftool meshes <file.obf>")
		return errUsage
	}

	doc, err := a.load(args[0])
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tNODE\tOFFSET\tTOPOLOGY\tLAYOUT\tVERTS\tPRIMS\tMATERIAL")
	err = doc.Each(func(k obf.Key, g *obf.Group, m *obf.Mesh) error {
		_, werr := fmt.Fprintf(tw, "%s\t%s\t(%.3f, %.3f)\t%s\t%s\t%d\t%d\t%s\n",
			k, doc.Nodes[k.Node].Name, g.OffsetU, g.OffsetV,
			m.Topology, m.Layout, m.VertexCount(), m.PrimitiveCount(), m.Material)
		return werr
	})
	if err != nil {
		return err
	}
	return tw.Flush()
}

func (a *app) cmdExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	bake := fs.Bool("bake-offsets", a.cfg.Export.ApplyOffsets, "Bake group texture offsets into UVs")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: obftool export [-bake-offsets] <file.obf> [out.gltf|out.glb]")
		return errUsage
	}

	input := fs.Arg(0)
	output := export.OutputPath(input, a.cfg.Export.OutputDir, a.cfg.Export.Binary)
	if fs.NArg() > 1 {
		output = fs.Arg(1)
	}

	doc, err := a.load(input)
	if err != nil {
		return err
	}

	opts := export.Options{ApplyOffsets: *bake, Binary: a.cfg.Export.Binary}
	if err := export.Save(doc, output, opts); err != nil {
		return err
	}

	a.log.Info("exported", zap.String("input", input), zap.String("output", output), zap.Int("meshes", doc.Len()))
	fmt.Fprintf(a.out, "Exported: %s (%d meshes)\n", output, doc.Len())
	return nil
}

// countingTarget is a headless renderer: it accepts every draw and uniform
// update and only counts them.
type countingTarget struct {
	draws   atomic.Int64
	offsets atomic.Int64
}

func (c *countingTarget) SetTimer(float32)               {}
func (c *countingTarget) SetTexCoordOffset(u, v float32) { c.offsets.Add(1) }
func (c *countingTarget) Draw(*obf.Mesh) error           { c.draws.Add(1); return nil }

func (a *app) cmdWatch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	interval := fs.Duration("interval", time.Second, "Headless frame interval")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: obftool watch [-interval d] <file.obf>")
		return errUsage
	}
	if *interval <= 0 {
		return fmt.Errorf("watch interval must be positive, got %s", *interval)
	}

	path, err := a.assets.Resolve(fs.Arg(0))
	if err != nil {
		return err
	}

	opts, err := a.decodeOptions()
	if err != nil {
		return err
	}
	s, err := scene.Load(path, a.log.Named("scene"), opts...)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := watch.New(path, func(doc *obf.Document) {
		a.assets.Invalidate(path)
		s.Swap(doc)
	},
		watch.WithDebounce(a.cfg.Watch.Debounce),
		watch.WithLogger(a.log.Named("watch")),
		watch.WithDecodeOptions(opts...))

	errc := make(chan error, 1)
	go func() { errc <- w.Run(ctx) }()

	target := &countingTarget{}
	defer func() {
		a.log.Info("stopped", zap.Uint64("frames", s.Frames()), zap.Int64("draws", target.draws.Load()))
	}()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			return <-errc
		case err := <-errc:
			return err
		case now := <-ticker.C:
			s.Advance(now.Sub(last))
			last = now
			stats, err := s.Frame(target, target)
			if err != nil {
				cancel()
				<-errc
				return err
			}
			a.log.Debug("frame",
				zap.Int("meshes", stats.Meshes),
				zap.Int("vertices", stats.Vertices),
				zap.Float32("timer", s.Timer()))
		}
	}
}
