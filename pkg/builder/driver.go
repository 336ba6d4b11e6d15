package builder

import (
	"context"
	"errors"

	"github.com/lintang-b-s/compactgraph/pkg/datastructure"
	"github.com/lintang-b-s/compactgraph/pkg/entity"
	"github.com/lintang-b-s/compactgraph/pkg/util"
	"go.uber.org/zap"
)

const progressInterval = 5_000_000

// Driver runs the two traversals over an entity source and hands every
// element to the builder. the source must replay the same elements in the
// same order for both passes.
type Driver struct {
	builder *GraphBuilder
	source  entity.Source
	logger  *zap.Logger
}

func NewDriver(b *GraphBuilder, source entity.Source, logger *zap.Logger) *Driver {
	return &Driver{builder: b, source: source, logger: logger}
}

// Run executes classification, building, and sealing in order.
func (d *Driver) Run(ctx context.Context) (*datastructure.CompactGraph, *Stats, error) {
	if err := d.classifyPass(ctx); err != nil {
		return nil, nil, wrapPassError(err, "classification pass failed")
	}
	if err := d.buildPass(ctx); err != nil {
		return nil, nil, wrapPassError(err, "build pass failed")
	}
	return d.builder.Finish()
}

// wrapPassError keeps the inner error's code so invariant violations stay
// distinguishable from bad input at the caller.
func wrapPassError(err error, msg string) error {
	code := util.ErrMalformedInput
	var uerr *util.Error
	if errors.As(err, &uerr) {
		code = uerr.Code()
	}
	return util.WrapErrorf(err, code, "%s", msg)
}

func (d *Driver) classifyPass(ctx context.Context) error {
	sc, err := d.source.NewScanner()
	if err != nil {
		return err
	}
	defer sc.Close()

	count := 0
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		switch e := sc.Entity().(type) {
		case *entity.Node:
			d.builder.ClassifyNode(e)
		case *entity.Way:
			// malformed ways are counted and skipped, not fatal
			if err := d.builder.ClassifyWay(e); err != nil && d.logger != nil {
				d.logger.Sugar().Debugf("skipping way: %v", err)
			}
		case *entity.Relation:
			d.builder.ClassifyRelation(e)
		}
		count++
		d.logProgress("classify", count)
	}
	return sc.Err()
}

func (d *Driver) buildPass(ctx context.Context) error {
	sc, err := d.source.NewScanner()
	if err != nil {
		return err
	}
	defer sc.Close()

	count := 0
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		switch e := sc.Entity().(type) {
		case *entity.Node:
			d.builder.BuildNode(e)
		case *entity.Way:
			if err := d.builder.BuildWay(e); err != nil {
				return err
			}
		case *entity.Relation:
			d.builder.BuildRelation(e)
		}
		count++
		d.logProgress("build", count)
	}
	return sc.Err()
}

func (d *Driver) logProgress(pass string, count int) {
	if d.logger != nil && count%progressInterval == 0 {
		d.logger.Sugar().Infof("%s pass: processed %d elements", pass, count)
	}
}
