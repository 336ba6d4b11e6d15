// Package osmsource adapts an openstreetmap pbf extract to the entity
// stream the builder consumes. each traversal opens its own file handle so
// the two build passes can scan independently.
package osmsource

import (
	"context"
	"os"

	"github.com/lintang-b-s/compactgraph/pkg/entity"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
)

type PBFSource struct {
	path string
	ctx  context.Context
}

func NewPBFSource(ctx context.Context, path string) *PBFSource {
	return &PBFSource{path: path, ctx: ctx}
}

func (s *PBFSource) NewScanner() (entity.Scanner, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	// must not be parallel, the builder depends on element order
	return &pbfScanner{
		file:    f,
		scanner: osmpbf.New(s.ctx, f, 0),
	}, nil
}

type pbfScanner struct {
	file    *os.File
	scanner *osmpbf.Scanner
	current entity.Entity
}

func (s *pbfScanner) Scan() bool {
	for s.scanner.Scan() {
		switch o := s.scanner.Object().(type) {
		case *osm.Node:
			s.current = convertNode(o)
			return true
		case *osm.Way:
			s.current = convertWay(o)
			return true
		case *osm.Relation:
			s.current = convertRelation(o)
			return true
		default:
			continue
		}
	}
	return false
}

func (s *pbfScanner) Entity() entity.Entity {
	return s.current
}

func (s *pbfScanner) Err() error {
	return s.scanner.Err()
}

func (s *pbfScanner) Close() error {
	errScan := s.scanner.Close()
	errFile := s.file.Close()
	if errScan != nil {
		return errScan
	}
	return errFile
}

func convertTags(tags osm.Tags) entity.Tags {
	if len(tags) == 0 {
		return nil
	}
	out := make(entity.Tags, len(tags))
	for _, t := range tags {
		out[t.Key] = t.Value
	}
	return out
}

func convertNode(n *osm.Node) *entity.Node {
	return &entity.Node{
		ID:   int64(n.ID),
		Lat:  n.Lat,
		Lon:  n.Lon,
		Tags: convertTags(n.Tags),
	}
}

func convertWay(w *osm.Way) *entity.Way {
	ids := make([]int64, len(w.Nodes))
	for i, wn := range w.Nodes {
		ids[i] = int64(wn.ID)
	}
	return &entity.Way{
		ID:      int64(w.ID),
		NodeIDs: ids,
		Tags:    convertTags(w.Tags),
	}
}

func convertRelation(r *osm.Relation) *entity.Relation {
	members := make([]entity.Member, 0, len(r.Members))
	for _, m := range r.Members {
		var mt entity.MemberType
		switch m.Type {
		case osm.TypeNode:
			mt = entity.MEMBER_NODE
		case osm.TypeWay:
			mt = entity.MEMBER_WAY
		case osm.TypeRelation:
			mt = entity.MEMBER_RELATION
		default:
			continue
		}
		members = append(members, entity.Member{
			Type: mt,
			Ref:  m.Ref,
			Role: m.Role,
		})
	}
	return &entity.Relation{
		ID:      int64(r.ID),
		Tags:    convertTags(r.Tags),
		Members: members,
	}
}
