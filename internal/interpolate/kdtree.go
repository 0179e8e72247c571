package interpolate

import (
	"gonum.org/v1/gonum/spatial/kdtree"
)

// site is an observation placed in the (lat, lon) plane.
type site struct {
	pos   [2]float64
	value float64
	order int // position in the observation slice, used to break distance ties
}

func (s *site) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	return s.pos[d] - c.(*site).pos[d]
}

func (s *site) Dims() int { return 2 }

// Distance returns the squared Euclidean distance.
func (s *site) Distance(c kdtree.Comparable) float64 {
	q := c.(*site)
	dlat := s.pos[0] - q.pos[0]
	dlon := s.pos[1] - q.pos[1]
	return dlat*dlat + dlon*dlon
}

type sites []*site

func (p sites) Index(i int) kdtree.Comparable { return p[i] }
func (p sites) Len() int                      { return len(p) }
func (p sites) Pivot(d kdtree.Dim) int        { return plane{sites: p, dim: d}.pivot() }
func (p sites) Slice(start, end int) kdtree.Interface {
	return p[start:end]
}

// plane sorts sites along one dimension for median partitioning.
type plane struct {
	sites
	dim kdtree.Dim
}

func (p plane) Less(i, j int) bool { return p.sites[i].pos[p.dim] < p.sites[j].pos[p.dim] }
func (p plane) Swap(i, j int)      { p.sites[i], p.sites[j] = p.sites[j], p.sites[i] }
func (p plane) Slice(start, end int) kdtree.SortSlicer {
	p.sites = p.sites[start:end]
	return p
}
func (p plane) pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
