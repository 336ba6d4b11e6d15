package entity

// Tags is an entity tag set. keys and values are raw strings from the
// source; interpretation belongs to the routing profile, not to the core.
type Tags map[string]string

// Find returns the value of key or "" when absent.
func (t Tags) Find(key string) string {
	return t[key]
}

// KeysWithPrefix returns every tag key starting with prefix, e.g.
// "restriction:" for per-vehicle turn restrictions.
func (t Tags) KeysWithPrefix(prefix string) []string {
	out := make([]string, 0)
	for k := range t {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			out = append(out, k)
		}
	}
	return out
}

// Node is a single geographic point. immutable once read from the source.
type Node struct {
	ID   int64
	Lat  float64
	Lon  float64
	Ele  float64
	Tags Tags
}

// Way is a polyline with attributes. NodeIDs references Node.ID values and
// must have length >= 2 to be usable.
type Way struct {
	ID      int64
	NodeIDs []int64
	Tags    Tags
}

type MemberType uint8

const (
	MEMBER_NODE MemberType = iota
	MEMBER_WAY
	MEMBER_RELATION
)

type Member struct {
	Type MemberType
	Ref  int64
	Role string
}

// Relation groups ways and nodes under roles. a relation tagged
// type=restriction with from/via/to members is a turn restriction; a
// relation tagged type=route contributes weighting hints.
type Relation struct {
	ID      int64
	Tags    Tags
	Members []Member
}

type Kind uint8

const (
	KIND_NODE Kind = iota
	KIND_WAY
	KIND_RELATION
)

type Entity interface {
	EntityKind() Kind
}

func (n *Node) EntityKind() Kind     { return KIND_NODE }
func (w *Way) EntityKind() Kind      { return KIND_WAY }
func (r *Relation) EntityKind() Kind { return KIND_RELATION }
